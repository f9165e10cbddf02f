package verdicts

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/gradebench/internal/application"
	domain "github.com/bryanwahyu/gradebench/internal/domain/verdicts"
	"github.com/bryanwahyu/gradebench/internal/infra/ledger"
)

type fakeRepo struct {
	batches map[string][]domain.StoredRecord
	err     error
}

func (f *fakeRepo) Append(_ context.Context, batchID string, recs []domain.StoredRecord) error {
	if f.err != nil {
		return f.err
	}
	if f.batches == nil {
		f.batches = map[string][]domain.StoredRecord{}
	}
	f.batches[batchID] = append(f.batches[batchID], recs...)
	return nil
}

func (f *fakeRepo) List(_ context.Context, directory string, limit int) ([]*domain.StoredRecord, error) {
	var out []*domain.StoredRecord
	for _, b := range f.batches {
		for i := range b {
			if b[i].Record.Directory == directory {
				out = append(out, &b[i])
			}
		}
	}
	return out, nil
}

type fakeStore struct {
	keys []string
}

func (f *fakeStore) Upload(_ context.Context, localPath, key string) (string, error) {
	if _, err := os.Stat(localPath); err != nil {
		return "", err
	}
	f.keys = append(f.keys, key)
	return "http://minio/bucket/" + key, nil
}

func newService(t *testing.T) *Service {
	t.Helper()
	s, err := NewService([]string{"biology", "physics", "chemistry"}, false)
	require.NoError(t, err)
	return s
}

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
}

func TestCollect(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "Grading default")
	writeFiles(t, dir, map[string]string{
		"c.txt": "reasoning\nVERDICT: 9.0",
		"a.txt": "reasoning\nVERDICT: 3",
		"b.txt": "no marker",
	})
	logPath := filepath.Join(root, "results.txt")

	res, err := newService(t).Collect(context.Background(), dir, logPath)
	require.NoError(t, err)
	assert.True(t, res.Appended)
	assert.Equal(t, "Grading default", res.Directory)
	assert.Equal(t, 3, res.Scanned)
	assert.Equal(t, []domain.Record{
		{Directory: "Grading default", Filename: "a.txt", Verdict: "3"},
		{Directory: "Grading default", Filename: "c.txt", Verdict: "9.0"},
	}, res.Records)

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(data), "--- DATA BATCH FROM DIR: Grading default ---"))
	assert.NotContains(t, string(data), "b.txt")
	assert.True(t, strings.HasPrefix(string(data), "\n--- DATA BATCH FROM DIR: Grading default ---\n"))
}

func TestCollectTwiceIsALedger(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "run")
	writeFiles(t, dir, map[string]string{"biology_1.txt": "VERDICT: 4"})
	logPath := filepath.Join(root, "results.txt")
	svc := newService(t)

	_, err := svc.Collect(context.Background(), dir, logPath)
	require.NoError(t, err)
	_, err = svc.Collect(context.Background(), dir, logPath)
	require.NoError(t, err)

	recs, err := ledger.Read(logPath)
	require.NoError(t, err)
	assert.Len(t, recs, 2)
}

func TestCollectDedup(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "run")
	writeFiles(t, dir, map[string]string{"biology_1.txt": "VERDICT: 4"})
	logPath := filepath.Join(root, "results.txt")
	svc := newService(t)
	svc.Dedup = true

	first, err := svc.Collect(context.Background(), dir, logPath)
	require.NoError(t, err)
	assert.True(t, first.Appended)

	second, err := svc.Collect(context.Background(), dir, logPath)
	require.NoError(t, err)
	assert.False(t, second.Appended)

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(data), "--- DATA BATCH"))
}

func TestCollectSkipsSubdirsAndBadFiles(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "run")
	writeFiles(t, dir, map[string]string{"good.txt": "VERDICT: 2.5"})
	writeFiles(t, filepath.Join(dir, "nested"), map[string]string{"deep.txt": "VERDICT: 10"})
	require.NoError(t, os.WriteFile(filepath.Join(dir, "binary.bin"), []byte{0xff, 0xfe, 'V'}, 0o644))
	logPath := filepath.Join(root, "results.txt")

	res, err := newService(t).Collect(context.Background(), dir, logPath)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Scanned)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, []domain.Record{{Directory: "run", Filename: "good.txt", Verdict: "2.5"}}, res.Records)
}

func TestCollectNoVerdictsLeavesLogUntouched(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "run")
	writeFiles(t, dir, map[string]string{"a.txt": "nothing here", "b.txt": "VERDICT: none"})
	logPath := filepath.Join(root, "results.txt")

	res, err := newService(t).Collect(context.Background(), dir, logPath)
	require.NoError(t, err)
	assert.False(t, res.Appended)
	_, err = os.Stat(logPath)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestCollectMissingDirectory(t *testing.T) {
	_, err := newService(t).Collect(context.Background(), filepath.Join(t.TempDir(), "missing"), "log.txt")
	require.Error(t, err)
}

func TestCollectMirrorsAndPublishes(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "run")
	writeFiles(t, dir, map[string]string{"physics_3.txt": "VERDICT: 6"})
	logPath := filepath.Join(root, "results.txt")

	repo := &fakeRepo{}
	store := &fakeStore{}
	svc := newService(t)
	svc.Repo = repo
	svc.Artifacts = store
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	svc.Clock = application.FixedClock(at)

	res, err := svc.Collect(context.Background(), dir, logPath)
	require.NoError(t, err)
	require.NotEmpty(t, res.BatchID)

	rows := repo.batches[res.BatchID]
	require.Len(t, rows, 1)
	assert.Equal(t, domain.Record{Directory: "run", Filename: "physics_3.txt", Verdict: "6"}, rows[0].Record)
	assert.Equal(t, at, rows[0].CollectedAt)
	assert.Equal(t, []string{"logs/results.txt"}, store.keys)

	listed, err := svc.Verdicts(context.Background(), "run", 10)
	require.NoError(t, err)
	assert.Len(t, listed, 1)
}

func TestCollectMirrorFailureIsNotFatal(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "run")
	writeFiles(t, dir, map[string]string{"a.txt": "VERDICT: 1"})
	svc := newService(t)
	svc.Repo = &fakeRepo{err: errors.New("db down")}

	res, err := svc.Collect(context.Background(), dir, filepath.Join(root, "results.txt"))
	require.NoError(t, err)
	assert.True(t, res.Appended)
}

func TestVerdictsWithoutRepository(t *testing.T) {
	_, err := newService(t).Verdicts(context.Background(), "x", 1)
	assert.ErrorIs(t, err, ErrNoRepository)
}

func writeLog(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "results.txt")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestGroupOrdersNumerically(t *testing.T) {
	logPath := writeLog(t, "\n--- DATA BATCH FROM DIR: d ---\n"+
		ledger.FormatLine(domain.Record{Directory: "d", Filename: "biology_12_x.txt", Verdict: "3"})+
		ledger.FormatLine(domain.Record{Directory: "d", Filename: "random_file.txt", Verdict: "1"})+
		ledger.FormatLine(domain.Record{Directory: "d", Filename: "biology_4_web.txt", Verdict: "7"}))
	reportPath := filepath.Join(t.TempDir(), "grouped.txt")

	res, err := newService(t).Group(context.Background(), logPath, reportPath)
	require.NoError(t, err)
	require.True(t, res.Written)
	assert.Equal(t, 3, res.Lines)
	require.Len(t, res.Groups, 2)

	data, err := os.ReadFile(reportPath)
	require.NoError(t, err)
	report := string(data)
	i4 := strings.Index(report, "GROUP: BIOLOGY_4 ")
	i12 := strings.Index(report, "GROUP: BIOLOGY_12 ")
	require.NotEqual(t, -1, i4)
	require.NotEqual(t, -1, i12)
	assert.Less(t, i4, i12)
	assert.Less(t, strings.Index(report, "biology_4_web.txt"), strings.Index(report, "biology_12_x.txt"))
	assert.NotContains(t, report, "random_file.txt")
}

func TestGroupNothingToGroup(t *testing.T) {
	for name, body := range map[string]string{
		"empty":       "",
		"headers":     "\n--- DATA BATCH FROM DIR: d ---\n\n--- DATA BATCH FROM DIR: e ---\n",
		"no subjects": "d | random_file.txt | 3\n",
	} {
		t.Run(name, func(t *testing.T) {
			logPath := writeLog(t, body)
			reportPath := filepath.Join(t.TempDir(), "grouped.txt")

			res, err := newService(t).Group(context.Background(), logPath, reportPath)
			require.NoError(t, err)
			assert.False(t, res.Written)
			_, err = os.Stat(reportPath)
			assert.True(t, errors.Is(err, os.ErrNotExist), "no report file should be created")
		})
	}
}

func TestGroupSkipsOverlongLine(t *testing.T) {
	logPath := writeLog(t, "d | biology_4_x.txt | 7\n"+strings.Repeat("x", 2<<20)+"\n")
	reportPath := filepath.Join(t.TempDir(), "grouped.txt")

	res, err := newService(t).Group(context.Background(), logPath, reportPath)
	require.NoError(t, err)
	assert.True(t, res.Written)
	require.Len(t, res.Groups, 1)

	data, err := os.ReadFile(reportPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "GROUP: BIOLOGY_4 ")
}

func TestGroupMissingLog(t *testing.T) {
	reportPath := filepath.Join(t.TempDir(), "grouped.txt")
	_, err := newService(t).Group(context.Background(), filepath.Join(t.TempDir(), "none.txt"), reportPath)
	require.ErrorIs(t, err, ErrLogNotFound)
	_, statErr := os.Stat(reportPath)
	assert.True(t, errors.Is(statErr, os.ErrNotExist))
}

func TestCollectThenGroupRoundTrip(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "Grading projection")
	writeFiles(t, dir, map[string]string{
		"anthropic_opus_chemistry_2_web_enabled.txt":  "VERDICT: 8.5",
		"anthropic_opus_chemistry_10_web_enabled.txt": "VERDICT: 4",
		"openai_gpt-5_physics_2_web_disabled.txt":     "VERDICT: 6",
		"notes.txt": "VERDICT: 1",
	})
	logPath := filepath.Join(root, "results.txt")
	reportPath := filepath.Join(root, "grouped.txt")
	svc := newService(t)

	collected, err := svc.Collect(context.Background(), dir, logPath)
	require.NoError(t, err)
	grouped, err := svc.Group(context.Background(), logPath, reportPath)
	require.NoError(t, err)

	placed := map[string]string{}
	for _, g := range grouped.Groups {
		for _, r := range g.Records {
			_, dup := placed[r.Filename]
			require.False(t, dup, "%s placed twice", r.Filename)
			placed[r.Filename] = r.Verdict
		}
	}
	for _, r := range collected.Records {
		if _, ok := svc.Matcher.Match(r.Filename); ok {
			assert.Equal(t, r.Verdict, placed[r.Filename])
		} else {
			assert.NotContains(t, placed, r.Filename)
		}
	}
	assert.Len(t, placed, 3)

	keys := make([]string, 0, len(grouped.Groups))
	for _, g := range grouped.Groups {
		keys = append(keys, g.Key.String())
	}
	assert.Equal(t, []string{"chemistry_2", "chemistry_10", "physics_2"}, keys)
}

func TestSummary(t *testing.T) {
	logPath := writeLog(t, "d | biology_1.txt | 2\nd | biology_1.txt | 4\n")
	got, err := newService(t).Summary(context.Background(), logPath)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.InDelta(t, 3.0, got[0].Mean, 1e-9)

	_, err = newService(t).Summary(context.Background(), filepath.Join(t.TempDir(), "x"))
	assert.ErrorIs(t, err, ErrLogNotFound)
}

func TestConcurrentCollectKeepsBatchesContiguous(t *testing.T) {
	root := t.TempDir()
	logPath := filepath.Join(root, "results.txt")
	svc := newService(t)

	dirs := []string{"one", "two", "three", "four"}
	for _, d := range dirs {
		files := map[string]string{}
		for i := 0; i < 20; i++ {
			files[fmt.Sprintf("biology_%d_%s.txt", i, d)] = "VERDICT: 5"
		}
		writeFiles(t, filepath.Join(root, d), files)
	}

	var wg sync.WaitGroup
	for _, d := range dirs {
		wg.Add(1)
		go func(dir string) {
			defer wg.Done()
			_, err := svc.Collect(context.Background(), dir, logPath)
			assert.NoError(t, err)
		}(filepath.Join(root, d))
	}
	wg.Wait()

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	current := ""
	for _, line := range strings.Split(string(data), "\n") {
		if strings.HasPrefix(line, "--- DATA BATCH FROM DIR: ") {
			current = strings.TrimSuffix(strings.TrimPrefix(line, "--- DATA BATCH FROM DIR: "), " ---")
			continue
		}
		if rec, ok := ledger.ParseLine(line); ok {
			assert.Equal(t, current, rec.Directory)
		}
	}
}
