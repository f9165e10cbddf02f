package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appverdicts "github.com/bryanwahyu/gradebench/internal/application/verdicts"
	domain "github.com/bryanwahyu/gradebench/internal/domain/verdicts"
)

type memRepo struct{ rows []domain.StoredRecord }

func (m *memRepo) Append(_ context.Context, _ string, recs []domain.StoredRecord) error {
	m.rows = append(m.rows, recs...)
	return nil
}

func (m *memRepo) List(_ context.Context, directory string, limit int) ([]*domain.StoredRecord, error) {
	var out []*domain.StoredRecord
	for i := range m.rows {
		if m.rows[i].Record.Directory == directory && len(out) < limit {
			out = append(out, &m.rows[i])
		}
	}
	return out, nil
}

type fixture struct {
	handler http.Handler
	opts    Options
	svc     *appverdicts.Service
}

func newFixture(t *testing.T, keys map[string]string) fixture {
	t.Helper()
	root := t.TempDir()
	responses := filepath.Join(root, "Responses")
	grading := filepath.Join(responses, "Grading default")
	require.NoError(t, os.MkdirAll(grading, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(grading, "openai_gpt-5_biology_12_web_disabled.txt"), []byte("VERDICT: 3"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(grading, "openai_gpt-5_biology_4_web_disabled.txt"), []byte("VERDICT: 7.5"), 0o644))

	svc, err := appverdicts.NewService([]string{"biology", "physics", "chemistry"}, false)
	require.NoError(t, err)
	opts := Options{
		LogPath:      filepath.Join(root, "results.txt"),
		ReportPath:   filepath.Join(root, "grouped_results.txt"),
		ResponsesDir: responses,
		APIKeys:      keys,
	}
	return fixture{handler: NewRouter(svc, opts), opts: opts, svc: svc}
}

func (f fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer k")
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func TestCollectGroupSummary(t *testing.T) {
	f := newFixture(t, map[string]string{"lab": "k"})

	rec := f.do(t, http.MethodPost, "/v1/collect", `{"directory": "Grading default"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var collected appverdicts.CollectResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &collected))
	assert.True(t, collected.Appended)
	assert.Len(t, collected.Records, 2)

	rec = f.do(t, http.MethodPost, "/v1/group", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var grouped appverdicts.GroupResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &grouped))
	assert.True(t, grouped.Written)
	require.Len(t, grouped.Groups, 2)
	assert.Equal(t, 4, grouped.Groups[0].Key.ID)

	report, err := os.ReadFile(f.opts.ReportPath)
	require.NoError(t, err)
	assert.Contains(t, string(report), "======= GROUP: BIOLOGY_4 =======")

	rec = f.do(t, http.MethodGet, "/v1/summary", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var summaries []domain.Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summaries))
	require.Len(t, summaries, 2)
	assert.InDelta(t, 7.5, summaries[0].Mean, 1e-9)

	rec = f.do(t, http.MethodGet, "/v1/summary?format=table", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "biology_12")
	assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
}

func TestCollectRejectsTraversal(t *testing.T) {
	f := newFixture(t, nil)
	for _, body := range []string{`{"directory": "../../etc"}`, `{"directory": "/etc"}`, `{"directory": ""}`, `not json`} {
		rec := f.do(t, http.MethodPost, "/v1/collect", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
}

func TestCollectMissingDirectory(t *testing.T) {
	f := newFixture(t, nil)
	rec := f.do(t, http.MethodPost, "/v1/collect", `{"directory": "Nope"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGroupWithoutLog(t *testing.T) {
	f := newFixture(t, nil)
	rec := f.do(t, http.MethodPost, "/v1/group", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	_, err := os.Stat(f.opts.ReportPath)
	assert.True(t, os.IsNotExist(err))
}

func TestVerdicts(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(t, http.MethodGet, "/v1/verdicts?directory=Grading%20default", "")
	assert.Equal(t, http.StatusNotImplemented, rec.Code)

	rec = f.do(t, http.MethodGet, "/v1/verdicts", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	f.svc.Repo = &memRepo{}
	require.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/v1/collect", `{"directory": "Grading default"}`).Code)
	rec = f.do(t, http.MethodGet, "/v1/verdicts?directory=Grading%20default&limit=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []domain.StoredRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 1)
}

func TestAuthAndPublicEndpoints(t *testing.T) {
	f := newFixture(t, map[string]string{"lab": "other"})

	rec := f.do(t, http.MethodGet, "/v1/summary", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	for _, path := range []string{"/health", "/livez", "/metrics"} {
		rec := httptest.NewRecorder()
		f.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}
