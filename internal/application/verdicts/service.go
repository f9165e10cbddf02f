package verdicts

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/chainguard-dev/clog"
	"github.com/google/uuid"

	"github.com/bryanwahyu/gradebench/internal/application"
	domain "github.com/bryanwahyu/gradebench/internal/domain/verdicts"
	"github.com/bryanwahyu/gradebench/internal/infra/ledger"
	"github.com/bryanwahyu/gradebench/internal/metrics"
)

var (
	// ErrLogNotFound is returned by Group when the flat log does not exist.
	ErrLogNotFound = errors.New("flat log not found")
	// ErrNoRepository is returned when a database mirror is required but not configured.
	ErrNoRepository = errors.New("verdict repository not configured")
)

// Service implements collect, group and summary over the flat log.
// Repo and Artifacts are optional sinks.
type Service struct {
	Matcher   *domain.SubjectMatcher
	Dedup     bool
	Repo      domain.Repository
	Artifacts domain.ArtifactStore
	Clock     application.Clock

	// one mutex per log path, appends are single-writer
	locks sync.Map
}

func (s *Service) lockFor(logPath string) *sync.Mutex {
	key := filepath.Clean(logPath)
	if abs, err := filepath.Abs(key); err == nil {
		key = abs
	}
	mu, _ := s.locks.LoadOrStore(key, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// NewService builds a Service for the given subject vocabulary.
func NewService(subjects []string, dedup bool) (*Service, error) {
	m, err := domain.NewSubjectMatcher(subjects)
	if err != nil {
		return nil, err
	}
	return &Service{Matcher: m, Dedup: dedup, Clock: application.SystemClock{}}, nil
}

// CollectResult describes one collect run.
type CollectResult struct {
	Directory string          `json:"directory"`
	BatchID   string          `json:"batch_id,omitempty"`
	Scanned   int             `json:"scanned"`
	Skipped   int             `json:"skipped"`
	Records   []domain.Record `json:"records"`
	Appended  bool            `json:"appended"`
}

// GroupResult describes one group run.
type GroupResult struct {
	Lines   int            `json:"lines"`
	Groups  []domain.Group `json:"groups"`
	Written bool           `json:"written"`
}

// Collect extracts verdicts from every regular file directly inside dir and
// appends them to the flat log at logPath as one batch. Unreadable files are
// skipped. Nothing is written when no verdict is found.
func (s *Service) Collect(ctx context.Context, dir, logPath string) (CollectResult, error) {
	log := clog.FromContext(ctx).With("directory", dir)
	dirName := filepath.Base(filepath.Clean(dir))
	res := CollectResult{Directory: dirName}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return res, fmt.Errorf("listing %s: %w", dir, err)
	}

	// os.ReadDir returns entries sorted by filename
	for _, e := range entries {
		path := filepath.Join(dir, e.Name())
		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		res.Scanned++
		metrics.FilesScanned.WithLabelValues(dirName).Inc()

		data, err := os.ReadFile(path)
		if err == nil && !utf8.Valid(data) {
			err = errors.New("content is not valid UTF-8")
		}
		if err != nil {
			res.Skipped++
			metrics.FilesSkipped.WithLabelValues(dirName).Inc()
			log.With("file", e.Name()).With("error", err.Error()).Warn("Skipping file")
			continue
		}

		if v, ok := domain.Extract(string(data)); ok {
			res.Records = append(res.Records, domain.Record{Directory: dirName, Filename: e.Name(), Verdict: v})
		}
	}

	mu := s.lockFor(logPath)
	mu.Lock()
	defer mu.Unlock()

	if s.Dedup {
		res.Records, err = s.withoutLogged(logPath, res.Records)
		if err != nil {
			return res, err
		}
	}
	if len(res.Records) == 0 {
		log.Info("No verdicts found, log left untouched")
		return res, nil
	}

	if err := ledger.Append(logPath, dirName, res.Records); err != nil {
		return res, err
	}
	res.Appended = true
	res.BatchID = uuid.New().String()
	metrics.VerdictsFound.WithLabelValues(dirName).Add(float64(len(res.Records)))
	log.Infof("Appended %d results from '%s' to %s", len(res.Records), dirName, logPath)

	s.mirror(ctx, res)
	s.publish(ctx, logPath, "logs/"+filepath.Base(logPath))
	return res, nil
}

// withoutLogged drops records already present in the log.
func (s *Service) withoutLogged(logPath string, recs []domain.Record) ([]domain.Record, error) {
	existing, err := ledger.Read(logPath)
	if errors.Is(err, os.ErrNotExist) {
		return recs, nil
	}
	if err != nil {
		return nil, err
	}
	seen := make(map[domain.Record]bool, len(existing))
	for _, r := range existing {
		seen[r] = true
	}
	out := recs[:0]
	for _, r := range recs {
		if !seen[r] {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *Service) mirror(ctx context.Context, res CollectResult) {
	if s.Repo == nil {
		return
	}
	var now time.Time
	if s.Clock != nil {
		now = s.Clock.Now()
	} else {
		now = time.Now()
	}
	rows := make([]domain.StoredRecord, 0, len(res.Records))
	for _, r := range res.Records {
		rows = append(rows, domain.StoredRecord{
			ID:          uuid.New().String(),
			BatchID:     res.BatchID,
			Record:      r,
			CollectedAt: now,
		})
	}
	if err := s.Repo.Append(ctx, res.BatchID, rows); err != nil {
		clog.FromContext(ctx).With("batch_id", res.BatchID).With("error", err.Error()).
			Warn("Failed to mirror batch into database")
	}
}

func (s *Service) publish(ctx context.Context, localPath, key string) {
	if s.Artifacts == nil {
		return
	}
	url, err := s.Artifacts.Upload(ctx, localPath, key)
	if err != nil {
		clog.FromContext(ctx).With("path", localPath).With("error", err.Error()).
			Warn("Failed to publish artifact")
		return
	}
	clog.FromContext(ctx).With("url", url).Info("Published artifact")
}

// Group re-reads the flat log, groups records by subject and problem id, and
// overwrites reportPath with the grouped report. A log with nothing to group
// leaves reportPath untouched.
func (s *Service) Group(ctx context.Context, logPath, reportPath string) (GroupResult, error) {
	log := clog.FromContext(ctx).With("log", logPath)

	recs, err := ledger.Read(logPath)
	if errors.Is(err, os.ErrNotExist) {
		log.Errorf("Could not find %s", logPath)
		return GroupResult{}, fmt.Errorf("%w: %s", ErrLogNotFound, logPath)
	}
	if err != nil {
		return GroupResult{}, err
	}

	res := GroupResult{Lines: len(recs), Groups: domain.GroupRecords(recs, s.Matcher)}
	if len(res.Groups) == 0 {
		log.Info("No data was grouped. Check the subject names in your filenames.")
		return res, nil
	}

	if err := ledger.WriteReportFile(reportPath, res.Groups); err != nil {
		return res, err
	}
	res.Written = true
	metrics.GroupsWritten.Add(float64(len(res.Groups)))
	log.Infof("Successfully organized %d subjects into '%s'", len(res.Groups), reportPath)

	s.publish(ctx, reportPath, "reports/"+filepath.Base(reportPath))
	return res, nil
}

// Summary computes per-group statistics from the flat log.
func (s *Service) Summary(ctx context.Context, logPath string) ([]domain.Summary, error) {
	recs, err := ledger.Read(logPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrLogNotFound, logPath)
	}
	if err != nil {
		return nil, err
	}
	return domain.Summarize(domain.GroupRecords(recs, s.Matcher)), nil
}

// Verdicts lists mirrored records for a directory, newest first.
func (s *Service) Verdicts(ctx context.Context, directory string, limit int) ([]*domain.StoredRecord, error) {
	if s.Repo == nil {
		return nil, ErrNoRepository
	}
	return s.Repo.List(ctx, directory, limit)
}
