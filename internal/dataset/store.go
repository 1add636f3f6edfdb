package dataset

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/couchcryptid/floreser-dashboard/internal/domain"
	"github.com/couchcryptid/floreser-dashboard/internal/observability"
)

// Store hands out dataset records to request handlers.
//
// With caching disabled every call re-reads the file. With caching enabled
// the last parsed Snapshot is reused until the file's modification time or
// size changes; concurrent reloads share one read.
type Store struct {
	path    string
	cache   bool
	logger  *slog.Logger
	metrics *observability.Metrics

	current atomic.Pointer[Snapshot]
	group   singleflight.Group
}

// NewStore creates a Store for the dataset at path.
func NewStore(path string, cache bool, logger *slog.Logger, metrics *observability.Metrics) *Store {
	return &Store{
		path:    path,
		cache:   cache,
		logger:  logger,
		metrics: metrics,
	}
}

// Path returns the dataset file path.
func (s *Store) Path() string {
	return s.path
}

// Records returns the records of the current snapshot.
func (s *Store) Records(ctx context.Context) ([]domain.Record, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Records, nil
}

// Snapshot returns the dataset as of now.
func (s *Store) Snapshot(ctx context.Context) (*Snapshot, error) {
	if !s.cache {
		return s.load(ctx)
	}
	return s.Refresh(ctx)
}

// Refresh returns the cached snapshot when the file is unchanged, and
// otherwise loads and installs a new one. Callers detect a reload by
// comparing the returned pointer with the one they held before.
func (s *Store) Refresh(ctx context.Context) (*Snapshot, error) {
	info, err := os.Stat(s.path)
	if err != nil {
		s.metrics.DatasetLoads.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("%w: %w", ErrUnreadable, err)
	}
	if cur := s.current.Load(); cur != nil && cur.matches(info) {
		s.metrics.DatasetCache.WithLabelValues("hit").Inc()
		return cur, nil
	}
	s.metrics.DatasetCache.WithLabelValues("miss").Inc()

	// A cancelled request must not fail the other callers sharing this load.
	loadCtx := context.WithoutCancel(ctx)
	v, err, _ := s.group.Do(s.path, func() (any, error) {
		snap, err := s.load(loadCtx)
		if err != nil {
			return nil, err
		}
		s.current.Store(snap)
		return snap, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Snapshot), nil
}

// Current returns the last installed snapshot, or nil before the first load.
func (s *Store) Current() *Snapshot {
	return s.current.Load()
}

// CheckReadiness reports whether the dataset file can be stat'ed.
func (s *Store) CheckReadiness(_ context.Context) error {
	if _, err := os.Stat(s.path); err != nil {
		return fmt.Errorf("dataset not readable: %w", err)
	}
	return nil
}

func (s *Store) load(ctx context.Context) (*Snapshot, error) {
	start := clock.Now()
	snap, err := Load(ctx, s.path, s.logger)
	if err != nil {
		s.metrics.DatasetLoads.WithLabelValues("error").Inc()
		s.logger.Error("dataset load failed", "path", s.path, "error", err)
		return nil, err
	}

	elapsed := clock.Since(start)
	s.metrics.DatasetLoads.WithLabelValues("success").Inc()
	s.metrics.DatasetLoadDuration.Observe(elapsed.Seconds())
	s.metrics.DatasetRecords.Set(float64(len(snap.Records)))
	s.metrics.DatasetRowWarnings.Set(float64(snap.RowWarnings))

	s.logger.Debug("dataset loaded",
		"path", s.path,
		"records", len(snap.Records),
		"row_warnings", snap.RowWarnings,
		"duration_ms", elapsed.Milliseconds(),
	)
	return snap, nil
}
