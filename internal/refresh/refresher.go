package refresh

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/storm-data-shared/retry"
	"github.com/google/uuid"

	"github.com/couchcryptid/floreser-dashboard/internal/dataset"
	"github.com/couchcryptid/floreser-dashboard/internal/domain"
	"github.com/couchcryptid/floreser-dashboard/internal/observability"
)

const (
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 5 * time.Second
)

// Source reloads the dataset snapshot when the underlying file changed.
type Source interface {
	Refresh(ctx context.Context) (*dataset.Snapshot, error)
}

// Publisher announces newly loaded snapshots.
type Publisher interface {
	Publish(ctx context.Context, event domain.DatasetEvent) error
}

// Refresher keeps the dataset snapshot warm and announces every new one.
type Refresher struct {
	source    Source
	publisher Publisher
	interval  time.Duration
	logger    *slog.Logger
	metrics   *observability.Metrics
	ready     atomic.Bool
	last      *dataset.Snapshot
}

// New creates a Refresher. A nil publisher disables announcements.
func New(source Source, publisher Publisher, interval time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Refresher {
	return &Refresher{
		source:    source,
		publisher: publisher,
		interval:  interval,
		logger:    logger,
		metrics:   metrics,
	}
}

// CheckReadiness returns nil once the first refresh has succeeded.
func (r *Refresher) CheckReadiness(_ context.Context) error {
	if !r.ready.Load() {
		return errors.New("dataset has not been loaded yet")
	}
	return nil
}

// Run refreshes immediately and then every interval until the context is
// cancelled. Failed cycles are retried with exponential backoff.
func (r *Refresher) Run(ctx context.Context) error {
	if r.interval <= 0 {
		return fmt.Errorf("refresh interval must be positive, got %s", r.interval)
	}

	r.logger.Info("dataset refresher started", "interval", r.interval)
	r.metrics.RefreshRunning.Set(1)
	defer r.metrics.RefreshRunning.Set(0)

	backoff := initialBackoff
	for {
		if err := r.cycle(ctx); err != nil {
			if ctx.Err() != nil {
				r.logger.Info("dataset refresher stopping", "reason", ctx.Err())
				return nil
			}
			r.metrics.RefreshErrors.Inc()
			r.logger.Error("dataset refresh failed", "error", err, "retry_in", backoff)
			if !retry.SleepWithContext(ctx, backoff) {
				return nil
			}
			backoff = retry.NextBackoff(backoff, maxBackoff)
			continue
		}

		backoff = initialBackoff
		if !retry.SleepWithContext(ctx, r.interval) {
			r.logger.Info("dataset refresher stopping", "reason", ctx.Err())
			return nil
		}
	}
}

// cycle refreshes once and publishes when a new snapshot was installed. The
// snapshot is only marked as announced after a successful publish.
func (r *Refresher) cycle(ctx context.Context) error {
	snap, err := r.source.Refresh(ctx)
	if err != nil {
		return fmt.Errorf("refresh dataset: %w", err)
	}
	r.ready.Store(true)

	if snap == r.last {
		return nil
	}

	event := NewDatasetEvent(snap)
	r.logger.Info("dataset snapshot changed",
		"path", event.Path,
		"records", event.Records,
		"row_warnings", event.RowWarnings,
	)
	if r.publisher != nil {
		if err := r.publisher.Publish(ctx, event); err != nil {
			return fmt.Errorf("publish dataset event: %w", err)
		}
		r.metrics.DatasetEventsPublished.Inc()
	}
	r.last = snap
	return nil
}

// NewDatasetEvent summarizes snap. Years of zero come from unparsable
// values and are left out of the year span.
func NewDatasetEvent(snap *dataset.Snapshot) domain.DatasetEvent {
	event := domain.DatasetEvent{
		ID:          uuid.NewString(),
		Path:        snap.Path,
		Records:     len(snap.Records),
		States:      len(domain.DistinctStates(snap.Records)),
		RowWarnings: snap.RowWarnings,
		ModifiedAt:  snap.ModTime.UTC(),
		LoadedAt:    snap.LoadedAt.UTC(),
	}
	for _, rec := range snap.Records {
		if rec.Year == 0 {
			continue
		}
		if event.MinYear == 0 || rec.Year < event.MinYear {
			event.MinYear = rec.Year
		}
		if rec.Year > event.MaxYear {
			event.MaxYear = rec.Year
		}
	}
	return event
}
