package dataset_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/floreser-dashboard/internal/dataset"
	"github.com/couchcryptid/floreser-dashboard/internal/observability"
)

const smallCSV = "state,name,year,area\nPA,Altamira,2020,100\nAM,Manaus,2020,30\n"

func TestStore_CachedSnapshotReused(t *testing.T) {
	path := writeCSV(t, t.TempDir(), smallCSV)
	metrics := observability.NewMetricsForTesting()
	store := dataset.NewStore(path, true, discardLogger(), metrics)

	first, err := store.Snapshot(context.Background())
	require.NoError(t, err)
	second, err := store.Snapshot(context.Background())
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Same(t, first, store.Current())
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.DatasetLoads.WithLabelValues("success")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.DatasetCache.WithLabelValues("hit")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.DatasetCache.WithLabelValues("miss")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(metrics.DatasetRecords), 0)
}

func TestStore_ReloadsWhenFileChanges(t *testing.T) {
	path := writeCSV(t, t.TempDir(), smallCSV)
	store := dataset.NewStore(path, true, discardLogger(), observability.NewMetricsForTesting())

	first, err := store.Refresh(context.Background())
	require.NoError(t, err)
	require.Len(t, first.Records, 2)

	require.NoError(t, os.WriteFile(path, []byte(smallCSV+"MT,Sinop,2021,7\n"), 0o600))
	later := first.ModTime.Add(2 * time.Second)
	require.NoError(t, os.Chtimes(path, later, later))

	second, err := store.Refresh(context.Background())
	require.NoError(t, err)
	assert.NotSame(t, first, second)
	assert.Len(t, second.Records, 3)
}

func TestStore_UncachedReadsEveryTime(t *testing.T) {
	path := writeCSV(t, t.TempDir(), smallCSV)
	metrics := observability.NewMetricsForTesting()
	store := dataset.NewStore(path, false, discardLogger(), metrics)

	for range 3 {
		records, err := store.Records(context.Background())
		require.NoError(t, err)
		assert.Len(t, records, 2)
	}
	assert.InDelta(t, 3, testutil.ToFloat64(metrics.DatasetLoads.WithLabelValues("success")), 0)
	assert.Nil(t, store.Current())
}

func TestStore_RowWarningsReflectLastSnapshot(t *testing.T) {
	path := writeCSV(t, t.TempDir(), smallCSV+"PA,Marabá,2021,n/a\n")
	metrics := observability.NewMetricsForTesting()
	store := dataset.NewStore(path, false, discardLogger(), metrics)

	for range 3 {
		_, err := store.Records(context.Background())
		require.NoError(t, err)
	}
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.DatasetRowWarnings), 0)

	require.NoError(t, os.WriteFile(path, []byte(smallCSV), 0o600))
	_, err := store.Records(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 0, testutil.ToFloat64(metrics.DatasetRowWarnings), 0)
}

func TestStore_ConcurrentReadersShareSnapshot(t *testing.T) {
	path := writeCSV(t, t.TempDir(), smallCSV)
	store := dataset.NewStore(path, true, discardLogger(), observability.NewMetricsForTesting())

	const readers = 16
	snaps := make([]*dataset.Snapshot, readers)
	var wg sync.WaitGroup
	for i := range readers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			snap, err := store.Snapshot(context.Background())
			assert.NoError(t, err)
			snaps[i] = snap
		}()
	}
	wg.Wait()

	current := store.Current()
	require.NotNil(t, current)
	for _, s := range snaps {
		assert.Equal(t, current.Records, s.Records)
	}
}

func TestStore_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.csv")
	metrics := observability.NewMetricsForTesting()
	store := dataset.NewStore(path, true, discardLogger(), metrics)

	_, err := store.Records(context.Background())
	require.ErrorIs(t, err, dataset.ErrUnreadable)
	require.Error(t, store.CheckReadiness(context.Background()))
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.DatasetLoads.WithLabelValues("error")), 0)
}

func TestStore_CheckReadiness(t *testing.T) {
	path := writeCSV(t, t.TempDir(), smallCSV)
	store := dataset.NewStore(path, true, discardLogger(), observability.NewMetricsForTesting())
	assert.NoError(t, store.CheckReadiness(context.Background()))
	assert.Equal(t, path, store.Path())
}
