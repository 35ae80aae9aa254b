package batch

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/epiwatch/outbreak-extractor/constants"
)

func TestTrackerFlushesOnIntervalAndFinalRow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "progress.csv")
	tracker, err := NewTracker(7, 2, 3, path, nil)
	require.NoError(t, err)

	for i := 0; i < 7; i++ {
		status := constants.RowStatusOK
		if i == 4 {
			status = constants.RowStatusFailed
		}
		tracker.Observe(Result{RowID: i, Status: status, Seconds: 0.5})
	}
	require.NoError(t, tracker.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer func() {
		_ = f.Close()
	}()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)

	// Header + snapshots at 3, 6, and the final 7th completion.
	require.Len(t, records, 4)
	assert.Equal(t, []string{
		"timestamp", "completed", "total", "failed",
		"avg_row_seconds", "elapsed_seconds", "eta_seconds", "workers",
	}, records[0])

	prev := 0
	for _, rec := range records[1:] {
		completed, err := strconv.Atoi(rec[1])
		require.NoError(t, err)
		assert.Greater(t, completed, prev, "completed is strictly increasing across snapshots")
		prev = completed
		assert.Equal(t, "7", rec[2])
		assert.Equal(t, "2", rec[7])
	}
	assert.Equal(t, 7, prev, "last snapshot reports the final row")

	last := records[len(records)-1]
	assert.Equal(t, "1", last[3], "one failed row recorded")
}

func TestTrackerWithoutFile(t *testing.T) {
	tracker, err := NewTracker(2, 1, 1, "", nil)
	require.NoError(t, err)

	tracker.Observe(Result{RowID: 0, Status: constants.RowStatusOK, Seconds: 1})
	tracker.Observe(Result{RowID: 1, Status: constants.RowStatusFailed, Seconds: 3})

	snap := tracker.Current()
	assert.Equal(t, 2, snap.Completed)
	assert.Equal(t, 1, snap.Failed)
	assert.InDelta(t, 2.0, snap.AvgRowSeconds, 1e-9)
	assert.Equal(t, 0.0, snap.ETASeconds, "nothing remaining")
	require.NoError(t, tracker.Close())
}

func TestTrackerETA(t *testing.T) {
	tracker, err := NewTracker(10, 2, 100, "", nil)
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		tracker.Observe(Result{RowID: i, Status: constants.RowStatusOK, Seconds: 2})
	}
	snap := tracker.Current()
	// (total - completed) * avg / workers = 6 * 2 / 2
	assert.InDelta(t, 6.0, snap.ETASeconds, 1e-9)
}
