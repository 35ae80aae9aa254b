package batch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/epiwatch/outbreak-extractor/constants"
	"github.com/epiwatch/outbreak-extractor/internal/llm"
	"github.com/epiwatch/outbreak-extractor/internal/standardize"
)

// scriptedExtractor fails each row until its scripted attempt count is
// reached, tracking per-row attempts.
type scriptedExtractor struct {
	mu       sync.Mutex
	attempts map[string]int

	// succeedOn maps source URL to the attempt that succeeds; 0 never succeeds.
	succeedOn map[string]int
	err       error
}

func newScriptedExtractor(succeedOn map[string]int, err error) *scriptedExtractor {
	return &scriptedExtractor{
		attempts:  make(map[string]int),
		succeedOn: succeedOn,
		err:       err,
	}
}

func (f *scriptedExtractor) ExtractFields(ctx context.Context, req llm.ExtractRequest) (llm.OutbreakFields, []byte, error) {
	f.mu.Lock()
	f.attempts[req.SourceURL]++
	n := f.attempts[req.SourceURL]
	f.mu.Unlock()

	if target := f.succeedOn[req.SourceURL]; target > 0 && n >= target {
		return llm.OutbreakFields{SourceURL: req.SourceURL, Pathogen: "mers-cov"}, nil, nil
	}
	return llm.OutbreakFields{}, nil, f.err
}

func (f *scriptedExtractor) attemptCount(url string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.attempts[url]
}

func makeRows(n int) []InputRow {
	rows := make([]InputRow, n)
	for i := range rows {
		rows[i] = InputRow{RowID: i, SourceURL: fmt.Sprintf("u%d", i), Text: "text"}
	}
	return rows
}

func alwaysSucceed(rows []InputRow) map[string]int {
	m := make(map[string]int, len(rows))
	for _, r := range rows {
		m[r.SourceURL] = 1
	}
	return m
}

func TestRunProducesOneResultPerRow(t *testing.T) {
	for _, workers := range []int{1, 3, 8} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			rows := makeRows(25)
			ext := newScriptedExtractor(alwaysSucceed(rows), nil)
			s := NewScheduler(ext, nil, nil, WithWorkers(workers), WithRetryPolicy(0, 0, 1))

			results, complete := s.Run(context.Background(), rows, nil)

			require.True(t, complete)
			require.Len(t, results, len(rows))
			for i, res := range results {
				assert.Equal(t, i, res.RowID, "results sorted by row id")
				assert.Equal(t, constants.RowStatusOK, res.Status)
			}
		})
	}
}

func TestRunNormalizedFieldsOnlyOnSuccess(t *testing.T) {
	rows := makeRows(4)
	// Rows 0 and 2 succeed, rows 1 and 3 never do.
	succeed := map[string]int{"u0": 1, "u2": 1}
	ext := newScriptedExtractor(succeed, llm.NewError(llm.KindTransient, errors.New("boom")))
	enricher := standardize.NewEnricher(nil, standardize.NewPathogenIndex([]map[string]string{
		{"pathogen": "MERS_COV", "pathogen_rank_1": "CORONAVIRUS", "pathogen_rank_2": "BETA_COV", "pathogen_name": "MERS Coronavirus"},
	}), nil)
	s := NewScheduler(ext, enricher, nil, WithWorkers(2), WithRetryPolicy(1, 0, 1))

	results, complete := s.Run(context.Background(), rows, nil)

	require.True(t, complete)
	require.Len(t, results, 4)
	for _, res := range results {
		if res.OK() {
			require.NotNil(t, res.Fields, "row %d", res.RowID)
			require.NotNil(t, res.Derived, "row %d", res.RowID)
			assert.Equal(t, "MERS_COV", res.Fields.Pathogen, "enricher canonicalizes on success")
		} else {
			assert.Nil(t, res.Fields, "row %d", res.RowID)
			assert.Nil(t, res.Derived, "row %d", res.RowID)
			assert.NotEmpty(t, res.Error)
		}
	}
}

func TestRunRetryBudgetExhaustion(t *testing.T) {
	rows := makeRows(1)
	ext := newScriptedExtractor(nil, llm.NewError(llm.KindTransient, errors.New("flaky")))
	s := NewScheduler(ext, nil, nil, WithWorkers(1), WithRetryPolicy(2, 0, 1))

	results, _ := s.Run(context.Background(), rows, nil)

	require.Len(t, results, 1)
	res := results[0]
	assert.Equal(t, constants.RowStatusFailed, res.Status)
	assert.Equal(t, 3, res.Attempts, "retries+1 attempts")
	assert.Equal(t, 3, ext.attemptCount("u0"))
	assert.Contains(t, res.Error, "flaky")
}

func TestRunSuccessOnSecondAttempt(t *testing.T) {
	rows := makeRows(1)
	ext := newScriptedExtractor(map[string]int{"u0": 2}, llm.NewError(llm.KindRateLimited, errors.New("429")))
	s := NewScheduler(ext, nil, nil, WithWorkers(1), WithRetryPolicy(2, 0, 1))

	results, _ := s.Run(context.Background(), rows, nil)

	require.Len(t, results, 1)
	assert.Equal(t, constants.RowStatusOK, results[0].Status)
	assert.Equal(t, 2, results[0].Attempts, "succeeding on attempt 2 of 3 consumes exactly 2")
	assert.Equal(t, 2, ext.attemptCount("u0"))
}

func TestRunMalformedFailsWithoutRetry(t *testing.T) {
	rows := makeRows(1)
	ext := newScriptedExtractor(nil, llm.NewError(llm.KindMalformed, errors.New("not json")))
	s := NewScheduler(ext, nil, nil, WithWorkers(1), WithRetryPolicy(5, 0, 1))

	results, _ := s.Run(context.Background(), rows, nil)

	require.Len(t, results, 1)
	assert.Equal(t, constants.RowStatusFailed, results[0].Status)
	assert.Equal(t, 1, results[0].Attempts, "malformed input must not consume retry budget")
	assert.Equal(t, 1, ext.attemptCount("u0"))
}

func TestRunTimeoutStatus(t *testing.T) {
	rows := makeRows(1)
	ext := newScriptedExtractor(nil, llm.NewError(llm.KindTimeout, errors.New("deadline exceeded")))
	s := NewScheduler(ext, nil, nil, WithWorkers(1), WithRetryPolicy(1, 0, 1))

	results, _ := s.Run(context.Background(), rows, nil)

	require.Len(t, results, 1)
	assert.Equal(t, constants.RowStatusTimeout, results[0].Status)
	assert.Equal(t, 2, results[0].Attempts)
}

func TestRunFailuresNeverAbortSiblings(t *testing.T) {
	rows := makeRows(10)
	// Even rows succeed, odd rows fail terminally.
	succeed := make(map[string]int)
	for i := 0; i < 10; i += 2 {
		succeed[fmt.Sprintf("u%d", i)] = 1
	}
	ext := newScriptedExtractor(succeed, llm.NewError(llm.KindTransient, errors.New("boom")))
	s := NewScheduler(ext, nil, nil, WithWorkers(4), WithRetryPolicy(1, 0, 1))

	results, complete := s.Run(context.Background(), rows, nil)

	require.True(t, complete)
	require.Len(t, results, 10)
	ok, failed := 0, 0
	for _, res := range results {
		if res.OK() {
			ok++
		} else {
			failed++
		}
	}
	assert.Equal(t, 5, ok)
	assert.Equal(t, 5, failed)
}

// blockingExtractor parks every call until released.
type blockingExtractor struct {
	started chan struct{}
	release chan struct{}
}

func (b *blockingExtractor) ExtractFields(ctx context.Context, req llm.ExtractRequest) (llm.OutbreakFields, []byte, error) {
	b.started <- struct{}{}
	<-b.release
	return llm.OutbreakFields{SourceURL: req.SourceURL}, nil, nil
}

func TestRunCancellationStopsDispatch(t *testing.T) {
	rows := makeRows(5)
	ext := &blockingExtractor{
		started: make(chan struct{}, len(rows)),
		release: make(chan struct{}),
	}
	s := NewScheduler(ext, nil, nil, WithWorkers(2), WithRetryPolicy(0, 0, 1))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	var results []Result
	var complete bool
	go func() {
		defer close(done)
		results, complete = s.Run(ctx, rows, nil)
	}()

	// Wait for both workers to be mid-call, then interrupt and let the
	// in-flight calls finish.
	<-ext.started
	<-ext.started
	cancel()
	// Give the feeder a beat to observe the cancellation before any worker
	// frees up and could race it for the next row.
	time.Sleep(50 * time.Millisecond)
	close(ext.release)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not drain after cancellation")
	}

	assert.False(t, complete, "cancelled run must be marked incomplete")
	require.Len(t, results, 2, "only in-flight rows finish after cancel")
	for _, res := range results {
		assert.Equal(t, constants.RowStatusOK, res.Status, "in-flight calls run to completion")
	}
}

func TestRunProgressReachesTotal(t *testing.T) {
	rows := makeRows(17)
	ext := newScriptedExtractor(alwaysSucceed(rows), nil)
	s := NewScheduler(ext, nil, nil, WithWorkers(4), WithRetryPolicy(0, 0, 1))

	tracker, err := NewTracker(len(rows), 4, 5, "", nil)
	require.NoError(t, err)

	_, complete := s.Run(context.Background(), rows, tracker)
	require.True(t, complete)

	snap := tracker.Current()
	assert.Equal(t, 17, snap.Completed)
	assert.Equal(t, 17, snap.Total)
	assert.Equal(t, 0, snap.Failed)
}
