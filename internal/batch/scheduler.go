package batch

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/epiwatch/outbreak-extractor/constants"
	"github.com/epiwatch/outbreak-extractor/internal/llm"
	"github.com/epiwatch/outbreak-extractor/internal/standardize"
)

// Scheduler drives all input rows across a fixed pool of workers, applying
// the per-row retry policy and handing successes to the enricher. The
// extractor and enricher are shared read-only state; the scheduler itself
// holds no per-run mutable state.
type Scheduler struct {
	extractor llm.FieldExtractor
	enricher  *standardize.Enricher
	logger    *slog.Logger

	workers   int
	timeout   time.Duration
	maxChars  int
	retries   int
	retryWait time.Duration
	backoff   float64
}

type Option func(*Scheduler)

func WithWorkers(n int) Option {
	return func(s *Scheduler) {
		if n > 0 {
			s.workers = n
		}
	}
}

func WithCallTimeout(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.timeout = d
		}
	}
}

func WithMaxChars(n int) Option {
	return func(s *Scheduler) {
		if n > 0 {
			s.maxChars = n
		}
	}
}

// WithRetryPolicy sets the number of additional attempts after the first,
// the wait before each re-attempt, and the per-attempt wait multiplier
// (1.0 keeps the wait fixed).
func WithRetryPolicy(retries int, wait time.Duration, backoff float64) Option {
	return func(s *Scheduler) {
		if retries >= 0 {
			s.retries = retries
		}
		if wait >= 0 {
			s.retryWait = wait
		}
		if backoff >= 1 {
			s.backoff = backoff
		}
	}
}

func NewScheduler(extractor llm.FieldExtractor, enricher *standardize.Enricher, logger *slog.Logger, opts ...Option) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Scheduler{
		extractor: extractor,
		enricher:  enricher,
		logger:    logger,
		workers:   2,
		timeout:   120 * time.Second,
		maxChars:  12000,
		retries:   1,
		retryWait: 1500 * time.Millisecond,
		backoff:   1.0,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Run drains all rows and returns one Result per dispatched row, sorted by
// RowID, plus whether the run completed. Cancelling ctx stops dispatch of
// new rows; rows already picked up finish their attempt cycle (in-flight
// calls run to completion or per-call timeout), so a cancelled run returns
// partial results and complete=false.
func (s *Scheduler) Run(ctx context.Context, rows []InputRow, tracker *Tracker) ([]Result, bool) {
	work := make(chan InputRow)
	out := make(chan Result, len(rows))

	// Feeder: dispatch until done or cancelled.
	go func() {
		defer close(work)
		for _, row := range rows {
			select {
			case work <- row:
			case <-ctx.Done():
				s.logger.Warn("batch.dispatch.cancelled", "dispatched_from", row.RowID)
				return
			}
		}
	}()

	var g errgroup.Group
	for i := 0; i < s.workers; i++ {
		workerID := i + 1
		g.Go(func() error {
			for row := range work {
				res := s.processRow(ctx, workerID, row)
				if tracker != nil {
					tracker.Observe(res)
				}
				out <- res
			}
			return nil
		})
	}
	_ = g.Wait()
	close(out)

	results := make([]Result, 0, len(rows))
	for res := range out {
		results = append(results, res)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].RowID < results[j].RowID })
	return results, len(results) == len(rows)
}

// processRow runs the bounded retry state machine for one row:
// Attempting(n) -> Success | RetryWait(n) -> Attempting(n+1) | Failed.
func (s *Scheduler) processRow(ctx context.Context, workerID int, row InputRow) Result {
	start := time.Now()
	req := llm.ExtractRequest{
		SourceURL: row.SourceURL,
		Text:      row.Text,
		MaxChars:  s.maxChars,
	}

	var lastErr error
	attempts := 0
	wait := s.retryWait

	for attempt := 1; attempt <= s.retries+1; attempt++ {
		attempts = attempt
		// Detached from the run context: an interrupt must not kill calls
		// already in flight, only stop new dispatch.
		callCtx, cancel := context.WithTimeout(context.Background(), s.timeout)
		fields, _, err := s.extractor.ExtractFields(callCtx, req)
		cancel()

		if err == nil {
			res := Result{
				RowID:     row.RowID,
				SourceURL: row.SourceURL,
				Status:    constants.RowStatusOK,
				Attempts:  attempt,
				Seconds:   time.Since(start).Seconds(),
				TextChars: len(row.Text),
				Fields:    &fields,
			}
			if s.enricher != nil {
				derived := s.enricher.Enrich(res.Fields)
				res.Derived = &derived
			}
			return res
		}

		lastErr = err
		kind := llm.KindOf(err)
		if !llm.IsRetryable(err) {
			s.logger.Warn("batch.row.malformed",
				"worker_id", workerID, "row_id", row.RowID, "attempt", attempt, "error", err)
			break
		}
		if attempt > s.retries {
			break
		}

		s.logger.Warn("batch.row.retry",
			"worker_id", workerID, "row_id", row.RowID,
			"attempt", attempt, "kind", string(kind),
			"wait_ms", wait.Milliseconds(), "error", err)
		if !sleepCtx(ctx, wait) {
			// Interrupted mid-wait: finalize as failed rather than leave
			// the row unaccounted for.
			break
		}
		wait = time.Duration(float64(wait) * s.backoff)
	}

	status := constants.RowStatusFailed
	if llm.KindOf(lastErr) == llm.KindTimeout {
		status = constants.RowStatusTimeout
	}
	errMsg := ""
	if lastErr != nil {
		errMsg = lastErr.Error()
	}
	return Result{
		RowID:     row.RowID,
		SourceURL: row.SourceURL,
		Status:    status,
		Error:     errMsg,
		Attempts:  attempts,
		Seconds:   time.Since(start).Seconds(),
		TextChars: len(row.Text),
	}
}

// sleepCtx waits for d unless ctx is cancelled first. Returns false on
// cancellation.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
