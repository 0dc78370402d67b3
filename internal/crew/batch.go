package crew

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/schoolcrew/internal/model"
)

// Kicker is anything that can run a crew once.
type Kicker interface {
	Kickoff(ctx context.Context, inputs map[string]string) (*model.CrewResult, error)
}

// BatchResult is the outcome of one kickoff in a batch.
type BatchResult struct {
	Inputs map[string]string
	Result *model.CrewResult
	Err    error
}

// BatchRunner runs one kickoff per input set with bounded concurrency.
type BatchRunner struct {
	crew        Kicker
	concurrency int
	logger      *slog.Logger
	onDone      func(index int, r BatchResult)
}

// BatchOption configures a BatchRunner.
type BatchOption func(*BatchRunner)

// WithBatchLogger sets the logger for batch-level events.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchRunner) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent kickoffs.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchRunner) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// WithOnDone registers a callback invoked from the worker goroutine as each
// kickoff finishes. It must be safe for concurrent use.
func WithOnDone(fn func(index int, r BatchResult)) BatchOption {
	return func(b *BatchRunner) {
		b.onDone = fn
	}
}

// NewBatchRunner creates a runner over crew. The crew is shared by all
// kickoffs; Crew keeps per-kickoff state in Run, so this is safe.
func NewBatchRunner(crew Kicker, opts ...BatchOption) *BatchRunner {
	b := &BatchRunner{crew: crew, concurrency: 3}
	for _, opt := range opts {
		opt(b)
	}
	if b.logger == nil {
		b.logger = slog.Default()
	}
	return b
}

// Run kicks off the crew once per input set. Results keep the order of
// inputs. A failed kickoff is recorded in its BatchResult and does not stop
// the others; the returned error is only set when ctx is cancelled.
func (b *BatchRunner) Run(ctx context.Context, inputs []map[string]string) ([]BatchResult, error) {
	b.logger.Info("starting batch", "total", len(inputs), "concurrency", b.concurrency)
	start := time.Now()

	results := make([]BatchResult, len(inputs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)

	for i, in := range inputs {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				results[i] = BatchResult{Inputs: in, Err: ctx.Err()}
				return ctx.Err()
			default:
			}

			res, err := b.crew.Kickoff(ctx, in)
			results[i] = BatchResult{Inputs: in, Result: res, Err: err}
			if err != nil {
				b.logger.Warn("kickoff failed", "index", i+1, "error", err)
			}
			if b.onDone != nil {
				b.onDone(i, results[i])
			}
			return nil
		})
	}

	err := g.Wait()
	b.logger.Info("batch complete", "total", len(inputs), "elapsed", time.Since(start))
	return results, err
}
