package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/a11yscan/internal/model"
)

// DefaultConcurrency is the number of documents checked at once.
const DefaultConcurrency = 10

// DocumentResult is the outcome of checking one document.
type DocumentResult struct {
	// Page is the checked document.
	Page *model.Page

	// Incidences are the findings in registry order.
	Incidences []model.Incidence

	// Elapsed is how long the document took.
	Elapsed time.Duration

	// Err is set when the document was cancelled or timed out. Incidences
	// found before that are kept.
	Err error
}

// BatchResult holds every document result in provider order.
type BatchResult struct {
	Documents []DocumentResult
	StartedAt time.Time
	Elapsed   time.Duration
}

// Incidences flattens the incidences of all documents in order.
func (b BatchResult) Incidences() []model.Incidence {
	var all []model.Incidence
	for _, d := range b.Documents {
		all = append(all, d.Incidences...)
	}
	return all
}

// Failed returns the number of documents with an error.
func (b BatchResult) Failed() int {
	n := 0
	for _, d := range b.Documents {
		if d.Err != nil {
			n++
		}
	}
	return n
}

// BatchProcessor checks many documents concurrently.
// It uses errgroup to manage goroutines and respect concurrency limits.
type BatchProcessor struct {
	runner *Runner

	// concurrency is the maximum number of documents checked at once.
	concurrency int

	// timeout bounds each document; zero means no limit.
	timeout time.Duration

	// logger is used for batch-level logging.
	logger *slog.Logger
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent documents.
// Default is 10 if not specified.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// WithDocumentTimeout bounds the time spent on each document.
func WithDocumentTimeout(d time.Duration) BatchOption {
	return func(b *BatchProcessor) {
		if d > 0 {
			b.timeout = d
		}
	}
}

// NewBatchProcessor creates a new BatchProcessor around runner.
func NewBatchProcessor(runner *Runner, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		runner:      runner,
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(bp)
	}
	if bp.logger == nil {
		bp.logger = slog.Default()
	}
	return bp
}

// RunBatch checks every document of provider.
//
// Results are stored by index, so their order equals the provider order
// whatever the completion order. The error is non-nil only when the
// provider fails or ctx is done; per-document problems are recorded in
// DocumentResult.Err.
func (bp *BatchProcessor) RunBatch(ctx context.Context, provider Provider) (BatchResult, error) {
	return bp.RunBatchWithCallback(ctx, provider, nil)
}

// RunBatchWithCallback is RunBatch that also calls callback for each
// finished document with its provider index. The callback is called from
// the goroutine that checked the document, so it must be safe for
// concurrent use.
func (bp *BatchProcessor) RunBatchWithCallback(
	ctx context.Context,
	provider Provider,
	callback func(result DocumentResult, index int),
) (BatchResult, error) {
	result := BatchResult{StartedAt: time.Now()}

	pages, err := provider.Pages(ctx)
	if err != nil {
		return result, fmt.Errorf("loading documents: %w", err)
	}

	bp.logger.Info("starting batch",
		"documents", len(pages),
		"concurrency", bp.concurrency,
	)

	// Each goroutine writes only its own slot.
	result.Documents = make([]DocumentResult, len(pages))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, page := range pages {
		g.Go(func() error {
			res := bp.runDocument(gctx, page)
			result.Documents[i] = res
			if callback != nil {
				callback(res, i)
			}
			return nil
		})
	}

	// Goroutines never return errors, so Wait only synchronizes.
	_ = g.Wait() //nolint:errcheck // per-document errors are in the results

	result.Elapsed = time.Since(result.StartedAt)
	bp.logger.Info("batch complete",
		"documents", len(pages),
		"failed", result.Failed(),
		"elapsed", result.Elapsed,
	)

	if err := ctx.Err(); err != nil {
		return result, err
	}
	return result, nil
}

func (bp *BatchProcessor) runDocument(ctx context.Context, page *model.Page) DocumentResult {
	res := DocumentResult{Page: page}

	if err := ctx.Err(); err != nil {
		res.Err = err
		return res
	}

	if bp.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, bp.timeout)
		defer cancel()
	}

	start := time.Now()
	res.Incidences = bp.runner.RunOne(ctx, page.Source, page.Markup)
	res.Elapsed = time.Since(start)

	if err := ctx.Err(); err != nil {
		res.Err = fmt.Errorf("checking %s: %w", page.Source, err)
		bp.logger.Warn("document failed",
			"source", page.Source,
			"error", err,
		)
		return res
	}

	bp.logger.Debug("document checked",
		"source", page.Source,
		"incidences", len(res.Incidences),
		"elapsed", res.Elapsed,
	)
	return res
}
