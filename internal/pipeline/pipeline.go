package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nao1215/a11yscan/internal/checker"
	"github.com/nao1215/a11yscan/internal/dom"
	"github.com/nao1215/a11yscan/internal/model"
)

// Runner checks single documents against a checker registry.
type Runner struct {
	// registry holds the checkers in execution order.
	registry *checker.Registry

	// logger is used for structured logging during execution.
	logger *slog.Logger
}

// Option is a function that configures a Runner.
type Option func(*Runner)

// WithLogger sets a custom logger for the runner.
// If not set, slog.Default() is used.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// NewRunner creates a Runner over registry.
func NewRunner(registry *checker.Registry, opts ...Option) *Runner {
	r := &Runner{registry: registry}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r
}

// RunOne parses markup once and runs every checker on it, concatenating
// their incidences in registry order.
//
// A checker that returns an error or panics is logged and skipped; the
// incidences it returned before failing are kept. When ctx is done the
// remaining checkers are not started.
func (r *Runner) RunOne(ctx context.Context, source, markup string) []model.Incidence {
	doc := dom.Parse(source, markup)
	incidences := make([]model.Incidence, 0)

	for _, c := range r.registry.Checkers() {
		select {
		case <-ctx.Done():
			r.logger.Warn("document check cancelled",
				"source", source,
				"checker", c.Name(),
				"reason", ctx.Err(),
			)
			return incidences
		default:
		}

		start := time.Now()
		found, err := r.runChecker(ctx, c, doc, source)
		if err != nil {
			r.logger.Warn("checker failed",
				"source", source,
				"checker", c.Name(),
				"error", err,
			)
		}
		r.logger.Debug("checker finished",
			"source", source,
			"checker", c.Name(),
			"incidences", len(found),
			"elapsed", time.Since(start),
		)
		incidences = append(incidences, found...)
	}
	return incidences
}

// runChecker calls c.Check, converting a panic into an error.
func (r *Runner) runChecker(ctx context.Context, c checker.Checker, doc *dom.Document, source string) (found []model.Incidence, err error) {
	defer func() {
		if p := recover(); p != nil {
			found = nil
			err = fmt.Errorf("checker %s panicked: %v", c.Name(), p)
		}
	}()
	return c.Check(ctx, doc, source)
}

// CheckerCount returns the number of checkers the runner executes.
func (r *Runner) CheckerCount() int {
	return r.registry.Len()
}

// CheckerNames returns the names of all checkers in execution order.
func (r *Runner) CheckerNames() []string {
	return r.registry.Names()
}
