package scraper

import (
	"context"
	"log/slog"
	"time"

	"github.com/masonlabs/storescan/internal/model"
)

// Run carries the shared state of one scrape run through the pipeline.
// Steps mutate State as they work and record their outcome in Summary.
type Run struct {
	// State is the resumable run state: pending queue, processed set,
	// and accumulated records.
	State *model.RunState

	// Summary aggregates counters for the report and run history.
	Summary *model.RunSummary

	// Fetches lists the per-URL outcomes of this run's fetch loop,
	// in fetch order. Stored in the run-history database, not in the
	// checkpoint.
	Fetches []model.FetchResult
}

// NewRun creates a Run around the given state. Pass a freshly loaded
// checkpoint to resume, or model.NewRunState() to start over.
func NewRun(state *model.RunState) *Run {
	return &Run{
		State:   state,
		Summary: &model.RunSummary{StartedAt: time.Now().UTC()},
	}
}

// Step is one phase of a scrape run. Steps execute in sequence, each
// receiving the accumulated run from the previous steps.
//
// Design decision: an interface rather than function types because steps
// carry configuration state (fetcher, intervals, output paths), and the
// Name method gives logging a stable label per phase.
type Step interface {
	// Do executes the step. A returned error is a critical failure;
	// per-item failures should be counted in the run state and logged,
	// not returned.
	Do(ctx context.Context, run *Run) error

	// Name returns the step's name for logging purposes.
	Name() string
}

// Pipeline executes steps in order against a shared Run.
type Pipeline struct {
	steps []Step

	logger *slog.Logger

	// continueOnError keeps later steps running after one fails.
	// The default is to stop, because a failed early phase (no URLs,
	// robots.txt forbids crawling) makes the rest pointless.
	continueOnError bool
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithContinueOnError configures the pipeline to run every step even
// when one fails. The first error is still returned from Execute.
func WithContinueOnError(continueOnError bool) Option {
	return func(p *Pipeline) {
		p.continueOnError = continueOnError
	}
}

// New creates an empty Pipeline. Add steps with AddStep or AddSteps.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{steps: make([]Step, 0)}

	for _, opt := range opts {
		opt(p)
	}

	if p.logger == nil {
		p.logger = slog.Default()
	}

	return p
}

// AddStep appends a step to the pipeline.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends multiple steps in order.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs all steps in sequence.
//
// Cancellation is checked between steps; steps themselves are expected
// to honor the context during long work (the fetch loop checkpoints
// before returning). An interrupted run is marked in the summary so the
// report and run history record it.
func (p *Pipeline) Execute(ctx context.Context, run *Run) error {
	var firstErr error

	for _, step := range p.steps {
		select {
		case <-ctx.Done():
			p.logger.Warn("run cancelled",
				"step", step.Name(),
				"reason", ctx.Err(),
			)
			run.Summary.Interrupted = true
			run.Summary.FinishedAt = time.Now().UTC()
			run.Summary.Scraped = len(run.State.Records)
			run.Summary.Errors = run.State.ErrorCount
			if firstErr != nil {
				return firstErr
			}
			return ctx.Err()
		default:
		}

		p.logger.Info("executing step", "step", step.Name())

		if err := step.Do(ctx, run); err != nil {
			p.logger.Error("step failed",
				"step", step.Name(),
				"error", err,
			)
			if ctx.Err() != nil {
				run.Summary.Interrupted = true
			}
			if firstErr == nil {
				firstErr = err
			}
			if !p.continueOnError {
				break
			}
			continue
		}

		p.logger.Debug("step completed", "step", step.Name())
	}

	run.Summary.FinishedAt = time.Now().UTC()
	run.Summary.Scraped = len(run.State.Records)
	run.Summary.Errors = run.State.ErrorCount
	return firstErr
}

// StepNames returns the names of all steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
