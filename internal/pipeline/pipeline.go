package pipeline

import (
	"context"
	"errors"
	"log/slog"

	"github.com/nao1215/sitearchive/internal/model"
)

// Step defines the interface that all pipeline steps must implement.
// Steps are executed in sequence, with each step receiving the archive
// state accumulated by the previous steps.
//
// Design decision: We use an interface rather than function types because:
// 1. It allows steps to carry configuration state
// 2. It provides a Name() method for logging and debugging
type Step interface {
	// Do executes the pipeline step.
	// Returns an error if the step fails critically; failures limited to one
	// page are recorded in the archive and do not produce an error.
	Do(ctx context.Context, archive *model.Archive) error

	// Name returns the step's name for logging purposes.
	Name() string
}

// Pipeline orchestrates the execution of multiple steps.
// It maintains a list of steps and executes them in order.
type Pipeline struct {
	// steps contains the ordered list of steps to execute.
	steps []Step

	// logger is used for structured logging during execution.
	logger *slog.Logger

	// continueOnError determines whether to continue executing steps
	// after one fails. If false, the pipeline stops on first error.
	continueOnError bool
}

// Option is a function that configures a Pipeline.
// This follows the functional options pattern for clean API design.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
// If not set, slog.Default() is used.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithContinueOnError configures the pipeline to continue execution
// even when a step fails. Failed steps are logged and their errors
// are recorded in the archive, but subsequent steps still execute.
//
// Design decision: The default is to stop on error. A master document that
// could not be written leaves nothing to split, and a half-written archive
// is worse than a failed run.
func WithContinueOnError(continueOnError bool) Option {
	return func(p *Pipeline) {
		p.continueOnError = continueOnError
	}
}

// New creates a new Pipeline with the given options.
// Steps should be added using AddStep after creation.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		steps: make([]Step, 0),
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.logger == nil {
		p.logger = slog.Default()
	}

	return p
}

// AddStep appends a step to the pipeline.
// Steps are executed in the order they are added.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends multiple steps to the pipeline.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs all pipeline steps in sequence.
//
// Design decision: We check ctx before each step rather than during,
// because steps handle cancellation themselves (the crawl stops between
// visits). A step that fails because ctx was canceled marks the archive as
// canceled rather than failed.
//
// Returns the first error encountered if continueOnError is false,
// or nil if all steps complete (errors are recorded in the archive).
func (p *Pipeline) Execute(ctx context.Context, archive *model.Archive) error {
	for _, step := range p.steps {
		select {
		case <-ctx.Done():
			p.logger.Warn("pipeline canceled",
				"step", step.Name(),
				"reason", ctx.Err(),
			)
			archive.TimedOut = true
			return ctx.Err()
		default:
		}

		p.logger.Debug("executing step",
			"step", step.Name(),
			"site", archive.Site,
		)

		if err := step.Do(ctx, archive); err != nil {
			if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
				p.logger.Warn("step canceled", "step", step.Name())
				archive.TimedOut = true
				return err
			}

			p.logger.Error("step failed",
				"step", step.Name(),
				"site", archive.Site,
				"error", err,
			)

			archive.Error = err
			archive.ErrorMessage = err.Error()

			if !p.continueOnError {
				return err
			}
			continue
		}

		p.logger.Debug("step completed",
			"step", step.Name(),
			"site", archive.Site,
		)
		archive.CompletedSteps = append(archive.CompletedSteps, step.Name())
	}

	return nil
}

// StepCount returns the number of steps in the pipeline.
func (p *Pipeline) StepCount() int {
	return len(p.steps)
}

// StepNames returns the names of all steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
