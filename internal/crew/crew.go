package crew

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/nao1215/schoolcrew/internal/llm"
	"github.com/nao1215/schoolcrew/internal/model"
	"github.com/nao1215/schoolcrew/internal/tools"
)

// Step is one unit of work in a kickoff.
// Tasks are the only steps today; the interface keeps Crew independent of them.
type Step interface {
	// Do executes the step and records its output in run.
	Do(ctx context.Context, run *Run) error
	// Name returns the step's name for logging.
	Name() string
}

// Run is the mutable state of one kickoff.
type Run struct {
	// Inputs fill {placeholders} in task templates.
	Inputs map[string]string
	// Outputs holds the output of every completed task, in order.
	Outputs []model.TaskOutput
}

// Crew executes its steps in order.
type Crew struct {
	name   string
	steps  []Step
	logger  *slog.Logger
	now     func() time.Time
	prepare PrepareFunc
}

// PrepareFunc rewrites kickoff inputs before the first task runs.
type PrepareFunc func(ctx context.Context, inputs map[string]string) map[string]string

// Option configures a Crew.
type Option func(*Crew)

// WithLogger sets the logger. slog.Default() is used otherwise.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Crew) {
		c.logger = logger
	}
}

// WithClock replaces time.Now for result timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Crew) {
		c.now = now
	}
}

// WithPrepare sets a function applied to the inputs of every kickoff,
// such as resolving "use my current location" to a detected place.
func WithPrepare(fn PrepareFunc) Option {
	return func(c *Crew) {
		c.prepare = fn
	}
}

// New builds a crew from def. Every agent uses client; tools are resolved
// from registry by name.
func New(def *Definition, client llm.Client, registry tools.Registry, opts ...Option) (*Crew, error) {
	if err := def.Validate(registry.Names()); err != nil {
		return nil, fmt.Errorf("invalid crew %q: %w", def.Name, err)
	}

	agents := make(map[string]*Agent, len(def.Agents))
	for name, spec := range def.Agents {
		a := &Agent{
			Name:      name,
			Role:      spec.Role,
			Goal:      spec.Goal,
			Backstory: spec.Backstory,
			LLM:       client,
		}
		for _, toolName := range spec.Tools {
			t, _ := registry.Lookup(toolName) // presence checked by Validate
			a.Tools = append(a.Tools, t)
		}
		agents[name] = a
	}

	c := &Crew{name: def.Name, now: time.Now}
	for _, name := range def.TaskOrder() {
		spec := def.Tasks[name]
		c.steps = append(c.steps, &Task{
			TaskName:       name,
			Description:    spec.Description,
			ExpectedOutput: spec.ExpectedOutput,
			ToolInput:      spec.ToolInput,
			Agent:          agents[spec.Agent],
		})
	}

	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c, nil
}

// Name returns the crew name.
func (c *Crew) Name() string {
	return c.name
}

// StepNames returns the names of all steps in execution order.
func (c *Crew) StepNames() []string {
	names := make([]string, len(c.steps))
	for i, s := range c.steps {
		names[i] = s.Name()
	}
	return names
}

// Kickoff runs every step in order with the given inputs.
// It stops at the first failing step; there is no retry.
// The returned result's Raw is the output of the last step.
func (c *Crew) Kickoff(ctx context.Context, inputs map[string]string) (*model.CrewResult, error) {
	result := &model.CrewResult{
		RunID:     uuid.NewString(),
		Crew:      c.name,
		StartedAt: c.now(),
	}
	logger := c.logger.With("crew", c.name, "run_id", result.RunID)
	if c.prepare != nil {
		inputs = c.prepare(ctx, inputs)
		logger.Debug("inputs prepared", "inputs", inputs)
	}
	run := &Run{Inputs: inputs}

	for _, step := range c.steps {
		select {
		case <-ctx.Done():
			logger.Warn("crew cancelled", "step", step.Name(), "reason", ctx.Err())
			return nil, ctx.Err()
		default:
		}

		logger.Info("executing task", "task", step.Name())
		started := c.now()
		if err := step.Do(ctx, run); err != nil {
			logger.Error("task failed", "task", step.Name(), "error", err)
			return nil, fmt.Errorf("task %s failed: %w", step.Name(), err)
		}
		logger.Debug("task completed", "task", step.Name(), "elapsed", c.now().Sub(started))
	}

	result.Tasks = run.Outputs
	if n := len(run.Outputs); n > 0 {
		result.Raw = run.Outputs[n-1].Output
	}
	result.FinishedAt = c.now()
	return result, nil
}
