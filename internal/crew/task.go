package crew

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/nao1215/schoolcrew/internal/llm"
	"github.com/nao1215/schoolcrew/internal/model"
	"github.com/nao1215/schoolcrew/internal/tools"
)

// Agent is a persona with a model and tools.
type Agent struct {
	Name      string
	Role      string
	Goal      string
	Backstory string
	Tools     []tools.Tool
	LLM       llm.Client
}

// Task is a step performed by one agent.
type Task struct {
	TaskName       string
	Description    string
	ExpectedOutput string
	ToolInput      map[string]string
	Agent          *Agent
}

// Name implements Step.
func (t *Task) Name() string {
	return t.TaskName
}

// observation is the output of one tool call.
type observation struct {
	tool   string
	query  string
	output string
}

// Do runs the agent's tools, prompts its model and appends the answer to run.
func (t *Task) Do(ctx context.Context, run *Run) error {
	description := Interpolate(t.Description, run.Inputs)

	vars := toolVars(run)
	observations := make([]observation, 0, len(t.Agent.Tools))
	for _, tool := range t.Agent.Tools {
		query := description
		if tmpl, ok := t.ToolInput[tool.Name()]; ok {
			query = Interpolate(tmpl, vars)
		}
		observations = append(observations, observation{
			tool:   tool.Name(),
			query:  query,
			output: tool.Run(ctx, query),
		})
	}

	prompt := buildPrompt(t.Agent, run.Inputs, description, Interpolate(t.ExpectedOutput, run.Inputs), observations, run.Outputs)
	answer, err := t.Agent.LLM.Chat(ctx, prompt)
	if err != nil {
		return err
	}

	run.Outputs = append(run.Outputs, model.TaskOutput{
		Task:   t.TaskName,
		Agent:  t.Agent.Name,
		Output: answer,
	})
	return nil
}

// toolVars returns the run inputs plus the output of every completed task
// under its task name, so tool inputs can refer to earlier results.
func toolVars(run *Run) map[string]string {
	vars := make(map[string]string, len(run.Inputs)+len(run.Outputs))
	for _, o := range run.Outputs {
		vars[o.Task] = o.Output
	}
	for k, v := range run.Inputs {
		vars[k] = v
	}
	return vars
}

var placeholder = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Interpolate replaces {name} with inputs[name]. Placeholders without a
// matching input are left untouched so literal JSON examples survive.
func Interpolate(tmpl string, inputs map[string]string) string {
	return placeholder.ReplaceAllStringFunc(tmpl, func(m string) string {
		if v, ok := inputs[m[1:len(m)-1]]; ok {
			return v
		}
		return m
	})
}

func buildPrompt(a *Agent, inputs map[string]string, description, expected string, obs []observation, previous []model.TaskOutput) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are %s.\n", strings.TrimSpace(Interpolate(a.Role, inputs)))
	if bs := strings.TrimSpace(Interpolate(a.Backstory, inputs)); bs != "" {
		fmt.Fprintf(&b, "%s\n", bs)
	}
	if goal := strings.TrimSpace(Interpolate(a.Goal, inputs)); goal != "" {
		fmt.Fprintf(&b, "\nYour personal goal is: %s\n", goal)
	}

	fmt.Fprintf(&b, "\nCurrent task: %s\n", strings.TrimSpace(description))
	if expected != "" {
		fmt.Fprintf(&b, "\nThis is the expected criteria for your final answer: %s\n", strings.TrimSpace(expected))
		b.WriteString("You MUST return the actual complete content as the final answer, not a summary.\n")
	}

	if len(obs) > 0 {
		b.WriteString("\n# Tool observations\n")
		for _, o := range obs {
			fmt.Fprintf(&b, "\n## %s (input: %s)\n%s\n", o.tool, oneLine(o.query), strings.TrimSpace(o.output))
		}
	}

	if len(previous) > 0 {
		b.WriteString("\n# Context from previous tasks\n")
		for _, p := range previous {
			fmt.Fprintf(&b, "\n## %s (by %s)\n%s\n", p.Task, p.Agent, strings.TrimSpace(p.Output))
		}
	}

	b.WriteString("\nBegin! Answer directly with your final answer.\n")
	return b.String()
}

func oneLine(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) > 120 {
		return s[:117] + "..."
	}
	return s
}
