package crew

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Built-in crew names.
const (
	SchoolCrew = "school"
	GitHubCrew = "github"
)

//go:embed definitions/crews.yaml
var builtinDefinitions []byte

// AgentSpec describes an agent in a crew definition.
type AgentSpec struct {
	Role      string   `yaml:"role"`
	Goal      string   `yaml:"goal"`
	Backstory string   `yaml:"backstory"`
	Tools     []string `yaml:"tools,omitempty"`
}

// TaskSpec describes a task in a crew definition.
// Description, ExpectedOutput and ToolInput values may contain {input}
// placeholders filled at kickoff.
type TaskSpec struct {
	Description    string `yaml:"description"`
	ExpectedOutput string `yaml:"expected_output"`
	Agent          string `yaml:"agent"`
	// ToolInput maps a tool name to the query template passed to it.
	// Templates may also name an earlier task to receive its output.
	// Tools without an entry receive the task description.
	ToolInput map[string]string `yaml:"tool_input,omitempty"`
}

// Definition is one crew: its agents, its tasks and their order.
type Definition struct {
	Name   string               `yaml:"-"`
	Agents map[string]AgentSpec `yaml:"agents"`
	Tasks  map[string]TaskSpec  `yaml:"tasks"`
	// Order lists task names in execution order. When empty, tasks run in
	// lexical order of their names.
	Order []string `yaml:"order,omitempty"`
}

// Definitions maps crew names to definitions.
type Definitions map[string]*Definition

type definitionsFile struct {
	Crews map[string]*Definition `yaml:"crews"`
}

// ParseDefinitions decodes a crews YAML document.
func ParseDefinitions(data []byte) (Definitions, error) {
	var f definitionsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse crew definitions: %w", err)
	}
	defs := make(Definitions, len(f.Crews))
	for name, d := range f.Crews {
		if d == nil {
			continue
		}
		d.Name = name
		defs[name] = d
	}
	return defs, nil
}

// LoadDefinitions reads crew definitions from path.
func LoadDefinitions(path string) (Definitions, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided crew file is intentional
	if err != nil {
		return nil, err
	}
	return ParseDefinitions(data)
}

// BuiltinDefinitions returns the school and github crews shipped with the binary.
func BuiltinDefinitions() Definitions {
	defs, err := ParseDefinitions(builtinDefinitions)
	if err != nil {
		panic(err) // embedded file is covered by tests
	}
	return defs
}

// BuiltinYAML returns the embedded crew definitions document.
func BuiltinYAML() []byte {
	return builtinDefinitions
}

// Resolve returns the definitions from path merged over the built-in ones.
// An empty path yields the built-in definitions.
func Resolve(path string) (Definitions, error) {
	defs := BuiltinDefinitions()
	if path == "" {
		return defs, nil
	}
	custom, err := LoadDefinitions(path)
	if err != nil {
		return nil, err
	}
	for name, d := range custom {
		defs[name] = d
	}
	return defs, nil
}

// Get returns the named definition.
func (d Definitions) Get(name string) (*Definition, error) {
	def, ok := d[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCrew, name)
	}
	return def, nil
}

// TaskOrder returns the task names in execution order.
func (d *Definition) TaskOrder() []string {
	if len(d.Order) > 0 {
		return d.Order
	}
	names := make([]string, 0, len(d.Tasks))
	for n := range d.Tasks {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Validate checks every reference in the definition. toolNames lists the
// registered tools; nil skips the tool check.
func (d *Definition) Validate(toolNames []string) error {
	order := d.TaskOrder()
	if len(order) == 0 {
		return ErrNoTasks
	}
	for _, name := range order {
		task, ok := d.Tasks[name]
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownTask, name)
		}
		if _, ok := d.Agents[task.Agent]; !ok {
			return fmt.Errorf("%w: %q in task %s", ErrUnknownAgent, task.Agent, name)
		}
	}
	if toolNames == nil {
		return nil
	}
	known := make(map[string]bool, len(toolNames))
	for _, n := range toolNames {
		known[n] = true
	}
	for agentName, a := range d.Agents {
		for _, tool := range a.Tools {
			if !known[tool] {
				return fmt.Errorf("%w: %q for agent %s", ErrUnknownTool, tool, agentName)
			}
		}
	}
	return nil
}
