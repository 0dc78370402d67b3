package tools

import (
	"context"
	"sort"
)

// Tool is a capability an agent can use while working on a task.
type Tool interface {
	// Name is the identifier agents reference in crew definitions.
	Name() string
	// Description is shown to the model next to the tool output.
	Description() string
	// Run executes the tool. The result is always text, failures included.
	Run(ctx context.Context, query string) string
}

// Registry maps tool names to tools.
type Registry map[string]Tool

// NewRegistry indexes tools by name. A later tool replaces an earlier one with the same name.
func NewRegistry(tools ...Tool) Registry {
	r := make(Registry, len(tools))
	for _, t := range tools {
		r[t.Name()] = t
	}
	return r
}

// Lookup returns the tool registered under name.
func (r Registry) Lookup(name string) (Tool, bool) {
	t, ok := r[name]
	return t, ok
}

// Names returns the registered tool names in sorted order.
func (r Registry) Names() []string {
	names := make([]string, 0, len(r))
	for n := range r {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
