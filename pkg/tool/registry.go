package tool

import (
	"fmt"
)

// Registry is an ordered, read-only catalog of tools keyed by name.
// It is populated once by NewRegistry and never mutated afterwards.
type Registry struct {
	order []string
	tools map[string]Tool
}

// NewRegistry registers tools in declaration order. It fails on a nil tool, an empty
// or duplicate name, or a schema that does not compile as JSON Schema.
func NewRegistry(tools ...Tool) (*Registry, error) {
	r := &Registry{tools: make(map[string]Tool, len(tools))}
	for i, t := range tools {
		if t == nil {
			return nil, fmt.Errorf("tool at index %d is nil", i)
		}
		d := t.Describe()
		if d.Name == "" {
			return nil, fmt.Errorf("tool at index %d: name is empty", i)
		}
		if _, exists := r.tools[d.Name]; exists {
			return nil, fmt.Errorf("tool %q already registered", d.Name)
		}
		if d.InputSchema != nil && d.InputSchema.Type != TypeObject {
			return nil, fmt.Errorf("tool %q: input schema must be an object, got %q", d.Name, d.InputSchema.Type)
		}
		if err := CompileJSONSchema(d.InputSchema); err != nil {
			return nil, fmt.Errorf("tool %q: invalid input schema: %w", d.Name, err)
		}
		r.tools[d.Name] = t
		r.order = append(r.order, d.Name)
	}
	return r, nil
}

// List returns the descriptors in declaration order.
func (r *Registry) List() []ToolDescriptor {
	out := make([]ToolDescriptor, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name].Describe())
	}
	return out
}

// Find returns a Tool by exact name. A miss is a normal result, not an error.
func (r *Registry) Find(name string) (Tool, bool) {
	if r == nil {
		return nil, false
	}
	t, ok := r.tools[name]
	return t, ok
}

// Range calls fn for every tool in declaration order.
func (r *Registry) Range(fn func(name string, t Tool)) {
	for _, name := range r.order {
		fn(name, r.tools[name])
	}
}

// Len reports the number of registered tools.
func (r *Registry) Len() int { return len(r.order) }
