// Package tool implements the dispatch core: an immutable registry of schema-described
// tools, a schema validator, and a dispatcher that turns every call into a well-formed
// result envelope.
package tool

import (
	"context"
)

// ToolDescriptor declares the static interface of a tool.
type ToolDescriptor struct {
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	InputSchema *Schema `json:"inputSchema"`
}

// Tool defines a callable unit with a schema-validated input.
type Tool interface {
	// Describe returns the public descriptor.
	Describe() ToolDescriptor
	// Invoke executes the tool. args has already been validated against InputSchema.
	Invoke(ctx context.Context, args Arguments) ([]Content, error)
}

// HandlerFunc is the function form of Tool.Invoke.
type HandlerFunc func(ctx context.Context, args Arguments) ([]Content, error)

type funcTool struct {
	desc ToolDescriptor
	fn   HandlerFunc
}

func (t funcTool) Describe() ToolDescriptor { return t.desc }

func (t funcTool) Invoke(ctx context.Context, args Arguments) ([]Content, error) {
	return t.fn(ctx, args)
}

// New binds a descriptor to a handler.
func New(desc ToolDescriptor, fn HandlerFunc) Tool {
	return funcTool{desc: desc, fn: fn}
}

// DescribeTool is a helper to get a ToolDescriptor from a Tool (nil-safe).
func DescribeTool(t Tool) ToolDescriptor {
	if t == nil {
		return ToolDescriptor{}
	}
	return t.Describe()
}
