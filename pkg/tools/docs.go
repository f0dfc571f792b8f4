package tools

import (
	"context"

	"github.com/wilhg/toolsrv/pkg/errmodel"
	"github.com/wilhg/toolsrv/pkg/markdown"
	"github.com/wilhg/toolsrv/pkg/tool"
)

// MarkdownDocTool renders a titled markdown document from sections.
type MarkdownDocTool struct{}

func (MarkdownDocTool) Describe() tool.ToolDescriptor {
	section := tool.Object(
		tool.Prop("heading", tool.String("Section heading")),
		tool.Prop("content", tool.String("Section body in markdown")),
	)
	section.Required = []string{"heading", "content"}
	in := tool.Object(
		tool.Prop("title", &tool.Schema{Type: tool.TypeString, Description: "Document title", MinLength: tool.Ptr(1)}),
		tool.Prop("sections", tool.ArrayOf("Document sections in order", section)),
	)
	in.Required = []string{"title", "sections"}
	return tool.ToolDescriptor{
		Name:        "generate-markdown-doc",
		Description: "Generate a markdown document from a title and sections",
		InputSchema: in,
	}
}

func (MarkdownDocTool) Invoke(_ context.Context, args tool.Arguments) ([]tool.Content, error) {
	var sections []markdown.Section
	for _, s := range args.Objects("sections") {
		sections = append(sections, markdown.Section{Heading: s.String("heading"), Content: s.String("content")})
	}
	doc, err := markdown.Document(args.String("title"), sections)
	if err != nil {
		return nil, errmodel.Execution("render_failed", "failed to render document: "+err.Error(), nil, err)
	}
	return []tool.Content{tool.TextContent{Text: doc}}, nil
}

// ReadmeTool renders a project README.
type ReadmeTool struct{}

func (ReadmeTool) Describe() tool.ToolDescriptor {
	in := tool.Object(
		tool.Prop("projectName", &tool.Schema{Type: tool.TypeString, Description: "Project name", MinLength: tool.Ptr(1)}),
		tool.Prop("description", tool.String("One paragraph project description")),
		tool.Prop("features", tool.ArrayOf("Feature bullet points", tool.String("Feature"))),
	)
	in.Required = []string{"projectName", "description"}
	return tool.ToolDescriptor{
		Name:        "generate-readme",
		Description: "Generate a README.md for a project",
		InputSchema: in,
	}
}

func (ReadmeTool) Invoke(_ context.Context, args tool.Arguments) ([]tool.Content, error) {
	readme, err := markdown.Readme(args.String("projectName"), args.String("description"), args.Strings("features"))
	if err != nil {
		return nil, errmodel.Execution("render_failed", "failed to render readme: "+err.Error(), nil, err)
	}
	return []tool.Content{tool.TextContent{Text: readme}}, nil
}
