package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/wilhg/toolsrv/pkg/fsops"
	"github.com/wilhg/toolsrv/pkg/tool"
)

// FileSystem is the filesystem collaborator the file tools delegate to.
type FileSystem interface {
	ReadFile(ctx context.Context, path string) (string, error)
	WriteFile(ctx context.Context, path, content string) error
	ListDirectory(ctx context.Context, path string) ([]fsops.Entry, error)
}

// ReadFileTool returns a file's content verbatim.
type ReadFileTool struct{ FS FileSystem }

func (ReadFileTool) Describe() tool.ToolDescriptor {
	in := tool.Object(
		tool.Prop("path", &tool.Schema{Type: tool.TypeString, Description: "Path of the file to read", MinLength: tool.Ptr(1)}),
	)
	in.Required = []string{"path"}
	return tool.ToolDescriptor{
		Name:        "read-file",
		Description: "Read the contents of a file",
		InputSchema: in,
	}
}

func (t ReadFileTool) Invoke(ctx context.Context, args tool.Arguments) ([]tool.Content, error) {
	content, err := t.FS.ReadFile(ctx, args.String("path"))
	if err != nil {
		return nil, err
	}
	return []tool.Content{tool.TextContent{Text: content}}, nil
}

// WriteFileTool replaces a file's content, creating parent directories.
type WriteFileTool struct{ FS FileSystem }

func (WriteFileTool) Describe() tool.ToolDescriptor {
	in := tool.Object(
		tool.Prop("path", &tool.Schema{Type: tool.TypeString, Description: "Path of the file to write", MinLength: tool.Ptr(1)}),
		tool.Prop("content", tool.String("Content to write")),
	)
	in.Required = []string{"path", "content"}
	return tool.ToolDescriptor{
		Name:        "write-file",
		Description: "Write content to a file, creating parent directories as needed",
		InputSchema: in,
	}
}

func (t WriteFileTool) Invoke(ctx context.Context, args tool.Arguments) ([]tool.Content, error) {
	path, content := args.String("path"), args.String("content")
	if err := t.FS.WriteFile(ctx, path, content); err != nil {
		return nil, err
	}
	msg := fmt.Sprintf("Successfully wrote %d bytes to %s", len(content), path)
	return []tool.Content{tool.TextContent{Text: msg}}, nil
}

// ListDirectoryTool lists a directory, one entry per line.
type ListDirectoryTool struct{ FS FileSystem }

func (ListDirectoryTool) Describe() tool.ToolDescriptor {
	in := tool.Object(
		tool.Prop("path", &tool.Schema{Type: tool.TypeString, Description: "Path of the directory to list", MinLength: tool.Ptr(1)}),
	)
	in.Required = []string{"path"}
	return tool.ToolDescriptor{
		Name:        "list-directory",
		Description: "List the files and directories inside a directory",
		InputSchema: in,
	}
}

func (t ListDirectoryTool) Invoke(ctx context.Context, args tool.Arguments) ([]tool.Content, error) {
	entries, err := t.FS.ListDirectory(ctx, args.String("path"))
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return []tool.Content{tool.TextContent{Text: "(empty directory)"}}, nil
	}
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		kind := "[FILE]"
		if e.IsDir {
			kind = "[DIR]"
		}
		lines = append(lines, kind+" "+e.Name)
	}
	return []tool.Content{tool.TextContent{Text: strings.Join(lines, "\n")}}, nil
}
