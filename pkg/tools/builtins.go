// Package tools implements the built-in tool handlers: file access, task records and
// markdown generation.
package tools

import (
	"github.com/wilhg/toolsrv/pkg/tasks"
	"github.com/wilhg/toolsrv/pkg/tool"
)

// Builtins returns the eight built-in tools in their published order.
func Builtins(store *tasks.Store, fsys FileSystem) []tool.Tool {
	return []tool.Tool{
		ReadFileTool{FS: fsys},
		WriteFileTool{FS: fsys},
		ListDirectoryTool{FS: fsys},
		CreateTaskTool{Store: store},
		ListTasksTool{Store: store},
		UpdateTaskStatusTool{Store: store},
		MarkdownDocTool{},
		ReadmeTool{},
	}
}

// NewRegistry builds the read-only registry holding the built-in tools.
func NewRegistry(store *tasks.Store, fsys FileSystem) (*tool.Registry, error) {
	return tool.NewRegistry(Builtins(store, fsys)...)
}
