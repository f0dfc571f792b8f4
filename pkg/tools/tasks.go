package tools

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/wilhg/toolsrv/pkg/errmodel"
	"github.com/wilhg/toolsrv/pkg/tasks"
	"github.com/wilhg/toolsrv/pkg/tool"
)

// CreateTaskTool adds a todo task to the store.
type CreateTaskTool struct{ Store *tasks.Store }

func (CreateTaskTool) Describe() tool.ToolDescriptor {
	priority := tool.Enum("Task priority", "low", "medium", "high")
	priority.Default = "medium"
	in := tool.Object(
		tool.Prop("title", &tool.Schema{Type: tool.TypeString, Description: "Task title", MinLength: tool.Ptr(1)}),
		tool.Prop("description", tool.String("Task description")),
		tool.Prop("priority", priority),
	)
	in.Required = []string{"title", "description"}
	return tool.ToolDescriptor{
		Name:        "create-task",
		Description: "Create a new task with status todo",
		InputSchema: in,
	}
}

func (t CreateTaskTool) Invoke(_ context.Context, args tool.Arguments) ([]tool.Content, error) {
	priority, err := tasks.ParsePriority(args.String("priority"))
	if err != nil {
		return nil, errmodel.Validation("invalid_priority", err.Error(), nil)
	}
	task := t.Store.Create(args.String("title"), args.String("description"), priority)
	return jsonContent(task)
}

// ListTasksTool lists tasks, optionally filtered by status.
type ListTasksTool struct{ Store *tasks.Store }

func (ListTasksTool) Describe() tool.ToolDescriptor {
	in := tool.Object(
		tool.Prop("status", tool.Enum("Only return tasks with this status; all returns every task", "todo", "in-progress", "done", "all")),
	)
	return tool.ToolDescriptor{
		Name:        "list-tasks",
		Description: "List tasks in creation order, optionally filtered by status",
		InputSchema: in,
	}
}

func (t ListTasksTool) Invoke(_ context.Context, args tool.Arguments) ([]tool.Content, error) {
	return jsonContent(t.Store.List(tasks.Status(args.String("status"))))
}

// UpdateTaskStatusTool sets a task's status. Any status may follow any other.
type UpdateTaskStatusTool struct{ Store *tasks.Store }

func (UpdateTaskStatusTool) Describe() tool.ToolDescriptor {
	in := tool.Object(
		tool.Prop("taskId", &tool.Schema{Type: tool.TypeString, Description: "Id of the task to update", MinLength: tool.Ptr(1)}),
		tool.Prop("status", tool.Enum("New status", "todo", "in-progress", "done")),
	)
	in.Required = []string{"taskId", "status"}
	return tool.ToolDescriptor{
		Name:        "update-task-status",
		Description: "Update the status of an existing task",
		InputSchema: in,
	}
}

func (t UpdateTaskStatusTool) Invoke(_ context.Context, args tool.Arguments) ([]tool.Content, error) {
	status, err := tasks.ParseStatus(args.String("status"))
	if err != nil {
		return nil, errmodel.Validation("invalid_status", err.Error(), nil)
	}
	id := args.String("taskId")
	task, err := t.Store.UpdateStatus(id, status)
	if errors.Is(err, tasks.ErrTaskNotFound) {
		return nil, errmodel.NotFound("task_not_found", "Task not found: "+id, map[string]any{"taskId": id}, err)
	}
	if err != nil {
		return nil, err
	}
	return jsonContent(task)
}

func jsonContent(v any) ([]tool.Content, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, errmodel.Execution("encode_failed", "failed to encode result: "+err.Error(), nil, err)
	}
	return []tool.Content{tool.TextContent{Text: string(b)}}, nil
}
