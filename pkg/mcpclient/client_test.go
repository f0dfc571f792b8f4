package mcpclient

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	mcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"

	"github.com/wilhg/toolsrv/pkg/errmodel"
	"github.com/wilhg/toolsrv/pkg/fsops"
	"github.com/wilhg/toolsrv/pkg/mcpserver"
	"github.com/wilhg/toolsrv/pkg/tasks"
	"github.com/wilhg/toolsrv/pkg/tool"
	"github.com/wilhg/toolsrv/pkg/tools"
)

// newLoopbackClient wires the tool server and a Client over in-memory transports.
func newLoopbackClient(t *testing.T) Client {
	t.Helper()
	ctx := context.Background()
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))

	reg, err := tools.NewRegistry(tasks.NewStore(), fsops.New(t.TempDir()))
	require.NoError(t, err)
	srv, err := mcpserver.New(mcpserver.Implementation{Name: "toolsrv", Version: "test"},
		tool.NewDispatcher(reg, tool.WithLogger(quiet)), mcpserver.WithLogger(quiet))
	require.NoError(t, err)

	st, ct := mcp.NewInMemoryTransports()
	ss, err := srv.Connect(ctx, st)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ss.Close() })

	cli, err := Connect(ctx, ct, WithClientInfo("loopback", "test"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = cli.Close() })
	return cli
}

func TestClientListTools(t *testing.T) {
	cli := newLoopbackClient(t)
	descs, err := cli.ListTools(context.Background())
	require.NoError(t, err)
	require.Len(t, descs, 8)

	for _, d := range descs {
		var schema map[string]any
		require.NoError(t, json.Unmarshal(d.InputSchema, &schema), d.Name)
		require.Equal(t, "object", schema["type"], d.Name)
	}
}

func TestClientCallTool(t *testing.T) {
	cli := newLoopbackClient(t)
	ctx := context.Background()

	res, err := cli.CallTool(ctx, "create-task", map[string]any{"title": "Probe", "description": "from client"})
	require.NoError(t, err)
	require.False(t, res.IsError, res.FirstText())
	require.Contains(t, res.FirstText(), `"id": "task-1"`)

	res, err = cli.CallTool(ctx, "list-tasks", nil)
	require.NoError(t, err)
	require.Contains(t, res.FirstText(), "Probe")

	res, err = cli.CallTool(ctx, "create-task", map[string]any{"title": 7})
	require.NoError(t, err)
	require.True(t, res.IsError)
	require.Equal(t, errmodel.KindExecution, res.Kind)
	require.Contains(t, res.FirstText(), "Invalid arguments for tool create-task")
}

func TestConnectRejectsMissingTarget(t *testing.T) {
	ctx := context.Background()
	_, err := Connect(ctx, nil)
	require.Error(t, err)
	_, err = ConnectCommand(ctx, "", nil)
	require.Error(t, err)
	_, err = ConnectHTTP(ctx, "")
	require.Error(t, err)
}

func TestFromCallToolResult(t *testing.T) {
	res := fromCallToolResult(&mcp.CallToolResult{Content: []mcp.Content{
		&mcp.TextContent{Text: "hello"},
		&mcp.EmbeddedResource{Resource: &mcp.ResourceContents{URI: "file:///r", Text: "r"}},
	}})
	require.False(t, res.IsError)
	require.Len(t, res.Content, 2)
	require.Equal(t, tool.ResourceContent{URI: "file:///r", Text: "r"}, res.Content[1])

	res = fromCallToolResult(nil)
	require.True(t, res.IsError)
}
