// Package mcpclient is a thin MCP client used to probe tool servers.
package mcpclient

import (
	"context"
	"encoding/json"
	"errors"
	"os/exec"

	mcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/wilhg/toolsrv/pkg/errmodel"
	"github.com/wilhg/toolsrv/pkg/tool"
)

// Client defines the MCP client capabilities we need.
type Client interface {
	ListTools(ctx context.Context) ([]ToolDescriptor, error)
	CallTool(ctx context.Context, name string, args map[string]any) (tool.Result, error)
	Close() error
}

// ToolDescriptor is a tool as advertised by a remote server. InputSchema is the raw
// JSON Schema document.
type ToolDescriptor struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	InputSchema json.RawMessage `json:"inputSchema,omitempty"`
}

type Option func(*config)

type config struct {
	name    string
	version string
}

// WithClientInfo sets the implementation reported during the handshake.
func WithClientInfo(name, version string) Option {
	return func(c *config) {
		c.name = name
		c.version = version
	}
}

type sdkClient struct {
	session *mcp.ClientSession
}

// Connect performs the MCP handshake over transport.
func Connect(ctx context.Context, transport mcp.Transport, opts ...Option) (Client, error) {
	if transport == nil {
		return nil, errors.New("mcpclient: transport is nil")
	}
	cfg := config{name: "toolsrv-probe", version: "dev"}
	for _, opt := range opts {
		opt(&cfg)
	}
	c := mcp.NewClient(&mcp.Implementation{Name: cfg.name, Version: cfg.version}, nil)
	session, err := c.Connect(ctx, transport, nil)
	if err != nil {
		return nil, err
	}
	return &sdkClient{session: session}, nil
}

// ConnectCommand spawns name with args and speaks MCP over its stdin/stdout.
func ConnectCommand(ctx context.Context, name string, args []string, opts ...Option) (Client, error) {
	if name == "" {
		return nil, errors.New("mcpclient: command is empty")
	}
	return Connect(ctx, &mcp.CommandTransport{Command: exec.Command(name, args...)}, opts...)
}

// ConnectHTTP connects to a streamable HTTP endpoint such as http://host:8080/mcp.
func ConnectHTTP(ctx context.Context, endpoint string, opts ...Option) (Client, error) {
	if endpoint == "" {
		return nil, errors.New("mcpclient: endpoint is empty")
	}
	return Connect(ctx, &mcp.StreamableClientTransport{Endpoint: endpoint}, opts...)
}

func (s *sdkClient) ListTools(ctx context.Context) ([]ToolDescriptor, error) {
	var (
		out    []ToolDescriptor
		cursor string
	)
	for {
		res, err := s.session.ListTools(ctx, &mcp.ListToolsParams{Cursor: cursor})
		if err != nil {
			return nil, err
		}
		for _, t := range res.Tools {
			d := ToolDescriptor{Name: t.Name, Description: t.Description}
			if t.InputSchema != nil {
				b, err := json.Marshal(t.InputSchema)
				if err != nil {
					return nil, err
				}
				d.InputSchema = b
			}
			out = append(out, d)
		}
		if res.NextCursor == "" {
			return out, nil
		}
		cursor = res.NextCursor
	}
}

// CallTool returns the remote envelope. A non-nil error means the call never produced
// one (transport or protocol failure); tool failures come back as IsError results.
func (s *sdkClient) CallTool(ctx context.Context, name string, args map[string]any) (tool.Result, error) {
	if args == nil {
		args = map[string]any{}
	}
	res, err := s.session.CallTool(ctx, &mcp.CallToolParams{Name: name, Arguments: args})
	if err != nil {
		return tool.Result{}, err
	}
	return fromCallToolResult(res), nil
}

func (s *sdkClient) Close() error { return s.session.Close() }

// fromCallToolResult maps SDK content back onto envelope content. The wire format
// carries no failure kind, so remote failures are reported as execution faults.
func fromCallToolResult(res *mcp.CallToolResult) tool.Result {
	if res == nil {
		return tool.Fail(errmodel.KindExecution, "empty result")
	}
	out := tool.Result{IsError: res.IsError}
	for _, c := range res.Content {
		switch v := c.(type) {
		case *mcp.TextContent:
			out.Content = append(out.Content, tool.TextContent{Text: v.Text})
		case *mcp.ImageContent:
			out.Content = append(out.Content, tool.ImageContent{Data: v.Data, MIMEType: v.MIMEType})
		case *mcp.EmbeddedResource:
			if v.Resource != nil {
				out.Content = append(out.Content, tool.ResourceContent{URI: v.Resource.URI, MIMEType: v.Resource.MIMEType, Text: v.Resource.Text})
			}
		}
	}
	if out.IsError {
		out.Kind = errmodel.KindExecution
	}
	return out
}
