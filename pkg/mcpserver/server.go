// Package mcpserver exposes a tool.Dispatcher over the Model Context Protocol.
// It speaks stdio for local clients and streamable HTTP for remote ones; both paths
// funnel into the same serialized dispatch.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	mcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/wilhg/toolsrv/pkg/errmodel"
	"github.com/wilhg/toolsrv/pkg/tool"
)

// Implementation names the server in the MCP initialize handshake.
type Implementation struct {
	Name    string
	Version string
}

// Server adapts a Dispatcher to an MCP server.
// MCP tools/list is ordered by name (the go-sdk pages by sorted key); /api/tools and
// Registry.List keep declaration order.
type Server struct {
	srv     *mcp.Server
	disp    *tool.Dispatcher
	logger  *slog.Logger
	metrics http.Handler

	// mu serializes dispatch: one call at a time, whatever the transport.
	mu sync.Mutex
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the structured logger; defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetricsHandler mounts h at /debug/metrics on the HTTP handler.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

// New registers every tool of the dispatcher's registry on a fresh MCP server.
func New(impl Implementation, disp *tool.Dispatcher, opts ...Option) (*Server, error) {
	if disp == nil || disp.Registry() == nil {
		return nil, errors.New("mcpserver: dispatcher with a registry is required")
	}
	if impl.Name == "" {
		impl.Name = "toolsrv"
	}
	s := &Server{disp: disp, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	s.srv = mcp.NewServer(&mcp.Implementation{Name: impl.Name, Version: impl.Version}, nil)
	s.srv.AddReceivingMiddleware(s.unknownToolMiddleware)

	var regErr error
	disp.Registry().Range(func(name string, t tool.Tool) {
		if regErr != nil {
			return
		}
		regErr = s.register(name, t)
	})
	if regErr != nil {
		return nil, regErr
	}
	return s, nil
}

func (s *Server) register(name string, t tool.Tool) (err error) {
	desc := t.Describe()
	schema := desc.InputSchema
	if schema == nil {
		schema = tool.Object()
	}
	// AddTool panics on a schema it cannot accept.
	defer func() {
		if r := recover(); r != nil {
			err = errors.New("mcpserver: register " + name + ": " + toString(r))
		}
	}()
	s.srv.AddTool(&mcp.Tool{
		Name:        name,
		Description: desc.Description,
		InputSchema: schema.JSONSchema(),
	}, s.handle(name))
	return nil
}

func (s *Server) handle(name string) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var raw json.RawMessage
		if req != nil && req.Params != nil {
			raw = req.Params.Arguments
		}
		return ToCallToolResult(s.dispatch(ctx, name, raw)), nil
	}
}

func (s *Server) dispatch(ctx context.Context, name string, raw json.RawMessage) tool.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disp.CallJSON(ctx, name, raw)
}

// unknownToolMiddleware answers tools/call for unregistered names with a failure
// envelope instead of a protocol error.
func (s *Server) unknownToolMiddleware(next mcp.MethodHandler) mcp.MethodHandler {
	return func(ctx context.Context, method string, req mcp.Request) (mcp.Result, error) {
		if method != "tools/call" {
			return next(ctx, method, req)
		}
		call, ok := req.(*mcp.CallToolRequest)
		if !ok || call.Params == nil {
			return next(ctx, method, req)
		}
		if _, found := s.disp.Registry().Find(call.Params.Name); found {
			return next(ctx, method, req)
		}
		return ToCallToolResult(s.dispatch(ctx, call.Params.Name, call.Params.Arguments)), nil
	}
}

// ToCallToolResult converts an envelope into the SDK result type.
func ToCallToolResult(res tool.Result) *mcp.CallToolResult {
	out := &mcp.CallToolResult{IsError: res.IsError, Content: make([]mcp.Content, 0, len(res.Content))}
	for _, c := range res.Content {
		switch v := c.(type) {
		case tool.TextContent:
			out.Content = append(out.Content, &mcp.TextContent{Text: v.Text})
		case tool.ImageContent:
			out.Content = append(out.Content, &mcp.ImageContent{Data: v.Data, MIMEType: v.MIMEType})
		case tool.ResourceContent:
			out.Content = append(out.Content, &mcp.EmbeddedResource{Resource: &mcp.ResourceContents{
				URI:      v.URI,
				MIMEType: v.MIMEType,
				Text:     v.Text,
			}})
		}
	}
	return out
}

// Serve runs the server over stdin/stdout until ctx is done or the client disconnects.
func (s *Server) Serve(ctx context.Context) error {
	s.logger.InfoContext(ctx, "mcp server listening", slog.String("transport", "stdio"))
	return s.srv.Run(ctx, &mcp.StdioTransport{})
}

// Connect serves a single session over an arbitrary transport, e.g. in-memory pipes.
func (s *Server) Connect(ctx context.Context, t mcp.Transport) (*mcp.ServerSession, error) {
	return s.srv.Connect(ctx, t, nil)
}

// Handler returns the HTTP surface: /mcp (streamable MCP), /api/tools (plain JSON),
// /healthz and, when configured, /debug/metrics.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/mcp", mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return s.srv }, nil))
	mux.HandleFunc("GET /api/tools", s.handleListTools)
	mux.HandleFunc("POST /api/tools/{name}", s.handleCallTool)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if s.metrics != nil {
		mux.Handle("/debug/metrics", s.metrics)
	}
	return otelhttp.NewHandler(mux, "toolsrv")
}

// ListenAndServe serves Handler on addr until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	server := &http.Server{Addr: addr, Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}
	errc := make(chan error, 1)
	go func() {
		s.logger.InfoContext(ctx, "mcp server listening", slog.String("transport", "http"), slog.String("addr", addr))
		errc <- server.ListenAndServe()
	}()
	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	}
}

type toolView struct {
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	InputSchema *tool.Schema `json:"inputSchema"`
}

func (s *Server) handleListTools(w http.ResponseWriter, _ *http.Request) {
	descs := s.disp.Registry().List()
	out := make([]toolView, 0, len(descs))
	for _, d := range descs {
		out = append(out, toolView{Name: d.Name, Description: d.Description, InputSchema: d.InputSchema})
	}
	writeJSON(w, http.StatusOK, map[string]any{"tools": out})
}

// handleCallTool answers with an envelope; tool failures are in-band with status 200.
func (s *Server) handleCallTool(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 4<<20))
	if err != nil {
		writeJSON(w, http.StatusRequestEntityTooLarge, tool.Fail(errmodel.KindValidation, "request body too large"))
		return
	}
	writeJSON(w, http.StatusOK, s.dispatch(r.Context(), r.PathValue("name"), body))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func toString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case error:
		return t.Error()
	default:
		b, _ := json.Marshal(t)
		return string(b)
	}
}
