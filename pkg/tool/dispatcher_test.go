package tool

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/wilhg/toolsrv/pkg/errmodel"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestDispatcher(t *testing.T, opts ...Option) *Dispatcher {
	t.Helper()
	noArgs := Object()
	r, err := NewRegistry(
		echoTool("echo"),
		New(ToolDescriptor{Name: "missing", InputSchema: noArgs}, func(context.Context, Arguments) ([]Content, error) {
			return nil, errmodel.NotFound("gone", "Thing not found: 7", nil, nil)
		}),
		New(ToolDescriptor{Name: "plain-error", InputSchema: noArgs}, func(context.Context, Arguments) ([]Content, error) {
			return nil, errors.New("disk on fire")
		}),
		New(ToolDescriptor{Name: "panics", InputSchema: noArgs}, func(context.Context, Arguments) ([]Content, error) {
			panic("boom")
		}),
		New(ToolDescriptor{Name: "silent", InputSchema: noArgs}, func(context.Context, Arguments) ([]Content, error) {
			return nil, nil
		}),
	)
	if err != nil {
		t.Fatal(err)
	}
	return NewDispatcher(r, append([]Option{WithLogger(quietLogger())}, opts...)...)
}

func TestDispatcherSuccess(t *testing.T) {
	d := newTestDispatcher(t)
	res := d.Call(context.Background(), "echo", map[string]any{"msg": "hi"})
	if res.IsError || res.Kind != "" {
		t.Fatalf("unexpected failure: %+v", res)
	}
	if len(res.Content) != 1 || res.FirstText() != "hi" {
		t.Fatalf("content=%+v", res.Content)
	}
}

func TestDispatcherUnknownTool(t *testing.T) {
	d := newTestDispatcher(t)
	res := d.Call(context.Background(), "nope", map[string]any{"anything": 1.0})
	if !res.IsError || res.Kind != errmodel.KindToolNotFound {
		t.Fatalf("res=%+v", res)
	}
	if res.FirstText() != "Unknown tool: nope" {
		t.Fatalf("text=%q", res.FirstText())
	}
}

func TestDispatcherInvalidArguments(t *testing.T) {
	d := newTestDispatcher(t)
	res := d.Call(context.Background(), "echo", map[string]any{"msg": 3.0})
	if !res.IsError || res.Kind != errmodel.KindValidation {
		t.Fatalf("res=%+v", res)
	}
	if !strings.HasPrefix(res.FirstText(), "Invalid arguments for tool echo: ") || !strings.Contains(res.FirstText(), "msg") {
		t.Fatalf("text=%q", res.FirstText())
	}
}

func TestDispatcherHandlerFailures(t *testing.T) {
	d := newTestDispatcher(t)
	cases := []struct {
		tool string
		kind errmodel.Kind
		text string
	}{
		{"missing", errmodel.KindNotFound, "Thing not found: 7"},
		{"plain-error", errmodel.KindExecution, "disk on fire"},
		{"panics", errmodel.KindExecution, "boom"},
	}
	for _, tc := range cases {
		t.Run(tc.tool, func(t *testing.T) {
			res := d.Call(context.Background(), tc.tool, nil)
			if !res.IsError || res.Kind != tc.kind {
				t.Fatalf("res=%+v", res)
			}
			if len(res.Content) != 1 || !strings.Contains(res.FirstText(), tc.text) {
				t.Fatalf("content=%+v", res.Content)
			}
		})
	}
}

func TestDispatcherEmptyContentBecomesOK(t *testing.T) {
	d := newTestDispatcher(t)
	res := d.Call(context.Background(), "silent", nil)
	if res.IsError || res.FirstText() != "OK" {
		t.Fatalf("res=%+v", res)
	}
}

func TestDispatcherCallJSON(t *testing.T) {
	d := newTestDispatcher(t)
	ctx := context.Background()

	if res := d.CallJSON(ctx, "echo", json.RawMessage(`{"msg":"raw"}`)); res.IsError || res.FirstText() != "raw" {
		t.Fatalf("res=%+v", res)
	}
	if res := d.CallJSON(ctx, "silent", nil); res.IsError {
		t.Fatalf("empty payload should mean no arguments: %+v", res)
	}
	if res := d.CallJSON(ctx, "echo", json.RawMessage(`{"msg":`)); res.Kind != errmodel.KindValidation {
		t.Fatalf("malformed json: %+v", res)
	}
	if res := d.CallJSON(ctx, "echo", json.RawMessage(`[1]`)); res.Kind != errmodel.KindValidation {
		t.Fatalf("non-object payload: %+v", res)
	}
	// Name resolution happens before argument decoding.
	if res := d.CallJSON(ctx, "nope", json.RawMessage(`{`)); res.Kind != errmodel.KindToolNotFound {
		t.Fatalf("unknown tool with bad json: %+v", res)
	}
}

func TestDispatcherNotifiesObservers(t *testing.T) {
	var (
		mu   sync.Mutex
		seen []Observation
	)
	d := newTestDispatcher(t, WithObserver(ObserverFunc(func(_ context.Context, obs Observation) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, obs)
	})))
	d.Call(context.Background(), "echo", map[string]any{"msg": "a"})
	d.Call(context.Background(), "nope", nil)

	if len(seen) != 2 {
		t.Fatalf("observations=%d", len(seen))
	}
	if !seen[0].Success || seen[0].Tool != "echo" || seen[0].CallID == "" {
		t.Fatalf("first=%+v", seen[0])
	}
	if seen[1].Success || seen[1].Kind != errmodel.KindToolNotFound || seen[1].Message != "Unknown tool: nope" {
		t.Fatalf("second=%+v", seen[1])
	}
	if seen[0].CallID == seen[1].CallID {
		t.Fatal("call ids must be unique")
	}
}

func TestDispatcherRecordsSpans(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	d := newTestDispatcher(t, WithTracerProvider(tp))
	d.Call(context.Background(), "echo", map[string]any{"msg": "a"})
	d.Call(context.Background(), "panics", nil)

	spans := sr.Ended()
	if len(spans) != 2 {
		t.Fatalf("spans=%d", len(spans))
	}
	for _, s := range spans {
		if s.Name() != "Dispatcher.Call" {
			t.Fatalf("span name=%q", s.Name())
		}
	}
	if spans[0].Status().Code != codes.Ok {
		t.Fatalf("first status=%v", spans[0].Status())
	}
	if spans[1].Status().Code != codes.Error {
		t.Fatalf("second status=%v", spans[1].Status())
	}
}

func TestResultWireShape(t *testing.T) {
	b, err := json.Marshal(Fail(errmodel.KindIO, "Failed to read file x: nope"))
	if err != nil {
		t.Fatal(err)
	}
	want := `{"content":[{"type":"text","text":"Failed to read file x: nope"}],"isError":true}`
	if string(b) != want {
		t.Fatalf("got %s", b)
	}
	b, err = json.Marshal(Ok(TextContent{Text: ""}, ResourceContent{URI: "file:///a", Text: "x"}))
	if err != nil {
		t.Fatal(err)
	}
	want = `{"content":[{"type":"text","text":""},{"type":"resource","resource":{"uri":"file:///a","text":"x"}}]}`
	if string(b) != want {
		t.Fatalf("got %s", b)
	}
}

func TestFailDefaults(t *testing.T) {
	r := Fail("", "  ")
	if r.Kind != errmodel.KindExecution || r.FirstText() != "tool call failed" || !r.IsError {
		t.Fatalf("r=%+v", r)
	}
}
