package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/wilhg/toolsrv/pkg/errmodel"
)

// Observation describes one finished call.
type Observation struct {
	CallID   string
	Tool     string
	Kind     errmodel.Kind
	Success  bool
	Message  string
	Started  time.Time
	Duration time.Duration
}

// Observer is notified after every call, success or failure.
type Observer interface {
	ObserveCall(ctx context.Context, obs Observation)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, obs Observation)

func (f ObserverFunc) ObserveCall(ctx context.Context, obs Observation) { f(ctx, obs) }

// Dispatcher resolves, validates and invokes tool calls. Call never lets a fault
// escape: every outcome is a Result.
type Dispatcher struct {
	registry  *Registry
	logger    *slog.Logger
	tracer    trace.Tracer
	observers []Observer
	now       func() time.Time
}

// Option configures the Dispatcher at construction time.
type Option func(*Dispatcher)

// WithLogger sets the structured logger; defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithTracerProvider overrides the global tracer provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(d *Dispatcher) {
		if tp != nil {
			d.tracer = tp.Tracer("toolsrv/tool")
		}
	}
}

// WithObserver appends call observers (metrics, journal).
func WithObserver(obs ...Observer) Option {
	return func(d *Dispatcher) {
		for _, o := range obs {
			if o != nil {
				d.observers = append(d.observers, o)
			}
		}
	}
}

// NewDispatcher constructs a dispatcher over an already populated registry.
func NewDispatcher(r *Registry, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		registry: r,
		logger:   slog.Default(),
		tracer:   otel.Tracer("toolsrv/tool"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Registry exposes the catalog the dispatcher resolves against.
func (d *Dispatcher) Registry() *Registry { return d.registry }

// Call resolves name, validates raw against the tool's schema, invokes the handler and
// wraps the outcome. A nil raw is treated as an empty argument object.
func (d *Dispatcher) Call(ctx context.Context, name string, raw map[string]any) Result {
	if raw == nil {
		raw = map[string]any{}
	}
	return d.call(ctx, name, raw)
}

// CallJSON is Call for an undecoded argument payload. Empty input means no arguments;
// malformed JSON or a non-object payload yields a validation failure.
func (d *Dispatcher) CallJSON(ctx context.Context, name string, raw json.RawMessage) Result {
	var args any = map[string]any{}
	if trimmed := strings.TrimSpace(string(raw)); trimmed != "" && trimmed != "null" {
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return d.call(ctx, name, errBadJSON{err})
		}
		args = v
	}
	return d.call(ctx, name, args)
}

type errBadJSON struct{ err error }

func (d *Dispatcher) call(ctx context.Context, name string, raw any) (res Result) {
	callID := uuid.NewString()
	started := d.now()
	ctx, span := d.tracer.Start(ctx, "Dispatcher.Call", trace.WithAttributes(
		attribute.String("tool.name", name),
		attribute.String("call.id", callID),
	))
	defer func() {
		elapsed := d.now().Sub(started)
		obs := Observation{
			CallID:   callID,
			Tool:     name,
			Kind:     res.Kind,
			Success:  !res.IsError,
			Started:  started,
			Duration: elapsed,
		}
		if res.IsError {
			obs.Message = res.FirstText()
			span.SetAttributes(attribute.String("error.kind", string(res.Kind)))
			span.SetStatus(codes.Error, obs.Message)
			d.logger.WarnContext(ctx, "tool call failed",
				slog.String("call_id", callID),
				slog.String("tool", name),
				slog.String("kind", string(res.Kind)),
				slog.String("message", obs.Message),
				slog.Duration("duration", elapsed),
			)
		} else {
			span.SetStatus(codes.Ok, "")
			d.logger.InfoContext(ctx, "tool call",
				slog.String("call_id", callID),
				slog.String("tool", name),
				slog.Duration("duration", elapsed),
			)
		}
		for _, o := range d.observers {
			o.ObserveCall(ctx, obs)
		}
		span.End()
	}()

	t, ok := d.registry.Find(name)
	if !ok || t == nil {
		return FailErr(errmodel.ToolNotFound(name))
	}
	if bad, isBad := raw.(errBadJSON); isBad {
		return FailErr(errmodel.Validation("invalid_json", fmt.Sprintf("Invalid arguments for tool %s: %v", name, bad.err), map[string]any{"tool": name}))
	}
	desc := t.Describe()
	args, err := Validate(desc.InputSchema, raw)
	if err != nil {
		return FailErr(errmodel.Validation("invalid_input", fmt.Sprintf("Invalid arguments for tool %s: %v", name, err), map[string]any{"tool": name}))
	}
	content, err := invoke(ctx, t, args)
	if err != nil {
		span.RecordError(err)
		return FailErr(err)
	}
	if len(content) == 0 {
		content = []Content{TextContent{Text: "OK"}}
	}
	return Ok(content...)
}

// invoke runs the handler and converts a panic into an execution fault.
func invoke(ctx context.Context, t Tool, args Arguments) (content []Content, err error) {
	defer func() {
		if r := recover(); r != nil {
			name := DescribeTool(t).Name
			content = nil
			err = errmodel.Execution("panic", fmt.Sprintf("tool %s failed: %v", name, r), map[string]any{"tool": name}, nil)
		}
	}()
	return t.Invoke(ctx, args)
}
