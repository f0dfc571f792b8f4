package otel

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/wilhg/toolsrv/pkg/tool"
)

// ToolObserver records dispatched calls into OpenTelemetry metrics.
type ToolObserver struct {
	invocations metric.Int64Counter
	latency     metric.Float64Histogram
}

// NewToolObserver creates a tool observer bound to the provided meter.
func NewToolObserver(meter metric.Meter) (*ToolObserver, error) {
	invocations, err := meter.Int64Counter(
		"toolsrv.tool.invocations",
		metric.WithDescription("Number of tool invocations"),
	)
	if err != nil {
		return nil, err
	}
	latency, err := meter.Float64Histogram(
		"toolsrv.tool.latency",
		metric.WithDescription("Tool latency in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}
	return &ToolObserver{invocations: invocations, latency: latency}, nil
}

// ObserveCall records one finished call.
func (o *ToolObserver) ObserveCall(ctx context.Context, obs tool.Observation) {
	if o == nil {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String("tool_name", obs.Tool),
		attribute.Bool("success", obs.Success),
	}
	if obs.Kind != "" {
		attrs = append(attrs, attribute.String("kind", string(obs.Kind)))
	}
	options := metric.WithAttributes(attrs...)
	o.invocations.Add(ctx, 1, options)
	o.latency.Record(ctx, obs.Duration.Seconds(), options)
}
