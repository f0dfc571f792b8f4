package otel

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/wilhg/toolsrv/pkg/errmodel"
	"github.com/wilhg/toolsrv/pkg/tool"
)

// newTestMeter returns a meter provider backed by a manual reader.
func newTestMeter() (*sdkmetric.ManualReader, *sdkmetric.MeterProvider) {
	reader := sdkmetric.NewManualReader()
	return reader, sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
}

func findMetric(rm *metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, scope := range rm.ScopeMetrics {
		for i := range scope.Metrics {
			if scope.Metrics[i].Name == name {
				return &scope.Metrics[i]
			}
		}
	}
	return nil
}

func TestToolObserverRecordsMetrics(t *testing.T) {
	reader, mp := newTestMeter()
	obs, err := NewToolObserver(mp.Meter("test"))
	if err != nil {
		t.Fatalf("NewToolObserver() error = %v", err)
	}
	ctx := context.Background()
	obs.ObserveCall(ctx, tool.Observation{Tool: "create-task", Success: true, Duration: 20 * time.Millisecond})
	obs.ObserveCall(ctx, tool.Observation{Tool: "create-task", Success: true, Duration: 10 * time.Millisecond})
	obs.ObserveCall(ctx, tool.Observation{Tool: "nope", Kind: errmodel.KindToolNotFound})

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatal(err)
	}
	inv := findMetric(&rm, "toolsrv.tool.invocations")
	if inv == nil {
		t.Fatal("toolsrv.tool.invocations metric not found")
	}
	sum, ok := inv.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("invocations type = %T, want Sum[int64]", inv.Data)
	}
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	if total != 3 || len(sum.DataPoints) != 2 {
		t.Fatalf("total=%d points=%d", total, len(sum.DataPoints))
	}
	lat := findMetric(&rm, "toolsrv.tool.latency")
	if lat == nil {
		t.Fatal("toolsrv.tool.latency metric not found")
	}
	if _, ok := lat.Data.(metricdata.Histogram[float64]); !ok {
		t.Fatalf("latency type = %T, want Histogram[float64]", lat.Data)
	}
}

func TestNilToolObserverIsSafe(t *testing.T) {
	var obs *ToolObserver
	obs.ObserveCall(context.Background(), tool.Observation{Tool: "x"})
}

func TestMetricsHandler(t *testing.T) {
	reader, mp := newTestMeter()
	obs, err := NewToolObserver(mp.Meter("test"))
	if err != nil {
		t.Fatal(err)
	}
	obs.ObserveCall(context.Background(), tool.Observation{Tool: "read-file", Success: true})

	rec := httptest.NewRecorder()
	MetricsHandler(reader).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d", rec.Code)
	}
	var snap map[string][]Point
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatal(err)
	}
	points := snap["toolsrv.tool.invocations"]
	if len(points) != 1 || points[0].Value != 1 || points[0].Attributes["tool_name"] != "read-file" {
		t.Fatalf("points=%+v", points)
	}
	if got := snap["toolsrv.tool.latency"]; len(got) != 1 || got[0].Count != 1 {
		t.Fatalf("latency=%+v", got)
	}
}

func TestInitExporters(t *testing.T) {
	for _, exp := range []string{"", ExporterNone, ExporterStdout} {
		tel, err := Init(context.Background(), Config{ServiceName: "toolsrv-test", Exporter: exp})
		if err != nil {
			t.Fatalf("%q: %v", exp, err)
		}
		if tel.Reader == nil || tel.MeterProvider == nil || tel.TracerProvider == nil {
			t.Fatalf("%q: incomplete telemetry", exp)
		}
		if err := tel.Shutdown(context.Background()); err != nil {
			t.Fatalf("%q shutdown: %v", exp, err)
		}
	}
	if _, err := Init(context.Background(), Config{Exporter: "zipkin"}); err == nil {
		t.Fatal("expected error for unknown exporter")
	}
}
