package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric/noop"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/kbukum/convoview/logger"
)

func withRecorder(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		otel.SetTracerProvider(prev)
	})
	return exporter
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()
	if cfg.Endpoint != "localhost:4318" || cfg.SampleRate != 1.0 || cfg.MetricInterval != 15*time.Second {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}

	tc := cfg.TracerConfig("convoview", "v1", "test")
	if tc.ServiceName != "convoview" || tc.Endpoint != cfg.Endpoint {
		t.Errorf("unexpected tracer config %+v", tc)
	}
	mc := cfg.MeterConfig("convoview", "v1", "test")
	if mc.Interval != cfg.MetricInterval {
		t.Errorf("unexpected meter config %+v", mc)
	}

	cfg.SampleRate = 2
	if err := cfg.Validate(); err == nil {
		t.Error("expected sample rate error")
	}
}

func TestNewMetrics(t *testing.T) {
	metrics, err := NewMetrics(noop.NewMeterProvider().Meter("test"))
	if err != nil {
		t.Fatalf("unexpected error creating metrics: %v", err)
	}

	ctx := context.Background()
	metrics.RecordRequestStart(ctx)
	metrics.RecordRequestEnd(ctx, "convoview", "GET /api/conversations", "200", 100*time.Millisecond)
	metrics.RecordOperation(ctx, "conversations", "list", "ok", 50*time.Millisecond)
	metrics.RecordError(ctx, "validation", "api")
}

func TestSpanHelpers(t *testing.T) {
	exporter := withRecorder(t)

	ctx, span := StartSpan(context.Background(), "conversations.get")
	SetSpanAttribute(ctx, AttrConversationID, uint(4))
	SetSpanAttribute(ctx, "count", 3)
	SetSpanAttribute(ctx, "ignored", struct{}{})
	SetSpanError(ctx, errors.New("boom"))
	span.End()

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Status.Code != codes.Error {
		t.Errorf("expected error status, got %v", spans[0].Status.Code)
	}
	if len(spans[0].Attributes) != 2 {
		t.Errorf("expected 2 attributes, got %v", spans[0].Attributes)
	}
}

func TestSpanHelpersWithoutSpan(t *testing.T) {
	ctx := context.Background()
	SetSpanAttribute(ctx, "key", "value")
	SetSpanError(ctx, errors.New("no span"))
}

func TestOperation(t *testing.T) {
	exporter := withRecorder(t)
	metrics, err := NewMetrics(noop.NewMeterProvider().Meter("test"))
	if err != nil {
		t.Fatal(err)
	}

	ctx, op := StartOperation(context.Background(), metrics, "conversations", "create")
	op.End(ctx, nil)
	ctx, op = StartOperation(context.Background(), nil, "conversations", "get")
	op.End(ctx, errors.New("not found"))

	spans := exporter.GetSpans()
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}
	if spans[0].Name != "conversations.create" || spans[0].Status.Code == codes.Error {
		t.Errorf("unexpected first span %s %v", spans[0].Name, spans[0].Status)
	}
	if spans[1].Status.Code != codes.Error {
		t.Errorf("expected failed second span")
	}
	if op.Duration() <= 0 {
		t.Error("expected positive duration")
	}
}

func TestComponentDisabled(t *testing.T) {
	c := NewComponent(Config{}, "convoview", "dev", "test", logger.Nop())
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start() = %v", err)
	}
	if c.Metrics() == nil {
		t.Fatal("expected metrics after start")
	}
	if h := c.Health(context.Background()); h.Message != "export disabled" {
		t.Errorf("unexpected health %+v", h)
	}
	if d := c.Describe(); d.Details != "disabled" {
		t.Errorf("unexpected description %+v", d)
	}
	if err := c.Stop(context.Background()); err != nil {
		t.Fatalf("Stop() = %v", err)
	}
}

func TestInitProviders(t *testing.T) {
	prevTP, prevMP := otel.GetTracerProvider(), otel.GetMeterProvider()
	defer func() {
		otel.SetTracerProvider(prevTP)
		otel.SetMeterProvider(prevMP)
	}()

	for _, rate := range []float64{1.0, 0.5, 0} {
		tp, err := InitTracer(context.Background(), &TracerConfig{
			ServiceName: "convoview", Endpoint: "localhost:4318", Insecure: true, SampleRate: rate,
		})
		if err != nil {
			t.Fatalf("InitTracer(%v) = %v", rate, err)
		}
		_ = tp.Shutdown(context.Background())
	}

	mp, err := InitMeter(context.Background(), &MeterConfig{
		ServiceName: "convoview", Endpoint: "localhost:4318", Insecure: true,
	})
	if err != nil {
		t.Fatalf("InitMeter() = %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = mp.Shutdown(ctx)
}
