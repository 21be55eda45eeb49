package observability

import (
	"context"
	"errors"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/kbukum/convoview/component"
	"github.com/kbukum/convoview/logger"
)

// Component owns the tracer and meter providers. When disabled it installs
// nothing and Metrics stays usable against the global no-op meter.
type Component struct {
	cfg     Config
	tracer  TracerConfig
	meter   MeterConfig
	tp      *sdktrace.TracerProvider
	mp      *sdkmetric.MeterProvider
	metrics *Metrics
	log     *logger.Logger
}

var _ component.Component = (*Component)(nil)

// NewComponent prepares the providers for service. Nothing is exported until
// Start.
func NewComponent(cfg Config, service, version, env string, log *logger.Logger) *Component {
	cfg.ApplyDefaults()
	return &Component{
		cfg:    cfg,
		tracer: cfg.TracerConfig(service, version, env),
		meter:  cfg.MeterConfig(service, version, env),
		log:    log.WithComponent("observability"),
	}
}

func (c *Component) Name() string { return "observability" }

// Start installs the providers and creates the metric instruments.
func (c *Component) Start(ctx context.Context) error {
	if c.cfg.Enabled {
		tp, err := InitTracer(ctx, &c.tracer)
		if err != nil {
			return err
		}
		mp, err := InitMeter(ctx, &c.meter)
		if err != nil {
			_ = tp.Shutdown(ctx)
			return err
		}
		c.tp, c.mp = tp, mp
	}
	m, err := NewMetrics(Meter(c.tracer.ServiceName))
	if err != nil {
		return err
	}
	c.metrics = m
	return nil
}

// Stop flushes and shuts down the providers.
func (c *Component) Stop(ctx context.Context) error {
	var errs []error
	if c.tp != nil {
		errs = append(errs, c.tp.Shutdown(ctx))
	}
	if c.mp != nil {
		errs = append(errs, c.mp.Shutdown(ctx))
	}
	return errors.Join(errs...)
}

func (c *Component) Health(_ context.Context) component.Health {
	h := component.Health{Name: c.Name(), Status: component.StatusHealthy}
	if !c.cfg.Enabled {
		h.Message = "export disabled"
	}
	return h
}

// Describe reports the exporter endpoint.
func (c *Component) Describe() component.Description {
	details := "disabled"
	if c.cfg.Enabled {
		details = "otlp http " + c.cfg.Endpoint
	}
	return component.Description{Name: "Telemetry", Type: "otel", Details: details}
}

// Metrics returns the instruments once started, nil before.
func (c *Component) Metrics() *Metrics {
	return c.metrics
}
