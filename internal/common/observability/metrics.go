package observability

import (
	"context"
	"log"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
)

type Observability struct {
	meterProvider *metric.MeterProvider
	meter         otelmetric.Meter
	stageCounter  otelmetric.Int64Counter
	stageDuration otelmetric.Float64Histogram
}

func New(serviceName string) *Observability {
	exporter, err := prometheus.New()
	if err != nil {
		log.Printf("Failed to create Prometheus exporter: %v", err)
		return &Observability{}
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter(serviceName)

	stageCounter, _ := meter.Int64Counter(
		"pipeline.stages.processed",
		otelmetric.WithDescription("Number of pipeline stages processed"),
	)

	stageDuration, _ := meter.Float64Histogram(
		"pipeline.stages.duration",
		otelmetric.WithDescription("Pipeline stage processing duration"),
		otelmetric.WithUnit("ms"),
	)

	return &Observability{
		meterProvider: provider,
		meter:         meter,
		stageCounter:  stageCounter,
		stageDuration: stageDuration,
	}
}

func (o *Observability) RecordStageProcessed(ctx context.Context, stage, status string) {
	if o.stageCounter != nil {
		o.stageCounter.Add(ctx, 1, otelmetric.WithAttributes(
			attribute.String("stage", stage),
			attribute.String("status", status),
		))
	}
}

func (o *Observability) RecordStageDuration(ctx context.Context, stage string, duration time.Duration) {
	if o.stageDuration != nil {
		o.stageDuration.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
			attribute.String("stage", stage),
		))
	}
}

func (o *Observability) Shutdown() {
	if o.meterProvider != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		o.meterProvider.Shutdown(ctx)
	}
}
