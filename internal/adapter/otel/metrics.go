package otel

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "toolweaver"

// Metrics holds all ToolWeaver metric instruments.
type Metrics struct {
	ToolCalls        metric.Int64Counter
	StepsFailed      metric.Int64Counter
	CacheHits        metric.Int64Counter
	CacheMisses      metric.Int64Counter
	StepDuration     metric.Float64Histogram
	PipelineDuration metric.Float64Histogram
}

// NewMetrics creates all metric instruments.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.ToolCalls, err = meter.Int64Counter("toolweaver.toolcalls",
		metric.WithDescription("Number of tool invocations"))
	if err != nil {
		return nil, err
	}

	m.StepsFailed, err = meter.Int64Counter("toolweaver.steps.failed",
		metric.WithDescription("Number of pipeline steps that failed or were skipped"))
	if err != nil {
		return nil, err
	}

	m.CacheHits, err = meter.Int64Counter("toolweaver.cache.hits",
		metric.WithDescription("Number of result cache hits"))
	if err != nil {
		return nil, err
	}

	m.CacheMisses, err = meter.Int64Counter("toolweaver.cache.misses",
		metric.WithDescription("Number of result cache misses"))
	if err != nil {
		return nil, err
	}

	m.StepDuration, err = meter.Float64Histogram("toolweaver.step.duration_seconds",
		metric.WithDescription("Pipeline step duration in seconds"))
	if err != nil {
		return nil, err
	}

	m.PipelineDuration, err = meter.Float64Histogram("toolweaver.pipeline.duration_seconds",
		metric.WithDescription("Pipeline run duration in seconds"))
	if err != nil {
		return nil, err
	}

	return m, nil
}
