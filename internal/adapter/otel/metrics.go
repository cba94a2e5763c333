package otel

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "professor"

// Metrics holds the research pipeline metric instruments.
type Metrics struct {
	TasksStarted   metric.Int64Counter
	TasksCompleted metric.Int64Counter
	TasksFailed    metric.Int64Counter
	SourcesSkipped metric.Int64Counter
	TaskDuration   metric.Float64Histogram
	ContextChars   metric.Int64Histogram
}

// NewMetrics creates all metric instruments from the global meter provider.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.TasksStarted, err = meter.Int64Counter("professor.tasks.started",
		metric.WithDescription("Number of research tasks started"))
	if err != nil {
		return nil, err
	}

	m.TasksCompleted, err = meter.Int64Counter("professor.tasks.completed",
		metric.WithDescription("Number of research tasks completed"))
	if err != nil {
		return nil, err
	}

	m.TasksFailed, err = meter.Int64Counter("professor.tasks.failed",
		metric.WithDescription("Number of research tasks that ended in error"))
	if err != nil {
		return nil, err
	}

	m.SourcesSkipped, err = meter.Int64Counter("professor.sources.skipped",
		metric.WithDescription("Number of sources skipped because fetch or extraction failed"))
	if err != nil {
		return nil, err
	}

	m.TaskDuration, err = meter.Float64Histogram("professor.task.duration_seconds",
		metric.WithDescription("Research task processing time in seconds"))
	if err != nil {
		return nil, err
	}

	m.ContextChars, err = meter.Int64Histogram("professor.context.chars",
		metric.WithDescription("Characters of source text placed into the synthesis context"))
	if err != nil {
		return nil, err
	}

	return m, nil
}
