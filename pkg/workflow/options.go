package workflow

import (
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/fieldflow/orchestrator/pkg/eventbus"
	"github.com/fieldflow/orchestrator/pkg/metrics"
)

// DefaultMaxSteps bounds the number of node visits in one execution.
const DefaultMaxSteps = 1000

type Option func(*Engine)

// WithPublisher publishes lifecycle events for every execution.
func WithPublisher(publisher eventbus.EventPublisher) Option {
	return func(e *Engine) { e.publisher = publisher }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

func WithTracer(tracer trace.Tracer) Option {
	return func(e *Engine) {
		if tracer != nil {
			e.tracer = tracer
		}
	}
}

// WithMaxSteps overrides DefaultMaxSteps. Values below one are ignored.
func WithMaxSteps(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxSteps = n
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}
