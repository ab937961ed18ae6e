package event_bus

import (
	"log/slog"

	"go.opentelemetry.io/otel/trace"
)

type Option func(*EventRegistry)

func WithLogger(logger *slog.Logger) Option {
	return func(r *EventRegistry) {
		if nil != logger {
			r.logger = logger
		}
	}
}

func WithMetrics(metrics *Metrics) Option {
	return func(r *EventRegistry) {
		r.metrics = metrics
	}
}

func WithDonePolicy(policy DonePolicy) Option {
	return func(r *EventRegistry) {
		r.donePolicy = policy
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(r *EventRegistry) {
		if nil != tracer {
			r.tracer = tracer
		}
	}
}
