package switcher

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/amp-labs/autoswitch/switcher"

// TracingObserver records each sequence as one span, from Initialize to
// Stop, with an event per advance.
type TracingObserver struct {
	tracer trace.Tracer

	mu    sync.Mutex
	spans map[string]trace.Span
}

// NewTracingObserver creates an observer using tp, or the global tracer
// provider when tp is nil.
func NewTracingObserver(tp trace.TracerProvider) *TracingObserver {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}

	return &TracingObserver{
		tracer: tp.Tracer(tracerName),
		spans:  make(map[string]trace.Span),
	}
}

func (o *TracingObserver) span(ctl *Controller) trace.Span { //nolint:ireturn
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.spans[ctl.ID()]
}

func (o *TracingObserver) Initialized(ctl *Controller) {
	_, span := o.tracer.Start(context.Background(), "switcher.sequence",
		trace.WithAttributes(
			attribute.String("switcher.id", ctl.ID()),
			attribute.String("switcher.name", ctl.Name()),
		),
	)

	o.mu.Lock()
	previous := o.spans[ctl.ID()]
	o.spans[ctl.ID()] = span
	o.mu.Unlock()

	if previous != nil {
		previous.SetStatus(codes.Error, "reinitialized before stop")
		previous.End()
	}
}

func (o *TracingObserver) Advanced(ctl *Controller) {
	if span := o.span(ctl); span != nil {
		span.AddEvent("advance")
	}
}

func (o *TracingObserver) Scheduled(ctl *Controller, delay time.Duration) {
	if span := o.span(ctl); span != nil {
		span.AddEvent("schedule", trace.WithAttributes(attribute.Int64("interval_ms", delay.Milliseconds())))
	}
}

func (o *TracingObserver) SelfTerminated(ctl *Controller) {
	if span := o.span(ctl); span != nil {
		span.SetAttributes(attribute.Bool("switcher.self_terminated", true))
	}
}

func (o *TracingObserver) Stopped(ctl *Controller, canceled int) {
	o.mu.Lock()
	span := o.spans[ctl.ID()]
	delete(o.spans, ctl.ID())
	o.mu.Unlock()

	if span == nil {
		return
	}

	span.SetAttributes(attribute.Int("switcher.canceled_handles", canceled))
	span.SetStatus(codes.Ok, "stopped")
	span.End()
}
