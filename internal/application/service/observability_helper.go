package service

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "contractabi/service"

// operation is a traced unit of service work.
type operation struct {
	ctx       context.Context
	span      trace.Span
	startTime time.Time
}

// startOperation starts a span. The caller must end it with finish.
func startOperation(ctx context.Context, name string, attrs ...attribute.KeyValue) *operation {
	ctx, span := otel.Tracer(tracerName).Start(ctx, name, trace.WithAttributes(attrs...))
	return &operation{ctx: ctx, span: span, startTime: time.Now()}
}

// elapsed returns the time since the operation started.
func (op *operation) elapsed() time.Duration {
	return time.Since(op.startTime)
}

// finish ends the span, marking it failed when err is non-nil.
func (op *operation) finish(err error, attrs ...attribute.KeyValue) {
	if len(attrs) > 0 {
		op.span.SetAttributes(attrs...)
	}
	if err != nil {
		op.span.RecordError(err)
		op.span.SetStatus(codes.Error, err.Error())
	} else {
		op.span.SetStatus(codes.Ok, "")
	}
	op.span.End()
}
