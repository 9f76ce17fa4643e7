package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentOption overrides the providers used by instrumented wrappers.
// The global otel providers are used by default.
type InstrumentOption func(*instrumentOptions)

type instrumentOptions struct {
	meterProvider  metric.MeterProvider
	tracerProvider trace.TracerProvider
}

// WithMeterProvider records metrics through mp.
func WithMeterProvider(mp metric.MeterProvider) InstrumentOption {
	return func(o *instrumentOptions) { o.meterProvider = mp }
}

// WithTracerProvider records spans through tp.
func WithTracerProvider(tp trace.TracerProvider) InstrumentOption {
	return func(o *instrumentOptions) { o.tracerProvider = tp }
}

func resolveInstrumentOptions(opts []InstrumentOption) instrumentOptions {
	o := instrumentOptions{
		meterProvider:  otel.GetMeterProvider(),
		tracerProvider: otel.GetTracerProvider(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// operationRecorder traces and times the calls of one wrapped component.
type operationRecorder struct {
	prefix   string
	tracer   trace.Tracer
	duration metric.Float64Histogram
	errors   metric.Int64Counter
}

func newOperationRecorder(prefix string, o instrumentOptions) (*operationRecorder, error) {
	meter := o.meterProvider.Meter("bookmarks/" + prefix)

	duration, err := meter.Float64Histogram(
		prefix+".operation.duration",
		metric.WithDescription("Duration of "+prefix+" operations in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	errCounter, err := meter.Int64Counter(
		prefix+".operation.errors",
		metric.WithDescription("Number of "+prefix+" operation errors"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	return &operationRecorder{
		prefix:   prefix,
		tracer:   o.tracerProvider.Tracer("bookmarks/" + prefix),
		duration: duration,
		errors:   errCounter,
	}, nil
}

func (r *operationRecorder) startSpan(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return r.tracer.Start(ctx, r.prefix+"."+operation,
		trace.WithAttributes(append([]attribute.KeyValue{
			attribute.String(r.prefix+".operation", operation),
		}, attrs...)...),
	)
}

func (r *operationRecorder) record(ctx context.Context, span trace.Span, operation string, start time.Time, err error) {
	attrs := metric.WithAttributes(attribute.String("operation", operation))

	r.duration.Record(ctx, time.Since(start).Seconds(), attrs)

	if err != nil {
		r.errors.Add(ctx, 1, attrs)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}

	span.End()
}
