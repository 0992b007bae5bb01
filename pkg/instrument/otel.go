package instrument

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/lattice-dev/lattice/pkg/lattice"
)

// Default tracer name for lattice instrumentation.
const defaultTracerName = "lattice"

// OTelConfig configures the traced engine wrapper.
type OTelConfig struct {
	// TracerName is the name of the tracer (default: "lattice").
	TracerName string

	// AttributeExtractor extracts custom attributes for each traced
	// operation from the destination value.
	AttributeExtractor func(dest any) []attribute.KeyValue
}

// OTelOption configures the traced engine wrapper.
type OTelOption func(*OTelConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) OTelOption {
	return func(c *OTelConfig) {
		c.TracerName = name
	}
}

// WithAttributeExtractor sets a custom attribute extractor.
func WithAttributeExtractor(extractor func(dest any) []attribute.KeyValue) OTelOption {
	return func(c *OTelConfig) {
		c.AttributeExtractor = extractor
	}
}

// Tracer wraps the reconcile and merge engines so that each call produces
// an OpenTelemetry span. The tracer resolves from the global tracer
// provider; configure that in main() before use:
//
//	tp := sdktrace.NewTracerProvider(
//	    sdktrace.WithBatcher(exporter),
//	    sdktrace.WithResource(resource.NewWithAttributes(
//	        semconv.SchemaURL,
//	        semconv.ServiceName("my-app"),
//	    )),
//	)
//	otel.SetTracerProvider(tp)
//
//	tr := instrument.NewTracer(instrument.WithTracerName("my-app"))
//	result, err := tr.Reconcile(ctx, state, incoming)
type Tracer struct {
	tracer trace.Tracer
	config OTelConfig
}

// NewTracer builds a traced engine wrapper.
func NewTracer(opts ...OTelOption) *Tracer {
	config := OTelConfig{TracerName: defaultTracerName}
	for _, opt := range opts {
		opt(&config)
	}
	return &Tracer{
		tracer: otel.Tracer(config.TracerName),
		config: config,
	}
}

// Reconcile runs lattice.Reconcile inside a span.
func (t *Tracer) Reconcile(ctx context.Context, dest, src any, compare ...lattice.CompareFunc) (any, error) {
	_, span := t.start(ctx, "lattice.reconcile", dest,
		attribute.String("lattice.src_shape", lattice.ShapeOf(src)),
	)
	defer span.End()
	result, err := lattice.Reconcile(dest, src, compare...)
	t.finish(span, err)
	return result, err
}

// Merge runs lattice.Merge inside a span.
func (t *Tracer) Merge(ctx context.Context, dest any, sources ...any) (any, error) {
	_, span := t.start(ctx, "lattice.merge", dest,
		attribute.Int("lattice.source_count", len(sources)),
	)
	defer span.End()
	result, err := lattice.Merge(dest, sources...)
	t.finish(span, err)
	return result, err
}

// MergeDeep runs lattice.MergeDeep inside a span.
func (t *Tracer) MergeDeep(ctx context.Context, dest any, sources ...any) (any, error) {
	_, span := t.start(ctx, "lattice.merge_deep", dest,
		attribute.Int("lattice.source_count", len(sources)),
	)
	defer span.End()
	result, err := lattice.MergeDeep(dest, sources...)
	t.finish(span, err)
	return result, err
}

func (t *Tracer) start(ctx context.Context, name string, dest any, extra ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs := append([]attribute.KeyValue{
		attribute.String("lattice.dest_shape", lattice.ShapeOf(dest)),
	}, extra...)
	if t.config.AttributeExtractor != nil {
		attrs = append(attrs, t.config.AttributeExtractor(dest)...)
	}
	return t.tracer.Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
}

func (t *Tracer) finish(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	span.SetStatus(codes.Ok, "")
}
