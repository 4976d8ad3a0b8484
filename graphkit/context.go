package graphkit

import (
	"context"
	"errors"

	"github.com/LerianStudio/lib-graphkit/graphkit/log"
	"github.com/LerianStudio/lib-graphkit/graphkit/neo4j"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// ErrGraphNotInContext is returned when no extension was placed in the context.
var ErrGraphNotInContext = errors.New("neo4j extension not found in context")

type customContextKey string

// CustomContextKey is the context key used to store CustomContextKeyValue.
var CustomContextKey = customContextKey("graphkit_context")

// CustomContextKeyValue holds the request-scoped facilities attached to a context.
type CustomContextKeyValue struct {
	RequestID string
	Tracer    trace.Tracer
	Logger    log.Logger
	Graph     *neo4j.Extension
}

func valuesFrom(ctx context.Context) CustomContextKeyValue {
	if values, ok := ctx.Value(CustomContextKey).(*CustomContextKeyValue); ok && values != nil {
		return *values
	}

	return CustomContextKeyValue{}
}

func withValues(ctx context.Context, values CustomContextKeyValue) context.Context {
	return context.WithValue(ctx, CustomContextKey, &values)
}

// ContextWithLogger returns a copy of ctx carrying logger.
func ContextWithLogger(ctx context.Context, logger log.Logger) context.Context {
	values := valuesFrom(ctx)
	values.Logger = logger

	return withValues(ctx, values)
}

// LoggerFromContext returns the logger carried by ctx, or a no-op logger.
//
//nolint:ireturn
func LoggerFromContext(ctx context.Context) log.Logger {
	if logger := valuesFrom(ctx).Logger; logger != nil {
		return logger
	}

	return log.NewNop()
}

// ContextWithTracer returns a copy of ctx carrying tracer.
func ContextWithTracer(ctx context.Context, tracer trace.Tracer) context.Context {
	values := valuesFrom(ctx)
	values.Tracer = tracer

	return withValues(ctx, values)
}

// TracerFromContext returns the tracer carried by ctx, or the global graphkit tracer.
//
//nolint:ireturn
func TracerFromContext(ctx context.Context) trace.Tracer {
	if tracer := valuesFrom(ctx).Tracer; tracer != nil {
		return tracer
	}

	return otel.Tracer("graphkit")
}

// ContextWithRequestID returns a copy of ctx carrying the request id.
func ContextWithRequestID(ctx context.Context, requestID string) context.Context {
	values := valuesFrom(ctx)
	values.RequestID = requestID

	return withValues(ctx, values)
}

// RequestIDFromContext returns the request id carried by ctx.
func RequestIDFromContext(ctx context.Context) string {
	return valuesFrom(ctx).RequestID
}

// ContextWithGraph returns a copy of ctx carrying the extension.
func ContextWithGraph(ctx context.Context, ext *neo4j.Extension) context.Context {
	values := valuesFrom(ctx)
	values.Graph = ext

	return withValues(ctx, values)
}

// GraphFromContext returns the extension carried by ctx.
func GraphFromContext(ctx context.Context) (*neo4j.Extension, error) {
	if ext := valuesFrom(ctx).Graph; ext != nil {
		return ext, nil
	}

	return nil, ErrGraphNotInContext
}
