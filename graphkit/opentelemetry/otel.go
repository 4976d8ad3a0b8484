package opentelemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys and values used on graphkit spans.
const (
	AttrDBSystem    = "db.system"
	AttrDBName      = "db.name"
	AttrDBOperation = "db.operation"
	DBSystemNeo4j   = "neo4j"
)

// Metric describes a counter created through the global meter provider.
type Metric struct {
	Name        string
	Description string
	Unit        string
}

// HandleSpanError marks span as failed and records err.
func HandleSpanError(span trace.Span, message string, err error) {
	if span != nil && err != nil {
		span.SetStatus(codes.Error, message+": "+err.Error())
		span.RecordError(err)
	}
}

// HandleSpanEvent adds an event with attributes to span.
func HandleSpanEvent(span trace.Span, eventName string, attributes ...attribute.KeyValue) {
	if span != nil {
		span.AddEvent(eventName, trace.WithAttributes(attributes...))
	}
}

// StartSpan starts a span named name on the tracer scope and tags it with the
// Neo4j database system.
func StartSpan(ctx context.Context, scope, name string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	ctx, span := otel.Tracer(scope).Start(ctx, name)

	span.SetAttributes(attribute.String(AttrDBSystem, DBSystemNeo4j))
	span.SetAttributes(attributes...)

	return ctx, span
}

// Counter resolves m as an Int64Counter on the meter scope.
func Counter(scope string, m Metric) (metric.Int64Counter, error) {
	return otel.Meter(scope).Int64Counter(
		m.Name,
		metric.WithDescription(m.Description),
		metric.WithUnit(m.Unit),
	)
}
