package decorators

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/zhangshi0512/FactsHub/application/ports"
)

// TracingStore opens a span per remote call.
type TracingStore struct {
	inner  ports.RemoteStore
	tracer trace.Tracer
}

// NewTracingStore wraps inner with tracing.
func NewTracingStore(inner ports.RemoteStore, tracer trace.Tracer) *TracingStore {
	return &TracingStore{inner: inner, tracer: tracer}
}

// Query traces and delegates.
func (s *TracingStore) Query(ctx context.Context, table string, q ports.Query) ([]ports.Row, error) {
	attrs := append(filterAttributes(q.Filter), attribute.Int("db.limit", q.Limit))
	if q.Order != nil {
		attrs = append(attrs,
			attribute.String("db.order.column", q.Order.Column),
			attribute.Bool("db.order.ascending", q.Order.Ascending),
		)
	}
	ctx, span := s.start(ctx, "query", table, attrs...)
	defer span.End()

	rows, err := s.inner.Query(ctx, table, q)
	span.SetAttributes(attribute.Int("db.rows", len(rows)))
	record(span, err)
	return rows, err
}

// Insert traces and delegates.
func (s *TracingStore) Insert(ctx context.Context, table string, rows []ports.Row) ([]ports.Row, error) {
	ctx, span := s.start(ctx, "insert", table, attribute.Int("db.rows", len(rows)))
	defer span.End()

	out, err := s.inner.Insert(ctx, table, rows)
	record(span, err)
	return out, err
}

// Update traces and delegates.
func (s *TracingStore) Update(ctx context.Context, table string, patch ports.Row, match ports.Filter) ([]ports.Row, error) {
	ctx, span := s.start(ctx, "update", table, filterAttributes(match)...)
	defer span.End()

	out, err := s.inner.Update(ctx, table, patch, match)
	span.SetAttributes(attribute.Int("db.rows", len(out)))
	record(span, err)
	return out, err
}

// Delete traces and delegates.
func (s *TracingStore) Delete(ctx context.Context, table string, match ports.Filter) error {
	ctx, span := s.start(ctx, "delete", table, filterAttributes(match)...)
	defer span.End()

	err := s.inner.Delete(ctx, table, match)
	record(span, err)
	return err
}

func (s *TracingStore) start(ctx context.Context, operation, table string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs,
		attribute.String("db.operation", operation),
		attribute.String("db.table", table),
	)
	return s.tracer.Start(ctx, "remote_store."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...),
	)
}

func filterAttributes(filter ports.Filter) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, len(filter))
	for _, c := range filter {
		attrs = append(attrs, attribute.String("db.filter."+c.Column, c.Value))
	}
	return attrs
}

func record(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}
