package decorators

import (
	"context"
	"time"

	"github.com/zhangshi0512/FactsHub/application/ports"
	"github.com/zhangshi0512/FactsHub/pkg/observability"
)

// MetricsStore counts remote calls and observes their latency.
type MetricsStore struct {
	inner   ports.RemoteStore
	metrics *observability.Collector
}

// NewMetricsStore wraps inner with metrics.
func NewMetricsStore(inner ports.RemoteStore, metrics *observability.Collector) *MetricsStore {
	return &MetricsStore{inner: inner, metrics: metrics}
}

// Query records and delegates.
func (s *MetricsStore) Query(ctx context.Context, table string, q ports.Query) ([]ports.Row, error) {
	start := time.Now()
	rows, err := s.inner.Query(ctx, table, q)
	s.metrics.RecordRemoteOperation("query", table, time.Since(start), err)
	return rows, err
}

// Insert records and delegates.
func (s *MetricsStore) Insert(ctx context.Context, table string, rows []ports.Row) ([]ports.Row, error) {
	start := time.Now()
	out, err := s.inner.Insert(ctx, table, rows)
	s.metrics.RecordRemoteOperation("insert", table, time.Since(start), err)
	return out, err
}

// Update records and delegates.
func (s *MetricsStore) Update(ctx context.Context, table string, patch ports.Row, match ports.Filter) ([]ports.Row, error) {
	start := time.Now()
	out, err := s.inner.Update(ctx, table, patch, match)
	s.metrics.RecordRemoteOperation("update", table, time.Since(start), err)
	return out, err
}

// Delete records and delegates.
func (s *MetricsStore) Delete(ctx context.Context, table string, match ports.Filter) error {
	start := time.Now()
	err := s.inner.Delete(ctx, table, match)
	s.metrics.RecordRemoteOperation("delete", table, time.Since(start), err)
	return err
}
