// Package decorators wraps a ports.RemoteStore with cross-cutting behaviour:
// logging, circuit breaking, tracing and metrics.
package decorators

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/zhangshi0512/FactsHub/application/ports"
)

// LoggingConfig controls what information is logged.
type LoggingConfig struct {
	LogFilters    bool          // Log filter conditions
	SlowThreshold time.Duration // Warn for operations slower than this
}

// DefaultLoggingConfig returns sensible defaults.
func DefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		LogFilters:    true,
		SlowThreshold: time.Second,
	}
}

// LoggingStore logs every remote call with its duration and outcome.
type LoggingStore struct {
	inner  ports.RemoteStore
	logger *zap.Logger
	config LoggingConfig
}

// NewLoggingStore creates a logging decorator.
func NewLoggingStore(inner ports.RemoteStore, logger *zap.Logger, config LoggingConfig) *LoggingStore {
	return &LoggingStore{
		inner:  inner,
		logger: logger.Named("remote_store"),
		config: config,
	}
}

// Query logs and delegates.
func (s *LoggingStore) Query(ctx context.Context, table string, q ports.Query) ([]ports.Row, error) {
	start := time.Now()
	rows, err := s.inner.Query(ctx, table, q)

	fields := []zap.Field{zap.Int("rows", len(rows)), zap.Int("limit", q.Limit)}
	if q.Order != nil {
		fields = append(fields, zap.String("order", q.Order.Column), zap.Bool("ascending", q.Order.Ascending))
	}
	s.log("query", table, q.Filter, start, err, fields...)
	return rows, err
}

// Insert logs and delegates.
func (s *LoggingStore) Insert(ctx context.Context, table string, rows []ports.Row) ([]ports.Row, error) {
	start := time.Now()
	out, err := s.inner.Insert(ctx, table, rows)
	s.log("insert", table, nil, start, err, zap.Int("rows", len(rows)))
	return out, err
}

// Update logs and delegates. Patch values are not logged since they may
// carry secret keys.
func (s *LoggingStore) Update(ctx context.Context, table string, patch ports.Row, match ports.Filter) ([]ports.Row, error) {
	start := time.Now()
	out, err := s.inner.Update(ctx, table, patch, match)

	columns := make([]string, 0, len(patch))
	for k := range patch {
		columns = append(columns, k)
	}
	s.log("update", table, match, start, err, zap.Strings("columns", columns), zap.Int("rows", len(out)))
	return out, err
}

// Delete logs and delegates.
func (s *LoggingStore) Delete(ctx context.Context, table string, match ports.Filter) error {
	start := time.Now()
	err := s.inner.Delete(ctx, table, match)
	s.log("delete", table, match, start, err)
	return err
}

func (s *LoggingStore) log(operation, table string, filter ports.Filter, start time.Time, err error, extra ...zap.Field) {
	duration := time.Since(start)
	fields := []zap.Field{
		zap.String("operation", operation),
		zap.String("table", table),
		zap.Duration("duration", duration),
	}
	if s.config.LogFilters && len(filter) > 0 {
		conds := make([]string, 0, len(filter))
		for _, c := range filter {
			conds = append(conds, c.Column+"="+c.Value)
		}
		fields = append(fields, zap.Strings("filter", conds))
	}
	fields = append(fields, extra...)

	switch {
	case err != nil:
		s.logger.Warn("remote operation failed", append(fields, zap.Error(err))...)
	case s.config.SlowThreshold > 0 && duration > s.config.SlowThreshold:
		s.logger.Warn("slow remote operation", fields...)
	default:
		s.logger.Debug("remote operation", fields...)
	}
}
