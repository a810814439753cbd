package decorators

import (
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/zhangshi0512/FactsHub/application/ports"
	"github.com/zhangshi0512/FactsHub/pkg/observability"
)

// ChainConfig selects the decorators to apply.
type ChainConfig struct {
	EnableCircuitBreaker bool
	EnableMetrics        bool
	EnableTracing        bool
	EnableLogging        bool
	Breaker              BreakerConfig
	Logging              LoggingConfig
}

// Chain builds the decorated remote store.
type Chain struct {
	config  ChainConfig
	logger  *zap.Logger
	metrics *observability.Collector
	tracer  trace.Tracer
}

// NewChain creates a chain builder.
func NewChain(config ChainConfig, logger *zap.Logger, metrics *observability.Collector, tracer trace.Tracer) *Chain {
	return &Chain{config: config, logger: logger, metrics: metrics, tracer: tracer}
}

// Decorate applies the configured decorators to base.
// Order: Base -> Circuit Breaker -> Metrics -> Tracing -> Logging
func (c *Chain) Decorate(base ports.RemoteStore) ports.RemoteStore {
	decorated := base

	if c.config.EnableCircuitBreaker {
		decorated = NewBreakerStore(decorated, c.config.Breaker, c.logger, c.metrics)
		c.logger.Debug("Applied circuit breaker decorator to remote store")
	}

	if c.config.EnableMetrics && c.metrics != nil {
		decorated = NewMetricsStore(decorated, c.metrics)
		c.logger.Debug("Applied metrics decorator to remote store")
	}

	if c.config.EnableTracing && c.tracer != nil {
		decorated = NewTracingStore(decorated, c.tracer)
		c.logger.Debug("Applied tracing decorator to remote store")
	}

	// Logging is outermost so it also sees breaker rejections.
	if c.config.EnableLogging {
		decorated = NewLoggingStore(decorated, c.logger, c.config.Logging)
		c.logger.Debug("Applied logging decorator to remote store")
	}

	return decorated
}
