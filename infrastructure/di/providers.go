package di

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/zhangshi0512/FactsHub/application/ports"
	"github.com/zhangshi0512/FactsHub/application/views"
	"github.com/zhangshi0512/FactsHub/domain/core/valueobjects"
	"github.com/zhangshi0512/FactsHub/infrastructure/config"
	"github.com/zhangshi0512/FactsHub/infrastructure/persistence/decorators"
	"github.com/zhangshi0512/FactsHub/infrastructure/persistence/dynamodb"
	"github.com/zhangshi0512/FactsHub/infrastructure/persistence/memory"
	"github.com/zhangshi0512/FactsHub/infrastructure/persistence/sqlite"
	"github.com/zhangshi0512/FactsHub/infrastructure/persistence/supabase"
	"github.com/zhangshi0512/FactsHub/interfaces/http/rest"
	"github.com/zhangshi0512/FactsHub/interfaces/http/rest/sessions"
	"github.com/zhangshi0512/FactsHub/pkg/observability"
	"github.com/zhangshi0512/FactsHub/pkg/validation"
)

// BaseStore is the undecorated remote store selected by the backend setting.
type BaseStore struct {
	ports.RemoteStore
}

// ProvideLogger creates the application logger
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	return observability.NewLogger(cfg.Logging.Level, string(cfg.Environment))
}

// ProvideMetrics creates the Prometheus collector, or nil when metrics are off.
func ProvideMetrics(cfg *config.Config) *observability.Collector {
	if !cfg.Metrics.Enabled {
		return nil
	}
	return observability.NewCollector(cfg.Metrics.Namespace)
}

// ProvideTracerProvider starts the OTLP exporter when tracing is enabled.
func ProvideTracerProvider(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*observability.TracerProvider, func(), error) {
	if !cfg.Tracing.Enabled {
		return nil, func() {}, nil
	}
	tp, err := observability.InitTracing(ctx, cfg.ServiceName, string(cfg.Environment), cfg.Tracing.Endpoint)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Failed to flush traces", zap.Error(err))
		}
	}
	return tp, cleanup, nil
}

// ProvideTracer returns the service tracer
func ProvideTracer(tp *observability.TracerProvider) trace.Tracer {
	return tp.Tracer()
}

// ProvideCategoryTable loads the category table, from the categories file
// when one is configured.
func ProvideCategoryTable(cfg *config.Config) (*valueobjects.CategoryTable, error) {
	if cfg.CategoriesFile == "" {
		return valueobjects.NewCategoryTable(nil), nil
	}
	categories, err := config.LoadCategories(cfg.CategoriesFile)
	if err != nil {
		return nil, err
	}
	return valueobjects.NewCategoryTable(categories), nil
}

// ProvideCategoryWatcher watches the categories file. It returns nil when
// no file is configured.
func ProvideCategoryWatcher(
	cfg *config.Config,
	table *valueobjects.CategoryTable,
	logger *zap.Logger,
) (*config.CategoryWatcher, error) {
	if cfg.CategoriesFile == "" {
		return nil, nil
	}
	return config.NewCategoryWatcher(cfg.CategoriesFile, table, logger)
}

// ProvideValidator creates the form validator bound to the category table
func ProvideValidator(table *valueobjects.CategoryTable) *validation.Validator {
	return validation.New(table)
}

// ProvideBaseStore opens the configured backend.
func ProvideBaseStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (BaseStore, func(), error) {
	noop := func() {}

	switch cfg.Backend {
	case config.BackendSupabase:
		store, err := supabase.NewStore(supabase.Config{
			URL:      cfg.Supabase.URL,
			Key:      cfg.Supabase.Key,
			Schema:   cfg.Supabase.Schema,
			Email:    cfg.Supabase.Email,
			Password: cfg.Supabase.Password,
		}, logger)
		if err != nil {
			return BaseStore{}, nil, err
		}
		return BaseStore{store}, noop, nil

	case config.BackendSQLite:
		store, err := sqlite.Open(ctx, cfg.SQLite.Path, logger)
		if err != nil {
			return BaseStore{}, nil, err
		}
		cleanup := func() {
			if err := store.Close(); err != nil {
				logger.Warn("Failed to close sqlite store", zap.Error(err))
			}
		}
		return BaseStore{store}, cleanup, nil

	case config.BackendDynamoDB:
		client, err := dynamodb.NewClient(ctx, cfg.DynamoDB.Region, cfg.DynamoDB.Endpoint)
		if err != nil {
			return BaseStore{}, nil, err
		}
		store := dynamodb.NewStore(client, cfg.DynamoDB.Table, logger)
		if cfg.DynamoDB.CreateTable {
			if err := store.EnsureTable(ctx); err != nil {
				return BaseStore{}, nil, err
			}
		}
		logger.Info("Using DynamoDB store",
			zap.String("table", cfg.DynamoDB.Table),
			zap.String("region", cfg.DynamoDB.Region))
		return BaseStore{store}, noop, nil

	case config.BackendMemory:
		logger.Warn("Using in-memory store; data is lost on restart")
		return BaseStore{memory.NewStore()}, noop, nil
	}
	return BaseStore{}, nil, fmt.Errorf("unknown backend %q", cfg.Backend)
}

// ProvideRemoteStore wraps the base store with the decorator chain.
// Order: Base -> Circuit Breaker -> Metrics -> Tracing -> Logging
func ProvideRemoteStore(
	base BaseStore,
	cfg *config.Config,
	logger *zap.Logger,
	metrics *observability.Collector,
	tracer trace.Tracer,
) ports.RemoteStore {
	breaker := decorators.DefaultBreakerConfig(string(cfg.Backend))
	if cfg.Breaker.MaxRequests > 0 {
		breaker.MaxRequests = cfg.Breaker.MaxRequests
	}
	if cfg.Breaker.Interval > 0 {
		breaker.Interval = cfg.Breaker.Interval
	}
	if cfg.Breaker.Timeout > 0 {
		breaker.Timeout = cfg.Breaker.Timeout
	}
	if cfg.Breaker.FailureThreshold > 0 {
		breaker.FailureThreshold = cfg.Breaker.FailureThreshold
	}
	if cfg.Breaker.MinRequests > 0 {
		breaker.MinRequests = cfg.Breaker.MinRequests
	}

	logging := decorators.DefaultLoggingConfig()
	logging.LogFilters = !cfg.IsProduction()

	chain := decorators.NewChain(decorators.ChainConfig{
		EnableCircuitBreaker: cfg.Breaker.Enabled,
		EnableMetrics:        cfg.Metrics.Enabled,
		EnableTracing:        cfg.Tracing.Enabled,
		EnableLogging:        true,
		Breaker:              breaker,
		Logging:              logging,
	}, logger, metrics, tracer)

	return chain.Decorate(base.RemoteStore)
}

// ProvideSessionFactory creates the factory of UI sessions
func ProvideSessionFactory(
	remote ports.RemoteStore,
	table *valueobjects.CategoryTable,
	validator *validation.Validator,
	logger *zap.Logger,
	metrics *observability.Collector,
	cfg *config.Config,
) *views.SessionFactory {
	return &views.SessionFactory{
		Remote:      remote,
		Categories:  table,
		Validator:   validator,
		Logger:      logger,
		Metrics:     metrics,
		FetchLimit:  cfg.Collection.FetchLimit,
		InitialSort: cfg.InitialSort(),
	}
}

// ProvideSessionRegistry creates the HTTP session table
func ProvideSessionRegistry(factory *views.SessionFactory, logger *zap.Logger) *sessions.Registry {
	return sessions.NewRegistry(factory, logger, sessions.DefaultTTL)
}

// ProvideRouter creates the HTTP router
func ProvideRouter(
	registry *sessions.Registry,
	table *valueobjects.CategoryTable,
	metrics *observability.Collector,
	logger *zap.Logger,
	cfg *config.Config,
) *rest.Router {
	return rest.NewRouter(registry, table, metrics, logger, cfg.Server.AllowedOrigins)
}
