//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"github.com/google/wire"

	"github.com/zhangshi0512/FactsHub/infrastructure/config"
)

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogger,
	ProvideMetrics,
	ProvideTracerProvider,
	ProvideTracer,
	ProvideCategoryTable,
	ProvideCategoryWatcher,
	ProvideValidator,
	ProvideBaseStore,
	ProvideRemoteStore,
	ProvideSessionFactory,
	ProvideSessionRegistry,
	ProvideRouter,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, func(), error) {
	wire.Build(SuperSet)
	return nil, nil, nil // Wire will replace this
}
