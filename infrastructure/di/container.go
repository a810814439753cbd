package di

import (
	"go.uber.org/zap"

	"github.com/zhangshi0512/FactsHub/application/ports"
	"github.com/zhangshi0512/FactsHub/application/views"
	"github.com/zhangshi0512/FactsHub/domain/core/valueobjects"
	"github.com/zhangshi0512/FactsHub/infrastructure/config"
	"github.com/zhangshi0512/FactsHub/interfaces/http/rest"
	"github.com/zhangshi0512/FactsHub/interfaces/http/rest/sessions"
	"github.com/zhangshi0512/FactsHub/pkg/observability"
	"github.com/zhangshi0512/FactsHub/pkg/validation"
)

// Container holds all application dependencies
type Container struct {
	Config          *config.Config
	Logger          *zap.Logger
	Metrics         *observability.Collector
	Tracing         *observability.TracerProvider
	Categories      *valueobjects.CategoryTable
	CategoryWatcher *config.CategoryWatcher
	Validator       *validation.Validator
	RemoteStore     ports.RemoteStore
	SessionFactory  *views.SessionFactory
	Sessions        *sessions.Registry
	Router          *rest.Router
}
