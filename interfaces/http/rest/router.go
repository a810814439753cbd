package rest

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/swaggo/swag"
	"go.uber.org/zap"

	"github.com/zhangshi0512/FactsHub/domain/core/valueobjects"
	"github.com/zhangshi0512/FactsHub/interfaces/http/rest/docs"
	"github.com/zhangshi0512/FactsHub/interfaces/http/rest/handlers"
	"github.com/zhangshi0512/FactsHub/interfaces/http/rest/middleware"
	"github.com/zhangshi0512/FactsHub/interfaces/http/rest/sessions"
	"github.com/zhangshi0512/FactsHub/pkg/observability"
)

// Router creates and configures the HTTP router
type Router struct {
	registry       *sessions.Registry
	categories     *valueobjects.CategoryTable
	metrics        *observability.Collector
	logger         *zap.Logger
	allowedOrigins []string
}

// NewRouter creates a new router instance
func NewRouter(
	registry *sessions.Registry,
	categories *valueobjects.CategoryTable,
	metrics *observability.Collector,
	logger *zap.Logger,
	allowedOrigins []string,
) *Router {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	return &Router{
		registry:       registry,
		categories:     categories,
		metrics:        metrics,
		logger:         logger,
		allowedOrigins: allowedOrigins,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger, rt.metrics))

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: rt.allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID", sessions.Header},
		ExposedHeaders: []string{"X-Request-ID", sessions.Header},
		MaxAge:         300,
	}))

	router.Get("/health", rt.healthCheck)
	if rt.metrics != nil {
		router.Handle("/metrics", rt.metrics.Handler())
	}
	router.Get("/swagger/doc.json", rt.apiDoc)

	router.Route("/api/v1", func(r chi.Router) {
		sessionHandler := handlers.NewSessionHandler(rt.registry, rt.logger)
		r.Post("/sessions", sessionHandler.CreateSession)
		r.Delete("/sessions", sessionHandler.DeleteSession)

		r.Get("/categories", handlers.NewCategoryHandler(rt.categories, rt.logger).ListCategories)

		r.Route("/facts", func(r chi.Router) {
			r.Use(middleware.Session(rt.registry))

			factHandler := handlers.NewFactHandler(rt.categories, rt.logger)
			r.Get("/", factHandler.ListFacts)
			r.Post("/", factHandler.CreateFact)
			r.Get("/{factID}", factHandler.GetFact)
			r.Put("/{factID}", factHandler.UpdateFact)
			r.Post("/{factID}/votes/{field}", factHandler.Vote)
			r.Post("/{factID}/edit", factHandler.RequestEdit)
			r.Post("/{factID}/delete", factHandler.RequestDelete)
			r.Post("/{factID}/cancel", factHandler.CancelAction)

			commentHandler := handlers.NewCommentHandler(rt.logger)
			r.Get("/{factID}/comments", commentHandler.ListComments)
			r.Post("/{factID}/comments", commentHandler.CreateComment)
		})
	})

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"status":   "healthy",
		"sessions": rt.registry.Len(),
	})
}

// apiDoc serves the OpenAPI document of the /api/v1 routes.
func (rt *Router) apiDoc(w http.ResponseWriter, req *http.Request) {
	doc, err := swag.ReadDoc(docs.SwaggerInfo.InstanceName())
	if err != nil {
		rt.logger.Error("failed to render api doc", zap.Error(err))
		http.Error(w, "api doc unavailable", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(doc))
}
