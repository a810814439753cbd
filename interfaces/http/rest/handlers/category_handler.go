package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/zhangshi0512/FactsHub/domain/core/valueobjects"
)

// CategoryHandler serves the category table
type CategoryHandler struct {
	categories *valueobjects.CategoryTable
	logger     *zap.Logger
}

// NewCategoryHandler creates a new category handler
func NewCategoryHandler(categories *valueobjects.CategoryTable, logger *zap.Logger) *CategoryHandler {
	return &CategoryHandler{categories: categories, logger: logger}
}

// ListCategories handles GET /api/v1/categories
func (h *CategoryHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	list := h.categories.List()
	respondJSON(h.logger, w, http.StatusOK, map[string]interface{}{
		"all":        valueobjects.AllCategories,
		"categories": list,
		"count":      len(list),
	})
}
