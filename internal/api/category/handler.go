package category

import (
	"encoding/json"
	"net/http"

	"emarket/internal/domain"
	apperror "emarket/internal/errors"
	"emarket/internal/pkg/logger"
)

// Handler agrupa os métodos de Handler de categoria.
type Handler struct {
	Service domain.CategoryService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc domain.CategoryService, log logger.Logger) *Handler {
	return &Handler{Service: svc, Logger: log}
}

// GetCategoriesHandler lida com a requisição GET /v1/categories.
// @Summary Lista as categorias do catálogo
// @Tags categories
// @Produce json
// @Success 200 {array} domain.Category
// @Router /v1/categories [get]
func (h *Handler) GetCategoriesHandler(w http.ResponseWriter, r *http.Request) {
	categories, err := h.Service.GetCategories(r.Context())
	if err != nil {
		status, category, message := apperror.MapToHTTPStatus(err)
		if status >= 500 {
			h.Logger.Error("Erro interno ao listar categorias:", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success":  false,
			"code":     status,
			"category": category,
			"message":  message,
			"data":     nil,
		})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"message": "Categorias recuperadas com sucesso.",
		"data":    categories,
	})
}
