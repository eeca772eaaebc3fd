package product

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"emarket/internal/domain"
	apperror "emarket/internal/errors"
	"emarket/internal/pkg/images"
	"emarket/internal/pkg/logger"
	"emarket/internal/pkg/middleware"
)

// Handler agrupa todos os métodos de Handler do produto.
type Handler struct {
	Service domain.ProductService
	Images  images.Store
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service,
// o colaborador de imagens e o Logger.
func NewHandler(svc domain.ProductService, imageStore images.Store, log logger.Logger) *Handler {
	return &Handler{
		Service: svc,
		Images:  imageStore,
		Logger:  log,
	}
}

// --- Funções Auxiliares ---

// envelope é o corpo padrão de sucesso da API.
type envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
	Meta    interface{} `json:"meta,omitempty"`
}

// writeSuccess envia uma resposta de sucesso padronizada.
func (h *Handler) writeSuccess(w http.ResponseWriter, status int, message string, data interface{}, meta interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(envelope{Success: true, Message: message, Data: data, Meta: meta}); err != nil {
		h.Logger.Error("Falha ao codificar JSON de resposta", err)
	}
}

// writeError traduz o erro para o status HTTP e o envelope de falha.
// O payload de dados é explicitamente null, inclusive no 404.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, category, message := apperror.MapToHTTPStatus(err)

	if status >= 500 {
		h.Logger.Error(fmt.Sprintf("Erro de Servidor: %s", category), err)
	} else {
		// Erros de cliente (4xx) são logados como debug
		h.Logger.Debug(fmt.Sprintf("Requisição rejeitada com status %d. Categoria: %s", status, category), map[string]interface{}{"path": r.URL.Path})
	}

	errorResponse := map[string]interface{}{
		"success":  false,
		"code":     status,
		"category": category,
		"message":  message,
		"data":     nil,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse)
}

// parseListQuery monta o objeto de valor da listagem a partir dos query params.
// Parâmetros ausentes não são erro; apenas valores malformados são rejeitados.
func parseListQuery(r *http.Request) (domain.ProductQuery, error) {
	values := r.URL.Query()

	q := domain.ProductQuery{
		Keyword:    values.Get("q"),
		Category:   values.Get("category"),
		Categories: values["categories"],
		DateFrom:   values.Get("dateFrom"),
		DateTo:     values.Get("dateTo"),
	}

	// Apenas o primeiro token de ordenação é honrado; os demais são ignorados.
	if sorts := values["sort"]; len(sorts) > 0 {
		q.Sort = sorts[0]
	}

	var err error
	if q.MinPrice, err = parseOptionalFloat(values.Get("minPrice"), "minPrice"); err != nil {
		return domain.ProductQuery{}, err
	}
	if q.MaxPrice, err = parseOptionalFloat(values.Get("maxPrice"), "maxPrice"); err != nil {
		return domain.ProductQuery{}, err
	}
	if q.Page, err = parseOptionalInt(values.Get("page"), "page"); err != nil {
		return domain.ProductQuery{}, err
	}
	if q.Limit, err = parseOptionalInt(values.Get("limit"), "limit"); err != nil {
		return domain.ProductQuery{}, err
	}

	return q, nil
}

func parseOptionalFloat(value, name string) (*float64, error) {
	if value == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, apperror.NewValidationError(fmt.Sprintf("O parâmetro %s deve ser numérico.", name))
	}
	return &f, nil
}

func parseOptionalInt(value, name string) (int, error) {
	if value == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, apperror.NewValidationError(fmt.Sprintf("O parâmetro %s deve ser um número inteiro.", name))
	}
	return n, nil
}

// --- Handlers de Produto ---

// ListProductsHandler lida com a requisição GET /v1/products.
// @Summary Lista produtos do catálogo
// @Description Listagem pública com busca textual, filtros, ordenação e paginação.
// @Tags products
// @Produce json
// @Param q query string false "Busca textual"
// @Param category query string false "Id de categoria"
// @Param categories query string false "Lista de categorias separada por vírgula"
// @Param minPrice query number false "Preço mínimo"
// @Param maxPrice query number false "Preço máximo"
// @Param dateFrom query string false "Criados a partir de (RFC3339 ou YYYY-MM-DD)"
// @Param dateTo query string false "Criados até"
// @Param sort query string false "price|-price|date|-date|popularity|-popularity"
// @Param page query int false "Página (>=1)"
// @Param limit query int false "Itens por página (1..100, padrão 12)"
// @Success 200 {object} domain.ProductPage
// @Failure 400 {object} domain.ErrorResponse
// @Router /v1/products [get]
func (h *Handler) ListProductsHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	q, err := parseListQuery(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	page, err := h.Service.ListProducts(ctx, q)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeSuccess(w, http.StatusOK, "Produtos recuperados com sucesso.", page.Data, page.Meta)
}

// GetProductByIDHandler lida com a requisição GET /v1/products/{id}.
func (h *Handler) GetProductByIDHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	productID := r.PathValue("id")
	if productID == "" {
		h.writeError(w, r, apperror.NewValidationError("ID do produto é obrigatório."))
		return
	}

	product, err := h.Service.GetProductByID(ctx, productID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeSuccess(w, http.StatusOK, "Produto recuperado com sucesso.", product, nil)
}

// CreateProductHandler lida com a requisição POST /v1/products.
// Aceita multipart/form-data (campos + arquivos "images") ou JSON puro
// (com as URLs de imagem já resolvidas).
// @Summary Cria um novo produto
// @Tags products
// @Accept mpfd
// @Produce json
// @Success 201 {object} domain.Product
// @Failure 409 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /v1/products [post]
func (h *Handler) CreateProductHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// A identidade do vendedor vem do middleware de autenticação;
	// o serviço confia nela sem revalidar.
	claims, ok := middleware.GetUserClaimsFromContext(ctx)
	if !ok {
		h.writeError(w, r, apperror.NewUnauthorizedError("Autorização necessária para criar produtos."))
		return
	}

	h.Logger.Info("Tentativa de criação de produto.", map[string]interface{}{
		"user_id": claims.UserID,
		"role":    claims.Role,
	})

	input, err := h.decodeCreatePayload(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	newProduct, err := h.Service.CreateProduct(ctx, input, claims.UserID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeSuccess(w, http.StatusCreated, "Produto criado com sucesso.", newProduct, nil)
}

// decodeCreatePayload monta o ProductInput a partir de multipart ou JSON.
func (h *Handler) decodeCreatePayload(r *http.Request) (domain.ProductInput, error) {
	contentType := r.Header.Get("Content-Type")

	if strings.HasPrefix(contentType, "multipart/form-data") {
		// 32 MB em memória; o restante vai para arquivos temporários.
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			return domain.ProductInput{}, apperror.NewValidationError("Formulário multipart inválido.")
		}

		input := domain.ProductInput{
			Title:       r.FormValue("title"),
			Description: r.FormValue("description"),
			Categories:  r.MultipartForm.Value["categories"],
		}

		if priceStr := r.FormValue("price"); priceStr != "" {
			price, err := strconv.ParseFloat(priceStr, 64)
			if err != nil {
				return domain.ProductInput{}, apperror.NewValidationError("O campo price deve ser numérico.")
			}
			input.Price = price
		}
		if stockStr := r.FormValue("stock"); stockStr != "" {
			stock, err := strconv.Atoi(stockStr)
			if err != nil {
				return domain.ProductInput{}, apperror.NewValidationError("O campo stock deve ser um número inteiro.")
			}
			input.Stock = stock
		}

		// Resolve os uploads em URLs ANTES da persistência do registro:
		// ou tudo é gravado, ou nada é.
		for _, fileHeader := range r.MultipartForm.File["images"] {
			stored, err := h.Images.Save(fileHeader)
			if err != nil {
				return domain.ProductInput{}, apperror.NewInternalError("Falha ao processar imagem enviada.", err)
			}
			input.Images = append(input.Images, stored.URL)
		}

		return input, nil
	}

	var input domain.ProductInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		return domain.ProductInput{}, apperror.NewValidationError("Payload inválido. Verifique o formato JSON.")
	}
	return input, nil
}

// UpdateProductHandler lida com a requisição PUT /v1/products/{id}.
func (h *Handler) UpdateProductHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var update domain.ProductUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		h.writeError(w, r, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."))
		return
	}

	product, err := h.Service.UpdateProduct(ctx, r.PathValue("id"), update)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeSuccess(w, http.StatusOK, "Produto atualizado com sucesso.", product, nil)
}

// DeleteProductHandler lida com a requisição DELETE /v1/products/{id}.
// A remoção é lógica (soft delete): o produto some da listagem pública.
func (h *Handler) DeleteProductHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.Service.DeleteProduct(ctx, r.PathValue("id")); err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeSuccess(w, http.StatusOK, "Produto removido com sucesso.", nil, nil)
}

// ActivateProductHandler lida com PATCH /v1/products/{id}/activate.
func (h *Handler) ActivateProductHandler(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, true, "Produto ativado com sucesso.")
}

// DeactivateProductHandler lida com PATCH /v1/products/{id}/deactivate.
func (h *Handler) DeactivateProductHandler(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, false, "Produto desativado com sucesso.")
}

func (h *Handler) setActive(w http.ResponseWriter, r *http.Request, active bool, message string) {
	ctx := r.Context()

	product, err := h.Service.SetProductActive(ctx, r.PathValue("id"), active)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeSuccess(w, http.StatusOK, message, product, nil)
}
