package productservice

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"emarket/internal/domain"
	apperror "emarket/internal/errors"
	"emarket/internal/pkg/logger"
	"emarket/internal/pkg/notifier"
	"emarket/internal/query"
)

// Limites de paginação da listagem pública.
const (
	DefaultLimit = 12
	MaxLimit     = 100
)

// ProductRepository define o contrato (interface) que este Serviço espera
// da camada de Persistência (DB, Cache).
type ProductRepository interface {
	ExecutePlan(ctx context.Context, plan query.Plan) ([]domain.Product, int64, error)
	Insert(ctx context.Context, product domain.Product) (domain.Product, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (domain.Product, error)
	Replace(ctx context.Context, product domain.Product) error
	SoftDelete(ctx context.Context, id primitive.ObjectID, at time.Time) error
	SetActive(ctx context.Context, id primitive.ObjectID, active bool, at time.Time) error
	ExistsByTitle(ctx context.Context, title string, excludeID *primitive.ObjectID) (bool, error)
}

// CategoryRepository é o contrato mínimo para validar referências de categoria.
type CategoryRepository interface {
	CountByIDs(ctx context.Context, ids []primitive.ObjectID) (int64, error)
}

// Service é a estrutura que implementa a interface domain.ProductService.
type Service struct {
	repo       ProductRepository
	categories CategoryRepository
	notify     notifier.Notifier
	logger     logger.Logger
}

// NewService cria e retorna uma nova instância do Serviço de Produto.
func NewService(repo ProductRepository, categories CategoryRepository, notify notifier.Notifier, log logger.Logger) *Service {
	return &Service{
		repo:       repo,
		categories: categories,
		notify:     notify,
		logger:     log,
	}
}

// --- Implementação: ListProducts (o motor de listagem) ---

// ListProducts monta o plano de execução a partir da consulta, executa o
// caminho escolhido e normaliza a saída em uma página única de resposta.
func (s *Service) ListProducts(ctx context.Context, q domain.ProductQuery) (domain.ProductPage, error) {

	// 1. Normalização de paginação: page < 1 vira 1 (não é erro),
	// limit ausente vira o padrão, limit acima do teto é rebaixado.
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit <= 0 {
		q.Limit = DefaultLimit
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}

	// 2. Montagem do plano (Filter Builder + Sort Resolver + Plan Selector).
	// Erros de validação saem aqui, antes de qualquer acesso ao store.
	plan, err := query.BuildPlan(q)
	if err != nil {
		return domain.ProductPage{}, err
	}

	// 3. Execução (caminho direto ou pipeline de agregação).
	data, total, err := s.repo.ExecutePlan(ctx, plan)
	if err != nil {
		// Loga o plano resolvido: contexto suficiente para reproduzir a falha.
		s.logger.Error("Falha na execução do plano de listagem.", err)
		s.logger.Debug("Plano resolvido da listagem que falhou.", plan.LogFields())
		return domain.ProductPage{}, err
	}

	// 4. Montagem da resposta (Response Assembler): mesmo envelope nos dois caminhos.
	totalPages := (total + int64(q.Limit) - 1) / int64(q.Limit)
	if totalPages < 1 {
		totalPages = 1
	}

	return domain.ProductPage{
		Data: data,
		Meta: domain.ListMeta{
			Page:       q.Page,
			Limit:      q.Limit,
			Total:      total,
			TotalPages: totalPages,
			Sort:       plan.SortToken,
			Filters:    plan.EchoFilters(),
		},
	}, nil
}

// --- Implementação: CreateProduct ---

// CreateProduct valida o payload, as referências de categoria e a unicidade de
// título antes de persistir. Ou tudo é gravado, ou nada é.
func (s *Service) CreateProduct(ctx context.Context, input domain.ProductInput, sellerID string) (domain.Product, error) {

	// 1. Validação de Regras de Negócio
	title := strings.TrimSpace(input.Title)
	if title == "" || strings.TrimSpace(input.Description) == "" {
		return domain.Product{}, apperror.NewValidationError("Título e descrição são obrigatórios para o produto.")
	}
	if input.Price < 0 {
		return domain.Product{}, apperror.NewValidationError("O preço do produto não pode ser negativo.")
	}
	if input.Stock < 0 {
		return domain.Product{}, apperror.NewValidationError("O estoque do produto não pode ser negativo.")
	}
	if len(input.Categories) == 0 {
		return domain.Product{}, apperror.NewValidationError("O produto precisa de pelo menos uma categoria.")
	}

	sellerOID, err := primitive.ObjectIDFromHex(sellerID)
	if err != nil {
		return domain.Product{}, apperror.NewValidationError("O ID do vendedor é inválido.")
	}

	categoryIDs, err := parseCategoryIDs(input.Categories)
	if err != nil {
		return domain.Product{}, err
	}

	// 2. Categorias referenciadas precisam existir TODAS (conflito identifica a restrição).
	found, err := s.categories.CountByIDs(ctx, categoryIDs)
	if err != nil {
		return domain.Product{}, err
	}
	if found != int64(len(categoryIDs)) {
		return domain.Product{}, apperror.NewConflictError("Uma ou mais categorias referenciadas não existem.")
	}

	// 3. Título único entre produtos não deletados.
	exists, err := s.repo.ExistsByTitle(ctx, title, nil)
	if err != nil {
		return domain.Product{}, err
	}
	if exists {
		return domain.Product{}, apperror.NewConflictError(fmt.Sprintf("Já existe um produto com o título '%s'.", title))
	}

	// 4. Montagem e persistência
	now := time.Now().UTC()
	product := domain.Product{
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		Price:       input.Price,
		Stock:       input.Stock,
		Categories:  categoryIDs,
		SellerID:    sellerOID,
		Images:      input.Images,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if product.Images == nil {
		product.Images = []string{}
	}

	created, err := s.repo.Insert(ctx, product)
	if err != nil {
		return domain.Product{}, err
	}

	// 5. Notificação (colaborador injetado; falha aqui não desfaz a criação)
	if err := s.notify.ProductCreated(ctx, created); err != nil {
		s.logger.Warn("Falha ao notificar criação de produto.", map[string]interface{}{
			"product_id": created.ID.Hex(),
			"error":      err.Error(),
		})
	}

	return created, nil
}

// --- Implementação: GetProductByID ---

func (s *Service) GetProductByID(ctx context.Context, id string) (domain.Product, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.Product{}, apperror.NewValidationError("O ID do produto é inválido.")
	}

	return s.repo.FindByID(ctx, oid)
}

// --- Implementação: UpdateProduct ---

// UpdateProduct aplica uma atualização parcial, revalidando unicidade de
// título e existência das categorias quando esses campos mudam.
func (s *Service) UpdateProduct(ctx context.Context, id string, update domain.ProductUpdate) (domain.Product, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.Product{}, apperror.NewValidationError("O ID do produto é inválido.")
	}

	product, err := s.repo.FindByID(ctx, oid)
	if err != nil {
		return domain.Product{}, err
	}

	if update.Title != nil {
		title := strings.TrimSpace(*update.Title)
		if title == "" {
			return domain.Product{}, apperror.NewValidationError("O título do produto não pode ser vazio.")
		}
		if title != product.Title {
			exists, err := s.repo.ExistsByTitle(ctx, title, &oid)
			if err != nil {
				return domain.Product{}, err
			}
			if exists {
				return domain.Product{}, apperror.NewConflictError(fmt.Sprintf("Já existe um produto com o título '%s'.", title))
			}
		}
		product.Title = title
	}
	if update.Description != nil {
		product.Description = strings.TrimSpace(*update.Description)
	}
	if update.Price != nil {
		if *update.Price < 0 {
			return domain.Product{}, apperror.NewValidationError("O preço do produto não pode ser negativo.")
		}
		product.Price = *update.Price
	}
	if update.Stock != nil {
		if *update.Stock < 0 {
			return domain.Product{}, apperror.NewValidationError("O estoque do produto não pode ser negativo.")
		}
		product.Stock = *update.Stock
	}
	if update.Categories != nil {
		categoryIDs, err := parseCategoryIDs(update.Categories)
		if err != nil {
			return domain.Product{}, err
		}
		found, err := s.categories.CountByIDs(ctx, categoryIDs)
		if err != nil {
			return domain.Product{}, err
		}
		if found != int64(len(categoryIDs)) {
			return domain.Product{}, apperror.NewConflictError("Uma ou mais categorias referenciadas não existem.")
		}
		product.Categories = categoryIDs
	}
	if update.Images != nil {
		product.Images = update.Images
	}

	product.UpdatedAt = time.Now().UTC()

	if err := s.repo.Replace(ctx, product); err != nil {
		return domain.Product{}, err
	}
	return product, nil
}

// --- Implementação: DeleteProduct (soft delete) ---

// A deleção é sempre lógica: o campo deletedAt é preenchido e o produto sai da
// listagem pública; o documento permanece para histórico e integridade do join.
func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return apperror.NewValidationError("O ID do produto é inválido.")
	}

	return s.repo.SoftDelete(ctx, oid, time.Now().UTC())
}

// --- Implementação: SetProductActive ---

func (s *Service) SetProductActive(ctx context.Context, id string, active bool) (domain.Product, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.Product{}, apperror.NewValidationError("O ID do produto é inválido.")
	}

	if err := s.repo.SetActive(ctx, oid, active, time.Now().UTC()); err != nil {
		return domain.Product{}, err
	}

	// O cache foi invalidado pela mutação; esta leitura volta fresca do DB.
	return s.repo.FindByID(ctx, oid)
}

// parseCategoryIDs converte ids em hex para ObjectIDs, rejeitando valores malformados.
func parseCategoryIDs(values []string) ([]primitive.ObjectID, error) {
	ids := make([]primitive.ObjectID, 0, len(values))
	for _, value := range values {
		id, err := primitive.ObjectIDFromHex(strings.TrimSpace(value))
		if err != nil {
			return nil, apperror.NewValidationError(fmt.Sprintf("O id de categoria '%s' é inválido.", value))
		}
		ids = append(ids, id)
	}
	return ids, nil
}
