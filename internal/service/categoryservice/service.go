package categoryservice

import (
	"context"

	"emarket/internal/domain"
	"emarket/internal/pkg/logger"
)

// CategoryRepository define o contrato que este Serviço espera da Persistência.
type CategoryRepository interface {
	FindAll(ctx context.Context) ([]domain.Category, error)
}

// Service implementa a interface domain.CategoryService.
type Service struct {
	repo   CategoryRepository
	logger logger.Logger
}

// NewService cria e retorna uma nova instância do Serviço de Categoria.
func NewService(repo CategoryRepository, log logger.Logger) *Service {
	return &Service{repo: repo, logger: log}
}

// GetCategories retorna todas as categorias do catálogo.
func (s *Service) GetCategories(ctx context.Context) ([]domain.Category, error) {
	categories, err := s.repo.FindAll(ctx)
	if err != nil {
		s.logger.Error("Falha ao listar categorias.", err)
		return nil, err
	}
	return categories, nil
}
