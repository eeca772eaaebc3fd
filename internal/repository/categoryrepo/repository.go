package categoryrepo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"emarket/internal/domain"
	"emarket/internal/errors"
)

// CategoryRepository implementa o acesso à coleção de categorias.
type CategoryRepository struct {
	Categories *mongo.Collection
	DBTimeout  time.Duration
}

// NewCategoryRepository cria e retorna uma nova instância do Repositório.
func NewCategoryRepository(db *mongo.Database, dbTimeout time.Duration) *CategoryRepository {
	return &CategoryRepository{
		Categories: db.Collection("categories"),
		DBTimeout:  dbTimeout,
	}
}

// FindAll retorna todas as categorias ordenadas por nome.
func (r *CategoryRepository) FindAll(ctx context.Context) ([]domain.Category, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cursor, err := r.Categories.Find(ctxTimeout, bson.M{}, opts)
	if err != nil {
		return nil, errors.NewDBError("Falha ao listar categorias", err)
	}

	categories := []domain.Category{}
	if err := cursor.All(ctxTimeout, &categories); err != nil {
		return nil, errors.NewDBError("Falha ao decodificar categorias", err)
	}
	return categories, nil
}

// CountByIDs conta quantas das categorias informadas existem de fato.
// Usado pela criação de produto para detectar referências parcialmente ausentes.
func (r *CategoryRepository) CountByIDs(ctx context.Context, ids []primitive.ObjectID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	count, err := r.Categories.CountDocuments(ctxTimeout, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return 0, errors.NewDBError("Falha ao verificar categorias", err)
	}
	return count, nil
}
