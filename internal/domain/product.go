package domain

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Product representa o item principal do catálogo (a Entidade).
// O título é único entre os produtos não deletados (índice parcial no Mongo).
type Product struct {
	ID          primitive.ObjectID   `json:"id" bson:"_id,omitempty"`
	Title       string               `json:"title" bson:"title"`
	Description string               `json:"description" bson:"description"`
	Price       float64              `json:"price" bson:"price"`
	Stock       int                  `json:"stock" bson:"stock"`
	Categories  []primitive.ObjectID `json:"categories" bson:"categories"`
	SellerID    primitive.ObjectID   `json:"sellerId" bson:"sellerId"`
	Images      []string             `json:"images" bson:"images"`
	IsActive    bool                 `json:"isActive" bson:"isActive"`
	DeletedAt   *time.Time           `json:"-" bson:"deletedAt"` // null = não deletado (soft delete)
	CreatedAt   time.Time            `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time            `json:"updatedAt" bson:"updatedAt"`

	// Campos derivados pela listagem; nunca são persistidos no documento.
	// Score é a relevância textual; ReviewCount/AvgRating vêm do pipeline de popularidade.
	Score       *float64 `json:"score,omitempty" bson:"score,omitempty"`
	ReviewCount *int     `json:"reviewCount,omitempty" bson:"reviewCount,omitempty"`
	AvgRating   *float64 `json:"avgRating,omitempty" bson:"avgRating,omitempty"`
}

// ProductInput é o payload de criação de um produto.
// As imagens já chegam resolvidas em URLs (responsabilidade do colaborador de upload).
type ProductInput struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Price       float64  `json:"price"`
	Stock       int      `json:"stock"`
	Categories  []string `json:"categories"`
	Images      []string `json:"images"`
}

// ProductUpdate representa os campos atualizáveis de um produto (atualização parcial).
type ProductUpdate struct {
	Title       *string  `json:"title,omitempty"`
	Description *string  `json:"description,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	Stock       *int     `json:"stock,omitempty"`
	Categories  []string `json:"categories,omitempty"`
	Images      []string `json:"images,omitempty"`
}

// ProductQuery é o objeto de valor efêmero da listagem pública.
// Construído a cada requisição a partir dos query params; nunca é persistido.
type ProductQuery struct {
	Keyword    string
	Category   string   // id único (?category=...)
	Categories []string // valores crus de ?categories= (repetidos e/ou separados por vírgula)
	MinPrice   *float64
	MaxPrice   *float64
	DateFrom   string
	DateTo     string
	Sort       string // apenas o primeiro token informado é honrado
	Page       int
	Limit      int
}

// ListFilters ecoa os filtros resolvidos na resposta (null quando ausentes).
// O formato é idêntico nos dois caminhos de execução (direto e agregação).
type ListFilters struct {
	Keyword    *string  `json:"q"`
	Categories []string `json:"categories"`
	MinPrice   *float64 `json:"minPrice"`
	MaxPrice   *float64 `json:"maxPrice"`
}

// ListMeta é o bloco de metadados de paginação da listagem.
type ListMeta struct {
	Page       int         `json:"page"`
	Limit      int         `json:"limit"`
	Total      int64       `json:"total"`
	TotalPages int64       `json:"totalPages"`
	Sort       string      `json:"sort"`
	Filters    ListFilters `json:"filters"`
}

// ProductPage é a página de resultados normalizada, independente do caminho executado.
type ProductPage struct {
	Data []Product `json:"data"`
	Meta ListMeta  `json:"meta"`
}

// --- Interfaces de Contrato (O CORAÇÃO DA ARQUITETURA LIMPA) ---

// ProductService é a interface que a camada de Serviço (Business Logic) DEVE implementar.
// Ela define o que o Handler (Camada API) pode pedir para a camada de Serviço fazer.
type ProductService interface {
	ListProducts(ctx context.Context, query ProductQuery) (ProductPage, error)
	CreateProduct(ctx context.Context, input ProductInput, sellerID string) (Product, error)
	GetProductByID(ctx context.Context, id string) (Product, error)
	UpdateProduct(ctx context.Context, id string, update ProductUpdate) (Product, error)
	DeleteProduct(ctx context.Context, id string) error
	SetProductActive(ctx context.Context, id string, active bool) (Product, error)
}
