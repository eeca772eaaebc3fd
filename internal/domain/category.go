package domain

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Category representa uma categoria do catálogo.
type Category struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name      string             `json:"name" bson:"name"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
}

// CategoryService define o contrato de leitura de categorias exposto pela API.
type CategoryService interface {
	GetCategories(ctx context.Context) ([]Category, error)
}
