package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Review é o registro de engajamento de um produto (coleção "reviews").
// A coleção é alimentada por outro serviço; aqui ela é somente leitura e
// serve apenas como fonte do $lookup do pipeline de popularidade.
type Review struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	ProductID primitive.ObjectID `json:"productId" bson:"productId"`
	UserID    primitive.ObjectID `json:"userId" bson:"userId"`
	Rating    float64            `json:"rating" bson:"rating"`
	Comment   string             `json:"comment,omitempty" bson:"comment,omitempty"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
}
