package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"emarket/config"
	"emarket/internal/pkg/database"
)

// Utilitário de provisionamento dos índices do MongoDB.
// Deve ser executado antes do primeiro deploy (e a cada mudança de índice),
// pois a busca textual ($text) exige o índice de texto já criado.
//
// Uso: go run ./cmd/indexes
func main() {
	log.Println("⚡ Provisionando índices do E-Market...")

	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ Aviso: Arquivo .env não encontrado. Usando apenas o ambiente do sistema.")
	}

	cfg := config.LoadConfig()

	client, err := database.NewMongoClient(cfg.MongoURI)
	if err != nil {
		log.Fatalf("❌ Falha ao conectar ao banco de dados: %v", err)
	}
	defer client.Disconnect(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db := client.Database(cfg.MongoDB)

	if err := createProductIndexes(ctx, db.Collection("products")); err != nil {
		log.Fatalf("❌ Falha ao criar índices de products: %v", err)
	}
	if err := createReviewIndexes(ctx, db.Collection("reviews")); err != nil {
		log.Fatalf("❌ Falha ao criar índices de reviews: %v", err)
	}
	if err := createCategoryIndexes(ctx, db.Collection("categories")); err != nil {
		log.Fatalf("❌ Falha ao criar índices de categories: %v", err)
	}

	log.Println("✅ Índices provisionados com sucesso.")
}

func createProductIndexes(ctx context.Context, coll *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		// Índice de texto usado pela busca por palavra-chave (q).
		{
			Keys: bson.D{
				{Key: "title", Value: "text"},
				{Key: "description", Value: "text"},
			},
			Options: options.Index().SetName("products_text"),
		},
		// Filtro por categoria ($in).
		{
			Keys:    bson.D{{Key: "categories", Value: 1}},
			Options: options.Index().SetName("products_categories"),
		},
		// Ordenação padrão da listagem (mais recentes primeiro).
		{
			Keys:    bson.D{{Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("products_created_at"),
		},
		// Título único entre produtos não removidos. O índice parcial
		// libera o título quando o produto sofre remoção lógica
		// (deletedAt deixa de ser null).
		{
			Keys: bson.D{{Key: "title", Value: 1}},
			Options: options.Index().
				SetName("products_title_unique").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"deletedAt": bson.M{"$type": "null"}}),
		},
	}

	names, err := coll.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return err
	}
	log.Printf("✅ products: índices criados: %v", names)
	return nil
}

func createReviewIndexes(ctx context.Context, coll *mongo.Collection) error {
	// Suporta o $lookup de engajamento na listagem por popularidade.
	name, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "productId", Value: 1}},
		Options: options.Index().SetName("reviews_product_id"),
	})
	if err != nil {
		return err
	}
	log.Printf("✅ reviews: índice criado: %s", name)
	return nil
}

func createCategoryIndexes(ctx context.Context, coll *mongo.Collection) error {
	name, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "name", Value: 1}},
		Options: options.Index().SetName("categories_name_unique").SetUnique(true),
	})
	if err != nil {
		return err
	}
	log.Printf("✅ categories: índice criado: %s", name)
	return nil
}
