package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// NewMongoClient inicializa e configura o cliente de conexão com o MongoDB.
// Retorna o *mongo.Client pronto para uso.
func NewMongoClient(uri string) (*mongo.Client, error) {

	// 1. Abrir a Conexão
	// O pool de conexões é gerenciado pelo próprio driver; aqui apenas o dimensionamos.
	opts := options.Client().
		ApplyURI(uri).
		SetMaxPoolSize(25).                    // Número máximo de conexões abertas
		SetMinPoolSize(5).                     // Conexões mantidas ociosas no pool
		SetMaxConnIdleTime(2 * time.Minute).   // Conexões ociosas morrem após 2 minutos
		SetServerSelectionTimeout(5 * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		// Falha ao abrir a conexão (erro de driver, formato da URI, etc.)
		return nil, fmt.Errorf("falha ao abrir a conexão com o MongoDB: %w", err)
	}

	// 2. Testar a Conexão Imediatamente
	// Garante que as credenciais e o servidor estão corretos
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		// Falha no ping (DB inacessível, credenciais erradas)
		_ = client.Disconnect(context.Background()) // Encerra o cliente aberto se falhar
		return nil, fmt.Errorf("falha ao realizar o ping inicial no MongoDB: %w", err)
	}

	log.Println("✅ Cliente MongoDB configurado e pronto.")

	return client, nil
}
