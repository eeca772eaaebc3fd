package userrepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"emarket/internal/domain"
	"emarket/internal/errors"
)

// UserRepository implementa a interface domain.UserRepository sobre o MongoDB.
type UserRepository struct {
	Users     *mongo.Collection
	DBTimeout time.Duration
}

// NewUserRepository cria e retorna uma nova instância do Repositório.
func NewUserRepository(db *mongo.Database, dbTimeout time.Duration) *UserRepository {
	return &UserRepository{
		Users:     db.Collection("users"),
		DBTimeout: dbTimeout,
	}
}

// Save persiste um novo usuário. E-mail duplicado vira ConflictError.
func (r *UserRepository) Save(ctx context.Context, user domain.User) (domain.User, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	result, err := r.Users.InsertOne(ctxTimeout, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.User{}, errors.NewConflictError(fmt.Sprintf("O e-mail %s já está registrado.", user.Email))
		}
		return domain.User{}, errors.NewDBError("Falha ao inserir usuário", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		user.ID = oid
	}
	return user, nil
}

// FindByEmail busca um usuário pelo e-mail.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var user domain.User
	err := r.Users.FindOne(ctxTimeout, bson.M{"email": email}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return domain.User{}, errors.NewNotFoundError(fmt.Sprintf("Usuário com e-mail %s não existe.", email))
	}
	if err != nil {
		return domain.User{}, errors.NewDBError("Falha ao buscar usuário no DB", err)
	}
	return user, nil
}
