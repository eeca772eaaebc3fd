package userservice

import (
	"context"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"emarket/internal/domain"
	apperror "emarket/internal/errors"
	"emarket/internal/pkg/logger"
	"emarket/internal/pkg/token"
)

// TokenService é o contrato da camada de token (internal/pkg/token)
type TokenService interface {
	GenerateToken(userID string, userRole string) (string, error)
	ValidateToken(tokenString string) (*token.CustomClaims, error)
}

// UserService implementa a interface domain.UserService.
type UserService struct {
	UserRepo domain.UserRepository
	TokenSvc TokenService
	Logger   logger.Logger
}

// NewService cria uma nova instância do UserService, injetando o Repositório.
func NewService(repo domain.UserRepository, tokenSvc TokenService, log logger.Logger) *UserService {
	return &UserService{
		UserRepo: repo,
		TokenSvc: tokenSvc,
		Logger:   log,
	}
}

// Register registra um novo usuário (vendedor) no sistema.
// Ele faz o hashing da senha e lida com validações básicas.
func (s *UserService) Register(ctx context.Context, registration domain.UserRegistration) (domain.User, error) {
	// 1. Validação Básica
	email := strings.TrimSpace(registration.Email)
	if email == "" || registration.Password == "" {
		return domain.User{}, apperror.NewValidationError("Email e senha são obrigatórios.")
	}

	// 2. Hashing da Senha
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(registration.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, apperror.NewInternalError("Falha ao gerar hash da senha.", err)
	}

	// 3. Criação do Objeto User
	now := time.Now().UTC()
	newUser := domain.User{
		Email:        email,
		PasswordHash: string(hashedPassword),
		Role:         domain.RoleSeller, // Papel padrão do marketplace
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	// 4. Chamada ao Repositório para Persistência
	// (e-mail duplicado volta como ConflictError do repositório)
	created, err := s.UserRepo.Save(ctx, newUser)
	if err != nil {
		return domain.User{}, err
	}

	s.Logger.Info("Novo usuário registrado.", map[string]interface{}{"user_id": created.ID.Hex()})
	return created, nil
}

// Login autentica o usuário e retorna um JWT assinado.
func (s *UserService) Login(ctx context.Context, email string, password string) (string, error) {
	if email == "" || password == "" {
		return "", apperror.NewValidationError("Email e senha são obrigatórios.")
	}

	// 1. Buscar o usuário
	user, err := s.UserRepo.FindByEmail(ctx, email)
	if err != nil {
		// Não revelamos se o e-mail existe ou não.
		return "", apperror.NewUnauthorizedError("Credenciais inválidas.")
	}

	// 2. Comparar a senha com o hash armazenado
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", apperror.NewUnauthorizedError("Credenciais inválidas.")
	}

	// 3. Emitir o token
	tokenString, err := s.TokenSvc.GenerateToken(user.ID.Hex(), string(user.Role))
	if err != nil {
		return "", apperror.NewInternalError("Falha ao gerar token de acesso.", err)
	}

	return tokenString, nil
}
