package user

import (
	"context"
	"encoding/json"
	"net/http"

	"emarket/internal/domain"
	apperror "emarket/internal/errors"
	"emarket/internal/pkg/logger"
)

// UserService define o contrato para as operações de registro e login.
type UserService interface {
	Register(ctx context.Context, registration domain.UserRegistration) (domain.User, error)
	Login(ctx context.Context, email string, password string) (string, error)
}

// LoginRequest representa o payload de entrada para o login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Handler agrupa todos os métodos de Handler do usuário.
type Handler struct {
	Service UserService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc UserService, log logger.Logger) *Handler {
	return &Handler{
		Service: svc,
		Logger:  log,
	}
}

// handleServiceResponse padroniza o tratamento de erros e respostas HTTP.
func (h *Handler) handleServiceResponse(w http.ResponseWriter, data interface{}, err error, successStatus int) {
	if err == nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(successStatus)
		if data != nil {
			json.NewEncoder(w).Encode(data)
		}
		return
	}

	// Mapeamento de Erros de Negócio para Status HTTP
	status, category, message := apperror.MapToHTTPStatus(err)

	// Log apenas de erros graves
	if status >= 500 {
		h.Logger.Error("Erro interno no serviço de usuário:", err)
	}

	errorResponse := map[string]interface{}{
		"success":  false,
		"code":     status,
		"category": category,
		"message":  message,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse)
}

// RegisterUserHandler lida com a requisição POST /v1/register.
// @Summary Registra um novo usuário
// @Description Cria um novo usuário, hasheia a senha e salva no banco de dados.
// @Tags users
// @Accept json
// @Produce json
// @Param registration body domain.UserRegistration true "Credenciais de registro (email e senha)"
// @Success 201 {object} domain.User
// @Failure 409 {object} domain.ErrorResponse
// @Router /v1/register [post]
func (h *Handler) RegisterUserHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var registration domain.UserRegistration
	if err := json.NewDecoder(r.Body).Decode(&registration); err != nil {
		h.handleServiceResponse(w, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), http.StatusCreated)
		return
	}

	newUser, err := h.Service.Register(ctx, registration)
	h.handleServiceResponse(w, newUser, err, http.StatusCreated)
}

// LoginUserHandler lida com a requisição POST /v1/login.
// @Summary Autentica um usuário
// @Description Valida as credenciais e retorna um JWT assinado.
// @Tags users
// @Accept json
// @Produce json
// @Param credentials body LoginRequest true "Credenciais de acesso"
// @Success 200 {object} map[string]string
// @Failure 401 {object} domain.ErrorResponse
// @Router /v1/login [post]
func (h *Handler) LoginUserHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var credentials LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&credentials); err != nil {
		h.handleServiceResponse(w, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), http.StatusOK)
		return
	}

	tokenString, err := h.Service.Login(ctx, credentials.Email, credentials.Password)
	if err != nil {
		h.handleServiceResponse(w, nil, err, http.StatusOK)
		return
	}

	h.handleServiceResponse(w, map[string]string{"token": tokenString}, nil, http.StatusOK)
}
