package router

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger/v2"

	"emarket/config"
	"emarket/internal/api/category"
	"emarket/internal/api/product"
	"emarket/internal/api/user"
	"emarket/internal/domain"
	"emarket/internal/pkg/cache"
	"emarket/internal/pkg/middleware"
)

// NewRouter configura e retorna o roteador HTTP principal.
// Recebe os Handlers já inicializados por injeção de dependências.
func NewRouter(
	productHandler *product.Handler,
	categoryHandler *category.Handler,
	userHandler *user.Handler,
	tokenSvc middleware.TokenService,
	cacheClient cache.Client,
	cfg *config.Config,
) http.Handler {

	// Usamos o ServeMux padrão do net/http com os patterns de método/rota.
	mux := http.NewServeMux()

	// --- 1. Rotas de Health Check ---
	mux.HandleFunc("/ping", PingHandler)

	// --- 2. Middlewares de autenticação/permissão ---
	auth := middleware.NewAuthMiddleware(tokenSvc)
	sellersOnly := middleware.PermissionMiddleware(domain.RoleSeller, domain.RoleAdmin)

	// --- 3. Rotas do Módulo de Produtos (v1) ---

	// Listagem pública (o motor de consulta), protegida por rate limit.
	listLimiter := middleware.RateLimiter(cacheClient, cfg.RateLimitMaxRequests, cfg.RateLimitPeriod)
	mux.Handle("GET /v1/products", listLimiter(http.HandlerFunc(productHandler.ListProductsHandler)))

	mux.HandleFunc("GET /v1/products/{id}", productHandler.GetProductByIDHandler)

	// Mutações exigem um vendedor (ou admin) autenticado.
	mux.HandleFunc("POST /v1/products", auth(sellersOnly(productHandler.CreateProductHandler)))
	mux.HandleFunc("PUT /v1/products/{id}", auth(sellersOnly(productHandler.UpdateProductHandler)))
	mux.HandleFunc("DELETE /v1/products/{id}", auth(sellersOnly(productHandler.DeleteProductHandler)))
	mux.HandleFunc("PATCH /v1/products/{id}/activate", auth(sellersOnly(productHandler.ActivateProductHandler)))
	mux.HandleFunc("PATCH /v1/products/{id}/deactivate", auth(sellersOnly(productHandler.DeactivateProductHandler)))

	// --- 4. Categorias e Usuários ---
	mux.HandleFunc("GET /v1/categories", categoryHandler.GetCategoriesHandler)
	mux.HandleFunc("POST /v1/register", userHandler.RegisterUserHandler)
	mux.HandleFunc("POST /v1/login", userHandler.LoginUserHandler)

	// --- 5. Arquivos de imagem e documentação ---
	mux.Handle("GET /uploads/", http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.UploadDir))))
	mux.Handle("GET /swagger/", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	return mux
}

// PingHandler é uma função utilitária para o health check.
func PingHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("pong"))
}
