package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	// Nossos pacotes de infraestrutura e utilitários
	"emarket/config"
	"emarket/internal/pkg/cache"
	"emarket/internal/pkg/database"
	"emarket/internal/pkg/images"
	"emarket/internal/pkg/logger"
	"emarket/internal/pkg/notifier"
	"emarket/internal/pkg/token"

	// Camadas da aplicação para Injeção de Dependências
	"emarket/internal/api/category"
	"emarket/internal/api/product"
	"emarket/internal/api/router"
	"emarket/internal/api/user"
	"emarket/internal/repository/categoryrepo"
	"emarket/internal/repository/productrepo"
	"emarket/internal/repository/userrepo"
	"emarket/internal/service/categoryservice"
	"emarket/internal/service/productservice"
	"emarket/internal/service/userservice"
)

func main() {
	// 1. Configuração e Inicialização
	log.Println("⚡ Inicializando serviço E-Market...")

	// 0. CARREGAR VARIÁVEIS DE AMBIENTE (.env)
	// O godotenv.Load() procura por um arquivo chamado .env na raiz.
	if err := godotenv.Load(); err != nil {
		// Se o arquivo .env não for encontrado, avisamos, mas continuamos,
		// pois as variáveis essenciais podem estar no ambiente do sistema (ex: Docker).
		log.Println("⚠️ Aviso: Arquivo .env não encontrado ou erro de leitura. Carregando configs apenas do ambiente do sistema.")
	}

	cfg := config.LoadConfig() // Carrega as configurações (URLs, Timeouts, etc.)
	appLog := logger.NewLogger(cfg.LogLevel)
	appLog.Info("Configurações carregadas.", nil)

	// 2. Conexão com Recursos de Infraestrutura

	// A. Banco de Dados (MongoDB)
	client, err := database.NewMongoClient(cfg.MongoURI)
	if err != nil {
		appLog.Fatal("Falha ao conectar ao banco de dados.", err)
	}
	defer client.Disconnect(context.Background()) // Encerra o cliente de DB ao sair
	db := client.Database(cfg.MongoDB)
	appLog.Info("Conexão MongoDB estabelecida.", nil)

	// B. Cache (Redis)
	cacheClient := cache.NewRedisClient(cfg.RedisAddr)
	appLog.Info("Conexão Redis estabelecida.", nil)

	// C. Colaborador de imagens (uploads locais)
	imageStore, err := images.NewLocalStore(cfg.UploadDir, cfg.PublicBaseURL)
	if err != nil {
		appLog.Fatal("Falha ao preparar o diretório de uploads.", err)
	}

	// D. Colaborador de notificações (variante escolhida por configuração,
	// nunca por checagem de ambiente dentro da lógica de negócio)
	var notify notifier.Notifier
	if cfg.NotifierEnabled {
		notify = notifier.NewSMTPNotifier(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.NotifyFrom, cfg.NotifyTo, appLog)
		appLog.Info("Notificador SMTP habilitado.", nil)
	} else {
		notify = notifier.NewNopNotifier()
	}

	// 3. INJEÇÃO DE DEPENDÊNCIAS (Montagem da Clean Architecture)
	// Ordem: Repository -> Service -> Handler

	// A. Repositórios (Camada de Acesso a Dados)
	productRepo := productrepo.NewProductRepository(db, cacheClient, cfg.DBTimeout, cfg.CacheTTL, appLog)
	categoryRepo := categoryrepo.NewCategoryRepository(db, cfg.DBTimeout)
	userRepo := userrepo.NewUserRepository(db, cfg.DBTimeout)
	appLog.Debug("Repositórios inicializados.", nil)

	// B. Serviço de Tokens (JWT)
	tokenSvc := token.NewService(cfg.JWTSecretKey, cfg.TokenExpiry)
	appLog.Debug("Serviço de Tokens JWT inicializado.", nil)

	// C. Serviços (Camada de Lógica de Negócio)
	productSvc := productservice.NewService(productRepo, categoryRepo, notify, appLog)
	categorySvc := categoryservice.NewService(categoryRepo, appLog)
	userSvc := userservice.NewService(userRepo, tokenSvc, appLog)
	appLog.Debug("Serviços inicializados.", nil)

	// D. Handlers (Camada de Apresentação)
	productHandler := product.NewHandler(productSvc, imageStore, appLog)
	categoryHandler := category.NewHandler(categorySvc, appLog)
	userHandler := user.NewHandler(userSvc, appLog)
	appLog.Debug("Handlers inicializados.", nil)

	// 4. Configuração e Início do Roteador/Servidor
	r := router.NewRouter(productHandler, categoryHandler, userHandler, tokenSvc, cacheClient, cfg)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r, // O roteador final
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// 5. Execução e Graceful Shutdown
	go func() {
		appLog.Info("Servidor E-Market ouvindo na porta", map[string]interface{}{"port": cfg.Port})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLog.Fatal("Servidor falhou.", err)
		}
	}()

	// Lógica do Graceful Shutdown (captura de sinal)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	appLog.Info("Sinal de encerramento recebido. Desligando servidor...", nil)

	// Timeout para desligamento (usa o contexto)
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		appLog.Error("Desligamento do servidor forçado.", err)
	}

	appLog.Info("Servidor encerrado com sucesso.", nil)
}
