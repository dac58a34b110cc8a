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

	// Pacotes de infraestrutura e utilitários
	"gorental/config"
	"gorental/internal/pkg/cache"
	"gorental/internal/pkg/database"
	"gorental/internal/pkg/logger"
	"gorental/internal/pkg/token"

	// Camadas para Injeção de Dependências
	"gorental/internal/api/rental"
	"gorental/internal/api/router"
	"gorental/internal/api/user"
	"gorental/internal/repository/carrepo"
	"gorental/internal/repository/orderrepo"
	"gorental/internal/repository/userrepo"
	"gorental/internal/service/rentalservice"
	"gorental/internal/service/userservice"
)

func main() {
	// 1. Configuração e Inicialização
	log.Println("⚡ Inicializando serviço GoRental...")

	// 0. CARREGAR VARIÁVEIS DE AMBIENTE (.env)
	// O godotenv.Load() procura por um arquivo chamado .env na raiz.
	if err := godotenv.Load(); err != nil {
		// Se o arquivo .env não for encontrado, avisamos mas continuamos:
		// as variáveis essenciais podem estar no ambiente do sistema (ex: Docker).
		log.Println("⚠️ Aviso: Arquivo .env não encontrado ou erro de leitura. Carregando configs apenas do ambiente do sistema.")
	}

	cfg := config.LoadConfig()
	log := logger.NewLogger(cfg.LogLevel)
	log.Info("Configurações carregadas.", nil)

	// 2. Conexão com Recursos de Infraestrutura

	// A. Banco de Dados (PostgreSQL)
	db, err := database.NewPostgresDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Falha ao conectar ao banco de dados.", err)
	}
	defer db.Close()
	log.Info("Conexão PostgreSQL estabelecida.", nil)

	// B. Cache (Redis)
	cacheClient := cache.NewRedisClient(cfg.RedisAddr)
	log.Info("Conexão Redis estabelecida.", nil)

	// 3. INJEÇÃO DE DEPENDÊNCIAS
	// Ordem: Repository -> Service -> Handler

	// A. Repositórios (Camada de Acesso a Dados)
	userRepo := userrepo.NewUserRepository(db, cfg.DBTimeout, log)
	carRepo := carrepo.NewCarRepository(db, cacheClient, cfg.DBTimeout, log)
	orderRepo := orderrepo.NewOrderRepository(db, cfg.DBTimeout, log)
	log.Debug("Repositórios inicializados.", nil)

	// B. Serviço de Tokens (JWT)
	tokenSvc := token.NewService(cfg.JWTSecretKey, cfg.TokenExpiry)
	log.Debug("Serviço de Tokens JWT inicializado.", nil)

	// C. Serviços (Camada de Lógica de Negócio)
	userSvc := userservice.NewService(userRepo, tokenSvc, log)
	rentalSvc := rentalservice.NewService(orderRepo, carRepo, log)
	log.Debug("Serviços inicializados.", nil)

	// D. Handlers (Camada de Apresentação)
	userHandler := user.NewHandler(userSvc, log)
	rentalHandler := rental.NewHandler(rentalSvc, log)
	log.Debug("Handlers inicializados.", nil)

	// 4. Configuração e Início do Roteador/Servidor
	r := router.NewRouter(
		userHandler,
		rentalHandler,
		tokenSvc,
		userRepo,
		cacheClient,
		cfg.RateLimitMaxRequests,
		cfg.RateLimitPeriod,
	)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// 5. Execução e Graceful Shutdown
	go func() {
		log.Info("Servidor GoRental ouvindo na porta", map[string]interface{}{"port": cfg.Port})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Servidor falhou.", err)
		}
	}()

	// Lógica do Graceful Shutdown (captura de sinal)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	log.Info("Sinal de encerramento recebido. Desligando servidor...", nil)

	// Timeout para desligamento (usa o contexto)
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("Desligamento do servidor forçado.", err)
	}

	log.Info("Servidor encerrado com sucesso.", nil)
}
