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
	"pharmacart/config"
	"pharmacart/internal/pkg/cache"
	"pharmacart/internal/pkg/database"
	"pharmacart/internal/pkg/events"
	"pharmacart/internal/pkg/logger"
	"pharmacart/internal/pkg/mailer"
	"pharmacart/internal/pkg/token"

	// Handlers e roteador
	"pharmacart/internal/api/admin"
	"pharmacart/internal/api/cart"
	"pharmacart/internal/api/catalog"
	"pharmacart/internal/api/contact"
	"pharmacart/internal/api/dashboard"
	"pharmacart/internal/api/inventory"
	"pharmacart/internal/api/order"
	"pharmacart/internal/api/otp"
	"pharmacart/internal/api/prescription"
	"pharmacart/internal/api/router"
	"pharmacart/internal/api/user"
	"pharmacart/internal/api/wishlist"
	"pharmacart/internal/domain"

	// Acesso a dados
	"pharmacart/internal/repository/adminrepo"
	"pharmacart/internal/repository/cartrepo"
	"pharmacart/internal/repository/catalogrepo"
	"pharmacart/internal/repository/contactrepo"
	"pharmacart/internal/repository/inventoryrepo"
	"pharmacart/internal/repository/orderrepo"
	"pharmacart/internal/repository/otprepo"
	"pharmacart/internal/repository/prescriptionrepo"
	"pharmacart/internal/repository/reportrepo"
	"pharmacart/internal/repository/userrepo"
	"pharmacart/internal/repository/wishlistrepo"

	// Lógica de negócio
	"pharmacart/internal/service/adminservice"
	"pharmacart/internal/service/cartservice"
	"pharmacart/internal/service/catalogservice"
	"pharmacart/internal/service/contactservice"
	"pharmacart/internal/service/dashboardservice"
	"pharmacart/internal/service/inventoryservice"
	"pharmacart/internal/service/orderservice"
	"pharmacart/internal/service/otpservice"
	"pharmacart/internal/service/prescriptionservice"
	"pharmacart/internal/service/userservice"
	"pharmacart/internal/service/wishlistservice"
)

// @title PharmaCart API
// @version 1.0
// @description Farmácia e Mãe & Bebê: catálogo, estoque por lote, pedidos, receitas e painel.
// @BasePath /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// 0. CARREGAR VARIÁVEIS DE AMBIENTE (.env)
	// Sem .env seguimos com o ambiente do sistema (ex: Docker).
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ Aviso: Arquivo .env não encontrado ou erro de leitura. Carregando configs apenas do ambiente do sistema.")
	}

	// 1. Configuração e Logger
	cfg := config.LoadConfig()
	appLog := logger.NewLogger(cfg.LogLevel, cfg.Environment)
	defer appLog.Sync()
	appLog.Info("Inicializando serviço PharmaCart...", map[string]interface{}{"env": cfg.Environment})

	// 2. Conexão com Recursos de Infraestrutura

	// A. Banco de Dados (PostgreSQL)
	db, err := database.NewPostgresDB(cfg.DatabaseURL)
	if err != nil {
		appLog.Fatal("Falha ao conectar ao banco de dados.", err)
	}
	defer db.Close()
	appLog.Info("Conexão PostgreSQL estabelecida.", nil)
	tx := database.NewTransactor(db)

	// B. Cache (Redis). Sem Redis, o cache e o rate limit ficam em memória.
	var cacheClient cache.Client
	redisClient, err := cache.NewRedisClient(cfg.RedisAddr)
	if err != nil {
		appLog.Warn("Redis indisponível, usando cache em memória.", map[string]interface{}{"addr": cfg.RedisAddr, "error": err.Error()})
		cacheClient = cache.NewMemoryClient()
	} else {
		defer redisClient.Close()
		cacheClient = redisClient
		appLog.Info("Conexão Redis estabelecida.", nil)
	}

	// C. Eventos (Kafka)
	var publisher events.Publisher = events.NopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		kp := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaOrderTopic)
		defer kp.Close()
		publisher = kp
		appLog.Info("Publicação de eventos no Kafka ativada.", map[string]interface{}{"topic": cfg.KafkaOrderTopic})
	}

	// D. E-mail (SMTP)
	var mail mailer.Mailer = mailer.NopMailer{}
	if cfg.SMTPHost != "" {
		smtp, err := mailer.NewSMTPMailer(mailer.SMTPConfig{
			Host: cfg.SMTPHost, Port: cfg.SMTPPort, User: cfg.SMTPUser, Password: cfg.SMTPPassword, From: cfg.SMTPFrom,
		})
		if err != nil {
			appLog.Fatal("Falha ao preparar o envio de e-mails.", err)
		}
		mail = smtp
	} else {
		appLog.Warn("SMTP não configurado; e-mails serão descartados.", nil)
	}

	// E. Tokens (JWT)
	tokenSvc := token.NewService(cfg.JWTSecretKey, cfg.TokenExpiry)

	// 3. INJEÇÃO DE DEPENDÊNCIAS
	// Ordem: Repository -> Service -> Handler

	// A. Repositórios
	userRepo := userrepo.NewUserRepository(db, cfg.DBTimeout, appLog)
	adminRepo := adminrepo.NewAdminRepository(db, cfg.DBTimeout, appLog)
	otpRepo := otprepo.NewOTPRepository(db, cfg.DBTimeout, appLog)
	catalogRepo := catalogrepo.NewCatalogRepository(db, cacheClient, cfg.CacheTTL, cfg.DBTimeout, appLog)
	inventoryRepo := inventoryrepo.NewInventoryRepository(db, cfg.DBTimeout, appLog)
	orderRepo := orderrepo.NewOrderRepository(db, cfg.DBTimeout, appLog)
	cartRepo := cartrepo.NewCartRepository(db, cfg.DBTimeout, appLog)
	wishlistRepo := wishlistrepo.NewWishlistRepository(db, cfg.DBTimeout, appLog)
	prescriptionRepo := prescriptionrepo.NewPrescriptionRepository(db, cfg.DBTimeout, appLog)
	contactRepo := contactrepo.NewContactRepository(db, cfg.DBTimeout, appLog)
	reportRepo := reportrepo.NewReportRepository(db, cfg.DBTimeout, appLog)
	appLog.Debug("Repositórios inicializados.", nil)

	// B. Serviços
	userSvc := userservice.NewService(userRepo, tokenSvc, appLog)
	adminSvc := adminservice.NewService(adminRepo, tokenSvc, appLog)
	otpSvc := otpservice.NewService(adminRepo, otpRepo, tx, mail, appLog, otpservice.Config{
		TTL: cfg.OTPTTL, Cooldown: cfg.OTPCooldown, MaxAttempts: cfg.OTPMaxAttempts,
	})
	catalogSvc := catalogservice.NewService(catalogRepo, inventoryRepo, tx, appLog, cfg.LowStockThreshold)
	inventorySvc := inventoryservice.NewService(inventoryRepo, catalogRepo, appLog, cfg.LowStockThreshold)
	orderSvc := orderservice.NewService(orderservice.Repositories{
		Orders:        orderRepo,
		Inventory:     inventoryRepo,
		Catalog:       catalogRepo,
		Prescriptions: prescriptionRepo,
		Carts:         cartRepo,
		Tx:            tx,
	}, publisher, mail, appLog, orderservice.Config{
		LowStockThreshold: cfg.LowStockThreshold,
		RetryMax:          uint64(cfg.OrderRetryMax),
	})
	cartSvc := cartservice.NewService(cartRepo, catalogRepo, appLog)
	wishlistSvc := wishlistservice.NewService(wishlistRepo, catalogRepo, appLog)
	prescriptionSvc := prescriptionservice.NewService(prescriptionRepo, appLog)
	contactSvc := contactservice.NewService(contactRepo, mail, appLog, cfg.SupportEmail)
	dashboardSvc := dashboardservice.NewService(reportRepo, appLog, cfg.LowStockThreshold)
	appLog.Debug("Serviços inicializados.", nil)

	// Super admin inicial (opcional)
	bootCtx, bootCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := adminSvc.Bootstrap(bootCtx, cfg.AdminBootstrapEmail, cfg.AdminBootstrapPassword); err != nil {
		appLog.Error("Falha ao criar o super admin inicial.", err)
	}
	bootCancel()

	// C. Handlers
	handlers := router.Handlers{
		User:         user.NewHandler(userSvc, appLog),
		Admin:        admin.NewHandler(adminSvc, appLog),
		OTP:          otp.NewHandler(otpSvc, appLog),
		Products:     catalog.NewHandler(catalogSvc, domain.KindProduct, appLog),
		MotherBaby:   catalog.NewHandler(catalogSvc, domain.KindMotherBaby, appLog),
		Inventory:    inventory.NewHandler(inventorySvc, appLog),
		Orders:       order.NewHandler(orderSvc, appLog),
		Cart:         cart.NewHandler(cartSvc, appLog),
		Wishlist:     wishlist.NewHandler(wishlistSvc, appLog),
		Prescription: prescription.NewHandler(prescriptionSvc, appLog),
		Contact:      contact.NewHandler(contactSvc, appLog),
		Dashboard:    dashboard.NewHandler(dashboardSvc, appLog),
	}

	// 4. Configuração e Início do Roteador/Servidor
	r := router.NewRouter(handlers, router.Options{
		TokenSvc:        tokenSvc,
		Cache:           cacheClient,
		RateLimit:       cfg.RateLimitMaxRequests,
		RateLimitPeriod: cfg.RateLimitPeriod,
		Logger:          appLog,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 20 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// 5. Execução e Graceful Shutdown
	go func() {
		appLog.Info("Servidor PharmaCart ouvindo na porta", map[string]interface{}{"port": cfg.Port})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLog.Fatal("Servidor falhou.", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	appLog.Info("Sinal de encerramento recebido. Desligando servidor...", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		appLog.Error("Desligamento do servidor forçado.", err)
	}

	appLog.Info("Servidor encerrado com sucesso.", nil)
}
