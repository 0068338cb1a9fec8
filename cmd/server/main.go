package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"storefront/config"
	"storefront/internal/api"
	"storefront/internal/auth"
	"storefront/internal/broker"
	"storefront/internal/notify"
	"storefront/internal/payment"
	"storefront/internal/redisclient"
	"storefront/internal/service"
	"storefront/internal/store"
	"storefront/internal/util"
	"storefront/internal/worker"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting storefront service")

	tp, err := util.InitTracer("storefront", cfg.Observ.JaegerEndpoint)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("Error shutting down tracer: %v", err)
		}
	}()

	db, err := store.NewStore(cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Database connected")

	redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Redis connected")

	producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicOrderEvents)
	defer producer.Close()
	log.Println("Kafka producer initialized")

	eventPublisher := broker.NewEventPublisher(producer)

	if err := os.MkdirAll(cfg.Server.UploadDir, 0o755); err != nil {
		log.Fatalf("Failed to create upload dir: %v", err)
	}

	tokenTTL := time.Duration(cfg.Auth.TokenTTLHours) * time.Hour
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, tokenTTL)
	authMW := auth.NewMiddleware(tokens, redisClient)

	gateway := payment.NewGateway(
		cfg.Payment.SecretKey,
		cfg.Payment.SessionURL,
		cfg.Payment.MethodsURL,
		cfg.Payment.SuccessURL,
		cfg.Payment.CancelURL,
		cfg.Server.BaseURL,
	)
	verifier := payment.NewWebhookVerifier(cfg.Payment.WebhookSecret)
	mailer := notify.NewMailer(cfg.Email.APIKey, cfg.Email.APIURL, cfg.Email.Sender)

	statsTTL := time.Duration(cfg.Catalog.StatsCacheTTLSecs) * time.Second

	catalogService := service.NewCatalogService(db, redisClient)
	cartService := service.NewCartService(db)
	orderService := service.NewOrderService(db, redisClient, eventPublisher, gateway)
	inventoryService := service.NewInventoryService(db, eventPublisher, cfg.Catalog.LowStockThreshold)
	accountService := service.NewAccountService(db, redisClient, tokens)
	reportService := service.NewReportService(db, redisClient, cfg.Catalog.LowStockThreshold, statsTTL)

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	notifyConsumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicOrderEvents, cfg.Kafka.ConsumerGroup)
	notificationWorker := worker.NewNotificationWorker(notifyConsumer, db, mailer, cfg.Email.AdminAlerts)
	go func() {
		if err := notificationWorker.Start(workerCtx); err != nil {
			log.Printf("Notification worker error: %v", err)
		}
	}()

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()
	handler := api.NewHandler(
		catalogService,
		cartService,
		orderService,
		inventoryService,
		accountService,
		reportService,
		authMW,
		verifier,
		cfg.Server.UploadDir,
		tokenTTL,
	)
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Printf("Starting HTTP server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	workerCancel()
	notificationWorker.Stop()

	log.Println("Server exited")
}
