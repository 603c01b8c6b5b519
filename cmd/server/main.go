package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"smrt/config"
	"smrt/internal/api"
	"smrt/internal/broker"
	"smrt/internal/migrate"
	"smrt/internal/redisclient"
	"smrt/internal/service"
	"smrt/internal/store"
	"smrt/internal/util"
	"smrt/internal/worker"

	"github.com/gin-gonic/gin"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := util.InitLogger(cfg.Server.Env, cfg.Server.LogLevel); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting storefront service", zap.String("env", cfg.Server.Env))

	tp, err := util.InitTracer(util.ServiceName, cfg.Observ.JaegerEndpoint)
	if err != nil {
		logger.Fatal("Failed to initialize tracer", zap.Error(err))
	}

	db, err := store.NewStore(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	logger.Info("Database connected")

	startupCtx, startupCancel := context.WithTimeout(context.Background(), time.Minute)
	if err := migrate.MaybeAutoMigrate(startupCtx, cfg.Database.AutoMigrate, db.GetDB().DB, logger); err != nil {
		startupCancel()
		logger.Fatal("Failed to migrate database", zap.Error(err))
	}
	startupCancel()

	redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	logger.Info("Redis connected")

	producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicStore)
	logger.Info("Kafka producer initialized", zap.String("topic", cfg.Kafka.TopicStore))

	eventPublisher := broker.NewEventPublisher(producer)

	orderService := service.NewOrderService(db, eventPublisher)
	services := api.Services{
		Catalog:   service.NewCatalogService(db),
		Orders:    orderService,
		Reviews:   service.NewReviewService(db, eventPublisher),
		Customers: service.NewCustomerService(db),
		Marketing: service.NewMarketingService(db),
	}

	checkoutHandler := service.NewCheckoutEventHandler(service.CheckoutDeps{
		Transitioner: orderService,
		Lookup:       db,
		Keys:         redisClient,
	})

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	paymentConsumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicPayment, cfg.Kafka.ConsumerGroup)
	checkoutWorker := worker.NewCheckoutWorker(paymentConsumer, checkoutHandler)
	go func() {
		if err := checkoutWorker.Start(workerCtx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Checkout worker error", zap.Error(err))
		}
	}()

	if cfg.Server.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handler := api.NewHandler(services, db, db, cfg.Site)
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	var shutdownErr error
	multierr.AppendInto(&shutdownErr, srv.Shutdown(shutdownCtx))

	workerCancel()
	multierr.AppendInto(&shutdownErr, checkoutWorker.Stop())
	multierr.AppendInto(&shutdownErr, producer.Close())
	multierr.AppendInto(&shutdownErr, redisClient.Close())
	multierr.AppendInto(&shutdownErr, tp.Shutdown(shutdownCtx))
	multierr.AppendInto(&shutdownErr, db.Close())

	for _, err := range multierr.Errors(shutdownErr) {
		logger.Error("Shutdown error", zap.Error(err))
	}
	logger.Info("Server exited")
}
