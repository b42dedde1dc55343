package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/khoahotran/portfolio-editor/adapters/event"
	httpAdapter "github.com/khoahotran/portfolio-editor/adapters/http"
	"github.com/khoahotran/portfolio-editor/adapters/imaging"
	"github.com/khoahotran/portfolio-editor/adapters/persistence"
	"github.com/khoahotran/portfolio-editor/internal/application/service"
	authUC "github.com/khoahotran/portfolio-editor/internal/application/usecase/auth"
	editorUC "github.com/khoahotran/portfolio-editor/internal/application/usecase/editor"
	portfolioUC "github.com/khoahotran/portfolio-editor/internal/application/usecase/portfolio"
	"github.com/khoahotran/portfolio-editor/internal/config"
	"github.com/khoahotran/portfolio-editor/pkg/auth"
	"github.com/khoahotran/portfolio-editor/pkg/logger"
	"github.com/khoahotran/portfolio-editor/pkg/tracing"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := config.LoadConfig()
	appLogger := logger.NewZapLogger(cfg.App.Env)
	defer appLogger.Sync()
	if err != nil {
		appLogger.Fatal("cannot load config", err)
	}
	if err := cfg.Validate(); err != nil {
		appLogger.Fatal("invalid config", err)
	}
	appLogger.Info("Start Portfolio Editor API Server...", zap.String("env", cfg.App.Env))

	// Tracing
	tp, err := tracing.NewTracerProvider(cfg, appLogger, "portfolio-editor-api")
	if err != nil {
		appLogger.Fatal("cannot init tracer", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			appLogger.Error("Failed to shutdown tracer provider", err)
		}
	}()

	// Storage
	store, closeStore, err := persistence.NewKeyValueStore(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Fatal("cannot open portfolio storage", err)
	}
	defer closeStore()
	portfolioRepo := persistence.NewPortfolioRepo(store, cfg.Storage.Key, appLogger)
	previewStore := persistence.NewPreviewStore()

	// Events
	var publisher service.EventPublisher = event.NopPublisher{}
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaClient, err := event.NewKafkaProducerClient(cfg, appLogger)
		if err != nil {
			appLogger.Fatal("cannot init Kafka", err)
		}
		defer kafkaClient.Close()
		publisher = kafkaClient
	} else {
		appLogger.Warn("KAFKA_BROKERS not set, portfolio events will not be published")
	}

	// Services
	jwtSvc := auth.NewJWTService(cfg.Auth.JWTSecret, cfg.Auth.TokenLifespan)
	encoder := imaging.NewEncoder(cfg.Images.MaxDimension, cfg.Images.MaxEncodedBytes, appLogger)

	// Use Cases
	loginUseCase := authUC.NewLoginUseCase(cfg.Auth.OwnerPasswordHash, jwtSvc, appLogger)
	getPortfolioUseCase := portfolioUC.NewGetPortfolioUseCase(portfolioRepo)
	editorUseCase := editorUC.NewEditorUseCase(portfolioRepo, encoder, publisher, previewStore, appLogger, editorUC.Options{
		StorageKey:  cfg.Storage.Key,
		MaxDrafts:   cfg.Editor.MaxOpenDrafts,
		SaveTimeout: cfg.Editor.SaveTimeout,
	})

	// HTTP Handlers
	router := httpAdapter.NewRouter(httpAdapter.RouterDeps{
		AuthHandler:      httpAdapter.NewAuthHandler(loginUseCase, appLogger),
		DraftHandler:     httpAdapter.NewDraftHandler(editorUseCase, previewStore, appLogger),
		PortfolioHandler: httpAdapter.NewPortfolioHandler(getPortfolioUseCase, appLogger),
		JWTService:       jwtSvc,
		Logger:           appLogger,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		appLogger.Info("Server running", zap.String("port", cfg.App.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("Cannot run server", err)
		}
	}()

	<-ctx.Done()
	appLogger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Server forced to shutdown", err)
	}
}
