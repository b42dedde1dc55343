package main

import (
	"context"
	"encoding/json"
	"errors"
	"os/signal"
	"syscall"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/khoahotran/portfolio-editor/adapters/event"
	"github.com/khoahotran/portfolio-editor/adapters/media_storage"
	"github.com/khoahotran/portfolio-editor/adapters/persistence"
	backupUC "github.com/khoahotran/portfolio-editor/internal/application/usecase/backup"
	"github.com/khoahotran/portfolio-editor/internal/config"
	"github.com/khoahotran/portfolio-editor/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Configuration
	cfg, err := config.LoadConfig()
	appLogger := logger.NewZapLogger(cfg.App.Env).With(zap.String("component", "worker"))
	defer appLogger.Sync()
	if err != nil {
		appLogger.Fatal("cannot load config", err)
	}
	if len(cfg.Kafka.Brokers) == 0 {
		appLogger.Fatal("KAFKA_BROKERS is required for the worker", nil)
	}
	appLogger.Info("Starting Portfolio Backup Worker...")

	// Storage
	store, closeStore, err := persistence.NewKeyValueStore(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Fatal("cannot open portfolio storage", err)
	}
	defer closeStore()
	portfolioRepo := persistence.NewPortfolioRepo(store, cfg.Storage.Key, appLogger)

	// Cloudinary Uploader
	uploader, err := media_storage.NewCloudinaryAdapter(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize uploader", err)
	}

	// Worker Use Case
	backupUseCase := backupUC.NewBackupUseCase(portfolioRepo, uploader, appLogger)

	// Kafka Consumer
	consumer := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Kafka.Brokers,
		Topic:    event.TopicPortfolioEvents,
		GroupID:  cfg.Kafka.GroupID,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	defer consumer.Close()

	appLogger.Info("Worker listening", zap.String("topic", event.TopicPortfolioEvents), zap.String("group_id", cfg.Kafka.GroupID))

	for {
		msg, err := consumer.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				appLogger.Info("Worker stopped")
				return
			}
			appLogger.Error("Failed to read message from Kafka", err)
			continue
		}

		l := appLogger.With(zap.String("topic", msg.Topic), zap.Int64("offset", msg.Offset))

		var payload event.PortfolioEventPayload
		if err := json.Unmarshal(msg.Value, &payload); err != nil {
			l.Error("Failed to unmarshal event, skipping", err)
			commitMessage(ctx, consumer, msg, l)
			continue
		}

		l.Info("Processing event", zap.String("event_type", string(payload.EventType)), zap.Strings("changed_slots", payload.ChangedSlots))

		if _, err := backupUseCase.Execute(ctx, payload); err != nil {
			l.Error("Failed to back up portfolio", err)
		}

		commitMessage(ctx, consumer, msg, l)
	}
}

func commitMessage(ctx context.Context, consumer *kafka.Reader, msg kafka.Message, log logger.Logger) {
	if err := consumer.CommitMessages(ctx, msg); err != nil {
		log.Error("Failed to commit message", err)
	}
}
