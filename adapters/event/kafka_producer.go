package event

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/khoahotran/portfolio-editor/internal/config"
	"github.com/khoahotran/portfolio-editor/pkg/logger"
)

const (
	TopicPortfolioEvents = "portfolio.events"
)

type KafkaProducerClient struct {
	PortfolioEventsWriter *kafka.Writer
	logger                logger.Logger
}

func NewKafkaProducerClient(cfg config.Config, log logger.Logger) (*KafkaProducerClient, error) {
	brokers := cfg.Kafka.Brokers
	if len(brokers) == 0 {
		return nil, fmt.Errorf("config Kafka brokers not found")
	}

	// writer 'portfolio.events'
	portfolioWriter := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  TopicPortfolioEvents,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}

	log.Info("Initialize Kafka Producers successfully.", zap.Strings("brokers", brokers))

	return &KafkaProducerClient{
		PortfolioEventsWriter: portfolioWriter,
		logger:                log,
	}, nil
}

func (c *KafkaProducerClient) PublishPortfolioEvent(ctx context.Context, payload PortfolioEventPayload) error {
	value, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal portfolio event: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(payload.StorageKey),
		Value: value,
	}
	if err := c.PortfolioEventsWriter.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write portfolio event: %w", err)
	}
	return nil
}

func (c *KafkaProducerClient) Close() {
	if c.PortfolioEventsWriter != nil {
		if err := c.PortfolioEventsWriter.Close(); err != nil {
			c.logger.Error("Failed to close portfolio events writer", err)
		}
	}
	c.logger.Info("Closed Kafka Producers")
}

// NopPublisher drops every event. Used when no brokers are configured.
type NopPublisher struct{}

func (NopPublisher) PublishPortfolioEvent(context.Context, PortfolioEventPayload) error {
	return nil
}
