package consumer

import (
	"context"
	"fmt"
	"net/http"
	"time"

	mqttcommon "github.com/jssroberto/teraspot/common/mqtt"
	"github.com/jssroberto/teraspot/internal/service"
	"go.uber.org/zap"
)

// DefaultProcessTimeout bounds one batch handled from a message
const DefaultProcessTimeout = 30 * time.Second

// Subscriber MQTT subscribe side (*mqttcommon.Client)
type Subscriber interface {
	Subscribe(topic string, qos byte, handler mqttcommon.MessageHandler) error
	Unsubscribe(topics ...string) error
}

// BatchProcessor ingest pipeline entry point (*service.IngestService)
type BatchProcessor interface {
	Process(ctx context.Context, raw []byte) (*service.Result, error)
}

// MQTTConsumer feeds edge status messages into the ingest pipeline
type MQTTConsumer struct {
	subscriber Subscriber
	processor  BatchProcessor
	topic      string
	qos        byte
	timeout    time.Duration
	baseCtx    context.Context
	logger     *zap.Logger
}

// NewMQTTConsumer topic may contain wildcards, e.g. teraspot/+/+/+/status
func NewMQTTConsumer(subscriber Subscriber, processor BatchProcessor, topic string, qos byte, logger *zap.Logger) *MQTTConsumer {
	return &MQTTConsumer{
		subscriber: subscriber,
		processor:  processor,
		topic:      topic,
		qos:        qos,
		timeout:    DefaultProcessTimeout,
		baseCtx:    context.Background(),
		logger:     logger,
	}
}

// Start subscribes and blocks until ctx is cancelled
func (c *MQTTConsumer) Start(ctx context.Context) error {
	c.baseCtx = ctx

	if err := c.subscriber.Subscribe(c.topic, c.qos, c.handleMessage); err != nil {
		return fmt.Errorf("failed to subscribe to status topic: %w", err)
	}

	c.logger.Info("MQTT consumer started", zap.String("topic", c.topic))

	<-ctx.Done()
	return nil
}

// Stop unsubscribes
func (c *MQTTConsumer) Stop(ctx context.Context) error {
	if err := c.subscriber.Unsubscribe(c.topic); err != nil {
		c.logger.Error("Failed to unsubscribe", zap.Error(err))
	}

	c.logger.Info("MQTT consumer stopped")
	return nil
}

// handleMessage one message = one ingest batch
func (c *MQTTConsumer) handleMessage(topic string, payload []byte) error {
	c.logger.Debug("Received MQTT message",
		zap.String("topic", topic),
		zap.Int("payload_size", len(payload)),
	)

	ctx, cancel := context.WithTimeout(c.baseCtx, c.timeout)
	defer cancel()

	result, err := c.processor.Process(ctx, payload)
	if err != nil {
		return fmt.Errorf("failed to process message from %s: %w", topic, err)
	}

	if result.StatusCode != http.StatusOK {
		c.logger.Warn("Batch not ingested",
			zap.String("topic", topic),
			zap.Int("status_code", result.StatusCode),
			zap.String("error", result.Error),
			zap.Int("rejected", result.Rejected),
		)
		return nil
	}

	c.logger.Info("Batch ingested",
		zap.String("topic", topic),
		zap.Int("items", result.Items),
		zap.Int("rejected", result.Rejected),
		zap.Int("alerts", result.Alerts),
	)
	return nil
}
