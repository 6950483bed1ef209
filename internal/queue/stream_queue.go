package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/go-redis/redis/v8"
	rediscommon "github.com/jssroberto/teraspot/common/redis"
	"go.uber.org/zap"
)

// Default stream names
const (
	DefaultLowConfidenceStream = "teraspot:alerts:low-confidence"
	DefaultGeneralStream       = "teraspot:alerts:general"
	DefaultDeadLetterStream    = "teraspot:alerts:dlq"
)

// Message one queued entry as read back from a stream
type Message struct {
	ID        string          `json:"id"`
	AlertType string          `json:"alert_type,omitempty"`
	Severity  string          `json:"severity,omitempty"`
	Timestamp int64           `json:"timestamp,omitempty"`
	Data      json.RawMessage `json:"data"`
}

// StreamQueue alert queues on Redis Streams. Each queue name is a stream key.
type StreamQueue struct {
	client *redis.Client
	logger *zap.Logger
}

// NewStreamQueue wraps a go-redis client
func NewStreamQueue(client *redis.Client, logger *zap.Logger) *StreamQueue {
	return &StreamQueue{client: client, logger: logger}
}

// Send XADDs payload as JSON under "data"; attrs become sibling fields
func (q *StreamQueue) Send(ctx context.Context, queue string, payload interface{}, attrs map[string]string) (string, error) {
	id, err := rediscommon.PublishJSONToStream(ctx, q.client, queue, payload, attrs)
	if err != nil {
		return "", fmt.Errorf("failed to publish to stream %s: %w", queue, err)
	}
	return id, nil
}

// Latest newest-first entries of one queue
func (q *StreamQueue) Latest(ctx context.Context, queue string, limit int64) ([]Message, error) {
	if limit <= 0 {
		limit = 50
	}
	entries, err := rediscommon.ReadLatest(ctx, q.client, queue, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to read stream %s: %w", queue, err)
	}

	out := make([]Message, 0, len(entries))
	for _, e := range entries {
		msg := Message{ID: e.ID}
		if v, ok := e.Values["alert_type"].(string); ok {
			msg.AlertType = v
		}
		if v, ok := e.Values["severity"].(string); ok {
			msg.Severity = v
		}
		if v, ok := e.Values["timestamp"].(string); ok {
			msg.Timestamp, _ = strconv.ParseInt(v, 10, 64)
		}
		data, _ := e.Values["data"].(string)
		if json.Valid([]byte(data)) {
			msg.Data = json.RawMessage(data)
		} else {
			q.logger.Warn("Stream entry without valid data", zap.String("stream", queue), zap.String("id", e.ID))
			msg.Data = json.RawMessage("null")
		}
		out = append(out, msg)
	}
	return out, nil
}
