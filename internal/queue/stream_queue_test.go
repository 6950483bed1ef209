package queue

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/jssroberto/teraspot/internal/alerts"
	"github.com/jssroberto/teraspot/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupQueue(t *testing.T) *StreamQueue {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewStreamQueue(client, zap.NewNop())
}

func TestStreamQueue_SendAndLatest(t *testing.T) {
	q := setupQueue(t)
	ctx := context.Background()

	_, err := q.Send(ctx, DefaultGeneralStream, map[string]string{"message": "first"}, map[string]string{"alert_type": "HIGH", "severity": "WARNING"})
	require.NoError(t, err)
	_, err = q.Send(ctx, DefaultGeneralStream, map[string]string{"message": "second"}, map[string]string{"alert_type": "CRITICAL", "severity": "CRITICAL"})
	require.NoError(t, err)

	msgs, err := q.Latest(ctx, DefaultGeneralStream, 10)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "CRITICAL", msgs[0].AlertType)
	assert.JSONEq(t, `{"message":"second"}`, string(msgs[0].Data))
	assert.NotZero(t, msgs[1].Timestamp)
}

func TestStreamQueue_LatestEmpty(t *testing.T) {
	msgs, err := setupQueue(t).Latest(context.Background(), "nothing-here", 0)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestStreamQueue_AsAlertSender(t *testing.T) {
	q := setupQueue(t)
	ctx := context.Background()
	queues := alerts.Queues{
		LowConfidence: DefaultLowConfidenceStream,
		General:       DefaultGeneralStream,
		DeadLetter:    DefaultDeadLetterStream,
	}

	batch := []models.SpaceItem{{SpaceID: "A-01", Status: models.StatusOccupied, Confidence: 0.6}}
	stats := models.CountOccupancy(batch)
	generated := alerts.GenerateAlerts(batch, &stats, time.Now().UTC())

	report := alerts.DispatchAlerts(ctx, generated, q, queues, zap.NewNop())
	assert.Equal(t, alerts.DispatchReport{Sent: 2}, report)

	low, err := q.Latest(ctx, DefaultLowConfidenceStream, 10)
	require.NoError(t, err)
	require.Len(t, low, 1)
	assert.Equal(t, models.AlertTypeLowConfidence, low[0].AlertType)

	general, err := q.Latest(ctx, DefaultGeneralStream, 10)
	require.NoError(t, err)
	require.Len(t, general, 1)
	assert.Equal(t, models.SeverityCritical, general[0].Severity)
}
