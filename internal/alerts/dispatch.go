package alerts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jssroberto/teraspot/internal/models"
	"go.uber.org/zap"
)

// ErrQueueNotConfigured the alert kind has no destination queue
var ErrQueueNotConfigured = errors.New("queue not configured")

// Sender delivers one message to a named queue
type Sender interface {
	Send(ctx context.Context, queue string, payload interface{}, attrs map[string]string) (string, error)
}

// Queues destination per alert kind plus the dead-letter queue
type Queues struct {
	LowConfidence string
	General       string
	DeadLetter    string
}

// For routes LOW_CONFIDENCE alerts to their own queue, the rest to General
func (q Queues) For(alert models.Alert) string {
	if alert.Type == models.AlertTypeLowConfidence {
		return q.LowConfidence
	}
	return q.General
}

// DispatchReport per-batch delivery outcome
type DispatchReport struct {
	Sent             int
	Failed           int
	DeadLettered     int
	DeadLetterFailed int
}

// Dispatcher sends alerts once each, dead-lettering failures
type Dispatcher struct {
	sender Sender
	queues Queues
	logger *zap.Logger
	now    func() time.Time
}

// NewDispatcher timestamps dead letters in UTC
func NewDispatcher(sender Sender, queues Queues, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		sender: sender,
		queues: queues,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// DispatchAlerts package-level form
func DispatchAlerts(ctx context.Context, alerts []models.Alert, sender Sender, queues Queues, logger *zap.Logger) DispatchReport {
	return NewDispatcher(sender, queues, logger).Dispatch(ctx, alerts)
}

// Dispatch attempts every alert exactly once
func (d *Dispatcher) Dispatch(ctx context.Context, alerts []models.Alert) DispatchReport {
	var report DispatchReport
	for _, alert := range alerts {
		err := d.send(ctx, alert)
		if err == nil {
			report.Sent++
			continue
		}

		report.Failed++
		d.logger.Warn("Alert send failed",
			zap.String("alert_id", alert.AlertID),
			zap.String("type", alert.Type),
			zap.Error(err),
		)

		if dlqErr := d.deadLetter(ctx, alert, err); dlqErr != nil {
			report.DeadLetterFailed++
			d.logger.Error("Failed to send alert to dead-letter queue",
				zap.String("alert_id", alert.AlertID),
				zap.Error(dlqErr),
			)
			continue
		}
		report.DeadLettered++
	}
	return report
}

func (d *Dispatcher) send(ctx context.Context, alert models.Alert) error {
	queue := d.queues.For(alert)
	if queue == "" {
		return fmt.Errorf("%s alert: %w", alert.Type, ErrQueueNotConfigured)
	}
	id, err := d.sender.Send(ctx, queue, alert, map[string]string{
		"alert_type": alert.Type,
		"severity":   alert.Severity,
	})
	if err != nil {
		return err
	}
	d.logger.Info("Alert sent",
		zap.String("queue", queue),
		zap.String("message_id", id),
		zap.String("type", alert.Type),
	)
	return nil
}

func (d *Dispatcher) deadLetter(ctx context.Context, alert models.Alert, cause error) error {
	if d.queues.DeadLetter == "" {
		return fmt.Errorf("dead-letter: %w", ErrQueueNotConfigured)
	}
	letter := models.DeadLetter{
		OriginalMessage: alert,
		ErrorReason:     cause.Error(),
		Timestamp:       d.now(),
	}
	_, err := d.sender.Send(ctx, d.queues.DeadLetter, letter, map[string]string{
		"alert_type": alert.Type,
		"severity":   alert.Severity,
	})
	return err
}
