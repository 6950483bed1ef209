package edge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jssroberto/teraspot/internal/detector"
	"github.com/jssroberto/teraspot/internal/metrics"
	"github.com/jssroberto/teraspot/internal/models"
	"go.uber.org/zap"
)

// SnapshotSource produces one snapshot per cycle (*detector.Processor or *MockSource)
type SnapshotSource interface {
	DetectParkingSpaces(ctx context.Context, totalSpaces int) (*models.Snapshot, error)
	DataSource() string
	Close() error
}

// Transport MQTT publish side (*mqtt.Client)
type Transport interface {
	Publish(topic string, qos byte, retained bool, payload []byte) error
	Disconnect()
}

// Options publisher loop settings
type Options struct {
	Topic      string
	Spaces     int
	Iterations int // -1 = run until the context is cancelled
	Interval   time.Duration
	DeviceID   string
	FacilityID string
	ZoneID     string
}

// Publisher detect -> diff -> publish -> wait
type Publisher struct {
	source    SnapshotSource
	transport Transport
	tracker   *SpaceStateTracker
	options   Options
	logger    *zap.Logger
	now       func() time.Time
}

// NewPublisher creates the edge publisher
func NewPublisher(source SnapshotSource, transport Transport, options Options, logger *zap.Logger) *Publisher {
	return &Publisher{
		source:    source,
		transport: transport,
		tracker:   NewSpaceStateTracker(),
		options:   options,
		logger:    logger,
		now:       time.Now,
	}
}

// Run publishes until the iteration count is reached, the context is
// cancelled or the frame source is exhausted. The source is closed and the
// transport disconnected before returning.
func (p *Publisher) Run(ctx context.Context) error {
	defer func() {
		if err := p.source.Close(); err != nil {
			p.logger.Warn("Failed to close snapshot source", zap.Error(err))
		}
		p.transport.Disconnect()
		p.logger.Info("Edge publisher stopped")
	}()

	p.logger.Info("Edge publisher started",
		zap.String("topic", p.options.Topic),
		zap.Int("spaces", p.options.Spaces),
		zap.Int("iterations", p.options.Iterations),
		zap.Duration("interval", p.options.Interval),
		zap.String("data_source", p.source.DataSource()),
	)

	for i := 0; p.options.Iterations < 0 || i < p.options.Iterations; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(p.options.Interval):
			}
		}
		if ctx.Err() != nil {
			return nil
		}

		if err := p.cycle(ctx, i+1); err != nil {
			if errors.Is(err, detector.ErrSourceExhausted) {
				metrics.EdgePublishTotal.WithLabelValues("error").Inc()
				return err
			}
			if ctx.Err() != nil {
				return nil
			}
			metrics.EdgePublishTotal.WithLabelValues("error").Inc()
			p.logger.Error("Edge cycle failed", zap.Int("iteration", i+1), zap.Error(err))
		}
	}
	return nil
}

// cycle one detect/diff/publish pass
func (p *Publisher) cycle(ctx context.Context, iteration int) error {
	// 1. snapshot
	snapshot, err := p.source.DetectParkingSpaces(ctx, p.options.Spaces)
	if err != nil {
		return fmt.Errorf("failed to detect parking spaces: %w", err)
	}

	// 2. diff
	changes := p.tracker.DetectChanges(snapshot)
	if len(changes) == 0 {
		metrics.EdgePublishTotal.WithLabelValues("skipped").Inc()
		p.logger.Debug("No state changes detected, skipping publish", zap.Int("iteration", iteration))
		return nil
	}

	// 3. payload
	events := BuildChangePayload(changes, Metadata{
		DeviceID:   p.options.DeviceID,
		FacilityID: p.options.FacilityID,
		ZoneID:     p.options.ZoneID,
		DataSource: p.source.DataSource(),
	}, p.now())
	payload, err := json.Marshal(events)
	if err != nil {
		return fmt.Errorf("failed to marshal change events: %w", err)
	}

	// 4. publish, QoS 1
	if err := p.transport.Publish(p.options.Topic, 1, false, payload); err != nil {
		return fmt.Errorf("failed to publish change events: %w", err)
	}
	metrics.EdgePublishTotal.WithLabelValues("published").Inc()

	fields := []zap.Field{
		zap.Int("iteration", iteration),
		zap.Int("changes", len(events)),
		zap.Int("occupied", snapshot.TotalOccupied),
		zap.Int("vacant", snapshot.TotalVacant),
	}
	if snapshot.DetectionsCount != nil {
		fields = append(fields, zap.Int("detections", *snapshot.DetectionsCount))
	}
	p.logger.Info("Published state changes", fields...)
	return nil
}
