package service

import (
	"context"
	"net/http"
	"time"

	"github.com/jssroberto/teraspot/internal/alerts"
	"github.com/jssroberto/teraspot/internal/metrics"
	"github.com/jssroberto/teraspot/internal/models"
	"github.com/jssroberto/teraspot/internal/parser"
	"github.com/jssroberto/teraspot/internal/qa"

	"go.uber.org/zap"
)

// CurrentStore current-state table
type CurrentStore interface {
	alerts.Scanner
	Put(ctx context.Context, item models.SpaceItem) error
}

// HistoryStore history table
type HistoryStore interface {
	Save(ctx context.Context, item models.SpaceItem) error
}

// AlertDispatcher delivers a batch of alerts
type AlertDispatcher interface {
	Dispatch(ctx context.Context, alerts []models.Alert) alerts.DispatchReport
}

// Result outcome of one ingest batch
type Result struct {
	StatusCode int
	Error      string
	Items      int
	Alerts     int
	Rejected   int
	Stats      *models.OccupancyStats
	Report     alerts.DispatchReport
}

// Body response document for the batch
func (r *Result) Body() map[string]interface{} {
	switch {
	case r.StatusCode == http.StatusOK:
		return map[string]interface{}{
			"success":  true,
			"items":    r.Items,
			"alerts":   r.Alerts,
			"rejected": r.Rejected,
		}
	case r.Items == 0 && r.Rejected > 0:
		return map[string]interface{}{"error": r.Error, "rejected": r.Rejected}
	default:
		return map[string]interface{}{"error": r.Error}
	}
}

// IngestService parse -> validate -> persist -> occupancy -> alerts -> dispatch.
// One batch is processed sequentially.
type IngestService struct {
	parser     *parser.Parser
	validator  *qa.Validator
	current    CurrentStore
	history    HistoryStore
	dispatcher AlertDispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// NewIngestService wires the pipeline stages around injected stores
func NewIngestService(current CurrentStore, history HistoryStore, dispatcher AlertDispatcher, logger *zap.Logger) *IngestService {
	return &IngestService{
		parser:     parser.New(),
		validator:  qa.NewValidator(logger),
		current:    current,
		history:    history,
		dispatcher: dispatcher,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Process handles one raw payload. Input and validation problems are
// reported in the Result; the returned error is reserved for failures that
// abort the batch (context cancelled).
func (s *IngestService) Process(ctx context.Context, raw []byte) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// 1. normalize
	payload := s.parser.ParseEvents(parser.ExtractRawPayload(raw))
	if payload.IsEmpty() {
		s.logger.Error("Empty or invalid payload", zap.String("kind", payload.Kind.String()))
		metrics.BatchesTotal.WithLabelValues("empty").Inc()
		return &Result{StatusCode: http.StatusBadRequest, Error: "No events"}, nil
	}

	// 2. enrich + validate
	items := make([]models.SpaceItem, 0, len(payload.Events))
	rejected := 0
	for _, ev := range payload.Events {
		item, err := s.validator.Check(ev)
		if err != nil {
			rejected++
			s.logger.Warn("Rejected event",
				zap.String("space_id", ev.String("space_id")),
				zap.String("reason", err.Error()),
			)
			continue
		}
		items = append(items, item)
	}
	metrics.EventsTotal.WithLabelValues("accepted").Add(float64(len(items)))
	metrics.EventsTotal.WithLabelValues("rejected").Add(float64(rejected))

	if len(items) == 0 {
		s.logger.Error("No valid items", zap.Int("rejected", rejected))
		metrics.BatchesTotal.WithLabelValues("rejected").Inc()
		return &Result{StatusCode: http.StatusBadRequest, Error: "No items", Rejected: rejected}, nil
	}

	// 3. persist, per item, failures logged
	s.saveCurrent(ctx, items)
	s.saveHistory(ctx, items)
	if err := ctx.Err(); err != nil {
		metrics.BatchesTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	// 4. occupancy over the whole table, batch count as fallback
	stats, err := alerts.CurrentOccupancy(ctx, s.current)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			metrics.BatchesTotal.WithLabelValues("error").Inc()
			return nil, ctxErr
		}
		s.logger.Warn("Occupancy scan failed, using batch counts", zap.Error(err))
		stats = models.CountOccupancy(items)
	}
	metrics.OccupancyRatio.Set(stats.Ratio())

	// 5. alerts
	generated := alerts.GenerateAlerts(items, &stats, s.now())
	for _, a := range generated {
		metrics.AlertsTotal.WithLabelValues(a.Type).Inc()
	}

	// 6. dispatch
	report := s.dispatcher.Dispatch(ctx, generated)
	metrics.RecordDispatch(report)

	s.logger.Info("Batch complete",
		zap.String("kind", payload.Kind.String()),
		zap.Int("items", len(items)),
		zap.Int("alerts", len(generated)),
		zap.Int("rejected", rejected),
		zap.Int("occupied", stats.Occupied),
		zap.Int("total", stats.Total),
	)
	metrics.BatchesTotal.WithLabelValues("ok").Inc()

	return &Result{
		StatusCode: http.StatusOK,
		Items:      len(items),
		Alerts:     len(generated),
		Rejected:   rejected,
		Stats:      &stats,
		Report:     report,
	}, nil
}

func (s *IngestService) saveCurrent(ctx context.Context, items []models.SpaceItem) {
	for _, item := range items {
		if err := s.current.Put(ctx, item); err != nil {
			metrics.PersistErrors.WithLabelValues("current").Inc()
			s.logger.Error("Current save error", zap.String("space_id", item.SpaceID), zap.Error(err))
			continue
		}
		s.logger.Debug("Current state saved", zap.String("space_id", item.SpaceID), zap.String("status", item.Status))
	}
}

func (s *IngestService) saveHistory(ctx context.Context, items []models.SpaceItem) {
	for _, item := range items {
		if err := s.history.Save(ctx, item); err != nil {
			metrics.PersistErrors.WithLabelValues("history").Inc()
			s.logger.Error("History save error", zap.String("space_id", item.SpaceID), zap.Error(err))
			continue
		}
		s.logger.Debug("History entry saved", zap.String("space_id", item.SpaceID), zap.String("timestamp", item.Timestamp))
	}
}
