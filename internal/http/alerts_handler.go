package httpapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jssroberto/teraspot/internal/queue"
	"go.uber.org/zap"
)

// AlertReader read side of the alert streams (*queue.StreamQueue)
type AlertReader interface {
	Latest(ctx context.Context, stream string, limit int64) ([]queue.Message, error)
}

// AlertsHandler GET /alerts?queue=low-confidence|general|dlq&limit=
type AlertsHandler struct {
	reader  AlertReader
	streams map[string]string
	logger  *zap.Logger
}

// NewAlertsHandler streams maps the public queue name to the stream key
func NewAlertsHandler(reader AlertReader, streams map[string]string, logger *zap.Logger) *AlertsHandler {
	return &AlertsHandler{reader: reader, streams: streams, logger: logger}
}

func (h *AlertsHandler) GetAlerts(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("queue")
	if name == "" {
		name = "general"
	}
	stream, ok := h.streams[name]
	if !ok {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Unknown queue: %s", name))
		return
	}

	msgs, err := h.reader.Latest(r.Context(), stream, int64(parseInt(r.URL.Query().Get("limit"), 50)))
	if err != nil {
		h.logger.Error("Failed to read alerts", zap.String("stream", stream), zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if msgs == nil {
		msgs = []queue.Message{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"queue": name, "alerts": msgs, "count": len(msgs)})
}
