package httpapi

import (
	"context"
	"net/http"

	"github.com/jssroberto/teraspot/internal/service"
	"go.uber.org/zap"
)

// BatchProcessor ingest pipeline entry point (*service.IngestService)
type BatchProcessor interface {
	Process(ctx context.Context, raw []byte) (*service.Result, error)
}

// IngestHandler POST /ingest
type IngestHandler struct {
	processor BatchProcessor
	logger    *zap.Logger
}

func NewIngestHandler(processor BatchProcessor, logger *zap.Logger) *IngestHandler {
	return &IngestHandler{processor: processor, logger: logger}
}

// Ingest body is the raw payload in any accepted shape
func (h *IngestHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r, maxBodyBytes)
	if err != nil {
		if isBodyTooLarge(err) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, "failed to read body")
		return
	}

	result, err := h.processor.Process(r.Context(), body)
	if err != nil {
		h.logger.Error("Ingest failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, result.StatusCode, result.Body())
}
