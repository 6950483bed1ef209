package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/jssroberto/teraspot/internal/models"
	"github.com/jssroberto/teraspot/internal/repository"
	"github.com/jssroberto/teraspot/internal/service"
	"go.uber.org/zap"
)

// StatusHandler GET /status*
type StatusHandler struct {
	status *service.StatusService
	logger *zap.Logger
}

func NewStatusHandler(status *service.StatusService, logger *zap.Logger) *StatusHandler {
	return &StatusHandler{status: status, logger: logger}
}

// GetStatus all spaces with a summary, or one space with ?space_id=
func (h *StatusHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	if spaceID := strings.TrimSpace(r.URL.Query().Get("space_id")); spaceID != "" {
		item, err := h.status.Space(r.Context(), spaceID)
		if errors.Is(err, models.ErrNotFound) {
			writeError(w, http.StatusNotFound, fmt.Sprintf("Space %s not found", spaceID))
			return
		}
		if err != nil {
			h.fail(w, "Failed to get space", err)
			return
		}
		writeJSON(w, http.StatusOK, item)
		return
	}

	all, err := h.status.All(r.Context())
	if err != nil {
		h.fail(w, "Failed to list spaces", err)
		return
	}
	writeJSON(w, http.StatusOK, all)
}

func (h *StatusHandler) GetOccupied(w http.ResponseWriter, r *http.Request) {
	h.byStatus(w, r, models.StatusOccupied, "occupied_spaces")
}

func (h *StatusHandler) GetVacant(w http.ResponseWriter, r *http.Request) {
	h.byStatus(w, r, models.StatusVacant, "vacant_spaces")
}

func (h *StatusHandler) byStatus(w http.ResponseWriter, r *http.Request, status, key string) {
	items, err := h.status.ByStatus(r.Context(), status)
	if err != nil {
		h.fail(w, "Failed to list spaces by status", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{key: items, "count": len(items)})
}

func (h *StatusHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.status.Stats(r.Context())
	if err != nil {
		h.fail(w, "Failed to compute statistics", err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// GetHistory ?space_id=&limit=&format=json|xlsx
func (h *StatusHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	spaceID := strings.TrimSpace(q.Get("space_id"))
	if spaceID == "" {
		writeError(w, http.StatusBadRequest, "space_id is required")
		return
	}
	limit := parseInt(q.Get("limit"), repository.DefaultHistoryLimit)

	entries, err := h.status.History(r.Context(), spaceID, limit)
	if err != nil {
		h.fail(w, "Failed to list history", err)
		return
	}

	if strings.EqualFold(q.Get("format"), "xlsx") {
		data, err := GenerateHistoryExport(entries)
		if err != nil {
			h.fail(w, "Failed to export history", err)
			return
		}
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="history_%s.xlsx"`, spaceID))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"space_id": spaceID, "history": entries, "count": len(entries)})
}

func (h *StatusHandler) fail(w http.ResponseWriter, msg string, err error) {
	h.logger.Error(msg, zap.Error(err))
	writeError(w, http.StatusInternalServerError, err.Error())
}
