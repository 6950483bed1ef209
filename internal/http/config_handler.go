package httpapi

import (
	"net/http"

	"github.com/jssroberto/teraspot/internal/service"
	"go.uber.org/zap"
)

// ConfigHandler POST /config, {"action": "SAVE"|"GET"|"LIST", ...}
type ConfigHandler struct {
	configs *service.ConfigService
	logger  *zap.Logger
}

func NewConfigHandler(configs *service.ConfigService, logger *zap.Logger) *ConfigHandler {
	return &ConfigHandler{configs: configs, logger: logger}
}

func (h *ConfigHandler) Config(w http.ResponseWriter, r *http.Request) {
	var req service.ConfigRequest
	if err := readBodyJSON(w, r, maxBodyBytes, &req); err != nil {
		if isBodyTooLarge(err) {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]any{"success": false, "error": "request body too large"})
			return
		}
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "invalid JSON body"})
		return
	}

	resp := h.configs.Handle(r.Context(), req)
	writeJSON(w, resp.StatusCode, resp.Body)
}
