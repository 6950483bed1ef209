package httpapi

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Router plain http.ServeMux; method checks live in the handlers
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

// HandleHandler registers an http.Handler (promhttp etc.)
func (r *Router) HandleHandler(pattern string, h http.Handler) {
	r.mux.Handle(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// RegisterStatusRoutes read API over current state and history
func (r *Router) RegisterStatusRoutes(h *StatusHandler) {
	r.Handle("/status", method(http.MethodGet, h.GetStatus))
	r.Handle("/status/occupied", method(http.MethodGet, h.GetOccupied))
	r.Handle("/status/vacant", method(http.MethodGet, h.GetVacant))
	r.Handle("/status/stats", method(http.MethodGet, h.GetStats))
	r.Handle("/status/history", method(http.MethodGet, h.GetHistory))
}

// RegisterIngestRoutes HTTP entry point of the ingest pipeline
func (r *Router) RegisterIngestRoutes(h *IngestHandler) {
	r.Handle("/ingest", method(http.MethodPost, h.Ingest))
}

// RegisterConfigRoutes configuration store
func (r *Router) RegisterConfigRoutes(h *ConfigHandler) {
	r.Handle("/config", method(http.MethodPost, h.Config))
}

// RegisterAlertRoutes recent alerts from the streams
func (r *Router) RegisterAlertRoutes(h *AlertsHandler) {
	r.Handle("/alerts", method(http.MethodGet, h.GetAlerts))
}

// RegisterOpsRoutes health check and Prometheus scrape endpoint
func (r *Router) RegisterOpsRoutes() {
	r.Handle("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
	})
	r.HandleHandler("/metrics", promhttp.Handler())
}

func method(m string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if req.Method != m {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h(w, req)
	}
}
