package server

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/nowplaying/internal/formatter"
	"github.com/desertthunder/nowplaying/internal/models"
	"github.com/desertthunder/nowplaying/internal/services"
	"github.com/desertthunder/nowplaying/internal/shared"
	"github.com/desertthunder/nowplaying/internal/status"
	"github.com/desertthunder/nowplaying/internal/tasks"
)

// NowPlayingHandler serves the cached status text as a JSON string.
//
// It never waits on the upstream: every request reads whatever the poller last published.
type NowPlayingHandler struct {
	cache  *status.Cache
	logger *log.Logger
}

// NewNowPlayingHandler creates a handler reading from cache.
func NewNowPlayingHandler(cache *status.Cache, logger *log.Logger) *NowPlayingHandler {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &NowPlayingHandler{cache: cache, logger: logger}
}

func (h *NowPlayingHandler) Routes() []string {
	return []string{services.NowPlayingPath}
}

func (h *NowPlayingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := formatter.StatusJSON(h.cache.Current())
	if err != nil {
		h.logger.Error("failed to encode status", "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	writeJSON(w, body)
}

// RefresherStatus exposes the outcome of the latest credential refresh.
type RefresherStatus interface {
	State() tasks.RefresherState
}

// HealthHandler reports refresher health and cache freshness. It always answers 200;
// a degraded refresher shows up in the body rather than the status code.
type HealthHandler struct {
	cache     *status.Cache
	refresher RefresherStatus
	logger    *log.Logger
}

// NewHealthHandler creates a health handler. A nil refresher reports ok.
func NewHealthHandler(cache *status.Cache, refresher RefresherStatus, logger *log.Logger) *HealthHandler {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &HealthHandler{cache: cache, refresher: refresher, logger: logger}
}

func (h *HealthHandler) Routes() []string {
	return []string{services.HealthPath}
}

// Report builds the current [models.HealthReport].
func (h *HealthHandler) Report() models.HealthReport {
	snap := h.cache.Snapshot()
	report := models.HealthReport{
		Status:     models.HealthOK,
		Refresher:  models.HealthOK,
		LastUpdate: snap.UpdatedAt,
		Sequence:   snap.Sequence,
	}

	if h.refresher != nil {
		if state := h.refresher.State(); !state.Healthy {
			report.Status = models.HealthDegraded
			report.Refresher = models.HealthDegraded
			if state.LastError != nil {
				report.LastError = state.LastError.Error()
			}
		}
	}
	return report
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := shared.MarshalJSON(h.Report(), false)
	if err != nil {
		h.logger.Error("failed to encode health report", "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	writeJSON(w, body)
}

func writeJSON(w http.ResponseWriter, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// NewRouter wires the service routes behind the standard middleware stack.
func NewRouter(cache *status.Cache, refresher RefresherStatus, cors bool, logger *log.Logger) *BasicRouter {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	router := NewBasicRouter()
	router.Use(Recover(logger), RequestLogger(logger), CORS(cors))
	router.Handler(NewNowPlayingHandler(cache, logger))
	router.Handler(NewHealthHandler(cache, refresher, logger))
	return router
}
