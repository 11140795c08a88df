package http

import (
	"log/slog"
	"net/http"
	"os"
	"runtime"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

// Version is stamped at build time via -ldflags.
var Version = "dev"

// HealthHandler answers liveness, readiness and version probes.
type HealthHandler struct {
	logger    *slog.Logger
	startedAt time.Time
	dataFiles []string
}

// NewHealthHandler creates a health handler. dataFiles lists the CSV
// paths readiness checks for.
func NewHealthHandler(logger *slog.Logger, dataFiles []string) *HealthHandler {
	return &HealthHandler{
		logger:    logger.With(slog.String("handler", "health")),
		startedAt: time.Now(),
		dataFiles: dataFiles,
	}
}

// Routes returns the health routes.
func (h *HealthHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))
	r.Get("/", h.HealthCheck)
	r.Get("/live", h.LivenessCheck)
	r.Get("/ready", h.ReadinessCheck)
	return r
}

// HealthCheck handles GET /api/health.
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]interface{}{
		"status":     "healthy",
		"version":    Version,
		"uptime":     time.Since(h.startedAt).Round(time.Second).String(),
		"goroutines": runtime.NumGoroutine(),
	})
}

// LivenessCheck handles GET /api/health/live.
func (h *HealthHandler) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]interface{}{"status": "alive"})
}

// ReadinessCheck handles GET /api/health/ready. The server is ready
// when every configured dataset file is present.
func (h *HealthHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	missing := make([]string, 0)
	for _, path := range h.dataFiles {
		if _, err := os.Stat(path); err != nil {
			missing = append(missing, path)
		}
	}
	if len(missing) > 0 {
		h.logger.WarnContext(r.Context(), "readiness check failed",
			slog.Int("missing_files", len(missing)),
		)
		render.Status(r, http.StatusServiceUnavailable)
		render.JSON(w, r, map[string]interface{}{
			"status":  "not_ready",
			"missing": missing,
		})
		return
	}
	render.JSON(w, r, map[string]interface{}{"status": "ready"})
}

// VersionInfo handles GET /api/version.
func (h *HealthHandler) VersionInfo(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]interface{}{
		"version":    Version,
		"go_version": runtime.Version(),
		"os":         runtime.GOOS,
		"arch":       runtime.GOARCH,
	})
}
