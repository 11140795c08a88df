// Package http exposes the dashboard tables over a JSON API.
package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"pitchpulse/internal/dataset"
	apierrors "pitchpulse/internal/errors"
	"pitchpulse/internal/merge"
	"pitchpulse/internal/services"
)

// DataHandler serves the dataset, merged-table and summary endpoints
// with RFC 7807 error responses.
type DataHandler struct {
	service      DashboardServiceInterface
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewDataHandler creates a new data handler.
func NewDataHandler(service DashboardServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DataHandler {
	return &DataHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "data_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the data routes.
func (h *DataHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Route("/datasets", func(r chi.Router) {
		r.Get("/stats", h.GetDatasetStats)
		r.Get("/gps", h.GetGPS)
		r.Get("/recovery", h.GetRecovery)
		r.Get("/capability", h.GetCapability)
		r.Get("/priority", h.GetPriorityGoals)
		r.Get("/calendar", h.GetCalendar)
	})

	r.Route("/merged", func(r chi.Router) {
		r.Get("/capability-recovery", h.GetCapabilityRecovery)
		r.Get("/gps-calendar", h.GetGPSCalendar)
	})

	r.Route("/summaries", func(r chi.Router) {
		r.Get("/movement-correlations", h.GetMovementCorrelations)
		r.Get("/feature-importances", h.GetFeatureImportances)
		r.Get("/workloads", h.GetWorkloads)
		r.Get("/outstanding-priorities", h.GetOutstandingPriorities)
	})

	r.Post("/export", h.Export)

	return r
}

// parseFilter reads the player, from and to query parameters. Dates
// use the same YYYY-MM-DD layout as the CSV files.
func parseFilter(r *http.Request) (services.Filter, error) {
	f := services.Filter{Player: r.URL.Query().Get("player")}

	for _, bound := range []struct {
		param string
		dst   *time.Time
	}{
		{"from", &f.From},
		{"to", &f.To},
	} {
		raw := r.URL.Query().Get(bound.param)
		if raw == "" {
			continue
		}
		t, err := time.ParseInLocation(dataset.DateFormat, raw, time.UTC)
		if err != nil {
			return f, apierrors.NewValidationError(
				fmt.Sprintf("invalid %s date %q, expected YYYY-MM-DD", bound.param, raw), err)
		}
		*bound.dst = t
	}
	if !f.From.IsZero() && !f.To.IsZero() && f.To.Before(f.From) {
		return f, apierrors.NewValidationError("to date precedes from date", nil)
	}
	return f, nil
}

// respondList writes the standard list envelope.
func respondList[T any](w http.ResponseWriter, r *http.Request, rows []T) {
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   rows,
		"count":  len(rows),
	})
}

// listEndpoint runs a filtered list query and writes the envelope.
func listEndpoint[T any](h *DataHandler, w http.ResponseWriter, r *http.Request, name string,
	query func(f services.Filter) ([]T, error)) {

	f, err := parseFilter(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	rows, err := query(f)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "query failed",
			slog.String("endpoint", name),
			slog.String("error", err.Error()),
		)
		h.errorHandler.HandleError(w, r, err)
		return
	}
	respondList(w, r, rows)
}

// GetDatasetStats handles GET /api/data/datasets/stats.
func (h *DataHandler) GetDatasetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.DatasetStats(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "query failed",
			slog.String("endpoint", "datasets/stats"),
			slog.String("error", err.Error()),
		)
		h.errorHandler.HandleError(w, r, err)
		return
	}
	respondList(w, r, stats)
}

// GetGPS handles GET /api/data/datasets/gps.
func (h *DataHandler) GetGPS(w http.ResponseWriter, r *http.Request) {
	listEndpoint(h, w, r, "datasets/gps", func(f services.Filter) ([]dataset.GPSRecord, error) {
		return h.service.GPS(r.Context(), f)
	})
}

// GetRecovery handles GET /api/data/datasets/recovery.
func (h *DataHandler) GetRecovery(w http.ResponseWriter, r *http.Request) {
	listEndpoint(h, w, r, "datasets/recovery", func(f services.Filter) ([]dataset.RecoveryRecord, error) {
		return h.service.Recovery(r.Context(), f)
	})
}

// GetCapability handles GET /api/data/datasets/capability.
func (h *DataHandler) GetCapability(w http.ResponseWriter, r *http.Request) {
	listEndpoint(h, w, r, "datasets/capability", func(f services.Filter) ([]dataset.CapabilityRecord, error) {
		return h.service.Capability(r.Context(), f)
	})
}

// GetPriorityGoals handles GET /api/data/datasets/priority.
func (h *DataHandler) GetPriorityGoals(w http.ResponseWriter, r *http.Request) {
	listEndpoint(h, w, r, "datasets/priority", func(f services.Filter) ([]dataset.PriorityGoal, error) {
		return h.service.PriorityGoals(r.Context(), f)
	})
}

// GetCalendar handles GET /api/data/datasets/calendar.
func (h *DataHandler) GetCalendar(w http.ResponseWriter, r *http.Request) {
	listEndpoint(h, w, r, "datasets/calendar", func(f services.Filter) ([]dataset.CalendarEvent, error) {
		return h.service.Calendar(r.Context(), f)
	})
}

// GetCapabilityRecovery handles GET /api/data/merged/capability-recovery.
func (h *DataHandler) GetCapabilityRecovery(w http.ResponseWriter, r *http.Request) {
	listEndpoint(h, w, r, "merged/capability-recovery", func(f services.Filter) ([]merge.CapabilityRecovery, error) {
		return h.service.CapabilityRecovery(r.Context(), f)
	})
}

// GetGPSCalendar handles GET /api/data/merged/gps-calendar.
func (h *DataHandler) GetGPSCalendar(w http.ResponseWriter, r *http.Request) {
	listEndpoint(h, w, r, "merged/gps-calendar", func(f services.Filter) ([]merge.GPSSession, error) {
		return h.service.GPSCalendar(r.Context(), f)
	})
}

// GetMovementCorrelations handles GET /api/data/summaries/movement-correlations.
func (h *DataHandler) GetMovementCorrelations(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.MovementCorrelations(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"status":  "success",
		"data":    rows,
		"count":   len(rows),
		"metrics": services.CorrelationMetricNames(),
	})
}

// GetFeatureImportances handles GET /api/data/summaries/feature-importances.
func (h *DataHandler) GetFeatureImportances(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.FeatureImportances(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	respondList(w, r, rows)
}

// GetWorkloads handles GET /api/data/summaries/workloads.
func (h *DataHandler) GetWorkloads(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.Workloads(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	respondList(w, r, rows)
}

// GetOutstandingPriorities handles GET /api/data/summaries/outstanding-priorities.
func (h *DataHandler) GetOutstandingPriorities(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.OutstandingPriorities(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	respondList(w, r, rows)
}

// Export handles POST /api/data/export.
func (h *DataHandler) Export(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Export(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "export failed",
			slog.String("error", err.Error()),
		)
		h.errorHandler.HandleError(w, r, err)
		return
	}
	h.logger.InfoContext(r.Context(), "export written",
		slog.Int("files", len(result.Files)),
	)
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   result,
	})
}
