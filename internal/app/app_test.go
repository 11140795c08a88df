package app

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pitchpulse/internal/config"
)

func writeFixture(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func testApplication(t *testing.T) *Application {
	t.Helper()
	dir := t.TempDir()

	writeFixture(t, dir, "gps_data.csv",
		"player,date,distance,peak_speed\n"+
			"P1,2024-08-14,8200,31.2\n"+
			"P2,2024-08-14,7900,29.8\n")
	writeFixture(t, dir, "recovery_status.csv",
		"player,date,sleep_composite,bio_composite,msk_joint_range_composite,subjective_composite,emboss_baseline_score\n"+
			"P1,2024-08-14,0.2,0.1,-0.1,0.3,0.15\n"+
			"P2,2024-08-14,-0.3,0.0,0.2,-0.1,-0.05\n")
	writeFixture(t, dir, "physical_capability.csv",
		"player,date,movement,quality,expression,benchmarkpct\n"+
			"P1,2024-08-14,Sprint,Max velocity,Dynamic,0.82\n"+
			"P2,2024-08-14,Jump,Take off,Dynamic,0.74\n")
	writeFixture(t, dir, "individual_priority_areas.csv",
		"player,priority,category,area,target,target_set_date,review_date,tracking\n"+
			"P1,1,Performance,Sprint,Top speed over 32 km/h,2024-07-01,2024-08-01,Behind\n")
	writeFixture(t, dir, "club_calendar.csv",
		"event_date,event_type,event_name,player\n"+
			"2024-08-15,Match,vs Arsenal,\n"+
			"2024-08-14,Training,MD-1 session,\n")

	cfg := &config.Config{
		Server: config.ServerConfig{
			Port:            0,
			ReadTimeout:     5 * time.Second,
			WriteTimeout:    5 * time.Second,
			IdleTimeout:     5 * time.Second,
			ShutdownTimeout: time.Second,
			RateLimit:       config.RateLimitConfig{Enabled: false},
		},
		Logging: config.LoggingConfig{Level: "error", Format: "text", Output: "console"},
		Data: config.DataConfig{
			Dir:            dir,
			GPSFile:        "gps_data.csv",
			RecoveryFile:   "recovery_status.csv",
			CapabilityFile: "physical_capability.csv",
			PriorityFile:   "individual_priority_areas.csv",
			CalendarFile:   "club_calendar.csv",
			OutputDir:      filepath.Join(dir, "out"),
		},
		Analysis: config.AnalysisConfig{
			ForestTrees:    10,
			ForestSeed:     42,
			ForestMinLeaf:  1,
			ForestMaxDepth: 4,
		},
	}

	app, err := NewWithConfig(cfg)
	require.NoError(t, err)
	return app
}

func TestApplication_Routes(t *testing.T) {
	app := testApplication(t)

	tests := []struct {
		name       string
		method     string
		target     string
		wantStatus int
		wantBody   string
	}{
		{"health", http.MethodGet, "/api/health", http.StatusOK, `"healthy"`},
		{"liveness", http.MethodGet, "/api/health/live", http.StatusOK, `"alive"`},
		{"readiness", http.MethodGet, "/api/health/ready", http.StatusOK, `"ready"`},
		{"version", http.MethodGet, "/api/version", http.StatusOK, `"go_version"`},
		{"dataset stats", http.MethodGet, "/api/data/datasets/stats", http.StatusOK, `"gps_data"`},
		{"gps rows", http.MethodGet, "/api/data/datasets/gps", http.StatusOK, `"count":2`},
		{"gps filtered", http.MethodGet, "/api/data/datasets/gps?player=P1", http.StatusOK, `"count":1`},
		{"capability recovery merge", http.MethodGet, "/api/data/merged/capability-recovery", http.StatusOK, `"is_md_minus_1":true`},
		{"gps calendar merge", http.MethodGet, "/api/data/merged/gps-calendar", http.StatusOK, "MD-1 session"},
		{"movement correlations", http.MethodGet, "/api/data/summaries/movement-correlations", http.StatusOK, `"metrics"`},
		{"workloads", http.MethodGet, "/api/data/summaries/workloads", http.StatusOK, `"count":2`},
		{"outstanding priorities", http.MethodGet, "/api/data/summaries/outstanding-priorities", http.StatusOK, `"Sprint"`},
		{"metrics endpoint", http.MethodGet, "/metrics", http.StatusOK, "pitchpulse_http_requests_total"},
		{"unknown route", http.MethodGet, "/api/data/nope", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.target, nil)
			rec := httptest.NewRecorder()
			app.Router.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantBody != "" {
				assert.Contains(t, rec.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestApplication_Export(t *testing.T) {
	app := testApplication(t)

	req := httptest.NewRequest(http.MethodPost, "/api/data/export", nil)
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "capability_recovery_merged.csv")

	written, err := os.ReadDir(app.Config.Data.OutputDir)
	require.NoError(t, err)
	assert.Len(t, written, 4)
}

func TestApplication_RequestIDHeader(t *testing.T) {
	app := testApplication(t)

	req := httptest.NewRequest(http.MethodGet, "/api/health/live", nil)
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)

	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}
