package http

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"pitchpulse/internal/analysis"
	"pitchpulse/internal/dataset"
	apierrors "pitchpulse/internal/errors"
	"pitchpulse/internal/merge"
	"pitchpulse/internal/services"
)

// MockDashboardService is a mock implementation of DashboardServiceInterface.
type MockDashboardService struct {
	mock.Mock
}

func (m *MockDashboardService) DatasetStats(ctx context.Context) ([]dataset.LoadStats, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]dataset.LoadStats), args.Error(1)
}

func (m *MockDashboardService) GPS(ctx context.Context, f services.Filter) ([]dataset.GPSRecord, error) {
	args := m.Called(f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]dataset.GPSRecord), args.Error(1)
}

func (m *MockDashboardService) Recovery(ctx context.Context, f services.Filter) ([]dataset.RecoveryRecord, error) {
	args := m.Called(f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]dataset.RecoveryRecord), args.Error(1)
}

func (m *MockDashboardService) Capability(ctx context.Context, f services.Filter) ([]dataset.CapabilityRecord, error) {
	args := m.Called(f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]dataset.CapabilityRecord), args.Error(1)
}

func (m *MockDashboardService) PriorityGoals(ctx context.Context, f services.Filter) ([]dataset.PriorityGoal, error) {
	args := m.Called(f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]dataset.PriorityGoal), args.Error(1)
}

func (m *MockDashboardService) Calendar(ctx context.Context, f services.Filter) ([]dataset.CalendarEvent, error) {
	args := m.Called(f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]dataset.CalendarEvent), args.Error(1)
}

func (m *MockDashboardService) CapabilityRecovery(ctx context.Context, f services.Filter) ([]merge.CapabilityRecovery, error) {
	args := m.Called(f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]merge.CapabilityRecovery), args.Error(1)
}

func (m *MockDashboardService) GPSCalendar(ctx context.Context, f services.Filter) ([]merge.GPSSession, error) {
	args := m.Called(f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]merge.GPSSession), args.Error(1)
}

func (m *MockDashboardService) MovementCorrelations(ctx context.Context) ([]analysis.CorrelationRow, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]analysis.CorrelationRow), args.Error(1)
}

func (m *MockDashboardService) FeatureImportances(ctx context.Context) ([]analysis.FeatureImportance, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]analysis.FeatureImportance), args.Error(1)
}

func (m *MockDashboardService) Workloads(ctx context.Context) ([]analysis.PlayerWorkload, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]analysis.PlayerWorkload), args.Error(1)
}

func (m *MockDashboardService) OutstandingPriorities(ctx context.Context) ([]dataset.PriorityGoal, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]dataset.PriorityGoal), args.Error(1)
}

func (m *MockDashboardService) Export(ctx context.Context) (*services.ExportResult, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.ExportResult), args.Error(1)
}

func newTestHandler(service DashboardServiceInterface) *DataHandler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewDataHandler(service, logger, apierrors.NewErrorHandler(logger, false))
}

func TestDataHandler_GetGPS(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		setup      func(*MockDashboardService)
		wantStatus int
		wantBody   string
	}{
		{
			name:   "success without filter",
			target: "/datasets/gps",
			setup: func(m *MockDashboardService) {
				m.On("GPS", services.Filter{}).Return([]dataset.GPSRecord{
					{Player: "P1", Distance: 8200},
				}, nil)
			},
			wantStatus: http.StatusOK,
			wantBody:   `"count":1`,
		},
		{
			name:   "filter forwarded to service",
			target: "/datasets/gps?player=P1&from=2024-08-01&to=2024-08-31",
			setup: func(m *MockDashboardService) {
				m.On("GPS", services.Filter{
					Player: "P1",
					From:   time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC),
					To:     time.Date(2024, 8, 31, 0, 0, 0, 0, time.UTC),
				}).Return([]dataset.GPSRecord{}, nil)
			},
			wantStatus: http.StatusOK,
			wantBody:   `"count":0`,
		},
		{
			name:       "invalid from date",
			target:     "/datasets/gps?from=15-08-2024",
			setup:      func(m *MockDashboardService) {},
			wantStatus: http.StatusBadRequest,
			wantBody:   "expected YYYY-MM-DD",
		},
		{
			name:       "to before from",
			target:     "/datasets/gps?from=2024-08-31&to=2024-08-01",
			setup:      func(m *MockDashboardService) {},
			wantStatus: http.StatusBadRequest,
			wantBody:   "precedes",
		},
		{
			name:   "load failure surfaces as problem",
			target: "/datasets/gps",
			setup: func(m *MockDashboardService) {
				m.On("GPS", services.Filter{}).Return(nil,
					apierrors.NewMissingColumnError("gps", "distance"))
			},
			wantStatus: http.StatusUnprocessableEntity,
			wantBody:   "distance",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := new(MockDashboardService)
			tt.setup(service)

			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			rec := httptest.NewRecorder()
			newTestHandler(service).Routes().ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantBody)
			service.AssertExpectations(t)
		})
	}
}

func TestDataHandler_GetMovementCorrelations(t *testing.T) {
	service := new(MockDashboardService)
	service.On("MovementCorrelations").Return([]analysis.CorrelationRow{
		{Group: "Jump", N: 12, Values: map[string]dataset.Float{
			"sleep_composite": dataset.Float(0.4),
		}},
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/summaries/movement-correlations", nil)
	rec := httptest.NewRecorder()
	newTestHandler(service).Routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"Jump"`)
	assert.Contains(t, rec.Body.String(), "sleep_composite")
	service.AssertExpectations(t)
}

func TestDataHandler_GetMovementCorrelations_NullOnWire(t *testing.T) {
	service := new(MockDashboardService)
	service.On("MovementCorrelations").Return([]analysis.CorrelationRow{
		{Group: "Sprint", N: 1, Values: map[string]dataset.Float{
			"bio_composite": dataset.Null(),
		}},
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/summaries/movement-correlations", nil)
	rec := httptest.NewRecorder()
	newTestHandler(service).Routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"bio_composite":null`)
}

func TestDataHandler_Export(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		service := new(MockDashboardService)
		service.On("Export").Return(&services.ExportResult{
			Files: []string{"out/capability_recovery_merged.csv"},
		}, nil)

		req := httptest.NewRequest(http.MethodPost, "/export", nil)
		rec := httptest.NewRecorder()
		newTestHandler(service).Routes().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "capability_recovery_merged.csv")
		service.AssertExpectations(t)
	})

	t.Run("join ambiguity maps to 422", func(t *testing.T) {
		service := new(MockDashboardService)
		service.On("Export").Return(nil, apierrors.NewJoinAmbiguityError(
			"recovery", "P1", time.Date(2024, 8, 15, 0, 0, 0, 0, time.UTC)))

		req := httptest.NewRequest(http.MethodPost, "/export", nil)
		rec := httptest.NewRecorder()
		newTestHandler(service).Routes().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, rec.Body.String(), "recovery")
	})
}

func TestDataHandler_GetOutstandingPriorities(t *testing.T) {
	service := new(MockDashboardService)
	service.On("OutstandingPriorities").Return([]dataset.PriorityGoal{
		{Player: "P1", Priority: 1, Area: "Sprint", Tracking: "Behind"},
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/summaries/outstanding-priorities", nil)
	rec := httptest.NewRecorder()
	newTestHandler(service).Routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"Sprint"`)
	service.AssertExpectations(t)
}
