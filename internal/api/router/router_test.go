package router

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/salon-booking-wizard/internal/catalog"
	httpmiddleware "github.com/wolfman30/salon-booking-wizard/internal/http/middleware"
	"github.com/wolfman30/salon-booking-wizard/internal/salonapi"
	"github.com/wolfman30/salon-booking-wizard/internal/webbooking"
	"github.com/wolfman30/salon-booking-wizard/internal/wizard"
	"github.com/wolfman30/salon-booking-wizard/pkg/logging"
)

type emptyBackend struct{}

func (emptyBackend) GetPublicSalonSettings(context.Context) (*catalog.SalonSettings, error) {
	return &catalog.SalonSettings{Name: "Studio"}, nil
}
func (emptyBackend) GetPublicServices(context.Context) ([]catalog.Service, error) { return nil, nil }
func (emptyBackend) GetPublicEmployees(context.Context, string) ([]catalog.Professional, error) {
	return nil, nil
}
func (emptyBackend) GetPublicBatchAvailability(context.Context, time.Time) (map[catalog.ID][]string, error) {
	return map[catalog.ID][]string{}, nil
}
func (emptyBackend) GetAvailableDates(context.Context, salonapi.DatesQuery) ([]string, error) {
	return nil, nil
}
func (emptyBackend) GetPublicAvailableSlots(context.Context, time.Time, catalog.ID) ([]salonapi.Slot, error) {
	return nil, nil
}
func (emptyBackend) ValidatePromoCode(context.Context, salonapi.PromoRequest) (*salonapi.PromoResult, error) {
	return &salonapi.PromoResult{}, nil
}
func (emptyBackend) SubmitBooking(context.Context, salonapi.Submission) (*salonapi.BookingResult, error) {
	return nil, errors.New("not implemented")
}

func newTestConfig(t *testing.T) *Config {
	t.Helper()
	logger := logging.New("error")
	manager := wizard.NewManager(wizard.Config{
		Backend: emptyBackend{},
		Store:   wizard.NewMemoryGateway(),
		Logger:  logger,
	})
	return &Config{
		Logger:             logger,
		Booking:            webbooking.NewHandler(manager, logger),
		Ops:                webbooking.NewOpsHandler(manager, nil, logger),
		MetricsHandler:     http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("# metrics")) }),
		CORSAllowedOrigins: []string{"https://salon.example"},
		DefaultSalonID:     "salon-1",
		SupportedLanguages: []string{"en", "ru"},
		ClientJWTSecret:    "test-secret",
		OpsToken:           "ops-secret",
		RateLimiter:        httpmiddleware.NewRateLimiter(100, 100),
	}
}

func TestRouterHealthEndpoint(t *testing.T) {
	router := New(newTestConfig(t))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var resp map[string]any
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "ok", resp["status"])
}

func TestRouterHealthDegraded(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.HealthChecks = map[string]HealthCheck{
		"redis":    func(context.Context) error { return errors.New("connection refused") },
		"postgres": func(context.Context) error { return nil },
	}
	router := New(cfg)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
	var resp struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "degraded", resp.Status)
	assert.Equal(t, "ok", resp.Checks["postgres"])
	assert.Equal(t, "connection refused", resp.Checks["redis"])
}

func TestRouterMetricsEndpoint(t *testing.T) {
	router := New(newTestConfig(t))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "# metrics")
}

func TestRouterOpenBookingSession(t *testing.T) {
	router := New(newTestConfig(t))

	req := httptest.NewRequest(http.MethodPost, "/booking/sessions", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept-Language", "ru-RU,ru;q=0.9")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var view struct {
		SessionID string `json:"session_id"`
		Language  string `json:"language"`
		Step      string `json:"step"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&view))
	assert.NotEmpty(t, view.SessionID)
	assert.Equal(t, "ru", view.Language)
	assert.Equal(t, "menu", view.Step)
}

func TestRouterBookingRequiresSalon(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.DefaultSalonID = ""
	router := New(cfg)

	req := httptest.NewRequest(http.MethodPost, "/booking/sessions", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	req = httptest.NewRequest(http.MethodPost, "/booking/sessions", nil)
	req.Header.Set(httpmiddleware.SalonHeader, "salon-2")
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusCreated, rr.Code)
}

func TestRouterBookingRejectsInvalidClientToken(t *testing.T) {
	router := New(newTestConfig(t))

	req := httptest.NewRequest(http.MethodPost, "/booking/sessions", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRouterOpsRoutes(t *testing.T) {
	router := New(newTestConfig(t))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/ops/sessions", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	req := httptest.NewRequest(http.MethodGet, "/ops/sessions", nil)
	req.Header.Set(opsTokenHeader, "ops-secret")
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRouterOpsDisabledWithoutToken(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.OpsToken = ""
	router := New(cfg)

	req := httptest.NewRequest(http.MethodGet, "/ops/sessions", nil)
	req.Header.Set(opsTokenHeader, "anything")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestRouterCORSPreflight(t *testing.T) {
	router := New(newTestConfig(t))

	req := httptest.NewRequest(http.MethodOptions, "/booking/sessions", nil)
	req.Header.Set("Origin", "https://salon.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, "https://salon.example", rr.Header().Get("Access-Control-Allow-Origin"))
}
