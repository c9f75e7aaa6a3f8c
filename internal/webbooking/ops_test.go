package webbooking

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/salon-booking-wizard/internal/audit"
	"github.com/wolfman30/salon-booking-wizard/pkg/logging"
)

type stubTrail struct {
	got     audit.Filter
	records []audit.Confirmation
	err     error
}

func (s *stubTrail) Query(_ context.Context, f audit.Filter) ([]audit.Confirmation, error) {
	s.got = f
	return s.records, s.err
}

func newOpsRouter(t *testing.T, trail ConfirmationQuerier) (chi.Router, *testServer) {
	t.Helper()
	ts := newTestServer(t)
	ops := NewOpsHandler(ts.manager, trail, logging.New("error"))
	r := chi.NewRouter()
	r.Route("/ops", ops.Routes)
	return r, ts
}

func TestListConfirmations(t *testing.T) {
	trail := &stubTrail{records: []audit.Confirmation{{ID: "c1", SalonID: "salon-1", Outcome: audit.OutcomeSuccess}}}
	r, _ := newOpsRouter(t, trail)

	req := httptest.NewRequest(http.MethodGet, "/ops/confirmations?salon_id=salon-1&outcome=success&limit=5", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, audit.Filter{SalonID: "salon-1", Outcome: audit.OutcomeSuccess, Limit: 5}, trail.got)

	var resp struct {
		Confirmations []audit.Confirmation `json:"confirmations"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Confirmations, 1)
	assert.Equal(t, "c1", resp.Confirmations[0].ID)
}

func TestListConfirmations_Validation(t *testing.T) {
	r, _ := newOpsRouter(t, &stubTrail{})

	tests := []struct {
		name   string
		target string
	}{
		{name: "missing salon", target: "/ops/confirmations"},
		{name: "bad outcome", target: "/ops/confirmations?salon_id=s&outcome=maybe"},
		{name: "bad limit", target: "/ops/confirmations?salon_id=s&limit=0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.target, nil))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestListConfirmations_Errors(t *testing.T) {
	r, _ := newOpsRouter(t, &stubTrail{err: errors.New("db down")})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ops/confirmations?salon_id=s", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	r, _ = newOpsRouter(t, nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ops/confirmations?salon_id=s", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestSessionStatsAndEvict(t *testing.T) {
	r, ts := newOpsRouter(t, nil)
	v := ts.open(t, nil)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ops/sessions", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"live":1}`, rec.Body.String())

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/ops/sessions/"+v.SessionID, nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 0, ts.manager.Len())
}
