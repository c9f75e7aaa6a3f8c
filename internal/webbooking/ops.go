package webbooking

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/salon-booking-wizard/internal/audit"
	"github.com/wolfman30/salon-booking-wizard/internal/wizard"
	"github.com/wolfman30/salon-booking-wizard/pkg/logging"
)

const defaultConfirmationLimit = 50

// ConfirmationQuerier reads the confirmation audit trail.
type ConfirmationQuerier interface {
	Query(ctx context.Context, filter audit.Filter) ([]audit.Confirmation, error)
}

// OpsHandler serves operator endpoints for live sessions and the audit trail.
type OpsHandler struct {
	manager *wizard.Manager
	trail   ConfirmationQuerier
	logger  *logging.Logger
}

// NewOpsHandler creates an operator handler. trail may be nil when no
// database is configured.
func NewOpsHandler(manager *wizard.Manager, trail ConfirmationQuerier, logger *logging.Logger) *OpsHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &OpsHandler{manager: manager, trail: trail, logger: logger}
}

// Routes registers the operator routes on r.
func (h *OpsHandler) Routes(r chi.Router) {
	r.Get("/sessions", h.SessionStats)
	r.Delete("/sessions/{sessionID}", h.EvictSession)
	r.Get("/confirmations", h.ListConfirmations)
}

// SessionStats reports how many sessions are live on this instance.
// GET /ops/sessions
func (h *OpsHandler) SessionStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]int{"live": h.manager.Len()})
}

// EvictSession drops a live session. Its snapshot is kept.
// DELETE /ops/sessions/{sessionID}
func (h *OpsHandler) EvictSession(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "sessionID"))
	if id == "" {
		jsonError(w, "missing session id", "invalid_request", http.StatusBadRequest)
		return
	}
	h.manager.Evict(id)
	w.WriteHeader(http.StatusNoContent)
}

// ListConfirmations returns recent confirmation attempts.
// GET /ops/confirmations?salon_id=&session_id=&outcome=&limit=
func (h *OpsHandler) ListConfirmations(w http.ResponseWriter, r *http.Request) {
	if h.trail == nil {
		jsonError(w, "audit trail disabled", "audit_disabled", http.StatusServiceUnavailable)
		return
	}
	q := r.URL.Query()
	filter := audit.Filter{
		SalonID:   strings.TrimSpace(q.Get("salon_id")),
		SessionID: strings.TrimSpace(q.Get("session_id")),
		Limit:     defaultConfirmationLimit,
	}
	if filter.SalonID == "" {
		jsonError(w, "salon_id is required", "invalid_request", http.StatusBadRequest)
		return
	}
	switch outcome := audit.Outcome(strings.TrimSpace(q.Get("outcome"))); outcome {
	case "", audit.OutcomeSuccess, audit.OutcomeFailure:
		filter.Outcome = outcome
	default:
		jsonError(w, "outcome must be success or failure", "invalid_request", http.StatusBadRequest)
		return
	}
	if raw := strings.TrimSpace(q.Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > 500 {
			jsonError(w, "limit must be between 1 and 500", "invalid_request", http.StatusBadRequest)
			return
		}
		filter.Limit = limit
	}

	records, err := h.trail.Query(r.Context(), filter)
	if err != nil {
		h.logger.Error("failed to query confirmations", "salon_id", filter.SalonID, "error", err)
		jsonError(w, "internal error", "internal", http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []audit.Confirmation{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"confirmations": records})
}
