package webbooking

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/salon-booking-wizard/internal/catalog"
	"github.com/wolfman30/salon-booking-wizard/internal/http/middleware"
	"github.com/wolfman30/salon-booking-wizard/internal/tenancy"
	"github.com/wolfman30/salon-booking-wizard/internal/wizard"
	"github.com/wolfman30/salon-booking-wizard/pkg/logging"
)

// maxBodyBytes caps request bodies on the booking surface.
const maxBodyBytes = 64 << 10

// Handler exposes wizard sessions over JSON.
type Handler struct {
	manager *wizard.Manager
	logger  *logging.Logger
}

// NewHandler creates a booking wizard handler.
func NewHandler(manager *wizard.Manager, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{manager: manager, logger: logger}
}

// Routes registers the session routes on r.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/sessions", h.OpenSession)
	r.Route("/sessions/{sessionID}", func(r chi.Router) {
		r.Get("/", h.GetSession)
		r.Post("/step", h.SetStep)
		r.Get("/services", h.ListServices)
		r.Post("/services/toggle", h.ToggleService)
		r.Get("/professionals", h.ListProfessionals)
		r.Post("/professional", h.ChooseProfessional)
		r.Get("/dates", h.ListDates)
		r.Get("/slots", h.ListSlots)
		r.Post("/datetime", h.SetDateTime)
		r.Post("/phone", h.SetPhone)
		r.Get("/confirm", h.GetConfirm)
		r.Post("/promo", h.ApplyPromo)
		r.Post("/confirm", h.Confirm)
		r.Post("/reset", h.Reset)
		r.Put("/language", h.SetLanguage)
		r.Post("/prefill", h.Prefill)
		r.Get("/events", h.Events)
	})
}

type openRequest struct {
	SessionID string                  `json:"session_id"`
	PageURL   string                  `json:"page_url"`
	NavState  *wizard.NavigationState `json:"nav_state"`
}

// OpenSession mounts a wizard session.
// POST /booking/sessions
func (h *Handler) OpenSession(w http.ResponseWriter, r *http.Request) {
	var req openRequest
	if !decodeOptionalBody(w, r, &req) {
		return
	}
	open := h.openRequest(r, strings.TrimSpace(req.SessionID))
	open.PageURL = req.PageURL
	open.Nav = req.NavState

	session, err := h.manager.Open(r.Context(), open)
	if err != nil {
		h.logger.Error("failed to open booking session", "salon_id", open.SalonID, "error", err)
		jsonError(w, "failed to open session", "open_failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, session.View())
}

// GetSession returns the session view. A valid ?booking= switches the step.
// GET /booking/sessions/{sessionID}
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	if step, ok := wizard.ParseStep(r.URL.Query().Get(wizard.StepParam)); ok && step != session.Step() {
		if _, err := session.SetStep(step, r.URL.Query().Get("page_url")); err != nil {
			jsonError(w, err.Error(), "invalid_page_url", http.StatusBadRequest)
			return
		}
	}
	writeJSON(w, http.StatusOK, session.View())
}

type stepRequest struct {
	Step    string `json:"step"`
	PageURL string `json:"page_url"`
}

type stepResponse struct {
	Navigation wizard.Navigation `json:"navigation"`
	View       wizard.View       `json:"view"`
}

// SetStep navigates to a step and returns the history-replacing URL.
// POST /booking/sessions/{sessionID}/step
func (h *Handler) SetStep(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	var req stepRequest
	if !decodeBody(w, r, &req) {
		return
	}
	step, ok := wizard.ParseStep(req.Step)
	if !ok {
		jsonError(w, fmt.Sprintf("unknown step %q", req.Step), "unknown_step", http.StatusUnprocessableEntity)
		return
	}
	nav, err := session.SetStep(step, req.PageURL)
	if err != nil {
		jsonError(w, err.Error(), "invalid_page_url", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, stepResponse{Navigation: nav, View: session.View()})
}

// ListServices renders the services step.
// GET /booking/sessions/{sessionID}/services?search=&category=
func (h *Handler) ListServices(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	writeJSON(w, http.StatusOK, session.Services(r.Context(), q.Get("search"), q.Get("category")))
}

type toggleRequest struct {
	ServiceID catalog.ID `json:"service_id"`
}

// ToggleService adds or removes a service.
// POST /booking/sessions/{sessionID}/services/toggle
func (h *Handler) ToggleService(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	var req toggleRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.ServiceID == "" {
		jsonError(w, "service_id is required", "invalid_request", http.StatusBadRequest)
		return
	}
	view, err := session.ToggleService(r.Context(), req.ServiceID)
	if err != nil {
		h.writeWizardError(w, session.ID(), err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// ListProfessionals renders the professional step.
// GET /booking/sessions/{sessionID}/professionals
func (h *Handler) ListProfessionals(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"options": session.Professionals(r.Context())})
}

type professionalRequest struct {
	ProfessionalID catalog.ID `json:"professional_id"`
	Flexible       bool       `json:"flexible"`
}

// ChooseProfessional applies a professional-step click.
// POST /booking/sessions/{sessionID}/professional
func (h *Handler) ChooseProfessional(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	var req professionalRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.ProfessionalID == "" && !req.Flexible {
		jsonError(w, "professional_id or flexible is required", "invalid_request", http.StatusBadRequest)
		return
	}
	view, err := session.ChooseProfessional(r.Context(), wizard.ProfessionalChoice{
		ProfessionalID: req.ProfessionalID,
		Flexible:       req.Flexible,
	})
	if err != nil {
		h.writeWizardError(w, session.ID(), err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// ListDates returns the month grid.
// GET /booking/sessions/{sessionID}/dates?year=&month=
func (h *Handler) ListDates(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	year, month, err := parseMonth(r)
	if err != nil {
		jsonError(w, err.Error(), "invalid_request", http.StatusBadRequest)
		return
	}
	view, err := session.Dates(r.Context(), year, month)
	if err != nil {
		h.writeWizardError(w, session.ID(), err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func parseMonth(r *http.Request) (int, time.Month, error) {
	q := r.URL.Query()
	year, err := strconv.Atoi(strings.TrimSpace(q.Get("year")))
	if err != nil || year < 1 {
		return 0, 0, errors.New("year must be a positive integer")
	}
	month, err := strconv.Atoi(strings.TrimSpace(q.Get("month")))
	if err != nil || month < 1 || month > 12 {
		return 0, 0, errors.New("month must be between 1 and 12")
	}
	return year, time.Month(month), nil
}

// ListSlots returns the times of a date.
// GET /booking/sessions/{sessionID}/slots?date=YYYY-MM-DD
func (h *Handler) ListSlots(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	date, err := civil.ParseDate(strings.TrimSpace(r.URL.Query().Get("date")))
	if err != nil {
		jsonError(w, "date must be YYYY-MM-DD", "invalid_request", http.StatusBadRequest)
		return
	}
	view, err := session.Slots(r.Context(), date)
	if err != nil {
		h.writeWizardError(w, session.ID(), err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

type dateTimeRequest struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

// SetDateTime sets the date and time. An empty date clears both.
// POST /booking/sessions/{sessionID}/datetime
func (h *Handler) SetDateTime(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	var req dateTimeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	action := wizard.SetDateTime{Time: strings.TrimSpace(req.Time)}
	if raw := strings.TrimSpace(req.Date); raw != "" {
		d, err := civil.ParseDate(raw)
		if err != nil {
			jsonError(w, "date must be YYYY-MM-DD", "invalid_request", http.StatusBadRequest)
			return
		}
		action.Date = &d
	}
	view, err := session.Dispatch(r.Context(), action)
	if err != nil {
		h.writeWizardError(w, session.ID(), err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

type phoneRequest struct {
	Phone string `json:"phone"`
}

// SetPhone stores the contact phone.
// POST /booking/sessions/{sessionID}/phone
func (h *Handler) SetPhone(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	var req phoneRequest
	if !decodeBody(w, r, &req) {
		return
	}
	view, err := session.SetPhone(r.Context(), req.Phone)
	if err != nil {
		h.writeWizardError(w, session.ID(), err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// GetConfirm renders the confirm step.
// GET /booking/sessions/{sessionID}/confirm
func (h *Handler) GetConfirm(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, session.ConfirmView())
}

type promoRequest struct {
	Code string `json:"code"`
}

// ApplyPromo validates a promo code for the current order.
// POST /booking/sessions/{sessionID}/promo
func (h *Handler) ApplyPromo(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	var req promoRequest
	if !decodeBody(w, r, &req) {
		return
	}
	view, err := session.ApplyPromo(r.Context(), req.Code)
	if err != nil {
		h.writeWizardError(w, session.ID(), err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

type confirmRequest struct {
	EditingBookingID string `json:"editing_booking_id"`
	Name             string `json:"name"`
}

// Confirm submits the booking.
// POST /booking/sessions/{sessionID}/confirm
func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	var req confirmRequest
	if !decodeOptionalBody(w, r, &req) {
		return
	}
	res, err := session.Confirm(r.Context(), wizard.ConfirmRequest{
		EditingBookingID: strings.TrimSpace(req.EditingBookingID),
		ContactName:      strings.TrimSpace(req.Name),
	})
	if err != nil {
		h.writeWizardError(w, session.ID(), err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// Reset clears the wizard.
// POST /booking/sessions/{sessionID}/reset
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, session.Reset(r.Context()))
}

type languageRequest struct {
	Language string `json:"language"`
}

// SetLanguage switches the UI language.
// PUT /booking/sessions/{sessionID}/language
func (h *Handler) SetLanguage(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	var req languageRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Language) == "" {
		jsonError(w, "language is required", "invalid_request", http.StatusBadRequest)
		return
	}
	view, err := session.SetLanguage(r.Context(), req.Language)
	if err != nil {
		h.writeWizardError(w, session.ID(), err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

type prefillResponse struct {
	Applied bool        `json:"applied"`
	View    wizard.View `json:"view"`
}

// Prefill applies navigation state that arrives after the session opened.
// Only the professional is honored.
// POST /booking/sessions/{sessionID}/prefill
func (h *Handler) Prefill(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	var nav wizard.NavigationState
	if !decodeBody(w, r, &nav) {
		return
	}
	view, applied, err := session.ApplyNavigation(r.Context(), nav)
	if err != nil {
		h.writeWizardError(w, session.ID(), err)
		return
	}
	writeJSON(w, http.StatusOK, prefillResponse{Applied: applied, View: view})
}

// session resolves the {sessionID} route param and refreshes the caller
// identity. It writes the error response itself.
func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*wizard.Session, bool) {
	id := strings.TrimSpace(chi.URLParam(r, "sessionID"))
	if id == "" {
		jsonError(w, "missing session id", "invalid_request", http.StatusBadRequest)
		return nil, false
	}
	req := h.openRequest(r, id)
	session, err := h.manager.Get(r.Context(), id, req)
	if err != nil {
		if errors.Is(err, wizard.ErrSessionNotFound) {
			jsonError(w, "session not found", "session_not_found", http.StatusNotFound)
			return nil, false
		}
		h.logger.Error("failed to resume booking session", "session_id", id, "error", err)
		jsonError(w, "failed to resume session", "resume_failed", http.StatusInternalServerError)
		return nil, false
	}
	if req.Identity.Authenticated {
		session.Authenticate(r.Context(), req.Identity)
	}
	return session, true
}

func (h *Handler) openRequest(r *http.Request, sessionID string) wizard.OpenRequest {
	salonID, _ := tenancy.SalonIDFromContext(r.Context())
	return wizard.OpenRequest{
		SessionID: sessionID,
		SalonID:   salonID,
		PageURL:   r.URL.Query().Get("page_url"),
		Identity:  identityFrom(r),
		Language:  tenancy.LanguageFromContext(r.Context(), ""),
	}
}

func identityFrom(r *http.Request) wizard.Identity {
	client, ok := middleware.ClientFromContext(r.Context())
	if !ok {
		return wizard.Identity{}
	}
	return wizard.Identity{
		Authenticated: true,
		ClientID:      client.ID,
		Name:          client.Name,
		Phone:         client.Phone,
		AccessToken:   client.Token,
	}
}

// writeWizardError maps wizard errors to status codes: rejected input is 422,
// an edit during a submission is 409, upstream failures are 502.
func (h *Handler) writeWizardError(w http.ResponseWriter, sessionID string, err error) {
	switch {
	case errors.Is(err, wizard.ErrUnknownService):
		jsonError(w, err.Error(), "unknown_service", http.StatusUnprocessableEntity)
	case errors.Is(err, wizard.ErrUnknownProfessional):
		jsonError(w, err.Error(), "unknown_professional", http.StatusUnprocessableEntity)
	case errors.Is(err, wizard.ErrTimeWithoutDate):
		jsonError(w, err.Error(), "time_without_date", http.StatusUnprocessableEntity)
	case errors.Is(err, wizard.ErrInvalidTime):
		jsonError(w, err.Error(), "invalid_time", http.StatusUnprocessableEntity)
	case errors.Is(err, wizard.ErrPhoneRequired):
		jsonError(w, err.Error(), "phone_required", http.StatusUnprocessableEntity)
	case errors.Is(err, wizard.ErrPhoneTooShort):
		jsonError(w, err.Error(), "phone_too_short", http.StatusUnprocessableEntity)
	case errors.Is(err, wizard.ErrIncomplete):
		jsonError(w, err.Error(), "incomplete", http.StatusUnprocessableEntity)
	case errors.Is(err, wizard.ErrPromoInvalid):
		jsonError(w, err.Error(), "promo_invalid", http.StatusUnprocessableEntity)
	case errors.Is(err, wizard.ErrSubmissionInProgress):
		jsonError(w, "booking is being submitted", "submission_in_progress", http.StatusConflict)
	case errors.Is(err, wizard.ErrSubmissionFailed):
		jsonError(w, "booking could not be saved", "submission_failed", http.StatusBadGateway)
	default:
		h.logger.Warn("booking upstream request failed", "session_id", sessionID, "error", err)
		jsonError(w, "salon service unavailable", "upstream_failed", http.StatusBadGateway)
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst); err != nil {
		jsonError(w, "invalid request body", "invalid_request", http.StatusBadRequest)
		return false
	}
	return true
}

// decodeOptionalBody accepts an empty body.
func decodeOptionalBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if r.Body == nil || r.ContentLength == 0 {
		return true
	}
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst)
	if err != nil && !errors.Is(err, io.EOF) {
		jsonError(w, "invalid request body", "invalid_request", http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func jsonError(w http.ResponseWriter, msg, code string, status int) {
	writeJSON(w, status, map[string]string{"error": msg, "code": code})
}
