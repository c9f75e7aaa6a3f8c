package wizard

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"cloud.google.com/go/civil"
	"golang.org/x/sync/errgroup"

	"github.com/wolfman30/salon-booking-wizard/internal/audit"
	"github.com/wolfman30/salon-booking-wizard/internal/catalog"
	"github.com/wolfman30/salon-booking-wizard/internal/salonapi"
	"github.com/wolfman30/salon-booking-wizard/internal/tenancy"
)

// ErrSubmissionFailed wraps a booking the backend did not accept. The wizard
// state is kept so the visitor can retry.
var ErrSubmissionFailed = errors.New("wizard: booking submission failed")

// ErrSubmissionInProgress rejects edits and a second confirm while a booking
// is being submitted.
var ErrSubmissionInProgress = errors.New("wizard: booking submission in progress")

// Session is one visitor's wizard. It owns the State and the active step and
// serializes every mutation.
type Session struct {
	id      string
	salonID string
	m       *Manager

	mu            sync.Mutex
	state         State
	step          Step
	lang          string
	identity      Identity
	settings      catalog.SalonSettings
	services      []catalog.Service
	professionals []catalog.Professional
	index         catalog.Index
	servicesOK    bool
	employeesOK   bool
	promoCode     string
	promo         *salonapi.PromoResult
	datesGen      uint64
	slotsGen      uint64
	submitting    bool
	month         *MonthView
	slots         *SlotsView
	active        time.Time

	today  AvailabilityCache
	warmed chan struct{}
	stop   context.CancelFunc
}

func newSession(m *Manager, id string, req OpenRequest) *Session {
	lang := strings.TrimSpace(req.Language)
	if lang == "" {
		lang = m.cfg.DefaultLanguage
	}
	return &Session{
		id:       id,
		salonID:  req.SalonID,
		m:        m,
		state:    Empty(),
		step:     StepMenu,
		lang:     lang,
		identity: req.Identity,
		active:   m.cfg.Clock(),
		warmed:   make(chan struct{}),
	}
}

// ID returns the session id.
func (s *Session) ID() string {
	return s.id
}

// SalonID returns the salon that owns the session.
func (s *Session) SalonID() string {
	return s.salonID
}

func (s *Session) key() SnapshotKey {
	return SnapshotKey{SalonID: s.salonID, SessionID: s.id}
}

func (s *Session) ctx(ctx context.Context) context.Context {
	if s.salonID == "" {
		return ctx
	}
	return tenancy.WithSalonID(ctx, s.salonID)
}

func (s *Session) mount(ctx context.Context, req OpenRequest) error {
	cfg := s.m.cfg
	ctx = s.ctx(ctx)

	snap, err := cfg.Store.Load(ctx, s.key())
	switch {
	case err != nil:
		cfg.Logger.Warn("failed to load wizard snapshot", "session_id", s.id, "error", err)
		cfg.Metrics.ObserveSnapshot("absent")
	case snap == nil:
		cfg.Metrics.ObserveSnapshot("absent")
	case snap.FreshAt(cfg.Clock(), cfg.SnapshotTTL):
		s.state = snap.State
		cfg.Metrics.ObserveSnapshot("adopted")
	default:
		cfg.Metrics.ObserveSnapshot("expired")
	}
	if s.state.Phone == "" && req.Identity.Phone != "" {
		s.state.Phone = strings.TrimSpace(req.Identity.Phone)
	}

	s.loadReference(ctx)

	warmCtx, stop := context.WithTimeout(context.WithoutCancel(ctx), cfg.AvailabilityTimeout)
	s.stop = stop
	go s.warmAvailability(warmCtx)

	var query url.Values
	if req.PageURL != "" {
		if u, err := url.Parse(req.PageURL); err == nil {
			query = u.Query()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	res := ResolvePrefill(Prefill{Nav: req.Nav, Query: query}, s.index)
	s.state = res.Seed(s.state)
	if res.Landing != StepMenu {
		s.step = res.Landing
	} else {
		s.step = StepFromQuery(query)
	}
	cfg.Metrics.ObserveStepView(string(s.step))
	s.persistLocked(ctx)
	return nil
}

// loadReference runs the three startup fetches concurrently and waits for all
// of them. A failed fetch is logged and leaves its catalog empty.
func (s *Session) loadReference(ctx context.Context) {
	var (
		settings      *catalog.SalonSettings
		services      []catalog.Service
		professionals []catalog.Professional
		servicesErr   error
		employeesErr  error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		settings, err = s.fetchSettings(gctx)
		if err != nil {
			settings = nil
		}
		return nil
	})
	g.Go(func() error {
		services, servicesErr = s.fetchServices(gctx)
		return nil
	})
	g.Go(func() error {
		professionals, employeesErr = s.fetchEmployees(gctx, s.lang)
		return nil
	})
	_ = g.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()
	if settings != nil {
		s.settings = *settings
	}
	s.services, s.servicesOK = services, servicesErr == nil
	s.professionals, s.employeesOK = professionals, employeesErr == nil
	s.index = catalog.NewIndex(s.services, s.professionals)
}

func (s *Session) fetchSettings(ctx context.Context) (*catalog.SalonSettings, error) {
	start := time.Now()
	settings, err := s.m.cfg.Backend.GetPublicSalonSettings(ctx)
	s.m.cfg.Metrics.ObserveFetch("salon", time.Since(start).Seconds(), err)
	if err != nil {
		s.m.cfg.Logger.Warn("failed to load salon settings", "session_id", s.id, "salon_id", s.salonID, "error", err)
	}
	return settings, err
}

func (s *Session) fetchServices(ctx context.Context) ([]catalog.Service, error) {
	start := time.Now()
	services, err := s.m.cfg.Backend.GetPublicServices(ctx)
	s.m.cfg.Metrics.ObserveFetch("services", time.Since(start).Seconds(), err)
	if err != nil {
		s.m.cfg.Logger.Warn("failed to load services", "session_id", s.id, "salon_id", s.salonID, "error", err)
		return nil, err
	}
	return services, nil
}

func (s *Session) fetchEmployees(ctx context.Context, lang string) ([]catalog.Professional, error) {
	start := time.Now()
	professionals, err := s.m.cfg.Backend.GetPublicEmployees(ctx, lang)
	s.m.cfg.Metrics.ObserveFetch("employees", time.Since(start).Seconds(), err)
	if err != nil {
		s.m.cfg.Logger.Warn("failed to load employees", "session_id", s.id, "salon_id", s.salonID, "language", lang, "error", err)
		return nil, err
	}
	return professionals, nil
}

// warmAvailability fetches today's per-professional times in the background.
// Failures are logged only.
func (s *Session) warmAvailability(ctx context.Context) {
	defer close(s.warmed)
	defer s.stop()

	s.mu.Lock()
	loc := s.settings.Location()
	s.mu.Unlock()
	now := s.m.cfg.Clock().In(loc)
	today := civil.DateOf(now)

	start := time.Now()
	byProfessional, err := s.m.cfg.Backend.GetPublicBatchAvailability(ctx, today.In(loc))
	s.m.cfg.Metrics.ObserveFetch("availability", time.Since(start).Seconds(), err)
	if err != nil {
		s.m.cfg.Logger.Warn("background availability fetch failed", "session_id", s.id, "salon_id", s.salonID, "error", err)
		return
	}
	s.today.Fill(today, byProfessional)
	s.m.cfg.Hub.Publish(Event{Kind: EventAvailability, SessionID: s.id, Payload: byProfessional})
}

// WaitAvailability blocks until the background warm-up has finished.
func (s *Session) WaitAvailability(ctx context.Context) error {
	select {
	case <-s.warmed:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Session) close() {
	if s.stop != nil {
		s.stop()
	}
}

func (s *Session) touch() {
	s.mu.Lock()
	s.active = s.m.cfg.Clock()
	s.mu.Unlock()
}

func (s *Session) lastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// persistLocked writes the current state. A failed write is logged and the
// in-memory state stays authoritative.
func (s *Session) persistLocked(ctx context.Context) {
	snap := NewSnapshot(s.state, s.m.cfg.Clock())
	if err := s.m.cfg.Store.Save(ctx, s.key(), snap); err != nil {
		s.m.cfg.Logger.Warn("failed to persist wizard snapshot", "session_id", s.id, "error", err)
	}
}

// View is the session as the widget renders it.
type View struct {
	SessionID         string                `json:"session_id"`
	Step              Step                  `json:"step"`
	Language          string                `json:"language"`
	State             State                 `json:"state"`
	TotalPrice        float64               `json:"total_price"`
	TotalMinutes      int                   `json:"total_minutes"`
	Complete          bool                  `json:"complete"`
	Salon             catalog.SalonSettings `json:"salon"`
	ActionBar         ActionBar             `json:"action_bar"`
	AvailabilityReady bool                  `json:"availability_ready"`
}

// View renders the session.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

func (s *Session) viewLocked() View {
	f := NewFormatter(s.lang, s.settings.Currency)
	return View{
		SessionID:         s.id,
		Step:              s.step,
		Language:          s.lang,
		State:             s.state.clone(),
		TotalPrice:        s.state.TotalPrice(),
		TotalMinutes:      s.state.TotalDuration(),
		Complete:          s.state.IsComplete(),
		Salon:             s.settings,
		ActionBar:         BuildActionBar(s.state, s.step, s.lang, f),
		AvailabilityReady: s.today.Ready(),
	}
}

// State returns a copy of the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Authenticate refreshes the caller identity. A profile phone fills an empty
// contact phone.
func (s *Session) Authenticate(ctx context.Context, id Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = s.m.cfg.Clock()
	s.identity = id
	if s.state.Phone == "" && id.Phone != "" {
		s.state.Phone = strings.TrimSpace(id.Phone)
		s.persistLocked(s.ctx(ctx))
	}
}

// Dispatch applies an action, repairs consistency, persists and publishes.
// A rejected action leaves the state untouched.
func (s *Session) Dispatch(ctx context.Context, a Action) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.dispatchLocked(s.ctx(ctx), a); err != nil {
		return s.viewLocked(), err
	}
	return s.viewLocked(), nil
}

func (s *Session) dispatchLocked(ctx context.Context, a Action) error {
	if s.submitting {
		return ErrSubmissionInProgress
	}
	prev := s.state
	next, err := Apply(prev, a)
	if err != nil {
		return err
	}
	s.state = next
	s.active = s.m.cfg.Clock()

	if prev.professionalKey() != next.professionalKey() || prev.ProfessionalSelected != next.ProfessionalSelected ||
		prev.TotalDuration() != next.TotalDuration() {
		s.datesGen++
		s.slotsGen++
		s.month = nil
		s.slots = nil
	}
	if !sameDate(prev.Date, next.Date) {
		s.slotsGen++
		s.slots = nil
	}
	if !sameIDs(prev.ServiceIDs(), next.ServiceIDs()) {
		s.promo = nil
		s.promoCode = ""
	}

	s.persistLocked(ctx)
	s.m.cfg.Hub.Publish(Event{Kind: EventState, SessionID: s.id, Payload: s.viewLocked()})
	return nil
}

func sameDate(a, b *civil.Date) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func sameIDs(a, b []catalog.ID) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// SetStep moves to step and returns the history-replacing navigation.
func (s *Session) SetStep(step Step, pageURL string) (Navigation, error) {
	nav, err := NavigateURL(pageURL, step)
	if err != nil {
		return Navigation{}, err
	}
	s.mu.Lock()
	s.step = step
	s.active = s.m.cfg.Clock()
	s.mu.Unlock()
	s.m.cfg.Metrics.ObserveStepView(string(step))
	s.m.cfg.Hub.Publish(Event{Kind: EventStep, SessionID: s.id, Payload: nav})
	return nav, nil
}

// Step returns the active step.
func (s *Session) Step() Step {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.step
}

// ensureServices fetches the catalog when the startup preload failed.
func (s *Session) ensureServices(ctx context.Context) []catalog.Service {
	s.mu.Lock()
	if s.servicesOK || len(s.services) > 0 {
		out := s.services
		s.mu.Unlock()
		return out
	}
	s.mu.Unlock()

	services, err := s.fetchServices(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil && !s.servicesOK {
		s.services, s.servicesOK = services, true
		s.index = catalog.NewIndex(s.services, s.professionals)
	}
	return s.services
}

// ensureProfessionals fetches the staff when the startup preload failed.
func (s *Session) ensureProfessionals(ctx context.Context) []catalog.Professional {
	s.mu.Lock()
	if s.employeesOK || len(s.professionals) > 0 {
		out := s.professionals
		s.mu.Unlock()
		return out
	}
	lang := s.lang
	s.mu.Unlock()

	professionals, err := s.fetchEmployees(ctx, lang)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil && !s.employeesOK {
		s.professionals, s.employeesOK = professionals, true
		s.index = catalog.NewIndex(s.services, s.professionals)
	}
	return s.professionals
}

// Services renders the services step.
func (s *Session) Services(ctx context.Context, search, category string) ServicesStep {
	services := s.ensureServices(s.ctx(ctx))
	s.mu.Lock()
	defer s.mu.Unlock()
	return ServicesView(s.state, services, ServiceFilter{Search: search, Category: category, Lang: s.lang})
}

// ToggleService adds or removes a catalog service by id.
func (s *Session) ToggleService(ctx context.Context, id catalog.ID) (View, error) {
	s.ensureServices(s.ctx(ctx))
	s.mu.Lock()
	defer s.mu.Unlock()
	a, err := ToggleServiceByID(s.index, id)
	if err != nil {
		return s.viewLocked(), err
	}
	if err := s.dispatchLocked(s.ctx(ctx), a); err != nil {
		return s.viewLocked(), err
	}
	return s.viewLocked(), nil
}

// Professionals renders the professional step.
func (s *Session) Professionals(ctx context.Context) []ProfessionalOption {
	professionals := s.ensureProfessionals(s.ctx(ctx))
	s.mu.Lock()
	defer s.mu.Unlock()
	return ProfessionalOptions(s.state, professionals, s.lang, &s.today)
}

// ChooseProfessional applies a professional-step click.
func (s *Session) ChooseProfessional(ctx context.Context, choice ProfessionalChoice) (View, error) {
	if !choice.Flexible && choice.ProfessionalID != FlexibleOptionID {
		s.ensureProfessionals(s.ctx(ctx))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	a, err := ChooseProfessional(s.state, s.index, choice)
	if err != nil {
		return s.viewLocked(), err
	}
	if err := s.dispatchLocked(s.ctx(ctx), a); err != nil {
		return s.viewLocked(), err
	}
	return s.viewLocked(), nil
}

// Dates fetches the month's available dates for the current professional and
// duration. When a newer request or a selection change superseded this one,
// the result is discarded and the last applied month is returned with
// Applied false.
func (s *Session) Dates(ctx context.Context, year int, month time.Month) (MonthView, error) {
	ctx = s.ctx(ctx)
	s.mu.Lock()
	s.datesGen++
	gen := s.datesGen
	q := salonapi.DatesQuery{
		Professional: salonapi.AnyProfessional,
		Year:         year,
		Month:        int(month),
		Duration:     s.state.TotalDuration(),
	}
	if s.state.Professional != nil {
		q.Professional = s.state.Professional.Name
	}
	loc := s.settings.Location()
	s.mu.Unlock()

	dates, err := s.m.cfg.Backend.GetAvailableDates(ctx, q)
	if err != nil {
		s.m.cfg.Logger.Warn("failed to load available dates", "session_id", s.id, "year", year, "month", int(month), "error", err)
		return MonthView{}, fmt.Errorf("wizard: available dates: %w", err)
	}

	today := civil.DateOf(s.m.cfg.Clock().In(loc))
	view := MonthView{
		Year:    year,
		Month:   int(month),
		Days:    BuildMonth(year, month, dates, today),
		Applied: true,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.datesGen {
		s.m.cfg.Metrics.ObserveStale("dates")
		s.m.cfg.Logger.Debug("discarding stale available dates", "session_id", s.id, "year", year, "month", int(month))
		if s.month != nil {
			latest := *s.month
			latest.Applied = false
			return latest, nil
		}
		return MonthView{Year: year, Month: int(month), Days: []DayCell{}}, nil
	}
	s.month = &view
	return view, nil
}

// Slots fetches the times of a date. A concrete professional is asked
// directly; otherwise every professional is asked in parallel and the
// available times are merged. A result superseded by a newer request, or by
// a change of date or professional, is discarded.
func (s *Session) Slots(ctx context.Context, date civil.Date) (SlotsView, error) {
	ctx = s.ctx(ctx)
	professionals := s.ensureProfessionals(ctx)

	s.mu.Lock()
	s.slotsGen++
	gen := s.slotsGen
	var professional *catalog.Professional
	if s.state.Professional != nil {
		p := *s.state.Professional
		professional = &p
	}
	proKey := s.state.professionalKey()
	loc := s.settings.Location()
	s.mu.Unlock()

	day := date.In(loc)
	var times []string
	if professional != nil {
		slots, err := s.m.cfg.Backend.GetPublicAvailableSlots(ctx, day, professional.ID)
		if err != nil {
			cached, ok := s.today.Times(date, professional.ID)
			if !ok {
				s.m.cfg.Logger.Warn("failed to load slots", "session_id", s.id, "date", date.String(), "professional_id", string(professional.ID), "error", err)
				return SlotsView{}, fmt.Errorf("wizard: slots: %w", err)
			}
			slots = make([]salonapi.Slot, 0, len(cached))
			for _, t := range cached {
				slots = append(slots, salonapi.Slot{Time: t, Available: true})
			}
		}
		times = UnionSlots(slots)
	} else {
		times = s.unionAcross(ctx, day, date, professionals)
	}

	view := SlotsView{Date: date, Times: times, Groups: GroupSlots(times), Applied: true}

	s.mu.Lock()
	defer s.mu.Unlock()
	superseded := gen != s.slotsGen ||
		proKey != s.state.professionalKey() ||
		(s.state.Date != nil && *s.state.Date != date)
	if superseded {
		s.m.cfg.Metrics.ObserveStale("slots")
		s.m.cfg.Logger.Debug("discarding stale slots", "session_id", s.id, "date", date.String())
		if s.slots != nil {
			latest := *s.slots
			latest.Applied = false
			latest.Selected = s.state.Time
			return latest, nil
		}
		return SlotsView{Date: date, Times: []string{}, Groups: GroupSlots(nil)}, nil
	}
	view.Selected = s.state.Time
	s.slots = &view
	return view, nil
}

func (s *Session) unionAcross(ctx context.Context, day time.Time, date civil.Date, professionals []catalog.Professional) []string {
	lists := make([][]salonapi.Slot, len(professionals))
	g, gctx := errgroup.WithContext(ctx)
	for i, p := range professionals {
		g.Go(func() error {
			slots, err := s.m.cfg.Backend.GetPublicAvailableSlots(gctx, day, p.ID)
			if err != nil {
				s.m.cfg.Logger.Warn("failed to load slots", "session_id", s.id, "date", date.String(), "professional_id", string(p.ID), "error", err)
				return nil
			}
			lists[i] = slots
			return nil
		})
	}
	_ = g.Wait()
	return UnionSlots(lists...)
}

// SetPhone stores the contact phone.
func (s *Session) SetPhone(ctx context.Context, phone string) (View, error) {
	return s.Dispatch(ctx, SetPhone{Phone: phone})
}

// ApplyPromo validates a promo code for the current order. A rejected code
// returns ErrPromoInvalid and leaves any previous promo in place.
func (s *Session) ApplyPromo(ctx context.Context, code string) (ConfirmView, error) {
	ctx = s.ctx(ctx)
	s.mu.Lock()
	req := PromoRequestFor(s.state, code, s.identity.ClientID)
	s.mu.Unlock()

	if req.Code == "" {
		return s.ConfirmView(), ErrPromoInvalid
	}
	res, err := s.m.cfg.Backend.ValidatePromoCode(ctx, req)
	if err != nil {
		s.m.cfg.Logger.Warn("promo validation failed", "session_id", s.id, "error", err)
		return s.ConfirmView(), fmt.Errorf("wizard: promo validation: %w", err)
	}
	if !res.Valid {
		if res.Error != "" {
			return s.ConfirmView(), fmt.Errorf("%w: %s", ErrPromoInvalid, res.Error)
		}
		return s.ConfirmView(), ErrPromoInvalid
	}

	s.mu.Lock()
	if sameIDs(req.ServiceIDs, s.state.ServiceIDs()) {
		s.promo = res
		s.promoCode = req.Code
	}
	s.mu.Unlock()
	return s.ConfirmView(), nil
}

// ConfirmView renders the confirm step.
func (s *Session) ConfirmView() ConfirmView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return BuildConfirmView(s.state, s.lang, s.promoCode, s.promo, s.m.cfg.MinPhoneDigits)
}

// ConfirmResult is a persisted booking and where to go next.
type ConfirmResult struct {
	Booking  salonapi.BookingResult  `json:"booking"`
	Kind     salonapi.SubmissionKind `json:"kind"`
	Redirect Redirect                `json:"redirect"`
}

// Confirm submits the booking. Validation errors leave everything untouched.
// On success the snapshot is deleted and the wizard starts over; on a
// backend failure the state is kept for a retry.
func (s *Session) Confirm(ctx context.Context, req ConfirmRequest) (ConfirmResult, error) {
	ctx, span := s.m.tracer.Start(s.ctx(ctx), "wizard.confirm")
	defer span.End()

	s.mu.Lock()
	if s.submitting {
		s.mu.Unlock()
		return ConfirmResult{}, ErrSubmissionInProgress
	}
	req.PromoCode = s.promoCode
	req.Source = s.m.cfg.BookingSource
	identity := s.identity
	state := s.state.clone()
	sub, err := BuildSubmission(state, identity, req, s.m.cfg.MinPhoneDigits)
	if err != nil {
		s.mu.Unlock()
		return ConfirmResult{}, err
	}
	// The lock is released for the backend call; state edits are refused
	// until it returns.
	s.submitting = true
	s.mu.Unlock()

	res, err := s.m.cfg.Backend.SubmitBooking(ctx, sub)
	s.m.cfg.Metrics.ObserveBooking(string(sub.Kind), err == nil)
	s.audit(ctx, state, sub, res, err)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.submitting = false
	if err != nil {
		span.RecordError(err)
		s.m.cfg.Logger.Error("booking submission failed", "session_id", s.id, "salon_id", s.salonID, "kind", string(sub.Kind), "error", err)
		return ConfirmResult{}, fmt.Errorf("%w: %v", ErrSubmissionFailed, err)
	}

	if err := s.m.cfg.Store.Delete(ctx, s.key()); err != nil {
		s.m.cfg.Logger.Warn("failed to delete wizard snapshot", "session_id", s.id, "error", err)
	}
	s.state = Empty()
	if identity.Phone != "" {
		s.state.Phone = identity.Phone
	}
	s.promo = nil
	s.promoCode = ""
	s.datesGen++
	s.slotsGen++
	s.month = nil
	s.slots = nil
	s.step = StepMenu
	s.m.cfg.Hub.Publish(Event{Kind: EventState, SessionID: s.id, Payload: s.viewLocked()})

	s.m.cfg.Logger.Info("booking confirmed", "session_id", s.id, "salon_id", s.salonID, "kind", string(sub.Kind), "booking_id", string(res.ID))
	return ConfirmResult{Booking: *res, Kind: sub.Kind, Redirect: RedirectAfterBooking(identity)}, nil
}

func (s *Session) audit(ctx context.Context, state State, sub salonapi.Submission, res *salonapi.BookingResult, submitErr error) {
	if s.m.cfg.Auditor == nil {
		return
	}
	ids := make([]string, 0, len(state.Services))
	for _, id := range state.ServiceIDs() {
		ids = append(ids, string(id))
	}
	rec := audit.Confirmation{
		SalonID:        s.salonID,
		SessionID:      s.id,
		Variant:        string(sub.Kind),
		Outcome:        audit.OutcomeSuccess,
		ServiceIDs:     ids,
		ProfessionalID: string(sub.Payload.EmployeeID),
		Date:           sub.Payload.Date,
		Time:           sub.Payload.Time,
	}
	if submitErr != nil {
		rec.Outcome = audit.OutcomeFailure
		rec.Error = submitErr.Error()
	} else if res != nil {
		rec.BookingID = string(res.ID)
	}
	if err := s.m.cfg.Auditor.LogConfirmation(ctx, rec); err != nil {
		s.m.cfg.Logger.Warn("failed to audit booking confirmation", "session_id", s.id, "error", err)
	}
}

// Reset clears the wizard, deletes the snapshot and returns to the menu.
func (s *Session) Reset(ctx context.Context) View {
	ctx = s.ctx(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Empty()
	s.promo = nil
	s.promoCode = ""
	s.datesGen++
	s.slotsGen++
	s.month = nil
	s.slots = nil
	s.step = StepMenu
	s.active = s.m.cfg.Clock()
	if err := s.m.cfg.Store.Delete(ctx, s.key()); err != nil {
		s.m.cfg.Logger.Warn("failed to delete wizard snapshot", "session_id", s.id, "error", err)
	}
	s.m.cfg.Metrics.ObserveStepView(string(StepMenu))
	view := s.viewLocked()
	s.m.cfg.Hub.Publish(Event{Kind: EventState, SessionID: s.id, Payload: view})
	return view
}

// SetLanguage switches the UI language and refetches the localized staff.
// The selected professional is refreshed from the new list.
func (s *Session) SetLanguage(ctx context.Context, lang string) (View, error) {
	lang = strings.TrimSpace(lang)
	if lang == "" {
		return s.View(), nil
	}
	ctx = s.ctx(ctx)
	professionals, err := s.fetchEmployees(ctx, lang)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lang = lang
	if err != nil {
		return s.viewLocked(), nil
	}
	s.professionals, s.employeesOK = professionals, true
	s.index = catalog.NewIndex(s.services, s.professionals)
	if s.state.Professional != nil && !s.submitting {
		if p, ok := s.index.Professional(s.state.Professional.ID); ok {
			if err := s.dispatchLocked(ctx, SetProfessional{Professional: &p, Selected: true}); err != nil {
				return s.viewLocked(), err
			}
		}
	}
	return s.viewLocked(), nil
}

// ApplyNavigation handles a professional prefill that arrives while the
// session is already open. The step does not change.
func (s *Session) ApplyNavigation(ctx context.Context, nav NavigationState) (View, bool, error) {
	s.ensureProfessionals(s.ctx(ctx))
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := ApplyLateProfessional(nav, s.index)
	if !ok {
		return s.viewLocked(), false, nil
	}
	if err := s.dispatchLocked(s.ctx(ctx), a); err != nil {
		return s.viewLocked(), false, err
	}
	return s.viewLocked(), true, nil
}
