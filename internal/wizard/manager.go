package wizard

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfman30/salon-booking-wizard/internal/audit"
	"github.com/wolfman30/salon-booking-wizard/internal/catalog"
	"github.com/wolfman30/salon-booking-wizard/internal/observability/metrics"
	"github.com/wolfman30/salon-booking-wizard/internal/salonapi"
	"github.com/wolfman30/salon-booking-wizard/pkg/logging"
)

// ErrSessionNotFound is returned for an id with no live session and no fresh snapshot.
var ErrSessionNotFound = errors.New("wizard: session not found")

// Backend is the salon API surface the wizard depends on.
type Backend interface {
	GetPublicSalonSettings(ctx context.Context) (*catalog.SalonSettings, error)
	GetPublicServices(ctx context.Context) ([]catalog.Service, error)
	GetPublicEmployees(ctx context.Context, lang string) ([]catalog.Professional, error)
	GetPublicBatchAvailability(ctx context.Context, date time.Time) (map[catalog.ID][]string, error)
	GetAvailableDates(ctx context.Context, q salonapi.DatesQuery) ([]string, error)
	GetPublicAvailableSlots(ctx context.Context, date time.Time, professionalID catalog.ID) ([]salonapi.Slot, error)
	ValidatePromoCode(ctx context.Context, req salonapi.PromoRequest) (*salonapi.PromoResult, error)
	SubmitBooking(ctx context.Context, sub salonapi.Submission) (*salonapi.BookingResult, error)
}

// Auditor records confirmation attempts.
type Auditor interface {
	LogConfirmation(ctx context.Context, c audit.Confirmation) error
}

// Config wires a Manager.
type Config struct {
	Backend         Backend
	Store           PersistenceGateway
	Hub             *Hub
	Auditor         Auditor
	Metrics         *metrics.WizardMetrics
	Logger          *logging.Logger
	Clock           func() time.Time
	SnapshotTTL     time.Duration
	MinPhoneDigits  int
	BookingSource   string
	DefaultLanguage string
	// AvailabilityTimeout bounds the background warm-up fetch.
	AvailabilityTimeout time.Duration
}

// Manager owns the live sessions.
type Manager struct {
	cfg    Config
	tracer trace.Tracer

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager validates the config and applies defaults.
func NewManager(cfg Config) *Manager {
	if cfg.Backend == nil {
		panic("wizard: backend required")
	}
	if cfg.Store == nil {
		panic("wizard: persistence gateway required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.SnapshotTTL <= 0 {
		cfg.SnapshotTTL = DefaultSnapshotTTL
	}
	if cfg.MinPhoneDigits <= 0 {
		cfg.MinPhoneDigits = DefaultMinPhoneDigits
	}
	if cfg.BookingSource == "" {
		cfg.BookingSource = "website"
	}
	if cfg.DefaultLanguage == "" {
		cfg.DefaultLanguage = "en"
	}
	if cfg.AvailabilityTimeout <= 0 {
		cfg.AvailabilityTimeout = 30 * time.Second
	}
	if cfg.Hub == nil {
		cfg.Hub = NewHub()
	}
	return &Manager{
		cfg:      cfg,
		tracer:   otel.Tracer("salon.internal.wizard"),
		sessions: make(map[string]*Session),
	}
}

// Hub returns the event hub sessions publish to.
func (m *Manager) Hub() *Hub {
	return m.cfg.Hub
}

// OpenRequest describes a widget mounting the wizard.
type OpenRequest struct {
	// SessionID resumes an earlier session; empty starts a new one.
	SessionID string
	SalonID   string
	PageURL   string
	Nav       *NavigationState
	Identity  Identity
	Language  string
}

// Open mounts a session: it adopts a fresh snapshot, loads reference data,
// starts the availability warm-up and resolves prefill.
func (m *Manager) Open(ctx context.Context, req OpenRequest) (*Session, error) {
	ctx, span := m.tracer.Start(ctx, "wizard.open")
	defer span.End()

	id := req.SessionID
	if id == "" || m.ownedElsewhere(id, req.SalonID) {
		id = uuid.NewString()
	}
	s := newSession(m, id, req)
	if err := s.mount(ctx, req); err != nil {
		span.RecordError(err)
		return nil, err
	}

	m.mu.Lock()
	old, ok := m.sessions[id]
	if ok && old.salonID != s.salonID {
		// Lost a race with another salon for a client-chosen id.
		m.mu.Unlock()
		s.close()
		req.SessionID = ""
		return m.Open(ctx, req)
	}
	if ok && old != s {
		old.close()
	}
	m.sessions[id] = s
	m.mu.Unlock()
	return s, nil
}

// ownedElsewhere reports whether id is live under a different salon.
func (m *Manager) ownedElsewhere(id, salonID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	return ok && s.salonID != salonID
}

// Get returns a live session of req.SalonID, re-opening it from a fresh
// snapshot when it was evicted or served by another instance. A session
// owned by another salon is reported as not found.
func (m *Manager) Get(ctx context.Context, id string, req OpenRequest) (*Session, error) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	m.mu.Unlock()
	if ok {
		if s.salonID != req.SalonID {
			return nil, ErrSessionNotFound
		}
		s.touch()
		return s, nil
	}

	snap, err := m.cfg.Store.Load(ctx, SnapshotKey{SalonID: req.SalonID, SessionID: id})
	if err != nil {
		m.cfg.Logger.Warn("failed to load wizard snapshot", "session_id", id, "error", err)
		return nil, ErrSessionNotFound
	}
	if snap == nil || !snap.FreshAt(m.cfg.Clock(), m.cfg.SnapshotTTL) {
		return nil, ErrSessionNotFound
	}
	req.SessionID = id
	return m.Open(ctx, req)
}

// Evict drops a live session. Its snapshot stays in the store.
func (m *Manager) Evict(id string) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if ok {
		s.close()
	}
}

// EvictIdle drops sessions idle for longer than idle and reports how many.
func (m *Manager) EvictIdle(idle time.Duration) int {
	cutoff := m.cfg.Clock().Add(-idle)
	var stale []*Session

	m.mu.Lock()
	for id, s := range m.sessions {
		if s.lastActive().Before(cutoff) {
			stale = append(stale, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range stale {
		s.close()
	}
	return len(stale)
}

// Len counts live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Run evicts idle sessions every interval until ctx is done.
func (m *Manager) Run(ctx context.Context, interval, idle time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.EvictIdle(idle); n > 0 {
				m.cfg.Logger.Debug("evicted idle wizard sessions", "count", n)
			}
		}
	}
}
