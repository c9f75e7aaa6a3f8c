package wizard

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/civil"

	"github.com/wolfman30/salon-booking-wizard/internal/catalog"
)

// DefaultSnapshotTTL is how long a persisted snapshot may be adopted on open.
const DefaultSnapshotTTL = time.Hour

// Snapshot is a persisted State plus the epoch-millisecond time it was taken.
type Snapshot struct {
	State     State
	Timestamp int64
}

// NewSnapshot captures the state at now.
func NewSnapshot(s State, now time.Time) Snapshot {
	return Snapshot{State: s.clone(), Timestamp: now.UnixMilli()}
}

// FreshAt reports whether the snapshot is younger than ttl at now.
func (s Snapshot) FreshAt(now time.Time, ttl time.Duration) bool {
	return now.UnixMilli()-s.Timestamp < ttl.Milliseconds()
}

// SnapshotKey addresses one session's snapshot within one salon.
type SnapshotKey struct {
	SalonID   string
	SessionID string
}

func (k SnapshotKey) String() string {
	return k.SalonID + ":" + k.SessionID
}

// PersistenceGateway stores one snapshot per salon session. Load returns
// nil, nil when nothing is stored.
type PersistenceGateway interface {
	Load(ctx context.Context, key SnapshotKey) (*Snapshot, error)
	Save(ctx context.Context, key SnapshotKey, snap Snapshot) error
	Delete(ctx context.Context, key SnapshotKey) error
}

type snapshotWire struct {
	State     stateWire `json:"state"`
	Timestamp int64     `json:"timestamp"`
}

type stateWire struct {
	Services             []catalog.Service     `json:"services"`
	Professional         *catalog.Professional `json:"professional"`
	ProfessionalSelected bool                  `json:"professionalSelected"`
	Date                 *string               `json:"date"`
	Time                 *string               `json:"time"`
	Phone                string                `json:"phone"`
}

// MarshalJSON encodes {state: {..., date: "YYYY-MM-DD"|null}, timestamp}.
func (s Snapshot) MarshalJSON() ([]byte, error) {
	w := snapshotWire{
		State: stateWire{
			Services:             s.State.Services,
			Professional:         s.State.Professional,
			ProfessionalSelected: s.State.ProfessionalSelected,
			Phone:                s.State.Phone,
		},
		Timestamp: s.Timestamp,
	}
	if w.State.Services == nil {
		w.State.Services = []catalog.Service{}
	}
	if s.State.Date != nil {
		d := s.State.Date.String()
		w.State.Date = &d
	}
	if s.State.Time != "" {
		t := s.State.Time
		w.State.Time = &t
	}
	return json.Marshal(w)
}

// UnmarshalJSON decodes the persisted layout, parsing the date back.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	var w snapshotWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	state := State{
		Services:             dedupeServices(w.State.Services),
		Professional:         w.State.Professional,
		ProfessionalSelected: w.State.ProfessionalSelected || w.State.Professional != nil,
		Phone:                w.State.Phone,
	}
	if w.State.Date != nil && *w.State.Date != "" {
		d, err := civil.ParseDate(*w.State.Date)
		if err != nil {
			return fmt.Errorf("wizard: snapshot date: %w", err)
		}
		state.Date = &d
		if w.State.Time != nil {
			state.Time = *w.State.Time
		}
	}
	s.State = state
	s.Timestamp = w.Timestamp
	return nil
}

func encodeSnapshot(snap Snapshot) ([]byte, error) {
	data, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("wizard: failed to marshal snapshot: %w", err)
	}
	return data, nil
}

func decodeSnapshot(data []byte) (*Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("wizard: failed to decode snapshot: %w", err)
	}
	return &snap, nil
}
