package wizard

import (
	"errors"
	"strings"

	"cloud.google.com/go/civil"

	"github.com/wolfman30/salon-booking-wizard/internal/catalog"
)

var (
	// ErrTimeWithoutDate is returned when a time is set while no date is selected.
	ErrTimeWithoutDate = errors.New("wizard: a date must be selected before a time")
	// ErrInvalidTime is returned for a time that is not HH:MM.
	ErrInvalidTime = errors.New("wizard: time must be HH:MM")
)

// Action is one of the closed set of state updates.
type Action interface {
	reduce(State) (State, error)
}

// SetServices replaces the selection. Duplicates by id keep the first occurrence.
type SetServices struct {
	Services []catalog.Service
}

// ToggleService adds the service when absent and removes it when present.
type ToggleService struct {
	Service catalog.Service
}

// SetProfessional chooses a concrete professional, the flexible match
// (nil Professional, Selected true) or clears the choice (nil, false).
type SetProfessional struct {
	Professional *catalog.Professional
	Selected     bool
}

// SetDateTime sets the date and time together. A nil Date clears both.
type SetDateTime struct {
	Date *civil.Date
	Time string
}

// SetPhone sets the contact phone.
type SetPhone struct {
	Phone string
}

// Reset returns to the empty state.
type Reset struct{}

// Apply reduces an action over the state and repairs any service/professional
// incompatibility it introduced. The input state is not modified.
func Apply(s State, a Action) (State, error) {
	next, err := a.reduce(s.clone())
	if err != nil {
		return s, err
	}
	return Reconcile(next), nil
}

func (a SetServices) reduce(s State) (State, error) {
	s.Services = dedupeServices(a.Services)
	return s, nil
}

func (a ToggleService) reduce(s State) (State, error) {
	for i, svc := range s.Services {
		if svc.ID == a.Service.ID {
			s.Services = append(s.Services[:i:i], s.Services[i+1:]...)
			return s, nil
		}
	}
	s.Services = append(s.Services, a.Service)
	return s, nil
}

func (a SetProfessional) reduce(s State) (State, error) {
	if a.Professional != nil {
		p := *a.Professional
		s.Professional = &p
		s.ProfessionalSelected = true
		return s, nil
	}
	s.Professional = nil
	s.ProfessionalSelected = a.Selected
	return s, nil
}

func (a SetDateTime) reduce(s State) (State, error) {
	t := strings.TrimSpace(a.Time)
	if a.Date == nil {
		if t != "" {
			return s, ErrTimeWithoutDate
		}
		s.Date = nil
		s.Time = ""
		return s, nil
	}
	if t != "" {
		if _, err := civil.ParseTime(normalizeClock(t)); err != nil {
			return s, ErrInvalidTime
		}
	}
	d := *a.Date
	s.Date = &d
	s.Time = t
	return s, nil
}

func (a SetPhone) reduce(s State) (State, error) {
	s.Phone = strings.TrimSpace(a.Phone)
	return s, nil
}

func (Reset) reduce(State) (State, error) {
	return Empty(), nil
}

func dedupeServices(services []catalog.Service) []catalog.Service {
	if len(services) == 0 {
		return nil
	}
	seen := make(map[catalog.ID]struct{}, len(services))
	out := make([]catalog.Service, 0, len(services))
	for _, svc := range services {
		if _, dup := seen[svc.ID]; dup {
			continue
		}
		seen[svc.ID] = struct{}{}
		out = append(out, svc)
	}
	return out
}

// normalizeClock turns "9:30" into "09:30:00" for civil.ParseTime.
func normalizeClock(t string) string {
	if len(t) == 4 && t[1] == ':' {
		t = "0" + t
	}
	if len(t) == 5 {
		t += ":00"
	}
	return t
}
