// Package wizard implements the client booking wizard: the in-progress booking
// state, its update actions and consistency repair, step routing, the step
// components, deep-link prefill and the per-visitor session orchestrator.
package wizard

import (
	"encoding/json"

	"cloud.google.com/go/civil"

	"github.com/wolfman30/salon-booking-wizard/internal/catalog"
)

// State is the in-progress booking. It is owned by a Session and changed only
// through Apply.
type State struct {
	// Services are the selected services in selection order, unique by id.
	Services []catalog.Service `json:"services"`
	// Professional is the chosen staff member; nil means undecided or flexible.
	Professional *catalog.Professional `json:"professional"`
	// ProfessionalSelected separates "flexible match" (true with nil
	// Professional) from "not decided yet" (false).
	ProfessionalSelected bool        `json:"professionalSelected"`
	Date                 *civil.Date `json:"date"`
	Time                 string      `json:"time,omitempty"`
	Phone                string      `json:"phone"`
}

// Empty returns the initial state.
func Empty() State {
	return State{Phone: ""}
}

// MarshalJSON encodes an empty selection as [] like the snapshot does.
func (s State) MarshalJSON() ([]byte, error) {
	type plain State
	p := plain(s)
	if p.Services == nil {
		p.Services = []catalog.Service{}
	}
	return json.Marshal(p)
}

// IsFlexible reports whether the visitor chose "any available professional".
func (s State) IsFlexible() bool {
	return s.Professional == nil && s.ProfessionalSelected
}

// IsComplete reports whether every step has a selection.
func (s State) IsComplete() bool {
	return len(s.Services) > 0 && s.ProfessionalSelected && s.Date != nil && s.Time != ""
}

// HasService reports whether the service id is selected.
func (s State) HasService(id catalog.ID) bool {
	for _, svc := range s.Services {
		if svc.ID == id {
			return true
		}
	}
	return false
}

// TotalPrice sums the prices of the selected services.
func (s State) TotalPrice() float64 {
	var total float64
	for _, svc := range s.Services {
		total += svc.Price
	}
	return total
}

// TotalDuration sums the selected services' minutes; a service without a
// usable duration counts as catalog.DefaultServiceMinutes.
func (s State) TotalDuration() int {
	total := 0
	for _, svc := range s.Services {
		total += svc.Minutes()
	}
	return total
}

// ServiceIDs lists the selected service ids in selection order.
func (s State) ServiceIDs() []catalog.ID {
	ids := make([]catalog.ID, 0, len(s.Services))
	for _, svc := range s.Services {
		ids = append(ids, svc.ID)
	}
	return ids
}

func (s State) clone() State {
	out := s
	if s.Services != nil {
		out.Services = append([]catalog.Service(nil), s.Services...)
	}
	if s.Professional != nil {
		p := *s.Professional
		out.Professional = &p
	}
	if s.Date != nil {
		d := *s.Date
		out.Date = &d
	}
	return out
}

// professionalKey identifies the professional dimension of availability
// queries: a concrete id or "" for flexible/undecided.
func (s State) professionalKey() catalog.ID {
	if s.Professional == nil {
		return ""
	}
	return s.Professional.ID
}
