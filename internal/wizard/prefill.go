package wizard

import (
	"net/url"
	"strings"

	"cloud.google.com/go/civil"

	"github.com/wolfman30/salon-booking-wizard/internal/catalog"
)

// Deep-link query parameters.
const (
	QueryServiceID      = "serviceId"
	QueryProfessionalID = "masterId"
	QueryDate           = "date"
	QueryTime           = "time"
)

// NavigationState is prefill data handed over by an in-app transition.
type NavigationState struct {
	ServiceID      string `json:"serviceId,omitempty"`
	ProfessionalID string `json:"masterId,omitempty"`
	Date           string `json:"date,omitempty"`
	Time           string `json:"time,omitempty"`
}

// Prefill combines both prefill channels. Navigation state wins per field.
type Prefill struct {
	Nav   *NavigationState
	Query url.Values
}

func (p Prefill) field(key string, fromNav func(*NavigationState) string) string {
	if p.Nav != nil {
		if v := strings.TrimSpace(fromNav(p.Nav)); v != "" {
			return v
		}
	}
	return strings.TrimSpace(p.Query.Get(key))
}

// PrefillResult is the resolved seed and where the wizard should land.
type PrefillResult struct {
	Actions []Action
	Landing Step
	// Resolved flags report which fields matched reference data.
	Service      bool
	Professional bool
	Date         bool
	Time         bool
}

// ResolvePrefill matches the prefill fields against the loaded catalogs. Any
// subset of fields may be missing or unknown; unknown ids and malformed
// dates are ignored. A time is only seeded together with a date.
func ResolvePrefill(p Prefill, idx catalog.Index) PrefillResult {
	var res PrefillResult

	if id := p.field(QueryServiceID, func(n *NavigationState) string { return n.ServiceID }); id != "" {
		if svc, ok := idx.Service(catalog.ID(id)); ok {
			res.Actions = append(res.Actions, SetServices{Services: []catalog.Service{svc}})
			res.Service = true
		}
	}

	if id := p.field(QueryProfessionalID, func(n *NavigationState) string { return n.ProfessionalID }); id != "" {
		if pro, ok := idx.Professional(catalog.ID(id)); ok {
			res.Actions = append(res.Actions, SetProfessional{Professional: &pro, Selected: true})
			res.Professional = true
		}
	}

	if raw := p.field(QueryDate, func(n *NavigationState) string { return n.Date }); raw != "" {
		if d, err := civil.ParseDate(raw); err == nil {
			clock := p.field(QueryTime, func(n *NavigationState) string { return n.Time })
			if _, err := civil.ParseTime(normalizeClock(clock)); clock == "" || err != nil {
				clock = ""
			}
			res.Actions = append(res.Actions, SetDateTime{Date: &d, Time: clock})
			res.Date = true
			res.Time = clock != ""
		}
	}

	res.Landing = landingStep(res, res.Seed(Empty()))
	return res
}

// landingStep picks the step from the resolved fields and the state they
// seed. A prefilled professional that cannot perform the prefilled service
// is cleared while seeding, so the professional has to be picked again.
func landingStep(res PrefillResult, seeded State) Step {
	switch {
	case res.Service && res.Professional && !seeded.ProfessionalSelected:
		return StepProfessional
	case res.Service && res.Professional:
		return StepDateTime
	case res.Service:
		return StepServices
	case res.Professional && res.Date && res.Time:
		return StepServices
	default:
		return StepMenu
	}
}

// Seed applies the prefill actions to s in order.
func (r PrefillResult) Seed(s State) State {
	for _, a := range r.Actions {
		if next, err := Apply(s, a); err == nil {
			s = next
		}
	}
	return s
}

// ApplyLateProfessional handles a professional prefill that arrives after the
// wizard is open. It never changes the step. ok is false when nav carries no
// known professional.
func ApplyLateProfessional(nav NavigationState, idx catalog.Index) (Action, bool) {
	id := strings.TrimSpace(nav.ProfessionalID)
	if id == "" {
		return nil, false
	}
	pro, ok := idx.Professional(catalog.ID(id))
	if !ok {
		return nil, false
	}
	return SetProfessional{Professional: &pro, Selected: true}, true
}
