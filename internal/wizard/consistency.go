package wizard

import "github.com/wolfman30/salon-booking-wizard/internal/catalog"

// Repair is the batch of updates the consistency rule asks for.
type Repair struct {
	// Services, when non-nil, replaces the selection.
	Services []catalog.Service
	// ClearProfessional resets the professional to undecided.
	ClearProfessional bool
}

// Empty reports whether nothing needs repairing.
func (r Repair) Empty() bool {
	return r.Services == nil && !r.ClearProfessional
}

// Consistency checks the selected services against a concrete professional's
// whitelist. When no selected service is offered the professional is cleared
// and the services stay; otherwise services outside the whitelist are dropped.
// A nil professional or an empty whitelist never constrains anything.
func Consistency(services []catalog.Service, professional *catalog.Professional) Repair {
	if professional == nil || !professional.HasWhitelist() || len(services) == 0 {
		return Repair{}
	}

	filtered := make([]catalog.Service, 0, len(services))
	for _, svc := range services {
		if professional.CanPerform(svc.ID) {
			filtered = append(filtered, svc)
		}
	}

	if len(filtered) == 0 {
		return Repair{ClearProfessional: true}
	}
	if len(filtered) != len(services) {
		return Repair{Services: filtered}
	}
	return Repair{}
}

// Reconcile applies the consistency repair to a state in one step.
func Reconcile(s State) State {
	repair := Consistency(s.Services, s.Professional)
	if repair.Empty() {
		return s
	}
	if repair.Services != nil {
		s.Services = repair.Services
	}
	if repair.ClearProfessional {
		s.Professional = nil
		s.ProfessionalSelected = false
	}
	return s
}
