package wizard

import (
	"errors"

	"github.com/wolfman30/salon-booking-wizard/internal/catalog"
)

// ErrUnknownProfessional is returned when a professional id is not in the catalog.
var ErrUnknownProfessional = errors.New("wizard: unknown professional")

// FlexibleOptionID identifies the synthetic "any available professional" option.
const FlexibleOptionID = "any"

// ProfessionalOption is one choice on the professional step.
type ProfessionalOption struct {
	ID       catalog.ID `json:"id"`
	Name     string     `json:"name"`
	Flexible bool       `json:"flexible"`
	Selected bool       `json:"selected"`
	// Compatible is false when the professional offers none of the selected services.
	Compatible bool `json:"compatible"`
	// TodayTimes are the warm-up times for today, when known.
	TodayTimes []string `json:"today_times,omitempty"`
}

// ProfessionalOptions lists the flexible option first, then every professional.
func ProfessionalOptions(s State, professionals []catalog.Professional, lang string, today *AvailabilityCache) []ProfessionalOption {
	opts := make([]ProfessionalOption, 0, len(professionals)+1)
	opts = append(opts, ProfessionalOption{
		ID:         FlexibleOptionID,
		Name:       FlexibleOptionID,
		Flexible:   true,
		Selected:   s.IsFlexible(),
		Compatible: true,
	})

	todayDate, hasToday := today.dateOrZero()
	for _, p := range professionals {
		opt := ProfessionalOption{
			ID:         p.ID,
			Name:       p.DisplayName(lang),
			Selected:   s.Professional != nil && s.Professional.ID == p.ID,
			Compatible: compatible(p, s.Services),
		}
		if hasToday {
			opt.TodayTimes, _ = today.Times(todayDate, p.ID)
		}
		opts = append(opts, opt)
	}
	return opts
}

func compatible(p catalog.Professional, services []catalog.Service) bool {
	if !p.HasWhitelist() || len(services) == 0 {
		return true
	}
	for _, svc := range services {
		if p.CanPerform(svc.ID) {
			return true
		}
	}
	return false
}

// ProfessionalChoice is a click on the professional step.
type ProfessionalChoice struct {
	ProfessionalID catalog.ID
	Flexible       bool
}

// ChooseProfessional turns a click into an action. Choosing the flexible
// option marks the professional as decided with no specific person.
// Clicking the already selected professional returns to undecided.
func ChooseProfessional(s State, idx catalog.Index, choice ProfessionalChoice) (Action, error) {
	if choice.Flexible || choice.ProfessionalID == FlexibleOptionID {
		return SetProfessional{Professional: nil, Selected: true}, nil
	}
	p, ok := idx.Professional(choice.ProfessionalID)
	if !ok {
		return nil, ErrUnknownProfessional
	}
	if s.Professional != nil && s.Professional.ID == p.ID {
		return SetProfessional{Professional: nil, Selected: false}, nil
	}
	return SetProfessional{Professional: &p, Selected: true}, nil
}
