package wizard

import (
	"fmt"
	"net/url"
	"strings"
)

// Step is one screen of the wizard.
type Step string

const (
	StepMenu         Step = "menu"
	StepServices     Step = "services"
	StepProfessional Step = "professional"
	StepDateTime     Step = "datetime"
	StepConfirm      Step = "confirm"
)

// StepParam is the page query parameter that carries the active step.
const StepParam = "booking"

// legacyStepParam is removed from every URL the router produces.
const legacyStepParam = "step"

// Steps lists every step in wizard order.
var Steps = []Step{StepMenu, StepServices, StepProfessional, StepDateTime, StepConfirm}

// ParseStep validates a step name.
func ParseStep(raw string) (Step, bool) {
	s := Step(strings.ToLower(strings.TrimSpace(raw)))
	for _, known := range Steps {
		if s == known {
			return s, true
		}
	}
	return "", false
}

// StepFromQuery reads the active step, defaulting to the menu for a missing
// or unknown value.
func StepFromQuery(q url.Values) Step {
	if s, ok := ParseStep(q.Get(StepParam)); ok {
		return s
	}
	return StepMenu
}

// Navigation tells the widget how to move to a step. Replace is always set so
// step changes never add history entries.
type Navigation struct {
	Step    Step   `json:"step"`
	URL     string `json:"url"`
	Replace bool   `json:"replace"`
}

// NavigateURL rewrites the page URL so only the step parameter changes.
// Any legacy step parameter is dropped.
func NavigateURL(rawURL string, step Step) (Navigation, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return Navigation{}, fmt.Errorf("wizard: invalid page url: %w", err)
	}
	q := u.Query()
	q.Del(legacyStepParam)
	q.Set(StepParam, string(step))
	u.RawQuery = q.Encode()
	return Navigation{Step: step, URL: u.String(), Replace: true}, nil
}
