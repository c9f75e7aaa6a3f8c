package wizard

import (
	"strings"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Formatter renders prices and durations for one UI language.
type Formatter struct {
	printer *message.Printer
	unit    currency.Unit
	hasUnit bool
}

// NewFormatter builds a formatter for lang and an ISO 4217 currency code.
// An unknown currency formats prices as plain numbers.
func NewFormatter(lang string, currencyCode string) Formatter {
	tag, err := language.Parse(lang)
	if err != nil {
		tag = language.English
	}
	f := Formatter{printer: message.NewPrinter(tag)}
	if unit, err := currency.ParseISO(strings.ToUpper(strings.TrimSpace(currencyCode))); err == nil {
		f.unit = unit
		f.hasUnit = true
	}
	return f
}

// Price formats an amount in the salon currency.
func (f Formatter) Price(amount float64) string {
	if f.hasUnit {
		return f.printer.Sprint(currency.Symbol(f.unit.Amount(amount)))
	}
	return f.printer.Sprint(number.Decimal(amount, number.MaxFractionDigits(2)))
}

// Minutes formats a duration given in minutes.
func (f Formatter) Minutes(total int) string {
	h, m := total/60, total%60
	switch {
	case h == 0:
		return f.printer.Sprintf("%d min", m)
	case m == 0:
		return f.printer.Sprintf("%d h", h)
	default:
		return f.printer.Sprintf("%d h %d min", h, m)
	}
}

// Button is one call to action of the sticky bar.
type Button struct {
	Step    Step `json:"step"`
	Confirm bool `json:"confirm"`
}

// BarSummary is the human-readable selection summary.
type BarSummary struct {
	Services     string `json:"services,omitempty"`
	Professional string `json:"professional,omitempty"`
	Duration     string `json:"duration,omitempty"`
	Price        string `json:"price,omitempty"`
	DateTime     string `json:"date_time,omitempty"`
}

// ActionBar is the sticky bottom bar.
type ActionBar struct {
	Visible bool       `json:"visible"`
	Summary BarSummary `json:"summary"`
	Buttons []Button   `json:"buttons"`
}

// BuildActionBar summarizes the selection and offers one continue button for
// every incomplete sub-step other than the current one. The confirm button
// appears only once the booking is complete. The bar is hidden on the menu
// and confirm steps.
func BuildActionBar(s State, current Step, lang string, f Formatter) ActionBar {
	bar := ActionBar{Buttons: []Button{}}
	if current == StepMenu || current == StepConfirm {
		return bar
	}
	bar.Visible = true

	switch n := len(s.Services); {
	case n == 1:
		bar.Summary.Services = s.Services[0].DisplayName(lang)
	case n > 1:
		bar.Summary.Services = f.printer.Sprintf("%d services", n)
	}
	switch {
	case s.Professional != nil:
		bar.Summary.Professional = s.Professional.DisplayName(lang)
	case s.IsFlexible():
		bar.Summary.Professional = FlexibleOptionID
	}
	if len(s.Services) > 0 {
		bar.Summary.Duration = f.Minutes(s.TotalDuration())
		bar.Summary.Price = f.Price(s.TotalPrice())
	}
	if s.Date != nil {
		bar.Summary.DateTime = s.Date.String()
		if s.Time != "" {
			bar.Summary.DateTime += " " + s.Time
		}
	}

	pending := []struct {
		step Step
		done bool
	}{
		{StepServices, len(s.Services) > 0},
		{StepProfessional, s.ProfessionalSelected},
		{StepDateTime, s.Date != nil && s.Time != ""},
	}
	for _, p := range pending {
		if !p.done && p.step != current {
			bar.Buttons = append(bar.Buttons, Button{Step: p.step})
		}
	}
	if s.IsComplete() {
		bar.Buttons = append(bar.Buttons, Button{Step: StepConfirm, Confirm: true})
	}
	return bar
}
