package wizard

// Badge is the completion marker of one sub-step on the menu.
type Badge struct {
	Step     Step   `json:"step"`
	Complete bool   `json:"complete"`
	Label    string `json:"label,omitempty"`
}

// MenuView is the wizard dashboard.
type MenuView struct {
	Badges []Badge `json:"badges"`
	// Order is present once at least one service is chosen.
	Order    *OrderSummary `json:"order,omitempty"`
	Complete bool          `json:"complete"`
}

// OrderSummary lists the chosen services with totals.
type OrderSummary struct {
	Services     []ServiceItem `json:"services"`
	TotalPrice   float64       `json:"total_price"`
	TotalMinutes int           `json:"total_minutes"`
}

// BuildMenuView reports which of services, professional and date/time are done.
func BuildMenuView(s State, lang string) MenuView {
	servicesBadge := Badge{Step: StepServices, Complete: len(s.Services) > 0}
	if len(s.Services) == 1 {
		servicesBadge.Label = s.Services[0].DisplayName(lang)
	}

	proBadge := Badge{Step: StepProfessional, Complete: s.ProfessionalSelected}
	switch {
	case s.Professional != nil:
		proBadge.Label = s.Professional.DisplayName(lang)
	case s.IsFlexible():
		proBadge.Label = FlexibleOptionID
	}

	dtBadge := Badge{Step: StepDateTime, Complete: s.Date != nil && s.Time != ""}
	if s.Date != nil {
		dtBadge.Label = s.Date.String()
		if s.Time != "" {
			dtBadge.Label += " " + s.Time
		}
	}

	v := MenuView{
		Badges:   []Badge{servicesBadge, proBadge, dtBadge},
		Complete: s.IsComplete(),
	}
	if len(s.Services) > 0 {
		order := &OrderSummary{
			TotalPrice:   s.TotalPrice(),
			TotalMinutes: s.TotalDuration(),
		}
		for _, svc := range s.Services {
			order.Services = append(order.Services, ServiceItem{
				ID:       svc.ID,
				Name:     svc.DisplayName(lang),
				Price:    svc.Price,
				Minutes:  svc.Minutes(),
				Category: svc.Category,
				Selected: true,
			})
		}
		v.Order = order
	}
	return v
}
