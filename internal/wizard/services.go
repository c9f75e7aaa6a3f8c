package wizard

import (
	"errors"
	"sort"
	"strings"

	"github.com/wolfman30/salon-booking-wizard/internal/catalog"
)

// ErrUnknownService is returned when a service id is not in the catalog.
var ErrUnknownService = errors.New("wizard: unknown service")

// AllCategories is the category filter value that matches every service.
const AllCategories = "all"

// ServiceFilter narrows the services list.
type ServiceFilter struct {
	Search   string
	Category string
	Lang     string
}

// ServiceItem is one row of the services step.
type ServiceItem struct {
	ID       catalog.ID `json:"id"`
	Name     string     `json:"name"`
	Price    float64    `json:"price"`
	Minutes  int        `json:"minutes"`
	Category string     `json:"category,omitempty"`
	Selected bool       `json:"selected"`
}

// ServicesStep is the services step view.
type ServicesStep struct {
	Items      []ServiceItem `json:"items"`
	Categories []string      `json:"categories"`
	Selected   []catalog.ID  `json:"selected"`
}

// ServicesView lists the catalog filtered by search text and category. A
// selected concrete professional with a whitelist further limits the list.
func ServicesView(s State, services []catalog.Service, f ServiceFilter) ServicesStep {
	search := strings.ToLower(strings.TrimSpace(f.Search))
	category := strings.TrimSpace(f.Category)
	if category == "" {
		category = AllCategories
	}

	items := make([]ServiceItem, 0, len(services))
	for _, svc := range services {
		if s.Professional != nil && !s.Professional.CanPerform(svc.ID) {
			continue
		}
		if category != AllCategories && svc.Category != category {
			continue
		}
		name := svc.DisplayName(f.Lang)
		if search != "" && !strings.Contains(strings.ToLower(name), search) {
			continue
		}
		items = append(items, ServiceItem{
			ID:       svc.ID,
			Name:     name,
			Price:    svc.Price,
			Minutes:  svc.Minutes(),
			Category: svc.Category,
			Selected: s.HasService(svc.ID),
		})
	}
	return ServicesStep{
		Items:      items,
		Categories: Categories(services),
		Selected:   s.ServiceIDs(),
	}
}

// Categories returns the filter options: AllCategories followed by the
// catalog's distinct categories in sorted order.
func Categories(services []catalog.Service) []string {
	seen := make(map[string]struct{})
	var cats []string
	for _, svc := range services {
		if svc.Category == "" {
			continue
		}
		if _, ok := seen[svc.Category]; ok {
			continue
		}
		seen[svc.Category] = struct{}{}
		cats = append(cats, svc.Category)
	}
	sort.Strings(cats)
	return append([]string{AllCategories}, cats...)
}

// ToggleServiceByID resolves id against the catalog and builds the toggle.
func ToggleServiceByID(idx catalog.Index, id catalog.ID) (Action, error) {
	svc, ok := idx.Service(id)
	if !ok {
		return nil, ErrUnknownService
	}
	return ToggleService{Service: svc}, nil
}
