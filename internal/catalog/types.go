// Package catalog holds the salon reference data the booking wizard works with:
// services, professionals and public salon settings, normalized from the
// loosely-typed payloads the salon backend returns.
package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DefaultServiceMinutes is used when a service carries no usable duration.
const DefaultServiceMinutes = 60

// ID identifies a service or professional. The backend sends ids either as
// JSON numbers or strings; both decode to the same ID.
type ID string

// UnmarshalJSON accepts a JSON string or number.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("catalog: invalid id %s", data)
	}
	*id = ID(n.String())
	return nil
}

// Service is a bookable salon service.
type Service struct {
	ID       ID                `json:"id"`
	Name     string            `json:"name"`
	Names    map[string]string `json:"names,omitempty"`
	Price    float64           `json:"price"`
	Duration *int              `json:"duration,omitempty"`
	Category string            `json:"category,omitempty"`
}

// DisplayName returns the name for lang, falling back to the default name.
func (s Service) DisplayName(lang string) string {
	if name := strings.TrimSpace(s.Names[lang]); name != "" {
		return name
	}
	if s.Name != "" {
		return s.Name
	}
	for _, name := range s.Names {
		if name != "" {
			return name
		}
	}
	return string(s.ID)
}

// Minutes is the service duration, defaulting to DefaultServiceMinutes when
// absent or non-positive.
func (s Service) Minutes() int {
	if s.Duration == nil || *s.Duration <= 0 {
		return DefaultServiceMinutes
	}
	return *s.Duration
}

// Professional is a staff member who can be booked.
type Professional struct {
	ID         ID                `json:"id"`
	Name       string            `json:"name"`
	Names      map[string]string `json:"names,omitempty"`
	ServiceIDs []ID              `json:"service_ids,omitempty"`
}

// DisplayName returns the name for lang, falling back to the default name.
func (p Professional) DisplayName(lang string) string {
	if name := strings.TrimSpace(p.Names[lang]); name != "" {
		return name
	}
	if p.Name != "" {
		return p.Name
	}
	return string(p.ID)
}

// HasWhitelist reports whether the professional is restricted to specific services.
func (p Professional) HasWhitelist() bool {
	return len(p.ServiceIDs) > 0
}

// CanPerform reports whether the professional offers the service. An empty
// whitelist means the professional can perform anything.
func (p Professional) CanPerform(serviceID ID) bool {
	if !p.HasWhitelist() {
		return true
	}
	for _, id := range p.ServiceIDs {
		if id == serviceID {
			return true
		}
	}
	return false
}

// SalonSettings is the public salon metadata.
type SalonSettings struct {
	Name     string `json:"name"`
	Currency string `json:"currency"`
	Timezone string `json:"timezone"`
}

// Location resolves the salon timezone, falling back to UTC.
func (s SalonSettings) Location() *time.Location {
	if s.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Index builds id lookups over a catalog.
type Index struct {
	services      map[ID]Service
	professionals map[ID]Professional
}

// NewIndex indexes the given catalogs.
func NewIndex(services []Service, professionals []Professional) Index {
	idx := Index{
		services:      make(map[ID]Service, len(services)),
		professionals: make(map[ID]Professional, len(professionals)),
	}
	for _, s := range services {
		idx.services[s.ID] = s
	}
	for _, p := range professionals {
		idx.professionals[p.ID] = p
	}
	return idx
}

// Service looks up a service by id.
func (i Index) Service(id ID) (Service, bool) {
	s, ok := i.services[id]
	return s, ok
}

// Professional looks up a professional by id.
func (i Index) Professional(id ID) (Professional, bool) {
	p, ok := i.professionals[id]
	return p, ok
}
