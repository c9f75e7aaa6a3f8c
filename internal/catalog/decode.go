package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

type rawService struct {
	ID       ID              `json:"id"`
	Name     json.RawMessage `json:"name"`
	Title    json.RawMessage `json:"title"`
	Price    json.RawMessage `json:"price"`
	Duration json.RawMessage `json:"duration"`
	Category json.RawMessage `json:"category"`
}

type rawProfessional struct {
	ID         ID              `json:"id"`
	Name       json.RawMessage `json:"name"`
	ServiceIDs []ID            `json:"service_ids"`
	Services   []struct {
		ID ID `json:"id"`
	} `json:"services"`
}

// DecodeServices normalizes a service catalog payload. The payload may be a
// bare array or an object wrapping it under "services" or "data".
func DecodeServices(data []byte) ([]Service, error) {
	var raws []rawService
	if err := decodeList(data, &raws, "services", "data"); err != nil {
		return nil, fmt.Errorf("catalog: decode services: %w", err)
	}
	services := make([]Service, 0, len(raws))
	for _, raw := range raws {
		if raw.ID == "" {
			continue
		}
		name, names := decodeName(raw.Name)
		if name == "" && len(names) == 0 {
			name, names = decodeName(raw.Title)
		}
		category, _ := decodeName(raw.Category)
		services = append(services, Service{
			ID:       raw.ID,
			Name:     name,
			Names:    names,
			Price:    decodePrice(raw.Price),
			Duration: decodeMinutes(raw.Duration),
			Category: category,
		})
	}
	return services, nil
}

// DecodeProfessionals normalizes an employee catalog payload. The payload may
// be a bare array or an object wrapping it under "employees" or "data".
func DecodeProfessionals(data []byte) ([]Professional, error) {
	var raws []rawProfessional
	if err := decodeList(data, &raws, "employees", "data"); err != nil {
		return nil, fmt.Errorf("catalog: decode employees: %w", err)
	}
	professionals := make([]Professional, 0, len(raws))
	for _, raw := range raws {
		if raw.ID == "" {
			continue
		}
		name, names := decodeName(raw.Name)
		ids := raw.ServiceIDs
		if len(ids) == 0 {
			for _, svc := range raw.Services {
				if svc.ID != "" {
					ids = append(ids, svc.ID)
				}
			}
		}
		professionals = append(professionals, Professional{
			ID:         raw.ID,
			Name:       name,
			Names:      names,
			ServiceIDs: ids,
		})
	}
	return professionals, nil
}

func decodeList(data []byte, out any, keys ...string) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '[' {
		return json.Unmarshal(data, out)
	}
	var wrapped map[string]json.RawMessage
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return err
	}
	for _, key := range keys {
		if inner, ok := wrapped[key]; ok && !bytes.Equal(bytes.TrimSpace(inner), []byte("null")) {
			return json.Unmarshal(inner, out)
		}
	}
	return nil
}

// decodeName accepts "Haircut" or {"en":"Haircut","ru":"Стрижка"}.
func decodeName(data json.RawMessage) (string, map[string]string) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		return strings.TrimSpace(s), nil
	}
	var names map[string]string
	if err := json.Unmarshal(data, &names); err != nil {
		return "", nil
	}
	name := strings.TrimSpace(names["en"])
	return name, names
}

func decodePrice(data json.RawMessage) float64 {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return 0
	}
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		if f < 0 {
			return 0
		}
		return f
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return 0
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || f < 0 {
		return 0
	}
	return f
}

// decodeMinutes reads 60, "60" or "45 min". Anything without leading digits
// is treated as absent.
func decodeMinutes(data json.RawMessage) *int {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		m := int(f)
		return &m
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return nil
	}
	m, ok := ParseMinutes(s)
	if !ok {
		return nil
	}
	return &m
}

// ParseMinutes parses the leading integer of a duration string.
func ParseMinutes(s string) (int, bool) {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && unicode.IsDigit(rune(s[end])) {
		end++
	}
	if end == 0 {
		return 0, false
	}
	m, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return m, true
}
