package wizard

import (
	"errors"
	"math"
	"strings"
	"unicode"

	"github.com/wolfman30/salon-booking-wizard/internal/catalog"
	"github.com/wolfman30/salon-booking-wizard/internal/salonapi"
)

// DefaultMinPhoneDigits is the minimum digit count of a contact phone.
const DefaultMinPhoneDigits = 11

var (
	// ErrPhoneRequired means the visitor must be prompted for a phone.
	ErrPhoneRequired = errors.New("wizard: phone number is required")
	// ErrPhoneTooShort means the phone has fewer digits than required.
	ErrPhoneTooShort = errors.New("wizard: phone number is too short")
	// ErrIncomplete means a step still lacks a selection.
	ErrIncomplete = errors.New("wizard: booking is incomplete")
	// ErrPromoInvalid means the backend rejected the promo code.
	ErrPromoInvalid = errors.New("wizard: promo code is not valid")
)

// DigitsOnly strips everything except decimal digits.
func DigitsOnly(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ValidatePhone checks that the phone has at least minDigits digits.
func ValidatePhone(phone string, minDigits int) error {
	if strings.IndexFunc(phone, unicode.IsDigit) < 0 {
		return ErrPhoneRequired
	}
	if minDigits <= 0 {
		minDigits = DefaultMinPhoneDigits
	}
	if len(DigitsOnly(phone)) < minDigits {
		return ErrPhoneTooShort
	}
	return nil
}

// ApplyDiscount applies a valid promo to total, never going below zero.
// An invalid or nil promo leaves the total unchanged.
func ApplyDiscount(total float64, promo *salonapi.PromoResult) float64 {
	if promo == nil || !promo.Valid {
		return total
	}
	var discounted float64
	switch promo.DiscountType {
	case salonapi.DiscountPercent:
		discounted = total - total*promo.Value/100
	case salonapi.DiscountFixed:
		discounted = total - promo.Value
	default:
		return total
	}
	return math.Max(0, discounted)
}

// PromoRequestFor builds the validation request for the current order.
func PromoRequestFor(s State, code string, clientID string) salonapi.PromoRequest {
	seen := make(map[string]struct{})
	categories := []string{}
	for _, svc := range s.Services {
		if svc.Category == "" {
			continue
		}
		if _, ok := seen[svc.Category]; ok {
			continue
		}
		seen[svc.Category] = struct{}{}
		categories = append(categories, svc.Category)
	}
	return salonapi.PromoRequest{
		Code:              strings.TrimSpace(code),
		Amount:            s.TotalPrice(),
		ServiceIDs:        s.ServiceIDs(),
		ServiceCategories: categories,
		ClientID:          clientID,
	}
}

// Identity is who is booking. The zero value is a guest.
type Identity struct {
	Authenticated bool
	ClientID      string
	Name          string
	Phone         string
	AccessToken   string
}

// ConfirmRequest carries the confirm-step inputs beyond the wizard state.
type ConfirmRequest struct {
	EditingBookingID string
	ContactName      string
	PromoCode        string
	Source           string
}

// SubmissionKindFor picks the booking variant for the caller.
func SubmissionKindFor(id Identity, editingBookingID string) salonapi.SubmissionKind {
	switch {
	case editingBookingID != "" && id.Authenticated:
		return salonapi.SubmitExistingUpdate
	case id.Authenticated:
		return salonapi.SubmitAuthenticatedCreate
	default:
		return salonapi.SubmitGuestCreate
	}
}

// BuildSubmission validates the state and resolves the single booking
// submission the confirm action sends.
func BuildSubmission(s State, id Identity, req ConfirmRequest, minDigits int) (salonapi.Submission, error) {
	if !s.IsComplete() {
		return salonapi.Submission{}, ErrIncomplete
	}
	if err := ValidatePhone(s.Phone, minDigits); err != nil {
		return salonapi.Submission{}, err
	}

	name := strings.TrimSpace(req.ContactName)
	if name == "" {
		name = id.Name
	}
	var employee catalog.ID
	if s.Professional != nil {
		employee = s.Professional.ID
	}

	kind := SubmissionKindFor(id, req.EditingBookingID)
	sub := salonapi.Submission{
		Kind: kind,
		Payload: salonapi.BookingPayload{
			ServiceIDs: s.ServiceIDs(),
			EmployeeID: employee,
			Date:       s.Date.String(),
			Time:       s.Time,
			Phone:      s.Phone,
			ClientName: name,
			Source:     req.Source,
			PromoCode:  strings.TrimSpace(req.PromoCode),
			Duration:   s.TotalDuration(),
		},
	}
	if kind != salonapi.SubmitGuestCreate {
		sub.AccessToken = id.AccessToken
	}
	if kind == salonapi.SubmitExistingUpdate {
		sub.BookingID = req.EditingBookingID
	}
	return sub, nil
}

// BookingsPath is where authenticated clients land after booking.
const BookingsPath = "/bookings"

// Redirect tells the widget where to go after a successful booking.
type Redirect struct {
	Path        string `json:"path,omitempty"`
	Step        Step   `json:"step,omitempty"`
	LoginPrompt bool   `json:"login_prompt"`
}

// RedirectAfterBooking sends authenticated clients to their bookings and
// guests back to the menu with a login prompt.
func RedirectAfterBooking(id Identity) Redirect {
	if id.Authenticated {
		return Redirect{Path: BookingsPath}
	}
	return Redirect{Step: StepMenu, LoginPrompt: true}
}

// ConfirmView is the read-only confirm-step summary.
type ConfirmView struct {
	Services        []ServiceItem `json:"services"`
	Professional    string        `json:"professional"`
	Flexible        bool          `json:"flexible"`
	Date            string        `json:"date,omitempty"`
	Time            string        `json:"time,omitempty"`
	Phone           string        `json:"phone"`
	NeedsPhone      bool          `json:"needs_phone"`
	TotalPrice      float64       `json:"total_price"`
	DiscountedPrice float64       `json:"discounted_price"`
	TotalMinutes    int           `json:"total_minutes"`
	PromoCode       string        `json:"promo_code,omitempty"`
	Complete        bool          `json:"complete"`
}

// BuildConfirmView summarizes the booking for the confirm step.
func BuildConfirmView(s State, lang string, promoCode string, promo *salonapi.PromoResult, minDigits int) ConfirmView {
	items := make([]ServiceItem, 0, len(s.Services))
	for _, svc := range s.Services {
		items = append(items, ServiceItem{
			ID:       svc.ID,
			Name:     svc.DisplayName(lang),
			Price:    svc.Price,
			Minutes:  svc.Minutes(),
			Category: svc.Category,
			Selected: true,
		})
	}
	v := ConfirmView{
		Services:        items,
		Flexible:        s.IsFlexible(),
		Time:            s.Time,
		Phone:           s.Phone,
		NeedsPhone:      ValidatePhone(s.Phone, minDigits) != nil,
		TotalPrice:      s.TotalPrice(),
		DiscountedPrice: ApplyDiscount(s.TotalPrice(), promo),
		TotalMinutes:    s.TotalDuration(),
		Complete:        s.IsComplete(),
	}
	if promo != nil && promo.Valid {
		v.PromoCode = promoCode
	}
	if s.Professional != nil {
		v.Professional = s.Professional.DisplayName(lang)
	}
	if s.Date != nil {
		v.Date = s.Date.String()
	}
	return v
}
