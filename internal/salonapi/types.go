// Package salonapi is the REST client for the salon backend the booking wizard
// reads reference data from and submits bookings to.
package salonapi

import (
	"errors"
	"fmt"

	"github.com/wolfman30/salon-booking-wizard/internal/catalog"
)

// ErrNotFound is returned when the backend answers 404.
var ErrNotFound = errors.New("salonapi: not found")

// APIError is a non-2xx backend response.
type APIError struct {
	StatusCode int
	Path       string
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("salon API returned %d for %s: %s", e.StatusCode, e.Path, e.Body)
}

// AnyProfessional asks the dates endpoint for availability across all staff.
const AnyProfessional = "any"

// DatesQuery selects the month of date availability to fetch.
type DatesQuery struct {
	Professional string `url:"master"`
	Year         int    `url:"year"`
	Month        int    `url:"month"`
	Duration     int    `url:"duration,omitempty"`
}

// Slot is one bookable time for a professional on a date.
type Slot struct {
	Time      string `json:"time"`
	Available bool   `json:"available"`
}

// PromoRequest asks the backend to validate a promo code for an order.
type PromoRequest struct {
	Code              string       `json:"code"`
	Amount            float64      `json:"amount"`
	ServiceIDs        []catalog.ID `json:"service_ids"`
	ServiceCategories []string     `json:"service_categories"`
	ClientID          string       `json:"client_id,omitempty"`
}

// Discount types returned by promo validation.
const (
	DiscountPercent = "percent"
	DiscountFixed   = "fixed"
)

// PromoResult is the backend verdict on a promo code.
type PromoResult struct {
	Valid        bool    `json:"valid"`
	DiscountType string  `json:"discount_type"`
	Value        float64 `json:"value"`
	Error        string  `json:"error,omitempty"`
}

// SubmissionKind selects which booking endpoint a submission goes to.
type SubmissionKind string

const (
	// SubmitExistingUpdate reschedules or edits a booking the client already has.
	SubmitExistingUpdate SubmissionKind = "existing_update"
	// SubmitAuthenticatedCreate creates a booking for a logged-in client.
	SubmitAuthenticatedCreate SubmissionKind = "authenticated_create"
	// SubmitGuestCreate creates a booking for an anonymous visitor.
	SubmitGuestCreate SubmissionKind = "guest_create"
)

// BookingPayload is the body shared by every submission kind.
type BookingPayload struct {
	ServiceIDs []catalog.ID `json:"service_ids"`
	EmployeeID catalog.ID   `json:"employee_id,omitempty"`
	Date       string       `json:"date"`
	Time       string       `json:"time"`
	Phone      string       `json:"phone"`
	ClientName string       `json:"client_name,omitempty"`
	Source     string       `json:"source"`
	PromoCode  string       `json:"promo_code,omitempty"`
	Duration   int          `json:"duration"`
}

// Submission is a booking to persist, resolved once by the confirm step.
type Submission struct {
	Kind        SubmissionKind
	BookingID   string // SubmitExistingUpdate only
	AccessToken string // bearer token for the client endpoints
	Payload     BookingPayload
}

// BookingResult is what the backend returns for a persisted booking.
type BookingResult struct {
	ID     catalog.ID `json:"id"`
	Status string     `json:"status,omitempty"`
}
