package salonapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-querystring/query"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/salon-booking-wizard/internal/catalog"
	"github.com/wolfman30/salon-booking-wizard/internal/tenancy"
	"github.com/wolfman30/salon-booking-wizard/pkg/logging"
)

const (
	defaultTimeout = 15 * time.Second
	maxErrorBody   = 300
	dateLayout     = "2006-01-02"
)

var tracer = otel.Tracer("salon.internal.salonapi")

// Options configures a Client.
type Options struct {
	BaseURL    string
	SalonID    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *logging.Logger
}

// Client wraps the public and client-facing REST endpoints of the salon backend.
type Client struct {
	httpClient *http.Client
	baseURL    string
	salonID    string
	logger     *logging.Logger
}

// NewClient constructs a salon API client.
func NewClient(opts Options) *Client {
	if strings.TrimSpace(opts.BaseURL) == "" {
		panic("salonapi: base URL required")
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Default()
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		salonID:    opts.SalonID,
		logger:     logger,
	}
}

// GetPublicSalonSettings fetches salon metadata (name, currency, timezone).
func (c *Client) GetPublicSalonSettings(ctx context.Context) (*catalog.SalonSettings, error) {
	var wrapped struct {
		catalog.SalonSettings
		Settings *catalog.SalonSettings `json:"settings"`
	}
	if err := c.doJSON(ctx, request{method: http.MethodGet, path: "/api/public/salon"}, &wrapped); err != nil {
		return nil, fmt.Errorf("get salon settings: %w", err)
	}
	if wrapped.Settings != nil {
		return wrapped.Settings, nil
	}
	return &wrapped.SalonSettings, nil
}

// GetPublicServices fetches the service catalog.
func (c *Client) GetPublicServices(ctx context.Context) ([]catalog.Service, error) {
	var raw json.RawMessage
	if err := c.doJSON(ctx, request{method: http.MethodGet, path: "/api/public/services"}, &raw); err != nil {
		return nil, fmt.Errorf("get services: %w", err)
	}
	return catalog.DecodeServices(raw)
}

// GetPublicEmployees fetches the professional catalog localized for lang.
func (c *Client) GetPublicEmployees(ctx context.Context, lang string) ([]catalog.Professional, error) {
	q := url.Values{}
	if lang != "" {
		q.Set("lang", lang)
	}
	var raw json.RawMessage
	if err := c.doJSON(ctx, request{method: http.MethodGet, path: "/api/public/employees", query: q, language: lang}, &raw); err != nil {
		return nil, fmt.Errorf("get employees: %w", err)
	}
	return catalog.DecodeProfessionals(raw)
}

// GetPublicBatchAvailability returns bookable times per professional id for one date.
func (c *Client) GetPublicBatchAvailability(ctx context.Context, date time.Time) (map[catalog.ID][]string, error) {
	q := url.Values{}
	q.Set("date", date.Format(dateLayout))
	var raw map[catalog.ID][]string
	if err := c.doJSON(ctx, request{method: http.MethodGet, path: "/api/public/availability/batch", query: q}, &raw); err != nil {
		return nil, fmt.Errorf("get batch availability: %w", err)
	}
	if raw == nil {
		raw = map[catalog.ID][]string{}
	}
	return raw, nil
}

// GetAvailableDates returns YYYY-MM-DD dates with any availability in a month.
func (c *Client) GetAvailableDates(ctx context.Context, dq DatesQuery) ([]string, error) {
	if dq.Professional == "" {
		dq.Professional = AnyProfessional
	}
	q, err := query.Values(dq)
	if err != nil {
		return nil, fmt.Errorf("encode dates query: %w", err)
	}
	var raw json.RawMessage
	if err := c.doJSON(ctx, request{method: http.MethodGet, path: "/api/public/availability/dates", query: q}, &raw); err != nil {
		return nil, fmt.Errorf("get available dates: %w", err)
	}
	var dates []string
	if err := decodeWrapped(raw, &dates, "dates"); err != nil {
		return nil, fmt.Errorf("decode available dates: %w", err)
	}
	return dates, nil
}

// GetPublicAvailableSlots returns the slots of one professional on a date.
func (c *Client) GetPublicAvailableSlots(ctx context.Context, date time.Time, professionalID catalog.ID) ([]Slot, error) {
	q := url.Values{}
	q.Set("date", date.Format(dateLayout))
	q.Set("employee_id", string(professionalID))
	var raw json.RawMessage
	if err := c.doJSON(ctx, request{method: http.MethodGet, path: "/api/public/availability/slots", query: q}, &raw); err != nil {
		return nil, fmt.Errorf("get available slots: %w", err)
	}
	var slots []Slot
	if err := decodeWrapped(raw, &slots, "slots"); err != nil {
		return nil, fmt.Errorf("decode available slots: %w", err)
	}
	return slots, nil
}

// ValidatePromoCode checks a promo code against an order amount.
func (c *Client) ValidatePromoCode(ctx context.Context, req PromoRequest) (*PromoResult, error) {
	var result PromoResult
	err := c.doJSON(ctx, request{method: http.MethodPost, path: "/api/public/promo-codes/validate", body: req}, &result)
	if err != nil {
		// The backend answers 4xx with a body describing why the code is rejected.
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 {
			if jsonErr := json.Unmarshal([]byte(apiErr.Body), &result); jsonErr == nil && result.Error != "" {
				result.Valid = false
				return &result, nil
			}
		}
		return nil, fmt.Errorf("validate promo code: %w", err)
	}
	return &result, nil
}

// SubmitBooking persists a booking through the endpoint matching its kind.
func (c *Client) SubmitBooking(ctx context.Context, sub Submission) (*BookingResult, error) {
	req := request{body: sub.Payload, bearer: sub.AccessToken}
	switch sub.Kind {
	case SubmitExistingUpdate:
		if sub.BookingID == "" {
			return nil, errors.New("salonapi: booking id required for update")
		}
		req.method = http.MethodPut
		req.path = "/api/client/bookings/" + url.PathEscape(sub.BookingID)
	case SubmitAuthenticatedCreate:
		req.method = http.MethodPost
		req.path = "/api/client/bookings"
	case SubmitGuestCreate:
		req.method = http.MethodPost
		req.path = "/api/public/bookings"
		req.bearer = ""
	default:
		return nil, fmt.Errorf("salonapi: unknown submission kind %q", sub.Kind)
	}

	var wrapped struct {
		BookingResult
		Booking *BookingResult `json:"booking"`
	}
	if err := c.doJSON(ctx, req, &wrapped); err != nil {
		return nil, fmt.Errorf("submit booking: %w", err)
	}
	if wrapped.Booking != nil {
		return wrapped.Booking, nil
	}
	return &wrapped.BookingResult, nil
}

type request struct {
	method   string
	path     string
	query    url.Values
	body     any
	bearer   string
	language string
}

func (c *Client) doJSON(ctx context.Context, r request, out any) error {
	ctx, span := tracer.Start(ctx, "salonapi."+strings.ToLower(r.method))
	defer span.End()
	span.SetAttributes(attribute.String("http.route", r.path))

	endpoint := c.baseURL + r.path
	if len(r.query) > 0 {
		endpoint += "?" + r.query.Encode()
	}

	var bodyReader io.Reader
	if r.body != nil {
		payload, err := json.Marshal(r.body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, endpoint, bodyReader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if salonID := c.salonFor(ctx); salonID != "" {
		req.Header.Set("X-Salon-Id", salonID)
	}
	if r.language != "" {
		req.Header.Set("Accept-Language", r.language)
	}
	if r.bearer != "" {
		req.Header.Set("Authorization", "Bearer "+r.bearer)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s: %w", r.path, ErrNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := string(respBody)
		if len(msg) > maxErrorBody {
			msg = msg[:maxErrorBody]
		}
		c.logger.Warn("salon API non-2xx response", "status", resp.StatusCode, "path", r.path, "body", msg)
		apiErr := &APIError{StatusCode: resp.StatusCode, Path: r.path, Body: msg}
		span.RecordError(apiErr)
		return apiErr
	}

	if len(respBody) == 0 || out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		span.RecordError(err)
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) salonFor(ctx context.Context) string {
	if salonID, ok := tenancy.SalonIDFromContext(ctx); ok {
		return salonID
	}
	return c.salonID
}

// decodeWrapped accepts a bare array or an object holding it under key.
func decodeWrapped(raw json.RawMessage, out any, key string) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	if raw[0] == '[' {
		return json.Unmarshal(raw, out)
	}
	var wrapped map[string]json.RawMessage
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return err
	}
	inner, ok := wrapped[key]
	if !ok {
		return nil
	}
	return json.Unmarshal(inner, out)
}
