// Package audit records booking confirmation attempts made through the wizard.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Outcome of a confirmation attempt.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

// Confirmation is an immutable record of one confirm attempt.
type Confirmation struct {
	ID             string    `json:"id"`
	SalonID        string    `json:"salon_id"`
	SessionID      string    `json:"session_id"`
	Variant        string    `json:"variant"`
	Outcome        Outcome   `json:"outcome"`
	BookingID      string    `json:"booking_id,omitempty"`
	ServiceIDs     []string  `json:"service_ids"`
	ProfessionalID string    `json:"professional_id,omitempty"`
	Date           string    `json:"date"`
	Time           string    `json:"time"`
	Error          string    `json:"error,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Trail writes confirmations to the booking_confirmations table.
type Trail struct {
	db *sql.DB
}

// NewTrail creates a new audit trail.
func NewTrail(db *sql.DB) *Trail {
	return &Trail{db: db}
}

// LogConfirmation records a confirmation attempt.
func (t *Trail) LogConfirmation(ctx context.Context, c Confirmation) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	if c.ServiceIDs == nil {
		c.ServiceIDs = []string{}
	}

	query := `
		INSERT INTO booking_confirmations (
			id, salon_id, session_id, variant, outcome, booking_id,
			service_ids, professional_id, booking_date, booking_time, error, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := t.db.ExecContext(ctx, query,
		c.ID,
		c.SalonID,
		c.SessionID,
		c.Variant,
		c.Outcome,
		nullString(c.BookingID),
		pq.Array(c.ServiceIDs),
		nullString(c.ProfessionalID),
		c.Date,
		c.Time,
		nullString(c.Error),
		c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("audit: failed to log confirmation: %w", err)
	}
	return nil
}

// Filter specifies criteria for querying confirmations.
type Filter struct {
	SalonID   string
	SessionID string
	Outcome   Outcome
	Limit     int
}

// Query retrieves confirmations for a salon, newest first.
func (t *Trail) Query(ctx context.Context, filter Filter) ([]Confirmation, error) {
	query := `
		SELECT id, salon_id, session_id, variant, outcome, booking_id,
			   service_ids, professional_id, booking_date, booking_time, error, created_at
		FROM booking_confirmations
		WHERE salon_id = $1
	`
	args := []any{filter.SalonID}
	argIdx := 2

	if filter.SessionID != "" {
		query += fmt.Sprintf(" AND session_id = $%d", argIdx)
		args = append(args, filter.SessionID)
		argIdx++
	}
	if filter.Outcome != "" {
		query += fmt.Sprintf(" AND outcome = $%d", argIdx)
		args = append(args, filter.Outcome)
	}

	query += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	rows, err := t.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("audit: failed to query confirmations: %w", err)
	}
	defer rows.Close()

	var out []Confirmation
	for rows.Next() {
		var c Confirmation
		var bookingID, professionalID, errMsg sql.NullString
		var serviceIDs pq.StringArray
		if err := rows.Scan(
			&c.ID, &c.SalonID, &c.SessionID, &c.Variant, &c.Outcome, &bookingID,
			&serviceIDs, &professionalID, &c.Date, &c.Time, &errMsg, &c.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("audit: failed to scan confirmation: %w", err)
		}
		c.BookingID = bookingID.String
		c.ProfessionalID = professionalID.String
		c.Error = errMsg.String
		c.ServiceIDs = []string(serviceIDs)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("audit: failed to read confirmations: %w", err)
	}
	return out, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
