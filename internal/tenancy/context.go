// Package tenancy carries the per-request salon and UI language on the context.
package tenancy

import "context"

type ctxKey string

const (
	salonKey    ctxKey = "salon.salon_id"
	languageKey ctxKey = "salon.language"
)

// WithSalonID stores the salon (tenant) id in context.
func WithSalonID(ctx context.Context, salonID string) context.Context {
	return context.WithValue(ctx, salonKey, salonID)
}

// SalonIDFromContext extracts the salon id if present.
func SalonIDFromContext(ctx context.Context) (string, bool) {
	salonID, ok := ctx.Value(salonKey).(string)
	return salonID, ok && salonID != ""
}

// WithLanguage stores the negotiated UI language in context.
func WithLanguage(ctx context.Context, lang string) context.Context {
	return context.WithValue(ctx, languageKey, lang)
}

// LanguageFromContext returns the UI language, or fallback when none was negotiated.
func LanguageFromContext(ctx context.Context, fallback string) string {
	if lang, ok := ctx.Value(languageKey).(string); ok && lang != "" {
		return lang
	}
	return fallback
}
