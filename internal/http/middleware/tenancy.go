package middleware

import (
	"net/http"
	"strings"

	"golang.org/x/text/language"

	"github.com/wolfman30/salon-booking-wizard/internal/tenancy"
)

// SalonHeader names the tenant of a booking request.
const SalonHeader = "X-Salon-Id"

// Salon places the salon id from SalonHeader on the request context, falling
// back to defaultSalonID. Requests with neither are rejected.
func Salon(defaultSalonID string) func(http.Handler) http.Handler {
	defaultSalonID = strings.TrimSpace(defaultSalonID)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			salonID := strings.TrimSpace(r.Header.Get(SalonHeader))
			if salonID == "" {
				salonID = defaultSalonID
			}
			if salonID == "" {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"error":"missing X-Salon-Id","code":"missing_salon"}`))
				return
			}
			next.ServeHTTP(w, r.WithContext(tenancy.WithSalonID(r.Context(), salonID)))
		})
	}
}

// Language negotiates the UI language: a ?lang= query value first, then
// Accept-Language, matched against supported. The first supported language
// is the fallback.
func Language(supported []string) func(http.Handler) http.Handler {
	var tags []language.Tag
	var names []string
	for _, s := range supported {
		tag, err := language.Parse(strings.TrimSpace(s))
		if err != nil {
			continue
		}
		tags = append(tags, tag)
		names = append(names, strings.TrimSpace(s))
	}
	if len(tags) == 0 {
		tags = []language.Tag{language.English}
		names = []string{"en"}
	}
	matcher := language.NewMatcher(tags)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			lang := names[0]
			if q := strings.TrimSpace(r.URL.Query().Get("lang")); q != "" {
				if tag, err := language.Parse(q); err == nil {
					_, idx, conf := matcher.Match(tag)
					if conf != language.No {
						lang = names[idx]
					}
				}
			} else if header := r.Header.Get("Accept-Language"); header != "" {
				if accepted, _, err := language.ParseAcceptLanguage(header); err == nil && len(accepted) > 0 {
					_, idx, conf := matcher.Match(accepted...)
					if conf != language.No {
						lang = names[idx]
					}
				}
			}
			next.ServeHTTP(w, r.WithContext(tenancy.WithLanguage(r.Context(), lang)))
		})
	}
}
