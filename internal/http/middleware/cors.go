package middleware

import (
	"net/http"
	"strings"
)

// CORS provides a simple allowlist-based CORS middleware for the embeddable
// booking widget. An entry of "*" echoes any Origin back; an entry such as
// "https://*.salon.example" matches every subdomain of salon.example.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	allowAny := false
	allow := map[string]struct{}{}
	var wildcards []originWildcard
	for _, origin := range allowedOrigins {
		origin = strings.TrimSpace(origin)
		switch {
		case origin == "":
			continue
		case origin == "*":
			allowAny = true
		case strings.Contains(origin, "://*."):
			scheme, host, _ := strings.Cut(origin, "://*.")
			wildcards = append(wildcards, originWildcard{scheme: scheme, suffix: "." + host})
		default:
			allow[origin] = struct{}{}
		}
	}

	allowedHeaders := "Authorization, Content-Type, Accept-Language, X-Salon-Id, X-Request-ID"
	allowedMethods := "GET, POST, PUT, OPTIONS"

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := strings.TrimSpace(r.Header.Get("Origin"))
			if origin != "" && (allowAny || isAllowedOrigin(allow, wildcards, origin)) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")
				w.Header().Set("Access-Control-Allow-Headers", allowedHeaders)
				w.Header().Set("Access-Control-Allow-Methods", allowedMethods)
				w.Header().Set("Access-Control-Max-Age", "600")
			}

			if r.Method == http.MethodOptions && origin != "" && r.Header.Get("Access-Control-Request-Method") != "" {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

type originWildcard struct {
	scheme string
	suffix string
}

func isAllowedOrigin(allow map[string]struct{}, wildcards []originWildcard, origin string) bool {
	if _, ok := allow[origin]; ok {
		return true
	}
	scheme, host, ok := strings.Cut(origin, "://")
	if !ok {
		return false
	}
	for _, w := range wildcards {
		if scheme == w.scheme && strings.HasSuffix(host, w.suffix) && len(host) > len(w.suffix) {
			return true
		}
	}
	return false
}
