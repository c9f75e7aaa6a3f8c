package router

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

const opsTokenHeader = "X-Ops-Token"
const opsTokenQuery = "ops_token"

// requireOpsToken guards the operator endpoints with a shared token taken
// from the header or the query string.
func requireOpsToken(expected string) func(http.Handler) http.Handler {
	expected = strings.TrimSpace(expected)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := strings.TrimSpace(r.Header.Get(opsTokenHeader))
			if token == "" {
				token = strings.TrimSpace(r.URL.Query().Get(opsTokenQuery))
			}
			if expected == "" || token == "" || subtle.ConstantTimeCompare([]byte(token), []byte(expected)) != 1 {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"invalid ops token","code":"unauthorized"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
