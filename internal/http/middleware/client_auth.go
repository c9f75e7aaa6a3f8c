package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const clientKey contextKey = "bookingClient"

// ClientClaims are the claims of a salon client's bearer token.
type ClientClaims struct {
	jwt.RegisteredClaims
	Name  string `json:"name,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// Client is an authenticated salon client.
type Client struct {
	ID    string
	Name  string
	Phone string
	Token string
}

// ClientJWT resolves an optional HMAC-signed client token. Requests without a
// token, or every request when secret is empty, continue as guests. A token
// that is present but invalid is rejected with 401.
func ClientJWT(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if secret == "" || auth == "" {
				next.ServeHTTP(w, r)
				return
			}
			if !strings.HasPrefix(auth, "Bearer ") {
				unauthorized(w, "invalid authorization header")
				return
			}
			tokenString := strings.TrimPrefix(auth, "Bearer ")
			claims := ClientClaims{}
			token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(secret), nil
			})
			if err != nil || !token.Valid || claims.Subject == "" {
				unauthorized(w, "invalid token")
				return
			}
			client := Client{ID: claims.Subject, Name: claims.Name, Phone: claims.Phone, Token: tokenString}
			ctx := context.WithValue(r.Context(), clientKey, client)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClientFromContext returns the authenticated client if present.
func ClientFromContext(ctx context.Context) (Client, bool) {
	client, ok := ctx.Value(clientKey).(Client)
	return client, ok
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"` + msg + `","code":"unauthorized"}`))
}
