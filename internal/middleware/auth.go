package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/nexusnotes/nexus-notes/internal/model"
)

type contextKey string

const userKey contextKey = "user"

// TokenValidator resolves a bearer token to the user it was issued to.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (model.User, error)
}

// RequireAuth returns middleware that rejects requests without a valid
// Bearer token and stores the resolved user in the request context.
// authErr reports which validator errors mean "not authenticated"; any other
// error is answered with a 500.
func RequireAuth(validator TokenValidator, authErr error) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				writeJSONError(w, http.StatusUnauthorized, "missing or malformed authorization header")
				return
			}

			user, err := validator.ValidateToken(r.Context(), token)
			if err != nil {
				if authErr == nil || errors.Is(err, authErr) {
					writeJSONError(w, http.StatusUnauthorized, "invalid or expired token")
					return
				}
				slog.Error("token validation failed", "error", err, "request_id", RequestIDFromContext(r.Context()))
				writeJSONError(w, http.StatusInternalServerError, "internal server error")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// WithUser returns a copy of ctx carrying the authenticated user.
func WithUser(ctx context.Context, user model.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// UserFromContext extracts the authenticated user from the request context.
func UserFromContext(ctx context.Context) (model.User, bool) {
	user, ok := ctx.Value(userKey).(model.User)
	return user, ok
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"message": msg})
}
