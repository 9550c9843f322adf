package rest

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/thinkoverit/jugalbandi/internal/auth"
)

type contextKey string

const contextKeyUsername contextKey = "username"

// UsernameFromContext returns the authenticated caller, or "".
func UsernameFromContext(ctx context.Context) string {
	if username, ok := ctx.Value(contextKeyUsername).(string); ok {
		return username
	}
	return ""
}

// APIKeyHeader carries the tenant key, matching the original service's
// clients.
const APIKeyHeader = "api_key"

// guarded wraps a collection route with the bearer-token check and the
// tenant API-key gate, in that order.
func (h *Handler) guarded(next http.HandlerFunc) http.HandlerFunc {
	return h.protected(h.apiKeyed(next))
}

func (h *Handler) protected(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			writeError(w, http.StatusUnauthorized, ErrCodeUnauthorized, "Authorization header required")
			return
		}
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			writeError(w, http.StatusUnauthorized, ErrCodeUnauthorized, "Invalid authorization header format")
			return
		}
		claims, err := h.identity.ValidateToken(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, ErrCodeUnauthorized, "Invalid or expired token")
			return
		}
		ctx := context.WithValue(r.Context(), contextKeyUsername, claims.Username)
		next(w, r.WithContext(ctx))
	}
}

func (h *Handler) apiKeyed(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := h.identity.Authorize(r.Context(), r.Header.Get(APIKeyHeader))
		switch {
		case err == nil:
			next(w, r)
		case errors.Is(err, auth.ErrMissingAPIKey):
			writeError(w, http.StatusUnauthorized, ErrCodeUnauthorized, "API key is missing")
		case errors.Is(err, auth.ErrInvalidAPIKey):
			writeError(w, http.StatusUnauthorized, ErrCodeUnauthorized, "API key is invalid")
		case errors.Is(err, auth.ErrQuotaExceeded):
			writeError(w, http.StatusTooManyRequests, ErrCodeQuotaExceeded, "Quota limit exceeded")
		default:
			h.writeInternalError(w, err, "Authorization failed")
		}
	}
}
