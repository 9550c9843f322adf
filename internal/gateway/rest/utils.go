package rest

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/thinkoverit/jugalbandi/internal/server"
)

// APIError is the JSON error body.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes
const (
	ErrCodeBadRequest      = "BAD_REQUEST"
	ErrCodeUnauthorized    = "UNAUTHORIZED"
	ErrCodeQuotaExceeded   = "QUOTA_EXCEEDED"
	ErrCodeNotFound        = "NOT_FOUND"
	ErrCodeConflict        = "CONFLICT"
	ErrCodeIngestionFailed = "INGESTION_FAILED"
	ErrCodeDeletionFailed  = "DELETION_FAILED"
	ErrCodeInternalError   = "INTERNAL_ERROR"
)

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(APIError{Code: code, Message: message}); err != nil {
		slog.Warn("encode error response failed", "error", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Warn("encode json response failed", "error", err)
	}
}

// maxBodySize caps the request body for one route.
func maxBodySize(next http.HandlerFunc, maxBytes int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
		}
		next(w, r)
	}
}

// withTimeout bounds one route's handling time through the request context.
func withTimeout(next http.HandlerFunc, timeout time.Duration) http.HandlerFunc {
	return server.TimeoutMiddleware(timeout)(next).ServeHTTP
}
