// Package rest exposes the collection service over HTTP: auth endpoints
// issuing token pairs, and the collection lifecycle under /api/v1 guarded by
// a bearer token and the tenant API-key gate.
package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/thinkoverit/jugalbandi/internal/auth"
	"github.com/thinkoverit/jugalbandi/internal/collection"
	"github.com/thinkoverit/jugalbandi/internal/ingest"
	"github.com/thinkoverit/jugalbandi/internal/metadata"
	"github.com/thinkoverit/jugalbandi/internal/storage"
)

// Orchestrator is the slice of the ingest service the gateway needs.
type Orchestrator interface {
	CreateCollection(ctx context.Context, name string, files []collection.SourceFile) (int64, error)
	UpdateCollection(ctx context.Context, recordID int64, files []collection.SourceFile) error
	DeleteCollection(ctx context.Context, recordID int64) error
	ListCollections(ctx context.Context) ([]*metadata.Record, error)
	Reconcile(ctx context.Context, recordID int64) error
}

// Identity is the slice of the auth service the gateway needs.
type Identity interface {
	SignUp(ctx context.Context, username, password string) (*auth.TokenPair, error)
	SignIn(ctx context.Context, username, password string) (*auth.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*auth.TokenPair, error)
	ValidateToken(tokenString string) (*auth.Claims, error)
	Authorize(ctx context.Context, apiKey string) error
}

// Request limits per route class.
const (
	authMaxBodySize   = 1 << 20  // credentials are small
	uploadMaxBodySize = 64 << 20 // multipart uploads

	defaultRequestTimeout = 30 * time.Second
	uploadRequestTimeout  = 5 * time.Minute
)

// Handler shapes HTTP requests and responses; all semantics live in the
// orchestrator and the identity service.
type Handler struct {
	service  Orchestrator
	identity Identity
	logger   *slog.Logger
}

// NewHandler creates the gateway handler.
func NewHandler(service Orchestrator, identity Identity, logger *slog.Logger) *Handler {
	if identity == nil {
		panic("identity service cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{service: service, identity: identity, logger: logger}
}

// RegisterRoutes attaches every route to mux. Request id, recovery and
// request logging come from the server middleware.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /auth/v1/signup", withTimeout(maxBodySize(h.handleSignUp, authMaxBodySize), defaultRequestTimeout))
	mux.HandleFunc("POST /auth/v1/login", withTimeout(maxBodySize(h.handleLogin, authMaxBodySize), defaultRequestTimeout))
	mux.HandleFunc("POST /auth/v1/refresh", withTimeout(maxBodySize(h.handleRefresh, authMaxBodySize), defaultRequestTimeout))

	mux.HandleFunc("POST /api/v1/collections", withTimeout(maxBodySize(h.guarded(h.handleCreateCollection), uploadMaxBodySize), uploadRequestTimeout))
	mux.HandleFunc("PUT /api/v1/collections/{id}", withTimeout(maxBodySize(h.guarded(h.handleUpdateCollection), uploadMaxBodySize), uploadRequestTimeout))
	mux.HandleFunc("DELETE /api/v1/collections/{id}", withTimeout(h.guarded(h.handleDeleteCollection), defaultRequestTimeout))
	mux.HandleFunc("GET /api/v1/collections", withTimeout(h.guarded(h.handleListCollections), defaultRequestTimeout))
	mux.HandleFunc("POST /api/v1/collections/{id}/reconcile", withTimeout(h.guarded(h.handleReconcile), defaultRequestTimeout))

	mux.HandleFunc("GET /health", withTimeout(h.handleHealth, 5*time.Second))
}

// --- auth endpoints ---

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "Invalid request body")
		return
	}
	pair, err := h.identity.SignUp(r.Context(), req.Username, req.Password)
	if err != nil {
		h.writeAuthError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, pair)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "Invalid request body")
		return
	}
	pair, err := h.identity.SignIn(r.Context(), req.Username, req.Password)
	if err != nil {
		h.writeAuthError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "Invalid request body")
		return
	}
	pair, err := h.identity.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		h.writeAuthError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

// --- collection endpoints ---

type collectionResponse struct {
	RecordID int64  `json:"record_id"`
	Message  string `json:"message"`
}

func (h *Handler) handleCreateCollection(w http.ResponseWriter, r *http.Request) {
	name, files, cleanup, ok := h.parseUpload(w, r, true)
	if !ok {
		return
	}
	defer cleanup()

	recordID, err := h.service.CreateCollection(r.Context(), name, files)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.logger.Info("collection created", "record_id", recordID, "user", UsernameFromContext(r.Context()))
	writeJSON(w, http.StatusCreated, collectionResponse{RecordID: recordID, Message: "Files uploaded successfully"})
}

func (h *Handler) handleUpdateCollection(w http.ResponseWriter, r *http.Request) {
	recordID, ok := h.recordID(w, r)
	if !ok {
		return
	}
	_, files, cleanup, okUpload := h.parseUpload(w, r, false)
	if !okUpload {
		return
	}
	defer cleanup()

	if err := h.service.UpdateCollection(r.Context(), recordID, files); err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.logger.Info("collection updated", "record_id", recordID, "user", UsernameFromContext(r.Context()))
	writeJSON(w, http.StatusOK, collectionResponse{RecordID: recordID, Message: "Collection updated successfully"})
}

func (h *Handler) handleDeleteCollection(w http.ResponseWriter, r *http.Request) {
	recordID, ok := h.recordID(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteCollection(r.Context(), recordID); err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.logger.Info("collection deleted", "record_id", recordID, "user", UsernameFromContext(r.Context()))
	writeJSON(w, http.StatusOK, collectionResponse{RecordID: recordID, Message: "Collection deleted successfully"})
}

func (h *Handler) handleListCollections(w http.ResponseWriter, r *http.Request) {
	query, err := parseListQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "Invalid query parameters")
		return
	}

	records, err := h.service.ListCollections(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"collections": query.page(records)})
}

func (h *Handler) handleReconcile(w http.ResponseWriter, r *http.Request) {
	recordID, ok := h.recordID(w, r)
	if !ok {
		return
	}
	if err := h.service.Reconcile(r.Context(), recordID); err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, collectionResponse{RecordID: recordID, Message: "Collection reconciled successfully"})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// --- request plumbing ---

func (h *Handler) recordID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "Invalid collection id")
		return 0, false
	}
	return id, true
}

// parseUpload reads the multipart form: one or more "files" parts plus,
// when requireName is set, a "name" field. The returned cleanup closes every
// opened part.
func (h *Handler) parseUpload(w http.ResponseWriter, r *http.Request, requireName bool) (string, []collection.SourceFile, func(), bool) {
	if err := r.ParseMultipartForm(uploadMaxBodySize); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "Invalid multipart form")
		return "", nil, nil, false
	}

	name := r.FormValue("name")
	if requireName && name == "" {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "Collection name is required")
		return "", nil, nil, false
	}

	var headers []*multipart.FileHeader
	if r.MultipartForm != nil {
		headers = r.MultipartForm.File["files"]
	}
	if len(headers) == 0 {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "At least one file is required")
		return "", nil, nil, false
	}

	var opened []multipart.File
	cleanup := func() {
		for _, file := range opened {
			file.Close()
		}
	}

	files := make([]collection.SourceFile, 0, len(headers))
	for _, header := range headers {
		file, err := header.Open()
		if err != nil {
			cleanup()
			writeError(w, http.StatusBadRequest, ErrCodeBadRequest, fmt.Sprintf("Unreadable upload %q", header.Filename))
			return "", nil, nil, false
		}
		opened = append(opened, file)
		files = append(files, collection.SourceFile{Name: header.Filename, Reader: file})
	}
	return name, files, cleanup, true
}

func (h *Handler) writeAuthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auth.ErrUserExists):
		writeError(w, http.StatusConflict, ErrCodeConflict, "User already exists")
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, ErrCodeUnauthorized, "Invalid credentials")
	case errors.Is(err, auth.ErrInvalidToken):
		writeError(w, http.StatusUnauthorized, ErrCodeUnauthorized, "Invalid or expired token")
	default:
		h.writeInternalError(w, err, "Authentication failed")
	}
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, metadata.ErrRecordNotFound), errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, ErrCodeNotFound, "Collection not found")
	case errors.Is(err, metadata.ErrDuplicateRecord):
		writeError(w, http.StatusConflict, ErrCodeConflict, "Collection already exists")
	case errors.Is(err, collection.ErrIngestion):
		h.logger.Error("ingestion failed", "error", err)
		writeError(w, http.StatusInternalServerError, ErrCodeIngestionFailed, "Ingestion failed")
	case errors.Is(err, collection.ErrDeletion):
		h.logger.Error("deletion failed", "error", err)
		writeError(w, http.StatusInternalServerError, ErrCodeDeletionFailed, "Deletion failed")
	case errors.Is(err, ingest.ErrInternal):
		h.writeInternalError(w, err, "Internal error")
	default:
		h.writeInternalError(w, err, "Internal error")
	}
}

func (h *Handler) writeInternalError(w http.ResponseWriter, err error, message string) {
	h.logger.Error(message, "error", err)
	writeError(w, http.StatusInternalServerError, ErrCodeInternalError, message)
}
