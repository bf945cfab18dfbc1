// Package api provides HTTP API handlers.
package api

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/factchecker/factlens/internal/database"
	"github.com/factchecker/factlens/internal/models"
)

// Version is reported by the health endpoint.
var Version = "dev"

// Verifier runs the verification pipelines.
type Verifier interface {
	VerifyText(ctx context.Context, text string) *models.TextReport
	VerifyImage(ctx context.Context, img models.Image, query string) *models.ImageReport
}

// Handler contains all HTTP handlers.
type Handler struct {
	verifier      Verifier
	store         database.Store
	adapters      map[string]string
	maxUploadSize int64
}

// NewHandler creates a new handler. adapters is the registry status map
// reported by the health endpoint.
func NewHandler(verifier Verifier, store database.Store, adapters map[string]string, maxUploadSize int64) *Handler {
	if maxUploadSize <= 0 {
		maxUploadSize = 10 << 20
	}
	return &Handler{
		verifier:      verifier,
		store:         store,
		adapters:      adapters,
		maxUploadSize: maxUploadSize,
	}
}

// HealthCheck returns the service health status. The service is degraded
// when any adapter is unavailable and unhealthy when the database is down.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status, code := "healthy", http.StatusOK
	for _, s := range h.adapters {
		if s != "ok" {
			status = "degraded"
			break
		}
	}

	dbStatus := "ok"
	if err := h.store.Ping(r.Context()); err != nil {
		dbStatus = err.Error()
		status, code = "unhealthy", http.StatusServiceUnavailable
	}

	writeJSON(w, code, map[string]interface{}{
		"status":    status,
		"version":   Version,
		"adapters":  h.adapters,
		"database":  dbStatus,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// VerifyText handles text verification requests.
func (h *Handler) VerifyText(w http.ResponseWriter, r *http.Request) {
	var req models.VerifyTextRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.maxUploadSize)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "Text is required")
		return
	}

	writeJSON(w, http.StatusOK, h.verifier.VerifyText(r.Context(), req.Text))
}

// VerifyImage handles multipart image verification requests with an
// "image" file part and a "query" field.
func (h *Handler) VerifyImage(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > h.maxUploadSize {
		writeError(w, http.StatusRequestEntityTooLarge, "Image exceeds the upload size limit")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "Image exceeds the upload size limit")
			return
		}
		writeError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	query := strings.TrimSpace(r.FormValue("query"))
	if query == "" {
		writeError(w, http.StatusBadRequest, "Query is required")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Image file is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read image")
		return
	}
	if len(data) == 0 {
		writeError(w, http.StatusBadRequest, "Image file is empty")
		return
	}

	contentType := http.DetectContentType(data)
	if !strings.HasPrefix(contentType, "image/") {
		writeError(w, http.StatusUnsupportedMediaType, "Unsupported file type: "+contentType)
		return
	}

	img := models.Image{Data: data, Filename: header.Filename, ContentType: contentType}
	writeJSON(w, http.StatusOK, h.verifier.VerifyImage(r.Context(), img, query))
}

// GetAuditLogs returns paginated audit logs.
func (h *Handler) GetAuditLogs(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	if offset < 0 {
		offset = 0
	}

	logs, err := h.store.GetAuditLogs(r.Context(), limit, offset)
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("Failed to get audit logs")
		writeError(w, http.StatusInternalServerError, "Failed to get audit logs")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"logs":   logs,
		"limit":  limit,
		"offset": offset,
	})
}

// CreateAPIKey creates a new API key.
func (h *Handler) CreateAPIKey(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name              string `json:"name"`
		RequestsPerMinute int    `json:"requests_per_minute"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Name is required")
		return
	}

	apiKey, rawKey, err := NewAPIKey(req.Name, req.RequestsPerMinute)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to generate key")
		return
	}

	if err := h.store.CreateAPIKey(r.Context(), apiKey); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("Failed to create API key")
		writeError(w, http.StatusInternalServerError, "Failed to create API key")
		return
	}

	// The raw key is only returned on creation.
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"id":                  apiKey.ID,
		"key":                 rawKey,
		"name":                apiKey.Name,
		"requests_per_minute": apiKey.RequestsPerMinute,
		"created_at":          apiKey.CreatedAt,
	})
}

// ListAPIKeys lists all API keys (without the actual keys).
func (h *Handler) ListAPIKeys(w http.ResponseWriter, r *http.Request) {
	keys, err := h.store.ListAPIKeys(r.Context())
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("Failed to list API keys")
		writeError(w, http.StatusInternalServerError, "Failed to list API keys")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"keys": keys,
	})
}

// DeleteAPIKey deletes an API key.
func (h *Handler) DeleteAPIKey(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "ID is required")
		return
	}

	if err := h.store.DeleteAPIKey(r.Context(), id); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			writeError(w, http.StatusNotFound, "API key not found")
			return
		}
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("Failed to delete API key")
		writeError(w, http.StatusInternalServerError, "Failed to delete API key")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// NewAPIKey generates a random key and the record that stores its hash.
func NewAPIKey(name string, requestsPerMinute int) (*models.APIKey, string, error) {
	keyBytes := make([]byte, 32)
	if _, err := rand.Read(keyBytes); err != nil {
		return nil, "", err
	}
	rawKey := "fl_" + base64.RawURLEncoding.EncodeToString(keyBytes)

	if requestsPerMinute <= 0 {
		requestsPerMinute = 60
	}

	return &models.APIKey{
		ID:                uuid.New().String(),
		KeyHash:           HashKey(rawKey),
		Name:              name,
		RequestsPerMinute: requestsPerMinute,
		CreatedAt:         time.Now(),
	}, rawKey, nil
}

// HashKey returns the stored form of a raw API key.
func HashKey(raw string) string {
	hash := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(hash[:])
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
