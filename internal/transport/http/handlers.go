package http

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/joshdurbin/shortlink/internal/domain"
	"github.com/joshdurbin/shortlink/internal/service"
)

// maxWriteBody caps the size of a write batch body
const maxWriteBody = 1 << 20

// Handler holds the HTTP handlers for the short-link service
type Handler struct {
	shortlinks service.Shortlinks
	logger     logrus.FieldLogger
}

// NewHandler creates a new HTTP handler
func NewHandler(shortlinks service.Shortlinks, logger logrus.FieldLogger) *Handler {
	return &Handler{
		shortlinks: shortlinks,
		logger:     logger,
	}
}

// Redirect handles GET /{path} - redirects to the mapped URL
func (h *Handler) Redirect(w http.ResponseWriter, r *http.Request) {
	path := mux.Vars(r)["path"]

	url, found, err := h.shortlinks.Resolve(r.Context(), path)
	if err != nil {
		h.logger.WithError(err).WithField("path", path).Error("failed to resolve path")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if !found {
		http.NotFound(w, r)
		return
	}

	http.Redirect(w, r, url, http.StatusFound)
}

// GetMapping handles GET /api/mappings/{path}
func (h *Handler) GetMapping(w http.ResponseWriter, r *http.Request) {
	path := service.NormalizePath(mux.Vars(r)["path"])

	url, found, err := h.shortlinks.Resolve(r.Context(), path)
	if err != nil {
		h.logger.WithError(err).WithField("path", path).Error("failed to resolve path")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if !found {
		http.Error(w, "mapping not found", http.StatusNotFound)
		return
	}

	h.writeJSON(w, domain.ResolveResponse{Path: path, URL: url})
}

// WriteMappings handles POST /api/mappings. The body is a JSON array of
// write requests; a single object is treated as a batch of one.
func (h *Handler) WriteMappings(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWriteBody))
	if err != nil {
		h.logger.WithError(err).Warn("failed to read write request body")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	requests, err := decodeWriteRequests(body)
	if err != nil {
		h.logger.WithError(err).Warn("invalid JSON in write request")
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	results := h.shortlinks.Write(r.Context(), requests)

	items := make([]domain.WriteItem, len(results))
	for i, result := range results {
		items[i] = result.Item()
	}

	h.writeJSON(w, items)
}

// Health handles GET /healthz
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.WithError(err).Error("failed to encode response")
	}
}

func decodeWriteRequests(body []byte) ([]domain.WriteRequest, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var single domain.WriteRequest
		if err := json.Unmarshal(trimmed, &single); err != nil {
			return nil, err
		}
		return []domain.WriteRequest{single}, nil
	}

	var requests []domain.WriteRequest
	if err := json.Unmarshal(trimmed, &requests); err != nil {
		return nil, err
	}
	return requests, nil
}
