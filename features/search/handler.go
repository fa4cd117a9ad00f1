package search

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"fanstream/apps/backend/internal/middleware"
	"fanstream/apps/backend/internal/retrieval"
)

type Handler struct {
	service *retrieval.Service
}

func NewHandler(s *retrieval.Service) *Handler {
	return &Handler{service: s}
}

// Search accepts either a text query (embedded server-side) or a raw query
// vector, scoped to one creator.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	correlationID := middleware.GetCorrelationID(ctx)

	var req struct {
		Query     string    `json:"query"`
		Vector    []float32 `json:"vector"`
		CreatorID string    `json:"creator_id"`
		K         int       `json:"k"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(ctx, w, "BAD_REQUEST", "invalid JSON body", http.StatusBadRequest)
		return
	}
	if req.CreatorID == "" {
		h.writeError(ctx, w, "BAD_REQUEST", "creator_id is required", http.StatusBadRequest)
		return
	}
	if req.K == 0 {
		req.K = 10
	}

	var (
		matches []retrieval.Match
		err     error
	)
	switch {
	case len(req.Vector) > 0:
		matches, err = h.service.SearchVector(ctx, req.Vector, req.CreatorID, req.K)
	case req.Query != "":
		matches, err = h.service.SearchText(ctx, req.Query, req.CreatorID, req.K)
	default:
		h.writeError(ctx, w, "BAD_REQUEST", "query or vector is required", http.StatusBadRequest)
		return
	}
	if err != nil {
		if errors.Is(err, retrieval.ErrInvalidK) || errors.Is(err, retrieval.ErrDimensionMismatch) {
			h.writeError(ctx, w, "BAD_REQUEST", err.Error(), http.StatusBadRequest)
			return
		}
		slog.ErrorContext(ctx, "search failed", "error", err, "correlationId", correlationID)
		h.writeError(ctx, w, "INTERNAL_ERROR", err.Error(), http.StatusInternalServerError)
		return
	}

	if matches == nil {
		matches = []retrieval.Match{}
	}

	w.Header().Set("Content-Type", "application/json")
	resp := map[string]interface{}{
		"data": matches,
		"meta": map[string]int{"count": len(matches)},
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, code, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := map[string]interface{}{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
		"correlationId": middleware.GetCorrelationID(ctx),
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}
