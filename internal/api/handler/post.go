package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/sajibhub/instagram-downloader/internal/domain"
)

// PostResolver is the slice of the post service the handler needs.
type PostResolver interface {
	Resolve(ctx context.Context, postURL string) (*domain.ResolvedPost, error)
}

// PostHandler handles post resolution requests.
type PostHandler struct {
	resolver PostResolver
	logger   *slog.Logger
}

// NewPostHandler creates a new post handler.
func NewPostHandler(resolver PostResolver, logger *slog.Logger) *PostHandler {
	return &PostHandler{
		resolver: resolver,
		logger:   logger,
	}
}

// ResolveRequest is the JSON request body for post resolution.
type ResolveRequest struct {
	URL string `json:"url"`
}

// Resolve handles POST /api/instagram/post
func (h *PostHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	var req ResolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.URL == "" {
		writeError(w, http.StatusBadRequest, "URL is required")
		return
	}

	post, err := h.resolver.Resolve(r.Context(), req.URL)
	if err != nil {
		h.writeResolveError(w, req.URL, err)
		return
	}

	writeJSON(w, http.StatusOK, post)
}

func (h *PostHandler) writeResolveError(w http.ResponseWriter, postURL string, err error) {
	var upstream *domain.UpstreamError
	switch {
	case errors.Is(err, domain.ErrInvalidPostURL):
		writeError(w, http.StatusBadRequest, domain.ErrInvalidPostURL.Error())
	case errors.As(err, &upstream):
		writeErrorDetails(w, http.StatusBadGateway,
			fmt.Sprintf("instagram API error: %d", upstream.Status), upstream.Body)
	case errors.Is(err, domain.ErrUnsupportedResponseShape):
		writeError(w, http.StatusBadGateway, domain.ErrUnsupportedResponseShape.Error())
	case errors.Is(err, domain.ErrNetworkTimeout):
		writeError(w, http.StatusGatewayTimeout, "network error: no response received from instagram")
	default:
		h.logger.Error("resolve failed", "url", postURL, "error", err)
		writeErrorDetails(w, http.StatusInternalServerError, "failed to fetch instagram post", err.Error())
	}
}

// Video handles GET /api/instagram/video — echoes a video URL back as
// JSON. Kept for front-end compatibility.
func (h *PostHandler) Video(w http.ResponseWriter, r *http.Request) {
	videoURL := r.URL.Query().Get("videoUrl")
	if videoURL == "" {
		writeError(w, http.StatusBadRequest, "videoUrl is required")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": videoURL})
}
