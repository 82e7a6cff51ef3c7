package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/sajibhub/instagram-downloader/internal/domain"
	"github.com/sajibhub/instagram-downloader/internal/proxy"
)

// MediaOpener opens a streamed upstream media response.
type MediaOpener interface {
	Open(ctx context.Context, mediaURL string) (*proxy.Stream, error)
}

// MediaHandler proxies media bytes from Instagram's CDN to the caller.
type MediaHandler struct {
	proxy  MediaOpener
	logger *slog.Logger
}

// NewMediaHandler creates a new media handler.
func NewMediaHandler(p MediaOpener, logger *slog.Logger) *MediaHandler {
	return &MediaHandler{
		proxy:  p,
		logger: logger,
	}
}

// Stream handles GET /api/stream — proxies media inline for viewing.
func (h *MediaHandler) Stream(w http.ResponseWriter, r *http.Request) {
	mediaURL := r.URL.Query().Get("url")
	if mediaURL == "" {
		writeError(w, http.StatusBadRequest, "media URL is required")
		return
	}

	stream, err := h.proxy.Open(r.Context(), mediaURL)
	if err != nil {
		h.writeProxyError(w, mediaURL, err, "failed to stream media")
		return
	}
	defer stream.Body.Close()

	w.Header().Set("Content-Type", stream.ContentType)
	w.Header().Set("Cache-Control", "public, max-age=3600")
	if stream.ContentLength >= 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(stream.ContentLength, 10))
	}

	h.copyStream(w, stream.Body, mediaURL, "failed to stream media")
}

// Download handles GET /api/download — proxies media as an attachment.
func (h *MediaHandler) Download(w http.ResponseWriter, r *http.Request) {
	mediaURL := r.URL.Query().Get("url")
	if mediaURL == "" {
		writeError(w, http.StatusBadRequest, "media URL is required")
		return
	}

	stream, err := h.proxy.Open(r.Context(), mediaURL)
	if err != nil {
		h.writeProxyError(w, mediaURL, err, "failed to download media")
		return
	}
	defer stream.Body.Close()

	filename := proxy.FilenameForURL(mediaURL, r.URL.Query().Get("filename"))

	w.Header().Set("Content-Type", stream.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if stream.ContentLength >= 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(stream.ContentLength, 10))
	}
	// Downloads are one-shot.
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Pragma", "no-cache")

	h.copyStream(w, stream.Body, mediaURL, "failed to download media")
}

// copyStream pipes the upstream body to the caller. A failure before
// the first byte can still be turned into an error response; once any
// bytes are out the status is committed and the failure can only be
// logged.
func (h *MediaHandler) copyStream(w http.ResponseWriter, body io.Reader, mediaURL, fallback string) {
	written, err := io.Copy(w, body)
	if err == nil {
		return
	}

	if written == 0 {
		w.Header().Del("Content-Length")
		w.Header().Del("Content-Disposition")
		w.Header().Del("Cache-Control")
		w.Header().Del("Pragma")
		h.writeProxyError(w, mediaURL, fmt.Errorf("%w: %v", domain.ErrMediaFetchFailed, err), fallback)
		return
	}

	h.logger.Warn("media stream interrupted",
		"url", mediaURL,
		"bytes_written", written,
		"error", err,
	)
}

func (h *MediaHandler) writeProxyError(w http.ResponseWriter, mediaURL string, err error, fallback string) {
	switch {
	case errors.Is(err, domain.ErrBlockedHost):
		writeError(w, http.StatusForbidden, domain.ErrBlockedHost.Error())
	case errors.Is(err, domain.ErrNetworkTimeout):
		writeError(w, http.StatusGatewayTimeout, fallback)
	case errors.Is(err, domain.ErrMediaFetchFailed):
		writeErrorDetails(w, http.StatusBadGateway, fallback, err.Error())
	default:
		h.logger.Error("media proxy failed", "url", mediaURL, "error", err)
		writeErrorDetails(w, http.StatusInternalServerError, fallback, err.Error())
	}
}
