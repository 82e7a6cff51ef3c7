package handler

import (
	"net/http"

	"github.com/sajibhub/instagram-downloader/internal/cache"
)

// CacheController is the slice of the post service the debug cache
// endpoints need.
type CacheController interface {
	FlushCache()
	CacheStats() cache.Stats
}

// CacheHandler exposes the debug cache endpoints.
type CacheHandler struct {
	ctrl CacheController
}

// NewCacheHandler creates a new cache handler.
func NewCacheHandler(ctrl CacheController) *CacheHandler {
	return &CacheHandler{ctrl: ctrl}
}

// Clear handles POST /api/clear-cache
func (h *CacheHandler) Clear(w http.ResponseWriter, r *http.Request) {
	h.ctrl.FlushCache()
	writeJSON(w, http.StatusOK, map[string]string{"message": "Cache cleared"})
}

// Stats handles GET /api/cache-stats
func (h *CacheHandler) Stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.ctrl.CacheStats())
}
