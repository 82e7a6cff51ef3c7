package api

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/sajibhub/instagram-downloader/internal/api/handler"
	mw "github.com/sajibhub/instagram-downloader/internal/api/middleware"
)

// NewRouter creates the HTTP router with all routes configured.
func NewRouter(
	postHandler *handler.PostHandler,
	mediaHandler *handler.MediaHandler,
	cacheHandler *handler.CacheHandler,
	healthHandler *handler.HealthHandler,
) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CleanPath)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(mw.Logger)
	r.Use(mw.Recovery)
	r.Use(middleware.Timeout(5 * time.Minute))
	r.Use(mw.CORS)

	// Health endpoint
	r.Get("/health", healthHandler.Live)

	r.Route("/api", func(r chi.Router) {
		// Media streams are already compressed formats; compressing the
		// JSON endpoints is still worth it.
		r.With(middleware.Compress(5)).Route("/instagram", func(r chi.Router) {
			r.Post("/post", postHandler.Resolve)
			r.Get("/video", postHandler.Video)
		})

		r.Get("/stream", mediaHandler.Stream)
		r.Get("/download", mediaHandler.Download)

		// Debug endpoints
		r.Post("/clear-cache", cacheHandler.Clear)
		r.Get("/cache-stats", cacheHandler.Stats)
	})

	return r
}
