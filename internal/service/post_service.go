package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/sajibhub/instagram-downloader/internal/cache"
	"github.com/sajibhub/instagram-downloader/internal/domain"
)

// Resolver resolves a post URL into its public result shape.
type Resolver interface {
	Resolve(ctx context.Context, postURL string) (*domain.ResolvedPost, error)
}

// PostService orchestrates post resolution behind the result cache.
type PostService struct {
	resolver Resolver
	cache    *cache.Cache
	logger   *slog.Logger
}

// NewPostService creates a new post service.
func NewPostService(resolver Resolver, c *cache.Cache, logger *slog.Logger) *PostService {
	return &PostService{
		resolver: resolver,
		cache:    c,
		logger:   logger,
	}
}

// Resolve returns the resolved post for a URL, from cache when fresh.
// Resolution is read-only against Instagram, so concurrent duplicate
// work is harmless; the cache still collapses it per key.
func (s *PostService) Resolve(ctx context.Context, postURL string) (*domain.ResolvedPost, error) {
	key := "post:" + postURL

	return s.cache.GetOrLoad(ctx, key, func(ctx context.Context) (*domain.ResolvedPost, error) {
		start := time.Now()
		post, err := s.resolver.Resolve(ctx, postURL)
		if err != nil {
			return nil, err
		}
		s.logger.Info("post resolved",
			"url", postURL,
			"media_count", post.ResultsNumber,
			"duration", time.Since(start),
		)
		return post, nil
	})
}

// FlushCache drops every cached result.
func (s *PostService) FlushCache() {
	s.cache.Flush()
}

// CacheStats returns a snapshot of the cache counters.
func (s *PostService) CacheStats() cache.Stats {
	return s.cache.Stats()
}
