package handler

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/sajibhub/instagram-downloader/internal/cache"
	"github.com/sajibhub/instagram-downloader/internal/domain"
	"github.com/sajibhub/instagram-downloader/internal/proxy"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockResolver returns a canned post or error and records the URLs it
// was asked to resolve.
type mockResolver struct {
	post *domain.ResolvedPost
	err  error

	calls []string
}

func (m *mockResolver) Resolve(ctx context.Context, postURL string) (*domain.ResolvedPost, error) {
	m.calls = append(m.calls, postURL)
	if m.err != nil {
		return nil, m.err
	}
	return m.post, nil
}

// mockOpener returns a canned stream or error. bodyReader, when set,
// overrides the string body so tests can inject failing readers.
type mockOpener struct {
	body        string
	bodyReader  io.Reader
	contentType string
	length      int64
	err         error

	calls []string
}

func (m *mockOpener) Open(ctx context.Context, mediaURL string) (*proxy.Stream, error) {
	m.calls = append(m.calls, mediaURL)
	if m.err != nil {
		return nil, m.err
	}
	body := m.bodyReader
	if body == nil {
		body = strings.NewReader(m.body)
	}
	return &proxy.Stream{
		Body:          io.NopCloser(body),
		ContentType:   m.contentType,
		ContentLength: m.length,
	}, nil
}

// mockCacheController records flushes and serves fixed stats.
type mockCacheController struct {
	flushed int
	stats   cache.Stats
}

func (m *mockCacheController) FlushCache()             { m.flushed++ }
func (m *mockCacheController) CacheStats() cache.Stats { return m.stats }

func strPtr(v string) *string { return &v }

func imagePost() *domain.ResolvedPost {
	return &domain.ResolvedPost{
		ResultsNumber: 1,
		URLList:       []string{"https://cdn.example/img.jpg"},
		PostInfo: domain.PostInfo{
			OwnerUsername: "alice",
			OwnerFullname: "Alice A",
			Likes:         42,
			Caption:       "hello",
			CommentsCount: 0,
			TakenAt:       strPtr("2023-11-14T22:13:20Z"),
		},
		MediaDetails: []domain.MediaItem{
			{
				Type:       domain.MediaTypeImage,
				URL:        "https://cdn.example/img.jpg",
				Dimensions: domain.Dimensions{Width: 1080, Height: 1350},
			},
		},
		Comments: []domain.CommentItem{},
	}
}
