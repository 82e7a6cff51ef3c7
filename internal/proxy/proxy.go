package proxy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/sajibhub/instagram-downloader/internal/config"
	"github.com/sajibhub/instagram-downloader/internal/domain"
)

// Proxy streams media from Instagram's CDN. Hosts outside the allow-list
// are rejected so the service cannot be used to fetch arbitrary URLs.
type Proxy struct {
	client       *http.Client
	allowedHosts []string
	userAgent    string
	logger       *slog.Logger
}

// New creates a media proxy.
func New(cfg config.ProxyConfig, userAgent string, logger *slog.Logger) *Proxy {
	// No overall client timeout: bodies can be arbitrarily large and are
	// streamed. The header timeout bounds how long the CDN may stall
	// before the first byte.
	transport := &http.Transport{
		ResponseHeaderTimeout: cfg.Timeout,
	}

	return &Proxy{
		client: &http.Client{
			Transport: transport,
		},
		allowedHosts: cfg.AllowedHosts,
		userAgent:    userAgent,
		logger:       logger,
	}
}

// Stream is an open upstream media response. The caller owns Body and
// must close it.
type Stream struct {
	Body          io.ReadCloser
	ContentType   string
	ContentLength int64
}

// Open validates the target host and starts a streamed GET. The request
// is tied to ctx, so a dropped client cancels the upstream read.
func (p *Proxy) Open(ctx context.Context, mediaURL string) (*Stream, error) {
	parsed, err := url.Parse(mediaURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return nil, fmt.Errorf("%w: unparseable media URL", domain.ErrMediaFetchFailed)
	}

	if !p.hostAllowed(parsed.Hostname()) {
		return nil, domain.ErrBlockedHost
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, mediaURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMediaFetchFailed, err)
	}
	p.setFetchHeaders(req, mediaURL)

	resp, err := p.client.Do(req)
	if err != nil {
		var netErr net.Error
		if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
			return nil, fmt.Errorf("%w: %v", domain.ErrNetworkTimeout, err)
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrMediaFetchFailed, err)
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: upstream status %d", domain.ErrMediaFetchFailed, resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = ContentTypeForURL(mediaURL)
	}

	return &Stream{
		Body:          resp.Body,
		ContentType:   contentType,
		ContentLength: resp.ContentLength,
	}, nil
}

func (p *Proxy) hostAllowed(host string) bool {
	host = strings.ToLower(host)
	for _, allowed := range p.allowedHosts {
		if host == allowed || strings.HasSuffix(host, "."+allowed) {
			return true
		}
	}
	return false
}

// setFetchHeaders mimics a browser loading media cross-site. Video URLs
// get a video-leaning Accept so the CDN serves the right representation.
func (p *Proxy) setFetchHeaders(req *http.Request, mediaURL string) {
	req.Header.Set("User-Agent", p.userAgent)
	req.Header.Set("Referer", "https://www.instagram.com/")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Sec-Fetch-Mode", "no-cors")
	req.Header.Set("Sec-Fetch-Site", "cross-site")

	if LooksLikeVideo(mediaURL) {
		req.Header.Set("Accept", "video/mp4,video/webm,video/ogg,video/*;q=0.9,application/ogg;q=0.7,*/*;q=0.5")
		req.Header.Set("Sec-Fetch-Dest", "video")
	} else {
		req.Header.Set("Accept", "image/avif,image/webp,image/apng,image/svg+xml,image/*,*/*;q=0.8,video/mp4,video/*;q=0.9")
		req.Header.Set("Sec-Fetch-Dest", "image")
	}
}

// LooksLikeVideo reports whether a media URL appears to point at video
// content.
func LooksLikeVideo(mediaURL string) bool {
	return strings.Contains(mediaURL, ".mp4") || strings.Contains(mediaURL, "video")
}

// urlExtension returns the lowercased extension of the URL path, without
// the dot, or "" when there is none.
func urlExtension(mediaURL string) string {
	trimmed := mediaURL
	if i := strings.IndexAny(trimmed, "?#"); i >= 0 {
		trimmed = trimmed[:i]
	}
	ext := path.Ext(trimmed)
	if ext == "" {
		return ""
	}
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// FilenameForURL resolves the attachment filename for a download:
// the caller-supplied name if any, completed with the URL's extension
// when it lacks one, defaulting to jpg.
func FilenameForURL(mediaURL, requested string) string {
	ext := urlExtension(mediaURL)
	if ext == "" {
		ext = "jpg"
	}

	if requested == "" {
		return "instagram_media." + ext
	}
	if !strings.Contains(requested, ".") {
		return requested + "." + ext
	}
	return requested
}

// ContentTypeForURL infers a content type from the URL extension,
// defaulting to a generic binary type.
func ContentTypeForURL(mediaURL string) string {
	switch urlExtension(mediaURL) {
	case "jpg", "jpeg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	case "mp4":
		return "video/mp4"
	case "webm":
		return "video/webm"
	default:
		return "application/octet-stream"
	}
}
