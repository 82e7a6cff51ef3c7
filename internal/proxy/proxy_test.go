package proxy

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/sajibhub/instagram-downloader/internal/config"
	"github.com/sajibhub/instagram-downloader/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestProxy(allowedHosts []string, timeout time.Duration) *Proxy {
	return New(config.ProxyConfig{
		AllowedHosts: allowedHosts,
		Timeout:      timeout,
	}, "test-agent", testLogger())
}

func TestHostAllowed(t *testing.T) {
	p := newTestProxy([]string{"cdninstagram.com", "fbcdn.net", "instagram.com"}, time.Second)

	tests := []struct {
		host string
		want bool
	}{
		{"cdninstagram.com", true},
		{"scontent-iad3-1.cdninstagram.com", true},
		{"video.fbcdn.net", true},
		{"www.instagram.com", true},
		{"CDNINSTAGRAM.COM", true},
		{"evil.example.com", false},
		{"notcdninstagram.com", false},
		{"cdninstagram.com.evil.example", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := p.hostAllowed(tt.host); got != tt.want {
			t.Errorf("hostAllowed(%q) = %v, want %v", tt.host, got, tt.want)
		}
	}
}

func TestOpen_BlockedHost(t *testing.T) {
	p := newTestProxy([]string{"cdninstagram.com"}, time.Second)

	_, err := p.Open(context.Background(), "https://evil.example.com/photo.jpg")
	if !errors.Is(err, domain.ErrBlockedHost) {
		t.Fatalf("err = %v, want ErrBlockedHost", err)
	}
}

func TestOpen_InvalidURL(t *testing.T) {
	p := newTestProxy([]string{"cdninstagram.com"}, time.Second)

	for _, raw := range []string{"", "not a url", "ftp://cdninstagram.com/a.jpg"} {
		_, err := p.Open(context.Background(), raw)
		if !errors.Is(err, domain.ErrMediaFetchFailed) {
			t.Errorf("Open(%q) err = %v, want ErrMediaFetchFailed", raw, err)
		}
	}
}

func TestOpen_StreamsUpstream(t *testing.T) {
	var gotUA, gotReferer string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotReferer = r.Header.Get("Referer")
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write([]byte("jpeg-bytes"))
	}))
	defer upstream.Close()

	host := hostOf(t, upstream.URL)
	p := newTestProxy([]string{host}, time.Second)

	stream, err := p.Open(context.Background(), upstream.URL+"/photo.jpg")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer stream.Body.Close()

	if stream.ContentType != "image/jpeg" {
		t.Errorf("content type = %q, want image/jpeg", stream.ContentType)
	}
	body, _ := io.ReadAll(stream.Body)
	if string(body) != "jpeg-bytes" {
		t.Errorf("body = %q", body)
	}
	if gotUA != "test-agent" {
		t.Errorf("user agent = %q, want test-agent", gotUA)
	}
	if gotReferer != "https://www.instagram.com/" {
		t.Errorf("referer = %q", gotReferer)
	}
}

func TestOpen_ContentTypeFallback(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// An explicit empty Content-Type stops the stdlib from sniffing one.
		w.Header()["Content-Type"] = nil
		w.Write([]byte{0x00})
	}))
	defer upstream.Close()

	p := newTestProxy([]string{hostOf(t, upstream.URL)}, time.Second)

	stream, err := p.Open(context.Background(), upstream.URL+"/clip.mp4")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer stream.Body.Close()

	if stream.ContentType != "video/mp4" {
		t.Errorf("content type = %q, want video/mp4 fallback", stream.ContentType)
	}
}

func TestOpen_UpstreamError(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer upstream.Close()

	p := newTestProxy([]string{hostOf(t, upstream.URL)}, time.Second)

	_, err := p.Open(context.Background(), upstream.URL+"/gone.jpg")
	if !errors.Is(err, domain.ErrMediaFetchFailed) {
		t.Fatalf("err = %v, want ErrMediaFetchFailed", err)
	}
}

func TestOpen_HeaderTimeout(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer upstream.Close()

	p := newTestProxy([]string{hostOf(t, upstream.URL)}, 20*time.Millisecond)

	_, err := p.Open(context.Background(), upstream.URL+"/slow.jpg")
	if !errors.Is(err, domain.ErrNetworkTimeout) {
		t.Fatalf("err = %v, want ErrNetworkTimeout", err)
	}
}

func hostOf(t *testing.T, rawURL string) string {
	t.Helper()
	u, err := url.Parse(rawURL)
	if err != nil {
		t.Fatalf("parse %q: %v", rawURL, err)
	}
	return u.Hostname()
}

func TestLooksLikeVideo(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://cdn.example/clip.mp4?sig=1", true},
		{"https://cdn.example/video/123", true},
		{"https://cdn.example/photo.jpg", false},
		{"https://cdn.example/img.webp", false},
	}
	for _, tt := range tests {
		if got := LooksLikeVideo(tt.url); got != tt.want {
			t.Errorf("LooksLikeVideo(%q) = %v, want %v", tt.url, got, tt.want)
		}
	}
}

func TestFilenameForURL(t *testing.T) {
	tests := []struct {
		name      string
		url       string
		requested string
		want      string
	}{
		{"default jpg", "https://cdn.example/photo", "", "instagram_media.jpg"},
		{"default from extension", "https://cdn.example/clip.mp4?sig=1", "", "instagram_media.mp4"},
		{"requested kept", "https://cdn.example/clip.mp4", "my-clip.mp4", "my-clip.mp4"},
		{"requested completed", "https://cdn.example/clip.mp4", "my-clip", "my-clip.mp4"},
		{"requested completed default ext", "https://cdn.example/media", "my-pic", "my-pic.jpg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FilenameForURL(tt.url, tt.requested); got != tt.want {
				t.Errorf("FilenameForURL(%q, %q) = %q, want %q", tt.url, tt.requested, got, tt.want)
			}
		})
	}
}

func TestContentTypeForURL(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://cdn.example/a.jpg", "image/jpeg"},
		{"https://cdn.example/a.JPEG?x=1", "image/jpeg"},
		{"https://cdn.example/a.png", "image/png"},
		{"https://cdn.example/a.gif", "image/gif"},
		{"https://cdn.example/a.webp", "image/webp"},
		{"https://cdn.example/a.mp4#frag", "video/mp4"},
		{"https://cdn.example/a.webm", "video/webm"},
		{"https://cdn.example/a", "application/octet-stream"},
		{"https://cdn.example/a.bin", "application/octet-stream"},
	}
	for _, tt := range tests {
		if got := ContentTypeForURL(tt.url); got != tt.want {
			t.Errorf("ContentTypeForURL(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}
