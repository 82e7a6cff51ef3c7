package instagram

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/sajibhub/instagram-downloader/internal/domain"
)

// "reels" must come before "reel" so the alternation cannot stop short.
var shortcodePattern = regexp.MustCompile(`/(?:p|reels|reel|tv)/([A-Za-z0-9_-]+)`)

// postTags are the URL path segments that precede a shortcode.
var postTags = map[string]bool{
	"p":     true,
	"reel":  true,
	"reels": true,
	"tv":    true,
}

// ExtractShortcode derives the post shortcode from an Instagram URL.
// It first matches the known /p/, /reel/, /reels/ and /tv/ path shapes,
// then falls back to scanning raw path segments. Returns
// domain.ErrInvalidPostURL when neither strategy yields a shortcode.
func ExtractShortcode(rawURL string) (domain.Shortcode, error) {
	if m := shortcodePattern.FindStringSubmatch(rawURL); len(m) > 1 {
		return domain.Shortcode(m[1]), nil
	}

	// Fallback: take the segment after the first post tag keyword.
	// Strip any query string or fragment before splitting.
	path := rawURL
	if u, err := url.Parse(rawURL); err == nil && u.Path != "" {
		path = u.Path
	}
	segments := strings.Split(path, "/")
	for i, seg := range segments {
		if postTags[seg] && i+1 < len(segments) && segments[i+1] != "" {
			return domain.Shortcode(segments[i+1]), nil
		}
	}

	return "", domain.ErrInvalidPostURL
}
