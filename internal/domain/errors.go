package domain

import (
	"errors"
	"fmt"
)

// Domain errors.
var (
	// ErrInvalidPostURL is returned when no shortcode can be derived from a URL.
	ErrInvalidPostURL = errors.New("invalid instagram URL: shortcode not found")

	// ErrUnsupportedResponseShape is returned when the GraphQL response
	// matches none of the known payload shapes across all document IDs.
	ErrUnsupportedResponseShape = errors.New("only posts/reels supported or instagram changed response format")

	// ErrNetworkTimeout is returned when an outbound call exceeds its deadline.
	ErrNetworkTimeout = errors.New("network timeout contacting instagram")

	// ErrBlockedHost is returned when a media URL points outside the CDN allow-list.
	ErrBlockedHost = errors.New("blocked host")

	// ErrMediaFetchFailed is returned when fetching media from the CDN fails.
	ErrMediaFetchFailed = errors.New("failed to fetch media")
)

// UpstreamError is a non-2xx response from Instagram, surfaced verbatim
// so callers can diagnose what the platform actually said.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("instagram API error: status %d", e.Status)
}
