package instagram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/sajibhub/instagram-downloader/internal/config"
	"github.com/sajibhub/instagram-downloader/internal/domain"
)

// maxShareRedirects bounds redirect following for /share/ links.
const maxShareRedirects = 5

// maxErrorBody caps how much of an upstream error body is kept for
// diagnostics.
const maxErrorBody = 4096

// Client resolves Instagram post URLs through the GraphQL endpoint.
type Client struct {
	httpClient     *http.Client
	redirectClient *http.Client
	baseURL        string
	userAgent      string
	documentIDs    []string
	logger         *slog.Logger
}

// NewClient creates a new Instagram client.
func NewClient(cfg config.InstagramConfig, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		redirectClient: &http.Client{
			Timeout: cfg.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxShareRedirects {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		userAgent:   cfg.UserAgent,
		documentIDs: cfg.DocumentIDs(),
		logger:      logger,
	}
}

// Resolve turns a post URL into a fully assembled ResolvedPost. Share
// links are followed to their canonical URL first; the GraphQL query is
// retried once per fallback document ID when the response shape is not
// recognized.
func (c *Client) Resolve(ctx context.Context, postURL string) (*domain.ResolvedPost, error) {
	if resolved, ok := c.resolveShareRedirect(ctx, postURL); ok {
		postURL = resolved
	}

	shortcode, err := ExtractShortcode(postURL)
	if err != nil {
		return nil, err
	}

	// Best-effort: the query may still succeed without a token.
	token, ok := c.fetchCSRFToken(ctx)
	if !ok {
		c.logger.Warn("csrf token acquisition failed, querying without token")
	}

	var lastErr error
	for i, docID := range c.documentIDs {
		node, err := c.queryPost(ctx, shortcode, docID, token)
		if err == nil {
			return assemblePost(node), nil
		}
		lastErr = err

		// A hard failure on the primary document ID surfaces directly.
		// Alternates exist to cover shape drift; once trying them, any
		// failure just moves on to the next candidate.
		if i == 0 && !errors.Is(err, domain.ErrUnsupportedResponseShape) {
			return nil, err
		}
		if i < len(c.documentIDs)-1 {
			c.logger.Warn("document ID failed, trying next",
				"doc_id", docID,
				"error", err,
			)
		}
	}

	return nil, lastErr
}

// resolveShareRedirect follows /share/ link redirects to the canonical
// post URL. The second return reports whether a resolved URL is
// available; failure here is advisory and the caller continues with the
// original URL.
func (c *Client) resolveShareRedirect(ctx context.Context, postURL string) (string, bool) {
	if !strings.Contains(postURL, "/share/") {
		return "", false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, postURL, nil)
	if err != nil {
		return "", false
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.redirectClient.Do(req)
	if err != nil {
		c.logger.Warn("share redirect resolution failed", "error", err)
		return "", false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))

	final := resp.Request.URL.String()
	if final == "" || final == postURL {
		return "", false
	}
	return final, true
}

// fetchCSRFToken requests the landing page and extracts the csrftoken
// cookie. Tokens are short-lived, so this is never cached. The second
// return reports whether a token was obtained.
func (c *Client) fetchCSRFToken(ctx context.Context) (string, bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return "", false
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))

	for _, cookie := range resp.Cookies() {
		if cookie.Name == "csrftoken" && cookie.Value != "" {
			return cookie.Value, true
		}
	}
	return "", false
}

// queryVariables is the GraphQL variables object. The null placeholders
// are fields Instagram expects to be present even when unused.
type queryVariables struct {
	Shortcode            string  `json:"shortcode"`
	FetchTaggedUserCount *int    `json:"fetch_tagged_user_count"`
	HoistedCommentID     *string `json:"hoisted_comment_id"`
	HoistedReplyID       *string `json:"hoisted_reply_id"`
}

// queryPost executes one GraphQL query with the given document ID and
// normalizes the response into a post node.
func (c *Client) queryPost(ctx context.Context, shortcode domain.Shortcode, docID, token string) (*postNode, error) {
	variables, err := json.Marshal(queryVariables{Shortcode: shortcode.String()})
	if err != nil {
		return nil, fmt.Errorf("encode variables: %w", err)
	}

	form := url.Values{}
	form.Set("variables", string(variables))
	form.Set("doc_id", docID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/graphql/query", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	// Impersonate a mobile browser making a same-origin request.
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Referer", c.baseURL+"/")
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Sec-Fetch-Dest", "empty")
	req.Header.Set("Sec-Fetch-Mode", "cors")
	req.Header.Set("Sec-Fetch-Site", "same-origin")
	if token != "" {
		req.Header.Set("X-CSRFToken", token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, wrapNetworkError("graphql query", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &domain.UpstreamError{
			Status: resp.StatusCode,
			Body:   string(body),
		}
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, wrapNetworkError("read response", err)
	}

	return extractPostNode(payload)
}

// wrapNetworkError maps deadline expiries to the timeout sentinel so
// callers can distinguish a slow upstream from a broken one.
func wrapNetworkError(op string, err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%s: %w", op, domain.ErrNetworkTimeout)
	}
	return fmt.Errorf("%s: %w", op, err)
}
