package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sajibhub/instagram-downloader/internal/domain"
)

func resolvePost(t *testing.T, resolver *mockResolver, body string) *httptest.ResponseRecorder {
	t.Helper()
	h := NewPostHandler(resolver, testLogger())
	req := httptest.NewRequest(http.MethodPost, "/api/instagram/post", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Resolve(rec, req)
	return rec
}

func TestPostHandler_Resolve(t *testing.T) {
	resolver := &mockResolver{post: imagePost()}
	rec := resolvePost(t, resolver, `{"url":"https://www.instagram.com/p/ABC123/"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q", ct)
	}

	var got domain.ResolvedPost
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.ResultsNumber != 1 {
		t.Errorf("results_number = %d, want 1", got.ResultsNumber)
	}
	if got.PostInfo.OwnerUsername != "alice" || got.PostInfo.Likes != 42 {
		t.Errorf("post_info = %+v", got.PostInfo)
	}
	if len(got.MediaDetails) != 1 || got.MediaDetails[0].Type != domain.MediaTypeImage {
		t.Errorf("media_details = %+v", got.MediaDetails)
	}

	if len(resolver.calls) != 1 || resolver.calls[0] != "https://www.instagram.com/p/ABC123/" {
		t.Errorf("resolver calls = %v", resolver.calls)
	}
}

func TestPostHandler_Resolve_BadRequests(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantMsg string
	}{
		{"invalid json", `{not json`, "invalid request body"},
		{"missing url", `{}`, "URL is required"},
		{"empty url", `{"url":""}`, "URL is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolver := &mockResolver{}
			rec := resolvePost(t, resolver, tt.body)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			var body map[string]string
			json.Unmarshal(rec.Body.Bytes(), &body)
			if body["error"] != tt.wantMsg {
				t.Errorf("error = %q, want %q", body["error"], tt.wantMsg)
			}
			if len(resolver.calls) != 0 {
				t.Error("resolver must not be called for a bad request")
			}
		})
	}
}

func TestPostHandler_Resolve_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"invalid post url", domain.ErrInvalidPostURL, http.StatusBadRequest},
		{"unsupported shape", domain.ErrUnsupportedResponseShape, http.StatusBadGateway},
		{"timeout", domain.ErrNetworkTimeout, http.StatusGatewayTimeout},
		{"upstream error", &domain.UpstreamError{Status: 429, Body: "rate limited"}, http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := resolvePost(t, &mockResolver{err: tt.err}, `{"url":"https://www.instagram.com/p/ABC123/"}`)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestPostHandler_Resolve_UpstreamDetails(t *testing.T) {
	rec := resolvePost(t,
		&mockResolver{err: &domain.UpstreamError{Status: 403, Body: "login required"}},
		`{"url":"https://www.instagram.com/p/ABC123/"}`,
	)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body["error"] != "instagram API error: 403" {
		t.Errorf("error = %q", body["error"])
	}
	if body["details"] != "login required" {
		t.Errorf("details = %q", body["details"])
	}
}

func TestPostHandler_Video(t *testing.T) {
	h := NewPostHandler(&mockResolver{}, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/instagram/video?videoUrl=https%3A%2F%2Fcdn.example%2Fclip.mp4", nil)
	rec := httptest.NewRecorder()
	h.Video(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string]string
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body["url"] != "https://cdn.example/clip.mp4" {
		t.Errorf("url = %q", body["url"])
	}
}

func TestPostHandler_Video_MissingParam(t *testing.T) {
	h := NewPostHandler(&mockResolver{}, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/instagram/video", nil)
	rec := httptest.NewRecorder()
	h.Video(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}
