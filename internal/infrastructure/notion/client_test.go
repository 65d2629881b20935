package notion

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/docdesk/docdesk/internal/core/domain"
)

func TestFetchContentFlattensFirstRichTextRun(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if r.URL.Path != "/v1/blocks/abc123/children" {
			http.NotFound(w, r)
			return
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret-token" {
			t.Fatalf("unexpected authorization header: %q", got)
		}
		if got := r.Header.Get("Notion-Version"); got != "2022-06-28" {
			t.Fatalf("unexpected notion version header: %q", got)
		}
		if got := r.URL.Query().Get("page_size"); got != "100" {
			t.Fatalf("expected page_size=100, got %q", got)
		}
		_, _ = w.Write([]byte(`{
			"results": [
				{"type": "paragraph", "paragraph": {"rich_text": [{"plain_text": "First paragraph."}, {"plain_text": "second run is ignored"}]}},
				{"type": "divider", "divider": {}},
				{"type": "heading_2", "heading_2": {"rich_text": [{"plain_text": "Heading"}]}}
			],
			"has_more": false,
			"next_cursor": null
		}`))
	}))
	defer server.Close()

	client := New(server.URL, "secret-token")
	content, err := client.FetchContent(context.Background(), "abc123")
	if err != nil {
		t.Fatalf("FetchContent() error = %v", err)
	}
	if content.Text != "First paragraph. Heading" {
		t.Fatalf("unexpected text: %q", content.Text)
	}
	if len(content.Images) != 0 {
		t.Fatalf("expected no images, got %+v", content.Images)
	}
	if requests != 1 {
		t.Fatalf("expected 1 request, got %d", requests)
	}
}

func TestFetchContentFollowsPagination(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		switch r.URL.Query().Get("start_cursor") {
		case "":
			_, _ = w.Write([]byte(`{
				"results": [{"type": "paragraph", "paragraph": {"rich_text": [{"plain_text": "Page one."}]}}],
				"has_more": true,
				"next_cursor": "cursor-2"
			}`))
		case "cursor-2":
			_, _ = w.Write([]byte(`{
				"results": [{"type": "paragraph", "paragraph": {"rich_text": [{"plain_text": "Page two."}]}}],
				"has_more": false,
				"next_cursor": null
			}`))
		default:
			t.Fatalf("unexpected cursor %q", r.URL.Query().Get("start_cursor"))
		}
	}))
	defer server.Close()

	client := New(server.URL, "secret-token")
	content, err := client.FetchContent(context.Background(), "abc123")
	if err != nil {
		t.Fatalf("FetchContent() error = %v", err)
	}
	if content.Text != "Page one. Page two." {
		t.Fatalf("unexpected text: %q", content.Text)
	}
	if requests != 2 {
		t.Fatalf("expected 2 requests, got %d", requests)
	}
}

func TestFetchContentCollectsImages(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"results": [
				{"type": "image", "image": {"type": "external", "external": {"url": "https://img.example.com/panel.png"}, "caption": [{"plain_text": "Front panel"}, {"plain_text": "diagram"}]}},
				{"type": "image", "image": {"type": "file", "file": {"url": "https://files.example.com/wiring.png"}}},
				{"type": "image", "image": {"type": "unsupported"}}
			],
			"has_more": false,
			"next_cursor": null
		}`))
	}))
	defer server.Close()

	client := New(server.URL, "secret-token")
	content, err := client.FetchContent(context.Background(), "abc123")
	if err != nil {
		t.Fatalf("FetchContent() error = %v", err)
	}
	if len(content.Images) != 2 {
		t.Fatalf("expected 2 images, got %+v", content.Images)
	}
	first := content.Images[0]
	if first.URL != "https://img.example.com/panel.png" || first.Caption != "Front panel diagram" {
		t.Fatalf("unexpected first image: %+v", first)
	}
	second := content.Images[1]
	if second.URL != "https://files.example.com/wiring.png" || second.Caption != "" {
		t.Fatalf("unexpected second image: %+v", second)
	}
}

func TestFetchContentRejectsEmptyDocumentID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("no request expected for empty document id")
	}))
	defer server.Close()

	client := New(server.URL, "secret-token")
	_, err := client.FetchContent(context.Background(), "  ")
	if !domain.IsKind(err, domain.ErrContentFetch) {
		t.Fatalf("expected content fetch kind, got %v", err)
	}
}

func TestFetchContentWrapsNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "page not found", http.StatusNotFound)
	}))
	defer server.Close()

	client := New(server.URL, "secret-token")
	_, err := client.FetchContent(context.Background(), "abc123")
	if !domain.IsKind(err, domain.ErrContentFetch) {
		t.Fatalf("expected content fetch kind, got %v", err)
	}
	if !strings.Contains(err.Error(), "page not found") {
		t.Fatalf("expected response body in error, got %v", err)
	}
}

func TestFetchContentMarksRateLimitUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := New(server.URL, "secret-token")
	_, err := client.FetchContent(context.Background(), "abc123")
	if !domain.IsKind(err, domain.ErrUnavailable) {
		t.Fatalf("expected unavailable kind, got %v", err)
	}
}
