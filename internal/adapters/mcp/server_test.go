package mcpadapter

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/docdesk/docdesk/internal/core/domain"
)

type fakeQueryService struct {
	answer   *domain.QueryAnswer
	err      error
	gotQuery string
}

func (f *fakeQueryService) AnswerQuery(_ context.Context, query string) (*domain.QueryAnswer, error) {
	f.gotQuery = query
	if f.err != nil {
		return nil, f.err
	}
	return f.answer, nil
}

type fakeTopicReader struct {
	names []string
}

func (f fakeTopicReader) ListTopics() []string {
	return f.names
}

func callToolRequest(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func textOf(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) != 1 {
		t.Fatalf("expected single content item, got %d", len(result.Content))
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected text content, got %T", result.Content[0])
	}
	return text.Text
}

func TestAnswerQuestionFormatsTrailer(t *testing.T) {
	svc := &fakeQueryService{answer: &domain.QueryAnswer{
		Topic:      "Battery",
		Response:   "Charge the pack overnight before first use.",
		Confidence: 82,
		Source:     domain.ProvenanceKeywordMatch,
		Images: []domain.ImageRef{
			{URL: "https://img.example.com/battery.png", Caption: "Battery pack"},
		},
	}}
	srv := NewServer(svc, fakeTopicReader{})

	result, err := srv.handleAnswerQuestion(context.Background(), callToolRequest(map[string]any{
		"query": "How long should I charge the battery?",
	}))
	if err != nil {
		t.Fatalf("handleAnswerQuestion: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", textOf(t, result))
	}
	if svc.gotQuery != "How long should I charge the battery?" {
		t.Fatalf("use case got query %q", svc.gotQuery)
	}

	text := textOf(t, result)
	if !strings.HasPrefix(text, "Charge the pack overnight") {
		t.Fatalf("answer text missing: %q", text)
	}
	if !strings.Contains(text, "Topic: Battery | Confidence: 82 | Source: keyword_match") {
		t.Fatalf("trailer missing: %q", text)
	}
	if !strings.Contains(text, "https://img.example.com/battery.png (Battery pack)") {
		t.Fatalf("image reference missing: %q", text)
	}
}

func TestAnswerQuestionReportsMiss(t *testing.T) {
	svc := &fakeQueryService{answer: &domain.QueryAnswer{
		Response:        "I can only answer questions about the listed topics.",
		Source:          domain.ProvenanceNoMatch,
		AvailableTopics: []string{"Battery", "Charger"},
	}}
	srv := NewServer(svc, fakeTopicReader{})

	result, err := srv.handleAnswerQuestion(context.Background(), callToolRequest(map[string]any{
		"query": "What is the meaning of life?",
	}))
	if err != nil {
		t.Fatalf("handleAnswerQuestion: %v", err)
	}

	text := textOf(t, result)
	if !strings.Contains(text, "Topic: none | Confidence: 0 | Source: no_match") {
		t.Fatalf("miss trailer missing: %q", text)
	}
	if !strings.Contains(text, "Available topics: Battery, Charger") {
		t.Fatalf("available topics missing: %q", text)
	}
}

func TestAnswerQuestionRequiresQueryArgument(t *testing.T) {
	svc := &fakeQueryService{}
	srv := NewServer(svc, fakeTopicReader{})

	result, err := srv.handleAnswerQuestion(context.Background(), callToolRequest(map[string]any{}))
	if err != nil {
		t.Fatalf("handleAnswerQuestion: %v", err)
	}
	if !result.IsError {
		t.Fatalf("expected tool error for missing query")
	}
	if svc.gotQuery != "" {
		t.Fatalf("use case must not be called without a query")
	}
}

func TestAnswerQuestionMapsBlankQuery(t *testing.T) {
	svc := &fakeQueryService{err: domain.WrapError(domain.ErrNoQuery, "answer query", errors.New("blank query"))}
	srv := NewServer(svc, fakeTopicReader{})

	result, err := srv.handleAnswerQuestion(context.Background(), callToolRequest(map[string]any{
		"query": "   ",
	}))
	if err != nil {
		t.Fatalf("handleAnswerQuestion: %v", err)
	}
	if !result.IsError {
		t.Fatalf("expected tool error for blank query")
	}
	if got := textOf(t, result); got != "No query provided" {
		t.Fatalf("unexpected error text: %q", got)
	}
}

func TestAnswerQuestionSurfacesDependencyFailure(t *testing.T) {
	svc := &fakeQueryService{err: domain.WrapError(domain.ErrContentFetch, "notion fetch", errors.New("status 404"))}
	srv := NewServer(svc, fakeTopicReader{})

	result, err := srv.handleAnswerQuestion(context.Background(), callToolRequest(map[string]any{
		"query": "battery",
	}))
	if err != nil {
		t.Fatalf("handleAnswerQuestion: %v", err)
	}
	if !result.IsError {
		t.Fatalf("expected tool error for fetch failure")
	}
	if got := textOf(t, result); !strings.Contains(got, "notion fetch") {
		t.Fatalf("expected failure detail, got %q", got)
	}
}

func TestListTopicsKeepsOrder(t *testing.T) {
	srv := NewServer(&fakeQueryService{}, fakeTopicReader{names: []string{"Battery", "Charger", "Installation"}})

	result, err := srv.handleListTopics(context.Background(), callToolRequest(nil))
	if err != nil {
		t.Fatalf("handleListTopics: %v", err)
	}
	if got := textOf(t, result); got != "Battery\nCharger\nInstallation" {
		t.Fatalf("unexpected topics text: %q", got)
	}
}

func TestListTopicsEmptyCatalog(t *testing.T) {
	srv := NewServer(&fakeQueryService{}, fakeTopicReader{})

	result, err := srv.handleListTopics(context.Background(), callToolRequest(nil))
	if err != nil {
		t.Fatalf("handleListTopics: %v", err)
	}
	if got := textOf(t, result); !strings.Contains(got, "No topics") {
		t.Fatalf("unexpected empty-catalog text: %q", got)
	}
}
