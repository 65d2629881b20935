package groq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/docdesk/docdesk/internal/core/domain"
	"github.com/docdesk/docdesk/internal/infrastructure/resilience"
)

const (
	scoreTemperature  = 0.1
	answerTemperature = 0.3
)

// Client talks to the Groq OpenAI-compatible chat completions API. It serves
// both outbound LLM roles: relevance scoring and answer generation.
type Client struct {
	baseURL     string
	apiKey      string
	scoreModel  string
	answerModel string
	httpClient  *http.Client
	executor    *resilience.Executor
}

func New(baseURL, apiKey, scoreModel, answerModel string) *Client {
	return NewWithOptions(baseURL, apiKey, scoreModel, answerModel, Options{})
}

type Options struct {
	Timeout            time.Duration
	ResilienceExecutor *resilience.Executor
}

func NewWithOptions(baseURL, apiKey, scoreModel, answerModel string, options Options) *Client {
	timeout := options.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		apiKey:      apiKey,
		scoreModel:  scoreModel,
		answerModel: answerModel,
		httpClient:  &http.Client{Timeout: timeout},
		executor:    options.ResilienceExecutor,
	}
}

// ScoreRelevance asks the score model whether the excerpt can answer the
// query. A reply that is not the expected JSON object degrades to the zero
// verdict instead of failing the call; transport errors are returned.
func (c *Client) ScoreRelevance(ctx context.Context, query, excerpt string) (domain.RelevanceVerdict, error) {
	reply, err := c.chatCompletion(ctx, "score", c.scoreModel, scoreTemperature, buildRelevancePrompt(query, excerpt))
	if err != nil {
		return domain.RelevanceVerdict{}, wrapUnavailableIfNeeded("groq score", err)
	}

	var verdict domain.RelevanceVerdict
	if err := json.Unmarshal([]byte(extractJSONObject(reply)), &verdict); err != nil {
		slog.Warn("relevance_reply_unparseable", "error", err)
		return domain.ZeroVerdict(domain.VerdictReasonUnparseable), nil
	}
	verdict.Confidence = clampConfidence(verdict.Confidence)
	return verdict, nil
}

// GenerateAnswer runs the answer model over an already-composed prompt.
func (c *Client) GenerateAnswer(ctx context.Context, prompt string) (string, error) {
	reply, err := c.chatCompletion(ctx, "answer", c.answerModel, answerTemperature, prompt)
	if err != nil {
		return "", wrapUnavailableIfNeeded("groq answer", err)
	}
	if reply == "" {
		return "", fmt.Errorf("groq answer: empty completion")
	}
	return reply, nil
}

func (c *Client) chatCompletion(ctx context.Context, operation, model string, temperature float64, prompt string) (string, error) {
	request := map[string]any{
		"model": model,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
		"temperature": temperature,
	}

	var response struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}

	call := func(callCtx context.Context) error {
		response.Choices = nil
		return c.postJSON(callCtx, "/openai/v1/chat/completions", request, &response, operation)
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, "groq."+operation, call, classifyGroqError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return "", err
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("groq %s: empty choices", operation)
	}
	return strings.TrimSpace(response.Choices[0].Message.Content), nil
}

func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}

func clampConfidence(confidence int) int {
	if confidence < 0 {
		return 0
	}
	if confidence > 100 {
		return 100
	}
	return confidence
}
