package ports

import (
	"context"

	"github.com/docdesk/docdesk/internal/core/domain"
)

// CatalogSource loads the topic catalog once at startup.
type CatalogSource interface {
	Load(ctx context.Context) (domain.TopicCatalog, error)
}

// ContentFetcher retrieves the flattened content of one hosted document.
type ContentFetcher interface {
	FetchContent(ctx context.Context, documentID string) (*domain.DocumentContent, error)
}

// RelevanceOracle judges whether a document excerpt can answer a query.
// Implementations degrade unparseable replies to a zero verdict instead of
// returning an error; transport failures are returned as errors and degraded
// by the caller.
type RelevanceOracle interface {
	ScoreRelevance(ctx context.Context, query, excerpt string) (domain.RelevanceVerdict, error)
}

// AnswerGenerator produces the final user-facing answer from a composed
// prompt.
type AnswerGenerator interface {
	GenerateAnswer(ctx context.Context, prompt string) (string, error)
}

// EventPublisher emits resolution audit events. Publishing is best-effort:
// callers log failures and never fail the request.
type EventPublisher interface {
	PublishResolution(ctx context.Context, event domain.ResolutionEvent) error
}
