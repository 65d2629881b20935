package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/docdesk/docdesk/internal/core/domain"
	"github.com/docdesk/docdesk/internal/core/ports"
)

// AnswerQueryUseCase orchestrates one question end to end: resolve the most
// relevant document, compose the prompt, generate the answer and emit the
// audit event.
type AnswerQueryUseCase struct {
	catalog   domain.TopicCatalog
	resolver  *Resolver
	generator ports.AnswerGenerator
	events    ports.EventPublisher
}

func NewAnswerQueryUseCase(
	catalog domain.TopicCatalog,
	resolver *Resolver,
	generator ports.AnswerGenerator,
	events ports.EventPublisher,
) *AnswerQueryUseCase {
	return &AnswerQueryUseCase{
		catalog:   catalog,
		resolver:  resolver,
		generator: generator,
		events:    events,
	}
}

func (uc *AnswerQueryUseCase) AnswerQuery(ctx context.Context, query string) (*domain.QueryAnswer, error) {
	if strings.TrimSpace(query) == "" {
		return nil, domain.ErrNoQuery
	}

	start := time.Now()
	outcome, err := uc.resolver.Resolve(ctx, query, uc.catalog)
	if err != nil {
		return nil, fmt.Errorf("resolve relevance: %w", err)
	}

	response, err := uc.generator.GenerateAnswer(ctx, ComposeAnswerPrompt(query, outcome))
	if err != nil {
		if !domain.IsKind(err, domain.ErrCompletion) && !domain.IsKind(err, domain.ErrUnavailable) {
			err = domain.WrapError(domain.ErrCompletion, "generate answer", err)
		}
		return nil, err
	}

	answer := &domain.QueryAnswer{
		Topic:      outcome.Topic,
		Response:   response,
		Confidence: outcome.Confidence,
		Source:     outcome.Provenance,
		Stats:      outcome.Stats,
	}
	if outcome.Matched() {
		answer.Images = outcome.Content.Images
	} else {
		answer.AvailableTopics = outcome.AvailableTopics
	}

	uc.publishResolution(ctx, query, answer, time.Since(start))
	return answer, nil
}

func (uc *AnswerQueryUseCase) ListTopics() []string {
	return uc.catalog.Names()
}

func (uc *AnswerQueryUseCase) publishResolution(ctx context.Context, query string, answer *domain.QueryAnswer, elapsed time.Duration) {
	if uc.events == nil {
		return
	}

	event := domain.ResolutionEvent{
		ID:                uuid.NewString(),
		Query:             query,
		Topic:             answer.Topic,
		Source:            answer.Source,
		Confidence:        answer.Confidence,
		KeywordCandidates: answer.Stats.KeywordCandidates,
		TopicsScored:      answer.Stats.TopicsScored,
		DegradedVerdicts:  answer.Stats.DegradedVerdicts,
		SkippedTopics:     answer.Stats.SkippedTopics,
		DurationMS:        float64(elapsed.Microseconds()) / 1000.0,
		CreatedAt:         time.Now().UTC(),
	}
	if err := uc.events.PublishResolution(ctx, event); err != nil {
		slog.Warn("resolution_event_publish_failed", "event_id", event.ID, "error", err)
	}
}
