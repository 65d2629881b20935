package ports

import (
	"context"

	"github.com/docdesk/docdesk/internal/core/domain"
)

// QueryService is the inbound contract for answering questions from the
// documentation corpus.
type QueryService interface {
	AnswerQuery(ctx context.Context, query string) (*domain.QueryAnswer, error)
}

// TopicReader is the inbound read model for the topic catalog.
type TopicReader interface {
	ListTopics() []string
}
