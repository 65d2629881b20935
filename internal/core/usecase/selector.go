package usecase

import (
	"strings"

	"github.com/docdesk/docdesk/internal/core/domain"
)

// SelectCandidates returns the topics whose names appear verbatim in the
// query, matched case-insensitively and preserved in catalog order. An empty
// result is normal: the cascade then goes straight to the exhaustive scan.
func SelectCandidates(query string, catalog domain.TopicCatalog) []domain.Candidate {
	loweredQuery := strings.ToLower(query)

	var candidates []domain.Candidate
	for _, entry := range catalog.Entries() {
		if !strings.Contains(loweredQuery, strings.ToLower(entry.Name)) {
			continue
		}
		candidates = append(candidates, domain.Candidate{
			Topic:       entry.Name,
			DocumentRef: entry.DocumentRef,
			Priority:    domain.PriorityKeyword,
		})
	}
	return candidates
}
