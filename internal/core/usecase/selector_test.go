package usecase

import (
	"testing"

	"github.com/docdesk/docdesk/internal/core/domain"
)

func testCatalog(t *testing.T, entries ...domain.TopicEntry) domain.TopicCatalog {
	t.Helper()
	catalog, err := domain.NewTopicCatalog(entries)
	if err != nil {
		t.Fatalf("NewTopicCatalog() error = %v", err)
	}
	return catalog
}

func TestSelectCandidatesMatchesSubstringsInCatalogOrder(t *testing.T) {
	catalog := testCatalog(t,
		domain.TopicEntry{Name: "Battery", DocumentRef: "https://docs.example.com/Battery-Guide-bat1"},
		domain.TopicEntry{Name: "Charger", DocumentRef: "https://docs.example.com/Charger-Guide-chg1"},
		domain.TopicEntry{Name: "Installation", DocumentRef: "https://docs.example.com/Install-Guide-ins1"},
	)

	candidates := SelectCandidates("Is the battery covered in the installation guide?", catalog)
	if len(candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(candidates))
	}
	if candidates[0].Topic != "Battery" || candidates[1].Topic != "Installation" {
		t.Fatalf("expected catalog order [Battery Installation], got [%s %s]", candidates[0].Topic, candidates[1].Topic)
	}
	for _, candidate := range candidates {
		if candidate.Priority != domain.PriorityKeyword {
			t.Fatalf("expected keyword priority, got %s", candidate.Priority)
		}
	}
}

func TestSelectCandidatesIsCaseInsensitive(t *testing.T) {
	catalog := testCatalog(t,
		domain.TopicEntry{Name: "Battery", DocumentRef: "https://docs.example.com/Battery-Guide-bat1"},
	)

	candidates := SelectCandidates("BATTERY life?", catalog)
	if len(candidates) != 1 || candidates[0].Topic != "Battery" {
		t.Fatalf("expected Battery candidate, got %v", candidates)
	}
}

func TestSelectCandidatesEmptyWhenNoNameAppears(t *testing.T) {
	catalog := testCatalog(t,
		domain.TopicEntry{Name: "Battery", DocumentRef: "https://docs.example.com/Battery-Guide-bat1"},
		domain.TopicEntry{Name: "Charger", DocumentRef: "https://docs.example.com/Charger-Guide-chg1"},
	)

	if candidates := SelectCandidates("warranty terms", catalog); len(candidates) != 0 {
		t.Fatalf("expected no candidates, got %v", candidates)
	}
}
