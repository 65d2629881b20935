package usecase

import (
	"strings"
	"testing"

	"github.com/docdesk/docdesk/internal/core/domain"
)

func TestComposeGroundedPromptCapsDocumentText(t *testing.T) {
	text := strings.Repeat("a", answerContextLimit) + "OVERFLOW-MARKER"
	outcome := domain.ResolutionOutcome{
		Provenance: domain.ProvenanceKeywordMatch,
		Topic:      "Battery",
		Content:    &domain.DocumentContent{Text: text},
		Confidence: 90,
	}

	prompt := ComposeAnswerPrompt("battery question", outcome)
	if strings.Contains(prompt, "OVERFLOW-MARKER") {
		t.Fatalf("prompt must cap document text at %d characters", answerContextLimit)
	}
	if !strings.Contains(prompt, "Battery") || !strings.Contains(prompt, "battery question") {
		t.Fatalf("prompt must carry topic and question")
	}
}

func TestComposeGroundedPromptHidesConfidenceAndImages(t *testing.T) {
	outcome := domain.ResolutionOutcome{
		Provenance: domain.ProvenanceSemanticSearch,
		Topic:      "Charger",
		Content: &domain.DocumentContent{
			Text: "plug the charger into the wall socket",
			Images: []domain.ImageRef{
				{URL: "https://img.example.com/wiring-diagram.png", Caption: "wiring"},
			},
		},
		Confidence: 87,
	}

	prompt := ComposeAnswerPrompt("how do I plug it in", outcome)
	if strings.Contains(prompt, "87") {
		t.Fatalf("prompt must not leak the confidence value")
	}
	if strings.Contains(prompt, "wiring-diagram.png") {
		t.Fatalf("prompt must not leak image URLs")
	}
}

func TestComposeKeywordPromptDemandsRefusal(t *testing.T) {
	outcome := domain.ResolutionOutcome{
		Provenance: domain.ProvenanceKeywordMatch,
		Topic:      "Battery",
		Content:    &domain.DocumentContent{Text: "battery doc"},
	}

	prompt := ComposeAnswerPrompt("q", outcome)
	if !strings.Contains(prompt, "I don't have information about that in the documentation.") {
		t.Fatalf("keyword prompt must instruct the model how to refuse")
	}
}

func TestComposeFallbackPromptListsEveryTopic(t *testing.T) {
	outcome := domain.ResolutionOutcome{
		Provenance:      domain.ProvenanceNoMatch,
		AvailableTopics: []string{"Battery", "Charger", "Warranty"},
	}

	prompt := ComposeAnswerPrompt("what color is it", outcome)
	for _, topic := range outcome.AvailableTopics {
		if !strings.Contains(prompt, topic) {
			t.Fatalf("fallback prompt missing topic %s", topic)
		}
	}
	if !strings.Contains(prompt, "what color is it") {
		t.Fatalf("fallback prompt must quote the question")
	}
}
