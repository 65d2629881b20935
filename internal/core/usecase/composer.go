package usecase

import (
	"fmt"
	"strings"

	"github.com/docdesk/docdesk/internal/core/domain"
)

// answerContextLimit caps how much document text a grounding prompt embeds.
const answerContextLimit = 7000

// ComposeAnswerPrompt builds the completion prompt for a resolution outcome.
// Match outcomes get a grounding prompt around the winning document;
// no-match outcomes get a fallback prompt that enumerates every available
// topic. Confidence values and image URLs never reach the prompt.
func ComposeAnswerPrompt(query string, outcome domain.ResolutionOutcome) string {
	switch outcome.Provenance {
	case domain.ProvenanceKeywordMatch:
		return groundedPrompt(query, outcome, keywordInstructions)
	case domain.ProvenanceSemanticSearch:
		return groundedPrompt(query, outcome, semanticInstructions)
	default:
		return fallbackPrompt(query, outcome.AvailableTopics)
	}
}

const keywordInstructions = `Instructions:
- Answer ONLY if the documentation contains relevant information
- If the question cannot be answered from this documentation, clearly state: "I don't have information about that in the documentation."
- Be specific and cite relevant details from the documentation
- Keep responses clear and concise
- If procedures or steps are involved, present them clearly
- If there are images in the documentation that would help answer the question, mention that visual references are available`

const semanticInstructions = `Instructions:
- Answer based on the documentation provided
- If the documentation does not contain the answer, say so directly instead of guessing
- Be specific and cite relevant details
- Keep responses clear and concise
- If there are images in the documentation that would help answer the question, mention that visual references are available`

func groundedPrompt(query string, outcome domain.ResolutionOutcome, instructions string) string {
	text := outcome.Content.Text
	if len(text) > answerContextLimit {
		text = text[:answerContextLimit]
	}

	return fmt.Sprintf(`You are a helpful assistant for the team's internal product documentation.

Context from '%s' documentation:
%s

User Question: %s

%s
`, outcome.Topic, text, query, instructions)
}

func fallbackPrompt(query string, topics []string) string {
	return fmt.Sprintf(`The user asked: "%s"

This question cannot be answered from the available documentation topics: %s.

Provide a helpful response that:
1. Acknowledges you don't have documentation about this specific topic
2. Lists what documentation IS available
3. Suggests they contact support or rephrase their question
4. Stays friendly and professional

Do NOT make up information or pretend to know the answer.
`, query, strings.Join(topics, ", "))
}
