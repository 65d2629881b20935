package groq

import "fmt"

// buildRelevancePrompt asks for a strict JSON verdict so the reply can be
// unmarshaled directly. The excerpt is already capped by the caller.
func buildRelevancePrompt(query, excerpt string) string {
	return fmt.Sprintf(`Analyze if the following documentation content can answer the user's question.

User Question: %s

Documentation Content Preview: %s

Respond with ONLY a JSON object in this exact format:
{"relevant": true/false, "confidence": 0-100, "reason": "brief explanation"}
`, query, excerpt)
}
