package domain

import "time"

// ResolutionEvent is the audit record published after a query is answered.
type ResolutionEvent struct {
	ID                string     `json:"id"`
	Query             string     `json:"query"`
	Topic             string     `json:"topic,omitempty"`
	Source            Provenance `json:"source"`
	Confidence        int        `json:"confidence"`
	KeywordCandidates int        `json:"keyword_candidates"`
	TopicsScored      int        `json:"topics_scored"`
	DegradedVerdicts  int        `json:"degraded_verdicts"`
	SkippedTopics     int        `json:"skipped_topics"`
	DurationMS        float64    `json:"duration_ms"`
	CreatedAt         time.Time  `json:"created_at"`
}
