package domain

// VerdictReasonUnparseable marks a verdict degraded from an oracle reply
// that did not contain a usable JSON object.
const VerdictReasonUnparseable = "unparseable"

// RelevanceVerdict is the oracle's judgement of one document against one
// query. Confidence is on a 0-100 scale and is compared as-is against the
// cascade thresholds.
type RelevanceVerdict struct {
	Relevant   bool   `json:"relevant"`
	Confidence int    `json:"confidence"`
	Reason     string `json:"reason"`
}

// ZeroVerdict is the degraded verdict used when the oracle cannot produce a
// usable one. It never matches any threshold.
func ZeroVerdict(reason string) RelevanceVerdict {
	return RelevanceVerdict{Relevant: false, Confidence: 0, Reason: reason}
}

type CandidatePriority string

const (
	PriorityKeyword    CandidatePriority = "keyword"
	PriorityExhaustive CandidatePriority = "exhaustive"
)

// Candidate is a topic queued for relevance scoring.
type Candidate struct {
	Topic       string
	DocumentRef string
	Priority    CandidatePriority
}

// Provenance records which phase of the cascade produced an outcome.
type Provenance string

const (
	ProvenanceKeywordMatch   Provenance = "keyword_match"
	ProvenanceSemanticSearch Provenance = "semantic_search"
	ProvenanceNoMatch        Provenance = "no_match"
)

// ResolutionStats counts what the cascade did, for logs, metrics and audit
// events. SkippedTopics covers both fetch degradations and documents with
// no text.
type ResolutionStats struct {
	KeywordCandidates int
	TopicsScored      int
	DegradedVerdicts  int
	SkippedTopics     int
}

// ResolutionOutcome is the result of the two-phase cascade. Match outcomes
// carry the winning topic with its full document content and the verdict
// confidence; a no-match outcome carries the ordered list of every topic
// the service knows about.
type ResolutionOutcome struct {
	Provenance      Provenance
	Topic           string
	Content         *DocumentContent
	Confidence      int
	AvailableTopics []string
	Stats           ResolutionStats
}

func (o ResolutionOutcome) Matched() bool {
	return o.Provenance != ProvenanceNoMatch
}
