package domain

// QueryAnswer is the boundary result of answering one query: the generated
// text plus the resolution facts callers surface alongside it. Images and
// confidence travel with the answer but are never shown to the completion
// model.
type QueryAnswer struct {
	Topic           string
	Response        string
	Confidence      int
	Source          Provenance
	Images          []ImageRef
	AvailableTopics []string
	Stats           ResolutionStats
}
