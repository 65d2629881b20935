package domain

// ImageRef is an image attached to a document, with the caption joined from
// its rich-text runs.
type ImageRef struct {
	URL     string `json:"url"`
	Caption string `json:"caption"`
}

// DocumentContent is the flattened body of a hosted document: block texts
// joined into one string plus any image references in block order.
type DocumentContent struct {
	Text   string
	Images []ImageRef
}
