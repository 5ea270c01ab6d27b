package models

// IndexEntry is a lazily-cached snapshot of one key in a content
// namespace.
type IndexEntry struct {
	Name     string         `json:"name"`
	Metadata *IndexMetadata `json:"metadata,omitempty"`
}

// IndexMetadata carries optional per-key metadata captured at listing time.
type IndexMetadata struct {
	Uploaded int64 `json:"uploaded,omitempty"` // unix seconds of last write
}

// LatestArticle is the summary of the most recently written article.
type LatestArticle struct {
	Path string `json:"path"`
	Text string `json:"text"` // first rendered paragraph
}
