package dto

type IngestDocumentRequest struct {
	Collection string `json:"collection" validate:"required"`
	Source     string `json:"source" validate:"required"`
	Content    string `json:"content" validate:"required"`
}

type IngestDocumentResponse struct {
	Collection string `json:"collection"`
	Source     string `json:"source"`
	Queued     bool   `json:"queued"`
}

type ListCollectionsResponse struct {
	Collections []string `json:"collections"`
}

// PublishEmbedDocumentMessage travels over the in-process queue between the
// ingest endpoint and the embedding consumer.
type PublishEmbedDocumentMessage struct {
	Collection string `json:"collection"`
	Source     string `json:"source"`
	Content    string `json:"content"`
}
