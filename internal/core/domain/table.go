package domain

import "time"

type TableContentType string

const (
	TableContentHTML     TableContentType = "html"
	TableContentMarkdown TableContentType = "markdown"
	TableContentText     TableContentType = "text"
)

// Table is a structured fragment extracted at ingestion and stored for
// exact lookup, scoped to its source document. Immutable once created.
type Table struct {
	ID             string           `json:"id"`
	DocumentID     string           `json:"document_id"`
	SourceFilename string           `json:"source_filename"`
	Content        string           `json:"content"`
	ContentType    TableContentType `json:"content_type"`
	Page           int              `json:"page"`
	Position       int              `json:"position"`
	CreatedAt      time.Time        `json:"created_at"`
}
