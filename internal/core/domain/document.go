package domain

import "time"

type DocumentStatus string

const (
	StatusUploaded   DocumentStatus = "uploaded"
	StatusProcessing DocumentStatus = "processing"
	StatusReady      DocumentStatus = "ready"
	StatusFailed     DocumentStatus = "failed"
)

type Document struct {
	ID            string         `json:"id"`
	Filename      string         `json:"filename"`
	MimeType      string         `json:"mime_type"`
	StoragePath   string         `json:"storage_path"`
	Status        DocumentStatus `json:"status"`
	Error         string         `json:"error,omitempty"`
	ChunkCount    int            `json:"chunk_count"`
	TableCount    int            `json:"table_count"`
	FilteredCount int            `json:"filtered_count"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// IngestionCounts summarizes what processing produced for one document:
// chunks indexed for semantic search, tables stored for exact lookup, and
// text fragments the table-likeness filter discarded as duplicate table
// content.
type IngestionCounts struct {
	Chunks   int `json:"chunks"`
	Tables   int `json:"tables"`
	Filtered int `json:"filtered"`
}
