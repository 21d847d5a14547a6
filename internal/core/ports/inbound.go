package ports

import (
	"context"
	"io"

	"github.com/tahaislam/hybrid-rag-parser/internal/core/domain"
)

// DocumentIngestor is the inbound contract for document upload orchestration.
type DocumentIngestor interface {
	Upload(ctx context.Context, filename, mimeType string, body io.Reader) (*domain.Document, error)
}

// DocumentProcessor is the inbound contract for asynchronous ingestion.
type DocumentProcessor interface {
	ProcessByID(ctx context.Context, documentID string) error
}

// QueryService is the inbound contract for the hybrid ask pipeline and the
// raw search surfaces.
type QueryService interface {
	Ask(ctx context.Context, req domain.AskRequest) (*domain.Answer, error)
	SearchVectors(ctx context.Context, query string, limit int) (domain.RetrievalResult, error)
	SearchTables(ctx context.Context, sourceFilename string, limit int) ([]domain.Table, error)
}

// CacheAdmin exposes operator control over the query cache.
type CacheAdmin interface {
	ClearCache(ctx context.Context) error
	CacheStats() domain.CacheStats
}

// DocumentReader is the inbound read model for document metadata/state.
type DocumentReader interface {
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	List(ctx context.Context) ([]domain.Document, error)
}
