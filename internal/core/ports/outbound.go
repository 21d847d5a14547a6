package ports

import (
	"context"
	"io"
	"time"

	"github.com/tahaislam/hybrid-rag-parser/internal/core/domain"
)

// DocumentRepository persists and reads document metadata and state.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	List(ctx context.Context) ([]domain.Document, error)
	UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errMessage string) error
	SaveCounts(ctx context.Context, id string, counts domain.IngestionCounts) error
}

// TableStore persists extracted tables and serves source-scoped lookup.
// ListBySource returns tables for exactly the named source document in
// ascending (page, position) order; it never includes another source.
type TableStore interface {
	SaveTables(ctx context.Context, tables []domain.Table) error
	ListBySource(ctx context.Context, sourceFilename string, limit int) ([]domain.Table, error)
}

// ObjectStorage stores raw uploaded documents.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// MessageQueue publishes/consumes ingestion events.
type MessageQueue interface {
	PublishDocumentIngested(ctx context.Context, documentID string) error
	SubscribeDocumentIngested(ctx context.Context, handler func(context.Context, string) error) error
}

// ElementExtractor turns a stored document into ordered text and table
// elements.
type ElementExtractor interface {
	Extract(ctx context.Context, doc *domain.Document) ([]domain.Element, error)
}

// Chunker splits narrative text into embeddable chunks.
type Chunker interface {
	Split(text string) []string
}

// TableLikenessClassifier decides whether a text fragment is table-shaped
// and must be kept out of the narrative corpus.
type TableLikenessClassifier interface {
	IsTableLike(text string) bool
}

// Embedder builds fixed-dimension vectors for chunks and query text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// VectorStore indexes chunks and performs cosine nearest-neighbor search.
// Search results are ordered by descending score with ties broken by
// ascending chunk position, then filename.
type VectorStore interface {
	IndexChunks(ctx context.Context, chunks []domain.TextChunk) error
	Search(ctx context.Context, queryVector []float32, limit int) (domain.RetrievalResult, error)
}

// AnswerGenerator synthesizes the final answer from the assembled context.
// Deterministic only when the configured temperature is zero.
type AnswerGenerator interface {
	GenerateAnswer(ctx context.Context, question string, promptCtx domain.PromptContext) (string, error)
}

// QueryCache is the tiered question->answer cache.
type QueryCache interface {
	Fingerprint(question, fileFilter string) string
	Get(ctx context.Context, fingerprint string) (domain.CachedAnswer, bool)
	Set(ctx context.Context, fingerprint string, value domain.CachedAnswer, ttl time.Duration)
	GetOrCompute(ctx context.Context, fingerprint string, compute func(context.Context) (domain.CachedAnswer, error)) (domain.CachedAnswer, bool, error)
	Clear(ctx context.Context) error
	Stats() domain.CacheStats
}

// HealthChecker reports reachability of one backend for the status surface.
type HealthChecker interface {
	Name() string
	Check(ctx context.Context) error
}
