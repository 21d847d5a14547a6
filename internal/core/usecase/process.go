package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tahaislam/hybrid-rag-parser/internal/core/domain"
	"github.com/tahaislam/hybrid-rag-parser/internal/core/ports"
)

// ProcessDocumentUseCase runs the ingestion pipeline for one stored
// document: extract elements, route table elements to the table store,
// run narrative text through the table-likeness filter, then chunk,
// embed, and index what survives.
type ProcessDocumentUseCase struct {
	repo       ports.DocumentRepository
	extractor  ports.ElementExtractor
	classifier ports.TableLikenessClassifier
	chunker    ports.Chunker
	embedder   ports.Embedder
	vectorDB   ports.VectorStore
	tables     ports.TableStore
	logger     *slog.Logger
}

func NewProcessDocumentUseCase(
	repo ports.DocumentRepository,
	extractor ports.ElementExtractor,
	classifier ports.TableLikenessClassifier,
	chunker ports.Chunker,
	embedder ports.Embedder,
	vectorDB ports.VectorStore,
	tables ports.TableStore,
	logger *slog.Logger,
) *ProcessDocumentUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProcessDocumentUseCase{
		repo:       repo,
		extractor:  extractor,
		classifier: classifier,
		chunker:    chunker,
		embedder:   embedder,
		vectorDB:   vectorDB,
		tables:     tables,
		logger:     logger,
	}
}

func (uc *ProcessDocumentUseCase) ProcessByID(ctx context.Context, documentID string) error {
	if err := uc.repo.UpdateStatus(ctx, documentID, domain.StatusProcessing, ""); err != nil {
		return fmt.Errorf("set status=processing: %w", err)
	}

	counts, err := uc.pipeline(ctx, documentID)
	if err != nil {
		if failErr := uc.repo.UpdateStatus(ctx, documentID, domain.StatusFailed, err.Error()); failErr != nil {
			return fmt.Errorf("%w; mark failed status: %v", err, failErr)
		}
		return err
	}

	if err := uc.repo.SaveCounts(ctx, documentID, counts); err != nil {
		return fmt.Errorf("save ingestion counts: %w", err)
	}
	if err := uc.repo.UpdateStatus(ctx, documentID, domain.StatusReady, ""); err != nil {
		return fmt.Errorf("set status=ready: %w", err)
	}

	uc.logger.Info("document_processed",
		"document_id", documentID,
		"chunks", counts.Chunks,
		"tables", counts.Tables,
		"filtered", counts.Filtered,
	)
	return nil
}

func (uc *ProcessDocumentUseCase) pipeline(ctx context.Context, documentID string) (domain.IngestionCounts, error) {
	var counts domain.IngestionCounts

	doc, err := uc.repo.GetByID(ctx, documentID)
	if err != nil {
		return counts, fmt.Errorf("fetch document by id: %w", err)
	}

	elements, err := uc.extractor.Extract(ctx, doc)
	if err != nil {
		return counts, fmt.Errorf("extract elements: %w", err)
	}
	if len(elements) == 0 {
		return counts, domain.WrapError(domain.ErrInvalidInput, "extract elements", errors.New("document produced no elements"))
	}

	tables, narrative := uc.separate(doc, elements, &counts)

	if err := uc.tables.SaveTables(ctx, tables); err != nil {
		return counts, fmt.Errorf("save tables: %w", err)
	}
	counts.Tables = len(tables)

	chunks, err := uc.buildChunks(ctx, doc, narrative)
	if err != nil {
		return counts, err
	}
	counts.Chunks = len(chunks)

	if len(chunks) > 0 {
		if err := uc.vectorDB.IndexChunks(ctx, chunks); err != nil {
			return counts, fmt.Errorf("index chunks in vector db: %w", err)
		}
	}
	return counts, nil
}

// separate splits extracted elements into stored tables and narrative
// text. Text elements that look like tables are counted as filtered and
// kept out of the embedding corpus; they carry too little prose signal
// and poison similarity search.
func (uc *ProcessDocumentUseCase) separate(doc *domain.Document, elements []domain.Element, counts *domain.IngestionCounts) ([]domain.Table, []domain.Element) {
	now := time.Now().UTC()
	tables := make([]domain.Table, 0)
	narrative := make([]domain.Element, 0, len(elements))

	for _, element := range elements {
		switch {
		case element.Kind == domain.ElementTable:
			tables = append(tables, uc.toTable(doc, element, now))
		case uc.classifier.IsTableLike(element.Content):
			counts.Filtered++
			tables = append(tables, domain.Table{
				ID:             uuid.NewString(),
				DocumentID:     doc.ID,
				SourceFilename: doc.Filename,
				Content:        element.Content,
				ContentType:    domain.TableContentText,
				Page:           element.Page,
				Position:       element.Position,
				CreatedAt:      now,
			})
		default:
			narrative = append(narrative, element)
		}
	}
	return tables, narrative
}

func (uc *ProcessDocumentUseCase) toTable(doc *domain.Document, element domain.Element, now time.Time) domain.Table {
	contentType := element.ContentType
	if contentType == "" {
		contentType = domain.TableContentText
	}
	return domain.Table{
		ID:             uuid.NewString(),
		DocumentID:     doc.ID,
		SourceFilename: doc.Filename,
		Content:        element.Content,
		ContentType:    contentType,
		Page:           element.Page,
		Position:       element.Position,
		CreatedAt:      now,
	}
}

func (uc *ProcessDocumentUseCase) buildChunks(ctx context.Context, doc *domain.Document, narrative []domain.Element) ([]domain.TextChunk, error) {
	texts := make([]string, 0)
	for _, element := range narrative {
		texts = append(texts, uc.chunker.Split(element.Content)...)
	}
	if len(texts) == 0 {
		return nil, nil
	}

	vectors, err := uc.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed chunks: %w", err)
	}
	if len(vectors) != len(texts) {
		return nil, domain.WrapError(
			domain.ErrInvalidInput,
			"embed chunks",
			fmt.Errorf("vectors/chunks mismatch: %d/%d", len(vectors), len(texts)),
		)
	}

	chunks := make([]domain.TextChunk, 0, len(texts))
	for i, text := range texts {
		chunks = append(chunks, domain.TextChunk{
			ID:             uuid.NewString(),
			DocumentID:     doc.ID,
			SourceFilename: doc.Filename,
			Position:       i,
			Text:           text,
			Vector:         vectors[i],
		})
	}
	return chunks, nil
}
