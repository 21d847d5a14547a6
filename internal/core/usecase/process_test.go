package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/tahaislam/hybrid-rag-parser/internal/core/domain"
)

type repoFake struct {
	docs     map[string]*domain.Document
	statuses []domain.DocumentStatus
	lastErr  string
	counts   domain.IngestionCounts
}

func newRepoFake(docs ...*domain.Document) *repoFake {
	r := &repoFake{docs: map[string]*domain.Document{}}
	for _, doc := range docs {
		r.docs[doc.ID] = doc
	}
	return r
}

func (r *repoFake) Create(_ context.Context, doc *domain.Document) error {
	r.docs[doc.ID] = doc
	return nil
}

func (r *repoFake) GetByID(_ context.Context, id string) (*domain.Document, error) {
	doc, ok := r.docs[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrDocumentNotFound, "get document", errors.New(id))
	}
	return doc, nil
}

func (r *repoFake) List(context.Context) ([]domain.Document, error) {
	out := make([]domain.Document, 0, len(r.docs))
	for _, doc := range r.docs {
		out = append(out, *doc)
	}
	return out, nil
}

func (r *repoFake) UpdateStatus(_ context.Context, id string, status domain.DocumentStatus, errMessage string) error {
	if _, ok := r.docs[id]; !ok {
		return domain.WrapError(domain.ErrDocumentNotFound, "update status", errors.New(id))
	}
	r.statuses = append(r.statuses, status)
	r.lastErr = errMessage
	return nil
}

func (r *repoFake) SaveCounts(_ context.Context, id string, counts domain.IngestionCounts) error {
	r.counts = counts
	return nil
}

type extractorFake struct {
	elements []domain.Element
	err      error
}

func (e *extractorFake) Extract(context.Context, *domain.Document) ([]domain.Element, error) {
	return e.elements, e.err
}

type classifierFake struct{}

// IsTableLike flags anything containing a tab, close enough for pipeline tests.
func (classifierFake) IsTableLike(text string) bool { return strings.Contains(text, "\t") }

type chunkerFake struct{}

func (chunkerFake) Split(text string) []string { return []string{text} }

type tableSinkFake struct {
	saved []domain.Table
	err   error
}

func (t *tableSinkFake) SaveTables(_ context.Context, tables []domain.Table) error {
	if t.err != nil {
		return t.err
	}
	t.saved = append(t.saved, tables...)
	return nil
}

func (t *tableSinkFake) ListBySource(context.Context, string, int) ([]domain.Table, error) {
	return t.saved, nil
}

type indexerFake struct {
	indexed []domain.TextChunk
	err     error
}

func (v *indexerFake) IndexChunks(_ context.Context, chunks []domain.TextChunk) error {
	if v.err != nil {
		return v.err
	}
	v.indexed = append(v.indexed, chunks...)
	return nil
}

func (v *indexerFake) Search(context.Context, []float32, int) (domain.RetrievalResult, error) {
	return nil, nil
}

func newProcessForTest(repo *repoFake, extractor *extractorFake, tables *tableSinkFake, indexer *indexerFake) *ProcessDocumentUseCase {
	return NewProcessDocumentUseCase(
		repo,
		extractor,
		classifierFake{},
		chunkerFake{},
		&embedderFake{vector: []float32{0.1}},
		indexer,
		tables,
		nil,
	)
}

func TestProcessSeparatesTablesFromNarrative(t *testing.T) {
	doc := &domain.Document{ID: "d1", Filename: "report.pdf", Status: domain.StatusUploaded}
	repo := newRepoFake(doc)
	extractor := &extractorFake{elements: []domain.Element{
		{Kind: domain.ElementText, Content: "plain narrative paragraph", Position: 0},
		{Kind: domain.ElementTable, Content: "<table><tr><td>1</td></tr></table>", ContentType: domain.TableContentHTML, Page: 2, Position: 1},
		{Kind: domain.ElementText, Content: "Q1\t$100\nQ2\t$200\nQ3\t$300", Position: 2},
	}}
	tables := &tableSinkFake{}
	indexer := &indexerFake{}

	uc := newProcessForTest(repo, extractor, tables, indexer)
	if err := uc.ProcessByID(context.Background(), "d1"); err != nil {
		t.Fatalf("ProcessByID() error = %v", err)
	}

	// One real table element plus one filtered table-like text block.
	if len(tables.saved) != 2 {
		t.Fatalf("saved tables = %d, want 2", len(tables.saved))
	}
	if tables.saved[0].ContentType != domain.TableContentHTML {
		t.Fatalf("table 0 content type = %s", tables.saved[0].ContentType)
	}
	if tables.saved[0].SourceFilename != "report.pdf" {
		t.Fatalf("table source = %s", tables.saved[0].SourceFilename)
	}

	if len(indexer.indexed) != 1 {
		t.Fatalf("indexed chunks = %d, want 1 (only true narrative)", len(indexer.indexed))
	}
	if indexer.indexed[0].Text != "plain narrative paragraph" {
		t.Fatalf("indexed text = %q", indexer.indexed[0].Text)
	}

	if repo.counts.Chunks != 1 || repo.counts.Tables != 2 || repo.counts.Filtered != 1 {
		t.Fatalf("counts = %+v", repo.counts)
	}
	last := repo.statuses[len(repo.statuses)-1]
	if last != domain.StatusReady {
		t.Fatalf("final status = %s", last)
	}
}

func TestProcessMarksFailedOnExtractorError(t *testing.T) {
	doc := &domain.Document{ID: "d1", Filename: "broken.pdf"}
	repo := newRepoFake(doc)
	extractor := &extractorFake{err: errors.New("corrupt pdf")}

	uc := newProcessForTest(repo, extractor, &tableSinkFake{}, &indexerFake{})
	err := uc.ProcessByID(context.Background(), "d1")
	if err == nil {
		t.Fatalf("expected error")
	}

	last := repo.statuses[len(repo.statuses)-1]
	if last != domain.StatusFailed {
		t.Fatalf("final status = %s, want failed", last)
	}
	if !strings.Contains(repo.lastErr, "corrupt pdf") {
		t.Fatalf("failure message not recorded: %q", repo.lastErr)
	}
}

func TestProcessFailsOnEmptyDocument(t *testing.T) {
	doc := &domain.Document{ID: "d1", Filename: "empty.txt"}
	repo := newRepoFake(doc)

	uc := newProcessForTest(repo, &extractorFake{}, &tableSinkFake{}, &indexerFake{})
	err := uc.ProcessByID(context.Background(), "d1")
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestProcessTableOnlyDocumentSkipsIndexing(t *testing.T) {
	doc := &domain.Document{ID: "d1", Filename: "sheet.xlsx"}
	repo := newRepoFake(doc)
	extractor := &extractorFake{elements: []domain.Element{
		{Kind: domain.ElementTable, Content: "| a |", ContentType: domain.TableContentMarkdown, Page: 1},
	}}
	indexer := &indexerFake{err: errors.New("must not be called")}
	tables := &tableSinkFake{}

	uc := newProcessForTest(repo, extractor, tables, indexer)
	if err := uc.ProcessByID(context.Background(), "d1"); err != nil {
		t.Fatalf("ProcessByID() error = %v", err)
	}
	if repo.counts.Tables != 1 || repo.counts.Chunks != 0 {
		t.Fatalf("counts = %+v", repo.counts)
	}
}
