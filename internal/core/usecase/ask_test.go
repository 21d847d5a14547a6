package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/tahaislam/hybrid-rag-parser/internal/core/domain"
)

type embedderFake struct {
	vector []float32
	err    error
	calls  int
}

func (e *embedderFake) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = e.vector
	}
	return out, e.err
}

func (e *embedderFake) EmbedQuery(context.Context, string) ([]float32, error) {
	e.calls++
	return e.vector, e.err
}

type vectorStoreFake struct {
	result domain.RetrievalResult
	err    error
}

func (v *vectorStoreFake) IndexChunks(context.Context, []domain.TextChunk) error { return nil }

func (v *vectorStoreFake) Search(context.Context, []float32, int) (domain.RetrievalResult, error) {
	return v.result, v.err
}

type tableStoreFake struct {
	tables     []domain.Table
	err        error
	lastSource string
	lastLimit  int
}

func (t *tableStoreFake) SaveTables(context.Context, []domain.Table) error { return nil }

func (t *tableStoreFake) ListBySource(_ context.Context, source string, limit int) ([]domain.Table, error) {
	t.lastSource = source
	t.lastLimit = limit
	if t.err != nil {
		return nil, t.err
	}
	return t.tables, nil
}

type generatorFake struct {
	answer string
	err    error
	calls  int
	lastQ  string
	lastPC domain.PromptContext
}

func (g *generatorFake) GenerateAnswer(_ context.Context, question string, promptCtx domain.PromptContext) (string, error) {
	g.calls++
	g.lastQ = question
	g.lastPC = promptCtx
	return g.answer, g.err
}

// cacheFake is an unbounded in-memory stand-in for the tiered cache.
type cacheFake struct {
	mu      sync.Mutex
	entries map[string]domain.CachedAnswer
	sets    int
}

func newCacheFake() *cacheFake {
	return &cacheFake{entries: map[string]domain.CachedAnswer{}}
}

func (c *cacheFake) Fingerprint(question, fileFilter string) string {
	return strings.ToLower(question) + "\x1f" + fileFilter
}

func (c *cacheFake) Get(_ context.Context, fingerprint string) (domain.CachedAnswer, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[fingerprint]
	return v, ok
}

func (c *cacheFake) Set(_ context.Context, fingerprint string, value domain.CachedAnswer, _ time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[fingerprint] = value
	c.sets++
}

func (c *cacheFake) GetOrCompute(ctx context.Context, fingerprint string, compute func(context.Context) (domain.CachedAnswer, error)) (domain.CachedAnswer, bool, error) {
	if v, ok := c.Get(ctx, fingerprint); ok {
		return v, true, nil
	}
	v, err := compute(ctx)
	if err != nil {
		return domain.CachedAnswer{}, false, err
	}
	c.Set(ctx, fingerprint, v, 0)
	return v, false, nil
}

func (c *cacheFake) Clear(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = map[string]domain.CachedAnswer{}
	return nil
}

func (c *cacheFake) Stats() domain.CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return domain.CacheStats{EntryCount: len(c.entries)}
}

func newAskForTest(vectors *vectorStoreFake, tables *tableStoreFake, gen *generatorFake, cache *cacheFake) (*AskUseCase, *embedderFake) {
	embedder := &embedderFake{vector: []float32{0.1, 0.2}}
	uc := NewAskUseCase(embedder, vectors, tables, gen, cache, NewAssembler(0, nil), AskOptions{}, nil)
	return uc, embedder
}

func TestAskRunsHybridPipeline(t *testing.T) {
	vectors := &vectorStoreFake{result: domain.RetrievalResult{
		{SourceFilename: "report.pdf", Text: "narrative", Score: 0.9},
		{SourceFilename: "report.pdf", Text: "more narrative", Score: 0.8},
		{SourceFilename: "other.pdf", Text: "stray", Score: 0.7},
	}}
	tables := &tableStoreFake{tables: []domain.Table{
		{ID: "t1", SourceFilename: "report.pdf", Content: "| a |\n| --- |\n| 1 |", ContentType: domain.TableContentMarkdown},
	}}
	gen := &generatorFake{answer: "42"}
	uc, _ := newAskForTest(vectors, tables, gen, newCacheFake())

	answer, err := uc.Ask(context.Background(), domain.AskRequest{Question: "what is the total?"})
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if answer.Text != "42" {
		t.Fatalf("answer = %q", answer.Text)
	}
	if tables.lastSource != "report.pdf" {
		t.Fatalf("table lookup scoped to %q, want resolved source report.pdf", tables.lastSource)
	}

	var kinds []domain.SourceKind
	for _, s := range answer.Sources {
		kinds = append(kinds, s.Type)
	}
	if len(kinds) != 4 || kinds[3] != domain.SourceKindTable {
		t.Fatalf("sources = %v", kinds)
	}
}

func TestAskCachesByFingerprint(t *testing.T) {
	vectors := &vectorStoreFake{result: domain.RetrievalResult{{SourceFilename: "a.pdf", Text: "x", Score: 0.9}}}
	gen := &generatorFake{answer: "cached answer"}
	cache := newCacheFake()
	uc, embedder := newAskForTest(vectors, &tableStoreFake{}, gen, cache)

	for i := 0; i < 3; i++ {
		answer, err := uc.Ask(context.Background(), domain.AskRequest{Question: "Same Question?"})
		if err != nil {
			t.Fatalf("Ask() #%d error = %v", i, err)
		}
		if answer.Text != "cached answer" {
			t.Fatalf("answer = %q", answer.Text)
		}
	}

	if gen.calls != 1 {
		t.Fatalf("generator calls = %d, want 1 (answers served from cache)", gen.calls)
	}
	if embedder.calls != 1 {
		t.Fatalf("embedder calls = %d, want 1", embedder.calls)
	}
}

func TestAskExplicitFilterOverridesResolution(t *testing.T) {
	vectors := &vectorStoreFake{result: domain.RetrievalResult{
		{SourceFilename: "majority.pdf", Text: "a", Score: 0.9},
		{SourceFilename: "majority.pdf", Text: "b", Score: 0.8},
	}}
	tables := &tableStoreFake{}
	uc, _ := newAskForTest(vectors, tables, &generatorFake{answer: "ok"}, newCacheFake())

	_, err := uc.Ask(context.Background(), domain.AskRequest{Question: "q", FileFilter: "chosen.pdf"})
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if tables.lastSource != "chosen.pdf" {
		t.Fatalf("table lookup scoped to %q, want explicit filter chosen.pdf", tables.lastSource)
	}
}

func TestAskDegradesWhenTableBackendFails(t *testing.T) {
	vectors := &vectorStoreFake{result: domain.RetrievalResult{{SourceFilename: "a.pdf", Text: "narrative", Score: 0.9}}}
	tables := &tableStoreFake{err: domain.WrapError(domain.ErrTableUnavailable, "list tables", errors.New("down"))}
	gen := &generatorFake{answer: "text only"}
	uc, _ := newAskForTest(vectors, tables, gen, newCacheFake())

	answer, err := uc.Ask(context.Background(), domain.AskRequest{Question: "q"})
	if err != nil {
		t.Fatalf("table failure must degrade, got error %v", err)
	}
	if answer.Text != "text only" {
		t.Fatalf("answer = %q", answer.Text)
	}
	for _, seg := range gen.lastPC.Segments {
		if seg.Kind == domain.SourceKindTable {
			t.Fatalf("degraded context must not contain tables")
		}
	}
}

func TestAskFailsWhenRetrievalUnavailable(t *testing.T) {
	vectors := &vectorStoreFake{err: errors.New("qdrant down")}
	cache := newCacheFake()
	uc, _ := newAskForTest(vectors, &tableStoreFake{}, &generatorFake{}, cache)

	_, err := uc.Ask(context.Background(), domain.AskRequest{Question: "q"})
	if !domain.IsKind(err, domain.ErrRetrievalUnavailable) {
		t.Fatalf("expected ErrRetrievalUnavailable, got %v", err)
	}
	if cache.sets != 0 {
		t.Fatalf("failed asks must not be cached")
	}
}

func TestAskFailsWhenGenerationFails(t *testing.T) {
	vectors := &vectorStoreFake{result: domain.RetrievalResult{{SourceFilename: "a.pdf", Text: "x", Score: 0.9}}}
	gen := &generatorFake{err: errors.New("model crashed")}
	uc, _ := newAskForTest(vectors, &tableStoreFake{}, gen, newCacheFake())

	_, err := uc.Ask(context.Background(), domain.AskRequest{Question: "q"})
	if !domain.IsKind(err, domain.ErrGenerationFailed) {
		t.Fatalf("expected ErrGenerationFailed, got %v", err)
	}
}

func TestAskRejectsEmptyQuestion(t *testing.T) {
	uc, _ := newAskForTest(&vectorStoreFake{}, &tableStoreFake{}, &generatorFake{}, newCacheFake())

	_, err := uc.Ask(context.Background(), domain.AskRequest{Question: "   "})
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestAskDebugBypassesCacheReadButWritesBack(t *testing.T) {
	vectors := &vectorStoreFake{result: domain.RetrievalResult{
		{SourceFilename: "a.pdf", Text: "x", Score: 0.9},
		{SourceFilename: "a.pdf", Text: "y", Score: 0.8},
	}}
	gen := &generatorFake{answer: "fresh"}
	cache := newCacheFake()
	uc, _ := newAskForTest(vectors, &tableStoreFake{}, gen, cache)

	// Warm the cache, then ask again in debug mode.
	if _, err := uc.Ask(context.Background(), domain.AskRequest{Question: "q"}); err != nil {
		t.Fatalf("warm Ask() error = %v", err)
	}
	answer, err := uc.Ask(context.Background(), domain.AskRequest{Question: "q", Debug: true})
	if err != nil {
		t.Fatalf("debug Ask() error = %v", err)
	}

	if gen.calls != 2 {
		t.Fatalf("debug ask must recompute, generator calls = %d", gen.calls)
	}
	if answer.Debug == nil {
		t.Fatalf("debug ask must return debug info")
	}
	if answer.Debug.ResolvedSource != "a.pdf" || answer.Debug.SourceVotes != 2 {
		t.Fatalf("debug info = %+v", answer.Debug)
	}
	if answer.Debug.ChunksFound != 2 {
		t.Fatalf("chunks found = %d", answer.Debug.ChunksFound)
	}
	if answer.Debug.Fingerprint == "" {
		t.Fatalf("debug info must carry the fingerprint")
	}
	if cache.sets < 2 {
		t.Fatalf("debug answer must be written back to the cache, sets = %d", cache.sets)
	}
}
