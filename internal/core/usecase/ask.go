package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tahaislam/hybrid-rag-parser/internal/core/domain"
	"github.com/tahaislam/hybrid-rag-parser/internal/core/ports"
)

type AskOptions struct {
	TopK       int
	TableLimit int
	CacheTTL   time.Duration
}

func (o AskOptions) normalize() AskOptions {
	if o.TopK <= 0 {
		o.TopK = 3
	}
	if o.TableLimit <= 0 {
		o.TableLimit = 5
	}
	if o.CacheTTL <= 0 {
		o.CacheTTL = time.Hour
	}
	return o
}

// AskUseCase runs the hybrid pipeline: embed the question, retrieve
// chunks, resolve the dominant source, fetch that source's tables,
// assemble a bounded context, and generate the answer. Answers are
// cached under the question fingerprint; a table backend failure
// degrades to a text-only context while retrieval and generation
// failures abort the request.
type AskUseCase struct {
	embedder  ports.Embedder
	vectorDB  ports.VectorStore
	tables    ports.TableStore
	generator ports.AnswerGenerator
	cache     ports.QueryCache
	assembler *Assembler
	opts      AskOptions
	logger    *slog.Logger
}

func NewAskUseCase(
	embedder ports.Embedder,
	vectorDB ports.VectorStore,
	tables ports.TableStore,
	generator ports.AnswerGenerator,
	cache ports.QueryCache,
	assembler *Assembler,
	opts AskOptions,
	logger *slog.Logger,
) *AskUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &AskUseCase{
		embedder:  embedder,
		vectorDB:  vectorDB,
		tables:    tables,
		generator: generator,
		cache:     cache,
		assembler: assembler,
		opts:      opts.normalize(),
		logger:    logger,
	}
}

func (uc *AskUseCase) Ask(ctx context.Context, req domain.AskRequest) (*domain.Answer, error) {
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "ask", errors.New("empty question"))
	}

	started := time.Now()
	fingerprint := uc.cache.Fingerprint(question, req.FileFilter)

	if req.Debug {
		// Debug answers are always computed fresh but still written
		// back, so a later non-debug ask can hit the cache.
		answer, debug, err := uc.compute(ctx, question, req.FileFilter)
		if err != nil {
			return nil, err
		}
		uc.cache.Set(ctx, fingerprint, domain.CachedAnswer{Answer: answer.Text, Sources: answer.Sources}, uc.opts.CacheTTL)

		debug.Fingerprint = fingerprint
		debug.QueryTimeMS = float64(time.Since(started).Microseconds()) / 1000.0
		answer.Debug = debug
		return answer, nil
	}

	cached, fromCache, err := uc.cache.GetOrCompute(ctx, fingerprint, func(ctx context.Context) (domain.CachedAnswer, error) {
		answer, _, err := uc.compute(ctx, question, req.FileFilter)
		if err != nil {
			return domain.CachedAnswer{}, err
		}
		return domain.CachedAnswer{Answer: answer.Text, Sources: answer.Sources}, nil
	})
	if err != nil {
		return nil, err
	}
	if fromCache {
		uc.logger.Debug("ask_cache_hit", "fingerprint", fingerprint)
	}
	return &domain.Answer{Text: cached.Answer, Sources: cached.Sources}, nil
}

func (uc *AskUseCase) compute(ctx context.Context, question, fileFilter string) (*domain.Answer, *domain.DebugInfo, error) {
	queryVector, err := uc.embedder.EmbedQuery(ctx, question)
	if err != nil {
		return nil, nil, domain.WrapError(domain.ErrRetrievalUnavailable, "embed query", err)
	}

	chunks, err := uc.vectorDB.Search(ctx, queryVector, uc.opts.TopK)
	if err != nil {
		return nil, nil, domain.WrapError(domain.ErrRetrievalUnavailable, "vector search", err)
	}

	debug := &domain.DebugInfo{ChunksFound: len(chunks)}

	tableSource := fileFilter
	if tableSource == "" {
		if resolved := ResolveSource(chunks); resolved != nil {
			tableSource = resolved.Filename
			debug.ResolvedSource = resolved.Filename
			debug.SourceVotes = resolved.Votes
		}
	} else {
		debug.ResolvedSource = fileFilter
	}

	var tables []domain.Table
	if tableSource != "" {
		tables, err = uc.tables.ListBySource(ctx, tableSource, uc.opts.TableLimit)
		if err != nil {
			// Structured lookup is an enrichment; retrieval already
			// produced usable context.
			uc.logger.Warn("table_lookup_degraded", "source", tableSource, "error", err)
			tables = nil
		}
	}
	debug.TablesFound = len(tables)

	promptCtx := uc.assembler.AssembleContext(chunks, tables)
	debug.ContextBytes = promptCtx.Bytes
	debug.Truncated = promptCtx.Truncated

	answerText, err := uc.generator.GenerateAnswer(ctx, question, promptCtx)
	if err != nil {
		return nil, nil, domain.WrapError(domain.ErrGenerationFailed, "generate answer", err)
	}

	return &domain.Answer{
		Text:    answerText,
		Sources: buildSources(promptCtx),
	}, debug, nil
}

func (uc *AskUseCase) SearchVectors(ctx context.Context, query string, limit int) (domain.RetrievalResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "search vectors", errors.New("empty query"))
	}
	if limit <= 0 {
		limit = uc.opts.TopK
	}

	queryVector, err := uc.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, domain.WrapError(domain.ErrRetrievalUnavailable, "embed query", err)
	}
	chunks, err := uc.vectorDB.Search(ctx, queryVector, limit)
	if err != nil {
		return nil, domain.WrapError(domain.ErrRetrievalUnavailable, "vector search", err)
	}
	return chunks, nil
}

func (uc *AskUseCase) SearchTables(ctx context.Context, sourceFilename string, limit int) ([]domain.Table, error) {
	sourceFilename = strings.TrimSpace(sourceFilename)
	if sourceFilename == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "search tables", errors.New("empty source filename"))
	}
	if limit <= 0 {
		limit = uc.opts.TableLimit
	}
	return uc.tables.ListBySource(ctx, sourceFilename, limit)
}

func (uc *AskUseCase) ClearCache(ctx context.Context) error {
	if err := uc.cache.Clear(ctx); err != nil {
		return fmt.Errorf("clear query cache: %w", err)
	}
	return nil
}

func (uc *AskUseCase) CacheStats() domain.CacheStats {
	return uc.cache.Stats()
}

func buildSources(promptCtx domain.PromptContext) []domain.Source {
	out := make([]domain.Source, 0, len(promptCtx.Segments))
	for _, seg := range promptCtx.Segments {
		out = append(out, domain.Source{
			Type:     seg.Kind,
			Filename: seg.Filename,
			Content:  seg.Content,
		})
	}
	return out
}
