// Package plaintext extracts elements from UTF-8 text and markdown
// documents. Blank-line separated blocks become elements; blocks that
// look like markdown or HTML tables are emitted as table elements so
// they reach the structured store instead of the vector index.
package plaintext

import (
	"context"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/tahaislam/hybrid-rag-parser/internal/core/domain"
	"github.com/tahaislam/hybrid-rag-parser/internal/core/ports"
)

type Extractor struct {
	storage ports.ObjectStorage
}

func NewExtractor(storage ports.ObjectStorage) *Extractor {
	return &Extractor{storage: storage}
}

func (e *Extractor) Extract(ctx context.Context, doc *domain.Document) ([]domain.Element, error) {
	reader, err := e.storage.Open(ctx, doc.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("open source document: %w", err)
	}
	defer reader.Close()

	raw, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read source document: %w", err)
	}
	if !utf8.Valid(raw) {
		return nil, fmt.Errorf("binary content in text document: %s", doc.Filename)
	}

	text := strings.ReplaceAll(string(raw), "\r\n", "\n")
	blocks := strings.Split(text, "\n\n")

	out := make([]domain.Element, 0, len(blocks))
	position := 0
	for _, block := range blocks {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}

		element := domain.Element{
			Kind:     domain.ElementText,
			Content:  block,
			Position: position,
		}
		switch {
		case isMarkdownTable(block):
			element.Kind = domain.ElementTable
			element.ContentType = domain.TableContentMarkdown
		case isHTMLTable(block):
			element.Kind = domain.ElementTable
			element.ContentType = domain.TableContentHTML
		}
		out = append(out, element)
		position++
	}
	return out, nil
}

// isMarkdownTable requires at least two pipe-delimited rows.
func isMarkdownTable(block string) bool {
	lines := strings.Split(block, "\n")
	if len(lines) < 2 {
		return false
	}
	rows := 0
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "|") && strings.Count(trimmed, "|") >= 2 {
			rows++
		}
	}
	return rows >= 2
}

func isHTMLTable(block string) bool {
	lower := strings.ToLower(block)
	return strings.Contains(lower, "<table") && strings.Contains(lower, "</table>")
}
