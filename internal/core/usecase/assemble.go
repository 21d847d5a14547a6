package usecase

import (
	"log/slog"
	"strings"

	"golang.org/x/net/html"

	"github.com/tahaislam/hybrid-rag-parser/internal/core/domain"
)

const defaultContextBudget = 12000

// Assembler builds the bounded prompt context from retrieved chunks and
// tables. Text segments come first in rank order, tables follow in
// document layout order. HTML tables are rendered to markdown so the
// model sees one uniform table format.
type Assembler struct {
	maxBytes int
	logger   *slog.Logger
}

func NewAssembler(maxBytes int, logger *slog.Logger) *Assembler {
	if maxBytes <= 0 {
		maxBytes = defaultContextBudget
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Assembler{maxBytes: maxBytes, logger: logger}
}

func (a *Assembler) AssembleContext(chunks domain.RetrievalResult, tables []domain.Table) domain.PromptContext {
	texts := make([]domain.ContextSegment, 0, len(chunks))
	for _, chunk := range chunks {
		if a.collides(chunk.Text, texts) {
			a.logger.Warn("context_duplicate_rejected",
				"chunk_id", chunk.ChunkID, "source", chunk.SourceFilename)
			continue
		}
		texts = append(texts, domain.ContextSegment{
			Kind:     domain.SourceKindText,
			Filename: chunk.SourceFilename,
			Content:  chunk.Text,
		})
	}

	tableSegs := make([]domain.ContextSegment, 0, len(tables))
	for _, table := range tables {
		content := table.Content
		if table.ContentType == domain.TableContentHTML {
			content = htmlTableToMarkdown(content)
		}
		if a.collides(content, texts, tableSegs) {
			a.logger.Warn("context_duplicate_rejected",
				"table_id", table.ID, "source", table.SourceFilename)
			continue
		}
		tableSegs = append(tableSegs, domain.ContextSegment{
			Kind:     domain.SourceKindTable,
			Filename: table.SourceFilename,
			Content:  content,
		})
	}

	truncated := false
	for segmentBytes(texts)+segmentBytes(tableSegs) > a.maxBytes {
		if len(texts) > 0 {
			texts = texts[:len(texts)-1]
			truncated = true
			continue
		}
		if len(tableSegs) > 0 {
			last := &tableSegs[len(tableSegs)-1]
			trimmed, ok := dropLastRow(last.Content)
			if ok {
				last.Content = trimmed
			} else {
				tableSegs = tableSegs[:len(tableSegs)-1]
			}
			truncated = true
			continue
		}
		break
	}

	segments := append(texts, tableSegs...)
	return domain.PromptContext{
		Segments:  segments,
		Bytes:     segmentBytes(segments),
		Truncated: truncated,
	}
}

// collides reports whether content exactly duplicates, or is contained
// in, a segment already selected for the context.
func (a *Assembler) collides(content string, groups ...[]domain.ContextSegment) bool {
	for _, group := range groups {
		for _, seg := range group {
			if strings.Contains(seg.Content, content) || strings.Contains(content, seg.Content) {
				return true
			}
		}
	}
	return false
}

func segmentBytes(segments []domain.ContextSegment) int {
	total := 0
	for _, seg := range segments {
		total += len(seg.Content)
	}
	return total
}

// dropLastRow removes the last markdown row. A table reduced to its
// header and separator alone is not worth keeping, so ok is false then.
func dropLastRow(table string) (string, bool) {
	lines := strings.Split(strings.TrimRight(table, "\n"), "\n")
	if len(lines) <= 3 {
		return "", false
	}
	return strings.Join(lines[:len(lines)-1], "\n"), true
}

// htmlTableToMarkdown renders the first-level rows of an HTML table as a
// markdown table, header separator after the first row. Content without
// any rows passes through unchanged.
func htmlTableToMarkdown(content string) string {
	node, err := html.Parse(strings.NewReader(content))
	if err != nil {
		return content
	}

	var rows [][]string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "tr" {
			rows = append(rows, rowCells(n))
			return
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(node)

	if len(rows) == 0 {
		return content
	}

	var b strings.Builder
	for i, cells := range rows {
		b.WriteString("| " + strings.Join(cells, " | ") + " |\n")
		if i == 0 {
			separators := make([]string, len(cells))
			for j := range separators {
				separators[j] = "---"
			}
			b.WriteString("| " + strings.Join(separators, " | ") + " |\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func rowCells(tr *html.Node) []string {
	var cells []string
	for child := tr.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == html.ElementNode && (child.Data == "td" || child.Data == "th") {
			cells = append(cells, strings.TrimSpace(nodeText(child)))
		}
	}
	return cells
}

func nodeText(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		b.WriteString(nodeText(child))
	}
	return b.String()
}
