// Package spreadsheet turns workbook sheets into markdown table
// elements with excelize. Every non-empty sheet becomes one table; there
// is no narrative text in a spreadsheet worth chunking.
package spreadsheet

import (
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

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

	workbook, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", doc.Filename, err)
	}
	defer workbook.Close()

	sheets := workbook.GetSheetList()
	out := make([]domain.Element, 0, len(sheets))
	position := 0
	for sheetIdx, sheet := range sheets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rows, err := workbook.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("read sheet %q of %s: %w", sheet, doc.Filename, err)
		}
		markdown := rowsToMarkdown(sheet, rows)
		if markdown == "" {
			continue
		}

		out = append(out, domain.Element{
			Kind:        domain.ElementTable,
			Content:     markdown,
			ContentType: domain.TableContentMarkdown,
			Page:        sheetIdx + 1,
			Position:    position,
		})
		position++
	}
	return out, nil
}

// rowsToMarkdown renders one sheet as a markdown table, first row as
// header. Ragged rows are padded so every row has the header's width.
func rowsToMarkdown(sheet string, rows [][]string) string {
	width := 0
	nonEmpty := false
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
		for _, cell := range row {
			if strings.TrimSpace(cell) != "" {
				nonEmpty = true
			}
		}
	}
	if width == 0 || !nonEmpty {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Table data: %s\n", sheet)
	for i, row := range rows {
		b.WriteString("|")
		for col := 0; col < width; col++ {
			cell := ""
			if col < len(row) {
				cell = strings.TrimSpace(row[col])
			}
			b.WriteString(" " + escapeCell(cell) + " |")
		}
		b.WriteString("\n")
		if i == 0 {
			b.WriteString("|" + strings.Repeat(" --- |", width) + "\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func escapeCell(cell string) string {
	return strings.ReplaceAll(cell, "|", "\\|")
}
