// Package extractor routes stored documents to a format-specific
// element extractor by MIME type and filename extension.
package extractor

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/tahaislam/hybrid-rag-parser/internal/core/domain"
	"github.com/tahaislam/hybrid-rag-parser/internal/core/ports"
)

type Dispatcher struct {
	plaintext   ports.ElementExtractor
	pdf         ports.ElementExtractor
	spreadsheet ports.ElementExtractor
}

func NewDispatcher(plaintext, pdf, spreadsheet ports.ElementExtractor) *Dispatcher {
	return &Dispatcher{
		plaintext:   plaintext,
		pdf:         pdf,
		spreadsheet: spreadsheet,
	}
}

func (d *Dispatcher) Extract(ctx context.Context, doc *domain.Document) ([]domain.Element, error) {
	switch {
	case isPDF(doc):
		return d.pdf.Extract(ctx, doc)
	case isSpreadsheet(doc):
		return d.spreadsheet.Extract(ctx, doc)
	default:
		return d.plaintext.Extract(ctx, doc)
	}
}

func isPDF(doc *domain.Document) bool {
	if doc.MimeType == "application/pdf" {
		return true
	}
	return strings.EqualFold(filepath.Ext(doc.Filename), ".pdf")
}

func isSpreadsheet(doc *domain.Document) bool {
	switch doc.MimeType {
	case "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		"application/vnd.ms-excel":
		return true
	}
	switch strings.ToLower(filepath.Ext(doc.Filename)) {
	case ".xlsx", ".xlsm", ".xltx":
		return true
	}
	return false
}
