package plaintext

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/tahaislam/hybrid-rag-parser/internal/core/domain"
)

type storageFake struct {
	files map[string]string
}

func (s *storageFake) Save(_ context.Context, key string, data io.Reader) error {
	raw, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	s.files[key] = string(raw)
	return nil
}

func (s *storageFake) Open(_ context.Context, key string) (io.ReadCloser, error) {
	content, ok := s.files[key]
	if !ok {
		return nil, fmt.Errorf("no such key: %s", key)
	}
	return io.NopCloser(strings.NewReader(content)), nil
}

func TestExtractSeparatesTextAndTableBlocks(t *testing.T) {
	content := `Introduction paragraph about the annual report.

| Quarter | Revenue |
| --- | --- |
| Q1 | $1,000 |

Closing remarks paragraph.`

	storage := &storageFake{files: map[string]string{"docs/a.md": content}}
	extractor := NewExtractor(storage)

	elements, err := extractor.Extract(context.Background(), &domain.Document{
		Filename:    "a.md",
		StoragePath: "docs/a.md",
	})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(elements) != 3 {
		t.Fatalf("expected 3 elements, got %d", len(elements))
	}

	if elements[0].Kind != domain.ElementText {
		t.Fatalf("element 0 kind = %s", elements[0].Kind)
	}
	if elements[1].Kind != domain.ElementTable || elements[1].ContentType != domain.TableContentMarkdown {
		t.Fatalf("element 1 = %+v", elements[1])
	}
	if elements[2].Kind != domain.ElementText {
		t.Fatalf("element 2 kind = %s", elements[2].Kind)
	}

	for i, el := range elements {
		if el.Position != i {
			t.Fatalf("element %d position = %d", i, el.Position)
		}
	}
}

func TestExtractRecognizesHTMLTables(t *testing.T) {
	content := "<table><tr><td>1</td></tr></table>"
	storage := &storageFake{files: map[string]string{"docs/t.html": content}}

	elements, err := NewExtractor(storage).Extract(context.Background(), &domain.Document{
		Filename:    "t.html",
		StoragePath: "docs/t.html",
	})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(elements) != 1 || elements[0].Kind != domain.ElementTable || elements[0].ContentType != domain.TableContentHTML {
		t.Fatalf("elements = %+v", elements)
	}
}

func TestExtractRejectsBinaryContent(t *testing.T) {
	storage := &storageFake{files: map[string]string{"docs/b.bin": string([]byte{0xff, 0xfe, 0x00, 0x01})}}

	_, err := NewExtractor(storage).Extract(context.Background(), &domain.Document{
		Filename:    "b.bin",
		StoragePath: "docs/b.bin",
	})
	if err == nil {
		t.Fatalf("expected error for binary content")
	}
}
