package ollama

import (
	"fmt"
	"strings"

	"github.com/tahaislam/hybrid-rag-parser/internal/core/domain"
)

// buildHybridPrompt lays the context out in two labeled blocks, narrative
// chunks first and structured tables second, so the model can cite either
// without confusing the two.
func buildHybridPrompt(question string, promptCtx domain.PromptContext) string {
	var texts, tables strings.Builder

	textIdx, tableIdx := 0, 0
	for _, seg := range promptCtx.Segments {
		switch seg.Kind {
		case domain.SourceKindTable:
			tableIdx++
			fmt.Fprintf(&tables, "[table %d] file=%s\n%s\n\n", tableIdx, seg.Filename, seg.Content)
		default:
			textIdx++
			fmt.Fprintf(&texts, "[%d] file=%s\n%s\n\n", textIdx, seg.Filename, seg.Content)
		}
	}
	if textIdx == 0 {
		texts.WriteString("(no relevant text chunks)\n")
	}
	if tableIdx == 0 {
		tables.WriteString("(no relevant tables)\n")
	}

	return fmt.Sprintf(`You are an expert assistant for answering questions about complex documents.
You will be given context from two sources:
1. RELEVANT TEXT CHUNKS: semantically similar text from the documents.
2. RELEVANT TABLES: structured tables from the documents, rendered as markdown.

Answer the user's question based only on this provided context.
If the answer is not found in the context, say "I could not find the answer in the provided documents."

---
CONTEXT 1: RELEVANT TEXT CHUNKS
---
%s
---
CONTEXT 2: RELEVANT TABLES
---
%s
---
USER QUESTION:
---
%s

---
YOUR ANSWER:
`, texts.String(), tables.String(), question)
}
