package domain

type ElementKind string

const (
	ElementText  ElementKind = "text"
	ElementTable ElementKind = "table"
)

// Element is one fragment produced by a document extractor, before the
// table-likeness filter and chunking run. Position is the element's order
// within the document; Page is zero when the format has no page concept.
type Element struct {
	Kind        ElementKind
	Content     string
	ContentType TableContentType
	Page        int
	Position    int
}
