package domain

// TextChunk is a unit of narrative text produced at ingestion. Chunks are
// immutable once indexed; Position is the chunk's order within its source
// document and doubles as the deterministic tie-breaker during retrieval.
type TextChunk struct {
	ID             string    `json:"id"`
	DocumentID     string    `json:"document_id"`
	SourceFilename string    `json:"source_filename"`
	Position       int       `json:"position"`
	Text           string    `json:"text"`
	Vector         []float32 `json:"-"`
}

// RetrievedChunk is one vector search hit.
type RetrievedChunk struct {
	ChunkID        string  `json:"chunk_id"`
	DocumentID     string  `json:"document_id"`
	SourceFilename string  `json:"source_filename"`
	Position       int     `json:"position"`
	Text           string  `json:"text"`
	Score          float64 `json:"score"`
}

// RetrievalResult is ordered by descending score; equal scores are ordered
// by ascending chunk position, then filename. The ordering is part of the
// contract, not an accident of storage.
type RetrievalResult []RetrievedChunk

// ResolvedSource names the single document selected to scope table lookup,
// together with the vote count and summed similarity that selected it.
type ResolvedSource struct {
	Filename string  `json:"filename"`
	Votes    int     `json:"votes"`
	ScoreSum float64 `json:"score_sum"`
}
