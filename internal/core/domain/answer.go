package domain

import "time"

type SourceKind string

const (
	SourceKindText  SourceKind = "text"
	SourceKindTable SourceKind = "table"
)

type Source struct {
	Type     SourceKind `json:"type"`
	Filename string     `json:"filename"`
	Content  string     `json:"content"`
}

type AskRequest struct {
	Question   string `json:"question"`
	FileFilter string `json:"file_filter,omitempty"`
	Debug      bool   `json:"debug,omitempty"`
}

type DebugInfo struct {
	Fingerprint    string  `json:"fingerprint"`
	ResolvedSource string  `json:"resolved_source"`
	SourceVotes    int     `json:"source_votes"`
	ChunksFound    int     `json:"chunks_found"`
	TablesFound    int     `json:"tables_found"`
	ContextBytes   int     `json:"context_bytes"`
	Truncated      bool    `json:"truncated"`
	QueryTimeMS    float64 `json:"query_time_ms"`
	CacheHit       bool    `json:"cache_hit"`
}

type Answer struct {
	Text    string     `json:"answer"`
	Sources []Source   `json:"sources"`
	Debug   *DebugInfo `json:"debug_info,omitempty"`
}

// CachedAnswer is the serialized value stored under a query fingerprint.
// Debug information is request-specific and never cached.
type CachedAnswer struct {
	Answer  string   `json:"answer"`
	Sources []Source `json:"sources"`
}

// ContextSegment is one rendered block of the generation context.
type ContextSegment struct {
	Kind     SourceKind `json:"kind"`
	Filename string     `json:"filename"`
	Content  string     `json:"content"`
}

// PromptContext is the bounded, deduplicated context handed to the
// generation backend: text segments in retrieval order, then table
// segments in store order.
type PromptContext struct {
	Segments  []ContextSegment `json:"segments"`
	Bytes     int              `json:"bytes"`
	Truncated bool             `json:"truncated"`
}

type CacheStats struct {
	Hits        uint64    `json:"hits"`
	Misses      uint64    `json:"misses"`
	HitRate     float64   `json:"hit_rate"`
	EntryCount  int       `json:"entry_count"`
	LastCleared time.Time `json:"last_cleared"`
	RemoteTier  bool      `json:"remote_tier"`
}
