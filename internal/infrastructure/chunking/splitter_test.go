package chunking

import (
	"strings"
	"testing"
)

func TestSplitEmptyText(t *testing.T) {
	if got := NewSplitter(100, 20).Split(""); got != nil {
		t.Fatalf("Split(\"\") = %v, want nil", got)
	}
}

func TestSplitShortTextIsOneChunk(t *testing.T) {
	got := NewSplitter(100, 20).Split("short paragraph")
	if len(got) != 1 || got[0] != "short paragraph" {
		t.Fatalf("Split() = %v", got)
	}
}

func TestSplitOverlapsAndPreservesAllText(t *testing.T) {
	words := make([]string, 200)
	for i := range words {
		words[i] = "word"
	}
	text := strings.Join(words, " ")

	splitter := NewSplitter(120, 30)
	chunks := splitter.Split(text)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if len([]rune(c)) > splitter.ChunkSize {
			t.Fatalf("chunk %d exceeds window: %d runes", i, len([]rune(c)))
		}
	}
	// Consecutive chunks share text because of the overlap.
	tail := chunks[0][len(chunks[0])-10:]
	if !strings.Contains(chunks[1], tail[:4]) {
		t.Fatalf("chunks do not overlap: %q / %q", chunks[0], chunks[1])
	}
}

func TestSplitBreaksOnWordBoundaries(t *testing.T) {
	text := strings.Repeat("alpha beta gamma delta ", 40)
	for _, c := range NewSplitter(100, 25).Split(text) {
		for _, w := range strings.Fields(c) {
			switch w {
			case "alpha", "beta", "gamma", "delta":
			default:
				t.Fatalf("word cut mid-token: %q in chunk %q", w, c)
			}
		}
	}
}

func TestSplitWindowsStartOnWordBoundaries(t *testing.T) {
	text := strings.Repeat("northwind cascade obsidian lattice ", 30)
	for i, c := range NewSplitter(90, 30).Split(text) {
		first := strings.Fields(c)[0]
		switch first {
		case "northwind", "cascade", "obsidian", "lattice":
		default:
			t.Fatalf("chunk %d starts mid-word: %q", i, first)
		}
	}
}

func TestSplitIsDeterministic(t *testing.T) {
	text := strings.Repeat("stable input text ", 100)
	splitter := NewSplitter(150, 40)
	first := splitter.Split(text)
	second := splitter.Split(text)
	if len(first) != len(second) {
		t.Fatalf("chunk counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("chunk %d differs between runs", i)
		}
	}
}

func TestNewSplitterClampsBadConfig(t *testing.T) {
	s := NewSplitter(0, -5)
	if s.ChunkSize != defaultChunkSize || s.Overlap != 0 {
		t.Fatalf("unexpected defaults: %+v", s)
	}
	s = NewSplitter(100, 100)
	if s.Overlap != 25 {
		t.Fatalf("overlap should clamp to a quarter window, got %d", s.Overlap)
	}
}
