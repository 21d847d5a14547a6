// Package chunking splits narrative text into fixed-size overlapping
// windows for embedding. Positions are stable for a given input and
// configuration, so re-ingesting an unchanged document produces the same
// chunk sequence.
package chunking

import (
	"strings"
	"unicode"
)

const (
	defaultChunkSize = 900
	defaultOverlap   = 150
)

type Splitter struct {
	ChunkSize int
	Overlap   int
}

func NewSplitter(chunkSize, overlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= chunkSize {
		overlap = chunkSize / 4
	}
	return &Splitter{
		ChunkSize: chunkSize,
		Overlap:   overlap,
	}
}

// Split cuts text into windows of at most ChunkSize runes, each window
// starting Overlap runes before the previous one ended. Window ends are
// pulled back to the nearest whitespace when one exists in the tail of
// the window, and window starts are advanced to the next whitespace, so
// words are not cut mid-token at either edge.
func (s *Splitter) Split(text string) []string {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}

	step := s.ChunkSize - s.Overlap
	if step <= 0 {
		step = s.ChunkSize
	}

	out := make([]string, 0, len(runes)/step+1)
	start := 0
	for start < len(runes) {
		end := start + s.ChunkSize
		if end >= len(runes) {
			end = len(runes)
		} else {
			end = breakBefore(runes, start, end)
		}

		chunk := strings.TrimSpace(string(runes[start:end]))
		if chunk != "" {
			out = append(out, chunk)
		}
		if end == len(runes) {
			break
		}

		next := end - s.Overlap
		if next <= start {
			next = start + step
		}
		start = alignForward(runes, next, end)
	}
	return out
}

// breakBefore walks back from end looking for whitespace so the window
// closes on a word boundary. It gives up after a quarter of the window
// and cuts mid-token rather than degenerating on unbroken text.
func breakBefore(runes []rune, start, end int) int {
	floor := end - (end-start)/4
	for i := end; i > floor; i-- {
		if unicode.IsSpace(runes[i-1]) {
			return i
		}
	}
	return end
}

// alignForward advances i to the next whitespace boundary so a window
// never opens in the middle of a word. Capped at limit so progress is
// guaranteed on unbroken text.
func alignForward(runes []rune, i, limit int) int {
	if i <= 0 || i >= len(runes) {
		return i
	}
	for i < limit && !unicode.IsSpace(runes[i]) && !unicode.IsSpace(runes[i-1]) {
		i++
	}
	return i
}
