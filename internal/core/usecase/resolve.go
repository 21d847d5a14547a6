package usecase

import (
	"sort"

	"github.com/tahaislam/hybrid-rag-parser/internal/core/domain"
)

// ResolveSource picks the single document that scopes table lookup by
// majority vote across all retrieved chunks. Ties fall to the larger
// summed similarity, then to the lexicographically smaller filename, so
// resolution is deterministic for any result set.
func ResolveSource(result domain.RetrievalResult) *domain.ResolvedSource {
	if len(result) == 0 {
		return nil
	}

	byFile := make(map[string]*domain.ResolvedSource)
	for _, chunk := range result {
		if chunk.SourceFilename == "" {
			continue
		}
		entry, ok := byFile[chunk.SourceFilename]
		if !ok {
			entry = &domain.ResolvedSource{Filename: chunk.SourceFilename}
			byFile[chunk.SourceFilename] = entry
		}
		entry.Votes++
		entry.ScoreSum += chunk.Score
	}
	if len(byFile) == 0 {
		return nil
	}

	candidates := make([]*domain.ResolvedSource, 0, len(byFile))
	for _, entry := range byFile {
		candidates = append(candidates, entry)
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Votes != candidates[j].Votes {
			return candidates[i].Votes > candidates[j].Votes
		}
		if candidates[i].ScoreSum != candidates[j].ScoreSum {
			return candidates[i].ScoreSum > candidates[j].ScoreSum
		}
		return candidates[i].Filename < candidates[j].Filename
	})
	return candidates[0]
}
