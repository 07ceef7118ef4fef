package vecmath

import (
	"sort"

	"docrag/internal/domain"
)

// TopPassages keeps passages whose similarity is strictly greater than
// minSimilarity, orders them by similarity descending and truncates to
// limit (no truncation when limit <= 0). The sort is stable, so equal
// scores keep the order the caller supplied.
func TopPassages(passages []domain.Passage, minSimilarity float64, limit int) []domain.Passage {
	kept := make([]domain.Passage, 0, len(passages))
	for _, p := range passages {
		if p.Similarity > minSimilarity {
			kept = append(kept, p)
		}
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Similarity > kept[j].Similarity
	})

	if limit > 0 && len(kept) > limit {
		kept = kept[:limit]
	}
	return kept
}
