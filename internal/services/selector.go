package services

import (
	"sort"

	"lentera/internal/vector"
)

// MMR weights: relevance to the centroid vs novelty against the already
// selected set. Output order depends on these exact values.
const (
	mmrRelevanceWeight = 0.7
	mmrNoveltyWeight   = 0.3
)

// EmbeddedItem is a text with its embedding, the unit the selector works on.
type EmbeddedItem struct {
	Text      string
	Embedding []float32
}

// SelectRepresentative picks a diverse, representative subset of target
// items: greedy maximal-marginal-relevance seeded with the item closest to
// the centroid, each further pick maximising
// 0.7*centroidScore + 0.3*(1 - minSimilarityToSelected). The result is
// re-sorted by original index, restoring document order. Inputs of target
// size or smaller are returned unchanged.
func SelectRepresentative(items []EmbeddedItem, target int) ([]EmbeddedItem, error) {
	if len(items) <= target {
		return items, nil
	}

	embeddings := make([][]float32, len(items))
	for i := range items {
		embeddings[i] = items[i].Embedding
	}
	centroid, err := vector.Centroid(embeddings)
	if err != nil {
		return nil, err
	}

	centroidScore := make([]float64, len(items))
	for i := range items {
		score, err := vector.Cosine(items[i].Embedding, centroid)
		if err != nil {
			return nil, err
		}
		centroidScore[i] = score
	}

	// Candidates ordered by centroid relevance; ties between equal
	// combined scores resolve toward the more central item.
	order := make([]int, len(items))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return centroidScore[order[a]] > centroidScore[order[b]]
	})

	selected := []int{order[0]}
	remaining := order[1:]

	for len(selected) < target && len(remaining) > 0 {
		bestPos := 0
		bestScore := -1.0
		first := true
		for pos, cand := range remaining {
			minSim := 1.0
			for _, sel := range selected {
				sim, err := vector.Cosine(embeddings[cand], embeddings[sel])
				if err != nil {
					return nil, err
				}
				if sim < minSim {
					minSim = sim
				}
			}

			combined := centroidScore[cand]*mmrRelevanceWeight + (1-minSim)*mmrNoveltyWeight
			if first || combined > bestScore {
				bestScore = combined
				bestPos = pos
				first = false
			}
		}

		selected = append(selected, remaining[bestPos])
		remaining = append(remaining[:bestPos], remaining[bestPos+1:]...)
	}

	sort.Ints(selected)
	out := make([]EmbeddedItem, 0, len(selected))
	for _, idx := range selected {
		out = append(out, items[idx])
	}
	return out, nil
}
