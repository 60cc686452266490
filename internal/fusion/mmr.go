package fusion

import "math"

// maximalMarginalRelevance selects k hits from the candidate pool, trading
// relevance to the query against diversity from already-selected hits.
// lambda 1 is pure relevance, 0 pure diversity. Ties keep original retrieval
// order: a later candidate must strictly beat the current best.
func maximalMarginalRelevance(queryVec []float32, candidates []DocHit, k int, lambda float32) []DocHit {
	if len(candidates) == 0 || k <= 0 {
		return nil
	}
	if k > len(candidates) {
		k = len(candidates)
	}

	relevance := make([]float32, len(candidates))
	for i, c := range candidates {
		relevance[i] = cosineSimilarity(queryVec, c.Vector)
	}

	selected := make([]int, 0, k)
	picked := make([]bool, len(candidates))

	for len(selected) < k {
		best := -1
		var bestScore float32
		for i := range candidates {
			if picked[i] {
				continue
			}
			var maxSim float32
			for _, j := range selected {
				if sim := cosineSimilarity(candidates[i].Vector, candidates[j].Vector); sim > maxSim {
					maxSim = sim
				}
			}
			score := lambda*relevance[i] - (1-lambda)*maxSim
			if best == -1 || score > bestScore {
				best = i
				bestScore = score
			}
		}
		if best == -1 {
			break
		}
		picked[best] = true
		selected = append(selected, best)
	}

	out := make([]DocHit, len(selected))
	for i, idx := range selected {
		out[i] = candidates[idx]
	}
	return out
}

func cosineSimilarity(a, b []float32) float32 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
