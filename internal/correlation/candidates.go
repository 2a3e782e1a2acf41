package correlation

import (
	"sort"

	"newsalpha/internal/models"
	"newsalpha/internal/similarity"
)

// ScoredMarket pairs a catalogue entry with its similarity to one tweet.
type ScoredMarket struct {
	Market models.Market
	Score  float64
}

// TopCandidates ranks the active catalogue against one tweet embedding and
// returns the best n entries. The sort is stable: equal scores keep catalogue
// order, so the ranking is deterministic regardless of how the scoring loop
// is executed. This pre-filter bounds the prompt size handed to the
// adjudicator, which cannot economically evaluate the full catalogue.
func TopCandidates(embedding []float64, catalogue []models.Market, n int) []ScoredMarket {
	if n <= 0 || len(embedding) == 0 || len(catalogue) == 0 {
		return nil
	}

	scored := make([]ScoredMarket, 0, len(catalogue))
	for _, m := range catalogue {
		scored = append(scored, ScoredMarket{
			Market: m,
			Score:  similarity.Cosine(embedding, m.Embedding),
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if len(scored) > n {
		scored = scored[:n]
	}
	return scored
}
