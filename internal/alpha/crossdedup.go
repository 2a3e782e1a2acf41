package alpha

import (
	"go.uber.org/zap"

	"newsalpha/internal/similarity"
)

// FilterDuplicatePackages consumes packages in priority order and drops any
// whose tweet embedding is near-identical to an already-accepted package:
// two sources reporting one event must not produce two alerts. A package
// with no embedding on record is accepted unconditionally — a missing vector
// must never silently drop an alert. Output order matches input order.
//
// The scan is quadratic over accepted packages; fine for the small package
// counts a single cycle produces.
func FilterDuplicatePackages(packages []Package, threshold float64, logger *zap.Logger) []Package {
	if len(packages) == 0 {
		return packages
	}

	accepted := make([]Package, 0, len(packages))
	var acceptedEmbeddings [][]float64
	for _, pkg := range packages {
		embedding := []float64(pkg.TweetEmbedding)
		if len(embedding) == 0 {
			accepted = append(accepted, pkg)
			continue
		}

		duplicate := false
		for _, prev := range acceptedEmbeddings {
			if similarity.Cosine(embedding, prev) > threshold {
				duplicate = true
				break
			}
		}
		if duplicate {
			if logger != nil {
				logger.Info("discarding duplicate news package", zap.String("tweet_id", pkg.TweetID))
			}
			continue
		}
		accepted = append(accepted, pkg)
		acceptedEmbeddings = append(acceptedEmbeddings, embedding)
	}
	return accepted
}
