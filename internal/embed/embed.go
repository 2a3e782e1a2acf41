// Package embed wraps the text→vector capability. The contract is lenient by
// design: one output vector per input text, with a nil vector standing in for
// any text the upstream service failed on. Callers check for empty vectors
// and skip, they never abort.
package embed

import "context"

type Embedder interface {
	// Embed returns len(texts) vectors. A nil/empty vector at position i
	// means text i could not be embedded.
	Embed(ctx context.Context, texts []string) ([][]float64, error)
}
