package domain

import "context"

// Vector is a fixed-dimension embedding produced by an Embedder.
type Vector = []float32

// Neighbor is one nearest-neighbor hit: the insertion position of the stored
// vector and its squared Euclidean distance to the query.
type Neighbor struct {
	Position int
	Distance float64
}

// Embedder converts free text into a numeric vector representation.
type Embedder interface {
	Name() string
	Embed(ctx context.Context, text string) (Vector, error)
}

// Fitter is implemented by embedders whose vector space is derived from the
// corpus itself. Fit returns the embedder to use for that corpus.
type Fitter interface {
	Fit(chunks []string) (Embedder, error)
}

// Generator produces a complete (non-streaming) text response for a prompt.
type Generator interface {
	Name() string
	Generate(ctx context.Context, prompt string) (string, error)
}

// VectorIndex is the read side of an index of chunk embeddings.
type VectorIndex interface {
	Search(query Vector, k int) ([]Neighbor, error)
	Len() int
	Dim() int
}
