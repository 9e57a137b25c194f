package embeddings

import (
	"context"
	"math"
)

// Normalize returns v scaled to unit length. A zero vector is returned as is.
func Normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}

	norm := math.Sqrt(sum)
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}

// Normalizing wraps an Embedder so every vector it returns has unit length.
// On unit vectors squared L2 distance equals 2 - 2*cos, so novelty
// thresholds mean the same thing for every provider.
type Normalizing struct {
	Embedder
}

// NewNormalizing wraps e.
func NewNormalizing(e Embedder) *Normalizing {
	return &Normalizing{Embedder: e}
}

func (n *Normalizing) Embed(ctx context.Context, text string) ([]float32, error) {
	v, err := n.Embedder.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	return Normalize(v), nil
}

func (n *Normalizing) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vs, err := n.Embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, err
	}
	for i := range vs {
		vs[i] = Normalize(vs[i])
	}
	return vs, nil
}
