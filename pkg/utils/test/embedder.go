package testutils

import (
	"context"
	"crypto/sha256"
	"fmt"
	"sync/atomic"

	"github.com/papercomputeco/scout/pkg/embeddings"
)

// DefaultMockDimensions is the size of vectors derived by MockEmbedder.
const DefaultMockDimensions = 8

// MockEmbedder is a test embedder that returns predictable embeddings.
// Texts without an explicit entry get a deterministic vector derived from
// the SHA-256 of the text, so equal texts always embed identically.
type MockEmbedder struct {
	Embeddings map[string][]float32

	// FailOn causes Embed to return an error when the input text matches
	FailOn string

	// Err, when set, is returned by every call
	Err error

	Dimensions int

	calls atomic.Int32
}

func NewMockEmbedder() *MockEmbedder {
	return &MockEmbedder{
		Embeddings: make(map[string][]float32),
		Dimensions: DefaultMockDimensions,
	}
}

// Calls reports how many texts have been embedded.
func (m *MockEmbedder) Calls() int {
	return int(m.calls.Load())
}

func (m *MockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if m.FailOn != "" && text == m.FailOn {
		return nil, fmt.Errorf("%w: mock embedding failure for: %s", embeddings.ErrEmbedding, text)
	}

	m.calls.Add(1)

	if emb, ok := m.Embeddings[text]; ok {
		return emb, nil
	}
	return m.derive(text), nil
}

func (m *MockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		v, err := m.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (m *MockEmbedder) derive(text string) []float32 {
	dims := m.Dimensions
	if dims <= 0 {
		dims = DefaultMockDimensions
	}

	hash := sha256.Sum256([]byte(text))
	v := make([]float32, dims)
	for i := range v {
		v[i] = float32(hash[i%len(hash)])/127.5 - 1
	}
	return embeddings.Normalize(v)
}

func (m *MockEmbedder) Close() error {
	return nil
}

var _ embeddings.Embedder = (*MockEmbedder)(nil)
