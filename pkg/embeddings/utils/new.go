// Package embeddingutils is the embeddings utility package
package embeddingutils

import (
	"context"
	"fmt"

	"github.com/papercomputeco/scout/pkg/embeddings"
	"github.com/papercomputeco/scout/pkg/embeddings/gemini"
	"github.com/papercomputeco/scout/pkg/embeddings/ollama"
	"github.com/papercomputeco/scout/pkg/embeddings/openai"
)

type NewEmbedderOpts struct {
	ProviderType string
	TargetURL    string
	Model        string
	Dimensions   uint

	// DisableNormalize returns raw provider vectors.
	DisableNormalize bool
}

// NewEmbedder builds the configured provider, wrapped so that it returns
// unit vectors unless DisableNormalize is set.
func NewEmbedder(ctx context.Context, o *NewEmbedderOpts) (embeddings.Embedder, error) {
	var (
		e   embeddings.Embedder
		err error
	)

	switch o.ProviderType {
	case "ollama":
		e, err = ollama.NewEmbedder(ollama.EmbedderConfig{
			BaseURL: o.TargetURL,
			Model:   o.Model,
		})
	case "gemini":
		e, err = gemini.NewEmbedder(ctx, gemini.EmbedderConfig{
			Model:      o.Model,
			Dimensions: o.Dimensions,
		})
	case "openai":
		e, err = openai.NewEmbedder(openai.EmbedderConfig{
			BaseURL:    o.TargetURL,
			Model:      o.Model,
			Dimensions: o.Dimensions,
		})
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", o.ProviderType)
	}
	if err != nil {
		return nil, err
	}

	if o.DisableNormalize {
		return e, nil
	}
	return embeddings.NewNormalizing(e), nil
}
