package gemini

import (
	"context"

	"google.golang.org/genai"
)

// FakeModels returns one vector per content, [index, 1].
type FakeModels struct {
	Err    error
	Model  string
	Texts  []string
	Config *genai.EmbedContentConfig
	Short  bool
}

func (f *FakeModels) EmbedContent(_ context.Context, model string, contents []*genai.Content, config *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error) {
	f.Model = model
	f.Config = config
	f.Texts = nil
	for _, c := range contents {
		f.Texts = append(f.Texts, c.Parts[0].Text)
	}
	if f.Err != nil {
		return nil, f.Err
	}

	n := len(contents)
	if f.Short {
		n--
	}
	resp := &genai.EmbedContentResponse{}
	for i := range n {
		resp.Embeddings = append(resp.Embeddings, &genai.ContentEmbedding{Values: []float32{float32(i), 1}})
	}
	return resp, nil
}

func NewEmbedderWithModels(models *FakeModels, model string, dimensions int32) *Embedder {
	return newEmbedder(models, model, dimensions)
}
