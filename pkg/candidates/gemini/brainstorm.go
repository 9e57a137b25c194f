// Package gemini turns research themes into scored video topic candidates
// with a JSON-mode Gemini call.
package gemini

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"text/template"

	"google.golang.org/genai"

	"github.com/papercomputeco/scout/pkg/candidates"
	"github.com/papercomputeco/scout/pkg/topic"
)

// DefaultModel is the default Gemini generation model.
const DefaultModel = "gemini-2.5-flash"

// ErrNoThemes is returned when there is nothing to brainstorm from.
var ErrNoThemes = errors.New("no themes to brainstorm from")

var promptTemplate = template.Must(template.New("brainstorm").Parse(`You are a viral video strategist for a faceless short-form channel about evergreen topics.
Generate titles that evoke curiosity and surprise based on the following themes.
{{- if .Category}}
Category: {{.Category}}
{{- end}}

Themes:
{{- range .Themes}}
- {{.}}
{{- end}}

Instructions:
1. Generate {{.Min}} to {{.Max}} distinct and engaging video titles.
2. Prioritize topics that reveal little-known facts or explain complex things simply.
3. For each title assign a "score" from 1 to 10 for expected virality and a brief "justification".
`))

// generator is the subset of *genai.Models used here.
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Config holds configuration for the brainstormer.
type Config struct {
	// APIKey falls back to GEMINI_API_KEY / GOOGLE_API_KEY inside the SDK.
	APIKey string
	Model  string
}

// Brainstormer asks Gemini for scored topic ideas.
type Brainstormer struct {
	models generator
	model  string
	logger *slog.Logger
}

func NewBrainstormer(ctx context.Context, c Config, logger *slog.Logger) (*Brainstormer, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  c.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}

	return newBrainstormer(client.Models, c.Model, logger), nil
}

func newBrainstormer(models generator, model string, logger *slog.Logger) *Brainstormer {
	if model == "" {
		model = DefaultModel
	}
	return &Brainstormer{
		models: models,
		model:  model,
		logger: logger,
	}
}

// Brainstorm returns 5 to 7 candidates for themes. The model's answer is
// constrained by a response schema; blank titles are dropped.
func (b *Brainstormer) Brainstorm(ctx context.Context, category string, themes []string) ([]topic.Candidate, error) {
	if len(themes) == 0 {
		return nil, ErrNoThemes
	}

	var buf bytes.Buffer
	if err := promptTemplate.Execute(&buf, map[string]any{
		"Category": category,
		"Themes":   themes,
		"Min":      5,
		"Max":      7,
	}); err != nil {
		return nil, fmt.Errorf("rendering prompt: %w", err)
	}

	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"ideas": {
					Type: genai.TypeArray,
					Items: &genai.Schema{
						Type: genai.TypeObject,
						Properties: map[string]*genai.Schema{
							"title":         {Type: genai.TypeString, Description: "Video title"},
							"score":         {Type: genai.TypeNumber, Description: "Virality score from 1 to 10"},
							"justification": {Type: genai.TypeString, Description: "Why the title works as a short video"},
						},
						Required: []string{"title", "score", "justification"},
					},
				},
			},
			Required: []string{"ideas"},
		},
	}

	contents := []*genai.Content{genai.NewContentFromText(buf.String(), genai.RoleUser)}

	resp, err := b.models.GenerateContent(ctx, b.model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("%w: brainstorming: %w", topic.ErrProviderUnavailable, err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return nil, errors.New("empty response from gemini")
	}

	raw := strings.TrimSpace(resp.Text())
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimSuffix(strings.TrimPrefix(raw, "```"), "```")

	ideas, err := candidates.ReadJSON(strings.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decoding gemini ideas: %w", err)
	}

	b.logger.Info("brainstormed ideas", "themes", len(themes), "ideas", len(ideas), "model", b.model)
	return ideas, nil
}
