// Package gemini implements the analysis and synthesis collaborators on Google Gemini.
package gemini

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cabcoat/cabcoat/internal/models"
	"github.com/cabcoat/cabcoat/internal/providers"
	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const DefaultAnalysisModel = "gemini-3-flash-preview"

// Analyzer validates kitchen photos and suggests cabinet colours.
type Analyzer struct {
	apiKey string
	model  string
}

// NewAnalyzer returns an Analyzer. An empty model selects DefaultAnalysisModel.
func NewAnalyzer(apiKey, model string) *Analyzer {
	if model == "" {
		model = DefaultAnalysisModel
	}
	return &Analyzer{apiKey: apiKey, model: model}
}

// Model returns the configured model name.
func (a *Analyzer) Model() string {
	return a.model
}

// analysisSchema constrains the response to {isKitchen, reasoning, suggestedColors[]}.
func analysisSchema() *genai.Schema {
	str := &genai.Schema{Type: genai.TypeString}
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"isKitchen": {Type: genai.TypeBoolean},
			"reasoning": str,
			"suggestedColors": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"name":         str,
						"manufacturer": str,
						"code":         str,
						"hex":          str,
						"description":  str,
					},
					Required: []string{"name"},
				},
			},
		},
		Required: []string{"isKitchen", "reasoning", "suggestedColors"},
	}
}

// Analyze sends the photo with the analysis prompt and decodes the JSON answer.
func (a *Analyzer) Analyze(ctx context.Context, img models.Image) (*models.Analysis, error) {
	if a.apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable not set")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(a.apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create new gemini client: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel(a.model)
	model.ResponseMIMEType = "application/json"
	model.ResponseSchema = analysisSchema()

	resp, err := model.GenerateContent(ctx,
		genai.Blob{MIMEType: img.MimeType, Data: img.Data},
		genai.Text(providers.AnalysisPrompt),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}

	text, err := responseText(resp)
	if err != nil {
		return nil, err
	}

	analysis, err := providers.ParseAnalysis(text)
	if err != nil {
		return nil, err
	}
	slog.Info("Analyzed photo", "provider", "gemini", "model", a.model, "is_kitchen", analysis.IsKitchen, "suggestions", len(analysis.SuggestedColors))
	return analysis, nil
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates returned from Gemini")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("empty content returned from Gemini")
	}

	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("unexpected response format from Gemini")
	}
	return sb.String(), nil
}
