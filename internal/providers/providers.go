package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/cabcoat/cabcoat/internal/models"
)

// ErrNoImage is returned when the synthesis collaborator answers without an image, e.g. after safety filtering.
var ErrNoImage = errors.New("no image generated in response")

// Analyzer is the vision-analysis collaborator.
type Analyzer interface {
	Analyze(ctx context.Context, image models.Image) (*models.Analysis, error)
}

// SynthesisRequest is the input to the image-synthesis collaborator.
type SynthesisRequest struct {
	Image       models.Image
	Instruction string
	AspectRatio string // optional, e.g. "4:3"
}

// Synthesizer is the image-synthesis collaborator.
type Synthesizer interface {
	Synthesize(ctx context.Context, req SynthesisRequest) (*models.Image, error)
}

// AnalysisPrompt asks a vision model to validate the photo and suggest cabinet colours.
const AnalysisPrompt = `Analyze this image. 1. Determine if this is a photo of a kitchen with visible cabinets. 2. If it is a kitchen, analyze existing elements (flooring, countertops, backsplash) and suggest 4 specific paint colors for the cabinets. Identify real paint manufacturers (like Sherwin Williams or Benjamin Moore) and provide the color codes. Return the response in JSON format.`

// AnalysisJSONShape describes the expected response for providers without schema support.
const AnalysisJSONShape = `Respond with ONLY a JSON object in the following format:

{
  "isKitchen": true,
  "reasoning": "Brief design advice.",
  "suggestedColors": [
    {"name": "...", "manufacturer": "...", "code": "...", "hex": "#RRGGBB", "description": "..."}
  ]
}`

// ParseAnalysis decodes a JSON analysis response, tolerating markdown code fences.
func ParseAnalysis(response string) (*models.Analysis, error) {
	response = strings.TrimSpace(response)
	response = strings.TrimPrefix(response, "```json")
	response = strings.TrimPrefix(response, "```")
	response = strings.TrimSuffix(response, "```")
	response = strings.TrimSpace(response)

	if response == "" {
		return nil, fmt.Errorf("no response from AI")
	}

	var result models.Analysis
	if err := json.Unmarshal([]byte(response), &result); err != nil {
		return nil, fmt.Errorf("failed to parse analysis JSON: %w", err)
	}

	colors := result.SuggestedColors[:0]
	for _, c := range result.SuggestedColors {
		c.Name = strings.TrimSpace(c.Name)
		if c.Name == "" {
			continue
		}
		c.Origin = models.OriginAISuggested
		colors = append(colors, c)
	}
	result.SuggestedColors = colors

	return &result, nil
}
