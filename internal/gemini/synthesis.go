package gemini

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cabcoat/cabcoat/internal/models"
	"github.com/cabcoat/cabcoat/internal/providers"
	"google.golang.org/genai"
)

const DefaultSynthesisModel = "gemini-2.5-flash-image"

// Synthesizer edits a kitchen photo according to a composed instruction.
type Synthesizer struct {
	apiKey string
	model  string
}

// NewSynthesizer returns a Synthesizer. An empty model selects DefaultSynthesisModel.
func NewSynthesizer(apiKey, model string) *Synthesizer {
	if model == "" {
		model = DefaultSynthesisModel
	}
	return &Synthesizer{apiKey: apiKey, model: model}
}

// Model returns the configured model name.
func (s *Synthesizer) Model() string {
	return s.model
}

// Synthesize sends the source photo and instruction and returns the first inline image in the answer.
func (s *Synthesizer) Synthesize(ctx context.Context, req providers.SynthesisRequest) (*models.Image, error) {
	if s.apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable not set")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  s.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(req.Image.Data, req.Image.MimeType),
			genai.NewPartFromText(req.Instruction),
		}, genai.RoleUser),
	}

	resp, err := client.Models.GenerateContent(ctx, s.model, contents, generationConfig(req.AspectRatio))
	if err != nil {
		return nil, fmt.Errorf("GenAI image generation failed: %w", err)
	}

	img, err := inlineImage(resp)
	if err != nil {
		return nil, err
	}
	slog.Info("Synthesized image", "provider", "gemini", "model", s.model, "mime_type", img.MimeType, "bytes", len(img.Data))
	return img, nil
}

func generationConfig(aspectRatio string) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		ResponseModalities: []string{"IMAGE", "TEXT"},
	}
	if aspectRatio != "" {
		cfg.ImageConfig = &genai.ImageConfig{AspectRatio: aspectRatio}
	}
	return cfg
}

// inlineImage finds the first image part. A text-only answer usually means safety filtering.
func inlineImage(resp *genai.GenerateContentResponse) (*models.Image, error) {
	if resp == nil {
		return nil, providers.ErrNoImage
	}
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part == nil || part.InlineData == nil || len(part.InlineData.Data) == 0 {
				continue
			}
			mime := part.InlineData.MIMEType
			if mime == "" {
				mime = "image/png"
			}
			return &models.Image{Data: part.InlineData.Data, MimeType: mime}, nil
		}
	}
	if text := resp.Text(); text != "" {
		slog.Warn("Synthesis returned text without an image", "text", text)
	}
	return nil, providers.ErrNoImage
}
