// Package openai implements the analysis and synthesis collaborators on the OpenAI HTTP API.
package openai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"

	"github.com/cabcoat/cabcoat/internal/models"
	"github.com/cabcoat/cabcoat/internal/providers"
)

const (
	DefaultBaseURL        = "https://api.openai.com/v1"
	DefaultAnalysisModel  = "gpt-4o"
	DefaultSynthesisModel = "gpt-image-1"
)

// Client holds credentials shared by the analyzer and synthesizer.
type Client struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

// New returns a Client for the public API.
func New(apiKey string) *Client {
	return &Client{APIKey: apiKey, BaseURL: DefaultBaseURL, HTTPClient: &http.Client{}}
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	if c.APIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call OpenAI API: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read OpenAI response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("openAI API returned status %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}

// Analyzer uses a vision chat model to validate photos and suggest colours.
type Analyzer struct {
	client *Client
	model  string
}

// Analyzer returns an analysis collaborator. An empty model selects DefaultAnalysisModel.
func (c *Client) Analyzer(model string) *Analyzer {
	if model == "" {
		model = DefaultAnalysisModel
	}
	return &Analyzer{client: c, model: model}
}

func (a *Analyzer) Model() string {
	return a.model
}

func (a *Analyzer) Analyze(ctx context.Context, img models.Image) (*models.Analysis, error) {
	requestBody := map[string]interface{}{
		"model": a.model,
		"messages": []map[string]interface{}{
			{
				"role": "user",
				"content": []map[string]interface{}{
					{
						"type": "text",
						"text": providers.AnalysisPrompt + "\n\n" + providers.AnalysisJSONShape,
					},
					{
						"type": "image_url",
						"image_url": map[string]string{
							"url": "data:" + img.MimeType + ";base64," + base64.StdEncoding.EncodeToString(img.Data),
						},
					},
				},
			},
		},
		"response_format": map[string]string{"type": "json_object"},
		"temperature":     0.2,
	}

	jsonData, err := json.Marshal(requestBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", a.client.BaseURL+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	body, err := a.client.do(req)
	if err != nil {
		return nil, err
	}

	var openaiResp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &openaiResp); err != nil {
		return nil, fmt.Errorf("failed to decode OpenAI response: %w", err)
	}
	if len(openaiResp.Choices) == 0 {
		return nil, fmt.Errorf("no response from OpenAI")
	}

	analysis, err := providers.ParseAnalysis(openaiResp.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}
	slog.Info("Analyzed photo", "provider", "openai", "model", a.model, "is_kitchen", analysis.IsKitchen, "suggestions", len(analysis.SuggestedColors))
	return analysis, nil
}

// Synthesizer edits the source photo through the image edits endpoint.
type Synthesizer struct {
	client *Client
	model  string
}

// Synthesizer returns a synthesis collaborator. An empty model selects DefaultSynthesisModel.
func (c *Client) Synthesizer(model string) *Synthesizer {
	if model == "" {
		model = DefaultSynthesisModel
	}
	return &Synthesizer{client: c, model: model}
}

func (s *Synthesizer) Model() string {
	return s.model
}

func (s *Synthesizer) Synthesize(ctx context.Context, in providers.SynthesisRequest) (*models.Image, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fields := map[string]string{
		"model":  s.model,
		"prompt": in.Instruction,
		"size":   sizeFor(in.AspectRatio),
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return nil, fmt.Errorf("failed to write %s field: %w", k, err)
		}
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename="kitchen%s"`, extension(in.Image.MimeType)))
	h.Set("Content-Type", in.Image.MimeType)
	part, err := mw.CreatePart(h)
	if err != nil {
		return nil, fmt.Errorf("failed to create image part: %w", err)
	}
	if _, err := part.Write(in.Image.Data); err != nil {
		return nil, fmt.Errorf("failed to write image part: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.client.BaseURL+"/images/edits", &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	body, err := s.client.do(req)
	if err != nil {
		return nil, err
	}

	var imagesResp struct {
		Data []struct {
			B64JSON string `json:"b64_json"`
		} `json:"data"`
		OutputFormat string `json:"output_format"`
	}
	if err := json.Unmarshal(body, &imagesResp); err != nil {
		return nil, fmt.Errorf("failed to decode OpenAI response: %w", err)
	}
	if len(imagesResp.Data) == 0 || imagesResp.Data[0].B64JSON == "" {
		return nil, providers.ErrNoImage
	}

	data, err := base64.StdEncoding.DecodeString(imagesResp.Data[0].B64JSON)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image data: %w", err)
	}

	mimeType := "image/png"
	switch imagesResp.OutputFormat {
	case "jpeg":
		mimeType = "image/jpeg"
	case "webp":
		mimeType = "image/webp"
	}
	slog.Info("Synthesized image", "provider", "openai", "model", s.model, "bytes", len(data))
	return &models.Image{Data: data, MimeType: mimeType}, nil
}

// sizeFor maps an aspect ratio onto the sizes the edits endpoint accepts.
func sizeFor(aspectRatio string) string {
	switch aspectRatio {
	case "1:1":
		return "1024x1024"
	case "3:2", "4:3", "16:9":
		return "1536x1024"
	case "2:3", "3:4", "9:16":
		return "1024x1536"
	default:
		return "auto"
	}
}

func extension(mimeType string) string {
	switch mimeType {
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	default:
		return ".png"
	}
}
