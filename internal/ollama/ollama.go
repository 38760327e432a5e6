// Package ollama implements the analysis collaborator on a local Ollama vision model.
package ollama

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/cabcoat/cabcoat/internal/models"
	"github.com/cabcoat/cabcoat/internal/providers"
)

const (
	DefaultURL   = "http://localhost:11434"
	DefaultModel = "mistral-small3.2:24b"
)

// Ollama is an analysis collaborator. Ollama has no image synthesis.
type Ollama struct {
	URL        string
	HTTPClient *http.Client
	model      string
}

// New returns an Ollama analyzer. Empty arguments select the defaults.
func New(url, model string) *Ollama {
	if url == "" {
		url = DefaultURL
	}
	if model == "" {
		model = DefaultModel
	}
	return &Ollama{URL: strings.TrimRight(url, "/"), HTTPClient: &http.Client{}, model: model}
}

func (o *Ollama) Model() string {
	return o.model
}

// Analyze asks the model for a JSON analysis of the photo.
func (o *Ollama) Analyze(ctx context.Context, img models.Image) (*models.Analysis, error) {
	requestBody, err := json.Marshal(map[string]interface{}{
		"model":  o.model,
		"prompt": providers.AnalysisPrompt + "\n\n" + providers.AnalysisJSONShape,
		"images": []string{base64.StdEncoding.EncodeToString(img.Data)},
		"format": "json",
		"stream": false,
		"options": map[string]interface{}{
			"temperature": 0.1,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", o.URL+"/api/generate", bytes.NewBuffer(requestBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := o.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call Ollama API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("ollama API returned status %d: %s", resp.StatusCode, string(body))
	}

	var response struct {
		Response string `json:"response"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode Ollama response: %w", err)
	}

	analysis, err := providers.ParseAnalysis(response.Response)
	if err != nil {
		return nil, err
	}
	slog.Info("Analyzed photo", "provider", "ollama", "model", o.model, "is_kitchen", analysis.IsKitchen, "suggestions", len(analysis.SuggestedColors))
	return analysis, nil
}
