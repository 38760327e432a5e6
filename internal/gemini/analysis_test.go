package gemini

import (
	"context"
	"strings"
	"testing"

	"github.com/cabcoat/cabcoat/internal/models"
	"github.com/google/generative-ai-go/genai"
)

func TestNewAnalyzerDefaultsModel(t *testing.T) {
	if got := NewAnalyzer("k", "").Model(); got != DefaultAnalysisModel {
		t.Errorf("Expected %s, got %s", DefaultAnalysisModel, got)
	}
	if got := NewAnalyzer("k", "gemini-custom").Model(); got != "gemini-custom" {
		t.Errorf("Expected override, got %s", got)
	}
}

func TestAnalyzeRequiresKey(t *testing.T) {
	_, err := NewAnalyzer("", "").Analyze(context.Background(), models.Image{Data: []byte{1}, MimeType: "image/png"})
	if err == nil || !strings.Contains(err.Error(), "GEMINI_API_KEY") {
		t.Errorf("Expected missing key error, got %v", err)
	}
}

func TestAnalysisSchema(t *testing.T) {
	s := analysisSchema()
	for _, field := range []string{"isKitchen", "reasoning", "suggestedColors"} {
		if _, ok := s.Properties[field]; !ok {
			t.Errorf("Expected property %s", field)
		}
	}
	items := s.Properties["suggestedColors"].Items
	if items == nil || items.Properties["hex"] == nil {
		t.Fatal("Expected suggestion items with a hex property")
	}
	for _, field := range items.Required {
		if field != "name" {
			t.Errorf("Expected only name to be required for suggestions, got %s", field)
		}
	}
}

func TestResponseText(t *testing.T) {
	tests := []struct {
		name    string
		resp    *genai.GenerateContentResponse
		want    string
		wantErr bool
	}{
		{name: "nil", resp: nil, wantErr: true},
		{name: "no candidates", resp: &genai.GenerateContentResponse{}, wantErr: true},
		{
			name: "joined text parts",
			resp: &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
				Content: &genai.Content{Parts: []genai.Part{genai.Text(`{"isKitchen":`), genai.Text(`true}`)}},
			}}},
			want: `{"isKitchen":true}`,
		},
		{
			name: "blob only",
			resp: &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
				Content: &genai.Content{Parts: []genai.Part{genai.Blob{MIMEType: "image/png", Data: []byte{1}}}},
			}}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := responseText(tt.resp)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Expected error=%v, got %v", tt.wantErr, err)
			}
			if got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}
