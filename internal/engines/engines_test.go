package engines

import (
	"strings"
	"testing"

	"github.com/cabcoat/cabcoat/internal/config"
	"github.com/cabcoat/cabcoat/internal/gemini"
	"github.com/cabcoat/cabcoat/internal/ollama"
	"github.com/cabcoat/cabcoat/internal/openai"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name              string
		cfg               config.Config
		wantAnalysisModel string
		wantSynthModel    string
	}{
		{
			name:              "defaults",
			cfg:               config.Config{},
			wantAnalysisModel: gemini.DefaultAnalysisModel,
			wantSynthModel:    gemini.DefaultSynthesisModel,
		},
		{
			name:              "openai both",
			cfg:               config.Config{Provider: "openai", SynthesisProvider: "openai"},
			wantAnalysisModel: "gpt-4o",
			wantSynthModel:    "gpt-image-1",
		},
		{
			name:              "ollama analysis with explicit models",
			cfg:               config.Config{Provider: "ollama", SynthesisProvider: "gemini", AnalysisModel: "llava", SynthesisModel: "img"},
			wantAnalysisModel: "llava",
			wantSynthModel:    "img",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := New(tt.cfg)
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			if e.AnalysisModel != tt.wantAnalysisModel || e.SynthesisModel != tt.wantSynthModel {
				t.Errorf("Expected %s/%s, got %s/%s", tt.wantAnalysisModel, tt.wantSynthModel, e.AnalysisModel, e.SynthesisModel)
			}
			if e.Analyzer == nil || e.Synthesizer == nil {
				t.Error("Expected both collaborators")
			}
		})
	}
}

func TestNewCollaboratorTypes(t *testing.T) {
	e, err := New(config.Config{Provider: "ollama", SynthesisProvider: "openai"})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := e.Analyzer.(*ollama.Ollama); !ok {
		t.Errorf("Expected Ollama analyzer, got %T", e.Analyzer)
	}
	if _, ok := e.Synthesizer.(*openai.Synthesizer); !ok {
		t.Errorf("Expected OpenAI synthesizer, got %T", e.Synthesizer)
	}
}

func TestNewRejects(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.Config
		want string
	}{
		{name: "unknown analysis", cfg: config.Config{Provider: "bard"}, want: "unsupported provider"},
		{name: "ollama synthesis", cfg: config.Config{SynthesisProvider: "ollama"}, want: "does not support"},
		{name: "unknown synthesis", cfg: config.Config{SynthesisProvider: "dalle"}, want: "unsupported synthesis"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}
