// Package engines resolves configured provider names into analysis and synthesis collaborators.
package engines

import (
	"fmt"
	"log/slog"

	"github.com/cabcoat/cabcoat/internal/config"
	"github.com/cabcoat/cabcoat/internal/gemini"
	"github.com/cabcoat/cabcoat/internal/ollama"
	"github.com/cabcoat/cabcoat/internal/openai"
	"github.com/cabcoat/cabcoat/internal/providers"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
)

// Engines pairs the collaborators a session controller needs.
type Engines struct {
	Analyzer          providers.Analyzer
	Synthesizer       providers.Synthesizer
	AnalysisProvider  string
	AnalysisModel     string
	SynthesisProvider string
	SynthesisModel    string
}

// New builds collaborators from cfg. Empty provider names default to gemini.
func New(cfg config.Config) (*Engines, error) {
	e := &Engines{
		AnalysisProvider:  cfg.Provider,
		SynthesisProvider: cfg.SynthesisProvider,
	}
	if e.AnalysisProvider == "" {
		e.AnalysisProvider = ProviderGemini
	}
	if e.SynthesisProvider == "" {
		e.SynthesisProvider = ProviderGemini
	}

	e.AnalysisModel = cfg.AnalysisModel
	if e.AnalysisModel == "" {
		e.AnalysisModel = DefaultAnalysisModel(e.AnalysisProvider)
	}
	e.SynthesisModel = cfg.SynthesisModel
	if e.SynthesisModel == "" {
		e.SynthesisModel = DefaultSynthesisModel(e.SynthesisProvider)
	}

	switch e.AnalysisProvider {
	case ProviderGemini:
		e.Analyzer = gemini.NewAnalyzer(cfg.GeminiAPIKey, e.AnalysisModel)
	case ProviderOpenAI:
		e.Analyzer = openai.New(cfg.OpenAIAPIKey).Analyzer(e.AnalysisModel)
	case ProviderOllama:
		e.Analyzer = ollama.New(cfg.OllamaURL, e.AnalysisModel)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", e.AnalysisProvider)
	}

	switch e.SynthesisProvider {
	case ProviderGemini:
		e.Synthesizer = gemini.NewSynthesizer(cfg.GeminiAPIKey, e.SynthesisModel)
	case ProviderOpenAI:
		e.Synthesizer = openai.New(cfg.OpenAIAPIKey).Synthesizer(e.SynthesisModel)
	case ProviderOllama:
		return nil, fmt.Errorf("provider %s does not support image synthesis", e.SynthesisProvider)
	default:
		return nil, fmt.Errorf("unsupported synthesis provider: %s", e.SynthesisProvider)
	}

	slog.Debug("Resolved engines",
		"analysis_provider", e.AnalysisProvider, "analysis_model", e.AnalysisModel,
		"synthesis_provider", e.SynthesisProvider, "synthesis_model", e.SynthesisModel)
	return e, nil
}

func DefaultAnalysisModel(provider string) string {
	switch provider {
	case ProviderGemini:
		return gemini.DefaultAnalysisModel
	case ProviderOpenAI:
		return openai.DefaultAnalysisModel
	case ProviderOllama:
		return ollama.DefaultModel
	default:
		return ""
	}
}

func DefaultSynthesisModel(provider string) string {
	switch provider {
	case ProviderGemini:
		return gemini.DefaultSynthesisModel
	case ProviderOpenAI:
		return openai.DefaultSynthesisModel
	default:
		return ""
	}
}
