package config

import (
	"strings"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{
		"CABCOAT_PROVIDER", "CABCOAT_SYNTHESIS_PROVIDER", "CABCOAT_ANALYSIS_MODEL", "CABCOAT_SYNTHESIS_MODEL",
		"GEMINI_API_KEY", "OPENAI_API_KEY", "OLLAMA_URL", "OLLAMA_HOST", "CABCOAT_FREE_LIMIT", "CABCOAT_DB",
		"CABCOAT_CALL_TIMEOUT", "CABCOAT_ASPECT_RATIO", "CABCOAT_S3_BUCKET", "CABCOAT_S3_REGION",
		"CABCOAT_S3_ENDPOINT", "CABCOAT_HISTORY",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg := Load()

	if cfg.Provider != "gemini" || cfg.SynthesisProvider != "gemini" {
		t.Errorf("Expected gemini providers, got %s/%s", cfg.Provider, cfg.SynthesisProvider)
	}
	if cfg.FreeLimit != 2 {
		t.Errorf("Expected free limit 2, got %d", cfg.FreeLimit)
	}
	if cfg.DB != "cabcoat.db" {
		t.Errorf("Expected default db, got %s", cfg.DB)
	}
	if cfg.CallTimeout != 2*time.Minute {
		t.Errorf("Expected 2m timeout, got %s", cfg.CallTimeout)
	}
	if cfg.OllamaURL != DefaultOllamaURL {
		t.Errorf("Expected default Ollama URL, got %s", cfg.OllamaURL)
	}
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("CABCOAT_PROVIDER", "OpenAI")
	t.Setenv("CABCOAT_FREE_LIMIT", "5")
	t.Setenv("CABCOAT_CALL_TIMEOUT", "45s")
	t.Setenv("OLLAMA_HOST", "http://gpu:11434")

	cfg := Load()
	if cfg.Provider != "openai" {
		t.Errorf("Expected provider to be lowercased, got %s", cfg.Provider)
	}
	if cfg.FreeLimit != 5 {
		t.Errorf("Expected 5, got %d", cfg.FreeLimit)
	}
	if cfg.CallTimeout != 45*time.Second {
		t.Errorf("Expected 45s, got %s", cfg.CallTimeout)
	}
	if cfg.OllamaURL != "http://gpu:11434" {
		t.Errorf("Expected OLLAMA_HOST fallback, got %s", cfg.OllamaURL)
	}
}

func TestLoadIgnoresMalformedNumbers(t *testing.T) {
	clearEnv(t)
	t.Setenv("CABCOAT_FREE_LIMIT", "lots")
	t.Setenv("CABCOAT_CALL_TIMEOUT", "-3s")

	cfg := Load()
	if cfg.FreeLimit != DefaultFreeLimit || cfg.CallTimeout != DefaultCallTimeout {
		t.Errorf("Expected defaults, got %d and %s", cfg.FreeLimit, cfg.CallTimeout)
	}
}

func TestLoadRejectsNonPositiveLimit(t *testing.T) {
	for _, v := range []string{"0", "-1"} {
		t.Run(v, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("CABCOAT_FREE_LIMIT", v)
			if cfg := Load(); cfg.FreeLimit != DefaultFreeLimit {
				t.Errorf("Expected default limit %d, got %d", DefaultFreeLimit, cfg.FreeLimit)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{name: "gemini ok", cfg: Config{Provider: "gemini", SynthesisProvider: "gemini", GeminiAPIKey: "k"}},
		{name: "ollama analysis", cfg: Config{Provider: "ollama", SynthesisProvider: "gemini", GeminiAPIKey: "k"}},
		{name: "missing gemini key", cfg: Config{Provider: "gemini", SynthesisProvider: "gemini"}, wantErr: "GEMINI_API_KEY"},
		{name: "missing openai key", cfg: Config{Provider: "openai", SynthesisProvider: "gemini", GeminiAPIKey: "k"}, wantErr: "OPENAI_API_KEY"},
		{name: "unknown", cfg: Config{Provider: "bard", SynthesisProvider: "gemini"}, wantErr: "unsupported provider"},
		{name: "ollama synthesis", cfg: Config{Provider: "gemini", SynthesisProvider: "ollama", GeminiAPIKey: "k"}, wantErr: "cannot synthesize"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Expected no error, got %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}
