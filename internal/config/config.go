// Package config reads engine settings from the environment.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultProvider    = "gemini"
	DefaultFreeLimit   = 2
	DefaultDB          = "cabcoat.db"
	DefaultCallTimeout = 2 * time.Minute
	DefaultOllamaURL   = "http://localhost:11434"
)

// Config holds provider credentials, quota and storage settings.
type Config struct {
	Provider          string
	SynthesisProvider string
	AnalysisModel     string
	SynthesisModel    string
	GeminiAPIKey      string
	OpenAIAPIKey      string
	OllamaURL         string
	FreeLimit         int
	DB                string
	CallTimeout       time.Duration
	AspectRatio       string
	S3Bucket          string
	S3Region          string
	S3Endpoint        string
	History           string
}

// Load reads the environment. Malformed numeric values fall back to their defaults.
func Load() Config {
	cfg := Config{
		Provider:          strings.ToLower(getenv("CABCOAT_PROVIDER", DefaultProvider)),
		SynthesisProvider: strings.ToLower(getenv("CABCOAT_SYNTHESIS_PROVIDER", DefaultProvider)),
		AnalysisModel:     os.Getenv("CABCOAT_ANALYSIS_MODEL"),
		SynthesisModel:    os.Getenv("CABCOAT_SYNTHESIS_MODEL"),
		GeminiAPIKey:      os.Getenv("GEMINI_API_KEY"),
		OpenAIAPIKey:      os.Getenv("OPENAI_API_KEY"),
		OllamaURL:         getenv("OLLAMA_URL", getenv("OLLAMA_HOST", DefaultOllamaURL)),
		FreeLimit:         DefaultFreeLimit,
		DB:                getenv("CABCOAT_DB", DefaultDB),
		CallTimeout:       DefaultCallTimeout,
		AspectRatio:       os.Getenv("CABCOAT_ASPECT_RATIO"),
		S3Bucket:          os.Getenv("CABCOAT_S3_BUCKET"),
		S3Region:          os.Getenv("CABCOAT_S3_REGION"),
		S3Endpoint:        os.Getenv("CABCOAT_S3_ENDPOINT"),
		History:           os.Getenv("CABCOAT_HISTORY"),
	}

	if v := os.Getenv("CABCOAT_FREE_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			slog.Warn("Ignoring invalid CABCOAT_FREE_LIMIT", "value", v)
		} else {
			cfg.FreeLimit = n
		}
	}

	if v := os.Getenv("CABCOAT_CALL_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			slog.Warn("Ignoring invalid CABCOAT_CALL_TIMEOUT", "value", v)
		} else {
			cfg.CallTimeout = d
		}
	}

	return cfg
}

// Validate reports settings that would make every collaborator call fail.
func (c Config) Validate() error {
	for _, p := range []string{c.Provider, c.SynthesisProvider} {
		switch p {
		case "gemini":
			if c.GeminiAPIKey == "" {
				return fmt.Errorf("GEMINI_API_KEY environment variable not set")
			}
		case "openai":
			if c.OpenAIAPIKey == "" {
				return fmt.Errorf("OPENAI_API_KEY environment variable not set")
			}
		case "ollama":
		default:
			return fmt.Errorf("unsupported provider: %s", p)
		}
	}
	if c.SynthesisProvider == "ollama" {
		return fmt.Errorf("ollama cannot synthesize images")
	}
	return nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
