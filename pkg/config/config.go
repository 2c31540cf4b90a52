package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds process-wide settings, loaded once at startup from the
// environment. The API key may legitimately be empty: the chat service
// reports missing credentials in-band on the first call instead of
// refusing to start.
type Config struct {
	// Provider selects the upstream backend: "openrouter" (OpenAI-style
	// chat completions over SSE) or "claude" (Anthropic Messages API).
	Provider string `env:"NEURALCORE_PROVIDER" envDefault:"openrouter"`

	APIKey  string `env:"NEURALCORE_API_KEY"`
	BaseURL string `env:"NEURALCORE_BASE_URL" envDefault:"https://openrouter.ai/api/v1"`

	Model         string `env:"NEURALCORE_MODEL" envDefault:"z-ai/glm-4.5-air:free"`
	FallbackModel string `env:"NEURALCORE_FALLBACK_MODEL" envDefault:"deepseek/deepseek-chat-v3-0324:free"`

	// FirstByteTimeout bounds the wait for the first streamed fragment of
	// an attempt. Zero disables the deadline (quality-first deployments).
	FirstByteTimeout time.Duration `env:"NEURALCORE_FIRST_BYTE_TIMEOUT" envDefault:"1800ms"`

	Temperature float64 `env:"NEURALCORE_TEMPERATURE" envDefault:"0.7"`
	TopP        float64 `env:"NEURALCORE_TOP_P" envDefault:"0.9"`

	ListenAddr string `env:"NEURALCORE_ADDR" envDefault:":8790"`

	// Workspace is where stream metrics are appended. Empty resolves to
	// ~/.neuralcore.
	Workspace string `env:"NEURALCORE_WORKSPACE"`

	Debug bool `env:"NEURALCORE_DEBUG" envDefault:"false"`
}

// Load parses the environment into a Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	if cfg.Workspace == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		cfg.Workspace = filepath.Join(home, ".neuralcore")
	}
	return cfg, nil
}
