package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Provider != "openrouter" {
		t.Errorf("Expected provider 'openrouter', got '%s'", cfg.Provider)
	}
	if cfg.BaseURL != "https://openrouter.ai/api/v1" {
		t.Errorf("Unexpected base URL: %s", cfg.BaseURL)
	}
	if cfg.Model != "z-ai/glm-4.5-air:free" {
		t.Errorf("Unexpected default model: %s", cfg.Model)
	}
	if cfg.FirstByteTimeout != 1800*time.Millisecond {
		t.Errorf("Expected 1800ms first-byte timeout, got %v", cfg.FirstByteTimeout)
	}
	if cfg.Temperature != 0.7 {
		t.Errorf("Expected temperature 0.7, got %v", cfg.Temperature)
	}
	if cfg.TopP != 0.9 {
		t.Errorf("Expected top_p 0.9, got %v", cfg.TopP)
	}
	if cfg.Workspace == "" {
		t.Error("Expected workspace to be resolved to a non-empty path")
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("NEURALCORE_PROVIDER", "claude")
	t.Setenv("NEURALCORE_API_KEY", "sk-test")
	t.Setenv("NEURALCORE_MODEL", "claude-sonnet-4-5-20250929")
	t.Setenv("NEURALCORE_FALLBACK_MODEL", "claude-haiku-3-5-20241022")
	t.Setenv("NEURALCORE_FIRST_BYTE_TIMEOUT", "0")
	t.Setenv("NEURALCORE_WORKSPACE", "/tmp/nc-test")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Provider != "claude" {
		t.Errorf("Expected provider 'claude', got '%s'", cfg.Provider)
	}
	if cfg.APIKey != "sk-test" {
		t.Errorf("Expected API key 'sk-test', got '%s'", cfg.APIKey)
	}
	if cfg.FirstByteTimeout != 0 {
		t.Errorf("Expected disabled first-byte timeout, got %v", cfg.FirstByteTimeout)
	}
	if cfg.Workspace != "/tmp/nc-test" {
		t.Errorf("Expected workspace '/tmp/nc-test', got '%s'", cfg.Workspace)
	}
}
