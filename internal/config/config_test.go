package config

import (
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.LLM.Model != "gemini-2.5-flash" {
		t.Errorf("expected Model=gemini-2.5-flash, got %s", cfg.LLM.Model)
	}
	if cfg.Companion.ReplyLanguage != "English" {
		t.Errorf("expected ReplyLanguage=English, got %s", cfg.Companion.ReplyLanguage)
	}
	if cfg.Logging.DebugMode {
		t.Error("debug mode should default to off")
	}
}

func TestConfig_SaveLoad(t *testing.T) {
	// Ensure no env vars interfere
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("KINDRED_MODEL", "")
	t.Setenv("KINDRED_REPLY_LANGUAGE", "")

	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := DefaultConfig()
	cfg.LLM.APIKey = "test-key"
	cfg.Companion.DefaultName = "Nova"
	cfg.Companion.DefaultPersonality = "friend"

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.LLM.APIKey != "test-key" {
		t.Errorf("expected APIKey=test-key, got %s", loaded.LLM.APIKey)
	}
	if loaded.Companion.DefaultName != "Nova" {
		t.Errorf("expected DefaultName=Nova, got %s", loaded.Companion.DefaultName)
	}
	if loaded.Companion.DefaultPersonality != "friend" {
		t.Errorf("expected DefaultPersonality=friend, got %s", loaded.Companion.DefaultPersonality)
	}
}

func TestConfig_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("KINDRED_MODEL", "")
	t.Setenv("KINDRED_REPLY_LANGUAGE", "")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load of missing file should not error, got %v", err)
	}
	if cfg.LLM.Model != DefaultConfig().LLM.Model {
		t.Errorf("missing file should yield defaults, got model %s", cfg.LLM.Model)
	}
}

func TestConfig_EnvOverrides(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "env-key")
	t.Setenv("KINDRED_MODEL", "gemini-env-model")
	t.Setenv("KINDRED_REPLY_LANGUAGE", "Korean")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.LLM.APIKey != "env-key" {
		t.Errorf("expected APIKey=env-key, got %s", cfg.LLM.APIKey)
	}
	if cfg.LLM.Model != "gemini-env-model" {
		t.Errorf("expected Model=gemini-env-model, got %s", cfg.LLM.Model)
	}
	if cfg.Companion.ReplyLanguage != "Korean" {
		t.Errorf("expected ReplyLanguage=Korean, got %s", cfg.Companion.ReplyLanguage)
	}
}

func TestConfig_Validate(t *testing.T) {
	cfg := DefaultConfig()
	// Default has no API key
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for missing API key")
	}

	cfg.LLM.APIKey = "test-key"
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected valid config, got error: %v", err)
	}

	cfg.LLM.Timeout = "not-a-duration"
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for bad timeout")
	}
}

func TestConfig_GetLLMTimeout(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.GetLLMTimeout() != 2*time.Minute {
		t.Errorf("default timeout should be 2m, got %v", cfg.GetLLMTimeout())
	}

	cfg.LLM.Timeout = "30s"
	if cfg.GetLLMTimeout() != 30*time.Second {
		t.Errorf("expected 30s, got %v", cfg.GetLLMTimeout())
	}

	cfg.LLM.Timeout = "garbage"
	if cfg.GetLLMTimeout() != 2*time.Minute {
		t.Errorf("bad timeout should fall back to 2m, got %v", cfg.GetLLMTimeout())
	}
}
