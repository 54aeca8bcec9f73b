// Package config holds all kindred configuration: provider credentials,
// model selection, companion defaults, and logging behavior. Config lives in
// .kindred/config.yaml (project-local preferred, home directory fallback)
// with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all kindred configuration.
type Config struct {
	// LLM provider configuration
	LLM LLMConfig `yaml:"llm"`

	// Companion defaults
	Companion CompanionConfig `yaml:"companion"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// LLMConfig configures the language-model provider.
type LLMConfig struct {
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	Timeout string `yaml:"timeout"`
}

// CompanionConfig configures the companion agent defaults.
type CompanionConfig struct {
	// ReplyLanguage pins the language of agent replies. Fixed by
	// configuration, not user-selectable at runtime.
	ReplyLanguage string `yaml:"reply_language"`

	// DefaultName prefills the setup wizard's name prompt.
	DefaultName string `yaml:"default_name"`

	// DefaultPersonality prefills the setup wizard's personality pick.
	// Must be one of the catalog keys when set.
	DefaultPersonality string `yaml:"default_personality"`
}

// LoggingConfig configures the category file logger.
type LoggingConfig struct {
	DebugMode  bool            `yaml:"debug_mode"`
	Level      string          `yaml:"level"`
	Categories map[string]bool `yaml:"categories"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		LLM: LLMConfig{
			Model:   "gemini-2.5-flash",
			Timeout: "2m",
		},
		Companion: CompanionConfig{
			ReplyLanguage: "English",
		},
		Logging: LoggingConfig{
			DebugMode: false,
			Level:     "info",
		},
	}
}

// ConfigDir returns the directory where config is stored.
// Prefers a project-local .kindred directory, falls back to the home dir.
func ConfigDir() (string, error) {
	if cwd, err := os.Getwd(); err == nil {
		localDir := filepath.Join(cwd, ".kindred")
		if stat, err := os.Stat(localDir); (err == nil && stat.IsDir()) || os.IsNotExist(err) {
			return localDir, nil
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".kindred"), nil
}

// DefaultPath returns the full path to the config file.
func DefaultPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load reads configuration from the given path, applying defaults for
// missing fields and environment overrides on top.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		cfg.applyEnvOverrides()
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the configuration to the given path.
func (c Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}

// applyEnvOverrides lets environment variables win over file contents.
func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.LLM.APIKey = key
	}
	if model := os.Getenv("KINDRED_MODEL"); model != "" {
		c.LLM.Model = model
	}
	if lang := os.Getenv("KINDRED_REPLY_LANGUAGE"); lang != "" {
		c.Companion.ReplyLanguage = lang
	}
}

// Validate checks the configuration is usable for starting a conversation.
func (c Config) Validate() error {
	if c.LLM.APIKey == "" {
		return fmt.Errorf("no API key configured; set GEMINI_API_KEY or llm.api_key in config")
	}
	if c.LLM.Model == "" {
		return fmt.Errorf("llm.model must not be empty")
	}
	if c.Companion.ReplyLanguage == "" {
		return fmt.Errorf("companion.reply_language must not be empty")
	}
	if c.LLM.Timeout != "" {
		if _, err := time.ParseDuration(c.LLM.Timeout); err != nil {
			return fmt.Errorf("invalid llm.timeout: %w", err)
		}
	}
	return nil
}

// GetLLMTimeout returns the request timeout, falling back to 2 minutes.
func (c Config) GetLLMTimeout() time.Duration {
	if c.LLM.Timeout == "" {
		return 2 * time.Minute
	}
	d, err := time.ParseDuration(c.LLM.Timeout)
	if err != nil {
		return 2 * time.Minute
	}
	return d
}
