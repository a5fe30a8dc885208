// Package config loads server configuration from defaults, an optional YAML
// file, an optional .env file and the environment, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"nuvem/internal/form"
	"nuvem/internal/keywords"
	"nuvem/internal/wordcloud"
)

// Config holds all runtime settings.
type Config struct {
	Addr    string `yaml:"addr"`
	BaseURL string `yaml:"base_url"`

	WordCloudURL string `yaml:"wordcloud_url"`

	OpenAIAPIKey  string `yaml:"openai_api_key"`
	OpenAIBaseURL string `yaml:"openai_base_url"`
	GeminiAPIKey  string `yaml:"gemini_api_key"`
	DefaultModel  string `yaml:"default_model"`

	LLMTimeout          time.Duration `yaml:"llm_timeout"`
	RequestTimeout      time.Duration `yaml:"request_timeout"`
	ShutdownTimeout     time.Duration `yaml:"shutdown_timeout"`
	ExtractionRetention time.Duration `yaml:"extraction_retention"`

	MinDimension int `yaml:"min_dimension"`
	MaxDimension int `yaml:"max_dimension"`

	LogLevel    string `yaml:"log_level"`
	Development bool   `yaml:"development"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Addr:                ":8080",
		BaseURL:             "http://localhost:8080",
		WordCloudURL:        wordcloud.DefaultBaseURL,
		OpenAIBaseURL:       keywords.DefaultOpenAIBaseURL,
		DefaultModel:        keywords.ModelGPT4o,
		LLMTimeout:          2 * time.Minute,
		RequestTimeout:      60 * time.Second,
		ShutdownTimeout:     10 * time.Second,
		ExtractionRetention: 2 * time.Minute,
		MinDimension:        form.DefaultMinDimension,
		MaxDimension:        form.DefaultMaxDimension,
		LogLevel:            "info",
	}
}

// Load builds the configuration. Either path may be empty; a missing .env
// file is ignored, a missing YAML file named explicitly is an error.
func Load(path, envFile string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := LoadEnvFile(envFile); err != nil {
		return cfg, err
	}
	cfg.ApplyEnv()
	return cfg, nil
}

// LoadEnvFile exports the variables of a .env file that are not already set.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

// ApplyEnv overrides fields from environment variables.
func (c *Config) ApplyEnv() {
	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		c.Addr = ":" + port
	}
	if v := os.Getenv("BASE_URL"); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv("WORDCLOUD_URL"); v != "" {
		c.WordCloudURL = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.OpenAIAPIKey = v
	}
	if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
		c.OpenAIBaseURL = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		c.GeminiAPIKey = v
	}
	// The older variable name wins when both are set.
	if v := os.Getenv("GOOGLE_GENERATIVE_AI_API_KEY"); v != "" {
		c.GeminiAPIKey = v
	}
	if v := os.Getenv("DEFAULT_MODEL"); v != "" {
		c.DefaultModel = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
}

// Validate checks bounds and the default model.
func (c Config) Validate() error {
	if c.Addr == "" {
		return errors.New("addr is required")
	}
	if c.MinDimension <= 0 || c.MaxDimension <= 0 {
		return fmt.Errorf("dimensions must be positive (min %d, max %d)", c.MinDimension, c.MaxDimension)
	}
	if c.MinDimension > c.MaxDimension {
		return fmt.Errorf("min dimension %d exceeds max dimension %d", c.MinDimension, c.MaxDimension)
	}
	if !keywords.IsKnownModel(c.DefaultModel) {
		return fmt.Errorf("invalid default model: %s", c.DefaultModel)
	}
	if c.LLMTimeout < 0 || c.RequestTimeout < 0 || c.ExtractionRetention < 0 || c.ShutdownTimeout < 0 {
		return errors.New("durations must not be negative")
	}
	if c.WordCloudURL == "" {
		return errors.New("wordcloud_url is required")
	}
	return nil
}
