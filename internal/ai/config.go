package ai

import (
	"fmt"
	"os"
	"time"
)

// Config describes the extraction provider connection.
type Config struct {
	BaseURL     string  `toml:"base_url"`
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`
	VisionModel string  `toml:"vision_model"`
	Temperature float64 `toml:"temperature"`
	Timeout     string  `toml:"timeout"`
	MaxTokens   int     `toml:"max_tokens"`
}

// TimeoutDuration returns the per-call provider deadline.
func (c *Config) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// Finalize applies defaults, environment overrides, and validation.
func (c *Config) Finalize() error {
	if c.BaseURL == "" {
		c.BaseURL = "https://openrouter.ai/api/v1"
	}
	if c.Model == "" {
		c.Model = "google/gemini-2.0-flash-001"
	}
	if c.VisionModel == "" {
		c.VisionModel = c.Model
	}
	if c.Temperature == 0 {
		c.Temperature = 0.1
	}
	if c.Timeout == "" {
		c.Timeout = "90s"
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = 8192
	}

	if key := os.Getenv("RECEPTOR_PROVIDER_API_KEY"); key != "" {
		c.APIKey = key
	}
	if url := os.Getenv("RECEPTOR_PROVIDER_BASE_URL"); url != "" {
		c.BaseURL = url
	}
	if model := os.Getenv("RECEPTOR_PROVIDER_MODEL"); model != "" {
		c.Model = model
	}

	if c.APIKey == "" {
		return fmt.Errorf("provider api key is required")
	}
	if _, err := time.ParseDuration(c.Timeout); err != nil {
		return fmt.Errorf("invalid provider timeout: %w", err)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.BaseURL != "" {
		c.BaseURL = overlay.BaseURL
	}
	if overlay.APIKey != "" {
		c.APIKey = overlay.APIKey
	}
	if overlay.Model != "" {
		c.Model = overlay.Model
	}
	if overlay.VisionModel != "" {
		c.VisionModel = overlay.VisionModel
	}
	if overlay.Temperature != 0 {
		c.Temperature = overlay.Temperature
	}
	if overlay.Timeout != "" {
		c.Timeout = overlay.Timeout
	}
	if overlay.MaxTokens != 0 {
		c.MaxTokens = overlay.MaxTokens
	}
}
