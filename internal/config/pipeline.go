package config

import (
	"fmt"
	"os"
	"strconv"
)

const (
	EnvPipelineDebug = "RECEPTOR_PIPELINE_DEBUG"
)

// PipelineConfig holds the import pipeline's acceptance thresholds. They
// are tuned empirically and deliberately configurable.
type PipelineConfig struct {
	MinConfidence   int  `toml:"min_confidence"`
	MinIngredients  int  `toml:"min_ingredients"`
	MinInstructions int  `toml:"min_instructions"`
	MaxAttempts     int  `toml:"max_attempts"`
	MergeThreshold  int  `toml:"merge_threshold"`
	MaxImages       int  `toml:"max_images"`
	HTMLBudgetBytes int  `toml:"html_budget_bytes"`
	Debug           bool `toml:"debug"`
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *PipelineConfig) Finalize() error {
	if c.MinConfidence == 0 {
		c.MinConfidence = 30
	}
	if c.MinIngredients == 0 {
		c.MinIngredients = 3
	}
	if c.MinInstructions == 0 {
		c.MinInstructions = 2
	}
	if c.MaxAttempts == 0 {
		c.MaxAttempts = 2
	}
	if c.MergeThreshold == 0 {
		c.MergeThreshold = 5
	}
	if c.MaxImages == 0 {
		c.MaxImages = 5
	}

	if v := os.Getenv(EnvPipelineDebug); v != "" {
		if debug, err := strconv.ParseBool(v); err == nil {
			c.Debug = debug
		}
	}

	if c.MinConfidence < 0 || c.MinConfidence > 100 {
		return fmt.Errorf("invalid min_confidence: %d", c.MinConfidence)
	}
	if c.MaxAttempts < 1 {
		return fmt.Errorf("invalid max_attempts: %d", c.MaxAttempts)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay.
func (c *PipelineConfig) Merge(overlay *PipelineConfig) {
	if overlay.MinConfidence != 0 {
		c.MinConfidence = overlay.MinConfidence
	}
	if overlay.MinIngredients != 0 {
		c.MinIngredients = overlay.MinIngredients
	}
	if overlay.MinInstructions != 0 {
		c.MinInstructions = overlay.MinInstructions
	}
	if overlay.MaxAttempts != 0 {
		c.MaxAttempts = overlay.MaxAttempts
	}
	if overlay.MergeThreshold != 0 {
		c.MergeThreshold = overlay.MergeThreshold
	}
	if overlay.MaxImages != 0 {
		c.MaxImages = overlay.MaxImages
	}
	if overlay.HTMLBudgetBytes != 0 {
		c.HTMLBudgetBytes = overlay.HTMLBudgetBytes
	}
	if overlay.Debug {
		c.Debug = true
	}
}
