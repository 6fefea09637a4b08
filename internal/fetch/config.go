package fetch

import (
	"fmt"
	"time"
)

// Config holds fetch policy parameters.
type Config struct {
	Timeout      string `toml:"timeout"`
	MaxBodySize  string `toml:"max_body_size"`
	MaxRedirects int    `toml:"max_redirects"`
	UserAgent    string `toml:"user_agent"`

	maxBodyBytes int64
}

// TimeoutDuration returns the overall wall-clock budget per fetch, covering
// every redirect hop.
func (c *Config) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// MaxBodyBytes returns the response size cap in bytes.
func (c *Config) MaxBodyBytes() int64 {
	return c.maxBodyBytes
}

// Finalize applies defaults and validation.
func (c *Config) Finalize() error {
	if c.Timeout == "" {
		c.Timeout = "20s"
	}
	if c.MaxBodySize == "" {
		c.MaxBodySize = "4MB"
	}
	if c.MaxRedirects == 0 {
		c.MaxRedirects = 5
	}
	if c.UserAgent == "" {
		c.UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
	}

	if _, err := time.ParseDuration(c.Timeout); err != nil {
		return fmt.Errorf("invalid timeout: %w", err)
	}

	bytes, err := parseByteSize(c.MaxBodySize)
	if err != nil {
		return fmt.Errorf("invalid max_body_size: %w", err)
	}
	c.maxBodyBytes = bytes

	if c.MaxRedirects < 0 {
		return fmt.Errorf("invalid max_redirects: %d", c.MaxRedirects)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.Timeout != "" {
		c.Timeout = overlay.Timeout
	}
	if overlay.MaxBodySize != "" {
		c.MaxBodySize = overlay.MaxBodySize
	}
	if overlay.MaxRedirects != 0 {
		c.MaxRedirects = overlay.MaxRedirects
	}
	if overlay.UserAgent != "" {
		c.UserAgent = overlay.UserAgent
	}
}

func parseByteSize(s string) (int64, error) {
	var n float64
	var unit string
	if _, err := fmt.Sscanf(s, "%f%s", &n, &unit); err != nil {
		if _, err := fmt.Sscanf(s, "%f", &n); err != nil {
			return 0, fmt.Errorf("invalid byte size: %q", s)
		}
		unit = "B"
	}

	switch unit {
	case "B", "b", "":
		return int64(n), nil
	case "KB", "kb":
		return int64(n * 1024), nil
	case "MB", "mb":
		return int64(n * 1024 * 1024), nil
	case "GB", "gb":
		return int64(n * 1024 * 1024 * 1024), nil
	default:
		return 0, fmt.Errorf("unknown byte size unit: %q", unit)
	}
}
