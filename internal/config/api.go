package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/receptor-app/receptor/pkg/middleware"
	"github.com/receptor-app/receptor/pkg/pagination"
)

const (
	EnvAPIPrefix        = "RECEPTOR_API_PREFIX"
	EnvAPIMaxUploadSize = "RECEPTOR_API_MAX_UPLOAD_SIZE"
)

var corsEnv = &middleware.CORSEnv{
	Enabled: "RECEPTOR_CORS_ENABLED",
	Origins: "RECEPTOR_CORS_ORIGINS",
}

var authEnv = &middleware.AuthEnv{
	Enabled:  "RECEPTOR_AUTH_ENABLED",
	Issuer:   "RECEPTOR_AUTH_ISSUER",
	ClientID: "RECEPTOR_AUTH_CLIENT_ID",
}

var paginationEnv = &pagination.ConfigEnv{
	DefaultPageSize: "RECEPTOR_API_DEFAULT_PAGE_SIZE",
	MaxPageSize:     "RECEPTOR_API_MAX_PAGE_SIZE",
}

// APIConfig holds the API surface parameters.
type APIConfig struct {
	Prefix        string                `toml:"prefix"`
	MaxUploadSize string                `toml:"max_upload_size"`
	Auth          middleware.AuthConfig `toml:"auth"`
	CORS          middleware.CORSConfig `toml:"cors"`
	Pagination    pagination.Config     `toml:"pagination"`
}

// MaxUploadSizeBytes returns the upload cap in bytes.
func (c *APIConfig) MaxUploadSizeBytes() int64 {
	size, err := parseBytes(c.MaxUploadSize)
	if err != nil {
		return 10 << 20
	}
	return size
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *APIConfig) Finalize() error {
	if c.Prefix == "" {
		c.Prefix = "/api"
	}
	if c.MaxUploadSize == "" {
		c.MaxUploadSize = "10MB"
	}

	if v := os.Getenv(EnvAPIPrefix); v != "" {
		c.Prefix = v
	}
	if v := os.Getenv(EnvAPIMaxUploadSize); v != "" {
		c.MaxUploadSize = v
	}

	if !strings.HasPrefix(c.Prefix, "/") {
		return fmt.Errorf("prefix must start with /: %q", c.Prefix)
	}
	if _, err := parseBytes(c.MaxUploadSize); err != nil {
		return fmt.Errorf("invalid max_upload_size: %w", err)
	}

	if err := c.Auth.Finalize(authEnv); err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	if err := c.CORS.Finalize(corsEnv); err != nil {
		return fmt.Errorf("cors: %w", err)
	}
	if err := c.Pagination.Finalize(paginationEnv); err != nil {
		return fmt.Errorf("pagination: %w", err)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay.
func (c *APIConfig) Merge(overlay *APIConfig) {
	if overlay.Prefix != "" {
		c.Prefix = overlay.Prefix
	}
	if overlay.MaxUploadSize != "" {
		c.MaxUploadSize = overlay.MaxUploadSize
	}
	c.Auth.Merge(&overlay.Auth)
	c.CORS.Merge(&overlay.CORS)
	c.Pagination.Merge(&overlay.Pagination)
}

func parseBytes(s string) (int64, error) {
	var n float64
	var unit string
	if _, err := fmt.Sscanf(s, "%f%s", &n, &unit); err != nil {
		if _, err := fmt.Sscanf(s, "%f", &n); err != nil {
			return 0, fmt.Errorf("invalid byte size: %q", s)
		}
		unit = "B"
	}

	switch strings.ToUpper(unit) {
	case "B", "":
		return int64(n), nil
	case "KB":
		return int64(n * 1024), nil
	case "MB":
		return int64(n * 1024 * 1024), nil
	case "GB":
		return int64(n * 1024 * 1024 * 1024), nil
	default:
		return 0, fmt.Errorf("unknown byte size unit: %q", unit)
	}
}
