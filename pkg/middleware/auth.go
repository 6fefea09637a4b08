package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
)

type ownerKey struct{}

// ErrUnauthenticated indicates a missing or unverifiable bearer token.
var ErrUnauthenticated = errors.New("unauthenticated")

// AuthConfig holds OIDC bearer-token verification settings. When disabled,
// the owner identity is taken from the X-Owner-Id header; this mode exists
// for local development and tests only.
type AuthConfig struct {
	Enabled  bool   `toml:"enabled"`
	Issuer   string `toml:"issuer"`
	ClientID string `toml:"client_id"`
}

// AuthEnv maps auth config fields to environment variable names.
type AuthEnv struct {
	Enabled  string
	Issuer   string
	ClientID string
}

// Finalize applies environment variable overrides and validation.
func (c *AuthConfig) Finalize(env *AuthEnv) error {
	if env != nil {
		if env.Enabled != "" {
			if v := os.Getenv(env.Enabled); v != "" {
				if enabled, err := strconv.ParseBool(v); err == nil {
					c.Enabled = enabled
				}
			}
		}
		if env.Issuer != "" {
			if v := os.Getenv(env.Issuer); v != "" {
				c.Issuer = v
			}
		}
		if env.ClientID != "" {
			if v := os.Getenv(env.ClientID); v != "" {
				c.ClientID = v
			}
		}
	}

	if c.Enabled && c.Issuer == "" {
		return fmt.Errorf("issuer required when auth enabled")
	}
	return nil
}

// Merge overwrites fields from overlay.
func (c *AuthConfig) Merge(overlay *AuthConfig) {
	c.Enabled = overlay.Enabled
	if overlay.Issuer != "" {
		c.Issuer = overlay.Issuer
	}
	if overlay.ClientID != "" {
		c.ClientID = overlay.ClientID
	}
}

// Verifier validates bearer tokens. Satisfied by *oidc.IDTokenVerifier.
type Verifier interface {
	Verify(ctx context.Context, rawToken string) (*oidc.IDToken, error)
}

// NewVerifier performs OIDC discovery against the configured issuer and
// returns a token verifier. Returns nil when auth is disabled.
func NewVerifier(ctx context.Context, cfg *AuthConfig) (Verifier, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	provider, err := oidc.NewProvider(ctx, cfg.Issuer)
	if err != nil {
		return nil, fmt.Errorf("oidc discovery: %w", err)
	}

	oidcCfg := &oidc.Config{ClientID: cfg.ClientID}
	if cfg.ClientID == "" {
		oidcCfg.SkipClientIDCheck = true
	}

	return provider.Verifier(oidcCfg), nil
}

// Auth returns middleware that resolves the owner identity for the request.
// With a verifier, the bearer token's subject claim becomes the owner ID;
// without one, the X-Owner-Id header is trusted as-is.
func Auth(cfg *AuthConfig, verifier Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			owner, err := resolveOwner(r, cfg, verifier)
			if err != nil {
				http.Error(w, `{"error":"unauthenticated"}`, http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithOwner(r.Context(), owner)))
		})
	}
}

// WithOwner returns a context carrying the owner identity.
func WithOwner(ctx context.Context, owner string) context.Context {
	return context.WithValue(ctx, ownerKey{}, owner)
}

// Owner extracts the owner identity set by the Auth middleware.
func Owner(ctx context.Context) (string, bool) {
	owner, ok := ctx.Value(ownerKey{}).(string)
	return owner, ok && owner != ""
}

func resolveOwner(r *http.Request, cfg *AuthConfig, verifier Verifier) (string, error) {
	if !cfg.Enabled || verifier == nil {
		owner := r.Header.Get("X-Owner-Id")
		if owner == "" {
			return "", ErrUnauthenticated
		}
		return owner, nil
	}

	raw := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if raw == "" || raw == r.Header.Get("Authorization") {
		return "", ErrUnauthenticated
	}

	token, err := verifier.Verify(r.Context(), raw)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	}
	return token.Subject, nil
}
