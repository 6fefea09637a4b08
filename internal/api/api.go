// Package api assembles the API module with all domain systems and route
// registration.
package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/receptor-app/receptor/internal/config"
	"github.com/receptor-app/receptor/internal/infrastructure"
	"github.com/receptor-app/receptor/pkg/middleware"
	"github.com/receptor-app/receptor/pkg/module"
)

// NewModule creates the API module with all domain handlers and middleware.
// The context bounds OIDC discovery when auth is enabled.
func NewModule(ctx context.Context, cfg *config.Config, infra *infrastructure.Infrastructure) (*module.Module, error) {
	runtime := NewRuntime(cfg, infra)
	domain := NewDomain(cfg, runtime)

	mux := http.NewServeMux()
	registerRoutes(mux, domain)

	verifier, err := middleware.NewVerifier(ctx, &cfg.API.Auth)
	if err != nil {
		return nil, fmt.Errorf("auth verifier init failed: %w", err)
	}

	m, err := module.New(cfg.API.Prefix, mux)
	if err != nil {
		return nil, err
	}
	m.Use(middleware.CORS(&cfg.API.CORS))
	m.Use(middleware.Logger(runtime.Infrastructure.Logger))
	m.Use(middleware.Auth(&cfg.API.Auth, verifier))

	return m, nil
}
