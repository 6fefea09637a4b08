package api

import (
	"net/http"

	"github.com/receptor-app/receptor/pkg/routes"
)

func registerRoutes(mux *http.ServeMux, domain *Domain) {
	routes.Register(
		mux,
		domain.Jobs.Handler().Routes(),
		domain.Recipes.Handler().Routes(),
		domain.Recipes.Handler().FinalizeRoutes(),
		domain.Importer.Handler().Routes(),
		domain.Importer.Handler().RetryRoutes(),
	)
}
