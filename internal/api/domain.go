package api

import (
	"github.com/receptor-app/receptor/internal/ai"
	"github.com/receptor-app/receptor/internal/config"
	"github.com/receptor-app/receptor/internal/fetch"
	"github.com/receptor-app/receptor/internal/importer"
	"github.com/receptor-app/receptor/internal/jobs"
	"github.com/receptor-app/receptor/internal/recipes"
	"github.com/receptor-app/receptor/internal/translate"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Jobs     jobs.System
	Recipes  recipes.System
	Importer importer.System
}

// NewDomain creates all domain systems from the API runtime.
func NewDomain(cfg *config.Config, runtime *Runtime) *Domain {
	jobSystem := jobs.New(
		runtime.Database.Connection(),
		runtime.Logger,
		runtime.Pagination,
	)

	recipeSystem := recipes.New(
		runtime.Database.Connection(),
		runtime.Logger,
	)

	client := ai.NewClient(&cfg.Provider)
	extractor := ai.NewOrchestrator(client, cfg.Provider.Temperature, ai.Options{
		MinConfidence:   cfg.Pipeline.MinConfidence,
		MinIngredients:  cfg.Pipeline.MinIngredients,
		MinInstructions: cfg.Pipeline.MinInstructions,
		MaxAttempts:     cfg.Pipeline.MaxAttempts,
		Debug:           cfg.Pipeline.Debug,
	}, runtime.Logger)

	importSystem := importer.New(
		jobSystem,
		fetch.New(&cfg.Fetch, runtime.Logger),
		extractor,
		translate.New(client, runtime.Logger),
		runtime.Storage,
		importer.Options{
			MergeThreshold:  cfg.Pipeline.MergeThreshold,
			MinIngredients:  cfg.Pipeline.MinIngredients,
			MinInstructions: cfg.Pipeline.MinInstructions,
			MaxImages:       cfg.Pipeline.MaxImages,
			MaxImageBytes:   cfg.API.MaxUploadSizeBytes(),
			HTMLBudgetBytes: cfg.Pipeline.HTMLBudgetBytes,
			Debug:           cfg.Pipeline.Debug,
		},
		runtime.Logger,
	)

	return &Domain{
		Jobs:     jobSystem,
		Recipes:  recipeSystem,
		Importer: importSystem,
	}
}
