// Package ai orchestrates recipe extraction through a text/vision provider:
// prompt construction per source type, response parsing with truncation
// repair, a single stricter retry, and acceptance gates on the result.
package ai

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/receptor-app/receptor/internal/extraction"
	"github.com/receptor-app/receptor/internal/htmlclean"
)

// Options are the pipeline acceptance thresholds. Tuned empirically; exposed
// as configuration rather than constants.
type Options struct {
	MinConfidence   int
	MinIngredients  int
	MinInstructions int
	MaxAttempts     int
	Debug           bool
}

// Orchestrator drives extraction calls against an injected provider.
type Orchestrator struct {
	provider Provider
	temp     float64
	opts     Options
	logger   *slog.Logger
}

func NewOrchestrator(provider Provider, temperature float64, opts Options, logger *slog.Logger) *Orchestrator {
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}
	return &Orchestrator{
		provider: provider,
		temp:     temperature,
		opts:     opts,
		logger:   logger.With("system", "ai"),
	}
}

// ExtractFromImages runs vision extraction over one or more photos of the
// same recipe.
func (o *Orchestrator) ExtractFromImages(ctx context.Context, images []Image) (*extraction.Recipe, *Diagnostics, error) {
	return o.extract(ctx, attemptInput{
		prompt: imagePrompt,
		images: images,
	})
}

// ExtractFromHTML runs text extraction over pre-cleaned page markup. The
// cleaning result feeds both the prompt and the retry decision: a truncated
// source that yields a thin recipe earns the stricter second attempt.
func (o *Orchestrator) ExtractFromHTML(ctx context.Context, cleaned htmlclean.Result, sourceURL string) (*extraction.Recipe, *Diagnostics, error) {
	return o.extract(ctx, attemptInput{
		prompt: func(strict bool) string {
			return htmlPrompt(sourceURL, strict) + "\n\nPage content:\n" + cleaned.HTML
		},
		htmlDiag:     &cleaned,
		wasTruncated: cleaned.WasTruncated,
		sourceURL:    sourceURL,
	})
}

// ExtractFromText runs extraction over pasted free text.
func (o *Orchestrator) ExtractFromText(ctx context.Context, text string) (*extraction.Recipe, *Diagnostics, error) {
	return o.extract(ctx, attemptInput{
		prompt: func(strict bool) string {
			return textPrompt(strict) + "\n\nText:\n" + text
		},
	})
}

type attemptInput struct {
	prompt       func(strict bool) string
	images       []Image
	htmlDiag     *htmlclean.Result
	wasTruncated bool
	sourceURL    string
}

// extract runs up to MaxAttempts sequential provider calls. Attempt 2 uses
// the stricter minified-output prompt; it fires on a truncation-class parse
// failure, or when a truncated source produced a below-threshold result.
func (o *Orchestrator) extract(ctx context.Context, in attemptInput) (*extraction.Recipe, *Diagnostics, error) {
	var (
		diag        *Diagnostics
		retryReason string
		lastErr     error
	)

	for attempt := 1; attempt <= o.opts.MaxAttempts; attempt++ {
		strict := attempt > 1

		reply, err := o.provider.Generate(ctx, GenerateRequest{
			Prompt:      in.prompt(strict),
			Images:      in.images,
			Schema:      extraction.Schema(),
			Temperature: o.temp,
			Vision:      len(in.images) > 0,
		})
		if err != nil {
			return nil, diag, err
		}

		result := parseResponse(reply)
		diag = o.diagnostics(in, result, attempt, retryReason)

		if result.Status == StatusUnrecoverable {
			lastErr = result.Err
			if truncationClass(result.Err) && attempt < o.opts.MaxAttempts {
				retryReason = "truncated_response"
				o.logger.Warn("extraction response unusable, retrying strict",
					"attempt", attempt, "reason", retryReason)
				continue
			}
			return nil, diag, fmt.Errorf("%w: %w", ErrExtractionFailed, result.Err)
		}

		recipe := result.Recipe
		if in.wasTruncated && o.belowThresholds(recipe) && attempt < o.opts.MaxAttempts {
			retryReason = "truncated_source_thin_result"
			o.logger.Warn("thin result from truncated source, retrying strict",
				"attempt", attempt,
				"ingredients", len(recipe.Ingredients),
				"instructions", len(recipe.Instructions))
			continue
		}

		if in.sourceURL != "" && recipe.SourceURL == "" {
			recipe.SourceURL = in.sourceURL
		}

		if err := o.accept(recipe, result.Flags); err != nil {
			return nil, diag, err
		}

		o.logger.Info("extraction accepted",
			"attempt", attempt,
			"status", result.Status,
			"ingredients", len(recipe.Ingredients),
			"instructions", len(recipe.Instructions))
		return recipe, diag, nil
	}

	return nil, diag, fmt.Errorf("%w: %w", ErrExtractionFailed, lastErr)
}

// accept applies the user-facing rejection gates: low overall confidence or
// a placeholder-only result never reaches review silently.
func (o *Orchestrator) accept(recipe *extraction.Recipe, flags RepairFlags) error {
	if recipe.Confidence.Overall != nil && *recipe.Confidence.Overall < o.opts.MinConfidence {
		return fmt.Errorf("%w: %d < %d", ErrLowConfidence, *recipe.Confidence.Overall, o.opts.MinConfidence)
	}
	if flags.InjectedPlaceholdersIngredients && flags.InjectedPlaceholdersInstructions {
		return ErrPlaceholderResult
	}
	if recipe.HasPlaceholders() && len(recipe.Ingredients) == 1 && len(recipe.Instructions) == 1 {
		return ErrPlaceholderResult
	}
	return nil
}

func (o *Orchestrator) belowThresholds(recipe *extraction.Recipe) bool {
	return len(recipe.Ingredients) < o.opts.MinIngredients ||
		len(recipe.Instructions) < o.opts.MinInstructions
}

// diagnostics assembles the debug payload; outside debug mode only the
// counts survive so failure records stay small.
func (o *Orchestrator) diagnostics(in attemptInput, result ParseResult, attempt int, retryReason string) *Diagnostics {
	d := &Diagnostics{
		ParseRepair: result.Flags,
		Attempt:     attempt,
		RetryReason: retryReason,
	}

	if result.Recipe != nil {
		d.IngredientCount = len(result.Recipe.Ingredients)
		d.InstructionCount = len(result.Recipe.Instructions)
		d.ConfidenceOverall = result.Recipe.Confidence.Overall
		d.LanguageDetected = result.Recipe.LanguageDetected
	}

	if o.opts.Debug {
		d.HTML = in.htmlDiag
	}

	return d
}
