// Package importer orchestrates the import pipeline end-to-end: it owns the
// per-source flows (photo, URL, pasted text, blank draft), the extractor
// fallback order, and the best-effort translation and image persistence
// steps around them.
package importer

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/receptor-app/receptor/internal/ai"
	"github.com/receptor-app/receptor/internal/fetch"
	"github.com/receptor-app/receptor/internal/jobs"
	"github.com/receptor-app/receptor/internal/translate"
	"github.com/receptor-app/receptor/pkg/storage"
)

// Options are the importer's tunables, sourced from pipeline configuration.
type Options struct {
	MergeThreshold  int
	MinIngredients  int
	MinInstructions int
	MaxImages       int
	MaxImageBytes   int64
	HTMLBudgetBytes int
	Debug           bool
}

// Upload is one photo received from the client.
type Upload struct {
	Filename string
	MimeType string
	Data     []byte
}

// System defines the public contract for running imports.
type System interface {
	Handler() *Handler

	ImportImages(ctx context.Context, ownerID string, images []Upload, targetLocale string) (*jobs.Job, error)
	ImportURL(ctx context.Context, ownerID, rawURL, targetLocale string) (*jobs.Job, error)
	ImportText(ctx context.Context, ownerID, text, targetLocale string) (*jobs.Job, error)
	ImportBlank(ctx context.Context, ownerID, targetLocale string) (*jobs.Job, error)
	Retry(ctx context.Context, ownerID string, jobID uuid.UUID) (*jobs.Job, error)
}

type service struct {
	jobs       jobs.System
	fetcher    *fetch.Fetcher
	extractor  *ai.Orchestrator
	translator *translate.Translator
	store      storage.System
	opts       Options
	logger     *slog.Logger
}

// New assembles the importer over its collaborators.
func New(
	jobSys jobs.System,
	fetcher *fetch.Fetcher,
	extractor *ai.Orchestrator,
	translator *translate.Translator,
	store storage.System,
	opts Options,
	logger *slog.Logger,
) System {
	if opts.MaxImages == 0 {
		opts.MaxImages = 5
	}
	return &service{
		jobs:       jobSys,
		fetcher:    fetcher,
		extractor:  extractor,
		translator: translator,
		store:      store,
		opts:       opts,
		logger:     logger.With("system", "importer"),
	}
}

func (s *service) Handler() *Handler {
	return NewHandler(s, s.logger, s.opts.MaxImageBytes)
}
