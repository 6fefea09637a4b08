package jobs

import (
	"context"

	"github.com/google/uuid"

	"github.com/receptor-app/receptor/internal/extraction"
	"github.com/receptor-app/receptor/pkg/pagination"
)

// ExtractionUpdate carries the pipeline's output onto a processing job.
// Nil fields are left untouched.
type ExtractionUpdate struct {
	Recipe             *extraction.Recipe
	RawOCRText         *string
	SourceLocale       *string
	TargetLocale       *string
	DiscoveredImageURL *string
}

// System defines the public contract for import job operations.
type System interface {
	Handler() *Handler

	Create(ctx context.Context, ownerID string, meta SourceMeta, initial Status) (*Job, error)
	List(ctx context.Context, ownerID string, page pagination.PageRequest, status *Status) (*pagination.PageResult[Job], error)
	Find(ctx context.Context, id uuid.UUID, ownerID string) (*Job, error)
	FindFinalizedByURL(ctx context.Context, ownerID, sourceURL string) (*Job, error)

	Transition(ctx context.Context, id uuid.UUID, ownerID string, next Status, failure *Failure) (*Job, error)
	SetExtraction(ctx context.Context, id uuid.UUID, ownerID string, upd ExtractionUpdate) (*Job, error)
	SnapshotOriginal(ctx context.Context, id uuid.UUID, ownerID string, recipe *extraction.Recipe) error
	UpdateRecipe(ctx context.Context, id uuid.UUID, ownerID string, recipe *extraction.Recipe) (*Job, error)
	Delete(ctx context.Context, id uuid.UUID, ownerID string) error
}
