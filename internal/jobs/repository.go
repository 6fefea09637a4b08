package jobs

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/receptor-app/receptor/internal/extraction"
	"github.com/receptor-app/receptor/pkg/pagination"
	"github.com/receptor-app/receptor/pkg/repository"
)

type repo struct {
	db         *sql.DB
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates an import job repository implementing the System interface.
func New(db *sql.DB, logger *slog.Logger, pagination pagination.Config) System {
	return &repo{
		db:         db,
		logger:     logger.With("system", "jobs"),
		pagination: pagination,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

func (r *repo) Create(ctx context.Context, ownerID string, meta SourceMeta, initial Status) (*Job, error) {
	if !initial.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, initial)
	}

	metaJSON, err := encodeJSON(meta)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	job := Job{
		ID:         uuid.New(),
		OwnerID:    ownerID,
		Status:     initial,
		SourceMeta: meta,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	const q = `INSERT INTO recipe_import_jobs
		(id, owner_id, status, source_meta, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := r.db.ExecContext(ctx, q, job.ID, job.OwnerID, job.Status, metaJSON, now, now); err != nil {
		return nil, repository.MapError(fmt.Errorf("create job: %w", err), ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("job created", "id", job.ID, "source", meta.Source)
	return &job, nil
}

func (r *repo) List(ctx context.Context, ownerID string, page pagination.PageRequest, status *Status) (*pagination.PageResult[Job], error) {
	page.Normalize(r.pagination)

	where := "WHERE owner_id = $1"
	args := []any{ownerID}
	if status != nil {
		where += " AND status = $2"
		args = append(args, *status)
	}

	var total int
	countSQL := "SELECT COUNT(*) FROM recipe_import_jobs " + where
	if err := r.db.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count jobs: %w", err)
	}

	pageSQL := fmt.Sprintf(
		"SELECT %s FROM recipe_import_jobs %s ORDER BY created_at DESC LIMIT %d OFFSET %d",
		jobColumns, where, page.PageSize, page.Offset(),
	)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, args, scanJob)
	if err != nil {
		return nil, fmt.Errorf("query jobs: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID, ownerID string) (*Job, error) {
	return find(ctx, r.db, id, ownerID)
}

// find loads a job by id and enforces ownership. Works against the pool or
// a transaction.
func find(ctx context.Context, q repository.Querier, id uuid.UUID, ownerID string) (*Job, error) {
	query := fmt.Sprintf("SELECT %s FROM recipe_import_jobs WHERE id = $1", jobColumns)
	job, err := repository.QueryOne(ctx, q, query, []any{id}, scanJob)
	if err != nil {
		return nil, repository.MapError(fmt.Errorf("find job: %w", err), ErrNotFound, ErrDuplicate)
	}
	if job.OwnerID != ownerID {
		return nil, ErrForbidden
	}
	return &job, nil
}

// findForUpdate locks the row for the duration of the transaction.
func findForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID, ownerID string) (*Job, error) {
	query := fmt.Sprintf("SELECT %s FROM recipe_import_jobs WHERE id = $1 FOR UPDATE", jobColumns)
	job, err := repository.QueryOne(ctx, tx, query, []any{id}, scanJob)
	if err != nil {
		return nil, repository.MapError(fmt.Errorf("lock job: %w", err), ErrNotFound, ErrDuplicate)
	}
	if job.OwnerID != ownerID {
		return nil, ErrForbidden
	}
	return &job, nil
}

func (r *repo) FindFinalizedByURL(ctx context.Context, ownerID, sourceURL string) (*Job, error) {
	query := fmt.Sprintf(`SELECT %s FROM recipe_import_jobs
		WHERE owner_id = $1 AND status = $2 AND source_meta->>'url' = $3
		ORDER BY finalized_at DESC LIMIT 1`, jobColumns)

	job, err := repository.QueryOne(ctx, r.db, query, []any{ownerID, StatusFinalized, sourceURL}, scanJob)
	if err != nil {
		return nil, repository.MapError(fmt.Errorf("find job by url: %w", err), ErrNotFound, ErrDuplicate)
	}
	return &job, nil
}

// Transition moves a job to the next status under the state machine's
// rules. A self-transition is a no-op. On entry into finalized the
// finalized_at stamp is set; a failure record is wrapped with a timestamp.
func (r *repo) Transition(ctx context.Context, id uuid.UUID, ownerID string, next Status, failure *Failure) (*Job, error) {
	if !next.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, next)
	}

	return repository.WithTx(ctx, r.db, func(tx *sql.Tx) (*Job, error) {
		job, err := findForUpdate(ctx, tx, id, ownerID)
		if err != nil {
			return nil, err
		}

		if job.Status == next {
			return job, nil
		}
		if !job.Status.CanTransition(next) {
			return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, job.Status, next)
		}

		now := time.Now().UTC()
		job.Status = next
		job.UpdatedAt = now

		if next == StatusFinalized {
			job.FinalizedAt = &now
		}
		if failure != nil {
			if failure.OccurredAt.IsZero() {
				failure.OccurredAt = now
			}
			failure.Message = SanitizeMessage(failure.Message)
			job.ValidationErrors = failure
		}

		var failureJSON []byte
		if job.ValidationErrors != nil {
			if failureJSON, err = encodeJSON(job.ValidationErrors); err != nil {
				return nil, err
			}
		}

		const q = `UPDATE recipe_import_jobs
			SET status = $2, updated_at = $3, finalized_at = $4, validation_errors_json = $5
			WHERE id = $1`
		if err := repository.ExecExpectOne(ctx, tx, q, job.ID, job.Status, job.UpdatedAt, job.FinalizedAt, failureJSON); err != nil {
			return nil, fmt.Errorf("transition job: %w", err)
		}

		r.logger.Info("job transitioned", "id", job.ID, "status", job.Status)
		return job, nil
	})
}

func (r *repo) SetExtraction(ctx context.Context, id uuid.UUID, ownerID string, upd ExtractionUpdate) (*Job, error) {
	return repository.WithTx(ctx, r.db, func(tx *sql.Tx) (*Job, error) {
		job, err := findForUpdate(ctx, tx, id, ownerID)
		if err != nil {
			return nil, err
		}
		if job.Status == StatusFinalized {
			return nil, ErrFinalized
		}

		if upd.Recipe != nil {
			job.ExtractedRecipe = upd.Recipe
			job.ConfidenceOverall = upd.Recipe.Confidence.Overall
		}
		if upd.RawOCRText != nil {
			job.RawOCRText = upd.RawOCRText
		}
		if upd.SourceLocale != nil {
			job.SourceLocale = upd.SourceLocale
		}
		if upd.TargetLocale != nil {
			job.TargetLocale = upd.TargetLocale
		}
		if upd.DiscoveredImageURL != nil {
			job.SourceMeta.DiscoveredImageURL = *upd.DiscoveredImageURL
		}
		job.UpdatedAt = time.Now().UTC()

		extractedJSON, err := encodeRecipe(job.ExtractedRecipe)
		if err != nil {
			return nil, err
		}
		metaJSON, err := encodeJSON(job.SourceMeta)
		if err != nil {
			return nil, err
		}

		const q = `UPDATE recipe_import_jobs
			SET extracted_recipe_json = $2, confidence_overall = $3, raw_ocr_text = $4,
				source_locale = $5, target_locale = $6, source_meta = $7, updated_at = $8
			WHERE id = $1`
		if err := repository.ExecExpectOne(ctx, tx, q,
			job.ID, extractedJSON, job.ConfidenceOverall, job.RawOCRText,
			job.SourceLocale, job.TargetLocale, metaJSON, job.UpdatedAt); err != nil {
			return nil, fmt.Errorf("set extraction: %w", err)
		}

		return job, nil
	})
}

// SnapshotOriginal preserves the untranslated recipe exactly once. The
// COALESCE guard makes the write-once rule hold regardless of call order.
func (r *repo) SnapshotOriginal(ctx context.Context, id uuid.UUID, ownerID string, recipe *extraction.Recipe) error {
	data, err := encodeRecipe(recipe)
	if err != nil {
		return err
	}

	const q = `UPDATE recipe_import_jobs
		SET original_recipe_json = COALESCE(original_recipe_json, $3), updated_at = $4
		WHERE id = $1 AND owner_id = $2`
	if err := repository.ExecExpectOne(ctx, r.db, q, id, ownerID, data, time.Now().UTC()); err != nil {
		return repository.MapError(fmt.Errorf("snapshot original: %w", err), ErrNotFound, ErrDuplicate)
	}
	return nil
}

// UpdateRecipe applies an editorial change to the extracted recipe. Only
// legal while the job awaits review.
func (r *repo) UpdateRecipe(ctx context.Context, id uuid.UUID, ownerID string, recipe *extraction.Recipe) (*Job, error) {
	if err := recipe.Validate(); err != nil {
		return nil, err
	}

	return repository.WithTx(ctx, r.db, func(tx *sql.Tx) (*Job, error) {
		job, err := findForUpdate(ctx, tx, id, ownerID)
		if err != nil {
			return nil, err
		}
		if !job.Editable() {
			return nil, fmt.Errorf("%w: status %s", ErrNotEditable, job.Status)
		}

		edited := recipe.Clone()
		edited.Renumber()
		job.ExtractedRecipe = edited
		job.ConfidenceOverall = edited.Confidence.Overall
		job.UpdatedAt = time.Now().UTC()

		data, err := encodeRecipe(edited)
		if err != nil {
			return nil, err
		}

		const q = `UPDATE recipe_import_jobs
			SET extracted_recipe_json = $2, confidence_overall = $3, updated_at = $4
			WHERE id = $1`
		if err := repository.ExecExpectOne(ctx, tx, q, job.ID, data, job.ConfidenceOverall, job.UpdatedAt); err != nil {
			return nil, fmt.Errorf("update recipe: %w", err)
		}

		return job, nil
	})
}

func (r *repo) Delete(ctx context.Context, id uuid.UUID, ownerID string) error {
	_, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		job, err := findForUpdate(ctx, tx, id, ownerID)
		if err != nil {
			return struct{}{}, err
		}
		if job.Status == StatusFinalized {
			return struct{}{}, ErrFinalized
		}

		if err := repository.ExecExpectOne(ctx, tx, "DELETE FROM recipe_import_jobs WHERE id = $1", job.ID); err != nil {
			return struct{}{}, fmt.Errorf("delete job: %w", err)
		}

		r.logger.Info("job deleted", "id", job.ID)
		return struct{}{}, nil
	})
	return err
}
