package recipes

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/receptor-app/receptor/pkg/repository"
)

type repo struct {
	db     *sql.DB
	logger *slog.Logger
}

// New creates a recipe repository implementing the System interface.
func New(db *sql.DB, logger *slog.Logger) System {
	return &repo{
		db:     db,
		logger: logger.With("system", "recipes"),
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger)
}

// Finalize delegates the entire commit to the finalize_import_job stored
// procedure: recipe row, ingredient rows, and the job's finalized
// transition happen in one transaction or not at all. Failure reasons come
// back as prefixed messages parsed into typed errors.
func (r *repo) Finalize(ctx context.Context, ownerID string, jobID uuid.UUID, mealSlot string) (*FinalizeResult, error) {
	if ownerID == "" {
		return nil, ErrAuth
	}
	if !ValidMealSlot(mealSlot) {
		return nil, fmt.Errorf("%w: unknown meal slot %q", ErrValidation, mealSlot)
	}

	var recipeID uuid.UUID
	err := r.db.QueryRowContext(ctx,
		"SELECT finalize_import_job($1, $2, $3)",
		jobID, ownerID, mealSlot,
	).Scan(&recipeID)
	if err != nil {
		if msg := repository.RaisedMessage(err); msg != "" {
			return nil, parseRaisedError(msg)
		}
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}

	r.logger.Info("job finalized", "job", jobID, "recipe", recipeID)
	return &FinalizeResult{RecipeID: recipeID}, nil
}

const recipeColumns = `id, owner_id, title, description, servings,
	prep_minutes, cook_minutes, total_minutes, meal_slot, language,
	source_url, image_url, created_at`

func (r *repo) Find(ctx context.Context, id uuid.UUID, ownerID string) (*Recipe, error) {
	query := fmt.Sprintf("SELECT %s FROM recipes WHERE id = $1", recipeColumns)
	recipe, err := repository.QueryOne(ctx, r.db, query, []any{id}, scanRecipe)
	if err != nil {
		return nil, repository.MapError(fmt.Errorf("find recipe: %w", err), ErrNotFound, ErrDuplicate)
	}
	if recipe.OwnerID != ownerID {
		return nil, ErrForbidden
	}
	return &recipe, nil
}

func (r *repo) Ingredients(ctx context.Context, recipeID uuid.UUID, ownerID string) ([]RecipeIngredient, error) {
	if _, err := r.Find(ctx, recipeID, ownerID); err != nil {
		return nil, err
	}

	const q = `SELECT id, recipe_id, position, name, quantity, unit, note, section
		FROM recipe_ingredients WHERE recipe_id = $1 ORDER BY position`
	items, err := repository.QueryMany(ctx, r.db, q, []any{recipeID}, scanIngredient)
	if err != nil {
		return nil, fmt.Errorf("query ingredients: %w", err)
	}
	return items, nil
}

func scanRecipe(s repository.Scanner) (Recipe, error) {
	var rec Recipe
	err := s.Scan(
		&rec.ID,
		&rec.OwnerID,
		&rec.Title,
		&rec.Description,
		&rec.Servings,
		&rec.PrepMinutes,
		&rec.CookMinutes,
		&rec.TotalMinutes,
		&rec.MealSlot,
		&rec.Language,
		&rec.SourceURL,
		&rec.ImageURL,
		&rec.CreatedAt,
	)
	return rec, err
}

func scanIngredient(s repository.Scanner) (RecipeIngredient, error) {
	var ing RecipeIngredient
	err := s.Scan(
		&ing.ID,
		&ing.RecipeID,
		&ing.Position,
		&ing.Name,
		&ing.Quantity,
		&ing.Unit,
		&ing.Note,
		&ing.Section,
	)
	return ing, err
}
