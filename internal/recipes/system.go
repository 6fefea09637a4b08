package recipes

import (
	"context"

	"github.com/google/uuid"
)

// System defines the public contract for recipe finalization and lookup.
type System interface {
	Handler() *Handler

	// Finalize atomically materializes a reviewed job into a permanent
	// recipe. Idempotent: a second call on a finalized job returns the
	// existing recipe id.
	Finalize(ctx context.Context, ownerID string, jobID uuid.UUID, mealSlot string) (*FinalizeResult, error)

	Find(ctx context.Context, id uuid.UUID, ownerID string) (*Recipe, error)
	Ingredients(ctx context.Context, recipeID uuid.UUID, ownerID string) ([]RecipeIngredient, error)
}
