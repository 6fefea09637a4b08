// Package recipes implements the permanent recipe records and the
// finalization service that materializes a reviewed import job into them.
package recipes

import (
	"time"

	"github.com/google/uuid"
)

// Recipe is a finalized, permanent recipe row.
type Recipe struct {
	ID           uuid.UUID  `json:"id"`
	OwnerID      string     `json:"owner_id"`
	Title        string     `json:"title"`
	Description  *string    `json:"description"`
	Servings     *int       `json:"servings"`
	PrepMinutes  *int       `json:"prep_minutes"`
	CookMinutes  *int       `json:"cook_minutes"`
	TotalMinutes *int       `json:"total_minutes"`
	MealSlot     string     `json:"meal_slot"`
	Language     *string    `json:"language"`
	SourceURL    *string    `json:"source_url"`
	ImageURL     *string    `json:"image_url"`
	CreatedAt    time.Time  `json:"created_at"`
}

// RecipeIngredient is one structured ingredient row of a permanent recipe.
type RecipeIngredient struct {
	ID       uuid.UUID `json:"id"`
	RecipeID uuid.UUID `json:"recipe_id"`
	Position int       `json:"position"`
	Name     string    `json:"name"`
	Quantity *float64  `json:"quantity"`
	Unit     *string   `json:"unit"`
	Note     *string   `json:"note"`
	Section  *string   `json:"section"`
}

// MealSlots accepted by finalization.
var MealSlots = []string{"breakfast", "lunch", "dinner", "snack", "other"}

// ValidMealSlot reports whether slot is an accepted meal slot.
func ValidMealSlot(slot string) bool {
	for _, s := range MealSlots {
		if s == slot {
			return true
		}
	}
	return false
}

// FinalizeResult is the outcome of committing a job.
type FinalizeResult struct {
	RecipeID uuid.UUID `json:"recipe_id"`
}
