package extraction

// Placeholder text injected when a stage cannot recover any real entries.
// The invariant "at least one ingredient and one instruction" must hold for
// every recipe accepted into a job; an empty array is never written silently.
const (
	PlaceholderIngredient  = "Geen ingrediënten herkend"
	PlaceholderInstruction = "Geen bereidingsstappen herkend"

	WarnPlaceholderIngredients  = "no ingredients recognized; placeholder inserted"
	WarnPlaceholderInstructions = "no instructions recognized; placeholder inserted"
)

// PlaceholderFlags reports which collections received a sentinel entry.
type PlaceholderFlags struct {
	Ingredients  bool `json:"ingredients"`
	Instructions bool `json:"instructions"`
}

// Injected reports whether any placeholder was inserted.
func (f PlaceholderFlags) Injected() bool {
	return f.Ingredients || f.Instructions
}

// EnsureNonEmpty injects exactly one flagged placeholder entry into each
// empty required collection and records a warning per injection.
func (r *Recipe) EnsureNonEmpty() PlaceholderFlags {
	var flags PlaceholderFlags

	if len(r.Ingredients) == 0 {
		r.Ingredients = []Ingredient{{Name: PlaceholderIngredient}}
		r.Warnings = append(r.Warnings, WarnPlaceholderIngredients)
		flags.Ingredients = true
	}

	if len(r.Instructions) == 0 {
		r.Instructions = []Instruction{{Step: 1, Text: PlaceholderInstruction}}
		r.Warnings = append(r.Warnings, WarnPlaceholderInstructions)
		flags.Instructions = true
	}

	return flags
}

// HasPlaceholders reports whether the recipe still contains a sentinel entry.
func (r *Recipe) HasPlaceholders() bool {
	for _, ing := range r.Ingredients {
		if ing.Name == PlaceholderIngredient {
			return true
		}
	}
	for _, step := range r.Instructions {
		if step.Text == PlaceholderInstruction {
			return true
		}
	}
	return false
}
