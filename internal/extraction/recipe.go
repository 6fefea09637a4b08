// Package extraction defines the structured recipe value produced by the
// import pipeline's extraction stages, along with its validation rules and
// the placeholder mechanics that keep required collections non-empty.
package extraction

// Recipe is the structured result of an extraction stage. Stages produce a
// fresh value and never mutate one they received; editorial changes operate
// on copies via Clone.
type Recipe struct {
	Title            string        `json:"title"`
	Description      string        `json:"description,omitempty"`
	LanguageDetected *string       `json:"language_detected"`
	TranslatedTo     *string       `json:"translated_to"`
	Servings         *int          `json:"servings"`
	Times            Times         `json:"times"`
	Ingredients      []Ingredient  `json:"ingredients"`
	Instructions     []Instruction `json:"instructions"`
	Confidence       Confidence    `json:"confidence"`
	Warnings         []string      `json:"warnings,omitempty"`
	SourceURL        string        `json:"source_url,omitempty"`
	ImageURL         string        `json:"image_url,omitempty"`
}

// Times holds recipe durations in minutes. Nil means unknown.
type Times struct {
	PrepMinutes  *int `json:"prep_minutes"`
	CookMinutes  *int `json:"cook_minutes"`
	TotalMinutes *int `json:"total_minutes"`
}

// Ingredient is a single structured ingredient line.
type Ingredient struct {
	OriginalLine string   `json:"original_line,omitempty"`
	Name         string   `json:"name"`
	Quantity     *float64 `json:"quantity"`
	Unit         *string  `json:"unit"`
	Note         *string  `json:"note"`
	Section      *string  `json:"section"`
}

// Instruction is a single 1-indexed preparation step.
type Instruction struct {
	Step int    `json:"step"`
	Text string `json:"text"`
}

// Confidence carries the model's self-reported extraction confidence,
// overall and per field, on a 0–100 scale.
type Confidence struct {
	Overall *int           `json:"overall"`
	Fields  map[string]int `json:"fields,omitempty"`
}

// Clone returns a deep copy of the recipe.
func (r *Recipe) Clone() *Recipe {
	out := *r

	out.LanguageDetected = clonePtr(r.LanguageDetected)
	out.TranslatedTo = clonePtr(r.TranslatedTo)
	out.Servings = clonePtr(r.Servings)
	out.Times.PrepMinutes = clonePtr(r.Times.PrepMinutes)
	out.Times.CookMinutes = clonePtr(r.Times.CookMinutes)
	out.Times.TotalMinutes = clonePtr(r.Times.TotalMinutes)
	out.Confidence.Overall = clonePtr(r.Confidence.Overall)

	if r.Confidence.Fields != nil {
		out.Confidence.Fields = make(map[string]int, len(r.Confidence.Fields))
		for k, v := range r.Confidence.Fields {
			out.Confidence.Fields[k] = v
		}
	}

	out.Ingredients = make([]Ingredient, len(r.Ingredients))
	for i, ing := range r.Ingredients {
		ing.Quantity = clonePtr(ing.Quantity)
		ing.Unit = clonePtr(ing.Unit)
		ing.Note = clonePtr(ing.Note)
		ing.Section = clonePtr(ing.Section)
		out.Ingredients[i] = ing
	}

	out.Instructions = append([]Instruction(nil), r.Instructions...)
	out.Warnings = append([]string(nil), r.Warnings...)

	return &out
}

// Renumber rewrites instruction steps to a contiguous 1-indexed sequence.
func (r *Recipe) Renumber() {
	for i := range r.Instructions {
		r.Instructions[i].Step = i + 1
	}
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
