package extraction

import (
	"errors"
	"testing"
)

func validRecipe() *Recipe {
	overall := 80
	return &Recipe{
		Title: "Pompoensoep",
		Ingredients: []Ingredient{
			{Name: "pompoen"},
			{Name: "ui"},
		},
		Instructions: []Instruction{
			{Step: 1, Text: "Snijd de pompoen."},
			{Step: 2, Text: "Kook 30 minuten."},
		},
		Confidence: Confidence{Overall: &overall},
	}
}

func TestValidateAccepts(t *testing.T) {
	if err := validRecipe().Validate(); err != nil {
		t.Fatalf("valid recipe rejected: %v", err)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Recipe)
	}{
		{"empty title", func(r *Recipe) { r.Title = "" }},
		{"no ingredients", func(r *Recipe) { r.Ingredients = nil }},
		{"no instructions", func(r *Recipe) { r.Instructions = nil }},
		{"nameless ingredient", func(r *Recipe) { r.Ingredients[0].Name = "" }},
		{"textless instruction", func(r *Recipe) { r.Instructions[0].Text = "" }},
		{"confidence out of range", func(r *Recipe) { v := 140; r.Confidence.Overall = &v }},
		{"zero servings", func(r *Recipe) { v := 0; r.Servings = &v }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validRecipe()
			tt.mutate(r)
			if err := r.Validate(); !errors.Is(err, ErrSchemaViolation) {
				t.Errorf("err = %v, want ErrSchemaViolation", err)
			}
		})
	}
}

func TestEnsureNonEmpty(t *testing.T) {
	r := &Recipe{Title: "Leeg"}
	flags := r.EnsureNonEmpty()

	if !flags.Ingredients || !flags.Instructions || !flags.Injected() {
		t.Errorf("flags = %+v", flags)
	}
	if len(r.Ingredients) != 1 || r.Ingredients[0].Name != PlaceholderIngredient {
		t.Errorf("ingredients = %+v", r.Ingredients)
	}
	if len(r.Instructions) != 1 || r.Instructions[0].Text != PlaceholderInstruction {
		t.Errorf("instructions = %+v", r.Instructions)
	}
	if len(r.Warnings) != 2 {
		t.Errorf("warnings = %v", r.Warnings)
	}
	if !r.HasPlaceholders() {
		t.Error("HasPlaceholders = false after injection")
	}

	// second call must not inject twice
	flags = r.EnsureNonEmpty()
	if flags.Injected() || len(r.Ingredients) != 1 {
		t.Error("second EnsureNonEmpty injected again")
	}
}

func TestRenumber(t *testing.T) {
	r := &Recipe{Instructions: []Instruction{
		{Step: 4, Text: "a"},
		{Step: 9, Text: "b"},
		{Step: 1, Text: "c"},
	}}
	r.Renumber()

	for i, step := range r.Instructions {
		if step.Step != i+1 {
			t.Errorf("step %d numbered %d", i, step.Step)
		}
	}
}

func TestCloneIsDeep(t *testing.T) {
	r := validRecipe()
	note := "vers"
	r.Ingredients[0].Note = &note
	r.Confidence.Fields = map[string]int{"title": 90}

	c := r.Clone()
	c.Title = "Anders"
	*c.Ingredients[0].Note = "gedroogd"
	c.Instructions[0].Text = "Iets anders."
	*c.Confidence.Overall = 10
	c.Confidence.Fields["title"] = 1

	if r.Title != "Pompoensoep" {
		t.Error("clone shares Title")
	}
	if *r.Ingredients[0].Note != "vers" {
		t.Error("clone shares ingredient note pointer")
	}
	if r.Instructions[0].Text != "Snijd de pompoen." {
		t.Error("clone shares instruction slice")
	}
	if *r.Confidence.Overall != 80 {
		t.Error("clone shares confidence pointer")
	}
	if r.Confidence.Fields["title"] != 90 {
		t.Error("clone shares confidence map")
	}
}

func TestDraftUsable(t *testing.T) {
	tests := []struct {
		name  string
		draft *Draft
		want  bool
	}{
		{"nil", nil, false},
		{"title only", &Draft{Title: "X"}, false},
		{"ingredients only", &Draft{Ingredients: []string{"ui"}}, false},
		{"title and ingredients", &Draft{Title: "X", Ingredients: []string{"ui"}}, true},
		{"title and instructions", &Draft{Title: "X", Instructions: []string{"Kook."}}, true},
	}

	for _, tt := range tests {
		if got := tt.draft.Usable(); got != tt.want {
			t.Errorf("%s: Usable = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestDraftRecipe(t *testing.T) {
	servings := 4
	d := &Draft{
		Title:        "  Stamppot  ",
		Ingredients:  []string{"1 kg aardappelen", "", "boerenkool"},
		Instructions: []string{"Kook.", "Stamp."},
		Servings:     &servings,
		SourceURL:    "https://x.test/r",
	}

	r := d.Recipe(90)
	if r.Title != "Stamppot" {
		t.Errorf("Title = %q", r.Title)
	}
	if len(r.Ingredients) != 2 {
		t.Errorf("ingredients = %d, want empty lines dropped", len(r.Ingredients))
	}
	if r.Ingredients[0].OriginalLine != "1 kg aardappelen" {
		t.Errorf("OriginalLine = %q", r.Ingredients[0].OriginalLine)
	}
	if r.Instructions[1].Step != 2 {
		t.Errorf("step = %d", r.Instructions[1].Step)
	}
	if r.Confidence.Overall == nil || *r.Confidence.Overall != 90 {
		t.Errorf("Confidence = %v", r.Confidence.Overall)
	}

	// the draft's servings pointer must not be shared
	*r.Servings = 8
	if servings != 4 {
		t.Error("draft servings pointer shared with recipe")
	}
}
