package normalize

import (
	"testing"

	"github.com/receptor-app/receptor/internal/extraction"
)

func TestIngredientParsing(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		wantQty  *float64
		wantUnit *string
		wantName string
		wantNote *string
	}{
		{
			name:     "dutch teaspoon",
			line:     "1/2 theelepel kurkumapoeder",
			wantQty:  f(0.5),
			wantUnit: s("tl"),
			wantName: "kurkumapoeder",
		},
		{
			name:     "tablespoon abbreviation",
			line:     "2 tbl olijfolie",
			wantQty:  f(2),
			wantUnit: s("el"),
			wantName: "olijfolie",
		},
		{
			name:     "vulgar fraction",
			line:     "½ citroen",
			wantQty:  f(0.5),
			wantName: "citroen",
		},
		{
			name:     "mixed number",
			line:     "1 1/2 kg aardappelen",
			wantQty:  f(1.5),
			wantUnit: s("kg"),
			wantName: "aardappelen",
		},
		{
			name:     "number with vulgar fraction",
			line:     "1½ el boter",
			wantQty:  f(1.5),
			wantUnit: s("el"),
			wantName: "boter",
		},
		{
			name:     "comma decimal",
			line:     "2,5 dl slagroom",
			wantQty:  f(2.5),
			wantUnit: s("dl"),
			wantName: "slagroom",
		},
		{
			name:     "trailing parenthetical to note",
			line:     "200 g feta (verkruimeld)",
			wantQty:  f(200),
			wantUnit: s("g"),
			wantName: "feta",
			wantNote: s("verkruimeld"),
		},
		{
			name:     "clove alias",
			line:     "2 teentjes knoflook",
			wantQty:  f(2),
			wantUnit: s("teen"),
			wantName: "knoflook",
		},
		{
			name:     "no quantity",
			line:     "verse peterselie",
			wantName: "verse peterselie",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Ingredient(extraction.Ingredient{OriginalLine: tt.line})

			if !eqF(got.Quantity, tt.wantQty) {
				t.Errorf("Quantity = %v, want %v", deref(got.Quantity), deref(tt.wantQty))
			}
			if !eqS(got.Unit, tt.wantUnit) {
				t.Errorf("Unit = %v, want %v", deref(got.Unit), deref(tt.wantUnit))
			}
			if got.Name != tt.wantName {
				t.Errorf("Name = %q, want %q", got.Name, tt.wantName)
			}
			if !eqS(got.Note, tt.wantNote) {
				t.Errorf("Note = %v, want %v", deref(got.Note), deref(tt.wantNote))
			}
		})
	}
}

func TestIngredientAlreadyStructured(t *testing.T) {
	in := extraction.Ingredient{
		Name:     "bloem",
		Quantity: f(250),
		Unit:     s("g"),
	}

	got := Ingredient(in)
	if got.Name != "bloem" || *got.Quantity != 250 || *got.Unit != "g" {
		t.Errorf("structured ingredient changed: %+v", got)
	}
}

func TestCanonicalUnit(t *testing.T) {
	tests := []struct {
		token  string
		want   string
		wantOK bool
	}{
		{"tsp", "tl", true},
		{"eetlepels", "el", true},
		{"Gr.", "g", true},
		{"cups", "cup", true},
		{"snufje", "snuf", true},
		{"handvol", "handvol", false},
	}

	for _, tt := range tests {
		got, ok := CanonicalUnit(tt.token)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("CanonicalUnit(%q) = (%q, %v), want (%q, %v)", tt.token, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestToMetric(t *testing.T) {
	tests := []struct {
		qty      float64
		unit     string
		wantQty  float64
		wantUnit string
	}{
		{1, "cup", 240, "ml"},
		{0.5, "cup", 120, "ml"},
		{4, "oz", 112, "g"},
		{2, "lb", 900, "g"},
		{3, "el", 3, "el"},
	}

	for _, tt := range tests {
		gotQty, gotUnit := ToMetric(tt.qty, tt.unit)
		if gotQty != tt.wantQty || gotUnit != tt.wantUnit {
			t.Errorf("ToMetric(%v, %q) = (%v, %q), want (%v, %q)",
				tt.qty, tt.unit, gotQty, gotUnit, tt.wantQty, tt.wantUnit)
		}
	}
}

func TestConvertIngredientsSpoonsEnglishOnly(t *testing.T) {
	recipe := func() *extraction.Recipe {
		return &extraction.Recipe{
			Ingredients: []extraction.Ingredient{
				{Name: "olijfolie", Quantity: f(2), Unit: s("el")},
				{Name: "suiker", Quantity: f(1), Unit: s("cup")},
			},
		}
	}

	r := recipe()
	ConvertIngredients(r, "en", "nl")
	if *r.Ingredients[0].Unit != "ml" || *r.Ingredients[0].Quantity != 30 {
		t.Errorf("english tablespoon = %v %v, want 30 ml", *r.Ingredients[0].Quantity, *r.Ingredients[0].Unit)
	}
	if *r.Ingredients[1].Unit != "ml" || *r.Ingredients[1].Quantity != 240 {
		t.Errorf("cup = %v %v, want 240 ml", *r.Ingredients[1].Quantity, *r.Ingredients[1].Unit)
	}

	r = recipe()
	ConvertIngredients(r, "nl", "nl")
	if *r.Ingredients[0].Unit != "el" {
		t.Errorf("dutch el converted to %v, want el", *r.Ingredients[0].Unit)
	}
	if *r.Ingredients[1].Unit != "ml" {
		t.Errorf("cup in dutch source = %v, want ml", *r.Ingredients[1].Unit)
	}

	r = recipe()
	ConvertIngredients(r, "en", "en")
	if *r.Ingredients[1].Unit != "cup" {
		t.Errorf("non-metric target converted cup to %v", *r.Ingredients[1].Unit)
	}
}

func TestMergeInstructionsBelowThreshold(t *testing.T) {
	steps := []extraction.Instruction{
		{Step: 1, Text: "Snijd de ui."},
		{Step: 2, Text: "Bak de ui glazig."},
	}

	got := MergeInstructions(steps, 5)
	if len(got) != 2 {
		t.Errorf("got %d steps, want 2 unchanged", len(got))
	}
}

func TestMergeInstructionsNoOpeners(t *testing.T) {
	steps := make([]extraction.Instruction, 8)
	for i := range steps {
		steps[i] = extraction.Instruction{Step: i + 1, Text: "doe iets."}
	}

	got := MergeInstructions(steps, 5)
	if len(got) != 8 {
		t.Errorf("got %d steps, want 8 unchanged when no paragraph openers exist", len(got))
	}
}

func TestMergeInstructionsRegroups(t *testing.T) {
	steps := []extraction.Instruction{
		{Step: 1, Text: "Voorbereiding: was de groenten."},
		{Step: 2, Text: "Snijd alles in blokjes."},
		{Step: 3, Text: "Zet apart."},
		{Step: 4, Text: "Bereiding: verhit de olie."},
		{Step: 5, Text: "Bak de groenten 5 minuten."},
		{Step: 6, Text: "Serveren: verdeel over borden."},
	}

	got := MergeInstructions(steps, 5)
	if len(got) != 3 {
		t.Fatalf("got %d paragraphs, want 3", len(got))
	}
	if got[0].Text != "Voorbereiding: was de groenten. Snijd alles in blokjes. Zet apart." {
		t.Errorf("first paragraph = %q", got[0].Text)
	}
	if got[1].Step != 2 || got[2].Step != 3 {
		t.Errorf("paragraphs not renumbered: %d, %d", got[1].Step, got[2].Step)
	}
}

func TestIsMetricLocale(t *testing.T) {
	if IsMetricLocale("en") {
		t.Error("en should not be metric")
	}
	if !IsMetricLocale("nl") {
		t.Error("nl should be metric")
	}
	if !IsMetricLocale("ja") {
		t.Error("unknown locales should default to metric")
	}
}

func f(v float64) *float64 { return &v }
func s(v string) *string   { return &v }

func eqF(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	diff := *a - *b
	return diff < 0.0001 && diff > -0.0001
}

func eqS(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func deref[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}
