package ai

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/receptor-app/receptor/internal/extraction"
)

const validReply = `{
	"title": "Pompoensoep",
	"language_detected": "nl",
	"servings": 4,
	"times": {"prep_minutes": 15, "cook_minutes": 30, "total_minutes": 45},
	"ingredients": [
		{"name": "pompoen", "quantity": 1, "unit": "stuk", "note": null, "section": null},
		{"name": "ui", "quantity": 2, "unit": "stuk", "note": null, "section": null}
	],
	"instructions": [
		{"step": 1, "text": "Snijd de pompoen in blokken."},
		{"step": 2, "text": "Kook alles 30 minuten."}
	],
	"confidence": {"overall": 85}
}`

func TestParseResponseDirect(t *testing.T) {
	result := parseResponse(validReply)

	if result.Status != StatusParsed {
		t.Fatalf("Status = %v, want StatusParsed", result.Status)
	}
	if result.Recipe.Title != "Pompoensoep" {
		t.Errorf("Title = %q", result.Recipe.Title)
	}
	if len(result.Recipe.Ingredients) != 2 || len(result.Recipe.Instructions) != 2 {
		t.Errorf("counts = %d/%d, want 2/2",
			len(result.Recipe.Ingredients), len(result.Recipe.Instructions))
	}
	if result.Flags.UsedExtractJSONFromResponse || result.Flags.UsedRepairTruncatedJSON {
		t.Errorf("repair flags set on clean parse: %+v", result.Flags)
	}
}

func TestParseResponseFenced(t *testing.T) {
	raw := "Here is the recipe:\n```json\n" + validReply + "\n```\nLet me know if you need anything else."

	result := parseResponse(raw)
	if result.Status != StatusRepaired {
		t.Fatalf("Status = %v, want StatusRepaired", result.Status)
	}
	if !result.Flags.UsedExtractJSONFromResponse {
		t.Error("UsedExtractJSONFromResponse not set")
	}
	if result.Recipe.Title != "Pompoensoep" {
		t.Errorf("Title = %q", result.Recipe.Title)
	}
}

func TestParseResponseTruncatedMidString(t *testing.T) {
	cut := strings.Index(validReply, "Kook alles")
	raw := validReply[:cut+4]

	result := parseResponse(raw)
	if result.Status != StatusRepaired {
		t.Fatalf("Status = %v, want StatusRepaired (err: %v)", result.Status, result.Err)
	}
	if !result.Flags.UsedRepairTruncatedJSON {
		t.Error("UsedRepairTruncatedJSON not set")
	}
	if result.Flags.AddedMissingClosers == 0 {
		t.Error("AddedMissingClosers = 0, want > 0")
	}
	if result.Recipe.Title != "Pompoensoep" {
		t.Errorf("Title = %q", result.Recipe.Title)
	}
	if len(result.Recipe.Ingredients) != 2 {
		t.Errorf("ingredients = %d, want 2 survivors", len(result.Recipe.Ingredients))
	}
	// the partial second step is either dropped or kept; steps must stay 1-indexed
	for i, step := range result.Recipe.Instructions {
		if step.Step != i+1 {
			t.Errorf("step %d numbered %d", i, step.Step)
		}
	}
}

func TestParseResponseGarbage(t *testing.T) {
	result := parseResponse("I could not find a recipe on this page.")
	if result.Status != StatusUnrecoverable {
		t.Fatalf("Status = %v, want StatusUnrecoverable", result.Status)
	}
	if result.Err == nil {
		t.Error("Err is nil for unrecoverable parse")
	}
}

func TestParseResponseEmptyArraysGetPlaceholders(t *testing.T) {
	raw := `{"title": "Leeg", "ingredients": [], "instructions": [], "confidence": {"overall": 10}}`

	result := parseResponse(raw)
	if result.Status != StatusRepaired {
		t.Fatalf("Status = %v, want StatusRepaired", result.Status)
	}
	if !result.Flags.InjectedPlaceholdersIngredients || !result.Flags.InjectedPlaceholdersInstructions {
		t.Errorf("placeholder flags = %+v", result.Flags)
	}
	if result.Recipe.Ingredients[0].Name != extraction.PlaceholderIngredient {
		t.Errorf("ingredient placeholder = %q", result.Recipe.Ingredients[0].Name)
	}
	if len(result.Recipe.Warnings) != 2 {
		t.Errorf("warnings = %v", result.Recipe.Warnings)
	}
}

func TestDecodeBareStringEntries(t *testing.T) {
	raw := `{
		"title": "Toast",
		"ingredients": ["2 sneetjes brood", "boter"],
		"instructions": ["Rooster het brood.", "Besmeer met boter."],
		"confidence": {"overall": 60}
	}`

	result := parseResponse(raw)
	if result.Status != StatusParsed {
		t.Fatalf("Status = %v, want StatusParsed", result.Status)
	}
	if got := result.Recipe.Ingredients[0].OriginalLine; got != "2 sneetjes brood" {
		t.Errorf("OriginalLine = %q", got)
	}
	if got := result.Recipe.Instructions[1].Step; got != 2 {
		t.Errorf("second step renumbered to %d, want 2", got)
	}
}

func TestCoerceQuantity(t *testing.T) {
	tests := []struct {
		in   any
		want *float64
	}{
		{2.5, ptr(2.5)},
		{"1,5", ptr(1.5)},
		{"2", ptr(2.0)},
		{"een", nil},
		{nil, nil},
	}

	for _, tt := range tests {
		got := coerceQuantity(tt.in)
		switch {
		case got == nil && tt.want != nil:
			t.Errorf("coerceQuantity(%v) = nil, want %v", tt.in, *tt.want)
		case got != nil && tt.want == nil:
			t.Errorf("coerceQuantity(%v) = %v, want nil", tt.in, *got)
		case got != nil && *got != *tt.want:
			t.Errorf("coerceQuantity(%v) = %v, want %v", tt.in, *got, *tt.want)
		}
	}
}

func TestTruncationClass(t *testing.T) {
	var target struct{ X int }
	err := json.Unmarshal([]byte(`{"X": 1`), &target)
	if !truncationClass(err) {
		t.Errorf("truncation not recognized for %v", err)
	}

	err = json.Unmarshal([]byte(`not json`), &target)
	if truncationClass(err) {
		t.Errorf("garbage classified as truncation: %v", err)
	}

	if truncationClass(nil) {
		t.Error("nil error classified as truncation")
	}
}

func ptr[T any](v T) *T { return &v }
