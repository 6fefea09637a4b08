package ai

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"github.com/receptor-app/receptor/internal/extraction"
)

// ParseStatus tags the outcome of the response parse chain.
type ParseStatus int

const (
	// StatusParsed: the reply parsed directly as-is.
	StatusParsed ParseStatus = iota
	// StatusRepaired: the reply needed extraction, truncation repair, or
	// placeholder injection; RepairFlags says which.
	StatusRepaired
	// StatusUnrecoverable: no usable recipe could be recovered.
	StatusUnrecoverable
)

// RepairFlags records which recovery mechanisms fired. Field names follow
// the diagnostics payload contract.
type RepairFlags struct {
	UsedExtractJSONFromResponse      bool `json:"usedExtractJsonFromResponse"`
	UsedRepairTruncatedJSON          bool `json:"usedRepairTruncatedJson"`
	AddedMissingClosers              int  `json:"addedMissingClosers"`
	InjectedPlaceholdersIngredients  bool `json:"injectedPlaceholdersIngredients"`
	InjectedPlaceholdersInstructions bool `json:"injectedPlaceholdersInstructions"`
}

// ParseResult is the tagged outcome of parsing one provider reply.
type ParseResult struct {
	Status ParseStatus
	Recipe *extraction.Recipe
	Flags  RepairFlags
	Err    error
}

// parseResponse runs the three-attempt parse chain: direct decode, fence and
// span extraction, then truncation repair. Whatever succeeds is completed
// with placeholder injection so the non-empty invariant always holds.
func parseResponse(raw string) ParseResult {
	var result ParseResult

	recipe, err := decodeRecipe(raw)
	if err != nil {
		if extracted, changed := extractJSON(raw); changed {
			if recipe, err = decodeRecipe(extracted); err == nil {
				result.Flags.UsedExtractJSONFromResponse = true
			} else {
				raw = extracted
			}
		}
	}

	if recipe == nil {
		repaired, added := repairTruncated(raw, errorOffset(err, raw))
		recipe, err = decodeRecipe(repaired)
		if err != nil {
			result.Status = StatusUnrecoverable
			result.Err = err
			return result
		}
		result.Flags.UsedRepairTruncatedJSON = true
		result.Flags.AddedMissingClosers = added
	}

	placeholders := recipe.EnsureNonEmpty()
	result.Flags.InjectedPlaceholdersIngredients = placeholders.Ingredients
	result.Flags.InjectedPlaceholdersInstructions = placeholders.Instructions
	recipe.Renumber()

	result.Recipe = recipe
	if result.Flags.UsedExtractJSONFromResponse ||
		result.Flags.UsedRepairTruncatedJSON ||
		placeholders.Injected() {
		result.Status = StatusRepaired
	} else {
		result.Status = StatusParsed
	}
	return result
}

// errorOffset extracts the byte offset a syntax error reported, so repair
// can truncate exactly where parsing broke.
func errorOffset(err error, raw string) int {
	var syntax *json.SyntaxError
	if errors.As(err, &syntax) && syntax.Offset > 0 {
		return int(syntax.Offset)
	}
	return len(raw)
}

// truncationClass reports whether a parse failure looks like a cut-off
// reply rather than garbage, which is a retry signal.
func truncationClass(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "unexpected end of JSON input") ||
		strings.Contains(msg, "unexpected EOF")
}

// looseRecipe tolerates the shapes providers emit despite the schema: bare
// strings in the ingredient and instruction arrays, and quantities as
// strings.
type looseRecipe struct {
	Title            string             `json:"title"`
	Description      string             `json:"description"`
	LanguageDetected *string            `json:"language_detected"`
	TranslatedTo     *string            `json:"translated_to"`
	Servings         *int               `json:"servings"`
	Times            extraction.Times   `json:"times"`
	Ingredients      []json.RawMessage  `json:"ingredients"`
	Instructions     []json.RawMessage  `json:"instructions"`
	Confidence       extraction.Confidence `json:"confidence"`
	Warnings         []string           `json:"warnings"`
	SourceURL        string             `json:"source_url"`
	ImageURL         string             `json:"image_url"`
}

type looseIngredient struct {
	OriginalLine string  `json:"original_line"`
	Name         string  `json:"name"`
	Quantity     any     `json:"quantity"`
	Unit         *string `json:"unit"`
	Note         *string `json:"note"`
	Section      *string `json:"section"`
}

type looseInstruction struct {
	Step int    `json:"step"`
	Text string `json:"text"`
}

func decodeRecipe(raw string) (*extraction.Recipe, error) {
	var loose looseRecipe
	if err := json.Unmarshal([]byte(raw), &loose); err != nil {
		return nil, err
	}

	recipe := &extraction.Recipe{
		Title:            strings.TrimSpace(loose.Title),
		Description:      strings.TrimSpace(loose.Description),
		LanguageDetected: loose.LanguageDetected,
		TranslatedTo:     loose.TranslatedTo,
		Servings:         loose.Servings,
		Times:            loose.Times,
		Confidence:       loose.Confidence,
		Warnings:         loose.Warnings,
		SourceURL:        loose.SourceURL,
		ImageURL:         loose.ImageURL,
	}

	for _, item := range loose.Ingredients {
		if ing, ok := decodeIngredient(item); ok {
			recipe.Ingredients = append(recipe.Ingredients, ing)
		}
	}
	for _, item := range loose.Instructions {
		if step, ok := decodeInstruction(item); ok {
			recipe.Instructions = append(recipe.Instructions, step)
		}
	}

	return recipe, nil
}

func decodeIngredient(raw json.RawMessage) (extraction.Ingredient, bool) {
	var line string
	if err := json.Unmarshal(raw, &line); err == nil {
		line = strings.TrimSpace(line)
		return extraction.Ingredient{OriginalLine: line, Name: line}, line != ""
	}

	var loose looseIngredient
	if err := json.Unmarshal(raw, &loose); err != nil {
		return extraction.Ingredient{}, false
	}

	name := strings.TrimSpace(loose.Name)
	if name == "" {
		name = strings.TrimSpace(loose.OriginalLine)
	}

	return extraction.Ingredient{
		OriginalLine: strings.TrimSpace(loose.OriginalLine),
		Name:         name,
		Quantity:     coerceQuantity(loose.Quantity),
		Unit:         loose.Unit,
		Note:         loose.Note,
		Section:      loose.Section,
	}, name != ""
}

func decodeInstruction(raw json.RawMessage) (extraction.Instruction, bool) {
	var line string
	if err := json.Unmarshal(raw, &line); err == nil {
		line = strings.TrimSpace(line)
		return extraction.Instruction{Text: line}, line != ""
	}

	var loose looseInstruction
	if err := json.Unmarshal(raw, &loose); err != nil {
		return extraction.Instruction{}, false
	}

	text := strings.TrimSpace(loose.Text)
	return extraction.Instruction{Step: loose.Step, Text: text}, text != ""
}

func coerceQuantity(v any) *float64 {
	switch q := v.(type) {
	case float64:
		return &q
	case string:
		q = strings.ReplaceAll(strings.TrimSpace(q), ",", ".")
		if parsed, err := strconv.ParseFloat(q, 64); err == nil {
			return &parsed
		}
	}
	return nil
}
