package extraction

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Schema returns the JSON-Schema constraint for a structured recipe. It is
// sent to the extraction provider as the response contract and used locally
// to validate whatever comes back.
func Schema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []any{"title", "ingredients", "instructions"},
		"properties": map[string]any{
			"title":             map[string]any{"type": "string", "minLength": 1},
			"description":       map[string]any{"type": "string"},
			"language_detected": nullable("string"),
			"translated_to":     nullable("string"),
			"servings":          nullableBounded("integer", 1, 0),
			"times": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"prep_minutes":  nullableBounded("integer", 0, 0),
					"cook_minutes":  nullableBounded("integer", 0, 0),
					"total_minutes": nullableBounded("integer", 0, 0),
				},
			},
			"ingredients": map[string]any{
				"type":     "array",
				"minItems": 1,
				"items": map[string]any{
					"type":     "object",
					"required": []any{"name"},
					"properties": map[string]any{
						"original_line": map[string]any{"type": "string"},
						"name":          map[string]any{"type": "string", "minLength": 1},
						"quantity":      nullable("number"),
						"unit":          nullable("string"),
						"note":          nullable("string"),
						"section":       nullable("string"),
					},
				},
			},
			"instructions": map[string]any{
				"type":     "array",
				"minItems": 1,
				"items": map[string]any{
					"type":     "object",
					"required": []any{"text"},
					"properties": map[string]any{
						"step": map[string]any{"type": "integer", "minimum": 1},
						"text": map[string]any{"type": "string", "minLength": 1},
					},
				},
			},
			"confidence": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"overall": nullableBounded("integer", 0, 100),
					"fields": map[string]any{
						"type":                 "object",
						"additionalProperties": map[string]any{"type": "integer", "minimum": 0, "maximum": 100},
					},
				},
			},
			"warnings": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			},
			"source_url": map[string]any{"type": "string"},
			"image_url":  map[string]any{"type": "string"},
		},
	}
}

func nullable(typ string) map[string]any {
	return map[string]any{"type": []any{typ, "null"}}
}

func nullableBounded(typ string, min, max int) map[string]any {
	prop := map[string]any{"type": []any{typ, "null"}, "minimum": min}
	if max > 0 {
		prop["maximum"] = max
	}
	return prop
}

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func compiled() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		b, err := json.Marshal(Schema())
		if err != nil {
			schemaErr = fmt.Errorf("marshal schema: %w", err)
			return
		}

		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("recipe.json", bytes.NewReader(b)); err != nil {
			schemaErr = fmt.Errorf("add schema resource: %w", err)
			return
		}

		compiledSchema, schemaErr = compiler.Compile("recipe.json")
	})
	return compiledSchema, schemaErr
}

// ValidateJSON validates raw recipe JSON against the schema.
func ValidateJSON(data []byte) error {
	schema, err := compiled()
	if err != nil {
		return err
	}

	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal recipe: %w", err)
	}

	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("%w: %w", ErrSchemaViolation, err)
	}
	return nil
}

// Validate checks the recipe against the schema plus the structural
// invariants the schema cannot express.
func (r *Recipe) Validate() error {
	b, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal recipe: %w", err)
	}
	if err := ValidateJSON(b); err != nil {
		return err
	}

	for i, ing := range r.Ingredients {
		if ing.Name == "" {
			return fmt.Errorf("%w: ingredient %d has no name", ErrSchemaViolation, i)
		}
	}
	for i, step := range r.Instructions {
		if step.Text == "" {
			return fmt.Errorf("%w: instruction %d has no text", ErrSchemaViolation, i)
		}
	}
	return nil
}
