package jobs

import (
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/receptor-app/receptor/internal/extraction"
	"github.com/receptor-app/receptor/pkg/repository"
)

const jobColumns = `id, owner_id, status, source_meta, source_locale, target_locale,
	raw_ocr_text, extracted_recipe_json, original_recipe_json, validation_errors_json,
	confidence_overall, created_at, updated_at, finalized_at, recipe_id`

func scanJob(s repository.Scanner) (Job, error) {
	var (
		j                           Job
		meta                        []byte
		extracted, original, failed []byte
	)

	err := s.Scan(
		&j.ID,
		&j.OwnerID,
		&j.Status,
		&meta,
		&j.SourceLocale,
		&j.TargetLocale,
		&j.RawOCRText,
		&extracted,
		&original,
		&failed,
		&j.ConfidenceOverall,
		&j.CreatedAt,
		&j.UpdatedAt,
		&j.FinalizedAt,
		&j.RecipeID,
	)
	if err != nil {
		return j, err
	}

	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &j.SourceMeta); err != nil {
			return j, fmt.Errorf("decode source meta: %w", err)
		}
	}
	if j.ExtractedRecipe, err = decodeRecipe(extracted); err != nil {
		return j, err
	}
	if j.OriginalRecipe, err = decodeRecipe(original); err != nil {
		return j, err
	}
	if len(failed) > 0 {
		j.ValidationErrors = &Failure{}
		if err := json.Unmarshal(failed, j.ValidationErrors); err != nil {
			return j, fmt.Errorf("decode failure record: %w", err)
		}
	}

	return j, nil
}

func decodeRecipe(data []byte) (*extraction.Recipe, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var r extraction.Recipe
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decode recipe json: %w", err)
	}
	return &r, nil
}

func encodeJSON(v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode json column: %w", err)
	}
	return data, nil
}

// encodeRecipe returns nil for a nil recipe so the column stays NULL.
func encodeRecipe(r *extraction.Recipe) ([]byte, error) {
	if r == nil {
		return nil, nil
	}
	return encodeJSON(r)
}

// StatusFromQuery parses an optional status filter value.
func StatusFromQuery(values url.Values) (*Status, error) {
	raw := values.Get("status")
	if raw == "" {
		return nil, nil
	}
	status := Status(raw)
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
	}
	return &status, nil
}
