// Package jobs implements the recipe import job aggregate: the persistent
// record tracking one import attempt end-to-end, and the state machine
// guarding its status transitions.
package jobs

import (
	"encoding/json"
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/receptor-app/receptor/internal/extraction"
)

// Status is the lifecycle state of an import job.
type Status string

const (
	StatusUploaded       Status = "uploaded"
	StatusProcessing     Status = "processing"
	StatusReadyForReview Status = "ready_for_review"
	StatusFailed         Status = "failed"
	StatusFinalized      Status = "finalized"
)

// Valid reports whether s is a known status value.
func (s Status) Valid() bool {
	switch s {
	case StatusUploaded, StatusProcessing, StatusReadyForReview, StatusFailed, StatusFinalized:
		return true
	}
	return false
}

// allowedTransitions is the full transition table. finalized is terminal.
var allowedTransitions = map[Status][]Status{
	StatusUploaded:       {StatusProcessing, StatusFailed},
	StatusProcessing:     {StatusReadyForReview, StatusFailed},
	StatusReadyForReview: {StatusFinalized, StatusFailed},
	StatusFailed:         {StatusUploaded, StatusProcessing},
	StatusFinalized:      {},
}

// CanTransition reports whether moving from s to next is legal. A
// self-transition is always allowed and treated as a no-op by callers.
func (s Status) CanTransition(next Status) bool {
	if s == next {
		return true
	}
	for _, allowed := range allowedTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Job is the aggregate root for one import attempt. Every read and write is
// scoped to OwnerID.
type Job struct {
	ID                uuid.UUID          `json:"id"`
	OwnerID           string             `json:"owner_id"`
	Status            Status             `json:"status"`
	SourceMeta        SourceMeta         `json:"source_image_meta"`
	SourceLocale      *string            `json:"source_locale"`
	TargetLocale      *string            `json:"target_locale"`
	RawOCRText        *string            `json:"raw_ocr_text"`
	ExtractedRecipe   *extraction.Recipe `json:"extracted_recipe_json"`
	OriginalRecipe    *extraction.Recipe `json:"original_recipe_json"`
	ValidationErrors  *Failure           `json:"validation_errors_json"`
	ConfidenceOverall *int               `json:"confidence_overall"`
	CreatedAt         time.Time          `json:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at"`
	FinalizedAt       *time.Time         `json:"finalized_at"`
	RecipeID          *uuid.UUID         `json:"recipe_id"`
}

// Source tags for SourceMeta.Source.
const (
	SourceImageUpload = "image_upload"
	SourceURLImport   = "url_import"
	SourceTextImport  = "text_import"
	SourceBlank       = "blank"
)

// SourceMeta records the provenance of the import: file details for
// uploads, URL details for web imports.
type SourceMeta struct {
	Source             string   `json:"source"`
	Filename           string   `json:"filename,omitempty"`
	SizeBytes          int64    `json:"size_bytes,omitempty"`
	MimeType           string   `json:"mime_type,omitempty"`
	StorageKeys        []string `json:"storage_keys,omitempty"`
	URL                string   `json:"url,omitempty"`
	Domain             string   `json:"domain,omitempty"`
	DiscoveredImageURL string   `json:"discovered_image_url,omitempty"`
}

// Failure is the diagnostic stored on a transition into failed: the stage
// that broke, a sanitized message, and an optional debug payload.
type Failure struct {
	Stage       string          `json:"stage"`
	Message     string          `json:"message"`
	Diagnostics json.RawMessage `json:"diagnostics,omitempty"`
	OccurredAt  time.Time       `json:"occurred_at"`
}

const maxFailureMessageLen = 500

var secretShapedRe = regexp.MustCompile(`(?i)(sk-[A-Za-z0-9_-]{8,}|bearer\s+\S+|api[_-]?key[=:]\s*\S+)`)

// SanitizeMessage redacts secret-shaped substrings and caps the length
// before a provider or transport message is persisted.
func SanitizeMessage(msg string) string {
	msg = secretShapedRe.ReplaceAllString(msg, "[redacted]")
	if len(msg) > maxFailureMessageLen {
		msg = msg[:maxFailureMessageLen] + "…"
	}
	return msg
}

// NewFailure builds a timestamped, sanitized failure record.
func NewFailure(stage, message string, diagnostics json.RawMessage) *Failure {
	return &Failure{
		Stage:       stage,
		Message:     SanitizeMessage(message),
		Diagnostics: diagnostics,
		OccurredAt:  time.Now().UTC(),
	}
}

// Editable reports whether the extracted recipe may still be updated.
func (j *Job) Editable() bool {
	return j.Status == StatusReadyForReview
}
