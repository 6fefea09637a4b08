package ai

import "github.com/receptor-app/receptor/internal/htmlclean"

// Diagnostics is the debug-gated payload describing how an extraction
// attempt went. It carries no recipe content or personal data.
type Diagnostics struct {
	HTML             *htmlclean.Result `json:"html,omitempty"`
	ParseRepair      RepairFlags       `json:"parseRepair"`
	IngredientCount  int               `json:"ingredientCount"`
	InstructionCount int               `json:"instructionCount"`
	ConfidenceOverall *int             `json:"confidence_overall"`
	LanguageDetected *string           `json:"language_detected"`
	Attempt          int               `json:"attempt"`
	RetryReason      string            `json:"retryReason,omitempty"`
}
