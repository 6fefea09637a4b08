// Package normalize turns free-form ingredient text into structured
// quantity/unit/name values and applies locale-aware unit conversion.
package normalize

import (
	"regexp"
	"strings"

	"github.com/receptor-app/receptor/internal/extraction"
)

var trailingNoteRe = regexp.MustCompile(`\(([^()]*)\)\s*$`)

// Ingredient parses an ingredient's free text into quantity, unit, name, and
// note. An ingredient that already carries both quantity and unit is returned
// unchanged. The original value is never mutated.
func Ingredient(ing extraction.Ingredient) extraction.Ingredient {
	if ing.Quantity != nil && ing.Unit != nil {
		return ing
	}

	line := strings.TrimSpace(ing.OriginalLine)
	if line == "" {
		line = strings.TrimSpace(ing.Name)
	}
	if line == "" {
		return ing
	}

	out := ing
	if out.OriginalLine == "" {
		out.OriginalLine = line
	}

	// trailing parenthetical becomes the note
	if m := trailingNoteRe.FindStringSubmatch(line); m != nil && out.Note == nil {
		if note := strings.TrimSpace(m[1]); note != "" {
			out.Note = &note
		}
		line = strings.TrimSpace(trailingNoteRe.ReplaceAllString(line, ""))
	}

	rest := line
	if out.Quantity == nil {
		if qty, after, ok := parseQuantity(line); ok {
			out.Quantity = &qty
			rest = strings.TrimSpace(after)
		}
	}

	if out.Unit == nil && rest != "" {
		token, remainder := splitToken(rest)
		if canonical, ok := CanonicalUnit(token); ok {
			out.Unit = &canonical
			rest = strings.TrimSpace(remainder)
		}
	}

	if name := strings.TrimSpace(rest); name != "" {
		out.Name = name
	}

	return out
}

// Recipe normalizes every ingredient in place and renumbers instructions.
func Recipe(r *extraction.Recipe) {
	for i := range r.Ingredients {
		r.Ingredients[i] = Ingredient(r.Ingredients[i])
	}
	r.Renumber()
}

func splitToken(s string) (string, string) {
	if i := strings.IndexAny(s, " \t"); i >= 0 {
		return s[:i], s[i+1:]
	}
	return s, ""
}
