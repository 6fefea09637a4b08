package extraction

import "strings"

// Draft is the minimally-shaped recipe a non-AI extractor produces from page
// markup, prior to validation against the full Recipe schema. Ingredient and
// instruction entries are plain text lines.
type Draft struct {
	Title        string
	Description  string
	Ingredients  []string
	Instructions []string
	ImageURL     string
	Servings     *int
	PrepMinutes  *int
	CookMinutes  *int
	TotalMinutes *int
	SourceURL    string
}

// Usable reports whether the draft carries enough substance to continue
// without AI extraction: a title plus at least one ingredient or step.
func (d *Draft) Usable() bool {
	return d != nil &&
		strings.TrimSpace(d.Title) != "" &&
		(len(d.Ingredients) > 0 || len(d.Instructions) > 0)
}

// Recipe converts the draft into a Recipe with the given fixed confidence.
// Lines become name-only ingredients and numbered instructions; the
// normalizer refines them afterwards.
func (d *Draft) Recipe(confidence int) *Recipe {
	r := &Recipe{
		Title:       strings.TrimSpace(d.Title),
		Description: strings.TrimSpace(d.Description),
		Servings:    clonePtr(d.Servings),
		Times: Times{
			PrepMinutes:  clonePtr(d.PrepMinutes),
			CookMinutes:  clonePtr(d.CookMinutes),
			TotalMinutes: clonePtr(d.TotalMinutes),
		},
		Confidence: Confidence{Overall: &confidence},
		SourceURL:  d.SourceURL,
		ImageURL:   d.ImageURL,
	}

	for _, line := range d.Ingredients {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		r.Ingredients = append(r.Ingredients, Ingredient{
			OriginalLine: line,
			Name:         line,
		})
	}

	for _, line := range d.Instructions {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		r.Instructions = append(r.Instructions, Instruction{
			Step: len(r.Instructions) + 1,
			Text: line,
		})
	}

	return r
}
