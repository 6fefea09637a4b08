package normalize

import (
	"regexp"
	"strings"

	"github.com/receptor-app/receptor/internal/extraction"
)

// paragraphStartRe matches an imperative "Title: ..." opener such as
// "Grill de biefstuk: ...": a short capitalized phrase without sentence
// punctuation, terminated by a colon.
var paragraphStartRe = regexp.MustCompile(`^\p{Lu}[^.:!?\n]{0,60}:\s`)

// MergeActivationThreshold is the step count above which instruction lists
// are assumed to be the product of a naive per-sentence split.
const MergeActivationThreshold = 5

// MergeInstructions regroups an over-split instruction list into paragraphs.
// It only activates above the threshold; a step starts a new paragraph only
// when it matches the "Title: " opener pattern, otherwise its text is
// appended to the current paragraph. The merged result replaces the input
// only when it still has at least two entries, so a list without any opener
// patterns, or one that would collapse into a single blob, passes through
// unchanged.
func MergeInstructions(steps []extraction.Instruction, threshold int) []extraction.Instruction {
	if threshold <= 0 {
		threshold = MergeActivationThreshold
	}
	if len(steps) <= threshold {
		return steps
	}

	var merged []extraction.Instruction
	for _, step := range steps {
		text := strings.TrimSpace(step.Text)
		if text == "" {
			continue
		}

		if len(merged) == 0 || paragraphStartRe.MatchString(text) {
			merged = append(merged, extraction.Instruction{
				Step: len(merged) + 1,
				Text: text,
			})
			continue
		}

		last := &merged[len(merged)-1]
		last.Text = last.Text + " " + text
	}

	if len(merged) < 2 {
		return steps
	}
	return merged
}
