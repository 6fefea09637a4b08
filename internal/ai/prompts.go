package ai

import "fmt"

// Prompt construction per source type. Every variant mandates one JSON
// object per ingredient and per instruction (never bare strings), explicit
// metric units, and no translation of the source language.

const promptRules = `Return a single JSON object matching the provided schema. Rules:
- Every ingredient is a JSON object with fields original_line, name, quantity, unit, note, section. Never output bare strings.
- Every instruction is a JSON object with fields step and text. Never output bare strings.
- Keep the recipe in its original language. Do not translate anything.
- Convert US volume/weight units to metric: 1 cup = 240 ml, 1 tbsp = 15 ml, 1 tsp = 5 ml, 1 oz = 28 g, 1 lb = 450 g.
- Set quantity and unit to null when a line has none. Preserve the original text in original_line.
- Set language_detected to the ISO 639-1 code of the recipe language.
- Set confidence.overall between 0 and 100 reflecting how complete and certain the extraction is.
- If a field is unknown, use null. Never invent ingredients or steps.`

const promptRulesStrict = `Respond with minified JSON only, no markdown, no commentary.
Keep every ingredient and every instruction. If the response would be too long, drop description, note, section and confidence.fields first, never ingredients or instructions.
` + promptRules

func imagePrompt(strict bool) string {
	rules := promptRules
	if strict {
		rules = promptRulesStrict
	}
	return "Extract the complete recipe from the attached photo(s). " +
		"Read all visible text, including handwriting. Combine multiple photos of the same recipe into one result.\n\n" + rules
}

func htmlPrompt(sourceURL string, strict bool) string {
	rules := promptRules
	if strict {
		rules = promptRulesStrict
	}
	return fmt.Sprintf("Extract the recipe from this web page content (source: %s). "+
		"Ignore navigation, comments, advertising and unrelated recipes.\n\n%s", sourceURL, rules)
}

func textPrompt(strict bool) string {
	rules := promptRules
	if strict {
		rules = promptRulesStrict
	}
	return "Extract the recipe from the following pasted text. " +
		"The text may be unstructured; infer ingredient lines and preparation steps from context.\n\n" + rules
}
