// Package translate implements the post-extraction translation pass. It is
// best-effort: a failure leaves the job usable in its source language.
package translate

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/receptor-app/receptor/internal/ai"
	"github.com/receptor-app/receptor/internal/extraction"
	"github.com/receptor-app/receptor/internal/normalize"
)

// maxRetranslations bounds the concurrent single-line fixup calls.
const maxRetranslations = 4

var localeNames = map[string]string{
	"nl": "Dutch",
	"en": "English",
	"de": "German",
	"fr": "French",
	"es": "Spanish",
	"it": "Italian",
	"pt": "Portuguese",
	"pl": "Polish",
	"tr": "Turkish",
}

// Translator rewrites extracted recipe text into a target language through
// batched provider calls.
type Translator struct {
	provider ai.Provider
	logger   *slog.Logger
}

func New(provider ai.Provider, logger *slog.Logger) *Translator {
	return &Translator{
		provider: provider,
		logger:   logger.With("system", "translate"),
	}
}

// Translate returns a translated copy of the recipe and whether the result
// should be marked as translated. The input recipe is never mutated. Work is
// skipped when the locales already agree or the recipe was translated to the
// target before.
func (t *Translator) Translate(ctx context.Context, recipe *extraction.Recipe, sourceLocale, targetLocale string) (*extraction.Recipe, bool, error) {
	if targetLocale == "" || sourceLocale == targetLocale {
		return recipe, false, nil
	}
	if recipe.TranslatedTo != nil && *recipe.TranslatedTo == targetLocale {
		return recipe, false, nil
	}

	out := recipe.Clone()
	lines, apply := collectLines(out)
	if len(lines) == 0 {
		return recipe, false, nil
	}

	translated, err := t.translateBatch(ctx, lines, targetLocale)
	if err != nil {
		return recipe, false, err
	}

	// a line the provider echoed back in English on a Dutch target gets one
	// single-item retry
	if targetLocale == "nl" {
		if err := t.retranslateEnglish(ctx, translated, targetLocale); err != nil {
			return recipe, false, err
		}
	}

	for i, setter := range apply {
		setter(translated[i])
	}

	if sourceLocale == "en" {
		for i := range out.Instructions {
			out.Instructions[i].Text = convertFahrenheit(out.Instructions[i].Text)
		}
	}

	normalize.ConvertIngredients(out, sourceLocale, targetLocale)

	// never claim a translation happened on unchanged text
	marked := false
	if !matchesLocale(out.Title, sourceLocale) {
		target := targetLocale
		out.TranslatedTo = &target
		marked = true
	}

	t.logger.Info("recipe translated",
		"source", sourceLocale, "target", targetLocale,
		"lines", len(lines), "marked", marked)
	return out, marked, nil
}

// collectLines gathers every translatable string with a setter writing the
// translation back, keeping batch order stable.
func collectLines(r *extraction.Recipe) ([]string, []func(string)) {
	var lines []string
	var apply []func(string)

	add := func(text string, set func(string)) {
		if strings.TrimSpace(text) == "" {
			return
		}
		lines = append(lines, text)
		apply = append(apply, set)
	}

	add(r.Title, func(s string) { r.Title = s })
	add(r.Description, func(s string) { r.Description = s })

	for i := range r.Ingredients {
		ing := &r.Ingredients[i]
		add(ing.Name, func(s string) { ing.Name = s })
		if ing.Note != nil {
			add(*ing.Note, func(s string) { ing.Note = &s })
		}
	}
	for i := range r.Instructions {
		step := &r.Instructions[i]
		add(step.Text, func(s string) { step.Text = s })
	}

	return lines, apply
}

var numberedLineRe = regexp.MustCompile(`^\s*(\d+)[.)]\s*(.*)$`)

// translateBatch sends all lines as one numbered list and maps the reply
// back by index. A reply missing indices is an error; partial application
// would silently mix languages.
func (t *Translator) translateBatch(ctx context.Context, lines []string, targetLocale string) ([]string, error) {
	var b strings.Builder
	for i, line := range lines {
		fmt.Fprintf(&b, "%d. %s\n", i+1, strings.ReplaceAll(line, "\n", " "))
	}

	reply, err := t.provider.Generate(ctx, ai.GenerateRequest{
		Prompt:      batchPrompt(targetLocale, len(lines)) + "\n\n" + b.String(),
		Temperature: 0.1,
	})
	if err != nil {
		return nil, fmt.Errorf("translation call: %w", err)
	}

	out := make([]string, len(lines))
	seen := 0
	for _, raw := range strings.Split(reply, "\n") {
		match := numberedLineRe.FindStringSubmatch(raw)
		if match == nil {
			continue
		}
		idx, err := strconv.Atoi(match[1])
		if err != nil || idx < 1 || idx > len(lines) {
			continue
		}
		if out[idx-1] == "" && strings.TrimSpace(match[2]) != "" {
			out[idx-1] = strings.TrimSpace(match[2])
			seen++
		}
	}

	if seen != len(lines) {
		return nil, fmt.Errorf("translation reply maps %d of %d lines", seen, len(lines))
	}
	return out, nil
}

// retranslateEnglish re-requests individual lines that still read as
// English, bounded-concurrently.
func (t *Translator) retranslateEnglish(ctx context.Context, lines []string, targetLocale string) error {
	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(maxRetranslations)

	for i := range lines {
		if !looksEnglish(lines[i]) {
			continue
		}
		group.Go(func() error {
			reply, err := t.provider.Generate(gctx, ai.GenerateRequest{
				Prompt:      singlePrompt(targetLocale) + "\n\n" + lines[i],
				Temperature: 0.1,
			})
			if err != nil {
				return err
			}
			if reply = strings.TrimSpace(reply); reply != "" {
				lines[i] = reply
			}
			return nil
		})
	}

	return group.Wait()
}

func batchPrompt(targetLocale string, count int) string {
	return fmt.Sprintf(`Translate the following %d numbered lines to %s.
Reply with exactly %d lines in the form "N. translated text" and nothing else.
Keep numbers, quantities and units unchanged. Do not merge or reorder lines.`,
		count, localeName(targetLocale), count)
}

func singlePrompt(targetLocale string) string {
	return fmt.Sprintf("Translate the following line to %s. Reply with the translation only.", localeName(targetLocale))
}

func localeName(code string) string {
	if name, ok := localeNames[code]; ok {
		return name
	}
	return code
}
