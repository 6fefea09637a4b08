package normalize

import (
	"math"

	"github.com/receptor-app/receptor/internal/extraction"
)

// metricConversion maps a US unit to its metric equivalent. Factors follow
// common Dutch kitchen practice rather than exact legal definitions.
type metricConversion struct {
	unit   string
	factor float64
}

var usToMetric = map[string]metricConversion{
	UnitCup:   {UnitMilliliter, 240},
	UnitOunce: {UnitGram, 28},
	UnitPound: {UnitGram, 450},
}

// spoonToMetric is applied only for English-language sources: a Dutch "el"
// stays an "el", but a translated American tablespoon becomes ~15 ml.
var spoonToMetric = map[string]metricConversion{
	UnitTablespoon: {UnitMilliliter, 15},
	UnitTeaspoon:   {UnitMilliliter, 5},
}

// ToMetric converts a quantity/unit pair to metric. Units without a
// conversion are returned unchanged. Results are rounded to one decimal.
func ToMetric(quantity float64, unit string) (float64, string) {
	conv, ok := usToMetric[unit]
	if !ok {
		return quantity, unit
	}
	return round1(quantity * conv.factor), conv.unit
}

// ConvertIngredients rewrites US quantity/unit pairs to metric across the
// recipe. Spoon measures are converted only when the source language is
// English. No-op when the target locale is not metric.
func ConvertIngredients(r *extraction.Recipe, sourceLocale, targetLocale string) {
	if !IsMetricLocale(targetLocale) {
		return
	}

	english := len(sourceLocale) >= 2 && sourceLocale[:2] == "en"

	for i := range r.Ingredients {
		ing := &r.Ingredients[i]
		if ing.Quantity == nil || ing.Unit == nil {
			continue
		}

		if conv, ok := usToMetric[*ing.Unit]; ok {
			q := round1(*ing.Quantity * conv.factor)
			u := conv.unit
			ing.Quantity, ing.Unit = &q, &u
			continue
		}

		if english {
			if conv, ok := spoonToMetric[*ing.Unit]; ok {
				q := round1(*ing.Quantity * conv.factor)
				u := conv.unit
				ing.Quantity, ing.Unit = &q, &u
			}
		}
	}
}

// MetricLocales lists the locale prefixes whose users expect metric units.
var MetricLocales = map[string]bool{
	"nl": true,
	"de": true,
	"fr": true,
	"es": true,
	"it": true,
	"en": false,
}

// IsMetricLocale reports whether the given language code expects metric
// units. Unknown locales default to metric; only English-style sources opt out.
func IsMetricLocale(locale string) bool {
	if len(locale) >= 2 {
		if metric, ok := MetricLocales[locale[:2]]; ok {
			return metric
		}
	}
	return true
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
