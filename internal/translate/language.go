package translate

import (
	"strings"

	"github.com/RadhiFadlillah/whatlanggo"
)

// iso3to1 maps the detector's ISO 639-3 codes to the 639-1 locale codes the
// rest of the pipeline uses. Only languages the app meaningfully serves are
// listed; anything else keeps its 639-3 code.
var iso3to1 = map[string]string{
	"eng": "en",
	"nld": "nl",
	"deu": "de",
	"fra": "fr",
	"spa": "es",
	"ita": "it",
	"por": "pt",
	"pol": "pl",
	"tur": "tr",
	"ind": "id",
}

// DetectLocale returns the ISO 639-1 code of the dominant language in text,
// or empty when detection is unreliable.
func DetectLocale(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}

	info := whatlanggo.Detect(text)
	if !info.IsReliable() {
		return ""
	}

	code := whatlanggo.LangToString(info.Lang)
	if short, ok := iso3to1[code]; ok {
		return short
	}
	return code
}

// englishMarkers are common English words that survive in a nominally
// translated line; their presence on a Dutch target flags a line for
// retranslation.
var englishMarkers = []string{
	" the ", " and ", " with ", " until ", " minutes", " heat ", " over ",
	" into ", " about ", " together", "preheat", " bowl", " oven ",
}

// looksEnglish reports whether a line still reads as English. Used to catch
// provider replies that echoed the source line untranslated.
func looksEnglish(line string) bool {
	padded := " " + strings.ToLower(line) + " "
	for _, marker := range englishMarkers {
		if strings.Contains(padded, marker) {
			return true
		}
	}

	info := whatlanggo.Detect(line)
	return info.IsReliable() && whatlanggo.LangToString(info.Lang) == "eng"
}

// matchesLocale reports whether text reads as the given locale.
func matchesLocale(text, locale string) bool {
	detected := DetectLocale(text)
	return detected != "" && detected == locale
}
