package normalize

import (
	"strconv"
	"strings"
)

var vulgarFractions = map[rune]float64{
	'½': 0.5,
	'⅓': 1.0 / 3.0,
	'⅔': 2.0 / 3.0,
	'¼': 0.25,
	'¾': 0.75,
	'⅕': 0.2,
	'⅖': 0.4,
	'⅗': 0.6,
	'⅘': 0.8,
	'⅙': 1.0 / 6.0,
	'⅚': 5.0 / 6.0,
	'⅛': 0.125,
	'⅜': 0.375,
	'⅝': 0.625,
	'⅞': 0.875,
}

// parseQuantity reads a leading quantity from s and returns the value along
// with the remainder of the string. Recognized forms, most specific first:
// mixed numbers ("1 1/2"), ASCII fractions ("3/4"), a number directly
// followed by a vulgar fraction ("1½"), bare vulgar fractions ("½"), and
// decimals with comma or dot ("2,5" / "2.5").
func parseQuantity(s string) (float64, string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, s, false
	}

	if frac, ok := vulgarFractions[firstRune(s)]; ok {
		return frac, s[len(string(firstRune(s))):], true
	}

	// leading number token
	i := 0
	for i < len(s) && (isDigit(s[i]) || s[i] == '.' || s[i] == ',') {
		i++
	}
	if i == 0 {
		return 0, s, false
	}

	token := strings.ReplaceAll(s[:i], ",", ".")
	value, err := strconv.ParseFloat(strings.TrimSuffix(token, "."), 64)
	if err != nil {
		return 0, s, false
	}
	rest := s[i:]

	// number directly followed by a vulgar fraction: "1½"
	if rest != "" {
		if frac, ok := vulgarFractions[firstRune(rest)]; ok {
			return value + frac, rest[len(string(firstRune(rest))):], true
		}
	}

	// ASCII fraction: the token just parsed is the numerator
	if strings.HasPrefix(rest, "/") {
		if den, rem, ok := leadingInt(rest[1:]); ok && den != 0 {
			return value / float64(den), rem, true
		}
	}

	// mixed number: "1 1/2"
	trimmed := strings.TrimLeft(rest, " ")
	if num, after, ok := leadingInt(trimmed); ok && strings.HasPrefix(after, "/") {
		if den, rem, ok := leadingInt(after[1:]); ok && den != 0 {
			return value + float64(num)/float64(den), rem, true
		}
	}

	return value, rest, true
}

func leadingInt(s string) (int, string, bool) {
	i := 0
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	if i == 0 {
		return 0, s, false
	}
	n, err := strconv.Atoi(s[:i])
	if err != nil {
		return 0, s, false
	}
	return n, s[i:], true
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func firstRune(s string) rune {
	for _, r := range s {
		return r
	}
	return 0
}
