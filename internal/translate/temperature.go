package translate

import (
	"fmt"
	"regexp"
	"strconv"
)

var fahrenheitRe = regexp.MustCompile(`(\d{2,3})\s*(?:°\s*F|degrees F|° Fahrenheit|Fahrenheit)\b`)

// convertFahrenheit rewrites Fahrenheit oven temperatures in instruction
// text to Celsius, rounded to the nearest 5 degrees.
func convertFahrenheit(text string) string {
	return fahrenheitRe.ReplaceAllStringFunc(text, func(match string) string {
		groups := fahrenheitRe.FindStringSubmatch(match)
		f, err := strconv.Atoi(groups[1])
		if err != nil {
			return match
		}

		c := float64(f-32) * 5 / 9
		rounded := int((c+2.5)/5) * 5
		return fmt.Sprintf("%d°C", rounded)
	})
}
