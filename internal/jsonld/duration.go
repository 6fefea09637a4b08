package jsonld

import (
	"strconv"
	"strings"
)

// durationMinutes converts an ISO-8601 duration value (PT30M, PT1H15M, P0DT1H)
// to whole minutes. Seconds are rounded down.
func durationMinutes(v any) (int, bool) {
	s, ok := v.(string)
	if !ok {
		return 0, false
	}

	s = strings.ToUpper(strings.TrimSpace(s))
	if !strings.HasPrefix(s, "P") {
		return 0, false
	}
	s = s[1:]

	var minutes int
	inTime := false
	num := ""

	for _, c := range s {
		switch {
		case c >= '0' && c <= '9' || c == '.':
			num += string(c)
		case c == 'T':
			inTime = true
			num = ""
		default:
			n, err := strconv.ParseFloat(num, 64)
			num = ""
			if err != nil {
				continue
			}
			switch {
			case c == 'D':
				minutes += int(n) * 24 * 60
			case c == 'H' && inTime:
				minutes += int(n * 60)
			case c == 'M' && inTime:
				minutes += int(n)
			case c == 'S' && inTime:
				minutes += int(n) / 60
			}
		}
	}

	if minutes <= 0 {
		return 0, false
	}
	return minutes, true
}
