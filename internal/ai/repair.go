package ai

import "strings"

// extractJSON recovers a JSON document from a reply wrapped in markdown
// fences or surrounding prose, by taking the outermost {...} span.
func extractJSON(raw string) (string, bool) {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}

	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end <= start {
		return "", false
	}

	extracted := s[start : end+1]
	return extracted, extracted != raw
}

// repairTruncated salvages JSON cut off mid-document. offset is the byte
// position the parser reported; the text is truncated there, an unterminated
// string is closed, dangling separators are dropped, and every still-open
// brace and bracket is closed by scanning depth while skipping string
// contents. Returns the repaired text and the number of closers added.
func repairTruncated(raw string, offset int) (string, int) {
	if offset <= 0 || offset > len(raw) {
		offset = len(raw)
	}
	b := raw[:offset]

	var stack []byte
	inString := false
	escaped := false

	for i := 0; i < len(b); i++ {
		c := b[i]
		if escaped {
			escaped = false
			continue
		}
		switch {
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{' || c == '[':
			stack = append(stack, c)
		case c == '}':
			if len(stack) > 0 && stack[len(stack)-1] == '{' {
				stack = stack[:len(stack)-1]
			}
		case c == ']':
			if len(stack) > 0 && stack[len(stack)-1] == '[' {
				stack = stack[:len(stack)-1]
			}
		}
	}

	if escaped {
		b = b[:len(b)-1]
	}
	if inString {
		b += `"`
	}

	// a cut right after "key": or a trailing comma leaves invalid syntax
	b = strings.TrimRight(b, " \t\r\n")
	if strings.HasSuffix(b, ",") {
		b = strings.TrimRight(b[:len(b)-1], " \t\r\n")
	}
	if strings.HasSuffix(b, ":") {
		b += "null"
	}

	added := len(stack)
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i] == '{' {
			b += "}"
		} else {
			b += "]"
		}
	}

	return b, added
}
