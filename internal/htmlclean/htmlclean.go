// Package htmlclean prepares fetched pages for prompting: page chrome is
// stripped, a recipe container is located through a chain of named selector
// strategies, and the remainder is capped to a byte budget keeping both the
// head and the tail of the content.
package htmlclean

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Result carries the cleaned markup plus the diagnostics recorded about how
// it was produced.
type Result struct {
	HTML            string `json:"-"`
	Strategy        string `json:"strategy"`
	MatchedSelector string `json:"matchedSelector,omitempty"`
	BytesBefore     int    `json:"bytesBefore"`
	BytesAfter      int    `json:"bytesAfter"`
	WasTruncated    bool   `json:"wasTruncated"`
	TruncateMode    string `json:"truncateMode,omitempty"`
}

// strategy is a named chain of selectors tried in order; the first selector
// with a match wins.
type strategy struct {
	name      string
	selectors []string
}

var strategies = []strategy{
	{
		name: "recipe-container",
		selectors: []string{
			`[itemtype*="schema.org/Recipe" i]`,
			".wprm-recipe-container",
			".recipe-card",
			".recipe-content",
			"#recipe",
			".recipe",
		},
	},
	{
		name:      "article",
		selectors: []string{"article", "main", `[role="main"]`},
	},
	{
		name:      "body",
		selectors: []string{"body"},
	},
}

var strippedElements = "script, style, noscript, iframe, svg, nav, header, footer, aside, form, button"

// DefaultMaxBytes is the prompt budget for cleaned markup.
const DefaultMaxBytes = 60_000

// Clean reduces the document to its recipe content within maxBytes.
// maxBytes <= 0 means DefaultMaxBytes.
func Clean(doc string, maxBytes int) Result {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}

	result := Result{BytesBefore: len(doc)}

	root, err := goquery.NewDocumentFromReader(strings.NewReader(doc))
	if err != nil {
		result.Strategy = "raw"
		result.HTML = doc
		truncate(&result, maxBytes)
		return result
	}

	root.Find(strippedElements).Remove()

	var content string
	for _, strat := range strategies {
		for _, sel := range strat.selectors {
			node := root.Find(sel).First()
			if node.Length() == 0 {
				continue
			}
			if html, err := goquery.OuterHtml(node); err == nil && strings.TrimSpace(html) != "" {
				content = html
				result.Strategy = strat.name
				result.MatchedSelector = sel
				break
			}
		}
		if content != "" {
			break
		}
	}

	if content == "" {
		result.Strategy = "raw"
		content = doc
	}

	result.HTML = collapseWhitespace(content)
	truncate(&result, maxBytes)
	return result
}

// truncate enforces the byte budget with head+tail retention: instructions
// regularly trail a long ingredient list, so dropping the tail loses them.
func truncate(r *Result, maxBytes int) {
	r.BytesAfter = len(r.HTML)
	if len(r.HTML) <= maxBytes {
		return
	}

	head := maxBytes * 60 / 100
	tail := maxBytes - head - len(truncationMarker)
	if tail < 0 {
		tail = 0
	}

	r.HTML = r.HTML[:head] + truncationMarker + r.HTML[len(r.HTML)-tail:]
	r.WasTruncated = true
	r.TruncateMode = "head-tail"
	r.BytesAfter = len(r.HTML)
}

const truncationMarker = "\n<!-- middle omitted -->\n"

func collapseWhitespace(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	lastSpace := false
	for _, c := range s {
		isSpace := c == ' ' || c == '\t' || c == '\r'
		if isSpace && lastSpace {
			continue
		}
		lastSpace = isSpace
		b.WriteRune(c)
	}
	return b.String()
}
