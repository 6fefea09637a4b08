// Package heuristic provides the fallback HTML extractor used when a page
// has no structured recipe data. It keys on heading text to locate the
// ingredient and preparation sections and returns plain line lists.
package heuristic

import (
	"errors"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/receptor-app/receptor/internal/extraction"
)

// ErrNoSections indicates no recognizable recipe sections in the markup.
var ErrNoSections = errors.New("no recipe sections found")

// Confidence is the fixed score assigned to heuristic drafts. Deliberately
// low: downstream logic prefers AI extraction when the heuristic result is
// thin and the source was truncated.
const Confidence = 70

var ingredientHeadings = []string{
	"ingredi", // ingredients, ingrediënten
	"benodigdheden",
	"wat heb je nodig",
}

var instructionHeadings = []string{
	"bereiding",
	"instruct",
	"directions",
	"method",
	"preparation",
	"zo maak je",
	"werkwijze",
	"stappen",
}

// Extract scans the document for heading-delimited ingredient and
// instruction sections.
func Extract(doc string, sourceURL string) (*extraction.Draft, error) {
	root, err := goquery.NewDocumentFromReader(strings.NewReader(doc))
	if err != nil {
		return nil, err
	}

	draft := &extraction.Draft{
		Title:     pageTitle(root),
		ImageURL:  metaImage(root),
		SourceURL: sourceURL,
	}

	root.Find("h1, h2, h3, h4").Each(func(_ int, heading *goquery.Selection) {
		text := strings.ToLower(strings.TrimSpace(heading.Text()))
		switch {
		case matchesAny(text, ingredientHeadings):
			if len(draft.Ingredients) == 0 {
				draft.Ingredients = sectionLines(heading)
			}
		case matchesAny(text, instructionHeadings):
			if len(draft.Instructions) == 0 {
				draft.Instructions = sectionLines(heading)
			}
		}
	})

	if len(draft.Ingredients) == 0 && len(draft.Instructions) == 0 {
		return nil, ErrNoSections
	}
	return draft, nil
}

func matchesAny(text string, keys []string) bool {
	for _, key := range keys {
		if strings.Contains(text, key) {
			return true
		}
	}
	return false
}

// sectionLines collects list items and paragraphs following a heading, up to
// the next heading of equal or higher rank.
func sectionLines(heading *goquery.Selection) []string {
	var lines []string

	for node := heading.Next(); node.Length() > 0; node = node.Next() {
		tag := goquery.NodeName(node)
		if strings.HasPrefix(tag, "h") && len(tag) == 2 {
			break
		}

		switch tag {
		case "ul", "ol":
			node.Find("li").Each(func(_ int, li *goquery.Selection) {
				if line := collapse(li.Text()); line != "" {
					lines = append(lines, line)
				}
			})
		case "p", "div":
			if line := collapse(node.Text()); line != "" {
				lines = append(lines, line)
			}
		}
	}

	return lines
}

func pageTitle(root *goquery.Document) string {
	if title, ok := root.Find(`meta[property="og:title"]`).Attr("content"); ok && strings.TrimSpace(title) != "" {
		return strings.TrimSpace(title)
	}
	if title := collapse(root.Find("h1").First().Text()); title != "" {
		return title
	}
	title := collapse(root.Find("title").First().Text())
	// strip the trailing "| Site Name" suffix title tags usually carry
	if idx := strings.IndexAny(title, "|–"); idx > 0 {
		title = strings.TrimSpace(title[:idx])
	}
	return title
}

func metaImage(root *goquery.Document) string {
	if img, ok := root.Find(`meta[property="og:image"]`).Attr("content"); ok {
		return strings.TrimSpace(img)
	}
	return ""
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
