// Package jsonld extracts schema.org Recipe records embedded in page markup
// as <script type="application/ld+json"> blocks.
package jsonld

import (
	"encoding/json"
	"errors"
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"github.com/receptor-app/receptor/internal/extraction"
)

// ErrNoRecipe indicates the page carries no usable structured recipe data.
// The caller falls back to heuristic extraction.
var ErrNoRecipe = errors.New("no structured recipe data found")

// Extract scans every JSON-LD script block in the document and returns the
// first Recipe object, in document order, that has a title and either
// ingredients or steps. sourceURL anchors relative image URLs.
func Extract(doc string, sourceURL string) (*extraction.Draft, error) {
	base, _ := url.Parse(sourceURL)

	for _, block := range scriptBlocks(doc) {
		var root any
		if err := json.Unmarshal([]byte(sanitize(block)), &root); err != nil {
			continue
		}

		for _, candidate := range recipeObjects(root) {
			draft := buildDraft(candidate, base, sourceURL)
			if draft.Usable() {
				return draft, nil
			}
		}
	}

	return nil, ErrNoRecipe
}

// scriptBlocks returns the raw contents of every ld+json script element.
func scriptBlocks(doc string) []string {
	var blocks []string

	tokenizer := html.NewTokenizer(strings.NewReader(doc))
	inLdScript := false

	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return blocks
		case html.StartTagToken:
			name, hasAttr := tokenizer.TagName()
			if string(name) != "script" {
				inLdScript = false
				continue
			}
			inLdScript = false
			for hasAttr {
				var key, val []byte
				key, val, hasAttr = tokenizer.TagAttr()
				if string(key) == "type" && strings.Contains(strings.ToLower(string(val)), "ld+json") {
					inLdScript = true
				}
			}
		case html.TextToken:
			if inLdScript {
				blocks = append(blocks, string(tokenizer.Text()))
			}
		case html.EndTagToken:
			inLdScript = false
		}
	}
}

// sanitize strips the wrappers CMSes leave inside script bodies: CDATA
// sections, HTML comments, and stray entity-encoded ampersands.
func sanitize(block string) string {
	s := strings.TrimSpace(block)
	s = strings.TrimPrefix(s, "<!--")
	s = strings.TrimSuffix(s, "-->")
	s = strings.ReplaceAll(s, "<![CDATA[", "")
	s = strings.ReplaceAll(s, "]]>", "")
	s = strings.ReplaceAll(s, "&quot;", `\"`)
	s = strings.ReplaceAll(s, "&amp;", "&")
	return strings.TrimSpace(s)
}

// recipeObjects walks an arbitrary JSON-LD value and collects every object
// whose @type is Recipe, in encounter order. @graph arrays and nested
// containers are searched recursively.
func recipeObjects(v any) []map[string]any {
	var found []map[string]any

	switch node := v.(type) {
	case []any:
		for _, item := range node {
			found = append(found, recipeObjects(item)...)
		}
	case map[string]any:
		if isRecipeType(node["@type"]) {
			found = append(found, node)
		}
		if graph, ok := node["@graph"]; ok {
			found = append(found, recipeObjects(graph)...)
		}
		for key, child := range node {
			if key == "@graph" {
				continue
			}
			switch child.(type) {
			case map[string]any, []any:
				found = append(found, recipeObjects(child)...)
			}
		}
	}

	return found
}

func isRecipeType(v any) bool {
	switch t := v.(type) {
	case string:
		return strings.EqualFold(t, "Recipe")
	case []any:
		for _, item := range t {
			if s, ok := item.(string); ok && strings.EqualFold(s, "Recipe") {
				return true
			}
		}
	}
	return false
}

func buildDraft(obj map[string]any, base *url.URL, sourceURL string) *extraction.Draft {
	draft := &extraction.Draft{
		Title:       asString(obj["name"]),
		Description: asString(obj["description"]),
		SourceURL:   sourceURL,
	}

	draft.Ingredients = stringList(obj["recipeIngredient"])
	if len(draft.Ingredients) == 0 {
		draft.Ingredients = stringList(obj["ingredients"])
	}
	draft.Instructions = instructionList(obj["recipeInstructions"])

	if n, ok := asInt(obj["recipeYield"]); ok && n > 0 {
		draft.Servings = &n
	}
	if m, ok := durationMinutes(obj["prepTime"]); ok {
		draft.PrepMinutes = &m
	}
	if m, ok := durationMinutes(obj["cookTime"]); ok {
		draft.CookMinutes = &m
	}
	if m, ok := durationMinutes(obj["totalTime"]); ok {
		draft.TotalMinutes = &m
	}

	draft.ImageURL = imageURL(obj["image"], base)

	return draft
}

func asString(v any) string {
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	case []any:
		for _, item := range s {
			if str, ok := item.(string); ok && strings.TrimSpace(str) != "" {
				return strings.TrimSpace(str)
			}
		}
	}
	return ""
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(n), true
	case string:
		// yields come as "4", "4 servings", "4-6"
		digits := strings.TrimSpace(n)
		end := 0
		for end < len(digits) && digits[end] >= '0' && digits[end] <= '9' {
			end++
		}
		if end == 0 {
			return 0, false
		}
		total := 0
		for _, c := range digits[:end] {
			total = total*10 + int(c-'0')
		}
		return total, true
	case []any:
		for _, item := range n {
			if parsed, ok := asInt(item); ok {
				return parsed, true
			}
		}
	}
	return 0, false
}

func stringList(v any) []string {
	var out []string
	switch list := v.(type) {
	case string:
		if s := strings.TrimSpace(list); s != "" {
			out = append(out, s)
		}
	case []any:
		for _, item := range list {
			if s, ok := item.(string); ok {
				if s = strings.TrimSpace(s); s != "" {
					out = append(out, s)
				}
			}
		}
	}
	return out
}

// instructionList flattens recipeInstructions, which schema.org allows as
// plain strings, HowToStep objects, or HowToSection objects wrapping
// itemListElement arrays.
func instructionList(v any) []string {
	var out []string

	switch node := v.(type) {
	case string:
		if s := strings.TrimSpace(node); s != "" {
			out = append(out, s)
		}
	case []any:
		for _, item := range node {
			out = append(out, instructionList(item)...)
		}
	case map[string]any:
		if elements, ok := node["itemListElement"]; ok {
			out = append(out, instructionList(elements)...)
			return out
		}
		if s := asString(node["text"]); s != "" {
			out = append(out, s)
		} else if s := asString(node["name"]); s != "" {
			out = append(out, s)
		}
	}

	return out
}
