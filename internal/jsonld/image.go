package jsonld

import (
	"net/url"
	"strings"
)

// trackingHosts are analytics endpoints that publish 1x1 pixels under an
// image property. URLs on these hosts are never kept.
var trackingHosts = []string{
	"google-analytics.com",
	"googletagmanager.com",
	"doubleclick.net",
	"facebook.com/tr",
	"pixel.",
	"stats.",
	"analytics.",
}

var imageExtensions = []string{".jpg", ".jpeg", ".png", ".webp", ".gif", ".avif"}

// imageURL picks the first usable image reference from a schema.org image
// value (string, ImageObject, or array of either), resolves it against base,
// and drops anything that looks like a tracking pixel.
func imageURL(v any, base *url.URL) string {
	for _, raw := range imageCandidates(v) {
		resolved := resolveURL(raw, base)
		if resolved == "" || looksLikeTrackingPixel(resolved) {
			continue
		}
		return resolved
	}
	return ""
}

func imageCandidates(v any) []string {
	var out []string
	switch node := v.(type) {
	case string:
		out = append(out, node)
	case []any:
		for _, item := range node {
			out = append(out, imageCandidates(item)...)
		}
	case map[string]any:
		for _, key := range []string{"url", "contentUrl"} {
			if s, ok := node[key].(string); ok {
				out = append(out, s)
			}
		}
	}
	return out
}

func resolveURL(raw string, base *url.URL) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	if base != nil {
		u = base.ResolveReference(u)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	return u.String()
}

// looksLikeTrackingPixel rejects analytics hosts and URLs whose path has no
// image extension while carrying only query parameters.
func looksLikeTrackingPixel(resolved string) bool {
	lower := strings.ToLower(resolved)

	for _, host := range trackingHosts {
		if strings.Contains(lower, host) {
			return true
		}
	}

	u, err := url.Parse(resolved)
	if err != nil {
		return true
	}

	path := strings.ToLower(u.Path)
	for _, ext := range imageExtensions {
		if strings.HasSuffix(path, ext) {
			return false
		}
	}

	// no image extension: keep only when the path itself carries substance
	return u.RawQuery != "" && (path == "" || path == "/")
}
