// Package extract finds renderable 3D sources inside free-form chat text.
package extract

import (
	"regexp"
	"strings"
)

// Kind tags a Source.
type Kind string

const (
	KindURL        Kind = "url"
	KindInlineText Kind = "inlineText"
)

// Source is either a remote STL address or inline ASCII STL text.
type Source struct {
	Kind    Kind   `json:"kind"`
	Address string `json:"address,omitempty"`
	Body    string `json:"body,omitempty"`
}

// Minimum "facet normal" count for a block to count as STL without any
// other marker.
const minFacetSignals = 4

var (
	urlPattern   = regexp.MustCompile(`(?i)(https?://\S+?\.stl)\b`)
	fencePattern = regexp.MustCompile("```([^\\n`]*)\\n((?s:.*?))```")
	solidLine    = regexp.MustCompile(`(?m)^\s*solid\b`)
)

// Sources scans text in three passes: STL URLs, the first fenced block that
// looks like STL, and, only when no fenced block qualified, the whole
// message. URL sources come first in first-seen order, followed by at most
// one inline source.
func Sources(text string) []Source {
	if text == "" {
		return nil
	}

	var sources []Source
	seen := make(map[string]bool)
	for _, m := range urlPattern.FindAllStringSubmatch(text, -1) {
		u := m[1]
		if seen[u] {
			continue
		}
		seen[u] = true
		sources = append(sources, Source{Kind: KindURL, Address: u})
	}

	if body, ok := firstFencedSTL(text); ok {
		return append(sources, Source{Kind: KindInlineText, Body: body})
	}

	if looksLikeBareSTL(text) {
		sources = append(sources, Source{Kind: KindInlineText, Body: strings.TrimSpace(text)})
	}
	return sources
}

// First returns the source a renderer should display.
func First(text string) (Source, bool) {
	s := Sources(text)
	if len(s) == 0 {
		return Source{}, false
	}
	return s[0], true
}

func firstFencedSTL(text string) (string, bool) {
	for _, m := range fencePattern.FindAllStringSubmatch(text, -1) {
		lang := strings.ToLower(strings.TrimSpace(m[1]))
		body := m[2]
		lower := strings.ToLower(body)

		if lang == "stl" ||
			strings.HasPrefix(lower, "solid") ||
			(strings.Count(lower, "facet normal") >= minFacetSignals && strings.Contains(lower, "vertex")) {
			return strings.TrimSpace(body), true
		}
	}
	return "", false
}

func looksLikeBareSTL(text string) bool {
	lower := strings.ToLower(text)
	facets := strings.Count(lower, "facet normal")
	if solidLine.MatchString(lower) && facets >= 1 {
		return true
	}
	return facets >= minFacetSignals && strings.Contains(lower, "vertex")
}
