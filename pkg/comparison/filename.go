package comparison

import (
	"net/url"
	"regexp"
	"strings"
)

const maxFilenamePrompt = 48

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// SanitizeSegment lowercases value and collapses anything outside [a-z0-9]
// into single dashes, trimming dashes at both ends.
func SanitizeSegment(value string) string {
	s := nonSlug.ReplaceAllString(strings.ToLower(value), "-")
	return strings.Trim(s, "-")
}

// DownloadFilename builds "<label>-<prompt>.<ext>" for an image URL. The
// extension comes from the URL path and defaults to png.
func DownloadFilename(rawURL, prompt, label string) string {
	ext := "png"
	if u, err := url.Parse(rawURL); err == nil && u.Scheme != "" {
		path := u.Path
		if dot := strings.LastIndex(path, "."); dot != -1 && dot < len(path)-1 {
			ext = path[dot+1:]
		}
	}

	base := SanitizeSegment(prompt)
	if len(base) > maxFilenamePrompt {
		base = base[:maxFilenamePrompt]
	}
	if base == "" {
		base = "artwork"
	}

	prefix := ""
	if l := SanitizeSegment(label); l != "" {
		prefix = l + "-"
	}
	return prefix + base + "." + ext
}
