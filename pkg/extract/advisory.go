package extract

import "strings"

// AmbiguityAdvisory is shown when text looks like STL but yields no source.
const AmbiguityAdvisory = "Looks like STL text, but it may be incomplete. Wrap it in a fenced block (```stl … ```), or include full facets."

var weakSignals = []string{".stl", "facet normal", "vertex ", "outer loop"}

// SignalCount returns how many weak STL markers appear in text.
func SignalCount(text string) int {
	lower := strings.ToLower(text)
	n := 0
	for _, s := range weakSignals {
		if strings.Contains(lower, s) {
			n++
		}
	}
	return n
}

// LooksAmbiguous reports whether the caller should warn that text resembles
// STL even though no source was extracted from it.
func LooksAmbiguous(text string, sources []Source) bool {
	return len(sources) == 0 && SignalCount(text) >= 2
}

// Result bundles the extracted sources with the advisory flag.
type Result struct {
	Sources   []Source `json:"sources"`
	Ambiguous bool     `json:"ambiguous"`
}

// Analyze runs Sources and LooksAmbiguous together.
func Analyze(text string) Result {
	src := Sources(text)
	return Result{Sources: src, Ambiguous: LooksAmbiguous(text, src)}
}
