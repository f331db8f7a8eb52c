package utils

import (
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"
)

// TruncateToWidth truncates text to width cells, ending in "..." when cut.
// ANSI sequences are preserved.
func TruncateToWidth(text string, width int) string {
	if width <= 0 {
		return ""
	}
	if ansi.StringWidth(text) <= width {
		return text
	}
	if width <= 3 {
		return ansi.Truncate(text, width, "")
	}
	return ansi.Truncate(text, width, "...")
}

// TrimToWidth trims plain text to width cells without an ellipsis.
func TrimToWidth(text string, width int) string {
	if width <= 0 {
		return ""
	}
	var sb strings.Builder
	w := 0
	for _, r := range text {
		rw := runewidth.RuneWidth(r)
		if w+rw > width {
			break
		}
		sb.WriteRune(r)
		w += rw
	}
	return sb.String()
}

// PadPlain pads plain text with spaces to width
func PadPlain(text string, width int) string {
	n := width - runewidth.StringWidth(text)
	if n <= 0 {
		return text
	}
	return text + strings.Repeat(" ", n)
}

// PadStyled pads styled text with spaces to width, ignoring escape codes
func PadStyled(text string, width int) string {
	n := width - lipgloss.Width(text)
	if n <= 0 {
		return text
	}
	return text + strings.Repeat(" ", n)
}

// SingleLine collapses newlines and runs of whitespace into single spaces.
func SingleLine(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
