// Package styles holds the lipgloss theme shared by the meshchat terminal UIs.
package styles

import (
	"charm.land/lipgloss/v2"
)

// Color palette - ANSI 256 colors
var (
	ColorAccent = lipgloss.Color("141")

	ColorText       = lipgloss.Color("252")
	ColorTextMuted  = lipgloss.Color("245")
	ColorTextBright = lipgloss.Color("15")

	ColorError   = lipgloss.Color("196")
	ColorWarning = lipgloss.Color("214")
	ColorSuccess = lipgloss.Color("42")

	// Gallery model columns
	ColorFlux  = lipgloss.Color("81")
	ColorDalle = lipgloss.Color("213")

	ColorBorder      = lipgloss.Color("141")
	ColorBorderMuted = lipgloss.Color("62")
)

// Panel styles
var (
	// BoxStyle is the rounded frame around a full view
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1)

	// PreviewStyle frames an inline mesh preview slot
	PreviewStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(ColorBorderMuted).
			Padding(0, 1)
)

// Text styles
var (
	TitleStyle = lipgloss.NewStyle().
			Foreground(ColorAccent).
			Bold(true)

	TextStyle = lipgloss.NewStyle().
			Foreground(ColorText)

	TextMutedStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted).
			Italic(true)

	LabelStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted)

	FluxStyle = lipgloss.NewStyle().
			Foreground(ColorFlux)

	DalleStyle = lipgloss.NewStyle().
			Foreground(ColorDalle)

	FilterStyle = lipgloss.NewStyle().
			Foreground(ColorAccent)
)

// Selection
var (
	SelectedStyle = lipgloss.NewStyle().
			Foreground(ColorTextBright).
			Background(ColorAccent).
			Bold(true)
)

// Feedback styles
var (
	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorError)

	// AdvisoryStyle marks text that looks like STL but yielded no source
	AdvisoryStyle = lipgloss.NewStyle().
			Foreground(ColorWarning).
			Italic(true)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(ColorSuccess)

	FooterStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted).
			Italic(true)
)
