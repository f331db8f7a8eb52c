// Package historypicker is a searchable list of recorded meshes.
package historypicker

import (
	"fmt"
	"strings"

	"meshchat/pkg/history"
	"meshchat/pkg/ui/components/utils"
	"meshchat/pkg/ui/styles"

	tea "charm.land/bubbletea/v2"
)

const maxListHeight = 12

// Model filters entries as the user types and quits once one is chosen.
type Model struct {
	entries  []history.Entry
	filtered []history.Entry
	filter   string
	selected int // index into filtered
	scroll   int
	chosen   *history.Entry
	width    int
	height   int
}

// New creates a picker over entries with an optional initial filter.
func New(entries []history.Entry, initialFilter string) Model {
	m := Model{
		entries: append([]history.Entry(nil), entries...),
		filter:  initialFilter,
	}
	m.applyFilter()
	return m
}

// Chosen returns the entry picked with enter, if any.
func (m Model) Chosen() (history.Entry, bool) {
	if m.chosen == nil {
		return history.Entry{}, false
	}
	return *m.chosen, true
}

// Filtered returns the entries matching the current filter.
func (m Model) Filtered() []history.Entry {
	return m.filtered
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// matches does a case-insensitive substring match on prompt, kind and id.
func matches(e history.Entry, filter string) bool {
	f := strings.ToLower(filter)
	return strings.Contains(strings.ToLower(e.Prompt), f) ||
		strings.Contains(strings.ToLower(e.SourceKind), f) ||
		strings.HasPrefix(strings.ToLower(e.ID), f)
}

func (m *Model) applyFilter() {
	m.selected = 0
	m.scroll = 0
	if m.filter == "" {
		m.filtered = m.entries
		return
	}
	m.filtered = nil
	for _, e := range m.entries {
		if matches(e, m.filter) {
			m.filtered = append(m.filtered, e)
		}
	}
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ensureVisible()
		return m, nil
	case tea.KeyPressMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	listHeight := m.listHeight()

	switch msg.String() {
	case "esc", "ctrl+c":
		return m, tea.Quit

	case "up":
		if m.selected > 0 {
			m.selected--
		}
	case "down":
		if m.selected < len(m.filtered)-1 {
			m.selected++
		}
	case "pgup":
		m.selected = max(m.selected-listHeight, 0)
	case "pgdown":
		m.selected = max(min(m.selected+listHeight, len(m.filtered)-1), 0)
	case "home":
		m.selected = 0
	case "end":
		m.selected = max(len(m.filtered)-1, 0)

	case "enter", "tab":
		if m.selected < len(m.filtered) {
			e := m.filtered[m.selected]
			m.chosen = &e
			return m, tea.Quit
		}
		return m, nil

	case "backspace":
		if m.filter != "" {
			r := []rune(m.filter)
			m.filter = string(r[:len(r)-1])
			m.applyFilter()
		}
	case "ctrl+u":
		if m.filter != "" {
			m.filter = ""
			m.applyFilter()
		}

	default:
		if text := msg.Key().Text; text != "" {
			m.filter += text
			m.applyFilter()
		}
	}

	m.ensureVisible()
	return m, nil
}

// View implements tea.Model.
func (m Model) View() tea.View {
	return tea.NewView(m.Render())
}

// Render draws the picker as a string.
func (m Model) Render() string {
	boxWidth, contentWidth, listHeight := m.dimensions()

	var b strings.Builder
	b.WriteString(styles.TitleStyle.Render("Mesh History"))
	b.WriteString("\n")
	if m.filter != "" {
		b.WriteString(styles.FilterStyle.Render("Filter: " + m.filter))
	} else {
		b.WriteString(styles.TextMutedStyle.Render("Type to search..."))
	}
	b.WriteString("\n\n")

	if len(m.filtered) == 0 {
		if m.filter != "" {
			b.WriteString(styles.TextMutedStyle.Render("No matching meshes"))
		} else {
			b.WriteString(styles.TextMutedStyle.Render("No meshes recorded"))
		}
		b.WriteString("\n")
	}
	for i := 0; i < listHeight && m.scroll+i < len(m.filtered); i++ {
		idx := m.scroll + i
		line := utils.TruncateToWidth("  "+entryLine(m.filtered[idx]), contentWidth)
		if idx == m.selected {
			b.WriteString(styles.SelectedStyle.Render(utils.PadPlain(line, contentWidth)))
		} else {
			b.WriteString(styles.TextStyle.Render(line))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	footer := "↑↓ Navigate | Enter Select | Esc Cancel | Ctrl+U Clear"
	if len(m.filtered) > listHeight {
		footer = fmt.Sprintf("%d/%d | ↑↓ Navigate | PgUp/PgDn Scroll | Enter Select | Esc Cancel", m.selected+1, len(m.filtered))
	}
	b.WriteString(styles.FooterStyle.Render(footer))

	return styles.BoxStyle.Width(boxWidth).Render(b.String())
}

func entryLine(e history.Entry) string {
	id := e.ID
	if len(id) > 8 {
		id = id[:8]
	}
	prompt := utils.SingleLine(e.Prompt)
	if prompt == "" {
		prompt = "(no prompt)"
	}
	return fmt.Sprintf("%s  %-10s %5d tris  %s", id, e.SourceKind, e.Triangles, prompt)
}

func (m *Model) ensureVisible() {
	listHeight := m.listHeight()
	if len(m.filtered) == 0 {
		m.selected, m.scroll = 0, 0
		return
	}
	m.selected = min(max(m.selected, 0), len(m.filtered)-1)
	m.scroll = min(m.scroll, max(len(m.filtered)-listHeight, 0))
	if m.selected < m.scroll {
		m.scroll = m.selected
	}
	if m.selected >= m.scroll+listHeight {
		m.scroll = m.selected - listHeight + 1
	}
}

// dimensions returns box width, content width and list height.
func (m Model) dimensions() (int, int, int) {
	width, height := m.width, m.height
	if width <= 0 {
		width = 80
	}
	if height <= 0 {
		height = 24
	}

	available := max(width-2, 1)
	boxWidth := max(min(available, 100), min(50, available))
	contentWidth := max(boxWidth-4, 1)

	// title, filter, blank, blank, footer
	listHeight := max(height-4-5, 1)
	return boxWidth, contentWidth, min(listHeight, maxListHeight)
}

func (m Model) listHeight() int {
	_, _, h := m.dimensions()
	return h
}
