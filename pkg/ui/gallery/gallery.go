// Package gallery is a terminal browser for Flux vs DALL-E comparison records.
package gallery

import (
	"fmt"
	"os"
	"strings"

	"meshchat/pkg/comparison"
	"meshchat/pkg/ui/components/utils"
	"meshchat/pkg/ui/styles"

	tea "charm.land/bubbletea/v2"
	osc52 "github.com/aymanbagabas/go-osc52/v2"
)

// AllCategories is the pseudo-category that disables filtering.
const AllCategories = "all"

// CopiedMsg reports that a prompt was written to the clipboard.
type CopiedMsg struct {
	Text string
}

// Model browses records a page at a time.
type Model struct {
	records    []comparison.Record
	categories []string
	catIdx     int
	page       int
	perPage    int
	selected   int // index within the current page
	detail     bool
	status     string
	width      int
	height     int

	copyFn func(string) tea.Cmd
}

// New creates a gallery over records. perPage <= 0 uses the default page size.
func New(records []comparison.Record, perPage int) Model {
	if perPage <= 0 {
		perPage = comparison.DefaultPerPage
	}
	return Model{
		records:    records,
		categories: append([]string{AllCategories}, comparison.Categories(records)...),
		page:       1,
		perPage:    perPage,
		copyFn:     copyToClipboard,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case CopiedMsg:
		m.status = "Copied prompt to clipboard"
		return m, nil

	case tea.KeyPressMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	page := m.CurrentPage()
	m.status = ""

	switch msg.String() {
	case "q", "esc", "ctrl+c":
		return m, tea.Quit

	case "right", "l", "pgdown":
		if page.HasNext() {
			m.page++
			m.selected = 0
		}

	case "left", "h", "pgup":
		if page.HasPrev() {
			m.page--
			m.selected = 0
		}

	case "down", "j":
		if m.selected < len(page.Items)-1 {
			m.selected++
		}

	case "up", "k":
		if m.selected > 0 {
			m.selected--
		}

	case "c":
		m.catIdx = (m.catIdx + 1) % len(m.categories)
		m.page = 1
		m.selected = 0

	case "enter":
		m.detail = !m.detail

	case "y":
		if rec, ok := m.Selected(); ok && m.copyFn != nil {
			return m, m.copyFn(rec.Prompt)
		}
	}
	return m, nil
}

// Category returns the active category filter.
func (m Model) Category() string {
	return m.categories[m.catIdx]
}

// CurrentPage returns the visible page after filtering.
func (m Model) CurrentPage() comparison.Page[comparison.Record] {
	return comparison.Paginate(comparison.Filter(m.records, m.Category()), m.page, m.perPage)
}

// Selected returns the highlighted record.
func (m Model) Selected() (comparison.Record, bool) {
	page := m.CurrentPage()
	if m.selected < 0 || m.selected >= len(page.Items) {
		return comparison.Record{}, false
	}
	return page.Items[m.selected], true
}

// View implements tea.Model.
func (m Model) View() tea.View {
	v := tea.NewView(m.Render())
	v.AltScreen = true
	return v
}

// Render draws the gallery as a string.
func (m Model) Render() string {
	width := m.width
	if width <= 0 {
		width = 80
	}
	contentWidth := max(width-4, 20)
	page := m.CurrentPage()

	var b strings.Builder
	b.WriteString(styles.TitleStyle.Render("Flux vs DALL-E"))
	b.WriteString(styles.LabelStyle.Render(fmt.Sprintf("  category: %s", m.Category())))
	b.WriteString("\n\n")

	if len(page.Items) == 0 {
		b.WriteString(styles.TextMutedStyle.Render("No comparisons in this category"))
		b.WriteString("\n")
	}
	for i, rec := range page.Items {
		n := (page.Number-1)*m.perPage + i + 1
		line := fmt.Sprintf("%3d. %s", n, utils.SingleLine(rec.Prompt))
		line = utils.TruncateToWidth(line, contentWidth)
		if i == m.selected {
			b.WriteString(styles.SelectedStyle.Render(utils.PadPlain(line, contentWidth)))
		} else {
			b.WriteString(styles.TextStyle.Render(line))
		}
		b.WriteString("\n")
	}

	if rec, ok := m.Selected(); ok && m.detail {
		b.WriteString("\n")
		b.WriteString(m.renderDetail(rec, contentWidth))
	}

	b.WriteString("\n")
	b.WriteString(styles.FooterStyle.Render(fmt.Sprintf("Page %d/%d | %d items", page.Number, page.TotalPages, page.TotalItems)))
	b.WriteString("\n")
	b.WriteString(styles.FooterStyle.Render("←→ Page | ↑↓ Select | Enter Details | c Category | y Copy | q Quit"))
	if m.status != "" {
		b.WriteString("\n")
		b.WriteString(styles.SuccessStyle.Render(m.status))
	}

	return styles.BoxStyle.Width(width).Render(b.String())
}

func (m Model) renderDetail(rec comparison.Record, width int) string {
	var b strings.Builder
	category := rec.Category
	if rec.OriginalCategory != "" && rec.OriginalCategory != rec.Category {
		category += " (was " + rec.OriginalCategory + ")"
	}
	b.WriteString(styles.LabelStyle.Render("Category: ") + category + "\n")
	b.WriteString(styles.FluxStyle.Render("Flux:   ") + utils.TruncateToWidth(rec.FluxURL, width-8) + "\n")
	b.WriteString(styles.LabelStyle.Render("        "+comparison.DownloadFilename(rec.FluxURL, rec.Prompt, "flux")) + "\n")
	b.WriteString(styles.DalleStyle.Render("DALL-E: ") + utils.TruncateToWidth(rec.DalleURL, width-8) + "\n")
	b.WriteString(styles.LabelStyle.Render("        "+comparison.DownloadFilename(rec.DalleURL, rec.Prompt, "dalle")) + "\n")
	return b.String()
}

func copyToClipboard(text string) tea.Cmd {
	return func() tea.Msg {
		_, _ = fmt.Fprint(os.Stdout, osc52.New(text))
		return CopiedMsg{Text: text}
	}
}
