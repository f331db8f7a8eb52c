package transcript

import (
	"fmt"
	"log/slog"
	"strings"

	"meshchat/pkg/extract"
	"meshchat/pkg/stl"
	"meshchat/pkg/ui/components/utils"
	"meshchat/pkg/ui/styles"
	"meshchat/pkg/viewer"

	"charm.land/bubbles/v2/viewport"
	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/glamour"
)

const defaultWidth = 80

// Options configures a transcript Model.
type Options struct {
	// Activation is shared with anything else that shows previews. A new
	// one is created when nil.
	Activation *viewer.Activation
	// Fetcher downloads URL sources. Nil disables URL previews.
	Fetcher *stl.Fetcher
	Mesh    stl.Options
}

// activeChangedMsg tells the model to re-read the active viewer id.
type activeChangedMsg struct{}

// Model renders a chat transcript with one preview slot per message that
// carries sources. At most one slot is loaded at a time.
type Model struct {
	entries  []Entry
	slots    []int // entry indices that have a preview slot
	cursor   int   // index into slots
	previews map[string]preview
	active   string

	activation  *viewer.Activation
	activeCh    chan struct{}
	unsubscribe func()
	loader      loader

	renderer *glamour.TermRenderer
	viewport viewport.Model
	offsets  []int // first content line of each entry
	width    int
	height   int
	ready    bool
}

// New builds a Model over entries and subscribes it to the activation.
// Call Close when the program exits.
func New(entries []Entry, opts Options) Model {
	act := opts.Activation
	if act == nil {
		act = viewer.NewActivation()
	}

	m := Model{
		entries:    entries,
		previews:   make(map[string]preview),
		activation: act,
		activeCh:   make(chan struct{}, 1),
		loader:     loader{fetcher: opts.Fetcher, opts: opts.Mesh},
		viewport:   viewport.New(),
		width:      defaultWidth,
	}
	for i, e := range entries {
		if e.HasPreview() {
			m.slots = append(m.slots, i)
		}
	}

	ch := m.activeCh
	m.unsubscribe = act.Subscribe(func(string) {
		select {
		case ch <- struct{}{}:
		default:
		}
	})
	m.renderer = newRenderer(m.width)
	m.refresh()
	return m
}

func newRenderer(width int) *glamour.TermRenderer {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(max(width-4, 20)),
	)
	if err != nil {
		slog.Debug("transcript_renderer_error", "error", err)
		return nil
	}
	return r
}

func waitForActive(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-ch
		return activeChangedMsg{}
	}
}

// Close drops the activation subscription.
func (m Model) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return waitForActive(m.activeCh)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.SetWidth(max(msg.Width-2, 1))
		m.viewport.SetHeight(max(msg.Height-3, 1))
		m.ready = true
		m.renderer = newRenderer(msg.Width)
		m.refresh()
		return m, nil

	case activeChangedMsg:
		cmd := m.syncActive()
		m.refresh()
		return m, tea.Batch(cmd, waitForActive(m.activeCh))

	case previewLoadedMsg:
		p, ok := m.previews[msg.slotID]
		if !ok || p.gen != msg.gen || p.state != previewLoading {
			return m, nil
		}
		if msg.err != nil {
			p.state = previewFailed
			p.err = msg.err
			slog.Debug("transcript_preview_failed", "slot", msg.slotID, "error", msg.err)
		} else {
			p.state = previewLoaded
			p.prepared = msg.prepared
		}
		m.previews[msg.slotID] = p
		m.refresh()
		return m, nil

	case tea.KeyPressMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc", "ctrl+c":
		return m, tea.Quit

	case "down", "j", "tab":
		if m.cursor < len(m.slots)-1 {
			m.cursor++
			m.refresh()
			m.scrollToCursor()
		}
		return m, nil

	case "up", "k", "shift+tab":
		if m.cursor > 0 {
			m.cursor--
			m.refresh()
			m.scrollToCursor()
		}
		return m, nil

	case "enter", "space":
		if id := m.SelectedSlot(); id != "" {
			m.activation.Toggle(id)
		}
		return m, nil

	case "x":
		m.activation.Clear()
		return m, nil
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// syncActive releases the previously active slot and starts loading the
// newly active one when it belongs to this transcript.
func (m *Model) syncActive() tea.Cmd {
	id, _ := m.activation.Active()
	if id == m.active {
		return nil
	}

	if prev, ok := m.previews[m.active]; ok {
		m.previews[m.active] = preview{gen: prev.gen}
	}
	m.active = id

	entry, ok := m.entryForSlot(id)
	if !ok {
		return nil
	}
	p := m.previews[id]
	p.gen++
	p.state = previewLoading
	p.err = nil
	m.previews[id] = p

	src := entry.Result.Sources[0]
	slog.Debug("transcript_preview_load", "slot", id, "kind", src.Kind)
	return m.loader.cmd(id, p.gen, src)
}

func (m Model) entryForSlot(id string) (Entry, bool) {
	if id == "" {
		return Entry{}, false
	}
	for _, i := range m.slots {
		if m.entries[i].SlotID == id {
			return m.entries[i], true
		}
	}
	return Entry{}, false
}

// SelectedSlot returns the slot id under the cursor, or "".
func (m Model) SelectedSlot() string {
	if m.cursor < 0 || m.cursor >= len(m.slots) {
		return ""
	}
	return m.entries[m.slots[m.cursor]].SlotID
}

// ActiveSlot returns the loaded slot id, or "" when none of this
// transcript's slots is active.
func (m Model) ActiveSlot() string {
	if _, ok := m.entryForSlot(m.active); ok {
		return m.active
	}
	return ""
}

func (m *Model) refresh() {
	content, offsets := m.renderEntries()
	m.offsets = offsets
	m.viewport.SetContent(content)
}

func (m *Model) scrollToCursor() {
	if len(m.slots) == 0 || !m.ready {
		return
	}
	line := m.offsets[m.slots[m.cursor]]
	top := m.viewport.YOffset()
	if line < top || line >= top+m.viewport.Height() {
		m.viewport.SetYOffset(line)
	}
}

// View implements tea.Model.
func (m Model) View() tea.View {
	v := tea.NewView(m.Render())
	v.AltScreen = true
	return v
}

// Render draws the transcript as a string.
func (m Model) Render() string {
	var body string
	if m.ready {
		body = m.viewport.View()
	} else {
		body, _ = m.renderEntries()
	}

	footer := fmt.Sprintf("%d messages | %d previews", len(m.entries), len(m.slots))
	if len(m.slots) > 0 {
		footer += " | ↑↓ Select | Enter Toggle preview"
	}
	footer += " | q Quit"
	return body + "\n" + styles.FooterStyle.Render(footer)
}

func (m Model) renderEntries() (string, []int) {
	var b strings.Builder
	offsets := make([]int, len(m.entries))
	lines := 0
	selected := m.SelectedSlot()

	for i, e := range m.entries {
		offsets[i] = lines
		var eb strings.Builder
		eb.WriteString(styles.TitleStyle.Render(roleLabel(e.Message.Role)))
		eb.WriteString("\n")
		eb.WriteString(m.renderMarkdown(e.Message.Content))
		eb.WriteString("\n")

		if e.HasPreview() {
			eb.WriteString(m.renderSlot(e, e.SlotID == selected))
			eb.WriteString("\n")
		}
		if e.Result.Ambiguous {
			eb.WriteString(styles.AdvisoryStyle.Render(extract.AmbiguityAdvisory))
			eb.WriteString("\n")
		}
		eb.WriteString("\n")

		chunk := eb.String()
		lines += strings.Count(chunk, "\n")
		b.WriteString(chunk)
	}
	return strings.TrimRight(b.String(), "\n"), offsets
}

func (m Model) renderMarkdown(content string) string {
	if m.renderer != nil {
		if out, err := m.renderer.Render(content); err == nil {
			return strings.Trim(out, "\n")
		}
	}
	return styles.TextStyle.Render(content)
}

func (m Model) renderSlot(e Entry, selected bool) string {
	width := max(m.width-6, 20)
	src := e.Result.Sources[0]

	label := "inline STL"
	if src.Kind == extract.KindURL {
		label = src.Address
	}
	if n := len(e.Result.Sources); n > 1 {
		label += fmt.Sprintf(" (+%d more)", n-1)
	}
	header := utils.TruncateToWidth("3D preview: "+label, width)

	var status string
	if e.SlotID == m.active {
		p := m.previews[e.SlotID]
		switch p.state {
		case previewLoading:
			status = styles.TextMutedStyle.Render("Loading preview...")
		case previewLoaded:
			status = styles.SuccessStyle.Render(formatStats(p.prepared))
		case previewFailed:
			status = styles.ErrorStyle.Render(previewError(p.err))
		}
	} else {
		status = styles.TextMutedStyle.Render("Press enter to load preview")
	}

	if selected {
		header = styles.SelectedStyle.Render(utils.PadPlain(header, width))
	} else {
		header = styles.LabelStyle.Render(header)
	}
	return styles.PreviewStyle.Render(header + "\n" + status)
}

func roleLabel(role string) string {
	switch role {
	case "user":
		return "You"
	case "system", "developer":
		return "System"
	default:
		return "Assistant"
	}
}
