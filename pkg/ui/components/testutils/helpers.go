package testutils

import (
	tea "charm.land/bubbletea/v2"
)

// NewKeyPressMsg creates a KeyPressMsg from a key code (for special keys)
func NewKeyPressMsg(code rune) tea.KeyPressMsg {
	return tea.KeyPressMsg(tea.Key{Code: code})
}

// NewTextKeyPressMsg creates a KeyPressMsg for text input
func NewTextKeyPressMsg(text string) tea.KeyPressMsg {
	if len(text) == 0 {
		return tea.KeyPressMsg(tea.Key{})
	}
	r := []rune(text)[0]
	return tea.KeyPressMsg(tea.Key{
		Code: r,
		Text: text,
	})
}

// NewCtrlKeyPressMsg creates a ctrl+<char> KeyPressMsg
func NewCtrlKeyPressMsg(char rune) tea.KeyPressMsg {
	return tea.KeyPressMsg(tea.Key{
		Code: char,
		Mod:  tea.ModCtrl,
	})
}

// Common special keys
var (
	TestKeyUp    = NewKeyPressMsg(tea.KeyUp)
	TestKeyDown  = NewKeyPressMsg(tea.KeyDown)
	TestKeyLeft  = NewKeyPressMsg(tea.KeyLeft)
	TestKeyRight = NewKeyPressMsg(tea.KeyRight)
	TestKeyEnter = NewKeyPressMsg(tea.KeyEnter)
	TestKeyEsc   = NewKeyPressMsg(tea.KeyEscape)
	TestKeyCtrlC = NewCtrlKeyPressMsg('c')
)

// Send feeds msgs through update in order and returns the final model and
// the commands each step produced.
func Send(m tea.Model, msgs ...tea.Msg) (tea.Model, []tea.Cmd) {
	cmds := make([]tea.Cmd, 0, len(msgs))
	for _, msg := range msgs {
		var cmd tea.Cmd
		m, cmd = m.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, cmds
}
