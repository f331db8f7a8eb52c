// Package transcript is a terminal chat transcript viewer with inline 3D
// preview slots for messages that carry STL sources.
package transcript

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"meshchat/pkg/ai"
	"meshchat/pkg/extract"
	"meshchat/pkg/viewer"
)

// ErrEmptyTranscript is returned when a transcript holds no messages.
var ErrEmptyTranscript = errors.New("transcript has no messages")

// Entry is one rendered message and its extracted sources.
type Entry struct {
	Message ai.Message
	Result  extract.Result
	// SlotID identifies the preview slot. Empty when the message has no
	// sources.
	SlotID string
}

// HasPreview reports whether the entry gets a preview slot.
func (e Entry) HasPreview() bool {
	return e.SlotID != ""
}

type transcriptFile struct {
	Messages []ai.Message `json:"messages"`
}

// Parse decodes a transcript. Both a bare message array and an object with
// a "messages" field are accepted.
func Parse(data []byte) ([]ai.Message, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, ErrEmptyTranscript
	}

	var msgs []ai.Message
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &msgs); err != nil {
			return nil, fmt.Errorf("parse transcript: %w", err)
		}
	} else {
		var f transcriptFile
		if err := json.Unmarshal(trimmed, &f); err != nil {
			return nil, fmt.Errorf("parse transcript: %w", err)
		}
		msgs = f.Messages
	}

	out := msgs[:0]
	for _, m := range msgs {
		m.Role = strings.ToLower(strings.TrimSpace(m.Role))
		if m.Role == "" {
			m.Role = "assistant"
		}
		if strings.TrimSpace(m.Content) == "" {
			continue
		}
		out = append(out, m)
	}
	if len(out) == 0 {
		return nil, ErrEmptyTranscript
	}
	return out, nil
}

// Load reads and parses the transcript file at path.
func Load(path string) ([]ai.Message, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read transcript: %w", err)
	}
	return Parse(data)
}

// BuildEntries analyzes every message and assigns a slot id to the ones
// with sources.
func BuildEntries(msgs []ai.Message) []Entry {
	entries := make([]Entry, len(msgs))
	for i, m := range msgs {
		entries[i] = Entry{Message: m, Result: extract.Analyze(m.Content)}
		if len(entries[i].Result.Sources) > 0 {
			entries[i].SlotID = viewer.NewID()
		}
	}
	return entries
}
