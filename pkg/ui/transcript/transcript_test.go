package transcript

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"meshchat/pkg/ai"
	"meshchat/pkg/extract"

	"github.com/google/go-cmp/cmp"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		data string
		want []ai.Message
	}{
		{
			name: "array",
			data: `[{"role":"user","content":"make a cube"},{"role":"assistant","content":"sure"}]`,
			want: []ai.Message{{Role: "user", Content: "make a cube"}, {Role: "assistant", Content: "sure"}},
		},
		{
			name: "object",
			data: `{"messages":[{"role":" User ","content":"hi"}]}`,
			want: []ai.Message{{Role: "user", Content: "hi"}},
		},
		{
			name: "blank content and missing role",
			data: `[{"role":"user","content":"  "},{"content":"reply"}]`,
			want: []ai.Message{{Role: "assistant", Content: "reply"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse([]byte(tt.data))
			if err != nil {
				t.Fatalf("Parse() error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Parse() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParse_Errors(t *testing.T) {
	if _, err := Parse([]byte("  ")); !errors.Is(err, ErrEmptyTranscript) {
		t.Errorf("expected ErrEmptyTranscript for blank input, got %v", err)
	}
	if _, err := Parse([]byte(`{"messages":[]}`)); !errors.Is(err, ErrEmptyTranscript) {
		t.Errorf("expected ErrEmptyTranscript for empty list, got %v", err)
	}
	if _, err := Parse([]byte(`[{"role":`)); err == nil {
		t.Error("expected error for malformed JSON")
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chat.json")
	if err := os.WriteFile(path, []byte(`[{"role":"user","content":"hello"}]`), 0o600); err != nil {
		t.Fatal(err)
	}

	msgs, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(msgs) != 1 || msgs[0].Content != "hello" {
		t.Errorf("unexpected messages: %+v", msgs)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestBuildEntries(t *testing.T) {
	entries := BuildEntries([]ai.Message{
		{Role: "user", Content: "make me a triangle"},
		{Role: "assistant", Content: inlineTriangle},
		{Role: "assistant", Content: "the .stl file has a facet normal section"},
	})

	if entries[0].HasPreview() {
		t.Error("plain message should not get a slot")
	}
	if !entries[1].HasPreview() {
		t.Fatal("STL message should get a slot")
	}
	if entries[1].Result.Sources[0].Kind != extract.KindInlineText {
		t.Errorf("expected inline source, got %s", entries[1].Result.Sources[0].Kind)
	}
	if entries[2].HasPreview() || !entries[2].Result.Ambiguous {
		t.Errorf("expected ambiguous message without slot, got %+v", entries[2])
	}
}
