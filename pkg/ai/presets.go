package ai

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Preset is a named object-maker request loaded from YAML.
type Preset struct {
	Name       string         `yaml:"name"`
	ObjectType string         `yaml:"object_type"`
	Prompt     string         `yaml:"prompt"`
	Schema     map[string]any `yaml:"schema"`
}

type presetFile struct {
	Presets []Preset `yaml:"presets"`
}

// SchemaJSON returns the preset schema encoded as JSON, or the default
// schema when the preset has none.
func (p Preset) SchemaJSON() (string, error) {
	if len(p.Schema) == 0 {
		return DefaultObjectSchema, nil
	}
	data, err := json.MarshalIndent(p.Schema, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode schema for preset %q: %w", p.Name, err)
	}
	return string(data), nil
}

// Messages builds the object-maker request for the preset. A non-empty
// prompt replaces the preset's own prompt.
func (p Preset) Messages(prompt string) ([]Message, error) {
	schema, err := p.SchemaJSON()
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(prompt) == "" {
		prompt = p.Prompt
	}
	return BuildObjectMessages(p.ObjectType, prompt, schema)
}

// DefaultPreset returns the built-in pizza preset.
func DefaultPreset() Preset {
	return Preset{
		Name:       "default",
		ObjectType: DefaultObjectType,
		Prompt:     DefaultObjectPrompt,
	}
}

// ParsePresets decodes a YAML document of the form `presets: [...]`.
func ParsePresets(data []byte) ([]Preset, error) {
	var file presetFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse presets: %w", err)
	}
	seen := make(map[string]bool, len(file.Presets))
	for i, p := range file.Presets {
		name := strings.TrimSpace(p.Name)
		if name == "" {
			return nil, fmt.Errorf("preset %d has no name", i)
		}
		if seen[name] {
			return nil, fmt.Errorf("duplicate preset %q", name)
		}
		seen[name] = true
		file.Presets[i].Name = name
	}
	return file.Presets, nil
}

// LoadPresets reads presets from a YAML file.
func LoadPresets(path string) ([]Preset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read presets: %w", err)
	}
	return ParsePresets(data)
}

// FindPreset returns the preset with the given name.
func FindPreset(presets []Preset, name string) (Preset, bool) {
	name = strings.TrimSpace(name)
	for _, p := range presets {
		if p.Name == name {
			return p, true
		}
	}
	return Preset{}, false
}
