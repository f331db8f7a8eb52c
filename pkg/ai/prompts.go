package ai

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// STLSystemPrompt asks the model for exactly one inline ASCII STL body.
const STLSystemPrompt = `You are a 3D modelling assistant. Answer with a short description followed by exactly one fenced code block tagged stl that contains a complete ASCII STL solid.
Every facet must have a facet normal line, an outer loop with three vertex lines, endloop and endfacet. Start the block with "solid <name>" and finish it with "endsolid <name>".
Keep the model small enough to fit in a unit cube and avoid more than 500 facets.`

// ObjectSystemPrompt is the default system prompt for schema-bound objects.
const ObjectSystemPrompt = "You are an object maker. Produce a single JSON object that strictly conforms to the provided JSON Schema. Do not include commentary or markdown. Only return the JSON object."

// Defaults used when no preset is selected.
const (
	DefaultObjectType   = "pizza"
	DefaultObjectPrompt = "make a delicious spicy pizza that respects this schema"
	DefaultObjectSchema = `{
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "name": { "type": "string" },
    "size": { "type": "string", "enum": ["small", "medium", "large"] },
    "crust": { "type": "string" },
    "cheese": { "type": "string" },
    "toppings": { "type": "array", "items": { "type": "string" } }
  },
  "required": ["name", "size", "crust", "cheese", "toppings"]
}`
)

// BuildSTLMessages builds the request for an inline STL answer.
func BuildSTLMessages(prompt string) []Message {
	return []Message{
		{Role: "system", Content: STLSystemPrompt},
		{Role: "user", Content: strings.TrimSpace(prompt)},
	}
}

// BuildObjectMessages builds the object-maker request. The schema must be a
// JSON object; it is re-indented before being sent.
func BuildObjectMessages(objectType, prompt, schema string) ([]Message, error) {
	objectType = strings.TrimSpace(objectType)
	if objectType == "" {
		objectType = DefaultObjectType
	}
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, fmt.Errorf("prompt is required")
	}
	if strings.TrimSpace(schema) == "" {
		schema = DefaultObjectSchema
	}

	var probe map[string]any
	if err := json.Unmarshal([]byte(schema), &probe); err != nil {
		return nil, fmt.Errorf("schema must be a JSON object: %w", err)
	}
	var indented bytes.Buffer
	if err := json.Indent(&indented, []byte(schema), "", "  "); err != nil {
		return nil, fmt.Errorf("format schema: %w", err)
	}

	user := fmt.Sprintf("Object type: %s\n\nJSON Schema:\n%s\n\nRequest: %s", objectType, indented.String(), prompt)
	return []Message{
		{Role: "system", Content: ObjectSystemPrompt},
		{Role: "user", Content: user},
	}, nil
}
