package ai

import (
	"context"
	"strings"
)

// Message represents a single chat message for LLM requests.
type Message struct {
	Role    string `json:"role"` // "user" | "assistant" | "system" | "developer"
	Content string `json:"content"`
}

// ChatRequest defines the input to an LLM chat completion.
type ChatRequest struct {
	Model       string
	Messages    []Message
	Temperature *float64
	MaxTokens   *int
}

// ChatResponse is a normalized response from an LLM.
type ChatResponse struct {
	Content string
	Model   string
}

// ChatStream exposes a streaming response interface.
type ChatStream interface {
	Next() bool
	Content() string
	Err() error
	Close() error
}

// Provider defines the LLM interface used by the app.
type Provider interface {
	CreateChatCompletion(ctx context.Context, req ChatRequest) (ChatResponse, error)
	CreateChatCompletionStream(ctx context.Context, req ChatRequest) (ChatStream, error)
}

// Collect drains a stream into one string, handing each delta to onDelta
// when it is non-nil. The stream is closed before returning.
func Collect(stream ChatStream, onDelta func(string)) (string, error) {
	defer stream.Close()

	var sb strings.Builder
	for stream.Next() {
		delta := stream.Content()
		if delta == "" {
			continue
		}
		sb.WriteString(delta)
		if onDelta != nil {
			onDelta(delta)
		}
	}
	return sb.String(), stream.Err()
}
