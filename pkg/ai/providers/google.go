package providers

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"strings"
	"time"

	"meshchat/pkg/ai"

	"google.golang.org/genai"
)

const (
	googleDefaultModel   = "gemini-3-flash-preview"
	googleDefaultTimeout = 60
)

func init() {
	ai.RegisterProvider(ai.ProviderInfo{
		Type:        ai.ProviderGoogle,
		Name:        "Google",
		Description: "Google AI (Gemini) API access",
		KeyEnv:      "GEMINI_API_KEY",
	}, NewGoogleProvider)
}

type googleModels interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	GenerateContentStream(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) iter.Seq2[*genai.GenerateContentResponse, error]
}

var newGoogleClient = func(ctx context.Context, cfg *genai.ClientConfig) (*genai.Client, error) {
	return genai.NewClient(ctx, cfg)
}

// GoogleProvider implements the Provider interface using the Gemini SDK.
type GoogleProvider struct {
	models      googleModels
	model       string
	temperature float64
	maxTokens   int
	timeout     time.Duration
}

// NewGoogleProvider creates a new Google provider from config.
func NewGoogleProvider(cfg ai.ProviderConfig) (ai.Provider, error) {
	pc := cfg.Config.Providers.Google

	apiKey := strings.TrimSpace(pc.APIKey)
	if apiKey == "" {
		slog.Debug("google_provider_missing_key")
		return nil, fmt.Errorf("google api_key is required")
	}

	model := strings.TrimSpace(pc.Model)
	if model == "" {
		model = googleDefaultModel
	}
	timeoutSeconds := pc.APITimeoutSeconds
	if timeoutSeconds <= 0 {
		timeoutSeconds = googleDefaultTimeout
	}

	client, err := newGoogleClient(context.Background(), &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create google client: %w", err)
	}

	slog.Debug("google_provider_ready", "model", model, "timeout_seconds", timeoutSeconds)
	return &GoogleProvider{
		models:      client.Models,
		model:       model,
		temperature: pc.Temperature,
		maxTokens:   pc.MaxTokens,
		timeout:     time.Duration(timeoutSeconds) * time.Second,
	}, nil
}

// CreateChatCompletion sends a non-streaming chat completion request.
func (p *GoogleProvider) CreateChatCompletion(ctx context.Context, req ai.ChatRequest) (ai.ChatResponse, error) {
	model, contents, gc, err := p.buildRequest(req)
	if err != nil {
		return ai.ChatResponse{}, err
	}

	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	resp, err := p.models.GenerateContent(ctx, model, contents, gc)
	if err != nil {
		return ai.ChatResponse{}, err
	}
	return ai.ChatResponse{Content: visibleText(resp), Model: model}, nil
}

// CreateChatCompletionStream sends a streaming chat completion request.
func (p *GoogleProvider) CreateChatCompletionStream(ctx context.Context, req ai.ChatRequest) (ai.ChatStream, error) {
	model, contents, gc, err := p.buildRequest(req)
	if err != nil {
		return nil, err
	}

	ctx, cancel := p.withTimeout(ctx)
	return newGoogleStream(p.models.GenerateContentStream(ctx, model, contents, gc), cancel), nil
}

func (p *GoogleProvider) buildRequest(req ai.ChatRequest) (string, []*genai.Content, *genai.GenerateContentConfig, error) {
	model := strings.TrimSpace(req.Model)
	if model == "" {
		model = p.model
	}
	if model == "" {
		return "", nil, nil, fmt.Errorf("model is required")
	}
	if len(req.Messages) == 0 {
		return "", nil, nil, fmt.Errorf("messages are required")
	}

	contents, instructions := splitMessages(req.Messages)
	if len(contents) == 0 {
		return "", nil, nil, fmt.Errorf("at least one user or assistant message is required")
	}

	temperature := p.temperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}
	maxTokens := p.maxTokens
	if req.MaxTokens != nil {
		maxTokens = *req.MaxTokens
	}

	gc := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(temperature)),
		ThinkingConfig: &genai.ThinkingConfig{
			IncludeThoughts: false,
			ThinkingBudget:  genai.Ptr(int32(0)),
		},
	}
	if len(instructions) > 0 {
		gc.SystemInstruction = genai.NewContentFromText(strings.Join(instructions, "\n\n"), "")
	}
	if maxTokens > 0 {
		gc.MaxOutputTokens = int32(maxTokens)
	}
	return model, contents, gc, nil
}

// splitMessages moves system and developer messages into the system
// instruction; assistant turns become model turns and everything else user.
func splitMessages(msgs []ai.Message) ([]*genai.Content, []string) {
	contents := make([]*genai.Content, 0, len(msgs))
	var system, developer []string
	for _, msg := range msgs {
		switch strings.ToLower(strings.TrimSpace(msg.Role)) {
		case "system":
			if text := strings.TrimSpace(msg.Content); text != "" {
				system = append(system, text)
			}
		case "developer":
			if text := strings.TrimSpace(msg.Content); text != "" {
				developer = append(developer, text)
			}
		case "assistant":
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleUser))
		}
	}
	return contents, append(system, developer...)
}

func (p *GoogleProvider) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if _, ok := ctx.Deadline(); ok || p.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, p.timeout)
}

type googleChunk struct {
	delta string
	err   error
}

// googleStream adapts the SDK iterator to ChatStream. Gemini may send either
// incremental or cumulative text, so each chunk is reduced to its new suffix.
type googleStream struct {
	chunks  chan googleChunk
	current string
	err     error
	done    bool
	cancel  context.CancelFunc
}

func newGoogleStream(seq iter.Seq2[*genai.GenerateContentResponse, error], cancel context.CancelFunc) *googleStream {
	s := &googleStream{chunks: make(chan googleChunk, 32), cancel: cancel}
	go func() {
		defer close(s.chunks)
		var seen string
		for resp, err := range seq {
			if err != nil {
				s.chunks <- googleChunk{err: err}
				return
			}
			text := visibleText(resp)
			if text == "" {
				continue
			}
			delta := text
			if strings.HasPrefix(text, seen) {
				delta = text[len(seen):]
				seen = text
			} else {
				seen += delta
			}
			if delta != "" {
				s.chunks <- googleChunk{delta: delta}
			}
		}
	}()
	return s
}

func (s *googleStream) Next() bool {
	if s.done {
		return false
	}
	for c := range s.chunks {
		if c.err != nil {
			s.err = c.err
			s.done = true
			return false
		}
		s.current = c.delta
		return true
	}
	s.done = true
	return false
}

func (s *googleStream) Content() string {
	return s.current
}

func (s *googleStream) Err() error {
	return s.err
}

func (s *googleStream) Close() error {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	if !s.done {
		for range s.chunks {
		}
		s.done = true
	}
	return nil
}

var _ ai.Provider = (*GoogleProvider)(nil)

func visibleText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part == nil || part.Thought {
			continue
		}
		sb.WriteString(part.Text)
	}
	return sb.String()
}
