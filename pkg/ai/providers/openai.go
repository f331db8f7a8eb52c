package providers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"meshchat/pkg/ai"
	"meshchat/pkg/config"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/packages/ssestream"
)

const compatDefaultTimeout = 60

func init() {
	ai.RegisterProvider(ai.ProviderInfo{
		Type:        ai.ProviderGroq,
		Name:        "Groq",
		Description: "Groq OpenAI-compatible endpoint",
		KeyEnv:      "GROQ_API_KEY",
	}, compatFactory(ai.ProviderGroq))
	ai.RegisterProvider(ai.ProviderInfo{
		Type:        ai.ProviderOpenRouter,
		Name:        "OpenRouter",
		Description: "Access hosted models through the OpenRouter API",
		KeyEnv:      "OPENROUTER_API_KEY",
	}, compatFactory(ai.ProviderOpenRouter))
	ai.RegisterProvider(ai.ProviderInfo{
		Type:        ai.ProviderOpenAI,
		Name:        "OpenAI",
		Description: "Direct OpenAI API access",
		KeyEnv:      "OPENAI_API_KEY",
	}, compatFactory(ai.ProviderOpenAI))
}

// CompatProvider implements the Provider interface for any endpoint speaking
// the OpenAI chat completions protocol.
type CompatProvider struct {
	name               string
	client             openai.Client
	defaultModel       string
	defaultTemperature float64
	defaultMaxTokens   int
}

func compatFactory(providerType ai.ProviderType) ai.ProviderFactory {
	return func(cfg ai.ProviderConfig) (ai.Provider, error) {
		providerCfg, _ := cfg.Config.Provider(string(providerType))
		return NewCompatProvider(string(providerType), providerCfg, nil)
	}
}

// NewCompatProvider creates a provider for the named OpenAI-compatible
// endpoint. A nil httpClient gets one with the configured timeout.
func NewCompatProvider(name string, cfg config.ProviderConfig, httpClient *http.Client) (*CompatProvider, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		slog.Debug("compat_provider_missing_key", "provider", name)
		return nil, fmt.Errorf("%s api_key is required", name)
	}
	if strings.TrimSpace(cfg.APIURL) == "" {
		return nil, fmt.Errorf("%s api_url is required", name)
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, fmt.Errorf("%s model is required", name)
	}

	timeout := cfg.APITimeoutSeconds
	if timeout <= 0 {
		timeout = compatDefaultTimeout
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: time.Duration(timeout) * time.Second}
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(cfg.APIURL),
		option.WithHTTPClient(httpClient),
	}
	if name == config.ProviderOpenRouter {
		opts = append(opts, option.WithHeader("X-Title", "meshchat"))
	}

	slog.Debug("compat_provider_ready",
		"provider", name,
		"api_url", cfg.APIURL,
		"model", cfg.Model,
		"timeout_seconds", timeout,
	)
	return &CompatProvider{
		name:               name,
		client:             openai.NewClient(opts...),
		defaultModel:       cfg.Model,
		defaultTemperature: cfg.Temperature,
		defaultMaxTokens:   cfg.MaxTokens,
	}, nil
}

// CreateChatCompletion sends a non-streaming chat completion request.
func (p *CompatProvider) CreateChatCompletion(ctx context.Context, req ai.ChatRequest) (ai.ChatResponse, error) {
	params, err := p.buildChatParams(req)
	if err != nil {
		return ai.ChatResponse{}, err
	}

	slog.Debug("compat_chat_request",
		"provider", p.name,
		"model", string(params.Model),
		"message_count", len(req.Messages),
	)
	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return ai.ChatResponse{}, err
	}

	content := ""
	if len(resp.Choices) > 0 {
		content = resp.Choices[0].Message.Content
	}

	return ai.ChatResponse{
		Content: content,
		Model:   resp.Model,
	}, nil
}

// CreateChatCompletionStream sends a streaming chat completion request.
func (p *CompatProvider) CreateChatCompletionStream(ctx context.Context, req ai.ChatRequest) (ai.ChatStream, error) {
	params, err := p.buildChatParams(req)
	if err != nil {
		return nil, err
	}

	slog.Debug("compat_chat_stream_request",
		"provider", p.name,
		"model", string(params.Model),
		"message_count", len(req.Messages),
	)
	stream := p.client.Chat.Completions.NewStreaming(ctx, params)
	if err := stream.Err(); err != nil {
		return nil, err
	}

	return &compatStream{stream: stream}, nil
}

func (p *CompatProvider) buildChatParams(req ai.ChatRequest) (openai.ChatCompletionNewParams, error) {
	model := strings.TrimSpace(req.Model)
	if model == "" {
		model = p.defaultModel
	}
	if model == "" {
		return openai.ChatCompletionNewParams{}, fmt.Errorf("model is required")
	}
	if len(req.Messages) == 0 {
		return openai.ChatCompletionNewParams{}, fmt.Errorf("messages are required")
	}

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages))
	for _, msg := range req.Messages {
		param, err := toChatMessageParam(msg)
		if err != nil {
			return openai.ChatCompletionNewParams{}, err
		}
		messages = append(messages, param)
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(model),
		Messages: messages,
	}

	temperature := p.defaultTemperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}
	params.Temperature = openai.Float(temperature)

	maxTokens := p.defaultMaxTokens
	if req.MaxTokens != nil {
		maxTokens = *req.MaxTokens
	}
	if maxTokens > 0 {
		params.MaxTokens = openai.Int(int64(maxTokens))
	}

	return params, nil
}

func toChatMessageParam(msg ai.Message) (openai.ChatCompletionMessageParamUnion, error) {
	role := strings.ToLower(strings.TrimSpace(msg.Role))
	switch role {
	case "system":
		return openai.SystemMessage(msg.Content), nil
	case "user":
		return openai.UserMessage(msg.Content), nil
	case "assistant":
		return openai.AssistantMessage(msg.Content), nil
	case "developer":
		return openai.DeveloperMessage(msg.Content), nil
	default:
		return openai.ChatCompletionMessageParamUnion{}, fmt.Errorf("unsupported role: %s", msg.Role)
	}
}

type compatStream struct {
	stream *ssestream.Stream[openai.ChatCompletionChunk]
}

func (s *compatStream) Next() bool {
	return s.stream.Next()
}

func (s *compatStream) Content() string {
	chunk := s.stream.Current()
	if len(chunk.Choices) == 0 {
		return ""
	}
	return chunk.Choices[0].Delta.Content
}

func (s *compatStream) Err() error {
	return s.stream.Err()
}

func (s *compatStream) Close() error {
	return s.stream.Close()
}

// Ensure interface compliance
var _ ai.Provider = (*CompatProvider)(nil)
