package llm

import (
	"context"
	"errors"
	"strings"
	"sync"

	openai "github.com/sashabaranov/go-openai"
)

// ErrEmptyBaseURL is returned when neither the request nor the provider
// names an API base.
var ErrEmptyBaseURL = errors.New("llm: api base url is required")

// OpenAIProvider implements Provider against any OpenAI-compatible Chat
// Completions API (OpenAI, OpenRouter, vLLM, Ollama). One client is kept per
// base URL.
type OpenAIProvider struct {
	apiKey  string
	baseURL string

	mu      sync.Mutex
	clients map[string]*openai.Client
}

// NewOpenAIProvider creates a provider whose default endpoint is baseURL.
func NewOpenAIProvider(apiKey, baseURL string) *OpenAIProvider {
	return &OpenAIProvider{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		clients: make(map[string]*openai.Client),
	}
}

func (p *OpenAIProvider) Name() string {
	return "openai"
}

func (p *OpenAIProvider) client(baseURL string) (*openai.Client, error) {
	if baseURL == "" {
		baseURL = p.baseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")
	if baseURL == "" {
		return nil, ErrEmptyBaseURL
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if c, ok := p.clients[baseURL]; ok {
		return c, nil
	}
	cfg := openai.DefaultConfig(p.apiKey)
	cfg.BaseURL = baseURL
	c := openai.NewClientWithConfig(cfg)
	p.clients[baseURL] = c
	return c, nil
}

func (p *OpenAIProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	client, err := p.client(req.BaseURL)
	if err != nil {
		return nil, err
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages))
	for _, msg := range req.Messages {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		})
	}

	apiReq := openai.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: float32(req.Temperature),
		TopP:        float32(req.TopP),
	}

	resp, err := client.CreateChatCompletion(ctx, apiReq)
	if err != nil {
		return nil, err
	}

	var content, finishReason string
	if len(resp.Choices) > 0 {
		content = resp.Choices[0].Message.Content
		finishReason = string(resp.Choices[0].FinishReason)
	}

	return &CompletionResponse{
		Content:      content,
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
		Model:        resp.Model,
		FinishReason: finishReason,
	}, nil
}
