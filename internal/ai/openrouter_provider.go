package ai

import (
	"context"
	"fmt"
	"strings"

	"cvtailor/internal/config"
	"cvtailor/internal/errors"
	"cvtailor/internal/types"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
)

// OpenRouterProvider talks to an OpenAI-compatible chat completions endpoint
type OpenRouterProvider struct {
	client *resty.Client
	config config.AIConfig
	logger *errors.Logger
}

var _ Provider = (*OpenRouterProvider)(nil)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model            string        `json:"model"`
	Messages         []chatMessage `json:"messages"`
	MaxTokens        int           `json:"max_tokens"`
	Temperature      float32       `json:"temperature"`
	TopP             float32       `json:"top_p"`
	FrequencyPenalty float32       `json:"frequency_penalty"`
	PresencePenalty  float32       `json:"presence_penalty"`
}

// NewOpenRouterProvider builds the HTTP client once; the request deadline
// comes from the caller's context.
func NewOpenRouterProvider(cfg config.AIConfig, logger *errors.Logger) *OpenRouterProvider {
	client := resty.New().
		SetHeader("Content-Type", "application/json").
		SetHeader("HTTP-Referer", cfg.Referer).
		SetHeader("X-Title", cfg.Title).
		SetAuthToken(strings.TrimSpace(cfg.APIKey))

	return &OpenRouterProvider{
		client: client,
		config: cfg,
		logger: logger,
	}
}

func (p *OpenRouterProvider) Name() string       { return config.ProviderOpenRouter }
func (p *OpenRouterProvider) Model() string      { return p.config.Model }
func (p *OpenRouterProvider) IsConfigured() bool { return p.config.IsConfigured() }
func (p *OpenRouterProvider) Close() error       { return nil }

// Generate sends one chat completion request
func (p *OpenRouterProvider) Generate(ctx context.Context, prompt Prompt) (*Completion, error) {
	if !p.IsConfigured() {
		return nil, newNotConfiguredError(p.Name())
	}

	messages := make([]chatMessage, 0, 2)
	if prompt.System != "" {
		messages = append(messages, chatMessage{Role: "system", Content: prompt.System})
	}
	messages = append(messages, chatMessage{Role: "user", Content: prompt.User})

	body := chatRequest{
		Model:            p.config.Model,
		Messages:         messages,
		MaxTokens:        p.config.MaxTokens,
		Temperature:      p.config.Temperature,
		TopP:             p.config.TopP,
		FrequencyPenalty: p.config.FrequencyPenalty,
		PresencePenalty:  p.config.PresencePenalty,
	}

	p.logger.Debug("Sending chat completion request",
		"provider", p.Name(),
		"model", p.config.Model,
		"url", p.config.APIURL,
		"prompt_length", len(prompt.User))

	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(body).
		Post(p.config.APIURL)
	if err != nil {
		return nil, classifyTransportError(ctx, err)
	}

	if !resp.IsSuccess() {
		message := gjson.GetBytes(resp.Body(), "error.message").String()
		return nil, newStatusError(resp.StatusCode(), message)
	}

	return parseChatCompletion(resp.Body(), p.config.Model)
}

// parseChatCompletion reads choices.0.message.content plus the optional
// model and usage fields. A blank message counts as malformed.
func parseChatCompletion(body []byte, requestedModel string) (*Completion, error) {
	if !gjson.ValidBytes(body) {
		return nil, newMalformedError(fmt.Errorf("response body is not valid JSON"))
	}

	parsed := gjson.ParseBytes(body)
	content := parsed.Get("choices.0.message.content")
	if content.Type != gjson.String {
		return nil, newMalformedError(fmt.Errorf("missing choices[0].message.content"))
	}

	text := strings.TrimSpace(content.String())
	if text == "" {
		return nil, newMalformedError(fmt.Errorf("empty completion"))
	}

	completion := &Completion{
		Text:  text,
		Model: parsed.Get("model").String(),
	}
	if completion.Model == "" {
		completion.Model = requestedModel
	}

	if usage := parsed.Get("usage"); usage.IsObject() {
		completion.Usage = &types.TokenUsage{
			PromptTokens:     int(usage.Get("prompt_tokens").Int()),
			CompletionTokens: int(usage.Get("completion_tokens").Int()),
			TotalTokens:      int(usage.Get("total_tokens").Int()),
		}
	}

	return completion, nil
}
