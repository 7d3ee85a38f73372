package ai

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	"cvtailor/internal/config"
	"cvtailor/internal/errors"
	"cvtailor/internal/types"

	"google.golang.org/api/googleapi"
	"google.golang.org/genai"
)

// GeminiProvider implements Provider for Google Gemini
type GeminiProvider struct {
	client *genai.Client
	config config.AIConfig
	logger *errors.Logger
}

var _ Provider = (*GeminiProvider)(nil)

// NewGeminiProvider creates the GenAI client when a key is configured. Without
// a key the provider reports IsConfigured() == false and never dials out.
func NewGeminiProvider(ctx context.Context, cfg config.AIConfig, logger *errors.Logger) (*GeminiProvider, error) {
	provider := &GeminiProvider{config: cfg, logger: logger}
	if !cfg.IsConfigured() {
		return provider, nil
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  strings.TrimSpace(cfg.APIKey),
		Backend: genai.BackendGeminiAPI,
	}
	// An empty URL keeps the SDK's public endpoint.
	if cfg.APIURL != "" {
		clientConfig.HTTPOptions.BaseURL = cfg.APIURL
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, errors.NewAIError(errors.ErrCodeAIServiceFailed,
			"Failed to create Gemini client", err)
	}
	provider.client = client
	return provider, nil
}

func (g *GeminiProvider) Name() string       { return config.ProviderGemini }
func (g *GeminiProvider) Model() string      { return g.config.Model }
func (g *GeminiProvider) IsConfigured() bool { return g.client != nil }

// Close releases nothing; the GenAI client holds no closable resources.
func (g *GeminiProvider) Close() error {
	return nil
}

// Generate implements Provider
func (g *GeminiProvider) Generate(ctx context.Context, prompt Prompt) (*Completion, error) {
	if g.client == nil {
		return nil, newNotConfiguredError(g.Name())
	}

	// Penalties are not accepted by every Gemini model; only sampling is sent.
	temperature, topP := g.config.Temperature, g.config.TopP
	genaiConfig := &genai.GenerateContentConfig{
		Temperature:     &temperature,
		TopP:            &topP,
		MaxOutputTokens: int32(g.config.MaxTokens),
	}
	if prompt.System != "" {
		genaiConfig.SystemInstruction = genai.NewContentFromText(prompt.System, genai.RoleUser)
	}

	result, err := g.client.Models.GenerateContent(ctx, g.config.Model, genai.Text(prompt.User), genaiConfig)
	if err != nil {
		return nil, classifyGeminiError(ctx, err)
	}

	text := strings.TrimSpace(result.Text())
	if text == "" {
		return nil, newMalformedError(fmt.Errorf("no text in Gemini response"))
	}

	model := result.ModelVersion
	if model == "" {
		model = g.config.Model
	}

	return &Completion{
		Text:  text,
		Model: model,
		Usage: extractTokenUsage(result),
	}, nil
}

func classifyGeminiError(ctx context.Context, err error) error {
	var apiErr genai.APIError
	if stderrors.As(err, &apiErr) {
		return newStatusError(apiErr.Code, apiErr.Message)
	}

	var googleErr *googleapi.Error
	if stderrors.As(err, &googleErr) {
		return newStatusError(googleErr.Code, googleErr.Message)
	}

	return classifyTransportError(ctx, err)
}

// extractTokenUsage extracts token usage information from Gemini API response
func extractTokenUsage(result *genai.GenerateContentResponse) *types.TokenUsage {
	if result == nil || result.UsageMetadata == nil {
		return nil
	}

	usage := result.UsageMetadata
	return &types.TokenUsage{
		PromptTokens:     int(usage.PromptTokenCount),
		CompletionTokens: int(usage.CandidatesTokenCount),
		TotalTokens:      int(usage.TotalTokenCount),
	}
}
