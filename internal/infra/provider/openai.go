package provider

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	openai "github.com/sashabaranov/go-openai"

	"claimcheck/internal/domain/entity"
)

// OpenAIConfig holds configuration parameters for the OpenAI provider.
type OpenAIConfig struct {
	// Model is the OpenAI API model identifier.
	Model string

	// MaxTokens is the maximum number of tokens for the API response.
	MaxTokens int

	// Timeout is the maximum duration for a single verification API call.
	Timeout time.Duration

	// RequestsPerSecond paces outbound calls to the API.
	RequestsPerSecond float64
}

// DefaultOpenAIConfig returns the default OpenAI provider configuration.
func DefaultOpenAIConfig() OpenAIConfig {
	return OpenAIConfig{
		Model:             openai.GPT4oMini,
		MaxTokens:         1024,
		Timeout:           30 * time.Second,
		RequestsPerSecond: 2.0,
	}
}

// OpenAI verifies claims using OpenAI's chat completion API.
type OpenAI struct {
	name   string
	client *openai.Client
	config OpenAIConfig
	pacer  *pacer
}

// NewOpenAI creates a new OpenAI provider with the given API key.
func NewOpenAI(name, apiKey string, cfg OpenAIConfig) *OpenAI {
	if cfg.Model == "" {
		cfg = DefaultOpenAIConfig()
	}

	slog.Info("initialized openai provider",
		slog.String("provider", name),
		slog.String("model", cfg.Model))

	return &OpenAI{
		name:   name,
		client: openai.NewClient(apiKey),
		config: cfg,
		pacer:  newPacer(cfg.RequestsPerSecond, 3),
	}
}

// Name returns the provider's registry name.
func (o *OpenAI) Name() string {
	return o.name
}

// Verify evaluates the claim with one chat completion call.
func (o *OpenAI) Verify(ctx context.Context, claim entity.Claim) (entity.ProviderCallResult, error) {
	ctx, cancel := context.WithTimeout(ctx, o.config.Timeout)
	defer cancel()

	if err := o.pacer.wait(ctx); err != nil {
		return entity.ProviderCallResult{}, err
	}

	requestID := uuid.New().String()
	start := time.Now()

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     o.config.Model,
		MaxTokens: o.config.MaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: verificationPrompt(claim),
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})

	latency := time.Since(start)

	if err != nil {
		slog.ErrorContext(ctx, "openai verification failed",
			slog.String("request_id", requestID),
			slog.Duration("latency", latency),
			slog.String("error", err.Error()))
		return entity.ProviderCallResult{}, fmt.Errorf("openai api error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return entity.ProviderCallResult{}, fmt.Errorf("openai api returned no choices")
	}

	result, err := parseJudgment(o.name, resp.Choices[0].Message.Content, latency)
	if err != nil {
		return entity.ProviderCallResult{}, err
	}
	result.Cost = o.estimateCost(resp.Usage)

	slog.InfoContext(ctx, "openai verification completed",
		slog.String("request_id", requestID),
		slog.String("verdict", string(result.Verdict)),
		slog.Float64("confidence", result.Confidence),
		slog.Duration("latency", latency))

	return result, nil
}

// estimateCost converts token usage into an approximate USD cost for
// billing telemetry. Rates are per million tokens.
func (o *OpenAI) estimateCost(usage openai.Usage) float64 {
	const (
		inputPerMTok  = 0.15
		outputPerMTok = 0.60
	)
	return float64(usage.PromptTokens)/1e6*inputPerMTok +
		float64(usage.CompletionTokens)/1e6*outputPerMTok
}
