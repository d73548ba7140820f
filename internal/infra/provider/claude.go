package provider

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/google/uuid"

	"claimcheck/internal/domain/entity"
)

// ClaudeConfig holds configuration parameters for the Claude provider.
type ClaudeConfig struct {
	// Model is the Claude API model identifier.
	Model string

	// MaxTokens is the maximum number of tokens for the API response.
	MaxTokens int

	// Timeout is the maximum duration for a single verification API call.
	Timeout time.Duration

	// RequestsPerSecond paces outbound calls to the API.
	RequestsPerSecond float64
}

// DefaultClaudeConfig returns the default Claude provider configuration.
func DefaultClaudeConfig() ClaudeConfig {
	return ClaudeConfig{
		Model:             string(anthropic.ModelClaudeSonnet4_5_20250929),
		MaxTokens:         1024,
		Timeout:           30 * time.Second,
		RequestsPerSecond: 2.0,
	}
}

// Claude verifies claims using Anthropic's Claude API. The model is
// prompted as a fact checker and must answer in strict JSON.
type Claude struct {
	name   string
	client anthropic.Client
	config ClaudeConfig
	pacer  *pacer
}

// NewClaude creates a new Claude provider with the given API key.
func NewClaude(name, apiKey string, cfg ClaudeConfig) *Claude {
	if cfg.Model == "" {
		cfg = DefaultClaudeConfig()
	}

	slog.Info("initialized claude provider",
		slog.String("provider", name),
		slog.String("model", cfg.Model))

	return &Claude{
		name:   name,
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		config: cfg,
		pacer:  newPacer(cfg.RequestsPerSecond, 3),
	}
}

// Name returns the provider's registry name.
func (c *Claude) Name() string {
	return c.name
}

// Verify evaluates the claim with one Claude API call.
func (c *Claude) Verify(ctx context.Context, claim entity.Claim) (entity.ProviderCallResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	if err := c.pacer.wait(ctx); err != nil {
		return entity.ProviderCallResult{}, err
	}

	requestID := uuid.New().String()
	start := time.Now()

	message, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.config.Model),
		MaxTokens: int64(c.config.MaxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(
				anthropic.NewTextBlock(verificationPrompt(claim)),
			),
		},
	})

	latency := time.Since(start)

	if err != nil {
		slog.ErrorContext(ctx, "claude verification failed",
			slog.String("request_id", requestID),
			slog.Duration("latency", latency),
			slog.String("error", err.Error()))
		return entity.ProviderCallResult{}, fmt.Errorf("claude api error: %w", err)
	}

	if len(message.Content) == 0 {
		return entity.ProviderCallResult{}, fmt.Errorf("claude api returned empty response")
	}

	textBlock, ok := message.Content[0].AsAny().(anthropic.TextBlock)
	if !ok {
		return entity.ProviderCallResult{}, fmt.Errorf("claude api returned unexpected response type")
	}

	result, err := parseJudgment(c.name, textBlock.Text, latency)
	if err != nil {
		return entity.ProviderCallResult{}, err
	}
	result.Cost = c.estimateCost(message.Usage)

	slog.InfoContext(ctx, "claude verification completed",
		slog.String("request_id", requestID),
		slog.String("verdict", string(result.Verdict)),
		slog.Float64("confidence", result.Confidence),
		slog.Duration("latency", latency))

	return result, nil
}

// estimateCost converts token usage into an approximate USD cost for
// billing telemetry. Rates are per million tokens.
func (c *Claude) estimateCost(usage anthropic.Usage) float64 {
	const (
		inputPerMTok  = 3.0
		outputPerMTok = 15.0
	)
	return float64(usage.InputTokens)/1e6*inputPerMTok +
		float64(usage.OutputTokens)/1e6*outputPerMTok
}
