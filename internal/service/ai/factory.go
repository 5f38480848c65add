package ai

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/zhouzirui/code-mentor/backend/internal/config"
)

// FactoryOption customizes NewGenerator.
type FactoryOption func(*factoryOptions)

type factoryOptions struct {
	tracer trace.Tracer
	meter  metric.Meter
}

// WithInstrumentation records spans and metrics around every provider call.
// The instrumentation sits inside the history window, so it sees the turns
// actually sent.
func WithInstrumentation(tracer trace.Tracer, meter metric.Meter) FactoryOption {
	return func(o *factoryOptions) {
		o.tracer = tracer
		o.meter = meter
	}
}

// NewGenerator builds the Generator for the configured provider, wrapped in
// a token window when AI_HISTORY_TOKEN_LIMIT is set.
func NewGenerator(ctx context.Context, cfg config.AIConfig, opts ...FactoryOption) (Generator, error) {
	var o factoryOptions
	for _, opt := range opts {
		opt(&o)
	}

	var (
		gen Generator
		err error
	)

	switch cfg.Provider {
	case config.ProviderArk:
		chatModel, modelErr := cfg.NewChatModel(ctx)
		if modelErr != nil {
			return nil, fmt.Errorf("failed to create chat model: %w", modelErr)
		}
		gen, err = NewChainGenerator(ctx, chatModel)
	case config.ProviderOpenAI, config.ProviderGemini:
		openaiCfg := OpenAIConfig{
			APIKey:      cfg.APIKey,
			BaseURL:     cfg.BaseURL,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
		}
		if cfg.MaxTokens != nil {
			openaiCfg.MaxTokens = *cfg.MaxTokens
		}
		gen, err = NewOpenAIGenerator(openaiCfg)
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownProvider, cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	if o.tracer != nil && o.meter != nil {
		gen, err = NewInstrumented(gen, cfg.Provider, o.tracer, o.meter)
		if err != nil {
			return nil, fmt.Errorf("failed to instrument generator: %w", err)
		}
	}

	if cfg.HistoryTokenLimit > 0 {
		counter, err := NewTiktoken()
		if err != nil {
			return nil, err
		}
		slog.Info("history window enabled", "component", "ai", "token_limit", cfg.HistoryTokenLimit)
		gen = NewWindowed(gen, counter, cfg.HistoryTokenLimit)
	}

	return gen, nil
}
