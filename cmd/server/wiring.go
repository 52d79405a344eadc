package main

import (
	"context"
	"fmt"

	"github.com/yukikurage/smart-task-api/internal/auth"
	"github.com/yukikurage/smart-task-api/internal/config"
	"github.com/yukikurage/smart-task-api/internal/services"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

// newVerifier builds the configured identity verifier behind the short-lived cache
func newVerifier(ctx context.Context, cfg *config.Config) (auth.Verifier, error) {
	var verifier auth.Verifier

	switch cfg.IdentityProvider {
	case config.IdentityRemote:
		verifier = auth.NewRemoteVerifier(cfg.AuthURL, cfg.AuthAPIKey, nil)
	case config.IdentityGoogle:
		google, err := auth.NewGoogleVerifier(ctx, cfg.GoogleClientID)
		if err != nil {
			return nil, fmt.Errorf("failed to create Google verifier: %w", err)
		}
		verifier = google
	default:
		return nil, fmt.Errorf("unsupported identity provider %q", cfg.IdentityProvider)
	}

	return auth.NewCachingVerifier(verifier, cfg.IdentityCacheTTL), nil
}

// newSuggester builds the configured label suggester. Without an API key
// suggestions are switched off rather than failing startup.
func newSuggester(ctx context.Context, cfg *config.Config, logger *zap.Logger) (services.LabelSuggester, error) {
	if !cfg.LabelSuggestionsEnabled {
		return services.DisabledSuggester{}, nil
	}

	opts := services.SuggestionOptions{
		Enabled:     true,
		Model:       cfg.LabelModel,
		Temperature: cfg.LabelTemperature,
		MaxTokens:   cfg.LabelMaxTokens,
		Timeout:     cfg.LabelTimeout,
	}

	switch cfg.LabelProvider {
	case config.ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			logger.Warn("OPENAI_API_KEY is not set, label suggestions disabled")
			return services.DisabledSuggester{}, nil
		}
		return services.NewOpenAISuggester(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, opts, logger), nil
	case config.ProviderGemini:
		if cfg.GeminiAPIKey == "" {
			logger.Warn("GEMINI_API_KEY is not set, label suggestions disabled")
			return services.DisabledSuggester{}, nil
		}
		gemini, err := services.NewGeminiSuggester(ctx, &genai.ClientConfig{
			APIKey:  cfg.GeminiAPIKey,
			Backend: genai.BackendGeminiAPI,
		}, opts, logger)
		if err != nil {
			return nil, err
		}
		return gemini, nil
	default:
		return nil, fmt.Errorf("unsupported label provider %q", cfg.LabelProvider)
	}
}
