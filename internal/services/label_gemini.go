package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/yukikurage/smart-task-api/internal/models"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

// DefaultGeminiModel is a fast, low-cost Gemini model
const DefaultGeminiModel = "gemini-2.0-flash"

// GeminiSuggester suggests labels through the Gemini API
type GeminiSuggester struct {
	client *genai.Client
	opts   SuggestionOptions
	logger *zap.Logger
}

// NewGeminiSuggester creates a GeminiSuggester from a client configuration
func NewGeminiSuggester(ctx context.Context, cc *genai.ClientConfig, opts SuggestionOptions, logger *zap.Logger) (*GeminiSuggester, error) {
	if cc == nil || cc.APIKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}
	if cc.Backend == genai.BackendUnspecified {
		cc.Backend = genai.BackendGeminiAPI
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	if opts.Model == "" {
		opts.Model = DefaultGeminiModel
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &GeminiSuggester{
		client: client,
		opts:   opts,
		logger: logger,
	}, nil
}

// Suggest asks the model for a label
func (s *GeminiSuggester) Suggest(ctx context.Context, title, description string) (models.Label, bool) {
	return suggestLabel(ctx, s.logger, "gemini", s.opts, s.complete, classifyGeminiError, title, description)
}

func (s *GeminiSuggester) complete(ctx context.Context, prompt string) (string, error) {
	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(s.opts.Temperature),
	}
	if s.opts.MaxTokens > 0 {
		config.MaxOutputTokens = int32(s.opts.MaxTokens)
	}

	resp, err := s.client.Models.GenerateContent(ctx,
		s.opts.Model,
		[]*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)},
		config,
	)
	if err != nil {
		return "", fmt.Errorf("Gemini generate failed: %w", err)
	}

	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates returned")
	}

	return resp.Text(), nil
}

func classifyGeminiError(err error) string {
	var code int
	var status string

	var apiErr genai.APIError
	var apiErrPtr *genai.APIError
	switch {
	case errors.As(err, &apiErr):
		code, status = apiErr.Code, apiErr.Status
	case errors.As(err, &apiErrPtr):
		code, status = apiErrPtr.Code, apiErrPtr.Status
	default:
		return FailureProviderError
	}

	if code == http.StatusTooManyRequests || strings.EqualFold(status, "RESOURCE_EXHAUSTED") {
		return FailureRateLimited
	}
	return FailureProviderError
}
