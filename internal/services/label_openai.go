package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/sashabaranov/go-openai"
	"github.com/yukikurage/smart-task-api/internal/models"
	"go.uber.org/zap"
)

// DefaultOpenAIModel is a fast, low-cost chat model
const DefaultOpenAIModel = openai.GPT4oMini

// OpenAISuggester suggests labels through the OpenAI chat completion API
type OpenAISuggester struct {
	client *openai.Client
	opts   SuggestionOptions
	logger *zap.Logger
}

// NewOpenAISuggester creates an OpenAISuggester. baseURL may be empty to use
// the public endpoint.
func NewOpenAISuggester(apiKey, baseURL string, opts SuggestionOptions, logger *zap.Logger) *OpenAISuggester {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if opts.Model == "" {
		opts.Model = DefaultOpenAIModel
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &OpenAISuggester{
		client: openai.NewClientWithConfig(cfg),
		opts:   opts,
		logger: logger,
	}
}

// Suggest asks the model for a label
func (s *OpenAISuggester) Suggest(ctx context.Context, title, description string) (models.Label, bool) {
	return suggestLabel(ctx, s.logger, "openai", s.opts, s.complete, classifyOpenAIError, title, description)
}

func (s *OpenAISuggester) complete(ctx context.Context, prompt string) (string, error) {
	resp, err := s.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: s.opts.Model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			Temperature: s.opts.Temperature,
			MaxTokens:   s.opts.MaxTokens,
		},
	)
	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from OpenAI")
	}

	return resp.Choices[0].Message.Content, nil
}

func classifyOpenAIError(err error) string {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode == http.StatusTooManyRequests {
			return FailureRateLimited
		}
		if code, ok := apiErr.Code.(string); ok && (code == "rate_limit_exceeded" || code == "insufficient_quota") {
			return FailureRateLimited
		}
		if apiErr.Type == "insufficient_quota" {
			return FailureRateLimited
		}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode == http.StatusTooManyRequests {
		return FailureRateLimited
	}

	return FailureProviderError
}
