package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/yukikurage/smart-task-api/internal/models"
	"go.uber.org/zap"
)

// Failure kinds reported in suggestion logs
const (
	FailureRateLimited   = "rate_limited"
	FailureProviderError = "provider_error"
)

// LabelSuggester proposes a label for a task. It never fails: any problem
// with the backing model is logged and reported as no suggestion.
type LabelSuggester interface {
	Suggest(ctx context.Context, title, description string) (models.Label, bool)
}

// SuggestionOptions holds the sampling bounds shared by every provider
type SuggestionOptions struct {
	Enabled     bool
	Model       string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
}

// completeFunc issues one completion call and returns the raw model text
type completeFunc func(ctx context.Context, prompt string) (string, error)

// classifyFunc reports FailureRateLimited or FailureProviderError for an error
type classifyFunc func(err error) string

// suggestLabel runs the shared suggestion flow for a provider
func suggestLabel(
	ctx context.Context,
	logger *zap.Logger,
	provider string,
	opts SuggestionOptions,
	complete completeFunc,
	classify classifyFunc,
	title, description string,
) (models.Label, bool) {
	if !opts.Enabled {
		return "", false
	}

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	text, err := complete(ctx, buildLabelPrompt(title, description))
	if err != nil {
		logger.Warn("label suggestion failed",
			zap.String("provider", provider),
			zap.String("model", opts.Model),
			zap.String("kind", classify(err)),
			zap.Error(err),
		)
		return "", false
	}

	label, ok := parseLabel(text)
	if !ok {
		logger.Debug("label suggestion discarded",
			zap.String("provider", provider),
			zap.String("output", text),
		)
		return "", false
	}
	return label, true
}

func buildLabelPrompt(title, description string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Classify the task below with exactly one of these labels: %s.\n", strings.Join(models.LabelNames(), ", "))
	b.WriteString("Reply with the label only: one lower-case word, no punctuation, no explanation.\n\n")
	fmt.Fprintf(&b, "Title: %s\n", title)
	if strings.TrimSpace(description) != "" {
		fmt.Fprintf(&b, "Description: %s\n", description)
	}
	return b.String()
}

// parseLabel accepts the first line of the model output when, trimmed and
// lower-cased, it is exactly one of the known labels.
func parseLabel(text string) (models.Label, bool) {
	line, _, _ := strings.Cut(text, "\n")
	return models.ParseLabel(line)
}

// DisabledSuggester never suggests a label
type DisabledSuggester struct{}

func (DisabledSuggester) Suggest(context.Context, string, string) (models.Label, bool) {
	return "", false
}
