package classifier

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicClassifier calls Claude for feedback classification, falling
// back to HeuristicClassifier when the response can't be parsed.
type AnthropicClassifier struct {
	client   anthropic.Client
	model    anthropic.Model
	fallback *HeuristicClassifier
}

// NewAnthropicClassifier creates a classifier backed by the given API key
// and model name (e.g. "claude-3-5-haiku-latest").
func NewAnthropicClassifier(apiKey, model string) *AnthropicClassifier {
	return &AnthropicClassifier{
		client:   anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:    anthropic.Model(model),
		fallback: NewHeuristicClassifier(),
	}
}

func (c *AnthropicClassifier) Classify(ctx context.Context, title, description string) (Result, error) {
	msg, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: 512,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(Prompt(title, description))),
		},
	})
	if err != nil {
		return Result{}, fmt.Errorf("calling classifier model: %w", err)
	}

	var raw string
	for _, block := range msg.Content {
		if block.Type == "text" {
			raw += block.Text
		}
	}

	result, err := parseResponse(raw)
	if err != nil {
		// Parse failure is non-retryable; use the deterministic fallback
		// instead of failing the stage outright.
		fallback, _ := c.fallback.Classify(ctx, title, description)
		fallback.InputTokens = msg.Usage.InputTokens
		fallback.OutputTokens = msg.Usage.OutputTokens
		return fallback, nil
	}

	// spec §3.2: deterministically detected urgency keywords always merge
	// into the classification, even when the LLM parsed cleanly — the LLM's
	// own urgency call is never the sole source of truth for an escalation.
	mergeDetectedUrgency(&result, title, description)

	result.InputTokens = msg.Usage.InputTokens
	result.OutputTokens = msg.Usage.OutputTokens
	return result, nil
}

// mergeDetectedUrgency runs the deterministic keyword scan against title and
// description and folds it into result: matched keywords are unioned into
// result.UrgencyKeywords, and result.Urgency is escalated (never downgraded)
// to the keyword scan's urgency when that ranks higher.
func mergeDetectedUrgency(result *Result, title, description string) {
	text := strings.ToLower(title + " " + description)
	detected, keywords := detectUrgencyKeywords(text)
	if len(keywords) == 0 {
		return
	}

	seen := make(map[string]bool, len(result.UrgencyKeywords))
	for _, kw := range result.UrgencyKeywords {
		seen[kw] = true
	}
	for _, kw := range keywords {
		if !seen[kw] {
			result.UrgencyKeywords = append(result.UrgencyKeywords, kw)
			seen[kw] = true
		}
	}

	if urgencyRank(detected) > urgencyRank(result.Urgency) {
		result.Urgency = detected
	}
}
