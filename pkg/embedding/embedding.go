// Package embedding adapts feedback text to a vector representation for
// duplicate detection, behind the pluggable AI capability binding.
package embedding

import (
	"context"
	"fmt"
	"strings"
)

const (
	// Dimensions is the expected length of every embedding vector.
	Dimensions = 768
	maxTextLen = 2000
)

// Provider embeds a batch of texts into fixed-dimension vectors.
type Provider interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// NormalizeFeedbackText builds the canonical embedding input for a feedback
// item: "Title: {title}. Description: {description}", whitespace-collapsed,
// trimmed, and truncated to 2000 characters.
func NormalizeFeedbackText(title, description string) string {
	text := fmt.Sprintf("Title: %s. Description: %s", title, description)
	text = strings.Join(strings.Fields(text), " ")
	if len(text) > maxTextLen {
		text = text[:maxTextLen]
	}
	return text
}
