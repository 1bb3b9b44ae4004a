// Package classifier calls an LLM to classify a feedback item, tolerating
// fenced JSON and falling back to keyword heuristics on parse failure.
package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// FeedbackType is the closed classification enum.
type FeedbackType string

const (
	TypeBug            FeedbackType = "bug"
	TypeFeatureRequest FeedbackType = "feature_request"
	TypeImprovement    FeedbackType = "improvement"
	TypeQuestion       FeedbackType = "question"
	TypePraise         FeedbackType = "praise"
	TypeComplaint      FeedbackType = "complaint"
)

// Urgency is the closed urgency enum.
type Urgency string

const (
	UrgencyNormal   Urgency = "normal"
	UrgencyUrgent   Urgency = "urgent"
	UrgencyCritical Urgency = "critical"
)

// Result is the classifier's output for one feedback item.
type Result struct {
	Type            FeedbackType `json:"type"`
	ProductArea     *string      `json:"product_area"`
	Urgency         Urgency      `json:"urgency"`
	Confidence      float64      `json:"confidence"`
	SentimentScore  float64      `json:"sentiment_score"`
	UrgencyKeywords []string     `json:"urgency_keywords"`
	Summary         string       `json:"summary,omitempty"`
	Heuristic       bool         `json:"-"` // true if the LLM response failed to parse and a fallback was used
	InputTokens     int64        `json:"-"`
	OutputTokens    int64        `json:"-"`
}

// Classifier classifies feedback text via an LLM, with a non-LLM fallback.
type Classifier interface {
	Classify(ctx context.Context, title, description string) (Result, error)
}

var fencedBlock = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")

// extractJSON strips a surrounding fenced code block, if present.
func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if m := fencedBlock.FindStringSubmatch(raw); m != nil {
		return strings.TrimSpace(m[1])
	}
	return raw
}

// parseResponse parses the LLM's raw text into a Result, tolerating a
// fenced code block around the JSON object.
func parseResponse(raw string) (Result, error) {
	var r Result
	if err := json.Unmarshal([]byte(extractJSON(raw)), &r); err != nil {
		return Result{}, fmt.Errorf("parsing classifier response: %w", err)
	}
	if !validType(r.Type) || !validUrgency(r.Urgency) {
		return Result{}, fmt.Errorf("classifier response failed enum validation")
	}
	return r, nil
}

func validType(t FeedbackType) bool {
	switch t {
	case TypeBug, TypeFeatureRequest, TypeImprovement, TypeQuestion, TypePraise, TypeComplaint:
		return true
	}
	return false
}

func validUrgency(u Urgency) bool {
	switch u {
	case UrgencyNormal, UrgencyUrgent, UrgencyCritical:
		return true
	}
	return false
}

// Prompt builds the strict classification prompt for title/description.
func Prompt(title, description string) string {
	return fmt.Sprintf(`Classify the following product feedback. Respond with a single JSON object only, no commentary, matching exactly this shape:
{"type": "bug|feature_request|improvement|question|praise|complaint", "product_area": string|null, "urgency": "normal|urgent|critical", "confidence": number between 0 and 1, "sentiment_score": number between -1 and 1, "urgency_keywords": [string], "summary": string}

Title: %s
Description: %s`, title, description)
}
