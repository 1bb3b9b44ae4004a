package classifier

import (
	"context"
	"strings"
)

// urgencyKeywordSet maps a detected keyword to the urgency level it implies.
var urgencyKeywordSet = map[string]Urgency{
	"urgent":    UrgencyUrgent,
	"asap":      UrgencyUrgent,
	"critical":  UrgencyCritical,
	"blocker":   UrgencyCritical,
	"crash":     UrgencyCritical,
	"data loss": UrgencyCritical,
	"broken":    UrgencyUrgent,
	"down":      UrgencyCritical,
}

var bugKeywords = []string{"bug", "error", "crash", "broken", "doesn't work", "not working", "fails", "failure"}
var featureKeywords = []string{"feature", "add", "would like", "wish", "support for", "please add"}
var praiseKeywords = []string{"love", "great", "awesome", "thank you", "amazing"}
var complaintKeywords = []string{"hate", "terrible", "awful", "frustrated", "annoying"}
var questionKeywords = []string{"how do i", "how to", "is it possible", "can you", "?"}

// HeuristicClassifier is a keyword-based fallback used when the LLM's
// response fails to parse. It never errors.
type HeuristicClassifier struct{}

func NewHeuristicClassifier() *HeuristicClassifier { return &HeuristicClassifier{} }

func (HeuristicClassifier) Classify(_ context.Context, title, description string) (Result, error) {
	text := strings.ToLower(title + " " + description)

	urgency, keywords := detectUrgencyKeywords(text)

	result := Result{
		Type:            classifyType(text),
		Urgency:         urgency,
		Confidence:      0.4,
		SentimentScore:  sentimentFor(text),
		UrgencyKeywords: keywords,
		Heuristic:       true,
	}

	return result, nil
}

// detectUrgencyKeywords scans text for every keyword in urgencyKeywordSet and
// returns the highest-ranked urgency found (UrgencyNormal if none match)
// along with the matched keywords. Shared by HeuristicClassifier.Classify and
// AnthropicClassifier's always-on keyword merge, so both paths detect the
// same deterministic keywords the same way.
func detectUrgencyKeywords(text string) (Urgency, []string) {
	urgency := UrgencyNormal
	var keywords []string
	for kw, u := range urgencyKeywordSet {
		if strings.Contains(text, kw) {
			keywords = append(keywords, kw)
			if urgencyRank(u) > urgencyRank(urgency) {
				urgency = u
			}
		}
	}
	return urgency, keywords
}

func classifyType(text string) FeedbackType {
	switch {
	case containsAny(text, bugKeywords):
		return TypeBug
	case containsAny(text, featureKeywords):
		return TypeFeatureRequest
	case containsAny(text, complaintKeywords):
		return TypeComplaint
	case containsAny(text, praiseKeywords):
		return TypePraise
	case containsAny(text, questionKeywords):
		return TypeQuestion
	default:
		return TypeImprovement
	}
}

func sentimentFor(text string) float64 {
	switch {
	case containsAny(text, praiseKeywords):
		return 0.6
	case containsAny(text, complaintKeywords), containsAny(text, bugKeywords):
		return -0.5
	default:
		return 0
	}
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

func urgencyRank(u Urgency) int {
	switch u {
	case UrgencyCritical:
		return 2
	case UrgencyUrgent:
		return 1
	default:
		return 0
	}
}
