package aipipeline

import (
	"errors"
	"testing"
	"time"

	"github.com/clearvoice/feedback/pkg/queue"
)

func TestOverallStatus(t *testing.T) {
	tests := []struct {
		name    string
		results []StageResult
		want    string
	}{
		{
			name: "all succeeded is completed",
			results: []StageResult{
				{Stage: queue.StageEmbed, Outcome: OutcomeSuccess},
				{Stage: queue.StageClassify, Outcome: OutcomeSuccess},
				{Stage: queue.StageTheme, Outcome: OutcomeSkipped},
			},
			want: "completed",
		},
		{
			name: "mixed success and failure is partial",
			results: []StageResult{
				{Stage: queue.StageEmbed, Outcome: OutcomeSuccess},
				{Stage: queue.StageClassify, Outcome: OutcomeFailed},
			},
			want: "partial",
		},
		{
			name: "all failed is failed",
			results: []StageResult{
				{Stage: queue.StageEmbed, Outcome: OutcomeFailed},
				{Stage: queue.StageClassify, Outcome: OutcomeFailed},
			},
			want: "failed",
		},
		{
			name: "all skipped is failed",
			results: []StageResult{
				{Stage: queue.StageTheme, Outcome: OutcomeSkipped},
			},
			want: "failed",
		},
		{
			name: "empty is failed",
			want: "failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := overallStatus(tt.results)
			if got != tt.want {
				t.Errorf("overallStatus() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRetryDelay(t *testing.T) {
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 30 * time.Second},
		{1, 60 * time.Second},
		{2, 120 * time.Second},
		{10, 15 * time.Minute}, // caps out well before attempt 10
	}

	for _, tt := range tests {
		got := retryDelay(tt.attempt)
		if got != tt.want {
			t.Errorf("retryDelay(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestPriorityScore(t *testing.T) {
	tests := []struct {
		name      string
		votes     int64
		sentiment float64
		urgency   string
		want      int
	}{
		{"no votes neutral sentiment default urgency", 0, 0, "", 25},
		{"capped votes critical urgency", 200, 0, "critical", 90},
		{"capped votes at exactly 100", 100, 0, "critical", 90},
		{"urgent urgency", 0, 0, "urgent", 45},
		{"max negative sentiment", 0, -1, "", 35},
		{"max positive sentiment", 0, 1, "", 15},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := priorityScore(tt.votes, tt.sentiment, tt.urgency)
			if got != tt.want {
				t.Errorf("priorityScore(%d, %v, %q) = %d, want %d", tt.votes, tt.sentiment, tt.urgency, got, tt.want)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		s    string
		n    int
		want string
	}{
		{"shorter than limit unchanged", "hello", 10, "hello"},
		{"exactly at limit unchanged", "hello", 5, "hello"},
		{"longer than limit truncated", "hello world", 5, "hello"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncate(tt.s, tt.n)
			if got != tt.want {
				t.Errorf("truncate(%q, %d) = %q, want %q", tt.s, tt.n, got, tt.want)
			}
		})
	}
}

func TestClassifyErr(t *testing.T) {
	tests := []struct {
		name          string
		err           error
		wantRetryable bool
		wantReason    string
	}{
		{"rate limited", errors.New("429: rate limit exceeded"), true, "rate_limited"},
		{"timeout", errors.New("context deadline exceeded: timeout"), true, "timeout"},
		{"network", errors.New("dial tcp: connection refused"), true, "network_error"},
		{"5xx", errors.New("upstream returned 503"), true, "upstream_5xx"},
		{"dimension mismatch", errors.New("embedding dimension mismatch: got 512"), false, "dimension_mismatch"},
		{"parse failure", errors.New("failed parsing json response"), false, "parse_failure"},
		{"empty input", errors.New("empty input"), false, "empty_input"},
		{"unrecognized defaults retryable", errors.New("something weird happened"), true, "unknown_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyErr(tt.err)
			if got.retryable != tt.wantRetryable || got.reason != tt.wantReason {
				t.Errorf("classifyErr(%q) = %+v, want {reason:%q retryable:%v}", tt.err, got, tt.wantReason, tt.wantRetryable)
			}
		})
	}
}
