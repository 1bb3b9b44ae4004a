package app

import (
	"io"
	"log/slog"
	"testing"

	"github.com/clearvoice/feedback/internal/config"
	"github.com/clearvoice/feedback/pkg/classifier"
)

func TestNewAIAdapters_DefaultsToMemoryAndHeuristic(t *testing.T) {
	cfg := &config.Config{EmbeddingURL: "memory://", VectorIndexURL: "memory://"}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	_, _, clf := newAIAdapters(cfg, logger)

	if _, ok := clf.(*classifier.HeuristicClassifier); !ok {
		t.Errorf("classifier = %T, want *classifier.HeuristicClassifier", clf)
	}
}

func TestNewAIAdapters_UsesAnthropicWhenAPIKeySet(t *testing.T) {
	cfg := &config.Config{
		EmbeddingURL:   "memory://",
		VectorIndexURL: "memory://",
		ClaudeAPIKey:   "sk-test",
		ClaudeModel:    "claude-3-5-haiku-latest",
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	_, _, clf := newAIAdapters(cfg, logger)

	if _, ok := clf.(*classifier.AnthropicClassifier); !ok {
		t.Errorf("classifier = %T, want *classifier.AnthropicClassifier", clf)
	}
}

func TestNewAIAdapters_FallsBackOnUnrecognizedBindings(t *testing.T) {
	cfg := &config.Config{EmbeddingURL: "s3://bucket", VectorIndexURL: "pinecone://index"}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	embedder, index, _ := newAIAdapters(cfg, logger)

	if embedder == nil || index == nil {
		t.Error("newAIAdapters() returned nil embedder/index for unrecognized bindings, want memory fallback")
	}
}
