package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
)

// MemoryProvider is a deterministic, dependency-free embedding provider for
// local development and tests: it hashes each text into a reproducible
// 768-dimension unit-ish vector. It is selected when EmbeddingURL is
// "memory://" (the configuration default), mirroring the fallback adapters
// the rest of the pack uses for out-of-process capability bindings.
type MemoryProvider struct{}

func NewMemoryProvider() *MemoryProvider { return &MemoryProvider{} }

func (p *MemoryProvider) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = deterministicVector(text)
	}
	return out, nil
}

func deterministicVector(text string) []float32 {
	vec := make([]float32, Dimensions)
	seed := sha256.Sum256([]byte(text))

	state := binary.BigEndian.Uint64(seed[:8])
	for i := range vec {
		state = state*6364136223846793005 + 1442695040888963407
		// Map to [-1, 1].
		vec[i] = float32(int64(state>>40)%2000)/1000 - 1
	}
	return vec
}
