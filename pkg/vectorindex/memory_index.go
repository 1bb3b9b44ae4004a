package vectorindex

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// MemoryIndex is an in-process Index for local development and tests,
// selected when VECTORIZE is "memory://". It is not durable across restarts.
type MemoryIndex struct {
	mu      sync.RWMutex
	vectors map[string][]float32
	meta    map[string]Metadata
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{
		vectors: make(map[string][]float32),
		meta:    make(map[string]Metadata),
	}
}

func (idx *MemoryIndex) Upsert(_ context.Context, id string, vector []float32, meta Metadata) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.vectors[id] = vector
	idx.meta[id] = meta
	return nil
}

func (idx *MemoryIndex) Query(_ context.Context, workspaceID int64, vector []float32, topK int, excludeID string) ([]Match, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	matches := make([]Match, 0, len(idx.vectors))
	for id, vec := range idx.vectors {
		if id == excludeID {
			continue
		}
		meta := idx.meta[id]
		if meta.WorkspaceID != workspaceID {
			continue
		}
		matches = append(matches, Match{
			ID:       id,
			Score:    CosineSimilarity(vector, vec),
			Metadata: meta,
		})
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

func (idx *MemoryIndex) Get(_ context.Context, id string) (*Match, []float32, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	vec, ok := idx.vectors[id]
	if !ok {
		return nil, nil, fmt.Errorf("vectorindex: no vector for id %q", id)
	}
	match := &Match{ID: id, Score: 1, Metadata: idx.meta[id]}
	return match, vec, nil
}

func (idx *MemoryIndex) Delete(_ context.Context, id string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	delete(idx.vectors, id)
	delete(idx.meta, id)
	return nil
}
