package vectorindex

import (
	"context"
	"testing"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical vectors", []float32{1, 0, 0}, []float32{1, 0, 0}, 1},
		{"orthogonal vectors", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite vectors", []float32{1, 0}, []float32{-1, 0}, -1},
		{"mismatched lengths", []float32{1, 0}, []float32{1, 0, 0}, 0},
		{"zero vector", []float32{0, 0}, []float32{1, 1}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CosineSimilarity(tt.a, tt.b)
			if diff := got - tt.want; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("CosineSimilarity(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestMemoryIndex_QueryExcludesSelfAndOtherWorkspaces(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryIndex()

	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("Upsert() error = %v", err)
		}
	}

	must(idx.Upsert(ctx, "fb_self", []float32{1, 0}, Metadata{WorkspaceID: 1}))
	must(idx.Upsert(ctx, "fb_same_ws", []float32{1, 0}, Metadata{WorkspaceID: 1}))
	must(idx.Upsert(ctx, "fb_other_ws", []float32{1, 0}, Metadata{WorkspaceID: 2}))

	matches, err := idx.Query(ctx, 1, []float32{1, 0}, TopK, "fb_self")
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}

	if len(matches) != 1 {
		t.Fatalf("Query() returned %d matches, want 1", len(matches))
	}
	if matches[0].ID != "fb_same_ws" {
		t.Errorf("Query() match ID = %q, want fb_same_ws", matches[0].ID)
	}
}

func TestMemoryIndex_GetMissing(t *testing.T) {
	idx := NewMemoryIndex()
	if _, _, err := idx.Get(context.Background(), "nope"); err == nil {
		t.Error("Get() on missing id returned nil error, want error")
	}
}

func TestMemoryIndex_Delete(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryIndex()
	if err := idx.Upsert(ctx, "fb_1", []float32{1}, Metadata{}); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if err := idx.Delete(ctx, "fb_1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, _, err := idx.Get(ctx, "fb_1"); err == nil {
		t.Error("Get() after Delete() returned nil error, want error")
	}
}
