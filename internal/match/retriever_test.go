package match

import (
	"math"
	"testing"
)

func TestIndexSearchOrdering(t *testing.T) {
	index, err := NewIndex([][]float32{
		{0, 1},   // orthogonal to the query
		{1, 0},   // identical direction
		{1, 1},   // in between
		{2, 0},   // identical direction, different magnitude
		{-1, 0},  // opposite
		{0.5, 2}, // mostly orthogonal
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	hits, err := index.Search([]float32{1, 0}, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(hits) != 3 {
		t.Fatalf("expected 3 hits, got %d", len(hits))
	}

	// Magnitude must not matter after normalization: both unit-x vectors
	// score 1.0 and keep pool order.
	if hits[0].Index != 1 || hits[1].Index != 3 {
		t.Fatalf("expected stable tie between candidates 1 and 3, got %v", hits)
	}
	if math.Abs(hits[0].Score-1) > 1e-9 {
		t.Fatalf("expected cosine 1.0 for parallel vectors, got %v", hits[0].Score)
	}

	for i := 1; i < len(hits); i++ {
		if hits[i].Score > hits[i-1].Score {
			t.Fatalf("hits not sorted by descending similarity: %v", hits)
		}
	}
}

func TestIndexSearchSmallPool(t *testing.T) {
	index, err := NewIndex([][]float32{{1, 0}, {0, 1}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	hits, err := index.Search([]float32{1, 0}, 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("pool smaller than k must return the whole pool, got %d", len(hits))
	}
}

func TestIndexRejectsMixedDimensions(t *testing.T) {
	if _, err := NewIndex([][]float32{{1, 0}, {1, 0, 0}}); err == nil {
		t.Fatalf("expected an error for mixed dimensionality")
	}
}

func TestIndexRejectsQueryDimensionMismatch(t *testing.T) {
	index, err := NewIndex([][]float32{{1, 0}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := index.Search([]float32{1, 0, 0}, 1); err == nil {
		t.Fatalf("expected an error for query dimension mismatch")
	}
}

func TestCosine(t *testing.T) {
	if got := Cosine([]float32{1, 0}, []float32{3, 0}); math.Abs(got-1) > 1e-9 {
		t.Fatalf("parallel vectors must score 1.0, got %v", got)
	}
	if got := Cosine([]float32{1, 0}, []float32{0, 2}); math.Abs(got) > 1e-9 {
		t.Fatalf("orthogonal vectors must score 0, got %v", got)
	}
	if got := Cosine(nil, []float32{1}); got != 0 {
		t.Fatalf("empty input must score 0, got %v", got)
	}
}

func TestCosineDeterministic(t *testing.T) {
	a := []float32{0.3, 0.7, 0.1}
	b := []float32{0.2, 0.5, 0.9}

	first := Cosine(a, b)
	second := Cosine(a, b)
	if first != second {
		t.Fatalf("cosine must be deterministic: %v vs %v", first, second)
	}
}
