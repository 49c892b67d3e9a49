package match

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// Hit is one retrieved candidate: its position in the indexed pool and its
// cosine similarity to the query.
type Hit struct {
	Index int
	Score float64
}

// Index is an exact inner-product index over L2-normalized vectors, so the
// inner product is cosine similarity. Indexes are immutable once built:
// when the underlying pool changes, build a new one.
type Index struct {
	vectors [][]float64
	dim     int
}

// NewIndex copies and L2-normalizes the candidate vectors. All vectors
// must share one dimensionality. Zero vectors are kept as-is and simply
// score 0 against everything.
func NewIndex(vectors [][]float32) (*Index, error) {
	ix := &Index{vectors: make([][]float64, len(vectors))}

	for i, v := range vectors {
		if len(v) == 0 {
			return nil, fmt.Errorf("candidate %d has no embedding", i)
		}
		if ix.dim == 0 {
			ix.dim = len(v)
		}
		if len(v) != ix.dim {
			return nil, fmt.Errorf("candidate %d has dimension %d, index has %d", i, len(v), ix.dim)
		}
		ix.vectors[i] = normalize(v)
	}

	return ix, nil
}

func (ix *Index) Len() int {
	return len(ix.vectors)
}

// Search returns the top-k candidates by descending similarity. Fewer than
// k candidates means all of them. Ties keep their pool order.
func (ix *Index) Search(query []float32, k int) ([]Hit, error) {
	if ix.Len() == 0 || k <= 0 {
		return nil, nil
	}
	if len(query) != ix.dim {
		return nil, fmt.Errorf("query has dimension %d, index has %d", len(query), ix.dim)
	}

	q := normalize(query)

	hits := make([]Hit, ix.Len())
	for i, v := range ix.vectors {
		hits[i] = Hit{Index: i, Score: floats.Dot(q, v)}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})

	if k < len(hits) {
		hits = hits[:k]
	}
	return hits, nil
}

func normalize(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}

	norm := floats.Norm(out, 2)
	if norm > 0 {
		floats.Scale(1/norm, out)
	}
	return out
}

// Cosine is the similarity of two raw vectors. The trainer uses it to
// recompute the similarity feature from ground-truth embeddings.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	return floats.Dot(normalize(a), normalize(b))
}
