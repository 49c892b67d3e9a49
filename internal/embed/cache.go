package embed

import (
	"context"
	"crypto/sha256"
	"fmt"

	"go.uber.org/zap"
)

// VectorCache stores embeddings keyed by (model, content hash). A cache is
// read-through only: the serving path never mutates an entry in place, it
// inserts new keys and lets stale ones age out with the pool version.
type VectorCache interface {
	Get(ctx context.Context, model string, keys []string) (map[string][]float32, error)
	Put(ctx context.Context, model string, vectors map[string][]float32) error
}

// CachedEncoder memoizes an Encoder through a VectorCache. Embedding
// inference dominates the cost of a recommend call, so repeated encodes of
// an unchanged candidate pool become cache reads.
type CachedEncoder struct {
	inner  Encoder
	cache  VectorCache
	logger *zap.Logger
}

func NewCachedEncoder(inner Encoder, cache VectorCache, logger *zap.Logger) *CachedEncoder {
	return &CachedEncoder{inner: inner, cache: cache, logger: logger}
}

func (c *CachedEncoder) Model() string { return c.inner.Model() }

func (c *CachedEncoder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	keys := make([]string, len(texts))
	for i, text := range texts {
		keys[i] = contentKey(text)
	}

	cached, err := c.cache.Get(ctx, c.inner.Model(), keys)
	if err != nil {
		// A broken cache degrades to direct inference.
		c.logger.Warn("vector cache read failed, embedding directly", zap.Error(err))
		cached = nil
	}

	missing := make([]string, 0)
	missingIdx := make([]int, 0)
	for i, key := range keys {
		if _, ok := cached[key]; !ok {
			missing = append(missing, texts[i])
			missingIdx = append(missingIdx, i)
		}
	}

	vectors := make([][]float32, len(texts))
	for i, key := range keys {
		if v, ok := cached[key]; ok {
			vectors[i] = v
		}
	}

	if len(missing) > 0 {
		fresh, err := c.inner.Embed(ctx, missing)
		if err != nil {
			return nil, err
		}
		if len(fresh) != len(missing) {
			return nil, fmt.Errorf("encoder returned %d vectors for %d texts", len(fresh), len(missing))
		}

		toStore := make(map[string][]float32, len(fresh))
		for i, idx := range missingIdx {
			vectors[idx] = fresh[i]
			toStore[keys[idx]] = fresh[i]
		}

		if err := c.cache.Put(ctx, c.inner.Model(), toStore); err != nil {
			c.logger.Warn("vector cache write failed", zap.Error(err))
		}
	}

	c.logger.Debug("encoded texts",
		zap.String("model", c.inner.Model()),
		zap.Int("total", len(texts)),
		zap.Int("cache_hits", len(texts)-len(missing)),
		zap.Int("embedded", len(missing)),
	)

	return vectors, nil
}

func contentKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return fmt.Sprintf("%x", sum[:])
}
