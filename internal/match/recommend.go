package match

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nakarin/jobmatch/internal/marketplace"
)

// Options tune one Engine. Zero values fall back to the serving defaults.
type Options struct {
	// RetrieveK is how many candidates the similarity index returns
	// before feature-based re-ranking.
	RetrieveK int
	// FinalN is the length cap of the ranked result.
	FinalN int
	// SimilarityThreshold drops retrieved candidates below this cosine
	// similarity regardless of rank. Zero disables the threshold.
	SimilarityThreshold float64
	// TypeFallback controls what happens when the job_type filter leaves
	// nothing: fall back to the unfiltered retrieved set (true) or return
	// an empty result (false).
	TypeFallback bool
}

func DefaultOptions() Options {
	return Options{
		RetrieveK:           50,
		FinalN:              5,
		SimilarityThreshold: 0.3,
		TypeFallback:        true,
	}
}

func (o Options) withDefaults() Options {
	if o.RetrieveK <= 0 {
		o.RetrieveK = 50
	}
	if o.FinalN <= 0 {
		o.FinalN = 5
	}
	return o
}

// Candidate is one scored pair in a ranked result. Candidates are
// ephemeral: recomputed per request, never persisted.
type Candidate struct {
	Record     Record
	Similarity float64
	Features   Features
	Score      float64
}

// Engine runs the recommend pipeline: retrieve by similarity, filter,
// extract features, score, cut to the final top N. One engine serves both
// directions; it holds no per-request state and is safe for concurrent
// use as long as each call gets an immutable snapshot of the pool.
type Engine struct {
	scorer Scorer
	opts   Options
	logger *zap.Logger
}

func NewEngine(scorer Scorer, opts Options, logger *zap.Logger) *Engine {
	return &Engine{scorer: scorer, opts: opts.withDefaults(), logger: logger}
}

// RecommendJobs ranks job postings for a worker profile.
func (e *Engine) RecommendJobs(ctx context.Context, worker *marketplace.WorkerProfile, jobs *marketplace.Jobs) ([]*Candidate, error) {
	return e.Recommend(ctx, worker, JobRecords(jobs))
}

// RecommendWorkers ranks worker profiles for a job posting.
func (e *Engine) RecommendWorkers(ctx context.Context, job *marketplace.JobPosting, workers *marketplace.Workers) ([]*Candidate, error) {
	return e.Recommend(ctx, job, WorkerRecords(workers))
}

// Recommend ranks the candidate pool against the query record. The pool
// must be the opposite collection; the role split is the caller's
// contract. An empty pool, or filters that eliminate everything, yield an
// empty (non-nil) result and no error.
func (e *Engine) Recommend(ctx context.Context, query Record, pool []Record) ([]*Candidate, error) {
	logger := e.logger.With(
		zap.String("request_id", uuid.NewString()),
		zap.String("query_id", query.RecordID()),
		zap.String("scorer", e.scorer.Name()),
	)

	if len(pool) == 0 {
		logger.Info("empty candidate pool")
		return []*Candidate{}, nil
	}

	if len(query.Embedding()) == 0 {
		return nil, fmt.Errorf("query record %s has no embedding; encode it first", query.RecordID())
	}

	vectors := make([][]float32, len(pool))
	for i, record := range pool {
		vectors[i] = record.Embedding()
	}

	index, err := NewIndex(vectors)
	if err != nil {
		return nil, fmt.Errorf("build similarity index: %w", err)
	}

	hits, err := index.Search(query.Embedding(), e.opts.RetrieveK)
	if err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}

	hits = e.filterByType(logger, query, pool, hits)
	hits = e.filterByThreshold(logger, hits)

	if len(hits) == 0 {
		logger.Info("no candidates left after filtering")
		return []*Candidate{}, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	candidates := make([]*Candidate, len(hits))
	feats := make([]Features, len(hits))
	for i, hit := range hits {
		record := pool[hit.Index]
		feats[i] = Extract(query, record, hit.Score)
		candidates[i] = &Candidate{Record: record, Similarity: hit.Score}
	}
	NormalizeWages(feats)

	scores, err := e.scorer.Score(feats)
	if err != nil {
		return nil, fmt.Errorf("score candidates: %w", err)
	}

	for i := range candidates {
		candidates[i].Features = feats[i]
		candidates[i].Score = scores[i]
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})

	if e.opts.FinalN < len(candidates) {
		candidates = candidates[:e.opts.FinalN]
	}

	logger.Info("ranked candidates",
		zap.Int("pool", len(pool)),
		zap.Int("retrieved", len(hits)),
		zap.Int("returned", len(candidates)),
	)

	return candidates, nil
}

// filterByType keeps retrieved candidates whose job_type equals the
// query's (trimmed, case-folded). When the filter empties the set the
// fallback policy decides between the unfiltered set and nothing; the
// unfiltered fallback degrades gracefully when the two sides' job_type
// vocabularies drift apart.
func (e *Engine) filterByType(logger *zap.Logger, query Record, pool []Record, hits []Hit) []Hit {
	target := strings.ToLower(strings.TrimSpace(query.Type()))
	if target == "" {
		return hits
	}

	kept := make([]Hit, 0, len(hits))
	for _, hit := range hits {
		if strings.ToLower(strings.TrimSpace(pool[hit.Index].Type())) == target {
			kept = append(kept, hit)
		}
	}

	logger.Debug("filter step",
		zap.String("name", "job_type"),
		zap.Int("initial", len(hits)),
		zap.Int("dropped", len(hits)-len(kept)),
		zap.Int("left", len(kept)),
	)

	if len(kept) == 0 && e.opts.TypeFallback {
		logger.Info("job_type filter matched nothing, falling back to unfiltered pool",
			zap.String("job_type", target),
		)
		return hits
	}
	return kept
}

func (e *Engine) filterByThreshold(logger *zap.Logger, hits []Hit) []Hit {
	if e.opts.SimilarityThreshold <= 0 {
		return hits
	}

	kept := make([]Hit, 0, len(hits))
	for _, hit := range hits {
		if hit.Score >= e.opts.SimilarityThreshold {
			kept = append(kept, hit)
		}
	}

	logger.Debug("filter step",
		zap.String("name", "similarity_threshold"),
		zap.Int("initial", len(hits)),
		zap.Int("dropped", len(hits)-len(kept)),
		zap.Int("left", len(kept)),
	)

	return kept
}
