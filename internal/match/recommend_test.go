package match

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/nakarin/jobmatch/internal/marketplace"
)

func testEngine(t *testing.T, opts Options) *Engine {
	t.Helper()

	scorer, err := NewHeuristic(DefaultWeights())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return NewEngine(scorer, opts, zap.NewNop())
}

func queryWorker() *marketplace.WorkerProfile {
	worker := driverWorker()
	worker.Vector = []float32{1, 0}
	return worker
}

func jobWithVector(id, jobType, province string, v []float32) *marketplace.JobPosting {
	job := driverJob()
	job.ID = id
	job.JobType = jobType
	job.Province = province
	job.Vector = v
	return job
}

func TestRecommendEmptyPool(t *testing.T) {
	engine := testEngine(t, DefaultOptions())

	ranked, err := engine.RecommendJobs(context.Background(), queryWorker(), &marketplace.Jobs{})
	if err != nil {
		t.Fatalf("empty pool must not error: %v", err)
	}
	if ranked == nil || len(ranked) != 0 {
		t.Fatalf("expected an empty non-nil result, got %v", ranked)
	}
}

func TestRecommendSmallPoolReturnsEverything(t *testing.T) {
	engine := testEngine(t, Options{FinalN: 5})

	jobs := &marketplace.Jobs{Items: []*marketplace.JobPosting{
		jobWithVector("j1", "Driver", "Bangkok", []float32{1, 0}),
		jobWithVector("j2", "Driver", "Bangkok", []float32{0.9, 0.1}),
		jobWithVector("j3", "Driver", "Bangkok", []float32{0.8, 0.2}),
	}}

	ranked, err := engine.RecommendJobs(context.Background(), queryWorker(), jobs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ranked) != 3 {
		t.Fatalf("pool of 3 with n=5 must return all 3, got %d", len(ranked))
	}

	seen := map[string]bool{}
	for _, c := range ranked {
		seen[c.Record.RecordID()] = true
	}
	for _, id := range []string{"j1", "j2", "j3"} {
		if !seen[id] {
			t.Fatalf("expected %s in the result, got %v", id, seen)
		}
	}
}

func TestRecommendTopNBound(t *testing.T) {
	engine := testEngine(t, Options{FinalN: 2})

	jobs := &marketplace.Jobs{}
	for i := 0; i < 8; i++ {
		jobs.Items = append(jobs.Items,
			jobWithVector(string(rune('a'+i)), "Driver", "Bangkok", []float32{1, float32(i) * 0.01}))
	}

	ranked, err := engine.RecommendJobs(context.Background(), queryWorker(), jobs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ranked) != 2 {
		t.Fatalf("expected exactly n_final=2 results, got %d", len(ranked))
	}
}

func TestRecommendSortedByDescendingScore(t *testing.T) {
	engine := testEngine(t, DefaultOptions())

	// Same type and schedule everywhere; location drives the score apart.
	jobs := &marketplace.Jobs{Items: []*marketplace.JobPosting{
		jobWithVector("far", "Driver", "Chiang Mai", []float32{1, 0}),
		jobWithVector("near", "Driver", "Bangkok", []float32{1, 0}),
	}}

	ranked, err := engine.RecommendJobs(context.Background(), queryWorker(), jobs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ranked) != 2 {
		t.Fatalf("expected 2 results, got %d", len(ranked))
	}
	if ranked[0].Record.RecordID() != "near" {
		t.Fatalf("expected the location match ranked first, got %s", ranked[0].Record.RecordID())
	}
	for i := 1; i < len(ranked); i++ {
		if ranked[i].Score > ranked[i-1].Score {
			t.Fatalf("result not sorted by descending score: %v then %v", ranked[i-1].Score, ranked[i].Score)
		}
	}
}

func TestRecommendStableOnTies(t *testing.T) {
	engine := testEngine(t, DefaultOptions())

	jobs := &marketplace.Jobs{Items: []*marketplace.JobPosting{
		jobWithVector("first", "Driver", "Bangkok", []float32{1, 0}),
		jobWithVector("second", "Driver", "Bangkok", []float32{1, 0}),
	}}

	ranked, err := engine.RecommendJobs(context.Background(), queryWorker(), jobs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ranked) != 2 {
		t.Fatalf("expected 2 results, got %d", len(ranked))
	}
	if ranked[0].Record.RecordID() != "first" || ranked[1].Record.RecordID() != "second" {
		t.Fatalf("tied candidates must keep input order, got %s then %s",
			ranked[0].Record.RecordID(), ranked[1].Record.RecordID())
	}
	if ranked[0].Score != ranked[1].Score {
		t.Fatalf("expected a tie, got %v and %v", ranked[0].Score, ranked[1].Score)
	}
}

func TestRecommendTypeFallback(t *testing.T) {
	jobs := &marketplace.Jobs{Items: []*marketplace.JobPosting{
		jobWithVector("cook1", "Cook", "Bangkok", []float32{1, 0}),
	}}

	withFallback := testEngine(t, Options{TypeFallback: true})
	ranked, err := withFallback.RecommendJobs(context.Background(), queryWorker(), jobs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ranked) != 1 {
		t.Fatalf("fallback policy must re-rank the unfiltered pool, got %d results", len(ranked))
	}

	withoutFallback := testEngine(t, Options{TypeFallback: false})
	ranked, err = withoutFallback.RecommendJobs(context.Background(), queryWorker(), jobs)
	if err != nil {
		t.Fatalf("an emptied type filter must not error: %v", err)
	}
	if len(ranked) != 0 {
		t.Fatalf("strict policy must return an empty result, got %d", len(ranked))
	}
}

func TestRecommendSimilarityThreshold(t *testing.T) {
	engine := testEngine(t, Options{SimilarityThreshold: 0.3})

	jobs := &marketplace.Jobs{Items: []*marketplace.JobPosting{
		jobWithVector("close", "Driver", "Bangkok", []float32{1, 0}),
		jobWithVector("orthogonal", "Driver", "Bangkok", []float32{0, 1}),
	}}

	ranked, err := engine.RecommendJobs(context.Background(), queryWorker(), jobs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ranked) != 1 || ranked[0].Record.RecordID() != "close" {
		t.Fatalf("expected only the close candidate to pass the threshold, got %v", ranked)
	}
}

func TestRecommendRequiresQueryEmbedding(t *testing.T) {
	engine := testEngine(t, DefaultOptions())

	worker := driverWorker() // no vector set
	jobs := &marketplace.Jobs{Items: []*marketplace.JobPosting{
		jobWithVector("j1", "Driver", "Bangkok", []float32{1, 0}),
	}}

	if _, err := engine.RecommendJobs(context.Background(), worker, jobs); err == nil {
		t.Fatalf("expected an error for an unencoded query record")
	}
}

func TestRecommendReciprocity(t *testing.T) {
	engine := testEngine(t, DefaultOptions())

	job := jobWithVector("j1", "Driver", "Bangkok", []float32{1, 0})
	worker := queryWorker()
	workers := &marketplace.Workers{Items: []*marketplace.WorkerProfile{worker}}
	jobs := &marketplace.Jobs{Items: []*marketplace.JobPosting{job}}

	forWorker, err := engine.RecommendJobs(context.Background(), worker, jobs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	forJob, err := engine.RecommendWorkers(context.Background(), job, workers)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(forWorker) != 1 || len(forJob) != 1 {
		t.Fatalf("expected one result in each direction, got %d and %d", len(forWorker), len(forJob))
	}

	// Every feature is symmetric in the pair, so the swapped query must
	// produce the identical feature vector and score.
	if forWorker[0].Features != forJob[0].Features {
		t.Fatalf("role-swapped features differ: %+v vs %+v", forWorker[0].Features, forJob[0].Features)
	}
	if forWorker[0].Score != forJob[0].Score {
		t.Fatalf("role-swapped scores differ: %v vs %v", forWorker[0].Score, forJob[0].Score)
	}
}
