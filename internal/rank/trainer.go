package rank

import (
	"math"
	"sort"
	"time"

	"go.uber.org/zap"
)

// Config holds the boosting hyperparameters. The defaults mirror the
// settings the original model shipped with, sized for a five-feature
// space.
type Config struct {
	Rounds       int     `mapstructure:"rounds"`
	LearningRate float64 `mapstructure:"learning-rate"`
	MaxDepth     int     `mapstructure:"max-depth"`
	MinLeaf      int     `mapstructure:"min-leaf"`
	Lambda       float64 `mapstructure:"lambda"`
}

func DefaultConfig() Config {
	return Config{
		Rounds:       200,
		LearningRate: 0.1,
		MaxDepth:     3,
		MinLeaf:      1,
		Lambda:       1.0,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.Rounds <= 0 {
		c.Rounds = def.Rounds
	}
	if c.LearningRate <= 0 {
		c.LearningRate = def.LearningRate
	}
	if c.MaxDepth <= 0 {
		c.MaxDepth = def.MaxDepth
	}
	if c.MinLeaf <= 0 {
		c.MinLeaf = def.MinLeaf
	}
	if c.Lambda <= 0 {
		c.Lambda = def.Lambda
	}
	return c
}

// Train fits a listwise ranking model with a LambdaRank objective:
// NDCG-weighted pairwise gradients drive gradient-boosted regression
// trees. Offline, single-threaded, no interaction with serving beyond the
// returned artifact.
func Train(ds *Dataset, cfg Config, featureNames []string, logger *zap.Logger) (*Model, error) {
	if err := ds.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()

	n := ds.Len()
	scores := make([]float64, n)
	grad := make([]float64, n)
	hess := make([]float64, n)

	grower := &treeGrower{
		features: ds.Features,
		grad:     grad,
		hess:     hess,
		maxDepth: cfg.MaxDepth,
		minLeaf:  cfg.MinLeaf,
		lambda:   cfg.Lambda,
		shrink:   cfg.LearningRate,
	}

	rows := make([]int, n)
	for i := range rows {
		rows[i] = i
	}

	model := &Model{
		Version:      modelVersion,
		Objective:    "lambdarank",
		NumFeatures:  len(ds.Features[0]),
		FeatureNames: featureNames,
		LearningRate: cfg.LearningRate,
		TrainedAt:    time.Now().UTC(),
	}

	logger.Info("training ranking model",
		zap.Int("rows", n),
		zap.Int("groups", len(ds.Groups)),
		zap.Int("rounds", cfg.Rounds),
	)

	for round := 0; round < cfg.Rounds; round++ {
		if !lambdaGradients(ds, scores, grad, hess) {
			// No group has label disagreement left to learn from.
			logger.Info("stopping early, gradients vanished", zap.Int("round", round))
			break
		}

		tree := grower.grow(rows)
		for i := range scores {
			scores[i] += tree.Predict(ds.Features[i])
		}
		model.Trees = append(model.Trees, tree)

		if (round+1)%50 == 0 {
			logger.Debug("boosting progress",
				zap.Int("round", round+1),
				zap.Float64("mean_ndcg", meanNDCG(ds, scores)),
			)
		}
	}

	logger.Info("training finished",
		zap.Int("trees", len(model.Trees)),
		zap.Float64("mean_ndcg", meanNDCG(ds, scores)),
	)

	return model, nil
}

// lambdaGradients accumulates LambdaRank gradients and hessians for every
// query group. Returns false when every gradient is zero.
func lambdaGradients(ds *Dataset, scores, grad, hess []float64) bool {
	for i := range grad {
		grad[i] = 0
		hess[i] = 0
	}

	any := false
	start := 0
	for _, size := range ds.Groups {
		if groupLambdas(ds, scores, grad, hess, start, size) {
			any = true
		}
		start += size
	}
	return any
}

func groupLambdas(ds *Dataset, scores, grad, hess []float64, start, size int) bool {
	if size < 2 {
		return false
	}

	idcg := idealDCG(ds.Labels[start : start+size])
	if idcg <= 0 {
		return false
	}

	pos := rankPositions(scores[start : start+size])

	updated := false
	for i := start; i < start+size; i++ {
		for j := start; j < start+size; j++ {
			if ds.Labels[i] <= ds.Labels[j] {
				continue
			}

			// |ΔNDCG| for swapping the pair in the current ranking.
			di := discount(pos[i-start])
			dj := discount(pos[j-start])
			delta := math.Abs(di-dj) * (ds.Labels[i] - ds.Labels[j]) / idcg
			if delta == 0 {
				continue
			}

			rho := 1.0 / (1.0 + math.Exp(scores[i]-scores[j]))
			grad[i] += rho * delta
			grad[j] -= rho * delta
			weight := rho * (1 - rho) * delta
			hess[i] += weight
			hess[j] += weight
			updated = true
		}
	}
	return updated
}

// rankPositions returns each row's 0-based position in the ranking by
// descending score, ties keeping input order.
func rankPositions(scores []float64) []int {
	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	pos := make([]int, len(scores))
	for rank, idx := range order {
		pos[idx] = rank
	}
	return pos
}

func discount(position int) float64 {
	return 1.0 / math.Log2(float64(position)+2)
}

func idealDCG(labels []float64) float64 {
	sorted := append([]float64(nil), labels...)
	sort.Sort(sort.Reverse(sort.Float64Slice(sorted)))

	dcg := 0.0
	for i, label := range sorted {
		dcg += label * discount(i)
	}
	return dcg
}

func meanNDCG(ds *Dataset, scores []float64) float64 {
	sum, groups := 0.0, 0
	start := 0
	for _, size := range ds.Groups {
		idcg := idealDCG(ds.Labels[start : start+size])
		if idcg > 0 {
			pos := rankPositions(scores[start : start+size])
			dcg := 0.0
			for i := start; i < start+size; i++ {
				dcg += ds.Labels[i] * discount(pos[i-start])
			}
			sum += dcg / idcg
			groups++
		}
		start += size
	}

	if groups == 0 {
		return 0
	}
	return sum / float64(groups)
}
