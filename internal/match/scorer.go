package match

import (
	"errors"
	"fmt"
	"math"

	"github.com/nakarin/jobmatch/internal/rank"
)

// Scorer folds a batch of feature vectors into one relevance score per
// candidate. Both strategies sit behind this interface so the engine does
// not care whether the weights were hand-tuned or learned.
type Scorer interface {
	Name() string
	Score(feats []Features) ([]float64, error)
}

// Weights configures the heuristic scorer. Deployments historically ran
// anything from type-dominant (0.7+ on same_type) to similarity-dominant
// splits, so this is configuration, not constants.
type Weights struct {
	SameType    float64 `mapstructure:"same_type"`
	TimeOverlap float64 `mapstructure:"time_overlap"`
	Location    float64 `mapstructure:"location"`
	Wage        float64 `mapstructure:"wage"`
	Similarity  float64 `mapstructure:"similarity"`
}

// DefaultWeights is the split the marketplace shipped with.
func DefaultWeights() Weights {
	return Weights{SameType: 0.4, TimeOverlap: 0.2, Location: 0.2, Wage: 0.2, Similarity: 0}
}

const weightSumTolerance = 1e-6

// Validate rejects negative weights and any split that does not sum to
// 1.0. Scores are only comparable across deployments when the convex
// combination is normalized.
func (w Weights) Validate() error {
	for name, v := range map[string]float64{
		"same_type":    w.SameType,
		"time_overlap": w.TimeOverlap,
		"location":     w.Location,
		"wage":         w.Wage,
		"similarity":   w.Similarity,
	} {
		if v < 0 {
			return fmt.Errorf("weight %s is negative: %v", name, v)
		}
	}

	sum := w.SameType + w.TimeOverlap + w.Location + w.Wage + w.Similarity
	if math.Abs(sum-1) > weightSumTolerance {
		return fmt.Errorf("weights must sum to 1.0, got %v", sum)
	}
	return nil
}

// Heuristic scores candidates with a fixed convex combination of the
// five features. No training required.
type Heuristic struct {
	weights Weights
}

func NewHeuristic(w Weights) (*Heuristic, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	return &Heuristic{weights: w}, nil
}

func (h *Heuristic) Name() string { return "heuristic" }

func (h *Heuristic) Score(feats []Features) ([]float64, error) {
	scores := make([]float64, len(feats))
	for i, f := range feats {
		scores[i] = h.weights.SameType*f.SameType +
			h.weights.TimeOverlap*f.TimeOverlap +
			h.weights.Location*f.LocMatch +
			h.weights.Wage*f.WageProximity +
			h.weights.Similarity*f.Sim
	}
	return scores, nil
}

// Learned scores candidates with a trained ranking model artifact.
type Learned struct {
	model *rank.Model
}

func NewLearned(model *rank.Model) (*Learned, error) {
	if model == nil {
		return nil, errors.New("ranking model is required")
	}
	if model.NumFeatures != NumFeatures {
		return nil, fmt.Errorf("model expects %d features, this pipeline produces %d", model.NumFeatures, NumFeatures)
	}
	return &Learned{model: model}, nil
}

func (l *Learned) Name() string { return "learned" }

func (l *Learned) Score(feats []Features) ([]float64, error) {
	scores := make([]float64, len(feats))
	for i, f := range feats {
		score, err := l.model.Predict(f.Vector())
		if err != nil {
			return nil, fmt.Errorf("predict candidate %d: %w", i, err)
		}
		scores[i] = score
	}
	return scores, nil
}
