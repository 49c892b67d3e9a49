package rank

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"
)

const modelVersion = 1

// Model is a trained gradient-boosted ranking model. It is the single
// persisted artifact of the trainer: loaded once at serving time and
// reused across requests, opaque to everything else.
type Model struct {
	Version      int       `json:"version"`
	Objective    string    `json:"objective"`
	NumFeatures  int       `json:"num_features"`
	FeatureNames []string  `json:"feature_names,omitempty"`
	LearningRate float64   `json:"learning_rate"`
	Trees        []*Tree   `json:"trees"`
	TrainedAt    time.Time `json:"trained_at"`
}

// Predict returns the relevance score for one feature vector. Scores are
// only meaningful relative to other candidates of the same query.
func (m *Model) Predict(features []float64) (float64, error) {
	if len(features) != m.NumFeatures {
		return 0, fmt.Errorf("feature vector has arity %d, model expects %d", len(features), m.NumFeatures)
	}

	score := 0.0
	for _, tree := range m.Trees {
		score += tree.Predict(features)
	}
	return score, nil
}

// Save writes the model artifact as indented JSON.
func (m *Model) Save(path string) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("create model artifact: %w", err)
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(m); err != nil {
		return fmt.Errorf("encode model artifact: %w", err)
	}
	return nil
}

// Load reads a model artifact written by Save.
func Load(path string) (*Model, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open model artifact: %w", err)
	}
	defer file.Close()

	var model Model
	if err := json.NewDecoder(file).Decode(&model); err != nil {
		return nil, fmt.Errorf("decode model artifact: %w", err)
	}

	if model.Version != modelVersion {
		return nil, fmt.Errorf("model artifact version %d is not supported", model.Version)
	}
	if model.NumFeatures <= 0 || len(model.Trees) == 0 {
		return nil, errors.New("model artifact is empty")
	}

	return &model, nil
}
