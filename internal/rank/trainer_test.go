package rank

import (
	"path/filepath"
	"testing"

	"go.uber.org/zap"
)

// separableDataset builds query groups where one feature fully explains
// acceptance.
func separableDataset(groups int) *Dataset {
	ds := &Dataset{}
	for i := 0; i < groups; i++ {
		ds.AddGroup(
			[][]float64{{1, 0.2}, {0, 0.8}},
			[]float64{1, 0},
		)
	}
	return ds
}

func TestTrainOrdersSeparableData(t *testing.T) {
	ds := separableDataset(10)

	model, err := Train(ds, Config{Rounds: 20}, []string{"signal", "noise"}, zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(model.Trees) == 0 {
		t.Fatalf("expected at least one tree")
	}

	accepted, err := model.Predict([]float64{1, 0.2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rejected, err := model.Predict([]float64{0, 0.8})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if accepted <= rejected {
		t.Fatalf("expected the accepted pattern to outscore the rejected one: %v vs %v", accepted, rejected)
	}
}

func TestTrainRejectsEmptyDataset(t *testing.T) {
	if _, err := Train(&Dataset{}, DefaultConfig(), nil, zap.NewNop()); err == nil {
		t.Fatalf("expected an error for an empty dataset")
	}
}

func TestTrainStopsEarlyWithoutLabelDisagreement(t *testing.T) {
	ds := &Dataset{}
	ds.AddGroup([][]float64{{1}, {0}}, []float64{1, 1})

	model, err := Train(ds, Config{Rounds: 50}, nil, zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(model.Trees) != 0 {
		t.Fatalf("all-equal labels carry no ranking signal, got %d trees", len(model.Trees))
	}
}

func TestDatasetValidate(t *testing.T) {
	ds := &Dataset{
		Features: [][]float64{{1}, {2}},
		Labels:   []float64{1, 0},
		Groups:   []int{1},
	}
	if err := ds.Validate(); err == nil {
		t.Fatalf("expected an error for group sizes not covering all rows")
	}

	ds.Groups = []int{2}
	if err := ds.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ds.Features[1] = []float64{1, 2}
	if err := ds.Validate(); err == nil {
		t.Fatalf("expected an error for inconsistent arity")
	}
}

func TestModelSaveLoadRoundTrip(t *testing.T) {
	ds := separableDataset(5)

	model, err := Train(ds, Config{Rounds: 5}, []string{"signal", "noise"}, zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	path := filepath.Join(t.TempDir(), "model.json")
	if err := model.Save(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if loaded.NumFeatures != model.NumFeatures {
		t.Fatalf("arity lost in round trip: %d vs %d", loaded.NumFeatures, model.NumFeatures)
	}
	if len(loaded.Trees) != len(model.Trees) {
		t.Fatalf("trees lost in round trip: %d vs %d", len(loaded.Trees), len(model.Trees))
	}

	input := []float64{0.5, 0.5}
	before, err := model.Predict(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	after, err := loaded.Predict(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if before != after {
		t.Fatalf("prediction changed across round trip: %v vs %v", before, after)
	}
}

func TestPredictRejectsArityMismatch(t *testing.T) {
	model := &Model{NumFeatures: 2, Trees: []*Tree{{Nodes: []Node{{Leaf: true}}}}}
	if _, err := model.Predict([]float64{1}); err == nil {
		t.Fatalf("expected an error for a short feature vector")
	}
}

func TestLoadRejectsMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatalf("expected an error for a missing artifact")
	}
}
