package match

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/nakarin/jobmatch/internal/marketplace"
	"github.com/nakarin/jobmatch/internal/rank"
)

// BuildTrainingSet joins the historical match log against jobs and
// workers (inner join on ids) and computes the feature vector for every
// joined row. Both collections must already be encoded: feature values
// are recomputed from ground-truth record attributes, the same extraction
// the serving path runs on retrieved candidates.
//
// Rows referencing unknown ids are dropped like any inner join; a record
// found without an embedding is a pipeline-order defect and fails fast.
func BuildTrainingSet(jobs *marketplace.Jobs, workers *marketplace.Workers, history *marketplace.History, logger *zap.Logger) (*rank.Dataset, error) {
	jobsByID := make(map[string]*marketplace.JobPosting, jobs.Len())
	for _, job := range jobs.Items {
		jobsByID[job.ID] = job
	}
	workersByID := make(map[string]*marketplace.WorkerProfile, workers.Len())
	for _, worker := range workers.Items {
		workersByID[worker.ID] = worker
	}

	ds := &rank.Dataset{}
	joined, dropped := 0, 0

	var (
		groupFeats  []Features
		groupLabels []float64
		currentQ    string
	)

	flush := func() {
		if len(groupFeats) == 0 {
			return
		}
		NormalizeWages(groupFeats)
		rows := make([][]float64, len(groupFeats))
		for i, f := range groupFeats {
			rows[i] = f.Vector()
		}
		ds.AddGroup(rows, groupLabels)
		groupFeats = nil
		groupLabels = nil
	}

	for _, item := range history.Items {
		job, ok := jobsByID[item.JobID]
		if !ok {
			dropped++
			continue
		}
		worker, ok := workersByID[item.WorkerID]
		if !ok {
			dropped++
			continue
		}

		if len(job.Embedding()) == 0 {
			return nil, fmt.Errorf("job %s has no embedding; encode jobs before building the training set", job.ID)
		}
		if len(worker.Embedding()) == 0 {
			return nil, fmt.Errorf("worker %s has no embedding; encode workers before building the training set", worker.ID)
		}

		// History rows are grouped contiguously by query_id; a change of
		// id closes the current group.
		if item.QueryID != currentQ {
			flush()
			currentQ = item.QueryID
		}

		sim := Cosine(job.Embedding(), worker.Embedding())
		groupFeats = append(groupFeats, Extract(job, worker, sim))

		label := 0.0
		if item.Accepted {
			label = 1.0
		}
		groupLabels = append(groupLabels, label)
		joined++
	}
	flush()

	logger.Info("built training set",
		zap.Int("history_rows", history.Len()),
		zap.Int("joined", joined),
		zap.Int("dropped", dropped),
		zap.Int("groups", len(ds.Groups)),
	)

	return ds, nil
}
