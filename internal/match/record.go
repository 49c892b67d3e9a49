package match

import (
	"time"

	"github.com/nakarin/jobmatch/internal/marketplace"
)

// Record is either side of a candidate pair. Job postings query worker
// profiles and vice versa; both expose the same matching surface, so the
// whole pipeline is one code path with the roles swapped.
type Record interface {
	RecordID() string
	Type() string
	Embedding() []float32
	Wage() float64
	Window() (start, end time.Time, ok bool)
	Place() (province, district, subdistrict string)
}

func JobRecords(jobs *marketplace.Jobs) []Record {
	records := make([]Record, jobs.Len())
	for i, job := range jobs.Items {
		records[i] = job
	}
	return records
}

func WorkerRecords(workers *marketplace.Workers) []Record {
	records := make([]Record, workers.Len())
	for i, worker := range workers.Items {
		records[i] = worker
	}
	return records
}
