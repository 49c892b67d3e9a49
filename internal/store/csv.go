package store

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/nakarin/jobmatch/internal/marketplace"
)

// Required join/ranking columns per table. A table missing any of these is
// a schema mismatch, not dirty data: the loader refuses it outright
// instead of silently producing a corrupted join.
var (
	jobsRequired    = []string{"job_id", "job_type"}
	workersRequired = []string{"worker_id", "job_type"}
	historyRequired = []string{"query_id", "job_id", "worker_id", "accepted"}
)

// MissingColumnsError names the required columns absent from a table.
type MissingColumnsError struct {
	Table   string
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("table %s is missing required columns: %s", e.Table, strings.Join(e.Columns, ", "))
}

// LoadJobs reads a job-postings CSV (the upstream post_job export).
// Per-row defects default: bad numbers become 0, bad dates leave the
// posting unscheduled. Only structurally missing columns fail.
func LoadJobs(path string) (*marketplace.Jobs, error) {
	t, err := readTable(path, "jobs", jobsRequired)
	if err != nil {
		return nil, err
	}

	jobs := &marketplace.Jobs{}
	for _, row := range t.rows {
		job := &marketplace.JobPosting{
			ID:            t.get(row, "job_id"),
			JobType:       t.get(row, "job_type"),
			Detail:        t.get(row, "job_detail"),
			RequiredSkill: t.get(row, "required_skill"),
			Salary:        parseFloat(t.get(row, "salary")),
			StartSalary:   parseFloat(t.get(row, "start_salary")),
			RangeSalary:   parseFloat(t.get(row, "range_salary")),
			Province:      t.get(row, "province"),
			District:      t.get(row, "district"),
			Subdistrict:   t.get(row, "subdistrict"),
			Date:          t.get(row, "job_date"),
			StartTime:     t.get(row, "start_time"),
			EndTime:       t.get(row, "end_time"),
		}
		job.Normalize()
		jobs.Items = append(jobs.Items, job)
	}
	return jobs, nil
}

// LoadWorkers reads a worker-profiles CSV (the upstream find_job export).
func LoadWorkers(path string) (*marketplace.Workers, error) {
	t, err := readTable(path, "workers", workersRequired)
	if err != nil {
		return nil, err
	}

	workers := &marketplace.Workers{}
	for _, row := range t.rows {
		worker := &marketplace.WorkerProfile{
			ID:             t.get(row, "worker_id"),
			JobType:        t.get(row, "job_type"),
			Skills:         t.get(row, "skills"),
			JobHistory:     t.get(row, "job_history"),
			ExpectedSalary: parseFloat(t.get(row, "expected_salary")),
			StartSalary:    parseFloat(t.get(row, "start_salary")),
			RangeSalary:    parseFloat(t.get(row, "range_salary")),
			Province:       t.get(row, "province"),
			District:       t.get(row, "district"),
			Subdistrict:    t.get(row, "subdistrict"),
			Date:           t.get(row, "job_date"),
			StartTime:      t.get(row, "start_time"),
			EndTime:        t.get(row, "end_time"),
		}
		worker.Normalize()
		workers.Items = append(workers.Items, worker)
	}
	return workers, nil
}

// LoadHistory reads the historical match log used for training.
func LoadHistory(path string) (*marketplace.History, error) {
	t, err := readTable(path, "history", historyRequired)
	if err != nil {
		return nil, err
	}

	history := &marketplace.History{}
	for _, row := range t.rows {
		history.Items = append(history.Items, &marketplace.HistoricalMatch{
			QueryID:  t.get(row, "query_id"),
			JobID:    t.get(row, "job_id"),
			WorkerID: t.get(row, "worker_id"),
			Accepted: parseBool(t.get(row, "accepted")),
		})
	}
	return history, nil
}

type table struct {
	header map[string]int
	rows   [][]string
}

func readTable(path, name string, required []string) (*table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s table: %w", name, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	headerRow, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%s table %s is empty", name, path)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s header: %w", name, err)
	}

	t := &table{header: make(map[string]int, len(headerRow))}
	for i, col := range headerRow {
		t.header[strings.TrimSpace(col)] = i
	}

	var missing []string
	for _, col := range required {
		if _, ok := t.header[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingColumnsError{Table: name, Columns: missing}
	}

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s row: %w", name, err)
		}
		t.rows = append(t.rows, row)
	}

	return t, nil
}

// get resolves a column for one row, "" when the column does not exist or
// the row is short.
func (t *table) get(row []string, col string) string {
	idx, ok := t.header[col]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func parseFloat(s string) float64 {
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

func parseBool(s string) bool {
	switch strings.ToLower(s) {
	case "1", "true", "yes", "y":
		return true
	default:
		return false
	}
}
