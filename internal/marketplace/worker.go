package marketplace

import (
	"encoding/json"
	"os"
	"time"
)

// WorkerProfile is one seeker profile with the availability window and pay
// expectation used for matching.
type WorkerProfile struct {
	ID             string  `json:"worker_id"`
	JobType        string  `json:"job_type"`
	Skills         string  `json:"skills,omitempty"`
	JobHistory     string  `json:"job_history,omitempty"`
	ExpectedSalary float64 `json:"expected_salary,omitempty"`
	StartSalary    float64 `json:"start_salary,omitempty"`
	RangeSalary    float64 `json:"range_salary,omitempty"`
	Province       string  `json:"province,omitempty"`
	District       string  `json:"district,omitempty"`
	Subdistrict    string  `json:"subdistrict,omitempty"`
	Date           string  `json:"job_date,omitempty"`
	StartTime      string  `json:"start_time,omitempty"`
	EndTime        string  `json:"end_time,omitempty"`

	Vector []float32 `json:"-"`

	startsAt  time.Time
	endsAt    time.Time
	scheduled bool
}

// Normalize assembles the derived availability window from the raw
// date/time columns. Unparseable values leave the worker unscheduled.
func (w *WorkerProfile) Normalize() {
	w.startsAt, w.endsAt, w.scheduled = window(w.Date, w.StartTime, w.EndTime)
}

func (w *WorkerProfile) RecordID() string { return w.ID }

func (w *WorkerProfile) Type() string { return w.JobType }

func (w *WorkerProfile) Embedding() []float32 { return w.Vector }

func (w *WorkerProfile) SetEmbedding(v []float32) { w.Vector = v }

// Wage is the worker's expected pay: the explicit expectation when
// present, otherwise the midpoint of the stated range.
func (w *WorkerProfile) Wage() float64 {
	if w.ExpectedSalary > 0 {
		return w.ExpectedSalary
	}
	return midpoint(w.StartSalary, w.RangeSalary)
}

func (w *WorkerProfile) Window() (time.Time, time.Time, bool) {
	return w.startsAt, w.endsAt, w.scheduled
}

func (w *WorkerProfile) Place() (province, district, subdistrict string) {
	return w.Province, w.District, w.Subdistrict
}

func (w *WorkerProfile) TextField(name string) string {
	switch name {
	case FieldJobType:
		return w.JobType
	case FieldSkills:
		return w.Skills
	case FieldJobHistory:
		return w.JobHistory
	default:
		return ""
	}
}

type Workers struct {
	Items []*WorkerProfile
}

func (ws *Workers) Len() int {
	return len(ws.Items)
}

func (ws *Workers) FindByID(id string) *WorkerProfile {
	for _, worker := range ws.Items {
		if worker.ID == id {
			return worker
		}
	}
	return nil
}

func (ws *Workers) DumpToTmpFile() (string, error) {
	file, err := os.CreateTemp("", "workers_*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(ws); err != nil {
		return "", err
	}
	return file.Name(), nil
}
