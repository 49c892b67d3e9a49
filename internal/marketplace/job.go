package marketplace

import (
	"encoding/json"
	"os"
	"time"
)

// JobPosting is one employer post. Postings are read-only for the matcher:
// a changed post is a new posting, never an in-place mutation.
type JobPosting struct {
	ID            string  `json:"job_id"`
	JobType       string  `json:"job_type"`
	Detail        string  `json:"job_detail,omitempty"`
	RequiredSkill string  `json:"required_skill,omitempty"`
	Salary        float64 `json:"salary,omitempty"`
	StartSalary   float64 `json:"start_salary,omitempty"`
	RangeSalary   float64 `json:"range_salary,omitempty"`
	Province      string  `json:"province,omitempty"`
	District      string  `json:"district,omitempty"`
	Subdistrict   string  `json:"subdistrict,omitempty"`
	Date          string  `json:"job_date,omitempty"`
	StartTime     string  `json:"start_time,omitempty"`
	EndTime       string  `json:"end_time,omitempty"`

	// Vector is set by the encoder, not by the upstream tables.
	Vector []float32 `json:"-"`

	startsAt  time.Time
	endsAt    time.Time
	scheduled bool
}

// Normalize assembles the derived schedule window from the raw date/time
// columns. Unparseable values leave the posting unscheduled.
func (j *JobPosting) Normalize() {
	j.startsAt, j.endsAt, j.scheduled = window(j.Date, j.StartTime, j.EndTime)
}

func (j *JobPosting) RecordID() string { return j.ID }

func (j *JobPosting) Type() string { return j.JobType }

func (j *JobPosting) Embedding() []float32 { return j.Vector }

func (j *JobPosting) SetEmbedding(v []float32) { j.Vector = v }

// Wage is the posting's representative pay: the flat salary when present,
// otherwise the midpoint of the advertised range.
func (j *JobPosting) Wage() float64 {
	if j.Salary > 0 {
		return j.Salary
	}
	return midpoint(j.StartSalary, j.RangeSalary)
}

func (j *JobPosting) Window() (time.Time, time.Time, bool) {
	return j.startsAt, j.endsAt, j.scheduled
}

func (j *JobPosting) Place() (province, district, subdistrict string) {
	return j.Province, j.District, j.Subdistrict
}

// TextField resolves a named text column, returning "" for anything
// unknown or unset. This is the only field access the encoder uses.
func (j *JobPosting) TextField(name string) string {
	switch name {
	case FieldJobType:
		return j.JobType
	case FieldJobDetail:
		return j.Detail
	case FieldRequiredSkill:
		return j.RequiredSkill
	default:
		return ""
	}
}

type Jobs struct {
	Items []*JobPosting
}

func (js *Jobs) Len() int {
	return len(js.Items)
}

func (js *Jobs) FindByID(id string) *JobPosting {
	for _, job := range js.Items {
		if job.ID == id {
			return job
		}
	}
	return nil
}

func (js *Jobs) DumpToTmpFile() (string, error) {
	file, err := os.CreateTemp("", "jobs_*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(js); err != nil {
		return "", err
	}
	return file.Name(), nil
}
