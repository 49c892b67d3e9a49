package marketplace

// HistoricalMatch is one row of the interaction log: within one ranking
// request (query_id) a worker either accepted a job or did not. Training
// input only; the serving path never writes it.
type HistoricalMatch struct {
	QueryID  string `json:"query_id"`
	JobID    string `json:"job_id"`
	WorkerID string `json:"worker_id"`
	Accepted bool   `json:"accepted"`
}

type History struct {
	Items []*HistoricalMatch
}

func (h *History) Len() int {
	return len(h.Items)
}
