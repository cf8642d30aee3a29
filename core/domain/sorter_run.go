package domain

import "time"

// RunStatus is the outcome of one batch run.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunSucceeded RunStatus = "succeeded"
	RunFailed    RunStatus = "failed"
)

// RunReport summarizes one batch run for the status surface.
type RunReport struct {
	RunID      string         `json:"run_id"`
	Command    string         `json:"command"`
	Status     RunStatus      `json:"status"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt *time.Time     `json:"finished_at,omitempty"`
	Extracted  int            `json:"extracted"`
	Uploaded   int            `json:"uploaded"`
	Classified int            `json:"classified"`
	Duplicates int            `json:"duplicates"`
	Failed     int            `json:"failed"`
	Counts     map[string]int `json:"counts,omitempty"`
	Error      string         `json:"error,omitempty"`
}

// Finish stamps the report with its outcome.
func (r *RunReport) Finish(at time.Time, err error) {
	r.FinishedAt = &at
	r.Status = RunSucceeded
	if err != nil {
		r.Status = RunFailed
		r.Error = err.Error()
	}
}
