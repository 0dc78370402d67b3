package model

import "time"

// TaskOutput is the recorded output of one task in a crew run.
type TaskOutput struct {
	Task   string `json:"task"`
	Agent  string `json:"agent"`
	Output string `json:"output"`
}

// CrewResult is the outcome of one crew kickoff.
// Raw is the output of the last task, which is what callers display.
type CrewResult struct {
	RunID      string       `json:"run_id"`
	Crew       string       `json:"crew"`
	Raw        string       `json:"raw"`
	Tasks      []TaskOutput `json:"tasks"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
}

// Duration returns how long the kickoff took.
func (r *CrewResult) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// String returns Raw so a result can be dropped into a response as-is.
func (r *CrewResult) String() string {
	return r.Raw
}
