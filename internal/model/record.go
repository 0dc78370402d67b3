package model

import "time"

// Search kinds stored in the history.
const (
	KindSchoolSearch   = "school_search"
	KindGitHubAnalysis = "github_analysis"
)

// SearchRecord is one persisted crew run.
type SearchRecord struct {
	ID          int64             `json:"id"`
	RunID       string            `json:"run_id"`
	Kind        string            `json:"kind"`
	Inputs      map[string]string `json:"inputs"`
	Raw         string            `json:"raw"`
	Fingerprint string            `json:"fingerprint"`
	CreatedAt   time.Time         `json:"created_at"`
}
