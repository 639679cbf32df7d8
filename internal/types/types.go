package types

import "github.com/ZanzyTHEbar/coopcredit-guard/internal/scoring"

// HistoryEntry is one recorded scoring event. Entries are appended in
// chronological order and never mutated.
type HistoryEntry struct {
	ID        string             `json:"id" yaml:"id"`
	Timestamp string             `json:"timestamp" yaml:"timestamp"`
	Input     scoring.Applicant  `json:"input" yaml:"input"`
	Result    scoring.Prediction `json:"result" yaml:"result"`
}

// HealthResponse is returned by the health endpoint.
type HealthResponse struct {
	Status    string `json:"status" yaml:"status"`
	Timestamp string `json:"timestamp" yaml:"timestamp"`
	Version   string `json:"version" yaml:"version"`
	Backend   string `json:"backend" yaml:"backend"`
	History   int    `json:"history" yaml:"history"`
	// RateLimiter is where prediction quotas are counted: redis, local or degraded.
	RateLimiter string `json:"rate_limiter" yaml:"rate_limiter"`
}

// HistoryResponse wraps a page of history entries.
type HistoryResponse struct {
	Entries []HistoryEntry `json:"entries" yaml:"entries"`
	Count   int            `json:"count" yaml:"count"`
}

// PreviewResponse is returned when an applicant is scored without recording.
type PreviewResponse struct {
	Result    scoring.Prediction     `json:"result" yaml:"result"`
	Breakdown []scoring.FactorPoints `json:"breakdown" yaml:"breakdown"`
}
