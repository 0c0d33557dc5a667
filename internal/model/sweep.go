package model

import "time"

// SweepRecordResult is the outcome of billing a single usage record
// during one sweep. Failed records keep their billing reference point so
// the unpaid hours are retried on the next sweep.
type SweepRecordResult struct {
	RecordID     string  `json:"record_id"`
	TenantID     string  `json:"tenant_id"`
	InstanceID   string  `json:"instance_id"`
	HoursCharged int     `json:"hours_charged"`
	Amount       float64 `json:"amount"`
	Skipped      bool    `json:"skipped,omitempty"`
	Error        string  `json:"error,omitempty"`
}

// SweepResult summarizes one billing sweep. Processed counts only
// successfully charged records.
type SweepResult struct {
	StartedAt  time.Time           `json:"started_at"`
	FinishedAt time.Time           `json:"finished_at"`
	Processed  int                 `json:"processed"`
	Results    []SweepRecordResult `json:"results"`
}
