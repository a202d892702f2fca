package database

import (
	"time"
)

// ImportRun summarizes one executed import batch.
type ImportRun struct {
	ID           string     `json:"id"` // UUID
	Source       string     `json:"source"`
	Status       string     `json:"status"` // 'running', 'completed', 'failed'
	TotalRecords int        `json:"total_records"`
	Written      int        `json:"written"`
	Failed       int        `json:"failed"`
	Messages     []string   `json:"messages"`
	StartedAt    time.Time  `json:"started_at"`
	CompletedAt  *time.Time `json:"completed_at"`
}
