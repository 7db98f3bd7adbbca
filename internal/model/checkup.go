package model

import "time"

// CheckupRecord is emitted once per completed scan flow.
type CheckupRecord struct {
	ID          string       `json:"id"`
	CompletedAt time.Time    `json:"completed_at"`
	Profile     UserProfile  `json:"profile"`
	Summary     ScoreSummary `json:"summary"`
}
