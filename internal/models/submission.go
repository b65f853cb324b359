package models

import "time"

// Submission is append-only: no code path updates or deletes a row once it is
// recorded. UserSubmissionID is a gapless per-user sequence starting at 1,
// assigned by a correlated aggregate at insert time.
type Submission struct {
	ID               uint      `gorm:"primaryKey" json:"submission_id"`
	UserID           uint      `gorm:"not null;index;uniqueIndex:idx_submissions_user_seq" json:"user_id"`
	TeamID           uint      `gorm:"not null;index" json:"team_id"`
	Filename         string    `gorm:"size:255" json:"filename"`
	PublicScore      float64   `json:"public_score"`
	PrivateScore     float64   `json:"private_score"`
	SubmittedAt      time.Time `gorm:"not null;index" json:"submitted_at"`
	UserSubmissionID int       `gorm:"not null;uniqueIndex:idx_submissions_user_seq" json:"user_submission_id"`
	ContentHash      string    `gorm:"size:64;index" json:"-"`
}
