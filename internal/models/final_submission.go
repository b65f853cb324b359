package models

import "time"

// FinalSubmission is a frozen copy of a Submission row, held in the separate
// final-selection store. At most two rows exist per user; the whole set for a
// user is replaced in one transaction on every selection update.
type FinalSubmission struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	SubmissionID     uint      `gorm:"not null;index" json:"submission_id"`
	UserID           uint      `gorm:"not null;index" json:"user_id"`
	TeamID           uint      `json:"team_id"`
	Filename         string    `gorm:"size:255" json:"filename"`
	PublicScore      float64   `json:"public_score"`
	PrivateScore     float64   `json:"private_score"`
	SubmittedAt      time.Time `json:"submitted_at"`
	UserSubmissionID int       `json:"user_submission_id"`
}
