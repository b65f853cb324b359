package dto

import "time"

// SubmitResponse is returned after an upload has been scored and recorded.
// PreviousBest is omitted on a user's first submission.
type SubmitResponse struct {
	SubmissionID     uint     `json:"submission_id"`
	UserSubmissionID int      `json:"user_submission_id"`
	Filename         string   `json:"filename"`
	PublicScore      float64  `json:"public_score"`
	NewBest          bool     `json:"new_best"`
	PreviousBest     *float64 `json:"previous_best,omitempty"`
	SubmissionsUsed  int      `json:"submissions_used"`
	MaxSubmissions   int      `json:"max_submissions"`
}

// SubmissionResponse is one history row. PrivateScore stays hidden while the
// competition is still running (final selection open).
type SubmissionResponse struct {
	SubmissionID     uint      `json:"submission_id"`
	UserSubmissionID int       `json:"user_submission_id"`
	Filename         string    `json:"filename"`
	PublicScore      float64   `json:"public_score"`
	PrivateScore     *float64  `json:"private_score,omitempty"`
	SubmittedAt      time.Time `json:"submitted_at"`
}

type HistoryResponse struct {
	Submissions []SubmissionResponse `json:"submissions"`
	Total       int                  `json:"total"`
}

type QuotaResponse struct {
	Used      int `json:"used"`
	Max       int `json:"max"`
	Remaining int `json:"remaining"`
}

type FinalSelectionRequest struct {
	SubmissionIDs []uint `json:"submission_ids"`
}

type FinalSubmissionResponse struct {
	SubmissionID     uint      `json:"submission_id"`
	UserSubmissionID int       `json:"user_submission_id"`
	Filename         string    `json:"filename"`
	PublicScore      float64   `json:"public_score"`
	SubmittedAt      time.Time `json:"submitted_at"`
}

type TeamResponse struct {
	TeamID   uint   `json:"team_id"`
	TeamName string `json:"team_name"`
}

type RenameTeamRequest struct {
	TeamName string `json:"team_name"`
}
