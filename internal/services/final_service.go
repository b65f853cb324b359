package services

import (
	"errors"
	"fmt"

	"github.com/ktakita1011/MiniKaggle/internal/models"
	"gorm.io/gorm"
)

var (
	ErrInvalidSelection = errors.New("invalid final-submission selection")
	ErrSelectionLocked  = errors.New("final-submission selection is locked")
)

// MaxFinalSubmissions is how many submissions a user may designate as final.
const MaxFinalSubmissions = 2

// FinalSelectionService manages the final-submission snapshot store. A user's
// selection is always replaced wholesale: delete plus re-insert of fresh
// copies of the chosen Submission rows, in one transaction, so a concurrent
// leaderboard read never sees an empty or oversized set.
type FinalSelectionService struct {
	main   *gorm.DB
	final  *gorm.DB
	locked bool
}

func NewFinalSelectionService(main, final *gorm.DB, locked bool) *FinalSelectionService {
	return &FinalSelectionService{main: main, final: final, locked: locked}
}

// Select replaces the user's final submissions with the given ones. Every id
// must belong to the user; at most MaxFinalSubmissions may be chosen. An
// empty selection is invalid: a selection, once made, can only be replaced,
// never cleared back to automatic backfill. When selection is locked
// (competition close) every call fails, valid or not.
func (s *FinalSelectionService) Select(userID uint, submissionIDs []uint) ([]models.FinalSubmission, error) {
	if s.locked {
		return nil, ErrSelectionLocked
	}

	ids := dedupe(submissionIDs)
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: no submissions selected", ErrInvalidSelection)
	}
	if len(ids) > MaxFinalSubmissions {
		return nil, fmt.Errorf("%w: at most %d submissions may be selected", ErrInvalidSelection, MaxFinalSubmissions)
	}

	var subs []models.Submission
	if err := s.main.Where("id IN ? AND user_id = ?", ids, userID).Find(&subs).Error; err != nil {
		return nil, fmt.Errorf("failed to load selected submissions: %w", err)
	}
	if len(subs) != len(ids) {
		return nil, fmt.Errorf("%w: submission does not exist or is not owned by user", ErrInvalidSelection)
	}

	// Re-copy the rows rather than referencing them, freezing the scores as
	// they are at selection time.
	copies := make([]models.FinalSubmission, len(subs))
	for i, sub := range subs {
		copies[i] = models.FinalSubmission{
			SubmissionID:     sub.ID,
			UserID:           sub.UserID,
			TeamID:           sub.TeamID,
			Filename:         sub.Filename,
			PublicScore:      sub.PublicScore,
			PrivateScore:     sub.PrivateScore,
			SubmittedAt:      sub.SubmittedAt,
			UserSubmissionID: sub.UserSubmissionID,
		}
	}

	err := s.final.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&models.FinalSubmission{}).Error; err != nil {
			return fmt.Errorf("failed to clear previous selection: %w", err)
		}
		return tx.Create(&copies).Error
	})
	if err != nil {
		return nil, err
	}
	return copies, nil
}

// CurrentFinal returns the user's final submissions (0 to 2 rows), most
// recent first.
func (s *FinalSelectionService) CurrentFinal(userID uint) ([]models.FinalSubmission, error) {
	var finals []models.FinalSubmission
	err := s.final.Where("user_id = ?", userID).
		Order("submitted_at DESC").
		Find(&finals).Error
	if err != nil {
		return nil, fmt.Errorf("final submission lookup failed: %w", err)
	}
	return finals, nil
}

func dedupe(ids []uint) []uint {
	seen := make(map[uint]bool, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
