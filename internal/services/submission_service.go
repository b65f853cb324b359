package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/ktakita1011/MiniKaggle/internal/metric"
	"github.com/ktakita1011/MiniKaggle/internal/models"
	"gorm.io/gorm"
)

var (
	ErrQuotaExceeded       = errors.New("submission quota exceeded")
	ErrDuplicateSubmission = errors.New("an identical file was already submitted")
)

// SubmissionService owns the append-only submission history. Rows are only
// ever inserted; every read derives from the full history.
type SubmissionService struct {
	db             *gorm.DB
	maxSubmissions int
	dedupWindow    time.Duration
}

func NewSubmissionService(db *gorm.DB, maxSubmissions int, dedupWindow time.Duration) *SubmissionService {
	return &SubmissionService{db: db, maxSubmissions: maxSubmissions, dedupWindow: dedupWindow}
}

// GetOrCreateUser looks up a user by username, creating the row on first
// interaction.
func (s *SubmissionService) GetOrCreateUser(username string) (*models.User, error) {
	var user models.User
	err := s.db.Where("username = ?", username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		user = models.User{Username: username}
		if err := s.db.Create(&user).Error; err != nil {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}
		return &user, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	return &user, nil
}

// recordRetries bounds retries of the insert transaction when concurrent
// uploads by the same user collide on the sequence number.
const recordRetries = 3

// Record persists a scored submission. The duplicate check, the quota
// re-check and the insert run in one transaction. On backends where
// transactions overlap (postgres), two concurrent inserts for the same user
// can compute the same sequence number; the unique
// (user_id, user_submission_id) index turns that race into a duplicate-key
// error and the whole transaction is retried, re-checking the quota.
func (s *SubmissionService) Record(userID, teamID uint, filename string, publicScore, privateScore float64, submittedAt time.Time, contentHash string) (*models.Submission, error) {
	var sub *models.Submission
	var err error
	for attempt := 0; attempt < recordRetries; attempt++ {
		sub, err = s.record(userID, teamID, filename, publicScore, privateScore, submittedAt, contentHash)
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return sub, err
		}
	}
	return nil, fmt.Errorf("failed to record submission after %d attempts: %w", recordRetries, err)
}

// record runs one attempt of the duplicate check, the quota check and the
// insert with the correlated per-user sequence aggregate.
func (s *SubmissionService) record(userID, teamID uint, filename string, publicScore, privateScore float64, submittedAt time.Time, contentHash string) (*models.Submission, error) {
	var sub models.Submission
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if contentHash != "" && s.dedupWindow > 0 {
			var dup int64
			if err := tx.Model(&models.Submission{}).
				Where("user_id = ? AND content_hash = ? AND submitted_at > ?", userID, contentHash, submittedAt.Add(-s.dedupWindow)).
				Count(&dup).Error; err != nil {
				return fmt.Errorf("duplicate check failed: %w", err)
			}
			if dup > 0 {
				return ErrDuplicateSubmission
			}
		}

		var count int64
		if err := tx.Model(&models.Submission{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
			return fmt.Errorf("submission count failed: %w", err)
		}
		if count >= int64(s.maxSubmissions) {
			return ErrQuotaExceeded
		}

		res := tx.Model(&models.Submission{}).Create(map[string]interface{}{
			"user_id":            userID,
			"team_id":            teamID,
			"filename":           filename,
			"public_score":       publicScore,
			"private_score":      privateScore,
			"submitted_at":       submittedAt,
			"content_hash":       contentHash,
			"user_submission_id": gorm.Expr("(SELECT COALESCE(MAX(user_submission_id), 0) + 1 FROM submissions WHERE user_id = ?)", userID),
		})
		if res.Error != nil {
			return fmt.Errorf("failed to record submission: %w", res.Error)
		}

		return tx.Where("user_id = ?", userID).Order("id DESC").First(&sub).Error
	})
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (s *SubmissionService) SubmissionCount(userID uint) (int, error) {
	var count int64
	if err := s.db.Model(&models.Submission{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("submission count failed: %w", err)
	}
	return int(count), nil
}

func (s *SubmissionService) MaxSubmissions() int { return s.maxSubmissions }

// BestScore returns the user's best public score under the given direction.
// With no submissions yet it returns the ±Inf sentinel, so the first real
// score always registers as a new best.
func (s *SubmissionService) BestScore(userID uint, d metric.Direction) (float64, error) {
	agg := "MIN(public_score)"
	if d == metric.Max {
		agg = "MAX(public_score)"
	}

	var best *float64
	err := s.db.Model(&models.Submission{}).
		Select(agg).
		Where("user_id = ?", userID).
		Scan(&best).Error
	if err != nil {
		return 0, fmt.Errorf("best score lookup failed: %w", err)
	}
	if best == nil {
		return metric.EmptyBest(d), nil
	}
	return *best, nil
}

// History returns the user's submissions, most recent first.
func (s *SubmissionService) History(userID uint) ([]models.Submission, error) {
	var subs []models.Submission
	err := s.db.Where("user_id = ?", userID).
		Order("submitted_at DESC, id DESC").
		Find(&subs).Error
	if err != nil {
		return nil, fmt.Errorf("history lookup failed: %w", err)
	}
	return subs, nil
}
