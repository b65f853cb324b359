package services

import (
	"math"
	"testing"
	"time"

	"github.com/ktakita1011/MiniKaggle/internal/metric"
	"github.com/ktakita1011/MiniKaggle/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestGetOrCreateUser(t *testing.T) {
	db := openMainDB(t)
	svc := NewSubmissionService(db, 100, 10*time.Minute)

	first, err := svc.GetOrCreateUser("alice")
	require.NoError(t, err)
	require.NotZero(t, first.ID)

	second, err := svc.GetOrCreateUser("alice")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	other, err := svc.GetOrCreateUser("bob")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, other.ID)
}

func TestRecordAssignsGaplessSequence(t *testing.T) {
	db := openMainDB(t)
	svc := NewSubmissionService(db, 100, 0)
	user := createUser(t, db, "alice")
	team := createTeam(t, db, "alice")

	now := time.Now().UTC()
	for i := 1; i <= 3; i++ {
		sub, err := svc.Record(user.ID, team.ID, "pred.csv", 0.5, 0.6, now.Add(time.Duration(i)*time.Second), "")
		require.NoError(t, err)
		assert.Equal(t, i, sub.UserSubmissionID)
	}

	// Another user's sequence starts at 1 independently.
	other := createUser(t, db, "bob")
	sub, err := svc.Record(other.ID, team.ID, "pred.csv", 0.5, 0.6, now, "")
	require.NoError(t, err)
	assert.Equal(t, 1, sub.UserSubmissionID)

	count, err := svc.SubmissionCount(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestSequenceNumberUniquePerUser(t *testing.T) {
	db := openMainDB(t)
	user := createUser(t, db, "alice")
	team := createTeam(t, db, "alice")
	now := time.Now().UTC()
	createSubmission(t, db, user.ID, team.ID, 1, 0.5, 0.6, now)

	// A second row with the same per-user sequence number violates the
	// unique index; concurrent inserts that compute the same number fail
	// here instead of committing a duplicate.
	dup := &models.Submission{
		UserID:           user.ID,
		TeamID:           team.ID,
		Filename:         "dup.csv",
		SubmittedAt:      now,
		UserSubmissionID: 1,
	}
	err := db.Create(dup).Error
	require.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	// Another user is free to hold the same sequence number.
	other := createUser(t, db, "bob")
	createSubmission(t, db, other.ID, team.ID, 1, 0.5, 0.6, now)

	// Record still works for the first user and resumes the sequence.
	svc := NewSubmissionService(db, 100, 0)
	sub, err := svc.Record(user.ID, team.ID, "next.csv", 0.4, 0.5, now.Add(time.Second), "")
	require.NoError(t, err)
	assert.Equal(t, 2, sub.UserSubmissionID)
}

func TestRecordEnforcesQuota(t *testing.T) {
	db := openMainDB(t)
	svc := NewSubmissionService(db, 2, 0)
	user := createUser(t, db, "alice")
	team := createTeam(t, db, "alice")

	now := time.Now().UTC()
	_, err := svc.Record(user.ID, team.ID, "a.csv", 0.1, 0.1, now, "")
	require.NoError(t, err)
	_, err = svc.Record(user.ID, team.ID, "b.csv", 0.2, 0.2, now.Add(time.Second), "")
	require.NoError(t, err)

	_, err = svc.Record(user.ID, team.ID, "c.csv", 0.3, 0.3, now.Add(2*time.Second), "")
	require.ErrorIs(t, err, ErrQuotaExceeded)

	// The rejected upload left no row behind.
	count, err := svc.SubmissionCount(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	history, err := svc.History(user.ID)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestRecordRejectsDuplicateWithinWindow(t *testing.T) {
	db := openMainDB(t)
	svc := NewSubmissionService(db, 100, 10*time.Minute)
	user := createUser(t, db, "alice")
	team := createTeam(t, db, "alice")

	now := time.Now().UTC()
	hash := "abc123"

	_, err := svc.Record(user.ID, team.ID, "pred.csv", 0.5, 0.6, now, hash)
	require.NoError(t, err)

	_, err = svc.Record(user.ID, team.ID, "pred.csv", 0.5, 0.6, now.Add(time.Minute), hash)
	require.ErrorIs(t, err, ErrDuplicateSubmission)

	// A different file goes through, and so does the same file once the
	// window has passed.
	_, err = svc.Record(user.ID, team.ID, "other.csv", 0.4, 0.5, now.Add(time.Minute), "def456")
	require.NoError(t, err)

	_, err = svc.Record(user.ID, team.ID, "pred.csv", 0.5, 0.6, now.Add(15*time.Minute), hash)
	require.NoError(t, err)
}

func TestBestScore(t *testing.T) {
	db := openMainDB(t)
	svc := NewSubmissionService(db, 100, 0)
	user := createUser(t, db, "alice")
	team := createTeam(t, db, "alice")

	now := time.Now().UTC()
	for i, score := range []float64{0.5, 0.3, 0.9} {
		_, err := svc.Record(user.ID, team.ID, "pred.csv", score, score, now.Add(time.Duration(i)*time.Second), "")
		require.NoError(t, err)
	}

	best, err := svc.BestScore(user.ID, metric.Min)
	require.NoError(t, err)
	assert.Equal(t, 0.3, best)

	best, err = svc.BestScore(user.ID, metric.Max)
	require.NoError(t, err)
	assert.Equal(t, 0.9, best)
}

func TestBestScoreEmptyHistory(t *testing.T) {
	db := openMainDB(t)
	svc := NewSubmissionService(db, 100, 0)
	user := createUser(t, db, "alice")

	best, err := svc.BestScore(user.ID, metric.Min)
	require.NoError(t, err)
	assert.True(t, math.IsInf(best, 1))

	best, err = svc.BestScore(user.ID, metric.Max)
	require.NoError(t, err)
	assert.True(t, math.IsInf(best, -1))
}

func TestHistoryMostRecentFirst(t *testing.T) {
	db := openMainDB(t)
	svc := NewSubmissionService(db, 100, 0)
	user := createUser(t, db, "alice")
	team := createTeam(t, db, "alice")

	base := time.Now().UTC()
	_, err := svc.Record(user.ID, team.ID, "first.csv", 0.1, 0.1, base, "")
	require.NoError(t, err)
	_, err = svc.Record(user.ID, team.ID, "second.csv", 0.2, 0.2, base.Add(time.Minute), "")
	require.NoError(t, err)

	history, err := svc.History(user.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "second.csv", history[0].Filename)
	assert.Equal(t, "first.csv", history[1].Filename)
}
