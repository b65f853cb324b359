package services

import (
	"testing"
	"time"

	"github.com/ktakita1011/MiniKaggle/internal/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// openTestDB gives each test its own in-memory store. The pool is pinned to a
// single connection because every :memory: connection is a separate database.
func openTestDB(t *testing.T, modelSet ...interface{}) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(modelSet...))
	return db
}

func openMainDB(t *testing.T) *gorm.DB {
	return openTestDB(t,
		&models.User{},
		&models.Team{},
		&models.TeamMember{},
		&models.Submission{},
	)
}

func openFinalDB(t *testing.T) *gorm.DB {
	return openTestDB(t, &models.FinalSubmission{})
}

func createUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := &models.User{Username: username}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createTeam(t *testing.T, db *gorm.DB, name string) *models.Team {
	t.Helper()
	team := &models.Team{TeamName: name}
	require.NoError(t, db.Create(team).Error)
	return team
}

func createSubmission(t *testing.T, db *gorm.DB, userID, teamID, seq uint, public, private float64, at time.Time) *models.Submission {
	t.Helper()
	sub := &models.Submission{
		UserID:           userID,
		TeamID:           teamID,
		Filename:         "predictions.csv",
		PublicScore:      public,
		PrivateScore:     private,
		SubmittedAt:      at,
		UserSubmissionID: int(seq),
	}
	require.NoError(t, db.Create(sub).Error)
	return sub
}
