package services

import (
	"errors"
	"fmt"

	"github.com/ktakita1011/MiniKaggle/internal/models"
	"gorm.io/gorm"
)

var ErrTeamNameTaken = errors.New("team name already taken")

type TeamService struct {
	db *gorm.DB
}

func NewTeamService(db *gorm.DB) *TeamService {
	return &TeamService{db: db}
}

// TeamFor returns the user's team. A user without a membership gets a solo
// team named after the username, created together with the membership row.
func (s *TeamService) TeamFor(user *models.User) (*models.Team, error) {
	var member models.TeamMember
	err := s.db.Where("user_id = ?", user.ID).First(&member).Error
	if err == nil {
		var team models.Team
		if err := s.db.First(&team, member.TeamID).Error; err != nil {
			return nil, fmt.Errorf("failed to load team: %w", err)
		}
		return &team, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to look up team membership: %w", err)
	}

	team := models.Team{TeamName: user.Username}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&team).Error; err != nil {
			return fmt.Errorf("failed to create team: %w", err)
		}
		return tx.Create(&models.TeamMember{UserID: user.ID, TeamID: team.ID}).Error
	})
	if err != nil {
		return nil, err
	}
	return &team, nil
}

// Rename changes the user's team name. The team ID stays stable.
func (s *TeamService) Rename(user *models.User, newName string) (*models.Team, error) {
	team, err := s.TeamFor(user)
	if err != nil {
		return nil, err
	}
	if newName == team.TeamName {
		return team, nil
	}

	var existing models.Team
	if err := s.db.Where("team_name = ?", newName).First(&existing).Error; err == nil {
		return nil, ErrTeamNameTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check team name: %w", err)
	}

	if err := s.db.Model(team).Update("team_name", newName).Error; err != nil {
		return nil, fmt.Errorf("failed to rename team: %w", err)
	}
	team.TeamName = newName
	return team, nil
}
