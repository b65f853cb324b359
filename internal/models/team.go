package models

import "time"

// Team has a stable ID; only the name is mutable.
type Team struct {
	ID        uint      `gorm:"primaryKey" json:"team_id"`
	TeamName  string    `gorm:"size:100;not null;uniqueIndex" json:"team_name"`
	CreatedAt time.Time `json:"created_at"`
}

// TeamMember maps a user to at most one team.
type TeamMember struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	UserID    uint      `gorm:"not null;uniqueIndex" json:"user_id"`
	TeamID    uint      `gorm:"not null;index" json:"team_id"`
	CreatedAt time.Time `json:"created_at"`
}
