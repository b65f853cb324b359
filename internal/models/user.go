package models

import "time"

// User is created on first interaction (registration or first scored upload)
// and immutable afterwards. Username is the external identity key.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"user_id"`
	Username  string    `gorm:"size:100;not null;uniqueIndex" json:"username"`
	Password  string    `json:"-"`
	Role      string    `gorm:"size:20;default:'user'" json:"role"`
	CreatedAt time.Time `json:"created_at"`
}
