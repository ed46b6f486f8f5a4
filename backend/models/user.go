package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	RoleAdmin     = "admin"
	RoleModerator = "moderator"
	RoleUser      = "user"
)

type User struct {
	gorm.Model
	Email        string     `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string     `gorm:"not null" json:"-"`
	Profile      Profile    `json:"profile,omitempty"`
	Roles        []UserRole `json:"roles,omitempty"`
}

// Profile holds everything the onboarding flow and profile page collect.
type Profile struct {
	gorm.Model
	UserID              uint   `gorm:"uniqueIndex;not null" json:"user_id"`
	Name                string `json:"name"`
	Email               string `json:"email"`
	Mobile              string `json:"mobile"`
	Profession          string `json:"profession"`
	Technology          string `json:"technology"`
	ExperienceLevel     string `json:"experience_level"`
	PreferredDifficulty string `json:"preferred_difficulty"`
	ProfilePictureURL   string `json:"profile_picture_url"`
}

type UserRole struct {
	gorm.Model
	UserID uint   `gorm:"uniqueIndex:idx_user_role;not null" json:"user_id"`
	Role   string `gorm:"uniqueIndex:idx_user_role;not null;default:user" json:"role"`
}

type LoginHistory struct {
	gorm.Model
	UserID    uint
	LoginTime time.Time
}

func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleModerator, RoleUser:
		return true
	}
	return false
}

// UserProgress tracks the daily login streak.
type UserProgress struct {
	gorm.Model
	UserID     uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	LastActive time.Time `json:"last_active"`
	StreakDays int       `gorm:"default:0" json:"streak_days"`
}
