package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	CategoryTech      = "tech"
	CategoryFinance   = "finance"
	CategoryHealth    = "health"
	CategoryEducation = "education"
)

type VisitorSession struct {
	gorm.Model
	SessionID      string    `gorm:"uniqueIndex;not null" json:"session_id"`
	UserID         *uint     `json:"user_id"`
	Page           string    `json:"page"`
	MentorCategory string    `json:"mentor_category"`
	LastPing       time.Time `gorm:"index" json:"last_ping"`
}

type PageVisit struct {
	gorm.Model
	Page      string    `gorm:"not null" json:"page"`
	SessionID string    `gorm:"index;not null" json:"session_id"`
	UserID    *uint     `json:"user_id"`
	VisitedAt time.Time `gorm:"index" json:"visited_at"`
}

// DailyFootfall is keyed by a YYYY-MM-DD date string in UTC.
type DailyFootfall struct {
	gorm.Model
	Date                string `gorm:"uniqueIndex;not null" json:"date"`
	UniqueVisitorsCount int    `json:"unique_visitors_count"`
	TotalPageViews      int    `json:"total_page_views"`
}

type MentorFootfall struct {
	gorm.Model
	Date           string `gorm:"uniqueIndex:idx_mentor_day;not null" json:"date"`
	MentorCategory string `gorm:"uniqueIndex:idx_mentor_day;not null" json:"mentor_category"`
	UniqueVisitors int    `json:"unique_visitors"`
	TotalVisits    int    `json:"total_visits"`
}

// LifetimeVisitors is a single-row counter.
type LifetimeVisitors struct {
	ID                  uint      `gorm:"primaryKey" json:"id"`
	TotalUniqueVisitors int64     `json:"total_unique_visitors"`
	LastUpdated         time.Time `json:"last_updated"`
}
