package models

import "time"

type MonthlyProgress struct {
	Month          time.Month     `json:"month"`
	Year           int            `json:"year"`
	ExamsCompleted int64          `json:"exams_completed"`
	AverageScore   float64        `json:"average_score"`
	LoginFrequency map[string]int `json:"login_frequency"` // day -> count
}

type ProgressOverview struct {
	StreakDays     int     `json:"streak_days"`
	ExamsCompleted int64   `json:"exams_completed"`
	AverageScore   float64 `json:"average_score"`
	BestScore      float64 `json:"best_score"`
	SnippetsSaved  int64   `json:"snippets_saved"`
	ActiveGoals    int64   `json:"active_goals"`
}
