package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	GoalStatusActive    = "active"
	GoalStatusCompleted = "completed"
)

type FinancialProfile struct {
	gorm.Model
	UserID         uint           `gorm:"uniqueIndex;not null" json:"user_id"`
	Age            *int           `json:"age"`
	MonthlyIncome  float64        `json:"monthly_income"`
	RiskProfile    string         `json:"risk_profile"`
	FinancialGoals map[string]any `gorm:"serializer:json;type:text" json:"financial_goals"`
}

type Budget struct {
	gorm.Model
	UserID        uint               `gorm:"uniqueIndex:idx_budget_period;not null" json:"user_id"`
	Month         int                `gorm:"uniqueIndex:idx_budget_period;not null" json:"month"`
	Year          int                `gorm:"uniqueIndex:idx_budget_period;not null" json:"year"`
	TotalIncome   float64            `json:"total_income"`
	TotalExpenses float64            `json:"total_expenses"`
	Savings       float64            `json:"savings"`
	Categories    map[string]float64 `gorm:"serializer:json;type:text" json:"categories"`
}

type Expense struct {
	gorm.Model
	UserID      uint    `gorm:"index;not null" json:"user_id"`
	BudgetID    *uint   `json:"budget_id"`
	Amount      float64 `gorm:"not null" json:"amount"`
	Category    string  `gorm:"not null" json:"category"`
	Description string  `json:"description"`
	Date        string  `gorm:"index;not null" json:"date"` // YYYY-MM-DD
}

type FinancialGoal struct {
	gorm.Model
	UserID              uint       `gorm:"index;not null" json:"user_id"`
	GoalType            string     `gorm:"not null" json:"goal_type"`
	TargetAmount        float64    `gorm:"not null" json:"target_amount"`
	CurrentAmount       float64    `gorm:"default:0" json:"current_amount"`
	Deadline            *time.Time `json:"deadline"`
	MonthlyContribution *float64   `json:"monthly_contribution"`
	Status              string     `gorm:"default:active" json:"status"`
}

type Investment struct {
	gorm.Model
	UserID         uint       `gorm:"index;not null" json:"user_id"`
	InvestmentType string     `gorm:"not null" json:"investment_type"`
	Amount         float64    `gorm:"not null" json:"amount"`
	ExpectedReturn *float64   `json:"expected_return"`
	RiskLevel      string     `json:"risk_level"`
	StartDate      *time.Time `json:"start_date"`
	Notes          string     `json:"notes"`
}
