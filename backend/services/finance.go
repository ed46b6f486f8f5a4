package services

import (
	"context"
	"math"
	"time"

	"mentor/backend/models"

	"gorm.io/gorm"
)

type ExpenseSummary struct {
	CategoryTotals map[string]float64 `json:"category_totals"`
	Income         float64            `json:"income"`
	TotalExpenses  float64            `json:"total_expenses"`
	Savings        float64            `json:"savings"`
	SavingsRate    float64            `json:"savings_rate"`
}

func SummarizeExpenses(expenses []models.Expense, income float64) ExpenseSummary {
	summary := ExpenseSummary{
		CategoryTotals: make(map[string]float64),
		Income:         income,
	}
	for _, e := range expenses {
		summary.CategoryTotals[e.Category] += e.Amount
		summary.TotalExpenses += e.Amount
	}
	summary.Savings = income - summary.TotalExpenses
	if income > 0 {
		summary.SavingsRate = round(summary.Savings/income*100, 1)
	}
	return summary
}

// HealthScore rates finances out of 100: savings ratio up to 40 points, goals
// up to 30 and a declared income 30.
func HealthScore(profile *models.FinancialProfile, budget *models.Budget, goals []models.FinancialGoal) int {
	score := 0

	if budget != nil && budget.Savings != 0 && budget.TotalIncome != 0 {
		ratio := budget.Savings / budget.TotalIncome * 100
		switch {
		case ratio >= 30:
			score += 40
		case ratio >= 20:
			score += 30
		case ratio >= 10:
			score += 20
		default:
			score += 10
		}
	}

	if len(goals) > 0 {
		score += 20
		var progress float64
		for _, g := range goals {
			if g.TargetAmount > 0 {
				progress += g.CurrentAmount / g.TargetAmount * 100
			}
		}
		if progress/float64(len(goals)) >= 50 {
			score += 10
		}
	}

	if profile != nil && profile.MonthlyIncome > 0 {
		score += 30
	}

	if score > 100 {
		return 100
	}
	return score
}

func HealthStatus(score int) string {
	switch {
	case score >= 80:
		return "Excellent"
	case score >= 60:
		return "Good"
	case score >= 40:
		return "Needs Improvement"
	default:
		return "Critical"
	}
}

type GoalProjection struct {
	MonthsRemaining       *int     `json:"months_remaining"`
	RequiredMonthlySaving *float64 `json:"required_monthly_saving"`
	ProgressPercent       float64  `json:"progress_percent"`
}

// ProjectGoal counts 30-day months until the deadline and the monthly saving
// needed to close the remaining gap.
func ProjectGoal(goal models.FinancialGoal, now time.Time) GoalProjection {
	var p GoalProjection
	if goal.TargetAmount > 0 {
		p.ProgressPercent = round(math.Min(goal.CurrentAmount/goal.TargetAmount*100, 100), 1)
	}
	if goal.Deadline == nil {
		return p
	}

	days := goal.Deadline.Sub(now).Hours() / 24
	months := int(math.Max(0, math.Ceil(days/30)))
	p.MonthsRemaining = &months

	if months > 0 {
		required := math.Ceil((goal.TargetAmount - goal.CurrentAmount) / float64(months))
		p.RequiredMonthlySaving = &required
	}
	return p
}

// ContributeToGoal adds amount to the user's goal in a single UPDATE and
// completes it once the target is met. It returns gorm.ErrRecordNotFound when
// the goal does not belong to the user.
func ContributeToGoal(ctx context.Context, db *gorm.DB, goalID, userID uint, amount float64) (models.FinancialGoal, error) {
	var goal models.FinancialGoal
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.FinancialGoal{}).
			Where("id = ? AND user_id = ?", goalID, userID).
			Updates(map[string]interface{}{
				"current_amount": gorm.Expr("current_amount + ?", amount),
				"status": gorm.Expr("CASE WHEN current_amount + ? >= target_amount THEN ? ELSE ? END",
					amount, models.GoalStatusCompleted, models.GoalStatusActive),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.First(&goal, goalID).Error
	})
	return goal, err
}
