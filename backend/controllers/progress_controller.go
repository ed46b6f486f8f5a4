package controllers

import (
	"math"
	"mentor/backend/config"
	"mentor/backend/models"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

const progressMonths = 4

type ProgressController struct {
	DB  *gorm.DB
	Cfg *config.Config
}

func NewProgressController(db *gorm.DB, cfg *config.Config) *ProgressController {
	return &ProgressController{DB: db, Cfg: cfg}
}

type scoreStats struct {
	Count   int64
	Average float64
	Best    float64
}

// GetProgress godoc
// @Summary Get user progress
// @Description Returns exams completed, average score and logins for the last 4 months
// @Tags progress
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /progress [get]
func (pc *ProgressController) GetProgress(c *fiber.Ctx) error {
	userID := currentUserID(c)

	now := time.Now().UTC()
	months := make([]models.MonthlyProgress, progressMonths)

	for i := 0; i < progressMonths; i++ {
		startOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -i, 0)
		endOfMonth := startOfMonth.AddDate(0, 1, 0)

		var stats scoreStats
		pc.DB.Model(&models.ExamResult{}).
			Select("COUNT(*) AS count, COALESCE(AVG(total_score), 0) AS average").
			Where("user_id = ? AND created_at >= ? AND created_at < ?", userID, startOfMonth, endOfMonth).
			Scan(&stats)

		var logins []models.LoginHistory
		pc.DB.Where("user_id = ? AND login_time >= ? AND login_time < ?", userID, startOfMonth, endOfMonth).
			Find(&logins)

		loginFrequency := make(map[string]int)
		for _, login := range logins {
			loginFrequency[login.LoginTime.UTC().Format("2006-01-02")]++
		}

		months[i] = models.MonthlyProgress{
			Month:          startOfMonth.Month(),
			Year:           startOfMonth.Year(),
			ExamsCompleted: stats.Count,
			AverageScore:   math.Round(stats.Average*100) / 100,
			LoginFrequency: loginFrequency,
		}
	}

	return c.JSON(fiber.Map{
		"progress": months,
	})
}

// GetProgressOverview godoc
// @Summary Get progress overview
// @Description Returns a summary of the user's activity across mentors
// @Tags progress
// @Produce json
// @Success 200 {object} models.ProgressOverview
// @Failure 401 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /progress/overview [get]
func (pc *ProgressController) GetProgressOverview(c *fiber.Ctx) error {
	userID := currentUserID(c)

	var userProgress models.UserProgress
	pc.DB.Where("user_id = ?", userID).First(&userProgress)

	var stats scoreStats
	pc.DB.Model(&models.ExamResult{}).
		Select("COUNT(*) AS count, COALESCE(AVG(total_score), 0) AS average, COALESCE(MAX(total_score), 0) AS best").
		Where("user_id = ?", userID).
		Scan(&stats)

	var snippets int64
	pc.DB.Model(&models.CodeSnippet{}).Where("user_id = ?", userID).Count(&snippets)

	var activeGoals int64
	pc.DB.Model(&models.FinancialGoal{}).
		Where("user_id = ? AND status = ?", userID, models.GoalStatusActive).
		Count(&activeGoals)

	return c.JSON(models.ProgressOverview{
		StreakDays:     userProgress.StreakDays,
		ExamsCompleted: stats.Count,
		AverageScore:   math.Round(stats.Average*100) / 100,
		BestScore:      stats.Best,
		SnippetsSaved:  snippets,
		ActiveGoals:    activeGoals,
	})
}
