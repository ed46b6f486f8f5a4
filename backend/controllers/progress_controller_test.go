package controllers_test

import (
	"net/http"
	"testing"
	"time"

	"mentor/backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetProgress(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.register(t, "progress@example.com")

	for i := 0; i < 2; i++ {
		resp, _ := env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
			"email":    "progress@example.com",
			"password": "password123",
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp, body := env.do(t, http.MethodGet, "/api/progress", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	months := body["progress"].([]interface{})
	require.Len(t, months, 4)

	current := months[0].(map[string]interface{})
	now := time.Now().UTC()
	assert.Equal(t, float64(now.Month()), current["month"])
	assert.Equal(t, float64(now.Year()), current["year"])
	assert.Equal(t, float64(0), current["exams_completed"])

	logins := current["login_frequency"].(map[string]interface{})
	assert.Equal(t, float64(2), logins[now.Format("2006-01-02")])
}

func TestGetProgressOverview(t *testing.T) {
	env := newTestEnv(t)
	token, id := env.register(t, "overview@example.com")

	for _, score := range []float64{80, 65.5} {
		exam := models.Exam{UserID: id, Technology: "Go", ExperienceLevel: "Mid", Difficulty: "easy", StartedAt: time.Now()}
		require.NoError(t, env.db.Create(&exam).Error)
		require.NoError(t, env.db.Create(&models.ExamResult{ExamID: exam.ID, UserID: id, TotalScore: score}).Error)
	}
	require.NoError(t, env.db.Create(&models.CodeSnippet{UserID: id, Title: "hello", Language: "python", Code: "print(1)"}).Error)
	require.NoError(t, env.db.Create(&[]models.FinancialGoal{
		{UserID: id, GoalType: "car", TargetAmount: 100, Status: models.GoalStatusActive},
		{UserID: id, GoalType: "trip", TargetAmount: 100, Status: models.GoalStatusCompleted},
	}).Error)
	require.NoError(t, env.db.Create(&models.UserProgress{UserID: id, LastActive: time.Now(), StreakDays: 3}).Error)

	resp, body := env.do(t, http.MethodGet, "/api/progress/overview", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, float64(3), body["streak_days"])
	assert.Equal(t, float64(2), body["exams_completed"])
	assert.Equal(t, 72.75, body["average_score"])
	assert.Equal(t, float64(80), body["best_score"])
	assert.Equal(t, float64(1), body["snippets_saved"])
	assert.Equal(t, float64(1), body["active_goals"])
}
