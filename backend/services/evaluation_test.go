package services

import (
	"strings"
	"testing"

	"mentor/backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func question(id uint, topic, correct string) models.Question {
	return models.Question{Model: gorm.Model{ID: id}, Topic: topic, CorrectAnswer: correct}
}

func answer(questionID uint, selected string) models.UserAnswer {
	return models.UserAnswer{QuestionID: questionID, SelectedAnswer: selected}
}

func TestEvaluateExam(t *testing.T) {
	questions := []models.Question{
		question(1, "Goroutines", "A"),
		question(2, "Goroutines", "B"),
		question(3, "Channels", "C"),
		question(4, "", "D"),
		question(5, "Channels", "A"),
		question(6, "Goroutines", "C"),
	}
	answers := []models.UserAnswer{
		answer(1, "a"),
		answer(2, "C"),
		answer(3, "C"),
		answer(4, ""),
		answer(6, "C"),
	}

	ev := EvaluateExam(questions, answers)

	assert.Equal(t, 3, ev.Correct)
	assert.Equal(t, 1, ev.Incorrect)
	assert.Equal(t, 2, ev.Unanswered)
	assert.Equal(t, 50.0, ev.TotalScore)

	assert.Equal(t, models.TopicScore{Correct: 2, Total: 3}, ev.TopicScores["Goroutines"])
	assert.Equal(t, models.TopicScore{Correct: 1, Total: 2}, ev.TopicScores["Channels"])
	assert.Equal(t, models.TopicScore{Correct: 0, Total: 1}, ev.TopicScores["General"])

	require.Len(t, ev.ImprovementAreas, 3)
	assert.Equal(t, models.ImprovementArea{Topic: "Goroutines", Accuracy: 66.7, QuestionsCount: 3}, ev.ImprovementAreas[0])
	assert.Equal(t, models.ImprovementArea{Topic: "Channels", Accuracy: 50, QuestionsCount: 2}, ev.ImprovementAreas[1])
	assert.Equal(t, models.ImprovementArea{Topic: "General", Accuracy: 0, QuestionsCount: 1}, ev.ImprovementAreas[2])
}

func TestEvaluateExamRoundsScore(t *testing.T) {
	questions := []models.Question{
		question(1, "SQL", "A"),
		question(2, "SQL", "B"),
		question(3, "SQL", "C"),
	}
	ev := EvaluateExam(questions, []models.UserAnswer{answer(1, "A")})

	assert.Equal(t, 33.33, ev.TotalScore)
	assert.Equal(t, 2, ev.Unanswered)
}

func TestEvaluateExamTopicAboveThreshold(t *testing.T) {
	questions := []models.Question{
		question(1, "HTTP", "A"),
		question(2, "HTTP", "A"),
		question(3, "HTTP", "A"),
		question(4, "HTTP", "B"),
	}
	answers := []models.UserAnswer{answer(1, "A"), answer(2, "A"), answer(3, "A"), answer(4, "A")}

	ev := EvaluateExam(questions, answers)

	assert.Equal(t, 75.0, ev.TotalScore)
	assert.Empty(t, ev.ImprovementAreas)
	assert.NotNil(t, ev.ImprovementAreas)
}

func TestEvaluateExamWithoutQuestions(t *testing.T) {
	ev := EvaluateExam(nil, []models.UserAnswer{answer(1, "A")})

	assert.Zero(t, ev.TotalScore)
	assert.Zero(t, ev.Correct)
	assert.Zero(t, ev.Unanswered)
	assert.Empty(t, ev.TopicScores)
}

func TestIsCorrectAnswer(t *testing.T) {
	assert.True(t, IsCorrectAnswer("b", "B"))
	assert.True(t, IsCorrectAnswer(" C ", "c"))
	assert.False(t, IsCorrectAnswer("", ""))
	assert.False(t, IsCorrectAnswer("A", "D"))
}

func TestEvaluationResult(t *testing.T) {
	ev := EvaluateExam([]models.Question{question(1, "Go", "A")}, []models.UserAnswer{answer(1, "A")})
	result := ev.Result(7, 3)

	assert.Equal(t, uint(7), result.ExamID)
	assert.Equal(t, uint(3), result.UserID)
	assert.Equal(t, 100.0, result.TotalScore)
	assert.Equal(t, 1, result.CorrectAnswers)
	assert.Equal(t, models.FeedbackPlaceholder, result.AIFeedback)
}

func TestFeedbackPrompt(t *testing.T) {
	exam := models.Exam{Technology: "Go", ExperienceLevel: "Senior", Difficulty: "hard"}
	ev := EvaluateExam([]models.Question{question(1, "Go", "A"), question(2, "Go", "B")}, []models.UserAnswer{answer(1, "A")})

	p := FeedbackPrompt(exam, ev, 2, "feedback-model")

	assert.Equal(t, "feedback-model", p.Model)
	assert.Contains(t, p.System, "technical mentor")
	assert.Contains(t, p.User, "Technology: Go")
	assert.Contains(t, p.User, "Score: 50.00%")
	assert.Contains(t, p.User, "Correct: 1/2")
	assert.True(t, strings.Contains(p.User, `"Go":{"correct":1,"total":2}`))
}
