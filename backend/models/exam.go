package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	ExamStatusInProgress = "in_progress"
	ExamStatusCompleted  = "completed"

	DefaultExamTimeLimitMinutes = 60
	FeedbackPlaceholder         = "Generating detailed feedback..."
)

type Exam struct {
	gorm.Model
	UserID           uint         `gorm:"index;not null" json:"user_id"`
	Technology       string       `gorm:"not null" json:"technology"`
	ExperienceLevel  string       `gorm:"not null" json:"experience_level"`
	Difficulty       string       `gorm:"not null" json:"difficulty"`
	TotalQuestions   int          `json:"total_questions"`
	TimeLimitMinutes int          `gorm:"default:60" json:"time_limit_minutes"`
	Status           string       `gorm:"default:in_progress" json:"status"`
	StartedAt        time.Time    `json:"started_at"`
	CompletedAt      *time.Time   `json:"completed_at"`
	Questions        []Question   `json:"questions,omitempty"`
	Results          []ExamResult `json:"results,omitempty"`
}

type Question struct {
	gorm.Model
	ExamID         uint   `gorm:"index;not null" json:"exam_id"`
	QuestionNumber int    `json:"question_number"`
	QuestionText   string `json:"question_text"`
	OptionA        string `json:"option_a"`
	OptionB        string `json:"option_b"`
	OptionC        string `json:"option_c"`
	OptionD        string `json:"option_d"`
	CorrectAnswer  string `json:"correct_answer"`
	Explanation    string `json:"explanation"`
	Topic          string `json:"topic"`
}

type UserAnswer struct {
	gorm.Model
	ExamID           uint   `gorm:"index;not null" json:"exam_id"`
	QuestionID       uint   `gorm:"uniqueIndex:idx_answer_question_user;not null" json:"question_id"`
	UserID           uint   `gorm:"uniqueIndex:idx_answer_question_user;not null" json:"user_id"`
	SelectedAnswer   string `json:"selected_answer"`
	IsCorrect        *bool  `json:"is_correct"`
	TimeSpentSeconds int    `json:"time_spent_seconds"`
}

type TopicScore struct {
	Correct int `json:"correct"`
	Total   int `json:"total"`
}

type ImprovementArea struct {
	Topic          string  `json:"topic"`
	Accuracy       float64 `json:"accuracy"`
	QuestionsCount int     `json:"questions_count"`
}

type ExamResult struct {
	gorm.Model
	ExamID           uint                  `gorm:"uniqueIndex;not null" json:"exam_id"`
	UserID           uint                  `gorm:"index;not null" json:"user_id"`
	TotalScore       float64               `json:"total_score"`
	CorrectAnswers   int                   `json:"correct_answers"`
	IncorrectAnswers int                   `json:"incorrect_answers"`
	Unanswered       int                   `json:"unanswered"`
	TopicWiseScores  map[string]TopicScore `gorm:"serializer:json;type:text" json:"topic_wise_scores"`
	ImprovementAreas []ImprovementArea     `gorm:"serializer:json;type:text" json:"improvement_areas"`
	AIFeedback       string                `json:"ai_feedback"`
}
