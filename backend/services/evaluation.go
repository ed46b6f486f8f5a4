package services

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"mentor/backend/models"
)

const (
	defaultTopic          = "General"
	improvementThreshold  = 0.7
	feedbackSystemMessage = "You are an expert technical mentor. Provide concise, actionable feedback covering: 1) Overall assessment 2) Strengths 3) Improvement areas 4) Study recommendations. Keep it brief and practical."
)

type Evaluation struct {
	TotalScore       float64
	Correct          int
	Incorrect        int
	Unanswered       int
	TopicScores      map[string]models.TopicScore
	ImprovementAreas []models.ImprovementArea
}

// EvaluateExam scores answers against questions. Questions without a topic
// are grouped under "General"; topics below 70% accuracy become improvement
// areas in the order they first appear.
func EvaluateExam(questions []models.Question, answers []models.UserAnswer) Evaluation {
	byQuestion := make(map[uint]models.UserAnswer, len(answers))
	for _, a := range answers {
		byQuestion[a.QuestionID] = a
	}

	ev := Evaluation{TopicScores: make(map[string]models.TopicScore)}
	var topicOrder []string

	for _, q := range questions {
		topic := strings.TrimSpace(q.Topic)
		if topic == "" {
			topic = defaultTopic
		}
		score, seen := ev.TopicScores[topic]
		if !seen {
			topicOrder = append(topicOrder, topic)
		}
		score.Total++

		answer, ok := byQuestion[q.ID]
		switch {
		case !ok || strings.TrimSpace(answer.SelectedAnswer) == "":
			ev.Unanswered++
		case IsCorrectAnswer(answer.SelectedAnswer, q.CorrectAnswer):
			ev.Correct++
			score.Correct++
		default:
			ev.Incorrect++
		}
		ev.TopicScores[topic] = score
	}

	if len(questions) > 0 {
		ev.TotalScore = round(float64(ev.Correct)/float64(len(questions))*100, 2)
	}

	ev.ImprovementAreas = []models.ImprovementArea{}
	for _, topic := range topicOrder {
		score := ev.TopicScores[topic]
		ratio := float64(score.Correct) / float64(score.Total)
		if ratio < improvementThreshold {
			ev.ImprovementAreas = append(ev.ImprovementAreas, models.ImprovementArea{
				Topic:          topic,
				Accuracy:       round(ratio*100, 1),
				QuestionsCount: score.Total,
			})
		}
	}

	return ev
}

func IsCorrectAnswer(selected, correct string) bool {
	s := strings.ToUpper(strings.TrimSpace(selected))
	return s != "" && s == strings.ToUpper(strings.TrimSpace(correct))
}

// Result turns the evaluation into a result row with placeholder feedback.
func (ev Evaluation) Result(examID, userID uint) models.ExamResult {
	return models.ExamResult{
		ExamID:           examID,
		UserID:           userID,
		TotalScore:       ev.TotalScore,
		CorrectAnswers:   ev.Correct,
		IncorrectAnswers: ev.Incorrect,
		Unanswered:       ev.Unanswered,
		TopicWiseScores:  ev.TopicScores,
		ImprovementAreas: ev.ImprovementAreas,
		AIFeedback:       models.FeedbackPlaceholder,
	}
}

func FeedbackPrompt(exam models.Exam, ev Evaluation, questionCount int, model string) Prompt {
	topics, _ := json.Marshal(ev.TopicScores)
	summary := fmt.Sprintf(`
Technology: %s
Experience Level: %s
Difficulty: %s
Score: %.2f%%
Correct: %d/%d
Incorrect: %d
Unanswered: %d
Topic Scores: %s`,
		exam.Technology, exam.ExperienceLevel, exam.Difficulty,
		ev.TotalScore, ev.Correct, questionCount, ev.Incorrect, ev.Unanswered, topics)

	return Prompt{
		Model:  model,
		System: feedbackSystemMessage,
		User:   summary,
	}
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
