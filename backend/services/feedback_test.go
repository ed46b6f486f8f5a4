package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"mentor/backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
)

type stubGateway struct {
	mu      sync.Mutex
	prompts []Prompt
	reply   string
	err     error
}

func (s *stubGateway) Complete(_ context.Context, prompt Prompt) (*Completion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts = append(s.prompts, prompt)
	if s.err != nil {
		return nil, s.err
	}
	return &Completion{Content: s.reply}, nil
}

func saveResult(t *testing.T, db *gorm.DB) (models.Exam, Evaluation, models.ExamResult) {
	exam := models.Exam{UserID: 1, Technology: "Go", ExperienceLevel: "Mid", Difficulty: "medium"}
	require.NoError(t, db.Create(&exam).Error)

	ev := EvaluateExam([]models.Question{question(1, "Go", "A")}, []models.UserAnswer{answer(1, "A")})
	result := ev.Result(exam.ID, exam.UserID)
	require.NoError(t, db.Create(&result).Error)
	return exam, ev, result
}

func TestFeedbackWriterUpdatesResult(t *testing.T) {
	db := openDB(t)
	exam, ev, result := saveResult(t, db)

	gateway := &stubGateway{reply: "Great work. Review channels next."}
	writer := NewFeedbackWriter(db, gateway, zap.NewNop(), "feedback-model")

	writer.Start(exam, ev, 1, result.ID)
	writer.Wait()

	var saved models.ExamResult
	require.NoError(t, db.First(&saved, result.ID).Error)
	assert.Equal(t, "Great work. Review channels next.", saved.AIFeedback)

	require.Len(t, gateway.prompts, 1)
	assert.Equal(t, "feedback-model", gateway.prompts[0].Model)
}

func TestFeedbackWriterKeepsPlaceholderOnFailure(t *testing.T) {
	db := openDB(t)
	exam, ev, result := saveResult(t, db)

	core, logs := observer.New(zapcore.InfoLevel)
	writer := NewFeedbackWriter(db, &stubGateway{err: errors.New("boom")}, zap.New(core), "m")

	writer.Start(exam, ev, 1, result.ID)
	writer.Wait()

	var saved models.ExamResult
	require.NoError(t, db.First(&saved, result.ID).Error)
	assert.Equal(t, models.FeedbackPlaceholder, saved.AIFeedback)
	assert.Equal(t, 1, logs.FilterMessage("Background feedback generation failed").Len())
}

func TestFeedbackWriterWithoutGateway(t *testing.T) {
	db := openDB(t)
	exam, ev, result := saveResult(t, db)

	core, logs := observer.New(zapcore.InfoLevel)
	writer := NewFeedbackWriter(db, nil, zap.New(core), "m")

	writer.Start(exam, ev, 1, result.ID)
	writer.Wait()

	assert.Equal(t, 1, logs.FilterMessage("Skipping exam feedback, AI gateway is not configured").Len())
}
