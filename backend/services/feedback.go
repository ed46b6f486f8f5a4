package services

import (
	"context"
	"sync"
	"time"

	"mentor/backend/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const feedbackTimeout = 2 * time.Minute

// FeedbackWriter fills in AI feedback for saved exam results in the
// background. Failures are logged and leave the placeholder in place.
type FeedbackWriter struct {
	db      *gorm.DB
	gateway Gateway
	logger  *zap.Logger
	model   string

	wg sync.WaitGroup
}

func NewFeedbackWriter(db *gorm.DB, gateway Gateway, logger *zap.Logger, model string) *FeedbackWriter {
	return &FeedbackWriter{db: db, gateway: gateway, logger: logger, model: model}
}

func (f *FeedbackWriter) Start(exam models.Exam, ev Evaluation, questionCount int, resultID uint) {
	if f.gateway == nil {
		f.logger.Warn("Skipping exam feedback, AI gateway is not configured", zap.Uint("result_id", resultID))
		return
	}

	f.wg.Add(1)
	go func() {
		defer f.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), feedbackTimeout)
		defer cancel()

		log := f.logger.With(zap.Uint("exam_id", exam.ID), zap.Uint("result_id", resultID))

		completion, err := f.gateway.Complete(ctx, FeedbackPrompt(exam, ev, questionCount, f.model))
		if err != nil {
			log.Error("Background feedback generation failed", zap.Error(err))
			return
		}

		if err := f.db.WithContext(ctx).Model(&models.ExamResult{}).
			Where("id = ?", resultID).
			Update("ai_feedback", completion.Content).Error; err != nil {
			log.Error("Saving AI feedback failed", zap.Error(err))
			return
		}
		log.Info("AI feedback generated and saved")
	}()
}

// Wait blocks until every started feedback job has finished.
func (f *FeedbackWriter) Wait() {
	f.wg.Wait()
}
