package controllers

import (
	"errors"
	"mentor/backend/config"
	"mentor/backend/models"
	"mentor/backend/services"
	"mentor/backend/utils"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const defaultQuestionCount = 20

var errAlreadyEvaluated = errors.New("exam already evaluated")

type ExamsController struct {
	DB       *gorm.DB
	Cfg      *config.Config
	Gateway  services.Gateway
	Feedback *services.FeedbackWriter
	Logger   *zap.Logger
}

func NewExamsController(db *gorm.DB, cfg *config.Config, gateway services.Gateway, feedback *services.FeedbackWriter, logger *zap.Logger) *ExamsController {
	return &ExamsController{DB: db, Cfg: cfg, Gateway: gateway, Feedback: feedback, Logger: logger}
}

type GenerateExamRequest struct {
	Technology      string `json:"technology" validate:"required,max=100"`
	ExperienceLevel string `json:"experience_level" validate:"required,max=50"`
	Difficulty      string `json:"difficulty" validate:"required,max=50"`
	QuestionCount   int    `json:"question_count" validate:"omitempty,min=1,max=50"`
}

type SubmitAnswersRequest struct {
	Answers          map[string]string `json:"answers" validate:"required"`
	TimeSpentSeconds int               `json:"time_spent_seconds" validate:"min=0"`
}

// questionView hides the answer key while an exam is taken.
type questionView struct {
	ID             uint   `json:"id"`
	QuestionNumber int    `json:"question_number"`
	QuestionText   string `json:"question_text"`
	OptionA        string `json:"option_a"`
	OptionB        string `json:"option_b"`
	OptionC        string `json:"option_c"`
	OptionD        string `json:"option_d"`
	Topic          string `json:"topic"`
}

// GenerateExam godoc
// @Summary Generate a mock exam
// @Description Asks the AI gateway for multiple-choice questions and stores a new exam
// @Tags exams
// @Accept json
// @Produce json
// @Param request body GenerateExamRequest true "Exam parameters"
// @Success 200 {object} map[string]interface{}
// @Failure 429 {object} map[string]interface{}
// @Security ApiKeyAuth
// @Router /exams/generate [post]
func (ec *ExamsController) GenerateExam(c *fiber.Ctx) error {
	var input GenerateExamRequest
	if ok, err := utils.ParseAndValidate(c, &input); !ok {
		return err
	}
	if ec.Gateway == nil {
		return gatewayNotConfigured(c)
	}
	if input.QuestionCount == 0 {
		input.QuestionCount = defaultQuestionCount
	}

	userID := currentUserID(c)
	log := ec.Logger.With(zap.Uint("user_id", userID), zap.String("technology", input.Technology))
	log.Info("Generating exam", zap.Int("question_count", input.QuestionCount))

	completion, err := ec.Gateway.Complete(c.UserContext(), services.ExamPrompt(services.ExamSpec{
		Technology:      input.Technology,
		ExperienceLevel: input.ExperienceLevel,
		Difficulty:      input.Difficulty,
		QuestionCount:   input.QuestionCount,
	}, ec.Cfg.AIModel))
	if err != nil {
		log.Error("Exam generation failed", zap.Error(err))
		return gatewayError(c, err)
	}

	generated, err := services.ParseGeneratedQuestions(completion)
	if err != nil {
		log.Error("Could not parse generated questions", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	exam := models.Exam{
		UserID:           userID,
		Technology:       input.Technology,
		ExperienceLevel:  input.ExperienceLevel,
		Difficulty:       input.Difficulty,
		TotalQuestions:   len(generated),
		TimeLimitMinutes: models.DefaultExamTimeLimitMinutes,
		Status:           models.ExamStatusInProgress,
		StartedAt:        time.Now().UTC(),
	}

	err = ec.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&exam).Error; err != nil {
			return err
		}
		questions := services.ToModels(exam.ID, generated)
		return tx.Create(&questions).Error
	})
	if err != nil {
		log.Error("Could not save exam", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not save exam",
		})
	}

	log.Info("Exam created", zap.Uint("exam_id", exam.ID), zap.Int("questions", len(generated)))
	return c.JSON(fiber.Map{
		"exam_id":        exam.ID,
		"question_count": len(generated),
		"message":        "Exam generated successfully",
	})
}

func (ec *ExamsController) ListExams(c *fiber.Ctx) error {
	var exams []models.Exam
	if err := ec.DB.Preload("Results").
		Where("user_id = ?", currentUserID(c)).
		Order("created_at DESC").
		Find(&exams).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}

	result := make([]fiber.Map, 0, len(exams))
	for _, exam := range exams {
		item := fiber.Map{
			"id":                 exam.ID,
			"technology":         exam.Technology,
			"experience_level":   exam.ExperienceLevel,
			"difficulty":         exam.Difficulty,
			"total_questions":    exam.TotalQuestions,
			"time_limit_minutes": exam.TimeLimitMinutes,
			"status":             exam.Status,
			"started_at":         exam.StartedAt,
			"completed_at":       exam.CompletedAt,
			"total_score":        nil,
		}
		if len(exam.Results) > 0 {
			item["total_score"] = exam.Results[0].TotalScore
		}
		result = append(result, item)
	}

	return c.JSON(result)
}

func (ec *ExamsController) GetExam(c *fiber.Ctx) error {
	exam, ferr := ec.ownExam(c)
	if ferr != nil {
		return errorJSON(c, ferr)
	}

	questions, answers, err := ec.examContent(exam)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}

	views := make([]questionView, 0, len(questions))
	for _, q := range questions {
		views = append(views, questionView{
			ID:             q.ID,
			QuestionNumber: q.QuestionNumber,
			QuestionText:   q.QuestionText,
			OptionA:        q.OptionA,
			OptionB:        q.OptionB,
			OptionC:        q.OptionC,
			OptionD:        q.OptionD,
			Topic:          q.Topic,
		})
	}

	selected := make(map[string]string, len(answers))
	for _, a := range answers {
		selected[utoa(a.QuestionID)] = a.SelectedAnswer
	}

	return c.JSON(fiber.Map{
		"exam":      exam,
		"questions": views,
		"answers":   selected,
	})
}

// SubmitAnswers godoc
// @Summary Save exam answers
// @Description Upserts the user's answers; correctness is computed on the server
// @Tags exams
// @Accept json
// @Produce json
// @Param id path int true "Exam ID"
// @Param request body SubmitAnswersRequest true "Answers keyed by question id"
// @Success 200 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Security ApiKeyAuth
// @Router /exams/{id}/answers [post]
func (ec *ExamsController) SubmitAnswers(c *fiber.Ctx) error {
	exam, ferr := ec.ownExam(c)
	if ferr != nil {
		return errorJSON(c, ferr)
	}
	if exam.Status == models.ExamStatusCompleted {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Exam already completed",
		})
	}

	var input SubmitAnswersRequest
	if ok, err := utils.ParseAndValidate(c, &input); !ok {
		return err
	}

	var questions []models.Question
	if err := ec.DB.Where("exam_id = ?", exam.ID).Find(&questions).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}
	byID := make(map[uint]models.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}

	answers := make([]models.UserAnswer, 0, len(input.Answers))
	for key, selected := range input.Answers {
		id, err := strconv.ParseUint(key, 10, 64)
		if err != nil {
			return utils.BadRequest(c, "Invalid question ID: "+key)
		}
		q, ok := byID[uint(id)]
		if !ok {
			return utils.BadRequest(c, "Question does not belong to this exam: "+key)
		}
		if selected != "" && !validAnswer(selected) {
			return utils.BadRequest(c, "Answer must be one of A, B, C, D")
		}

		correct := services.IsCorrectAnswer(selected, q.CorrectAnswer)
		answers = append(answers, models.UserAnswer{
			ExamID:           exam.ID,
			QuestionID:       q.ID,
			UserID:           exam.UserID,
			SelectedAnswer:   selected,
			IsCorrect:        &correct,
			TimeSpentSeconds: input.TimeSpentSeconds,
		})
	}

	if len(answers) > 0 {
		if err := ec.DB.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "question_id"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"selected_answer", "is_correct", "time_spent_seconds", "updated_at"}),
		}).Create(&answers).Error; err != nil {
			ec.Logger.Error("Could not save answers", zap.Uint("exam_id", exam.ID), zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Could not save answers",
			})
		}
	}

	return c.JSON(fiber.Map{
		"saved":   len(answers),
		"message": "Answers saved",
	})
}

// EvaluateExam godoc
// @Summary Evaluate an exam
// @Description Scores the exam, stores the result and starts AI feedback generation
// @Tags exams
// @Produce json
// @Param id path int true "Exam ID"
// @Success 200 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Security ApiKeyAuth
// @Router /exams/{id}/evaluate [post]
func (ec *ExamsController) EvaluateExam(c *fiber.Ctx) error {
	exam, ferr := ec.ownExam(c)
	if ferr != nil {
		return errorJSON(c, ferr)
	}
	log := ec.Logger.With(zap.Uint("exam_id", exam.ID), zap.Uint("user_id", exam.UserID))

	var (
		result    models.ExamResult
		eval      services.Evaluation
		questions []models.Question
	)
	err := ec.DB.Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&models.ExamResult{}).Where("exam_id = ?", exam.ID).Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return errAlreadyEvaluated
		}

		if err := tx.Where("exam_id = ?", exam.ID).Order("question_number ASC").Find(&questions).Error; err != nil {
			return err
		}
		var answers []models.UserAnswer
		if err := tx.Where("exam_id = ? AND user_id = ?", exam.ID, exam.UserID).Find(&answers).Error; err != nil {
			return err
		}

		eval = services.EvaluateExam(questions, answers)
		result = eval.Result(exam.ID, exam.UserID)
		if err := tx.Create(&result).Error; err != nil {
			return err
		}

		now := time.Now().UTC()
		exam.Status = models.ExamStatusCompleted
		exam.CompletedAt = &now
		return tx.Model(exam).Updates(map[string]interface{}{
			"status":       exam.Status,
			"completed_at": exam.CompletedAt,
		}).Error
	})
	if errors.Is(err, errAlreadyEvaluated) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Exam already evaluated",
		})
	}
	if err != nil {
		log.Error("Evaluation failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not evaluate exam",
		})
	}

	log.Info("Exam evaluated", zap.Float64("total_score", result.TotalScore))
	if ec.Feedback != nil {
		ec.Feedback.Start(*exam, eval, len(questions), result.ID)
	}

	return c.JSON(fiber.Map{
		"result":  result,
		"message": "Exam evaluated successfully. AI feedback is being generated.",
	})
}

func (ec *ExamsController) GetResults(c *fiber.Ctx) error {
	exam, ferr := ec.ownExam(c)
	if ferr != nil {
		return errorJSON(c, ferr)
	}

	var result models.ExamResult
	if err := ec.DB.Where("exam_id = ?", exam.ID).First(&result).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Exam has not been evaluated",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}

	questions, answers, err := ec.examContent(exam)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}

	return c.JSON(fiber.Map{
		"exam":      exam,
		"result":    result,
		"questions": questions,
		"answers":   answers,
	})
}

// examContent loads the exam's questions in order and its owner's answers.
func (ec *ExamsController) examContent(exam *models.Exam) ([]models.Question, []models.UserAnswer, error) {
	var questions []models.Question
	if err := ec.DB.Where("exam_id = ?", exam.ID).Order("question_number ASC").Find(&questions).Error; err != nil {
		return nil, nil, err
	}
	var answers []models.UserAnswer
	if err := ec.DB.Where("exam_id = ? AND user_id = ?", exam.ID, exam.UserID).Find(&answers).Error; err != nil {
		return nil, nil, err
	}
	return questions, answers, nil
}

// ownExam loads the :id exam owned by the caller.
func (ec *ExamsController) ownExam(c *fiber.Ctx) (*models.Exam, *fiber.Error) {
	examID, ok := paramID(c, "id")
	if !ok {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Invalid exam ID")
	}

	var exam models.Exam
	if err := ec.DB.Where("id = ? AND user_id = ?", examID, currentUserID(c)).First(&exam).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "Exam not found")
		}
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Could not query database")
	}
	return &exam, nil
}

func validAnswer(answer string) bool {
	switch answer {
	case "A", "B", "C", "D", "a", "b", "c", "d":
		return true
	}
	return false
}
