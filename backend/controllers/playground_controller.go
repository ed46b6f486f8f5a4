package controllers

import (
	"errors"
	"mentor/backend/config"
	"mentor/backend/models"
	"mentor/backend/services"
	"mentor/backend/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type PlaygroundController struct {
	DB       *gorm.DB
	Cfg      *config.Config
	Executor services.Executor
	Gateway  services.Gateway
	Logger   *zap.Logger
}

func NewPlaygroundController(db *gorm.DB, cfg *config.Config, executor services.Executor, gateway services.Gateway, logger *zap.Logger) *PlaygroundController {
	return &PlaygroundController{DB: db, Cfg: cfg, Executor: executor, Gateway: gateway, Logger: logger}
}

type SnippetRequest struct {
	Title    string `json:"title" validate:"required,max=200"`
	Language string `json:"language" validate:"required,oneof=python javascript java cpp sql"`
	Code     string `json:"code" validate:"required"`
	Stdin    string `json:"stdin"`
}

type ExecuteRequest struct {
	Language string `json:"language" validate:"required"`
	Code     string `json:"code" validate:"required"`
	Stdin    string `json:"stdin"`
}

type AssistRequest struct {
	Action   string `json:"action" validate:"required"`
	Code     string `json:"code" validate:"required"`
	Language string `json:"language" validate:"required"`
	Error    string `json:"error"`
	Output   string `json:"output"`
}

func (pc *PlaygroundController) ListSnippets(c *fiber.Ctx) error {
	var snippets []models.CodeSnippet
	if err := pc.DB.Where("user_id = ?", currentUserID(c)).
		Order("updated_at DESC").
		Find(&snippets).Error; err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}
	return utils.Success(c, fiber.StatusOK, snippets)
}

func (pc *PlaygroundController) CreateSnippet(c *fiber.Ctx) error {
	var input SnippetRequest
	if ok, err := utils.ParseAndValidate(c, &input); !ok {
		return err
	}

	snippet := models.CodeSnippet{
		UserID:   currentUserID(c),
		Title:    input.Title,
		Language: input.Language,
		Code:     input.Code,
		Stdin:    input.Stdin,
	}
	if err := pc.DB.Create(&snippet).Error; err != nil {
		return utils.InternalServerError(c, "Could not save snippet")
	}
	return utils.Created(c, snippet)
}

func (pc *PlaygroundController) UpdateSnippet(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return utils.BadRequest(c, "Invalid snippet ID")
	}

	var input SnippetRequest
	if ok, err := utils.ParseAndValidate(c, &input); !ok {
		return err
	}

	var snippet models.CodeSnippet
	if err := pc.DB.Where("id = ? AND user_id = ?", id, currentUserID(c)).First(&snippet).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Snippet not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	snippet.Title = input.Title
	snippet.Language = input.Language
	snippet.Code = input.Code
	snippet.Stdin = input.Stdin
	if err := pc.DB.Save(&snippet).Error; err != nil {
		return utils.InternalServerError(c, "Could not update snippet")
	}
	return utils.Success(c, fiber.StatusOK, snippet)
}

func (pc *PlaygroundController) DeleteSnippet(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return utils.BadRequest(c, "Invalid snippet ID")
	}

	res := pc.DB.Where("id = ? AND user_id = ?", id, currentUserID(c)).Delete(&models.CodeSnippet{})
	if res.Error != nil {
		return utils.InternalServerError(c, "Could not delete snippet")
	}
	if res.RowsAffected == 0 {
		return utils.NotFound(c, "Snippet not found")
	}
	return utils.NoContent(c)
}

// Execute godoc
// @Summary Run code
// @Description Runs the code in the Piston sandbox and returns its output
// @Tags playground
// @Accept json
// @Produce json
// @Param request body ExecuteRequest true "Code to run"
// @Success 200 {object} services.Execution
// @Failure 400 {object} map[string]interface{}
// @Security ApiKeyAuth
// @Router /playground/execute [post]
func (pc *PlaygroundController) Execute(c *fiber.Ctx) error {
	var input ExecuteRequest
	if ok, err := utils.ParseAndValidate(c, &input); !ok {
		return err
	}
	if !services.SupportedLanguage(input.Language) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unsupported language: " + input.Language,
		})
	}

	result, err := pc.Executor.Execute(c.UserContext(), input.Language, input.Code, input.Stdin)
	if err != nil {
		pc.Logger.Error("Code execution failed", zap.String("language", input.Language), zap.Error(err))
		status := fiber.StatusInternalServerError
		if errors.Is(err, services.ErrUnsupportedLanguage) || errors.Is(err, services.ErrRuntimeNotFound) {
			status = fiber.StatusBadRequest
		}
		return c.Status(status).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(result)
}

func (pc *PlaygroundController) Assist(c *fiber.Ctx) error {
	var input AssistRequest
	if ok, err := utils.ParseAndValidate(c, &input); !ok {
		return err
	}

	prompt, err := services.CodeAssistPrompt(services.CodeAssistRequest{
		Action:   input.Action,
		Language: input.Language,
		Code:     input.Code,
		Error:    input.Error,
		Output:   input.Output,
	}, pc.Cfg.AIModel)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid action",
		})
	}
	if pc.Gateway == nil {
		return gatewayNotConfigured(c)
	}

	completion, err := pc.Gateway.Complete(c.UserContext(), prompt)
	if err != nil {
		pc.Logger.Error("Code assistant failed", zap.String("action", input.Action), zap.Error(err))
		return gatewayError(c, err)
	}

	return c.JSON(services.ParseJSONReply(completion.Content, "raw"))
}
