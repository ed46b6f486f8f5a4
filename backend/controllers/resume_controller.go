package controllers

import (
	"fmt"
	"io"
	"mentor/backend/config"
	"mentor/backend/services"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const maxResumeSize = 10 << 20

var (
	resumeExtensions = map[string]string{
		".pdf":  "application/pdf",
		".doc":  "application/msword",
		".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	}
	unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)
	repeatedDots    = regexp.MustCompile(`\.{2,}`)
)

type ResumeController struct {
	DB      *gorm.DB
	Cfg     *config.Config
	Store   services.FileStore
	Gateway services.Gateway
	Logger  *zap.Logger
}

func NewResumeController(db *gorm.DB, cfg *config.Config, store services.FileStore, gateway services.Gateway, logger *zap.Logger) *ResumeController {
	return &ResumeController{DB: db, Cfg: cfg, Store: store, Gateway: gateway, Logger: logger}
}

// Analyze godoc
// @Summary Analyze a resume
// @Description Stores the uploaded resume and returns AI feedback on it
// @Tags resume
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Resume (pdf, doc, docx)"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Security ApiKeyAuth
// @Router /resume/analyze [post]
func (rc *ResumeController) Analyze(c *fiber.Ctx) error {
	userID := currentUserID(c)

	file, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "File is required",
		})
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	contentType, ok := resumeExtensions[ext]
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Please upload a PDF, DOC or DOCX file",
		})
	}
	if file.Size > maxResumeSize {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "File size should be less than 10MB",
		})
	}
	if rc.Gateway == nil {
		return gatewayNotConfigured(c)
	}

	src, err := file.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Could not read file",
		})
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Could not read file",
		})
	}

	name := safeFileName(file.Filename)
	key := fmt.Sprintf("%d/%d-%s", userID, time.Now().UnixMilli(), name)
	log := rc.Logger.With(zap.Uint("user_id", userID), zap.String("file", name))

	fileURL, err := rc.Store.Save(c.UserContext(), services.BucketResumes, key, contentType, data)
	if err != nil {
		log.Error("Resume upload failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not store file",
		})
	}

	completion, err := rc.Gateway.Complete(c.UserContext(), services.ResumePrompt(name, rc.Cfg.AIModel))
	if err != nil {
		log.Error("Resume analysis failed", zap.Error(err))
		return gatewayError(c, err)
	}

	log.Info("Resume analyzed")
	return c.JSON(fiber.Map{
		"analysis": completion.Content,
		"file_url": fileURL,
	})
}

func safeFileName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = unsafeFileChars.ReplaceAllString(name, "_")
	name = repeatedDots.ReplaceAllString(name, ".")
	name = strings.TrimLeft(name, ".")
	if name == "" {
		return "resume"
	}
	return name
}
