package controllers

import (
	"errors"
	"mentor/backend/config"
	"mentor/backend/middleware"
	"mentor/backend/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type AnalyticsController struct {
	DB      *gorm.DB
	Cfg     *config.Config
	Tracker *services.FootfallTracker
	Logger  *zap.Logger
}

func NewAnalyticsController(db *gorm.DB, cfg *config.Config, tracker *services.FootfallTracker, logger *zap.Logger) *AnalyticsController {
	return &AnalyticsController{DB: db, Cfg: cfg, Tracker: tracker, Logger: logger}
}

type TrackVisitRequest struct {
	SessionID      string `json:"session_id"`
	Page           string `json:"page"`
	MentorCategory string `json:"mentor_category"`
}

// TrackVisit godoc
// @Summary Track a page visit
// @Description Records a visit or heartbeat and returns the number of active visitors
// @Tags analytics
// @Accept json
// @Produce json
// @Param request body TrackVisitRequest true "Visit"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Router /track [post]
func (ac *AnalyticsController) TrackVisit(c *fiber.Ctx) error {
	var input TrackVisitRequest
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Cannot parse JSON",
		})
	}

	visit := services.Visit{
		SessionID:      input.SessionID,
		Page:           input.Page,
		MentorCategory: input.MentorCategory,
	}
	if userID, ok := middleware.UserID(c); ok {
		visit.UserID = &userID
	}

	active, err := ac.Tracker.Track(c.UserContext(), visit)
	if errors.Is(err, services.ErrMissingVisitFields) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	if err != nil {
		ac.Logger.Error("Footfall tracking failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not track visit",
		})
	}

	return c.JSON(fiber.Map{
		"success":         true,
		"active_visitors": active,
	})
}

// GetFootfall godoc
// @Summary Footfall analytics
// @Description Active visitors, daily and per-mentor footfall and lifetime visitors
// @Tags analytics
// @Produce json
// @Success 200 {object} services.FootfallSnapshot
// @Failure 403 {object} map[string]interface{}
// @Security ApiKeyAuth
// @Router /analytics [get]
func (ac *AnalyticsController) GetFootfall(c *fiber.Ctx) error {
	snapshot, err := ac.Tracker.Snapshot(c.UserContext())
	if err != nil {
		ac.Logger.Error("Could not load footfall", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not load analytics",
		})
	}
	return c.JSON(snapshot)
}
