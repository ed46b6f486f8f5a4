package controllers

import (
	"errors"
	"math"
	"mentor/backend/config"
	"mentor/backend/models"
	"mentor/backend/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	dashboardExamLimit = 50
	topPerformersLimit = 5
	adminSetupLockKey  = 7246001
)

var errAdminExists = errors.New("admin account already exists")

type AdminController struct {
	DB     *gorm.DB
	Cfg    *config.Config
	Logger *zap.Logger
}

func NewAdminController(db *gorm.DB, cfg *config.Config, logger *zap.Logger) *AdminController {
	return &AdminController{DB: db, Cfg: cfg, Logger: logger}
}

type AdminSetupRequest struct {
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
	Name            string `json:"name" validate:"required,max=100"`
}

type AssignRoleRequest struct {
	UserID uint   `json:"user_id" validate:"required"`
	Role   string `json:"role" validate:"required,oneof=admin moderator user"`
}

type TopPerformer struct {
	UserID       uint    `json:"user_id"`
	Name         string  `json:"name"`
	Email        string  `json:"email"`
	AverageScore float64 `json:"average_score"`
	ExamsCount   int64   `json:"exams_count"`
}

type DashboardStats struct {
	TotalUsers    int64          `json:"total_users"`
	TotalExams    int64          `json:"total_exams"`
	AvgScore      float64        `json:"avg_score"`
	TopPerformers []TopPerformer `json:"top_performers"`
}

func (ac *AdminController) SetupStatus(c *fiber.Ctx) error {
	hasAdmin, err := ac.hasAdmin(ac.DB)
	if err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}
	return c.JSON(fiber.Map{"has_admin": hasAdmin})
}

// Setup godoc
// @Summary Create the first administrator
// @Description Only allowed while no admin account exists
// @Tags admin
// @Accept json
// @Produce json
// @Param request body AdminSetupRequest true "Admin account"
// @Success 201 {object} utils.SuccessResponse
// @Failure 409 {object} utils.ErrorResponse
// @Router /admin/setup [post]
func (ac *AdminController) Setup(c *fiber.Ctx) error {
	var input AdminSetupRequest
	if ok, err := utils.ParseAndValidate(c, &input); !ok {
		return err
	}

	user, err := createUser(ac.DB, input.Email, input.Password, input.Name, "", models.RoleAdmin, ac.ensureNoAdmin)
	if errors.Is(err, errAdminExists) {
		return utils.Conflict(c, "Admin account already exists")
	}
	if errors.Is(err, errEmailTaken) {
		return utils.Conflict(c, "Email already registered")
	}
	if err != nil {
		ac.Logger.Error("Admin setup failed", zap.Error(err))
		return utils.InternalServerError(c, "Could not create admin")
	}

	ac.Logger.Info("Admin account created", zap.Uint("user_id", user.ID))
	return utils.Created(c, fiber.Map{
		"id":    user.ID,
		"email": user.Email,
		"role":  models.RoleAdmin,
	})
}

// Dashboard godoc
// @Summary Admin dashboard
// @Description Latest completed exams with results and platform statistics
// @Tags admin
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} map[string]interface{}
// @Security ApiKeyAuth
// @Router /admin/dashboard [get]
func (ac *AdminController) Dashboard(c *fiber.Ctx) error {
	var exams []models.Exam
	if err := ac.DB.Preload("Results").
		Where("status = ?", models.ExamStatusCompleted).
		Order("completed_at DESC").
		Limit(dashboardExamLimit).
		Find(&exams).Error; err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}

	userIDs := make([]uint, 0, len(exams))
	for _, e := range exams {
		userIDs = append(userIDs, e.UserID)
	}
	profiles, err := ac.profilesByUser(userIDs)
	if err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}

	recent := make([]fiber.Map, 0, len(exams))
	for _, e := range exams {
		item := fiber.Map{
			"id":               e.ID,
			"user_id":          e.UserID,
			"technology":       e.Technology,
			"experience_level": e.ExperienceLevel,
			"difficulty":       e.Difficulty,
			"completed_at":     e.CompletedAt,
			"result":           nil,
		}
		if p, ok := profiles[e.UserID]; ok {
			item["name"] = p.Name
			item["email"] = p.Email
		}
		if len(e.Results) > 0 {
			item["result"] = e.Results[0]
		}
		recent = append(recent, item)
	}

	stats, err := ac.dashboardStats()
	if err != nil {
		ac.Logger.Error("Could not compute dashboard stats", zap.Error(err))
		return utils.InternalServerError(c, "Could not query database")
	}

	return c.JSON(fiber.Map{
		"exams": recent,
		"stats": stats,
	})
}

func (ac *AdminController) AssignRole(c *fiber.Ctx) error {
	var input AssignRoleRequest
	if ok, err := utils.ParseAndValidate(c, &input); !ok {
		return err
	}

	var user models.User
	if err := ac.DB.First(&user, input.UserID).Error; err != nil {
		return utils.NotFound(c, "User not found")
	}

	role := models.UserRole{UserID: user.ID, Role: input.Role}
	if err := ac.DB.Clauses(clause.OnConflict{DoNothing: true}).Create(&role).Error; err != nil {
		return utils.InternalServerError(c, "Could not assign role")
	}

	ac.Logger.Info("Role assigned",
		zap.Uint("user_id", user.ID),
		zap.String("role", input.Role),
		zap.Uint("by", currentUserID(c)),
	)
	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"user_id": user.ID,
		"role":    input.Role,
	})
}

// ensureNoAdmin fails with errAdminExists once any admin role exists. On
// postgres it first takes a transaction-scoped advisory lock so concurrent
// setups are serialized.
func (ac *AdminController) ensureNoAdmin(tx *gorm.DB) error {
	if tx.Dialector.Name() == "postgres" {
		if err := tx.Exec("SELECT pg_advisory_xact_lock(?)", adminSetupLockKey).Error; err != nil {
			return err
		}
	}
	hasAdmin, err := ac.hasAdmin(tx)
	if err != nil {
		return err
	}
	if hasAdmin {
		return errAdminExists
	}
	return nil
}

func (ac *AdminController) hasAdmin(db *gorm.DB) (bool, error) {
	var count int64
	err := db.Model(&models.UserRole{}).Where("role = ?", models.RoleAdmin).Count(&count).Error
	return count > 0, err
}

func (ac *AdminController) profilesByUser(userIDs []uint) (map[uint]models.Profile, error) {
	result := make(map[uint]models.Profile)
	if len(userIDs) == 0 {
		return result, nil
	}
	var profiles []models.Profile
	if err := ac.DB.Where("user_id IN ?", userIDs).Find(&profiles).Error; err != nil {
		return nil, err
	}
	for _, p := range profiles {
		result[p.UserID] = p
	}
	return result, nil
}

func (ac *AdminController) dashboardStats() (*DashboardStats, error) {
	var totals struct {
		Users   int64
		Exams   int64
		Average float64
	}
	if err := ac.DB.Model(&models.ExamResult{}).
		Select("COUNT(DISTINCT user_id) AS users, COUNT(*) AS exams, COALESCE(AVG(total_score), 0) AS average").
		Scan(&totals).Error; err != nil {
		return nil, err
	}

	var rows []struct {
		UserID  uint
		Average float64
		Count   int64
	}
	if err := ac.DB.Model(&models.ExamResult{}).
		Select("user_id, AVG(total_score) AS average, COUNT(*) AS count").
		Group("user_id").
		Order("average DESC").
		Limit(topPerformersLimit).
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	userIDs := make([]uint, 0, len(rows))
	for _, r := range rows {
		userIDs = append(userIDs, r.UserID)
	}
	profiles, err := ac.profilesByUser(userIDs)
	if err != nil {
		return nil, err
	}

	top := make([]TopPerformer, 0, len(rows))
	for _, r := range rows {
		p := profiles[r.UserID]
		top = append(top, TopPerformer{
			UserID:       r.UserID,
			Name:         p.Name,
			Email:        p.Email,
			AverageScore: math.Round(r.Average*100) / 100,
			ExamsCount:   r.Count,
		})
	}

	return &DashboardStats{
		TotalUsers:    totals.Users,
		TotalExams:    totals.Exams,
		AvgScore:      math.Round(totals.Average),
		TopPerformers: top,
	}, nil
}
