package controllers

import (
	"errors"
	"mentor/backend/config"
	"mentor/backend/models"
	"mentor/backend/utils"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/gofiber/fiber/v2"
)

var errEmailTaken = errors.New("email already registered")

type AuthController struct {
	DB     *gorm.DB
	Cfg    *config.Config
	Logger *zap.Logger
}

func NewAuthController(db *gorm.DB, cfg *config.Config, logger *zap.Logger) *AuthController {
	return &AuthController{DB: db, Cfg: cfg, Logger: logger}
}

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Name     string `json:"name" validate:"max=100"`
	Mobile   string `json:"mobile" validate:"max=20"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
}

// Register godoc
// @Summary Register a new user
// @Description Creates a user account with an empty profile
// @Tags auth
// @Accept json
// @Produce json
// @Param user body RegisterRequest true "User registration data"
// @Success 200 {object} map[string]interface{}
// @Failure 409 {object} utils.ErrorResponse
// @Failure 422 {object} utils.ErrorResponse
// @Router /auth/register [post]
func (ac *AuthController) Register(c *fiber.Ctx) error {
	var input RegisterRequest
	if ok, err := utils.ParseAndValidate(c, &input); !ok {
		return err
	}

	user, err := createUser(ac.DB, input.Email, input.Password, input.Name, input.Mobile, models.RoleUser, nil)
	if errors.Is(err, errEmailTaken) {
		return utils.Conflict(c, "Email already registered")
	}
	if err != nil {
		ac.Logger.Error("Could not create user", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not create user",
		})
	}

	token, err := utils.GenerateJWTToken(user.ID, ac.Cfg)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not generate token",
		})
	}

	return c.JSON(fiber.Map{
		"token": token,
		"user": fiber.Map{
			"id":    user.ID,
			"email": user.Email,
			"name":  user.Profile.Name,
		},
	})
}

// Login godoc
// @Summary User login
// @Description Authenticate user and return JWT token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login credentials"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} utils.ErrorResponse
// @Router /auth/login [post]
func (ac *AuthController) Login(c *fiber.Ctx) error {
	var input LoginRequest
	if ok, err := utils.ParseAndValidate(c, &input); !ok {
		return err
	}

	var user models.User
	if err := ac.DB.Preload("Profile").
		Where("email = ?", normalizeEmail(input.Email)).
		First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid credentials",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid credentials",
		})
	}

	token, err := utils.GenerateJWTToken(user.ID, ac.Cfg)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not generate token",
		})
	}

	now := time.Now().UTC()
	if err := ac.DB.Create(&models.LoginHistory{UserID: user.ID, LoginTime: now}).Error; err != nil {
		ac.Logger.Warn("Could not record login", zap.Uint("user_id", user.ID), zap.Error(err))
	}
	if err := updateStreak(ac.DB, user.ID, now); err != nil {
		ac.Logger.Warn("Could not update streak", zap.Uint("user_id", user.ID), zap.Error(err))
	}

	return c.JSON(fiber.Map{
		"token": token,
		"user": fiber.Map{
			"id":    user.ID,
			"email": user.Email,
			"name":  user.Profile.Name,
		},
	})
}

func (ac *AuthController) Me(c *fiber.Ctx) error {
	userID := currentUserID(c)

	var user models.User
	if err := ac.DB.Preload("Profile").Preload("Roles").First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "User not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	roles := make([]string, 0, len(user.Roles))
	for _, r := range user.Roles {
		roles = append(roles, r.Role)
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"id":         user.ID,
		"email":      user.Email,
		"created_at": user.CreatedAt,
		"profile":    user.Profile,
		"roles":      roles,
	})
}

func (ac *AuthController) ChangePassword(c *fiber.Ctx) error {
	var input ChangePasswordRequest
	if ok, err := utils.ParseAndValidate(c, &input); !ok {
		return err
	}

	var user models.User
	if err := ac.DB.First(&user, currentUserID(c)).Error; err != nil {
		return utils.NotFound(c, "User not found")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.CurrentPassword)); err != nil {
		return utils.Unauthorized(c, "Current password is incorrect")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return utils.InternalServerError(c, "Could not hash password")
	}
	if err := ac.DB.Model(&user).Update("password_hash", string(hash)).Error; err != nil {
		return utils.InternalServerError(c, "Could not update password")
	}

	return c.JSON(fiber.Map{"message": "Password updated"})
}

// createUser inserts the user, its profile and one role in a transaction.
// createUser inserts the user, profile and role in one transaction. A non-nil
// guard runs first inside that transaction and aborts it on error.
func createUser(db *gorm.DB, email, password, name, mobile, role string, guard func(tx *gorm.DB) error) (*models.User, error) {
	email = normalizeEmail(email)

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:        email,
		PasswordHash: string(hash),
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if guard != nil {
			if err := guard(tx); err != nil {
				return err
			}
		}

		var existing int64
		if err := tx.Model(&models.User{}).Where("email = ?", email).Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return errEmailTaken
		}

		if err := tx.Create(user).Error; err != nil {
			return err
		}

		user.Profile = models.Profile{UserID: user.ID, Email: email, Name: name, Mobile: mobile}
		if err := tx.Create(&user.Profile).Error; err != nil {
			return err
		}
		return tx.Create(&models.UserRole{UserID: user.ID, Role: role}).Error
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// updateStreak extends the streak on the first login of a day that follows
// an active day, and resets it after a gap.
func updateStreak(db *gorm.DB, userID uint, now time.Time) error {
	var progress models.UserProgress
	err := db.Where("user_id = ?", userID).First(&progress).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return db.Create(&models.UserProgress{UserID: userID, LastActive: now, StreakDays: 1}).Error
	}
	if err != nil {
		return err
	}

	last := progress.LastActive.UTC().Truncate(24 * time.Hour)
	today := now.UTC().Truncate(24 * time.Hour)
	switch days := int(today.Sub(last).Hours() / 24); {
	case days <= 0:
	case days == 1:
		progress.StreakDays++
	default:
		progress.StreakDays = 1
	}
	progress.LastActive = now
	return db.Save(&progress).Error
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
