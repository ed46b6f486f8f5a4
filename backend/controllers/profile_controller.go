package controllers

import (
	"errors"
	"io"
	"mentor/backend/config"
	"mentor/backend/models"
	"mentor/backend/services"
	"mentor/backend/utils"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const maxPictureSize = 5 << 20

type ProfileController struct {
	DB     *gorm.DB
	Cfg    *config.Config
	Store  services.FileStore
	Logger *zap.Logger
}

func NewProfileController(db *gorm.DB, cfg *config.Config, store services.FileStore, logger *zap.Logger) *ProfileController {
	return &ProfileController{DB: db, Cfg: cfg, Store: store, Logger: logger}
}

type UpdateProfileRequest struct {
	Name                string `json:"name" validate:"max=100"`
	Mobile              string `json:"mobile" validate:"max=20"`
	Profession          string `json:"profession" validate:"max=100"`
	Technology          string `json:"technology" validate:"max=100"`
	ExperienceLevel     string `json:"experience_level" validate:"max=50"`
	PreferredDifficulty string `json:"preferred_difficulty" validate:"omitempty,oneof=easy medium hard"`
}

// GetProfile godoc
// @Summary Get user profile
// @Description Returns authenticated user's profile data
// @Tags profile
// @Produce json
// @Success 200 {object} utils.SuccessResponse
// @Failure 401 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /profile [get]
func (pc *ProfileController) GetProfile(c *fiber.Ctx) error {
	profile, err := pc.loadProfile(currentUserID(c))
	if err != nil {
		return utils.InternalServerError(c, "Could not load profile")
	}
	return utils.Success(c, fiber.StatusOK, profile)
}

// UpdateProfile godoc
// @Summary Update user profile
// @Tags profile
// @Accept json
// @Produce json
// @Param request body UpdateProfileRequest true "Profile fields"
// @Success 200 {object} utils.SuccessResponse
// @Failure 422 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /profile [put]
func (pc *ProfileController) UpdateProfile(c *fiber.Ctx) error {
	var input UpdateProfileRequest
	if ok, err := utils.ParseAndValidate(c, &input); !ok {
		return err
	}

	profile, err := pc.loadProfile(currentUserID(c))
	if err != nil {
		return utils.InternalServerError(c, "Could not load profile")
	}

	profile.Name = input.Name
	profile.Mobile = input.Mobile
	profile.Profession = input.Profession
	profile.Technology = input.Technology
	profile.ExperienceLevel = input.ExperienceLevel
	profile.PreferredDifficulty = input.PreferredDifficulty

	if err := pc.DB.Save(profile).Error; err != nil {
		return utils.InternalServerError(c, "Could not update profile")
	}
	return utils.Success(c, fiber.StatusOK, profile)
}

func (pc *ProfileController) UploadPicture(c *fiber.Ctx) error {
	userID := currentUserID(c)

	file, err := c.FormFile("file")
	if err != nil {
		return utils.BadRequest(c, "File is required")
	}
	contentType := file.Header.Get(fiber.HeaderContentType)
	if !strings.HasPrefix(contentType, "image/") {
		return utils.BadRequest(c, "Please select an image file")
	}
	if file.Size > maxPictureSize {
		return utils.BadRequest(c, "Image size should be less than 5MB")
	}

	src, err := file.Open()
	if err != nil {
		return utils.BadRequest(c, "Could not read file")
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return utils.BadRequest(c, "Could not read file")
	}

	key := strings.Join([]string{utoa(userID), uuid.NewString() + strings.ToLower(filepath.Ext(file.Filename))}, "/")
	url, err := pc.Store.Save(c.UserContext(), services.BucketProfilePictures, key, contentType, data)
	if err != nil {
		pc.Logger.Error("Profile picture upload failed", zap.Uint("user_id", userID), zap.Error(err))
		return utils.InternalServerError(c, "Could not store file")
	}

	profile, err := pc.loadProfile(userID)
	if err != nil {
		return utils.InternalServerError(c, "Could not load profile")
	}
	if err := pc.DB.Model(profile).Update("profile_picture_url", url).Error; err != nil {
		return utils.InternalServerError(c, "Could not update profile")
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{"profile_picture_url": url})
}

// loadProfile returns the user's profile, creating an empty one on first use.
func (pc *ProfileController) loadProfile(userID uint) (*models.Profile, error) {
	var profile models.Profile
	err := pc.DB.Where("user_id = ?", userID).First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		var user models.User
		if err := pc.DB.First(&user, userID).Error; err != nil {
			return nil, err
		}
		profile = models.Profile{UserID: userID, Email: user.Email}
		return &profile, pc.DB.Create(&profile).Error
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}
