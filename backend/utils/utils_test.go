package utils

import (
	"net/http/httptest"
	"testing"

	"mentor/backend/config"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestTokenRoundTrip(t *testing.T) {
	cfg := &config.Config{JWTSecret: "testsecret", JWTTTLHours: 1}

	token, err := GenerateJWTToken(42, cfg)
	require.NoError(t, err)

	userID, err := ParseToken(token, cfg)
	require.NoError(t, err)
	assert.Equal(t, uint(42), userID)

	_, err = ParseToken(token, &config.Config{JWTSecret: "other"})
	assert.Error(t, err)
}

func TestExtractUserIDAcceptsBearerPrefix(t *testing.T) {
	cfg := &config.Config{JWTSecret: "testsecret"}
	token, err := GenerateJWTToken(7, cfg)
	require.NoError(t, err)

	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		id, err := ExtractUserIDFromToken(c, cfg)
		if err != nil {
			return c.SendStatus(fiber.StatusUnauthorized)
		}
		return c.JSON(fiber.Map{"id": id})
	})

	for _, header := range []string{token, "Bearer " + token} {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("Authorization", header)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	}

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestValidateStruct(t *testing.T) {
	type input struct {
		Email    string  `json:"email" validate:"required,email"`
		Password string  `json:"password" validate:"min=8"`
		Amount   float64 `json:"amount" validate:"gt=0"`
	}

	fields := ValidateStruct(&input{Email: "nope", Password: "short"})
	assert.Equal(t, "must be a valid email", fields["email"])
	assert.Equal(t, "must be at least 8", fields["password"])
	assert.Equal(t, "must be greater than 0", fields["amount"])

	assert.Nil(t, ValidateStruct(&input{Email: "a@b.co", Password: "longenough", Amount: 1}))
}

func TestStatusLevel(t *testing.T) {
	assert.Equal(t, zapcore.ErrorLevel, StatusLevel(502))
	assert.Equal(t, zapcore.WarnLevel, StatusLevel(404))
	assert.Equal(t, zapcore.InfoLevel, StatusLevel(200))
}
