package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"mentor/backend/config"
	"mentor/backend/models"
	"mentor/backend/routes"
	"mentor/backend/services"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type fakeGateway struct {
	mu      sync.Mutex
	prompts []services.Prompt
	reply   *services.Completion
	err     error
}

func (f *fakeGateway) Complete(_ context.Context, prompt services.Prompt) (*services.Completion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return nil, f.err
	}
	return f.reply, nil
}

func (f *fakeGateway) lastPrompt() services.Prompt {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.prompts[len(f.prompts)-1]
}

type fakeExecutor struct {
	calls  int
	result *services.Execution
	err    error
}

func (f *fakeExecutor) Execute(_ context.Context, language, code, stdin string) (*services.Execution, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type testEnv struct {
	app      *fiber.App
	db       *gorm.DB
	cfg      *config.Config
	gateway  *fakeGateway
	executor *fakeExecutor
	feedback *services.FeedbackWriter
	storage  string
}

type envOption func(*config.Config, *routes.Dependencies)

func withoutGateway() envOption {
	return func(_ *config.Config, d *routes.Dependencies) { d.Gateway = nil }
}

func withAILimit(perMinute int) envOption {
	return func(cfg *config.Config, _ *routes.Dependencies) { cfg.AIRateLimitPerMinute = perMinute }
}

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, models.AutoMigrate(db))

	storage := t.TempDir()
	cfg := &config.Config{
		JWTSecret:            "testsecret",
		JWTTTLHours:          1,
		CORSOrigins:          "*",
		AIModel:              "test-model",
		AIFeedbackModel:      "test-feedback-model",
		AIRateLimitPerMinute: 100,
		StorageDriver:        "local",
		StorageDir:           storage,
		StoragePublicURL:     "/storage",
	}

	env := &testEnv{
		db:       db,
		cfg:      cfg,
		gateway:  &fakeGateway{reply: &services.Completion{Content: "ok"}},
		executor: &fakeExecutor{},
		storage:  storage,
	}

	log := zap.NewNop()
	deps := routes.Dependencies{
		Logger:   log,
		Gateway:  env.gateway,
		Executor: env.executor,
		Store:    services.NewLocalStore(storage, cfg.StoragePublicURL),
	}
	for _, opt := range opts {
		opt(cfg, &deps)
	}
	env.feedback = services.NewFeedbackWriter(db, deps.Gateway, log, cfg.AIFeedbackModel)
	deps.Feedback = env.feedback

	env.app = routes.NewApp(cfg, log)
	routes.SetupRoutes(env.app, db, cfg, deps)
	return env
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return e.send(t, req)
}

func (e *testEnv) upload(t *testing.T, path, token, fileName, contentType string, data []byte) (*http.Response, map[string]interface{}) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	header := make(map[string][]string)
	header["Content-Disposition"] = []string{`form-data; name="file"; filename="` + fileName + `"`}
	header["Content-Type"] = []string{contentType}
	part, err := w.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	return e.send(t, req)
}

func (e *testEnv) send(t *testing.T, req *http.Request) (*http.Response, map[string]interface{}) {
	t.Helper()

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var out map[string]interface{}
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &out))
	} else if len(raw) > 0 && raw[0] == '[' {
		var list []interface{}
		require.NoError(t, json.Unmarshal(raw, &list))
		out = map[string]interface{}{"items": list}
	}
	return resp, out
}

// register creates a user through the API and returns its token and id.
func (e *testEnv) register(t *testing.T, email string) (string, uint) {
	t.Helper()

	resp, body := e.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email":    email,
		"password": "password123",
		"name":     "Test User",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, body)

	user := body["user"].(map[string]interface{})
	return body["token"].(string), uint(user["id"].(float64))
}

func (e *testEnv) registerAdmin(t *testing.T, email string) (string, uint) {
	t.Helper()

	token, id := e.register(t, email)
	require.NoError(t, e.db.Create(&models.UserRole{UserID: id, Role: models.RoleAdmin}).Error)
	return token, id
}

func data(body map[string]interface{}) map[string]interface{} {
	d, _ := body["data"].(map[string]interface{})
	return d
}
