package controllers_test

import (
	"errors"
	"net/http"
	"strconv"
	"testing"

	"mentor/backend/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnippetCRUD(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.register(t, "coder@example.com")
	other, _ := env.register(t, "snoop@example.com")

	resp, body := env.do(t, http.MethodPost, "/api/playground/snippets", token, map[string]string{
		"title": "Hello", "language": "python", "code": "print('hi')",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, body)
	path := "/api/playground/snippets/" + strconv.FormatFloat(data(body)["ID"].(float64), 'f', 0, 64)

	resp, _ = env.do(t, http.MethodPost, "/api/playground/snippets", token, map[string]string{
		"title": "Rusty", "language": "rust", "code": "fn main() {}",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp, body = env.do(t, http.MethodPut, path, token, map[string]string{
		"title": "Hello v2", "language": "javascript", "code": "console.log('hi')", "stdin": "42",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Equal(t, "Hello v2", data(body)["title"])
	assert.Equal(t, "42", data(body)["stdin"])

	resp, _ = env.do(t, http.MethodPut, path, other, map[string]string{
		"title": "Mine now", "language": "python", "code": "pass",
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = env.do(t, http.MethodGet, "/api/playground/snippets", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["data"], 1)

	resp, body = env.do(t, http.MethodGet, "/api/playground/snippets", other, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, body["data"])

	resp, _ = env.do(t, http.MethodDelete, path, other, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = env.do(t, http.MethodDelete, path, token, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestExecute(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.register(t, "runner@example.com")

	env.executor.result = &services.Execution{
		Output:        "hi\n",
		ExitCode:      0,
		ExecutionTime: "12ms",
		Language:      "python",
		Version:       "3.10.0",
	}
	resp, body := env.do(t, http.MethodPost, "/api/playground/execute", token, map[string]string{
		"language": "python", "code": "print('hi')",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Equal(t, "hi\n", body["output"])
	assert.Equal(t, "3.10.0", body["version"])

	resp, body = env.do(t, http.MethodPost, "/api/playground/execute", token, map[string]string{
		"language": "cobol", "code": "DISPLAY 'HI'.",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Unsupported language: cobol", body["error"])
	assert.Equal(t, 1, env.executor.calls)

	env.executor.err = services.ErrRuntimeNotFound
	resp, _ = env.do(t, http.MethodPost, "/api/playground/execute", token, map[string]string{
		"language": "java", "code": "class Main {}",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	env.executor.err = errors.New("piston unreachable")
	resp, body = env.do(t, http.MethodPost, "/api/playground/execute", token, map[string]string{
		"language": "python", "code": "print(1)",
	})
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "piston unreachable", body["error"])
}

func TestAssist(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.register(t, "helpme@example.com")

	env.gateway.reply = &services.Completion{Content: `{"explanation": "Prints hi", "concepts": ["print"]}`}
	resp, body := env.do(t, http.MethodPost, "/api/playground/assist", token, map[string]string{
		"action": "explain", "language": "python", "code": "print('hi')",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Equal(t, "Prints hi", body["explanation"])
	assert.True(t, env.gateway.lastPrompt().JSONMode)

	env.gateway.reply = &services.Completion{Content: "not json at all"}
	resp, body = env.do(t, http.MethodPost, "/api/playground/assist", token, map[string]string{
		"action": "score", "language": "python", "code": "print('hi')",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "not json at all", body["raw"])

	resp, body = env.do(t, http.MethodPost, "/api/playground/assist", token, map[string]string{
		"action": "rewrite", "language": "python", "code": "print('hi')",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Invalid action", body["error"])
}

func TestAssistRateLimited(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.register(t, "limited@example.com")

	env.gateway.err = services.ErrRateLimited
	resp, body := env.do(t, http.MethodPost, "/api/playground/assist", token, map[string]string{
		"action": "fix", "language": "python", "code": "print(x)", "error": "NameError",
	})
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "Rate limit exceeded. Please try again later.", body["error"])
}

func TestAIRequestsAreThrottledPerUser(t *testing.T) {
	env := newTestEnv(t, withAILimit(2))
	token, _ := env.register(t, "busy@example.com")
	other, _ := env.register(t, "idle@example.com")

	assist := map[string]string{"action": "explain", "language": "python", "code": "print(1)"}
	for i := 0; i < 2; i++ {
		resp, _ := env.do(t, http.MethodPost, "/api/playground/assist", token, assist)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp, body := env.do(t, http.MethodPost, "/api/playground/assist", token, assist)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "Rate limit exceeded. Please try again later.", body["error"])

	resp, _ = env.do(t, http.MethodPost, "/api/playground/assist", other, assist)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
