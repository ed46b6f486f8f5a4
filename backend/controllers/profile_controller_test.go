package controllers_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetAndUpdateProfile(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.register(t, "profile@example.com")

	resp, body := env.do(t, http.MethodGet, "/api/profile", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Test User", data(body)["name"])
	assert.Equal(t, "profile@example.com", data(body)["email"])

	resp, body = env.do(t, http.MethodPut, "/api/profile", token, map[string]string{
		"name":                 "Grace",
		"profession":           "Engineer",
		"technology":           "Go",
		"experience_level":     "Senior",
		"preferred_difficulty": "hard",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Grace", data(body)["name"])
	assert.Equal(t, "hard", data(body)["preferred_difficulty"])

	resp, body = env.do(t, http.MethodPut, "/api/profile", token, map[string]string{
		"preferred_difficulty": "impossible",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, body["details"], "preferred_difficulty")
}

func TestUploadPicture(t *testing.T) {
	env := newTestEnv(t)
	token, id := env.register(t, "pic@example.com")

	png := []byte("\x89PNG\r\n\x1a\nfake")
	resp, body := env.upload(t, "/api/profile/picture", token, "Me.PNG", "image/png", png)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)

	url := data(body)["profile_picture_url"].(string)
	assert.True(t, strings.HasPrefix(url, "/storage/profile-pictures/"+strconv.FormatUint(uint64(id), 10)+"/"), url)
	assert.True(t, strings.HasSuffix(url, ".png"), url)

	stored, err := os.ReadFile(filepath.Join(env.storage, filepath.FromSlash(strings.TrimPrefix(url, "/storage/"))))
	require.NoError(t, err)
	assert.Equal(t, png, stored)

	resp, body = env.do(t, http.MethodGet, "/api/profile", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, url, data(body)["profile_picture_url"])

	// Served back by the static handler.
	resp, _ = env.send(t, httptest.NewRequest(http.MethodGet, url, nil))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestUploadPictureRejects(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.register(t, "badpic@example.com")

	resp, body := env.upload(t, "/api/profile/picture", token, "notes.txt", "text/plain", []byte("hello"))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Please select an image file", body["message"])

	big := bytes.Repeat([]byte{0}, 5<<20+1)
	resp, body = env.upload(t, "/api/profile/picture", token, "big.jpg", "image/jpeg", big)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Image size should be less than 5MB", body["message"])
}
