package api

import (
	"bytes"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/pageza/nutrisnap/backend/internal/models"
	"github.com/pageza/nutrisnap/backend/internal/service"
	"github.com/pageza/nutrisnap/backend/internal/types"
)

func TestProfileHandler_GetProfile(t *testing.T) {
	t.Run("should never echo the API key", func(t *testing.T) {
		env := newTestEnv(t)
		age := 34
		profile := &models.Profile{UserID: env.userID, Name: "Ana", Age: &age, AvatarKey: "avatars/x.png", SealedAPIKey: []byte("sealed")}
		env.profiles.On("GetProfile", mock.Anything, env.userID).Return(profile, nil)
		env.profiles.On("AvatarURL", mock.Anything, profile).Return("https://cdn/avatars/x.png")

		w := env.do(http.MethodGet, "/api/v1/profile", nil, authHeader())

		require.Equal(t, http.StatusOK, w.Code)
		var resp types.ProfileResponse
		decodeBody(t, w, &resp)
		assert.Equal(t, "Ana", resp.Name)
		assert.Equal(t, 34, *resp.Age)
		assert.True(t, resp.HasAPIKey)
		assert.Equal(t, "https://cdn/avatars/x.png", resp.AvatarURL)
		assert.NotContains(t, w.Body.String(), "sealed")
	})

	t.Run("should answer 404 without a profile", func(t *testing.T) {
		env := newTestEnv(t)
		env.profiles.On("GetProfile", mock.Anything, env.userID).Return(nil, service.ErrProfileNotFound)

		w := env.do(http.MethodGet, "/api/v1/profile", nil, authHeader())

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "profile_not_found", decodeError(t, w).Code)
	})

	t.Run("should require authentication", func(t *testing.T) {
		env := newTestEnv(t)

		w := env.do(http.MethodGet, "/api/v1/profile", nil, nil)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestProfileHandler_UpdateProfile(t *testing.T) {
	t.Run("should pass the request to the service", func(t *testing.T) {
		env := newTestEnv(t)
		weight := 72.5
		req := types.UpdateProfileRequest{Name: "Ana", Weight: &weight, ActivityLevel: "light", APIKey: "AIza-key"}
		updated := &models.Profile{UserID: env.userID, Name: "Ana", Weight: &weight, ActivityLevel: "light", SealedAPIKey: []byte("x")}
		env.profiles.On("UpdateProfile", mock.Anything, env.userID, &req).Return(updated, nil)
		env.profiles.On("AvatarURL", mock.Anything, updated).Return("")

		w := env.do(http.MethodPut, "/api/v1/profile", req, authHeader())

		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"name":"Ana","weight":72.5,"activityLevel":"light","hasApiKey":true,"updatedAt":"0001-01-01T00:00:00Z"}`, w.Body.String())
	})

	t.Run("should reject out of range values", func(t *testing.T) {
		env := newTestEnv(t)

		w := env.do(http.MethodPut, "/api/v1/profile", map[string]any{"age": 200}, authHeader())

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "invalid_request", decodeError(t, w).Code)
	})

	t.Run("should reject unknown activity levels", func(t *testing.T) {
		env := newTestEnv(t)

		w := env.do(http.MethodPut, "/api/v1/profile", map[string]any{"activityLevel": "extreme"}, authHeader())

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func avatarRequest(t *testing.T, contentType string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreatePart(textproto.MIMEHeader{
		"Content-Disposition": {`form-data; name="avatar"; filename="me.png"`},
		"Content-Type":        {contentType},
	})
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPut, "/api/v1/profile/avatar", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+testToken)
	return req
}

func TestProfileHandler_UploadAvatar(t *testing.T) {
	t.Run("should upload an image", func(t *testing.T) {
		env := newTestEnv(t)
		profile := &models.Profile{UserID: env.userID, AvatarKey: "avatars/k.png"}
		env.profiles.On("UploadAvatar", mock.Anything, env.userID, "me.png", "image/png", []byte("png-bytes"), int64(9)).Return(profile, nil)
		env.profiles.On("AvatarURL", mock.Anything, profile).Return("https://cdn/avatars/k.png")

		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, avatarRequest(t, "image/png", []byte("png-bytes")))

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Contains(t, w.Body.String(), "https://cdn/avatars/k.png")
	})

	t.Run("should reject non images", func(t *testing.T) {
		env := newTestEnv(t)

		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, avatarRequest(t, "application/pdf", []byte("%PDF")))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "invalid_avatar", decodeError(t, w).Code)
	})

	t.Run("should reject files over the limit", func(t *testing.T) {
		env := newTestEnv(t)

		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, avatarRequest(t, "image/png", bytes.Repeat([]byte{0}, MaxAvatarSize+1)))

		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	})

	t.Run("should answer 503 without storage", func(t *testing.T) {
		env := newTestEnv(t)
		env.profiles.On("UploadAvatar", mock.Anything, env.userID, "me.png", "image/png", []byte("x"), int64(1)).Return(nil, service.ErrAvatarStorage)

		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, avatarRequest(t, "image/png", []byte("x")))

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}

func TestProfileHandler_GetProfileHistory(t *testing.T) {
	t.Run("should list changes", func(t *testing.T) {
		env := newTestEnv(t)
		at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
		env.profiles.On("GetProfileHistory", mock.Anything, env.userID).Return([]models.ProfileHistory{
			{Field: "name", OldValue: "", NewValue: "Ana", ChangedAt: at},
		}, nil)

		w := env.do(http.MethodGet, "/api/v1/profile/history", nil, authHeader())

		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `[{"field":"name","oldValue":"","newValue":"Ana","changedAt":"2026-01-02T03:04:05Z"}]`, w.Body.String())
	})

	t.Run("should hide internal errors", func(t *testing.T) {
		env := newTestEnv(t)
		env.profiles.On("GetProfileHistory", mock.Anything, env.userID).Return(nil, errors.New("db: connection refused"))

		w := env.do(http.MethodGet, "/api/v1/profile/history", nil, authHeader())

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "failed to get profile history", decodeError(t, w).Message)
	})
}
