package api

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/pageza/nutrisnap/backend/internal/models"
	"github.com/pageza/nutrisnap/backend/internal/service"
	"github.com/pageza/nutrisnap/backend/internal/types"
)

func TestAuthHandler_Register(t *testing.T) {
	t.Run("should create the account and return a token", func(t *testing.T) {
		env := newTestEnv(t)
		user := &models.User{ID: env.userID, Email: "ana@example.com"}
		expires := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
		env.auth.On("Register", mock.Anything, "ana@example.com", "secret1").Return(user, nil)
		env.auth.On("GenerateToken", user).Return("signed-token", expires, nil)

		w := env.do(http.MethodPost, "/api/v1/auth/register", types.RegisterRequest{
			Email: "ana@example.com", Password: "secret1", ConfirmPassword: "secret1",
		}, nil)

		assert.Equal(t, http.StatusCreated, w.Code)
		var resp types.AuthResponse
		decodeBody(t, w, &resp)
		assert.Equal(t, "signed-token", resp.Token)
		assert.True(t, expires.Equal(resp.ExpiresAt))
		assert.Equal(t, env.userID, resp.User.ID)
	})

	t.Run("should answer 409 for a taken email", func(t *testing.T) {
		env := newTestEnv(t)
		env.auth.On("Register", mock.Anything, "ana@example.com", "secret1").Return(nil, service.ErrUserExists)

		w := env.do(http.MethodPost, "/api/v1/auth/register", types.RegisterRequest{
			Email: "ana@example.com", Password: "secret1", ConfirmPassword: "secret1",
		}, nil)

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "user_exists", decodeError(t, w).Code)
	})

	t.Run("should reject a mismatched confirmation", func(t *testing.T) {
		env := newTestEnv(t)

		w := env.do(http.MethodPost, "/api/v1/auth/register", types.RegisterRequest{
			Email: "ana@example.com", Password: "secret1", ConfirmPassword: "secret2",
		}, nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "invalid_request", decodeError(t, w).Code)
	})
}

func TestAuthHandler_Login(t *testing.T) {
	t.Run("should answer 401 for bad credentials", func(t *testing.T) {
		env := newTestEnv(t)
		env.auth.On("Login", mock.Anything, "ana@example.com", "wrong").Return(nil, service.ErrInvalidCredentials)

		w := env.do(http.MethodPost, "/api/v1/auth/login", types.LoginRequest{Email: "ana@example.com", Password: "wrong"}, nil)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "invalid_credentials", decodeError(t, w).Code)
	})

	t.Run("should return a token", func(t *testing.T) {
		env := newTestEnv(t)
		user := &models.User{ID: env.userID, Email: "ana@example.com"}
		env.auth.On("Login", mock.Anything, "ana@example.com", "secret1").Return(user, nil)
		env.auth.On("GenerateToken", user).Return("signed-token", time.Now().Add(time.Hour), nil)

		w := env.do(http.MethodPost, "/api/v1/auth/login", types.LoginRequest{Email: "ana@example.com", Password: "secret1"}, nil)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "signed-token")
	})
}

func TestAuthHandler_Logout(t *testing.T) {
	t.Run("should revoke the caller's token", func(t *testing.T) {
		env := newTestEnv(t)
		env.auth.On("Logout", mock.Anything, env.claims).Return(nil)

		w := env.do(http.MethodPost, "/api/v1/auth/logout", nil, authHeader())

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("should require a token", func(t *testing.T) {
		env := newTestEnv(t)

		w := env.do(http.MethodPost, "/api/v1/auth/logout", nil, nil)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
