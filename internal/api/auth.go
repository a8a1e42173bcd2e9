package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pageza/nutrisnap/backend/internal/logger"
	"github.com/pageza/nutrisnap/backend/internal/middleware"
	"github.com/pageza/nutrisnap/backend/internal/models"
	"github.com/pageza/nutrisnap/backend/internal/service"
	"github.com/pageza/nutrisnap/backend/internal/types"
)

// AuthHandler handles account requests
type AuthHandler struct {
	authService service.IAuthService
	log         *logger.Logger
}

func NewAuthHandler(authService service.IAuthService, log *logger.Logger) *AuthHandler {
	return &AuthHandler{authService: authService, log: log}
}

// RegisterRoutes mounts /auth. requireAuth guards logout.
func (h *AuthHandler) RegisterRoutes(router *gin.RouterGroup, requireAuth gin.HandlerFunc) {
	auth := router.Group("/auth")
	{
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
		auth.POST("/logout", requireAuth, h.Logout)
	}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req types.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	user, err := h.authService.Register(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrUserExists) {
			RespondError(c, http.StatusConflict, "user_exists", err)
			return
		}
		h.log.Error("failed to register user", "error", err)
		RespondError(c, http.StatusInternalServerError, "internal_error", errors.New("failed to register user"))
		return
	}

	h.respondWithToken(c, http.StatusCreated, user)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req types.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	user, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			RespondError(c, http.StatusUnauthorized, "invalid_credentials", err)
			return
		}
		h.log.Error("failed to log in", "error", err)
		RespondError(c, http.StatusInternalServerError, "internal_error", errors.New("failed to log in"))
		return
	}

	h.respondWithToken(c, http.StatusOK, user)
}

// Logout revokes the caller's token.
func (h *AuthHandler) Logout(c *gin.Context) {
	claims, ok := middleware.Claims(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, "unauthorized", errors.New("unauthorized"))
		return
	}
	if err := h.authService.Logout(c.Request.Context(), claims); err != nil {
		h.log.Error("failed to revoke token", "user_id", claims.UserID.String(), "error", err)
		RespondError(c, http.StatusInternalServerError, "internal_error", errors.New("failed to logout"))
		return
	}
	RespondOK(c, gin.H{"message": "logged out successfully"})
}

func (h *AuthHandler) respondWithToken(c *gin.Context, status int, user *models.User) {
	token, expiresAt, err := h.authService.GenerateToken(user)
	if err != nil {
		h.log.Error("failed to generate token", "user_id", user.ID.String(), "error", err)
		RespondError(c, http.StatusInternalServerError, "internal_error", errors.New("failed to generate token"))
		return
	}
	c.JSON(status, types.AuthResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User: types.UserResponse{
			ID:        user.ID,
			Email:     user.Email,
			CreatedAt: user.CreatedAt,
		},
	})
}
