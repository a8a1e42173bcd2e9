package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pageza/nutrisnap/backend/internal/logger"
	"github.com/pageza/nutrisnap/backend/internal/middleware"
	"github.com/pageza/nutrisnap/backend/internal/models"
	"github.com/pageza/nutrisnap/backend/internal/service"
	"github.com/pageza/nutrisnap/backend/internal/types"
)

// MaxAvatarSize is the largest accepted avatar upload.
const MaxAvatarSize = 5 << 20

type ProfileHandler struct {
	profileService service.IProfileService
	log            *logger.Logger
}

func NewProfileHandler(profileService service.IProfileService, log *logger.Logger) *ProfileHandler {
	return &ProfileHandler{profileService: profileService, log: log}
}

func (h *ProfileHandler) RegisterRoutes(router *gin.RouterGroup, requireAuth gin.HandlerFunc) {
	profile := router.Group("/profile")
	profile.Use(requireAuth)
	{
		profile.GET("", h.GetProfile)
		profile.PUT("", h.UpdateProfile)
		profile.PUT("/avatar", h.UploadAvatar)
		profile.GET("/history", h.GetProfileHistory)
	}
}

func (h *ProfileHandler) GetProfile(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	profile, err := h.profileService.GetProfile(c.Request.Context(), userID)
	if err != nil {
		h.respondProfileError(c, err, "failed to get profile")
		return
	}
	RespondOK(c, h.toResponse(c.Request.Context(), profile))
}

func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req types.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	profile, err := h.profileService.UpdateProfile(c.Request.Context(), userID, &req)
	if err != nil {
		h.respondProfileError(c, err, "failed to update profile")
		return
	}
	RespondOK(c, h.toResponse(c.Request.Context(), profile))
}

// UploadAvatar accepts a multipart "avatar" image of at most MaxAvatarSize.
func (h *ProfileHandler) UploadAvatar(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxAvatarSize+1<<20)
	header, err := c.FormFile("avatar")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_avatar", errors.New("avatar file is required"))
		return
	}
	if header.Size > MaxAvatarSize {
		RespondError(c, http.StatusRequestEntityTooLarge, "avatar_too_large", fmt.Errorf("avatar must be at most %d MB", MaxAvatarSize>>20))
		return
	}
	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		RespondError(c, http.StatusBadRequest, "invalid_avatar", errors.New("avatar must be an image"))
		return
	}

	file, err := header.Open()
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_avatar", err)
		return
	}
	defer file.Close()

	profile, err := h.profileService.UploadAvatar(c.Request.Context(), userID, header.Filename, contentType, file, header.Size)
	if err != nil {
		h.respondProfileError(c, err, "failed to upload avatar")
		return
	}
	RespondOK(c, h.toResponse(c.Request.Context(), profile))
}

func (h *ProfileHandler) GetProfileHistory(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	history, err := h.profileService.GetProfileHistory(c.Request.Context(), userID)
	if err != nil {
		h.respondProfileError(c, err, "failed to get profile history")
		return
	}
	changes := make([]types.ProfileChange, 0, len(history))
	for _, entry := range history {
		changes = append(changes, types.ProfileChange{
			Field:     entry.Field,
			OldValue:  entry.OldValue,
			NewValue:  entry.NewValue,
			ChangedAt: entry.ChangedAt,
		})
	}
	RespondOK(c, changes)
}

func (h *ProfileHandler) respondProfileError(c *gin.Context, err error, message string) {
	switch {
	case errors.Is(err, service.ErrProfileNotFound):
		RespondError(c, http.StatusNotFound, "profile_not_found", err)
	case errors.Is(err, service.ErrAvatarStorage):
		RespondError(c, http.StatusServiceUnavailable, "avatar_storage_unavailable", err)
	default:
		h.log.Error(message, "error", err)
		RespondError(c, http.StatusInternalServerError, "internal_error", errors.New(message))
	}
}

func (h *ProfileHandler) toResponse(ctx context.Context, p *models.Profile) types.ProfileResponse {
	return types.ProfileResponse{
		Name:                p.Name,
		Age:                 p.Age,
		Weight:              p.Weight,
		Height:              p.Height,
		DietaryRestrictions: p.DietaryRestrictions,
		ActivityLevel:       p.ActivityLevel,
		AvatarURL:           h.profileService.AvatarURL(ctx, p),
		HasAPIKey:           p.HasAPIKey(),
		UpdatedAt:           p.UpdatedAt,
	}
}

// requireUser reads the caller set by the auth middleware.
func requireUser(c *gin.Context) (uuid.UUID, bool) {
	userID, ok := middleware.UserID(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, "unauthorized", errors.New("unauthorized"))
	}
	return userID, ok
}
