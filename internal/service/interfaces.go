package service

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/pageza/nutrisnap/backend/internal/flow"
	"github.com/pageza/nutrisnap/backend/internal/models"
	"github.com/pageza/nutrisnap/backend/internal/types"
)

// IAuthService defines the interface for authentication operations
type IAuthService interface {
	Register(ctx context.Context, email, password string) (*models.User, error)
	Login(ctx context.Context, email, password string) (*models.User, error)
	GenerateToken(user *models.User) (string, time.Time, error)
	ValidateToken(ctx context.Context, token string) (*types.TokenClaims, error)
	Logout(ctx context.Context, claims *types.TokenClaims) error
	GetUserByID(ctx context.Context, userID uuid.UUID) (*models.User, error)
}

// IProfileService defines the interface for user profile operations
type IProfileService interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, req *types.UpdateProfileRequest) (*models.Profile, error)
	UploadAvatar(ctx context.Context, userID uuid.UUID, filename, contentType string, body io.Reader, size int64) (*models.Profile, error)
	AvatarURL(ctx context.Context, profile *models.Profile) string
	APIKey(ctx context.Context, userID uuid.UUID) (string, error)
	GetProfileHistory(ctx context.Context, userID uuid.UUID) ([]models.ProfileHistory, error)
}

// FlowProfile converts a stored profile into what the AI flows consume.
func FlowProfile(p *models.Profile) *flow.UserProfile {
	if p == nil {
		return nil
	}
	return &flow.UserProfile{
		Name:                p.Name,
		Age:                 p.Age,
		Weight:              p.Weight,
		Height:              p.Height,
		DietaryRestrictions: p.DietaryRestrictions,
		ActivityLevel:       flow.ActivityLevel(p.ActivityLevel),
	}
}
