package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pageza/nutrisnap/backend/internal/logger"
	"github.com/pageza/nutrisnap/backend/internal/models"
	"github.com/pageza/nutrisnap/backend/internal/types"
)

var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrNoAPIKey        = errors.New("no API key stored for user")
	ErrAvatarStorage   = errors.New("avatar storage is not configured")
)

// ProfileService handles user profile operations
type ProfileService struct {
	db      *gorm.DB
	sealer  *Sealer
	avatars AvatarStore
	log     *logger.Logger
}

// Ensure ProfileService implements IProfileService
var _ IProfileService = (*ProfileService)(nil)

// NewProfileService creates a new ProfileService instance. avatars may be nil
// when no bucket is configured.
func NewProfileService(db *gorm.DB, sealer *Sealer, avatars AvatarStore, log *logger.Logger) *ProfileService {
	if log == nil {
		log = logger.NewNop()
	}
	return &ProfileService{db: db, sealer: sealer, avatars: avatars, log: log}
}

// GetProfile retrieves a user's profile
func (s *ProfileService) GetProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	var profile models.Profile
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	return &profile, nil
}

// UpdateProfile replaces the profile fields and records every change.
func (s *ProfileService) UpdateProfile(ctx context.Context, userID uuid.UUID, req *types.UpdateProfileRequest) (*models.Profile, error) {
	profile, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	before := *profile

	profile.Name = strings.TrimSpace(req.Name)
	profile.Age = req.Age
	profile.Weight = req.Weight
	profile.Height = req.Height
	profile.DietaryRestrictions = strings.TrimSpace(req.DietaryRestrictions)
	profile.ActivityLevel = req.ActivityLevel

	switch {
	case req.ClearAPIKey:
		profile.SealedAPIKey = nil
	case strings.TrimSpace(req.APIKey) != "":
		sealed, err := s.sealer.Seal([]byte(strings.TrimSpace(req.APIKey)))
		if err != nil {
			return nil, err
		}
		profile.SealedAPIKey = sealed
	}

	changes := profileChanges(userID, &before, profile)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(profile).Error; err != nil {
			return err
		}
		if len(changes) > 0 {
			return tx.Create(&changes).Error
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return profile, nil
}

// UploadAvatar stores the picture under avatars/<userID>/<uuid><ext> and
// points the profile at it.
func (s *ProfileService) UploadAvatar(ctx context.Context, userID uuid.UUID, filename, contentType string, body io.Reader, size int64) (*models.Profile, error) {
	if s.avatars == nil {
		return nil, ErrAvatarStorage
	}
	profile, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("avatars/%s/%s%s", userID, uuid.NewString(), strings.ToLower(filepath.Ext(filename)))
	if err := s.avatars.Put(ctx, key, contentType, body, size); err != nil {
		return nil, err
	}

	change := models.ProfileHistory{UserID: userID.String(), Field: "avatar", OldValue: profile.AvatarKey, NewValue: key, ChangedAt: time.Now()}
	profile.AvatarKey = key
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(profile).Update("avatar_key", key).Error; err != nil {
			return err
		}
		return tx.Create(&change).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save avatar: %w", err)
	}
	return profile, nil
}

// AvatarURL returns a temporary URL for the avatar, or "" when there is none
// or it cannot be signed.
func (s *ProfileService) AvatarURL(ctx context.Context, profile *models.Profile) string {
	if s.avatars == nil || profile == nil || profile.AvatarKey == "" {
		return ""
	}
	url, err := s.avatars.URL(ctx, profile.AvatarKey)
	if err != nil {
		s.log.Warn("failed to sign avatar URL", "key", profile.AvatarKey, "error", err)
		return ""
	}
	return url
}

// APIKey opens the user's stored model API key.
func (s *ProfileService) APIKey(ctx context.Context, userID uuid.UUID) (string, error) {
	profile, err := s.GetProfile(ctx, userID)
	if err != nil {
		return "", err
	}
	if !profile.HasAPIKey() {
		return "", ErrNoAPIKey
	}
	key, err := s.sealer.Open(profile.SealedAPIKey)
	if err != nil {
		return "", fmt.Errorf("failed to open stored API key: %w", err)
	}
	return string(key), nil
}

// GetProfileHistory lists profile changes, newest first.
func (s *ProfileService) GetProfileHistory(ctx context.Context, userID uuid.UUID) ([]models.ProfileHistory, error) {
	var history []models.ProfileHistory
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID.String()).
		Order("changed_at DESC, id DESC").
		Find(&history).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load profile history: %w", err)
	}
	return history, nil
}

// profileChanges diffs two profiles. API key values are never recorded.
func profileChanges(userID uuid.UUID, before, after *models.Profile) []models.ProfileHistory {
	now := time.Now()
	var changes []models.ProfileHistory
	record := func(field, oldValue, newValue string) {
		if oldValue != newValue {
			changes = append(changes, models.ProfileHistory{
				UserID:    userID.String(),
				Field:     field,
				OldValue:  oldValue,
				NewValue:  newValue,
				ChangedAt: now,
			})
		}
	}

	record("name", before.Name, after.Name)
	record("age", intString(before.Age), intString(after.Age))
	record("weight", floatString(before.Weight), floatString(after.Weight))
	record("height", floatString(before.Height), floatString(after.Height))
	record("dietary_restrictions", before.DietaryRestrictions, after.DietaryRestrictions)
	record("activity_level", before.ActivityLevel, after.ActivityLevel)
	if !bytes.Equal(before.SealedAPIKey, after.SealedAPIKey) {
		// A replaced key reads "set" -> "set".
		changes = append(changes, models.ProfileHistory{
			UserID:    userID.String(),
			Field:     "api_key",
			OldValue:  keyState(before),
			NewValue:  keyState(after),
			ChangedAt: now,
		})
	}
	return changes
}

func keyState(p *models.Profile) string {
	if p.HasAPIKey() {
		return "set"
	}
	return "unset"
}

func intString(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func floatString(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
