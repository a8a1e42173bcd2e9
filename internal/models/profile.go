package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Profile stores what the AI flows know about a user. SealedAPIKey holds the
// user's model API key encrypted at rest; it is never serialized.
type Profile struct {
	ID                  uuid.UUID      `gorm:"type:varchar(36);primarykey" json:"id"`
	UserID              uuid.UUID      `gorm:"type:varchar(36);not null;uniqueIndex" json:"user_id"`
	Name                string         `gorm:"size:100" json:"name"`
	Age                 *int           `json:"age,omitempty"`
	Weight              *float64       `json:"weight,omitempty"`
	Height              *float64       `json:"height,omitempty"`
	DietaryRestrictions string         `gorm:"type:text" json:"dietary_restrictions"`
	ActivityLevel       string         `gorm:"size:20" json:"activity_level"`
	AvatarKey           string         `gorm:"size:255" json:"-"`
	SealedAPIKey        []byte         `json:"-"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
	DeletedAt           gorm.DeletedAt `gorm:"index" json:"-"`
}

func (p *Profile) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// HasAPIKey reports whether a sealed key is stored.
func (p *Profile) HasAPIKey() bool {
	return len(p.SealedAPIKey) > 0
}
