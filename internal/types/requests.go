package types

import (
	"time"

	"github.com/google/uuid"
)

// RegisterRequest represents the request body for creating an account
type RegisterRequest struct {
	Email           string `json:"email" binding:"required,email"`
	Password        string `json:"password" binding:"required,min=6"`
	ConfirmPassword string `json:"confirmPassword" binding:"required,eqfield=Password"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// UserResponse is the public view of an account
type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

type AuthResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      UserResponse `json:"user"`
}

// UpdateProfileRequest replaces the profile fields. An empty APIKey keeps the
// stored key; ClearAPIKey removes it.
type UpdateProfileRequest struct {
	Name                string   `json:"name" binding:"max=100"`
	Age                 *int     `json:"age" binding:"omitempty,min=1,max=120"`
	Weight              *float64 `json:"weight" binding:"omitempty,gte=1,lte=500"`
	Height              *float64 `json:"height" binding:"omitempty,gte=50,lte=300"`
	DietaryRestrictions string   `json:"dietaryRestrictions" binding:"max=1000"`
	ActivityLevel       string   `json:"activityLevel" binding:"omitempty,oneof=sedentary light moderate active very_active"`
	APIKey              string   `json:"apiKey"`
	ClearAPIKey         bool     `json:"clearApiKey"`
}

// ProfileResponse never carries the API key itself
type ProfileResponse struct {
	Name                string    `json:"name,omitempty"`
	Age                 *int      `json:"age,omitempty"`
	Weight              *float64  `json:"weight,omitempty"`
	Height              *float64  `json:"height,omitempty"`
	DietaryRestrictions string    `json:"dietaryRestrictions,omitempty"`
	ActivityLevel       string    `json:"activityLevel,omitempty"`
	AvatarURL           string    `json:"avatarUrl,omitempty"`
	HasAPIKey           bool      `json:"hasApiKey"`
	UpdatedAt           time.Time `json:"updatedAt"`
}

// PhotoRequest is the body of the photo based AI endpoints
type PhotoRequest struct {
	PhotoDataURI string `json:"photoDataUri" binding:"required"`
}

type PersonalizedRecipeRequest struct {
	Ingredients         string `json:"ingredients" binding:"required"`
	DietaryRestrictions string `json:"dietaryRestrictions"`
	UserPreferences     string `json:"userPreferences"`
}

type MealPlanRequest struct {
	ShoppingList               string `json:"shoppingList" binding:"required"`
	NumberOfDays               int    `json:"numberOfDays"`
	IncludeShoppingSuggestions bool   `json:"includeShoppingSuggestions"`
	IncludeBreakfast           *bool  `json:"includeBreakfast"`
	IncludeLunch               *bool  `json:"includeLunch"`
	IncludeAfternoonSnack      *bool  `json:"includeAfternoonSnack"`
	IncludeDinner              *bool  `json:"includeDinner"`
}

type ChatRequest struct {
	UserMessage string `json:"userMessage"`
}

// ProfileChange is one entry of the profile history
type ProfileChange struct {
	Field     string    `json:"field"`
	OldValue  string    `json:"oldValue"`
	NewValue  string    `json:"newValue"`
	ChangedAt time.Time `json:"changedAt"`
}
