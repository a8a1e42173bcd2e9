package flow

// ActivityLevel is the self-reported activity level of a user.
type ActivityLevel string

const (
	ActivitySedentary  ActivityLevel = "sedentary"
	ActivityLight      ActivityLevel = "light"
	ActivityModerate   ActivityLevel = "moderate"
	ActivityActive     ActivityLevel = "active"
	ActivityVeryActive ActivityLevel = "very_active"
)

// UserProfile is optional personalization data. Pointer fields are nil when
// the user left them blank.
type UserProfile struct {
	Name                string        `json:"name,omitempty"`
	Age                 *int          `json:"age,omitempty" validate:"omitempty,min=1,max=120"`
	Weight              *float64      `json:"weight,omitempty" validate:"omitempty,gte=1,lte=500"`
	Height              *float64      `json:"height,omitempty" validate:"omitempty,gte=50,lte=300"`
	DietaryRestrictions string        `json:"dietaryRestrictions,omitempty"`
	ActivityLevel       ActivityLevel `json:"activityLevel,omitempty" validate:"omitempty,oneof=sedentary light moderate active very_active"`
}

// IsEmpty reports whether no profile field is set.
func (p *UserProfile) IsEmpty() bool {
	if p == nil {
		return true
	}
	return p.Name == "" && p.Age == nil && p.Weight == nil && p.Height == nil &&
		p.DietaryRestrictions == "" && p.ActivityLevel == ""
}

// promptProfile returns the profile to embed in a prompt, or nil when there is
// nothing worth rendering.
func promptProfile(p *UserProfile) *UserProfile {
	if p.IsEmpty() {
		return nil
	}
	return p
}
