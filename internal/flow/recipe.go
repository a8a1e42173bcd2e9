package flow

import (
	"context"
	"strings"
)

// RecipeFromPhotoInput is the input of GenerateRecipeFromPhoto.
type RecipeFromPhotoInput struct {
	PhotoDataURI string       `json:"photoDataUri" validate:"required,datauri"`
	Profile      *UserProfile `json:"userProfile,omitempty"`
}

// PhotoRecipe is the output of GenerateRecipeFromPhoto.
type PhotoRecipe struct {
	RecipeName              string   `json:"recipeName"`
	Ingredients             []string `json:"ingredients"`
	Instructions            []string `json:"instructions"`
	CalorieEstimate         *Number  `json:"calorieEstimate,omitempty"`
	SubstitutionSuggestions []string `json:"substitutionSuggestions,omitempty"`
	Generated               bool     `json:"generated"`
}

// GenerateRecipeFromPhoto creates a recipe from the ingredients visible in a photo.
func (s *Service) GenerateRecipeFromPhoto(ctx context.Context, cfg Config, in RecipeFromPhotoInput) (*PhotoRecipe, error) {
	raw, err := s.generate(ctx, cfg, structuredCall{
		name:   "generateRecipeFromPhoto",
		input:  in,
		prompt: photoRecipePrompt,
		data:   struct{ Profile *UserProfile }{promptProfile(in.Profile)},
		image:  in.PhotoDataURI,
		schema: photoRecipeSchema,
	})
	if err != nil {
		return nil, err
	}

	var out PhotoRecipe
	ok := s.decode("generateRecipeFromPhoto", raw, &out)
	name := strings.TrimSpace(out.RecipeName)
	recipe := &PhotoRecipe{
		RecipeName:              name,
		Ingredients:             nonBlank(out.Ingredients, fallbackIngredients),
		Instructions:            nonBlank(out.Instructions, fallbackInstructions),
		CalorieEstimate:         out.CalorieEstimate,
		SubstitutionSuggestions: nonBlank(out.SubstitutionSuggestions),
		Generated:               ok && name != "",
	}
	if !recipe.Generated {
		recipe.RecipeName = fallbackRecipeName
	}
	return recipe, nil
}

// PersonalizedRecipeInput is the input of GeneratePersonalizedRecipe.
type PersonalizedRecipeInput struct {
	Ingredients         string       `json:"ingredients" validate:"required,min=3"`
	DietaryRestrictions string       `json:"dietaryRestrictions,omitempty"`
	UserPreferences     string       `json:"userPreferences,omitempty"`
	Profile             *UserProfile `json:"userProfile,omitempty"`
}

// PersonalizedRecipe is the output of GeneratePersonalizedRecipe.
type PersonalizedRecipe struct {
	RecipeName              string   `json:"recipeName"`
	Ingredients             []string `json:"ingredients"`
	Instructions            []string `json:"instructions"`
	CalorieEstimate         Text     `json:"calorieEstimate"`
	SubstitutionSuggestions []string `json:"substitutionSuggestions"`
	Generated               bool     `json:"generated"`
}

// GeneratePersonalizedRecipe creates a recipe from a typed ingredient list,
// tailored to the user's restrictions, preferences and profile.
func (s *Service) GeneratePersonalizedRecipe(ctx context.Context, cfg Config, in PersonalizedRecipeInput) (*PersonalizedRecipe, error) {
	raw, err := s.generate(ctx, cfg, structuredCall{
		name:   "generatePersonalizedRecipe",
		input:  in,
		prompt: personalizedRecipePrompt,
		data: struct {
			Ingredients         string
			DietaryRestrictions string
			UserPreferences     string
			Profile             *UserProfile
		}{in.Ingredients, in.DietaryRestrictions, in.UserPreferences, promptProfile(in.Profile)},
		schema: personalizedRecipeSchema,
	})
	if err != nil {
		return nil, err
	}

	var out PersonalizedRecipe
	ok := s.decode("generatePersonalizedRecipe", raw, &out)
	name := strings.TrimSpace(out.RecipeName)
	if !ok || name == "" {
		return &PersonalizedRecipe{
			RecipeName:              fallbackPersonalizedName,
			Ingredients:             []string{fallbackIngredients},
			Instructions:            []string{fallbackInstructions},
			CalorieEstimate:         NotAvailable,
			SubstitutionSuggestions: []string{},
		}, nil
	}
	return &PersonalizedRecipe{
		RecipeName:              name,
		Ingredients:             nonBlank(out.Ingredients, fallbackIngredients),
		Instructions:            nonBlank(out.Instructions, fallbackInstructions),
		CalorieEstimate:         Text(orDefault(string(out.CalorieEstimate), NotAvailable)),
		SubstitutionSuggestions: nonBlank(out.SubstitutionSuggestions),
		Generated:               true,
	}, nil
}
