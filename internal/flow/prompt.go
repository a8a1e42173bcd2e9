package flow

import (
	"fmt"
	"strings"
	"text/template"
)

const profileBlock = `{{define "profile"}}{{with .}}User profile to take into account:
{{- with .Name}}
  Name: {{.}}{{end}}
{{- with .Age}}
  Age: {{.}}{{end}}
{{- with .Weight}}
  Weight: {{.}} kg{{end}}
{{- with .Height}}
  Height: {{.}} cm{{end}}
{{- with .DietaryRestrictions}}
  General dietary restrictions: {{.}}{{end}}
{{- with .ActivityLevel}}
  Activity level: {{.}}{{end}}
{{else}}No user profile was provided.{{end}}{{end}}`

const languageRule = "IMPORTANT: write every name, ingredient, instruction, note and suggestion in Brazilian Portuguese."

var (
	nutritionPrompt = mustPrompt("nutrition", `You are a nutrition expert. Analyze the nutritional content of the meal in the attached photo and give a complete breakdown.

Provide:
- Estimated calorie count
- Macronutrient breakdown (protein, carbohydrates, fat) in grams
- Micronutrients with their estimated amounts and units
- Ingredients detected in the meal

`+languageRule)

	classifyPrompt = mustPrompt("classify", `You are an expert in classifying food images. Analyze the attached image and identify the main food item or items present.
For each identified item give a label in Brazilian Portuguese and an estimated confidence score between 0.0 and 1.0.
If you identify several items, list all of them. Aim for accuracy in both labeling and confidence.`)

	photoRecipePrompt = mustPrompt("photo-recipe", `You are a recipe generation assistant. Use the ingredients shown in the attached photo to create a recipe.

{{template "profile" .Profile}}

Based on those ingredients, produce a recipe with its name, ingredients, instructions, a calorie estimate and substitution suggestions, respecting any dietary restrictions above.
Format ingredients and instructions as lists.
`+languageRule)

	personalizedRecipePrompt = mustPrompt("personalized-recipe", `You are a recipe generation assistant. Your goal is to create personalized recipes.

{{template "profile" .Profile}}

Ingredients available for this recipe: {{.Ingredients}}
{{- with .DietaryRestrictions}}
Dietary restrictions specific to this recipe: {{.}}{{end}}
{{- with .UserPreferences}}
User preferences for this recipe: {{.}}{{end}}

Create a recipe that uses the provided ingredients and suits the user profile, including its general dietary restrictions.
Include a calorie estimate as text and substitution suggestions based on the dietary restrictions.
`+languageRule)

	mealPlanPrompt = mustPrompt("meal-plan", `You are an expert meal planner and nutritionist.
Create a DETAILED meal plan for {{.NumberOfDays}} day(s) using ONLY the items from the shopping list below.
You must plan EVERY requested meal for EACH of the {{.NumberOfDays}} days.

Requested meals for each day:
{{- if .IncludeBreakfast}}
- breakfast{{end}}
{{- if .IncludeLunch}}
- lunch{{end}}
{{- if .IncludeAfternoonSnack}}
- afternoonSnack{{end}}
{{- if .IncludeDinner}}
- dinner{{end}}

For every requested meal of every day provide a recipeName, the ingredients used from the shopping list, clear step-by-step instructions and optional notes.
If no item on the list suits a requested meal, still include the meal and say so clearly in its recipeName, ingredients and instructions.
Omit any meal that was not requested.

Shopping list:
{{.ShoppingList}}

{{template "profile" .Profile}}
{{if .IncludeShoppingSuggestions}}
Also provide a short list of shoppingSuggestions: items not on the list that would complement these meals.
{{end}}
Try to use every item on the shopping list across the {{.NumberOfDays}} day(s). If there is not enough for every day, say so in the notes of the last days.
`+languageRule)

	chatSystemPrompt = mustPrompt("chat-system", `You are a friendly nutrition assistant. Answer in Brazilian Portuguese unless the user writes in another language.
{{template "profile" .}}`)
)

func mustPrompt(name, text string) *template.Template {
	t := template.Must(template.New(name).Parse(profileBlock))
	return template.Must(t.Parse(text))
}

func render(t *template.Template, data any) (string, error) {
	var sb strings.Builder
	if err := t.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("failed to render %s prompt: %w", t.Name(), err)
	}
	return strings.TrimSpace(sb.String()), nil
}
