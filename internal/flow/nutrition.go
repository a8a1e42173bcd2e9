package flow

import (
	"context"
	"strings"
)

// AnalyzeNutritionInput is the input of AnalyzeNutrition.
type AnalyzeNutritionInput struct {
	PhotoDataURI string `json:"photoDataUri" validate:"required,datauri"`
}

// Macronutrients are grams per meal.
type Macronutrients struct {
	Protein       Number `json:"protein"`
	Carbohydrates Number `json:"carbohydrates"`
	Fat           Number `json:"fat"`
}

type Micronutrient struct {
	Name   Text `json:"name"`
	Amount Text `json:"amount"`
	Unit   Text `json:"unit"`
}

type NutritionalAnalysis struct {
	Calories       Number          `json:"calories"`
	Macronutrients Macronutrients  `json:"macronutrients"`
	Micronutrients []Micronutrient `json:"micronutrients"`
	Ingredients    []string        `json:"ingredients"`
}

// NutritionAnalysisResult is the output of AnalyzeNutrition.
type NutritionAnalysisResult struct {
	NutritionalAnalysis NutritionalAnalysis `json:"nutritionalAnalysis"`
	Generated           bool                `json:"generated"`
}

// AnalyzeNutrition estimates calories, macro and micronutrients and the
// ingredients of the meal in a photo.
func (s *Service) AnalyzeNutrition(ctx context.Context, cfg Config, in AnalyzeNutritionInput) (*NutritionAnalysisResult, error) {
	raw, err := s.generate(ctx, cfg, structuredCall{
		name:   "analyzeNutrition",
		input:  in,
		prompt: nutritionPrompt,
		image:  in.PhotoDataURI,
		schema: nutritionSchema,
	})
	if err != nil {
		return nil, err
	}

	var out struct {
		NutritionalAnalysis *NutritionalAnalysis `json:"nutritionalAnalysis"`
	}
	result := &NutritionAnalysisResult{}
	if s.decode("analyzeNutrition", raw, &out) && out.NutritionalAnalysis != nil {
		result.NutritionalAnalysis = *out.NutritionalAnalysis
		result.Generated = true
	}
	result.NutritionalAnalysis = repairAnalysis(result.NutritionalAnalysis)
	return result, nil
}

func repairAnalysis(a NutritionalAnalysis) NutritionalAnalysis {
	a.Ingredients = nonBlank(a.Ingredients, fallbackIngredientsDetected)

	micros := make([]Micronutrient, 0, len(a.Micronutrients))
	for _, m := range a.Micronutrients {
		if strings.TrimSpace(string(m.Name)) == "" {
			continue
		}
		m.Amount = Text(orDefault(string(m.Amount), NotAvailable))
		m.Unit = Text(orDefault(string(m.Unit), NotAvailable))
		micros = append(micros, m)
	}
	if len(micros) == 0 {
		micros = append(micros, Micronutrient{Name: NotAvailable, Amount: NotAvailable, Unit: NotAvailable})
	}
	a.Micronutrients = micros
	return a
}
