package flow

import (
	"context"
	"fmt"
	"slices"
	"strings"
)

// MealPlanInput is the input of GenerateMealPlan. Nil Include* flags default
// to true, except IncludeShoppingSuggestions which defaults to false.
type MealPlanInput struct {
	ShoppingList               string       `json:"shoppingList" validate:"required,min=10"`
	NumberOfDays               int          `json:"numberOfDays" validate:"min=0,max=14"`
	IncludeShoppingSuggestions bool         `json:"includeShoppingSuggestions"`
	IncludeBreakfast           *bool        `json:"includeBreakfast,omitempty"`
	IncludeLunch               *bool        `json:"includeLunch,omitempty"`
	IncludeAfternoonSnack      *bool        `json:"includeAfternoonSnack,omitempty"`
	IncludeDinner              *bool        `json:"includeDinner,omitempty"`
	Profile                    *UserProfile `json:"userProfile,omitempty"`
}

// MealRecipe is one meal slot of a day.
type MealRecipe struct {
	RecipeName   string   `json:"recipeName"`
	Ingredients  []string `json:"ingredients"`
	Instructions []string `json:"instructions"`
	Notes        string   `json:"notes,omitempty"`
	Generated    bool     `json:"generated"`
}

// DailyPlan holds the requested meals of one day. Slots that were not
// requested are nil and omitted from JSON.
type DailyPlan struct {
	Day            int         `json:"day"`
	Breakfast      *MealRecipe `json:"breakfast,omitempty"`
	Lunch          *MealRecipe `json:"lunch,omitempty"`
	AfternoonSnack *MealRecipe `json:"afternoonSnack,omitempty"`
	Dinner         *MealRecipe `json:"dinner,omitempty"`
}

// MealPlan is the output of GenerateMealPlan.
type MealPlan struct {
	DailyPlans          []DailyPlan `json:"dailyPlans"`
	ShoppingSuggestions []string    `json:"shoppingSuggestions,omitempty"`
	Generated           bool        `json:"generated"`
}

type mealSlot struct {
	label string
	get   func(*DailyPlan) **MealRecipe
}

var mealSlots = []mealSlot{
	{"Café da Manhã", func(d *DailyPlan) **MealRecipe { return &d.Breakfast }},
	{"Almoço", func(d *DailyPlan) **MealRecipe { return &d.Lunch }},
	{"Lanche da Tarde", func(d *DailyPlan) **MealRecipe { return &d.AfternoonSnack }},
	{"Jantar", func(d *DailyPlan) **MealRecipe { return &d.Dinner }},
}

type mealPlanPromptData struct {
	ShoppingList               string
	NumberOfDays               int
	IncludeShoppingSuggestions bool
	IncludeBreakfast           bool
	IncludeLunch               bool
	IncludeAfternoonSnack      bool
	IncludeDinner              bool
	Profile                    *UserProfile
}

func (d mealPlanPromptData) requested() []bool {
	return []bool{d.IncludeBreakfast, d.IncludeLunch, d.IncludeAfternoonSnack, d.IncludeDinner}
}

func flag(b *bool, def bool) bool {
	if b == nil {
		return def
	}
	return *b
}

// GenerateMealPlan plans the requested meals for 1 to 14 days using only the
// items of a shopping list. Every requested slot of every day is present in
// the result; slots that were not requested are absent.
func (s *Service) GenerateMealPlan(ctx context.Context, cfg Config, in MealPlanInput) (*MealPlan, error) {
	data := mealPlanPromptData{
		ShoppingList:               in.ShoppingList,
		NumberOfDays:               in.NumberOfDays,
		IncludeShoppingSuggestions: in.IncludeShoppingSuggestions,
		IncludeBreakfast:           flag(in.IncludeBreakfast, true),
		IncludeLunch:               flag(in.IncludeLunch, true),
		IncludeAfternoonSnack:      flag(in.IncludeAfternoonSnack, true),
		IncludeDinner:              flag(in.IncludeDinner, true),
		Profile:                    promptProfile(in.Profile),
	}
	if data.NumberOfDays == 0 {
		data.NumberOfDays = 1
	}

	raw, err := s.generate(ctx, cfg, structuredCall{
		name:   "generateMealPlan",
		input:  in,
		prompt: mealPlanPrompt,
		data:   data,
		schema: mealPlanSchema,
	})
	if err != nil {
		return nil, err
	}

	var out struct {
		DailyPlans []struct {
			Day            int         `json:"day"`
			Breakfast      *MealRecipe `json:"breakfast"`
			Lunch          *MealRecipe `json:"lunch"`
			AfternoonSnack *MealRecipe `json:"afternoonSnack"`
			Dinner         *MealRecipe `json:"dinner"`
		} `json:"dailyPlans"`
		ShoppingSuggestions []string `json:"shoppingSuggestions"`
	}
	if !s.decode("generateMealPlan", raw, &out) || len(out.DailyPlans) == 0 {
		return fallbackMealPlan(data), nil
	}

	plan := &MealPlan{DailyPlans: make([]DailyPlan, 0, data.NumberOfDays)}
	seen := make(map[int]bool, len(out.DailyPlans))
	for i, fromModel := range out.DailyPlans {
		day := DailyPlan{
			Day:            fromModel.Day,
			Breakfast:      fromModel.Breakfast,
			Lunch:          fromModel.Lunch,
			AfternoonSnack: fromModel.AfternoonSnack,
			Dinner:         fromModel.Dinner,
		}
		if day.Day <= 0 {
			day.Day = i + 1
		}
		if day.Day > data.NumberOfDays || seen[day.Day] {
			s.log.Warn("dropping unexpected day from meal plan", "day", day.Day, "requested_days", data.NumberOfDays)
			continue
		}
		seen[day.Day] = true
		plan.DailyPlans = append(plan.DailyPlans, fillSlots(day, data.requested(), "Não retornado pela IA", fallbackMealNotReturned))
	}
	plan.Generated = len(seen) > 0
	for n := 1; n <= data.NumberOfDays; n++ {
		if !seen[n] {
			plan.DailyPlans = append(plan.DailyPlans, fillSlots(DailyPlan{Day: n}, data.requested(), "Não gerado pela IA", fallbackMealNotGenerated))
		}
	}
	slices.SortFunc(plan.DailyPlans, func(a, b DailyPlan) int { return a.Day - b.Day })

	if data.IncludeShoppingSuggestions {
		plan.ShoppingSuggestions = nonBlank(out.ShoppingSuggestions, fallbackShoppingSuggestions)
	}
	return plan, nil
}

func fallbackMealPlan(data mealPlanPromptData) *MealPlan {
	plan := &MealPlan{DailyPlans: make([]DailyPlan, 0, data.NumberOfDays)}
	for n := 1; n <= data.NumberOfDays; n++ {
		plan.DailyPlans = append(plan.DailyPlans, fillSlots(DailyPlan{Day: n}, data.requested(), "Não gerado pela IA", fallbackMealNotGenerated))
	}
	if data.IncludeShoppingSuggestions {
		plan.ShoppingSuggestions = []string{fallbackShoppingSuggestions}
	}
	return plan
}

// fillSlots keeps requested slots (repairing or substituting them) and clears
// the ones that were not requested.
func fillSlots(day DailyPlan, requested []bool, reason, note string) DailyPlan {
	for i, slot := range mealSlots {
		ptr := slot.get(&day)
		if !requested[i] {
			*ptr = nil
			continue
		}
		if *ptr == nil || strings.TrimSpace((*ptr).RecipeName) == "" {
			*ptr = &MealRecipe{
				RecipeName:   fmt.Sprintf("%s: %s", slot.label, reason),
				Ingredients:  []string{NotAvailable},
				Instructions: []string{NotAvailable},
				Notes:        note,
			}
			continue
		}
		meal := **ptr
		meal.RecipeName = strings.TrimSpace(meal.RecipeName)
		meal.Ingredients = nonBlank(meal.Ingredients, NotAvailable)
		meal.Instructions = nonBlank(meal.Instructions, NotAvailable)
		meal.Generated = true
		*ptr = &meal
	}
	return day
}
