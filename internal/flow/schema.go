package flow

// SchemaType names a JSON schema node type.
type SchemaType string

const (
	TypeObject  SchemaType = "OBJECT"
	TypeArray   SchemaType = "ARRAY"
	TypeString  SchemaType = "STRING"
	TypeNumber  SchemaType = "NUMBER"
	TypeInteger SchemaType = "INTEGER"
	TypeBoolean SchemaType = "BOOLEAN"
)

// Schema is a provider-neutral description of the JSON a flow expects back.
type Schema struct {
	Type        SchemaType
	Description string
	Properties  map[string]*Schema
	// Order lists property names in the order the model should emit them.
	Order    []string
	Required []string
	Items    *Schema
	Minimum  *float64
	Maximum  *float64
}

func object(desc string, required []string, order []string, props map[string]*Schema) *Schema {
	return &Schema{Type: TypeObject, Description: desc, Properties: props, Order: order, Required: required}
}

func arrayOf(desc string, items *Schema) *Schema {
	return &Schema{Type: TypeArray, Description: desc, Items: items}
}

func str(desc string) *Schema {
	return &Schema{Type: TypeString, Description: desc}
}

func num(desc string) *Schema {
	return &Schema{Type: TypeNumber, Description: desc}
}

func integer(desc string) *Schema {
	return &Schema{Type: TypeInteger, Description: desc}
}

func bounded(s *Schema, min, max float64) *Schema {
	s.Minimum = &min
	s.Maximum = &max
	return s
}

var micronutrientSchema = object("", []string{"name", "amount", "unit"}, []string{"name", "amount", "unit"}, map[string]*Schema{
	"name":   str("Micronutrient name."),
	"amount": str("Estimated amount of the micronutrient."),
	"unit":   str("Unit of measure for the amount."),
})

var nutritionSchema = object("", []string{"nutritionalAnalysis"}, nil, map[string]*Schema{
	"nutritionalAnalysis": object("",
		[]string{"calories", "macronutrients", "micronutrients", "ingredients"},
		[]string{"calories", "macronutrients", "micronutrients", "ingredients"},
		map[string]*Schema{
			"calories": num("Estimated calorie count of the meal."),
			"macronutrients": object("", []string{"protein", "carbohydrates", "fat"}, []string{"protein", "carbohydrates", "fat"}, map[string]*Schema{
				"protein":       num("Estimated protein in grams."),
				"carbohydrates": num("Estimated carbohydrates in grams."),
				"fat":           num("Estimated fat in grams."),
			}),
			"micronutrients": arrayOf("Micronutrients present in the meal.", micronutrientSchema),
			"ingredients":    arrayOf("Ingredients detected in the meal.", str("")),
		}),
})

var classificationSchema = object("", []string{"classifications"}, nil, map[string]*Schema{
	"classifications": arrayOf("Food items found in the image with confidence scores.",
		object("", []string{"label", "confidence"}, []string{"label", "confidence"}, map[string]*Schema{
			"label":      str("Label of the identified food item, in Brazilian Portuguese."),
			"confidence": bounded(num("Estimated confidence between 0.0 and 1.0."), 0, 1),
		})),
})

var photoRecipeSchema = object("",
	[]string{"recipeName", "ingredients", "instructions"},
	[]string{"recipeName", "ingredients", "instructions", "calorieEstimate", "substitutionSuggestions"},
	map[string]*Schema{
		"recipeName":              str("Name of the generated recipe."),
		"ingredients":             arrayOf("Ingredients required by the recipe.", str("")),
		"instructions":            arrayOf("Steps to prepare the recipe.", str("")),
		"calorieEstimate":         num("Estimated total calories of the recipe."),
		"substitutionSuggestions": arrayOf("Ingredient substitution suggestions.", str("")),
	})

var personalizedRecipeSchema = object("",
	[]string{"recipeName", "ingredients", "instructions"},
	[]string{"recipeName", "ingredients", "instructions", "calorieEstimate", "substitutionSuggestions"},
	map[string]*Schema{
		"recipeName":              str("Name of the recipe."),
		"ingredients":             arrayOf("Ingredients required by the recipe.", str("")),
		"instructions":            arrayOf("Step-by-step instructions.", str("")),
		"calorieEstimate":         str("Estimated total calories of the recipe, as text."),
		"substitutionSuggestions": arrayOf("Substitutions based on dietary restrictions.", str("")),
	})

var mealRecipeSchema = object("",
	[]string{"recipeName", "ingredients", "instructions"},
	[]string{"recipeName", "ingredients", "instructions", "notes"},
	map[string]*Schema{
		"recipeName":   str("Recipe name for this meal."),
		"ingredients":  arrayOf("Ingredients used, taken only from the shopping list.", str("")),
		"instructions": arrayOf("Step-by-step instructions.", str("")),
		"notes":        str("Optional notes such as preparation time or tips."),
	})

var mealPlanSchema = object("", []string{"dailyPlans"}, []string{"dailyPlans", "shoppingSuggestions"}, map[string]*Schema{
	"dailyPlans": arrayOf("One entry per planned day.",
		object("", []string{"day"}, []string{"day", "breakfast", "lunch", "afternoonSnack", "dinner"}, map[string]*Schema{
			"day":            integer("Day number in the plan, starting at 1."),
			"breakfast":      mealRecipeSchema,
			"lunch":          mealRecipeSchema,
			"afternoonSnack": mealRecipeSchema,
			"dinner":         mealRecipeSchema,
		})),
	"shoppingSuggestions": arrayOf("Extra items that would complement the plan.", str("")),
})
