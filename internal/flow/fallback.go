package flow

// Placeholder content shown when the model did not produce a field. Results
// also carry Generated=false, so callers never need to compare these strings.
const (
	NotAvailable = "N/A"

	fallbackIngredientsDetected = "Não foi possível identificar ingredientes."
	fallbackClassificationLabel = "Não foi possível classificar o alimento."
	fallbackRecipeName          = "Não foi possível gerar a receita"
	fallbackPersonalizedName    = "Nenhuma receita encontrada"
	fallbackIngredients         = "Não foi possível gerar ingredientes."
	fallbackInstructions        = "Não foi possível gerar instruções."
	fallbackShoppingSuggestions = "Não foi possível gerar sugestões de compra."
	fallbackMealNotGenerated    = "A IA não conseguiu gerar uma receita para esta refeição."
	fallbackMealNotReturned     = "A IA não retornou dados para esta refeição."
)
