package tools

// RecipePortion is one ingredient of a recipe with its weight in grams.
type RecipePortion struct {
	Name        string  `json:"name"`
	WeightGrams float64 `json:"weight_grams"`
}

type Recipe struct {
	Name        string          `json:"name"`
	Ingredients []RecipePortion `json:"ingredients"`
}

// Macros holds nutritional values, either per 100g of an ingredient or
// totaled for a whole recipe.
type Macros struct {
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
	Calories float64 `json:"calories"`
}
