package provider

import (
	"fmt"
)

// Canned previews served when the provider cannot deliver random recipes.
// Negative IDs keep them clear of real provider identifiers. The content is
// placeholder material; only "well-formed, flagged, non-empty" matters.
var fallbackPreviews = []Preview{
	{
		ID:             -1,
		Title:          "Classic Spaghetti Carbonara (API Unavailable)",
		ReadyInMinutes: 30,
		Image:          "https://placehold.co/312x231?text=Spaghetti+Carbonara",
		AggregateLikes: 85,
		Fallback:       true,
	},
	{
		ID:             -2,
		Title:          "Chicken Caesar Salad (API Unavailable)",
		ReadyInMinutes: 15,
		Image:          "https://placehold.co/312x231?text=Caesar+Salad",
		AggregateLikes: 92,
		Fallback:       true,
	},
	{
		ID:             -3,
		Title:          "Vegetable Stir Fry (API Unavailable)",
		ReadyInMinutes: 20,
		Image:          "https://placehold.co/312x231?text=Vegetable+Stir+Fry",
		AggregateLikes: 78,
		Vegan:          true,
		Vegetarian:     true,
		GlutenFree:     true,
		Fallback:       true,
	},
	{
		ID:             -4,
		Title:          "Chocolate Chip Cookies (API Unavailable)",
		ReadyInMinutes: 45,
		Image:          "https://placehold.co/312x231?text=Chocolate+Cookies",
		AggregateLikes: 95,
		Vegetarian:     true,
		Fallback:       true,
	},
	{
		ID:             -5,
		Title:          "Grilled Salmon with Herbs (API Unavailable)",
		ReadyInMinutes: 25,
		Image:          "https://placehold.co/312x231?text=Grilled+Salmon",
		AggregateLikes: 88,
		GlutenFree:     true,
		Fallback:       true,
	},
}

// FallbackRandomRecipes returns up to count canned previews, all flagged.
func FallbackRandomRecipes(count int) []Preview {
	if count <= 0 || count > len(fallbackPreviews) {
		count = len(fallbackPreviews)
	}
	out := make([]Preview, count)
	copy(out, fallbackPreviews[:count])
	return out
}

// FallbackRecipe returns a well-formed flagged detail payload for the given
// id. Ingredient and instruction content is non-empty so every consumer has
// something renderable.
func FallbackRecipe(id int64) *Recipe {
	return &Recipe{
		ID:             id,
		Title:          fmt.Sprintf("Recipe #%d (API Unavailable)", id),
		ReadyInMinutes: 30,
		Image:          PlaceholderImage(id),
		Ingredients: []Ingredient{
			{
				ID:       1,
				Name:     "unavailable",
				Original: "Ingredients not available (API limit reached)",
			},
		},
		Instructions: []InstructionStep{
			{
				Number: 1,
				Step:   "Recipe instructions are not available due to API limitations. Please try again later when the API quota resets.",
			},
		},
		Servings: 1,
		Fallback: true,
	}
}

// PlaceholderImage returns the placeholder image URL for a recipe id.
func PlaceholderImage(id int64) string {
	return fmt.Sprintf("https://placehold.co/312x231?text=Recipe+%d", id)
}
