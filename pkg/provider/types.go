package provider

import (
	"strconv"
)

// Ingredient is one ingredient line of a recipe.
type Ingredient struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Amount   float64 `json:"amount"`
	Unit     string  `json:"unit"`
	Original string  `json:"original"`
}

// InstructionStep is one numbered preparation step.
type InstructionStep struct {
	Number int    `json:"number"`
	Step   string `json:"step"`
}

// Recipe is the normalized detail payload for a single recipe.
type Recipe struct {
	ID             int64             `json:"id"`
	Title          string            `json:"title"`
	ReadyInMinutes int               `json:"readyInMinutes"`
	Image          string            `json:"image"`
	Vegan          bool              `json:"vegan"`
	Vegetarian     bool              `json:"vegetarian"`
	GlutenFree     bool              `json:"glutenFree"`
	AggregateLikes int               `json:"aggregateLikes"`
	Ingredients    []Ingredient      `json:"ingredients"`
	Instructions   []InstructionStep `json:"instructions"`
	Servings       int               `json:"servings"`

	// Fallback marks synthetic data returned when the provider was
	// unreachable or exhausted, so consumers can tell real from canned.
	Fallback bool `json:"fallback,omitempty"`
}

// Preview returns the list-view subset of the recipe.
func (r *Recipe) Preview() Preview {
	return Preview{
		ID:             r.ID,
		Title:          r.Title,
		ReadyInMinutes: r.ReadyInMinutes,
		Image:          r.Image,
		Vegan:          r.Vegan,
		Vegetarian:     r.Vegetarian,
		GlutenFree:     r.GlutenFree,
		AggregateLikes: r.AggregateLikes,
		Fallback:       r.Fallback,
	}
}

// Preview is the normalized list-view payload for a recipe.
type Preview struct {
	ID             int64  `json:"id"`
	Title          string `json:"title"`
	ReadyInMinutes int    `json:"readyInMinutes"`
	Image          string `json:"image"`
	Vegan          bool   `json:"vegan"`
	Vegetarian     bool   `json:"vegetarian"`
	GlutenFree     bool   `json:"glutenFree"`
	AggregateLikes int    `json:"aggregateLikes"`
	Fallback       bool   `json:"fallback,omitempty"`
}

// Nutrition is the per-recipe nutrition summary.
type Nutrition struct {
	Calories string `json:"calories"`
	Carbs    string `json:"carbs"`
	Fat      string `json:"fat"`
	Protein  string `json:"protein"`
}

// SearchQuery holds the search term and optional filters.
type SearchQuery struct {
	Query       string
	Number      int
	Cuisine     string
	Diet        string
	Intolerance string
	Sort        string // "time" or "popularity"
}

// cacheParams returns the full parameter set for the cache fingerprint.
// Absent filters are included as empty values so that "no filter" and
// "filter unset" produce the same fingerprint.
func (q SearchQuery) cacheParams() map[string]string {
	number := q.Number
	if number <= 0 {
		number = DefaultSearchNumber
	}
	return map[string]string{
		"query":       q.Query,
		"number":      strconv.Itoa(number),
		"cuisine":     q.Cuisine,
		"diet":        q.Diet,
		"intolerance": q.Intolerance,
		"sort":        q.Sort,
	}
}
