package cache

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Endpoint identifies a provider endpoint bucket for TTL policy and stats.
type Endpoint string

const (
	// EndpointRecipeInformation is a single-recipe detail lookup.
	EndpointRecipeInformation Endpoint = "recipe_information"

	// EndpointRandomRecipes is a random recipe collection.
	EndpointRandomRecipes Endpoint = "random_recipes"

	// EndpointSearchRecipes is a recipe search result set.
	EndpointSearchRecipes Endpoint = "search_recipes"

	// EndpointRecipeNutrition is per-recipe nutrition data.
	EndpointRecipeNutrition Endpoint = "recipe_nutrition"
)

// Per-endpoint cache durations. Detail lookups rarely change, nutrition
// almost never does, random collections must rotate.
const (
	TTLRecipeInformation = 24 * time.Hour
	TTLRandomRecipes     = 2 * time.Hour
	TTLSearchRecipes     = 4 * time.Hour
	TTLRecipeNutrition   = 7 * 24 * time.Hour
	TTLDefault           = 30 * time.Minute
)

// TTL returns the cache duration for the endpoint. Unrecognized endpoints
// fall into the default bucket.
func (e Endpoint) TTL() time.Duration {
	switch e {
	case EndpointRecipeInformation:
		return TTLRecipeInformation
	case EndpointRandomRecipes:
		return TTLRandomRecipes
	case EndpointSearchRecipes:
		return TTLSearchRecipes
	case EndpointRecipeNutrition:
		return TTLRecipeNutrition
	default:
		return TTLDefault
	}
}

// Key identifies one logical provider request.
type Key struct {
	// Endpoint is the provider endpoint bucket.
	Endpoint Endpoint

	// Params are the request parameters. Key order does not matter.
	Params map[string]string
}

// Fingerprint generates a deterministic cache key string.
// Format: endpoint:param1=val1:param2=val2 with params sorted by name, so two
// requests with the same parameter set always map to the same fingerprint.
//
// Example:
//
//	recipe_information:includeNutrition=false:recipe_id=715538
func (k Key) Fingerprint() string {
	parts := []string{string(k.Endpoint)}

	if len(k.Params) > 0 {
		names := make([]string, 0, len(k.Params))
		for name := range k.Params {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			parts = append(parts, fmt.Sprintf("%s=%s", name, k.Params[name]))
		}
	}

	return strings.Join(parts, ":")
}
