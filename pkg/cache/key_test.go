package cache

import (
	"testing"
	"time"
)

func TestKey_Fingerprint(t *testing.T) {
	tests := []struct {
		name string
		key  Key
		want string
	}{
		{
			name: "endpoint without params",
			key:  Key{Endpoint: EndpointRandomRecipes},
			want: "random_recipes",
		},
		{
			name: "single param",
			key: Key{
				Endpoint: EndpointRecipeInformation,
				Params:   map[string]string{"recipe_id": "715538"},
			},
			want: "recipe_information:recipe_id=715538",
		},
		{
			name: "multiple params sorted",
			key: Key{
				Endpoint: EndpointRecipeInformation,
				Params: map[string]string{
					"recipe_id":        "715538",
					"includeNutrition": "false",
				},
			},
			want: "recipe_information:includeNutrition=false:recipe_id=715538",
		},
		{
			name: "search with filters",
			key: Key{
				Endpoint: EndpointSearchRecipes,
				Params: map[string]string{
					"query":   "pasta",
					"number":  "5",
					"cuisine": "italian",
				},
			},
			want: "search_recipes:cuisine=italian:number=5:query=pasta",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.key.Fingerprint()
			if got != tt.want {
				t.Errorf("Fingerprint() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestKey_OrderIndependence ensures parameter insertion order never changes
// the fingerprint.
func TestKey_OrderIndependence(t *testing.T) {
	a := Key{
		Endpoint: EndpointSearchRecipes,
		Params:   map[string]string{},
	}
	a.Params["query"] = "soup"
	a.Params["diet"] = "vegan"
	a.Params["number"] = "10"

	b := Key{
		Endpoint: EndpointSearchRecipes,
		Params:   map[string]string{},
	}
	b.Params["number"] = "10"
	b.Params["diet"] = "vegan"
	b.Params["query"] = "soup"

	if a.Fingerprint() != b.Fingerprint() {
		t.Errorf("fingerprints differ: %q vs %q", a.Fingerprint(), b.Fingerprint())
	}

	// Repeated generation must be stable.
	first := a.Fingerprint()
	for i := 0; i < 10; i++ {
		if got := a.Fingerprint(); got != first {
			t.Fatalf("Fingerprint() not deterministic: %q vs %q", got, first)
		}
	}
}

func TestEndpoint_TTL(t *testing.T) {
	tests := []struct {
		endpoint Endpoint
		want     time.Duration
	}{
		{EndpointRecipeInformation, 24 * time.Hour},
		{EndpointRandomRecipes, 2 * time.Hour},
		{EndpointSearchRecipes, 4 * time.Hour},
		{EndpointRecipeNutrition, 7 * 24 * time.Hour},
		{Endpoint("something_else"), 30 * time.Minute},
		{Endpoint(""), 30 * time.Minute},
	}

	for _, tt := range tests {
		t.Run(string(tt.endpoint), func(t *testing.T) {
			if got := tt.endpoint.TTL(); got != tt.want {
				t.Errorf("TTL() = %v, want %v", got, tt.want)
			}
		})
	}
}
