// Package provider implements the resilient client for the third-party
// recipe API. Every call reads through the two-tier cache, is gated by the
// rate governor, classifies failures, and degrades read-heavy paths to
// clearly flagged fallback payloads.
package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/platewise/recipe-service/pkg/cache"
	"github.com/platewise/recipe-service/pkg/ratelimit"
)

// Prometheus metrics for provider calls.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "recipe_provider_requests_total",
		Help: "Total provider requests by endpoint and status",
	}, []string{"endpoint", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "recipe_provider_request_duration_seconds",
		Help:    "Provider request duration in seconds by endpoint",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "recipe_provider_errors_total",
		Help: "Total provider errors by class",
	}, []string{"class"})

	fallbacksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "recipe_provider_fallbacks_total",
		Help: "Total fallback payloads served by endpoint",
	}, []string{"endpoint"})
)

const (
	// DefaultBaseURL is the provider's recipe API root.
	DefaultBaseURL = "https://api.spoonacular.com/recipes"

	// DefaultSearchNumber is the result count when a search doesn't specify one.
	DefaultSearchNumber = 5

	// DefaultRandomCount is the recipe count when a random fetch doesn't specify one.
	DefaultRandomCount = 3
)

// Client is the provider API client.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	cache      *cache.Manager
	governor   *ratelimit.Governor
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// BaseURL of the provider API (default: DefaultBaseURL).
	BaseURL string

	// APIKey authenticates every provider call (REQUIRED).
	APIKey string

	// HTTPClient overrides the default 30s-timeout client.
	HTTPClient *http.Client

	// Cache is the two-tier cache manager (REQUIRED).
	Cache *cache.Manager

	// Governor gates real outbound calls (REQUIRED).
	Governor *ratelimit.Governor

	// Logger for structured output.
	Logger zerolog.Logger
}

// New creates a provider client.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("api key is required")
	}
	if cfg.Cache == nil {
		return nil, fmt.Errorf("cache manager is required")
	}
	if cfg.Governor == nil {
		return nil, fmt.Errorf("rate governor is required")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
		cache:      cfg.Cache,
		governor:   cfg.Governor,
		logger:     cfg.Logger,
	}, nil
}

// Provider wire shapes, normalized before anything is cached or returned.
type wireIngredient struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Amount   float64 `json:"amount"`
	Unit     string  `json:"unit"`
	Original string  `json:"original"`
}

type wireRecipe struct {
	ID                   int64            `json:"id"`
	Title                string           `json:"title"`
	ReadyInMinutes       int              `json:"readyInMinutes"`
	Image                string           `json:"image"`
	AggregateLikes       int              `json:"aggregateLikes"`
	Vegan                bool             `json:"vegan"`
	Vegetarian           bool             `json:"vegetarian"`
	GlutenFree           bool             `json:"glutenFree"`
	Servings             int              `json:"servings"`
	Instructions         string           `json:"instructions"`
	ExtendedIngredients  []wireIngredient `json:"extendedIngredients"`
	AnalyzedInstructions []struct {
		Steps []InstructionStep `json:"steps"`
	} `json:"analyzedInstructions"`
}

// normalize converts the provider wire shape to the internal Recipe.
func (w *wireRecipe) normalize() *Recipe {
	r := &Recipe{
		ID:             w.ID,
		Title:          w.Title,
		ReadyInMinutes: w.ReadyInMinutes,
		Image:          w.Image,
		AggregateLikes: w.AggregateLikes,
		Vegan:          w.Vegan,
		Vegetarian:     w.Vegetarian,
		GlutenFree:     w.GlutenFree,
		Servings:       w.Servings,
	}

	for _, ing := range w.ExtendedIngredients {
		r.Ingredients = append(r.Ingredients, Ingredient(ing))
	}

	for _, block := range w.AnalyzedInstructions {
		r.Instructions = append(r.Instructions, block.Steps...)
	}
	if len(r.Instructions) == 0 && w.Instructions != "" {
		// Some recipes only carry the flat instructions text.
		r.Instructions = []InstructionStep{{Number: 1, Step: w.Instructions}}
	}

	return r
}

// RecipeInformation fetches the normalized detail payload for one recipe,
// through the cache and governor. Failures are returned as classified errors;
// use RecipeDetails for the degrade-to-fallback variant.
func (c *Client) RecipeInformation(ctx context.Context, id int64) (*Recipe, error) {
	key := cache.Key{
		Endpoint: cache.EndpointRecipeInformation,
		Params: map[string]string{
			"recipe_id":        strconv.FormatInt(id, 10),
			"includeNutrition": "false",
		},
	}

	if payload, err := c.cache.Get(ctx, key); err == nil {
		var recipe Recipe
		if err := json.Unmarshal(payload, &recipe); err == nil {
			return &recipe, nil
		}
		c.logger.Warn().Int64("recipe_id", id).Msg("Discarding undecodable cached recipe")
	}

	query := url.Values{"includeNutrition": {"false"}}
	var wire wireRecipe
	if err := c.fetchJSON(ctx, key.Endpoint, fmt.Sprintf("%s/%d/information", c.baseURL, id), query, &wire); err != nil {
		return nil, err
	}

	recipe := wire.normalize()
	c.writeThrough(ctx, key, recipe)
	return recipe, nil
}

// RecipeDetails fetches recipe details, degrading every classified failure
// to a flagged fallback payload so callers always have something renderable.
func (c *Client) RecipeDetails(ctx context.Context, id int64) *Recipe {
	recipe, err := c.RecipeInformation(ctx, id)
	if err != nil {
		fallbacksTotal.WithLabelValues(string(cache.EndpointRecipeInformation)).Inc()
		c.logger.Warn().Err(err).
			Int64("recipe_id", id).
			Str("error_class", string(ClassOf(err))).
			Msg("Recipe detail degraded to fallback")
		return FallbackRecipe(id)
	}
	return recipe
}

// RandomRecipes fetches count random recipe previews. Any classified failure
// degrades to the canned fallback set; the result is never empty because of
// a provider fault.
func (c *Client) RandomRecipes(ctx context.Context, count int) []Preview {
	if count <= 0 {
		count = DefaultRandomCount
	}

	key := cache.Key{
		Endpoint: cache.EndpointRandomRecipes,
		Params:   map[string]string{"number": strconv.Itoa(count)},
	}

	if payload, err := c.cache.Get(ctx, key); err == nil {
		var previews []Preview
		if err := json.Unmarshal(payload, &previews); err == nil {
			return previews
		}
	}

	query := url.Values{"number": {strconv.Itoa(count)}}
	var wire struct {
		Recipes []wireRecipe `json:"recipes"`
	}
	if err := c.fetchJSON(ctx, key.Endpoint, c.baseURL+"/random", query, &wire); err != nil {
		fallbacksTotal.WithLabelValues(string(cache.EndpointRandomRecipes)).Inc()
		c.logger.Warn().Err(err).
			Str("error_class", string(ClassOf(err))).
			Msg("Random recipes degraded to fallback")
		return FallbackRandomRecipes(count)
	}

	previews := make([]Preview, 0, len(wire.Recipes))
	for i := range wire.Recipes {
		previews = append(previews, wire.Recipes[i].normalize().Preview())
	}
	c.writeThrough(ctx, key, previews)
	return previews
}

// SearchRecipes resolves a search to a list of recipe ids. Unlike the detail
// and random paths there is no sane synthetic result set, so classified
// errors are surfaced to the caller. An empty provider result is cached and
// returned as an empty (non-nil) slice.
func (c *Client) SearchRecipes(ctx context.Context, q SearchQuery) ([]int64, error) {
	if q.Query == "" {
		return nil, ErrMissingQuery
	}
	if q.Number <= 0 {
		q.Number = DefaultSearchNumber
	}

	key := cache.Key{
		Endpoint: cache.EndpointSearchRecipes,
		Params:   q.cacheParams(),
	}

	if payload, err := c.cache.Get(ctx, key); err == nil {
		ids := []int64{}
		if err := json.Unmarshal(payload, &ids); err == nil {
			return ids, nil
		}
	}

	query := url.Values{
		"query":                {q.Query},
		"number":               {strconv.Itoa(q.Number)},
		"instructionsRequired": {"true"},
	}
	if q.Cuisine != "" {
		query.Set("cuisine", q.Cuisine)
	}
	if q.Diet != "" {
		query.Set("diet", q.Diet)
	}
	if q.Intolerance != "" {
		query.Set("intolerances", q.Intolerance)
	}
	switch q.Sort {
	case "time":
		query.Set("sort", "time")
		query.Set("sortDirection", "asc")
	case "popularity":
		query.Set("sort", "popularity")
		query.Set("sortDirection", "desc")
	}

	var wire struct {
		Results []struct {
			ID int64 `json:"id"`
		} `json:"results"`
		TotalResults int `json:"totalResults"`
	}
	if err := c.fetchJSON(ctx, key.Endpoint, c.baseURL+"/complexSearch", query, &wire); err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(wire.Results))
	for _, r := range wire.Results {
		ids = append(ids, r.ID)
	}

	// Empty result sets are cached too, so a repeated fruitless search
	// doesn't burn quota.
	c.writeThrough(ctx, key, ids)
	return ids, nil
}

// RecipeNutrition fetches the nutrition summary for a recipe. Nutrition has
// no fallback shape worth inventing, so failures are surfaced classified.
func (c *Client) RecipeNutrition(ctx context.Context, id int64) (*Nutrition, error) {
	key := cache.Key{
		Endpoint: cache.EndpointRecipeNutrition,
		Params:   map[string]string{"recipe_id": strconv.FormatInt(id, 10)},
	}

	if payload, err := c.cache.Get(ctx, key); err == nil {
		var n Nutrition
		if err := json.Unmarshal(payload, &n); err == nil {
			return &n, nil
		}
	}

	var n Nutrition
	if err := c.fetchJSON(ctx, key.Endpoint, fmt.Sprintf("%s/%d/nutritionWidget.json", c.baseURL, id), nil, &n); err != nil {
		return nil, err
	}

	c.writeThrough(ctx, key, &n)
	return &n, nil
}

// fetchJSON performs one governed provider call and decodes the response.
// The governor slot is acquired here, immediately before the real call; a
// denial resolves to a self-throttle error handled like a provider-side
// rate limit.
func (c *Client) fetchJSON(ctx context.Context, endpoint cache.Endpoint, rawURL string, query url.Values, out any) error {
	if !c.governor.Acquire() {
		errorsTotal.WithLabelValues(string(ClassSelfThrottled)).Inc()
		requestsTotal.WithLabelValues(string(endpoint), "throttled").Inc()
		return &Error{
			Class:    ClassSelfThrottled,
			Endpoint: string(endpoint),
			Message:  "too many requests in the current window",
			Err:      ErrSelfThrottled,
		}
	}

	if query == nil {
		query = url.Values{}
	}
	query.Set("apiKey", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL+"?"+query.Encode(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	c.logger.Debug().
		Str("endpoint", string(endpoint)).
		Str("url", rawURL).
		Msg("Executing provider request")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	requestDuration.WithLabelValues(string(endpoint)).Observe(time.Since(start).Seconds())

	if err != nil {
		errorsTotal.WithLabelValues(string(ClassGeneric)).Inc()
		requestsTotal.WithLabelValues(string(endpoint), "network_error").Inc()
		return &Error{
			Class:    ClassGeneric,
			Endpoint: string(endpoint),
			Message:  "request failed",
			Err:      err,
		}
	}
	defer resp.Body.Close()

	requestsTotal.WithLabelValues(string(endpoint), strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode != http.StatusOK {
		class, sentinel := classifyStatus(resp.StatusCode)
		errorsTotal.WithLabelValues(string(class)).Inc()
		c.logger.Warn().
			Str("endpoint", string(endpoint)).
			Int("status", resp.StatusCode).
			Str("error_class", string(class)).
			Msg("Provider request error")
		return &Error{
			Class:      class,
			StatusCode: resp.StatusCode,
			Endpoint:   string(endpoint),
			Message:    resp.Status,
			Err:        sentinel,
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		errorsTotal.WithLabelValues(string(ClassGeneric)).Inc()
		return &Error{
			Class:    ClassGeneric,
			Endpoint: string(endpoint),
			Message:  "decode response",
			Err:      err,
		}
	}

	return nil
}

// writeThrough caches the normalized value under the key. Marshal failures
// only cost the cache entry, never the response.
func (c *Client) writeThrough(ctx context.Context, key cache.Key, value any) {
	payload, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn().Err(err).
			Str("endpoint", string(key.Endpoint)).
			Msg("Failed to marshal payload for cache")
		return
	}
	c.cache.Set(ctx, key, payload)
}
