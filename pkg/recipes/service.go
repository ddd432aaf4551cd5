// Package recipes is the facade the HTTP layer talks to. It fans out to the
// provider client for recipe data and merges in the locally persisted like
// counts and per-user state, so callers get one enriched payload per recipe.
package recipes

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/platewise/recipe-service/pkg/likes"
	"github.com/platewise/recipe-service/pkg/provider"
	"github.com/platewise/recipe-service/pkg/userdata"
)

const (
	// DefaultBatchThreshold is the id-set size above which the fan-out
	// switches from all-concurrent to batched execution.
	DefaultBatchThreshold = 5

	// DefaultBatchSize is the number of concurrent fetches per batch.
	DefaultBatchSize = 3

	// DefaultBatchDelay is the pause between batches, spreading bursts so a
	// large id set doesn't trip the rate ceiling in one spike.
	DefaultBatchDelay = time.Second
)

// Placeholder titles for ids whose provider fetch failed mid fan-out.
const (
	titleUnavailable = "Recipe information unavailable"
	titleRateLimited = "Recipe Details Unavailable (Rate Limited)"
)

// EnrichedPreview is the list-view payload with provider data and local like
// state merged. Popularity is the provider's aggregate likes plus the local
// like count.
type EnrichedPreview struct {
	ID             int64  `json:"id"`
	Title          string `json:"title"`
	ReadyInMinutes int    `json:"readyInMinutes"`
	Image          string `json:"image"`
	Vegan          bool   `json:"vegan"`
	Vegetarian     bool   `json:"vegetarian"`
	GlutenFree     bool   `json:"glutenFree"`
	Popularity     int    `json:"popularity"`
	UserHasLiked   bool   `json:"userHasLiked"`

	// Unavailable marks a placeholder slot whose provider fetch failed.
	// RateLimited narrows the reason to quota or rate-limit classes.
	Unavailable bool `json:"unavailable,omitempty"`
	RateLimited bool `json:"rateLimited,omitempty"`
}

// EnrichedRecipe is the detail payload with local like state merged.
type EnrichedRecipe struct {
	provider.Recipe

	Popularity   int  `json:"popularity"`
	UserHasLiked bool `json:"userHasLiked"`
}

// Service merges provider recipe data with locally persisted user state.
type Service struct {
	provider *provider.Client
	likes    *likes.Store
	userdata *userdata.Store
	logger   zerolog.Logger

	batchThreshold int
	batchSize      int
	batchDelay     time.Duration
}

// Config holds the service configuration.
type Config struct {
	// Provider is the resilient recipe API client (REQUIRED).
	Provider *provider.Client

	// Likes is the local like store (REQUIRED).
	Likes *likes.Store

	// Userdata is the favorites/watch-history store. Optional; without it
	// the favorite and watched operations return an error.
	Userdata *userdata.Store

	// Logger for structured output.
	Logger zerolog.Logger

	// BatchThreshold, BatchSize and BatchDelay tune the fan-out. Zero
	// values take the defaults; tests shrink the delay.
	BatchThreshold int
	BatchSize      int
	BatchDelay     time.Duration
}

// NewService creates the enrichment service.
func NewService(cfg Config) (*Service, error) {
	if cfg.Provider == nil {
		return nil, fmt.Errorf("provider client is required")
	}
	if cfg.Likes == nil {
		return nil, fmt.Errorf("like store is required")
	}

	s := &Service{
		provider:       cfg.Provider,
		likes:          cfg.Likes,
		userdata:       cfg.Userdata,
		logger:         cfg.Logger,
		batchThreshold: cfg.BatchThreshold,
		batchSize:      cfg.BatchSize,
		batchDelay:     cfg.BatchDelay,
	}
	if s.batchThreshold <= 0 {
		s.batchThreshold = DefaultBatchThreshold
	}
	if s.batchSize <= 0 {
		s.batchSize = DefaultBatchSize
	}
	if s.batchDelay <= 0 {
		s.batchDelay = DefaultBatchDelay
	}
	return s, nil
}

// PreviewMany resolves each id to an enriched preview. Every id is fetched
// independently: a failed fetch becomes a flagged placeholder in its slot and
// never disturbs its neighbours. Output order matches input order. Sets at or
// below the batch threshold run fully concurrent; larger sets run in batches
// with a delay in between to stay under the rate ceiling.
func (s *Service) PreviewMany(ctx context.Context, ids []int64, viewerID int64) []EnrichedPreview {
	results := make([]EnrichedPreview, len(ids))
	if len(ids) == 0 {
		return results
	}

	if len(ids) <= s.batchThreshold {
		s.fillRange(ctx, ids, viewerID, results, 0, len(ids))
		return results
	}

	totalBatches := (len(ids) + s.batchSize - 1) / s.batchSize
	for start := 0; start < len(ids); start += s.batchSize {
		end := min(start+s.batchSize, len(ids))
		s.logger.Debug().
			Int("batch", start/s.batchSize+1).
			Int("total_batches", totalBatches).
			Int("batch_size", end-start).
			Msg("Processing preview batch")

		s.fillRange(ctx, ids, viewerID, results, start, end)

		if end < len(ids) {
			select {
			case <-ctx.Done():
				// Remaining fetches will fail fast on the cancelled
				// context and fill their slots as placeholders.
			case <-time.After(s.batchDelay):
			}
		}
	}
	return results
}

// fillRange fetches ids[start:end] concurrently, writing each result into its
// positional slot.
func (s *Service) fillRange(ctx context.Context, ids []int64, viewerID int64, results []EnrichedPreview, start, end int) {
	var wg sync.WaitGroup
	for i := start; i < end; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = s.previewOne(ctx, ids[i], viewerID)
		}(i)
	}
	wg.Wait()
}

// previewOne builds the enriched preview for a single id. The local like
// count and viewer state are attached even when the provider fetch fails, so
// placeholders keep their real popularity contribution.
func (s *Service) previewOne(ctx context.Context, id, viewerID int64) EnrichedPreview {
	recipe, fetchErr := s.provider.RecipeInformation(ctx, id)

	localLikes, err := s.likes.Count(ctx, id)
	if err != nil {
		// A like-store fault must not sink the whole slot; the provider
		// data (or placeholder) still renders with the provider count.
		s.logger.Warn().Err(err).Int64("recipe_id", id).Msg("Like count unavailable for preview")
		localLikes = 0
	}

	userHasLiked := false
	if viewerID != 0 {
		userHasLiked, err = s.likes.HasLiked(ctx, viewerID, id)
		if err != nil {
			s.logger.Warn().Err(err).
				Int64("recipe_id", id).
				Int64("user_id", viewerID).
				Msg("Viewer like state unavailable for preview")
		}
	}

	if fetchErr != nil {
		rateLimited := provider.IsRateLimit(fetchErr) || provider.IsQuotaExhausted(fetchErr)
		title := titleUnavailable
		if rateLimited {
			title = titleRateLimited
		}
		s.logger.Warn().Err(fetchErr).
			Int64("recipe_id", id).
			Str("error_class", string(provider.ClassOf(fetchErr))).
			Msg("Preview degraded to placeholder")
		return EnrichedPreview{
			ID:           id,
			Title:        title,
			Image:        provider.PlaceholderImage(id),
			Popularity:   localLikes,
			UserHasLiked: userHasLiked,
			Unavailable:  true,
			RateLimited:  rateLimited,
		}
	}

	return EnrichedPreview{
		ID:             recipe.ID,
		Title:          recipe.Title,
		ReadyInMinutes: recipe.ReadyInMinutes,
		Image:          recipe.Image,
		Vegan:          recipe.Vegan,
		Vegetarian:     recipe.Vegetarian,
		GlutenFree:     recipe.GlutenFree,
		Popularity:     recipe.AggregateLikes + localLikes,
		UserHasLiked:   userHasLiked,
	}
}

// Detail returns the enriched detail payload for a recipe. The provider side
// always yields a renderable recipe (degrading to a flagged fallback), but
// like-store failures surface because the combined count is authoritative
// user data.
func (s *Service) Detail(ctx context.Context, id, viewerID int64) (*EnrichedRecipe, error) {
	recipe := s.provider.RecipeDetails(ctx, id)

	localLikes, err := s.likes.Count(ctx, id)
	if err != nil {
		return nil, err
	}

	userHasLiked := false
	if viewerID != 0 {
		userHasLiked, err = s.likes.HasLiked(ctx, viewerID, id)
		if err != nil {
			return nil, err
		}
	}

	providerLikes := recipe.AggregateLikes
	if recipe.Fallback {
		providerLikes = 0
	}

	return &EnrichedRecipe{
		Recipe:       *recipe,
		Popularity:   providerLikes + localLikes,
		UserHasLiked: userHasLiked,
	}, nil
}

// RandomRecipes returns count random previews from the provider, canned
// fallbacks included when the provider is down.
func (s *Service) RandomRecipes(ctx context.Context, count int) []provider.Preview {
	return s.provider.RandomRecipes(ctx, count)
}

// Search resolves the query to ids and enriches them. Provider errors
// surface unchanged; an empty result is an empty (non-nil) slice.
func (s *Service) Search(ctx context.Context, q provider.SearchQuery, viewerID int64) ([]EnrichedPreview, error) {
	ids, err := s.provider.SearchRecipes(ctx, q)
	if err != nil {
		return nil, err
	}
	return s.PreviewMany(ctx, ids, viewerID), nil
}

// Nutrition returns the nutrition summary for a recipe.
func (s *Service) Nutrition(ctx context.Context, id int64) (*provider.Nutrition, error) {
	return s.provider.RecipeNutrition(ctx, id)
}

// ToggleLike sets or flips the viewer's like and returns the resulting state
// together with the new combined popularity.
func (s *Service) ToggleLike(ctx context.Context, userID, recipeID int64, like *bool) (bool, int, error) {
	liked, err := s.likes.Toggle(ctx, userID, recipeID, like)
	if err != nil {
		return false, 0, err
	}
	total, err := s.LikesCount(ctx, recipeID)
	if err != nil {
		return false, 0, err
	}
	return liked, total, nil
}

// LikesCount returns the combined popularity for a recipe: local likes plus
// the provider's aggregate count. The local store is authoritative, so its
// failures surface; a failed provider lookup just contributes zero.
func (s *Service) LikesCount(ctx context.Context, recipeID int64) (int, error) {
	local, err := s.likes.Count(ctx, recipeID)
	if err != nil {
		return 0, err
	}

	providerLikes := 0
	if recipe, err := s.provider.RecipeInformation(ctx, recipeID); err == nil {
		providerLikes = recipe.AggregateLikes
	} else {
		s.logger.Debug().Err(err).
			Int64("recipe_id", recipeID).
			Msg("Provider likes unavailable, using local count only")
	}
	return local + providerLikes, nil
}

// FavoritePreviews returns the user's favorites as enriched previews.
func (s *Service) FavoritePreviews(ctx context.Context, userID int64) ([]EnrichedPreview, error) {
	if s.userdata == nil {
		return nil, fmt.Errorf("user-data store not configured")
	}
	ids, err := s.userdata.FavoriteIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.PreviewMany(ctx, ids, userID), nil
}

// MarkFavorite adds the recipe to the user's favorites.
func (s *Service) MarkFavorite(ctx context.Context, userID, recipeID int64) error {
	if s.userdata == nil {
		return fmt.Errorf("user-data store not configured")
	}
	return s.userdata.MarkFavorite(ctx, userID, recipeID)
}

// RemoveFavorite removes the recipe from the user's favorites. Returns true
// if it was a favorite.
func (s *Service) RemoveFavorite(ctx context.Context, userID, recipeID int64) (bool, error) {
	if s.userdata == nil {
		return false, fmt.Errorf("user-data store not configured")
	}
	return s.userdata.RemoveFavorite(ctx, userID, recipeID)
}

// MarkWatched records that the user viewed the recipe.
func (s *Service) MarkWatched(ctx context.Context, userID, recipeID int64) error {
	if s.userdata == nil {
		return fmt.Errorf("user-data store not configured")
	}
	return s.userdata.MarkWatched(ctx, userID, recipeID)
}

// LastWatchedPreviews returns the user's most recently watched recipes as
// enriched previews, newest first.
func (s *Service) LastWatchedPreviews(ctx context.Context, userID int64, limit int) ([]EnrichedPreview, error) {
	if s.userdata == nil {
		return nil, fmt.Errorf("user-data store not configured")
	}
	ids, err := s.userdata.LastWatchedIDs(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	return s.PreviewMany(ctx, ids, userID), nil
}
