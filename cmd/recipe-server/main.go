package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/platewise/recipe-service/pkg/cache"
	"github.com/platewise/recipe-service/pkg/likes"
	"github.com/platewise/recipe-service/pkg/logging"
	"github.com/platewise/recipe-service/pkg/provider"
	"github.com/platewise/recipe-service/pkg/ratelimit"
	"github.com/platewise/recipe-service/pkg/recipes"
	"github.com/platewise/recipe-service/pkg/storage"
	"github.com/platewise/recipe-service/pkg/userdata"
)

const sweepInterval = 10 * time.Minute

func main() {
	// Configuration from environment
	port := getEnv("PORT", "8080")
	dbPath := getEnv("DB_PATH", "recipe-service.db")
	apiKey := os.Getenv("SPOONACULAR_API_KEY")
	baseURL := getEnv("PROVIDER_BASE_URL", provider.DefaultBaseURL)
	rateMax, _ := strconv.Atoi(getEnv("RATE_LIMIT_MAX", "10"))

	logging.Setup(logging.Config{
		Level:  logging.LogLevel(getEnv("LOG_LEVEL", "info")),
		Pretty: os.Getenv("LOG_PRETTY") == "true",
		Output: os.Stderr,
	})
	logger := logging.NewLogger("recipe-server")

	if apiKey == "" {
		logger.Fatal().Msg("SPOONACULAR_API_KEY is required")
	}

	ctx := context.Background()
	db, err := storage.Open(ctx, dbPath)
	if err != nil {
		logger.Fatal().Err(err).Str("db_path", dbPath).Msg("Failed to open database")
	}
	defer db.Close()
	logger.Info().Str("db_path", dbPath).Msg("Database ready")

	cacheManager := cache.NewManager(db, logging.NewLogger("cache"))
	governor := ratelimit.NewGovernor(rateMax, logging.NewLogger("ratelimit"))

	client, err := provider.New(provider.Config{
		BaseURL:  baseURL,
		APIKey:   apiKey,
		Cache:    cacheManager,
		Governor: governor,
		Logger:   logging.NewLogger("provider"),
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create provider client")
	}

	service, err := recipes.NewService(recipes.Config{
		Provider: client,
		Likes:    likes.NewStore(db, logging.NewLogger("likes")),
		Userdata: userdata.NewStore(db, logging.NewLogger("userdata")),
		Logger:   logging.NewLogger("recipes"),
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create recipe service")
	}

	// Background sweep keeps the persistent cache tier from accumulating
	// expired rows between reads.
	go sweepLoop(ctx, cacheManager, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", healthHandler)
	mux.HandleFunc("GET /ready", readyHandler(db))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /api/recipes/random", randomHandler(service))
	mux.HandleFunc("GET /api/recipes/search", searchHandler(service))
	mux.HandleFunc("GET /api/recipes/{id}", detailHandler(service))
	mux.HandleFunc("GET /api/recipes/{id}/nutrition", nutritionHandler(service))
	mux.HandleFunc("GET /api/recipes/{id}/likes", likesCountHandler(service))
	mux.HandleFunc("POST /api/recipes/{id}/like", toggleLikeHandler(service))
	mux.HandleFunc("GET /api/users/{userID}/favorites", favoritesHandler(service))
	mux.HandleFunc("POST /api/users/{userID}/favorites/{id}", markFavoriteHandler(service))
	mux.HandleFunc("DELETE /api/users/{userID}/favorites/{id}", removeFavoriteHandler(service))
	mux.HandleFunc("GET /api/users/{userID}/watched", watchedHandler(service))
	mux.HandleFunc("POST /api/users/{userID}/watched/{id}", markWatchedHandler(service))
	mux.HandleFunc("GET /api/cache/stats", cacheStatsHandler(cacheManager))

	addr := ":" + port
	logger.Info().Str("addr", addr).Msg("Starting recipe server")
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Fatal().Err(err).Msg("Server failed")
	}
}

// sweepLoop periodically removes expired rows from the persistent cache tier.
func sweepLoop(ctx context.Context, manager *cache.Manager, logger zerolog.Logger) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := manager.SweepExpired(ctx); err != nil {
				logger.Warn().Err(err).Msg("Cache sweep failed")
			}
		}
	}
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "OK")
}

func readyHandler(db *storage.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := db.Ping(r.Context()); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "OK")
	}
}

func randomHandler(service *recipes.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		count, _ := strconv.Atoi(r.URL.Query().Get("number"))
		writeJSON(w, http.StatusOK, service.RandomRecipes(r.Context(), count))
	}
}

func searchHandler(service *recipes.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		number, _ := strconv.Atoi(q.Get("number"))
		query := provider.SearchQuery{
			Query:       q.Get("query"),
			Number:      number,
			Cuisine:     q.Get("cuisine"),
			Diet:        q.Get("diet"),
			Intolerance: q.Get("intolerance"),
			Sort:        q.Get("sort"),
		}

		viewerID, _ := strconv.ParseInt(q.Get("user_id"), 10, 64)
		previews, err := service.Search(r.Context(), query, viewerID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, previews)
	}
}

func detailHandler(service *recipes.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		viewerID, _ := strconv.ParseInt(r.URL.Query().Get("user_id"), 10, 64)

		detail, err := service.Detail(r.Context(), id, viewerID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, detail)
	}
}

func nutritionHandler(service *recipes.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		nutrition, err := service.Nutrition(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, nutrition)
	}
}

func likesCountHandler(service *recipes.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		total, err := service.LikesCount(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int{"likes": total})
	}
}

func toggleLikeHandler(service *recipes.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		userID, err := strconv.ParseInt(r.URL.Query().Get("user_id"), 10, 64)
		if err != nil || userID == 0 {
			http.Error(w, "user_id is required", http.StatusBadRequest)
			return
		}

		// An absent "like" parameter flips the current state.
		var like *bool
		if raw := r.URL.Query().Get("like"); raw != "" {
			value := raw == "true"
			like = &value
		}

		liked, total, err := service.ToggleLike(r.Context(), userID, id, like)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"liked": liked, "likes": total})
	}
}

func favoritesHandler(service *recipes.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := pathID(w, r, "userID")
		if !ok {
			return
		}
		previews, err := service.FavoritePreviews(r.Context(), userID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, previews)
	}
}

func markFavoriteHandler(service *recipes.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := pathID(w, r, "userID")
		if !ok {
			return
		}
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		if err := service.MarkFavorite(r.Context(), userID, id); err != nil {
			if errors.Is(err, userdata.ErrAlreadyFavorite) {
				http.Error(w, err.Error(), http.StatusConflict)
				return
			}
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}
}

func removeFavoriteHandler(service *recipes.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := pathID(w, r, "userID")
		if !ok {
			return
		}
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		removed, err := service.RemoveFavorite(r.Context(), userID, id)
		if err != nil {
			writeError(w, err)
			return
		}
		if !removed {
			http.Error(w, "not a favorite", http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func watchedHandler(service *recipes.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := pathID(w, r, "userID")
		if !ok {
			return
		}
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		previews, err := service.LastWatchedPreviews(r.Context(), userID, limit)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, previews)
	}
}

func markWatchedHandler(service *recipes.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := pathID(w, r, "userID")
		if !ok {
			return
		}
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		if err := service.MarkWatched(r.Context(), userID, id); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func cacheStatsHandler(manager *cache.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := manager.Stats(r.Context())
		if err != nil {
			http.Error(w, "cache stats unavailable", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, stats)
	}
}

// pathID parses the named path segment as an id, writing a 400 on failure.
func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil {
		http.Error(w, "invalid "+name, http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps classified provider errors to HTTP statuses. Rate and
// quota pressure is a temporary upstream condition, not a client fault.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, provider.ErrMissingQuery):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case provider.IsQuotaExhausted(err), provider.IsRateLimit(err):
		w.Header().Set("Retry-After", "60")
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
	default:
		http.Error(w, err.Error(), http.StatusBadGateway)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
