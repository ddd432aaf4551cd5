// Package userdata persists per-user recipe lists (favorites, watch history).
// These feed id sets into the enrichment fan-out.
package userdata

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/platewise/recipe-service/pkg/storage"
)

// ErrAlreadyFavorite indicates the recipe is already in the user's favorites.
var ErrAlreadyFavorite = errors.New("recipe is already in favorites")

// Store reads and writes the favorite_recipes and watched_recipes tables.
type Store struct {
	db     *storage.DB
	logger zerolog.Logger
}

// NewStore creates a user-data store.
func NewStore(db *storage.DB, logger zerolog.Logger) *Store {
	return &Store{db: db, logger: logger}
}

// MarkFavorite adds the recipe to the user's favorites.
func (s *Store) MarkFavorite(ctx context.Context, userID, recipeID int64) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO favorite_recipes (user_id, recipe_id) VALUES (?, ?)`,
		userID, recipeID)
	if err != nil {
		return fmt.Errorf("insert favorite: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert favorite: %w", err)
	}
	if affected == 0 {
		return ErrAlreadyFavorite
	}
	return nil
}

// RemoveFavorite removes the recipe from the user's favorites. Returns true
// if a row was removed.
func (s *Store) RemoveFavorite(ctx context.Context, userID, recipeID int64) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM favorite_recipes WHERE user_id = ? AND recipe_id = ?`,
		userID, recipeID)
	if err != nil {
		return false, fmt.Errorf("delete favorite: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete favorite: %w", err)
	}
	return affected > 0, nil
}

// FavoriteIDs returns all recipe ids the user has favorited.
func (s *Store) FavoriteIDs(ctx context.Context, userID int64) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT recipe_id FROM favorite_recipes WHERE user_id = ? ORDER BY recipe_id`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("select favorites: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan favorite: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// MarkWatched records that the user viewed the recipe, refreshing the
// timestamp if already present.
func (s *Store) MarkWatched(ctx context.Context, userID, recipeID int64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO watched_recipes (user_id, recipe_id, watched_at)
		VALUES (?, ?, ?)
		ON CONFLICT(user_id, recipe_id) DO UPDATE SET watched_at = excluded.watched_at`,
		userID, recipeID, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("upsert watched: %w", err)
	}
	return nil
}

// LastWatchedIDs returns the user's most recently watched recipe ids, newest
// first, capped at limit.
func (s *Store) LastWatchedIDs(ctx context.Context, userID int64, limit int) ([]int64, error) {
	if limit <= 0 {
		limit = 3
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT recipe_id FROM watched_recipes
		WHERE user_id = ?
		ORDER BY watched_at DESC
		LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("select watched: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan watched: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
