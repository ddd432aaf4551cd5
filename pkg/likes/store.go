// Package likes persists user likes for recipes. Unlike the cache, likes are
// authoritative user-visible data: store failures surface to the caller.
package likes

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/platewise/recipe-service/pkg/storage"
)

// Store reads and writes the recipe_likes table.
type Store struct {
	db     *storage.DB
	logger zerolog.Logger
}

// NewStore creates a like store.
func NewStore(db *storage.DB, logger zerolog.Logger) *Store {
	return &Store{db: db, logger: logger}
}

// Toggle sets the like state for (userID, recipeID). A nil like flips the
// current state. Returns the resulting state.
func (s *Store) Toggle(ctx context.Context, userID, recipeID int64, like *bool) (bool, error) {
	target := false
	if like != nil {
		target = *like
	} else {
		current, err := s.HasLiked(ctx, userID, recipeID)
		if err != nil {
			return false, err
		}
		target = !current
	}

	if target {
		_, err := s.db.ExecContext(ctx,
			`INSERT OR IGNORE INTO recipe_likes (recipe_id, user_id) VALUES (?, ?)`,
			recipeID, userID)
		if err != nil {
			return false, fmt.Errorf("insert like: %w", err)
		}
	} else {
		_, err := s.db.ExecContext(ctx,
			`DELETE FROM recipe_likes WHERE recipe_id = ? AND user_id = ?`,
			recipeID, userID)
		if err != nil {
			return false, fmt.Errorf("delete like: %w", err)
		}
	}

	s.logger.Debug().
		Int64("user_id", userID).
		Int64("recipe_id", recipeID).
		Bool("liked", target).
		Msg("Toggled recipe like")

	return target, nil
}

// Count returns the number of local user likes for the recipe.
func (s *Store) Count(ctx context.Context, recipeID int64) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM recipe_likes WHERE recipe_id = ?`, recipeID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count likes: %w", err)
	}
	return count, nil
}

// HasLiked reports whether the user has liked the recipe.
func (s *Store) HasLiked(ctx context.Context, userID, recipeID int64) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM recipe_likes WHERE recipe_id = ? AND user_id = ?`,
		recipeID, userID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check like: %w", err)
	}
	return count > 0, nil
}
