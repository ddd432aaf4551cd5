package storage

import (
	"context"
	"database/sql"
)

// schema holds the full table layout. Statements are idempotent so Open can
// run them on every start.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS api_cache (
		fingerprint    TEXT PRIMARY KEY,
		endpoint       TEXT NOT NULL,
		payload        BLOB NOT NULL,
		request_params TEXT NOT NULL DEFAULT '',
		expires_at     INTEGER NOT NULL,
		created_at     INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_api_cache_expires_at ON api_cache(expires_at)`,
	`CREATE INDEX IF NOT EXISTS idx_api_cache_endpoint ON api_cache(endpoint)`,
	`CREATE TABLE IF NOT EXISTS recipe_likes (
		recipe_id INTEGER NOT NULL,
		user_id   INTEGER NOT NULL,
		PRIMARY KEY (recipe_id, user_id)
	)`,
	`CREATE TABLE IF NOT EXISTS favorite_recipes (
		user_id   INTEGER NOT NULL,
		recipe_id INTEGER NOT NULL,
		PRIMARY KEY (user_id, recipe_id)
	)`,
	`CREATE TABLE IF NOT EXISTS watched_recipes (
		user_id    INTEGER NOT NULL,
		recipe_id  INTEGER NOT NULL,
		watched_at INTEGER NOT NULL,
		PRIMARY KEY (user_id, recipe_id)
	)`,
}

func migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
