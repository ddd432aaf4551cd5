package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/platewise/recipe-service/pkg/storage"
)

// sqlTier is the persistent cache tier backed by the api_cache table.
// Upserts are last-write-wins by fingerprint, so concurrent process
// instances sharing the database need no further coordination.
type sqlTier struct {
	db *storage.DB
}

// get returns a non-expired entry or ErrCacheMiss. An expired row found on
// read is deleted opportunistically.
func (s *sqlTier) get(ctx context.Context, fingerprint string) (*Entry, error) {
	var (
		endpoint  string
		payload   []byte
		expiresAt int64
		createdAt int64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT endpoint, payload, expires_at, created_at
		FROM api_cache WHERE fingerprint = ?`, fingerprint,
	).Scan(&endpoint, &payload, &expiresAt, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("cache select: %w", err)
	}

	entry := &Entry{
		Payload:   payload,
		Endpoint:  Endpoint(endpoint),
		ExpiresAt: time.UnixMilli(expiresAt),
		CreatedAt: time.UnixMilli(createdAt),
	}

	if entry.IsExpired() {
		_, _ = s.db.ExecContext(ctx,
			`DELETE FROM api_cache WHERE fingerprint = ? AND expires_at <= ?`,
			fingerprint, time.Now().UnixMilli())
		return nil, ErrCacheMiss
	}

	return entry, nil
}

// set upserts an entry by fingerprint. The original request parameters are
// stored alongside for diagnostics only.
func (s *sqlTier) set(ctx context.Context, fingerprint string, key Key, entry *Entry) error {
	params, err := json.Marshal(key.Params)
	if err != nil {
		return fmt.Errorf("marshal request params: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO api_cache (fingerprint, endpoint, payload, request_params, expires_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(fingerprint) DO UPDATE SET
			payload = excluded.payload,
			request_params = excluded.request_params,
			expires_at = excluded.expires_at`,
		fingerprint, string(entry.Endpoint), entry.Payload, string(params),
		entry.ExpiresAt.UnixMilli(), entry.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("cache upsert: %w", err)
	}
	return nil
}

// sweep deletes all expired rows and returns the number removed.
func (s *sqlTier) sweep(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM api_cache WHERE expires_at <= ?`, time.Now().UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("cache sweep: %w", err)
	}
	return res.RowsAffected()
}

// clear drops every row.
func (s *sqlTier) clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM api_cache`); err != nil {
		return fmt.Errorf("cache clear: %w", err)
	}
	return nil
}

// stats returns a per-endpoint rollup of the active (non-expired) rows.
func (s *sqlTier) stats(ctx context.Context) ([]EndpointStats, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT endpoint, COUNT(*), MIN(created_at), MAX(expires_at)
		FROM api_cache
		WHERE expires_at > ?
		GROUP BY endpoint
		ORDER BY endpoint`, time.Now().UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("cache stats: %w", err)
	}
	defer rows.Close()

	var out []EndpointStats
	for rows.Next() {
		var (
			st           EndpointStats
			endpoint     string
			oldest       int64
			latestExpiry int64
		)
		if err := rows.Scan(&endpoint, &st.Entries, &oldest, &latestExpiry); err != nil {
			return nil, fmt.Errorf("cache stats scan: %w", err)
		}
		st.Endpoint = Endpoint(endpoint)
		st.OldestCreated = time.UnixMilli(oldest)
		st.LatestExpiry = time.UnixMilli(latestExpiry)
		out = append(out, st)
	}
	return out, rows.Err()
}
