package cache

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/platewise/recipe-service/pkg/storage"
)

// ErrCacheMiss indicates neither tier holds a live entry for the fingerprint.
var ErrCacheMiss = errors.New("cache miss")

// EndpointStats is a per-endpoint rollup of active persistent entries.
type EndpointStats struct {
	Endpoint      Endpoint  `json:"endpoint"`
	Entries       int       `json:"entries"`
	OldestCreated time.Time `json:"oldest_created"`
	LatestExpiry  time.Time `json:"latest_expiry"`
}

// Stats describes the current state of both cache tiers.
type Stats struct {
	MemoryEntries int             `json:"memory_entries"`
	Persistent    []EndpointStats `json:"persistent"`
}

// Manager orchestrates the two cache tiers. Construct one per process and
// inject it into consumers; tests build isolated instances.
type Manager struct {
	memory *memoryTier
	store  *sqlTier
	logger zerolog.Logger
}

// NewManager creates a cache manager. A nil db degrades to a memory-only
// cache: the persistent tier is best-effort by contract, so the rest of the
// system runs unchanged.
func NewManager(db *storage.DB, logger zerolog.Logger) *Manager {
	m := &Manager{
		memory: newMemoryTier(),
		logger: logger,
	}
	if db != nil {
		m.store = &sqlTier{db: db}
	}
	return m
}

// Get retrieves the cached payload for the key. The memory tier is consulted
// first; a persistent hit is promoted into memory with its remaining expiry.
// Returns ErrCacheMiss when no tier holds a live entry. Persistent-tier
// failures are logged and reported as a miss, never as an error.
func (m *Manager) Get(ctx context.Context, key Key) ([]byte, error) {
	fingerprint := key.Fingerprint()

	if entry := m.memory.get(fingerprint); entry != nil {
		CacheHits.WithLabelValues("memory").Inc()
		m.logger.Debug().
			Str("fingerprint", fingerprint).
			Str("tier", "memory").
			Msg("Cache hit")
		return entry.Payload, nil
	}

	if m.store != nil {
		entry, err := m.store.get(ctx, fingerprint)
		if err == nil {
			// Promote so the next read is served from memory.
			m.memory.set(fingerprint, entry)
			CacheHits.WithLabelValues("sqlite").Inc()
			m.logger.Debug().
				Str("fingerprint", fingerprint).
				Str("tier", "sqlite").
				Dur("ttl", entry.TTL()).
				Msg("Cache hit")
			return entry.Payload, nil
		}
		if !errors.Is(err, ErrCacheMiss) {
			CacheErrors.WithLabelValues("get").Inc()
			m.logger.Warn().Err(err).
				Str("fingerprint", fingerprint).
				Msg("Persistent cache get failed")
		}
	}

	CacheMisses.Inc()
	return nil, ErrCacheMiss
}

// Set writes the payload through both tiers with the endpoint's TTL.
// Persistent-tier failures are logged; the memory write always takes effect.
func (m *Manager) Set(ctx context.Context, key Key, payload []byte) {
	now := time.Now()
	entry := &Entry{
		Payload:   payload,
		Endpoint:  key.Endpoint,
		ExpiresAt: now.Add(key.Endpoint.TTL()),
		CreatedAt: now,
	}
	fingerprint := key.Fingerprint()

	m.memory.set(fingerprint, entry)

	if m.store != nil {
		if err := m.store.set(ctx, fingerprint, key, entry); err != nil {
			CacheErrors.WithLabelValues("set").Inc()
			m.logger.Warn().Err(err).
				Str("fingerprint", fingerprint).
				Msg("Persistent cache set failed")
		}
	}

	m.logger.Debug().
		Str("fingerprint", fingerprint).
		Str("endpoint", string(key.Endpoint)).
		Time("expires_at", entry.ExpiresAt).
		Msg("Cached payload")
}

// SweepExpired deletes expired persistent rows. The memory tier self-evicts
// lazily on read and needs no sweeping.
func (m *Manager) SweepExpired(ctx context.Context) (int64, error) {
	if m.store == nil {
		return 0, nil
	}
	removed, err := m.store.sweep(ctx)
	if err != nil {
		CacheErrors.WithLabelValues("sweep").Inc()
		return 0, err
	}
	if removed > 0 {
		CacheSweptEntries.Add(float64(removed))
		m.logger.Info().Int64("removed", removed).Msg("Swept expired cache entries")
	}
	return removed, nil
}

// Clear drops both tiers entirely.
func (m *Manager) Clear(ctx context.Context) error {
	m.memory.clear()
	if m.store == nil {
		return nil
	}
	if err := m.store.clear(ctx); err != nil {
		CacheErrors.WithLabelValues("clear").Inc()
		return err
	}
	m.logger.Info().Msg("Cache cleared")
	return nil
}

// Stats reports the in-process entry count and the persistent per-endpoint
// rollup.
func (m *Manager) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{MemoryEntries: m.memory.len()}
	if m.store == nil {
		return stats, nil
	}
	persistent, err := m.store.stats(ctx)
	if err != nil {
		CacheErrors.WithLabelValues("stats").Inc()
		return nil, err
	}
	stats.Persistent = persistent
	return stats, nil
}
