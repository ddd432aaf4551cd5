package cache

import (
	"time"
)

// Entry represents a cached provider response.
type Entry struct {
	// Payload is the serialized response body.
	Payload []byte `json:"payload"`

	// Endpoint is the provider endpoint bucket this entry belongs to.
	Endpoint Endpoint `json:"endpoint"`

	// ExpiresAt is when the entry becomes stale.
	ExpiresAt time.Time `json:"expires_at"`

	// CreatedAt is when the entry was written (diagnostics).
	CreatedAt time.Time `json:"created_at"`
}

// IsExpired returns true if the entry has expired.
func (e *Entry) IsExpired() bool {
	return time.Now().After(e.ExpiresAt)
}

// TTL returns the time until expiration.
// Returns 0 if already expired.
func (e *Entry) TTL() time.Duration {
	ttl := time.Until(e.ExpiresAt)
	if ttl < 0 {
		return 0
	}
	return ttl
}
