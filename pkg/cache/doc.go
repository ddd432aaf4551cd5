// Package cache implements the two-tier response cache for provider calls:
// an in-process map for the fastest path and a SQLite table for persistence
// across restarts.
//
// Reads go memory → sqlite → miss; a sqlite hit is promoted into memory with
// the same expiry. Writes go through both tiers with a per-endpoint TTL.
// Failures of the persistent tier never fail a cache operation; the memory
// tier keeps serving and the error is logged.
package cache
