package redis

import "time"

// Config holds Redis connection and behavior settings
type Config struct {
	// URL is the Redis connection URL (e.g., redis://localhost:6379)
	URL string

	// Pool settings
	PoolSize     int
	MinIdleConns int

	// EntryTTL bounds how long attendance entries are retained. Zero
	// keeps them forever. Quorum dedup state always expires after
	// QuorumStateTTL since it is ephemeral per-date trigger state.
	EntryTTL       time.Duration
	QuorumStateTTL time.Duration
}

// DefaultConfig returns sensible defaults for Redis configuration
func DefaultConfig() Config {
	return Config{
		URL:            "redis://localhost:6379",
		PoolSize:       10,
		MinIdleConns:   2,
		EntryTTL:       0,
		QuorumStateTTL: 48 * time.Hour,
	}
}
