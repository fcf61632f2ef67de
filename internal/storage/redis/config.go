package redis

import "time"

// Config holds Redis connection and behavior settings
type Config struct {
	// URL is the Redis connection URL (e.g., redis://localhost:6379)
	URL string

	// Pool settings
	PoolSize     int
	MinIdleConns int

	// MaxChatEntries caps the chat log list; zero disables trimming
	MaxChatEntries int64

	// RoomSnapshotTTL expires snapshots of rooms that stop being updated
	RoomSnapshotTTL time.Duration
}

// DefaultConfig returns sensible defaults for Redis configuration
func DefaultConfig() Config {
	return Config{
		URL:             "redis://localhost:6379",
		PoolSize:        10,
		MinIdleConns:    2,
		MaxChatEntries:  1000,
		RoomSnapshotTTL: 24 * time.Hour,
	}
}
