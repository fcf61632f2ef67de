package ws

import "time"

// Config holds WebSocket transport settings
type Config struct {
	// WriteWait is the time allowed to write a frame to the peer
	WriteWait time.Duration
	// PongWait is how long a peer may stay silent before it is dropped
	PongWait time.Duration
	// PingPeriod must be shorter than PongWait
	PingPeriod time.Duration
	// MaxMessageSize bounds inbound frames
	MaxMessageSize int64
	// SendBufferSize is the per-peer outbound queue length
	SendBufferSize int

	ReadBufferSize  int
	WriteBufferSize int
}

// DefaultConfig returns the default transport settings
func DefaultConfig() Config {
	return Config{
		WriteWait:       10 * time.Second,
		PongWait:        60 * time.Second,
		PingPeriod:      54 * time.Second,
		MaxMessageSize:  64 * 1024,
		SendBufferSize:  256,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}
}
