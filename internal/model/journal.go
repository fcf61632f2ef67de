package model

import "time"

// ChatEntry is one line of the chat audit trail
type ChatEntry struct {
	Sender     string    `json:"sender"`
	Target     string    `json:"target,omitempty"` // Empty for public messages
	Text       string    `json:"text"`
	Timestamp  uint64    `json:"timestamp"` // Sender supplied
	ReceivedAt time.Time `json:"received_at"`
}

// IsPrivate reports whether the entry was addressed to a single client
func (e *ChatEntry) IsPrivate() bool {
	return e.Target != ""
}

// RoomSnapshot is a point-in-time copy of a room for reporting
type RoomSnapshot struct {
	ID         RoomID    `json:"id"`
	Kind       GameKind  `json:"kind"`
	State      RoomState `json:"state"`
	Players    [2]string `json:"players"`
	Spectators []string  `json:"spectators"`
	MoveNumber int       `json:"move_number"`
	UpdatedAt  time.Time `json:"updated_at"`
}
