package response

import (
	"time"

	"github.com/mcoot/roomserver/internal/model"
	"github.com/mcoot/roomserver/internal/services/registry"
)

// Health is the response for the health endpoint
type Health struct {
	Status          string `json:"status"`
	Clients         int    `json:"clients"`
	Rooms           int    `json:"rooms"`
	RoomsInProgress int    `json:"rooms_in_progress"`
}

// Client represents a logged-in client in API responses
type Client struct {
	DisplayName string    `json:"display_name"`
	JoinedAt    time.Time `json:"joined_at"`
	RoomID      *int32    `json:"room_id,omitempty"`
}

// ClientFromRegistry converts a registry entry
func ClientFromRegistry(c registry.Client) Client {
	var roomID *int32
	if c.RoomID != 0 {
		id := int32(c.RoomID)
		roomID = &id
	}
	return Client{
		DisplayName: c.DisplayName,
		JoinedAt:    c.JoinedAt,
		RoomID:      roomID,
	}
}

// Roster lists clients in join order
type Roster struct {
	Clients []Client `json:"clients"`
}

// RosterFromRegistry converts a registry snapshot
func RosterFromRegistry(clients []registry.Client) Roster {
	result := make([]Client, len(clients))
	for i, c := range clients {
		result[i] = ClientFromRegistry(c)
	}
	return Roster{Clients: result}
}

// Room represents a room snapshot
type Room struct {
	ID         int32     `json:"id"`
	Kind       string    `json:"kind"`
	State      string    `json:"state"`
	Players    []string  `json:"players"`
	Spectators []string  `json:"spectators"`
	MoveNumber int       `json:"move_number"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// RoomFromModel converts model.RoomSnapshot. Empty player slots are omitted.
func RoomFromModel(s *model.RoomSnapshot) Room {
	players := make([]string, 0, len(s.Players))
	for _, p := range s.Players {
		if p != "" {
			players = append(players, p)
		}
	}

	spectators := s.Spectators
	if spectators == nil {
		spectators = []string{}
	}

	return Room{
		ID:         int32(s.ID),
		Kind:       s.Kind.String(),
		State:      string(s.State),
		Players:    players,
		Spectators: spectators,
		MoveNumber: s.MoveNumber,
		UpdatedAt:  s.UpdatedAt,
	}
}

// RoomList is the response for the room listing
type RoomList struct {
	Rooms []Room `json:"rooms"`
}

// ChatEntry represents one chat log line
type ChatEntry struct {
	Sender     string    `json:"sender"`
	Target     string    `json:"target,omitempty"`
	Text       string    `json:"text"`
	Private    bool      `json:"private"`
	ReceivedAt time.Time `json:"received_at"`
}

// ChatEntryFromModel converts model.ChatEntry
func ChatEntryFromModel(e *model.ChatEntry) ChatEntry {
	return ChatEntry{
		Sender:     e.Sender,
		Target:     e.Target,
		Text:       e.Text,
		Private:    e.IsPrivate(),
		ReceivedAt: e.ReceivedAt,
	}
}

// ChatLog is the response for the chat log endpoint
type ChatLog struct {
	Entries []ChatEntry `json:"entries"`
}
