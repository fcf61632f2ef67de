package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
}

// NewOutput creates a new Output formatter writing to w
func NewOutput(format string, w io.Writer) *Output {
	return &Output{format: format, w: w}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case HealthResult:
		o.printHealthResult(v)
	case Roster:
		o.printRoster(v)
	case RoomList:
		o.printRoomList(v)
	case Room:
		o.printRoom(v)
	case ChatLog:
		o.printChatLog(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// HealthResult response type (matches API)
type HealthResult struct {
	Status          string `json:"status"`
	Clients         int    `json:"clients"`
	Rooms           int    `json:"rooms"`
	RoomsInProgress int    `json:"rooms_in_progress"`
}

// RosterClient response type
type RosterClient struct {
	DisplayName string    `json:"display_name"`
	JoinedAt    time.Time `json:"joined_at"`
	RoomID      *int32    `json:"room_id,omitempty"`
}

// Roster response type
type Roster struct {
	Clients []RosterClient `json:"clients"`
}

// Room response type
type Room struct {
	ID         int32     `json:"id"`
	Kind       string    `json:"kind"`
	State      string    `json:"state"`
	Players    []string  `json:"players"`
	Spectators []string  `json:"spectators"`
	MoveNumber int       `json:"move_number"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// RoomList response type
type RoomList struct {
	Rooms []Room `json:"rooms"`
}

// ChatEntry response type
type ChatEntry struct {
	Sender     string    `json:"sender"`
	Target     string    `json:"target,omitempty"`
	Text       string    `json:"text"`
	Private    bool      `json:"private"`
	ReceivedAt time.Time `json:"received_at"`
}

// ChatLog response type
type ChatLog struct {
	Entries []ChatEntry `json:"entries"`
}

func (o *Output) printHealthResult(h HealthResult) {
	fmt.Fprintf(o.w, "Status: %s\n", h.Status)
	fmt.Fprintf(o.w, "Clients: %d\n", h.Clients)
	fmt.Fprintf(o.w, "Rooms: %d (%d in progress)\n", h.Rooms, h.RoomsInProgress)
}

func (o *Output) printRoster(r Roster) {
	fmt.Fprintf(o.w, "Clients (%d):\n", len(r.Clients))
	for _, c := range r.Clients {
		room := ""
		if c.RoomID != nil {
			room = fmt.Sprintf(" [room %d]", *c.RoomID)
		}
		fmt.Fprintf(o.w, "  - %s since %s%s\n", c.DisplayName, c.JoinedAt.Format(time.DateTime), room)
	}
}

func (o *Output) printRoomList(l RoomList) {
	if len(l.Rooms) == 0 {
		fmt.Fprintln(o.w, "No rooms")
		return
	}
	for _, r := range l.Rooms {
		fmt.Fprintf(o.w, "%d\t%s\t%s\t%s\n", r.ID, r.Kind, r.State, strings.Join(r.Players, " vs "))
	}
}

func (o *Output) printRoom(r Room) {
	fmt.Fprintf(o.w, "Room: %d\n", r.ID)
	fmt.Fprintf(o.w, "Game: %s\n", r.Kind)
	fmt.Fprintf(o.w, "State: %s\n", r.State)
	fmt.Fprintf(o.w, "Moves: %d\n", r.MoveNumber)
	fmt.Fprintf(o.w, "Players (%d):\n", len(r.Players))
	for _, p := range r.Players {
		fmt.Fprintf(o.w, "  - %s\n", p)
	}
	if len(r.Spectators) > 0 {
		fmt.Fprintf(o.w, "Spectators: %s\n", strings.Join(r.Spectators, ", "))
	}
}

func (o *Output) printChatLog(l ChatLog) {
	for _, e := range l.Entries {
		timestamp := e.ReceivedAt.Format(time.DateTime)
		if e.Private {
			fmt.Fprintf(o.w, "[%s] %s -> %s: %s\n", timestamp, e.Sender, e.Target, e.Text)
		} else {
			fmt.Fprintf(o.w, "[%s] %s: %s\n", timestamp, e.Sender, e.Text)
		}
	}
}
