package model

import "time"

// RoomID uniquely identifies a room within a server process
type RoomID int32

// GameKind selects the rules a room plays by
type GameKind int32

const (
	GameInvalid    GameKind = -1
	GameBattleship GameKind = 0
	GameCheckers   GameKind = 1
)

// String returns a short label for the game kind
func (k GameKind) String() string {
	switch k {
	case GameBattleship:
		return "battleship"
	case GameCheckers:
		return "checkers"
	default:
		return "invalid"
	}
}

// RoomState represents the current phase of a room
type RoomState string

const (
	RoomStateCreated         RoomState = "created"
	RoomStateAwaitingPlayers RoomState = "awaiting_players"
	RoomStateInProgress      RoomState = "in_progress"
	RoomStateFinished        RoomState = "finished"
)

// SeatSpectator is the seat reported for members without a player slot
const SeatSpectator = -1

// BattleshipState is the per-room payload for battleship rooms
type BattleshipState struct {
	Boards [2]Board
}

// Room is an authoritative container for one match.
// Slots and Spectators reference identities owned by the registry.
type Room struct {
	ID         RoomID
	Kind       GameKind
	State      RoomState
	Slots      [2]*ClientIdentity
	Spectators []*ClientIdentity
	MoveNumber int

	// MaxSpectators caps the spectator list; zero means no cap
	MaxSpectators int

	// Set only for GameBattleship
	Battleship *BattleshipState

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewRoom creates a room of the given kind with fresh boards
func NewRoom(id RoomID, kind GameKind, now time.Time) (*Room, error) {
	room := &Room{
		ID:        id,
		Kind:      kind,
		State:     RoomStateCreated,
		CreatedAt: now,
		UpdatedAt: now,
	}

	switch kind {
	case GameBattleship:
		room.Battleship = &BattleshipState{}
		room.Battleship.Boards[0].Reset()
		room.Battleship.Boards[1].Reset()
	case GameCheckers:
		// Rules not implemented; the room only tracks membership
	default:
		return nil, ErrUnsupportedGame
	}

	room.State = RoomStateAwaitingPlayers
	return room, nil
}

// Seat returns the slot index held by the handle, or SeatSpectator
func (r *Room) Seat(handle ConnectionHandle) int {
	for i, c := range r.Slots {
		if c != nil && c.Handle == handle {
			return i
		}
	}
	return SeatSpectator
}

// IsMember reports whether the handle is seated or spectating
func (r *Room) IsMember(handle ConnectionHandle) bool {
	if r.Seat(handle) != SeatSpectator {
		return true
	}
	for _, c := range r.Spectators {
		if c.Handle == handle {
			return true
		}
	}
	return false
}

// Members returns the seated players followed by spectators
func (r *Room) Members() []*ClientIdentity {
	members := make([]*ClientIdentity, 0, len(r.Slots)+len(r.Spectators))
	for _, c := range r.Slots {
		if c != nil {
			members = append(members, c)
		}
	}
	return append(members, r.Spectators...)
}

// IsEmpty reports whether nobody is left in the room
func (r *Room) IsEmpty() bool {
	return r.Slots[0] == nil && r.Slots[1] == nil && len(r.Spectators) == 0
}

// FillSlot seats the client in the first free slot, or adds them as a
// spectator when both slots are taken. Filling the second slot starts the game.
func (r *Room) FillSlot(client *ClientIdentity, now time.Time) (int, error) {
	if r.State == RoomStateFinished {
		return SeatSpectator, ErrRoomFinished
	}
	if r.IsMember(client.Handle) {
		return SeatSpectator, ErrAlreadyInRoom
	}

	seat := SeatSpectator
	for i := range r.Slots {
		if r.Slots[i] == nil {
			r.Slots[i] = client
			seat = i
			break
		}
	}
	if seat == SeatSpectator {
		if r.MaxSpectators > 0 && len(r.Spectators) >= r.MaxSpectators {
			return SeatSpectator, ErrRoomFull
		}
		r.Spectators = append(r.Spectators, client)
	}

	if r.State == RoomStateAwaitingPlayers && r.Slots[0] != nil && r.Slots[1] != nil {
		r.State = RoomStateInProgress
	}
	r.UpdatedAt = now
	return seat, nil
}

// RemoveMember drops the handle from the room. A seated player leaving a
// game in progress finishes it.
func (r *Room) RemoveMember(handle ConnectionHandle, now time.Time) error {
	if seat := r.Seat(handle); seat != SeatSpectator {
		r.Slots[seat] = nil
		if r.State == RoomStateInProgress {
			r.State = RoomStateFinished
		}
		r.UpdatedAt = now
		return nil
	}

	for i, c := range r.Spectators {
		if c.Handle == handle {
			r.Spectators = append(r.Spectators[:i], r.Spectators[i+1:]...)
			r.UpdatedAt = now
			return nil
		}
	}
	return ErrNotInRoom
}

func (r *Room) battleshipBoard(player int) (*Board, error) {
	if r.Battleship == nil {
		return nil, ErrUnsupportedGame
	}
	if player < 0 || player > 1 {
		return nil, ErrInvalidPlayer
	}
	return &r.Battleship.Boards[player], nil
}

// Board returns a copy of the player's board
func (r *Room) Board(player int) (Board, error) {
	board, err := r.battleshipBoard(player)
	if err != nil {
		return Board{}, err
	}
	return *board, nil
}

// ResetBoard opens every cell of the player's board
func (r *Room) ResetBoard(player int) error {
	board, err := r.battleshipBoard(player)
	if err != nil {
		return err
	}
	board.Reset()
	return nil
}

// IsValidPlacement classifies the placement against the player's board
func (r *Room) IsValidPlacement(p ShipPlacement) (PlacementVerdict, error) {
	board, err := r.battleshipBoard(p.Player)
	if err != nil {
		return PlacementValid, err
	}
	return board.CheckPlacement(p), nil
}

// SetShip applies the placement when valid. The verdict is always
// returned; only PlacementValid mutates the board.
func (r *Room) SetShip(p ShipPlacement, now time.Time) (PlacementVerdict, error) {
	board, err := r.battleshipBoard(p.Player)
	if err != nil {
		return PlacementValid, err
	}
	if r.State == RoomStateFinished {
		return PlacementValid, ErrRoomFinished
	}
	verdict := board.PlaceShip(p)
	if verdict == PlacementValid {
		r.UpdatedAt = now
	}
	return verdict, nil
}

// Move fires the player's shot at the opponent's board.
// There is no turn order or win check here.
func (r *Room) Move(player, targetX, targetY int, now time.Time) (CellState, error) {
	if _, err := r.battleshipBoard(player); err != nil {
		return CellOpen, err
	}
	if r.State != RoomStateInProgress {
		return CellOpen, ErrRoomNotInProgress
	}

	target := &r.Battleship.Boards[1-player]
	cell, err := target.Strike(targetX, targetY)
	if err != nil {
		return cell, err
	}

	r.MoveNumber++
	r.UpdatedAt = now
	return cell, nil
}

// Snapshot returns a read-only copy for reporting
func (r *Room) Snapshot() RoomSnapshot {
	snap := RoomSnapshot{
		ID:         r.ID,
		Kind:       r.Kind,
		State:      r.State,
		MoveNumber: r.MoveNumber,
		Spectators: make([]string, 0, len(r.Spectators)),
		UpdatedAt:  r.UpdatedAt,
	}
	for i, c := range r.Slots {
		if c != nil {
			snap.Players[i] = c.DisplayName
		}
	}
	for _, c := range r.Spectators {
		snap.Spectators = append(snap.Spectators, c.DisplayName)
	}
	return snap
}
