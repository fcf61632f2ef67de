package room

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/mcoot/roomserver/internal/dependencies/clock"
	"github.com/mcoot/roomserver/internal/model"
)

// Config holds room manager settings
type Config struct {
	// MaxSpectators caps spectators per room; zero means no cap
	MaxSpectators int
}

// DefaultConfig returns the default room settings
func DefaultConfig() Config {
	return Config{
		MaxSpectators: 16,
	}
}

// Manager owns every live room. Rooms are only reached through the
// manager, which serialises access to them.
type Manager struct {
	mu     sync.Mutex
	cfg    Config
	clock  clock.Clock
	logger *slog.Logger
	rooms  map[model.RoomID]*model.Room
	nextID model.RoomID
}

// NewManager creates a room manager
func NewManager(cfg Config, clock clock.Clock, logger *slog.Logger) *Manager {
	return &Manager{
		cfg:    cfg,
		clock:  clock,
		logger: logger.With(slog.String("component", "room")),
		rooms:  make(map[model.RoomID]*model.Room),
		nextID: 1,
	}
}

func (m *Manager) get(id model.RoomID) (*model.Room, error) {
	room, ok := m.rooms[id]
	if !ok {
		return nil, fmt.Errorf("room %d: %w", id, model.ErrRoomNotFound)
	}
	return room, nil
}

// Create opens an empty room of the given kind
func (m *Manager) Create(kind model.GameKind) (model.RoomSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	room, err := model.NewRoom(m.nextID, kind, m.clock.Now())
	if err != nil {
		return model.RoomSnapshot{}, err
	}
	room.MaxSpectators = m.cfg.MaxSpectators
	m.rooms[room.ID] = room
	m.nextID++

	m.logger.Info("room created",
		slog.Int("room_id", int(room.ID)),
		slog.String("kind", kind.String()))
	return room.Snapshot(), nil
}

// Get returns a snapshot of the room
func (m *Manager) Get(id model.RoomID) (model.RoomSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	room, err := m.get(id)
	if err != nil {
		return model.RoomSnapshot{}, err
	}
	return room.Snapshot(), nil
}

// Join seats the client in the room, or adds them as a spectator
func (m *Manager) Join(id model.RoomID, client model.ClientIdentity) (int, model.RoomSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	room, err := m.get(id)
	if err != nil {
		return model.SeatSpectator, model.RoomSnapshot{}, err
	}

	seat, err := room.FillSlot(&client, m.clock.Now())
	if err != nil {
		return model.SeatSpectator, model.RoomSnapshot{}, err
	}

	m.logger.Info("client joined room",
		slog.Int("room_id", int(id)),
		slog.String("client", client.DisplayName),
		slog.Int("seat", seat),
		slog.String("state", string(room.State)))
	return seat, room.Snapshot(), nil
}

// Leave removes the client from the room. The room is discarded once
// empty, which is reported by removed.
func (m *Manager) Leave(id model.RoomID, handle model.ConnectionHandle) (snap model.RoomSnapshot, removed bool, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	room, err := m.get(id)
	if err != nil {
		return model.RoomSnapshot{}, false, err
	}
	if err := room.RemoveMember(handle, m.clock.Now()); err != nil {
		return model.RoomSnapshot{}, false, err
	}

	snap = room.Snapshot()
	if room.IsEmpty() {
		delete(m.rooms, id)
		m.logger.Info("room removed", slog.Int("room_id", int(id)))
		return snap, true, nil
	}
	return snap, false, nil
}

// Remove discards the room regardless of its members
func (m *Manager) Remove(id model.RoomID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := m.get(id); err != nil {
		return err
	}
	delete(m.rooms, id)
	return nil
}

// Seat returns the member's slot, or SeatSpectator for spectators
func (m *Manager) Seat(id model.RoomID, handle model.ConnectionHandle) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	room, err := m.get(id)
	if err != nil {
		return model.SeatSpectator, err
	}
	if !room.IsMember(handle) {
		return model.SeatSpectator, model.ErrNotInRoom
	}
	return room.Seat(handle), nil
}

// Members returns the room's players followed by its spectators
func (m *Manager) Members(id model.RoomID) ([]model.ClientIdentity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	room, err := m.get(id)
	if err != nil {
		return nil, err
	}

	members := room.Members()
	result := make([]model.ClientIdentity, 0, len(members))
	for _, c := range members {
		result = append(result, *c)
	}
	return result, nil
}

// PlaceShip applies a placement to the player's board and returns its verdict
func (m *Manager) PlaceShip(id model.RoomID, p model.ShipPlacement) (model.PlacementVerdict, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	room, err := m.get(id)
	if err != nil {
		return model.PlacementValid, err
	}
	return room.SetShip(p, m.clock.Now())
}

// ResetBoard clears the player's board
func (m *Manager) ResetBoard(id model.RoomID, player int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	room, err := m.get(id)
	if err != nil {
		return err
	}
	return room.ResetBoard(player)
}

// Fire strikes the opponent's board and returns the resulting cell
func (m *Manager) Fire(id model.RoomID, player, x, y int) (model.CellState, model.RoomSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	room, err := m.get(id)
	if err != nil {
		return model.CellOpen, model.RoomSnapshot{}, err
	}
	cell, err := room.Move(player, x, y, m.clock.Now())
	if err != nil {
		return cell, model.RoomSnapshot{}, err
	}
	return cell, room.Snapshot(), nil
}

// Snapshots returns every live room ordered by ID
func (m *Manager) Snapshots() []model.RoomSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snaps := make([]model.RoomSnapshot, 0, len(m.rooms))
	for _, room := range m.rooms {
		snaps = append(snaps, room.Snapshot())
	}
	slices.SortFunc(snaps, func(a, b model.RoomSnapshot) int {
		return int(a.ID) - int(b.ID)
	})
	return snaps
}

// Len returns the number of live rooms
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rooms)
}
