package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/mcoot/roomserver/internal/model"
	"github.com/mcoot/roomserver/internal/storage"
)

// DefaultMaxChatEntries bounds the retained chat log
const DefaultMaxChatEntries = 1000

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu sync.RWMutex

	chatLog        []*model.ChatEntry
	maxChatEntries int
	rooms          map[model.RoomID]*model.RoomSnapshot
}

// New creates a new in-memory storage instance
func New() *Storage {
	return NewWithLimit(DefaultMaxChatEntries)
}

// NewWithLimit creates an in-memory storage retaining at most maxChatEntries
// chat entries. Zero or less keeps everything.
func NewWithLimit(maxChatEntries int) *Storage {
	return &Storage{
		maxChatEntries: maxChatEntries,
		rooms:          make(map[model.RoomID]*model.RoomSnapshot),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Chat log operations

func (s *Storage) AppendChatEntry(ctx context.Context, entry *model.ChatEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *entry
	s.chatLog = append(s.chatLog, &stored)
	if s.maxChatEntries > 0 && len(s.chatLog) > s.maxChatEntries {
		s.chatLog = slices.Clone(s.chatLog[len(s.chatLog)-s.maxChatEntries:])
	}
	return nil
}

func (s *Storage) GetChatLog(ctx context.Context, limit int) ([]*model.ChatEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := s.chatLog
	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}

	result := make([]*model.ChatEntry, 0, len(entries))
	for _, e := range entries {
		copied := *e
		result = append(result, &copied)
	}
	return result, nil
}

// Room snapshot operations

func (s *Storage) SaveRoomSnapshot(ctx context.Context, snap *model.RoomSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[snap.ID] = cloneSnapshot(snap)
	return nil
}

func (s *Storage) GetRoomSnapshot(ctx context.Context, id model.RoomID) (*model.RoomSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.rooms[id]
	if !ok {
		return nil, model.ErrSnapshotNotFound
	}
	return cloneSnapshot(snap), nil
}

func (s *Storage) ListRoomSnapshots(ctx context.Context) ([]*model.RoomSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*model.RoomSnapshot, 0, len(s.rooms))
	for _, snap := range s.rooms {
		result = append(result, cloneSnapshot(snap))
	}
	slices.SortFunc(result, func(a, b *model.RoomSnapshot) int {
		return int(a.ID) - int(b.ID)
	})
	return result, nil
}

func (s *Storage) DeleteRoomSnapshot(ctx context.Context, id model.RoomID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, id)
	return nil
}

func cloneSnapshot(snap *model.RoomSnapshot) *model.RoomSnapshot {
	copied := *snap
	copied.Spectators = slices.Clone(snap.Spectators)
	return &copied
}
