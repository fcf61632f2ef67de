package storage

import (
	"context"

	"github.com/mcoot/roomserver/internal/model"
)

// Storage defines the interface for the server's audit journal
type Storage interface {
	// Chat log operations
	AppendChatEntry(ctx context.Context, entry *model.ChatEntry) error
	// GetChatLog returns up to limit of the most recent entries, oldest
	// first. A limit of zero or less returns everything retained.
	GetChatLog(ctx context.Context, limit int) ([]*model.ChatEntry, error)

	// Room snapshot operations
	SaveRoomSnapshot(ctx context.Context, snap *model.RoomSnapshot) error
	GetRoomSnapshot(ctx context.Context, id model.RoomID) (*model.RoomSnapshot, error)
	// ListRoomSnapshots returns every stored snapshot ordered by room ID
	ListRoomSnapshots(ctx context.Context) ([]*model.RoomSnapshot, error)
	DeleteRoomSnapshot(ctx context.Context, id model.RoomID) error
}
