package redis

import (
	"fmt"

	"github.com/mcoot/roomserver/internal/model"
)

// Key prefix for all server data
const keyPrefix = "roomserver"

// chatLogKey returns the Redis key for the chat log LIST
func chatLogKey() string {
	return fmt.Sprintf("%s:chatlog", keyPrefix)
}

// roomSnapshotKey returns the Redis key for a RoomSnapshot
func roomSnapshotKey(id model.RoomID) string {
	return fmt.Sprintf("%s:room:%d", keyPrefix, id)
}

// roomsIndexKey returns the Redis key for the SET of snapshot keys
func roomsIndexKey() string {
	return fmt.Sprintf("%s:idx:rooms", keyPrefix)
}
