package model

import "errors"

// Common errors used across the application
var (
	// Registry errors
	ErrDuplicateName     = errors.New("display name already in use")
	ErrInvalidName       = errors.New("invalid display name")
	ErrClientNotFound    = errors.New("client not found")
	ErrAlreadyRegistered = errors.New("connection already has an identity")

	// Room errors
	ErrRoomNotFound      = errors.New("room not found")
	ErrRoomFull          = errors.New("room is full")
	ErrAlreadyInRoom     = errors.New("client is already in a room")
	ErrNotInRoom         = errors.New("client is not in the room")
	ErrNotSeated         = errors.New("client does not hold a player slot")
	ErrUnsupportedGame   = errors.New("game kind does not support this operation")
	ErrRoomNotInProgress = errors.New("room is not in progress")
	ErrRoomFinished      = errors.New("room has finished")
	ErrInvalidPlayer     = errors.New("player index must be 0 or 1")

	// Board errors
	ErrOutOfBounds     = errors.New("coordinate is off the board")
	ErrAlreadyTargeted = errors.New("cell has already been targeted")

	// Storage errors
	ErrSnapshotNotFound = errors.New("room snapshot not found")
)
