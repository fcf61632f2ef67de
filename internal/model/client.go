package model

import "time"

// ConnectionHandle is an opaque transport reference to a peer.
// The transport owns the peer; the core only compares handles.
type ConnectionHandle string

// ClientIdentity is a logged-in client
type ClientIdentity struct {
	Handle      ConnectionHandle
	DisplayName string
	JoinedAt    time.Time
}

// MaxDisplayNameLength bounds display names so they fit a short wire string
const MaxDisplayNameLength = 32
