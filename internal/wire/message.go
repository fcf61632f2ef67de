// Package wire encodes and decodes the fixed-layout binary messages
// exchanged between clients and the server.
//
// Every message starts with a one byte kind and an eight byte sender
// timestamp, followed by the kind's fields in a fixed order. Integers are
// big-endian; strings carry a uint16 length prefix.
package wire

// Kind identifies a message type on the wire.
// Values are stable: new kinds are appended, never renumbered.
type Kind uint8

// userPacketBase is the first identifier RakNet leaves free for application
// packets, so existing clients keep working.
const userPacketBase Kind = 134

const (
	KindWelcome Kind = userPacketBase + 1 + iota
	KindLogin
	KindPublicChat
	KindPrivateChat
	KindUserListRequest
	KindPlaceShip
	KindUpdatePosition
	KindNotice
	KindPlacementResult
	KindCreateRoom
	KindJoinRoom
	KindRoomJoined
	KindFire
	KindFireResult
	KindLeaveRoom
)

var kindNames = map[Kind]string{
	KindWelcome:         "welcome",
	KindLogin:           "login",
	KindPublicChat:      "public_chat",
	KindPrivateChat:     "private_chat",
	KindUserListRequest: "user_list",
	KindPlaceShip:       "place_ship",
	KindUpdatePosition:  "update_position",
	KindNotice:          "notice",
	KindPlacementResult: "placement_result",
	KindCreateRoom:      "create_room",
	KindJoinRoom:        "join_room",
	KindRoomJoined:      "room_joined",
	KindFire:            "fire",
	KindFireResult:      "fire_result",
	KindLeaveRoom:       "leave_room",
}

// String returns the kind's name, or "unknown"
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Known reports whether the kind is part of the protocol
func (k Kind) Known() bool {
	_, ok := kindNames[k]
	return ok
}

// Message is implemented by every wire message.
// Messages are plain values and are not modified after construction.
type Message interface {
	Kind() Kind
	Stamp() uint64
}

// Header carries the fields shared by all messages
type Header struct {
	Timestamp uint64
}

// Stamp returns the sender supplied timestamp
func (h Header) Stamp() uint64 { return h.Timestamp }

// Welcome is sent by the server when a peer connects
type Welcome struct {
	Header
	Text string
}

// Login asks the server to register a display name for the connection
type Login struct {
	Header
	Username string
}

// PublicChat is a message for every logged-in client
type PublicChat struct {
	Header
	Sender string
	Text   string
}

// PrivateChat is a message for a single named client
type PrivateChat struct {
	Header
	Sender string
	Target string
	Text   string
}

// UserList is both the roster request (no names) and its reply
type UserList struct {
	Header
	Names []string
}

// PlaceShip requests a ship placement on the sender's board
type PlaceShip struct {
	Header
	Player    int32
	OriginX   int32
	OriginY   int32
	Direction int32
	Length    int32
}

// UpdatePosition carries a player's spatial state for relay to the room
type UpdatePosition struct {
	Header
	Player int32
	X      float32
	Y      float32
	Z      float32
}

// Notice is a server status or rejection reply
type Notice struct {
	Header
	Code NoticeCode
	Text string
}

// PlacementResult reports the verdict of a PlaceShip request
type PlacementResult struct {
	Header
	Player  int32
	Verdict uint8
}

// CreateRoom asks the server to open a new room and seat the sender
type CreateRoom struct {
	Header
	GameKind int32
}

// JoinRoom asks to be seated in, or to spectate, an existing room
type JoinRoom struct {
	Header
	RoomID int32
}

// RoomJoined confirms room membership; Seat is -1 for spectators
type RoomJoined struct {
	Header
	RoomID   int32
	GameKind int32
	Seat     int32
}

// Fire targets a cell on the opponent's board
type Fire struct {
	Header
	Player  int32
	TargetX int32
	TargetY int32
}

// FireResult reports the cell state after a shot
type FireResult struct {
	Header
	Player  int32
	TargetX int32
	TargetY int32
	Cell    uint8
}

// LeaveRoom removes the sender from their room
type LeaveRoom struct {
	Header
}

func (Welcome) Kind() Kind         { return KindWelcome }
func (Login) Kind() Kind           { return KindLogin }
func (PublicChat) Kind() Kind      { return KindPublicChat }
func (PrivateChat) Kind() Kind     { return KindPrivateChat }
func (UserList) Kind() Kind        { return KindUserListRequest }
func (PlaceShip) Kind() Kind       { return KindPlaceShip }
func (UpdatePosition) Kind() Kind  { return KindUpdatePosition }
func (Notice) Kind() Kind          { return KindNotice }
func (PlacementResult) Kind() Kind { return KindPlacementResult }
func (CreateRoom) Kind() Kind      { return KindCreateRoom }
func (JoinRoom) Kind() Kind        { return KindJoinRoom }
func (RoomJoined) Kind() Kind      { return KindRoomJoined }
func (Fire) Kind() Kind            { return KindFire }
func (FireResult) Kind() Kind      { return KindFireResult }
func (LeaveRoom) Kind() Kind       { return KindLeaveRoom }

// NoticeCode classifies a Notice
type NoticeCode uint8

const (
	NoticeLoginAccepted NoticeCode = iota + 1
	NoticeNameTaken
	NoticeInvalidName
	NoticeAlreadyLoggedIn
	NoticeNotAuthenticated
	NoticeTargetNotFound
	NoticeNotInRoom
	NoticeRoomNotFound
	NoticeRoomFull
	NoticeAlreadyInRoom
	NoticeNotSeated
	NoticeWrongSeat
	NoticeUnsupportedGame
	NoticeRoomNotInProgress
	NoticeAlreadyTargeted
	NoticeOutOfBounds
	NoticeMalformedMessage
	NoticePeerLeft
	NoticeRoomFinished
	NoticePeerJoined
	NoticeRoomLeft
)
