package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

var (
	// ErrTruncated is returned when the buffer ends before a field is complete
	ErrTruncated = errors.New("wire: message truncated")
	// ErrUnknownKind is returned for a leading byte outside the protocol
	ErrUnknownKind = errors.New("wire: unknown message kind")
	// ErrFieldTooLong is returned when a string or list exceeds a uint16 prefix
	ErrFieldTooLong = errors.New("wire: field exceeds maximum length")
)

// headerSize is the kind byte plus the timestamp
const headerSize = 1 + 8

type writer struct {
	buf []byte
	err error
}

func (w *writer) u8(v uint8)   { w.buf = append(w.buf, v) }
func (w *writer) u64(v uint64) { w.buf = binary.BigEndian.AppendUint64(w.buf, v) }
func (w *writer) i32(v int32)  { w.buf = binary.BigEndian.AppendUint32(w.buf, uint32(v)) }
func (w *writer) f32(v float32) {
	w.buf = binary.BigEndian.AppendUint32(w.buf, math.Float32bits(v))
}

func (w *writer) str(s string) {
	if len(s) > math.MaxUint16 {
		w.err = ErrFieldTooLong
		return
	}
	w.buf = binary.BigEndian.AppendUint16(w.buf, uint16(len(s)))
	w.buf = append(w.buf, s...)
}

func (w *writer) strs(list []string) {
	if len(list) > math.MaxUint16 {
		w.err = ErrFieldTooLong
		return
	}
	w.buf = binary.BigEndian.AppendUint16(w.buf, uint16(len(list)))
	for _, s := range list {
		w.str(s)
	}
}

// Encode serialises a message into a new buffer
func Encode(msg Message) ([]byte, error) {
	w := &writer{buf: make([]byte, 0, 64)}
	w.u8(uint8(msg.Kind()))
	w.u64(msg.Stamp())

	switch m := msg.(type) {
	case Welcome:
		w.str(m.Text)
	case Login:
		w.str(m.Username)
	case PublicChat:
		w.str(m.Sender)
		w.str(m.Text)
	case PrivateChat:
		w.str(m.Sender)
		w.str(m.Target)
		w.str(m.Text)
	case UserList:
		w.strs(m.Names)
	case PlaceShip:
		w.i32(m.Player)
		w.i32(m.OriginX)
		w.i32(m.OriginY)
		w.i32(m.Direction)
		w.i32(m.Length)
	case UpdatePosition:
		w.i32(m.Player)
		w.f32(m.X)
		w.f32(m.Y)
		w.f32(m.Z)
	case Notice:
		w.u8(uint8(m.Code))
		w.str(m.Text)
	case PlacementResult:
		w.i32(m.Player)
		w.u8(m.Verdict)
	case CreateRoom:
		w.i32(m.GameKind)
	case JoinRoom:
		w.i32(m.RoomID)
	case RoomJoined:
		w.i32(m.RoomID)
		w.i32(m.GameKind)
		w.i32(m.Seat)
	case Fire:
		w.i32(m.Player)
		w.i32(m.TargetX)
		w.i32(m.TargetY)
	case FireResult:
		w.i32(m.Player)
		w.i32(m.TargetX)
		w.i32(m.TargetY)
		w.u8(m.Cell)
	case LeaveRoom:
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownKind, msg)
	}

	if w.err != nil {
		return nil, w.err
	}
	return w.buf, nil
}

// MustEncode is Encode for fixed messages whose fields are known to fit.
// Anything carrying client supplied text should use Encode.
func MustEncode(msg Message) []byte {
	data, err := Encode(msg)
	if err != nil {
		panic(err)
	}
	return data
}

type reader struct {
	buf []byte
	off int
	err error
}

func (r *reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if len(r.buf)-r.off < n {
		r.err = ErrTruncated
		return nil
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b
}

func (r *reader) u8() uint8 {
	if b := r.take(1); b != nil {
		return b[0]
	}
	return 0
}

func (r *reader) u16() uint16 {
	if b := r.take(2); b != nil {
		return binary.BigEndian.Uint16(b)
	}
	return 0
}

func (r *reader) u64() uint64 {
	if b := r.take(8); b != nil {
		return binary.BigEndian.Uint64(b)
	}
	return 0
}

func (r *reader) i32() int32 {
	if b := r.take(4); b != nil {
		return int32(binary.BigEndian.Uint32(b))
	}
	return 0
}

func (r *reader) f32() float32 {
	if b := r.take(4); b != nil {
		return math.Float32frombits(binary.BigEndian.Uint32(b))
	}
	return 0
}

func (r *reader) str() string {
	n := int(r.u16())
	if b := r.take(n); b != nil {
		return string(b)
	}
	return ""
}

func (r *reader) strs() []string {
	n := int(r.u16())
	if r.err != nil || n == 0 {
		return nil
	}
	// Each entry needs at least its length prefix
	if n*2 > len(r.buf)-r.off {
		r.err = ErrTruncated
		return nil
	}
	list := make([]string, 0, n)
	for i := 0; i < n && r.err == nil; i++ {
		list = append(list, r.str())
	}
	return list
}

// PeekKind returns the kind byte of a buffer without decoding it
func PeekKind(data []byte) (Kind, error) {
	if len(data) == 0 {
		return 0, ErrTruncated
	}
	return Kind(data[0]), nil
}

// Decode parses a buffer produced by Encode. Bytes after the last field
// of the message are ignored.
func Decode(data []byte) (Message, error) {
	kind, err := PeekKind(data)
	if err != nil {
		return nil, err
	}
	if !kind.Known() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, uint8(kind))
	}

	r := &reader{buf: data, off: 1}
	h := Header{Timestamp: r.u64()}

	var msg Message
	switch kind {
	case KindWelcome:
		msg = Welcome{Header: h, Text: r.str()}
	case KindLogin:
		msg = Login{Header: h, Username: r.str()}
	case KindPublicChat:
		m := PublicChat{Header: h}
		m.Sender = r.str()
		m.Text = r.str()
		msg = m
	case KindPrivateChat:
		m := PrivateChat{Header: h}
		m.Sender = r.str()
		m.Target = r.str()
		m.Text = r.str()
		msg = m
	case KindUserListRequest:
		msg = UserList{Header: h, Names: r.strs()}
	case KindPlaceShip:
		m := PlaceShip{Header: h}
		m.Player = r.i32()
		m.OriginX = r.i32()
		m.OriginY = r.i32()
		m.Direction = r.i32()
		m.Length = r.i32()
		msg = m
	case KindUpdatePosition:
		m := UpdatePosition{Header: h}
		m.Player = r.i32()
		m.X = r.f32()
		m.Y = r.f32()
		m.Z = r.f32()
		msg = m
	case KindNotice:
		m := Notice{Header: h}
		m.Code = NoticeCode(r.u8())
		m.Text = r.str()
		msg = m
	case KindPlacementResult:
		m := PlacementResult{Header: h}
		m.Player = r.i32()
		m.Verdict = r.u8()
		msg = m
	case KindCreateRoom:
		msg = CreateRoom{Header: h, GameKind: r.i32()}
	case KindJoinRoom:
		msg = JoinRoom{Header: h, RoomID: r.i32()}
	case KindRoomJoined:
		m := RoomJoined{Header: h}
		m.RoomID = r.i32()
		m.GameKind = r.i32()
		m.Seat = r.i32()
		msg = m
	case KindFire:
		m := Fire{Header: h}
		m.Player = r.i32()
		m.TargetX = r.i32()
		m.TargetY = r.i32()
		msg = m
	case KindFireResult:
		m := FireResult{Header: h}
		m.Player = r.i32()
		m.TargetX = r.i32()
		m.TargetY = r.i32()
		m.Cell = r.u8()
		msg = m
	case KindLeaveRoom:
		msg = LeaveRoom{Header: h}
	}

	if r.err != nil {
		return nil, fmt.Errorf("decode %s: %w", kind, r.err)
	}
	return msg, nil
}
