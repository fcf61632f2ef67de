package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeEveryKind(t *testing.T) {
	h := Header{Timestamp: 1700000000123}
	messages := []Message{
		Welcome{Header: h, Text: "Welcome to the server"},
		Login{Header: h, Username: "alice"},
		PublicChat{Header: h, Sender: "alice", Text: "hello all"},
		PrivateChat{Header: h, Sender: "alice", Target: "bob", Text: "psst"},
		UserList{Header: h, Names: []string{"alice", "bob"}},
		UserList{Header: h},
		PlaceShip{Header: h, Player: 1, OriginX: 2, OriginY: 3, Direction: 2, Length: 4},
		UpdatePosition{Header: h, Player: 0, X: 1.5, Y: -2.25, Z: 100},
		Notice{Header: h, Code: NoticeNameTaken, Text: "name taken"},
		PlacementResult{Header: h, Player: 0, Verdict: 2},
		CreateRoom{Header: h, GameKind: 0},
		JoinRoom{Header: h, RoomID: 42},
		RoomJoined{Header: h, RoomID: 42, GameKind: 0, Seat: -1},
		Fire{Header: h, Player: 1, TargetX: 9, TargetY: 0},
		FireResult{Header: h, Player: 1, TargetX: 9, TargetY: 0, Cell: 2},
		LeaveRoom{Header: h},
	}

	for _, msg := range messages {
		t.Run(msg.Kind().String(), func(t *testing.T) {
			data, err := Encode(msg)
			require.NoError(t, err)
			assert.Equal(t, uint8(msg.Kind()), data[0])

			decoded, err := Decode(data)
			require.NoError(t, err)
			assert.Equal(t, msg, decoded)
		})
	}
}

func TestKindIdentifiers(t *testing.T) {
	assert.Equal(t, Kind(135), KindWelcome)
	assert.Equal(t, Kind(136), KindLogin)
	assert.Equal(t, Kind(137), KindPublicChat)
	assert.Equal(t, Kind(138), KindPrivateChat)
	assert.Equal(t, Kind(139), KindUserListRequest)
	assert.Equal(t, Kind(140), KindPlaceShip)
	assert.Equal(t, Kind(149), KindLeaveRoom)
}

func TestEncodeLayout(t *testing.T) {
	data, err := Encode(Login{Header: Header{Timestamp: 1}, Username: "ab"})
	require.NoError(t, err)

	expected := []byte{
		136,
		0, 0, 0, 0, 0, 0, 0, 1,
		0, 2, 'a', 'b',
	}
	assert.Equal(t, expected, data)
}

func TestEncodeEmptyUserList(t *testing.T) {
	request := UserList{Header: Header{Timestamp: 7}}
	data, err := Encode(request)
	require.NoError(t, err)
	assert.Len(t, data, headerSize+2)

	decoded, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, request, decoded)
	assert.Nil(t, decoded.(UserList).Names)
}

func TestDecodeEmptyBuffer(t *testing.T) {
	_, err := Decode(nil)
	assert.ErrorIs(t, err, ErrTruncated)

	_, err = PeekKind([]byte{})
	assert.ErrorIs(t, err, ErrTruncated)
}

func TestDecodeUnknownKind(t *testing.T) {
	_, err := Decode([]byte{7, 0, 0, 0, 0, 0, 0, 0, 0})
	assert.ErrorIs(t, err, ErrUnknownKind)

	_, err = Decode([]byte{uint8(KindLeaveRoom) + 1})
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestDecodeTruncated(t *testing.T) {
	full, err := Encode(PlaceShip{Header: Header{Timestamp: 5}, Player: 0, OriginX: 1, OriginY: 1, Direction: 1, Length: 3})
	require.NoError(t, err)

	for n := 1; n < len(full); n++ {
		_, err := Decode(full[:n])
		assert.ErrorIs(t, err, ErrTruncated, "prefix of %d bytes", n)
	}
}

func TestDecodeShortString(t *testing.T) {
	// Length prefix claims 10 bytes, only 3 follow
	data := []byte{uint8(KindLogin), 0, 0, 0, 0, 0, 0, 0, 0, 0, 10, 'a', 'b', 'c'}
	_, err := Decode(data)
	assert.ErrorIs(t, err, ErrTruncated)
}

func TestDecodeListCountTooLarge(t *testing.T) {
	data := []byte{uint8(KindUserListRequest), 0, 0, 0, 0, 0, 0, 0, 0, 0xff, 0xff}
	_, err := Decode(data)
	assert.ErrorIs(t, err, ErrTruncated)
}

func TestDecodeIgnoresTrailingBytes(t *testing.T) {
	data, err := Encode(JoinRoom{RoomID: 3})
	require.NoError(t, err)
	data = append(data, 0xde, 0xad)

	decoded, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, JoinRoom{RoomID: 3}, decoded)
}

func TestEncodeRejectsOversizedString(t *testing.T) {
	long := make([]byte, 70000)
	_, err := Encode(PublicChat{Sender: "alice", Text: string(long)})
	assert.ErrorIs(t, err, ErrFieldTooLong)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "place_ship", KindPlaceShip.String())
	assert.Equal(t, "unknown", Kind(3).String())
	assert.False(t, Kind(134).Known())
}
