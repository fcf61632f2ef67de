package ws

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/roomserver/internal/dependencies/mocks"
	"github.com/mcoot/roomserver/internal/model"
	"github.com/mcoot/roomserver/internal/services/dispatch"
	"github.com/mcoot/roomserver/internal/services/registry"
	"github.com/mcoot/roomserver/internal/services/room"
	"github.com/mcoot/roomserver/internal/testutil"
	"github.com/mcoot/roomserver/internal/wire"
)

type nopRecorder struct{}

func (nopRecorder) RecordChat(model.ChatEntry)     {}
func (nopRecorder) RecordRoom(model.RoomSnapshot)  {}
func (nopRecorder) RecordRoomRemoved(model.RoomID) {}

type testServer struct {
	server   *httptest.Server
	hub      *Hub
	registry *registry.Registry
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := testutil.NopLogger()
	clock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	reg := registry.New(clock)
	rooms := room.NewManager(room.DefaultConfig(), clock, logger)
	dispatcher := dispatch.New(dispatch.DefaultConfig(), reg, rooms, nopRecorder{}, clock, logger)

	hub := NewHub(logger)
	handler := NewHandler(DefaultConfig(), hub, dispatcher, mocks.NewMockRandom(), logger)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		dispatcher.Run(ctx, hub)
		close(done)
	}()

	srv := httptest.NewServer(handler)
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
		cancel()
		<-done
	})
	return &testServer{server: srv, hub: hub, registry: reg}
}

func (ts *testServer) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.server.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = conn.Close()
		if resp != nil {
			_ = resp.Body.Close()
		}
	})
	return conn
}

func write(t *testing.T, conn *websocket.Conn, msg wire.Message) {
	t.Helper()
	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, wire.MustEncode(msg)))
}

func read(t *testing.T, conn *websocket.Conn) wire.Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	messageType, data, err := conn.ReadMessage()
	require.NoError(t, err)
	require.Equal(t, websocket.BinaryMessage, messageType)
	msg, err := wire.Decode(data)
	require.NoError(t, err)
	return msg
}

func TestConnectReceivesWelcome(t *testing.T) {
	ts := newTestServer(t)
	conn := ts.dial(t)

	welcome, ok := read(t, conn).(wire.Welcome)
	require.True(t, ok)
	assert.Equal(t, dispatch.WelcomeText, welcome.Text)
	assert.Eventually(t, func() bool { return ts.hub.PeerCount() == 1 }, time.Second, 5*time.Millisecond)
}

func TestLoginAndChatBetweenPeers(t *testing.T) {
	ts := newTestServer(t)

	alice := ts.dial(t)
	read(t, alice)
	write(t, alice, wire.Login{Username: "alice"})
	assert.Equal(t, wire.NoticeLoginAccepted, read(t, alice).(wire.Notice).Code)

	bob := ts.dial(t)
	read(t, bob)
	write(t, bob, wire.Login{Username: "bob"})
	assert.Equal(t, wire.NoticeLoginAccepted, read(t, bob).(wire.Notice).Code)

	write(t, alice, wire.PublicChat{Text: "hi bob"})
	chat, ok := read(t, bob).(wire.PublicChat)
	require.True(t, ok)
	assert.Equal(t, "alice", chat.Sender)
	assert.Equal(t, "hi bob", chat.Text)
}

func TestMalformedFrameKeepsConnection(t *testing.T) {
	ts := newTestServer(t)
	conn := ts.dial(t)
	read(t, conn)

	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, []byte{0xff}))
	assert.Equal(t, wire.NoticeMalformedMessage, read(t, conn).(wire.Notice).Code)

	write(t, conn, wire.Login{Username: "alice"})
	assert.Equal(t, wire.NoticeLoginAccepted, read(t, conn).(wire.Notice).Code)
}

func TestDisconnectUnregisters(t *testing.T) {
	ts := newTestServer(t)
	conn := ts.dial(t)
	read(t, conn)
	write(t, conn, wire.Login{Username: "alice"})
	read(t, conn)

	require.NoError(t, conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	_ = conn.Close()

	assert.Eventually(t, func() bool {
		return ts.hub.PeerCount() == 0 && ts.registry.Len() == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestHubSendUnknownPeer(t *testing.T) {
	hub := NewHub(testutil.NopLogger())
	err := hub.Send("missing", []byte{1}, dispatch.ReliableOrdered)
	assert.ErrorIs(t, err, ErrUnknownPeer)
}
