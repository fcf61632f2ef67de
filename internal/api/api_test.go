package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/roomserver/internal/api"
	"github.com/mcoot/roomserver/internal/api/apierr"
	"github.com/mcoot/roomserver/internal/api/response"
	"github.com/mcoot/roomserver/internal/factory"
	"github.com/mcoot/roomserver/internal/model"
	"github.com/mcoot/roomserver/internal/testutil"
	"github.com/mcoot/roomserver/internal/wire"
)

// testServer creates a test server with all dependencies
type testServer struct {
	handler http.Handler
	app     *factory.TestApp
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	app := factory.NewTestApp()
	router := api.NewRouter(api.RouterConfig{
		Logger:    testutil.NopLogger(),
		Registry:  app.Registry,
		Rooms:     app.Rooms,
		Storage:   app.Storage,
		WebSocket: app.WSHandler,
	})

	return &testServer{handler: router, app: app}
}

func (ts *testServer) get(path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v))
	return v
}

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t)

	_, err := ts.app.Registry.Register("h1", "alice")
	require.NoError(t, err)
	snap, err := ts.app.Rooms.Create(model.GameBattleship)
	require.NoError(t, err)
	_, _, err = ts.app.Rooms.Join(snap.ID, model.ClientIdentity{Handle: "h1", DisplayName: "alice"})
	require.NoError(t, err)
	_, _, err = ts.app.Rooms.Join(snap.ID, model.ClientIdentity{Handle: "h2", DisplayName: "bob"})
	require.NoError(t, err)

	rr := ts.get("/api/v1/health")
	assert.Equal(t, http.StatusOK, rr.Code)

	assert.Equal(t, "no-store", rr.Header().Get("Cache-Control"))

	health := decode[response.Health](t, rr)
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, 1, health.Clients)
	assert.Equal(t, 1, health.Rooms)
	assert.Equal(t, 1, health.RoomsInProgress)
}

func TestRoster(t *testing.T) {
	ts := newTestServer(t)

	_, err := ts.app.Registry.Register("h1", "alice")
	require.NoError(t, err)
	_, err = ts.app.Registry.Register("h2", "bob")
	require.NoError(t, err)
	require.NoError(t, ts.app.Registry.SetRoom("h2", 3))

	rr := ts.get("/api/v1/roster")
	assert.Equal(t, http.StatusOK, rr.Code)

	roster := decode[response.Roster](t, rr)
	require.Len(t, roster.Clients, 2)
	assert.Equal(t, "alice", roster.Clients[0].DisplayName)
	assert.Nil(t, roster.Clients[0].RoomID)
	assert.Equal(t, "bob", roster.Clients[1].DisplayName)
	require.NotNil(t, roster.Clients[1].RoomID)
	assert.Equal(t, int32(3), *roster.Clients[1].RoomID)
}

func TestListRoomsFromStorage(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()

	require.NoError(t, ts.app.Storage.SaveRoomSnapshot(ctx, &model.RoomSnapshot{
		ID:      2,
		Kind:    model.GameCheckers,
		State:   model.RoomStateAwaitingPlayers,
		Players: [2]string{"carol", ""},
	}))
	require.NoError(t, ts.app.Storage.SaveRoomSnapshot(ctx, &model.RoomSnapshot{
		ID:         1,
		Kind:       model.GameBattleship,
		State:      model.RoomStateInProgress,
		Players:    [2]string{"alice", "bob"},
		Spectators: []string{"dave"},
		MoveNumber: 4,
	}))

	rr := ts.get("/api/v1/rooms")
	assert.Equal(t, http.StatusOK, rr.Code)

	list := decode[response.RoomList](t, rr)
	require.Len(t, list.Rooms, 2)
	assert.Equal(t, int32(1), list.Rooms[0].ID)
	assert.Equal(t, "battleship", list.Rooms[0].Kind)
	assert.Equal(t, []string{"alice", "bob"}, list.Rooms[0].Players)
	assert.Equal(t, []string{"dave"}, list.Rooms[0].Spectators)
	assert.Equal(t, 4, list.Rooms[0].MoveNumber)

	assert.Equal(t, "checkers", list.Rooms[1].Kind)
	assert.Equal(t, []string{"carol"}, list.Rooms[1].Players)
	assert.Empty(t, list.Rooms[1].Spectators)
	assert.NotNil(t, list.Rooms[1].Spectators)
}

func TestGetRoom(t *testing.T) {
	ts := newTestServer(t)
	require.NoError(t, ts.app.Storage.SaveRoomSnapshot(context.Background(), &model.RoomSnapshot{
		ID:    7,
		Kind:  model.GameBattleship,
		State: model.RoomStateFinished,
	}))

	rr := ts.get("/api/v1/rooms/7")
	assert.Equal(t, http.StatusOK, rr.Code)
	room := decode[response.Room](t, rr)
	assert.Equal(t, "finished", room.State)
	assert.Empty(t, room.Players)
}

func TestGetRoomNotFound(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.get("/api/v1/rooms/99")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	resp := decode[apierr.ErrorResponse](t, rr)
	assert.Equal(t, apierr.CodeRoomNotFound, resp.Error.Code)
}

func TestGetRoomInvalidID(t *testing.T) {
	ts := newTestServer(t)

	for _, id := range []string{"abc", "0", "-3", "99999999999"} {
		rr := ts.get("/api/v1/rooms/" + id)
		assert.Equal(t, http.StatusBadRequest, rr.Code, "id %q", id)
	}
}

func TestChatLog(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()

	for i, text := range []string{"one", "two", "three"} {
		require.NoError(t, ts.app.Storage.AppendChatEntry(ctx, &model.ChatEntry{
			Sender:    "alice",
			Text:      text,
			Timestamp: uint64(i),
		}))
	}
	require.NoError(t, ts.app.Storage.AppendChatEntry(ctx, &model.ChatEntry{
		Sender: "bob",
		Target: "alice",
		Text:   "psst",
	}))

	rr := ts.get("/api/v1/chatlog")
	assert.Equal(t, http.StatusOK, rr.Code)
	log := decode[response.ChatLog](t, rr)
	require.Len(t, log.Entries, 4)
	assert.Equal(t, "one", log.Entries[0].Text)
	assert.True(t, log.Entries[3].Private)
	assert.Equal(t, "alice", log.Entries[3].Target)

	rr = ts.get("/api/v1/chatlog?limit=2")
	assert.Equal(t, http.StatusOK, rr.Code)
	log = decode[response.ChatLog](t, rr)
	require.Len(t, log.Entries, 2)
	assert.Equal(t, "three", log.Entries[0].Text)
	assert.Equal(t, "psst", log.Entries[1].Text)
}

func TestChatLogInvalidLimit(t *testing.T) {
	ts := newTestServer(t)

	for _, limit := range []string{"0", "-1", "lots", "1001"} {
		rr := ts.get("/api/v1/chatlog?limit=" + limit)
		assert.Equal(t, http.StatusBadRequest, rr.Code, "limit %q", limit)
		resp := decode[apierr.ErrorResponse](t, rr)
		assert.Equal(t, apierr.CodeInvalidRequest, resp.Error.Code)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/health", nil)
	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestWebSocketSessionIsJournaled(t *testing.T) {
	ts := newTestServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	ts.app.Start(ctx)
	srv := httptest.NewServer(ts.handler)
	t.Cleanup(func() {
		ts.app.Hub.Close()
		srv.Close()
		cancel()
		ts.app.Wait()
	})

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	defer func() { _ = conn.Close() }()

	read := func() wire.Message {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)
		msg, err := wire.Decode(data)
		require.NoError(t, err)
		return msg
	}

	_, ok := read().(wire.Welcome)
	require.True(t, ok)

	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, wire.MustEncode(wire.Login{Username: "alice"})))
	assert.Equal(t, wire.NoticeLoginAccepted, read().(wire.Notice).Code)

	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, wire.MustEncode(wire.PublicChat{Text: "anyone here?"})))

	assert.Eventually(t, func() bool {
		rr := ts.get("/api/v1/chatlog")
		return len(decode[response.ChatLog](t, rr).Entries) == 1
	}, 2*time.Second, 10*time.Millisecond)

	roster := decode[response.Roster](t, ts.get("/api/v1/roster"))
	require.Len(t, roster.Clients, 1)
	assert.Equal(t, "alice", roster.Clients[0].DisplayName)
}
