package e2e_test

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/roomserver/internal/api"
	"github.com/mcoot/roomserver/internal/factory"
	"github.com/mcoot/roomserver/internal/model"
	"github.com/mcoot/roomserver/internal/testutil"
	"github.com/mcoot/roomserver/internal/wire"
)

// cliRunner manages CLI binary execution
type cliRunner struct {
	binaryPath string
	serverURL  string
}

func newCLIRunner(t *testing.T, serverURL string) *cliRunner {
	t.Helper()

	// Find project root (where go.mod is)
	projectRoot := findProjectRoot(t)

	// Build the CLI binary
	binaryPath := filepath.Join(t.TempDir(), "roomctl-test")
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/roomctl")
	cmd.Dir = projectRoot
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "failed to build CLI: %s", string(output))

	return &cliRunner{
		binaryPath: binaryPath,
		serverURL:  serverURL,
	}
}

func (r *cliRunner) run(args ...string) (string, error) {
	fullArgs := append([]string{
		"--server", r.serverURL,
		"--output", "json",
	}, args...)

	cmd := exec.Command(r.binaryPath, fullArgs...)
	output, err := cmd.CombinedOutput()
	return string(output), err
}

func findProjectRoot(t *testing.T) string {
	t.Helper()

	dir, err := os.Getwd()
	require.NoError(t, err)

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("could not find project root (go.mod)")
		}
		dir = parent
	}
}

// testServer manages a real HTTP server for e2e tests
type testServer struct {
	url      string
	shutdown func()
}

func startTestServer(t *testing.T) *testServer {
	t.Helper()

	// Find a free port
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().String()
	require.NoError(t, listener.Close())

	// Create application
	logger := testutil.NopLogger()
	app, err := factory.New(factory.Config{Logger: logger})
	require.NoError(t, err)

	router := api.NewRouter(api.RouterConfig{
		Logger:    logger,
		Registry:  app.Registry,
		Rooms:     app.Rooms,
		Storage:   app.Storage,
		WebSocket: app.WSHandler,
	})

	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	ctx, cancel := context.WithCancel(context.Background())
	app.Start(ctx)

	// Start server
	go func() {
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			t.Logf("server error: %v", err)
		}
	}()

	// Wait for server to be ready
	serverURL := "http://" + addr
	waitForServer(t, serverURL+"/api/v1/health")

	return &testServer{
		url: serverURL,
		shutdown: func() {
			app.Hub.Close()
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			_ = server.Shutdown(shutdownCtx)
			cancel()
			app.Wait()
		},
	}
}

func waitForServer(t *testing.T, url string) {
	t.Helper()

	client := &http.Client{Timeout: 100 * time.Millisecond}
	deadline := time.Now().Add(5 * time.Second)

	for time.Now().Before(deadline) {
		resp, err := client.Get(url)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(50 * time.Millisecond)
	}

	t.Fatal("server did not become ready in time")
}

// player is a raw protocol client
type player struct {
	t    *testing.T
	conn *websocket.Conn
}

func connect(t *testing.T, serverURL, name string) *player {
	t.Helper()

	url := "ws" + strings.TrimPrefix(serverURL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	_ = resp.Body.Close()
	t.Cleanup(func() { _ = conn.Close() })

	p := &player{t: t, conn: conn}
	p.expect(wire.KindWelcome)
	p.send(wire.Login{Username: name})
	notice := p.expect(wire.KindNotice).(wire.Notice)
	require.Equal(t, wire.NoticeLoginAccepted, notice.Code)
	return p
}

func (p *player) send(msg wire.Message) {
	p.t.Helper()
	require.NoError(p.t, p.conn.WriteMessage(websocket.BinaryMessage, wire.MustEncode(msg)))
}

// expect reads until a message of the given kind arrives
func (p *player) expect(kind wire.Kind) wire.Message {
	p.t.Helper()
	for {
		require.NoError(p.t, p.conn.SetReadDeadline(time.Now().Add(3*time.Second)))
		_, data, err := p.conn.ReadMessage()
		require.NoError(p.t, err)
		msg, err := wire.Decode(data)
		require.NoError(p.t, err)
		if msg.Kind() == kind {
			return msg
		}
	}
}

// Response types for JSON parsing
type healthResponse struct {
	Status          string `json:"status"`
	Clients         int    `json:"clients"`
	Rooms           int    `json:"rooms"`
	RoomsInProgress int    `json:"rooms_in_progress"`
}

type rosterResponse struct {
	Clients []struct {
		DisplayName string `json:"display_name"`
		RoomID      *int32 `json:"room_id"`
	} `json:"clients"`
}

type roomResponse struct {
	ID         int32    `json:"id"`
	Kind       string   `json:"kind"`
	State      string   `json:"state"`
	Players    []string `json:"players"`
	MoveNumber int      `json:"move_number"`
}

type chatLogResponse struct {
	Entries []struct {
		Sender  string `json:"sender"`
		Target  string `json:"target"`
		Text    string `json:"text"`
		Private bool   `json:"private"`
	} `json:"entries"`
}

func parseJSON[T any](t *testing.T, output string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(output), &v), "output: %s", output)
	return v
}

func TestCLIAgainstLiveServer(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test in short mode")
	}

	server := startTestServer(t)
	defer server.shutdown()
	cli := newCLIRunner(t, server.url)

	// Empty server
	output, err := cli.run("health")
	require.NoError(t, err, output)
	health := parseJSON[healthResponse](t, output)
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, 0, health.Clients)

	// Two players meet and play a battleship room
	alice := connect(t, server.url, "alice")
	bob := connect(t, server.url, "bob")

	alice.send(wire.PublicChat{Text: "ready?"})
	bob.expect(wire.KindPublicChat)
	bob.send(wire.PrivateChat{Target: "alice", Text: "always"})
	alice.expect(wire.KindPrivateChat)

	alice.send(wire.CreateRoom{GameKind: int32(model.GameBattleship)})
	joined := alice.expect(wire.KindRoomJoined).(wire.RoomJoined)
	bob.send(wire.JoinRoom{RoomID: joined.RoomID})
	require.Equal(t, int32(1), bob.expect(wire.KindRoomJoined).(wire.RoomJoined).Seat)

	bob.send(wire.PlaceShip{Player: 1, OriginX: 3, OriginY: 3, Direction: int32(model.DirectionRight), Length: 2})
	placement := bob.expect(wire.KindPlacementResult).(wire.PlacementResult)
	require.Equal(t, uint8(model.PlacementValid), placement.Verdict)

	alice.send(wire.Fire{Player: 0, TargetX: 4, TargetY: 3})
	shot := alice.expect(wire.KindFireResult).(wire.FireResult)
	assert.Equal(t, uint8(model.CellHit), shot.Cell)

	// The CLI sees the live state and the journal
	output, err = cli.run("health")
	require.NoError(t, err, output)
	health = parseJSON[healthResponse](t, output)
	assert.Equal(t, 2, health.Clients)
	assert.Equal(t, 1, health.RoomsInProgress)

	output, err = cli.run("roster")
	require.NoError(t, err, output)
	roster := parseJSON[rosterResponse](t, output)
	require.Len(t, roster.Clients, 2)
	assert.Equal(t, "alice", roster.Clients[0].DisplayName)
	require.NotNil(t, roster.Clients[1].RoomID)
	assert.Equal(t, joined.RoomID, *roster.Clients[1].RoomID)

	require.Eventually(t, func() bool {
		output, err := cli.run("rooms", "1")
		if err != nil {
			return false
		}
		return parseJSON[roomResponse](t, output).MoveNumber == 1
	}, 5*time.Second, 100*time.Millisecond)

	output, err = cli.run("rooms", "1")
	require.NoError(t, err, output)
	room := parseJSON[roomResponse](t, output)
	assert.Equal(t, "battleship", room.Kind)
	assert.Equal(t, "in_progress", room.State)
	assert.Equal(t, []string{"alice", "bob"}, room.Players)

	output, err = cli.run("chatlog", "--limit", "10")
	require.NoError(t, err, output)
	chatLog := parseJSON[chatLogResponse](t, output)
	require.Len(t, chatLog.Entries, 2)
	assert.Equal(t, "ready?", chatLog.Entries[0].Text)
	assert.True(t, chatLog.Entries[1].Private)

	// Unknown room surfaces the API error
	output, err = cli.run("rooms", "42")
	assert.Error(t, err)
	assert.Contains(t, output, "ROOM_NOT_FOUND")
}
