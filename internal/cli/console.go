package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/mcoot/roomserver/internal/model"
	"github.com/mcoot/roomserver/internal/wire"
)

const consoleHelp = `Commands:
  /users                         list logged-in clients
  /msg <name> <text>             send a private message
  /create [battleship|checkers]  open a room
  /join <room>                   join or spectate a room
  /leave                         leave the current room
  /place <x> <y> <dir> <length>  place a ship (dir: up, right, down, left)
  /fire <x> <y>                  fire at the opponent's board
  /help                          show this help
  /quit                          end the session
Anything else is sent as public chat.`

// errQuit ends the console session without an error
var errQuit = errors.New("quit")

var directions = map[string]model.Direction{
	"up":    model.DirectionUp,
	"right": model.DirectionRight,
	"down":  model.DirectionDown,
	"left":  model.DirectionLeft,
}

func newConsoleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "console",
		Short: "Open a live session and chat from stdin",
		Long: `Connect to the game protocol endpoint, log in, and send each line typed
on stdin as chat or as a command.

` + consoleHelp,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.Username == "" {
				return errors.New("a display name is required (--name or ROOMCTL_USER)")
			}
			url, err := cfg.WebSocketURL()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runConsole(ctx, url, cfg.Username, cfg.Verbose, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&cfg.Username, "name", cfg.Username, "Display name to log in with (env: ROOMCTL_USER)")

	return cmd
}

// consoleSession is one live connection driven by stdin
type consoleSession struct {
	conn    *websocket.Conn
	out     io.Writer
	verbose bool
	// outMu serialises writes to out
	outMu sync.Mutex
	// seat is the player slot held in the current room, or model.SeatSpectator
	seat atomic.Int32
}

func runConsole(ctx context.Context, url, username string, verbose bool, in io.Reader, out io.Writer) error {
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	defer func() { _ = conn.Close() }()

	s := &consoleSession{conn: conn, out: out, verbose: verbose}
	s.seat.Store(model.SeatSpectator)

	readErr := make(chan error, 1)
	go func() {
		readErr <- s.readLoop()
	}()

	if err := s.send(wire.Login{Header: stamp(), Username: username}); err != nil {
		return err
	}

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			s.close()
			return nil
		case err := <-readErr:
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.println("* server closed the connection")
				return nil
			}
			return fmt.Errorf("connection lost: %w", err)
		case line, ok := <-lines:
			if !ok {
				s.close()
				return nil
			}
			if strings.TrimSpace(line) == "/help" {
				s.println(consoleHelp)
				continue
			}

			msg, err := parseLine(line, s.seat.Load())
			if errors.Is(err, errQuit) {
				s.close()
				return nil
			}
			if err != nil {
				s.println("* " + err.Error())
				continue
			}
			if msg == nil {
				continue
			}
			if err := s.send(msg); err != nil {
				return err
			}
		}
	}
}

func (s *consoleSession) send(msg wire.Message) error {
	data, err := wire.Encode(msg)
	if err != nil {
		return err
	}
	if err := s.conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
		return fmt.Errorf("send failed: %w", err)
	}
	return nil
}

func (s *consoleSession) close() {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
}

func (s *consoleSession) println(line string) {
	s.outMu.Lock()
	defer s.outMu.Unlock()
	fmt.Fprintln(s.out, line)
}

func (s *consoleSession) readLoop() error {
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			return err
		}
		msg, err := wire.Decode(data)
		if err != nil {
			s.println("* undecodable message: " + err.Error())
			continue
		}

		switch m := msg.(type) {
		case wire.RoomJoined:
			s.seat.Store(m.Seat)
		case wire.Notice:
			if m.Code == wire.NoticeRoomLeft {
				s.seat.Store(model.SeatSpectator)
			}
		}

		if line := formatMessage(msg, s.verbose); line != "" {
			s.println(line)
		}
	}
}

func stamp() wire.Header {
	return wire.Header{Timestamp: uint64(time.Now().UnixMilli())}
}

// parseLine turns one line of console input into a message. Blank lines
// yield no message; "/quit" yields errQuit.
func parseLine(line string, seat int32) (wire.Message, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil, nil
	}
	if !strings.HasPrefix(line, "/") {
		return wire.PublicChat{Header: stamp(), Text: line}, nil
	}

	fields := strings.Fields(line)
	switch fields[0] {
	case "/quit":
		return nil, errQuit
	case "/users":
		return wire.UserList{Header: stamp()}, nil
	case "/msg":
		if len(fields) < 3 {
			return nil, errors.New("usage: /msg <name> <text>")
		}
		rest := strings.TrimSpace(line[len(fields[0]):])
		text := strings.TrimSpace(rest[len(fields[1]):])
		return wire.PrivateChat{Header: stamp(), Target: fields[1], Text: text}, nil
	case "/create":
		kind := model.GameBattleship
		if len(fields) > 1 {
			switch fields[1] {
			case "battleship":
			case "checkers":
				kind = model.GameCheckers
			default:
				return nil, fmt.Errorf("unknown game %q", fields[1])
			}
		}
		return wire.CreateRoom{Header: stamp(), GameKind: int32(kind)}, nil
	case "/join":
		if len(fields) != 2 {
			return nil, errors.New("usage: /join <room>")
		}
		id, err := strconv.ParseInt(fields[1], 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid room %q", fields[1])
		}
		return wire.JoinRoom{Header: stamp(), RoomID: int32(id)}, nil
	case "/leave":
		return wire.LeaveRoom{Header: stamp()}, nil
	case "/place":
		if len(fields) != 5 {
			return nil, errors.New("usage: /place <x> <y> <dir> <length>")
		}
		dir, ok := directions[strings.ToLower(fields[3])]
		if !ok {
			return nil, fmt.Errorf("unknown direction %q", fields[3])
		}
		nums, err := parseInts(fields[1], fields[2], fields[4])
		if err != nil {
			return nil, err
		}
		return wire.PlaceShip{
			Header:    stamp(),
			Player:    seat,
			OriginX:   nums[0],
			OriginY:   nums[1],
			Direction: int32(dir),
			Length:    nums[2],
		}, nil
	case "/fire":
		if len(fields) != 3 {
			return nil, errors.New("usage: /fire <x> <y>")
		}
		nums, err := parseInts(fields[1], fields[2])
		if err != nil {
			return nil, err
		}
		return wire.Fire{Header: stamp(), Player: seat, TargetX: nums[0], TargetY: nums[1]}, nil
	default:
		return nil, fmt.Errorf("unknown command %s, try /help", fields[0])
	}
}

func parseInts(values ...string) ([]int32, error) {
	nums := make([]int32, len(values))
	for i, v := range values {
		n, err := strconv.ParseInt(v, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", v)
		}
		nums[i] = int32(n)
	}
	return nums, nil
}

// formatMessage renders a server message for the console. Position relays
// are shown only when verbose.
func formatMessage(msg wire.Message, verbose bool) string {
	switch m := msg.(type) {
	case wire.Welcome:
		return "* " + m.Text
	case wire.Notice:
		return "* " + m.Text
	case wire.PublicChat:
		return fmt.Sprintf("<%s> %s", m.Sender, m.Text)
	case wire.PrivateChat:
		return fmt.Sprintf("[%s -> %s] %s", m.Sender, m.Target, m.Text)
	case wire.UserList:
		return "* online: " + strings.Join(m.Names, ", ")
	case wire.RoomJoined:
		seat := "as a spectator"
		if m.Seat != model.SeatSpectator {
			seat = fmt.Sprintf("as player %d", m.Seat)
		}
		return fmt.Sprintf("* joined room %d (%s) %s", m.RoomID, model.GameKind(m.GameKind), seat)
	case wire.PlacementResult:
		return fmt.Sprintf("* placement for player %d: %s", m.Player, model.PlacementVerdict(m.Verdict))
	case wire.PlaceShip:
		return fmt.Sprintf("* player %d placed a ship of length %d", m.Player, m.Length)
	case wire.FireResult:
		return fmt.Sprintf("* player %d fired at (%d,%d): %s", m.Player, m.TargetX, m.TargetY, model.CellState(m.Cell))
	case wire.UpdatePosition:
		if !verbose {
			return ""
		}
		return fmt.Sprintf("* player %d at (%.2f, %.2f, %.2f)", m.Player, m.X, m.Y, m.Z)
	default:
		return "* " + msg.Kind().String()
	}
}
