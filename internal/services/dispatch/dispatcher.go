package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"runtime/debug"
	"slices"
	"time"

	"github.com/mcoot/roomserver/internal/dependencies/clock"
	"github.com/mcoot/roomserver/internal/model"
	"github.com/mcoot/roomserver/internal/services/registry"
	"github.com/mcoot/roomserver/internal/services/room"
	"github.com/mcoot/roomserver/internal/wire"
)

// WelcomeText is sent to every peer on connect
const WelcomeText = "Welcome to the server"

// ErrStopped is returned by Submit once the event loop has exited
var ErrStopped = errors.New("dispatcher stopped")

// Reliability is the delivery class requested for an outbound message
type Reliability uint8

const (
	// ReliableOrdered messages must arrive, in order
	ReliableOrdered Reliability = iota
	// Unreliable messages may be dropped under load
	Unreliable
)

// Outbound is one message to deliver to one peer
type Outbound struct {
	Target      model.ConnectionHandle
	Data        []byte
	Reliability Reliability
}

// EventType distinguishes transport notifications
type EventType int

const (
	EventConnected EventType = iota
	EventMessage
	EventDisconnected
)

// Event is a transport notification fed into the loop
type Event struct {
	Type    EventType
	Handle  model.ConnectionHandle
	Data    []byte
	Latency time.Duration
}

// Sender delivers outbound messages. Send should not block for long;
// the dispatch loop waits on it.
type Sender interface {
	Send(target model.ConnectionHandle, data []byte, reliability Reliability) error
}

// Recorder receives audit records. Implementations must not block.
type Recorder interface {
	RecordChat(entry model.ChatEntry)
	RecordRoom(snap model.RoomSnapshot)
	RecordRoomRemoved(id model.RoomID)
}

// Config holds dispatcher settings
type Config struct {
	// QueueSize is the capacity of the inbound event queue
	QueueSize int
}

// DefaultConfig returns the default dispatcher settings
func DefaultConfig() Config {
	return Config{
		QueueSize: 1024,
	}
}

// Dispatcher interprets inbound messages and produces replies.
// The Connected, Disconnected and Handle methods are synchronous and must
// be called from a single goroutine; Run provides that goroutine.
type Dispatcher struct {
	registry *registry.Registry
	rooms    *room.Manager
	recorder Recorder
	clock    clock.Clock
	logger   *slog.Logger

	events  chan Event
	stopped chan struct{}
}

// New creates a dispatcher
func New(
	cfg Config,
	registry *registry.Registry,
	rooms *room.Manager,
	recorder Recorder,
	clock clock.Clock,
	logger *slog.Logger,
) *Dispatcher {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultConfig().QueueSize
	}
	return &Dispatcher{
		registry: registry,
		rooms:    rooms,
		recorder: recorder,
		clock:    clock,
		logger:   logger.With(slog.String("component", "dispatch")),
		events:   make(chan Event, cfg.QueueSize),
		stopped:  make(chan struct{}),
	}
}

// Submit queues a transport event for the loop. It blocks while the queue
// is full so a connection's events keep their order.
func (d *Dispatcher) Submit(ctx context.Context, ev Event) error {
	select {
	case <-d.stopped:
		return ErrStopped
	default:
	}

	select {
	case d.events <- ev:
		return nil
	case <-d.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run processes queued events until ctx is cancelled
func (d *Dispatcher) Run(ctx context.Context, sender Sender) {
	defer close(d.stopped)
	d.logger.Info("dispatch loop started")

	for {
		select {
		case ev := <-d.events:
			for _, o := range d.process(ev) {
				if err := sender.Send(o.Target, o.Data, o.Reliability); err != nil {
					d.logger.Debug("send failed",
						slog.String("handle", string(o.Target)),
						slog.String("error", err.Error()))
				}
			}
		case <-ctx.Done():
			d.logger.Info("dispatch loop stopped")
			return
		}
	}
}

// process runs one event. A panic while handling it is logged and the
// event's replies are dropped; the loop keeps going.
func (d *Dispatcher) process(ev Event) (out []Outbound) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("panic handling event",
				slog.String("handle", string(ev.Handle)),
				slog.Int("event", int(ev.Type)),
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())))
			out = nil
		}
	}()

	switch ev.Type {
	case EventConnected:
		return d.Connected(ev.Handle)
	case EventMessage:
		return d.Handle(ev.Handle, ev.Data, ev.Latency)
	case EventDisconnected:
		return d.Disconnected(ev.Handle)
	}
	return nil
}

// Connected greets a new peer
func (d *Dispatcher) Connected(handle model.ConnectionHandle) []Outbound {
	d.logger.Info("peer connected", slog.String("handle", string(handle)))
	return deliverable([]Outbound{d.reply(handle, wire.Welcome{Header: d.header(), Text: WelcomeText})})
}

// Disconnected drops the peer's identity and room membership, if any
func (d *Dispatcher) Disconnected(handle model.ConnectionHandle) []Outbound {
	client, ok := d.registry.Lookup(handle)
	if !ok {
		d.logger.Info("peer disconnected", slog.String("handle", string(handle)))
		return nil
	}

	var out []Outbound
	if client.RoomID != 0 {
		out = deliverable(d.leaveRoom(client))
	}
	if _, err := d.registry.Unregister(handle); err != nil {
		d.logger.Warn("unregister failed",
			slog.String("handle", string(handle)),
			slog.String("error", err.Error()))
	}

	d.logger.Info("client disconnected",
		slog.String("handle", string(handle)),
		slog.String("client", client.DisplayName),
		slog.Duration("session", d.clock.Now().Sub(client.JoinedAt)))
	return out
}

// Handle decodes one inbound message and returns the resulting outbound
// messages. Malformed input is answered with a notice; it never ends the
// connection.
func (d *Dispatcher) Handle(handle model.ConnectionHandle, data []byte, latency time.Duration) []Outbound {
	return deliverable(d.handle(handle, data, latency))
}

func (d *Dispatcher) handle(handle model.ConnectionHandle, data []byte, latency time.Duration) []Outbound {
	msg, err := wire.Decode(data)
	if err != nil {
		d.logger.Warn("malformed message",
			slog.String("handle", string(handle)),
			slog.Int("size", len(data)),
			slog.String("error", err.Error()))
		return []Outbound{d.notice(handle, wire.NoticeMalformedMessage, "malformed message")}
	}

	d.logger.Debug("message received",
		slog.String("handle", string(handle)),
		slog.String("kind", msg.Kind().String()),
		slog.Duration("latency", latency))

	if login, ok := msg.(wire.Login); ok {
		return d.handleLogin(handle, login)
	}

	client, ok := d.registry.Lookup(handle)
	if !ok {
		return []Outbound{d.notice(handle, wire.NoticeNotAuthenticated, "log in first")}
	}

	switch m := msg.(type) {
	case wire.PublicChat:
		return d.handlePublicChat(client, m)
	case wire.PrivateChat:
		return d.handlePrivateChat(client, m)
	case wire.UserList:
		return d.handleUserList(client, m)
	case wire.CreateRoom:
		return d.handleCreateRoom(client, m)
	case wire.JoinRoom:
		return d.handleJoinRoom(client, m)
	case wire.LeaveRoom:
		return d.handleLeaveRoom(client)
	case wire.PlaceShip:
		return d.handlePlaceShip(client, m)
	case wire.UpdatePosition:
		return d.handleUpdatePosition(client, m)
	case wire.Fire:
		return d.handleFire(client, m)
	default:
		d.logger.Warn("unexpected message kind from client",
			slog.String("client", client.DisplayName),
			slog.String("kind", msg.Kind().String()))
		return []Outbound{d.notice(handle, wire.NoticeMalformedMessage, "unexpected message kind")}
	}
}

func (d *Dispatcher) header() wire.Header {
	return wire.Header{Timestamp: uint64(d.clock.Now().UnixMilli())}
}

// encode logs and returns nil when msg does not fit the wire format
func (d *Dispatcher) encode(msg wire.Message) []byte {
	data, err := wire.Encode(msg)
	if err != nil {
		d.logger.Error("outbound message dropped",
			slog.String("kind", msg.Kind().String()),
			slog.String("error", err.Error()))
		return nil
	}
	return data
}

// reply addresses msg to one peer. Data is nil if msg could not be encoded.
func (d *Dispatcher) reply(target model.ConnectionHandle, msg wire.Message) Outbound {
	return Outbound{Target: target, Data: d.encode(msg), Reliability: ReliableOrdered}
}

// deliverable drops outbound messages that failed to encode
func deliverable(out []Outbound) []Outbound {
	return slices.DeleteFunc(out, func(o Outbound) bool { return o.Data == nil })
}

func (d *Dispatcher) notice(target model.ConnectionHandle, code wire.NoticeCode, text string) Outbound {
	return d.reply(target, wire.Notice{Header: d.header(), Code: code, Text: text})
}
