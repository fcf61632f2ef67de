package dispatch

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/mcoot/roomserver/internal/model"
	"github.com/mcoot/roomserver/internal/services/registry"
	"github.com/mcoot/roomserver/internal/wire"
)

// Chat

func (d *Dispatcher) handleLogin(handle model.ConnectionHandle, m wire.Login) []Outbound {
	identity, err := d.registry.Register(handle, m.Username)
	if err != nil {
		d.logger.Info("login rejected",
			slog.String("handle", string(handle)),
			slog.String("username", m.Username),
			slog.String("error", err.Error()))
		return []Outbound{d.errorNotice(handle, err)}
	}

	d.logger.Info("client logged in",
		slog.String("handle", string(handle)),
		slog.String("client", identity.DisplayName))
	return []Outbound{d.notice(handle, wire.NoticeLoginAccepted, "logged in as "+identity.DisplayName)}
}

func (d *Dispatcher) handlePublicChat(client registry.Client, m wire.PublicChat) []Outbound {
	relay := d.encode(wire.PublicChat{Header: m.Header, Sender: client.DisplayName, Text: m.Text})
	if relay == nil {
		return []Outbound{d.notice(client.Handle, wire.NoticeMalformedMessage, "message too long")}
	}

	var out []Outbound
	for _, other := range d.registry.Clients() {
		if other.Handle == client.Handle {
			continue
		}
		out = append(out, Outbound{Target: other.Handle, Data: relay, Reliability: ReliableOrdered})
	}

	d.recorder.RecordChat(model.ChatEntry{
		Sender:     client.DisplayName,
		Text:       m.Text,
		Timestamp:  m.Timestamp,
		ReceivedAt: d.clock.Now(),
	})
	return out
}

func (d *Dispatcher) handlePrivateChat(client registry.Client, m wire.PrivateChat) []Outbound {
	// A name that could never be registered is not echoed back
	if registry.ValidateName(m.Target) != nil {
		return []Outbound{d.notice(client.Handle, wire.NoticeTargetNotFound, "no such client")}
	}
	target, ok := d.registry.Find(m.Target)
	if !ok {
		return []Outbound{d.notice(client.Handle, wire.NoticeTargetNotFound, fmt.Sprintf("%q is not online", m.Target))}
	}

	d.recorder.RecordChat(model.ChatEntry{
		Sender:     client.DisplayName,
		Target:     target.DisplayName,
		Text:       m.Text,
		Timestamp:  m.Timestamp,
		ReceivedAt: d.clock.Now(),
	})
	return []Outbound{d.reply(target.Handle, wire.PrivateChat{
		Header: m.Header,
		Sender: client.DisplayName,
		Target: target.DisplayName,
		Text:   m.Text,
	})}
}

func (d *Dispatcher) handleUserList(client registry.Client, m wire.UserList) []Outbound {
	names := slices.Collect(d.registry.Roster())
	return []Outbound{d.reply(client.Handle, wire.UserList{Header: d.header(), Names: names})}
}

// Rooms

func (d *Dispatcher) handleCreateRoom(client registry.Client, m wire.CreateRoom) []Outbound {
	if client.RoomID != 0 {
		return []Outbound{d.errorNotice(client.Handle, model.ErrAlreadyInRoom)}
	}

	snap, err := d.rooms.Create(model.GameKind(m.GameKind))
	if err != nil {
		return []Outbound{d.errorNotice(client.Handle, err)}
	}
	return d.joinRoom(client, snap.ID)
}

func (d *Dispatcher) handleJoinRoom(client registry.Client, m wire.JoinRoom) []Outbound {
	if client.RoomID != 0 {
		return []Outbound{d.errorNotice(client.Handle, model.ErrAlreadyInRoom)}
	}
	return d.joinRoom(client, model.RoomID(m.RoomID))
}

func (d *Dispatcher) joinRoom(client registry.Client, id model.RoomID) []Outbound {
	seat, snap, err := d.rooms.Join(id, client.ClientIdentity)
	if err != nil {
		return []Outbound{d.errorNotice(client.Handle, err)}
	}
	if err := d.registry.SetRoom(client.Handle, id); err != nil {
		d.logger.Error("failed to record room membership",
			slog.String("client", client.DisplayName),
			slog.String("error", err.Error()))
	}
	d.recorder.RecordRoom(snap)

	out := []Outbound{d.reply(client.Handle, wire.RoomJoined{
		Header:   d.header(),
		RoomID:   int32(id),
		GameKind: int32(snap.Kind),
		Seat:     int32(seat),
	})}
	return append(out, d.toMembers(id, client.Handle, wire.Notice{
		Header: d.header(),
		Code:   wire.NoticePeerJoined,
		Text:   client.DisplayName + " joined the room",
	}, ReliableOrdered)...)
}

func (d *Dispatcher) handleLeaveRoom(client registry.Client) []Outbound {
	if client.RoomID == 0 {
		return []Outbound{d.errorNotice(client.Handle, model.ErrNotInRoom)}
	}
	out := d.leaveRoom(client)
	return append(out, d.notice(client.Handle, wire.NoticeRoomLeft, fmt.Sprintf("left room %d", client.RoomID)))
}

// leaveRoom removes the client from its room and notifies whoever remains
func (d *Dispatcher) leaveRoom(client registry.Client) []Outbound {
	id := client.RoomID
	snap, removed, err := d.rooms.Leave(id, client.Handle)
	if setErr := d.registry.SetRoom(client.Handle, 0); setErr != nil {
		d.logger.Debug("room membership already cleared", slog.String("client", client.DisplayName))
	}
	if err != nil {
		d.logger.Warn("leave room failed",
			slog.String("client", client.DisplayName),
			slog.Int("room_id", int(id)),
			slog.String("error", err.Error()))
		return nil
	}

	if removed {
		d.recorder.RecordRoomRemoved(id)
		return nil
	}
	d.recorder.RecordRoom(snap)
	return d.toMembers(id, client.Handle, wire.Notice{
		Header: d.header(),
		Code:   wire.NoticePeerLeft,
		Text:   client.DisplayName + " left the room",
	}, ReliableOrdered)
}

// Battleship

// requireSeat checks the client holds the player slot named in a message
func (d *Dispatcher) requireSeat(client registry.Client, player int32) error {
	if client.RoomID == 0 {
		return model.ErrNotInRoom
	}
	seat, err := d.rooms.Seat(client.RoomID, client.Handle)
	if err != nil {
		return err
	}
	if seat == model.SeatSpectator {
		return model.ErrNotSeated
	}
	if int32(seat) != player {
		return errWrongSeat
	}
	return nil
}

func (d *Dispatcher) handlePlaceShip(client registry.Client, m wire.PlaceShip) []Outbound {
	if err := d.requireSeat(client, m.Player); err != nil {
		return []Outbound{d.errorNotice(client.Handle, err)}
	}

	verdict, err := d.rooms.PlaceShip(client.RoomID, model.ShipPlacement{
		Player:    int(m.Player),
		OriginX:   int(m.OriginX),
		OriginY:   int(m.OriginY),
		Direction: model.Direction(m.Direction),
		Length:    int(m.Length),
	})
	if err != nil {
		return []Outbound{d.errorNotice(client.Handle, err)}
	}

	d.logger.Debug("ship placement",
		slog.String("client", client.DisplayName),
		slog.Int("room_id", int(client.RoomID)),
		slog.String("verdict", verdict.String()))

	out := []Outbound{d.reply(client.Handle, wire.PlacementResult{
		Header:  d.header(),
		Player:  m.Player,
		Verdict: uint8(verdict),
	})}
	if verdict == model.PlacementValid {
		out = append(out, d.toMembers(client.RoomID, client.Handle, m, ReliableOrdered)...)
	}
	return out
}

func (d *Dispatcher) handleUpdatePosition(client registry.Client, m wire.UpdatePosition) []Outbound {
	if err := d.requireSeat(client, m.Player); err != nil {
		return []Outbound{d.errorNotice(client.Handle, err)}
	}
	return d.toMembers(client.RoomID, client.Handle, m, Unreliable)
}

func (d *Dispatcher) handleFire(client registry.Client, m wire.Fire) []Outbound {
	if err := d.requireSeat(client, m.Player); err != nil {
		return []Outbound{d.errorNotice(client.Handle, err)}
	}

	cell, snap, err := d.rooms.Fire(client.RoomID, int(m.Player), int(m.TargetX), int(m.TargetY))
	if err != nil {
		return []Outbound{d.errorNotice(client.Handle, err)}
	}
	d.recorder.RecordRoom(snap)

	return d.toMembers(client.RoomID, "", wire.FireResult{
		Header:  d.header(),
		Player:  m.Player,
		TargetX: m.TargetX,
		TargetY: m.TargetY,
		Cell:    uint8(cell),
	}, ReliableOrdered)
}

// toMembers addresses msg to every member of the room except the excluded handle
func (d *Dispatcher) toMembers(id model.RoomID, exclude model.ConnectionHandle, msg wire.Message, reliability Reliability) []Outbound {
	members, err := d.rooms.Members(id)
	if err != nil {
		return nil
	}

	data := d.encode(msg)
	if data == nil {
		return nil
	}
	out := make([]Outbound, 0, len(members))
	for _, member := range members {
		if member.Handle == exclude {
			continue
		}
		out = append(out, Outbound{Target: member.Handle, Data: data, Reliability: reliability})
	}
	return out
}

// errWrongSeat is internal: the message names the other player's slot
var errWrongSeat = errors.New("message names another player's seat")

var noticeCodes = []struct {
	err  error
	code wire.NoticeCode
}{
	{model.ErrDuplicateName, wire.NoticeNameTaken},
	{model.ErrInvalidName, wire.NoticeInvalidName},
	{model.ErrAlreadyRegistered, wire.NoticeAlreadyLoggedIn},
	{model.ErrClientNotFound, wire.NoticeNotAuthenticated},
	{model.ErrNotInRoom, wire.NoticeNotInRoom},
	{model.ErrRoomNotFound, wire.NoticeRoomNotFound},
	{model.ErrRoomFull, wire.NoticeRoomFull},
	{model.ErrAlreadyInRoom, wire.NoticeAlreadyInRoom},
	{model.ErrNotSeated, wire.NoticeNotSeated},
	{errWrongSeat, wire.NoticeWrongSeat},
	{model.ErrInvalidPlayer, wire.NoticeWrongSeat},
	{model.ErrUnsupportedGame, wire.NoticeUnsupportedGame},
	{model.ErrRoomNotInProgress, wire.NoticeRoomNotInProgress},
	{model.ErrRoomFinished, wire.NoticeRoomFinished},
	{model.ErrAlreadyTargeted, wire.NoticeAlreadyTargeted},
	{model.ErrOutOfBounds, wire.NoticeOutOfBounds},
}

// errorNotice translates a domain error into a notice for the client
func (d *Dispatcher) errorNotice(target model.ConnectionHandle, err error) Outbound {
	for _, nc := range noticeCodes {
		if errors.Is(err, nc.err) {
			return d.notice(target, nc.code, nc.err.Error())
		}
	}
	d.logger.Error("unmapped dispatch error",
		slog.String("handle", string(target)),
		slog.String("error", err.Error()))
	return d.notice(target, wire.NoticeMalformedMessage, "request failed")
}
