package ws

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mcoot/roomserver/internal/model"
	"github.com/mcoot/roomserver/internal/services/dispatch"
)

// peer is one WebSocket connection
type peer struct {
	handle model.ConnectionHandle
	conn   *websocket.Conn
	send   chan []byte
	cfg    Config
	logger *slog.Logger

	closeOnce sync.Once
	// Unix nanos of the last ping, and the latest one-way latency estimate
	pingSentAt atomic.Int64
	latency    atomic.Int64
}

func newPeer(handle model.ConnectionHandle, conn *websocket.Conn, cfg Config, logger *slog.Logger) *peer {
	return &peer{
		handle: handle,
		conn:   conn,
		send:   make(chan []byte, cfg.SendBufferSize),
		cfg:    cfg,
		logger: logger,
	}
}

func (p *peer) closeConn() {
	p.closeOnce.Do(func() {
		_ = p.conn.Close()
	})
}

// readPump feeds inbound frames to the dispatcher until the connection fails
func (p *peer) readPump(ctx context.Context, sink Submitter) {
	p.conn.SetReadLimit(p.cfg.MaxMessageSize)
	_ = p.conn.SetReadDeadline(time.Now().Add(p.cfg.PongWait))
	p.conn.SetPongHandler(func(string) error {
		if sent := p.pingSentAt.Load(); sent > 0 {
			p.latency.Store(int64(time.Since(time.Unix(0, sent)) / 2))
		}
		return p.conn.SetReadDeadline(time.Now().Add(p.cfg.PongWait))
	})

	for {
		messageType, data, err := p.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				p.logger.Info("ws peer closed unexpectedly",
					slog.String("handle", string(p.handle)),
					slog.String("error", err.Error()))
			}
			return
		}
		if messageType != websocket.BinaryMessage {
			p.logger.Debug("ws non-binary frame ignored", slog.String("handle", string(p.handle)))
			continue
		}

		err = sink.Submit(ctx, dispatch.Event{
			Type:    dispatch.EventMessage,
			Handle:  p.handle,
			Data:    data,
			Latency: time.Duration(p.latency.Load()),
		})
		if err != nil {
			return
		}
	}
}

// writePump is the only writer on the connection
func (p *peer) writePump() {
	ticker := time.NewTicker(p.cfg.PingPeriod)
	defer func() {
		ticker.Stop()
		p.closeConn()
	}()

	for {
		select {
		case message, ok := <-p.send:
			_ = p.conn.SetWriteDeadline(time.Now().Add(p.cfg.WriteWait))
			if !ok {
				// Hub closed the channel
				_ = p.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := p.conn.WriteMessage(websocket.BinaryMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = p.conn.SetWriteDeadline(time.Now().Add(p.cfg.WriteWait))
			p.pingSentAt.Store(time.Now().UnixNano())
			if err := p.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
