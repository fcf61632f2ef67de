package ws

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/mcoot/roomserver/internal/dependencies/random"
	"github.com/mcoot/roomserver/internal/model"
	"github.com/mcoot/roomserver/internal/services/dispatch"
)

// Submitter accepts transport events, in order, for one connection at a time
type Submitter interface {
	Submit(ctx context.Context, ev dispatch.Event) error
}

// Handler upgrades HTTP requests to WebSocket peers
type Handler struct {
	hub      *Hub
	sink     Submitter
	random   random.Random
	cfg      Config
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

// NewHandler creates a WebSocket handler feeding sink and delivering via hub
func NewHandler(cfg Config, hub *Hub, sink Submitter, random random.Random, logger *slog.Logger) *Handler {
	return &Handler{
		hub:    hub,
		sink:   sink,
		random: random,
		cfg:    cfg,
		logger: logger.With(slog.String("component", "ws")),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  cfg.ReadBufferSize,
			WriteBufferSize: cfg.WriteBufferSize,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// ServeHTTP runs the connection until the peer goes away
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written an HTTP error
		h.logger.Warn("ws upgrade failed", slog.String("error", err.Error()))
		return
	}

	handle := model.ConnectionHandle(h.random.ID())
	p := newPeer(handle, conn, h.cfg, h.logger)
	h.hub.register(p)
	go p.writePump()

	// Request context ends when the handler returns, so the disconnect
	// is submitted with a detached context
	ctx := context.WithoutCancel(r.Context())

	defer func() {
		if err := h.sink.Submit(ctx, dispatch.Event{Type: dispatch.EventDisconnected, Handle: handle}); err != nil {
			h.logger.Debug("ws disconnect not delivered",
				slog.String("handle", string(handle)),
				slog.String("error", err.Error()))
		}
		h.hub.unregister(p)
		p.closeConn()
	}()

	if err := h.sink.Submit(ctx, dispatch.Event{Type: dispatch.EventConnected, Handle: handle}); err != nil {
		return
	}
	p.readPump(ctx, h.sink)
}
