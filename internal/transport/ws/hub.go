package ws

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/mcoot/roomserver/internal/model"
	"github.com/mcoot/roomserver/internal/services/dispatch"
)

// ErrUnknownPeer is returned when sending to a handle with no live connection
var ErrUnknownPeer = errors.New("ws: unknown peer")

// Hub tracks live peers and delivers outbound messages to them
type Hub struct {
	peers  map[model.ConnectionHandle]*peer
	mu     sync.RWMutex
	logger *slog.Logger
}

// NewHub creates an empty hub
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		peers:  make(map[model.ConnectionHandle]*peer),
		logger: logger.With(slog.String("component", "ws")),
	}
}

// Ensure Hub can be the dispatcher's sender
var _ dispatch.Sender = (*Hub)(nil)

func (h *Hub) register(p *peer) {
	h.mu.Lock()
	h.peers[p.handle] = p
	peerCount := len(h.peers)
	h.mu.Unlock()

	h.logger.Info("ws peer registered",
		slog.String("handle", string(p.handle)),
		slog.String("remote_addr", p.conn.RemoteAddr().String()),
		slog.Int("total_peers", peerCount))
}

func (h *Hub) unregister(p *peer) {
	h.mu.Lock()
	if current, ok := h.peers[p.handle]; !ok || current != p {
		h.mu.Unlock()
		return
	}
	delete(h.peers, p.handle)
	close(p.send)
	peerCount := len(h.peers)
	h.mu.Unlock()

	h.logger.Info("ws peer unregistered",
		slog.String("handle", string(p.handle)),
		slog.Int("total_peers", peerCount))
}

// Send queues data for the peer. Unreliable messages are dropped when the
// peer's queue is full; a full queue on a reliable message drops the peer.
func (h *Hub) Send(target model.ConnectionHandle, data []byte, reliability dispatch.Reliability) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	p, ok := h.peers[target]
	if !ok {
		return ErrUnknownPeer
	}

	select {
	case p.send <- data:
		return nil
	default:
	}

	if reliability == dispatch.Unreliable {
		h.logger.Debug("ws unreliable message dropped - peer buffer full",
			slog.String("handle", string(target)))
		return nil
	}

	h.logger.Warn("ws peer too slow - disconnecting",
		slog.String("handle", string(target)))
	p.closeConn()
	return errors.New("ws: peer send buffer full")
}

// PeerCount returns the number of live peers
func (h *Hub) PeerCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.peers)
}

// Close drops every peer. Their read loops report the disconnects.
func (h *Hub) Close() {
	h.mu.RLock()
	peerCount := len(h.peers)
	for _, p := range h.peers {
		p.closeConn()
	}
	h.mu.RUnlock()
	h.logger.Info("ws hub closed", slog.Int("disconnected_peers", peerCount))
}
