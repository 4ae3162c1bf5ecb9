package ws

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/vivahsetu/vivahsetu-backend/internal/presence"
	pkglogger "github.com/vivahsetu/vivahsetu-backend/pkg/logger"
)

var (
	framesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_ws_frames_sent_total",
			Help: "Total number of frames queued to websocket connections",
		},
		[]string{"type"},
	)

	slowClients = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_ws_slow_clients_total",
			Help: "Connections dropped because their send buffer was full",
		},
	)
)

// Hub owns the connection table and the presence registry.
// Rooms are user ids: an event for a user reaches every live connection of that user.
type Hub struct {
	presence *presence.Registry

	mu    sync.RWMutex
	conns map[string]*Client

	// all frames are written to client buffers by the Run goroutine only
	broadcast chan *targetedEvent

	ctx    context.Context
	cancel context.CancelFunc
}

type targetedEvent struct {
	userID string
	connID string
	kind   string
	data   []byte
}

// NewHub creates a new Hub
func NewHub(registry *presence.Registry) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		presence:  registry,
		conns:     make(map[string]*Client),
		broadcast: make(chan *targetedEvent, 256),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Presence exposes the registry for read-only queries
func (h *Hub) Presence() *presence.Registry {
	return h.presence
}

// Register adds a client and reports whether its user just came online
func (h *Hub) Register(client *Client) bool {
	h.mu.Lock()
	h.conns[client.id] = client
	h.mu.Unlock()

	return h.presence.Register(client.userID, client.id)
}

// Unregister removes a client, closes its send buffer and reports whether its user just went offline
func (h *Hub) Unregister(client *Client) bool {
	h.mu.Lock()
	if c, ok := h.conns[client.id]; ok && c == client {
		delete(h.conns, client.id)
		client.closeSend()
	}
	h.mu.Unlock()

	_, last := h.presence.Unregister(client.id)
	return last
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case ev := <-h.broadcast:
			h.deliver(ev)
		case <-h.ctx.Done():
			return
		}
	}
}

func (h *Hub) deliver(ev *targetedEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var targets []*Client
	if ev.connID != "" {
		if c, ok := h.conns[ev.connID]; ok {
			targets = []*Client{c}
		}
	} else {
		for _, id := range h.presence.Handles(ev.userID) {
			if c, ok := h.conns[id]; ok {
				targets = append(targets, c)
			}
		}
	}

	for _, c := range targets {
		if c.isClosed() {
			continue
		}
		select {
		case c.send <- ev.data:
			framesSent.WithLabelValues(ev.kind).Inc()
		default:
			// a stalled reader loses its connection rather than blocking the room
			slowClients.Inc()
			c.closeSend()
		}
	}
}

func (h *Hub) enqueue(ev *targetedEvent, event *Event) {
	data, err := json.Marshal(event)
	if err != nil {
		pkglogger.GetLogger().Error().Err(err).Str("type", event.Type).Msg("marshal ws event")
		return
	}
	ev.data = data
	ev.kind = event.Type

	select {
	case h.broadcast <- ev:
	case <-h.ctx.Done():
	}
}

// SendToUser sends an event to every connection of userID
func (h *Hub) SendToUser(userID string, event *Event) {
	h.enqueue(&targetedEvent{userID: userID}, event)
}

// SendToConn sends an event to a single connection
func (h *Hub) SendToConn(connID string, event *Event) {
	h.enqueue(&targetedEvent{connID: connID}, event)
}

// Emit implements service.Emitter
func (h *Hub) Emit(userID, eventType string, payload interface{}) {
	h.SendToUser(userID, &Event{Type: eventType, Payload: payload})
}

// ConnectionCount returns the number of registered connections
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// Stop gracefully shuts down the hub
func (h *Hub) Stop() {
	h.cancel()
}
