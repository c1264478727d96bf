package server

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/vango-dev/domsync/pkg/events"
)

// sendBuffer is the per-client outbound queue length.
const sendBuffer = 64

// client is one websocket connection's outbound queue.
type client struct {
	id   string
	send chan []byte
}

// eventMessage is pushed to every client when a delegated event fires.
type eventMessage struct {
	Event eventPayload `json:"event"`
}

type eventPayload struct {
	ID   string         `json:"id"`
	Name string         `json:"name"`
	Data map[string]any `json:"data"`
}

// Hub tracks connected clients and fans delegated events out to them. It
// implements events.Manager.
type Hub struct {
	mu      sync.Mutex
	clients map[string]*client
	logger  *slog.Logger
}

// NewHub creates an empty Hub.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		clients: make(map[string]*client),
		logger:  logger,
	}
}

func (h *Hub) register() *client {
	c := &client{id: uuid.NewString(), send: make(chan []byte, sendBuffer)}
	h.mu.Lock()
	h.clients[c.id] = c
	h.mu.Unlock()
	return c
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c.id]; ok {
		delete(h.clients, c.id)
		close(c.send)
	}
}

// send queues msg for c alone. It reports false once c is unregistered.
func (h *Hub) send(c *client, msg []byte) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c.id]; !ok {
		return false
	}
	c.send <- msg
	return true
}

// closeAll unregisters every client, which closes their connections.
func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, c := range h.clients {
		delete(h.clients, id)
		close(c.send)
	}
}

// Len returns the number of connected clients.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Broadcast queues msg for every client. Clients whose queue is full miss
// the message.
func (h *Hub) Broadcast(msg []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, c := range h.clients {
		select {
		case c.send <- msg:
		default:
			h.logger.Warn("client queue full, dropping message", "client", c.id)
		}
	}
}

// Dispatch implements events.Manager by broadcasting the event.
func (h *Hub) Dispatch(id string, e *events.Event) {
	msg, err := json.Marshal(eventMessage{Event: eventPayload{ID: id, Name: e.Name, Data: e.Data}})
	if err != nil {
		h.logger.Error("encode event", "id", id, "event", e.Name, "error", err)
		return
	}
	h.Broadcast(msg)
}
