package http

import (
	"log"
	"sync"

	"hack-arena/internal/domain"
	"github.com/gorilla/websocket"
)

// Hub tracks live connections and room membership, implementing
// app.Emitter. Each connection gets a buffered send channel drained by a
// single writer goroutine, so nothing ever writes to a websocket
// concurrently.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*client
	rooms   map[string]map[string]struct{}
}

type client struct {
	conn *websocket.Conn
	send chan domain.Event
	done chan struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*client),
		rooms:   make(map[string]map[string]struct{}),
	}
}

// Register starts the writer goroutine for a new connection.
func (h *Hub) Register(connID string, conn *websocket.Conn) {
	c := &client{
		conn: conn,
		send: make(chan domain.Event, 16),
		done: make(chan struct{}),
	}
	h.mu.Lock()
	h.clients[connID] = c
	h.mu.Unlock()

	go func() {
		for {
			select {
			case ev := <-c.send:
				if err := c.conn.WriteJSON(ev); err != nil {
					log.Printf("ws write error: %v", err)
					return
				}
			case <-c.done:
				return
			}
		}
	}()
}

// Deregister removes a connection from the hub and every room it was in.
// The send channel is left to the garbage collector; the writer exits via
// done so a racing ToConn can never hit a closed channel.
func (h *Hub) Deregister(connID string) {
	h.mu.Lock()
	c, ok := h.clients[connID]
	if ok {
		delete(h.clients, connID)
		for _, members := range h.rooms {
			delete(members, connID)
		}
	}
	h.mu.Unlock()
	if ok {
		close(c.done)
	}
}

func (h *Hub) Subscribe(pin, connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	members, ok := h.rooms[pin]
	if !ok {
		members = make(map[string]struct{})
		h.rooms[pin] = members
	}
	members[connID] = struct{}{}
}

func (h *Hub) Unsubscribe(pin, connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if members, ok := h.rooms[pin]; ok {
		delete(members, connID)
		if len(members) == 0 {
			delete(h.rooms, pin)
		}
	}
}

func (h *Hub) CloseRoom(pin string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.rooms, pin)
}

func (h *Hub) ToConn(connID string, ev domain.Event) {
	h.mu.RLock()
	c, ok := h.clients[connID]
	h.mu.RUnlock()
	if !ok {
		return
	}
	c.deliver(ev)
}

func (h *Hub) ToRoom(pin string, ev domain.Event) {
	h.mu.RLock()
	targets := make([]*client, 0, len(h.rooms[pin]))
	for connID := range h.rooms[pin] {
		if c, ok := h.clients[connID]; ok {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range targets {
		c.deliver(ev)
	}
}

// deliver drops the oldest queued event when the buffer is full, so one
// slow client cannot stall a room broadcast.
func (c *client) deliver(ev domain.Event) {
	select {
	case <-c.done:
		return
	default:
	}
	select {
	case c.send <- ev:
	default:
		select {
		case <-c.send:
		default:
		}
		select {
		case c.send <- ev:
		case <-c.done:
		}
	}
}
