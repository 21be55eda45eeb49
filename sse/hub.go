package sse

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/kbukum/convoview/logger"
)

// ErrHubStopped is returned by Publish after Stop.
var ErrHubStopped = errors.New("sse: hub stopped")

const clientBuffer = 64

// Client is one subscribed connection.
type Client struct {
	id     string
	events chan Event
}

// NewClient creates a client with a buffered event channel.
func NewClient(id string) *Client {
	return &Client{id: id, events: make(chan Event, clientBuffer)}
}

func (c *Client) ID() string { return c.id }

// Events returns the channel the hub delivers to. It is closed when the
// client is unregistered or the hub stops.
func (c *Client) Events() <-chan Event { return c.events }

// send delivers without blocking. A full buffer drops the event.
func (c *Client) send(e Event) bool {
	select {
	case c.events <- e:
		return true
	default:
		return false
	}
}

// Hub fans published events out to subscribed clients. Its state is owned
// by the Run goroutine; the mutex only guards reads from other goroutines.
type Hub struct {
	log *logger.Logger

	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	broadcast  chan Event
	done       chan struct{}
	stopOnce   sync.Once
	nextID     uint64
	mu         sync.RWMutex
}

var _ Publisher = (*Hub)(nil)

// NewHub creates a hub. Call Run in a goroutine before use.
func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		log:        log.WithComponent("sse"),
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan Event, 256),
		done:       make(chan struct{}),
	}
}

// Run processes registrations and broadcasts until Stop.
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			h.closeAll()
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c.id] = c
			n := len(h.clients)
			h.mu.Unlock()
			h.log.Debug("client registered", logger.Fields("client_id", c.id, "clients", n))

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c.id]; ok {
				delete(h.clients, c.id)
				close(c.events)
			}
			n := len(h.clients)
			h.mu.Unlock()
			h.log.Debug("client unregistered", logger.Fields("client_id", c.id, "clients", n))

		case e := <-h.broadcast:
			h.nextID++
			e.ID = h.nextID
			h.deliver(e)
		}
	}
}

// Stop closes every client and makes Run return. Safe to call twice.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

// Register subscribes c. It reports false if the hub has stopped.
func (h *Hub) Register(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes c and closes its channel.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Publish implements Publisher.
func (h *Hub) Publish(eventType string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("sse: encode %s: %w", eventType, err)
	}
	select {
	case <-h.done:
		return ErrHubStopped
	default:
	}
	select {
	case h.broadcast <- Event{Type: eventType, Data: data}:
		return nil
	case <-h.done:
		return ErrHubStopped
	}
}

// ClientCount returns the number of subscribers.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) deliver(e Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	dropped := 0
	for _, c := range h.clients {
		if !c.send(e) {
			dropped++
		}
	}
	fields := logger.Fields("event", e.Type, "id", e.ID, "clients", len(h.clients))
	if dropped > 0 {
		fields["dropped"] = dropped
		h.log.Warn("slow clients dropped event", fields)
		return
	}
	h.log.Debug("event delivered", fields)
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, c := range h.clients {
		close(c.events)
		delete(h.clients, id)
	}
}
