package api

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Client is one websocket connection streaming a single binding.
type Client struct {
	ID   uuid.UUID
	Key  string // binding path and property
	Conn *websocket.Conn

	send   chan []byte
	mu     sync.Mutex
	closed bool
}

func newClient(key string, conn *websocket.Conn) *Client {
	return &Client{
		ID:   uuid.New(),
		Key:  key,
		Conn: conn,
		send: make(chan []byte, sendBuffer),
	}
}

// queue hands data to the write pump. A client that cannot keep up is
// closed.
func (c *Client) queue(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		c.closed = true
		close(c.send)
		return false
	}
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// Hub tracks live binding clients by key.
type Hub struct {
	clients    map[string]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.RWMutex
	log        *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		log:        log,
	}
}

// Run processes registrations until ctx ends, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.Key] == nil {
				h.clients[client.Key] = make(map[*Client]bool)
			}
			h.clients[client.Key][client] = true
			h.mu.Unlock()
			h.log.Debug("client registered", zap.Stringer("client", client.ID), zap.String("key", client.Key))

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.clients[client.Key]; ok {
				delete(clients, client)
				if len(clients) == 0 {
					delete(h.clients, client.Key)
				}
			}
			h.mu.Unlock()
			client.close()
			h.log.Debug("client unregistered", zap.Stringer("client", client.ID))

		case <-ctx.Done():
			h.mu.Lock()
			for _, clients := range h.clients {
				for client := range clients {
					client.close()
				}
			}
			h.clients = make(map[string]map[*Client]bool)
			h.mu.Unlock()
			return
		}
	}
}

// Register adds c. It reports false once the hub has stopped.
func (h *Hub) Register(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes and closes c.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
		c.close()
	}
}

// Count returns the number of clients streaming key.
func (h *Hub) Count(key string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[key])
}

// Len returns the number of connected clients.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, clients := range h.clients {
		n += len(clients)
	}
	return n
}
