package push

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Client is one websocket connection watching a single board.
type Client struct {
	ID   string
	Key  string
	Send chan []byte
}

func NewClient(id, key string, bufferSize int) *Client {
	return &Client{
		ID:   id,
		Key:  key,
		Send: make(chan []byte, bufferSize),
	}
}

type message struct {
	key     string
	payload []byte
}

// Hub fans encoded boards out to the clients watching them. It implements
// ports.BoardPublisher; Publish never blocks and drops when the hub is behind.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	byKey   map[string]map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	broadcast  chan message
	done       chan struct{}

	logger *zap.Logger
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		byKey:      make(map[string]map[*Client]struct{}),
		register:   make(chan *Client, 16),
		unregister: make(chan *Client, 16),
		broadcast:  make(chan message, 256),
		done:       make(chan struct{}),
		logger:     zap.L().With(zap.String("component", "push_hub")),
	}
}

func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.closeAllClients()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = struct{}{}
			if h.byKey[client.Key] == nil {
				h.byKey[client.Key] = make(map[*Client]struct{})
			}
			h.byKey[client.Key][client] = struct{}{}
			total := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug("client registered", zap.String("client_id", client.ID), zap.String("board", client.Key), zap.Int("total", total))

		case client := <-h.unregister:
			h.removeClient(client)

		case msg := <-h.broadcast:
			h.fanout(msg)
		}
	}
}

// Register adds client to the hub. Once the hub has stopped, the client's
// Send channel is closed instead.
func (h *Hub) Register(client *Client) {
	select {
	case <-h.done:
		close(client.Send)
		return
	default:
	}
	select {
	case h.register <- client:
	case <-h.done:
		close(client.Send)
	}
}

// Unregister removes client. It is a no-op once the hub has stopped.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) Publish(key string, payload []byte) {
	select {
	case h.broadcast <- message{key: key, payload: payload}:
	default:
		h.logger.Warn("broadcast channel full, dropping board", zap.String("board", key))
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) fanout(msg message) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.byKey[msg.key] {
		select {
		case client.Send <- msg.payload:
		default:
			h.logger.Debug("client send buffer full", zap.String("client_id", client.ID))
		}
	}
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	if set := h.byKey[client.Key]; set != nil {
		delete(set, client)
		if len(set) == 0 {
			delete(h.byKey, client.Key)
		}
	}
	close(client.Send)
	h.logger.Debug("client unregistered", zap.String("client_id", client.ID), zap.Int("total", len(h.clients)))
}

func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		close(client.Send)
	}
	h.clients = make(map[*Client]struct{})
	h.byKey = make(map[string]map[*Client]struct{})
}
