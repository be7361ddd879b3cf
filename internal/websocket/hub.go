package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"hangout-service/internal/models"
	"hangout-service/internal/services"

	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
)

// Hub pushes plan events to the browsers watching a plan. With a redis
// service it relays events published by every server instance; without one it
// only sees events dispatched in this process.
type Hub struct {
	// Registered clients
	clients map[*Client]bool

	// Clients watching each plan
	planClients map[uint]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan *Message

	redisService *services.RedisService
	pubsub       *redis.PubSub

	upgrader websocket.Upgrader

	ctx    context.Context
	cancel context.CancelFunc

	mu sync.RWMutex
}

func NewHub(redisService *services.RedisService, allowedOrigins []string) *Hub {
	ctx, cancel := context.WithCancel(context.Background())

	return &Hub{
		clients:      make(map[*Client]bool),
		planClients:  make(map[uint]map[*Client]bool),
		register:     make(chan *Client),
		unregister:   make(chan *Client),
		broadcast:    make(chan *Message, 256),
		redisService: redisService,
		upgrader:     newUpgrader(allowedOrigins),
		ctx:          ctx,
		cancel:       cancel,
	}
}

func (h *Hub) Run() {
	if h.redisService != nil {
		h.subscribeToRedis()
	}

	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case msg := <-h.broadcast:
			h.deliver(msg)

		case <-h.ctx.Done():
			slog.Info("WebSocket hub shutting down")
			h.closeAll()
			return
		}
	}
}

func (h *Hub) Stop() {
	h.cancel()
	if h.pubsub != nil {
		h.pubsub.Close()
	}
}

// Dispatch queues an event for local delivery
func (h *Hub) Dispatch(ctx context.Context, event models.PlanEvent) error {
	select {
	case h.broadcast <- newEventMessage(event):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-h.ctx.Done():
		return h.ctx.Err()
	}
}

// ClientCount returns the number of connections watching a plan
func (h *Hub) ClientCount(planID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.planClients[planID])
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client] = true
	if h.planClients[client.planID] == nil {
		h.planClients[client.planID] = make(map[*Client]bool)
	}
	h.planClients[client.planID][client] = true

	slog.Info("Client registered", "clientID", client.id, "userID", client.userID, "planID", client.planID)
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeClient(client)
}

// removeClient must be called with h.mu held
func (h *Hub) removeClient(client *Client) {
	if !h.clients[client] {
		return
	}
	delete(h.clients, client)
	if watchers := h.planClients[client.planID]; watchers != nil {
		delete(watchers, client)
		if len(watchers) == 0 {
			delete(h.planClients, client.planID)
		}
	}
	client.closeSendChannel()

	slog.Info("Client unregistered", "clientID", client.id, "userID", client.userID, "planID", client.planID)
}

func (h *Hub) deliver(msg *Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("Failed to marshal websocket message", "type", msg.Type, "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.planClients[msg.PlanID] {
		select {
		case client.send <- data:
		default:
			// Slow consumer, drop the connection
			slog.Warn("Client send buffer full, disconnecting", "clientID", client.id, "planID", msg.PlanID)
			h.removeClient(client)
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		h.removeClient(client)
	}
}

func (h *Hub) subscribeToRedis() {
	h.pubsub = h.redisService.PSubscribe(h.ctx, models.PlanChannelPattern)
	go h.listenRedis(h.pubsub.Channel())
}

func (h *Hub) listenRedis(ch <-chan *redis.Message) {
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var event models.PlanEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				slog.Warn("Dropping malformed plan event", "channel", msg.Channel, "error", err)
				continue
			}
			if err := h.Dispatch(h.ctx, event); err != nil {
				return
			}
		case <-h.ctx.Done():
			return
		}
	}
}
