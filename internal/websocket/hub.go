package websocket

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"docchat-be/internal/dto"
	"docchat-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// envelope is the wire frame every pushed event travels in.
type envelope struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// clusterEvent is the cross-instance relay payload. Origin identifies the
// publishing instance so each subscriber can ignore its own messages; local
// clients were already served directly.
type clusterEvent struct {
	Origin       string          `json:"origin"`
	TargetUserID string          `json:"target_user_id"`
	Message      json.RawMessage `json:"message"`
}

// outbound is a frame queued for local delivery.
type outbound struct {
	target   uuid.UUID
	wildcard bool
	frame    []byte
}

// Hub fans events out to connected clients. A user may hold several
// connections (multi-device); all of them receive every event.
type Hub struct {
	clients map[uuid.UUID][]*Client

	register   chan *Client
	unregister chan *Client

	// All local deliveries go through the run loop, which is the only
	// goroutine allowed to close a client's Send channel.
	outbound chan outbound

	mu sync.RWMutex

	// Redis relays events to clients connected to other instances.
	// Nil disables cross-instance delivery.
	rdb *redis.Client

	instanceID string

	logger logger.ILogger
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		outbound:   make(chan outbound, 256),
		clients:    make(map[uuid.UUID][]*Client),
		rdb:        rdb,
		instanceID: uuid.New().String(),
		logger:     log,
	}
}

func (h *Hub) Run() {
	if h.rdb != nil {
		go h.subscribeToRedis()
	}

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.UserID] = append(h.clients[client.UserID], client)
			h.mu.Unlock()
			h.logger.Info("Hub", "Client registered", map[string]interface{}{"user_id": client.UserID})

		case client := <-h.unregister:
			h.removeClient(client)

		case out := <-h.outbound:
			h.deliver(out)
		}
	}
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	clients, ok := h.clients[client.UserID]
	if !ok {
		return
	}
	for i, c := range clients {
		if c == client {
			h.clients[client.UserID] = append(clients[:i], clients[i+1:]...)
			// Close only happens here, so a client dropped twice cannot
			// double-close its channel.
			close(client.Send)
			break
		}
	}
	if len(h.clients[client.UserID]) == 0 {
		delete(h.clients, client.UserID)
		h.logger.Info("Hub", "Client unregistered", map[string]interface{}{"user_id": client.UserID})
	}
}

// deliver writes a frame to the matching local connections. Runs on the hub
// goroutine only; stalled clients are dropped on the spot.
func (h *Hub) deliver(out outbound) {
	h.mu.RLock()
	var clients []*Client
	if out.wildcard {
		for _, conns := range h.clients {
			clients = append(clients, conns...)
		}
	} else {
		clients = append(clients, h.clients[out.target]...)
	}
	h.mu.RUnlock()

	for _, client := range clients {
		select {
		case client.Send <- out.frame:
		default:
			h.logger.Warn("Hub", "Client send buffer full, dropping connection", map[string]interface{}{"user_id": client.UserID})
			h.removeClient(client)
		}
	}
}

// PublishToUser pushes a chat turn progress event to every connection of a
// user. Satisfies the chat service's stream publisher.
func (h *Hub) PublishToUser(userID uuid.UUID, event dto.StreamEvent) {
	h.Send(userID, "chat_stream", event)
}

// Send delivers a typed event to one user, locally and via Redis for
// connections held by other instances.
func (h *Hub) Send(userID uuid.UUID, eventType string, data interface{}) {
	raw, err := json.Marshal(envelope{Type: eventType, Data: data})
	if err != nil {
		h.logger.Error("Hub", "Failed to marshal event", map[string]interface{}{"type": eventType, "error": err.Error()})
		return
	}

	h.outbound <- outbound{target: userID, frame: raw}
	h.relay(userID.String(), raw)
}

// Broadcast delivers a typed event to every connected client.
func (h *Hub) Broadcast(eventType string, data interface{}) {
	raw, err := json.Marshal(envelope{Type: eventType, Data: data})
	if err != nil {
		h.logger.Error("Hub", "Failed to marshal event", map[string]interface{}{"type": eventType, "error": err.Error()})
		return
	}

	h.outbound <- outbound{wildcard: true, frame: raw}
	h.relay("*", raw)
}

// relay publishes a frame for the other instances of the cluster.
func (h *Hub) relay(target string, raw []byte) {
	if h.rdb == nil {
		return
	}
	payload, _ := json.Marshal(clusterEvent{
		Origin:       h.instanceID,
		TargetUserID: target,
		Message:      raw,
	})
	h.rdb.Publish(context.Background(), "cluster_events", payload)
}

// subscribeToRedis receives events published by other instances and delivers
// them to any matching local connections.
func (h *Hub) subscribeToRedis() {
	ctx := context.Background()
	pubsub := h.rdb.Subscribe(ctx, "cluster_events")
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		h.handleClusterPayload([]byte(msg.Payload))
	}
}

func (h *Hub) handleClusterPayload(raw []byte) {
	var payload clusterEvent
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Printf("Redis msg parse error: %v", err)
		return
	}

	// Our own publication; local clients already got the frame.
	if payload.Origin == h.instanceID {
		return
	}

	if payload.TargetUserID == "*" {
		h.outbound <- outbound{wildcard: true, frame: payload.Message}
		return
	}

	uid, err := uuid.Parse(payload.TargetUserID)
	if err != nil {
		return
	}
	h.outbound <- outbound{target: uid, frame: payload.Message}
}
