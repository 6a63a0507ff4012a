package stream

import (
	"context"
	"log"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Hub fans leg lifecycle events out to websocket subscribers, keyed by
// route ID. With redis attached, events are published once and reach every
// local subscriber through the pattern subscription, so instances never see
// their own broadcast twice.
type Hub struct {
	redis   *redis.Client
	clients map[string]map[*Client]struct{}
	mu      sync.RWMutex
}

type Client struct {
	RouteID string
	Send    chan []byte
}

func NewHub(redisClient *redis.Client) *Hub {
	h := &Hub{
		redis:   redisClient,
		clients: map[string]map[*Client]struct{}{},
	}

	if redisClient != nil {
		go h.subscribeRedis()
	}
	return h
}

func (h *Hub) Register(routeID string) *Client {
	client := &Client{
		RouteID: routeID,
		Send:    make(chan []byte, 64),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[routeID] == nil {
		h.clients[routeID] = map[*Client]struct{}{}
	}
	h.clients[routeID][client] = struct{}{}
	return client
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if routeClients, ok := h.clients[client.RouteID]; ok {
		delete(routeClients, client)
		if len(routeClients) == 0 {
			delete(h.clients, client.RouteID)
		}
	}
	close(client.Send)
}

// Broadcast delivers the payload to the route's subscribers exactly once.
// With redis attached, delivery happens via the subscription; a publish
// failure degrades to direct local delivery.
func (h *Hub) Broadcast(routeID string, payload []byte) {
	if h.redis != nil {
		err := h.redis.Publish(context.Background(), redisChannel(routeID), payload).Err()
		if err == nil {
			return
		}
		log.Printf("redis publish error, delivering locally: %v", err)
	}

	h.deliver(routeID, payload)
}

// deliver sends to local subscribers. The send loop runs under the read
// lock so Unregister cannot close a channel mid-send; buffered channels and
// the default case keep it from blocking.
func (h *Hub) deliver(routeID string, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients[routeID] {
		select {
		case client.Send <- payload:
		default:
		}
	}
}

func (h *Hub) subscribeRedis() {
	ctx := context.Background()
	pubsub := h.redis.PSubscribe(ctx, "routes:*:events")
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		h.deliver(routeIDFromChannel(msg.Channel), []byte(msg.Payload))
	}
}

func redisChannel(routeID string) string {
	return "routes:" + routeID + ":events"
}

func routeIDFromChannel(ch string) string {
	// routes:{route}:events
	const prefix = "routes:"
	const suffix = ":events"
	if len(ch) <= len(prefix)+len(suffix) {
		return ""
	}
	return ch[len(prefix) : len(ch)-len(suffix)]
}
