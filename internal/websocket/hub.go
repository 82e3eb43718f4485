// Package websocket pushes pipeline events to connected dashboard clients.
package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/welldanyogia/webrana-support-assistant/internal/models"
	"github.com/welldanyogia/webrana-support-assistant/internal/pipeline"
)

// MessageType represents the type of WebSocket message
type MessageType string

const (
	MessageTypeSubscribe   MessageType = "subscribe"
	MessageTypeUnsubscribe MessageType = "unsubscribe"
	MessageTypeEvent       MessageType = "event"
	MessageTypeError       MessageType = "error"
)

// Topic groups events a client can subscribe to
type Topic string

const (
	// TopicMessages carries every message.* event
	TopicMessages Topic = "messages"
	// TopicUrgent carries message events about urgent messages only
	TopicUrgent Topic = "urgent"
	// TopicCycles carries cycle.completed events
	TopicCycles Topic = "cycles"
)

// Valid reports whether t is a known topic
func (t Topic) Valid() bool {
	switch t {
	case TopicMessages, TopicUrgent, TopicCycles:
		return true
	}
	return false
}

// WSMessage represents a WebSocket message
type WSMessage struct {
	Type  MessageType `json:"type"`
	Topic Topic       `json:"topic,omitempty"`
	Event *EventFrame `json:"event,omitempty"`
	Error string      `json:"error,omitempty"`
}

// EventFrame is the wire form of a pipeline event
type EventFrame struct {
	Type      pipeline.EventType `json:"type"`
	MessageID uint               `json:"message_id,omitempty"`
	Data      interface{}        `json:"data,omitempty"`
	At        time.Time          `json:"at"`
}

// Hub maintains the set of active clients and broadcasts events
type Hub struct {
	// Registered clients
	clients map[*Client]bool

	// Topic subscriptions: topic -> set of clients
	subscriptions map[Topic]map[*Client]bool

	register    chan *Client
	unregister  chan *Client
	subscribe   chan *subscriptionRequest
	unsubscribe chan *subscriptionRequest
	broadcast   chan *broadcastMessage

	mu     sync.RWMutex
	logger *slog.Logger
}

type subscriptionRequest struct {
	client *Client
	topic  Topic
}

type broadcastMessage struct {
	topics  []Topic
	message []byte
}

// NewHub creates a new Hub instance
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients:       make(map[*Client]bool),
		subscriptions: make(map[Topic]map[*Client]bool),
		register:      make(chan *Client),
		unregister:    make(chan *Client),
		subscribe:     make(chan *subscriptionRequest),
		unsubscribe:   make(chan *subscriptionRequest),
		broadcast:     make(chan *broadcastMessage, 256),
		logger:        logger,
	}
}

// Run starts the hub's main loop. It returns when ctx is done, closing
// every client's send channel.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
			}
			h.clients = make(map[*Client]bool)
			h.subscriptions = make(map[Topic]map[*Client]bool)
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			if h.logger != nil {
				h.logger.Debug("client registered", slog.String("client_id", client.ID))
			}

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				for topic, subscribers := range h.subscriptions {
					delete(subscribers, client)
					if len(subscribers) == 0 {
						delete(h.subscriptions, topic)
					}
				}
			}
			h.mu.Unlock()
			if h.logger != nil {
				h.logger.Debug("client unregistered", slog.String("client_id", client.ID))
			}

		case req := <-h.subscribe:
			h.mu.Lock()
			if h.clients[req.client] {
				if h.subscriptions[req.topic] == nil {
					h.subscriptions[req.topic] = make(map[*Client]bool)
				}
				h.subscriptions[req.topic][req.client] = true
			}
			h.mu.Unlock()
			if h.logger != nil {
				h.logger.Debug("client subscribed",
					slog.String("client_id", req.client.ID),
					slog.String("topic", string(req.topic)))
			}

		case req := <-h.unsubscribe:
			h.mu.Lock()
			if subscribers, ok := h.subscriptions[req.topic]; ok {
				delete(subscribers, req.client)
				if len(subscribers) == 0 {
					delete(h.subscriptions, req.topic)
				}
			}
			h.mu.Unlock()
			if h.logger != nil {
				h.logger.Debug("client unsubscribed",
					slog.String("client_id", req.client.ID),
					slog.String("topic", string(req.topic)))
			}

		case msg := <-h.broadcast:
			h.mu.RLock()
			// a client subscribed to several matching topics gets one copy
			sent := make(map[*Client]bool)
			for _, topic := range msg.topics {
				for client := range h.subscriptions[topic] {
					if sent[client] {
						continue
					}
					sent[client] = true
					select {
					case client.send <- msg.message:
					default:
						// Client buffer full, skip
					}
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Register adds a client to the hub
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Subscribe subscribes a client to a topic
func (h *Hub) Subscribe(client *Client, topic Topic) {
	h.subscribe <- &subscriptionRequest{client: client, topic: topic}
}

// Unsubscribe unsubscribes a client from a topic
func (h *Hub) Unsubscribe(client *Client, topic Topic) {
	h.unsubscribe <- &subscriptionRequest{client: client, topic: topic}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Publish implements pipeline.EventSink. It never blocks: when the
// broadcast queue is full the event is dropped.
func (h *Hub) Publish(ctx context.Context, event pipeline.Event) {
	msg := WSMessage{
		Type: MessageTypeEvent,
		Event: &EventFrame{
			Type:      event.Type,
			MessageID: event.MessageID,
			Data:      event.Data,
			At:        event.At,
		},
	}

	data, err := json.Marshal(msg)
	if err != nil {
		if h.logger != nil {
			h.logger.Error("failed to marshal broadcast message", slog.Any("error", err))
		}
		return
	}

	select {
	case h.broadcast <- &broadcastMessage{topics: topicsFor(event), message: data}:
	default:
		if h.logger != nil {
			h.logger.Warn("broadcast queue full, dropping event", slog.String("type", string(event.Type)))
		}
	}
}

// topicsFor returns the topics an event is delivered on
func topicsFor(event pipeline.Event) []Topic {
	if event.Type == pipeline.EventCycleCompleted {
		return []Topic{TopicCycles}
	}
	topics := []Topic{TopicMessages}
	if msg, ok := event.Data.(*models.SupportMessage); ok && msg.Priority == models.PriorityUrgent {
		topics = append(topics, TopicUrgent)
	}
	return topics
}
