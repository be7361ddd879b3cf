package websocket

import (
	"time"

	"hangout-service/internal/models"
)

// MessageType represents the type of WebSocket message
type MessageType string

const (
	// Connection events
	MessageTypeConnect MessageType = "connection.connect"

	// Plan events
	MessageTypePlanEvent MessageType = "plan.event"

	// Keepalive requested by the client
	MessageTypePing MessageType = "ping"
	MessageTypePong MessageType = "pong"

	// Error events
	MessageTypeError MessageType = "error"
)

func (mt MessageType) String() string {
	return string(mt)
}

func (mt MessageType) IsValid() bool {
	switch mt {
	case MessageTypeConnect, MessageTypePlanEvent, MessageTypePing, MessageTypePong, MessageTypeError:
		return true
	default:
		return false
	}
}

// Message is the frame exchanged with browsers
type Message struct {
	ID        string            `json:"id,omitempty"`
	Type      MessageType       `json:"type"`
	PlanID    uint              `json:"plan_id,omitempty"`
	Event     *models.PlanEvent `json:"event,omitempty"`
	Error     string            `json:"error,omitempty"`
	Timestamp int64             `json:"timestamp"`
}

func newEventMessage(event models.PlanEvent) *Message {
	return &Message{
		ID:        event.ID,
		Type:      MessageTypePlanEvent,
		PlanID:    event.PlanID,
		Event:     &event,
		Timestamp: event.OccurredAt.Unix(),
	}
}

func newMessage(t MessageType, planID uint) *Message {
	return &Message{Type: t, PlanID: planID, Timestamp: time.Now().Unix()}
}
