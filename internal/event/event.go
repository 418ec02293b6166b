package event

import (
	"encoding/json"
	"time"

	"github.com/KrushnaHarde/ChatNexus/internal/model"
)

// Inbound websocket event names (client -> server).
const (
	EventChatSend   = "chat.send"
	EventChatRead   = "chat.read"
	EventChatTyping = "chat.typing"
)

// Outbound websocket event names (server -> client).
const (
	EventChatMessage   = "chat.message"
	EventChatDelivered = "chat.delivered"
	EventChatSeen      = "chat.seen"
	EventPresence      = "presence"
)

// WsEvent is the inbound envelope read off a websocket connection. The
// payload stays raw until the event name selects a concrete type.
type WsEvent struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// Outbound is the envelope written to subscribers of a topic.
type Outbound struct {
	Event   string `json:"event"`
	Payload any    `json:"payload"`
}

// TopicPresence carries every user's connect/disconnect transition.
const TopicPresence = "presence"

// MessageTopic is the per-recipient topic new messages are published to.
func MessageTopic(username string) string {
	return "user." + username + ".messages"
}

// StatusTopic is the per-user topic delivery and read receipts are
// published to.
func StatusTopic(username string) string {
	return "user." + username + ".status"
}

// SendMessage is the chat.send payload.
type SendMessage struct {
	SenderID    string            `json:"senderId"`
	RecipientID string            `json:"recipientId"`
	Content     string            `json:"content"`
	Kind        model.MessageKind `json:"messageType"`
	MediaURL    string            `json:"mediaUrl,omitempty"`
	FileName    string            `json:"fileName,omitempty"`
	FileSize    int64             `json:"fileSize,omitempty"`
	MimeType    string            `json:"mimeType,omitempty"`
}

// ReadRequest is the chat.read payload: the reader (recipient) acknowledges
// the messages authored by senderId.
type ReadRequest struct {
	SenderID    string `json:"senderId"`
	RecipientID string `json:"recipientId"`
}

// Typing is the chat.typing payload, relayed to the recipient without being
// persisted.
type Typing struct {
	SenderID    string `json:"senderId"`
	RecipientID string `json:"recipientId"`
	IsTyping    bool   `json:"isTyping"`
}

// Presence is published on TopicPresence for every transition.
type Presence struct {
	Username string               `json:"username"`
	Status   model.PresenceStatus `json:"status"`
	LastSeen time.Time            `json:"lastSeen"`
}

// MessageDelivered is the delivery receipt pushed to the sender's status
// topic.
type MessageDelivered struct {
	MessageID   string              `json:"messageId"`
	RoomID      string              `json:"chatId"`
	DeliveredTo string              `json:"deliveredTo"`
	DeliveredAt time.Time           `json:"deliveredAt"`
	Status      model.MessageStatus `json:"status"`
}

// MessageSeen is the read receipt pushed to the sender's status topic.
type MessageSeen struct {
	MessageID string    `json:"messageId"`
	RoomID    string    `json:"chatId"`
	SeenBy    string    `json:"seenBy"`
	SeenAt    time.Time `json:"seenAt"`
}
