package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MessageStatus is the delivery state of a message. The lifecycle is linear:
// SENT -> DELIVERED -> READ, and a status never moves backwards.
type MessageStatus string

const (
	StatusSent      MessageStatus = "SENT"
	StatusDelivered MessageStatus = "DELIVERED"
	StatusRead      MessageStatus = "READ"
)

var statusRank = map[MessageStatus]int{
	StatusSent:      0,
	StatusDelivered: 1,
	StatusRead:      2,
}

// CanAdvance reports whether moving from s to next is a forward transition.
// Callers treat a non-advancing transition as a no-op, never as an error.
func (s MessageStatus) CanAdvance(next MessageStatus) bool {
	cur, ok := statusRank[s]
	if !ok {
		// unknown stored status: let the write through so the record converges
		return true
	}
	nxt, ok := statusRank[next]
	if !ok {
		return false
	}
	return nxt > cur
}

// MessageKind classifies the message content.
type MessageKind string

const (
	KindText  MessageKind = "TEXT"
	KindImage MessageKind = "IMAGE"
	KindVideo MessageKind = "VIDEO"
	KindAudio MessageKind = "AUDIO"
)

// Message represents a direct message document in MongoDB.
type Message struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	RoomID      string             `json:"chatId" bson:"room_id"`
	SenderID    string             `json:"senderId" bson:"sender_id"`
	RecipientID string             `json:"recipientId" bson:"recipient_id"`
	Content     string             `json:"content" bson:"content"`
	Kind        MessageKind        `json:"messageType" bson:"kind"`
	Status      MessageStatus      `json:"status" bson:"status"`
	CreatedAt   time.Time          `json:"timeStamp" bson:"created_at"`
	ReadAt      *time.Time         `json:"readTimestamp,omitempty" bson:"read_at,omitempty"`

	// Media metadata, populated only when Kind != TEXT. Upload and content
	// validation happen in an external collaborator; these are opaque here.
	MediaURL string `json:"mediaUrl,omitempty" bson:"media_url,omitempty"`
	FileName string `json:"fileName,omitempty" bson:"file_name,omitempty"`
	FileSize int64  `json:"fileSize,omitempty" bson:"file_size,omitempty"`
	MimeType string `json:"mimeType,omitempty" bson:"mime_type,omitempty"`
}
