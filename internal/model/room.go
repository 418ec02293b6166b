package model

import (
	"strings"
	"time"
)

// Room is the conversation bucket for an unordered pair of users. The
// document id is the canonical pair key, so Mongo's unique _id index is what
// guarantees a single room per pair under concurrent first-contact sends.
type Room struct {
	ID        string    `json:"chatId" bson:"_id"`
	UserA     string    `json:"userA" bson:"user_a"`
	UserB     string    `json:"userB" bson:"user_b"`
	CreatedAt time.Time `json:"createdAt" bson:"created_at"`
}

// CanonicalRoomKey derives the room identifier for two user ids. The pair is
// unordered: CanonicalRoomKey(a, b) == CanonicalRoomKey(b, a).
func CanonicalRoomKey(a, b string) string {
	if strings.Compare(a, b) > 0 {
		a, b = b, a
	}
	return a + "_" + b
}

// NewRoom builds the room record for a pair, with participants stored in
// canonical order.
func NewRoom(a, b string, now time.Time) Room {
	if strings.Compare(a, b) > 0 {
		a, b = b, a
	}
	return Room{
		ID:        a + "_" + b,
		UserA:     a,
		UserB:     b,
		CreatedAt: now,
	}
}
