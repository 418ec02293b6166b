package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PresenceStatus is a user's online/offline flag.
type PresenceStatus string

const (
	PresenceOnline  PresenceStatus = "ONLINE"
	PresenceOffline PresenceStatus = "OFFLINE"
)

// User represents a user document in MongoDB. The username is the opaque,
// stable identifier supplied by the identity collaborator; presence fields
// are mutated only by connect/disconnect events.
type User struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Username  string             `json:"username" bson:"username"`
	FullName  string             `json:"fullName" bson:"full_name"`
	Status    PresenceStatus     `json:"status" bson:"status"`
	LastSeen  time.Time          `json:"lastSeen" bson:"last_seen"`
	CreatedAt time.Time          `json:"createdAt" bson:"created_at"`
}
