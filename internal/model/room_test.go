package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCanonicalRoomKey_PairOrderIndependent(t *testing.T) {
	require.Equal(t, CanonicalRoomKey("alice", "bob"), CanonicalRoomKey("bob", "alice"))
	require.Equal(t, "alice_bob", CanonicalRoomKey("bob", "alice"))
}

func TestCanonicalRoomKey_Stable(t *testing.T) {
	first := CanonicalRoomKey("u1", "u2")
	for i := 0; i < 10; i++ {
		require.Equal(t, first, CanonicalRoomKey("u1", "u2"))
		require.Equal(t, first, CanonicalRoomKey("u2", "u1"))
	}
}

func TestCanonicalRoomKey_DistinctPairs(t *testing.T) {
	require.NotEqual(t, CanonicalRoomKey("alice", "bob"), CanonicalRoomKey("alice", "carol"))
}

func TestNewRoom_CanonicalizesParticipants(t *testing.T) {
	now := time.Now()

	room := NewRoom("bob", "alice", now)
	require.Equal(t, "alice_bob", room.ID)
	require.Equal(t, "alice", room.UserA)
	require.Equal(t, "bob", room.UserB)

	flipped := NewRoom("alice", "bob", now)
	require.Equal(t, room.ID, flipped.ID)
	require.Equal(t, room.UserA, flipped.UserA)
}
