package service

import (
	"context"
	"testing"

	"github.com/KrushnaHarde/ChatNexus/internal/event"
	"github.com/KrushnaHarde/ChatNexus/internal/model"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newPresenceEnv() (*fakeUserRepo, *recordingPublisher, PresenceService) {
	users := newFakeUserRepo()
	pub := &recordingPublisher{}
	return users, pub, NewPresenceService(users, pub, zap.NewNop())
}

func TestIsOnline_UnknownUserIsOffline(t *testing.T) {
	_, _, presence := newPresenceEnv()

	require.False(t, presence.IsOnline(context.Background(), "nobody"))
}

func TestRegister_CreatesOfflineUser(t *testing.T) {
	_, _, presence := newPresenceEnv()

	user, err := presence.Register(context.Background(), "alice", "Alice A")
	require.NoError(t, err)
	require.Equal(t, model.PresenceOffline, user.Status)
	require.False(t, presence.IsOnline(context.Background(), "alice"))
}

func TestConnect_SetsOnlineAndBroadcasts(t *testing.T) {
	users, pub, presence := newPresenceEnv()

	_, err := presence.Register(context.Background(), "alice", "Alice A")
	require.NoError(t, err)

	// the broadcast must happen after the store write
	var storedAtPublish model.PresenceStatus
	pub.onPublish = func(topic string, ev event.Outbound) {
		if ev.Event != event.EventPresence {
			return
		}
		u, err := users.FindByUsername(context.Background(), "alice")
		require.NoError(t, err)
		require.NotNil(t, u)
		storedAtPublish = u.Status
	}

	require.NoError(t, presence.Connect(context.Background(), "alice"))

	require.True(t, presence.IsOnline(context.Background(), "alice"))
	require.Equal(t, model.PresenceOnline, storedAtPublish)

	broadcasts := pub.byEvent(event.EventPresence)
	require.Len(t, broadcasts, 1)
	require.Equal(t, event.TopicPresence, broadcasts[0].topic)

	payload, ok := broadcasts[0].ev.Payload.(event.Presence)
	require.True(t, ok)
	require.Equal(t, "alice", payload.Username)
	require.Equal(t, model.PresenceOnline, payload.Status)
}

func TestDisconnect_SetsOfflineAndUpdatesLastSeen(t *testing.T) {
	users, _, presence := newPresenceEnv()

	_, err := presence.Register(context.Background(), "alice", "Alice A")
	require.NoError(t, err)
	require.NoError(t, presence.Connect(context.Background(), "alice"))

	before, err := users.FindByUsername(context.Background(), "alice")
	require.NoError(t, err)

	require.NoError(t, presence.Disconnect(context.Background(), "alice"))
	require.False(t, presence.IsOnline(context.Background(), "alice"))

	after, err := users.FindByUsername(context.Background(), "alice")
	require.NoError(t, err)
	require.Equal(t, model.PresenceOffline, after.Status)
	require.False(t, after.LastSeen.Before(before.LastSeen))
}

func TestConnect_UnknownUserDoesNotError(t *testing.T) {
	_, pub, presence := newPresenceEnv()

	require.NoError(t, presence.Connect(context.Background(), "ghost"))
	// transition is still announced to live subscribers
	require.Len(t, pub.byEvent(event.EventPresence), 1)
}

func TestConnectedUsers_FiltersByStatus(t *testing.T) {
	_, _, presence := newPresenceEnv()

	for _, name := range []string{"alice", "bob", "carol"} {
		_, err := presence.Register(context.Background(), name, name)
		require.NoError(t, err)
	}
	require.NoError(t, presence.Connect(context.Background(), "alice"))
	require.NoError(t, presence.Connect(context.Background(), "bob"))

	online, err := presence.ConnectedUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, online, 2)

	all, err := presence.AllUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 3)
}

func TestSearchUsers_CaseInsensitiveContains(t *testing.T) {
	_, _, presence := newPresenceEnv()

	for _, name := range []string{"alice", "alicia", "bob"} {
		_, err := presence.Register(context.Background(), name, name)
		require.NoError(t, err)
	}

	found, err := presence.SearchUsers(context.Background(), "ALI")
	require.NoError(t, err)
	require.Len(t, found, 2)
}
