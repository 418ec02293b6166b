package hub

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/KrushnaHarde/ChatNexus/internal/event"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// newTestClient builds a client without a websocket connection, registered
// directly so no read/write pumps run.
func newTestClient(h *Hub, username string) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		ID:       uuid.New().String(),
		username: username,
		topics: []string{
			event.TopicPresence,
			event.MessageTopic(username),
			event.StatusTopic(username),
		},
		manager:    h,
		egress:     make(chan event.Outbound, sendBufSize),
		ctx:        ctx,
		cancel:     cancel,
		connClosed: make(chan struct{}),
	}
	// no writeLoop will ever close the connection
	c.connClosedOnce.Do(func() { close(c.connClosed) })
	h.addClient(c)
	return c
}

func receive(t *testing.T, c *Client) event.Outbound {
	t.Helper()
	select {
	case ev := <-c.egress:
		return ev
	case <-time.After(time.Second):
		t.Fatal("no event received")
		return event.Outbound{}
	}
}

func TestHub_PublishReachesSubscriber(t *testing.T) {
	h := NewHub(zap.NewNop(), nil)
	defer h.Stop()

	bob := newTestClient(h, "bob")

	h.Publish(event.MessageTopic("bob"), event.Outbound{
		Event:   event.EventChatMessage,
		Payload: "hi",
	})

	ev := receive(t, bob)
	require.Equal(t, event.EventChatMessage, ev.Event)
	require.Equal(t, "hi", ev.Payload)
}

func TestHub_PublishToAbsentTopicIsNoOp(t *testing.T) {
	h := NewHub(zap.NewNop(), nil)
	defer h.Stop()

	// nobody subscribed; must not block or panic
	h.Publish(event.MessageTopic("nobody"), event.Outbound{Event: event.EventChatMessage})
}

func TestHub_PresenceTopicReachesAllClients(t *testing.T) {
	h := NewHub(zap.NewNop(), nil)
	defer h.Stop()

	alice := newTestClient(h, "alice")
	bob := newTestClient(h, "bob")

	h.Publish(event.TopicPresence, event.Outbound{Event: event.EventPresence})

	require.Equal(t, event.EventPresence, receive(t, alice).Event)
	require.Equal(t, event.EventPresence, receive(t, bob).Event)
}

func TestHub_MessageTopicIsPerUser(t *testing.T) {
	h := NewHub(zap.NewNop(), nil)
	defer h.Stop()

	alice := newTestClient(h, "alice")
	bob := newTestClient(h, "bob")

	h.Publish(event.MessageTopic("bob"), event.Outbound{Event: event.EventChatMessage})

	require.Equal(t, event.EventChatMessage, receive(t, bob).Event)
	select {
	case ev := <-alice.egress:
		t.Fatalf("alice received %q addressed to bob", ev.Event)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_RemovedClientStopsReceiving(t *testing.T) {
	h := NewHub(zap.NewNop(), nil)
	defer h.Stop()

	bob := newTestClient(h, "bob")
	h.removeClient(bob)

	h.Publish(event.MessageTopic("bob"), event.Outbound{Event: event.EventChatMessage})

	time.Sleep(50 * time.Millisecond)
	require.True(t, bob.IsClosed())
}

func TestHub_TypingRelayedToRecipient(t *testing.T) {
	h := NewHub(zap.NewNop(), nil)
	defer h.Stop()

	alice := newTestClient(h, "alice")
	bob := newTestClient(h, "bob")

	payload, err := json.Marshal(event.Typing{
		SenderID:    "alice",
		RecipientID: "bob",
		IsTyping:    true,
	})
	require.NoError(t, err)

	h.handleEvent(event.WsEvent{Event: event.EventChatTyping, Payload: payload}, alice)

	ev := receive(t, bob)
	require.Equal(t, event.EventChatTyping, ev.Event)

	typing, ok := ev.Payload.(event.Typing)
	require.True(t, ok)
	require.True(t, typing.IsTyping)

	select {
	case <-alice.egress:
		t.Fatal("typing echoed back to the sender")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestClient_SafeSendDuringCloseDoesNotPanic(t *testing.T) {
	h := NewHub(zap.NewNop(), nil)
	defer h.Stop()

	bob := newTestClient(h, "bob")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				bob.SafeSend(event.Outbound{Event: event.EventChatMessage}, 10*time.Millisecond)
			}
		}()
	}

	bob.Close()
	wg.Wait()

	require.True(t, bob.IsClosed())
	require.False(t, bob.SafeSend(event.Outbound{Event: event.EventChatMessage}, 10*time.Millisecond))
}

func TestMonitor_ReportsConnectionsAndTopics(t *testing.T) {
	h := NewHub(zap.NewNop(), nil)
	defer h.Stop()

	newTestClient(h, "alice")
	newTestClient(h, "alice") // second device
	newTestClient(h, "bob")

	stats := NewMonitorService(h).GetStats()

	require.Equal(t, "healthy", stats.Status)
	require.Equal(t, 3, stats.Connections.TotalConnected)
	require.Equal(t, 2, stats.Connections.UniqueUsers)
	require.Len(t, stats.Clients, 3)

	// presence + per-user message/status topics for two users
	require.Equal(t, 5, stats.Topics.TotalTopics)
}

func TestMonitor_IdleWhenNoClients(t *testing.T) {
	h := NewHub(zap.NewNop(), nil)
	defer h.Stop()

	stats := NewMonitorService(h).GetStats()
	require.Equal(t, "idle", stats.Status)
	require.Zero(t, stats.Connections.TotalConnected)
}
