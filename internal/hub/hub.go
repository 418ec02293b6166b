package hub

import (
	"context"
	"crypto/sha1"
	"encoding/binary"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/KrushnaHarde/ChatNexus/internal/event"
	"github.com/KrushnaHarde/ChatNexus/internal/model"
	"github.com/KrushnaHarde/ChatNexus/internal/service"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	shardCount = 64 // tune: 16/64/128 depending on load
)

type inboundMessage struct {
	event  event.WsEvent
	client *Client
}

type envelope struct {
	topic string
	ev    event.Outbound
}

type topicBucket struct {
	sync.RWMutex
	topics map[string]map[string]*Client
}

// Hub fans topic-addressed events out to live websocket subscribers. Publish
// never blocks and never reports an error: a slow or absent subscriber only
// affects real-time delivery, not persisted state.
type Hub struct {
	shards     [shardCount]*topicBucket
	register   chan *Client
	unregister chan *Client
	dispatch   chan envelope
	inbound    chan inboundMessage

	clientsMu sync.RWMutex
	clients   map[string]*Client

	messages service.MessageService
	presence service.PresenceService

	origins map[string]bool
	logger  *zap.Logger

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

func NewHub(logger *zap.Logger, allowedOrigins []string) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	h := &Hub{
		register:   make(chan *Client, 1024),
		unregister: make(chan *Client, 1024),
		dispatch:   make(chan envelope, 4096),
		inbound:    make(chan inboundMessage, 4096), // buffer for burst handling
		clients:    make(map[string]*Client),
		origins:    make(map[string]bool, len(allowedOrigins)),
		logger:     logger,
		ctx:        ctx,
		cancel:     cancel,
	}
	for _, o := range allowedOrigins {
		h.origins[o] = true
	}

	for i := 0; i < shardCount; i++ {
		h.shards[i] = &topicBucket{
			topics: make(map[string]map[string]*Client),
		}
	}

	// manager loop
	go h.run()

	// dispatcher loop, decoupled from publishers
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		for {
			select {
			case <-h.ctx.Done():
				return
			case env, ok := <-h.dispatch:
				if !ok {
					return
				}
				h.deliver(env)
			}
		}
	}()

	// inbound worker pool
	for i := 0; i < workerPoolSize; i++ {
		h.wg.Add(1)
		go func() {
			defer h.wg.Done()
			for {
				select {
				case <-h.ctx.Done():
					return
				case in, ok := <-h.inbound:
					if !ok {
						return
					}
					h.handleEvent(in.event, in.client)
				}
			}
		}()
	}

	return h
}

// Attach wires the domain services in after construction. The services hold
// the hub as their publisher, so they cannot be constructor arguments.
func (h *Hub) Attach(messages service.MessageService, presence service.PresenceService) {
	h.messages = messages
	h.presence = presence
}

// Publish enqueues an event for the topic's subscribers. Fire-and-forget:
// when the dispatch queue is full the event is dropped, never blocking the
// caller's write path.
func (h *Hub) Publish(topic string, ev event.Outbound) {
	select {
	case h.dispatch <- envelope{topic: topic, ev: ev}:
	default:
		h.logger.Warn("dispatch queue full, dropping event",
			zap.String("topic", topic),
			zap.String("event", ev.Event),
		)
	}
}

func (h *Hub) deliver(env envelope) {
	sh := getShard(env.topic)
	b := h.shards[sh]

	// collect subscribers while holding RLock
	b.RLock()
	subs, ok := b.topics[env.topic]
	if !ok || len(subs) == 0 {
		b.RUnlock()
		return
	}
	clients := make([]*Client, 0, len(subs))
	for _, c := range subs {
		clients = append(clients, c)
	}
	b.RUnlock()

	// deliver without holding the lock
	for _, c := range clients {
		if !c.SafeSend(env.ev, sendTimeout) {
			h.logger.Warn("egress full, unregistering client",
				zap.String("client_id", c.ID),
				zap.String("topic", env.topic),
			)
			if kickOnFull {
				select {
				case h.unregister <- c:
				default:
				}
			}
		}
	}
}

func (h *Hub) handleEvent(ev event.WsEvent, c *Client) {
	switch ev.Event {
	case event.EventChatSend:
		var req event.SendMessage
		if err := json.Unmarshal(ev.Payload, &req); err != nil {
			h.logger.Warn("malformed chat.send payload", zap.Error(err))
			return
		}
		msg := &model.Message{
			SenderID:    req.SenderID,
			RecipientID: req.RecipientID,
			Content:     req.Content,
			Kind:        req.Kind,
			MediaURL:    req.MediaURL,
			FileName:    req.FileName,
			FileSize:    req.FileSize,
			MimeType:    req.MimeType,
		}
		if _, err := h.messages.Send(h.ctx, msg); err != nil {
			h.logger.Error("send failed",
				zap.String("sender_id", req.SenderID),
				zap.String("recipient_id", req.RecipientID),
				zap.Error(err),
			)
		}

	case event.EventChatRead:
		var req event.ReadRequest
		if err := json.Unmarshal(ev.Payload, &req); err != nil {
			h.logger.Warn("malformed chat.read payload", zap.Error(err))
			return
		}
		if _, err := h.messages.MarkReadAndReturn(h.ctx, req.SenderID, req.RecipientID); err != nil {
			h.logger.Error("mark read failed",
				zap.String("sender_id", req.SenderID),
				zap.String("recipient_id", req.RecipientID),
				zap.Error(err),
			)
		}

	case event.EventChatTyping:
		var t event.Typing
		if err := json.Unmarshal(ev.Payload, &t); err != nil {
			h.logger.Warn("malformed chat.typing payload", zap.Error(err))
			return
		}
		// relayed live, never persisted
		h.Publish(event.MessageTopic(t.RecipientID), event.Outbound{
			Event:   event.EventChatTyping,
			Payload: t,
		})

	default:
		h.logger.Warn("unknown event type",
			zap.String("event", ev.Event),
			zap.String("client_id", c.ID),
		)
	}
}

func getShard(topic string) uint32 {
	if topic == "" {
		return 0
	}
	h := sha1.Sum([]byte(topic))
	return binary.BigEndian.Uint32(h[:4]) % shardCount
}

func (h *Hub) addClient(c *Client) {
	for _, topic := range c.topics {
		sh := getShard(topic)
		b := h.shards[sh]
		b.Lock()
		subs, ok := b.topics[topic]
		if !ok {
			subs = make(map[string]*Client)
			b.topics[topic] = subs
		}
		subs[c.ID] = c
		b.Unlock()
	}

	h.clientsMu.Lock()
	h.clients[c.ID] = c
	h.clientsMu.Unlock()

	h.logger.Debug("client registered",
		zap.String("client_id", c.ID),
		zap.String("username", c.username),
	)
}

func (h *Hub) removeClient(c *Client) {
	for _, topic := range c.topics {
		sh := getShard(topic)
		b := h.shards[sh]
		b.Lock()
		if subs, ok := b.topics[topic]; ok {
			delete(subs, c.ID)
			if len(subs) == 0 {
				delete(b.topics, topic)
			}
		}
		b.Unlock()
	}

	h.clientsMu.Lock()
	delete(h.clients, c.ID)
	h.clientsMu.Unlock()

	c.Close()
	h.logger.Debug("client removed",
		zap.String("client_id", c.ID),
		zap.String("username", c.username),
	)
}

func (h *Hub) run() {
	for {
		select {
		case <-h.ctx.Done():
			return
		case c := <-h.register:
			h.addClient(c)
		case c := <-h.unregister:
			h.removeClient(c)
		}
	}
}

func (h *Hub) Stop() {
	h.cancel()

	h.clientsMu.RLock()
	for _, c := range h.clients {
		c.Close()
	}
	h.clientsMu.RUnlock()

	// workers and the dispatcher exit via ctx; the inbound channel is left
	// open so lagging read loops never send on a closed channel
	h.wg.Wait()
}

func (h *Hub) checkOrigin(r *http.Request) bool {
	return h.origins[r.Header.Get("Origin")]
}

// ServeWS upgrades the connection, registers the client, marks the user
// online and flushes any messages stored while they were away.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, username string) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := RegisterClient(username, conn, h)
	if client == nil {
		return
	}

	if err := h.presence.Connect(h.ctx, username); err != nil {
		h.logger.Warn("presence connect failed",
			zap.String("username", username),
			zap.Error(err),
		)
	}
	for _, f := range h.messages.FlushUndelivered(h.ctx, username) {
		h.logger.Warn("undelivered flush item failed",
			zap.String("message_id", f.MessageID),
			zap.Error(f.Err),
		)
	}
}

func (h *Hub) onDisconnect(c *Client) {
	if err := h.presence.Disconnect(h.ctx, c.username); err != nil {
		h.logger.Warn("presence disconnect failed",
			zap.String("username", c.username),
			zap.Error(err),
		)
	}
}
