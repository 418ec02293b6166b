package hub

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/KrushnaHarde/ChatNexus/internal/event"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var (
	// tuning parameters
	writeWait          = 10 * time.Second       // time allowed to write a message to the peer
	pongWait           = 20 * time.Second       // time allowed to read the next pong message from the peer
	pingInterval       = (pongWait * 9) / 10    // send pings to peer with this period
	maxMessageSize     = 64 * 1024              // max inbound message size (64KB)
	sendBufSize        = 256                    // per-connection outbound buffer size
	workerPoolSize     = 16                     // number of workers to process inbound events
	sendTimeout        = 2 * time.Second        // timeout for enqueuing outbound events
	kickOnFull         = true                   // when true, disconnect client when egress is full
	registerTimeout    = 5 * time.Second        // timeout for client registration
	unregisterTimeout  = 5 * time.Second        // timeout for client unregistration
	inboundSendTimeout = 500 * time.Millisecond // timeout for sending to inbound channel
)

// Client is a single websocket connection subscribed to its user's topics.
type Client struct {
	ID       string
	username string
	topics   []string
	conn     *websocket.Conn
	manager  *Hub
	egress   chan event.Outbound

	cancel         context.CancelFunc
	ctx            context.Context
	once           sync.Once
	connClosed     chan struct{}
	connClosedOnce sync.Once
	closed         bool
	closedMu       sync.RWMutex
}

// RegisterClient creates a client for the connection and subscribes it to
// the presence topic and the user's message and status topics.
func RegisterClient(username string, conn *websocket.Conn, h *Hub) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	clientID := uuid.New().String()

	client := &Client{
		ID:       clientID,
		username: username,
		topics: []string{
			event.TopicPresence,
			event.MessageTopic(username),
			event.StatusTopic(username),
		},
		conn:           conn,
		manager:        h,
		egress:         make(chan event.Outbound, sendBufSize),
		cancel:         cancel,
		ctx:            ctx,
		connClosed:     make(chan struct{}),
	}

	select {
	case h.register <- client:
		go client.readLoop()
		go client.writeLoop()
		h.logger.Debug("client connected",
			zap.String("client_id", clientID),
			zap.String("username", username),
		)
		return client
	case <-time.After(registerTimeout):
		h.logger.Warn("client registration timed out", zap.String("client_id", clientID))
		cancel()
		conn.Close()
		return nil
	}
}

func (c *Client) readLoop() {
	defer func() {
		select {
		case c.manager.unregister <- c:
		case <-time.After(unregisterTimeout):
			c.manager.logger.Warn("unregister timed out", zap.String("client_id", c.ID))
		}
		c.manager.onDisconnect(c)
		c.Close()
	}()

	c.conn.SetReadLimit(int64(maxMessageSize))
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(c.pongHandler)

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
			var ev event.WsEvent
			if err := c.conn.ReadJSON(&ev); err != nil {
				if websocket.IsCloseError(err,
					websocket.CloseNormalClosure,
					websocket.CloseGoingAway,
					websocket.CloseAbnormalClosure,
				) {
					c.manager.logger.Debug("client disconnected", zap.String("client_id", c.ID))
					return
				}
				if ne, ok := err.(net.Error); ok && ne.Timeout() {
					c.manager.logger.Debug("client timed out", zap.String("client_id", c.ID))
					return
				}
				c.manager.logger.Debug("read error",
					zap.String("client_id", c.ID),
					zap.Error(err),
				)
				return
			}

			// non-blocking handoff so a stalled worker pool cannot block the reader
			select {
			case c.manager.inbound <- inboundMessage{client: c, event: ev}:
			case <-time.After(inboundSendTimeout):
				c.manager.logger.Warn("inbound queue full, dropping client", zap.String("client_id", c.ID))
				c.cancel()
				c.conn.Close()
			case <-c.ctx.Done():
				return
			}
		}
	}
}

func (c *Client) writeLoop() {
	ticker := time.NewTicker(pingInterval)

	defer func() {
		ticker.Stop()
		c.Close()
		_ = c.conn.Close()
		c.connClosedOnce.Do(func() {
			close(c.connClosed)
		})
	}()

	for {
		select {
		case <-c.ctx.Done():
			return
		case ev, ok := <-c.egress:
			if !ok {
				if err := c.conn.WriteMessage(websocket.CloseMessage, nil); err != nil {
					c.manager.logger.Debug("close write failed", zap.Error(err))
				}
				return
			}

			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(ev); err != nil {
				c.manager.logger.Debug("write failed",
					zap.String("client_id", c.ID),
					zap.Error(err),
				)
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				c.manager.logger.Debug("ping failed",
					zap.String("client_id", c.ID),
					zap.Error(err),
				)
				return
			}
		}
	}
}

func (c *Client) pongHandler(string) error {
	return c.conn.SetReadDeadline(time.Now().Add(pongWait))
}

func (c *Client) Close() {
	c.once.Do(func() {
		// cancel first so a sender blocked inside SafeSend's select exits
		// and releases its read lock
		c.cancel()

		c.closedMu.Lock()
		c.closed = true
		close(c.egress)
		c.closedMu.Unlock()

		// wait for writeLoop to close conn, or force close after timeout
		go func() {
			select {
			case <-c.connClosed:
			case <-time.After(5 * time.Second):
				_ = c.conn.Close()
			}
		}()
	})
}

// IsClosed returns true if the client has been closed
func (c *Client) IsClosed() bool {
	c.closedMu.RLock()
	defer c.closedMu.RUnlock()
	return c.closed
}

// SafeSend attempts to enqueue an event on the client's egress channel.
// Returns false when the client is closed or the buffer stays full past the
// timeout. The read lock spans the closed check and the send so Close cannot
// close egress in between.
func (c *Client) SafeSend(ev event.Outbound, timeout time.Duration) bool {
	c.closedMu.RLock()
	defer c.closedMu.RUnlock()
	if c.closed {
		return false
	}

	select {
	case <-c.ctx.Done():
		return false
	case c.egress <- ev:
		return true
	case <-time.After(timeout):
		return false
	}
}
