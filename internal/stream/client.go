package stream

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 4096

	// Buffer size for outbound messages
	sendBufferSize = 64
)

// Client is one websocket subscriber.
type Client struct {
	ID   string
	conn *websocket.Conn
	Send chan ServerMessage
	hub  *Hub
	log  *logrus.Entry

	filterMu sync.RWMutex
	filter   SubscriptionFilter
}

func newClient(id string, conn *websocket.Conn, hub *Hub, log *logrus.Logger) *Client {
	return &Client{
		ID:   id,
		conn: conn,
		Send: make(chan ServerMessage, sendBufferSize),
		hub:  hub,
		log:  log.WithFields(logrus.Fields{"component": "stream", "client": id}),
	}
}

// readPump consumes subscription frames until the connection drops.
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var msg ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.WithError(err).Debug("Unexpected close")
			}
			return
		}

		switch msg.Type {
		case MessageTypeSubscribe:
			c.SetFilter(msg.Payload)
			c.log.WithFields(logrus.Fields{
				"leagues": msg.Payload.Leagues,
				"markets": msg.Payload.Markets,
			}).Info("Client subscribed")
		case MessageTypeUnsubscribe:
			c.SetFilter(SubscriptionFilter{})
		case MessageTypeHeartbeat:
			c.TrySend(ServerMessage{Type: MessageTypeHeartbeat, Timestamp: time.Now().UTC()})
		default:
			c.TrySend(ServerMessage{
				Type:      MessageTypeError,
				Payload:   ErrorMessage{Code: "unknown_message_type", Message: msg.Type},
				Timestamp: time.Now().UTC(),
			})
		}
	}
}

// writePump drains the send buffer and keeps the connection alive with
// pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(message); err != nil {
				c.log.WithError(err).Debug("Write failed")
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// TrySend queues a message without blocking. False means the buffer is full.
func (c *Client) TrySend(msg ServerMessage) bool {
	select {
	case c.Send <- msg:
		return true
	default:
		return false
	}
}

// SetFilter replaces the subscription filter.
func (c *Client) SetFilter(filter SubscriptionFilter) {
	c.filterMu.Lock()
	defer c.filterMu.Unlock()
	c.filter = filter
}

// Filter returns the current subscription filter.
func (c *Client) Filter() SubscriptionFilter {
	c.filterMu.RLock()
	defer c.filterMu.RUnlock()
	return c.filter
}
