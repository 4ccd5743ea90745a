package ws

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxControlSize = 4096
	sendBuffer     = 2048
)

// frame is one outgoing websocket message.
type frame struct {
	kind int
	data []byte
}

// StatusFrame is sent on connect and in reply to a "status" control message.
type StatusFrame struct {
	Type    string        `json:"type"`
	Payload StatusPayload `json:"payload"`
}

type StatusPayload struct {
	Mode          string `json:"mode"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	Clients       int    `json:"clients"`
}

// control is a client request: subscribe, unsubscribe or status.
type control struct {
	Action string   `json:"action"`
	Topics []string `json:"topics"`
}

type topicSet struct {
	mu sync.RWMutex
	m  map[string]struct{}
}

func (s *topicSet) has(t string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.m[t]
	return ok
}

func (s *topicSet) set(on bool, topics []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range topics {
		if on {
			s.m[t] = struct{}{}
		} else {
			delete(s.m, t)
		}
	}
}

type client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan frame
	topics topicSet
}

func newClient(h *Hub, conn *websocket.Conn) *client {
	return &client{
		hub:  h,
		conn: conn,
		send: make(chan frame, sendBuffer),
		topics: topicSet{m: map[string]struct{}{
			TopicRecords: {},
			TopicStatus:  {},
		}},
	}
}

func (c *client) readLoop() {
	defer func() {
		select {
		case c.hub.leave <- c:
		case <-c.hub.done:
		}
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxControlSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Warn("connection closed unexpectedly", slog.String("error", err.Error()))
			}
			return
		}
		var msg control
		if jsoniter.Unmarshal(raw, &msg) != nil {
			continue
		}
		switch msg.Action {
		case "subscribe":
			c.topics.set(true, msg.Topics)
		case "unsubscribe":
			c.topics.set(false, msg.Topics)
		case "status":
			c.requestStatus()
		}
	}
}

// requestStatus asks the hub to send this client a status frame. The hub
// writes it only while the client is registered, and skips it when the
// client's buffer is full.
func (c *client) requestStatus() {
	c.hub.deliver(outbound{topic: TopicStatus, to: c})
}

func (c *client) writeLoop() {
	ping := time.NewTicker(pingPeriod)
	defer func() {
		ping.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case f, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(f.kind, f.data); err != nil {
				return
			}
		case <-ping.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
