// Package ws streams simulation records to browser charts over websockets.
package ws

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"

	"github.com/alanyoungcy/hedgesim/internal/domain"
)

// Topics clients can subscribe to.
const (
	TopicRecords = "records"
	TopicStatus  = "status"
)

const queueSize = 256

// Origin checks happen in the CORS middleware in front of the hub.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// Config captures hub settings.
type Config struct {
	Mode      string
	StartedAt time.Time
	// BusChannels are signal bus channels forwarded to the records topic.
	// Ignored without a bus.
	BusChannels []string
	// Binary marks record frames as binary messages, for the protobuf codec.
	Binary bool
}

// outbound is addressed to a topic, or to a single client when to is set.
// A frame with no data addressed to a client is a status request, rendered
// by Run so the client count is current.
type outbound struct {
	topic string
	to    *client
	frame frame
}

// Hub fans record frames out to connected clients. The client set is owned
// by the Run goroutine; everything else talks to it through channels.
type Hub struct {
	join   chan *client
	leave  chan *client
	out    chan outbound
	done   chan struct{}
	active atomic.Int64

	bus       domain.SignalBus
	channels  []string
	recordMsg int
	mode      string
	startedAt time.Time
	logger    *slog.Logger
}

// NewHub returns a hub. With a nil bus only Broadcast feeds clients.
func NewHub(bus domain.SignalBus, logger *slog.Logger, cfg Config) *Hub {
	h := &Hub{
		join:      make(chan *client),
		leave:     make(chan *client),
		out:       make(chan outbound, queueSize),
		done:      make(chan struct{}),
		bus:       bus,
		channels:  cfg.BusChannels,
		recordMsg: websocket.TextMessage,
		mode:      strings.ToLower(strings.TrimSpace(cfg.Mode)),
		startedAt: cfg.StartedAt,
		logger:    logger.With(slog.String("component", "ws_hub")),
	}
	if cfg.Binary {
		h.recordMsg = websocket.BinaryMessage
	}
	if h.mode == "" {
		h.mode = "unknown"
	}
	if h.startedAt.IsZero() {
		h.startedAt = time.Now().UTC()
	}
	return h
}

// Broadcast queues an encoded record for subscribers of the records topic.
// It blocks while the queue is full and returns at once after Run exits.
func (h *Hub) Broadcast(payload []byte) {
	h.enqueue(TopicRecords, frame{kind: h.recordMsg, data: payload})
}

func (h *Hub) enqueue(topic string, f frame) {
	h.deliver(outbound{topic: topic, frame: f})
}

func (h *Hub) deliver(msg outbound) {
	select {
	case h.out <- msg:
	case <-h.done:
	}
}

// ClientCount reports connected clients.
func (h *Hub) ClientCount() int {
	return int(h.active.Load())
}

// Run owns the client set until ctx ends, then closes every connection.
func (h *Hub) Run(ctx context.Context) error {
	defer close(h.done)

	if h.bus != nil {
		for _, ch := range h.channels {
			go h.relay(ctx, ch)
		}
	}

	clients := make(map[*client]struct{})
	drop := func(c *client) {
		if _, ok := clients[c]; !ok {
			return
		}
		delete(clients, c)
		close(c.send)
		h.active.Add(-1)
	}

	for {
		select {
		case <-ctx.Done():
			for c := range clients {
				drop(c)
			}
			return ctx.Err()

		case c := <-h.join:
			clients[c] = struct{}{}
			h.active.Add(1)
			h.logger.Info("client connected", slog.Int("clients", len(clients)))

		case c := <-h.leave:
			drop(c)
			h.logger.Info("client disconnected", slog.Int("clients", len(clients)))

		case msg := <-h.out:
			if msg.to != nil {
				if _, ok := clients[msg.to]; !ok {
					continue
				}
				f := msg.frame
				if f.data == nil {
					var err error
					if f, err = h.statusFrame(); err != nil {
						continue
					}
				}
				select {
				case msg.to.send <- f:
				default:
				}
				continue
			}
			for c := range clients {
				if !c.topics.has(msg.topic) {
					continue
				}
				select {
				case c.send <- msg.frame:
				default:
					// A gap in the record stream is worse than a reconnect.
					h.logger.Warn("evicting slow client", slog.String("topic", msg.topic))
					drop(c)
				}
			}
		}
	}
}

// relay forwards one bus channel onto the records topic.
func (h *Hub) relay(ctx context.Context, channel string) {
	log := h.logger.With(slog.String("channel", channel))
	msgs, err := h.bus.Subscribe(ctx, channel)
	if err != nil {
		log.Error("bus subscribe failed", slog.String("error", err.Error()))
		return
	}
	log.Info("relaying bus channel")

	for {
		select {
		case <-ctx.Done():
			return
		case data, ok := <-msgs:
			if !ok {
				log.Warn("bus subscription closed")
				return
			}
			h.Broadcast(data)
		}
	}
}

// HandleWS upgrades the request and attaches the connection to the hub.
// GET /ws
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("upgrade failed", slog.String("error", err.Error()))
		return
	}

	c := newClient(h, conn)
	select {
	case h.join <- c:
	case <-h.done:
		_ = conn.Close()
		return
	}
	c.requestStatus()

	go c.writeLoop()
	go c.readLoop()
}

func (h *Hub) statusFrame() (frame, error) {
	data, err := jsoniter.Marshal(h.status())
	return frame{kind: websocket.TextMessage, data: data}, err
}

func (h *Hub) status() StatusFrame {
	return StatusFrame{
		Type: TopicStatus,
		Payload: StatusPayload{
			Mode:          h.mode,
			UptimeSeconds: max(int64(time.Since(h.startedAt).Seconds()), 0),
			Clients:       h.ClientCount(),
		},
	}
}
