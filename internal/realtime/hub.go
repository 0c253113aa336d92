// Package realtime fans booking messages and typing signals out to
// connected WebSocket clients grouped in per-user and per-booking rooms.
package realtime

import (
	"context"
	"encoding/json"
	"expvar"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/supernanny-backend/internal/domain/entity"
)

// Event names on the wire.
const (
	EventBookingJoin       = "booking:join"
	EventBookingLeave      = "booking:leave"
	EventMessageSend       = "message:send"
	EventMessageNew        = "message:new"
	EventNotificationBadge = "notification:badge"
	EventTypingStart       = "typing:start"
	EventTypingStop        = "typing:stop"
)

var (
	framesDropped = expvar.NewInt("realtime_frames_dropped")
	clientsOnline = expvar.NewInt("realtime_clients_online")
	framesRelayed = expvar.NewInt("realtime_frames_relayed")
)

func UserRoom(userID string) string       { return "user:" + userID }
func BookingRoom(bookingID string) string { return "booking:" + bookingID }

// Envelope is the JSON frame exchanged with clients.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Badge tells a user that a booking thread has something new.
type Badge struct {
	BookingID string `json:"booking_id"`
	MessageID string `json:"message_id,omitempty"`
}

// Typing is relayed to the other participants of a booking room.
type Typing struct {
	BookingID string `json:"booking_id"`
	UserID    string `json:"user_id"`
}

// Hub tracks room membership. Delivery never blocks: a client whose send
// buffer is full loses the frame.
type Hub struct {
	mu       sync.RWMutex
	rooms    map[string]map[*Client]struct{}
	clients  map[*Client]map[string]struct{}
	broker   Broker
	instance string
	logger   *logrus.Logger
}

func NewHub(logger *logrus.Logger) *Hub {
	return &Hub{
		rooms:    map[string]map[*Client]struct{}{},
		clients:  map[*Client]map[string]struct{}{},
		instance: uuid.NewString(),
		logger:   logger,
	}
}

// WithBroker relays emitted frames to other instances through b.
func (h *Hub) WithBroker(b Broker) *Hub {
	h.broker = b
	return h
}

// Register adds the client and joins its personal room.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = map[string]struct{}{}
	h.mu.Unlock()
	h.Join(c, UserRoom(c.UserID))
	clientsOnline.Add(1)
}

// Unregister removes the client from every room and closes its send buffer.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	rooms, ok := h.clients[c]
	if ok {
		for room := range rooms {
			h.removeLocked(c, room)
		}
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
	if ok {
		clientsOnline.Add(-1)
	}
}

func (h *Hub) Join(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	rooms, ok := h.clients[c]
	if !ok {
		return
	}
	members := h.rooms[room]
	if members == nil {
		members = map[*Client]struct{}{}
		h.rooms[room] = members
	}
	members[c] = struct{}{}
	rooms[room] = struct{}{}
}

func (h *Hub) Leave(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(c, room)
}

func (h *Hub) removeLocked(c *Client, room string) {
	if members := h.rooms[room]; members != nil {
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
	if rooms := h.clients[c]; rooms != nil {
		delete(rooms, room)
	}
}

// InRoom reports whether c has joined room.
func (h *Hub) InRoom(c *Client, room string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[c][room]
	return ok
}

// Emit sends event to every member of room except the client with exceptID,
// locally and through the broker.
func (h *Hub) Emit(ctx context.Context, room, event string, data any, exceptID string) {
	payload, err := encode(event, data)
	if err != nil {
		h.logError(err, "encode realtime frame failed", room)
		return
	}
	h.deliver(room, payload, exceptID)
	if h.broker != nil {
		f := Frame{Origin: h.instance, Room: room, Except: exceptID, Payload: payload}
		if err := h.broker.Publish(ctx, f); err != nil {
			h.logError(err, "publish realtime frame failed", room)
		}
	}
}

func (h *Hub) deliver(room string, payload []byte, exceptID string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.rooms[room] {
		if c.ID == exceptID {
			continue
		}
		select {
		case c.send <- payload:
			framesRelayed.Add(1)
		default:
			framesDropped.Add(1)
		}
	}
}

// Receive delivers a frame published by another instance.
func (h *Hub) Receive(f Frame) {
	if f.Origin == h.instance {
		return
	}
	h.deliver(f.Room, f.Payload, f.Except)
}

// Run consumes broker frames until ctx ends. It returns immediately without a broker.
func (h *Hub) Run(ctx context.Context) error {
	if h.broker == nil {
		return nil
	}
	return h.broker.Subscribe(ctx, h.Receive)
}

// MessageCreated broadcasts the message to the booking room and pings the
// recipient's personal room.
func (h *Hub) MessageCreated(ctx context.Context, b *entity.Booking, m *entity.Message) {
	h.Emit(ctx, BookingRoom(b.ID), EventMessageNew, m, "")
	h.Emit(ctx, UserRoom(b.Counterpart(m.FromUserID)), EventNotificationBadge, Badge{BookingID: b.ID, MessageID: m.ID}, "")
}

func (h *Hub) logError(err error, msg, room string) {
	if h.logger != nil {
		h.logger.WithError(err).WithField("room", room).Warn(msg)
	}
}

func encode(event string, data any) ([]byte, error) {
	env := Envelope{Event: event}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		env.Data = raw
	}
	return json.Marshal(env)
}
