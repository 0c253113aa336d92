package realtime

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/supernanny-backend/internal/domain/apperror"
	"github.com/oksasatya/supernanny-backend/internal/domain/entity"
)

// MessageSender is the messaging surface the gateway needs.
type MessageSender interface {
	Authorize(ctx context.Context, bookingID, userID string) (*entity.Booking, error)
	Send(ctx context.Context, bookingID, userID, text string) (*entity.Message, error)
}

// Gateway dispatches inbound client events. Malformed or unauthorized
// events are dropped without a reply so booking existence is not revealed.
type Gateway struct {
	Hub      *Hub
	Messages MessageSender
	Logger   *logrus.Logger
}

func NewGateway(hub *Hub, messages MessageSender, logger *logrus.Logger) *Gateway {
	return &Gateway{Hub: hub, Messages: messages, Logger: logger}
}

type bookingRef struct {
	BookingID string `json:"booking_id"`
}

type sendPayload struct {
	BookingID string `json:"booking_id"`
	Text      string `json:"text"`
}

// Handle processes one raw frame from c. It never panics on bad input and
// never returns an error to the client.
func (g *Gateway) Handle(ctx context.Context, c *Client, raw []byte) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return
	}
	switch env.Event {
	case EventBookingJoin:
		if ref, ok := decodeRef(env.Data); ok {
			g.join(ctx, c, ref.BookingID)
		}
	case EventBookingLeave:
		if ref, ok := decodeRef(env.Data); ok {
			g.Hub.Leave(c, BookingRoom(ref.BookingID))
		}
	case EventMessageSend:
		var p sendPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return
		}
		g.send(ctx, c, p)
	case EventTypingStart, EventTypingStop:
		ref, ok := decodeRef(env.Data)
		if !ok {
			return
		}
		room := BookingRoom(ref.BookingID)
		if !g.Hub.InRoom(c, room) {
			return
		}
		g.Hub.Emit(ctx, room, env.Event, Typing{BookingID: ref.BookingID, UserID: c.UserID}, c.ID)
	}
}

func decodeRef(data json.RawMessage) (bookingRef, bool) {
	var ref bookingRef
	if err := json.Unmarshal(data, &ref); err != nil || !validID(ref.BookingID) {
		return ref, false
	}
	return ref, true
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func (g *Gateway) join(ctx context.Context, c *Client, bookingID string) {
	if _, err := g.Messages.Authorize(ctx, bookingID, c.UserID); err != nil {
		g.logUnexpected(err, c, bookingID)
		return
	}
	g.Hub.Join(c, BookingRoom(bookingID))
}

// send persists through the messaging service, which re-checks the sender
// and fans the stored message out.
func (g *Gateway) send(ctx context.Context, c *Client, p sendPayload) {
	if !validID(p.BookingID) || strings.TrimSpace(p.Text) == "" {
		return
	}
	if _, err := g.Messages.Send(ctx, p.BookingID, c.UserID, p.Text); err != nil {
		g.logUnexpected(err, c, p.BookingID)
	}
}

func (g *Gateway) logUnexpected(err error, c *Client, bookingID string) {
	if g.Logger == nil || apperror.KindOf(err) != apperror.KindInternal {
		return
	}
	g.Logger.WithError(err).WithFields(logrus.Fields{
		"user_id":    c.UserID,
		"booking_id": bookingID,
	}).Error("realtime event failed")
}
