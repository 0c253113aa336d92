package realtime_test

import (
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/supernanny-backend/internal/application"
	"github.com/oksasatya/supernanny-backend/internal/domain/entity"
	"github.com/oksasatya/supernanny-backend/internal/infrastructure/memory"
	"github.com/oksasatya/supernanny-backend/internal/realtime"
)

type env struct {
	hub                     *realtime.Hub
	gw                      *realtime.Gateway
	booking                 *entity.Booking
	parent, nanny, stranger *realtime.Client
}

func newEnv(t *testing.T) env {
	t.Helper()
	ctx := context.Background()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	store := memory.NewStore()
	mk := func(email string, role entity.Role) *entity.User {
		u := &entity.User{Email: email, FullName: email, Role: role}
		require.NoError(t, store.Users().Create(ctx, u))
		return u
	}
	parent := mk("p@example.test", entity.RoleParent)
	nanny := mk("n@example.test", entity.RoleNanny)
	stranger := mk("s@example.test", entity.RoleParent)
	require.NoError(t, store.Nannies().Create(ctx, &entity.NannyProfile{UserID: nanny.ID, HourlyRateNis: 50, IsAvailable: true}))

	b := &entity.Booking{
		ParentUserID: parent.ID, NannyUserID: nanny.ID, Status: entity.StatusRequested,
		StartTime: time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC), EndTime: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.Bookings().Create(ctx, b))

	hub := realtime.NewHub(logger)
	msgs := application.NewMessageService(store.Messages(), store.Bookings(), logger)
	msgs.Notifier = hub
	e := env{
		hub:      hub,
		gw:       realtime.NewGateway(hub, msgs, logger),
		booking:  b,
		parent:   realtime.NewClient(parent.ID, nil),
		nanny:    realtime.NewClient(nanny.ID, nil),
		stranger: realtime.NewClient(stranger.ID, nil),
	}
	for _, c := range []*realtime.Client{e.parent, e.nanny, e.stranger} {
		hub.Register(c)
	}
	return e
}

func frame(t *testing.T, event string, data any) []byte {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	out, err := json.Marshal(realtime.Envelope{Event: event, Data: raw})
	require.NoError(t, err)
	return out
}

func drain(c *realtime.Client) []realtime.Envelope {
	var out []realtime.Envelope
	for {
		select {
		case raw := <-c.Outbox():
			var e realtime.Envelope
			if json.Unmarshal(raw, &e) == nil {
				out = append(out, e)
			}
		default:
			return out
		}
	}
}

func events(envs []realtime.Envelope) []string {
	out := make([]string, 0, len(envs))
	for _, e := range envs {
		out = append(out, e.Event)
	}
	return out
}

func TestGateway_JoinRequiresParty(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	ref := map[string]string{"booking_id": e.booking.ID}

	e.gw.Handle(ctx, e.stranger, frame(t, realtime.EventBookingJoin, ref))
	assert.False(t, e.hub.InRoom(e.stranger, realtime.BookingRoom(e.booking.ID)))
	assert.Empty(t, drain(e.stranger), "no error frame is sent")

	e.gw.Handle(ctx, e.parent, frame(t, realtime.EventBookingJoin, ref))
	assert.True(t, e.hub.InRoom(e.parent, realtime.BookingRoom(e.booking.ID)))

	e.gw.Handle(ctx, e.parent, frame(t, realtime.EventBookingLeave, ref))
	assert.False(t, e.hub.InRoom(e.parent, realtime.BookingRoom(e.booking.ID)))
}

func TestGateway_SendFansOut(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	ref := map[string]string{"booking_id": e.booking.ID}
	e.gw.Handle(ctx, e.parent, frame(t, realtime.EventBookingJoin, ref))

	e.gw.Handle(ctx, e.parent, frame(t, realtime.EventMessageSend, map[string]string{"booking_id": e.booking.ID, "text": " hello "}))

	got := drain(e.parent)
	require.Equal(t, []string{realtime.EventMessageNew}, events(got))
	var m entity.Message
	require.NoError(t, json.Unmarshal(got[0].Data, &m))
	assert.Equal(t, "hello", m.Text)

	badge := drain(e.nanny)
	require.Equal(t, []string{realtime.EventNotificationBadge}, events(badge))
	var b realtime.Badge
	require.NoError(t, json.Unmarshal(badge[0].Data, &b))
	assert.Equal(t, e.booking.ID, b.BookingID)
	assert.Equal(t, m.ID, b.MessageID)

	assert.Empty(t, drain(e.stranger))
}

func TestGateway_DropsBadFrames(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	for _, raw := range [][]byte{
		[]byte("not json"),
		frame(t, "unknown:event", nil),
		frame(t, realtime.EventBookingJoin, map[string]string{"booking_id": " "}),
		frame(t, realtime.EventMessageSend, map[string]string{"booking_id": e.booking.ID, "text": "   "}),
		frame(t, realtime.EventMessageSend, map[string]string{"booking_id": "missing", "text": "hi"}),
	} {
		assert.NotPanics(t, func() { e.gw.Handle(ctx, e.parent, raw) })
	}
	e.gw.Handle(ctx, e.stranger, frame(t, realtime.EventMessageSend, map[string]string{"booking_id": e.booking.ID, "text": "spam"}))

	assert.Empty(t, drain(e.parent))
	assert.Empty(t, drain(e.nanny))
	assert.Empty(t, drain(e.stranger))
}

type countingSender struct {
	realtime.MessageSender
	calls int
}

func (s *countingSender) Authorize(ctx context.Context, bookingID, userID string) (*entity.Booking, error) {
	s.calls++
	return s.MessageSender.Authorize(ctx, bookingID, userID)
}

func (s *countingSender) Send(ctx context.Context, bookingID, userID, text string) (*entity.Message, error) {
	s.calls++
	return s.MessageSender.Send(ctx, bookingID, userID, text)
}

func TestGateway_MalformedBookingIDNeverReachesStorage(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	sender := &countingSender{MessageSender: e.gw.Messages}
	e.gw.Messages = sender

	for _, id := range []string{"x", "abc", "1; drop table bookings", e.booking.ID + "0"} {
		e.gw.Handle(ctx, e.parent, frame(t, realtime.EventBookingJoin, map[string]string{"booking_id": id}))
		e.gw.Handle(ctx, e.parent, frame(t, realtime.EventMessageSend, map[string]string{"booking_id": id, "text": "hi"}))
		assert.False(t, e.hub.InRoom(e.parent, realtime.BookingRoom(id)))
	}
	assert.Zero(t, sender.calls)
	assert.Empty(t, drain(e.nanny))

	e.gw.Handle(ctx, e.parent, frame(t, realtime.EventBookingJoin, map[string]string{"booking_id": e.booking.ID}))
	assert.Equal(t, 1, sender.calls)
	assert.True(t, e.hub.InRoom(e.parent, realtime.BookingRoom(e.booking.ID)))
}

func TestGateway_TypingSkipsSender(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	ref := map[string]string{"booking_id": e.booking.ID}

	e.gw.Handle(ctx, e.parent, frame(t, realtime.EventTypingStart, ref))
	assert.Empty(t, drain(e.nanny), "typing outside the room is ignored")

	e.gw.Handle(ctx, e.parent, frame(t, realtime.EventBookingJoin, ref))
	e.gw.Handle(ctx, e.nanny, frame(t, realtime.EventBookingJoin, ref))
	e.gw.Handle(ctx, e.parent, frame(t, realtime.EventTypingStart, ref))
	e.gw.Handle(ctx, e.parent, frame(t, realtime.EventTypingStop, ref))

	assert.Empty(t, drain(e.parent))
	got := drain(e.nanny)
	require.Equal(t, []string{realtime.EventTypingStart, realtime.EventTypingStop}, events(got))
	var ty realtime.Typing
	require.NoError(t, json.Unmarshal(got[0].Data, &ty))
	assert.Equal(t, e.parent.UserID, ty.UserID)
}

func TestHub_FullBufferDropsFrames(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	room := realtime.UserRoom(e.nanny.UserID)
	for i := 0; i < 100; i++ {
		e.hub.Emit(ctx, room, realtime.EventNotificationBadge, realtime.Badge{BookingID: "b"}, "")
	}
	assert.Len(t, drain(e.nanny), 64)
}

func TestHub_UnregisterClosesOutbox(t *testing.T) {
	e := newEnv(t)
	e.hub.Unregister(e.parent)
	e.hub.Unregister(e.parent)
	_, open := <-e.parent.Outbox()
	assert.False(t, open)
	assert.False(t, e.hub.InRoom(e.parent, realtime.UserRoom(e.parent.UserID)))
}

type loopBroker struct{ frames []realtime.Frame }

func (b *loopBroker) Publish(_ context.Context, f realtime.Frame) error {
	b.frames = append(b.frames, f)
	return nil
}

func (b *loopBroker) Subscribe(ctx context.Context, _ func(realtime.Frame)) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestHub_BrokerRelay(t *testing.T) {
	e := newEnv(t)
	broker := &loopBroker{}
	e.hub.WithBroker(broker)

	e.hub.Emit(context.Background(), realtime.UserRoom(e.nanny.UserID), realtime.EventNotificationBadge, realtime.Badge{BookingID: "b"}, "")
	require.Len(t, broker.frames, 1)
	assert.Len(t, drain(e.nanny), 1)

	e.hub.Receive(broker.frames[0])
	assert.Empty(t, drain(e.nanny), "own frames are not delivered twice")

	other := realtime.NewHub(nil)
	c := realtime.NewClient(e.nanny.UserID, nil)
	other.Register(c)
	other.Receive(broker.frames[0])
	assert.Len(t, drain(c), 1)
}
