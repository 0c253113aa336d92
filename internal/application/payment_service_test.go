package application

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/supernanny-backend/internal/domain/apperror"
	"github.com/oksasatya/supernanny-backend/internal/domain/event"
)

type fakeGateway struct {
	requests []PaymentIntentRequest
	event    *PaymentEvent
}

func (g *fakeGateway) CreatePaymentIntent(_ context.Context, req PaymentIntentRequest) (*PaymentIntent, error) {
	g.requests = append(g.requests, req)
	return &PaymentIntent{ID: "pi_" + req.BookingID, ClientSecret: "secret_" + req.BookingID}, nil
}

func (g *fakeGateway) ParseWebhook(_ []byte, signature string) (*PaymentEvent, error) {
	if signature != "valid" {
		return nil, errors.New("signature mismatch")
	}
	return g.event, nil
}

func TestPaymentIntentAndWebhook(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	gw := &fakeGateway{}
	svc := NewPaymentService(f.store.Bookings(), gw, f.events, quietLogger(), "", "pk_test")
	b := f.book(t, f.parent.ID, at(10), at(12))

	_, err := svc.CreateIntent(ctx, f.parent2.ID, b.ID)
	assert.True(t, apperror.Is(err, apperror.KindForbidden))
	_, err = svc.CreateIntent(ctx, f.parent.ID, "missing")
	assert.True(t, apperror.Is(err, apperror.KindNotFound))

	res, err := svc.CreateIntent(ctx, f.parent.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 120, res.AmountNis)
	assert.Equal(t, "pk_test", res.PublishableKey)
	require.Len(t, gw.requests, 1)
	assert.Equal(t, int64(12000), gw.requests[0].AmountMinor)
	assert.Equal(t, "ils", gw.requests[0].Currency)

	stored, err := f.store.Bookings().GetByID(ctx, b.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.PaymentIntentID)
	assert.Equal(t, res.PaymentIntentID, *stored.PaymentIntentID)

	err = svc.HandleWebhook(ctx, []byte("{}"), "forged")
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	gw.event = &PaymentEvent{Type: "charge.refunded", PaymentIntentID: res.PaymentIntentID}
	require.NoError(t, svc.HandleWebhook(ctx, []byte("{}"), "valid"))
	stored, _ = f.store.Bookings().GetByID(ctx, b.ID)
	assert.False(t, stored.IsPaid, "other events are ignored")

	gw.event = &PaymentEvent{Type: PaymentEventSucceeded, PaymentIntentID: res.PaymentIntentID}
	require.NoError(t, svc.HandleWebhook(ctx, []byte("{}"), "valid"))
	require.NoError(t, svc.HandleWebhook(ctx, []byte("{}"), "valid"))
	stored, _ = f.store.Bookings().GetByID(ctx, b.ID)
	assert.True(t, stored.IsPaid)

	var paid int
	for _, k := range f.events.keys() {
		if k == event.RKPaymentSucceeded {
			paid++
		}
	}
	assert.Equal(t, 1, paid, "redelivered webhook publishes once")

	_, err = svc.CreateIntent(ctx, f.parent.ID, b.ID)
	assert.True(t, apperror.Is(err, apperror.KindConflict))
}

func TestPaymentDisabled(t *testing.T) {
	f := newFixture(t)
	svc := NewPaymentService(f.store.Bookings(), nil, nil, quietLogger(), "", "")
	b := f.book(t, f.parent.ID, at(10), at(12))

	_, err := svc.CreateIntent(context.Background(), f.parent.ID, b.ID)
	assert.True(t, apperror.Is(err, apperror.KindValidation))
	err = svc.HandleWebhook(context.Background(), nil, "valid")
	assert.True(t, apperror.Is(err, apperror.KindValidation))
}
