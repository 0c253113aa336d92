package application

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/supernanny-backend/internal/domain/apperror"
	"github.com/oksasatya/supernanny-backend/internal/domain/event"
	repo "github.com/oksasatya/supernanny-backend/internal/domain/repository"
)

type PaymentService struct {
	Bookings       repo.BookingRepository
	Gateway        PaymentGateway
	Events         EventPublisher
	Logger         *logrus.Logger
	Currency       string
	PublishableKey string
}

func NewPaymentService(bookings repo.BookingRepository, gateway PaymentGateway, events EventPublisher, logger *logrus.Logger, currency, publishableKey string) *PaymentService {
	if currency == "" {
		currency = "ils"
	}
	return &PaymentService{Bookings: bookings, Gateway: gateway, Events: events, Logger: logger, Currency: currency, PublishableKey: publishableKey}
}

type IntentResult struct {
	ClientSecret    string `json:"client_secret"`
	PaymentIntentID string `json:"payment_intent_id"`
	PublishableKey  string `json:"publishable_key,omitempty"`
	AmountNis       int    `json:"amount_nis"`
}

// CreateIntent opens a provider payment for the parent's booking, charged in
// minor units (agorot).
func (s *PaymentService) CreateIntent(ctx context.Context, userID, bookingID string) (*IntentResult, error) {
	if s.Gateway == nil {
		return nil, apperror.Validation("payments are not enabled")
	}
	b, err := s.Bookings.GetByID(ctx, bookingID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, apperror.NotFound("booking not found")
	}
	if err != nil {
		return nil, apperror.Internal("failed to load booking", err)
	}
	if b.ParentUserID != userID {
		return nil, apperror.Forbidden("forbidden")
	}
	if b.IsPaid {
		return nil, apperror.Conflict("booking already paid")
	}

	intent, err := s.Gateway.CreatePaymentIntent(ctx, PaymentIntentRequest{
		BookingID:   b.ID,
		AmountMinor: int64(b.TotalAmountNis) * 100,
		Currency:    s.Currency,
	})
	if err != nil {
		return nil, apperror.Internal("failed to create payment intent", err)
	}
	if err := s.RecordPaymentIntent(ctx, b.ID, intent.ID); err != nil {
		return nil, err
	}
	return &IntentResult{
		ClientSecret:    intent.ClientSecret,
		PaymentIntentID: intent.ID,
		PublishableKey:  s.PublishableKey,
		AmountNis:       b.TotalAmountNis,
	}, nil
}

func (s *PaymentService) RecordPaymentIntent(ctx context.Context, bookingID, intentID string) error {
	err := s.Bookings.RecordPaymentIntent(ctx, bookingID, intentID)
	if errors.Is(err, repo.ErrNotFound) {
		return apperror.NotFound("booking not found")
	}
	if err != nil {
		return apperror.Internal("failed to record payment intent", err)
	}
	return nil
}

// MarkBookingPaid flags the bookings carrying intentID as paid. Repeated
// calls are harmless.
func (s *PaymentService) MarkBookingPaid(ctx context.Context, intentID string) (int64, error) {
	n, err := s.Bookings.MarkPaidByIntent(ctx, intentID)
	if err != nil {
		return 0, apperror.Internal("failed to mark booking paid", err)
	}
	if n > 0 && s.Events != nil {
		if err := s.Events.PublishJSON(ctx, event.RKPaymentSucceeded, event.PaymentSucceeded{PaymentIntentID: intentID, Bookings: n}); err != nil && s.Logger != nil {
			s.Logger.WithError(err).Warn("publish payment event failed")
		}
	}
	return n, nil
}

// HandleWebhook verifies a provider notification and settles succeeded intents.
// Other event types are acknowledged and ignored.
func (s *PaymentService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	if s.Gateway == nil {
		return apperror.Validation("payments are not enabled")
	}
	ev, err := s.Gateway.ParseWebhook(payload, signature)
	if err != nil {
		return apperror.Validation("invalid webhook signature")
	}
	if ev.Type != PaymentEventSucceeded || ev.PaymentIntentID == "" {
		return nil
	}
	_, err = s.MarkBookingPaid(ctx, ev.PaymentIntentID)
	return err
}
