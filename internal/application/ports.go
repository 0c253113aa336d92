package application

import (
	"context"
	"io"

	"github.com/oksasatya/supernanny-backend/internal/domain/entity"
)

// EventPublisher publishes domain events by routing key.
type EventPublisher interface {
	PublishJSON(ctx context.Context, key string, body any) error
}

// MessageNotifier fans a stored message out to connected participants.
// Implementations must not block the caller.
type MessageNotifier interface {
	MessageCreated(ctx context.Context, b *entity.Booking, m *entity.Message)
}

// ProfileIndexer mirrors nanny profiles into a full-text index.
type ProfileIndexer interface {
	IndexProfile(ctx context.Context, p *entity.NannyProfile) error
	SearchProfiles(ctx context.Context, q string, size int) ([]map[string]any, error)
}

// PhotoStore stores profile photos and returns their public URL.
type PhotoStore interface {
	Upload(ctx context.Context, objectPath, contentType string, r io.Reader) (string, error)
}

type PaymentIntentRequest struct {
	BookingID   string
	AmountMinor int64
	Currency    string
}

type PaymentIntent struct {
	ID           string
	ClientSecret string
}

// PaymentEvent is a verified provider notification.
type PaymentEvent struct {
	Type            string
	PaymentIntentID string
}

const PaymentEventSucceeded = "payment_intent.succeeded"

// PaymentGateway is the narrow seam to the external payment provider.
type PaymentGateway interface {
	CreatePaymentIntent(ctx context.Context, req PaymentIntentRequest) (*PaymentIntent, error)
	ParseWebhook(payload []byte, signature string) (*PaymentEvent, error)
}

// Pagination describes a returned page.
type Pagination struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"total_pages"`
}

func newPagination(total, page, limit int) Pagination {
	pages := 0
	if limit > 0 {
		pages = (total + limit - 1) / limit
	}
	return Pagination{Total: total, Page: page, Limit: limit, TotalPages: pages}
}
