package repository

import (
	"context"

	"github.com/oksasatya/supernanny-backend/internal/domain/entity"
)

type MessageRepository interface {
	// Conversations returns the scoped bookings with their latest message and the
	// count of unread messages not authored by readerID, most recent activity first.
	Conversations(ctx context.Context, scope BookingScope, readerID string) ([]entity.Conversation, error)
	List(ctx context.Context, bookingID string, page Page) ([]entity.Message, int, error)
	// MarkRead flags unread messages in the booking not authored by readerID.
	MarkRead(ctx context.Context, bookingID, readerID string) (int64, error)
	Create(ctx context.Context, m *entity.Message) error
}
