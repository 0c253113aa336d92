package repository

import (
	"context"

	"github.com/oksasatya/supernanny-backend/internal/domain/entity"
)

type ReviewRepository interface {
	GetByBookingID(ctx context.Context, bookingID string) (*entity.Review, error)
	// Create inserts the review (ErrDuplicate when the booking already has one) and
	// recomputes the reviewee's rating and reviews count in the same transaction.
	Create(ctx context.Context, r *entity.Review) (rating float64, count int, err error)
	ListByReviewee(ctx context.Context, revieweeUserID string, page Page) ([]entity.Review, int, error)
}
