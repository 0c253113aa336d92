package repository

import (
	"context"
	"errors"
	"time"

	"github.com/oksasatya/supernanny-backend/internal/domain/entity"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrOverlap is returned by Create when storage rejects an overlapping active booking.
	ErrOverlap = errors.New("booking overlaps an active booking")
	// ErrStaleStatus is returned when the booking left the expected status concurrently.
	ErrStaleStatus = errors.New("booking status changed concurrently")
	ErrDuplicate   = errors.New("duplicate")
)

type BookingQuery struct {
	Scope  BookingScope
	Status *entity.BookingStatus
	Page   Page
}

type BookingRepository interface {
	// FindConflict returns an active booking of the nanny overlapping [start, end), or nil.
	FindConflict(ctx context.Context, nannyUserID string, start, end time.Time, excludeID string) (*entity.Booking, error)
	// Create persists b; storage enforces the no-overlap invariant and returns ErrOverlap.
	Create(ctx context.Context, b *entity.Booking) error
	GetByID(ctx context.Context, id string) (*entity.Booking, error)
	GetDetail(ctx context.Context, id string) (*entity.BookingDetail, error)
	List(ctx context.Context, q BookingQuery) ([]entity.BookingDetail, int, error)
	// UpdateStatus moves the booking from -> to, ErrStaleStatus if it is no longer in from.
	UpdateStatus(ctx context.Context, id string, from, to entity.BookingStatus) (*entity.Booking, error)
	// Complete atomically sets COMPLETED, inserts the earning keyed by booking id and,
	// only when the earning was inserted, increments the nanny's completed jobs and
	// total earnings. It reports whether the earning was newly created.
	Complete(ctx context.Context, id string, from entity.BookingStatus, e entity.Earning) (*entity.Booking, *entity.Earning, bool, error)
	RecordPaymentIntent(ctx context.Context, bookingID, intentID string) error
	// MarkPaidByIntent flags every booking with the intent as paid and returns how many changed.
	MarkPaidByIntent(ctx context.Context, intentID string) (int64, error)
}
