package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/supernanny-backend/internal/domain/apperror"
	"github.com/oksasatya/supernanny-backend/internal/domain/entity"
	"github.com/oksasatya/supernanny-backend/internal/domain/event"
	repo "github.com/oksasatya/supernanny-backend/internal/domain/repository"
)

const (
	maxNotesLength   = 500
	maxChildrenCount = 10
	bookingPageSize  = 20
	bookingPageMax   = 50
)

type BookingService struct {
	Bookings   repo.BookingRepository
	Nannies    repo.NannyRepository
	Events     EventPublisher
	Logger     *logrus.Logger
	FeePercent int
}

func NewBookingService(bookings repo.BookingRepository, nannies repo.NannyRepository, events EventPublisher, logger *logrus.Logger, feePercent int) *BookingService {
	if feePercent <= 0 {
		feePercent = entity.DefaultPlatformFeePercent
	}
	return &BookingService{Bookings: bookings, Nannies: nannies, Events: events, Logger: logger, FeePercent: feePercent}
}

type CreateBookingInput struct {
	NannyUserID   string
	StartTime     time.Time
	EndTime       time.Time
	Notes         string
	ChildrenCount int
	ChildrenAges  []string
	Address       string
}

// Create books a nanny for [start, end). The conflict lookup is a fast path;
// the storage exclusion constraint decides concurrent races.
func (s *BookingService) Create(ctx context.Context, parentUserID string, in CreateBookingInput) (*entity.Booking, error) {
	if !in.EndTime.After(in.StartTime) {
		return nil, apperror.Validation("end time must be after start time")
	}
	if len([]rune(in.Notes)) > maxNotesLength {
		return nil, apperror.Validation("notes must be at most 500 characters")
	}
	if in.ChildrenCount == 0 {
		in.ChildrenCount = 1
	}
	if in.ChildrenCount < 1 || in.ChildrenCount > maxChildrenCount {
		return nil, apperror.Validation("children count must be between 1 and 10")
	}

	profile, err := s.Nannies.GetByUserID(ctx, in.NannyUserID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, apperror.NotFound("nanny not found")
	}
	if err != nil {
		return nil, apperror.Internal("failed to load nanny", err)
	}

	conflict, err := s.Bookings.FindConflict(ctx, in.NannyUserID, in.StartTime, in.EndTime, "")
	if err != nil {
		return nil, apperror.Internal("failed to check availability", err)
	}
	if conflict != nil {
		return nil, apperror.Conflict("nanny is not available for this time slot")
	}

	b := &entity.Booking{
		ParentUserID:   parentUserID,
		NannyUserID:    in.NannyUserID,
		StartTime:      in.StartTime.UTC(),
		EndTime:        in.EndTime.UTC(),
		HourlyRateNis:  profile.HourlyRateNis,
		TotalAmountNis: entity.TotalAmount(in.StartTime, in.EndTime, profile.HourlyRateNis),
		Status:         entity.StatusRequested,
		Notes:          in.Notes,
		ChildrenCount:  in.ChildrenCount,
		ChildrenAges:   in.ChildrenAges,
		Address:        in.Address,
	}
	if err := s.Bookings.Create(ctx, b); err != nil {
		if errors.Is(err, repo.ErrOverlap) {
			return nil, apperror.Conflict("nanny is not available for this time slot")
		}
		return nil, apperror.Internal("failed to create booking", err)
	}

	s.publish(ctx, event.RKBookingCreated, event.BookingCreated{
		BookingID:      b.ID,
		ParentUserID:   b.ParentUserID,
		NannyUserID:    b.NannyUserID,
		Start:          b.StartTime.Unix(),
		End:            b.EndTime.Unix(),
		TotalAmountNis: b.TotalAmountNis,
	})
	return b, nil
}

// scopeFor maps a caller to the bookings they may list.
func scopeFor(userID string, role entity.Role) repo.BookingScope {
	switch role {
	case entity.RoleParent:
		return repo.ParentScope{UserID: userID}
	case entity.RoleNanny:
		return repo.NannyScope{UserID: userID}
	case entity.RoleAdmin:
		return repo.AllBookings{}
	}
	return repo.PartyScope{UserID: userID}
}

type BookingList struct {
	Bookings   []entity.BookingDetail `json:"bookings"`
	Pagination Pagination             `json:"pagination"`
}

func (s *BookingService) List(ctx context.Context, userID string, role entity.Role, status string, page, limit int) (*BookingList, error) {
	q := repo.BookingQuery{
		Scope: scopeFor(userID, role),
		Page:  repo.NewPage(page, limit, bookingPageSize, bookingPageMax),
	}
	if status != "" {
		st := entity.BookingStatus(status)
		if !st.Valid() {
			return nil, apperror.Validation("unknown booking status")
		}
		q.Status = &st
	}
	items, total, err := s.Bookings.List(ctx, q)
	if err != nil {
		return nil, apperror.Internal("failed to list bookings", err)
	}
	return &BookingList{Bookings: items, Pagination: newPagination(total, q.Page.Number, q.Page.Size)}, nil
}

func (s *BookingService) Get(ctx context.Context, userID string, role entity.Role, id string) (*entity.BookingDetail, error) {
	d, err := s.Bookings.GetDetail(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, apperror.NotFound("booking not found")
	}
	if err != nil {
		return nil, apperror.Internal("failed to load booking", err)
	}
	if !d.IsParty(userID) && role != entity.RoleAdmin {
		return nil, apperror.Forbidden("forbidden")
	}
	return d, nil
}

// UpdateStatus applies a public status transition. Repeating the current
// status is a no-op, so retried completions never create a second earning.
func (s *BookingService) UpdateStatus(ctx context.Context, actorID, id string, target entity.BookingStatus) (*entity.Booking, error) {
	if !target.Settable() {
		return nil, apperror.Validation("status must be one of ACCEPTED, DECLINED, CANCELLED, COMPLETED")
	}
	b, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := entity.AuthorizeTransition(b, actorID, target); err != nil {
		return nil, err
	}
	if b.Status == target {
		return b, nil
	}
	if !b.Status.CanTransitionTo(target) {
		return nil, apperror.Conflict(fmt.Sprintf("cannot change booking from %s to %s", b.Status, target))
	}

	from := b.Status
	var updated *entity.Booking
	if target == entity.StatusCompleted {
		var earning *entity.Earning
		var created bool
		updated, earning, created, err = s.Bookings.Complete(ctx, b.ID, from, entity.NewEarning(b, s.FeePercent))
		if err == nil && created {
			s.publish(ctx, event.RKBookingCompleted, event.BookingCompleted{
				BookingID:    updated.ID,
				NannyUserID:  updated.NannyUserID,
				AmountNis:    earning.AmountNis,
				PlatformFee:  earning.PlatformFee,
				NetAmountNis: earning.NetAmountNis,
			})
		}
	} else {
		updated, err = s.Bookings.UpdateStatus(ctx, b.ID, from, target)
	}
	if errors.Is(err, repo.ErrStaleStatus) {
		return s.resolveStale(ctx, id, target)
	}
	if err != nil {
		return nil, apperror.Internal("failed to update booking", err)
	}

	s.publish(ctx, event.RKBookingStatusChanged, event.BookingStatusChanged{
		BookingID:    updated.ID,
		ParentUserID: updated.ParentUserID,
		NannyUserID:  updated.NannyUserID,
		ActorUserID:  actorID,
		From:         string(from),
		To:           string(target),
	})
	return updated, nil
}

// resolveStale handles a lost compare-and-set: a concurrent request that already
// reached target counts as success.
func (s *BookingService) resolveStale(ctx context.Context, id string, target entity.BookingStatus) (*entity.Booking, error) {
	b, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.Status == target {
		return b, nil
	}
	return nil, apperror.Conflict(fmt.Sprintf("cannot change booking from %s to %s", b.Status, target))
}

func (s *BookingService) load(ctx context.Context, id string) (*entity.Booking, error) {
	b, err := s.Bookings.GetByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, apperror.NotFound("booking not found")
	}
	if err != nil {
		return nil, apperror.Internal("failed to load booking", err)
	}
	return b, nil
}

func (s *BookingService) publish(ctx context.Context, key string, body any) {
	if s.Events == nil {
		return
	}
	if err := s.Events.PublishJSON(ctx, key, body); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("routing_key", key).Warn("publish booking event failed")
	}
}
