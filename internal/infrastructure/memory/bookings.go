package memory

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/oksasatya/supernanny-backend/internal/domain/entity"
	"github.com/oksasatya/supernanny-backend/internal/domain/repository"
)

type bookingRepo struct{ s *Store }

func (s *Store) conflict(nannyUserID string, start, end time.Time, excludeID string) *entity.Booking {
	for _, b := range s.bookings {
		if b.ID == excludeID || b.NannyUserID != nannyUserID || !b.Status.IsActive() {
			continue
		}
		if b.Overlaps(start, end) {
			return b
		}
	}
	return nil
}

func (r bookingRepo) FindConflict(_ context.Context, nannyUserID string, start, end time.Time, excludeID string) (*entity.Booking, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if b := r.s.conflict(nannyUserID, start, end, excludeID); b != nil {
		return cloneBooking(b), nil
	}
	return nil, nil
}

// Create checks for overlap under the write lock, standing in for the
// exclusion constraint.
func (r bookingRepo) Create(_ context.Context, b *entity.Booking) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if b.Status.IsActive() && r.s.conflict(b.NannyUserID, b.StartTime, b.EndTime, "") != nil {
		return repository.ErrOverlap
	}
	b.ID = newID()
	now := r.s.tick()
	b.CreatedAt, b.UpdatedAt = now, now
	r.s.bookings[b.ID] = cloneBooking(b)
	return nil
}

func (r bookingRepo) GetByID(_ context.Context, id string) (*entity.Booking, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	b, ok := r.s.bookings[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneBooking(b), nil
}

func (s *Store) detail(b *entity.Booking) entity.BookingDetail {
	d := entity.BookingDetail{
		Booking: *cloneBooking(b),
		Parent:  s.summary(b.ParentUserID),
		Nanny:   s.summary(b.NannyUserID),
	}
	if rv, ok := s.reviews[b.ID]; ok {
		c := *rv
		d.Review = &c
	}
	if e, ok := s.earnings[b.ID]; ok {
		c := *e
		d.Earning = &c
	}
	for _, m := range s.messages {
		if m.BookingID == b.ID {
			d.MessageCount++
		}
	}
	return d
}

func (r bookingRepo) GetDetail(_ context.Context, id string) (*entity.BookingDetail, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	b, ok := r.s.bookings[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	d := r.s.detail(b)
	return &d, nil
}

func (r bookingRepo) List(_ context.Context, q repository.BookingQuery) ([]entity.BookingDetail, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var hits []*entity.Booking
	for _, b := range r.s.bookings {
		if !inScope(q.Scope, b) {
			continue
		}
		if q.Status != nil && b.Status != *q.Status {
			continue
		}
		hits = append(hits, b)
	}
	slices.SortFunc(hits, func(a, b *entity.Booking) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	page := paginate(hits, q.Page)
	out := make([]entity.BookingDetail, 0, len(page))
	for _, b := range page {
		out = append(out, r.s.detail(b))
	}
	return out, len(hits), nil
}

func (s *Store) casStatus(id string, from, to entity.BookingStatus) (*entity.Booking, error) {
	b, ok := s.bookings[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if b.Status != from {
		return nil, repository.ErrStaleStatus
	}
	b.Status = to
	b.UpdatedAt = s.tick()
	return b, nil
}

func (r bookingRepo) UpdateStatus(_ context.Context, id string, from, to entity.BookingStatus) (*entity.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, err := r.s.casStatus(id, from, to)
	if err != nil {
		return nil, err
	}
	return cloneBooking(b), nil
}

func (r bookingRepo) Complete(_ context.Context, id string, from entity.BookingStatus, e entity.Earning) (*entity.Booking, *entity.Earning, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, err := r.s.casStatus(id, from, entity.StatusCompleted)
	if err != nil {
		return nil, nil, false, err
	}
	if existing, ok := r.s.earnings[id]; ok {
		c := *existing
		return cloneBooking(b), &c, false, nil
	}
	e.ID = newID()
	e.BookingID = id
	e.NannyUserID = b.NannyUserID
	e.CreatedAt = r.s.tick()
	r.s.earnings[id] = &e
	if p := r.s.profileByUser(b.NannyUserID); p != nil {
		p.CompletedJobs++
		p.TotalEarnings += e.NetAmountNis
	}
	c := e
	return cloneBooking(b), &c, true, nil
}

func (r bookingRepo) RecordPaymentIntent(_ context.Context, bookingID, intentID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.bookings[bookingID]
	if !ok {
		return repository.ErrNotFound
	}
	b.PaymentIntentID = &intentID
	b.UpdatedAt = r.s.tick()
	return nil
}

func (r bookingRepo) MarkPaidByIntent(_ context.Context, intentID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, b := range r.s.bookings {
		if b.PaymentIntentID != nil && *b.PaymentIntentID == intentID && !b.IsPaid {
			b.IsPaid = true
			b.UpdatedAt = r.s.tick()
			n++
		}
	}
	return n, nil
}

type earningRepo struct{ s *Store }

func (r earningRepo) ListByNanny(_ context.Context, nannyUserID string) ([]entity.Earning, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []entity.Earning{}
	for _, e := range r.s.earnings {
		if e.NannyUserID == nannyUserID {
			out = append(out, *e)
		}
	}
	slices.SortFunc(out, func(a, b entity.Earning) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return out, nil
}
