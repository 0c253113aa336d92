package memory

import (
	"context"
	"slices"
	"time"

	"github.com/oksasatya/supernanny-backend/internal/domain/entity"
	"github.com/oksasatya/supernanny-backend/internal/domain/repository"
)

type messageRepo struct{ s *Store }

func (r messageRepo) Conversations(_ context.Context, scope repository.BookingScope, readerID string) ([]entity.Conversation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	type ranked struct {
		c  entity.Conversation
		at time.Time
	}
	var list []ranked
	for _, b := range r.s.bookings {
		if !inScope(scope, b) {
			continue
		}
		c := entity.Conversation{
			Booking: *cloneBooking(b),
			Parent:  r.s.summary(b.ParentUserID),
			Nanny:   r.s.summary(b.NannyUserID),
		}
		at := b.UpdatedAt
		for _, m := range r.s.messages {
			if m.BookingID != b.ID {
				continue
			}
			last := *m
			c.LastMessage = &last
			at = m.CreatedAt
			if !m.IsRead && m.FromUserID != readerID {
				c.UnreadCount++
			}
		}
		list = append(list, ranked{c: c, at: at})
	}
	slices.SortFunc(list, func(a, b ranked) int { return b.at.Compare(a.at) })
	out := make([]entity.Conversation, 0, len(list))
	for _, x := range list {
		out = append(out, x.c)
	}
	return out, nil
}

func (r messageRepo) List(_ context.Context, bookingID string, page repository.Page) ([]entity.Message, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var thread []entity.Message
	for _, m := range r.s.messages {
		if m.BookingID == bookingID {
			c := *m
			from := r.s.summary(m.FromUserID)
			c.From = &from
			thread = append(thread, c)
		}
	}
	return paginate(thread, page), len(thread), nil
}

func (r messageRepo) MarkRead(_ context.Context, bookingID, readerID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, m := range r.s.messages {
		if m.BookingID == bookingID && m.FromUserID != readerID && !m.IsRead {
			m.IsRead = true
			n++
		}
	}
	return n, nil
}

func (r messageRepo) Create(_ context.Context, m *entity.Message) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.bookings[m.BookingID]; !ok {
		return repository.ErrNotFound
	}
	m.ID = newID()
	m.IsRead = false
	m.CreatedAt = r.s.tick()
	from := r.s.summary(m.FromUserID)
	m.From = &from
	c := *m
	c.From = nil
	r.s.messages = append(r.s.messages, &c)
	return nil
}
