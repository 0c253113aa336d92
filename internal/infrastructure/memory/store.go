// Package memory is a process-local storage backend. It enforces the same
// invariants as the postgres schema: one active booking per nanny and
// interval, one review and one earning per booking.
package memory

import (
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/oksasatya/supernanny-backend/internal/domain/entity"
	"github.com/oksasatya/supernanny-backend/internal/domain/repository"
)

type Store struct {
	mu sync.RWMutex

	users    map[string]*entity.User
	profiles map[string]*entity.NannyProfile // by profile id
	bookings map[string]*entity.Booking
	messages []*entity.Message // insertion order is creation order
	reviews  map[string]*entity.Review  // by booking id
	earnings map[string]*entity.Earning // by booking id

	// Now is the clock used for timestamps.
	Now func() time.Time
	seq int64
}

func NewStore() *Store {
	return &Store{
		users:    map[string]*entity.User{},
		profiles: map[string]*entity.NannyProfile{},
		bookings: map[string]*entity.Booking{},
		reviews:  map[string]*entity.Review{},
		earnings: map[string]*entity.Earning{},
		Now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) Users() repository.UserRepository       { return userRepo{s} }
func (s *Store) Nannies() repository.NannyRepository    { return nannyRepo{s} }
func (s *Store) Bookings() repository.BookingRepository { return bookingRepo{s} }
func (s *Store) Messages() repository.MessageRepository { return messageRepo{s} }
func (s *Store) Reviews() repository.ReviewRepository   { return reviewRepo{s} }
func (s *Store) Earnings() repository.EarningRepository { return earningRepo{s} }

// tick returns a strictly increasing timestamp so ordering by time is stable.
func (s *Store) tick() time.Time {
	s.seq++
	return s.Now().Add(time.Duration(s.seq) * time.Microsecond)
}

func newID() string { return uuid.NewString() }

func (s *Store) summary(userID string) entity.UserSummary {
	if u, ok := s.users[userID]; ok {
		return u.Summary()
	}
	return entity.UserSummary{ID: userID}
}

func (s *Store) profileByUser(userID string) *entity.NannyProfile {
	for _, p := range s.profiles {
		if p.UserID == userID {
			return p
		}
	}
	return nil
}

func cloneBooking(b *entity.Booking) *entity.Booking {
	c := *b
	c.ChildrenAges = slices.Clone(b.ChildrenAges)
	if b.PaymentIntentID != nil {
		id := *b.PaymentIntentID
		c.PaymentIntentID = &id
	}
	return &c
}

func (s *Store) cloneProfile(p *entity.NannyProfile) *entity.NannyProfile {
	c := *p
	c.Languages = slices.Clone(p.Languages)
	c.Skills = slices.Clone(p.Skills)
	c.Availability = slices.Clone(p.Availability)
	if c.Availability == nil {
		c.Availability = []entity.AvailabilitySlot{}
	}
	if u, ok := s.users[p.UserID]; ok {
		c.FullName = u.FullName
		c.AvatarURL = u.AvatarURL
	}
	return &c
}

// inScope reports whether b is visible under the scope.
func inScope(scope repository.BookingScope, b *entity.Booking) bool {
	switch sc := scope.(type) {
	case repository.ParentScope:
		return b.ParentUserID == sc.UserID
	case repository.NannyScope:
		return b.NannyUserID == sc.UserID
	case repository.PartyScope:
		return b.IsParty(sc.UserID)
	case repository.AllBookings:
		return true
	}
	return false
}

// paginate slices items for the page, returning an empty non-nil slice past the end.
func paginate[T any](items []T, p repository.Page) []T {
	start := p.Offset()
	if start >= len(items) {
		return []T{}
	}
	end := min(start+p.Size, len(items))
	return items[start:end]
}
