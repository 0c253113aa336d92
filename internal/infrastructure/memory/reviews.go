package memory

import (
	"context"
	"slices"

	"github.com/oksasatya/supernanny-backend/internal/domain/entity"
	"github.com/oksasatya/supernanny-backend/internal/domain/repository"
)

type reviewRepo struct{ s *Store }

func (r reviewRepo) GetByBookingID(_ context.Context, bookingID string) (*entity.Review, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	rv, ok := r.s.reviews[bookingID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *rv
	return &c, nil
}

func (r reviewRepo) Create(_ context.Context, rv *entity.Review) (float64, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.reviews[rv.BookingID]; ok {
		return 0, 0, repository.ErrDuplicate
	}
	rv.ID = newID()
	rv.CreatedAt = r.s.tick()
	c := *rv
	r.s.reviews[rv.BookingID] = &c

	var sum, count int
	for _, x := range r.s.reviews {
		if x.RevieweeUserID == rv.RevieweeUserID {
			sum += x.Rating
			count++
		}
	}
	rating := entity.RoundRating(sum, count)
	if p := r.s.profileByUser(rv.RevieweeUserID); p != nil {
		p.Rating = rating
		p.ReviewsCount = count
	}
	return rating, count, nil
}

func (r reviewRepo) ListByReviewee(_ context.Context, revieweeUserID string, page repository.Page) ([]entity.Review, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var list []entity.Review
	for _, rv := range r.s.reviews {
		if rv.RevieweeUserID == revieweeUserID {
			c := *rv
			s := r.s.summary(rv.ReviewerUserID)
			c.Reviewer = &s
			list = append(list, c)
		}
	}
	slices.SortFunc(list, func(a, b entity.Review) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return paginate(list, page), len(list), nil
}
