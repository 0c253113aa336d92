package application

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/supernanny-backend/internal/domain/apperror"
	"github.com/oksasatya/supernanny-backend/internal/domain/entity"
	repo "github.com/oksasatya/supernanny-backend/internal/domain/repository"
)

const (
	maxCommentLength = 1000
	reviewPageSize   = 20
	reviewPageMax    = 50
)

type ReviewService struct {
	Reviews  repo.ReviewRepository
	Bookings repo.BookingRepository
	Nannies  repo.NannyRepository
	Indexer  ProfileIndexer
	Logger   *logrus.Logger
}

func NewReviewService(reviews repo.ReviewRepository, bookings repo.BookingRepository, nannies repo.NannyRepository, logger *logrus.Logger) *ReviewService {
	return &ReviewService{Reviews: reviews, Bookings: bookings, Nannies: nannies, Logger: logger}
}

type CreateReviewInput struct {
	BookingID string
	Rating    int
	Comment   string
}

type ReviewResult struct {
	Review       *entity.Review `json:"review"`
	NannyRating  float64        `json:"nanny_rating"`
	ReviewsCount int            `json:"reviews_count"`
}

// Create records the parent's review of a completed booking and recomputes
// the nanny's rating in the same unit of work.
func (s *ReviewService) Create(ctx context.Context, reviewerID string, in CreateReviewInput) (*ReviewResult, error) {
	if in.Rating < 1 || in.Rating > 5 {
		return nil, apperror.Validation("rating must be between 1 and 5")
	}
	if len([]rune(in.Comment)) > maxCommentLength {
		return nil, apperror.Validation("comment must be at most 1000 characters")
	}

	b, err := s.Bookings.GetByID(ctx, in.BookingID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, apperror.NotFound("booking not found")
	}
	if err != nil {
		return nil, apperror.Internal("failed to load booking", err)
	}
	if b.ParentUserID != reviewerID {
		return nil, apperror.Forbidden("only the parent can review this booking")
	}
	if b.Status != entity.StatusCompleted {
		return nil, apperror.Validation("only completed bookings can be reviewed")
	}

	existing, err := s.Reviews.GetByBookingID(ctx, b.ID)
	if err != nil && !errors.Is(err, repo.ErrNotFound) {
		return nil, apperror.Internal("failed to load review", err)
	}
	if existing != nil {
		return nil, apperror.Conflict("booking already reviewed")
	}

	r := &entity.Review{
		BookingID:      b.ID,
		ReviewerUserID: reviewerID,
		RevieweeUserID: b.NannyUserID,
		Rating:         in.Rating,
		Comment:        in.Comment,
	}
	rating, count, err := s.Reviews.Create(ctx, r)
	if errors.Is(err, repo.ErrDuplicate) {
		return nil, apperror.Conflict("booking already reviewed")
	}
	if err != nil {
		return nil, apperror.Internal("failed to create review", err)
	}

	s.reindex(ctx, b.NannyUserID)
	return &ReviewResult{Review: r, NannyRating: rating, ReviewsCount: count}, nil
}

type ReviewList struct {
	Reviews    []entity.Review `json:"reviews"`
	Pagination Pagination      `json:"pagination"`
}

func (s *ReviewService) ListForNanny(ctx context.Context, nannyUserID string, page, limit int) (*ReviewList, error) {
	p := repo.NewPage(page, limit, reviewPageSize, reviewPageMax)
	items, total, err := s.Reviews.ListByReviewee(ctx, nannyUserID, p)
	if err != nil {
		return nil, apperror.Internal("failed to list reviews", err)
	}
	return &ReviewList{Reviews: items, Pagination: newPagination(total, p.Number, p.Size)}, nil
}

func (s *ReviewService) reindex(ctx context.Context, nannyUserID string) {
	if s.Indexer == nil || s.Nannies == nil {
		return
	}
	p, err := s.Nannies.GetByUserID(ctx, nannyUserID)
	if err == nil {
		err = s.Indexer.IndexProfile(ctx, p)
	}
	if err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("nanny_user_id", nannyUserID).Warn("reindex nanny profile failed")
	}
}
