package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/supernanny-backend/internal/domain/entity"
	"github.com/oksasatya/supernanny-backend/internal/domain/repository"
)

type ReviewRepository struct {
	pool *pgxpool.Pool
}

func NewReviewRepository(pool *pgxpool.Pool) *ReviewRepository {
	return &ReviewRepository{pool: pool}
}

func (r *ReviewRepository) GetByBookingID(ctx context.Context, bookingID string) (*entity.Review, error) {
	rv := &entity.Review{}
	err := r.pool.QueryRow(ctx, `
		SELECT id, booking_id, reviewer_user_id, reviewee_user_id, rating, comment, created_at
		FROM reviews WHERE booking_id = $1
	`, bookingID).Scan(&rv.ID, &rv.BookingID, &rv.ReviewerUserID, &rv.RevieweeUserID, &rv.Rating, &rv.Comment, &rv.CreatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return rv, nil
}

// Create locks the reviewee's profile row so concurrent reviews recompute
// the aggregate serially.
func (r *ReviewRepository) Create(ctx context.Context, rv *entity.Review) (float64, int, error) {
	var (
		rating float64
		count  int
	)
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT 1 FROM nanny_profiles WHERE user_id = $1 FOR UPDATE`, rv.RevieweeUserID); err != nil {
			return err
		}
		err := tx.QueryRow(ctx, `
			INSERT INTO reviews (booking_id, reviewer_user_id, reviewee_user_id, rating, comment)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id, created_at
		`, rv.BookingID, rv.ReviewerUserID, rv.RevieweeUserID, rv.Rating, rv.Comment).Scan(&rv.ID, &rv.CreatedAt)
		if err != nil {
			return err
		}
		var sum int
		if err := tx.QueryRow(ctx, `
			SELECT COALESCE(sum(rating), 0), count(*) FROM reviews WHERE reviewee_user_id = $1
		`, rv.RevieweeUserID).Scan(&sum, &count); err != nil {
			return err
		}
		rating = entity.RoundRating(sum, count)
		_, err = tx.Exec(ctx, `
			UPDATE nanny_profiles SET rating = $2, reviews_count = $3, updated_at = now()
			WHERE user_id = $1
		`, rv.RevieweeUserID, rating, count)
		return err
	})
	if err != nil {
		return 0, 0, mapError(err)
	}
	return rating, count, nil
}

func (r *ReviewRepository) ListByReviewee(ctx context.Context, revieweeUserID string, page repository.Page) ([]entity.Review, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM reviews WHERE reviewee_user_id = $1`, revieweeUserID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `
		SELECT rv.id, rv.booking_id, rv.reviewer_user_id, rv.reviewee_user_id, rv.rating, rv.comment, rv.created_at,
		       u.id, u.full_name, u.avatar_url
		FROM reviews rv
		JOIN users u ON u.id = rv.reviewer_user_id
		WHERE rv.reviewee_user_id = $1
		ORDER BY rv.created_at DESC, rv.id
		LIMIT $2 OFFSET $3
	`, revieweeUserID, page.Size, page.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []entity.Review{}
	for rows.Next() {
		var rv entity.Review
		var s entity.UserSummary
		if err := rows.Scan(&rv.ID, &rv.BookingID, &rv.ReviewerUserID, &rv.RevieweeUserID, &rv.Rating,
			&rv.Comment, &rv.CreatedAt, &s.ID, &s.FullName, &s.AvatarURL); err != nil {
			return nil, 0, err
		}
		rv.Reviewer = &s
		out = append(out, rv)
	}
	return out, total, rows.Err()
}

var _ repository.ReviewRepository = (*ReviewRepository)(nil)
