package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/supernanny-backend/internal/domain/entity"
	"github.com/oksasatya/supernanny-backend/internal/domain/repository"
)

type EarningRepository struct {
	pool *pgxpool.Pool
}

func NewEarningRepository(pool *pgxpool.Pool) *EarningRepository {
	return &EarningRepository{pool: pool}
}

func (r *EarningRepository) ListByNanny(ctx context.Context, nannyUserID string) ([]entity.Earning, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, booking_id, nanny_user_id, amount_nis, platform_fee, net_amount_nis, is_paid, created_at
		FROM earnings
		WHERE nanny_user_id = $1
		ORDER BY created_at DESC, id
	`, nannyUserID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []entity.Earning{}
	for rows.Next() {
		var e entity.Earning
		if err := rows.Scan(&e.ID, &e.BookingID, &e.NannyUserID, &e.AmountNis, &e.PlatformFee,
			&e.NetAmountNis, &e.IsPaid, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

var _ repository.EarningRepository = (*EarningRepository)(nil)
