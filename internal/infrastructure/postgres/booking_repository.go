package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/supernanny-backend/internal/domain/entity"
	"github.com/oksasatya/supernanny-backend/internal/domain/repository"
)

type BookingRepository struct {
	pool *pgxpool.Pool
}

func NewBookingRepository(pool *pgxpool.Pool) *BookingRepository {
	return &BookingRepository{pool: pool}
}

const bookingColumns = `b.id, b.parent_user_id, b.nanny_user_id, b.start_time, b.end_time, b.hourly_rate_nis,
	b.total_amount_nis, b.status, b.is_paid, b.payment_intent_id, b.notes, b.children_count,
	b.children_ages, b.address, b.created_at, b.updated_at`

const activeStatusList = `('REQUESTED', 'ACCEPTED', 'IN_PROGRESS')`

func bookingFields(b *entity.Booking) []any {
	return []any{&b.ID, &b.ParentUserID, &b.NannyUserID, &b.StartTime, &b.EndTime, &b.HourlyRateNis,
		&b.TotalAmountNis, &b.Status, &b.IsPaid, &b.PaymentIntentID, &b.Notes, &b.ChildrenCount,
		&b.ChildrenAges, &b.Address, &b.CreatedAt, &b.UpdatedAt}
}

func scanBooking(row pgx.Row) (*entity.Booking, error) {
	b := &entity.Booking{}
	if err := row.Scan(bookingFields(b)...); err != nil {
		return nil, mapError(err)
	}
	return b, nil
}

func (r *BookingRepository) FindConflict(ctx context.Context, nannyUserID string, start, end time.Time, excludeID string) (*entity.Booking, error) {
	return findConflict(ctx, r.pool, nannyUserID, start, end, excludeID)
}

func findConflict(ctx context.Context, q querier, nannyUserID string, start, end time.Time, excludeID string) (*entity.Booking, error) {
	var exclude *string
	if excludeID != "" {
		exclude = &excludeID
	}
	b, err := scanBooking(q.QueryRow(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings b
		WHERE b.nanny_user_id = $1
		  AND b.status IN `+activeStatusList+`
		  AND b.start_time < $3
		  AND b.end_time > $2
		  AND ($4::uuid IS NULL OR b.id <> $4::uuid)
		LIMIT 1
	`, nannyUserID, start, end, exclude))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	return b, err
}

// Create inserts the booking; the bookings_no_overlap exclusion constraint
// rejects a concurrent overlapping insert with ErrOverlap.
func (r *BookingRepository) Create(ctx context.Context, b *entity.Booking) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO bookings (parent_user_id, nanny_user_id, start_time, end_time, hourly_rate_nis,
			total_amount_nis, status, notes, children_count, children_ages, address)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, is_paid, created_at, updated_at
	`, b.ParentUserID, b.NannyUserID, b.StartTime, b.EndTime, b.HourlyRateNis, b.TotalAmountNis,
		b.Status, b.Notes, b.ChildrenCount, nonNil(b.ChildrenAges), b.Address)
	return mapError(row.Scan(&b.ID, &b.IsPaid, &b.CreatedAt, &b.UpdatedAt))
}

func (r *BookingRepository) GetByID(ctx context.Context, id string) (*entity.Booking, error) {
	return scanBooking(r.pool.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings b WHERE b.id = $1`, id))
}

const detailSelect = `
	SELECT ` + bookingColumns + `,
	       pu.id, pu.full_name, pu.avatar_url, pu.phone,
	       nu.id, nu.full_name, nu.avatar_url, nu.phone,
	       rv.id, rv.reviewer_user_id, rv.rating, rv.comment, rv.created_at,
	       e.id, e.amount_nis, e.platform_fee, e.net_amount_nis, e.is_paid, e.created_at,
	       (SELECT count(*) FROM messages m WHERE m.booking_id = b.id)
	FROM bookings b
	JOIN users pu ON pu.id = b.parent_user_id
	JOIN users nu ON nu.id = b.nanny_user_id
	LEFT JOIN reviews rv ON rv.booking_id = b.id
	LEFT JOIN earnings e ON e.booking_id = b.id`

func scanDetail(row pgx.Row) (*entity.BookingDetail, error) {
	d := &entity.BookingDetail{}
	var (
		reviewID, reviewer, comment *string
		rating                      *int
		reviewAt, earningAt         *time.Time
		earningID                   *string
		amount, fee, net            *int
		earningPaid                 *bool
	)
	fields := append(bookingFields(&d.Booking),
		&d.Parent.ID, &d.Parent.FullName, &d.Parent.AvatarURL, &d.Parent.Phone,
		&d.Nanny.ID, &d.Nanny.FullName, &d.Nanny.AvatarURL, &d.Nanny.Phone,
		&reviewID, &reviewer, &rating, &comment, &reviewAt,
		&earningID, &amount, &fee, &net, &earningPaid, &earningAt,
		&d.MessageCount)
	if err := row.Scan(fields...); err != nil {
		return nil, mapError(err)
	}
	if reviewID != nil {
		d.Review = &entity.Review{
			ID:             *reviewID,
			BookingID:      d.ID,
			ReviewerUserID: *reviewer,
			RevieweeUserID: d.NannyUserID,
			Rating:         *rating,
			Comment:        *comment,
			CreatedAt:      *reviewAt,
		}
	}
	if earningID != nil {
		d.Earning = &entity.Earning{
			ID:           *earningID,
			BookingID:    d.ID,
			NannyUserID:  d.NannyUserID,
			AmountNis:    *amount,
			PlatformFee:  *fee,
			NetAmountNis: *net,
			IsPaid:       *earningPaid,
			CreatedAt:    *earningAt,
		}
	}
	return d, nil
}

func (r *BookingRepository) GetDetail(ctx context.Context, id string) (*entity.BookingDetail, error) {
	return scanDetail(r.pool.QueryRow(ctx, detailSelect+` WHERE b.id = $1`, id))
}

// scopeCondition renders a booking scope as a boolean SQL expression.
func scopeCondition(s repository.BookingScope, a *args) string {
	switch s := s.(type) {
	case repository.ParentScope:
		return "b.parent_user_id = " + a.add(s.UserID)
	case repository.NannyScope:
		return "b.nanny_user_id = " + a.add(s.UserID)
	case repository.PartyScope:
		p := a.add(s.UserID)
		return "(b.parent_user_id = " + p + " OR b.nanny_user_id = " + p + ")"
	case repository.AllBookings:
		return "TRUE"
	}
	return "FALSE"
}

func (r *BookingRepository) List(ctx context.Context, q repository.BookingQuery) ([]entity.BookingDetail, int, error) {
	var a args
	where := " WHERE " + scopeCondition(q.Scope, &a)
	if q.Status != nil {
		where += " AND b.status = " + a.add(string(*q.Status))
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM bookings b`+where, a...).Scan(&total); err != nil {
		return nil, 0, err
	}

	sql := detailSelect + where + ` ORDER BY b.created_at DESC, b.id LIMIT ` + a.add(q.Page.Size) + ` OFFSET ` + a.add(q.Page.Offset())
	rows, err := r.pool.Query(ctx, sql, a...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []entity.BookingDetail{}
	for rows.Next() {
		d, err := scanDetail(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *d)
	}
	return out, total, rows.Err()
}

func (r *BookingRepository) UpdateStatus(ctx context.Context, id string, from, to entity.BookingStatus) (*entity.Booking, error) {
	return updateStatus(ctx, r.pool, id, from, to)
}

// updateStatus is a compare-and-set on the current status.
func updateStatus(ctx context.Context, q querier, id string, from, to entity.BookingStatus) (*entity.Booking, error) {
	b, err := scanBooking(q.QueryRow(ctx, `
		UPDATE bookings b SET status = $3, updated_at = now()
		WHERE b.id = $1 AND b.status = $2
		RETURNING `+bookingColumns, id, from, to))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, repository.ErrStaleStatus
	}
	return b, err
}

func (r *BookingRepository) Complete(ctx context.Context, id string, from entity.BookingStatus, e entity.Earning) (*entity.Booking, *entity.Earning, bool, error) {
	var (
		booking *entity.Booking
		earning = e
		created bool
	)
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		var err error
		booking, err = updateStatus(ctx, tx, id, from, entity.StatusCompleted)
		if err != nil {
			return err
		}
		err = tx.QueryRow(ctx, `
			INSERT INTO earnings (booking_id, nanny_user_id, amount_nis, platform_fee, net_amount_nis)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (booking_id) DO NOTHING
			RETURNING id, is_paid, created_at
		`, id, booking.NannyUserID, e.AmountNis, e.PlatformFee, e.NetAmountNis).
			Scan(&earning.ID, &earning.IsPaid, &earning.CreatedAt)
		switch {
		case err == nil:
			created = true
		case errors.Is(err, pgx.ErrNoRows):
			// already recorded; return the stored split
			return tx.QueryRow(ctx, `
				SELECT id, booking_id, nanny_user_id, amount_nis, platform_fee, net_amount_nis, is_paid, created_at
				FROM earnings WHERE booking_id = $1
			`, id).Scan(&earning.ID, &earning.BookingID, &earning.NannyUserID, &earning.AmountNis,
				&earning.PlatformFee, &earning.NetAmountNis, &earning.IsPaid, &earning.CreatedAt)
		default:
			return err
		}
		_, err = tx.Exec(ctx, `
			UPDATE nanny_profiles
			SET completed_jobs = completed_jobs + 1, total_earnings = total_earnings + $2, updated_at = now()
			WHERE user_id = $1
		`, booking.NannyUserID, earning.NetAmountNis)
		return err
	})
	if err != nil {
		return nil, nil, false, mapError(err)
	}
	earning.BookingID = id
	earning.NannyUserID = booking.NannyUserID
	return booking, &earning, created, nil
}

func (r *BookingRepository) RecordPaymentIntent(ctx context.Context, bookingID, intentID string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE bookings SET payment_intent_id = $2, updated_at = now() WHERE id = $1
	`, bookingID, intentID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *BookingRepository) MarkPaidByIntent(ctx context.Context, intentID string) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE bookings SET is_paid = TRUE, updated_at = now()
		WHERE payment_intent_id = $1 AND NOT is_paid
	`, intentID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

var _ repository.BookingRepository = (*BookingRepository)(nil)
