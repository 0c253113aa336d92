package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/supernanny-backend/internal/domain/entity"
	"github.com/oksasatya/supernanny-backend/internal/domain/repository"
)

type MessageRepository struct {
	pool *pgxpool.Pool
}

func NewMessageRepository(pool *pgxpool.Pool) *MessageRepository {
	return &MessageRepository{pool: pool}
}

func (r *MessageRepository) Conversations(ctx context.Context, scope repository.BookingScope, readerID string) ([]entity.Conversation, error) {
	var a args
	reader := a.add(readerID)
	where := scopeCondition(scope, &a)
	rows, err := r.pool.Query(ctx, `
		SELECT `+bookingColumns+`,
		       pu.id, pu.full_name, pu.avatar_url, pu.phone,
		       nu.id, nu.full_name, nu.avatar_url, nu.phone,
		       lm.id, lm.from_user_id, lm.text, lm.is_read, lm.created_at,
		       (SELECT count(*) FROM messages um
		         WHERE um.booking_id = b.id AND NOT um.is_read AND um.from_user_id <> `+reader+`::uuid)
		FROM bookings b
		JOIN users pu ON pu.id = b.parent_user_id
		JOIN users nu ON nu.id = b.nanny_user_id
		LEFT JOIN LATERAL (
			SELECT m.id, m.from_user_id, m.text, m.is_read, m.created_at
			FROM messages m
			WHERE m.booking_id = b.id
			ORDER BY m.created_at DESC, m.id DESC
			LIMIT 1
		) lm ON TRUE
		WHERE `+where+`
		ORDER BY COALESCE(lm.created_at, b.updated_at) DESC, b.id
	`, a...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []entity.Conversation{}
	for rows.Next() {
		var c entity.Conversation
		var (
			msgID, from, text *string
			read              *bool
			at                *time.Time
		)
		fields := append(bookingFields(&c.Booking),
			&c.Parent.ID, &c.Parent.FullName, &c.Parent.AvatarURL, &c.Parent.Phone,
			&c.Nanny.ID, &c.Nanny.FullName, &c.Nanny.AvatarURL, &c.Nanny.Phone,
			&msgID, &from, &text, &read, &at, &c.UnreadCount)
		if err := rows.Scan(fields...); err != nil {
			return nil, err
		}
		if msgID != nil {
			c.LastMessage = &entity.Message{
				ID:         *msgID,
				BookingID:  c.Booking.ID,
				FromUserID: *from,
				Text:       *text,
				IsRead:     *read,
				CreatedAt:  *at,
			}
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// List returns a page of the thread in ascending creation order.
func (r *MessageRepository) List(ctx context.Context, bookingID string, page repository.Page) ([]entity.Message, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM messages WHERE booking_id = $1`, bookingID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `
		SELECT m.id, m.booking_id, m.from_user_id, m.text, m.is_read, m.created_at,
		       u.id, u.full_name, u.avatar_url, u.phone
		FROM messages m
		JOIN users u ON u.id = m.from_user_id
		WHERE m.booking_id = $1
		ORDER BY m.created_at ASC, m.id ASC
		LIMIT $2 OFFSET $3
	`, bookingID, page.Size, page.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []entity.Message{}
	for rows.Next() {
		var m entity.Message
		var s entity.UserSummary
		if err := rows.Scan(&m.ID, &m.BookingID, &m.FromUserID, &m.Text, &m.IsRead, &m.CreatedAt,
			&s.ID, &s.FullName, &s.AvatarURL, &s.Phone); err != nil {
			return nil, 0, err
		}
		m.From = &s
		out = append(out, m)
	}
	return out, total, rows.Err()
}

func (r *MessageRepository) MarkRead(ctx context.Context, bookingID, readerID string) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE messages SET is_read = TRUE
		WHERE booking_id = $1 AND from_user_id <> $2 AND NOT is_read
	`, bookingID, readerID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *MessageRepository) Create(ctx context.Context, m *entity.Message) error {
	row := r.pool.QueryRow(ctx, `
		WITH ins AS (
			INSERT INTO messages (booking_id, from_user_id, text)
			VALUES ($1, $2, $3)
			RETURNING id, is_read, created_at, from_user_id
		)
		SELECT ins.id, ins.is_read, ins.created_at, u.id, u.full_name, u.avatar_url, u.phone
		FROM ins JOIN users u ON u.id = ins.from_user_id
	`, m.BookingID, m.FromUserID, m.Text)
	var s entity.UserSummary
	if err := row.Scan(&m.ID, &m.IsRead, &m.CreatedAt, &s.ID, &s.FullName, &s.AvatarURL, &s.Phone); err != nil {
		return mapError(err)
	}
	m.From = &s
	return nil
}

var _ repository.MessageRepository = (*MessageRepository)(nil)
