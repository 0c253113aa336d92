package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/supernanny-backend/internal/domain/entity"
	"github.com/oksasatya/supernanny-backend/internal/domain/repository"
)

type NannyRepository struct {
	pool *pgxpool.Pool
}

func NewNannyRepository(pool *pgxpool.Pool) *NannyRepository {
	return &NannyRepository{pool: pool}
}

const profileSelect = `
	SELECT p.id, p.user_id, u.full_name, u.avatar_url, p.headline, p.bio, p.hourly_rate_nis,
	       p.years_experience, p.languages, p.skills, p.city, p.address, p.latitude, p.longitude,
	       p.is_available, p.rating, p.reviews_count, p.completed_jobs, p.total_earnings,
	       p.created_at, p.updated_at
	FROM nanny_profiles p
	JOIN users u ON u.id = p.user_id`

var nannyOrder = map[repository.NannySort]string{
	repository.SortRating:     "p.rating DESC",
	repository.SortRateAsc:    "p.hourly_rate_nis ASC",
	repository.SortRateDesc:   "p.hourly_rate_nis DESC",
	repository.SortExperience: "p.years_experience DESC",
	repository.SortReviews:    "p.reviews_count DESC",
	repository.SortNewest:     "p.created_at DESC",
}

func scanProfile(row interface{ Scan(...any) error }) (*entity.NannyProfile, error) {
	p := &entity.NannyProfile{}
	err := row.Scan(&p.ID, &p.UserID, &p.FullName, &p.AvatarURL, &p.Headline, &p.Bio, &p.HourlyRateNis,
		&p.YearsExperience, &p.Languages, &p.Skills, &p.City, &p.Address, &p.Latitude, &p.Longitude,
		&p.IsAvailable, &p.Rating, &p.ReviewsCount, &p.CompletedJobs, &p.TotalEarnings,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return p, nil
}

func (r *NannyRepository) Create(ctx context.Context, p *entity.NannyProfile) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO nanny_profiles (user_id, headline, bio, hourly_rate_nis, years_experience,
			languages, skills, city, address, latitude, longitude, is_available)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at, updated_at
	`, p.UserID, p.Headline, p.Bio, p.HourlyRateNis, p.YearsExperience, nonNil(p.Languages), nonNil(p.Skills),
		p.City, p.Address, p.Latitude, p.Longitude, p.IsAvailable)
	if err := row.Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return mapError(err)
	}
	if len(p.Availability) > 0 {
		return r.UpsertAvailability(ctx, p.ID, p.Availability)
	}
	return nil
}

func (r *NannyRepository) GetByUserID(ctx context.Context, userID string) (*entity.NannyProfile, error) {
	return r.getOne(ctx, profileSelect+` WHERE p.user_id = $1`, userID)
}

func (r *NannyRepository) GetByID(ctx context.Context, id string) (*entity.NannyProfile, error) {
	return r.getOne(ctx, profileSelect+` WHERE p.id = $1`, id)
}

func (r *NannyRepository) getOne(ctx context.Context, sql string, arg any) (*entity.NannyProfile, error) {
	p, err := scanProfile(r.pool.QueryRow(ctx, sql, arg))
	if err != nil {
		return nil, err
	}
	if err := r.attachAvailability(ctx, []*entity.NannyProfile{p}); err != nil {
		return nil, err
	}
	return p, nil
}

// nannyWhere renders the conjunctive filter list into a WHERE clause.
func nannyWhere(filters []repository.NannyFilter, a *args) string {
	var conds []string
	for _, f := range filters {
		switch f := f.(type) {
		case repository.CityContains:
			conds = append(conds, `p.city ILIKE `+a.add(containsPattern(f.City))+` ESCAPE '\'`)
		case repository.RateRange:
			if f.Min != nil {
				conds = append(conds, "p.hourly_rate_nis >= "+a.add(*f.Min))
			}
			if f.Max != nil {
				conds = append(conds, "p.hourly_rate_nis <= "+a.add(*f.Max))
			}
		case repository.MinYears:
			conds = append(conds, "p.years_experience >= "+a.add(f.Years))
		case repository.HasLanguage:
			conds = append(conds, a.add(f.Language)+" = ANY(p.languages)")
		case repository.HasSkill:
			conds = append(conds, a.add(f.Skill)+" = ANY(p.skills)")
		case repository.MinRating:
			conds = append(conds, "p.rating >= "+a.add(f.Rating))
		}
	}
	if len(conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(conds, " AND ")
}

func (r *NannyRepository) Search(ctx context.Context, q repository.NannySearch) ([]entity.NannyProfile, int, error) {
	var a args
	where := nannyWhere(q.Filters, &a)

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM nanny_profiles p`+where, a...).Scan(&total); err != nil {
		return nil, 0, err
	}

	order, ok := nannyOrder[q.Sort]
	if !ok {
		order = nannyOrder[repository.SortRating]
	}
	sql := fmt.Sprintf("%s%s ORDER BY %s, p.id LIMIT %s OFFSET %s",
		profileSelect, where, order, a.add(q.Page.Size), a.add(q.Page.Offset()))
	rows, err := r.pool.Query(ctx, sql, a...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var ptrs []*entity.NannyProfile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, 0, err
		}
		ptrs = append(ptrs, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	if err := r.attachAvailability(ctx, ptrs); err != nil {
		return nil, 0, err
	}
	out := make([]entity.NannyProfile, 0, len(ptrs))
	for _, p := range ptrs {
		out = append(out, *p)
	}
	return out, total, nil
}

func (r *NannyRepository) attachAvailability(ctx context.Context, profiles []*entity.NannyProfile) error {
	if len(profiles) == 0 {
		return nil
	}
	byID := make(map[string]*entity.NannyProfile, len(profiles))
	ids := make([]string, 0, len(profiles))
	for _, p := range profiles {
		p.Availability = []entity.AvailabilitySlot{}
		byID[p.ID] = p
		ids = append(ids, p.ID)
	}
	rows, err := r.pool.Query(ctx, `
		SELECT profile_id, day_of_week, from_time, to_time, is_available
		FROM availability_slots
		WHERE profile_id = ANY($1::uuid[])
		ORDER BY day_of_week
	`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var pid string
		var s entity.AvailabilitySlot
		if err := rows.Scan(&pid, &s.DayOfWeek, &s.FromTime, &s.ToTime, &s.IsAvailable); err != nil {
			return err
		}
		if p := byID[pid]; p != nil {
			p.Availability = append(p.Availability, s)
		}
	}
	return rows.Err()
}

// Update writes the set fields of u. The avatar lives on the user record.
func (r *NannyRepository) Update(ctx context.Context, userID string, u entity.ProfileUpdate) (*entity.NannyProfile, error) {
	sql, a := profileUpdate(userID, u)
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, sql, a...)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return repository.ErrNotFound
		}
		if u.AvatarURL != nil {
			_, err = tx.Exec(ctx, `UPDATE users SET avatar_url = $1, updated_at = now() WHERE id = $2`, *u.AvatarURL, userID)
		}
		return err
	})
	if err != nil {
		return nil, mapError(err)
	}
	return r.GetByUserID(ctx, userID)
}

// profileUpdate builds the nanny_profiles UPDATE for the set fields of u.
// The user id is always the last argument.
func profileUpdate(userID string, u entity.ProfileUpdate) (string, args) {
	var a args
	var sets []string
	set := func(col string, v any) { sets = append(sets, col+" = "+a.add(v)) }
	if u.Headline != nil {
		set("headline", *u.Headline)
	}
	if u.Bio != nil {
		set("bio", *u.Bio)
	}
	if u.HourlyRateNis != nil {
		set("hourly_rate_nis", *u.HourlyRateNis)
	}
	if u.YearsExperience != nil {
		set("years_experience", *u.YearsExperience)
	}
	if u.Languages != nil {
		set("languages", u.Languages)
	}
	if u.Skills != nil {
		set("skills", u.Skills)
	}
	if u.City != nil {
		set("city", *u.City)
	}
	if u.Address != nil {
		set("address", *u.Address)
	}
	if u.Latitude != nil {
		set("latitude", *u.Latitude)
	}
	if u.Longitude != nil {
		set("longitude", *u.Longitude)
	}
	if u.IsAvailable != nil {
		set("is_available", *u.IsAvailable)
	}
	sets = append(sets, "updated_at = now()")
	where := a.add(userID)
	return `UPDATE nanny_profiles SET ` + strings.Join(sets, ", ") + ` WHERE user_id = ` + where, a
}

func (r *NannyRepository) UpsertAvailability(ctx context.Context, profileID string, slots []entity.AvailabilitySlot) error {
	batch := &pgx.Batch{}
	for _, s := range slots {
		batch.Queue(`
			INSERT INTO availability_slots (profile_id, day_of_week, from_time, to_time, is_available)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (profile_id, day_of_week)
			DO UPDATE SET from_time = EXCLUDED.from_time, to_time = EXCLUDED.to_time, is_available = EXCLUDED.is_available
		`, profileID, s.DayOfWeek, s.FromTime, s.ToTime, s.IsAvailable)
	}
	return r.pool.SendBatch(ctx, batch).Close()
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

var _ repository.NannyRepository = (*NannyRepository)(nil)
