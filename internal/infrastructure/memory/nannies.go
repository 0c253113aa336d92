package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"github.com/oksasatya/supernanny-backend/internal/domain/entity"
	"github.com/oksasatya/supernanny-backend/internal/domain/repository"
)

type nannyRepo struct{ s *Store }

func (r nannyRepo) Create(_ context.Context, p *entity.NannyProfile) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.profileByUser(p.UserID) != nil {
		return repository.ErrDuplicate
	}
	if p.ID == "" {
		p.ID = newID()
	}
	now := r.s.tick()
	p.CreatedAt, p.UpdatedAt = now, now
	r.s.profiles[p.ID] = r.s.cloneProfile(p)
	return nil
}

func (r nannyRepo) GetByUserID(_ context.Context, userID string) (*entity.NannyProfile, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p := r.s.profileByUser(userID)
	if p == nil {
		return nil, repository.ErrNotFound
	}
	return r.s.cloneProfile(p), nil
}

func (r nannyRepo) GetByID(_ context.Context, id string) (*entity.NannyProfile, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.profiles[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return r.s.cloneProfile(p), nil
}

func matches(p *entity.NannyProfile, filters []repository.NannyFilter) bool {
	for _, f := range filters {
		switch f := f.(type) {
		case repository.CityContains:
			if !strings.Contains(strings.ToLower(p.City), strings.ToLower(f.City)) {
				return false
			}
		case repository.RateRange:
			if f.Min != nil && p.HourlyRateNis < *f.Min {
				return false
			}
			if f.Max != nil && p.HourlyRateNis > *f.Max {
				return false
			}
		case repository.MinYears:
			if p.YearsExperience < f.Years {
				return false
			}
		case repository.HasLanguage:
			if !p.SpeaksLanguage(f.Language) {
				return false
			}
		case repository.HasSkill:
			if !p.HasSkill(f.Skill) {
				return false
			}
		case repository.MinRating:
			if p.Rating < f.Rating {
				return false
			}
		}
	}
	return true
}

func compareProfiles(sort repository.NannySort) func(a, b *entity.NannyProfile) int {
	var key func(a, b *entity.NannyProfile) int
	switch sort {
	case repository.SortRateAsc:
		key = func(a, b *entity.NannyProfile) int { return cmp.Compare(a.HourlyRateNis, b.HourlyRateNis) }
	case repository.SortRateDesc:
		key = func(a, b *entity.NannyProfile) int { return cmp.Compare(b.HourlyRateNis, a.HourlyRateNis) }
	case repository.SortExperience:
		key = func(a, b *entity.NannyProfile) int { return cmp.Compare(b.YearsExperience, a.YearsExperience) }
	case repository.SortReviews:
		key = func(a, b *entity.NannyProfile) int { return cmp.Compare(b.ReviewsCount, a.ReviewsCount) }
	case repository.SortNewest:
		key = func(a, b *entity.NannyProfile) int { return b.CreatedAt.Compare(a.CreatedAt) }
	default:
		key = func(a, b *entity.NannyProfile) int { return cmp.Compare(b.Rating, a.Rating) }
	}
	return func(a, b *entity.NannyProfile) int {
		if c := key(a, b); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	}
}

func (r nannyRepo) Search(_ context.Context, q repository.NannySearch) ([]entity.NannyProfile, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var hits []*entity.NannyProfile
	for _, p := range r.s.profiles {
		if matches(p, q.Filters) {
			hits = append(hits, p)
		}
	}
	slices.SortFunc(hits, compareProfiles(q.Sort))
	page := paginate(hits, q.Page)
	out := make([]entity.NannyProfile, 0, len(page))
	for _, p := range page {
		out = append(out, *r.s.cloneProfile(p))
	}
	return out, len(hits), nil
}

func (r nannyRepo) Update(_ context.Context, userID string, u entity.ProfileUpdate) (*entity.NannyProfile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p := r.s.profileByUser(userID)
	if p == nil {
		return nil, repository.ErrNotFound
	}
	u.Apply(p)
	if u.AvatarURL != nil {
		if usr, ok := r.s.users[userID]; ok {
			usr.AvatarURL = *u.AvatarURL
		}
	}
	p.UpdatedAt = r.s.tick()
	return r.s.cloneProfile(p), nil
}

func (r nannyRepo) UpsertAvailability(_ context.Context, profileID string, slots []entity.AvailabilitySlot) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.profiles[profileID]
	if !ok {
		return repository.ErrNotFound
	}
	for _, sl := range slots {
		i := slices.IndexFunc(p.Availability, func(a entity.AvailabilitySlot) bool { return a.DayOfWeek == sl.DayOfWeek })
		if i >= 0 {
			p.Availability[i] = sl
		} else {
			p.Availability = append(p.Availability, sl)
		}
	}
	slices.SortFunc(p.Availability, func(a, b entity.AvailabilitySlot) int { return cmp.Compare(a.DayOfWeek, b.DayOfWeek) })
	return nil
}
