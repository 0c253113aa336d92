// Package seed inserts demo parents and nannies. Running it twice is safe:
// existing e-mails are reused.
package seed

import (
	"context"
	"errors"
	"fmt"

	"github.com/oksasatya/supernanny-backend/internal/domain/entity"
	"github.com/oksasatya/supernanny-backend/internal/domain/repository"
	"github.com/oksasatya/supernanny-backend/pkg/helpers"
)

const DemoPassword = "password123"

type nannySeed struct {
	email, name, city, headline string
	rate, years                 int
	lat, lng                    float64
	languages, skills           []string
}

var parents = []struct{ email, name string }{
	{"dana.parent@supernanny.test", "Dana Levi"},
	{"yossi.parent@supernanny.test", "Yossi Cohen"},
}

var nannies = []nannySeed{
	{"noa.nanny@supernanny.test", "Noa Mizrahi", "Tel Aviv", "Warm, patient and fun", 60, 5, 32.0853, 34.7818,
		[]string{"Hebrew", "English"}, []string{"infants", "first aid"}},
	{"maya.nanny@supernanny.test", "Maya Friedman", "Jerusalem", "Montessori-trained sitter", 75, 8, 31.7683, 35.2137,
		[]string{"Hebrew", "Russian"}, []string{"homework help", "cooking"}},
	{"lior.nanny@supernanny.test", "Lior Ben-David", "Haifa", "Energetic evenings and weekends", 45, 2, 32.7940, 34.9896,
		[]string{"Hebrew", "Arabic", "English"}, []string{"sports", "toddlers"}},
}

// Account is a seeded identity.
type Account struct {
	User    *entity.User
	Profile *entity.NannyProfile
}

// Demo creates the demo accounts, reusing users that already exist.
func Demo(ctx context.Context, users repository.UserRepository, profiles repository.NannyRepository) ([]Account, error) {
	hash, err := helpers.HashPassword(DemoPassword)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	var out []Account
	for _, p := range parents {
		u, err := ensureUser(ctx, users, p.email, p.name, hash, entity.RoleParent)
		if err != nil {
			return nil, err
		}
		out = append(out, Account{User: u})
	}
	for _, n := range nannies {
		u, err := ensureUser(ctx, users, n.email, n.name, hash, entity.RoleNanny)
		if err != nil {
			return nil, err
		}
		prof, err := ensureProfile(ctx, profiles, u, n)
		if err != nil {
			return nil, err
		}
		out = append(out, Account{User: u, Profile: prof})
	}
	return out, nil
}

func ensureUser(ctx context.Context, users repository.UserRepository, email, name, hash string, role entity.Role) (*entity.User, error) {
	u, err := users.GetByEmail(ctx, email)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("lookup %s: %w", email, err)
	}
	u = &entity.User{Email: email, Password: hash, FullName: name, Role: role}
	if err := users.Create(ctx, u); err != nil {
		return nil, fmt.Errorf("create %s: %w", email, err)
	}
	return u, nil
}

func ensureProfile(ctx context.Context, profiles repository.NannyRepository, u *entity.User, n nannySeed) (*entity.NannyProfile, error) {
	p, err := profiles.GetByUserID(ctx, u.ID)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("lookup profile %s: %w", u.Email, err)
	}
	lat, lng := n.lat, n.lng
	p = &entity.NannyProfile{
		UserID:          u.ID,
		FullName:        u.FullName,
		Headline:        n.headline,
		HourlyRateNis:   n.rate,
		YearsExperience: n.years,
		Languages:       n.languages,
		Skills:          n.skills,
		City:            n.city,
		Latitude:        &lat,
		Longitude:       &lng,
		IsAvailable:     true,
	}
	for day := 0; day <= 4; day++ {
		p.Availability = append(p.Availability, entity.AvailabilitySlot{DayOfWeek: day, FromTime: "08:00", ToTime: "17:00", IsAvailable: true})
	}
	if err := profiles.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create profile %s: %w", u.Email, err)
	}
	return p, nil
}
