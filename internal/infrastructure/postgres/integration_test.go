//go:build integration

// Run with: TEST_POSTGRES_DSN=postgres://... go test -tags integration ./internal/infrastructure/postgres/
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	pgmigrate "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/supernanny-backend/internal/domain/entity"
	"github.com/oksasatya/supernanny-backend/internal/domain/repository"
)

func openTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set")
	}

	db, err := sql.Open("pgx", dsn)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()
	driver, err := pgmigrate.WithInstance(db, &pgmigrate.Config{})
	require.NoError(t, err)
	m, err := migrate.NewWithDatabaseInstance("file://../../../db/migrations", "postgres", driver)
	require.NoError(t, err)
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		require.NoError(t, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	pool, err := NewPool(ctx, dsn, 16, 1, time.Minute)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

type pgFixture struct {
	bookings      *BookingRepository
	parent, nanny *entity.User
}

func newPGFixture(t *testing.T) pgFixture {
	t.Helper()
	pool := openTestPool(t)
	ctx := context.Background()
	users := NewUserRepository(pool)
	mk := func(role entity.Role) *entity.User {
		u := &entity.User{Email: uuid.NewString() + "@example.test", Password: "x", FullName: string(role), Role: role}
		require.NoError(t, users.Create(ctx, u))
		return u
	}
	f := pgFixture{bookings: NewBookingRepository(pool), parent: mk(entity.RoleParent), nanny: mk(entity.RoleNanny)}
	require.NoError(t, NewNannyRepository(pool).Create(ctx, &entity.NannyProfile{UserID: f.nanny.ID, HourlyRateNis: 60, IsAvailable: true}))
	return f
}

func (f pgFixture) booking(start time.Time, hours int) *entity.Booking {
	return &entity.Booking{
		ParentUserID:   f.parent.ID,
		NannyUserID:    f.nanny.ID,
		StartTime:      start,
		EndTime:        start.Add(time.Duration(hours) * time.Hour),
		HourlyRateNis:  60,
		TotalAmountNis: 60 * hours,
		Status:         entity.StatusRequested,
		ChildrenCount:  1,
	}
}

func TestIntegration_ExclusionConstraintAdmitsOneOfConcurrentOverlaps(t *testing.T) {
	f := newPGFixture(t)
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)

	const n = 8
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		created  int
		overlaps int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := f.bookings.Create(ctx, f.booking(base.Add(time.Duration(i)*time.Minute), 1))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				created++
			case errors.Is(err, repository.ErrOverlap):
				overlaps++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 1, created)
	assert.Equal(t, n-1, overlaps)
}

func TestIntegration_ExclusionConstraintIgnoresAdjacentAndInactive(t *testing.T) {
	f := newPGFixture(t)
	ctx := context.Background()
	base := time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC)

	first := f.booking(base, 2)
	require.NoError(t, f.bookings.Create(ctx, first))
	require.NoError(t, f.bookings.Create(ctx, f.booking(base.Add(2*time.Hour), 1)), "half-open intervals touch")

	_, err := f.bookings.UpdateStatus(ctx, first.ID, entity.StatusRequested, entity.StatusDeclined)
	require.NoError(t, err)
	assert.NoError(t, f.bookings.Create(ctx, f.booking(base.Add(time.Hour), 1)), "declined bookings do not block")
}

func TestIntegration_CompleteTwiceWritesOneEarning(t *testing.T) {
	f := newPGFixture(t)
	ctx := context.Background()
	b := f.booking(time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC), 2)
	require.NoError(t, f.bookings.Create(ctx, b))
	_, err := f.bookings.UpdateStatus(ctx, b.ID, entity.StatusRequested, entity.StatusAccepted)
	require.NoError(t, err)

	_, e, created, err := f.bookings.Complete(ctx, b.ID, entity.StatusAccepted, entity.NewEarning(b, 15))
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, 102, e.NetAmountNis)

	_, _, _, err = f.bookings.Complete(ctx, b.ID, entity.StatusAccepted, entity.NewEarning(b, 15))
	assert.ErrorIs(t, err, repository.ErrStaleStatus)

	list, err := NewEarningRepository(f.bookings.pool).ListByNanny(ctx, f.nanny.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestIntegration_MalformedIDIsNotFound(t *testing.T) {
	f := newPGFixture(t)
	_, err := f.bookings.GetByID(context.Background(), "abc")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
