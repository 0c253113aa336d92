package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/supernanny-backend/internal/domain/apperror"
	"github.com/oksasatya/supernanny-backend/internal/domain/entity"
	"github.com/oksasatya/supernanny-backend/internal/domain/repository"
)

// settledPayouts reports the earnings of the listed bookings as paid out.
type settledPayouts struct {
	repository.EarningRepository
	paid map[string]bool
}

func (s settledPayouts) ListByNanny(ctx context.Context, nannyUserID string) ([]entity.Earning, error) {
	list, err := s.EarningRepository.ListByNanny(ctx, nannyUserID)
	for i := range list {
		if s.paid[list[i].BookingID] {
			list[i].IsPaid = true
		}
	}
	return list, err
}

func TestEarningReport(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	r, err := f.earnings.Report(ctx, f.nanny.ID)
	require.NoError(t, err)
	assert.NotNil(t, r.Earnings)
	assert.Empty(t, r.Earnings)

	first := f.book(t, f.parent.ID, at(10), at(12))
	f.complete(t, first)
	next := at(10).Add(24 * time.Hour)
	second := f.book(t, f.parent.ID, next, next.Add(time.Hour))
	f.complete(t, second)
	settled := NewEarningService(settledPayouts{f.store.Earnings(), map[string]bool{first.ID: true}})

	r, err = settled.Report(ctx, f.nanny.ID)
	require.NoError(t, err)
	require.Len(t, r.Earnings, 2)
	assert.Equal(t, second.ID, r.Earnings[0].BookingID, "newest first")
	assert.Equal(t, 51, r.Earnings[0].NetAmountNis)
	assert.Equal(t, 153, r.Summary.TotalEarned)
	assert.Equal(t, 51, r.Summary.TotalPending)
	assert.Equal(t, 2, r.Summary.TotalJobs)

	r, err = f.earnings.Report(ctx, f.nanny2.ID)
	require.NoError(t, err)
	assert.Empty(t, r.Earnings)
}

func TestUserProfile(t *testing.T) {
	f := newFixture(t)
	svc := NewUserService(f.store.Users())

	u, err := svc.Profile(context.Background(), f.parent.ID)
	require.NoError(t, err)
	assert.Equal(t, "Parent One", u.FullName)

	_, err = svc.Profile(context.Background(), "missing")
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}
