package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/oksasatya/supernanny-backend/internal/domain/apperror"
)

func TestBookingStatus_Transitions(t *testing.T) {
	allowed := map[BookingStatus][]BookingStatus{
		StatusRequested:  {StatusAccepted, StatusDeclined},
		StatusAccepted:   {StatusInProgress, StatusCancelled, StatusCompleted},
		StatusInProgress: {StatusCompleted, StatusCancelled},
	}
	all := []BookingStatus{StatusRequested, StatusAccepted, StatusDeclined, StatusInProgress, StatusCompleted, StatusCancelled}
	for _, from := range all {
		for _, to := range all {
			want := false
			for _, a := range allowed[from] {
				if a == to {
					want = true
				}
			}
			assert.Equal(t, want, from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
}

func TestBookingStatus_TerminalHasNoExit(t *testing.T) {
	for _, s := range []BookingStatus{StatusDeclined, StatusCancelled, StatusCompleted} {
		assert.True(t, s.IsTerminal())
		assert.False(t, s.IsActive())
		assert.False(t, s.CanTransitionTo(StatusAccepted))
	}
	assert.False(t, BookingStatus("PAUSED").Valid())
	assert.False(t, StatusInProgress.Settable())
	assert.False(t, StatusRequested.Settable())
}

func TestTotalAmount(t *testing.T) {
	start := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, 120, TotalAmount(start, start.Add(2*time.Hour), 60))
	assert.Equal(t, 90, TotalAmount(start, start.Add(90*time.Minute), 60))
	// 50 minutes at 55/h is 45.83
	assert.Equal(t, 46, TotalAmount(start, start.Add(50*time.Minute), 55))
}

func TestAuthorizeTransition(t *testing.T) {
	b := &Booking{ParentUserID: "p", NannyUserID: "n"}
	tests := []struct {
		actor  string
		target BookingStatus
		kind   apperror.Kind
		ok     bool
	}{
		{"n", StatusAccepted, 0, true},
		{"p", StatusAccepted, apperror.KindForbidden, false},
		{"n", StatusDeclined, 0, true},
		{"p", StatusDeclined, apperror.KindForbidden, false},
		{"n", StatusCompleted, 0, true},
		{"p", StatusCompleted, apperror.KindForbidden, false},
		{"p", StatusCancelled, 0, true},
		{"n", StatusCancelled, 0, true},
		{"x", StatusCancelled, apperror.KindForbidden, false},
		{"n", StatusInProgress, apperror.KindValidation, false},
	}
	for _, tt := range tests {
		err := AuthorizeTransition(b, tt.actor, tt.target)
		if tt.ok {
			assert.NoError(t, err, "%s -> %s", tt.actor, tt.target)
			continue
		}
		assert.Equal(t, tt.kind, apperror.KindOf(err), "%s -> %s", tt.actor, tt.target)
	}
}

func TestBooking_Overlaps(t *testing.T) {
	base := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	b := &Booking{StartTime: base, EndTime: base.Add(2 * time.Hour)}
	assert.True(t, b.Overlaps(base.Add(time.Hour), base.Add(3*time.Hour)))
	assert.True(t, b.Overlaps(base.Add(-time.Hour), base.Add(time.Minute)))
	assert.False(t, b.Overlaps(base.Add(2*time.Hour), base.Add(3*time.Hour)), "touching end is free")
	assert.False(t, b.Overlaps(base.Add(-time.Hour), base), "touching start is free")
}

func TestBooking_Counterpart(t *testing.T) {
	b := &Booking{ParentUserID: "p", NannyUserID: "n"}
	assert.Equal(t, "n", b.Counterpart("p"))
	assert.Equal(t, "p", b.Counterpart("n"))
	assert.True(t, b.IsParty("p"))
	assert.False(t, b.IsParty(""))
}
