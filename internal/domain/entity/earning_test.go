package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewEarning(t *testing.T) {
	e := NewEarning(&Booking{ID: "b1", NannyUserID: "n", TotalAmountNis: 120}, DefaultPlatformFeePercent)
	assert.Equal(t, 120, e.AmountNis)
	assert.Equal(t, 18, e.PlatformFee)
	assert.Equal(t, 102, e.NetAmountNis)
	assert.Equal(t, "b1", e.BookingID)
	assert.Equal(t, "n", e.NannyUserID)
	assert.Equal(t, e.AmountNis, e.PlatformFee+e.NetAmountNis)
}

func TestNewEarning_RoundsFee(t *testing.T) {
	e := NewEarning(&Booking{TotalAmountNis: 95}, 15) // 14.25
	assert.Equal(t, 14, e.PlatformFee)
	assert.Equal(t, 81, e.NetAmountNis)
}

func TestSummarize(t *testing.T) {
	s := Summarize([]Earning{
		{NetAmountNis: 102, IsPaid: true},
		{NetAmountNis: 51},
		{NetAmountNis: 34},
	})
	assert.Equal(t, EarningsSummary{TotalEarned: 187, TotalPending: 85, TotalJobs: 3}, s)
	assert.Equal(t, EarningsSummary{}, Summarize(nil))
}
