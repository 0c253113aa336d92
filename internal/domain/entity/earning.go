package entity

import (
	"math"
	"time"
)

// DefaultPlatformFeePercent applies when no fee is configured.
const DefaultPlatformFeePercent = 15

// Earning is the caregiver-side fee split, created once per completed booking.
// IsPaid tracks payout to the nanny, not the parent's payment.
type Earning struct {
	ID           string    `json:"id"`
	BookingID    string    `json:"booking_id"`
	NannyUserID  string    `json:"nanny_user_id"`
	AmountNis    int       `json:"amount_nis"`
	PlatformFee  int       `json:"platform_fee"`
	NetAmountNis int       `json:"net_amount_nis"`
	IsPaid       bool      `json:"is_paid"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewEarning splits the booking total into platform fee and net amount.
func NewEarning(b *Booking, feePercent int) Earning {
	fee := int(math.Round(float64(b.TotalAmountNis) * float64(feePercent) / 100))
	return Earning{
		BookingID:    b.ID,
		NannyUserID:  b.NannyUserID,
		AmountNis:    b.TotalAmountNis,
		PlatformFee:  fee,
		NetAmountNis: b.TotalAmountNis - fee,
	}
}

type EarningsSummary struct {
	TotalEarned  int `json:"total_earned"`
	TotalPending int `json:"total_pending"`
	TotalJobs    int `json:"total_jobs"`
}

// Summarize aggregates earnings without side effects.
func Summarize(earnings []Earning) EarningsSummary {
	var s EarningsSummary
	for _, e := range earnings {
		s.TotalEarned += e.NetAmountNis
		if !e.IsPaid {
			s.TotalPending += e.NetAmountNis
		}
	}
	s.TotalJobs = len(earnings)
	return s
}
