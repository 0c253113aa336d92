package event

import (
	"encoding/json"
	"fmt"
)

// Routing keys published on the events topic exchange.
const (
	RKBookingCreated       = "booking.created"
	RKBookingStatusChanged = "booking.status_changed"
	RKBookingCompleted     = "booking.completed"
	RKPaymentSucceeded     = "payment.succeeded"
)

type BookingCreated struct {
	BookingID      string `json:"booking_id"`
	ParentUserID   string `json:"parent_user_id"`
	NannyUserID    string `json:"nanny_user_id"`
	Start          int64  `json:"start"` // unix seconds
	End            int64  `json:"end"`
	TotalAmountNis int    `json:"total_amount_nis"`
}

type BookingStatusChanged struct {
	BookingID    string `json:"booking_id"`
	ParentUserID string `json:"parent_user_id"`
	NannyUserID  string `json:"nanny_user_id"`
	ActorUserID  string `json:"actor_user_id"`
	From         string `json:"from"`
	To           string `json:"to"`
}

type BookingCompleted struct {
	BookingID    string `json:"booking_id"`
	NannyUserID  string `json:"nanny_user_id"`
	AmountNis    int    `json:"amount_nis"`
	PlatformFee  int    `json:"platform_fee"`
	NetAmountNis int    `json:"net_amount_nis"`
}

type PaymentSucceeded struct {
	PaymentIntentID string `json:"payment_intent_id"`
	Bookings        int64  `json:"bookings"`
}

func Decode[T any](b []byte) (T, error) {
	var t T
	if err := json.Unmarshal(b, &t); err != nil {
		var zero T
		return zero, fmt.Errorf("decode payload failed: %w", err)
	}
	return t, nil
}
