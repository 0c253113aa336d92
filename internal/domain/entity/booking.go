package entity

import (
	"math"
	"time"

	"github.com/oksasatya/supernanny-backend/internal/domain/apperror"
)

type BookingStatus string

const (
	StatusRequested  BookingStatus = "REQUESTED"
	StatusAccepted   BookingStatus = "ACCEPTED"
	StatusDeclined   BookingStatus = "DECLINED"
	StatusInProgress BookingStatus = "IN_PROGRESS"
	StatusCompleted  BookingStatus = "COMPLETED"
	StatusCancelled  BookingStatus = "CANCELLED"
)

// ActiveStatuses block overlapping requests for the same nanny.
var ActiveStatuses = []BookingStatus{StatusRequested, StatusAccepted, StatusInProgress}

// transitions lists the reachable statuses per state. IN_PROGRESS may be
// skipped: an ACCEPTED booking can be completed directly.
var transitions = map[BookingStatus][]BookingStatus{
	StatusRequested:  {StatusAccepted, StatusDeclined},
	StatusAccepted:   {StatusInProgress, StatusCancelled, StatusCompleted},
	StatusInProgress: {StatusCompleted, StatusCancelled},
}

func (s BookingStatus) Valid() bool {
	switch s {
	case StatusRequested, StatusAccepted, StatusDeclined, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

func (s BookingStatus) IsActive() bool {
	return s == StatusRequested || s == StatusAccepted || s == StatusInProgress
}

func (s BookingStatus) IsTerminal() bool {
	return s == StatusDeclined || s == StatusCancelled || s == StatusCompleted
}

// CanTransitionTo reports whether next is reachable from s in one step.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	for _, t := range transitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// Settable reports whether the public status-update operation accepts s.
func (s BookingStatus) Settable() bool {
	switch s {
	case StatusAccepted, StatusDeclined, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

// Booking is a contracted interval between one parent and one nanny.
// HourlyRateNis is a snapshot taken at creation.
type Booking struct {
	ID              string        `json:"id"`
	ParentUserID    string        `json:"parent_user_id"`
	NannyUserID     string        `json:"nanny_user_id"`
	StartTime       time.Time     `json:"start_time"`
	EndTime         time.Time     `json:"end_time"`
	HourlyRateNis   int           `json:"hourly_rate_nis"`
	TotalAmountNis  int           `json:"total_amount_nis"`
	Status          BookingStatus `json:"status"`
	IsPaid          bool          `json:"is_paid"`
	PaymentIntentID *string       `json:"payment_intent_id,omitempty"`
	Notes           string        `json:"notes,omitempty"`
	ChildrenCount   int           `json:"children_count"`
	ChildrenAges    []string      `json:"children_ages,omitempty"`
	Address         string        `json:"address,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// IsParty reports whether userID is the booking's parent or nanny.
func (b *Booking) IsParty(userID string) bool {
	return userID != "" && (b.ParentUserID == userID || b.NannyUserID == userID)
}

// Counterpart returns the other party of the booking.
func (b *Booking) Counterpart(userID string) string {
	if b.ParentUserID == userID {
		return b.NannyUserID
	}
	return b.ParentUserID
}

// Overlaps uses half-open [start, end) semantics.
func (b *Booking) Overlaps(start, end time.Time) bool {
	return b.StartTime.Before(end) && b.EndTime.After(start)
}

// TotalAmount prices an interval at the hourly rate, rounded to whole NIS.
func TotalAmount(start, end time.Time, hourlyRateNis int) int {
	hours := float64(end.Sub(start).Milliseconds()) / 3_600_000
	return int(math.Round(hours * float64(hourlyRateNis)))
}

// AuthorizeTransition checks that actorID may move b to target.
func AuthorizeTransition(b *Booking, actorID string, target BookingStatus) error {
	switch target {
	case StatusAccepted, StatusDeclined:
		if b.NannyUserID != actorID {
			return apperror.Forbidden("only the nanny can accept or decline")
		}
	case StatusCompleted:
		if b.NannyUserID != actorID {
			return apperror.Forbidden("only the nanny can mark completed")
		}
	case StatusCancelled:
		if !b.IsParty(actorID) {
			return apperror.Forbidden("forbidden")
		}
	default:
		return apperror.Validation("status cannot be set directly")
	}
	return nil
}

// BookingDetail is a booking with its parties, review and earning.
type BookingDetail struct {
	Booking
	Parent       UserSummary `json:"parent"`
	Nanny        UserSummary `json:"nanny"`
	Review       *Review     `json:"review,omitempty"`
	Earning      *Earning    `json:"earning,omitempty"`
	MessageCount int         `json:"message_count"`
}
