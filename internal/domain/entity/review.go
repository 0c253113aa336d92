package entity

import "time"

// Review belongs to exactly one completed booking; the reviewee is always the booking's nanny.
type Review struct {
	ID             string       `json:"id"`
	BookingID      string       `json:"booking_id"`
	ReviewerUserID string       `json:"reviewer_user_id"`
	RevieweeUserID string       `json:"reviewee_user_id"`
	Reviewer       *UserSummary `json:"reviewer,omitempty"`
	Rating         int          `json:"rating"`
	Comment        string       `json:"comment,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
}
