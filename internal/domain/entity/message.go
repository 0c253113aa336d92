package entity

import "time"

const MaxMessageLength = 2000

// Message is immutable once created except for IsRead, which only flips to true.
type Message struct {
	ID         string       `json:"id"`
	BookingID  string       `json:"booking_id"`
	FromUserID string       `json:"from_user_id"`
	From       *UserSummary `json:"from,omitempty"`
	Text       string       `json:"text"`
	IsRead     bool         `json:"is_read"`
	CreatedAt  time.Time    `json:"created_at"`
}

// Conversation is a booking seen as a message thread.
type Conversation struct {
	Booking     Booking     `json:"booking"`
	Parent      UserSummary `json:"parent"`
	Nanny       UserSummary `json:"nanny"`
	LastMessage *Message    `json:"last_message,omitempty"`
	UnreadCount int         `json:"unread_count"`
}
