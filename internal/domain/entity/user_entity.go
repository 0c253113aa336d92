package entity

import (
	"time"
)

// Role is fixed at account creation; only an admin override changes it.
type Role string

const (
	RoleParent Role = "PARENT"
	RoleNanny  Role = "NANNY"
	RoleAdmin  Role = "ADMIN"
)

func (r Role) Valid() bool {
	switch r {
	case RoleParent, RoleNanny, RoleAdmin:
		return true
	}
	return false
}

// User is the identity record shared by parents, nannies and admins.
// Passwords are stored as bcrypt hashes in Password field
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Password  string    `json:"-"`
	FullName  string    `json:"full_name"`
	Phone     string    `json:"phone,omitempty"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserSummary is the public projection embedded in bookings, reviews and messages.
type UserSummary struct {
	ID        string `json:"id"`
	FullName  string `json:"full_name"`
	AvatarURL string `json:"avatar_url,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, FullName: u.FullName, AvatarURL: u.AvatarURL, Phone: u.Phone}
}
