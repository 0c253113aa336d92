package entity

import (
	"math"
	"regexp"
	"slices"
	"time"
)

// NannyProfile is one-to-one with a NANNY user. Rating, ReviewsCount,
// CompletedJobs and TotalEarnings are derived and only written by the
// review and completion flows.
type NannyProfile struct {
	ID              string             `json:"id"`
	UserID          string             `json:"user_id"`
	FullName        string             `json:"full_name"`
	AvatarURL       string             `json:"avatar_url,omitempty"`
	Headline        string             `json:"headline"`
	Bio             string             `json:"bio"`
	HourlyRateNis   int                `json:"hourly_rate_nis"`
	YearsExperience int                `json:"years_experience"`
	Languages       []string           `json:"languages"`
	Skills          []string           `json:"skills"`
	City            string             `json:"city"`
	Address         string             `json:"address,omitempty"`
	Latitude        *float64           `json:"latitude,omitempty"`
	Longitude       *float64           `json:"longitude,omitempty"`
	IsAvailable     bool               `json:"is_available"`
	Rating          float64            `json:"rating"`
	ReviewsCount    int                `json:"reviews_count"`
	CompletedJobs   int                `json:"completed_jobs"`
	TotalEarnings   int                `json:"total_earnings"`
	Availability    []AvailabilitySlot `json:"availability"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

// HasCoordinates reports whether distance can be computed for the profile.
func (p *NannyProfile) HasCoordinates() bool {
	return p.Latitude != nil && p.Longitude != nil
}

func (p *NannyProfile) SpeaksLanguage(lang string) bool { return slices.Contains(p.Languages, lang) }
func (p *NannyProfile) HasSkill(skill string) bool      { return slices.Contains(p.Skills, skill) }

// AvailabilitySlot is one of seven weekly slots keyed by day of week (0 = Sunday).
type AvailabilitySlot struct {
	DayOfWeek   int    `json:"day_of_week"`
	FromTime    string `json:"from_time"`
	ToTime      string `json:"to_time"`
	IsAvailable bool   `json:"is_available"`
}

var timeOfDay = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// ValidTimeOfDay checks the HH:MM 24h format used by availability slots.
func ValidTimeOfDay(s string) bool { return timeOfDay.MatchString(s) }

// ProfileUpdate carries the mutable profile attributes; nil fields are left untouched.
type ProfileUpdate struct {
	Headline        *string
	Bio             *string
	HourlyRateNis   *int
	YearsExperience *int
	Languages       []string
	Skills          []string
	City            *string
	Address         *string
	Latitude        *float64
	Longitude       *float64
	IsAvailable     *bool
	AvatarURL       *string
}

// Apply copies the set fields of u onto p.
func (u ProfileUpdate) Apply(p *NannyProfile) {
	if u.Headline != nil {
		p.Headline = *u.Headline
	}
	if u.Bio != nil {
		p.Bio = *u.Bio
	}
	if u.HourlyRateNis != nil {
		p.HourlyRateNis = *u.HourlyRateNis
	}
	if u.YearsExperience != nil {
		p.YearsExperience = *u.YearsExperience
	}
	if u.Languages != nil {
		p.Languages = u.Languages
	}
	if u.Skills != nil {
		p.Skills = u.Skills
	}
	if u.City != nil {
		p.City = *u.City
	}
	if u.Address != nil {
		p.Address = *u.Address
	}
	if u.Latitude != nil {
		p.Latitude = u.Latitude
	}
	if u.Longitude != nil {
		p.Longitude = u.Longitude
	}
	if u.IsAvailable != nil {
		p.IsAvailable = *u.IsAvailable
	}
	if u.AvatarURL != nil {
		p.AvatarURL = *u.AvatarURL
	}
}

// RoundRating averages sum over count and rounds to one decimal.
// Zero reviews yield a zero rating.
func RoundRating(sum, count int) float64 {
	if count <= 0 {
		return 0
	}
	return math.Round(float64(sum)/float64(count)*10) / 10
}
