package templates

import (
	"strings"
	"time"

	"github.com/oksasatya/supernanny-backend/config"
)

const windowLayout = "Mon 02 Jan 2006, 15:04 MST"

// Option pattern
type Option func(*EmailData)

func WithBooking(id string) Option { return func(d *EmailData) { d.BookingID = id } }

func WithCounterpart(name string) Option {
	return func(d *EmailData) { d.CounterpartName = strings.TrimSpace(name) }
}

// WithWindow renders the booking window in loc, UTC when loc is nil.
func WithWindow(start, end time.Time, loc *time.Location) Option {
	if loc == nil {
		loc = time.UTC
	}
	return func(d *EmailData) {
		d.Start = start.In(loc).Format(windowLayout)
		d.End = end.In(loc).Format(windowLayout)
	}
}

func WithStatus(from, to string) Option {
	return func(d *EmailData) {
		d.PreviousStatus = from
		d.Status = to
	}
}

func WithAmounts(gross, fee, net int) Option {
	return func(d *EmailData) {
		d.AmountNis = gross
		d.PlatformFeeNis = fee
		d.NetAmountNis = net
	}
}

// NewBookingEmailData fills company fields from cfg; options run after, so
// BookingURL is derived once the booking id is known.
func NewBookingEmailData(cfg *config.Config, typ, name, recipient string, opts ...Option) map[string]any {
	d := EmailData{
		Name:           name,
		RecipientEmail: recipient,
		Type:           typ,
		CompanyName:    cfg.CompanyName,
		AppName:        cfg.AppName,
		AppURL:         cfg.AppURL,
	}
	for _, opt := range opts {
		opt(&d)
	}
	if d.BookingID != "" {
		d.BookingURL = strings.TrimRight(cfg.AppURL, "/") + "/bookings/" + d.BookingID
	}
	return ToMap(d)
}
