// Package notification turns booking lifecycle events into e-mails for the
// party that did not cause them.
package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/supernanny-backend/config"
	"github.com/oksasatya/supernanny-backend/internal/domain/entity"
	"github.com/oksasatya/supernanny-backend/internal/domain/event"
	"github.com/oksasatya/supernanny-backend/internal/domain/repository"
	"github.com/oksasatya/supernanny-backend/pkg/helpers"
	"github.com/oksasatya/supernanny-backend/pkg/mailer"
	mailtpl "github.com/oksasatya/supernanny-backend/pkg/mailer/templates"
)

// Keys lists the routing keys the worker binds.
var Keys = []string{event.RKBookingCreated, event.RKBookingStatusChanged, event.RKBookingCompleted}

// ErrPermanent marks deliveries that will never succeed and must not be requeued.
var ErrPermanent = errors.New("permanent failure")

type Sender interface {
	Send(ctx context.Context, to, subject, text, html string) error
}

type Notifier struct {
	Users    repository.UserRepository
	Mail     Sender
	Config   *config.Config
	Logger   *logrus.Logger
	Location *time.Location
}

func NewNotifier(users repository.UserRepository, mail Sender, cfg *config.Config, logger *logrus.Logger) *Notifier {
	return &Notifier{Users: users, Mail: mail, Config: cfg, Logger: logger, Location: time.UTC}
}

// Handle dispatches one delivery by routing key. Unknown keys are ignored.
func (n *Notifier) Handle(ctx context.Context, key string, body []byte) error {
	switch key {
	case event.RKBookingCreated:
		ev, err := event.Decode[event.BookingCreated](body)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrPermanent, err)
		}
		return n.bookingCreated(ctx, ev)
	case event.RKBookingStatusChanged:
		ev, err := event.Decode[event.BookingStatusChanged](body)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrPermanent, err)
		}
		return n.statusChanged(ctx, ev)
	case event.RKBookingCompleted:
		ev, err := event.Decode[event.BookingCompleted](body)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrPermanent, err)
		}
		return n.completed(ctx, ev)
	default:
		return nil
	}
}

func (n *Notifier) bookingCreated(ctx context.Context, ev event.BookingCreated) error {
	nanny, parent, err := n.pair(ctx, ev.NannyUserID, ev.ParentUserID)
	if err != nil {
		return err
	}
	data := mailtpl.NewBookingEmailData(n.Config, mailtpl.BookingRequested, nanny.FullName, nanny.Email,
		mailtpl.WithBooking(ev.BookingID),
		mailtpl.WithCounterpart(parent.FullName),
		mailtpl.WithWindow(time.Unix(ev.Start, 0), time.Unix(ev.End, 0), n.Location),
		mailtpl.WithAmounts(ev.TotalAmountNis, 0, 0),
	)
	return n.send(ctx, mailer.EmailJob{To: nanny.Email, Template: mailtpl.BookingRequested, Data: data})
}

// statusChanged mails the party that did not act. Completion has its own
// message for the nanny, so only the parent hears about it here.
func (n *Notifier) statusChanged(ctx context.Context, ev event.BookingStatusChanged) error {
	recipientID := ev.ParentUserID
	if ev.ActorUserID == ev.ParentUserID {
		recipientID = ev.NannyUserID
	}
	if ev.To == string(entity.StatusCompleted) && recipientID == ev.NannyUserID {
		return nil
	}
	recipient, actor, err := n.pair(ctx, recipientID, ev.ActorUserID)
	if err != nil {
		return err
	}
	data := mailtpl.NewBookingEmailData(n.Config, mailtpl.BookingStatus, recipient.FullName, recipient.Email,
		mailtpl.WithBooking(ev.BookingID),
		mailtpl.WithCounterpart(actor.FullName),
		mailtpl.WithStatus(ev.From, ev.To),
	)
	return n.send(ctx, mailer.EmailJob{To: recipient.Email, Template: mailtpl.BookingStatus, Data: data})
}

func (n *Notifier) completed(ctx context.Context, ev event.BookingCompleted) error {
	nanny, err := n.user(ctx, ev.NannyUserID)
	if err != nil {
		return err
	}
	data := mailtpl.NewBookingEmailData(n.Config, mailtpl.BookingCompleted, nanny.FullName, nanny.Email,
		mailtpl.WithBooking(ev.BookingID),
		mailtpl.WithAmounts(ev.AmountNis, ev.PlatformFee, ev.NetAmountNis),
	)
	return n.send(ctx, mailer.EmailJob{To: nanny.Email, Template: mailtpl.BookingCompleted, Data: data})
}

func (n *Notifier) pair(ctx context.Context, recipientID, otherID string) (*entity.User, *entity.User, error) {
	recipient, err := n.user(ctx, recipientID)
	if err != nil {
		return nil, nil, err
	}
	other, err := n.user(ctx, otherID)
	if err != nil {
		return nil, nil, err
	}
	return recipient, other, nil
}

func (n *Notifier) user(ctx context.Context, id string) (*entity.User, error) {
	u, err := n.Users.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: user %s not found", ErrPermanent, id)
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (n *Notifier) send(ctx context.Context, job mailer.EmailJob) error {
	subject, text, html, err := mailtpl.Render(job.Template, job.Data)
	if err != nil {
		return fmt.Errorf("%w: render %s: %v", ErrPermanent, job.Template, err)
	}
	c, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := n.Mail.Send(c, job.To, subject, text, html); err != nil {
		return err
	}
	if n.Logger != nil {
		helpers.LogInfo(n.Logger, "notification sent", logrus.Fields{"template": job.Template, "to": job.To})
	}
	return nil
}
