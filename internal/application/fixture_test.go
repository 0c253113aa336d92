package application

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/supernanny-backend/internal/domain/entity"
	"github.com/oksasatya/supernanny-backend/internal/infrastructure/memory"
)

type published struct {
	key  string
	body any
}

type eventRecorder struct {
	mu     sync.Mutex
	events []published
}

func (r *eventRecorder) PublishJSON(_ context.Context, key string, body any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, published{key, body})
	return nil
}

func (r *eventRecorder) keys() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.key)
	}
	return out
}

type notifierRecorder struct {
	mu    sync.Mutex
	calls []*entity.Message
}

func (n *notifierRecorder) MessageCreated(_ context.Context, _ *entity.Booking, m *entity.Message) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, m)
}

type indexRecorder struct {
	mu      sync.Mutex
	indexed []*entity.NannyProfile
}

func (x *indexRecorder) IndexProfile(_ context.Context, p *entity.NannyProfile) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.indexed = append(x.indexed, p)
	return nil
}

func (x *indexRecorder) SearchProfiles(_ context.Context, q string, size int) ([]map[string]any, error) {
	return []map[string]any{{"full_name": q, "size": size}}, nil
}

type photoRecorder struct {
	object, contentType string
}

func (p *photoRecorder) Upload(_ context.Context, objectPath, contentType string, r io.Reader) (string, error) {
	_, _ = io.Copy(io.Discard, r)
	p.object, p.contentType = objectPath, contentType
	return "https://storage.googleapis.com/photos/" + objectPath, nil
}

type fixture struct {
	store    *memory.Store
	events   *eventRecorder
	notifier *notifierRecorder
	indexer  *indexRecorder

	bookings *BookingService
	messages *MessageService
	reviews  *ReviewService
	nannies  *NannyService
	earnings *EarningService

	parent, parent2, nanny, nanny2, stranger, admin *entity.User
	profile                                         *entity.NannyProfile
}

var jan1 = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func at(hour int) time.Time { return jan1.Add(time.Duration(hour) * time.Hour) }

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	logger := quietLogger()

	f := &fixture{
		store:    store,
		events:   &eventRecorder{},
		notifier: &notifierRecorder{},
		indexer:  &indexRecorder{},
	}
	f.bookings = NewBookingService(store.Bookings(), store.Nannies(), f.events, logger, 15)
	f.messages = NewMessageService(store.Messages(), store.Bookings(), logger)
	f.messages.Notifier = f.notifier
	f.reviews = NewReviewService(store.Reviews(), store.Bookings(), store.Nannies(), logger)
	f.reviews.Indexer = f.indexer
	f.nannies = NewNannyService(store.Nannies(), store.Reviews(), logger, 50)
	f.earnings = NewEarningService(store.Earnings())

	mk := func(name string, role entity.Role) *entity.User {
		u := &entity.User{Email: name + "@example.test", FullName: name, Role: role}
		require.NoError(t, store.Users().Create(ctx, u))
		return u
	}
	f.parent = mk("Parent One", entity.RoleParent)
	f.parent2 = mk("Parent Two", entity.RoleParent)
	f.nanny = mk("Nanny One", entity.RoleNanny)
	f.nanny2 = mk("Nanny Two", entity.RoleNanny)
	f.stranger = mk("Stranger", entity.RoleParent)
	f.admin = mk("Admin", entity.RoleAdmin)

	lat, lng := 32.0853, 34.7818
	f.profile = &entity.NannyProfile{
		UserID: f.nanny.ID, HourlyRateNis: 60, YearsExperience: 5, City: "Tel Aviv",
		Languages: []string{"Hebrew", "English"}, Skills: []string{"infants"},
		Latitude: &lat, Longitude: &lng, IsAvailable: true,
	}
	require.NoError(t, store.Nannies().Create(ctx, f.profile))
	return f
}

// book creates a REQUESTED booking of f.nanny by parent for [start, end).
func (f *fixture) book(t *testing.T, parentID string, start, end time.Time) *entity.Booking {
	t.Helper()
	b, err := f.bookings.Create(context.Background(), parentID, CreateBookingInput{
		NannyUserID: f.nanny.ID, StartTime: start, EndTime: end,
	})
	require.NoError(t, err)
	return b
}

// complete drives a booking to COMPLETED through the nanny.
func (f *fixture) complete(t *testing.T, b *entity.Booking) {
	t.Helper()
	ctx := context.Background()
	_, err := f.bookings.UpdateStatus(ctx, f.nanny.ID, b.ID, entity.StatusAccepted)
	require.NoError(t, err)
	_, err = f.bookings.UpdateStatus(ctx, f.nanny.ID, b.ID, entity.StatusCompleted)
	require.NoError(t, err)
}
