// Package container builds the application graph once at startup. Nothing
// in it is global; main owns the Container and hands it to the router.
package container

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/supernanny-backend/config"
	"github.com/oksasatya/supernanny-backend/internal/application"
	"github.com/oksasatya/supernanny-backend/internal/domain/repository"
	"github.com/oksasatya/supernanny-backend/internal/infrastructure/memory"
	"github.com/oksasatya/supernanny-backend/internal/infrastructure/postgres"
	"github.com/oksasatya/supernanny-backend/internal/realtime"
	"github.com/oksasatya/supernanny-backend/pkg/helpers"
)

// Repositories is one storage backend.
type Repositories struct {
	Users    repository.UserRepository
	Nannies  repository.NannyRepository
	Bookings repository.BookingRepository
	Messages repository.MessageRepository
	Reviews  repository.ReviewRepository
	Earnings repository.EarningRepository
}

func PostgresRepositories(pool *pgxpool.Pool) Repositories {
	return Repositories{
		Users:    postgres.NewUserRepository(pool),
		Nannies:  postgres.NewNannyRepository(pool),
		Bookings: postgres.NewBookingRepository(pool),
		Messages: postgres.NewMessageRepository(pool),
		Reviews:  postgres.NewReviewRepository(pool),
		Earnings: postgres.NewEarningRepository(pool),
	}
}

func MemoryRepositories(s *memory.Store) Repositories {
	return Repositories{
		Users:    s.Users(),
		Nannies:  s.Nannies(),
		Bookings: s.Bookings(),
		Messages: s.Messages(),
		Reviews:  s.Reviews(),
		Earnings: s.Earnings(),
	}
}

// Adapters are the optional outbound integrations. Leave a field nil to
// run without it.
type Adapters struct {
	Redis    *redis.Client
	Events   application.EventPublisher
	Indexer  application.ProfileIndexer
	Photos   application.PhotoStore
	Payments application.PaymentGateway
}

type Container struct {
	Config *config.Config
	Logger *logrus.Logger
	Redis  *redis.Client
	JWT    *helpers.JWTManager

	Repos Repositories

	Bookings *application.BookingService
	Messages *application.MessageService
	Reviews  *application.ReviewService
	Nannies  *application.NannyService
	Earnings *application.EarningService
	Payments *application.PaymentService
	Users    *application.UserService

	Hub     *realtime.Hub
	Gateway *realtime.Gateway
}

func New(cfg *config.Config, logger *logrus.Logger, repos Repositories, ad Adapters) *Container {
	hub := realtime.NewHub(logger)
	if ad.Redis != nil {
		hub.WithBroker(realtime.NewRedisBroker(ad.Redis, cfg.RealtimeRedisChannel, logger))
	}

	bookings := application.NewBookingService(repos.Bookings, repos.Nannies, ad.Events, logger, cfg.PlatformFeePercent)

	messages := application.NewMessageService(repos.Messages, repos.Bookings, logger)
	messages.Notifier = hub

	reviews := application.NewReviewService(repos.Reviews, repos.Bookings, repos.Nannies, logger)
	reviews.Indexer = ad.Indexer

	nannies := application.NewNannyService(repos.Nannies, repos.Reviews, logger, cfg.SearchMaxLimit)
	nannies.Indexer = ad.Indexer
	nannies.Photos = ad.Photos

	return &Container{
		Config:   cfg,
		Logger:   logger,
		Redis:    ad.Redis,
		JWT:      helpers.NewJWTManager(cfg.JWTAccessSecret, cfg.AccessTTL),
		Repos:    repos,
		Bookings: bookings,
		Messages: messages,
		Reviews:  reviews,
		Nannies:  nannies,
		Earnings: application.NewEarningService(repos.Earnings),
		Payments: application.NewPaymentService(repos.Bookings, ad.Payments, ad.Events, logger, cfg.PaymentCurrency, cfg.StripePublishableKey),
		Users:    application.NewUserService(repos.Users),
		Hub:      hub,
		Gateway:  realtime.NewGateway(hub, messages, logger),
	}
}
