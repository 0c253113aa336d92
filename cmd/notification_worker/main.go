package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/oksasatya/supernanny-backend/config"
	pginfra "github.com/oksasatya/supernanny-backend/internal/infrastructure/postgres"
	"github.com/oksasatya/supernanny-backend/internal/notification"
	"github.com/oksasatya/supernanny-backend/pkg/helpers"
	"github.com/oksasatya/supernanny-backend/pkg/mailer"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-notifier", cfg.Env, cfg.LogLevel)

	if !cfg.MailSendEnabled {
		logger.Warn("MAIL_SEND_ENABLED=false; notification worker disabled (no real emails will be sent)")
		return
	}
	if cfg.RabbitMQURL == "" || cfg.RabbitMQNotifyQueue == "" {
		log.Fatal("RabbitMQ not configured")
	}
	if cfg.MailgunDomain == "" || cfg.MailgunAPIKey == "" || cfg.MailgunSender == "" {
		log.Fatal("Mailgun not configured")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), cfg.DBMaxConns, cfg.DBMinConns, cfg.DBMaxConnLife)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	consumer, err := helpers.NewRabbitConsumer(cfg.RabbitMQURL, cfg.RabbitMQEventsExchange, cfg.RabbitMQNotifyQueue, notification.Keys, 16)
	if err != nil {
		log.Fatalf("amqp consumer: %v", err)
	}
	defer consumer.Close()

	msgs, err := consumer.Consume("")
	if err != nil {
		log.Fatalf("consume: %v", err)
	}

	mg := mailer.NewMailgun(cfg.MailgunDomain, cfg.MailgunAPIKey, cfg.MailgunSender, "booking-notification")
	n := notification.NewNotifier(pginfra.NewUserRepository(pool), mg, cfg, logger)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for msg := range msgs {
			err := n.Handle(ctx, msg.RoutingKey, msg.Body)
			switch {
			case err == nil:
				_ = msg.Ack(false)
			case errors.Is(err, notification.ErrPermanent):
				logger.WithError(err).WithField("routing_key", msg.RoutingKey).Error("dropping notification")
				_ = msg.Nack(false, false)
			default:
				logger.WithError(err).WithField("routing_key", msg.RoutingKey).Warn("notification failed; requeueing")
				_ = msg.Nack(false, true)
			}
		}
	}()

	logger.Infof("notification worker listening on queue=%s", cfg.RabbitMQNotifyQueue)
	<-ctx.Done()
	logger.Info("shutting down...")
	consumer.Close()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
	}
}
