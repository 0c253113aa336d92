package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/golang-migrate/migrate/v4"
	pgmigrate "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/oksasatya/supernanny-backend/config"
	"github.com/oksasatya/supernanny-backend/internal/container"
	"github.com/oksasatya/supernanny-backend/internal/infrastructure/memory"
	"github.com/oksasatya/supernanny-backend/internal/infrastructure/payment"
	pginfra "github.com/oksasatya/supernanny-backend/internal/infrastructure/postgres"
	"github.com/oksasatya/supernanny-backend/internal/infrastructure/search"
	"github.com/oksasatya/supernanny-backend/internal/infrastructure/storage"
	"github.com/oksasatya/supernanny-backend/internal/interface/middleware"
	"github.com/oksasatya/supernanny-backend/internal/router"
	"github.com/oksasatya/supernanny-backend/internal/seed"
	"github.com/oksasatya/supernanny-backend/pkg/helpers"
	"github.com/oksasatya/supernanny-backend/pkg/validation"
)

func main() {
	_ = godotenv.Load() // load .env if present

	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName, cfg.Env, cfg.LogLevel)
	gin.SetMode(cfg.GinMode)
	validation.Init()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	var (
		repos container.Repositories
		demo  []seed.Account
	)
	if cfg.UseMemoryStore() {
		logger.Warn("using in-memory storage; data is lost on exit")
		repos = container.MemoryRepositories(memory.NewStore())
		accounts, err := seed.Demo(ctx, repos.Users, repos.Nannies)
		if err != nil {
			log.Fatalf("failed to seed memory store: %v", err)
		}
		demo = accounts
	} else {
		pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), cfg.DBMaxConns, cfg.DBMinConns, cfg.DBMaxConnLife)
		if err != nil {
			log.Fatalf("failed to connect to postgres: %v", err)
		}
		defer pool.Close()

		if err := runMigrations(cfg.PostgresDSN(), cfg.MigrationsDir, logger); err != nil {
			log.Fatalf("migration failed: %v", err)
		}
		repos = container.PostgresRepositories(pool)
	}

	var ad container.Adapters

	// Redis is optional: without it rate limits are off and realtime stays
	// within this instance.
	rdb := helpers.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err := helpers.PingRedis(ctx, rdb, 3*time.Second); err != nil {
		logger.WithError(err).Warn("redis unavailable")
		_ = rdb.Close()
	} else {
		defer func() { _ = rdb.Close() }()
		ad.Redis = rdb
	}

	if cfg.RabbitMQEnabled {
		pub, err := helpers.NewRabbitPublisher(cfg.RabbitMQURL, cfg.RabbitMQEventsExchange)
		if err != nil {
			log.Fatalf("failed to init rabbitmq publisher: %v", err)
		}
		defer pub.Close()
		ad.Events = pub
	}

	if cfg.ElasticsearchEnabled {
		es, err := helpers.NewESClient(cfg.ESAddrs(), cfg.ElasticsearchUser, cfg.ElasticsearchPass)
		if err != nil {
			log.Fatalf("failed to init elasticsearch: %v", err)
		}
		if err := helpers.PingES(ctx, es, 5*time.Second); err != nil {
			logger.WithError(err).Warn("elasticsearch unreachable; indexing will log failures")
		}
		ad.Indexer = search.NewNannyIndex(es, cfg.ESNanniesIndex)
	}

	if cfg.GCSBucket != "" {
		gcsClient, err := helpers.NewGCSClient(ctx, cfg.GCSCredentialsJSONPath)
		if err != nil {
			log.Fatalf("failed to init GCS client: %v", err)
		}
		defer func() { _ = gcsClient.Close() }()
		ad.Photos = storage.NewPhotoStore(gcsClient, cfg.GCSBucket)
	}

	if cfg.PaymentsEnabled {
		if cfg.StripeSecretKey == "" || cfg.StripeWebhookSecret == "" {
			log.Fatal("PAYMENTS_ENABLED requires STRIPE_SECRET_KEY and STRIPE_WEBHOOK_SECRET")
		}
		ad.Payments = payment.NewStripeGateway(cfg.StripeSecretKey, cfg.StripeWebhookSecret)
	}

	c := container.New(cfg, logger, repos, ad)
	for _, a := range demo {
		tok, _, err := c.JWT.GenerateAccessToken(a.User.ID, string(a.User.Role))
		if err != nil {
			continue
		}
		logger.WithFields(logrus.Fields{"role": a.User.Role, "email": a.User.Email, "user_id": a.User.ID}).Infof("demo token: %s", tok)
	}
	go func() {
		if err := c.Hub.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.WithError(err).Error("realtime broker stopped")
		}
	}()

	// Gin engine and global middleware
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RealIP())
	r.Use(middleware.RequestIDMiddleware())
	corsCfg := cors.Config{
		AllowOrigins:     cfg.CORSOrigins(),
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(corsCfg.AllowOrigins) == 0 {
		corsCfg.AllowOrigins = nil
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	}
	r.Use(cors.New(corsCfg))
	if cfg.HTTPLogEnabled {
		r.Use(gin.Logger())
	}

	reg := router.NewRegistry(r)
	router.InitModules(reg, c)
	reg.RegisterAll()

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		logger.Infof("server starting on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("listen: %s\n", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")
	stop()

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.Fatalf("server forced to shutdown: %v", err)
	}
	logger.Info("server exited properly")
}

func runMigrations(dsn string, migrationsDir string, logger *logrus.Logger) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	driver, err := pgmigrate.WithInstance(db, &pgmigrate.Config{})
	if err != nil {
		return err
	}
	m, err := migrate.NewWithDatabaseInstance(fmt.Sprintf("file://%s", migrationsDir), "postgres", driver)
	if err != nil {
		return err
	}
	logger.Info("running migrations...")
	err = m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		logger.Info("no migrations to run")
		return nil
	}
	return err
}
