package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"

	"github.com/oksasatya/supernanny-backend/config"
	pginfra "github.com/oksasatya/supernanny-backend/internal/infrastructure/postgres"
	"github.com/oksasatya/supernanny-backend/internal/seed"
	"github.com/oksasatya/supernanny-backend/pkg/helpers"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), cfg.DBMaxConns, cfg.DBMinConns, cfg.DBMaxConnLife)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	accounts, err := seed.Demo(ctx, pginfra.NewUserRepository(pool), pginfra.NewNannyRepository(pool))
	if err != nil {
		log.Fatalf("failed to seed: %v", err)
	}

	jwt := helpers.NewJWTManager(cfg.JWTAccessSecret, cfg.AccessTTL)
	for _, a := range accounts {
		tok, exp, err := jwt.GenerateAccessToken(a.User.ID, string(a.User.Role))
		if err != nil {
			log.Fatalf("failed to issue token: %v", err)
		}
		fmt.Printf("%-6s id=%s email=%s password=%s\n", a.User.Role, a.User.ID, a.User.Email, seed.DemoPassword)
		fmt.Printf("       token (expires %s): %s\n", exp.Format(time.RFC3339), tok)
	}
}
