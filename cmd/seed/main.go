package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"log/slog"

	"bookd/internal/config"
	"bookd/internal/storage"
	"bookd/libs/logging"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Dev helper: creates the schema and a couple of users with balances so
// order audit rows satisfy the user_id foreign key.

type seedUser struct {
	username string
	email    string
	balances map[string]string
}

var seedUsers = []seedUser{
	{
		username: "alice",
		email:    "alice@example.com",
		balances: map[string]string{"BTC": "10", "ETH": "100", "LTC": "500", "USD": "1000000"},
	},
	{
		username: "bob",
		email:    "bob@example.com",
		balances: map[string]string{"BTC": "5", "ETH": "50", "LTC": "250", "USD": "500000"},
	},
}

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.NewLogger(cfg.App.LogLevel, "bookd-seed", cfg.App.Env)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.DB.DSN)
	if err != nil {
		logger.Error("create pg pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := storage.New(pool).InitSchema(ctx); err != nil {
		logger.Error("init schema", "error", err)
		os.Exit(1)
	}

	for _, user := range seedUsers {
		if err := seedOne(ctx, pool, user, logger); err != nil {
			logger.Error("seed user", "username", user.username, "error", err)
			os.Exit(1)
		}
	}

	logger.Info("seed complete", "users", len(seedUsers))
}

func seedOne(ctx context.Context, pool *pgxpool.Pool, user seedUser, logger *slog.Logger) error {
	var userID string
	err := pool.QueryRow(ctx,
		`INSERT INTO users (username, email) VALUES ($1, $2)
		 ON CONFLICT (username) DO UPDATE SET email = EXCLUDED.email
		 RETURNING id`,
		user.username, user.email,
	).Scan(&userID)
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}

	for asset, amount := range user.balances {
		_, err := pool.Exec(ctx,
			`INSERT INTO user_balances (user_id, asset, available)
			 VALUES ($1, $2, $3)
			 ON CONFLICT (user_id, asset) DO UPDATE SET available = EXCLUDED.available, updated_at = NOW()`,
			userID, asset, amount,
		)
		if err != nil {
			return fmt.Errorf("upsert balance %s: %w", asset, err)
		}
	}

	logger.Info("seeded user", "username", user.username, "user_id", userID)
	return nil
}
