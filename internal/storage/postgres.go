package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrDuplicate = errors.New("order already recorded")

const insertTimeout = 3 * time.Second

type Store struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// InsertOrder appends the audit record for an order the shard has already
// accepted. The identifier is the shard's order id; a duplicate insert is
// rejected by the primary key and reported as ErrDuplicate, never retried.
func (s *Store) InsertOrder(ctx context.Context, record OrderRecord) error {
	ctx, cancel := context.WithTimeout(ctx, insertTimeout)
	defer cancel()

	var price *string
	if record.Price != nil {
		v := record.Price.String()
		price = &v
	}
	var visible, hidden *string
	if record.VisibleQuantity != nil {
		v := record.VisibleQuantity.String()
		visible = &v
	}
	if record.HiddenQuantity != nil {
		v := record.HiddenQuantity.String()
		hidden = &v
	}

	tag, err := s.pool.Exec(ctx, `
		INSERT INTO orders (id, symbol, side, order_type, quantity, price, time_in_force, status, user_id, remaining_quantity, visible_quantity, hidden_quantity)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO NOTHING
	`, record.ID, record.Symbol, record.Side, record.Type, record.Quantity.String(), price,
		record.TimeInForce, record.Status, record.UserID, record.RemainingQuantity.String(), visible, hidden)
	if err != nil {
		return fmt.Errorf("insert order record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrDuplicate
	}
	return nil
}

// InitSchema creates the tables this service touches. Best-effort at
// startup; in shared environments the schema is managed out of band.
func (s *Store) InitSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			username VARCHAR(50) UNIQUE NOT NULL,
			email VARCHAR(100) UNIQUE NOT NULL,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			is_active BOOLEAN DEFAULT TRUE
		)`,
		`CREATE TABLE IF NOT EXISTS user_balances (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			user_id UUID NOT NULL REFERENCES users(id),
			asset VARCHAR(10) NOT NULL,
			available NUMERIC NOT NULL DEFAULT 0,
			locked NUMERIC NOT NULL DEFAULT 0,
			updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			UNIQUE(user_id, asset)
		)`,
		`CREATE TABLE IF NOT EXISTS orders (
			id UUID PRIMARY KEY,
			symbol VARCHAR(20) NOT NULL,
			side VARCHAR(4) NOT NULL,
			order_type VARCHAR(20) NOT NULL,
			quantity NUMERIC NOT NULL,
			price NUMERIC,
			time_in_force VARCHAR(3) NOT NULL,
			status VARCHAR(20) NOT NULL DEFAULT 'PENDING',
			user_id UUID NOT NULL REFERENCES users(id),
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			filled_quantity NUMERIC NOT NULL DEFAULT 0,
			remaining_quantity NUMERIC NOT NULL,
			visible_quantity NUMERIC,
			hidden_quantity NUMERIC
		)`,
		`CREATE TABLE IF NOT EXISTS trades (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			symbol VARCHAR(20) NOT NULL,
			price NUMERIC NOT NULL,
			quantity NUMERIC NOT NULL,
			side VARCHAR(4) NOT NULL,
			taker_order_id UUID NOT NULL,
			maker_order_id UUID NOT NULL,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_user_id ON orders(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_symbol ON orders(symbol)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status)`,
		`CREATE INDEX IF NOT EXISTS idx_trades_symbol ON trades(symbol)`,
		`CREATE INDEX IF NOT EXISTS idx_trades_created_at ON trades(created_at)`,
	}

	for _, stmt := range statements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}
