package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"log/slog"

	"github.com/redis/go-redis/v9"
)

// Namespace keys and TTLs. An entry older than its TTL is simply absent;
// nothing invalidates these proactively on shard mutation.
const (
	orderBookTTL   = 60 * time.Second
	priceLevelsTTL = 30 * time.Second
	tradesTTL      = 300 * time.Second
	marketDataTTL  = 60 * time.Second
	volumeStatsTTL = 300 * time.Second

	opTimeout = 2 * time.Second
)

// Client is the slice of go-redis used by the cache layer. *redis.Client
// satisfies it; tests supply a fake.
type Client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	HSet(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	HGetAll(ctx context.Context, key string) *redis.MapStringStringCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Keys(ctx context.Context, pattern string) *redis.StringSliceCmd
}

type Cache struct {
	client Client
	logger *slog.Logger
}

func New(client Client, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{client: client, logger: logger}
}

func orderBookKey(symbol string) string { return "orderbook:" + symbol }
func priceLevelsKey(symbol, side string) string {
	return fmt.Sprintf("price_levels:%s:%s", symbol, side)
}
func tradesKey(symbol string) string      { return "trades:" + symbol }
func marketDataKey(symbol string) string  { return "market_data:" + symbol }
func volumeStatsKey(symbol string) string { return "volume_stats:" + symbol }

// GetOrderBook returns the cached summary, or ok=false on miss. Redis
// errors and undecodable payloads degrade to a miss; the caller recomputes
// from the shard.
func (c *Cache) GetOrderBook(ctx context.Context, symbol string) (*OrderBookSummary, bool) {
	var summary OrderBookSummary
	if !c.getJSON(ctx, orderBookKey(symbol), &summary) {
		return nil, false
	}
	return &summary, true
}

func (c *Cache) SetOrderBook(ctx context.Context, symbol string, summary *OrderBookSummary) error {
	return c.setJSON(ctx, orderBookKey(symbol), summary, orderBookTTL)
}

func (c *Cache) GetPriceLevels(ctx context.Context, symbol, side string) ([]PriceLevelView, bool) {
	var levels []PriceLevelView
	if !c.getJSON(ctx, priceLevelsKey(symbol, side), &levels) {
		return nil, false
	}
	return levels, true
}

func (c *Cache) SetPriceLevels(ctx context.Context, symbol, side string, levels []PriceLevelView) error {
	return c.setJSON(ctx, priceLevelsKey(symbol, side), levels, priceLevelsTTL)
}

func (c *Cache) GetRecentTrades(ctx context.Context, symbol string) ([]TradeView, bool) {
	var trades []TradeView
	if !c.getJSON(ctx, tradesKey(symbol), &trades) {
		return nil, false
	}
	return trades, true
}

func (c *Cache) SetRecentTrades(ctx context.Context, symbol string, trades []TradeView) error {
	return c.setJSON(ctx, tradesKey(symbol), trades, tradesTTL)
}

func (c *Cache) GetMarketData(ctx context.Context, symbol string) (map[string]string, bool) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	data, err := c.client.HGetAll(ctx, marketDataKey(symbol)).Result()
	if err != nil {
		c.logger.Warn("cache read failed", "key", marketDataKey(symbol), "error", err)
		return nil, false
	}
	if len(data) == 0 {
		return nil, false
	}
	return data, true
}

func (c *Cache) SetMarketData(ctx context.Context, symbol string, data map[string]string) error {
	return c.setHash(ctx, marketDataKey(symbol), data, marketDataTTL)
}

func (c *Cache) GetVolumeStats(ctx context.Context, symbol string) (map[string]string, bool) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	stats, err := c.client.HGetAll(ctx, volumeStatsKey(symbol)).Result()
	if err != nil {
		c.logger.Warn("cache read failed", "key", volumeStatsKey(symbol), "error", err)
		return nil, false
	}
	if len(stats) == 0 {
		return nil, false
	}
	return stats, true
}

func (c *Cache) SetVolumeStats(ctx context.Context, symbol string, stats map[string]string) error {
	return c.setHash(ctx, volumeStatsKey(symbol), stats, volumeStatsTTL)
}

// PublishTrade broadcasts on trades:{symbol}. Delivery is at-most-once: a
// slow or absent subscriber misses the message.
func (c *Cache) PublishTrade(ctx context.Context, symbol string, trade TradeView) error {
	payload, err := json.Marshal(trade)
	if err != nil {
		return fmt.Errorf("marshal trade: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	return c.client.Publish(ctx, tradesKey(symbol), payload).Err()
}

func (c *Cache) PublishOrderBookUpdate(ctx context.Context, symbol string, summary *OrderBookSummary) error {
	payload, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("marshal orderbook update: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	return c.client.Publish(ctx, orderBookKey(symbol), payload).Err()
}

// ClearSymbol drops every namespace for a symbol. Administrative only; the
// serving path relies on TTL expiry, never on explicit invalidation.
func (c *Cache) ClearSymbol(ctx context.Context, symbol string) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	keys := []string{
		orderBookKey(symbol),
		tradesKey(symbol),
		marketDataKey(symbol),
		volumeStatsKey(symbol),
	}

	levelKeys, err := c.client.Keys(ctx, priceLevelsKey(symbol, "*")).Result()
	if err != nil {
		return fmt.Errorf("list price level keys: %w", err)
	}
	keys = append(keys, levelKeys...)

	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("clear symbol cache: %w", err)
	}
	return nil
}

func (c *Cache) getJSON(ctx context.Context, key string, out any) bool {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	raw, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("cache read failed", "key", key, "error", err)
		}
		return false
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		// undecodable payloads count as a miss, not an error
		c.logger.Warn("cache payload undecodable", "key", key, "error", err)
		return false
	}
	return true
}

func (c *Cache) setJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if err := c.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("cache write %s: %w", key, err)
	}
	return nil
}

func (c *Cache) setHash(ctx context.Context, key string, fields map[string]string, ttl time.Duration) error {
	if len(fields) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	values := make([]interface{}, 0, len(fields)*2)
	for field, value := range fields {
		values = append(values, field, value)
	}
	if err := c.client.HSet(ctx, key, values...).Err(); err != nil {
		return fmt.Errorf("cache write %s: %w", key, err)
	}
	if err := c.client.Expire(ctx, key, ttl).Err(); err != nil {
		return fmt.Errorf("cache expire %s: %w", key, err)
	}
	return nil
}
