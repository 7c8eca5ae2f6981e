package events

import (
	"context"
	"strconv"
	"time"

	"log/slog"

	"bookd/internal/book"
	"bookd/internal/cache"
	"bookd/libs/kafka"

	"github.com/shopspring/decimal"
)

const (
	recentTradesLimit = 50
	tradesEventType   = "trades.executed"
)

// TradeCache is the slice of the cache layer the fanout writes to.
type TradeCache interface {
	GetRecentTrades(ctx context.Context, symbol string) ([]cache.TradeView, bool)
	SetRecentTrades(ctx context.Context, symbol string, trades []cache.TradeView) error
	GetVolumeStats(ctx context.Context, symbol string) (map[string]string, bool)
	SetVolumeStats(ctx context.Context, symbol string, stats map[string]string) error
	PublishTrade(ctx context.Context, symbol string, trade cache.TradeView) error
	PublishOrderBookUpdate(ctx context.Context, symbol string, summary *cache.OrderBookSummary) error
}

type TradeEvent struct {
	kafka.Envelope
	TradeID      string `json:"trade_id"`
	Symbol       string `json:"symbol"`
	MakerOrderID string `json:"maker_order_id"`
	TakerOrderID string `json:"taker_order_id"`
	Price        string `json:"price"`
	Quantity     string `json:"quantity"`
	TakerSide    string `json:"taker_side"`
	ExecutedAt   string `json:"executed_at"`
}

// Fanout pushes execution side effects to the cache, the pub/sub channels
// and Kafka. Every sink is best-effort: failures are logged and never
// propagate to the request that produced the trades.
type Fanout struct {
	cache    TradeCache
	producer kafka.Publisher
	topic    string
	logger   *slog.Logger
}

func NewFanout(tradeCache TradeCache, producer kafka.Publisher, topic string, logger *slog.Logger) *Fanout {
	if logger == nil {
		logger = slog.Default()
	}
	if topic == "" {
		topic = tradesEventType
	}
	return &Fanout{cache: tradeCache, producer: producer, topic: topic, logger: logger}
}

// TradesExecuted fans out every side effect of a batch of executions. The
// caller passes the post-execution summary so subscribers see the book
// state that produced the trades.
func (f *Fanout) TradesExecuted(ctx context.Context, symbol string, trades []book.Trade, summary *cache.OrderBookSummary) {
	if len(trades) == 0 {
		return
	}

	views := make([]cache.TradeView, 0, len(trades))
	for _, trade := range trades {
		views = append(views, cache.TradeView{
			ID:        trade.ID.String(),
			Symbol:    trade.Symbol,
			Price:     trade.Price,
			Quantity:  trade.Quantity,
			Side:      string(trade.TakerSide),
			Timestamp: trade.ExecutedAt,
		})
	}

	f.updateRecentTrades(ctx, symbol, views)
	f.updateVolumeStats(ctx, symbol, views)

	for _, view := range views {
		if err := f.cache.PublishTrade(ctx, symbol, view); err != nil {
			f.logger.Warn("trade publish failed", "symbol", symbol, "error", err)
		}
	}

	if summary != nil {
		if err := f.cache.PublishOrderBookUpdate(ctx, symbol, summary); err != nil {
			f.logger.Warn("orderbook update publish failed", "symbol", symbol, "error", err)
		}
	}

	f.emitKafka(ctx, trades)
}

func (f *Fanout) updateRecentTrades(ctx context.Context, symbol string, views []cache.TradeView) {
	existing, _ := f.cache.GetRecentTrades(ctx, symbol)

	merged := make([]cache.TradeView, 0, len(views)+len(existing))
	// newest first
	for i := len(views) - 1; i >= 0; i-- {
		merged = append(merged, views[i])
	}
	merged = append(merged, existing...)
	if len(merged) > recentTradesLimit {
		merged = merged[:recentTradesLimit]
	}

	if err := f.cache.SetRecentTrades(ctx, symbol, merged); err != nil {
		f.logger.Warn("recent trades cache write failed", "symbol", symbol, "error", err)
	}
}

// updateVolumeStats folds the new executions into the cached aggregates.
// The read-modify-write is unsynchronized across concurrent requests;
// occasional lost updates are acceptable for a TTL-bounded statistic.
func (f *Fanout) updateVolumeStats(ctx context.Context, symbol string, views []cache.TradeView) {
	stats, _ := f.cache.GetVolumeStats(ctx, symbol)

	totalVolume := parseDecimalField(stats, "total_volume")
	totalTrades := parseIntField(stats, "total_trades")
	notional := parseDecimalField(stats, "notional")
	highPrice := parseDecimalField(stats, "high_price")
	lowPrice := parseDecimalField(stats, "low_price")

	for _, view := range views {
		totalVolume = totalVolume.Add(view.Quantity)
		totalTrades++
		notional = notional.Add(view.Price.Mul(view.Quantity))
		if highPrice.IsZero() || view.Price.GreaterThan(highPrice) {
			highPrice = view.Price
		}
		if lowPrice.IsZero() || view.Price.LessThan(lowPrice) {
			lowPrice = view.Price
		}
	}

	avgPrice := decimal.Zero
	if totalVolume.GreaterThan(decimal.Zero) {
		avgPrice = notional.DivRound(totalVolume, 8)
	}

	err := f.cache.SetVolumeStats(ctx, symbol, map[string]string{
		"total_volume": totalVolume.String(),
		"total_trades": strconv.FormatInt(totalTrades, 10),
		"notional":     notional.String(),
		"avg_price":    avgPrice.String(),
		"high_price":   highPrice.String(),
		"low_price":    lowPrice.String(),
	})
	if err != nil {
		f.logger.Warn("volume stats cache write failed", "symbol", symbol, "error", err)
	}
}

func (f *Fanout) emitKafka(ctx context.Context, trades []book.Trade) {
	if f.producer == nil {
		return
	}
	for _, trade := range trades {
		env, err := kafka.NewEnvelopeWithID(
			kafka.DeterministicEventID(tradesEventType, trade.ID.String()),
			tradesEventType, 1, "")
		if err != nil {
			f.logger.Warn("trade event envelope failed", "error", err)
			continue
		}
		event := TradeEvent{
			Envelope:     env,
			TradeID:      trade.ID.String(),
			Symbol:       trade.Symbol,
			MakerOrderID: trade.MakerOrderID.String(),
			TakerOrderID: trade.TakerOrderID.String(),
			Price:        trade.Price.String(),
			Quantity:     trade.Quantity.String(),
			TakerSide:    string(trade.TakerSide),
			ExecutedAt:   trade.ExecutedAt.UTC().Format(time.RFC3339Nano),
		}
		if _, _, err := f.producer.PublishJSON(ctx, f.topic, trade.Symbol, event); err != nil {
			f.logger.Warn("trade event publish failed", "trade_id", event.TradeID, "error", err)
		}
	}
}

func parseDecimalField(fields map[string]string, name string) decimal.Decimal {
	if fields == nil {
		return decimal.Zero
	}
	val, err := decimal.NewFromString(fields[name])
	if err != nil {
		return decimal.Zero
	}
	return val
}

func parseIntField(fields map[string]string, name string) int64 {
	if fields == nil {
		return 0
	}
	n, err := strconv.ParseInt(fields[name], 10, 64)
	if err != nil {
		return 0
	}
	return n
}
