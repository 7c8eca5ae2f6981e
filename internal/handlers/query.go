package handlers

import (
	"net/http"
	"strconv"
	"time"

	"bookd/internal/cache"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

const (
	defaultTradePageSize = 20
	maxTradePageSize     = 100
)

// GetBestPrices serves top-of-book numbers through the market_data hash.
// A miss recomputes from the shard and repopulates the hash.
func (h *Handler) GetBestPrices(c *gin.Context) {
	symbol := symbolParam(c)
	shard, ok := h.Registry.Lookup(symbol)
	if !ok {
		respondError(c, http.StatusNotFound, "Order book for symbol "+symbol+" not found")
		return
	}

	ctx := c.Request.Context()
	if data, ok := h.Cache.GetMarketData(ctx, symbol); ok {
		h.Metrics.cacheRead("market_data", true)
		respondOK(c, gin.H{
			"symbol":    symbol,
			"best_bid":  nullableField(data, "best_bid"),
			"best_ask":  nullableField(data, "best_ask"),
			"spread":    nullableField(data, "spread"),
			"mid_price": nullableField(data, "mid_price"),
		})
		return
	}
	h.Metrics.cacheRead("market_data", false)

	bestBid := optDecimal(shard.BestBid())
	bestAsk := optDecimal(shard.BestAsk())
	spread := optDecimal(shard.Spread())
	midPrice := optDecimal(shard.MidPrice())

	data := make(map[string]string)
	putDecimalField(data, "best_bid", bestBid)
	putDecimalField(data, "best_ask", bestAsk)
	putDecimalField(data, "spread", spread)
	putDecimalField(data, "mid_price", midPrice)
	if err := h.Cache.SetMarketData(ctx, symbol, data); err != nil {
		h.Logger.Warn("market data cache write failed", "symbol", symbol, "error", err)
	}

	respondOK(c, gin.H{
		"symbol":    symbol,
		"best_bid":  bestBid,
		"best_ask":  bestAsk,
		"spread":    spread,
		"mid_price": midPrice,
	})
}

// GetRecentTrades pages through the cached trade list. The shards keep no
// trade history, so a cache miss is an empty result, not an error.
func (h *Handler) GetRecentTrades(c *gin.Context) {
	symbol := symbolParam(c)
	if _, ok := h.Registry.Lookup(symbol); !ok {
		respondError(c, http.StatusNotFound, "Order book for symbol "+symbol+" not found")
		return
	}

	trades, ok := h.Cache.GetRecentTrades(c.Request.Context(), symbol)
	h.Metrics.cacheRead("trades", ok)
	if !ok {
		trades = []cache.TradeView{}
	}

	page := positiveQueryInt(c, "page", 1)
	pageSize := positiveQueryInt(c, "page_size", defaultTradePageSize)
	if pageSize > maxTradePageSize {
		pageSize = maxTradePageSize
	}

	start := (page - 1) * pageSize
	if start > len(trades) {
		start = len(trades)
	}
	end := start + pageSize
	if end > len(trades) {
		end = len(trades)
	}

	respondOK(c, gin.H{
		"trades":    trades[start:end],
		"total":     len(trades),
		"page":      page,
		"page_size": pageSize,
	})
}

// GetVolumeStats reads the volume_stats hash maintained by the trade
// fanout. A symbol with no cached executions reports zeros.
func (h *Handler) GetVolumeStats(c *gin.Context) {
	symbol := symbolParam(c)
	if _, ok := h.Registry.Lookup(symbol); !ok {
		respondError(c, http.StatusNotFound, "Order book for symbol "+symbol+" not found")
		return
	}

	stats, ok := h.Cache.GetVolumeStats(c.Request.Context(), symbol)
	h.Metrics.cacheRead("volume_stats", ok)
	if !ok {
		respondOK(c, gin.H{
			"symbol":       symbol,
			"total_volume": decimal.Zero,
			"total_trades": 0,
			"notional":     decimal.Zero,
			"avg_price":    decimal.Zero,
			"high_price":   nil,
			"low_price":    nil,
			"timestamp":    time.Now().UTC(),
		})
		return
	}

	respondOK(c, gin.H{
		"symbol":       symbol,
		"total_volume": statDecimal(stats, "total_volume"),
		"total_trades": statInt(stats, "total_trades"),
		"notional":     statDecimal(stats, "notional"),
		"avg_price":    statDecimal(stats, "avg_price"),
		"high_price":   nullableField(stats, "high_price"),
		"low_price":    nullableField(stats, "low_price"),
		"timestamp":    time.Now().UTC(),
	})
}

func nullableField(fields map[string]string, name string) *string {
	value, ok := fields[name]
	if !ok || value == "" {
		return nil
	}
	return &value
}

func putDecimalField(fields map[string]string, name string, value *decimal.Decimal) {
	if value == nil {
		return
	}
	fields[name] = value.String()
}

func statDecimal(fields map[string]string, name string) decimal.Decimal {
	value, err := decimal.NewFromString(fields[name])
	if err != nil {
		return decimal.Zero
	}
	return value
}

func statInt(fields map[string]string, name string) int64 {
	value, err := strconv.ParseInt(fields[name], 10, 64)
	if err != nil {
		return 0
	}
	return value
}

func positiveQueryInt(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}
