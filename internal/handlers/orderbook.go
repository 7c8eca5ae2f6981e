package handlers

import (
	"net/http"
	"strconv"
	"time"

	"bookd/internal/book"
	"bookd/internal/cache"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

const (
	defaultDepth = 10

	// Depth views are cached at this many levels per side and truncated
	// per request. Deeper requests go straight to the shard.
	cachedDepth = 50
)

// summarySource is the read-only slice of a shard needed to build the
// cached top-of-book view.
type summarySource interface {
	BestBid() (decimal.Decimal, bool)
	BestAsk() (decimal.Decimal, bool)
	Spread() (decimal.Decimal, bool)
	MidPrice() (decimal.Decimal, bool)
	LastTradePrice() (decimal.Decimal, bool)
	VolumeByPrice() (map[string]decimal.Decimal, map[string]decimal.Decimal)
	TotalOrders() int
}

func computeSummary(symbol string, s summarySource) *cache.OrderBookSummary {
	bidVolumes, askVolumes := s.VolumeByPrice()

	totalBid := decimal.Zero
	for _, qty := range bidVolumes {
		totalBid = totalBid.Add(qty)
	}
	totalAsk := decimal.Zero
	for _, qty := range askVolumes {
		totalAsk = totalAsk.Add(qty)
	}

	return &cache.OrderBookSummary{
		Symbol:           symbol,
		BestBid:          optDecimal(s.BestBid()),
		BestAsk:          optDecimal(s.BestAsk()),
		Spread:           optDecimal(s.Spread()),
		MidPrice:         optDecimal(s.MidPrice()),
		LastTradePrice:   optDecimal(s.LastTradePrice()),
		TotalOrders:      s.TotalOrders(),
		BidLevels:        len(bidVolumes),
		AskLevels:        len(askVolumes),
		TotalBidQuantity: totalBid,
		TotalAskQuantity: totalAsk,
		Timestamp:        time.Now().UTC(),
	}
}

func optDecimal(v decimal.Decimal, ok bool) *decimal.Decimal {
	if !ok {
		return nil
	}
	return &v
}

func (h *Handler) ListOrderBooks(c *gin.Context) {
	ctx := c.Request.Context()

	summaries := make([]*cache.OrderBookSummary, 0, h.Registry.Len())
	for _, entry := range h.Registry.All() {
		if summary, ok := h.Cache.GetOrderBook(ctx, entry.Symbol); ok {
			h.Metrics.cacheRead("orderbook", true)
			summaries = append(summaries, summary)
			continue
		}
		h.Metrics.cacheRead("orderbook", false)

		summary := computeSummary(entry.Symbol, entry.Shard)
		if err := h.Cache.SetOrderBook(ctx, entry.Symbol, summary); err != nil {
			h.Logger.Warn("orderbook cache write failed", "symbol", entry.Symbol, "error", err)
		}
		summaries = append(summaries, summary)
	}

	respondOK(c, gin.H{"order_books": summaries, "total": len(summaries)})
}

func (h *Handler) GetOrderBook(c *gin.Context) {
	symbol := symbolParam(c)
	shard, ok := h.Registry.Lookup(symbol)
	if !ok {
		respondError(c, http.StatusNotFound, "Order book for symbol "+symbol+" not found")
		return
	}

	ctx := c.Request.Context()
	if summary, ok := h.Cache.GetOrderBook(ctx, symbol); ok {
		h.Metrics.cacheRead("orderbook", true)
		respondOK(c, summary)
		return
	}
	h.Metrics.cacheRead("orderbook", false)

	summary := computeSummary(symbol, shard)
	if err := h.Cache.SetOrderBook(ctx, symbol, summary); err != nil {
		h.Logger.Warn("orderbook cache write failed", "symbol", symbol, "error", err)
	}
	respondOK(c, summary)
}

// GetSnapshot always reads the live shard; it is the uncached escape
// hatch next to the cached summary and depth views.
func (h *Handler) GetSnapshot(c *gin.Context) {
	symbol := symbolParam(c)
	shard, ok := h.Registry.Lookup(symbol)
	if !ok {
		respondError(c, http.StatusNotFound, "Order book for symbol "+symbol+" not found")
		return
	}

	respondOK(c, shard.Snapshot(depthParam(c)))
}

func (h *Handler) GetDepth(c *gin.Context) {
	symbol := symbolParam(c)
	shard, ok := h.Registry.Lookup(symbol)
	if !ok {
		respondError(c, http.StatusNotFound, "Order book for symbol "+symbol+" not found")
		return
	}

	depth := depthParam(c)
	if depth > cachedDepth {
		snap := shard.Snapshot(depth)
		respondOK(c, gin.H{
			"symbol":    symbol,
			"bids":      levelViews(snap.Bids),
			"asks":      levelViews(snap.Asks),
			"timestamp": snap.Timestamp,
		})
		return
	}

	ctx := c.Request.Context()
	bids, bidsOK := h.Cache.GetPriceLevels(ctx, symbol, "bids")
	asks, asksOK := h.Cache.GetPriceLevels(ctx, symbol, "asks")
	h.Metrics.cacheRead("price_levels", bidsOK && asksOK)

	if !bidsOK || !asksOK {
		snap := shard.Snapshot(cachedDepth)
		bids = levelViews(snap.Bids)
		asks = levelViews(snap.Asks)
		if err := h.Cache.SetPriceLevels(ctx, symbol, "bids", bids); err != nil {
			h.Logger.Warn("price level cache write failed", "symbol", symbol, "side", "bids", "error", err)
		}
		if err := h.Cache.SetPriceLevels(ctx, symbol, "asks", asks); err != nil {
			h.Logger.Warn("price level cache write failed", "symbol", symbol, "side", "asks", "error", err)
		}
	}

	respondOK(c, gin.H{
		"symbol":    symbol,
		"bids":      truncateLevels(bids, depth),
		"asks":      truncateLevels(asks, depth),
		"timestamp": time.Now().UTC(),
	})
}

func (h *Handler) ClearSymbolCache(c *gin.Context) {
	symbol := symbolParam(c)
	if _, ok := h.Registry.Lookup(symbol); !ok {
		respondError(c, http.StatusNotFound, "Order book for symbol "+symbol+" not found")
		return
	}

	if err := h.Cache.ClearSymbol(c.Request.Context(), symbol); err != nil {
		h.Logger.Error("cache clear failed", "symbol", symbol, "error", err)
		respondError(c, http.StatusInternalServerError, "failed to clear cache")
		return
	}

	respondOK(c, gin.H{"cleared": symbol})
}

func levelViews(levels []book.Level) []cache.PriceLevelView {
	views := make([]cache.PriceLevelView, len(levels))
	for i, level := range levels {
		views[i] = cache.PriceLevelView{
			Price:           level.Price,
			VisibleQuantity: level.VisibleQuantity,
			HiddenQuantity:  level.HiddenQuantity,
			OrderCount:      level.OrderCount,
		}
	}
	return views
}

func truncateLevels(levels []cache.PriceLevelView, depth int) []cache.PriceLevelView {
	if len(levels) <= depth {
		return levels
	}
	return levels[:depth]
}

func depthParam(c *gin.Context) int {
	raw := c.Query("depth")
	if raw == "" {
		return defaultDepth
	}
	depth, err := strconv.Atoi(raw)
	if err != nil || depth <= 0 {
		return defaultDepth
	}
	return depth
}
