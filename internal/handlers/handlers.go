package handlers

import (
	"context"
	"net/url"
	"strings"

	"log/slog"

	"bookd/internal/book"
	"bookd/internal/cache"
	"bookd/internal/registry"
	"bookd/internal/storage"

	"github.com/gin-gonic/gin"
)

// ViewCache is the cache-aside surface the handlers read through. Misses
// and infrastructure failures look the same: ok=false, recompute from the
// shard.
type ViewCache interface {
	GetOrderBook(ctx context.Context, symbol string) (*cache.OrderBookSummary, bool)
	SetOrderBook(ctx context.Context, symbol string, summary *cache.OrderBookSummary) error
	GetPriceLevels(ctx context.Context, symbol, side string) ([]cache.PriceLevelView, bool)
	SetPriceLevels(ctx context.Context, symbol, side string, levels []cache.PriceLevelView) error
	GetRecentTrades(ctx context.Context, symbol string) ([]cache.TradeView, bool)
	GetMarketData(ctx context.Context, symbol string) (map[string]string, bool)
	SetMarketData(ctx context.Context, symbol string, data map[string]string) error
	GetVolumeStats(ctx context.Context, symbol string) (map[string]string, bool)
	ClearSymbol(ctx context.Context, symbol string) error
}

// OrderStore is the best-effort audit gateway.
type OrderStore interface {
	InsertOrder(ctx context.Context, record storage.OrderRecord) error
}

// TradeFanout receives executions for cache/pub-sub/Kafka distribution.
type TradeFanout interface {
	TradesExecuted(ctx context.Context, symbol string, trades []book.Trade, summary *cache.OrderBookSummary)
}

type Handler struct {
	Registry *registry.Registry
	Locator  *registry.Locator
	Cache    ViewCache
	Store    OrderStore
	Fanout   TradeFanout
	Logger   *slog.Logger
	Metrics  *Metrics
}

func New(reg *registry.Registry, viewCache ViewCache, store OrderStore, fanout TradeFanout, logger *slog.Logger, metrics *Metrics) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		Registry: reg,
		Locator:  registry.NewLocator(reg),
		Cache:    viewCache,
		Store:    store,
		Fanout:   fanout,
		Logger:   logger,
		Metrics:  metrics,
	}
}

func (h *Handler) Register(r *gin.Engine) {
	v1 := r.Group("/api/v1")

	orderbook := v1.Group("/orderbook")
	orderbook.GET("", h.ListOrderBooks)
	orderbook.GET("/:symbol", h.GetOrderBook)
	orderbook.GET("/:symbol/snapshot", h.GetSnapshot)
	orderbook.GET("/:symbol/depth", h.GetDepth)

	orders := v1.Group("/orders")
	orders.POST("", h.CreateOrder)
	orders.GET("/:order_id", h.GetOrder)
	orders.PUT("/:order_id", h.UpdateOrder)
	orders.DELETE("/:order_id", h.CancelOrder)
	orders.GET("/user/:user_id", h.GetUserOrders)

	query := v1.Group("/query")
	query.GET("/best-prices/:symbol", h.GetBestPrices)
	query.GET("/trades/:symbol", h.GetRecentTrades)
	query.GET("/volume/:symbol", h.GetVolumeStats)

	v1.DELETE("/admin/cache/:symbol", h.ClearSymbolCache)

	r.NoRoute(NotFoundHandler)
}

// symbolParam decodes the :symbol path segment. Symbols contain "/"
// (BTC/USD), so clients send them URL-escaped and the router matches the
// raw path.
func symbolParam(c *gin.Context) string {
	raw := c.Param("symbol")
	if decoded, err := url.PathUnescape(raw); err == nil {
		raw = decoded
	}
	return strings.TrimSpace(raw)
}
