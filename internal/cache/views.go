package cache

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderBookSummary is the derived top-of-book view cached under
// orderbook:{symbol}. All fields are computed from the shard at population
// time; readers must tolerate TTL-bounded staleness.
type OrderBookSummary struct {
	Symbol           string           `json:"symbol"`
	BestBid          *decimal.Decimal `json:"best_bid"`
	BestAsk          *decimal.Decimal `json:"best_ask"`
	Spread           *decimal.Decimal `json:"spread"`
	MidPrice         *decimal.Decimal `json:"mid_price"`
	LastTradePrice   *decimal.Decimal `json:"last_trade_price"`
	TotalOrders      int              `json:"total_orders"`
	BidLevels        int              `json:"bid_levels"`
	AskLevels        int              `json:"ask_levels"`
	TotalBidQuantity decimal.Decimal  `json:"total_bid_quantity"`
	TotalAskQuantity decimal.Decimal  `json:"total_ask_quantity"`
	Timestamp        time.Time        `json:"timestamp"`
}

type PriceLevelView struct {
	Price           decimal.Decimal `json:"price"`
	VisibleQuantity decimal.Decimal `json:"visible_quantity"`
	HiddenQuantity  decimal.Decimal `json:"hidden_quantity"`
	OrderCount      int             `json:"order_count"`
}

type TradeView struct {
	ID        string          `json:"id"`
	Symbol    string          `json:"symbol"`
	Price     decimal.Decimal `json:"price"`
	Quantity  decimal.Decimal `json:"quantity"`
	Side      string          `json:"side"`
	Timestamp time.Time       `json:"timestamp"`
}
