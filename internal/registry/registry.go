package registry

import (
	"sort"

	"bookd/internal/book"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Shard is one symbol's authoritative matching engine. It is treated as an
// opaque capability: every call is atomic in isolation and internally
// synchronized, nothing more.
type Shard interface {
	Symbol() string

	SubmitMarket(id uuid.UUID, qty decimal.Decimal, side book.Side) (*book.MarketResult, error)
	AddLimit(id uuid.UUID, price, qty decimal.Decimal, side book.Side, tif book.TimeInForce) (*book.Order, []book.Trade, error)
	AddPostOnly(id uuid.UUID, price, qty decimal.Decimal, side book.Side, tif book.TimeInForce) (*book.Order, error)
	AddIceberg(id uuid.UUID, price, visible, hidden decimal.Decimal, side book.Side, tif book.TimeInForce) (*book.Order, []book.Trade, error)

	GetOrder(id uuid.UUID) (*book.Order, bool)
	UpdateOrder(update book.OrderUpdate) (*book.Order, error)
	CancelOrder(id uuid.UUID) (*book.Order, bool)

	BestBid() (decimal.Decimal, bool)
	BestAsk() (decimal.Decimal, bool)
	Spread() (decimal.Decimal, bool)
	MidPrice() (decimal.Decimal, bool)
	LastTradePrice() (decimal.Decimal, bool)
	VolumeByPrice() (map[string]decimal.Decimal, map[string]decimal.Decimal)
	Snapshot(depth int) *book.Snapshot
	AllOrders() []*book.Order
	TotalOrders() int
}

type Entry struct {
	Symbol string
	Shard  Shard
}

// Registry maps symbols to shards. The mapping is fixed at construction;
// there is no add or remove at runtime.
type Registry struct {
	shards map[string]Shard
	order  []string
}

func New(shards map[string]Shard) *Registry {
	copied := make(map[string]Shard, len(shards))
	symbols := make([]string, 0, len(shards))
	for symbol, shard := range shards {
		copied[symbol] = shard
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)
	return &Registry{shards: copied, order: symbols}
}

func (r *Registry) Lookup(symbol string) (Shard, bool) {
	shard, ok := r.shards[symbol]
	return shard, ok
}

// All returns one entry per symbol. Each shard reflects its state at the
// moment the caller visits it; there is no atomic snapshot across entries.
func (r *Registry) All() []Entry {
	entries := make([]Entry, 0, len(r.order))
	for _, symbol := range r.order {
		entries = append(entries, Entry{Symbol: symbol, Shard: r.shards[symbol]})
	}
	return entries
}

func (r *Registry) Symbols() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

func (r *Registry) Len() int {
	return len(r.shards)
}
