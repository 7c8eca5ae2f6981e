package book

import (
	"container/heap"
	"container/list"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderBook is the authoritative matching state for one symbol. Every
// exported method takes the book lock, so each call is atomic in isolation;
// callers must not assume two calls compose atomically.
type OrderBook struct {
	symbol string

	mu           sync.Mutex
	bids         *bookSide
	asks         *bookSide
	orders       map[uuid.UUID]*orderRef
	lastTrade    decimal.Decimal
	hasLastTrade bool
}

func New(symbol string) *OrderBook {
	return &OrderBook{
		symbol: symbol,
		bids:   newBookSide(true),
		asks:   newBookSide(false),
		orders: make(map[uuid.UUID]*orderRef),
	}
}

func (ob *OrderBook) Symbol() string {
	return ob.symbol
}

func (ob *OrderBook) GetOrder(id uuid.UUID) (*Order, bool) {
	ob.mu.Lock()
	defer ob.mu.Unlock()

	ref, ok := ob.orders[id]
	if !ok {
		return nil, false
	}
	copy := *ref.order
	return &copy, true
}

func (ob *OrderBook) CancelOrder(id uuid.UUID) (*Order, bool) {
	ob.mu.Lock()
	defer ob.mu.Unlock()

	ref, ok := ob.orders[id]
	if !ok {
		return nil, false
	}
	copy := *ref.order
	ob.removeOrderLocked(id)
	return &copy, true
}

func (ob *OrderBook) UpdateOrder(update OrderUpdate) (*Order, error) {
	ob.mu.Lock()
	defer ob.mu.Unlock()

	ref, ok := ob.orders[update.OrderID]
	if !ok {
		return nil, ErrOrderNotFound
	}
	order := ref.order

	if update.NewQuantity != nil {
		qty := *update.NewQuantity
		if qty.LessThanOrEqual(order.Filled) {
			return nil, ErrInvalidUpdate
		}
		order.Quantity = qty
		remaining := order.Remaining()
		if order.Type == TypeIceberg && order.DisplaySize.GreaterThan(decimal.Zero) && remaining.GreaterThan(order.DisplaySize) {
			order.Visible = order.DisplaySize
			order.Hidden = remaining.Sub(order.DisplaySize)
		} else {
			order.Visible = remaining
			order.Hidden = decimal.Zero
		}
	}

	if update.NewPrice != nil && !update.NewPrice.Equal(order.Price) {
		// Reprice by moving the order to the new level; it loses queue
		// priority and is not re-matched against the opposite side.
		side := ref.sideBook
		side.remove(ref)
		order.Price = *update.NewPrice
		newRef := side.add(order)
		ob.orders[order.ID] = newRef
	}

	copy := *ob.orders[order.ID].order
	return &copy, nil
}

func (ob *OrderBook) BestBid() (decimal.Decimal, bool) {
	ob.mu.Lock()
	defer ob.mu.Unlock()

	if level := ob.bids.best(); level != nil {
		return level.price, true
	}
	return decimal.Zero, false
}

func (ob *OrderBook) BestAsk() (decimal.Decimal, bool) {
	ob.mu.Lock()
	defer ob.mu.Unlock()

	if level := ob.asks.best(); level != nil {
		return level.price, true
	}
	return decimal.Zero, false
}

func (ob *OrderBook) Spread() (decimal.Decimal, bool) {
	ob.mu.Lock()
	defer ob.mu.Unlock()

	bid := ob.bids.best()
	ask := ob.asks.best()
	if bid == nil || ask == nil {
		return decimal.Zero, false
	}
	return ask.price.Sub(bid.price), true
}

func (ob *OrderBook) MidPrice() (decimal.Decimal, bool) {
	ob.mu.Lock()
	defer ob.mu.Unlock()

	bid := ob.bids.best()
	ask := ob.asks.best()
	if bid == nil || ask == nil {
		return decimal.Zero, false
	}
	return bid.price.Add(ask.price).Div(decimal.NewFromInt(2)), true
}

func (ob *OrderBook) LastTradePrice() (decimal.Decimal, bool) {
	ob.mu.Lock()
	defer ob.mu.Unlock()

	return ob.lastTrade, ob.hasLastTrade
}

// VolumeByPrice sums visible plus hidden quantity per level, keyed by the
// canonical decimal string of the price.
func (ob *OrderBook) VolumeByPrice() (map[string]decimal.Decimal, map[string]decimal.Decimal) {
	ob.mu.Lock()
	defer ob.mu.Unlock()

	return ob.bids.volumeByPrice(), ob.asks.volumeByPrice()
}

func (ob *OrderBook) Snapshot(depth int) *Snapshot {
	ob.mu.Lock()
	defer ob.mu.Unlock()

	if depth <= 0 {
		depth = 10
	}
	return &Snapshot{
		Symbol:    ob.symbol,
		Timestamp: time.Now().UTC(),
		Bids:      ob.bids.topLevels(depth),
		Asks:      ob.asks.topLevels(depth),
	}
}

func (ob *OrderBook) AllOrders() []*Order {
	ob.mu.Lock()
	defer ob.mu.Unlock()

	out := make([]*Order, 0, len(ob.orders))
	for _, ref := range ob.orders {
		copy := *ref.order
		out = append(out, &copy)
	}
	return out
}

func (ob *OrderBook) TotalOrders() int {
	ob.mu.Lock()
	defer ob.mu.Unlock()

	return len(ob.orders)
}

func (ob *OrderBook) addOrderLocked(order *Order) {
	side := ob.asks
	if order.Side == SideBuy {
		side = ob.bids
	}
	ref := side.add(order)
	ob.orders[order.ID] = ref
}

func (ob *OrderBook) removeOrderLocked(id uuid.UUID) bool {
	ref, ok := ob.orders[id]
	if !ok {
		return false
	}
	ref.sideBook.remove(ref)
	delete(ob.orders, id)
	return true
}

type orderRef struct {
	order    *Order
	element  *list.Element
	level    *priceLevel
	sideBook *bookSide
}

type priceLevel struct {
	price  decimal.Decimal
	key    string
	orders *list.List
	index  int
}

type bookSide struct {
	levels map[string]*priceLevel
	heap   priceHeap
}

func newBookSide(isBid bool) *bookSide {
	side := &bookSide{
		levels: make(map[string]*priceLevel),
		heap:   priceHeap{isMax: isBid},
	}
	heap.Init(&side.heap)
	return side
}

func (s *bookSide) add(order *Order) *orderRef {
	key := order.Price.String()
	level := s.levels[key]
	if level == nil {
		level = &priceLevel{price: order.Price, key: key, orders: list.New()}
		heap.Push(&s.heap, level)
		s.levels[key] = level
	}
	element := level.orders.PushBack(order)
	return &orderRef{order: order, element: element, level: level, sideBook: s}
}

func (s *bookSide) remove(ref *orderRef) {
	if ref == nil || ref.level == nil || ref.element == nil {
		return
	}
	ref.level.orders.Remove(ref.element)
	if ref.level.orders.Len() == 0 {
		heap.Remove(&s.heap, ref.level.index)
		delete(s.levels, ref.level.key)
	}
}

func (s *bookSide) best() *priceLevel {
	if s.heap.Len() == 0 {
		return nil
	}
	return s.heap.levels[0]
}

func (s *bookSide) sortedLevels() []*priceLevel {
	levels := make([]*priceLevel, 0, len(s.levels))
	for _, level := range s.levels {
		levels = append(levels, level)
	}
	sort.Slice(levels, func(i, j int) bool {
		cmp := levels[i].price.Cmp(levels[j].price)
		if s.heap.isMax {
			return cmp > 0
		}
		return cmp < 0
	})
	return levels
}

func (s *bookSide) topLevels(depth int) []Level {
	levels := s.sortedLevels()
	if len(levels) > depth {
		levels = levels[:depth]
	}
	out := make([]Level, 0, len(levels))
	for _, level := range levels {
		entry := Level{Price: level.price, VisibleQuantity: decimal.Zero, HiddenQuantity: decimal.Zero}
		for e := level.orders.Front(); e != nil; e = e.Next() {
			order := e.Value.(*Order)
			entry.VisibleQuantity = entry.VisibleQuantity.Add(order.Visible)
			entry.HiddenQuantity = entry.HiddenQuantity.Add(order.Hidden)
			entry.OrderCount++
		}
		out = append(out, entry)
	}
	return out
}

func (s *bookSide) volumeByPrice() map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(s.levels))
	for key, level := range s.levels {
		total := decimal.Zero
		for e := level.orders.Front(); e != nil; e = e.Next() {
			order := e.Value.(*Order)
			total = total.Add(order.Visible).Add(order.Hidden)
		}
		out[key] = total
	}
	return out
}

type priceHeap struct {
	levels []*priceLevel
	isMax  bool
}

func (h priceHeap) Len() int { return len(h.levels) }

func (h priceHeap) Less(i, j int) bool {
	cmp := h.levels[i].price.Cmp(h.levels[j].price)
	if h.isMax {
		return cmp > 0
	}
	return cmp < 0
}

func (h priceHeap) Swap(i, j int) {
	h.levels[i], h.levels[j] = h.levels[j], h.levels[i]
	h.levels[i].index = i
	h.levels[j].index = j
}

func (h *priceHeap) Push(x interface{}) {
	level := x.(*priceLevel)
	level.index = len(h.levels)
	h.levels = append(h.levels, level)
}

func (h *priceHeap) Pop() interface{} {
	old := h.levels
	n := len(old)
	item := old[n-1]
	item.index = -1
	h.levels = old[:n-1]
	return item
}
