package book

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SubmitMarket executes immediately against the opposite side. Whatever
// cannot be filled is discarded; market orders never rest.
func (ob *OrderBook) SubmitMarket(id uuid.UUID, qty decimal.Decimal, side Side) (*MarketResult, error) {
	ob.mu.Lock()
	defer ob.mu.Unlock()

	if id == uuid.Nil {
		return nil, fmt.Errorf("%w: order id required", ErrInvalidOrder)
	}
	if qty.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: quantity must be positive", ErrInvalidOrder)
	}
	if _, exists := ob.orders[id]; exists {
		return nil, ErrDuplicateOrder
	}

	order := &Order{
		ID:        id,
		Symbol:    ob.symbol,
		Side:      side,
		Type:      TypeMarket,
		Quantity:  qty,
		Visible:   qty,
		CreatedAt: time.Now().UTC(),
	}

	trades := ob.matchLocked(order)
	remaining := order.Remaining()

	return &MarketResult{
		OrderID:           id,
		ExecutedQuantity:  order.Filled,
		RemainingQuantity: remaining,
		IsComplete:        remaining.IsZero(),
		Trades:            trades,
	}, nil
}

// AddLimit matches any crossing quantity first, then rests the remainder
// for GTC/DAY. IOC discards the remainder; FOK refuses to trade at all
// unless the full quantity can fill.
func (ob *OrderBook) AddLimit(id uuid.UUID, price, qty decimal.Decimal, side Side, tif TimeInForce) (*Order, []Trade, error) {
	ob.mu.Lock()
	defer ob.mu.Unlock()

	order, err := ob.newRestingOrderLocked(id, price, qty, side, tif, TypeLimit)
	if err != nil {
		return nil, nil, err
	}
	return ob.placeLocked(order)
}

// AddPostOnly rests the order only if it would not execute on arrival.
func (ob *OrderBook) AddPostOnly(id uuid.UUID, price, qty decimal.Decimal, side Side, tif TimeInForce) (*Order, error) {
	ob.mu.Lock()
	defer ob.mu.Unlock()

	order, err := ob.newRestingOrderLocked(id, price, qty, side, tif, TypePostOnly)
	if err != nil {
		return nil, err
	}
	if ob.wouldCrossLocked(order) {
		return nil, ErrCrossedBook
	}
	ob.addOrderLocked(order)
	copy := *order
	return &copy, nil
}

// AddIceberg places an order whose total size is visible+hidden; only the
// visible tranche shows in snapshots, replenished from the reserve as it
// fills.
func (ob *OrderBook) AddIceberg(id uuid.UUID, price, visible, hidden decimal.Decimal, side Side, tif TimeInForce) (*Order, []Trade, error) {
	ob.mu.Lock()
	defer ob.mu.Unlock()

	if visible.LessThanOrEqual(decimal.Zero) {
		return nil, nil, fmt.Errorf("%w: visible quantity must be positive", ErrInvalidOrder)
	}
	if hidden.LessThanOrEqual(decimal.Zero) {
		return nil, nil, fmt.Errorf("%w: hidden quantity must be positive", ErrInvalidOrder)
	}
	order, err := ob.newRestingOrderLocked(id, price, visible.Add(hidden), side, tif, TypeIceberg)
	if err != nil {
		return nil, nil, err
	}
	order.Visible = visible
	order.Hidden = hidden
	order.DisplaySize = visible
	return ob.placeLocked(order)
}

func (ob *OrderBook) newRestingOrderLocked(id uuid.UUID, price, qty decimal.Decimal, side Side, tif TimeInForce, orderType OrderType) (*Order, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("%w: order id required", ErrInvalidOrder)
	}
	if price.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: price must be positive", ErrInvalidOrder)
	}
	if qty.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: quantity must be positive", ErrInvalidOrder)
	}
	if _, exists := ob.orders[id]; exists {
		return nil, ErrDuplicateOrder
	}
	if tif == "" {
		tif = TIFGTC
	}
	return &Order{
		ID:          id,
		Symbol:      ob.symbol,
		Side:        side,
		Type:        orderType,
		Price:       price,
		Quantity:    qty,
		Visible:     qty,
		TimeInForce: tif,
		CreatedAt:   time.Now().UTC(),
	}, nil
}

func (ob *OrderBook) placeLocked(order *Order) (*Order, []Trade, error) {
	if order.TimeInForce == TIFFOK && !ob.canFillLocked(order) {
		return nil, nil, ErrInsufficientLiquidity
	}

	trades := ob.matchLocked(order)

	if order.Remaining().GreaterThan(decimal.Zero) {
		switch order.TimeInForce {
		case TIFIOC, TIFFOK:
			// remainder is discarded
		default:
			ob.addOrderLocked(order)
		}
	}

	copy := *order
	return &copy, trades, nil
}

func (ob *OrderBook) matchLocked(incoming *Order) []Trade {
	opposite := ob.asks
	if incoming.Side == SideSell {
		opposite = ob.bids
	}

	var trades []Trade
	for incoming.Remaining().GreaterThan(decimal.Zero) {
		best := opposite.best()
		if best == nil {
			break
		}
		if !priceCrosses(incoming, best.price) {
			break
		}

		makerElem := best.orders.Front()
		if makerElem == nil {
			break
		}
		maker := makerElem.Value.(*Order)
		makerRemaining := maker.Remaining()
		if makerRemaining.LessThanOrEqual(decimal.Zero) {
			ob.removeOrderLocked(maker.ID)
			continue
		}

		matchQty := minDecimal(incoming.Remaining(), makerRemaining)
		maker.applyFill(matchQty)
		incoming.applyFill(matchQty)

		trades = append(trades, Trade{
			ID:           uuid.New(),
			Symbol:       ob.symbol,
			Price:        best.price,
			Quantity:     matchQty,
			TakerSide:    incoming.Side,
			TakerOrderID: incoming.ID,
			MakerOrderID: maker.ID,
			ExecutedAt:   time.Now().UTC(),
		})
		ob.lastTrade = best.price
		ob.hasLastTrade = true

		if maker.Remaining().LessThanOrEqual(decimal.Zero) {
			ob.removeOrderLocked(maker.ID)
		}
	}
	return trades
}

func (ob *OrderBook) canFillLocked(incoming *Order) bool {
	opposite := ob.asks
	if incoming.Side == SideSell {
		opposite = ob.bids
	}

	remaining := incoming.Remaining()
	for _, level := range opposite.sortedLevels() {
		if !priceCrosses(incoming, level.price) {
			break
		}
		for e := level.orders.Front(); e != nil && remaining.GreaterThan(decimal.Zero); e = e.Next() {
			maker := e.Value.(*Order)
			makerRemaining := maker.Remaining()
			if makerRemaining.LessThanOrEqual(decimal.Zero) {
				continue
			}
			remaining = remaining.Sub(makerRemaining)
		}
		if remaining.LessThanOrEqual(decimal.Zero) {
			return true
		}
	}
	return remaining.LessThanOrEqual(decimal.Zero)
}

func (ob *OrderBook) wouldCrossLocked(order *Order) bool {
	if order.Side == SideBuy {
		best := ob.asks.best()
		return best != nil && best.price.Cmp(order.Price) <= 0
	}
	best := ob.bids.best()
	return best != nil && best.price.Cmp(order.Price) >= 0
}

func priceCrosses(incoming *Order, makerPrice decimal.Decimal) bool {
	if incoming.Type == TypeMarket {
		return true
	}
	if incoming.Side == SideBuy {
		return makerPrice.Cmp(incoming.Price) <= 0
	}
	return makerPrice.Cmp(incoming.Price) >= 0
}

func minDecimal(a, b decimal.Decimal) decimal.Decimal {
	if a.Cmp(b) <= 0 {
		return a
	}
	return b
}
