package book

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrOrderNotFound         = errors.New("order not found")
	ErrDuplicateOrder        = errors.New("duplicate order id")
	ErrCrossedBook           = errors.New("post-only order would cross the book")
	ErrInsufficientLiquidity = errors.New("insufficient liquidity to fill order")
	ErrInvalidOrder          = errors.New("invalid order")
	ErrInvalidUpdate         = errors.New("invalid order update")
)

type Side string

const (
	SideBuy  Side = "Buy"
	SideSell Side = "Sell"
)

func ParseSide(raw string) (Side, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "buy":
		return SideBuy, nil
	case "sell":
		return SideSell, nil
	}
	return "", fmt.Errorf("invalid side %q", raw)
}

func (s Side) Opposite() Side {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}

// OrderType covers every kind a request may declare. Only a subset is
// accepted by the order entry point; the rest are rejected at dispatch.
type OrderType string

const (
	TypeMarket            OrderType = "Market"
	TypeLimit             OrderType = "Limit"
	TypeIceberg           OrderType = "Iceberg"
	TypePostOnly          OrderType = "PostOnly"
	TypeFillOrKill        OrderType = "FillOrKill"
	TypeImmediateOrCancel OrderType = "ImmediateOrCancel"
	TypeGoodTillDate      OrderType = "GoodTillDate"
	TypeTrailingStop      OrderType = "TrailingStop"
	TypePegged            OrderType = "Pegged"
	TypeMarketToLimit     OrderType = "MarketToLimit"
	TypeReserve           OrderType = "Reserve"
)

var orderTypes = map[string]OrderType{
	"market":            TypeMarket,
	"limit":             TypeLimit,
	"iceberg":           TypeIceberg,
	"postonly":          TypePostOnly,
	"fillorkill":        TypeFillOrKill,
	"immediateorcancel": TypeImmediateOrCancel,
	"goodtilldate":      TypeGoodTillDate,
	"trailingstop":      TypeTrailingStop,
	"pegged":            TypePegged,
	"markettolimit":     TypeMarketToLimit,
	"reserve":           TypeReserve,
}

func ParseOrderType(raw string) (OrderType, error) {
	key := strings.ToLower(strings.ReplaceAll(strings.ReplaceAll(strings.TrimSpace(raw), "_", ""), "-", ""))
	if t, ok := orderTypes[key]; ok {
		return t, nil
	}
	return "", fmt.Errorf("invalid order type %q", raw)
}

type TimeInForce string

const (
	TIFGTC TimeInForce = "GTC"
	TIFIOC TimeInForce = "IOC"
	TIFFOK TimeInForce = "FOK"
	TIFDay TimeInForce = "DAY"
)

func ParseTimeInForce(raw string) (TimeInForce, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "", "GTC":
		return TIFGTC, nil
	case "IOC":
		return TIFIOC, nil
	case "FOK":
		return TIFFOK, nil
	case "DAY":
		return TIFDay, nil
	}
	return "", fmt.Errorf("invalid time in force %q", raw)
}

// Order is a resting order inside one book. Quantity is the full size
// including the hidden reserve of an iceberg; Visible and Hidden track the
// currently displayed and undisplayed remainders.
type Order struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	Symbol      string
	Side        Side
	Type        OrderType
	Price       decimal.Decimal
	Quantity    decimal.Decimal
	Filled      decimal.Decimal
	Visible     decimal.Decimal
	Hidden      decimal.Decimal
	DisplaySize decimal.Decimal
	TimeInForce TimeInForce
	CreatedAt   time.Time
}

func (o *Order) Remaining() decimal.Decimal {
	return o.Quantity.Sub(o.Filled)
}

// applyFill reduces the displayed quantity first and replenishes it from
// the hidden reserve, one display tranche at a time.
func (o *Order) applyFill(qty decimal.Decimal) {
	o.Filled = o.Filled.Add(qty)
	o.Visible = o.Visible.Sub(qty)
	for o.Visible.LessThanOrEqual(decimal.Zero) && o.Hidden.GreaterThan(decimal.Zero) {
		refill := o.DisplaySize
		if refill.LessThanOrEqual(decimal.Zero) || refill.GreaterThan(o.Hidden) {
			refill = o.Hidden
		}
		o.Visible = o.Visible.Add(refill)
		o.Hidden = o.Hidden.Sub(refill)
	}
	if o.Visible.IsNegative() {
		o.Visible = decimal.Zero
	}
	if remaining := o.Remaining(); o.Visible.GreaterThan(remaining) {
		o.Visible = remaining
	}
}

type Trade struct {
	ID           uuid.UUID
	Symbol       string
	Price        decimal.Decimal
	Quantity     decimal.Decimal
	TakerSide    Side
	TakerOrderID uuid.UUID
	MakerOrderID uuid.UUID
	ExecutedAt   time.Time
}

// MarketResult reports how much of a market order executed; market orders
// never rest, so any remainder is simply discarded.
type MarketResult struct {
	OrderID           uuid.UUID
	ExecutedQuantity  decimal.Decimal
	RemainingQuantity decimal.Decimal
	IsComplete        bool
	Trades            []Trade
}

// OrderUpdate carries the fields to change; nil means leave as-is.
type OrderUpdate struct {
	OrderID     uuid.UUID
	NewPrice    *decimal.Decimal
	NewQuantity *decimal.Decimal
}

type Level struct {
	Price           decimal.Decimal `json:"price"`
	VisibleQuantity decimal.Decimal `json:"visible_quantity"`
	HiddenQuantity  decimal.Decimal `json:"hidden_quantity"`
	OrderCount      int             `json:"order_count"`
}

type Snapshot struct {
	Symbol    string    `json:"symbol"`
	Timestamp time.Time `json:"timestamp"`
	Bids      []Level   `json:"bids"`
	Asks      []Level   `json:"asks"`
}
