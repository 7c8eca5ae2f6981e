package storage

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const OrderStatusPending = "PENDING"

// OrderRecord is the submission-time audit snapshot of an accepted order.
// It is written once and never updated; fills and cancellations happen only
// in the owning shard.
type OrderRecord struct {
	ID                uuid.UUID
	Symbol            string
	Side              string
	Type              string
	Quantity          decimal.Decimal
	Price             *decimal.Decimal
	TimeInForce       string
	Status            string
	UserID            uuid.UUID
	RemainingQuantity decimal.Decimal
	VisibleQuantity   *decimal.Decimal
	HiddenQuantity    *decimal.Decimal
	CreatedAt         time.Time
}
