package validation

import (
	"strings"

	"bookd/internal/book"

	"github.com/shopspring/decimal"
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	return v.Message()
}

func (v ValidationErrors) Message() string {
	if len(v) == 0 {
		return "invalid request"
	}
	parts := make([]string, 0, len(v))
	for _, fe := range v {
		parts = append(parts, fe.Message)
	}
	return strings.Join(parts, "; ")
}

// CreateOrderInput is the already-parsed payload of an order submission.
// Kind-specific requirements: market needs only quantity and side; limit,
// IOC and FOK need a price; post-only needs a price; iceberg needs a price
// plus both visible and hidden quantities.
type CreateOrderInput struct {
	Symbol          string
	Side            book.Side
	Type            book.OrderType
	Quantity        decimal.Decimal
	Price           *decimal.Decimal
	VisibleQuantity *decimal.Decimal
	HiddenQuantity  *decimal.Decimal
}

func ValidateCreateOrder(in CreateOrderInput) ValidationErrors {
	var errs ValidationErrors

	if strings.TrimSpace(in.Symbol) == "" {
		errs = append(errs, FieldError{Field: "symbol", Message: "symbol is required"})
	}

	switch in.Type {
	case book.TypeMarket:
		if in.Quantity.LessThanOrEqual(decimal.Zero) {
			errs = append(errs, FieldError{Field: "quantity", Message: "quantity must be positive"})
		}
	case book.TypeLimit, book.TypeImmediateOrCancel, book.TypeFillOrKill:
		errs = append(errs, requirePrice(in, "limit/IOC/FOK")...)
		if in.Quantity.LessThanOrEqual(decimal.Zero) {
			errs = append(errs, FieldError{Field: "quantity", Message: "quantity must be positive"})
		}
	case book.TypePostOnly:
		errs = append(errs, requirePrice(in, "post-only")...)
		if in.Quantity.LessThanOrEqual(decimal.Zero) {
			errs = append(errs, FieldError{Field: "quantity", Message: "quantity must be positive"})
		}
	case book.TypeIceberg:
		errs = append(errs, requirePrice(in, "iceberg")...)
		if in.VisibleQuantity == nil {
			errs = append(errs, FieldError{Field: "visible_quantity", Message: "visible_quantity required for iceberg orders"})
		} else if in.VisibleQuantity.LessThanOrEqual(decimal.Zero) {
			errs = append(errs, FieldError{Field: "visible_quantity", Message: "visible_quantity must be positive"})
		}
		if in.HiddenQuantity == nil {
			errs = append(errs, FieldError{Field: "hidden_quantity", Message: "hidden_quantity required for iceberg orders"})
		} else if in.HiddenQuantity.LessThanOrEqual(decimal.Zero) {
			errs = append(errs, FieldError{Field: "hidden_quantity", Message: "hidden_quantity must be positive"})
		}
	}

	return errs
}

func requirePrice(in CreateOrderInput, kind string) ValidationErrors {
	if in.Price == nil {
		return ValidationErrors{{Field: "price", Message: "price is required for " + kind + " orders"}}
	}
	if in.Price.LessThanOrEqual(decimal.Zero) {
		return ValidationErrors{{Field: "price", Message: "price must be positive"}}
	}
	return nil
}
