package validation

import (
	"strings"
	"testing"

	"bookd/internal/book"

	"github.com/shopspring/decimal"
)

func dp(s string) *decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return &v
}

func TestValidateCreateOrder(t *testing.T) {
	cases := []struct {
		name      string
		in        CreateOrderInput
		wantField string
	}{
		{
			name: "valid market",
			in:   CreateOrderInput{Symbol: "BTC/USD", Side: book.SideBuy, Type: book.TypeMarket, Quantity: decimal.NewFromInt(5)},
		},
		{
			name:      "market zero quantity",
			in:        CreateOrderInput{Symbol: "BTC/USD", Side: book.SideBuy, Type: book.TypeMarket},
			wantField: "quantity",
		},
		{
			name: "valid limit",
			in:   CreateOrderInput{Symbol: "BTC/USD", Side: book.SideBuy, Type: book.TypeLimit, Quantity: decimal.NewFromInt(1), Price: dp("100")},
		},
		{
			name:      "limit without price",
			in:        CreateOrderInput{Symbol: "BTC/USD", Side: book.SideBuy, Type: book.TypeLimit, Quantity: decimal.NewFromInt(1)},
			wantField: "price",
		},
		{
			name:      "limit negative price",
			in:        CreateOrderInput{Symbol: "BTC/USD", Side: book.SideBuy, Type: book.TypeLimit, Quantity: decimal.NewFromInt(1), Price: dp("-1")},
			wantField: "price",
		},
		{
			name:      "fok without price",
			in:        CreateOrderInput{Symbol: "BTC/USD", Side: book.SideSell, Type: book.TypeFillOrKill, Quantity: decimal.NewFromInt(1)},
			wantField: "price",
		},
		{
			name:      "post-only without price",
			in:        CreateOrderInput{Symbol: "BTC/USD", Side: book.SideSell, Type: book.TypePostOnly, Quantity: decimal.NewFromInt(1)},
			wantField: "price",
		},
		{
			name: "valid iceberg",
			in: CreateOrderInput{
				Symbol: "BTC/USD", Side: book.SideSell, Type: book.TypeIceberg,
				Price: dp("100"), VisibleQuantity: dp("2"), HiddenQuantity: dp("8"),
			},
		},
		{
			name: "iceberg missing hidden",
			in: CreateOrderInput{
				Symbol: "BTC/USD", Side: book.SideSell, Type: book.TypeIceberg,
				Price: dp("100"), VisibleQuantity: dp("2"),
			},
			wantField: "hidden_quantity",
		},
		{
			name: "iceberg zero visible",
			in: CreateOrderInput{
				Symbol: "BTC/USD", Side: book.SideSell, Type: book.TypeIceberg,
				Price: dp("100"), VisibleQuantity: dp("0"), HiddenQuantity: dp("8"),
			},
			wantField: "visible_quantity",
		},
		{
			name:      "missing symbol",
			in:        CreateOrderInput{Side: book.SideBuy, Type: book.TypeMarket, Quantity: decimal.NewFromInt(1)},
			wantField: "symbol",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			errs := ValidateCreateOrder(tc.in)
			if tc.wantField == "" {
				if len(errs) != 0 {
					t.Fatalf("unexpected errors: %v", errs)
				}
				return
			}
			if len(errs) == 0 {
				t.Fatalf("expected error on field %q, got none", tc.wantField)
			}
			found := false
			for _, fe := range errs {
				if fe.Field == tc.wantField {
					found = true
				}
			}
			if !found {
				t.Fatalf("errors %v do not mention field %q", errs, tc.wantField)
			}
		})
	}
}

func TestValidationErrorsMessage(t *testing.T) {
	errs := ValidationErrors{
		{Field: "price", Message: "price is required for limit/IOC/FOK orders"},
		{Field: "quantity", Message: "quantity must be positive"},
	}
	msg := errs.Message()
	if !strings.Contains(msg, "price is required") || !strings.Contains(msg, "; ") {
		t.Fatalf("Message() = %q", msg)
	}
	if errs.Error() != msg {
		t.Fatal("Error() should match Message()")
	}

	if got := (ValidationErrors{}).Message(); got != "invalid request" {
		t.Fatalf("empty Message() = %q", got)
	}
}
