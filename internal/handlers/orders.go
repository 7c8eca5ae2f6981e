package handlers

import (
	"errors"
	"net/http"

	"bookd/internal/book"
	"bookd/internal/storage"
	"bookd/internal/validation"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type createOrderRequest struct {
	Symbol          string           `json:"symbol"`
	Side            string           `json:"side"`
	OrderType       string           `json:"order_type"`
	Quantity        decimal.Decimal  `json:"quantity"`
	Price           *decimal.Decimal `json:"price"`
	TimeInForce     string           `json:"time_in_force"`
	UserID          uuid.UUID        `json:"user_id"`
	VisibleQuantity *decimal.Decimal `json:"visible_quantity"`
	HiddenQuantity  *decimal.Decimal `json:"hidden_quantity"`
}

type updateOrderRequest struct {
	Quantity *decimal.Decimal `json:"quantity"`
	Price    *decimal.Decimal `json:"price"`
}

func (h *Handler) CreateOrder(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid payload")
		return
	}

	side, err := book.ParseSide(req.Side)
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	orderType, err := book.ParseOrderType(req.OrderType)
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	tif, err := book.ParseTimeInForce(req.TimeInForce)
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	if errs := validation.ValidateCreateOrder(validation.CreateOrderInput{
		Symbol:          req.Symbol,
		Side:            side,
		Type:            orderType,
		Quantity:        req.Quantity,
		Price:           req.Price,
		VisibleQuantity: req.VisibleQuantity,
		HiddenQuantity:  req.HiddenQuantity,
	}); len(errs) > 0 {
		respondError(c, http.StatusBadRequest, errs.Message())
		return
	}

	shard, ok := h.Registry.Lookup(req.Symbol)
	if !ok {
		h.Metrics.submission(string(orderType), "symbol_not_found")
		respondError(c, http.StatusNotFound, "Order book for symbol "+req.Symbol+" not found")
		return
	}

	orderID := uuid.New()

	switch orderType {
	case book.TypeMarket:
		result, err := shard.SubmitMarket(orderID, req.Quantity, side)
		if err != nil {
			h.Metrics.submission(string(orderType), "rejected")
			respondError(c, http.StatusBadRequest, err.Error())
			return
		}
		if len(result.Trades) > 0 {
			h.fanOut(c, req.Symbol, shard, result.Trades)
		}
		h.Metrics.submission(string(orderType), "executed")
		respondOK(c, gin.H{
			"executed":     result.ExecutedQuantity,
			"remaining":    result.RemainingQuantity,
			"complete":     result.IsComplete,
			"transactions": len(result.Trades),
		})

	case book.TypeLimit, book.TypeImmediateOrCancel, book.TypeFillOrKill:
		effectiveTIF := tif
		if orderType == book.TypeImmediateOrCancel {
			effectiveTIF = book.TIFIOC
		}
		if orderType == book.TypeFillOrKill {
			effectiveTIF = book.TIFFOK
		}
		order, trades, err := shard.AddLimit(orderID, *req.Price, req.Quantity, side, effectiveTIF)
		if err != nil {
			h.Metrics.submission(string(orderType), "rejected")
			respondError(c, http.StatusBadRequest, err.Error())
			return
		}
		h.persistOrder(c, req, order, nil, nil)
		if len(trades) > 0 {
			h.fanOut(c, req.Symbol, shard, trades)
		}
		h.Metrics.submission(string(orderType), "accepted")
		respondOK(c, gin.H{"order_id": order.ID, "status": storage.OrderStatusPending})

	case book.TypePostOnly:
		order, err := shard.AddPostOnly(orderID, *req.Price, req.Quantity, side, tif)
		if err != nil {
			h.Metrics.submission(string(orderType), "rejected")
			respondError(c, http.StatusBadRequest, err.Error())
			return
		}
		h.persistOrder(c, req, order, nil, nil)
		h.Metrics.submission(string(orderType), "accepted")
		respondOK(c, gin.H{"order_id": order.ID, "status": storage.OrderStatusPending})

	case book.TypeIceberg:
		order, trades, err := shard.AddIceberg(orderID, *req.Price, *req.VisibleQuantity, *req.HiddenQuantity, side, tif)
		if err != nil {
			h.Metrics.submission(string(orderType), "rejected")
			respondError(c, http.StatusBadRequest, err.Error())
			return
		}
		h.persistOrder(c, req, order, req.VisibleQuantity, req.HiddenQuantity)
		if len(trades) > 0 {
			h.fanOut(c, req.Symbol, shard, trades)
		}
		h.Metrics.submission(string(orderType), "accepted")
		respondOK(c, gin.H{"order_id": order.ID, "status": storage.OrderStatusPending})

	default:
		// Recognized kinds without a submission path (stop, pegged, ...).
		h.Metrics.submission(string(orderType), "unsupported")
		respondError(c, http.StatusBadRequest, "unsupported order type for this endpoint")
	}
}

// persistOrder appends the audit record after the shard accepted the
// order. Best-effort: any failure is logged and the request still
// succeeds; the shard remains the ground truth.
func (h *Handler) persistOrder(c *gin.Context, req createOrderRequest, order *book.Order, visible, hidden *decimal.Decimal) {
	if h.Store == nil {
		return
	}

	record := storage.OrderRecord{
		ID:                order.ID,
		Symbol:            req.Symbol,
		Side:              string(order.Side),
		Type:              string(order.Type),
		Quantity:          order.Quantity,
		Price:             &order.Price,
		TimeInForce:       string(order.TimeInForce),
		Status:            storage.OrderStatusPending,
		UserID:            req.UserID,
		RemainingQuantity: order.Remaining(),
		VisibleQuantity:   visible,
		HiddenQuantity:    hidden,
		CreatedAt:         order.CreatedAt,
	}

	if err := h.Store.InsertOrder(c.Request.Context(), record); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			h.Metrics.persisted("duplicate")
			h.Logger.Debug("order record already present", "order_id", order.ID)
			return
		}
		h.Metrics.persisted("error")
		h.Logger.Warn("order audit write failed", "order_id", order.ID, "error", err)
		return
	}
	h.Metrics.persisted("ok")
}

func (h *Handler) fanOut(c *gin.Context, symbol string, shard summarySource, trades []book.Trade) {
	if h.Fanout == nil {
		return
	}
	h.Fanout.TradesExecuted(c.Request.Context(), symbol, trades, computeSummary(symbol, shard))
}

func (h *Handler) GetOrder(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("order_id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid order_id")
		return
	}

	symbol, order, ok := h.Locator.Find(orderID)
	if !ok {
		respondError(c, http.StatusNotFound, "order not found")
		return
	}

	respondOK(c, gin.H{
		"order_id":      order.ID,
		"symbol":        symbol,
		"price":         order.Price,
		"quantity":      order.Remaining(),
		"side":          order.Side,
		"time_in_force": order.TimeInForce,
	})
}

func (h *Handler) UpdateOrder(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("order_id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid order_id")
		return
	}

	var req updateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.Price == nil && req.Quantity == nil {
		respondError(c, http.StatusBadRequest, "nothing to update")
		return
	}

	_, err = h.Locator.Update(book.OrderUpdate{
		OrderID:     orderID,
		NewPrice:    req.Price,
		NewQuantity: req.Quantity,
	})
	if err != nil {
		respondError(c, http.StatusNotFound, "order not found")
		return
	}

	respondOK(c, gin.H{"updated": true})
}

func (h *Handler) CancelOrder(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("order_id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid order_id")
		return
	}

	if _, ok := h.Locator.Cancel(orderID); !ok {
		h.Metrics.cancellation("not_found")
		respondError(c, http.StatusNotFound, "order not found")
		return
	}

	h.Metrics.cancellation("cancelled")
	respondOK(c, gin.H{"cancelled": true})
}

func (h *Handler) GetUserOrders(c *gin.Context) {
	if _, err := uuid.Parse(c.Param("user_id")); err != nil {
		respondError(c, http.StatusBadRequest, "invalid user_id")
		return
	}

	// TODO: query the orders table by user_id; the audit store has the
	// rows but the read path is not wired yet.
	respondOK(c, gin.H{"orders": []any{}, "total": 0})
}
