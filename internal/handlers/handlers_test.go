package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"bookd/internal/book"
	"bookd/internal/cache"
	"bookd/internal/registry"
	"bookd/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeViewCache struct {
	summaries  map[string]*cache.OrderBookSummary
	levels     map[string][]cache.PriceLevelView
	trades     map[string][]cache.TradeView
	marketData map[string]map[string]string
	volume     map[string]map[string]string
	cleared    []string
	failClear  bool
}

func newFakeViewCache() *fakeViewCache {
	return &fakeViewCache{
		summaries:  make(map[string]*cache.OrderBookSummary),
		levels:     make(map[string][]cache.PriceLevelView),
		trades:     make(map[string][]cache.TradeView),
		marketData: make(map[string]map[string]string),
		volume:     make(map[string]map[string]string),
	}
}

func (f *fakeViewCache) GetOrderBook(ctx context.Context, symbol string) (*cache.OrderBookSummary, bool) {
	summary, ok := f.summaries[symbol]
	return summary, ok
}

func (f *fakeViewCache) SetOrderBook(ctx context.Context, symbol string, summary *cache.OrderBookSummary) error {
	f.summaries[symbol] = summary
	return nil
}

func (f *fakeViewCache) GetPriceLevels(ctx context.Context, symbol, side string) ([]cache.PriceLevelView, bool) {
	levels, ok := f.levels[symbol+":"+side]
	return levels, ok
}

func (f *fakeViewCache) SetPriceLevels(ctx context.Context, symbol, side string, levels []cache.PriceLevelView) error {
	f.levels[symbol+":"+side] = levels
	return nil
}

func (f *fakeViewCache) GetRecentTrades(ctx context.Context, symbol string) ([]cache.TradeView, bool) {
	trades, ok := f.trades[symbol]
	return trades, ok
}

func (f *fakeViewCache) GetMarketData(ctx context.Context, symbol string) (map[string]string, bool) {
	data, ok := f.marketData[symbol]
	return data, ok
}

func (f *fakeViewCache) SetMarketData(ctx context.Context, symbol string, data map[string]string) error {
	f.marketData[symbol] = data
	return nil
}

func (f *fakeViewCache) GetVolumeStats(ctx context.Context, symbol string) (map[string]string, bool) {
	stats, ok := f.volume[symbol]
	return stats, ok
}

func (f *fakeViewCache) ClearSymbol(ctx context.Context, symbol string) error {
	if f.failClear {
		return fmt.Errorf("redis down")
	}
	f.cleared = append(f.cleared, symbol)
	delete(f.summaries, symbol)
	return nil
}

type fakeStore struct {
	records []storage.OrderRecord
	err     error
}

func (f *fakeStore) InsertOrder(ctx context.Context, record storage.OrderRecord) error {
	if f.err != nil {
		return f.err
	}
	f.records = append(f.records, record)
	return nil
}

type fanoutCall struct {
	symbol string
	trades []book.Trade
}

type fakeFanout struct {
	calls []fanoutCall
}

func (f *fakeFanout) TradesExecuted(ctx context.Context, symbol string, trades []book.Trade, summary *cache.OrderBookSummary) {
	f.calls = append(f.calls, fanoutCall{symbol: symbol, trades: trades})
}

type testServer struct {
	router *gin.Engine
	reg    *registry.Registry
	cache  *fakeViewCache
	store  *fakeStore
	fanout *fakeFanout
}

func newTestServer(t *testing.T, symbols ...string) *testServer {
	t.Helper()
	if len(symbols) == 0 {
		symbols = []string{"BTC/USD", "ETH/USD"}
	}
	shards := make(map[string]registry.Shard, len(symbols))
	for _, symbol := range symbols {
		shards[symbol] = book.New(symbol)
	}
	reg := registry.New(shards)

	viewCache := newFakeViewCache()
	store := &fakeStore{}
	fanout := &fakeFanout{}

	handler := New(reg, viewCache, store, fanout, nil, nil)

	router := gin.New()
	router.UseRawPath = true
	handler.Register(router)

	return &testServer{router: router, reg: reg, cache: viewCache, store: store, fanout: fanout}
}

func (s *testServer) do(t *testing.T, method, path string, body any) (*httptest.ResponseRecorder, Response) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var resp Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response is not the envelope: %v (%s)", err, w.Body.String())
	}
	return w, resp
}

func dataMap(t *testing.T, resp Response) map[string]any {
	t.Helper()
	data, ok := resp.Data.(map[string]any)
	if !ok {
		t.Fatalf("data is %T, want object", resp.Data)
	}
	return data
}

func limitOrderBody(symbol, side, price, qty string) map[string]any {
	return map[string]any{
		"symbol":     symbol,
		"side":       side,
		"order_type": "limit",
		"price":      price,
		"quantity":   qty,
		"user_id":    uuid.New().String(),
	}
}

func TestCreateLimitOrder(t *testing.T) {
	s := newTestServer(t)

	w, resp := s.do(t, http.MethodPost, "/api/v1/orders", limitOrderBody("BTC/USD", "buy", "100", "10"))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	if !resp.Success || resp.Error != nil {
		t.Fatalf("envelope = %+v", resp)
	}

	data := dataMap(t, resp)
	if data["status"] != "PENDING" {
		t.Fatalf("status = %v, want PENDING", data["status"])
	}
	orderID, err := uuid.Parse(data["order_id"].(string))
	if err != nil {
		t.Fatalf("order_id not a uuid: %v", err)
	}

	shard, _ := s.reg.Lookup("BTC/USD")
	if _, ok := shard.GetOrder(orderID); !ok {
		t.Fatal("order not resting on the shard")
	}

	if len(s.store.records) != 1 {
		t.Fatalf("persisted records = %d, want 1", len(s.store.records))
	}
	record := s.store.records[0]
	if record.ID != orderID || record.Symbol != "BTC/USD" || record.Status != "PENDING" {
		t.Fatalf("record = %+v", record)
	}
}

func TestCreateOrderFreshIDPerRequest(t *testing.T) {
	s := newTestServer(t)
	userID := uuid.New().String()

	body := limitOrderBody("BTC/USD", "buy", "100", "1")
	body["user_id"] = userID
	_, first := s.do(t, http.MethodPost, "/api/v1/orders", body)
	_, second := s.do(t, http.MethodPost, "/api/v1/orders", body)

	firstID := dataMap(t, first)["order_id"].(string)
	secondID := dataMap(t, second)["order_id"].(string)
	if firstID == secondID {
		t.Fatal("each accepted order must get its own id")
	}
	if firstID == userID {
		t.Fatal("order id must not reuse the user id")
	}
}

func TestCreateMarketOrderEmptyBook(t *testing.T) {
	s := newTestServer(t)

	w, resp := s.do(t, http.MethodPost, "/api/v1/orders", map[string]any{
		"symbol":     "BTC/USD",
		"side":       "buy",
		"order_type": "market",
		"quantity":   "5",
		"user_id":    uuid.New().String(),
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}

	data := dataMap(t, resp)
	if data["executed"] != "0" {
		t.Fatalf("executed = %v, want 0", data["executed"])
	}
	if data["remaining"] != "5" {
		t.Fatalf("remaining = %v, want 5", data["remaining"])
	}
	if data["complete"] != false {
		t.Fatalf("complete = %v, want false", data["complete"])
	}
	if data["transactions"] != float64(0) {
		t.Fatalf("transactions = %v, want 0", data["transactions"])
	}

	if len(s.store.records) != 0 {
		t.Fatal("market orders are not persisted")
	}
}

func TestCreateOrderCrossingTriggersFanout(t *testing.T) {
	s := newTestServer(t)

	s.do(t, http.MethodPost, "/api/v1/orders", limitOrderBody("BTC/USD", "sell", "100", "3"))
	_, resp := s.do(t, http.MethodPost, "/api/v1/orders", map[string]any{
		"symbol":     "BTC/USD",
		"side":       "buy",
		"order_type": "market",
		"quantity":   "2",
		"user_id":    uuid.New().String(),
	})

	data := dataMap(t, resp)
	if data["executed"] != "2" || data["complete"] != true {
		t.Fatalf("data = %v", data)
	}
	if len(s.fanout.calls) != 1 {
		t.Fatalf("fanout calls = %d, want 1", len(s.fanout.calls))
	}
	call := s.fanout.calls[0]
	if call.symbol != "BTC/USD" || len(call.trades) != 1 {
		t.Fatalf("fanout call = %+v", call)
	}
}

func TestCreateIcebergOrder(t *testing.T) {
	s := newTestServer(t)

	w, resp := s.do(t, http.MethodPost, "/api/v1/orders", map[string]any{
		"symbol":           "BTC/USD",
		"side":             "sell",
		"order_type":       "iceberg",
		"price":            "100",
		"visible_quantity": "2",
		"hidden_quantity":  "8",
		"user_id":          uuid.New().String(),
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	orderID := uuid.MustParse(dataMap(t, resp)["order_id"].(string))

	shard, _ := s.reg.Lookup("BTC/USD")
	order, ok := shard.GetOrder(orderID)
	if !ok {
		t.Fatal("iceberg not resting")
	}
	if !order.Quantity.Equal(decimal.NewFromInt(10)) || !order.Visible.Equal(decimal.NewFromInt(2)) {
		t.Fatalf("order = %+v", order)
	}

	if len(s.store.records) != 1 {
		t.Fatalf("persisted records = %d, want 1", len(s.store.records))
	}
	record := s.store.records[0]
	if record.VisibleQuantity == nil || record.HiddenQuantity == nil {
		t.Fatal("iceberg record must carry visible and hidden tranches")
	}
}

func TestCreateIcebergMissingHidden(t *testing.T) {
	s := newTestServer(t)

	w, resp := s.do(t, http.MethodPost, "/api/v1/orders", map[string]any{
		"symbol":           "BTC/USD",
		"side":             "sell",
		"order_type":       "iceberg",
		"price":            "100",
		"visible_quantity": "2",
		"user_id":          uuid.New().String(),
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
	if resp.Success || resp.Error == nil {
		t.Fatalf("envelope = %+v", resp)
	}
}

func TestCreatePostOnlyCrossRejected(t *testing.T) {
	s := newTestServer(t)

	s.do(t, http.MethodPost, "/api/v1/orders", limitOrderBody("BTC/USD", "sell", "100", "1"))

	body := limitOrderBody("BTC/USD", "buy", "100", "1")
	body["order_type"] = "post_only"
	w, resp := s.do(t, http.MethodPost, "/api/v1/orders", body)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
	if resp.Error == nil {
		t.Fatal("expected error message")
	}
}

func TestCreateOrderUnsupportedType(t *testing.T) {
	s := newTestServer(t)

	body := limitOrderBody("BTC/USD", "buy", "100", "1")
	body["order_type"] = "trailing_stop"
	w, resp := s.do(t, http.MethodPost, "/api/v1/orders", body)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
	if resp.Error == nil || *resp.Error != "unsupported order type for this endpoint" {
		t.Fatalf("error = %v", resp.Error)
	}
}

func TestCreateOrderUnknownSymbol(t *testing.T) {
	s := newTestServer(t)

	w, resp := s.do(t, http.MethodPost, "/api/v1/orders", limitOrderBody("DOGE/USD", "buy", "100", "1"))
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d", w.Code)
	}
	if resp.Error == nil || *resp.Error != "Order book for symbol DOGE/USD not found" {
		t.Fatalf("error = %v", resp.Error)
	}
}

func TestPersistenceFailureDoesNotFailRequest(t *testing.T) {
	s := newTestServer(t)
	s.store.err = fmt.Errorf("connection refused")

	w, resp := s.do(t, http.MethodPost, "/api/v1/orders", limitOrderBody("BTC/USD", "buy", "100", "1"))
	if w.Code != http.StatusOK || !resp.Success {
		t.Fatalf("status = %d envelope=%+v", w.Code, resp)
	}
}

func TestDuplicatePersistKeepsResponse(t *testing.T) {
	s := newTestServer(t)
	s.store.err = storage.ErrDuplicate

	w, resp := s.do(t, http.MethodPost, "/api/v1/orders", limitOrderBody("BTC/USD", "buy", "100", "1"))
	if w.Code != http.StatusOK || !resp.Success {
		t.Fatalf("status = %d envelope=%+v", w.Code, resp)
	}
}

func TestOrderLifecycleOverHTTP(t *testing.T) {
	s := newTestServer(t)

	_, created := s.do(t, http.MethodPost, "/api/v1/orders", limitOrderBody("BTC/USD", "buy", "100", "10"))
	orderID := dataMap(t, created)["order_id"].(string)

	w, resp := s.do(t, http.MethodGet, "/api/v1/orders/"+orderID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}
	data := dataMap(t, resp)
	if data["symbol"] != "BTC/USD" || data["side"] != "Buy" || data["price"] != "100" || data["quantity"] != "10" {
		t.Fatalf("get data = %v", data)
	}

	w, resp = s.do(t, http.MethodPut, "/api/v1/orders/"+orderID, map[string]any{"price": "99"})
	if w.Code != http.StatusOK || dataMap(t, resp)["updated"] != true {
		t.Fatalf("update status = %d data=%v", w.Code, resp.Data)
	}

	w, resp = s.do(t, http.MethodDelete, "/api/v1/orders/"+orderID, nil)
	if w.Code != http.StatusOK || dataMap(t, resp)["cancelled"] != true {
		t.Fatalf("cancel status = %d data=%v", w.Code, resp.Data)
	}

	w, _ = s.do(t, http.MethodGet, "/api/v1/orders/"+orderID, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("get after cancel status = %d", w.Code)
	}
	w, _ = s.do(t, http.MethodDelete, "/api/v1/orders/"+orderID, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("second cancel status = %d", w.Code)
	}
}

func TestUpdateOrderNothingToUpdate(t *testing.T) {
	s := newTestServer(t)
	_, created := s.do(t, http.MethodPost, "/api/v1/orders", limitOrderBody("BTC/USD", "buy", "100", "10"))
	orderID := dataMap(t, created)["order_id"].(string)

	w, resp := s.do(t, http.MethodPut, "/api/v1/orders/"+orderID, map[string]any{})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
	if resp.Error == nil || *resp.Error != "nothing to update" {
		t.Fatalf("error = %v", resp.Error)
	}
}

func TestOrderEndpointsRejectBadID(t *testing.T) {
	s := newTestServer(t)

	for _, method := range []string{http.MethodGet, http.MethodDelete} {
		w, _ := s.do(t, method, "/api/v1/orders/not-a-uuid", nil)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("%s status = %d, want 400", method, w.Code)
		}
	}
	w, _ := s.do(t, http.MethodPut, "/api/v1/orders/not-a-uuid", map[string]any{"price": "1"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("put status = %d, want 400", w.Code)
	}
}

func TestGetUserOrdersStub(t *testing.T) {
	s := newTestServer(t)

	w, resp := s.do(t, http.MethodGet, "/api/v1/orders/user/"+uuid.New().String(), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	data := dataMap(t, resp)
	if data["total"] != float64(0) {
		t.Fatalf("data = %v", data)
	}
}

func TestGetOrderBookCacheAside(t *testing.T) {
	s := newTestServer(t)
	s.do(t, http.MethodPost, "/api/v1/orders", limitOrderBody("BTC/USD", "buy", "100", "3"))

	w, resp := s.do(t, http.MethodGet, "/api/v1/orderbook/BTC%2FUSD", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	data := dataMap(t, resp)
	if data["symbol"] != "BTC/USD" || data["best_bid"] != "100" {
		t.Fatalf("data = %v", data)
	}

	// cold read populated the cache
	if _, ok := s.cache.summaries["BTC/USD"]; !ok {
		t.Fatal("summary not written on miss")
	}

	// a warm read is served from the cache, not the shard
	stale := decimal.NewFromInt(42)
	s.cache.summaries["BTC/USD"].BestBid = &stale
	_, resp = s.do(t, http.MethodGet, "/api/v1/orderbook/BTC%2FUSD", nil)
	if dataMap(t, resp)["best_bid"] != "42" {
		t.Fatalf("warm read bypassed the cache: %v", resp.Data)
	}
}

func TestColdReadsRecomputeIdentically(t *testing.T) {
	s := newTestServer(t)
	s.do(t, http.MethodPost, "/api/v1/orders", limitOrderBody("BTC/USD", "buy", "100", "3"))

	_, first := s.do(t, http.MethodGet, "/api/v1/orderbook/BTC%2FUSD", nil)
	delete(s.cache.summaries, "BTC/USD")
	_, second := s.do(t, http.MethodGet, "/api/v1/orderbook/BTC%2FUSD", nil)

	a, b := dataMap(t, first), dataMap(t, second)
	for _, field := range []string{"best_bid", "best_ask", "total_orders", "bid_levels", "total_bid_quantity"} {
		if a[field] != b[field] {
			t.Fatalf("field %q diverged between cold reads: %v vs %v", field, a[field], b[field])
		}
	}
}

func TestListOrderBooks(t *testing.T) {
	s := newTestServer(t)

	_, resp := s.do(t, http.MethodGet, "/api/v1/orderbook", nil)
	data := dataMap(t, resp)
	if data["total"] != float64(2) {
		t.Fatalf("total = %v, want 2", data["total"])
	}
	books, ok := data["order_books"].([]any)
	if !ok || len(books) != 2 {
		t.Fatalf("order_books = %v", data["order_books"])
	}
}

func TestGetSnapshotDepth(t *testing.T) {
	s := newTestServer(t)
	for _, price := range []string{"100", "99", "98"} {
		s.do(t, http.MethodPost, "/api/v1/orders", limitOrderBody("BTC/USD", "buy", price, "1"))
	}

	_, resp := s.do(t, http.MethodGet, "/api/v1/orderbook/BTC%2FUSD/snapshot?depth=2", nil)
	data := dataMap(t, resp)
	bids := data["bids"].([]any)
	if len(bids) != 2 {
		t.Fatalf("bids = %d levels, want 2", len(bids))
	}
	top := bids[0].(map[string]any)
	if top["price"] != "100" {
		t.Fatalf("top bid = %v, want 100", top["price"])
	}
}

func TestGetDepthCachesAndTruncates(t *testing.T) {
	s := newTestServer(t)
	for _, price := range []string{"100", "99", "98"} {
		s.do(t, http.MethodPost, "/api/v1/orders", limitOrderBody("BTC/USD", "buy", price, "1"))
	}

	_, resp := s.do(t, http.MethodGet, "/api/v1/orderbook/BTC%2FUSD/depth?depth=2", nil)
	data := dataMap(t, resp)
	if len(data["bids"].([]any)) != 2 {
		t.Fatalf("bids = %v", data["bids"])
	}

	// the cache holds the full cached depth, not the truncated view
	if cached := s.cache.levels["BTC/USD:bids"]; len(cached) != 3 {
		t.Fatalf("cached bid levels = %d, want 3", len(cached))
	}
}

func TestGetBestPricesCacheAside(t *testing.T) {
	s := newTestServer(t)
	s.do(t, http.MethodPost, "/api/v1/orders", limitOrderBody("BTC/USD", "buy", "100", "1"))
	s.do(t, http.MethodPost, "/api/v1/orders", limitOrderBody("BTC/USD", "sell", "104", "1"))

	_, resp := s.do(t, http.MethodGet, "/api/v1/query/best-prices/BTC%2FUSD", nil)
	data := dataMap(t, resp)
	if data["best_bid"] != "100" || data["best_ask"] != "104" || data["spread"] != "4" || data["mid_price"] != "102" {
		t.Fatalf("data = %v", data)
	}

	if s.cache.marketData["BTC/USD"]["best_bid"] != "100" {
		t.Fatal("market data hash not populated on miss")
	}
}

func TestGetRecentTradesMissIsEmpty(t *testing.T) {
	s := newTestServer(t)

	_, resp := s.do(t, http.MethodGet, "/api/v1/query/trades/BTC%2FUSD", nil)
	data := dataMap(t, resp)
	if data["total"] != float64(0) || data["page"] != float64(1) {
		t.Fatalf("data = %v", data)
	}
	if trades, ok := data["trades"].([]any); !ok || len(trades) != 0 {
		t.Fatalf("trades = %v", data["trades"])
	}
}

func TestGetRecentTradesPagination(t *testing.T) {
	s := newTestServer(t)
	views := make([]cache.TradeView, 5)
	for i := range views {
		views[i] = cache.TradeView{ID: fmt.Sprintf("t%d", i), Symbol: "BTC/USD"}
	}
	s.cache.trades["BTC/USD"] = views

	_, resp := s.do(t, http.MethodGet, "/api/v1/query/trades/BTC%2FUSD?page=2&page_size=2", nil)
	data := dataMap(t, resp)
	if data["total"] != float64(5) || data["page"] != float64(2) || data["page_size"] != float64(2) {
		t.Fatalf("data = %v", data)
	}
	trades := data["trades"].([]any)
	if len(trades) != 2 || trades[0].(map[string]any)["id"] != "t2" {
		t.Fatalf("trades = %v", trades)
	}
}

func TestGetVolumeStatsMissIsZero(t *testing.T) {
	s := newTestServer(t)

	_, resp := s.do(t, http.MethodGet, "/api/v1/query/volume/BTC%2FUSD", nil)
	data := dataMap(t, resp)
	if data["total_volume"] != "0" || data["total_trades"] != float64(0) {
		t.Fatalf("data = %v", data)
	}
}

func TestGetVolumeStatsFromCache(t *testing.T) {
	s := newTestServer(t)
	s.cache.volume["BTC/USD"] = map[string]string{
		"total_volume": "12",
		"total_trades": "4",
		"notional":     "1200",
		"avg_price":    "100",
		"high_price":   "110",
		"low_price":    "90",
	}

	_, resp := s.do(t, http.MethodGet, "/api/v1/query/volume/BTC%2FUSD", nil)
	data := dataMap(t, resp)
	if data["total_volume"] != "12" || data["total_trades"] != float64(4) {
		t.Fatalf("data = %v", data)
	}
	if data["high_price"] != "110" || data["low_price"] != "90" {
		t.Fatalf("data = %v", data)
	}
}

func TestClearSymbolCache(t *testing.T) {
	s := newTestServer(t)

	w, resp := s.do(t, http.MethodDelete, "/api/v1/admin/cache/BTC%2FUSD", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if dataMap(t, resp)["cleared"] != "BTC/USD" {
		t.Fatalf("data = %v", resp.Data)
	}
	if len(s.cache.cleared) != 1 || s.cache.cleared[0] != "BTC/USD" {
		t.Fatalf("cleared = %v", s.cache.cleared)
	}

	w, _ = s.do(t, http.MethodDelete, "/api/v1/admin/cache/DOGE%2FUSD", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown symbol status = %d", w.Code)
	}

	s.cache.failClear = true
	w, _ = s.do(t, http.MethodDelete, "/api/v1/admin/cache/BTC%2FUSD", nil)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("clear failure status = %d", w.Code)
	}
}

func TestUnknownSymbolOnReadEndpoints(t *testing.T) {
	s := newTestServer(t)

	paths := []string{
		"/api/v1/orderbook/DOGE%2FUSD",
		"/api/v1/orderbook/DOGE%2FUSD/snapshot",
		"/api/v1/orderbook/DOGE%2FUSD/depth",
		"/api/v1/query/best-prices/DOGE%2FUSD",
		"/api/v1/query/trades/DOGE%2FUSD",
		"/api/v1/query/volume/DOGE%2FUSD",
	}
	for _, path := range paths {
		w, resp := s.do(t, http.MethodGet, path, nil)
		if w.Code != http.StatusNotFound {
			t.Fatalf("%s status = %d, want 404", path, w.Code)
		}
		if resp.Success || resp.Error == nil {
			t.Fatalf("%s envelope = %+v", path, resp)
		}
	}
}

func TestNoRouteEnvelope(t *testing.T) {
	s := newTestServer(t)

	w, resp := s.do(t, http.MethodGet, "/api/v1/nope", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d", w.Code)
	}
	if resp.Error == nil || *resp.Error != "Route not found" {
		t.Fatalf("error = %v", resp.Error)
	}
	if resp.Data != nil || resp.Message != nil {
		t.Fatalf("envelope = %+v", resp)
	}
}
