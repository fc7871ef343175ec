package marketops

import (
	"testing"

	"github.com/echo-chain/sidenode/internal/accounts"
	"github.com/echo-chain/sidenode/internal/amount"
	"github.com/echo-chain/sidenode/internal/events"
	"github.com/echo-chain/sidenode/internal/market"
	"github.com/echo-chain/sidenode/internal/orderbook"
	"github.com/echo-chain/sidenode/internal/store"
)

func newTestDeps(t *testing.T) (Deps, *market.TradingPair) {
	t.Helper()
	st := store.NewMemoryStore()
	accts := accounts.NewManager(st, nil)
	jrnl := events.NewJournal(st, nil, nil)
	pairs := market.NewRegistry()
	pair := &market.TradingPair{
		ID:             market.PairID("ECH", "", "USD", ""),
		Base:           "ECH",
		Quote:          "USD",
		TickSize:       amount.Zero(),
		LotSize:        amount.Zero(),
		MinNotional:    amount.Zero(),
		MinTradeAmount: amount.Zero(),
		MaxTradeAmount: amount.Zero(),
		Status:         market.Trading,
	}
	if err := pairs.Register(pair); err != nil {
		t.Fatalf("register pair: %v", err)
	}
	book := orderbook.NewEngine(pairs, accts, jrnl)
	return Deps{Book: book, Jrnl: jrnl}, pair
}

func placeOrderData(pairID, side, orderType string, price, qty, quoteQty string) map[string]any {
	data := map[string]any{"pairId": pairID, "side": side, "type": orderType}
	if price != "" {
		data["price"] = price
	}
	if qty != "" {
		data["quantity"] = qty
	}
	if quoteQty != "" {
		data["quoteOrderQty"] = quoteQty
	}
	return data
}

func TestPlaceOrderValidateQuoteOrderQtyRules(t *testing.T) {
	deps, pair := newTestDeps(t)
	h := &PlaceOrderHandler{Deps: deps}

	cases := []struct {
		name string
		data map[string]any
		want bool
	}{
		{"limit buy with quantity ok", placeOrderData(pair.ID, "BUY", "LIMIT", "10", "5", ""), true},
		{"limit buy with quoteOrderQty rejected", placeOrderData(pair.ID, "BUY", "LIMIT", "10", "", "50"), false},
		{"market buy with quoteOrderQty ok", placeOrderData(pair.ID, "BUY", "MARKET", "", "", "50"), true},
		{"market buy with quantity ok", placeOrderData(pair.ID, "BUY", "MARKET", "", "5", ""), true},
		{"limit sell with quantity ok", placeOrderData(pair.ID, "SELL", "LIMIT", "10", "5", ""), true},
		{"limit sell with only quoteOrderQty rejected", placeOrderData(pair.ID, "SELL", "LIMIT", "10", "", "50"), false},
		{"market sell with only quoteOrderQty rejected", placeOrderData(pair.ID, "SELL", "MARKET", "", "", "50"), false},
		{"market sell with quantity ok", placeOrderData(pair.ID, "SELL", "MARKET", "", "5", ""), true},
		{"neither quantity nor quoteOrderQty rejected", placeOrderData(pair.ID, "BUY", "MARKET", "", "", ""), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := h.Validate(tc.data, "trader"); got != tc.want {
				t.Fatalf("Validate(%+v) = %v, want %v", tc.data, got, tc.want)
			}
		})
	}
}

func TestPlaceOrderHandlerProcessRejectsInvalidNotional(t *testing.T) {
	deps, pair := newTestDeps(t)
	pair.MinNotional = amount.FromInt64(100)
	h := &PlaceOrderHandler{Deps: deps}

	ok := h.Process(placeOrderData(pair.ID, "BUY", "LIMIT", "10", "5", ""), "trader", "tx-1", 1)
	if ok {
		t.Fatalf("expected process to fail notional bound, succeeded instead")
	}
}
