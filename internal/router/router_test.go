package router

import (
	"testing"

	"github.com/echo-chain/sidenode/internal/accounts"
	"github.com/echo-chain/sidenode/internal/amm"
	"github.com/echo-chain/sidenode/internal/amount"
	"github.com/echo-chain/sidenode/internal/events"
	"github.com/echo-chain/sidenode/internal/market"
	"github.com/echo-chain/sidenode/internal/orderbook"
	"github.com/echo-chain/sidenode/internal/store"
)

func newTestRouter(t *testing.T) (*Router, *amm.Registry, *orderbook.Engine, *accounts.Manager, *market.TradingPair) {
	t.Helper()
	st := store.NewMemoryStore()
	accts := accounts.NewManager(st, nil)
	jrnl := events.NewJournal(st, nil, nil)
	pairs := market.NewRegistry()
	pair := &market.TradingPair{
		ID: market.PairID("ECH", "", "USD", ""), Base: "ECH", Quote: "USD",
		TickSize: amount.Zero(), LotSize: amount.Zero(), MinNotional: amount.Zero(),
		MinTradeAmount: amount.Zero(), MaxTradeAmount: amount.Zero(), Status: market.Trading,
	}
	_ = pairs.Register(pair)
	pools := amm.NewRegistry()
	book := orderbook.NewEngine(pairs, accts, jrnl)
	return NewRouter(pools, book, pairs), pools, book, accts, pair
}

func TestRoutePriceSetGoesOrderbookOnly(t *testing.T) {
	r, _, book, accts, pair := newTestRouter(t)
	_ = accts.AdjustBalance("seller", pair.Base, amount.FromInt64(100))
	_ = accts.AdjustBalance("buyer", pair.Quote, amount.FromInt64(1000))

	book.PlaceOrder(orderbook.PlaceOrderRequest{
		OrderID: "s1", UserID: "seller", PairID: pair.ID, Type: orderbook.Limit, Side: orderbook.Sell,
		Price: amount.FromInt64(10), Quantity: amount.FromInt64(100), TimeInForce: orderbook.GTC, Timestamp: 1,
	})

	res, err := r.Route(HybridTradeRequest{
		Trader: "buyer", PairID: pair.ID, TokenIn: "USD", TokenOut: "ECH",
		AmountIn: amount.FromInt64(100), Price: amount.FromInt64(10), Timestamp: 2,
	})
	if err != nil {
		t.Fatalf("route failed: %v", err)
	}
	if len(res.Legs) != 1 || res.Legs[0].Venue != VenueOrderbook {
		t.Fatalf("expected a single orderbook leg, got %+v", res.Legs)
	}
	if res.TotalAmountOut.String() != "100" {
		t.Fatalf("expected 100 filled, got %s", res.TotalAmountOut.String())
	}
}

func TestRouteRejectsBothPriceAndSlippageBound(t *testing.T) {
	r, _, _, _, pair := newTestRouter(t)
	_, err := r.Route(HybridTradeRequest{
		PairID: pair.ID, TokenIn: "USD", TokenOut: "ECH", AmountIn: amount.FromInt64(10),
		Price: amount.FromInt64(10), MinAmountOut: amount.FromInt64(1),
	})
	if err == nil {
		t.Fatalf("expected validation error when both price and a slippage bound are set")
	}
}

func TestRouteRejectsNeitherPriceNorSlippageBound(t *testing.T) {
	r, _, _, _, pair := newTestRouter(t)
	_, err := r.Route(HybridTradeRequest{
		PairID: pair.ID, TokenIn: "USD", TokenOut: "ECH", AmountIn: amount.FromInt64(10),
	})
	if err == nil {
		t.Fatalf("expected validation error when neither price nor a slippage bound is set")
	}
}

func TestRouteExplicitAllocationsMustSumTo100(t *testing.T) {
	r, _, _, _, pair := newTestRouter(t)
	_, err := r.Route(HybridTradeRequest{
		PairID: pair.ID, TokenIn: "USD", TokenOut: "ECH", AmountIn: amount.FromInt64(10),
		MinAmountOut: amount.FromInt64(1),
		Routes:       []RouteAllocation{{Venue: VenueAMM, Percentage: 50}, {Venue: VenueOrderbook, Percentage: 40}},
	})
	if err == nil {
		t.Fatalf("expected error: allocations sum to 90, not 100")
	}
}

func TestRouteAggregatedAMMAutoSplit(t *testing.T) {
	r, pools, _, accts, pair := newTestRouter(t)
	pool, _ := pools.Create("ECH", "USD")
	pool.ReserveA = amount.FromInt64(1_000_000_000_000)
	pool.ReserveB = amount.FromInt64(10_000_000_000)
	_ = accts.AdjustBalance("buyer", pair.Quote, amount.FromInt64(1_000_000))

	res, err := r.Route(HybridTradeRequest{
		Trader: "buyer", PairID: pair.ID, TokenIn: "USD", TokenOut: "ECH",
		AmountIn: amount.FromInt64(100_000_000), MinAmountOut: amount.FromInt64(1), Timestamp: 1,
	})
	if err != nil {
		t.Fatalf("route failed: %v", err)
	}
	if len(res.Legs) != 1 || res.Legs[0].Venue != VenueAMM {
		t.Fatalf("expected a single AMM leg via auto-split, got %+v", res.Legs)
	}
	if res.TotalAmountOut.IsZero() {
		t.Fatalf("expected non-zero output")
	}
}
