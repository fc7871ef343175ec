package orderbook

import (
	"testing"

	"github.com/echo-chain/sidenode/internal/accounts"
	"github.com/echo-chain/sidenode/internal/amount"
	"github.com/echo-chain/sidenode/internal/events"
	"github.com/echo-chain/sidenode/internal/market"
	"github.com/echo-chain/sidenode/internal/store"
)

func newTestEngine(t *testing.T) (*Engine, *accounts.Manager, *market.TradingPair) {
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
	return NewEngine(pairs, accts, jrnl), accts, pair
}

func TestPlaceOrderEscrowConservation(t *testing.T) {
	eng, accts, pair := newTestEngine(t)
	_ = accts.AdjustBalance("seller", pair.Base, amount.FromInt64(100))
	_ = accts.AdjustBalance("buyer", pair.Quote, amount.FromInt64(1000))

	_, err := eng.PlaceOrder(PlaceOrderRequest{
		OrderID: "sell-1", UserID: "seller", PairID: pair.ID,
		Type: Limit, Side: Sell, Price: amount.FromInt64(10), Quantity: amount.FromInt64(100),
		TimeInForce: GTC, Timestamp: 1,
	})
	if err != nil {
		t.Fatalf("place sell failed: %v", err)
	}
	sellerAfterEscrow, _ := accts.Get("seller")
	if !sellerAfterEscrow.Balance(pair.Base).IsZero() {
		t.Fatalf("expected base escrowed, got %s", sellerAfterEscrow.Balance(pair.Base).String())
	}

	res, err := eng.PlaceOrder(PlaceOrderRequest{
		OrderID: "buy-1", UserID: "buyer", PairID: pair.ID,
		Type: Limit, Side: Buy, Price: amount.FromInt64(10), Quantity: amount.FromInt64(100),
		TimeInForce: GTC, Timestamp: 2,
	})
	if err != nil {
		t.Fatalf("place buy failed: %v", err)
	}
	if len(res.Trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(res.Trades))
	}
	if res.Order.Status != Filled {
		t.Fatalf("expected buy order filled, got %s", res.Order.Status)
	}

	buyer, _ := accts.Get("buyer")
	seller, _ := accts.Get("seller")
	if buyer.Balance(pair.Base).String() != "100" {
		t.Fatalf("buyer expected 100 base, got %s", buyer.Balance(pair.Base).String())
	}
	if !buyer.Balance(pair.Quote).IsZero() {
		t.Fatalf("buyer quote should be fully spent, got %s", buyer.Balance(pair.Quote).String())
	}
	if seller.Balance(pair.Quote).String() != "1000" {
		t.Fatalf("seller expected 1000 quote, got %s", seller.Balance(pair.Quote).String())
	}
	if !seller.Balance(pair.Base).IsZero() {
		t.Fatalf("seller base should be fully sold, got %s", seller.Balance(pair.Base).String())
	}
}

func TestPlaceOrderPriceTimePriority(t *testing.T) {
	eng, accts, pair := newTestEngine(t)
	_ = accts.AdjustBalance("seller1", pair.Base, amount.FromInt64(50))
	_ = accts.AdjustBalance("seller2", pair.Base, amount.FromInt64(50))
	_ = accts.AdjustBalance("buyer", pair.Quote, amount.FromInt64(1000))

	eng.PlaceOrder(PlaceOrderRequest{OrderID: "s1", UserID: "seller1", PairID: pair.ID, Type: Limit, Side: Sell, Price: amount.FromInt64(10), Quantity: amount.FromInt64(50), TimeInForce: GTC, Timestamp: 1})
	eng.PlaceOrder(PlaceOrderRequest{OrderID: "s2", UserID: "seller2", PairID: pair.ID, Type: Limit, Side: Sell, Price: amount.FromInt64(10), Quantity: amount.FromInt64(50), TimeInForce: GTC, Timestamp: 2})

	res, err := eng.PlaceOrder(PlaceOrderRequest{OrderID: "b1", UserID: "buyer", PairID: pair.ID, Type: Limit, Side: Buy, Price: amount.FromInt64(10), Quantity: amount.FromInt64(50), TimeInForce: GTC, Timestamp: 3})
	if err != nil {
		t.Fatalf("place buy failed: %v", err)
	}
	if len(res.Trades) != 1 || res.Trades[0].MakerOrderID != "s1" {
		t.Fatalf("expected the earlier resting order (s1) to fill first, got %+v", res.Trades)
	}
}

func TestPlaceOrderFOKCancelsWhenBookInsufficient(t *testing.T) {
	eng, accts, pair := newTestEngine(t)
	_ = accts.AdjustBalance("seller", pair.Base, amount.FromInt64(10))
	_ = accts.AdjustBalance("buyer", pair.Quote, amount.FromInt64(1000))

	eng.PlaceOrder(PlaceOrderRequest{OrderID: "s1", UserID: "seller", PairID: pair.ID, Type: Limit, Side: Sell, Price: amount.FromInt64(10), Quantity: amount.FromInt64(10), TimeInForce: GTC, Timestamp: 1})

	res, err := eng.PlaceOrder(PlaceOrderRequest{OrderID: "b1", UserID: "buyer", PairID: pair.ID, Type: Limit, Side: Buy, Price: amount.FromInt64(10), Quantity: amount.FromInt64(50), TimeInForce: FOK, Timestamp: 2})
	if err != nil {
		t.Fatalf("place fok failed: %v", err)
	}
	if res.Order.Status != Cancelled || len(res.Trades) != 0 {
		t.Fatalf("expected FOK to cancel with no trades, got status=%s trades=%d", res.Order.Status, len(res.Trades))
	}
	buyer, _ := accts.Get("buyer")
	if buyer.Balance(pair.Quote).String() != "1000" {
		t.Fatalf("expected full escrow refund, got %s", buyer.Balance(pair.Quote).String())
	}
}

func TestPlaceOrderIOCCancelsRemainder(t *testing.T) {
	eng, accts, pair := newTestEngine(t)
	_ = accts.AdjustBalance("seller", pair.Base, amount.FromInt64(10))
	_ = accts.AdjustBalance("buyer", pair.Quote, amount.FromInt64(1000))

	eng.PlaceOrder(PlaceOrderRequest{OrderID: "s1", UserID: "seller", PairID: pair.ID, Type: Limit, Side: Sell, Price: amount.FromInt64(10), Quantity: amount.FromInt64(10), TimeInForce: GTC, Timestamp: 1})

	res, err := eng.PlaceOrder(PlaceOrderRequest{OrderID: "b1", UserID: "buyer", PairID: pair.ID, Type: Limit, Side: Buy, Price: amount.FromInt64(10), Quantity: amount.FromInt64(50), TimeInForce: IOC, Timestamp: 2})
	if err != nil {
		t.Fatalf("place ioc failed: %v", err)
	}
	if res.Order.Status != PartiallyFilled {
		t.Fatalf("expected partially filled, got %s", res.Order.Status)
	}
	buyer, _ := accts.Get("buyer")
	// Escrowed 50*10=500 up front; fill consumes 10*10=100 of it; the
	// unmatched 40*10=400 is refunded, leaving 1000-100=900.
	if buyer.Balance(pair.Quote).String() != "900" {
		t.Fatalf("expected 900 quote remaining after partial fill+refund, got %s", buyer.Balance(pair.Quote).String())
	}
}

func TestPlaceOrderMarketBuyByQuoteOrderQty(t *testing.T) {
	eng, accts, pair := newTestEngine(t)
	_ = accts.AdjustBalance("seller", pair.Base, amount.FromInt64(100))
	_ = accts.AdjustBalance("buyer", pair.Quote, amount.FromInt64(1000))

	eng.PlaceOrder(PlaceOrderRequest{OrderID: "s1", UserID: "seller", PairID: pair.ID, Type: Limit, Side: Sell, Price: amount.FromInt64(10), Quantity: amount.FromInt64(100), TimeInForce: GTC, Timestamp: 1})

	res, err := eng.PlaceOrder(PlaceOrderRequest{
		OrderID: "b1", UserID: "buyer", PairID: pair.ID,
		Type: Market, Side: Buy, QuoteOrderQty: amount.FromInt64(300),
		TimeInForce: GTC, Timestamp: 2,
	})
	if err != nil {
		t.Fatalf("place market buy by quote failed: %v", err)
	}
	if len(res.Trades) != 1 || res.Trades[0].Quantity.String() != "30" {
		t.Fatalf("expected a single 30-unit fill (300/10), got %+v", res.Trades)
	}
	if res.Order.Status != Filled {
		t.Fatalf("expected market order filled once its quote budget is spent, got %s", res.Order.Status)
	}

	buyer, _ := accts.Get("buyer")
	if buyer.Balance(pair.Quote).String() != "700" {
		t.Fatalf("expected 700 quote remaining after spending 300, got %s", buyer.Balance(pair.Quote).String())
	}
	if buyer.Balance(pair.Base).String() != "30" {
		t.Fatalf("expected 30 base credited, got %s", buyer.Balance(pair.Base).String())
	}
}

func TestPlaceOrderMarketBuyByQuoteOrderQtyRefundsUnspentBudget(t *testing.T) {
	eng, accts, pair := newTestEngine(t)
	_ = accts.AdjustBalance("seller", pair.Base, amount.FromInt64(10))
	_ = accts.AdjustBalance("buyer", pair.Quote, amount.FromInt64(1000))

	eng.PlaceOrder(PlaceOrderRequest{OrderID: "s1", UserID: "seller", PairID: pair.ID, Type: Limit, Side: Sell, Price: amount.FromInt64(10), Quantity: amount.FromInt64(10), TimeInForce: GTC, Timestamp: 1})

	res, err := eng.PlaceOrder(PlaceOrderRequest{
		OrderID: "b1", UserID: "buyer", PairID: pair.ID,
		Type: Market, Side: Buy, QuoteOrderQty: amount.FromInt64(300),
		TimeInForce: GTC, Timestamp: 2,
	})
	if err != nil {
		t.Fatalf("place market buy by quote failed: %v", err)
	}
	if res.Order.Status != PartiallyFilled {
		t.Fatalf("expected partially filled once the book runs dry, got %s", res.Order.Status)
	}
	buyer, _ := accts.Get("buyer")
	// Escrowed 300 up front; only 10*10=100 could be matched against the
	// sole resting ask; the unspent 200 must be refunded.
	if buyer.Balance(pair.Quote).String() != "900" {
		t.Fatalf("expected 900 quote remaining after partial fill+refund, got %s", buyer.Balance(pair.Quote).String())
	}
}

func TestPlaceOrderRejectsSellWithOnlyQuoteOrderQty(t *testing.T) {
	eng, accts, pair := newTestEngine(t)
	_ = accts.AdjustBalance("seller", pair.Base, amount.FromInt64(10))

	_, err := eng.PlaceOrder(PlaceOrderRequest{
		OrderID: "s1", UserID: "seller", PairID: pair.ID,
		Type: Market, Side: Sell, QuoteOrderQty: amount.FromInt64(100),
		TimeInForce: GTC, Timestamp: 1,
	})
	if err == nil {
		t.Fatalf("expected an error for a sell order with no quantity")
	}
}

func TestPlaceOrderRejectsMarketBuyWithNeitherQuantityNorQuoteOrderQty(t *testing.T) {
	eng, _, pair := newTestEngine(t)

	_, err := eng.PlaceOrder(PlaceOrderRequest{
		OrderID: "b1", UserID: "buyer", PairID: pair.ID,
		Type: Market, Side: Buy,
		TimeInForce: GTC, Timestamp: 1,
	})
	if err == nil {
		t.Fatalf("expected an error for a market buy with no sizing at all")
	}
}

func TestPlaceOrderEnforcesNotionalBounds(t *testing.T) {
	eng, accts, pair := newTestEngine(t)
	pair.MinNotional = amount.FromInt64(500)
	_ = accts.AdjustBalance("buyer", pair.Quote, amount.FromInt64(1000))

	_, err := eng.PlaceOrder(PlaceOrderRequest{
		OrderID: "b1", UserID: "buyer", PairID: pair.ID,
		Type: Limit, Side: Buy, Price: amount.FromInt64(10), Quantity: amount.FromInt64(10),
		TimeInForce: GTC, Timestamp: 1,
	})
	if err == nil {
		t.Fatalf("expected notional %d below minNotional %s to be rejected", 100, pair.MinNotional.String())
	}
}

func TestCancelRefundsUnmatchedEscrowExactly(t *testing.T) {
	eng, accts, pair := newTestEngine(t)
	_ = accts.AdjustBalance("buyer", pair.Quote, amount.FromInt64(1000))

	res, err := eng.PlaceOrder(PlaceOrderRequest{OrderID: "b1", UserID: "buyer", PairID: pair.ID, Type: Limit, Side: Buy, Price: amount.FromInt64(10), Quantity: amount.FromInt64(100), TimeInForce: GTC, Timestamp: 1})
	if err != nil {
		t.Fatalf("place buy failed: %v", err)
	}
	if res.Order.Status != Open {
		t.Fatalf("expected resting open order, got %s", res.Order.Status)
	}
	buyerEscrowed, _ := accts.Get("buyer")
	if !buyerEscrowed.Balance(pair.Quote).IsZero() {
		t.Fatalf("expected full escrow, got %s", buyerEscrowed.Balance(pair.Quote).String())
	}

	if _, err := eng.Cancel(pair.ID, "b1"); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	buyerAfter, _ := accts.Get("buyer")
	if buyerAfter.Balance(pair.Quote).String() != "1000" {
		t.Fatalf("expected exact refund to 1000, got %s", buyerAfter.Balance(pair.Quote).String())
	}
}
