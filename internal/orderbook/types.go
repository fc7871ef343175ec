// Package orderbook implements the price/time-priority limit-order matching
// engine with escrow (spec §4.4, §2.8): one book per trading pair, price
// levels ordered by a heap, FIFO within a level, maker-price trade
// generation, and FOK/IOC/GTC semantics. Grounded on the teacher's
// pkg/app/core/orderbook package (MaxPriceHeap/MinPriceHeap + price->FIFO
// map), generalized from a single perp market to many spot pairs and from
// int64 prices to the arbitrary-precision Amount type.
package orderbook

import "github.com/echo-chain/sidenode/internal/amount"

type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

type OrderType string

const (
	Limit  OrderType = "LIMIT"
	Market OrderType = "MARKET"
)

type TimeInForce string

const (
	GTC TimeInForce = "GTC"
	IOC TimeInForce = "IOC"
	FOK TimeInForce = "FOK"
)

type OrderStatus string

const (
	Open            OrderStatus = "OPEN"
	PartiallyFilled OrderStatus = "PARTIALLY_FILLED"
	Filled          OrderStatus = "FILLED"
	Cancelled       OrderStatus = "CANCELLED"
	Rejected        OrderStatus = "REJECTED"
	Expired         OrderStatus = "EXPIRED"
)

// Order is a resting or taker order (spec §3 Order).
type Order struct {
	ID              string
	UserID          string
	PairID          string
	Type            OrderType
	Side            Side
	Price           *amount.Amount // nil for MARKET unless a reference price was supplied
	Quantity        *amount.Amount // nil for a quote-sized MARKET buy (see QuoteOrderQty)
	QuoteOrderQty   *amount.Amount // BUY MARKET quote-denominated sizing
	FilledQuantity  *amount.Amount
	FilledNotional  *amount.Amount // cumulative quote spent, tracked only for a quote-sized MARKET buy
	Status          OrderStatus
	TimeInForce     TimeInForce
	CreatedAt       int64
	ExpiresAt       int64
}

// Remaining returns the unfilled quantity. Not valid for a quote-sized
// MARKET buy, which has no base Quantity to measure against -- use
// remainingQuote instead.
func (o *Order) Remaining() *amount.Amount {
	return o.Quantity.Sub(o.FilledQuantity)
}

// quoteSized reports whether o is a MARKET buy sized by how much quote
// currency to spend rather than by a base quantity.
func (o *Order) quoteSized() bool {
	return o.Side == Buy && o.Type == Market && o.QuoteOrderQty != nil
}

// remainingQuote returns the unspent portion of a quote-sized order's budget.
func (o *Order) remainingQuote() *amount.Amount {
	return o.QuoteOrderQty.Sub(o.FilledNotional)
}

func (o *Order) IsTerminal() bool {
	switch o.Status {
	case Filled, Cancelled, Rejected, Expired:
		return true
	}
	return false
}

// Trade is an append-only completed fill (spec §3 Trade).
type Trade struct {
	ID            string
	PairID        string
	MakerOrderID  string
	TakerOrderID  string
	Buyer         string
	Seller        string
	Price         *amount.Amount
	Quantity      *amount.Amount
	Timestamp     int64
}

// Total returns price * quantity (spec §8 invariant 5).
func (t *Trade) Total() *amount.Amount { return t.Price.Mul(t.Quantity) }
