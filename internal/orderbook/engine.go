package orderbook

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/echo-chain/sidenode/internal/accounts"
	"github.com/echo-chain/sidenode/internal/amount"
	"github.com/echo-chain/sidenode/internal/events"
	"github.com/echo-chain/sidenode/internal/market"
)

// Engine owns one Book per trading pair plus the shared account ledger and
// event journal, and implements the escrow-aware matching algorithm (spec
// §4.4). Grounded on the teacher's matching engine wiring in
// pkg/app/core/orderbook, generalized from one perp market to a registry
// of spot pairs.
type Engine struct {
	mu    sync.Mutex
	books map[string]*Book
	pairs *market.Registry
	accts *accounts.Manager
	jrnl  *events.Journal

	tradesMu sync.RWMutex
	trades   map[string]Trade
	tradeIDs []string // insertion order, oldest first
}

func NewEngine(pairs *market.Registry, accts *accounts.Manager, jrnl *events.Journal) *Engine {
	return &Engine{
		books:  make(map[string]*Book),
		pairs:  pairs,
		accts:  accts,
		jrnl:   jrnl,
		trades: make(map[string]Trade),
	}
}

func (e *Engine) bookFor(pairID string) *Book {
	e.mu.Lock()
	defer e.mu.Unlock()
	b, ok := e.books[pairID]
	if !ok {
		b = NewBook()
		e.books[pairID] = b
	}
	return b
}

// PlaceOrderRequest is the input to PlaceOrder (spec §4.4 step 1).
type PlaceOrderRequest struct {
	OrderID       string
	UserID        string
	PairID        string
	Type          OrderType
	Side          Side
	Price         *amount.Amount // required for LIMIT
	Quantity      *amount.Amount
	QuoteOrderQty *amount.Amount // BUY MARKET sizing by quote amount
	TimeInForce   TimeInForce
	Timestamp     int64
}

// PlaceOrderResult reports the resting/terminal order plus any trades
// generated during matching.
type PlaceOrderResult struct {
	Order  *Order
	Trades []Trade
}

// PlaceOrder implements the seven-step escrow-aware matching algorithm:
// validate against the pair's trading bounds, escrow the order's maximum
// committed value, match against the opposite side at maker price, apply
// TimeInForce semantics to any unfilled remainder, and rest what's left.
func (e *Engine) PlaceOrder(req PlaceOrderRequest) (*PlaceOrderResult, error) {
	pair, ok := e.pairs.Get(req.PairID)
	if !ok {
		return nil, fmt.Errorf("placeOrder: unknown pair %s", req.PairID)
	}
	if pair.Status != market.Trading {
		return nil, fmt.Errorf("placeOrder: pair %s is not open for trading", req.PairID)
	}
	if req.Type == Limit {
		if req.Price == nil || !req.Price.IsPositive() {
			return nil, fmt.Errorf("placeOrder: limit order requires a positive price")
		}
		if req.Quantity == nil {
			return nil, fmt.Errorf("placeOrder: limit order requires a quantity")
		}
		if err := pair.ValidateQuantize(req.Price, req.Quantity); err != nil {
			return nil, err
		}
	}
	if req.Side == Sell && req.Quantity == nil {
		return nil, fmt.Errorf("placeOrder: sell order requires a quantity")
	}

	order := &Order{
		ID:             req.OrderID,
		UserID:         req.UserID,
		PairID:         req.PairID,
		Type:           req.Type,
		Side:           req.Side,
		Price:          req.Price,
		Quantity:       req.Quantity,
		QuoteOrderQty:  req.QuoteOrderQty,
		FilledQuantity: amount.Zero(),
		FilledNotional: amount.Zero(),
		Status:         Open,
		TimeInForce:    req.TimeInForce,
		CreatedAt:      req.Timestamp,
	}

	escrowToken, escrowAmount, err := e.escrowRequirement(pair, order)
	if err != nil {
		return nil, fmt.Errorf("placeOrder: %w", err)
	}
	if err := checkNotionalBounds(pair, escrowAmount); err != nil {
		return nil, err
	}

	ledger := accounts.NewLedger(e.accts)
	if escrowAmount.IsPositive() {
		if err := ledger.Move(order.UserID, escrowToken, escrowAmount.Neg()); err != nil {
			return nil, fmt.Errorf("placeOrder: %w", err)
		}
	}

	book := e.bookFor(req.PairID)
	book.mu.Lock()
	trades, err := e.match(book, pair, order, ledger)
	book.mu.Unlock()
	if err != nil {
		ledger.Unwind()
		return nil, err
	}

	if order.Type == Market {
		// Unfilled market quantity never rests; refund any unused escrow.
		order.Status = terminalMarketStatus(order)
		e.refundUnused(ledger, pair, order, escrowToken)
	} else {
		remaining := order.Remaining()
		switch order.TimeInForce {
		case FOK:
			// match() cancels and refunds an order the book cannot fill
			// in full; one that passed that check is filled here.
			if remaining.IsZero() {
				order.Status = Filled
			}
		case IOC:
			if remaining.IsPositive() {
				order.Status = partialOrCancelled(order)
				e.refundUnused(ledger, pair, order, escrowToken)
			}
		default: // GTC
			if remaining.IsPositive() {
				order.Status = partialOrOpen(order)
				book.mu.Lock()
				book.insert(order)
				book.mu.Unlock()
			} else {
				order.Status = Filled
			}
		}
	}

	for i := range trades {
		e.emitTrade(&trades[i])
	}

	return &PlaceOrderResult{Order: order, Trades: trades}, nil
}

func terminalMarketStatus(o *Order) OrderStatus {
	if o.quoteSized() {
		if o.FilledNotional.IsZero() {
			return Cancelled
		}
		if o.remainingQuote().IsZero() {
			return Filled
		}
		return PartiallyFilled
	}
	if o.FilledQuantity.IsZero() {
		return Cancelled
	}
	if o.Remaining().IsZero() {
		return Filled
	}
	return PartiallyFilled
}

func partialOrCancelled(o *Order) OrderStatus {
	if o.FilledQuantity.IsZero() {
		return Cancelled
	}
	return PartiallyFilled
}

func partialOrOpen(o *Order) OrderStatus {
	if o.FilledQuantity.IsZero() {
		return Open
	}
	return PartiallyFilled
}

// escrowRequirement computes the token and amount to debit up front: the
// full quote notional for a BUY (price*qty, or the quote order quantity for
// a market buy sized in quote terms), the full base quantity for a SELL. A
// BUY with neither a price nor a quoteOrderQty (a market buy sized only in
// base terms) has no way to bound its quote cost ahead of matching and is
// rejected rather than escrowed for zero -- spec §4.4 step 1 allows
// quoteOrderQty only for a MARKET BUY, and a MARKET BUY always needs one.
func (e *Engine) escrowRequirement(pair *market.TradingPair, o *Order) (string, *amount.Amount, error) {
	if o.Side == Buy {
		if o.Type == Market && o.QuoteOrderQty != nil {
			return pair.Quote, o.QuoteOrderQty, nil
		}
		if o.Price == nil {
			return "", nil, fmt.Errorf("escrowRequirement: market buy order requires quoteOrderQty")
		}
		if o.Quantity == nil {
			return "", nil, fmt.Errorf("escrowRequirement: buy order requires a quantity")
		}
		return pair.Quote, o.Price.Mul(o.Quantity), nil
	}
	if o.Quantity == nil {
		return "", nil, fmt.Errorf("escrowRequirement: sell order requires a quantity")
	}
	return pair.Base, o.Quantity, nil
}

// checkNotionalBounds enforces spec §4.4 step 1's trading-bounds check
// against the order's escrow amount: for a BUY this is the quote notional
// (price*qty, or quoteOrderQty), for a SELL the base quantity.
func checkNotionalBounds(pair *market.TradingPair, notional *amount.Amount) error {
	if pair.MinNotional != nil && pair.MinNotional.IsPositive() && notional.LT(pair.MinNotional) {
		return fmt.Errorf("placeOrder: notional %s below minimum notional %s", notional.String(), pair.MinNotional.String())
	}
	if pair.MinTradeAmount != nil && pair.MinTradeAmount.IsPositive() && notional.LT(pair.MinTradeAmount) {
		return fmt.Errorf("placeOrder: notional %s below minimum trade amount %s", notional.String(), pair.MinTradeAmount.String())
	}
	if pair.MaxTradeAmount != nil && pair.MaxTradeAmount.IsPositive() && notional.GT(pair.MaxTradeAmount) {
		return fmt.Errorf("placeOrder: notional %s exceeds maximum trade amount %s", notional.String(), pair.MaxTradeAmount.String())
	}
	return nil
}

// refundUnused returns escrow committed against quantity that never
// matched. For BUY orders this is computed from the unused notional at the
// order's own price (or remaining quote budget for a market buy); for SELL
// it is the unmatched base quantity.
func (e *Engine) refundUnused(ledger *accounts.Ledger, pair *market.TradingPair, o *Order, escrowToken string) {
	if o.quoteSized() {
		if refund := o.remainingQuote(); refund.IsPositive() {
			_ = ledger.Move(o.UserID, escrowToken, refund)
		}
		return
	}
	remaining := o.Remaining()
	if remaining.IsZero() {
		return
	}
	if o.Side == Buy {
		if o.Price != nil {
			refund := o.Price.Mul(remaining)
			_ = ledger.Move(o.UserID, escrowToken, refund)
		}
		return
	}
	_ = ledger.Move(o.UserID, escrowToken, remaining)
}

// match walks the opposite side of the book at maker price, generating
// trades until the incoming order is filled or the book is exhausted (or,
// for a LIMIT order, until price no longer crosses). FOK is evaluated as a
// read-only dry run over the current book before any ledger transfers commit.
func (e *Engine) match(book *Book, pair *market.TradingPair, taker *Order, ledger *accounts.Ledger) ([]Trade, error) {
	if taker.TimeInForce == FOK {
		if !e.canFullyFill(book, taker) {
			taker.Status = Cancelled
			e.refundUnused(ledger, pair, taker, escrowTokenFor(pair, taker))
			return nil, nil
		}
	}

	var trades []Trade
	for {
		if taker.quoteSized() {
			if !taker.remainingQuote().IsPositive() {
				break
			}
		} else if taker.Remaining().IsZero() {
			break
		}
		makerKey, ok := oppositeTop(book, taker.Side)
		if !ok {
			break
		}
		makerQueue := oppositeQueue(book, taker.Side, makerKey)
		if len(makerQueue) == 0 {
			break
		}
		maker := makerQueue[0]
		makerPrice := maker.Price
		if taker.Type == Limit && !pricesCross(taker, makerPrice) {
			break
		}

		var fillQty *amount.Amount
		if taker.quoteSized() {
			affordable := taker.remainingQuote().Div(makerPrice)
			if !affordable.IsPositive() {
				break
			}
			fillQty = amount.Min(affordable, maker.Remaining())
		} else {
			fillQty = amount.Min(taker.Remaining(), maker.Remaining())
		}
		trade := e.settleFill(pair, taker, maker, makerPrice, fillQty, ledger)
		trades = append(trades, trade)

		if maker.Remaining().IsZero() {
			maker.Status = Filled
			book.removeLocked(maker)
		} else {
			maker.Status = PartiallyFilled
		}
	}
	return trades, nil
}

func escrowTokenFor(pair *market.TradingPair, o *Order) string {
	if o.Side == Buy {
		return pair.Quote
	}
	return pair.Base
}

func pricesCross(taker *Order, makerPrice *amount.Amount) bool {
	if taker.Price == nil {
		return true
	}
	if taker.Side == Buy {
		return taker.Price.GTE(makerPrice)
	}
	return taker.Price.LTE(makerPrice)
}

func oppositeTop(book *Book, takerSide Side) (string, bool) {
	if takerSide == Buy {
		return book.bestAsk()
	}
	return book.bestBid()
}

func oppositeQueue(book *Book, takerSide Side, key string) []*Order {
	if takerSide == Buy {
		return book.asks[key]
	}
	return book.bids[key]
}

// canFullyFill simulates matching without mutating account balances or the
// book, to decide FOK admission (spec §4.4 "all-or-nothing").
func (e *Engine) canFullyFill(book *Book, taker *Order) bool {
	if taker.quoteSized() {
		return e.canFullyFillQuote(book, taker)
	}
	need := taker.Remaining()
	available := amount.Zero()
	if taker.Side == Buy {
		for _, key := range *book.askHeap {
			if taker.Type == Limit && taker.Price != nil {
				askPrice, err := amount.Parse(key)
				if err != nil || taker.Price.LT(askPrice) {
					continue
				}
			}
			for _, o := range book.asks[key] {
				available = available.Add(o.Remaining())
			}
		}
	} else {
		for _, key := range *book.bidHeap {
			if taker.Type == Limit && taker.Price != nil {
				bidPrice, err := amount.Parse(key)
				if err != nil || taker.Price.GT(bidPrice) {
					continue
				}
			}
			for _, o := range book.bids[key] {
				available = available.Add(o.Remaining())
			}
		}
	}
	return available.GTE(need)
}

// canFullyFillQuote is canFullyFill's counterpart for a quote-sized MARKET
// buy: it sums ask-side notional (price*qty per level) rather than base
// quantity, since what's being bounded is quote currency to spend.
func (e *Engine) canFullyFillQuote(book *Book, taker *Order) bool {
	need := taker.remainingQuote()
	available := amount.Zero()
	for _, key := range *book.askHeap {
		askPrice, err := amount.Parse(key)
		if err != nil {
			continue
		}
		for _, o := range book.asks[key] {
			available = available.Add(askPrice.Mul(o.Remaining()))
		}
	}
	return available.GTE(need)
}

// settleFill moves escrowed funds between maker and taker at the maker's
// resting price (price-time priority's defining rule: the resting order
// sets the execution price) and records the fill against both orders.
func (e *Engine) settleFill(pair *market.TradingPair, taker, maker *Order, price, qty *amount.Amount, ledger *accounts.Ledger) Trade {
	taker.FilledQuantity = taker.FilledQuantity.Add(qty)
	maker.FilledQuantity = maker.FilledQuantity.Add(qty)

	notional := price.Mul(qty)

	var buyer, seller *Order
	if taker.Side == Buy {
		buyer, seller = taker, maker
	} else {
		buyer, seller = maker, taker
	}

	// Buyer already escrowed quote at order entry (at worst at their own
	// limit price, which is >= price here); release base to buyer, credit
	// quote to seller, and refund the buyer any price improvement.
	_ = ledger.Move(buyer.UserID, pair.Base, qty)
	_ = ledger.Move(seller.UserID, pair.Quote, notional)
	if buyer.Price != nil && buyer.Price.GT(price) {
		improvement := buyer.Price.Sub(price).Mul(qty)
		_ = ledger.Move(buyer.UserID, pair.Quote, improvement)
	}
	if buyer.quoteSized() {
		buyer.FilledNotional = buyer.FilledNotional.Add(notional)
	}

	return Trade{
		ID:           tradeID(pair.ID, maker.ID, taker.ID, qty, price),
		PairID:       pair.ID,
		MakerOrderID: maker.ID,
		TakerOrderID: taker.ID,
		Buyer:        buyer.UserID,
		Seller:       seller.UserID,
		Price:        price,
		Quantity:     qty,
		Timestamp:    taker.CreatedAt,
	}
}

func tradeID(pairID, makerID, takerID string, qty, price *amount.Amount) string {
	h := sha256.Sum256([]byte(pairID + "|" + makerID + "|" + takerID + "|" + qty.String() + "|" + price.String()))
	return hex.EncodeToString(h[:])[:16]
}

func (e *Engine) emitTrade(t *Trade) {
	e.tradesMu.Lock()
	e.trades[t.ID] = *t
	e.tradeIDs = append(e.tradeIDs, t.ID)
	e.tradesMu.Unlock()

	if e.jrnl == nil {
		return
	}
	_, _ = e.jrnl.Append("orderbook", "trade", t.Buyer, map[string]any{
		"tradeId": t.ID,
		"pairId":  t.PairID,
		"maker":   t.MakerOrderID,
		"taker":   t.TakerOrderID,
		"buyer":   t.Buyer,
		"seller":  t.Seller,
		"price":   t.Price.String(),
		"quantity": t.Quantity.String(),
	}, t.ID, t.Timestamp)
}

// Cancel removes a resting order from its book and refunds any unmatched
// escrow to its owner.
func (e *Engine) Cancel(pairID, orderID string) (*Order, error) {
	pair, ok := e.pairs.Get(pairID)
	if !ok {
		return nil, fmt.Errorf("cancel: unknown pair %s", pairID)
	}
	book := e.bookFor(pairID)
	book.mu.Lock()
	o, ok := book.ordersByID[orderID]
	if !ok {
		book.mu.Unlock()
		return nil, fmt.Errorf("cancel: order %s not found", orderID)
	}
	book.removeLocked(o)
	book.mu.Unlock()

	if o.IsTerminal() {
		return o, fmt.Errorf("cancel: order %s already terminal", orderID)
	}
	o.Status = Cancelled

	ledger := accounts.NewLedger(e.accts)
	remaining := o.Remaining()
	if remaining.IsPositive() {
		if o.Side == Buy && o.Price != nil {
			_ = ledger.Move(o.UserID, pair.Quote, o.Price.Mul(remaining))
		} else {
			_ = ledger.Move(o.UserID, pair.Base, remaining)
		}
	}
	return o, nil
}

// Book returns the live book for a pair, creating an empty one if needed,
// so the read-only API can render depth-of-book and recent orders.
func (e *Engine) Book(pairID string) *Book {
	return e.bookFor(pairID)
}

// GetOrder looks up a resting or recently-matched order by id across the
// pair's book.
func (e *Engine) GetOrder(pairID, orderID string) (*Order, bool) {
	return e.bookFor(pairID).GetOrder(orderID)
}

// OrdersForPair returns every resting order on a pair's book, for the
// read-only /markets/orders/pair/:id projection.
func (e *Engine) OrdersForPair(pairID string) []*Order {
	return e.bookFor(pairID).AllOrders()
}

// OrdersForUser scans every pair's book for a user's resting orders, for
// the read-only /markets/orders/user/:id projection.
func (e *Engine) OrdersForUser(userID string) []*Order {
	e.mu.Lock()
	books := make([]*Book, 0, len(e.books))
	for _, b := range e.books {
		books = append(books, b)
	}
	e.mu.Unlock()

	var out []*Order
	for _, b := range books {
		for _, o := range b.AllOrders() {
			if o.UserID == userID {
				out = append(out, o)
			}
		}
	}
	return out
}

// FindOrder scans every pair's book for an order by id, for the read-only
// /markets/orders/:id projection which is not scoped to a pair.
func (e *Engine) FindOrder(orderID string) (*Order, bool) {
	e.mu.Lock()
	books := make([]*Book, 0, len(e.books))
	for _, b := range e.books {
		books = append(books, b)
	}
	e.mu.Unlock()

	for _, b := range books {
		if o, ok := b.GetOrder(orderID); ok {
			return o, true
		}
	}
	return nil, false
}

// GetTrade looks up a completed trade by id.
func (e *Engine) GetTrade(id string) (Trade, bool) {
	e.tradesMu.RLock()
	defer e.tradesMu.RUnlock()
	t, ok := e.trades[id]
	return t, ok
}

// TradesForPair returns completed trades for a pair, newest first, within
// [fromTimestamp, toTimestamp] when those bounds are non-zero.
func (e *Engine) TradesForPair(pairID string, fromTimestamp, toTimestamp int64) []Trade {
	e.tradesMu.RLock()
	defer e.tradesMu.RUnlock()
	var out []Trade
	for i := len(e.tradeIDs) - 1; i >= 0; i-- {
		t := e.trades[e.tradeIDs[i]]
		if t.PairID != pairID {
			continue
		}
		if fromTimestamp != 0 && t.Timestamp < fromTimestamp {
			continue
		}
		if toTimestamp != 0 && t.Timestamp > toTimestamp {
			continue
		}
		out = append(out, t)
	}
	return out
}

// TradesForOrder returns completed trades where orderID was either side.
func (e *Engine) TradesForOrder(orderID string) []Trade {
	e.tradesMu.RLock()
	defer e.tradesMu.RUnlock()
	var out []Trade
	for i := len(e.tradeIDs) - 1; i >= 0; i-- {
		t := e.trades[e.tradeIDs[i]]
		if t.MakerOrderID == orderID || t.TakerOrderID == orderID {
			out = append(out, t)
		}
	}
	return out
}
