package orderbook

import (
	"container/heap"
	"sync"

	"github.com/echo-chain/sidenode/internal/amount"
	"github.com/echo-chain/sidenode/internal/market"
)

// Book holds the bid/ask price levels for a single trading pair: a
// price-ordered heap plus a FIFO queue of orders at each price level,
// exactly the teacher's orderbook.OrderBook shape generalized to
// arbitrary-precision prices and many pairs.
type Book struct {
	mu sync.RWMutex

	bidHeap *MaxPriceHeap
	askHeap *MinPriceHeap

	bids map[string][]*Order // priceKey -> FIFO queue
	asks map[string][]*Order

	orderIndex map[string]string // order id -> priceKey
	sideIndex  map[string]Side   // order id -> side
	ordersByID map[string]*Order

	lastPrice *amount.Amount
}

func NewBook() *Book {
	bidHeap := &MaxPriceHeap{}
	askHeap := &MinPriceHeap{}
	heap.Init(bidHeap)
	heap.Init(askHeap)
	return &Book{
		bidHeap:    bidHeap,
		askHeap:    askHeap,
		bids:       make(map[string][]*Order),
		asks:       make(map[string][]*Order),
		orderIndex: make(map[string]string),
		sideIndex:  make(map[string]Side),
		ordersByID: make(map[string]*Order),
	}
}

func (b *Book) bestBid() (string, bool) { return b.bidHeap.Peek() }
func (b *Book) bestAsk() (string, bool) { return b.askHeap.Peek() }

func (b *Book) insert(o *Order) {
	key := priceKey(o.Price)
	if o.Side == Buy {
		if len(b.bids[key]) == 0 {
			heap.Push(b.bidHeap, key)
		}
		b.bids[key] = append(b.bids[key], o)
	} else {
		if len(b.asks[key]) == 0 {
			heap.Push(b.askHeap, key)
		}
		b.asks[key] = append(b.asks[key], o)
	}
	b.orderIndex[o.ID] = key
	b.sideIndex[o.ID] = o.Side
	b.ordersByID[o.ID] = o
}

func (b *Book) removeFromBidHeap(key string) {
	for i := 0; i < b.bidHeap.Len(); i++ {
		if (*b.bidHeap)[i] == key {
			heap.Remove(b.bidHeap, i)
			return
		}
	}
}

func (b *Book) removeFromAskHeap(key string) {
	for i := 0; i < b.askHeap.Len(); i++ {
		if (*b.askHeap)[i] == key {
			heap.Remove(b.askHeap, i)
			return
		}
	}
}

// removeLocked drops an order from its price-level queue and index. Caller
// holds b.mu.
func (b *Book) removeLocked(o *Order) {
	key := b.orderIndex[o.ID]
	if o.Side == Buy {
		arr := b.bids[key]
		for i, cand := range arr {
			if cand.ID == o.ID {
				b.bids[key] = append(arr[:i], arr[i+1:]...)
				break
			}
		}
		if len(b.bids[key]) == 0 {
			delete(b.bids, key)
			b.removeFromBidHeap(key)
		}
	} else {
		arr := b.asks[key]
		for i, cand := range arr {
			if cand.ID == o.ID {
				b.asks[key] = append(arr[:i], arr[i+1:]...)
				break
			}
		}
		if len(b.asks[key]) == 0 {
			delete(b.asks, key)
			b.removeFromAskHeap(key)
		}
	}
	delete(b.orderIndex, o.ID)
	delete(b.sideIndex, o.ID)
	delete(b.ordersByID, o.ID)
}

func (b *Book) GetOrder(id string) (*Order, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	o, ok := b.ordersByID[id]
	return o, ok
}

// AllOrders returns every resting order in the book, for the read-only API's
// per-pair and per-user order listings.
func (b *Book) AllOrders() []*Order {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]*Order, 0, len(b.ordersByID))
	for _, o := range b.ordersByID {
		out = append(out, o)
	}
	return out
}

// BidLevels returns aggregate bid levels, best (highest) price first.
func (b *Book) BidLevels() []market.PriceLevelView {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return aggregateLevels(b.bids, true)
}

// AskLevels returns aggregate ask levels, best (lowest) price first.
func (b *Book) AskLevels() []market.PriceLevelView {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return aggregateLevels(b.asks, false)
}

func aggregateLevels(levels map[string][]*Order, descending bool) []market.PriceLevelView {
	var out []market.PriceLevelView
	for _, orders := range levels {
		if len(orders) == 0 {
			continue
		}
		total := amount.Zero()
		for _, o := range orders {
			total = total.Add(o.Remaining())
		}
		out = append(out, market.PriceLevelView{Price: orders[0].Price, Quantity: total})
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0; j-- {
			less := out[j-1].Price.GT(out[j].Price)
			if descending {
				less = out[j-1].Price.LT(out[j].Price)
			}
			if !less {
				break
			}
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}
