package orderbook

import "github.com/echo-chain/sidenode/internal/amount"

// priceKey encodes a price as its 32-char zero-padded wire string so plain
// lexicographic comparison equals numeric comparison (spec §2.1's "zero-
// padded lexicographic string encoding for ordered storage"), letting the
// heap below hold comparable strings instead of machine ints -- the same
// approach scaled up from the teacher's int64 MaxPriceHeap/MinPriceHeap to
// arbitrary-precision prices.
func priceKey(p *amount.Amount) string { return p.MustEncode() }

// MaxPriceHeap orders bid price levels highest-first.
type MaxPriceHeap []string

func (h MaxPriceHeap) Len() int           { return len(h) }
func (h MaxPriceHeap) Less(i, j int) bool { return h[i] > h[j] }
func (h MaxPriceHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *MaxPriceHeap) Push(x any)        { *h = append(*h, x.(string)) }
func (h *MaxPriceHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
func (h MaxPriceHeap) Peek() (string, bool) {
	if len(h) == 0 {
		return "", false
	}
	return h[0], true
}

// MinPriceHeap orders ask price levels lowest-first.
type MinPriceHeap []string

func (h MinPriceHeap) Len() int           { return len(h) }
func (h MinPriceHeap) Less(i, j int) bool { return h[i] < h[j] }
func (h MinPriceHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *MinPriceHeap) Push(x any)        { *h = append(*h, x.(string)) }
func (h *MinPriceHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
func (h MinPriceHeap) Peek() (string, bool) {
	if len(h) == 0 {
		return "", false
	}
	return h[0], true
}
