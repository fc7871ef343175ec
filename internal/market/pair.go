package market

import (
	"fmt"

	"github.com/echo-chain/sidenode/internal/amount"
)

// PairStatus is the trading status of a TradingPair (spec §3).
type PairStatus string

const (
	Trading  PairStatus = "TRADING"
	PreTrade PairStatus = "PRE_TRADE"
	Halted   PairStatus = "HALTED"
)

// TradingPair is the orderbook market definition (spec §3 TradingPair).
// Identity is "base@baseIssuer-quote@quoteIssuer".
type TradingPair struct {
	ID             string
	Base           string
	BaseIssuer     string
	Quote          string
	QuoteIssuer    string
	TickSize       *amount.Amount
	LotSize        *amount.Amount
	MinNotional    *amount.Amount
	MinTradeAmount *amount.Amount
	MaxTradeAmount *amount.Amount
	Status         PairStatus
}

// PairID builds the canonical identity string for a pair.
func PairID(base, baseIssuer, quote, quoteIssuer string) string {
	return fmt.Sprintf("%s@%s-%s@%s", base, baseIssuer, quote, quoteIssuer)
}

// ValidateQuantize checks §3's invariants: tickSize/lotSize alignment.
func (p *TradingPair) ValidateQuantize(price, qty *amount.Amount) error {
	if price != nil && !p.TickSize.IsZero() {
		if new0 := mod(price, p.TickSize); !new0.IsZero() {
			return fmt.Errorf("price %s not aligned to tick size %s", price.String(), p.TickSize.String())
		}
	}
	if !p.LotSize.IsZero() {
		if rem := mod(qty, p.LotSize); !rem.IsZero() {
			return fmt.Errorf("quantity %s not aligned to lot size %s", qty.String(), p.LotSize.String())
		}
	}
	return nil
}

func mod(a, b *amount.Amount) *amount.Amount {
	q := a.Div(b)
	return a.Sub(q.Mul(b))
}

// PriceLevelView is an aggregated depth-of-book row used by order book
// snapshot views and the read-only API.
type PriceLevelView struct {
	Price    *amount.Amount
	Quantity *amount.Amount
}

// Registry holds all trading pairs by id.
type Registry struct {
	pairs map[string]*TradingPair
}

func NewRegistry() *Registry {
	return &Registry{pairs: make(map[string]*TradingPair)}
}

func (r *Registry) Register(p *TradingPair) error {
	if _, exists := r.pairs[p.ID]; exists {
		return fmt.Errorf("pair %s already exists", p.ID)
	}
	r.pairs[p.ID] = p
	return nil
}

func (r *Registry) Get(id string) (*TradingPair, bool) {
	p, ok := r.pairs[id]
	return p, ok
}

func (r *Registry) All() []*TradingPair {
	out := make([]*TradingPair, 0, len(r.pairs))
	for _, p := range r.pairs {
		out = append(out, p)
	}
	return out
}

func (r *Registry) SetStatus(id string, status PairStatus) error {
	p, ok := r.pairs[id]
	if !ok {
		return fmt.Errorf("pair %s not found", id)
	}
	p.Status = status
	return nil
}
