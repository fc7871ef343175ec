// Package market holds the token registry and trading-pair definitions
// shared by the AMM, orderbook, and hybrid router (spec §3 Token,
// TradingPair). Adapted from the teacher's pkg/app/core/market package
// (which held perpetual-futures MarketParams); generalized here to the
// spot token + pair domain.
package market

import (
	"fmt"
	"sync"

	"github.com/echo-chain/sidenode/internal/amount"
)

// Token is a registered token symbol (spec §3 Token).
type Token struct {
	Symbol      string
	Issuer      string
	Decimals    int
	TotalSupply *amount.Amount
	MaxSupply   *amount.Amount // nil = unbounded
	Mintable    bool
	Metadata    map[string]any
}

// TokenRegistry tracks all known tokens by symbol (symbols are globally unique
// across issuers in this engine, matching spec §3's "Token: symbol"
// identity).
type TokenRegistry struct {
	mu     sync.Mutex
	tokens map[string]*Token
}

func NewTokenRegistry() *TokenRegistry {
	return &TokenRegistry{tokens: make(map[string]*Token)}
}

func (r *TokenRegistry) Exists(symbol string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.tokens[symbol]
	return ok
}

func (r *TokenRegistry) Get(symbol string) (*Token, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[symbol]
	return t, ok
}

func (r *TokenRegistry) Register(t *Token) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tokens[t.Symbol]; exists {
		return fmt.Errorf("token %s already exists", t.Symbol)
	}
	r.tokens[t.Symbol] = t
	return nil
}

func (r *TokenRegistry) All() []*Token {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Token, 0, len(r.tokens))
	for _, t := range r.tokens {
		out = append(out, t)
	}
	return out
}

// IncreaseSupply grows a token's totalSupply by amt, rejecting the mint if
// it would exceed maxSupply (spec §3 Token invariant: totalSupply ≤
// maxSupply).
func (r *TokenRegistry) IncreaseSupply(symbol string, amt *amount.Amount) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[symbol]
	if !ok {
		return fmt.Errorf("token %s not found", symbol)
	}
	next := t.TotalSupply.Add(amt)
	if t.MaxSupply != nil && next.GT(t.MaxSupply) {
		return fmt.Errorf("token %s: mint would exceed maxSupply", symbol)
	}
	t.TotalSupply = next
	return nil
}

// DecreaseSupply shrinks a token's totalSupply by amt (TOKEN_WITHDRAW
// burning supply as it leaves the chain).
func (r *TokenRegistry) DecreaseSupply(symbol string, amt *amount.Amount) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[symbol]
	if !ok {
		return fmt.Errorf("token %s not found", symbol)
	}
	if amt.GT(t.TotalSupply) {
		return fmt.Errorf("token %s: withdraw would underflow totalSupply", symbol)
	}
	t.TotalSupply = t.TotalSupply.Sub(amt)
	return nil
}

// UpdateMetadata replaces a token's mutable metadata fields (issuer-only
// per the TOKEN_UPDATE handler's Validate step).
func (r *TokenRegistry) UpdateMetadata(symbol string, metadata map[string]any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[symbol]
	if !ok {
		return fmt.Errorf("token %s not found", symbol)
	}
	t.Metadata = metadata
	return nil
}
