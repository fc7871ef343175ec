// Package amm implements the constant-product AMM engine: pool-id
// canonicalization, swap math with a fixed 3% input deduction, LP-token minting,
// and multi-hop route discovery (spec §4.3, §2.7). Grounded on the
// teacher's market.Registry pattern (pkg/app/core/market/registry.go) for
// the thread-safe named-entity registry shape, generalized from one
// perp-market struct to a graph of two-asset pools.
package amm

import (
	"fmt"
	"sort"
	"sync"

	"github.com/echo-chain/sidenode/internal/amount"
)

// SwapFeeBps is the fee recorded in every new pool's FeeBps field and
// reported with it; SwapOut does not read it and applies the fixed
// feeRetainedNumerator/feeRetainedDenominator ratio below instead.
const SwapFeeBps = 30

// feeRetainedNumerator/Denominator implement amountInAfterFee = amountIn *
// 9700/10000: 97% of amountIn is kept, a 3% deduction.
const feeRetainedNumerator = 9700
const feeRetainedDenominator = 10000

// MinimumLiquidity is permanently burned from the first LP mint (spec
// §4.3 "burn min(1000, L/1000)").
var MinimumLiquidity = amount.FromInt64(1000)

// Pool is a two-asset constant-product liquidity pool (spec §3
// LiquidityPool).
type Pool struct {
	ID            string
	TokenA        string
	TokenB        string
	ReserveA      *amount.Amount
	ReserveB      *amount.Amount
	TotalLPTokens *amount.Amount
	FeeBps        int
}

// PoolID canonicalizes two token identifiers into the pool's identity:
// the two symbols in lexicographic order joined by "_" (spec §4.3).
func PoolID(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + "_" + b
}

// NewPool creates an empty pool for the canonical pair (a, b).
func NewPool(tokenA, tokenB string) *Pool {
	lo, hi := tokenA, tokenB
	if lo > hi {
		lo, hi = hi, lo
	}
	return &Pool{
		ID:            PoolID(tokenA, tokenB),
		TokenA:        lo,
		TokenB:        hi,
		ReserveA:      amount.Zero(),
		ReserveB:      amount.Zero(),
		TotalLPTokens: amount.Zero(),
		FeeBps:        SwapFeeBps,
	}
}

// reservesFor returns (reserveIn, reserveOut) for a swap in the given
// direction, and whether tokenIn is TokenA.
func (p *Pool) reservesFor(tokenIn string) (in, out *amount.Amount, inIsA bool) {
	if tokenIn == p.TokenA {
		return p.ReserveA, p.ReserveB, true
	}
	return p.ReserveB, p.ReserveA, false
}

// SwapOut computes the output amount for swapping amountIn of tokenIn,
// implementing spec §4.3's formula exactly:
//
//	amountInAfterFee = amountIn * 9700 / 10000
//	amountOut        = amountInAfterFee * reserveOut / (reserveIn + amountInAfterFee)
//
// Fails if either reserve is zero, amountInAfterFee is zero, or the
// computed amountOut is below minAmountOut (slippage guard).
func (p *Pool) SwapOut(tokenIn string, amountIn, minAmountOut *amount.Amount) (*amount.Amount, error) {
	reserveIn, reserveOut, _ := p.reservesFor(tokenIn)
	if reserveIn.IsZero() || reserveOut.IsZero() {
		return nil, fmt.Errorf("pool %s: reserve is zero", p.ID)
	}
	amountInAfterFee := amountIn.MulDiv(feeRetainedNumerator, feeRetainedDenominator)
	if amountInAfterFee.IsZero() {
		return nil, fmt.Errorf("pool %s: amountInAfterFee is zero", p.ID)
	}
	numerator := amountInAfterFee.Mul(reserveOut)
	denominator := reserveIn.Add(amountInAfterFee)
	amountOut := numerator.Div(denominator)
	if minAmountOut != nil && amountOut.LT(minAmountOut) {
		return nil, fmt.Errorf("pool %s: amountOut %s below minAmountOut %s", p.ID, amountOut.String(), minAmountOut.String())
	}
	return amountOut, nil
}

// ApplySwap commits the reserve update for a swap of amountIn(tokenIn) ->
// amountOut. The caller is responsible for the corresponding account
// balance moves via accounts.Manager.AdjustBalance.
func (p *Pool) ApplySwap(tokenIn string, amountIn, amountOut *amount.Amount) {
	if tokenIn == p.TokenA {
		p.ReserveA = p.ReserveA.Add(amountIn)
		p.ReserveB = p.ReserveB.Sub(amountOut)
	} else {
		p.ReserveB = p.ReserveB.Add(amountIn)
		p.ReserveA = p.ReserveA.Sub(amountOut)
	}
}

// K returns the constant-product invariant reserveA*reserveB (spec §8
// invariant 2: must be monotonically non-decreasing across swaps).
func (p *Pool) K() *amount.Amount { return p.ReserveA.Mul(p.ReserveB) }

// Registry is the thread-safe pool graph, mirroring the shape of
// market.Registry (RWMutex + map keyed by a canonical id).
type Registry struct {
	mu    sync.RWMutex
	pools map[string]*Pool
	// byToken indexes pool ids reachable from a given token, for BFS
	// route discovery.
	byToken map[string]map[string]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		pools:   make(map[string]*Pool),
		byToken: make(map[string]map[string]struct{}),
	}
}

func (r *Registry) Create(tokenA, tokenB string) (*Pool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := PoolID(tokenA, tokenB)
	if _, exists := r.pools[id]; exists {
		return nil, fmt.Errorf("pool %s already exists", id)
	}
	p := NewPool(tokenA, tokenB)
	r.pools[id] = p
	r.indexLocked(p)
	return p, nil
}

func (r *Registry) indexLocked(p *Pool) {
	for _, tok := range []string{p.TokenA, p.TokenB} {
		if r.byToken[tok] == nil {
			r.byToken[tok] = make(map[string]struct{})
		}
		r.byToken[tok][p.ID] = struct{}{}
	}
}

func (r *Registry) Get(id string) (*Pool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.pools[id]
	return p, ok
}

func (r *Registry) GetByTokens(a, b string) (*Pool, bool) {
	return r.Get(PoolID(a, b))
}

func (r *Registry) All() []*Pool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Pool, 0, len(r.pools))
	for _, p := range r.pools {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// PoolsForToken returns the pools with outgoing liquidity from token.
func (r *Registry) PoolsForToken(token string) []*Pool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Pool
	for id := range r.byToken[token] {
		if p, ok := r.pools[id]; ok {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// PoolsForTokenSymbol returns pool ids that include the given symbol; used
// by the HTTP /pools/token/:symbol projection.
func (r *Registry) PoolsForTokenSymbol(symbol string) []*Pool {
	return r.PoolsForToken(symbol)
}
