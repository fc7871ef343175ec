package amm

import (
	"math/big"

	"github.com/echo-chain/sidenode/internal/amount"
)

// Hop is one leg of a multi-hop AMM route (spec §4.3
// findBestTradeRoute).
type Hop struct {
	PoolID      string
	TokenIn     string
	TokenOut    string
	AmountIn    *amount.Amount
	AmountOut   *amount.Amount
	PriceImpact float64
}

// Route is a sequence of hops from the requested source token to the
// requested destination token.
type Route struct {
	Hops          []Hop
	FinalAmountOut *amount.Amount
}

type searchState struct {
	token    string
	amountIn *amount.Amount
	hops     []Hop
	lastPool string
}

// FindBestTradeRoute performs a breadth-first search over the pool graph
// (spec §4.3): each step enumerates outgoing pools from the current token,
// forbids immediate backtrack into the pool just used, computes the hop
// output via the swap formula, and records the full hop trail. The route
// with the largest finalAmountOut wins; ties break on fewer hops.
func FindBestTradeRoute(reg *Registry, from, to string, amountIn *amount.Amount, maxHops int) (*Route, bool) {
	if maxHops <= 0 {
		maxHops = 3
	}

	var best *Route
	queue := []searchState{{token: from, amountIn: amountIn}}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		if cur.token == to && len(cur.hops) > 0 {
			candidate := &Route{Hops: append([]Hop(nil), cur.hops...), FinalAmountOut: cur.amountIn}
			if best == nil || isBetterRoute(candidate, best) {
				best = candidate
			}
			continue
		}

		if len(cur.hops) >= maxHops {
			continue
		}

		for _, pool := range reg.PoolsForToken(cur.token) {
			if pool.ID == cur.lastPool {
				continue // forbid immediate backtrack into the same pool
			}
			tokenOut := pool.TokenA
			if cur.token == pool.TokenA {
				tokenOut = pool.TokenB
			}
			out, err := pool.SwapOut(cur.token, cur.amountIn, nil)
			if err != nil {
				continue
			}
			hop := Hop{
				PoolID:      pool.ID,
				TokenIn:     cur.token,
				TokenOut:    tokenOut,
				AmountIn:    cur.amountIn,
				AmountOut:   out,
				PriceImpact: priceImpact(pool, cur.token, cur.amountIn),
			}
			queue = append(queue, searchState{
				token:    tokenOut,
				amountIn: out,
				hops:     append(append([]Hop(nil), cur.hops...), hop),
				lastPool: pool.ID,
			})
		}
	}

	if best == nil {
		return nil, false
	}
	return best, true
}

func isBetterRoute(candidate, best *Route) bool {
	cmp := candidate.FinalAmountOut.Cmp(best.FinalAmountOut)
	if cmp != 0 {
		return cmp > 0
	}
	return len(candidate.Hops) < len(best.Hops)
}

// priceImpact is an approximate percentage move of the pool's mid-price
// caused by the hop, for reporting only (not used in route selection,
// which is strictly largest-output-wins per spec).
func priceImpact(pool *Pool, tokenIn string, amountIn *amount.Amount) float64 {
	reserveIn, _, _ := pool.reservesFor(tokenIn)
	if reserveIn.IsZero() {
		return 0
	}
	ratio := new(big.Float).Quo(new(big.Float).SetInt(amountIn.Big()), new(big.Float).SetInt(reserveIn.Big()))
	f, _ := ratio.Float64()
	return f * 100
}
