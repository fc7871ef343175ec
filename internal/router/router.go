// Package router implements the hybrid trade router (spec §4.5): a single
// entry point that sends a trade to the orderbook only (when a limit price
// is given), or splits it across AMM pools and orderbook depth otherwise,
// aggregating outputs and enforcing a post-trade slippage bound. Grounded
// on the teacher's single-venue order dispatch, generalized to fan out
// across two liquidity venues the way internal/amm's own route discovery
// fans out across pools.
package router

import (
	"fmt"

	"github.com/echo-chain/sidenode/internal/amm"
	"github.com/echo-chain/sidenode/internal/amount"
	"github.com/echo-chain/sidenode/internal/market"
	"github.com/echo-chain/sidenode/internal/orderbook"
)

// Venue identifies which liquidity source a RouteAllocation dispatches to.
type Venue string

const (
	VenueAMM       Venue = "AMM"
	VenueOrderbook Venue = "ORDERBOOK"
)

// RouteAllocation is one caller-specified leg of an explicit route split;
// percentages across all legs of a request must sum to 100.
type RouteAllocation struct {
	Venue      Venue
	Percentage int64 // whole percent, 1-100
}

// HybridTradeRequest is the router's single input (spec §4.5).
type HybridTradeRequest struct {
	Trader             string
	PairID             string
	TokenIn            string
	TokenOut           string
	AmountIn           *amount.Amount
	Price              *amount.Amount // if set, routes only to the orderbook as a LIMIT order
	MinAmountOut       *amount.Amount
	MaxSlippagePercent int64 // basis points out of 10000, 0 means unset
	Routes             []RouteAllocation
	Timestamp          int64
}

// LegResult reports one executed leg (AMM hop sequence or an orderbook
// order) for reporting purposes only.
type LegResult struct {
	Venue     Venue
	AmountIn  *amount.Amount
	AmountOut *amount.Amount
}

// HybridTradeResult is the router's output.
type HybridTradeResult struct {
	Legs           []LegResult
	TotalAmountOut *amount.Amount
	Failed         bool
	FailureReason  string
}

// Router ties the AMM pool registry, orderbook matching engine, and
// trading-pair registry together to execute hybrid trades.
type Router struct {
	pools *amm.Registry
	book  *orderbook.Engine
	pairs *market.Registry
}

func NewRouter(pools *amm.Registry, book *orderbook.Engine, pairs *market.Registry) *Router {
	return &Router{pools: pools, book: book, pairs: pairs}
}

// Route implements §4.5. Exactly one of price or (minAmountOut ||
// maxSlippagePercent) must be set; a price routes only to the orderbook as
// a resting-or-crossing LIMIT order, otherwise the router aggregates AMM
// and orderbook liquidity (explicit allocation if the caller supplied one,
// best-effort auto-split otherwise) and checks the aggregate output
// against the slippage bound.
func (r *Router) Route(req HybridTradeRequest) (*HybridTradeResult, error) {
	hasPrice := req.Price != nil
	hasSlippageBound := req.MinAmountOut != nil || req.MaxSlippagePercent > 0
	if hasPrice == hasSlippageBound {
		return nil, fmt.Errorf("route: exactly one of price or (minAmountOut|maxSlippagePercent) must be set")
	}

	if hasPrice {
		return r.routeLimitOnly(req)
	}
	return r.routeAggregated(req)
}

func (r *Router) routeLimitOnly(req HybridTradeRequest) (*HybridTradeResult, error) {
	pair, ok := r.pairs.Get(req.PairID)
	if !ok {
		return nil, fmt.Errorf("route: unknown pair %s", req.PairID)
	}
	side := orderbook.Buy
	if req.TokenIn == pair.Base {
		side = orderbook.Sell
	}
	res, err := r.book.PlaceOrder(orderbook.PlaceOrderRequest{
		OrderID:     orderID(req),
		UserID:      req.Trader,
		PairID:      req.PairID,
		Type:        orderbook.Limit,
		Side:        side,
		Price:       req.Price,
		Quantity:    req.AmountIn,
		TimeInForce: orderbook.GTC,
		Timestamp:   req.Timestamp,
	})
	if err != nil {
		return nil, err
	}
	out := amount.Zero()
	for _, t := range res.Trades {
		out = out.Add(t.Quantity)
	}
	return &HybridTradeResult{
		Legs:           []LegResult{{Venue: VenueOrderbook, AmountIn: req.AmountIn, AmountOut: out}},
		TotalAmountOut: out,
	}, nil
}

func (r *Router) routeAggregated(req HybridTradeRequest) (*HybridTradeResult, error) {
	allocations := req.Routes
	if len(allocations) == 0 {
		allocations = r.autoSplit(req)
	} else if err := validateAllocations(allocations); err != nil {
		return nil, err
	}

	var preTradeQuote *amm.Route
	if req.MinAmountOut == nil && req.MaxSlippagePercent > 0 {
		preTradeQuote, _ = amm.FindBestTradeRoute(r.pools, req.TokenIn, req.TokenOut, req.AmountIn, 3)
	}

	var legs []LegResult
	total := amount.Zero()
	for _, alloc := range allocations {
		legAmountIn := req.AmountIn.PercentOf(alloc.Percentage * 100)
		if legAmountIn.IsZero() {
			continue
		}
		out, err := r.dispatchLeg(req, alloc.Venue, legAmountIn)
		if err != nil {
			continue // best-effort per-leg: a failed leg contributes zero, not a hard error
		}
		legs = append(legs, LegResult{Venue: alloc.Venue, AmountIn: legAmountIn, AmountOut: out})
		total = total.Add(out)
	}

	result := &HybridTradeResult{Legs: legs, TotalAmountOut: total}
	if reason, violated := violatesSlippage(req, total, preTradeQuote); violated {
		result.Failed = true
		result.FailureReason = reason
	}
	return result, nil
}

func (r *Router) dispatchLeg(req HybridTradeRequest, venue Venue, legAmountIn *amount.Amount) (*amount.Amount, error) {
	switch venue {
	case VenueAMM:
		route, ok := amm.FindBestTradeRoute(r.pools, req.TokenIn, req.TokenOut, legAmountIn, 3)
		if !ok {
			return nil, fmt.Errorf("route: no AMM route for %s->%s", req.TokenIn, req.TokenOut)
		}
		for _, hop := range route.Hops {
			pool, ok := r.pools.Get(hop.PoolID)
			if !ok {
				return nil, fmt.Errorf("route: pool %s vanished mid-route", hop.PoolID)
			}
			pool.ApplySwap(hop.TokenIn, hop.AmountIn, hop.AmountOut)
		}
		return route.FinalAmountOut, nil
	case VenueOrderbook:
		pair, ok := r.pairs.Get(req.PairID)
		if !ok {
			return nil, fmt.Errorf("route: unknown pair %s", req.PairID)
		}
		side := orderbook.Buy
		if req.TokenIn == pair.Base {
			side = orderbook.Sell
		}
		res, err := r.book.PlaceOrder(orderbook.PlaceOrderRequest{
			OrderID:     orderID(req) + "-" + string(venue),
			UserID:      req.Trader,
			PairID:      req.PairID,
			Type:        orderbook.Market,
			Side:        side,
			Quantity:    legAmountIn,
			TimeInForce: orderbook.IOC,
			Timestamp:   req.Timestamp,
		})
		if err != nil {
			return nil, err
		}
		out := amount.Zero()
		for _, t := range res.Trades {
			out = out.Add(t.Quantity)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("route: unknown venue %s", venue)
	}
}

// autoSplit falls back to whichever single venue actually has liquidity
// for the pair when the caller supplies no explicit allocation: AMM first
// (pools with positive reserves), then the full order book, matching
// spec §4.5's "falls back to auto-routing" when the aggregator finds
// liquidity on only one side.
func (r *Router) autoSplit(req HybridTradeRequest) []RouteAllocation {
	if pool, ok := r.pools.GetByTokens(req.TokenIn, req.TokenOut); ok {
		if pool.ReserveA.IsPositive() && pool.ReserveB.IsPositive() {
			return []RouteAllocation{{Venue: VenueAMM, Percentage: 100}}
		}
	}
	return []RouteAllocation{{Venue: VenueOrderbook, Percentage: 100}}
}

func validateAllocations(allocs []RouteAllocation) error {
	var sum int64
	for _, a := range allocs {
		sum += a.Percentage
	}
	if sum != 100 {
		return fmt.Errorf("route: explicit route allocations must sum to 100, got %d", sum)
	}
	return nil
}

// violatesSlippage checks the hard minAmountOut floor first, then, if the
// caller instead supplied a percentage bound, compares the realized output
// against a pre-trade AMM quote for the full amountIn (the best available
// reference price when no explicit minAmountOut was given).
func violatesSlippage(req HybridTradeRequest, total *amount.Amount, preTradeQuote *amm.Route) (string, bool) {
	if req.MinAmountOut != nil {
		if total.LT(req.MinAmountOut) {
			return "total amount out below minAmountOut", true
		}
		return "", false
	}
	if preTradeQuote == nil {
		return "", false // no AMM reference price available; rely on per-leg execution only
	}
	floor := preTradeQuote.FinalAmountOut.PercentOf(10000 - req.MaxSlippagePercent)
	if total.LT(floor) {
		return "total amount out exceeds maxSlippagePercent versus the pre-trade AMM quote", true
	}
	return "", false
}

func orderID(req HybridTradeRequest) string {
	return fmt.Sprintf("route_%s_%d", req.Trader, req.Timestamp)
}
