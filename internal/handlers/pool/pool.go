// Package pool implements the POOL_* transaction handlers (spec §4.3,
// §6 POOL_CREATE/POOL_ADD_LIQUIDITY/POOL_REMOVE_LIQUIDITY/POOL_SWAP),
// wrapping internal/amm's pure math with the account-balance moves and
// rollback discipline the handler contract requires (spec §4.2, §7).
package pool

import (
	"github.com/echo-chain/sidenode/internal/accounts"
	"github.com/echo-chain/sidenode/internal/amm"
	"github.com/echo-chain/sidenode/internal/amount"
	"github.com/echo-chain/sidenode/internal/events"
	"github.com/echo-chain/sidenode/internal/handlers"
	"github.com/echo-chain/sidenode/internal/market"
)

const eventCategory = "pool"

// Deps are the shared collaborators every pool handler needs.
type Deps struct {
	Pools     *amm.Registry
	Positions *amm.PositionBook
	Tokens    *market.TokenRegistry
	Accts     *accounts.Manager
	Jrnl      *events.Journal
}

func (d Deps) emit(action, actor, txID string, timestamp int64, data map[string]any) {
	if d.Jrnl == nil {
		return
	}
	_, _ = d.Jrnl.Append(eventCategory, action, actor, data, txID, timestamp)
}

func (d Deps) decimalsFor(symbol string) int {
	if t, ok := d.Tokens.Get(symbol); ok {
		return t.Decimals
	}
	return amount.DefaultDecimals
}

// CreateHandler implements POOL_CREATE.
type CreateHandler struct{ Deps }

func (h *CreateHandler) Validate(data map[string]any, sender string) bool {
	tokenA, ok := handlers.String(data, "tokenA")
	if !ok {
		return false
	}
	tokenB, ok := handlers.String(data, "tokenB")
	if !ok || tokenA == tokenB {
		return false
	}
	_, exists := h.Pools.GetByTokens(tokenA, tokenB)
	return !exists
}

func (h *CreateHandler) Process(data map[string]any, sender, txID string, timestamp int64) bool {
	tokenA, _ := handlers.String(data, "tokenA")
	tokenB, _ := handlers.String(data, "tokenB")
	p, err := h.Pools.Create(tokenA, tokenB)
	if err != nil {
		return false
	}
	h.emit("create", sender, txID, timestamp, map[string]any{"poolId": p.ID})
	return true
}

// AddLiquidityHandler implements POOL_ADD_LIQUIDITY.
type AddLiquidityHandler struct{ Deps }

func (h *AddLiquidityHandler) Validate(data map[string]any, sender string) bool {
	poolID, ok := handlers.String(data, "poolId")
	if !ok {
		return false
	}
	p, ok := h.Pools.Get(poolID)
	if !ok {
		return false
	}
	amountA, ok := handlers.Amount(data, "amountA")
	if !ok || !amountA.IsPositive() {
		return false
	}
	amountB, ok := handlers.Amount(data, "amountB")
	if !ok || !amountB.IsPositive() {
		return false
	}
	acc, ok := h.Accts.Get(sender)
	if !ok {
		return false
	}
	return acc.Balance(p.TokenA).GTE(amountA) && acc.Balance(p.TokenB).GTE(amountB)
}

func (h *AddLiquidityHandler) Process(data map[string]any, sender, txID string, timestamp int64) bool {
	poolID, _ := handlers.String(data, "poolId")
	p, ok := h.Pools.Get(poolID)
	if !ok {
		return false
	}
	amountA, _ := handlers.Amount(data, "amountA")
	amountB, _ := handlers.Amount(data, "amountB")

	result, err := amm.Mint(p, amountA, amountB, h.decimalsFor(p.TokenA), h.decimalsFor(p.TokenB))
	if err != nil {
		return false
	}

	ledger := accounts.NewLedger(h.Accts)
	if err := ledger.Move(sender, p.TokenA, amountA.Neg()); err != nil {
		return false
	}
	if err := ledger.Move(sender, p.TokenB, amountB.Neg()); err != nil {
		ledger.Unwind()
		return false
	}

	p.ReserveA = p.ReserveA.Add(amountA)
	p.ReserveB = p.ReserveB.Add(amountB)
	p.TotalLPTokens = p.TotalLPTokens.Add(result.LPMinted).Add(result.BurnedMinimum)
	h.Positions.Add(sender, p.ID, result.LPMinted)

	h.emit("add_liquidity", sender, txID, timestamp, map[string]any{
		"poolId": p.ID, "amountA": amountA.String(), "amountB": amountB.String(), "lpMinted": result.LPMinted.String(),
	})
	return true
}

// RemoveLiquidityHandler implements POOL_REMOVE_LIQUIDITY.
type RemoveLiquidityHandler struct{ Deps }

func (h *RemoveLiquidityHandler) Validate(data map[string]any, sender string) bool {
	poolID, ok := handlers.String(data, "poolId")
	if !ok {
		return false
	}
	if _, ok := h.Pools.Get(poolID); !ok {
		return false
	}
	lpTokens, ok := handlers.Amount(data, "lpTokens")
	if !ok || !lpTokens.IsPositive() {
		return false
	}
	pos := h.Positions.Get(sender, poolID)
	return pos != nil && pos.LPTokens.GTE(lpTokens)
}

func (h *RemoveLiquidityHandler) Process(data map[string]any, sender, txID string, timestamp int64) bool {
	poolID, _ := handlers.String(data, "poolId")
	p, ok := h.Pools.Get(poolID)
	if !ok {
		return false
	}
	lpTokens, _ := handlers.Amount(data, "lpTokens")

	result, err := amm.Burn(p, lpTokens)
	if err != nil {
		return false
	}
	if _, err := h.Positions.Remove(sender, poolID, lpTokens); err != nil {
		return false
	}

	p.ReserveA = p.ReserveA.Sub(result.AmountA)
	p.ReserveB = p.ReserveB.Sub(result.AmountB)
	p.TotalLPTokens = p.TotalLPTokens.Sub(lpTokens)

	ledger := accounts.NewLedger(h.Accts)
	if err := ledger.Move(sender, p.TokenA, result.AmountA); err != nil {
		return false
	}
	if err := ledger.Move(sender, p.TokenB, result.AmountB); err != nil {
		ledger.Unwind()
		return false
	}

	h.emit("remove_liquidity", sender, txID, timestamp, map[string]any{
		"poolId": p.ID, "lpTokens": lpTokens.String(), "amountA": result.AmountA.String(), "amountB": result.AmountB.String(),
	})
	return true
}

// SwapHandler implements POOL_SWAP.
type SwapHandler struct{ Deps }

func (h *SwapHandler) Validate(data map[string]any, sender string) bool {
	poolID, ok := handlers.String(data, "poolId")
	if !ok {
		return false
	}
	p, ok := h.Pools.Get(poolID)
	if !ok {
		return false
	}
	tokenIn, ok := handlers.String(data, "tokenIn")
	if !ok || (tokenIn != p.TokenA && tokenIn != p.TokenB) {
		return false
	}
	amountIn, ok := handlers.Amount(data, "amountIn")
	if !ok || !amountIn.IsPositive() {
		return false
	}
	acc, ok := h.Accts.Get(sender)
	return ok && acc.Balance(tokenIn).GTE(amountIn)
}

func (h *SwapHandler) Process(data map[string]any, sender, txID string, timestamp int64) bool {
	poolID, _ := handlers.String(data, "poolId")
	p, ok := h.Pools.Get(poolID)
	if !ok {
		return false
	}
	tokenIn, _ := handlers.String(data, "tokenIn")
	amountIn, _ := handlers.Amount(data, "amountIn")
	minAmountOut := handlers.OptAmount(data, "minAmountOut")

	tokenOut := p.TokenB
	if tokenIn == p.TokenB {
		tokenOut = p.TokenA
	}

	amountOut, err := p.SwapOut(tokenIn, amountIn, minAmountOut)
	if err != nil {
		return false
	}

	ledger := accounts.NewLedger(h.Accts)
	if err := ledger.Move(sender, tokenIn, amountIn.Neg()); err != nil {
		return false
	}
	if err := ledger.Move(sender, tokenOut, amountOut); err != nil {
		ledger.Unwind()
		return false
	}
	p.ApplySwap(tokenIn, amountIn, amountOut)

	h.emit("swap", sender, txID, timestamp, map[string]any{
		"poolId": p.ID, "tokenIn": tokenIn, "amountIn": amountIn.String(), "tokenOut": tokenOut, "amountOut": amountOut.String(),
	})
	return true
}
