package amm

import "github.com/echo-chain/sidenode/internal/amount"

// normalize18 scales a raw amount (expressed in a token's own decimals) up
// to an 18-decimal basis so first-deposit geometric-mean minting and
// proportional minting compare like units across tokens with different
// decimal counts (spec §4.3 "decimals-normalize both deposits to 18").
func normalize18(raw *amount.Amount, decimals int) *amount.Amount {
	diff := 18 - decimals
	if diff == 0 {
		return raw
	}
	if diff > 0 {
		scale := int64(1)
		for i := 0; i < diff; i++ {
			scale *= 10
		}
		return raw.MulDiv(scale, 1)
	}
	scale := int64(1)
	for i := 0; i < -diff; i++ {
		scale *= 10
	}
	return raw.MulDiv(1, scale)
}

// MintResult describes the outcome of a liquidity-add.
type MintResult struct {
	LPMinted      *amount.Amount
	BurnedMinimum *amount.Amount // non-zero only on the pool's first deposit
}

// Mint computes LP tokens to issue for a deposit of (amountA, amountB) into
// pool p, whose tokens are registered at decimalsA/decimalsB. Implements
// spec §4.3's first-deposit vs subsequent-deposit formulas exactly; it does
// not itself mutate pool reserves or LpPosition records -- callers (the
// POOL_ADD_LIQUIDITY handler) apply the reserve/position updates atomically
// alongside the matching AdjustBalance calls.
func Mint(p *Pool, amountA, amountB *amount.Amount, decimalsA, decimalsB int) (MintResult, error) {
	if p.TotalLPTokens.IsZero() {
		na := normalize18(amountA, decimalsA)
		nb := normalize18(amountB, decimalsB)
		l := na.Mul(nb).Sqrt()
		burn := amount.Min(MinimumLiquidity, l.Div(amount.FromInt64(1000)))
		minted := l.Sub(burn)
		if minted.IsNeg() || minted.IsZero() {
			return MintResult{}, errInsufficientInitialLiquidity
		}
		return MintResult{LPMinted: minted, BurnedMinimum: burn}, nil
	}

	mintFromA := amountA.Mul(p.TotalLPTokens).Div(p.ReserveA)
	mintFromB := amountB.Mul(p.TotalLPTokens).Div(p.ReserveB)
	minted := amount.Min(mintFromA, mintFromB)
	if minted.IsZero() {
		return MintResult{}, errZeroMint
	}
	return MintResult{LPMinted: minted, BurnedMinimum: amount.Zero()}, nil
}

// BurnResult describes the withdrawal amounts owed for removing lpTokens
// worth of liquidity.
type BurnResult struct {
	AmountA *amount.Amount
	AmountB *amount.Amount
}

// Burn computes the proportional (amountA, amountB) owed for removing
// lpTokens from pool p: each side is reserve * lpTokens / totalLpTokens,
// the inverse of Mint's subsequent-deposit branch. Like Mint, it does not
// itself mutate reserves or totalLpTokens; POOL_REMOVE_LIQUIDITY applies
// those alongside the account balance moves.
func Burn(p *Pool, lpTokens *amount.Amount) (BurnResult, error) {
	if lpTokens.IsZero() || lpTokens.IsNeg() {
		return BurnResult{}, errZeroBurn
	}
	if lpTokens.GT(p.TotalLPTokens) {
		return BurnResult{}, errExcessiveBurn
	}
	amountA := lpTokens.Mul(p.ReserveA).Div(p.TotalLPTokens)
	amountB := lpTokens.Mul(p.ReserveB).Div(p.TotalLPTokens)
	return BurnResult{AmountA: amountA, AmountB: amountB}, nil
}

var errInsufficientInitialLiquidity = poolErr("insufficient initial liquidity after minimum-liquidity burn")
var errZeroMint = poolErr("deposit too small to mint any LP tokens")
var errZeroBurn = poolErr("lpTokens to remove must be positive")
var errExcessiveBurn = poolErr("lpTokens to remove exceeds pool's total LP supply")

type poolErrString string

func (e poolErrString) Error() string { return string(e) }
func poolErr(s string) error          { return poolErrString(s) }
