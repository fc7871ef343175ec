// Package farms implements the yield-farm lifecycle (spec §3 Farm, §6
// FARM_CREATE/FARM_STAKE/FARM_UNSTAKE/FARM_CLAIM_REWARDS/
// FARM_UPDATE_WEIGHT) plus the native-token block reward distributor.
// Reward accounting follows the standard liquidity-mining accumulator
// pattern (accRewardPerShare scaled by 1e18, settled lazily on
// stake/unstake/claim) -- the nearest idiomatic analogue in this module
// set to the AMM's own proportional-share arithmetic in internal/amm,
// generalized here from "mint LP proportional to deposit" to "accrue
// reward proportional to stake".
package farms

import (
	"fmt"
	"sync"

	"github.com/echo-chain/sidenode/internal/accounts"
	"github.com/echo-chain/sidenode/internal/amount"
)

// maxTotalWeightBps bounds the sum of active native farms' weights at
// 10000 (100%), per spec §3 Farm invariant "Σ native_weights ≤ 10000".
const maxTotalWeightBps = 10000

// accumulatorScale is the fixed-point scale for AccRewardPerShare, wide
// enough that per-share rewards don't truncate to zero for realistic
// stake sizes.
var accumulatorScale = amount.FromInt64(1_000_000_000_000_000_000)

// Farm is a yield farm: stakers deposit StakeToken and accrue RewardToken
// proportional to their share of TotalStaked (spec §3 Farm).
type Farm struct {
	ID          string
	Creator     string
	StakeToken  string
	RewardToken string
	WeightBps   int64
	IsNative    bool
	Active      bool

	TotalStaked          *amount.Amount
	AccRewardPerShareE18 *amount.Amount
}

// stakerKey identifies one account's position within one farm.
type stakerKey struct {
	farmID  string
	account string
}

type staker struct {
	Staked     *amount.Amount
	RewardDebt *amount.Amount
}

// Registry holds every farm and staker position.
type Registry struct {
	mu      sync.Mutex
	farms   map[string]*Farm
	order   []string
	stakers map[stakerKey]*staker
	accts   *accounts.Manager
}

func NewRegistry(accts *accounts.Manager) *Registry {
	return &Registry{
		farms:   make(map[string]*Farm),
		stakers: make(map[stakerKey]*staker),
		accts:   accts,
	}
}

// CreateFarm registers a new farm. Native farms additionally participate
// in DistributeBlockReward and are weight-capped at 10000 bps across all
// active native farms (callers enforce that only masterName may set
// isNative=true; the registry itself only enforces the weight-sum rule).
func (r *Registry) CreateFarm(id, creator, stakeToken, rewardToken string, weightBps int64, isNative bool) (*Farm, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.farms[id]; exists {
		return nil, fmt.Errorf("farms: farm %q already exists", id)
	}
	if isNative {
		if weightBps <= 0 || weightBps > maxTotalWeightBps {
			return nil, fmt.Errorf("farms: weightBps must be in (0, %d], got %d", maxTotalWeightBps, weightBps)
		}
		if r.activeNativeWeightLocked()+weightBps > maxTotalWeightBps {
			return nil, fmt.Errorf("farms: active native weight would exceed %d bps", maxTotalWeightBps)
		}
	}

	f := &Farm{
		ID: id, Creator: creator, StakeToken: stakeToken, RewardToken: rewardToken,
		WeightBps: weightBps, IsNative: isNative, Active: true,
		TotalStaked: amount.Zero(), AccRewardPerShareE18: amount.Zero(),
	}
	r.farms[id] = f
	r.order = append(r.order, id)
	return f, nil
}

func (r *Registry) activeNativeWeightLocked() int64 {
	var total int64
	for _, f := range r.farms {
		if f.Active && f.IsNative {
			total += f.WeightBps
		}
	}
	return total
}

// SetActive toggles a farm's participation in reward accrual.
func (r *Registry) SetActive(id string, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.farms[id]
	if !ok {
		return fmt.Errorf("farms: unknown farm %q", id)
	}
	if active && !f.Active && f.IsNative {
		if r.activeNativeWeightLocked()+f.WeightBps > maxTotalWeightBps {
			return fmt.Errorf("farms: reactivating %q would exceed %d bps", id, maxTotalWeightBps)
		}
	}
	f.Active = active
	return nil
}

// UpdateWeight changes a native farm's weight, re-checking the 10000bps
// cap against every other active native farm.
func (r *Registry) UpdateWeight(id string, newWeightBps int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.farms[id]
	if !ok {
		return fmt.Errorf("farms: unknown farm %q", id)
	}
	if !f.IsNative {
		return fmt.Errorf("farms: only native farms carry a weight")
	}
	if newWeightBps <= 0 || newWeightBps > maxTotalWeightBps {
		return fmt.Errorf("farms: weightBps must be in (0, %d]", maxTotalWeightBps)
	}
	otherTotal := r.activeNativeWeightLocked() - f.WeightBps
	if f.Active && otherTotal+newWeightBps > maxTotalWeightBps {
		return fmt.Errorf("farms: new weight would exceed %d bps total", maxTotalWeightBps)
	}
	f.WeightBps = newWeightBps
	return nil
}

// DistributionEntry records one farm's share of a single block reward.
type DistributionEntry struct {
	FarmID string
	Amount *amount.Amount
}

// DistributeBlockReward splits nativeAmount across every active native
// farm proportional to its integer weight, crediting each farm's pooled
// reward balance and advancing its accumulator. A farm with nothing
// staked yet forfeits its share this round (nobody to attribute it to),
// matching the standard liquidity-mining convention of skipping
// accumulator updates on an empty pool rather than minting unclaimable
// dust. Farms are visited in creation order for determinism.
func (r *Registry) DistributeBlockReward(nativeAmount *amount.Amount) ([]DistributionEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries := make([]DistributionEntry, 0, len(r.order))
	for _, id := range r.order {
		f := r.farms[id]
		if !f.Active || !f.IsNative || f.WeightBps <= 0 {
			continue
		}
		share := nativeAmount.PercentOf(f.WeightBps)
		if share.IsZero() || f.TotalStaked.IsZero() {
			continue
		}
		if err := r.accts.AdjustBalance(f.ID, f.RewardToken, share); err != nil {
			return nil, fmt.Errorf("farms: crediting %q: %w", id, err)
		}
		increment := share.Mul(accumulatorScale).Div(f.TotalStaked)
		f.AccRewardPerShareE18 = f.AccRewardPerShareE18.Add(increment)
		entries = append(entries, DistributionEntry{FarmID: id, Amount: share})
	}
	return entries, nil
}

// pendingLocked computes a staker's unclaimed reward against the farm's
// current accumulator.
func pendingLocked(f *Farm, s *staker) *amount.Amount {
	accrued := s.Staked.Mul(f.AccRewardPerShareE18).Div(accumulatorScale)
	return accrued.Sub(s.RewardDebt)
}

// settleLocked pays out a staker's pending reward (if any) and resets
// their RewardDebt to the current accumulator baseline. Called before
// every stake/unstake/claim so balance changes never skip accrued
// rewards.
func (r *Registry) settleLocked(f *Farm, key stakerKey, s *staker) error {
	pending := pendingLocked(f, s)
	if pending.IsPositive() {
		if err := r.accts.AdjustBalance(f.ID, f.RewardToken, pending.Neg()); err != nil {
			return err
		}
		if err := r.accts.AdjustBalance(key.account, f.RewardToken, pending); err != nil {
			// Restore the farm's pool; the staker's credit never landed.
			_ = r.accts.AdjustBalance(f.ID, f.RewardToken, pending)
			return err
		}
	}
	s.RewardDebt = s.Staked.Mul(f.AccRewardPerShareE18).Div(accumulatorScale)
	return nil
}

// Stake deposits amt of the farm's stake token from account into the farm,
// settling any already-accrued reward first.
func (r *Registry) Stake(farmID, account string, amt *amount.Amount) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.farms[farmID]
	if !ok {
		return fmt.Errorf("farms: unknown farm %q", farmID)
	}
	if !f.Active {
		return fmt.Errorf("farms: farm %q is not active", farmID)
	}
	if amt == nil || !amt.IsPositive() {
		return fmt.Errorf("farms: stake amount must be positive")
	}

	key := stakerKey{farmID: farmID, account: account}
	s, ok := r.stakers[key]
	if !ok {
		s = &staker{Staked: amount.Zero(), RewardDebt: amount.Zero()}
		r.stakers[key] = s
	}
	if err := r.settleLocked(f, key, s); err != nil {
		return err
	}

	if err := r.accts.AdjustBalance(account, f.StakeToken, amt.Neg()); err != nil {
		return err
	}
	if err := r.accts.AdjustBalance(f.ID, f.StakeToken, amt); err != nil {
		_ = r.accts.AdjustBalance(account, f.StakeToken, amt)
		return err
	}

	s.Staked = s.Staked.Add(amt)
	f.TotalStaked = f.TotalStaked.Add(amt)
	s.RewardDebt = s.Staked.Mul(f.AccRewardPerShareE18).Div(accumulatorScale)
	return nil
}

// Unstake withdraws amt of stake from the farm back to account, settling
// any already-accrued reward first.
func (r *Registry) Unstake(farmID, account string, amt *amount.Amount) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.farms[farmID]
	if !ok {
		return fmt.Errorf("farms: unknown farm %q", farmID)
	}
	key := stakerKey{farmID: farmID, account: account}
	s, ok := r.stakers[key]
	if !ok || amt == nil || !amt.IsPositive() || s.Staked.LT(amt) {
		return fmt.Errorf("farms: insufficient staked balance")
	}

	if err := r.settleLocked(f, key, s); err != nil {
		return err
	}

	if err := r.accts.AdjustBalance(f.ID, f.StakeToken, amt.Neg()); err != nil {
		return err
	}
	if err := r.accts.AdjustBalance(account, f.StakeToken, amt); err != nil {
		_ = r.accts.AdjustBalance(f.ID, f.StakeToken, amt)
		return err
	}

	s.Staked = s.Staked.Sub(amt)
	f.TotalStaked = f.TotalStaked.Sub(amt)
	s.RewardDebt = s.Staked.Mul(f.AccRewardPerShareE18).Div(accumulatorScale)
	if s.Staked.IsZero() {
		delete(r.stakers, key)
	}
	return nil
}

// ClaimRewards pays out a staker's pending reward without touching their
// stake.
func (r *Registry) ClaimRewards(farmID, account string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.farms[farmID]
	if !ok {
		return fmt.Errorf("farms: unknown farm %q", farmID)
	}
	key := stakerKey{farmID: farmID, account: account}
	s, ok := r.stakers[key]
	if !ok {
		return fmt.Errorf("farms: no staked position for %s in %s", account, farmID)
	}
	return r.settleLocked(f, key, s)
}

func (r *Registry) Get(id string) (*Farm, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.farms[id]
	return f, ok
}

func (r *Registry) All() []*Farm {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Farm, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.farms[id])
	}
	return out
}

// StakedBalance returns an account's current stake in a farm, zero if none.
func (r *Registry) StakedBalance(farmID, account string) *amount.Amount {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.stakers[stakerKey{farmID: farmID, account: account}]; ok {
		return s.Staked
	}
	return amount.Zero()
}
