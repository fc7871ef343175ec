package amm

import (
	"fmt"
	"sync"

	"github.com/echo-chain/sidenode/internal/amount"
)

// Position is a provider's LP share of a pool (spec §3 LpPosition).
type Position struct {
	Provider string
	PoolID   string
	LPTokens *amount.Amount
}

// PositionBook tracks every LpPosition, keyed by (provider, poolId), plus
// a reverse index per pool for the conservation check (spec §8 invariant
// 3: Σ positions.lpTokens + burnedMinimum == pool.totalLpTokens).
type PositionBook struct {
	mu        sync.RWMutex
	positions map[string]*Position // "provider|poolId" -> position
	byPool    map[string]map[string]struct{}
}

func NewPositionBook() *PositionBook {
	return &PositionBook{
		positions: make(map[string]*Position),
		byPool:    make(map[string]map[string]struct{}),
	}
}

func posKey(provider, poolID string) string { return provider + "|" + poolID }

func (b *PositionBook) Get(provider, poolID string) *Position {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if p, ok := b.positions[posKey(provider, poolID)]; ok {
		return p
	}
	return nil
}

// Add increases (creating if absent) a provider's LP balance for a pool.
func (b *PositionBook) Add(provider, poolID string, lpDelta *amount.Amount) *Position {
	b.mu.Lock()
	defer b.mu.Unlock()
	key := posKey(provider, poolID)
	p, ok := b.positions[key]
	if !ok {
		p = &Position{Provider: provider, PoolID: poolID, LPTokens: amount.Zero()}
		b.positions[key] = p
		if b.byPool[poolID] == nil {
			b.byPool[poolID] = make(map[string]struct{})
		}
		b.byPool[poolID][provider] = struct{}{}
	}
	p.LPTokens = p.LPTokens.Add(lpDelta)
	return p
}

// Remove decreases a provider's LP balance, deleting the position once it
// empties (spec §3 LpPosition lifecycle: "deleted when position empties").
func (b *PositionBook) Remove(provider, poolID string, lpDelta *amount.Amount) (*Position, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	key := posKey(provider, poolID)
	p, ok := b.positions[key]
	if !ok {
		return nil, fmt.Errorf("no lp position for %s in %s", provider, poolID)
	}
	if p.LPTokens.LT(lpDelta) {
		return nil, fmt.Errorf("insufficient lp tokens: have %s, want to remove %s", p.LPTokens.String(), lpDelta.String())
	}
	p.LPTokens = p.LPTokens.Sub(lpDelta)
	if p.LPTokens.IsZero() {
		delete(b.positions, key)
		delete(b.byPool[poolID], provider)
	}
	return p, nil
}

func (b *PositionBook) ForPool(poolID string) []*Position {
	b.mu.RLock()
	defer b.mu.RUnlock()
	var out []*Position
	for provider := range b.byPool[poolID] {
		if p, ok := b.positions[posKey(provider, poolID)]; ok {
			out = append(out, p)
		}
	}
	return out
}

func (b *PositionBook) ForProvider(provider string) []*Position {
	b.mu.RLock()
	defer b.mu.RUnlock()
	var out []*Position
	for key, p := range b.positions {
		if p.Provider == provider {
			_ = key
			out = append(out, p)
		}
	}
	return out
}
