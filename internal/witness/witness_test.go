package witness

import (
	"testing"

	"github.com/echo-chain/sidenode/internal/accounts"
	"github.com/echo-chain/sidenode/internal/amount"
	"github.com/echo-chain/sidenode/internal/store"
)

func TestRecomputeNewVoteAddsWeight(t *testing.T) {
	accts := accounts.NewManager(store.NewMemoryStore(), nil)
	_ = accts.AdjustBalance("alice", "ECH", amount.FromInt64(1000))
	m := NewMaintainer(accts)

	target := "w1"
	if err := m.Recompute("alice", &target, "ECH", map[string]struct{}{"w1": {}}); err != nil {
		t.Fatalf("recompute failed: %v", err)
	}
	w1, _ := accts.Get("w1")
	if w1.TotalVoteWeight.String() != "1000" {
		t.Fatalf("expected w1 weight 1000, got %s", w1.TotalVoteWeight.String())
	}
}

func TestRecomputeSplitAcrossTwoWitnesses(t *testing.T) {
	accts := accounts.NewManager(store.NewMemoryStore(), nil)
	_ = accts.AdjustBalance("alice", "ECH", amount.FromInt64(1000))
	m := NewMaintainer(accts)

	if err := m.Recompute("alice", nil, "ECH", map[string]struct{}{"w1": {}, "w2": {}}); err != nil {
		t.Fatalf("recompute failed: %v", err)
	}
	w1, _ := accts.Get("w1")
	w2, _ := accts.Get("w2")
	if w1.TotalVoteWeight.String() != "500" || w2.TotalVoteWeight.String() != "500" {
		t.Fatalf("expected 500/500 split, got w1=%s w2=%s", w1.TotalVoteWeight.String(), w2.TotalVoteWeight.String())
	}
}

func TestRecomputeUnvoteTargetFloorsAtZero(t *testing.T) {
	accts := accounts.NewManager(store.NewMemoryStore(), nil)
	_ = accts.AdjustBalance("alice", "ECH", amount.FromInt64(1000))
	m := NewMaintainer(accts)

	w1 := "w1"
	_ = m.Recompute("alice", &w1, "ECH", map[string]struct{}{"w1": {}})
	if err := m.Recompute("alice", &w1, "ECH", map[string]struct{}{}); err != nil {
		t.Fatalf("recompute unvote failed: %v", err)
	}
	w1acc, _ := accts.Get("w1")
	if !w1acc.TotalVoteWeight.IsZero() {
		t.Fatalf("expected w1 weight to return to 0, got %s", w1acc.TotalVoteWeight.String())
	}
}
