package farms

import (
	"testing"

	"github.com/echo-chain/sidenode/internal/accounts"
	"github.com/echo-chain/sidenode/internal/amount"
	"github.com/echo-chain/sidenode/internal/store"
)

func newTestRegistry(t *testing.T) (*Registry, *accounts.Manager) {
	t.Helper()
	accts := accounts.NewManager(store.NewMemoryStore(), nil)
	return NewRegistry(accts), accts
}

func stakeToFund(t *testing.T, r *Registry, accts *accounts.Manager, farmID, staker string, amt *amount.Amount) {
	t.Helper()
	if err := accts.AdjustBalance(staker, "LP-ECH-USDT", amt); err != nil {
		t.Fatalf("funding staker failed: %v", err)
	}
	if err := r.Stake(farmID, staker, amt); err != nil {
		t.Fatalf("stake failed: %v", err)
	}
}

func TestDistributeBlockRewardSplitsByWeightAndStake(t *testing.T) {
	r, accts := newTestRegistry(t)
	if _, err := r.CreateFarm("farm-a", "master", "LP-ECH-USDT", "ECH", 6000, true); err != nil {
		t.Fatalf("create farm-a failed: %v", err)
	}
	if _, err := r.CreateFarm("farm-b", "master", "LP-ECH-USDT", "ECH", 4000, true); err != nil {
		t.Fatalf("create farm-b failed: %v", err)
	}
	stakeToFund(t, r, accts, "farm-a", "alice", amount.FromInt64(100))
	stakeToFund(t, r, accts, "farm-b", "bob", amount.FromInt64(100))

	entries, err := r.DistributeBlockReward(amount.FromInt64(1000))
	if err != nil {
		t.Fatalf("distribute failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 distribution entries, got %d", len(entries))
	}

	if err := r.ClaimRewards("farm-a", "alice"); err != nil {
		t.Fatalf("claim failed: %v", err)
	}
	if err := r.ClaimRewards("farm-b", "bob"); err != nil {
		t.Fatalf("claim failed: %v", err)
	}

	alice, _ := accts.Get("alice")
	bob, _ := accts.Get("bob")
	if alice.Balance("ECH").String() != amount.FromInt64(600).String() {
		t.Fatalf("expected alice 600, got %s", alice.Balance("ECH").String())
	}
	if bob.Balance("ECH").String() != amount.FromInt64(400).String() {
		t.Fatalf("expected bob 400, got %s", bob.Balance("ECH").String())
	}
}

func TestCreateFarmRejectsOverweightTotal(t *testing.T) {
	r, _ := newTestRegistry(t)
	if _, err := r.CreateFarm("farm-a", "master", "LP-ECH-USDT", "ECH", 8000, true); err != nil {
		t.Fatalf("create farm-a failed: %v", err)
	}
	if _, err := r.CreateFarm("farm-b", "master", "LP-ECH-USDT", "ECH", 3000, true); err == nil {
		t.Fatalf("expected farm-b to be rejected for exceeding total weight")
	}
}

func TestInactiveFarmReceivesNoShare(t *testing.T) {
	r, accts := newTestRegistry(t)
	_, _ = r.CreateFarm("farm-a", "master", "LP-ECH-USDT", "ECH", 5000, true)
	_, _ = r.CreateFarm("farm-b", "master", "LP-ECH-USDT", "ECH", 5000, true)
	stakeToFund(t, r, accts, "farm-a", "alice", amount.FromInt64(100))
	stakeToFund(t, r, accts, "farm-b", "bob", amount.FromInt64(100))
	if err := r.SetActive("farm-b", false); err != nil {
		t.Fatalf("setActive failed: %v", err)
	}

	if _, err := r.DistributeBlockReward(amount.FromInt64(1000)); err != nil {
		t.Fatalf("distribute failed: %v", err)
	}
	_ = r.ClaimRewards("farm-a", "alice")
	_ = r.ClaimRewards("farm-b", "bob")

	alice, _ := accts.Get("alice")
	bob, _ := accts.Get("bob")
	if alice.Balance("ECH").String() != amount.FromInt64(500).String() {
		t.Fatalf("expected alice 500, got %s", alice.Balance("ECH").String())
	}
	if !bob.Balance("ECH").IsZero() {
		t.Fatalf("expected bob 0 since inactive, got %s", bob.Balance("ECH").String())
	}
}

func TestReactivateRespectsWeightCap(t *testing.T) {
	r, _ := newTestRegistry(t)
	_, _ = r.CreateFarm("farm-a", "master", "LP-ECH-USDT", "ECH", 6000, true)
	_, _ = r.CreateFarm("farm-b", "master", "LP-ECH-USDT", "ECH", 4000, true)
	_ = r.SetActive("farm-a", false)
	if _, err := r.CreateFarm("farm-c", "master", "LP-ECH-USDT", "ECH", 6000, true); err != nil {
		t.Fatalf("create farm-c failed: %v", err)
	}
	if err := r.SetActive("farm-a", true); err == nil {
		t.Fatalf("expected reactivating farm-a to exceed weight cap")
	}
}

func TestStakeUnstakeRoundTripsBalance(t *testing.T) {
	r, accts := newTestRegistry(t)
	_, _ = r.CreateFarm("farm-a", "carol", "LP-ECH-USDT", "ECH", 0, false)
	_ = accts.AdjustBalance("dave", "LP-ECH-USDT", amount.FromInt64(50))

	if err := r.Stake("farm-a", "dave", amount.FromInt64(50)); err != nil {
		t.Fatalf("stake failed: %v", err)
	}
	dave, _ := accts.Get("dave")
	if !dave.Balance("LP-ECH-USDT").IsZero() {
		t.Fatalf("expected dave's LP balance to be fully staked, got %s", dave.Balance("LP-ECH-USDT").String())
	}
	if r.StakedBalance("farm-a", "dave").String() != amount.FromInt64(50).String() {
		t.Fatalf("expected staked balance 50, got %s", r.StakedBalance("farm-a", "dave").String())
	}

	if err := r.Unstake("farm-a", "dave", amount.FromInt64(50)); err != nil {
		t.Fatalf("unstake failed: %v", err)
	}
	dave, _ = accts.Get("dave")
	if dave.Balance("LP-ECH-USDT").String() != amount.FromInt64(50).String() {
		t.Fatalf("expected dave's LP balance restored to 50, got %s", dave.Balance("LP-ECH-USDT").String())
	}
	if !r.StakedBalance("farm-a", "dave").IsZero() {
		t.Fatalf("expected staked balance 0 after full unstake")
	}
}

func TestUnstakeRejectsExcessiveAmount(t *testing.T) {
	r, accts := newTestRegistry(t)
	_, _ = r.CreateFarm("farm-a", "carol", "LP-ECH-USDT", "ECH", 0, false)
	_ = accts.AdjustBalance("dave", "LP-ECH-USDT", amount.FromInt64(10))
	_ = r.Stake("farm-a", "dave", amount.FromInt64(10))

	if err := r.Unstake("farm-a", "dave", amount.FromInt64(20)); err == nil {
		t.Fatalf("expected unstake of more than staked to fail")
	}
}

func TestUpdateWeightRespectsCap(t *testing.T) {
	r, _ := newTestRegistry(t)
	_, _ = r.CreateFarm("farm-a", "master", "LP-ECH-USDT", "ECH", 6000, true)
	_, _ = r.CreateFarm("farm-b", "master", "LP-ECH-USDT", "ECH", 4000, true)

	if err := r.UpdateWeight("farm-a", 7000); err == nil {
		t.Fatalf("expected update pushing total past 10000 to fail")
	}
	if err := r.UpdateWeight("farm-a", 5000); err != nil {
		t.Fatalf("expected valid update to succeed: %v", err)
	}
}
