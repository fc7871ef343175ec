package launchpad

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

func TestLaunchTokenRejectsDuplicateSymbol(t *testing.T) {
	r, _ := newTestRegistry(t)
	if _, err := r.LaunchToken("alice", "tx1", "ECHO", "Echo Token", 18, amount.FromInt64(1_000_000), "", ""); err != nil {
		t.Fatalf("launch failed: %v", err)
	}
	if _, err := r.LaunchToken("bob", "tx2", "ECHO", "Echo Token 2", 18, amount.FromInt64(1), "", ""); err == nil {
		t.Fatalf("expected duplicate symbol rejection")
	}
}

func TestPresaleFullLifecycle(t *testing.T) {
	r, accts := newTestRegistry(t)
	pad, err := r.LaunchToken("alice", "tx1", "ECHO", "Echo Token", 18, amount.FromInt64(1_000_000), "", "")
	if err != nil {
		t.Fatalf("launch failed: %v", err)
	}
	err = r.ConfigurePresale(pad.ID, "alice", PresaleDetails{
		PricePerToken: amount.FromInt64(2), HardCap: amount.FromInt64(1000), SoftCap: amount.FromInt64(500),
		MinContribution: amount.FromInt64(10), MaxContribution: amount.FromInt64(1000),
		StartTime: 0, EndTime: 100, QuoteAsset: "USD", AllocationType: AllocationParticipants,
	})
	if err != nil {
		t.Fatalf("configurePresale failed: %v", err)
	}
	if err := r.UpdateStatus(pad.ID, "alice", PresaleActive); err != nil {
		t.Fatalf("updateStatus failed: %v", err)
	}

	_ = accts.AdjustBalance("carol", "USD", amount.FromInt64(600))
	if err := r.ParticipatePresale(pad.ID, "carol", amount.FromInt64(600)); err != nil {
		t.Fatalf("participate failed: %v", err)
	}
	carol, _ := accts.Get("carol")
	if !carol.Balance("USD").IsZero() {
		t.Fatalf("expected carol's USD fully contributed, got %s", carol.Balance("USD").String())
	}

	if err := r.FinalizePresale(pad.ID, 100); err != nil {
		t.Fatalf("finalizePresale failed: %v", err)
	}
	reloaded, _ := r.Get(pad.ID)
	if reloaded.Status != PresaleSucceededSoftCapMet {
		t.Fatalf("expected softcap-met success, got %s", reloaded.Status)
	}

	if err := r.SetMainToken(pad.ID, "alice", "ECHO"); err != nil {
		t.Fatalf("setMainToken failed: %v", err)
	}
	if err := r.ClaimTokens(pad.ID, "carol"); err != nil {
		t.Fatalf("claimTokens failed: %v", err)
	}
	carol, _ = accts.Get("carol")
	if carol.Balance("ECHO").String() != "300" {
		t.Fatalf("expected carol to receive 600/2=300 ECHO, got %s", carol.Balance("ECHO").String())
	}
	if err := r.ClaimTokens(pad.ID, "carol"); err == nil {
		t.Fatalf("expected double-claim to be rejected")
	}
}

func TestRefundOnSoftcapFailure(t *testing.T) {
	r, accts := newTestRegistry(t)
	pad, _ := r.LaunchToken("alice", "tx1", "ECHO", "Echo Token", 18, amount.FromInt64(1_000_000), "", "")
	_ = r.ConfigurePresale(pad.ID, "alice", PresaleDetails{
		PricePerToken: amount.FromInt64(2), HardCap: amount.FromInt64(1000), SoftCap: amount.FromInt64(900),
		MinContribution: amount.FromInt64(1), MaxContribution: amount.FromInt64(1000),
		StartTime: 0, EndTime: 100, QuoteAsset: "USD", AllocationType: AllocationParticipants,
	})
	_ = r.UpdateStatus(pad.ID, "alice", PresaleActive)

	_ = accts.AdjustBalance("carol", "USD", amount.FromInt64(200))
	_ = r.ParticipatePresale(pad.ID, "carol", amount.FromInt64(200))

	if err := r.FinalizePresale(pad.ID, 100); err != nil {
		t.Fatalf("finalizePresale failed: %v", err)
	}
	reloaded, _ := r.Get(pad.ID)
	if reloaded.Status != PresaleFailedSoftCapNotMet {
		t.Fatalf("expected softcap failure, got %s", reloaded.Status)
	}

	if err := r.RefundPresale(pad.ID); err != nil {
		t.Fatalf("refundPresale failed: %v", err)
	}
	carol, _ := accts.Get("carol")
	if carol.Balance("USD").String() != "200" {
		t.Fatalf("expected carol refunded 200, got %s", carol.Balance("USD").String())
	}
}
