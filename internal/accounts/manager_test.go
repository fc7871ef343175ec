package accounts

import (
	"testing"

	"github.com/echo-chain/sidenode/internal/amount"
	"github.com/echo-chain/sidenode/internal/store"
)

func newTestManager() *Manager {
	return NewManager(store.NewMemoryStore(), nil)
}

func TestAdjustBalanceOverdraftRejected(t *testing.T) {
	m := newTestManager()
	if err := m.AdjustBalance("alice", "ECH", amount.FromInt64(-1)); err == nil {
		t.Fatalf("expected overdraft rejection")
	}
}

func TestAdjustBalanceCreditThenDebit(t *testing.T) {
	m := newTestManager()
	if err := m.AdjustBalance("alice", "ECH", amount.FromInt64(100)); err != nil {
		t.Fatalf("credit failed: %v", err)
	}
	acc, ok := m.Get("alice")
	if !ok || acc.Balance("ECH").String() != "100" {
		t.Fatalf("expected balance 100, got %v", acc)
	}
	if err := m.AdjustBalance("alice", "ECH", amount.FromInt64(-50)); err != nil {
		t.Fatalf("debit failed: %v", err)
	}
	acc, _ = m.Get("alice")
	if acc.Balance("ECH").String() != "50" {
		t.Fatalf("expected balance 50, got %s", acc.Balance("ECH").String())
	}
}

func TestLedgerUnwindRestoresBalance(t *testing.T) {
	m := newTestManager()
	_ = m.AdjustBalance("alice", "ECH", amount.FromInt64(1000))

	l := NewLedger(m)
	if err := l.Move("alice", "ECH", amount.FromInt64(-100)); err != nil {
		t.Fatalf("move failed: %v", err)
	}
	if err := l.Move("bob", "ECH", amount.FromInt64(100)); err != nil {
		t.Fatalf("move failed: %v", err)
	}
	if errs := l.Unwind(); len(errs) != 0 {
		t.Fatalf("unwind errors: %v", errs)
	}

	alice, _ := m.Get("alice")
	bob, _ := m.Get("bob")
	if alice.Balance("ECH").String() != "1000" {
		t.Fatalf("alice not restored: %s", alice.Balance("ECH").String())
	}
	if !bob.Balance("ECH").IsZero() {
		t.Fatalf("bob not restored: %s", bob.Balance("ECH").String())
	}
}

func TestGetOrCreateAutoCreates(t *testing.T) {
	m := newTestManager()
	acc := m.GetOrCreate("newuser")
	if acc.Name != "newuser" {
		t.Fatalf("expected name newuser, got %s", acc.Name)
	}
	if _, ok := m.Get("newuser"); !ok {
		t.Fatalf("expected account to be persisted")
	}
}
