package accounts

import "github.com/echo-chain/sidenode/internal/amount"

// Ledger accumulates AdjustBalance calls made within a single handler
// invocation so a failure partway through can be unwound in reverse order
// (spec §4.2 rollback discipline / §7 "handlers never half-complete").
type Ledger struct {
	mgr   *Manager
	calls []ledgerEntry
}

type ledgerEntry struct {
	account string
	tokenID string
	delta   *amount.Amount
}

func NewLedger(mgr *Manager) *Ledger {
	return &Ledger{mgr: mgr}
}

// Move applies delta to account/tokenID and records it for potential undo.
// Returns the same error AdjustBalance would.
func (l *Ledger) Move(account, tokenID string, delta *amount.Amount) error {
	if err := l.mgr.AdjustBalance(account, tokenID, delta); err != nil {
		return err
	}
	l.calls = append(l.calls, ledgerEntry{account: account, tokenID: tokenID, delta: delta})
	return nil
}

// Unwind reverses every recorded move, most-recent first. Failures to
// unwind are the one tolerated "requires reconciliation" case (spec §7);
// callers should log but Unwind does not itself stop on error.
func (l *Ledger) Unwind() []error {
	var errs []error
	for i := len(l.calls) - 1; i >= 0; i-- {
		e := l.calls[i]
		if err := l.mgr.AdjustBalance(e.account, e.tokenID, e.delta.Neg()); err != nil {
			errs = append(errs, err)
		}
	}
	l.calls = nil
	return errs
}
