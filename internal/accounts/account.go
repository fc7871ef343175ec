// Package accounts implements the account/balance primitives of spec §3/§4.2:
// getAccount, adjustBalance with overdraft protection, and the witness-vote
// bookkeeping fields every voter carries. Adapted from the teacher's
// pkg/app/core/account package, generalized from an EVM common.Address
// identity to the plain chain-native account-name string the data model
// calls for.
package accounts

import (
	"fmt"

	"github.com/echo-chain/sidenode/internal/amount"
)

// Account is a chain account: balances keyed by token identifier
// ("SYMBOL" for native-issued tokens, "SYMBOL@ISSUER" otherwise, per §4.2),
// plus the witness-voting fields from §3.
type Account struct {
	Name             string
	Balances         map[string]*amount.Amount
	VotedWitnesses   map[string]struct{}
	WitnessPublicKey string // empty = not a registered witness
	TotalVoteWeight  *amount.Amount
}

// NewAccount creates a zero-balance account. Accounts are auto-created on
// first reference and never deleted (spec §3 lifecycle).
func NewAccount(name string) *Account {
	return &Account{
		Name:            name,
		Balances:        make(map[string]*amount.Amount),
		VotedWitnesses:  make(map[string]struct{}),
		TotalVoteWeight: amount.Zero(),
	}
}

// Balance returns the raw balance for a token identifier, zero if unset.
func (a *Account) Balance(tokenID string) *amount.Amount {
	if b, ok := a.Balances[tokenID]; ok {
		return b
	}
	return amount.Zero()
}

// IsWitness reports whether this account has registered a witness key.
func (a *Account) IsWitness() bool { return a.WitnessPublicKey != "" }

// Validate checks the account invariant: every balance entry is >= 0
// (spec §8 invariant 1).
func (a *Account) Validate() error {
	for tokenID, bal := range a.Balances {
		if bal.IsNeg() {
			return fmt.Errorf("account %s: negative balance for %s: %s", a.Name, tokenID, bal.String())
		}
	}
	if a.TotalVoteWeight != nil && a.TotalVoteWeight.IsNeg() {
		return fmt.Errorf("account %s: negative total vote weight", a.Name)
	}
	return nil
}
