// Package witness implements the vote-weight maintainer (spec §4.8): when
// a voter's vote set or balance changes, every witness's totalVoteWeight
// is recomputed from the voter's per-witness share. Grounded on the
// teacher's vote-weight bookkeeping in its validator/witness accounting,
// staged into a delta map first per the REDESIGN FLAG so every witness's
// adjustment is computed from one consistent snapshot before any
// AdjustWitnessWeight call mutates state.
package witness

import "github.com/echo-chain/sidenode/internal/accounts"
import "github.com/echo-chain/sidenode/internal/amount"

// Maintainer recomputes witness vote weight against the shared account
// manager (spec §4.8, §9 "not strictly atomic").
type Maintainer struct {
	accts *accounts.Manager
}

func NewMaintainer(accts *accounts.Manager) *Maintainer {
	return &Maintainer{accts: accts}
}

// Recompute implements §4.8's four-step algorithm:
//  1. Load the voter's native-token balance.
//  2. Replace votedWitnesses on the voter.
//  3. For each witness in the (possibly shrunk) new set other than the
//     target, stage the delta new_per_vote - old_per_vote.
//  4. For the single target witness being voted on or unvoted from,
//     stage +new_per_vote or -old_per_vote, floored at zero.
//
// Every delta is staged into one map before any AdjustWitnessWeight call,
// so the batch reflects a single consistent snapshot of old vs. new
// per-vote shares even though applying the batch itself still touches one
// account at a time.
func (m *Maintainer) Recompute(voter string, target *string, nativeToken string, newVotes map[string]struct{}) error {
	acc, _ := m.accts.Get(voter)
	var balance *amount.Amount
	if acc != nil {
		balance = acc.Balance(nativeToken)
	} else {
		balance = amount.Zero()
	}

	var oldVotes map[string]struct{}
	if acc != nil {
		oldVotes = acc.VotedWitnesses
	}

	oldPerVote := perVoteShare(balance, oldVotes)
	newPerVote := perVoteShare(balance, newVotes)

	deltas := make(map[string]*amount.Amount)
	stage := func(witness string, delta *amount.Amount) {
		if cur, ok := deltas[witness]; ok {
			deltas[witness] = cur.Add(delta)
		} else {
			deltas[witness] = delta
		}
	}

	for w := range newVotes {
		if target != nil && w == *target {
			continue // step 4 stages the target's own change
		}
		stage(w, newPerVote.Sub(oldPerVote))
	}
	// Witnesses dropped entirely from the new set are NOT revisited here:
	// spec §4.8 step 3 only iterates the new set, leaving their stale
	// share to linger until they're next touched as the explicit target
	// (or by a subsequent voter's own recompute). This is the documented
	// non-atomicity, not an oversight.

	m.accts.SetVotes(voter, newVotes)

	if target != nil {
		_, wasVoting := oldVotes[*target]
		_, isVoting := newVotes[*target]
		switch {
		case isVoting && !wasVoting:
			stage(*target, newPerVote)
		case wasVoting && !isVoting:
			stage(*target, oldPerVote.Neg())
		}
	}

	for witness, delta := range deltas {
		if err := m.accts.AdjustWitnessWeight(witness, delta); err != nil {
			return err
		}
	}
	return nil
}

// perVoteShare computes balance / |votes| with integer truncation,
// 0 when the voter supports nobody.
func perVoteShare(balance *amount.Amount, votes map[string]struct{}) *amount.Amount {
	if len(votes) == 0 {
		return amount.Zero()
	}
	return balance.Div(amount.FromInt64(int64(len(votes))))
}
