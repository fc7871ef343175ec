// Package witnessops implements the WITNESS_* transaction handlers (spec
// §4.8, §6 WITNESS_REGISTER/WITNESS_VOTE/WITNESS_UNVOTE), wrapping
// internal/accounts' witness-key registration and internal/witness's
// staged vote-weight recompute.
package witnessops

import (
	"github.com/echo-chain/sidenode/internal/accounts"
	"github.com/echo-chain/sidenode/internal/events"
	"github.com/echo-chain/sidenode/internal/handlers"
	"github.com/echo-chain/sidenode/internal/witness"
)

const eventCategory = "witness"

// Deps are the shared collaborators every witness handler needs.
type Deps struct {
	Accts        *accounts.Manager
	Maintainer   *witness.Maintainer
	NativeSymbol string
	Jrnl         *events.Journal
}

func (d Deps) emit(action, actor, txID string, timestamp int64, data map[string]any) {
	if d.Jrnl == nil {
		return
	}
	_, _ = d.Jrnl.Append(eventCategory, action, actor, data, txID, timestamp)
}

// RegisterHandler implements WITNESS_REGISTER.
type RegisterHandler struct{ Deps }

func (h *RegisterHandler) Validate(data map[string]any, sender string) bool {
	_, ok := handlers.String(data, "publicKey")
	return ok
}

func (h *RegisterHandler) Process(data map[string]any, sender, txID string, timestamp int64) bool {
	publicKey, _ := handlers.String(data, "publicKey")
	if err := h.Accts.RegisterWitness(sender, publicKey); err != nil {
		return false
	}
	h.emit("register", sender, txID, timestamp, map[string]any{"witness": sender})
	return true
}

// VoteHandler implements WITNESS_VOTE: the sender adds target to their
// vote set.
type VoteHandler struct{ Deps }

func (h *VoteHandler) Validate(data map[string]any, sender string) bool {
	target, ok := handlers.String(data, "witness")
	if !ok || target == sender {
		return false
	}
	acc, ok := h.Accts.Get(target)
	return ok && acc.IsWitness()
}

func (h *VoteHandler) Process(data map[string]any, sender, txID string, timestamp int64) bool {
	target, _ := handlers.String(data, "witness")
	newVotes := h.currentVotes(sender)
	newVotes[target] = struct{}{}

	if err := h.Maintainer.Recompute(sender, &target, h.NativeSymbol, newVotes); err != nil {
		return false
	}
	h.emit("vote", sender, txID, timestamp, map[string]any{"witness": target})
	return true
}

// UnvoteHandler implements WITNESS_UNVOTE: the sender removes target from
// their vote set.
type UnvoteHandler struct{ Deps }

func (h *UnvoteHandler) Validate(data map[string]any, sender string) bool {
	target, ok := handlers.String(data, "witness")
	if !ok {
		return false
	}
	acc, ok := h.Accts.Get(sender)
	if !ok {
		return false
	}
	_, voting := acc.VotedWitnesses[target]
	return voting
}

func (h *UnvoteHandler) Process(data map[string]any, sender, txID string, timestamp int64) bool {
	target, _ := handlers.String(data, "witness")
	newVotes := h.currentVotes(sender)
	delete(newVotes, target)

	if err := h.Maintainer.Recompute(sender, &target, h.NativeSymbol, newVotes); err != nil {
		return false
	}
	h.emit("unvote", sender, txID, timestamp, map[string]any{"witness": target})
	return true
}

// currentVotes returns a fresh copy of the sender's vote set so mutating
// it doesn't alias the account's live map before Recompute replaces it.
func (d Deps) currentVotes(sender string) map[string]struct{} {
	out := make(map[string]struct{})
	if acc, ok := d.Accts.Get(sender); ok {
		for w := range acc.VotedWitnesses {
			out[w] = struct{}{}
		}
	}
	return out
}
