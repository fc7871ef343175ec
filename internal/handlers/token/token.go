// Package token implements the TOKEN_* transaction handlers (spec §3
// Token, §6 TOKEN_CREATE/TOKEN_MINT/TOKEN_TRANSFER/TOKEN_UPDATE/
// TOKEN_WITHDRAW), each satisfying txdispatch.Handler. Grounded on the
// teacher's validate/process split and on the account manager's
// AdjustBalance primitive for every balance-moving step.
package token

import (
	"github.com/echo-chain/sidenode/internal/accounts"
	"github.com/echo-chain/sidenode/internal/amount"
	"github.com/echo-chain/sidenode/internal/events"
	"github.com/echo-chain/sidenode/internal/handlers"
	"github.com/echo-chain/sidenode/internal/market"
)

const eventCategory = "token"

// Deps are the shared collaborators every token handler needs.
type Deps struct {
	Tokens   *market.TokenRegistry
	Decimals *amount.DecimalRegistry
	Accts    *accounts.Manager
	Jrnl     *events.Journal
}

// CreateHandler implements TOKEN_CREATE: registers a brand-new token
// symbol, pinned to the sender as issuer.
type CreateHandler struct{ Deps }

func (h *CreateHandler) Validate(data map[string]any, sender string) bool {
	symbol, ok := handlers.String(data, "symbol")
	if !ok || h.Tokens.Exists(symbol) {
		return false
	}
	decimals, ok := handlers.Int64(data, "decimals")
	if !ok || decimals < 0 || decimals > 18 {
		return false
	}
	if _, ok := handlers.Amount(data, "totalSupply"); !ok {
		return false
	}
	return true
}

func (h *CreateHandler) Process(data map[string]any, sender, txID string, timestamp int64) bool {
	symbol, _ := handlers.String(data, "symbol")
	decimals, _ := handlers.Int64(data, "decimals")
	totalSupply, _ := handlers.Amount(data, "totalSupply")
	maxSupply := handlers.OptAmount(data, "maxSupply")
	mintable := handlers.Bool(data, "mintable", false)

	t := &market.Token{
		Symbol:      symbol,
		Issuer:      sender,
		Decimals:    int(decimals),
		TotalSupply: totalSupply,
		MaxSupply:   maxSupply,
		Mintable:    mintable,
		Metadata:    handlers.Map(data, "metadata"),
	}
	if err := h.Tokens.Register(t); err != nil {
		return false
	}
	h.Decimals.Register(symbol, int(decimals))
	if err := h.Accts.AdjustBalance(sender, symbol, totalSupply); err != nil {
		return false
	}
	h.emit("create", sender, txID, timestamp, map[string]any{"symbol": symbol, "totalSupply": totalSupply.String()})
	return true
}

// MintHandler implements TOKEN_MINT: issuer-only, requires Mintable,
// respects maxSupply.
type MintHandler struct{ Deps }

func (h *MintHandler) Validate(data map[string]any, sender string) bool {
	symbol, ok := handlers.String(data, "symbol")
	if !ok {
		return false
	}
	t, ok := h.Tokens.Get(symbol)
	if !ok || t.Issuer != sender || !t.Mintable {
		return false
	}
	amt, ok := handlers.Amount(data, "amount")
	return ok && amt.IsPositive()
}

func (h *MintHandler) Process(data map[string]any, sender, txID string, timestamp int64) bool {
	symbol, _ := handlers.String(data, "symbol")
	amt, _ := handlers.Amount(data, "amount")
	recipient := handlers.OptString(data, "recipient")
	if recipient == "" {
		recipient = sender
	}

	if err := h.Tokens.IncreaseSupply(symbol, amt); err != nil {
		return false
	}
	if err := h.Accts.AdjustBalance(recipient, symbol, amt); err != nil {
		return false
	}
	h.emit("mint", sender, txID, timestamp, map[string]any{"symbol": symbol, "amount": amt.String(), "recipient": recipient})
	return true
}

// TransferHandler implements TOKEN_TRANSFER: moves balance sender->recipient.
type TransferHandler struct{ Deps }

func (h *TransferHandler) Validate(data map[string]any, sender string) bool {
	symbol, ok := handlers.String(data, "symbol")
	if !ok || !h.Tokens.Exists(symbol) {
		return false
	}
	recipient, ok := handlers.String(data, "recipient")
	if !ok || recipient == sender {
		return false
	}
	amt, ok := handlers.Amount(data, "amount")
	if !ok || !amt.IsPositive() {
		return false
	}
	acc, ok := h.Accts.Get(sender)
	return ok && acc.Balance(symbol).GTE(amt)
}

func (h *TransferHandler) Process(data map[string]any, sender, txID string, timestamp int64) bool {
	symbol, _ := handlers.String(data, "symbol")
	recipient, _ := handlers.String(data, "recipient")
	amt, _ := handlers.Amount(data, "amount")

	ledger := accounts.NewLedger(h.Accts)
	if err := ledger.Move(sender, symbol, amt.Neg()); err != nil {
		return false
	}
	if err := ledger.Move(recipient, symbol, amt); err != nil {
		ledger.Unwind()
		return false
	}
	h.emit("transfer", sender, txID, timestamp, map[string]any{"symbol": symbol, "amount": amt.String(), "recipient": recipient})
	return true
}

// UpdateHandler implements TOKEN_UPDATE: issuer-only metadata edit.
type UpdateHandler struct{ Deps }

func (h *UpdateHandler) Validate(data map[string]any, sender string) bool {
	symbol, ok := handlers.String(data, "symbol")
	if !ok {
		return false
	}
	t, ok := h.Tokens.Get(symbol)
	return ok && t.Issuer == sender
}

func (h *UpdateHandler) Process(data map[string]any, sender, txID string, timestamp int64) bool {
	symbol, _ := handlers.String(data, "symbol")
	if err := h.Tokens.UpdateMetadata(symbol, handlers.Map(data, "metadata")); err != nil {
		return false
	}
	h.emit("update", sender, txID, timestamp, map[string]any{"symbol": symbol})
	return true
}

// WithdrawHandler implements TOKEN_WITHDRAW: burns balance and supply,
// modeling value leaving the chain toward an external custody point.
type WithdrawHandler struct{ Deps }

func (h *WithdrawHandler) Validate(data map[string]any, sender string) bool {
	symbol, ok := handlers.String(data, "symbol")
	if !ok || !h.Tokens.Exists(symbol) {
		return false
	}
	amt, ok := handlers.Amount(data, "amount")
	if !ok || !amt.IsPositive() {
		return false
	}
	acc, ok := h.Accts.Get(sender)
	return ok && acc.Balance(symbol).GTE(amt)
}

func (h *WithdrawHandler) Process(data map[string]any, sender, txID string, timestamp int64) bool {
	symbol, _ := handlers.String(data, "symbol")
	amt, _ := handlers.Amount(data, "amount")

	if err := h.Accts.AdjustBalance(sender, symbol, amt.Neg()); err != nil {
		return false
	}
	if err := h.Tokens.DecreaseSupply(symbol, amt); err != nil {
		// Compensate: restore the balance we just debited (spec §7 store
		// failure path: unwind in reverse, log if even that fails).
		if rerr := h.Accts.AdjustBalance(sender, symbol, amt); rerr != nil {
			h.logCritical(sender, symbol, amt)
		}
		return false
	}
	h.emit("withdraw", sender, txID, timestamp, map[string]any{"symbol": symbol, "amount": amt.String()})
	return true
}

func (h *WithdrawHandler) logCritical(sender, symbol string, amt *amount.Amount) {
	if h.Jrnl == nil {
		return
	}
	_, _ = h.Jrnl.Append(eventCategory, "withdraw_unwind_failed", sender,
		map[string]any{"symbol": symbol, "amount": amt.String()}, "", 0)
}

func (d Deps) emit(action, actor, txID string, timestamp int64, data map[string]any) {
	if d.Jrnl == nil {
		return
	}
	_, _ = d.Jrnl.Append(eventCategory, action, actor, data, txID, timestamp)
}
