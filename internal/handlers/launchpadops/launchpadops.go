// Package launchpadops implements the LAUNCHPAD_* transaction handlers
// (spec §4.6, §6), wrapping internal/launchpad's status-machine registry
// behind the validate/process handler contract. Presale configuration
// has no dedicated wire transaction type, so LAUNCHPAD_LAUNCH_TOKEN
// accepts an optional "presale" object and configures it in the same
// transaction as the launch record is created.
package launchpadops

import (
	"github.com/echo-chain/sidenode/internal/events"
	"github.com/echo-chain/sidenode/internal/handlers"
	"github.com/echo-chain/sidenode/internal/launchpad"
)

const eventCategory = "launchpad"

// Deps are the shared collaborators every launchpad handler needs.
type Deps struct {
	Pads *launchpad.Registry
	Jrnl *events.Journal
}

func (d Deps) emit(action, actor, txID string, timestamp int64, data map[string]any) {
	if d.Jrnl == nil {
		return
	}
	_, _ = d.Jrnl.Append(eventCategory, action, actor, data, txID, timestamp)
}

// LaunchTokenHandler implements LAUNCHPAD_LAUNCH_TOKEN.
type LaunchTokenHandler struct{ Deps }

func (h *LaunchTokenHandler) Validate(data map[string]any, sender string) bool {
	if _, ok := handlers.String(data, "symbol"); !ok {
		return false
	}
	if _, ok := handlers.String(data, "name"); !ok {
		return false
	}
	totalSupply, ok := handlers.Amount(data, "totalSupply")
	return ok && totalSupply.IsPositive()
}

func (h *LaunchTokenHandler) Process(data map[string]any, sender, txID string, timestamp int64) bool {
	symbol, _ := handlers.String(data, "symbol")
	name, _ := handlers.String(data, "name")
	decimals := handlers.OptInt64(data, "decimals")
	totalSupply, _ := handlers.Amount(data, "totalSupply")
	description := handlers.OptString(data, "description")
	website := handlers.OptString(data, "website")

	l, err := h.Pads.LaunchToken(sender, txID, symbol, name, decimals, totalSupply, description, website)
	if err != nil {
		return false
	}

	if presale := handlers.Map(data, "presale"); presale != nil {
		pricePerToken, ok1 := handlers.Amount(presale, "pricePerToken")
		hardCap, ok2 := handlers.Amount(presale, "hardCap")
		if !ok1 || !ok2 {
			return false
		}
		details := launchpad.PresaleDetails{
			PricePerToken:   pricePerToken,
			HardCap:         hardCap,
			SoftCap:         handlers.OptAmount(presale, "softCap"),
			MinContribution: handlers.OptAmount(presale, "minContribution"),
			MaxContribution: handlers.OptAmount(presale, "maxContribution"),
			StartTime:       handlers.OptInt64(presale, "startTime"),
			EndTime:         handlers.OptInt64(presale, "endTime"),
			QuoteAsset:      handlers.OptString(presale, "quoteAsset"),
			AllocationType:  launchpad.AllocationParticipants,
		}
		if err := h.Pads.ConfigurePresale(l.ID, sender, details); err != nil {
			return false
		}
	}

	h.emit("launch_token", sender, txID, timestamp, map[string]any{"launchpadId": l.ID, "symbol": symbol})
	return true
}

// ParticipatePresaleHandler implements LAUNCHPAD_PARTICIPATE_PRESALE.
type ParticipatePresaleHandler struct{ Deps }

func (h *ParticipatePresaleHandler) Validate(data map[string]any, sender string) bool {
	if _, ok := handlers.String(data, "launchpadId"); !ok {
		return false
	}
	contribution, ok := handlers.Amount(data, "contribution")
	return ok && contribution.IsPositive()
}

func (h *ParticipatePresaleHandler) Process(data map[string]any, sender, txID string, timestamp int64) bool {
	padID, _ := handlers.String(data, "launchpadId")
	contribution, _ := handlers.Amount(data, "contribution")
	if err := h.Pads.ParticipatePresale(padID, sender, contribution); err != nil {
		return false
	}
	h.emit("participate_presale", sender, txID, timestamp, map[string]any{"launchpadId": padID, "contribution": contribution.String()})
	return true
}

// ClaimTokensHandler implements LAUNCHPAD_CLAIM_TOKENS.
type ClaimTokensHandler struct{ Deps }

func (h *ClaimTokensHandler) Validate(data map[string]any, sender string) bool {
	_, ok := handlers.String(data, "launchpadId")
	return ok
}

func (h *ClaimTokensHandler) Process(data map[string]any, sender, txID string, timestamp int64) bool {
	padID, _ := handlers.String(data, "launchpadId")
	if err := h.Pads.ClaimTokens(padID, sender); err != nil {
		return false
	}
	h.emit("claim_tokens", sender, txID, timestamp, map[string]any{"launchpadId": padID})
	return true
}

// UpdateStatusHandler implements LAUNCHPAD_UPDATE_STATUS.
type UpdateStatusHandler struct{ Deps }

func (h *UpdateStatusHandler) Validate(data map[string]any, sender string) bool {
	if _, ok := handlers.String(data, "launchpadId"); !ok {
		return false
	}
	_, ok := handlers.String(data, "status")
	return ok
}

func (h *UpdateStatusHandler) Process(data map[string]any, sender, txID string, timestamp int64) bool {
	padID, _ := handlers.String(data, "launchpadId")
	status, _ := handlers.String(data, "status")
	if err := h.Pads.UpdateStatus(padID, sender, launchpad.Status(status)); err != nil {
		return false
	}
	h.emit("update_status", sender, txID, timestamp, map[string]any{"launchpadId": padID, "status": status})
	return true
}

// FinalizePresaleHandler implements LAUNCHPAD_FINALIZE_PRESALE.
type FinalizePresaleHandler struct{ Deps }

func (h *FinalizePresaleHandler) Validate(data map[string]any, sender string) bool {
	_, ok := handlers.String(data, "launchpadId")
	return ok
}

func (h *FinalizePresaleHandler) Process(data map[string]any, sender, txID string, timestamp int64) bool {
	padID, _ := handlers.String(data, "launchpadId")
	if err := h.Pads.FinalizePresale(padID, timestamp); err != nil {
		return false
	}
	h.emit("finalize_presale", sender, txID, timestamp, map[string]any{"launchpadId": padID})
	return true
}

// SetMainTokenHandler implements LAUNCHPAD_SET_MAIN_TOKEN.
type SetMainTokenHandler struct{ Deps }

func (h *SetMainTokenHandler) Validate(data map[string]any, sender string) bool {
	if _, ok := handlers.String(data, "launchpadId"); !ok {
		return false
	}
	_, ok := handlers.String(data, "tokenSymbol")
	return ok
}

func (h *SetMainTokenHandler) Process(data map[string]any, sender, txID string, timestamp int64) bool {
	padID, _ := handlers.String(data, "launchpadId")
	tokenSymbol, _ := handlers.String(data, "tokenSymbol")
	if err := h.Pads.SetMainToken(padID, sender, tokenSymbol); err != nil {
		return false
	}
	h.emit("set_main_token", sender, txID, timestamp, map[string]any{"launchpadId": padID, "tokenSymbol": tokenSymbol})
	return true
}

// RefundPresaleHandler implements LAUNCHPAD_REFUND_PRESALE.
type RefundPresaleHandler struct{ Deps }

func (h *RefundPresaleHandler) Validate(data map[string]any, sender string) bool {
	_, ok := handlers.String(data, "launchpadId")
	return ok
}

func (h *RefundPresaleHandler) Process(data map[string]any, sender, txID string, timestamp int64) bool {
	padID, _ := handlers.String(data, "launchpadId")
	if err := h.Pads.RefundPresale(padID); err != nil {
		return false
	}
	h.emit("refund_presale", sender, txID, timestamp, map[string]any{"launchpadId": padID})
	return true
}

// UpdateWhitelistHandler implements LAUNCHPAD_UPDATE_WHITELIST.
type UpdateWhitelistHandler struct{ Deps }

func (h *UpdateWhitelistHandler) Validate(data map[string]any, sender string) bool {
	_, ok := handlers.String(data, "launchpadId")
	return ok
}

func (h *UpdateWhitelistHandler) Process(data map[string]any, sender, txID string, timestamp int64) bool {
	padID, _ := handlers.String(data, "launchpadId")
	add := handlers.StringSlice(data, "add")
	remove := handlers.StringSlice(data, "remove")
	if err := h.Pads.UpdateWhitelist(padID, sender, add, remove); err != nil {
		return false
	}
	h.emit("update_whitelist", sender, txID, timestamp, map[string]any{"launchpadId": padID, "added": len(add), "removed": len(remove)})
	return true
}
