// Package farmops implements the FARM_* transaction handlers (spec §6
// FARM_CREATE/FARM_STAKE/FARM_UNSTAKE/FARM_CLAIM_REWARDS/
// FARM_UPDATE_WEIGHT), wrapping internal/farms' staking-farm registry.
package farmops

import (
	"github.com/echo-chain/sidenode/internal/events"
	"github.com/echo-chain/sidenode/internal/farms"
	"github.com/echo-chain/sidenode/internal/handlers"
)

const eventCategory = "farm"

// Deps are the shared collaborators every farm handler needs.
type Deps struct {
	Farms      *farms.Registry
	MasterName string
	Jrnl       *events.Journal
}

func (d Deps) emit(action, actor, txID string, timestamp int64, data map[string]any) {
	if d.Jrnl == nil {
		return
	}
	_, _ = d.Jrnl.Append(eventCategory, action, actor, data, txID, timestamp)
}

// CreateHandler implements FARM_CREATE. Only MasterName may create a
// native farm (one that draws from the block reward pool); anyone may
// create a non-native farm funded entirely by its own stakers.
type CreateHandler struct{ Deps }

func (h *CreateHandler) Validate(data map[string]any, sender string) bool {
	id, ok := handlers.String(data, "id")
	if !ok || id == "" {
		return false
	}
	if _, ok := handlers.String(data, "stakeToken"); !ok {
		return false
	}
	if _, ok := handlers.String(data, "rewardToken"); !ok {
		return false
	}
	isNative := handlers.Bool(data, "isNativeFarm", false)
	if isNative && sender != h.MasterName {
		return false
	}
	if isNative {
		weightBps := handlers.OptInt64(data, "weightBps")
		if weightBps <= 0 || weightBps > 10000 {
			return false
		}
	}
	if _, exists := h.Farms.Get(id); exists {
		return false
	}
	return true
}

func (h *CreateHandler) Process(data map[string]any, sender, txID string, timestamp int64) bool {
	id, _ := handlers.String(data, "id")
	stakeToken, _ := handlers.String(data, "stakeToken")
	rewardToken, _ := handlers.String(data, "rewardToken")
	isNative := handlers.Bool(data, "isNativeFarm", false)
	weightBps := handlers.OptInt64(data, "weightBps")

	if _, err := h.Farms.CreateFarm(id, sender, stakeToken, rewardToken, weightBps, isNative); err != nil {
		return false
	}
	h.emit("create", sender, txID, timestamp, map[string]any{
		"farmId": id, "stakeToken": stakeToken, "rewardToken": rewardToken, "isNativeFarm": isNative,
	})
	return true
}

// StakeHandler implements FARM_STAKE.
type StakeHandler struct{ Deps }

func (h *StakeHandler) Validate(data map[string]any, sender string) bool {
	id, ok := handlers.String(data, "farmId")
	if !ok {
		return false
	}
	if _, ok := h.Farms.Get(id); !ok {
		return false
	}
	amt, ok := handlers.Amount(data, "amount")
	return ok && amt.IsPositive()
}

func (h *StakeHandler) Process(data map[string]any, sender, txID string, timestamp int64) bool {
	id, _ := handlers.String(data, "farmId")
	amt, _ := handlers.Amount(data, "amount")
	if err := h.Farms.Stake(id, sender, amt); err != nil {
		return false
	}
	h.emit("stake", sender, txID, timestamp, map[string]any{"farmId": id, "amount": amt.String()})
	return true
}

// UnstakeHandler implements FARM_UNSTAKE.
type UnstakeHandler struct{ Deps }

func (h *UnstakeHandler) Validate(data map[string]any, sender string) bool {
	id, ok := handlers.String(data, "farmId")
	if !ok {
		return false
	}
	if _, ok := h.Farms.Get(id); !ok {
		return false
	}
	amt, ok := handlers.Amount(data, "amount")
	if !ok || !amt.IsPositive() {
		return false
	}
	return h.Farms.StakedBalance(id, sender).GTE(amt)
}

func (h *UnstakeHandler) Process(data map[string]any, sender, txID string, timestamp int64) bool {
	id, _ := handlers.String(data, "farmId")
	amt, _ := handlers.Amount(data, "amount")
	if err := h.Farms.Unstake(id, sender, amt); err != nil {
		return false
	}
	h.emit("unstake", sender, txID, timestamp, map[string]any{"farmId": id, "amount": amt.String()})
	return true
}

// ClaimRewardsHandler implements FARM_CLAIM_REWARDS.
type ClaimRewardsHandler struct{ Deps }

func (h *ClaimRewardsHandler) Validate(data map[string]any, sender string) bool {
	id, ok := handlers.String(data, "farmId")
	if !ok {
		return false
	}
	_, ok = h.Farms.Get(id)
	return ok
}

func (h *ClaimRewardsHandler) Process(data map[string]any, sender, txID string, timestamp int64) bool {
	id, _ := handlers.String(data, "farmId")
	if err := h.Farms.ClaimRewards(id, sender); err != nil {
		return false
	}
	h.emit("claim_rewards", sender, txID, timestamp, map[string]any{"farmId": id})
	return true
}

// UpdateWeightHandler implements FARM_UPDATE_WEIGHT. Only the farm's
// creator (the native farm's deployer) may reweight it.
type UpdateWeightHandler struct{ Deps }

func (h *UpdateWeightHandler) Validate(data map[string]any, sender string) bool {
	id, ok := handlers.String(data, "farmId")
	if !ok {
		return false
	}
	f, ok := h.Farms.Get(id)
	if !ok || f.Creator != sender {
		return false
	}
	weightBps := handlers.OptInt64(data, "weightBps")
	return weightBps > 0 && weightBps <= 10000
}

func (h *UpdateWeightHandler) Process(data map[string]any, sender, txID string, timestamp int64) bool {
	id, _ := handlers.String(data, "farmId")
	weightBps := handlers.OptInt64(data, "weightBps")
	if err := h.Farms.UpdateWeight(id, weightBps); err != nil {
		return false
	}
	h.emit("update_weight", sender, txID, timestamp, map[string]any{"farmId": id, "weightBps": weightBps})
	return true
}
