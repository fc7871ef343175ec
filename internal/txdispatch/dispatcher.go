package txdispatch

import (
	"fmt"

	"github.com/echo-chain/sidenode/internal/accounts"
	"go.uber.org/zap"
)

// accountFields are the data keys the dispatcher scans for account names
// before processing (spec §4.1 step 2), so every referenced account
// exists before any handler touches its balance.
var accountFields = []string{
	"recipient", "buyer", "seller", "provider", "owner", "creator",
	"issuer", "user", "bidder", "trader",
}

// Dispatcher routes decoded envelopes to their registered handler
// (spec §4.1).
type Dispatcher struct {
	registry *Registry
	accts    *accounts.Manager
	log      *zap.SugaredLogger
}

func NewDispatcher(registry *Registry, accts *accounts.Manager, log *zap.SugaredLogger) *Dispatcher {
	return &Dispatcher{registry: registry, accts: accts, log: log}
}

// Dispatch implements §4.1 steps 1-6. It never retries: a failure here is
// final for this envelope, and retry policy belongs to whatever feeds
// envelopes in (out of scope per spec §1).
func (d *Dispatcher) Dispatch(env Envelope) Result {
	if env.ID == "" || env.Sender == "" {
		return Result{Success: false, Error: "missing id, type, or sender"}
	}

	d.upsertAccounts(env)

	handler, ok := d.registry.Lookup(env.Type)
	if !ok {
		return Result{Success: false, Error: fmt.Sprintf("unknown transaction type %d", int(env.Type))}
	}

	if !handler.Validate(env.Data, env.Sender) {
		return Result{Success: false, Error: fmt.Sprintf("invalid %s", env.Type)}
	}

	if !handler.Process(env.Data, env.Sender, env.ID, env.Timestamp) {
		return Result{Success: false, Error: fmt.Sprintf("failed to process %s", env.Type)}
	}

	return Result{Success: true}
}

// upsertAccounts ensures the sender and every account-shaped field named
// in data exist before the handler runs (spec §4.1 step 2).
func (d *Dispatcher) upsertAccounts(env Envelope) {
	d.accts.GetOrCreate(env.Sender)
	for _, field := range accountFields {
		v, ok := env.Data[field]
		if !ok {
			continue
		}
		if name, ok := v.(string); ok && name != "" {
			d.accts.GetOrCreate(name)
		}
	}
}
