package engine

import (
	"testing"

	"github.com/echo-chain/sidenode/internal/config"
	"github.com/echo-chain/sidenode/internal/store"
	"github.com/echo-chain/sidenode/internal/txdispatch"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	cfg := config.Default()
	return New(cfg, store.NewMemoryStore(), nil)
}

func TestNewSeedsGenesisMarket(t *testing.T) {
	e := newTestEngine(t)
	if _, ok := e.Tokens.Get(e.cfg.NativeSymbol); !ok {
		t.Fatalf("native token %s not registered", e.cfg.NativeSymbol)
	}
	pairs := e.Pairs.All()
	if len(pairs) != 1 {
		t.Fatalf("pairs = %d, want 1", len(pairs))
	}
}

func TestSubmitRejectsUnknownTransactionType(t *testing.T) {
	e := newTestEngine(t)
	res := e.Submit(txdispatch.Envelope{
		ID: "tx-1", Type: txdispatch.TransactionType(999), Sender: "alice",
		Data: map[string]any{},
	})
	if res.Success {
		t.Fatalf("expected failure for unregistered transaction type")
	}
}

func TestSubmitTokenCreateAndMint(t *testing.T) {
	e := newTestEngine(t)
	create := e.Submit(txdispatch.Envelope{
		ID: "tx-2", Type: txdispatch.TokenCreate, Sender: "issuer1",
		Data: map[string]any{"symbol": "GLD", "decimals": float64(6), "mintable": true, "totalSupply": "0"},
	})
	if !create.Success {
		t.Fatalf("token create failed: %s", create.Error)
	}

	mint := e.Submit(txdispatch.Envelope{
		ID: "tx-3", Type: txdispatch.TokenMint, Sender: "issuer1",
		Data: map[string]any{"symbol": "GLD", "recipient": "alice", "amount": "1000000"},
	})
	if !mint.Success {
		t.Fatalf("token mint failed: %s", mint.Error)
	}

	acc, ok := e.Accts.Get("alice")
	if !ok {
		t.Fatalf("alice account not created")
	}
	if acc.Balance("GLD") == nil || acc.Balance("GLD").IsZero() {
		t.Fatalf("alice GLD balance not credited: %+v", acc.Balances)
	}
}
