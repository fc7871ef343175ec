package txdispatch

import (
	"testing"

	"github.com/echo-chain/sidenode/internal/accounts"
	"github.com/echo-chain/sidenode/internal/store"
)

type stubHandler struct {
	validateResult bool
	processResult  bool
	processed      bool
}

func (h *stubHandler) Validate(data map[string]any, sender string) bool { return h.validateResult }
func (h *stubHandler) Process(data map[string]any, sender, txID string, timestamp int64) bool {
	h.processed = true
	return h.processResult
}

func newTestDispatcher(t *testing.T) (*Dispatcher, *Registry, *accounts.Manager) {
	t.Helper()
	accts := accounts.NewManager(store.NewMemoryStore(), nil)
	reg := NewRegistry()
	return NewDispatcher(reg, accts, nil), reg, accts
}

func TestDispatchUnknownTypeFails(t *testing.T) {
	d, _, _ := newTestDispatcher(t)
	res := d.Dispatch(Envelope{ID: "tx1", Type: TokenCreate, Sender: "alice", Data: map[string]any{}})
	if res.Success {
		t.Fatalf("expected unknown type to fail")
	}
}

func TestDispatchRejectsMissingIDOrSender(t *testing.T) {
	d, reg, _ := newTestDispatcher(t)
	reg.Register(TokenCreate, &stubHandler{validateResult: true, processResult: true})

	if res := d.Dispatch(Envelope{Type: TokenCreate, Sender: "alice"}); res.Success {
		t.Fatalf("expected missing id to fail")
	}
	if res := d.Dispatch(Envelope{ID: "tx1", Type: TokenCreate}); res.Success {
		t.Fatalf("expected missing sender to fail")
	}
}

func TestDispatchValidateFailureShortCircuitsProcess(t *testing.T) {
	d, reg, _ := newTestDispatcher(t)
	h := &stubHandler{validateResult: false, processResult: true}
	reg.Register(TokenCreate, h)

	res := d.Dispatch(Envelope{ID: "tx1", Type: TokenCreate, Sender: "alice", Data: map[string]any{}})
	if res.Success {
		t.Fatalf("expected validate failure to fail the dispatch")
	}
	if h.processed {
		t.Fatalf("expected process to never run after validate failure")
	}
}

func TestDispatchSucceedsAndUpsertsAccounts(t *testing.T) {
	d, reg, accts := newTestDispatcher(t)
	reg.Register(TokenTransfer, &stubHandler{validateResult: true, processResult: true})

	res := d.Dispatch(Envelope{
		ID: "tx1", Type: TokenTransfer, Sender: "alice",
		Data: map[string]any{"recipient": "bob"},
	})
	if !res.Success {
		t.Fatalf("expected dispatch to succeed, got error %q", res.Error)
	}
	if _, ok := accts.Get("alice"); !ok {
		t.Fatalf("expected sender account to be upserted")
	}
	if _, ok := accts.Get("bob"); !ok {
		t.Fatalf("expected recipient account to be upserted")
	}
}

func TestDispatchProcessFailureReportsFailedToProcess(t *testing.T) {
	d, reg, _ := newTestDispatcher(t)
	reg.Register(PoolSwap, &stubHandler{validateResult: true, processResult: false})

	res := d.Dispatch(Envelope{ID: "tx1", Type: PoolSwap, Sender: "alice", Data: map[string]any{}})
	if res.Success {
		t.Fatalf("expected process failure to fail the dispatch")
	}
}
