package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/echo-chain/sidenode/internal/accounts"
	"github.com/echo-chain/sidenode/internal/amm"
	"github.com/echo-chain/sidenode/internal/amount"
	"github.com/echo-chain/sidenode/internal/events"
	"github.com/echo-chain/sidenode/internal/launchpad"
	"github.com/echo-chain/sidenode/internal/market"
	"github.com/echo-chain/sidenode/internal/orderbook"
	"github.com/echo-chain/sidenode/internal/store"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	accts := accounts.NewManager(store.NewMemoryStore(), nil)
	pairs := market.NewRegistry()
	s := NewServer(Deps{
		Accts:      accts,
		Tokens:     market.NewTokenRegistry(),
		Pairs:      pairs,
		Book:       orderbook.NewEngine(pairs, accts, nil),
		Pools:      amm.NewRegistry(),
		Positions:  amm.NewPositionBook(),
		Pads:       launchpad.NewRegistry(accts),
		Jrnl:       events.NewJournal(store.NewMemoryStore(), nil, nil),
		MasterName: "echo-foundation",
	})
	return s
}

func doGet(s *Server, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t)
	rec := doGet(s, "/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestGetAccountNotFound(t *testing.T) {
	s := newTestServer(t)
	rec := doGet(s, "/api/v1/accounts/nobody")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	var body errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if body.Success {
		t.Fatalf("success = true, want false")
	}
}

func TestGetAccountFound(t *testing.T) {
	s := newTestServer(t)
	if err := s.Accts.AdjustBalance("alice", "ECH", amount.FromInt64(500)); err != nil {
		t.Fatalf("adjust balance failed: %v", err)
	}
	rec := doGet(s, "/api/v1/accounts/alice")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if !body.Success {
		t.Fatalf("success = false, want true")
	}
}

func TestListPairsFiltersByStatus(t *testing.T) {
	s := newTestServer(t)
	_ = s.Pairs.Register(&market.TradingPair{
		ID: "ECH-USD", Base: "ECH", Quote: "USD",
		TickSize: amount.FromInt64(1), LotSize: amount.FromInt64(1),
		MinNotional: amount.FromInt64(1), MinTradeAmount: amount.FromInt64(1),
		Status: market.Trading,
	})
	rec := doGet(s, "/api/v1/markets/pairs?status=HALTED")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	views, ok := body.Data.([]any)
	if !ok || len(views) != 0 {
		t.Fatalf("expected zero HALTED pairs, got %v", body.Data)
	}
}

func TestRouteOrderingAccountsCountBeforeVariable(t *testing.T) {
	s := newTestServer(t)
	rec := doGet(s, "/api/v1/accounts/count")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (accounts/count must not be shadowed by accounts/{name})", rec.Code)
	}
}
