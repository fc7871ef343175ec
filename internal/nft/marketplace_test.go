package nft

import (
	"testing"

	"github.com/echo-chain/sidenode/internal/accounts"
	"github.com/echo-chain/sidenode/internal/amount"
	"github.com/echo-chain/sidenode/internal/events"
	"github.com/echo-chain/sidenode/internal/store"
)

func newTestMarketplace(t *testing.T) (*Marketplace, *accounts.Manager) {
	t.Helper()
	st := store.NewMemoryStore()
	accts := accounts.NewManager(st, nil)
	jrnl := events.NewJournal(st, nil, nil)
	return NewMarketplace(accts, jrnl), accts
}

func TestNFTSaleWithRoyalty(t *testing.T) {
	m, accts := newTestMarketplace(t)
	_, err := m.CreateCollection("CATS", "dave", 100, true, true, true, 500)
	if err != nil {
		t.Fatalf("createCollection failed: %v", err)
	}
	inst, err := m.Mint("CATS", "dave", "frank", nil, nil, "")
	if err != nil {
		t.Fatalf("mint failed: %v", err)
	}
	tokenID := TokenID("CATS", inst.Index)

	listing, err := m.ListItem(tokenID, "frank", amount.FromInt64(1000), "USD", FixedPrice, 0, nil)
	if err != nil {
		t.Fatalf("listItem failed: %v", err)
	}

	_ = accts.AdjustBalance("eve", "USD", amount.FromInt64(1000))

	gotListing, bid, err := m.BuyItem(listing.ID, "eve", amount.FromInt64(1000))
	if err != nil {
		t.Fatalf("buyItem failed: %v", err)
	}
	if bid != nil {
		t.Fatalf("expected immediate settlement, not a bid")
	}
	if gotListing.Status != ListingSold {
		t.Fatalf("expected listing sold, got %s", gotListing.Status)
	}

	eve, _ := accts.Get("eve")
	frank, _ := accts.Get("frank")
	dave, _ := accts.Get("dave")
	if !eve.Balance("USD").IsZero() {
		t.Fatalf("eve should have spent all 1000, got %s", eve.Balance("USD").String())
	}
	if frank.Balance("USD").String() != "950" {
		t.Fatalf("frank expected 950, got %s", frank.Balance("USD").String())
	}
	if dave.Balance("USD").String() != "50" {
		t.Fatalf("dave expected 50 royalty, got %s", dave.Balance("USD").String())
	}

	reloaded, ok := m.instances[tokenID]
	if !ok || reloaded.Owner != "eve" {
		t.Fatalf("expected eve to own %s, got %+v", tokenID, reloaded)
	}
}

func TestOutbidThenCancelCascade(t *testing.T) {
	m, accts := newTestMarketplace(t)
	_, _ = m.CreateCollection("ART", "dave", 100, true, true, true, 0)
	inst, _ := m.Mint("ART", "dave", "frank", nil, nil, "")
	tokenID := TokenID("ART", inst.Index)
	listing, _ := m.ListItem(tokenID, "frank", amount.FromInt64(100), "USD", Auction, 0, nil)

	_ = accts.AdjustBalance("gwen", "USD", amount.FromInt64(100))
	_ = accts.AdjustBalance("henry", "USD", amount.FromInt64(120))

	_, gwenBid, err := m.BuyItem(listing.ID, "gwen", amount.FromInt64(100))
	if err != nil {
		t.Fatalf("gwen bid failed: %v", err)
	}
	if gwenBid.Status != BidWinning {
		t.Fatalf("expected gwen's first bid to be winning, got %s", gwenBid.Status)
	}

	_, henryBid, err := m.BuyItem(listing.ID, "henry", amount.FromInt64(120))
	if err != nil {
		t.Fatalf("henry bid failed: %v", err)
	}
	if henryBid.Status != BidWinning {
		t.Fatalf("expected henry's bid to be winning, got %s", henryBid.Status)
	}
	if m.bids[gwenBid.ID].Status != BidOutbid {
		t.Fatalf("expected gwen outbid, got %s", m.bids[gwenBid.ID].Status)
	}
	if listing.CurrentHighestBid != henryBid.ID {
		t.Fatalf("expected henry to be current highest bid")
	}

	if err := m.CancelBid(henryBid.ID, "henry"); err != nil {
		t.Fatalf("henry cancel failed: %v", err)
	}
	henry, _ := accts.Get("henry")
	if henry.Balance("USD").String() != "120" {
		t.Fatalf("expected henry's 120 released, got %s", henry.Balance("USD").String())
	}
	if m.bids[gwenBid.ID].Status != BidWinning {
		t.Fatalf("expected gwen promoted back to winning, got %s", m.bids[gwenBid.ID].Status)
	}
	if listing.CurrentHighestBid != gwenBid.ID {
		t.Fatalf("expected gwen's bid to be the new current highest bid")
	}
}

func TestRoyaltyCapRejected(t *testing.T) {
	m, _ := newTestMarketplace(t)
	if _, err := m.CreateCollection("X", "dave", 10, true, true, true, 2501); err == nil {
		t.Fatalf("expected royaltyBps > 2500 to be rejected")
	}
}

func TestOnlyCreatorMayMint(t *testing.T) {
	m, _ := newTestMarketplace(t)
	_, _ = m.CreateCollection("X", "dave", 10, true, true, true, 0)
	if _, err := m.Mint("X", "mallory", "mallory", nil, nil, ""); err == nil {
		t.Fatalf("expected mint by non-creator to be rejected")
	}
}
