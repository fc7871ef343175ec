package nft

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/echo-chain/sidenode/internal/accounts"
	"github.com/echo-chain/sidenode/internal/amount"
	"github.com/echo-chain/sidenode/internal/events"
)

// Marketplace owns every collection, instance, listing, bid, and offer,
// and settles payments through the shared account ledger (spec §4.7).
type Marketplace struct {
	mu sync.Mutex

	collections map[string]*Collection
	instances   map[string]*Instance // tokenID -> instance
	listings    map[string]*Listing
	listingByToken map[string]string // tokenID -> active listing id
	bids        map[string]*Bid
	bidsByListing map[string][]string // listing id -> bid ids, insertion order
	offers      map[string]*Offer

	accts *accounts.Manager
	jrnl  *events.Journal
	seq   uint64
}

func NewMarketplace(accts *accounts.Manager, jrnl *events.Journal) *Marketplace {
	return &Marketplace{
		collections:    make(map[string]*Collection),
		instances:      make(map[string]*Instance),
		listings:       make(map[string]*Listing),
		listingByToken: make(map[string]string),
		bids:           make(map[string]*Bid),
		bidsByListing:  make(map[string][]string),
		offers:         make(map[string]*Offer),
		accts:          accts,
		jrnl:           jrnl,
	}
}

func (m *Marketplace) nextID(prefix string) string {
	n := atomic.AddUint64(&m.seq, 1)
	return fmt.Sprintf("%s_%d", prefix, n)
}

// CreateCollection implements NFT_CREATE_COLLECTION.
func (m *Marketplace) CreateCollection(symbol, creator string, maxSupply int64, mintable, burnable, transferable bool, royaltyBps int64) (*Collection, error) {
	if royaltyBps > 2500 {
		return nil, fmt.Errorf("createCollection: royaltyBps %d exceeds the 2500 cap", royaltyBps)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.collections[symbol]; exists {
		return nil, fmt.Errorf("createCollection: collection %s already exists", symbol)
	}
	c := &Collection{
		Symbol: symbol, Creator: creator, NextIndex: 1, MaxSupply: maxSupply,
		Mintable: mintable, Burnable: burnable, Transferable: transferable, RoyaltyBps: royaltyBps,
	}
	m.collections[symbol] = c
	return c, nil
}

// Mint implements NFT_MINT: only the collection's creator may mint, and
// currentSupply must stay within maxSupply (spec §3 NFTCollection
// invariant, §8 invariant 9 for nextIndex monotonicity/uniqueness).
func (m *Marketplace) Mint(collectionID, minter, owner string, metadata, properties map[string]any, coverURL string) (*Instance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.collections[collectionID]
	if !ok {
		return nil, fmt.Errorf("mint: unknown collection %s", collectionID)
	}
	if !c.Mintable {
		return nil, fmt.Errorf("mint: collection %s is not mintable", collectionID)
	}
	if c.Creator != minter {
		return nil, fmt.Errorf("mint: only the creator may mint into %s", collectionID)
	}
	if c.MaxSupply > 0 && c.CurrentSupply >= c.MaxSupply {
		return nil, fmt.Errorf("mint: collection %s is at max supply", collectionID)
	}
	index := c.NextIndex
	tokenID := TokenID(collectionID, index)
	inst := &Instance{CollectionID: collectionID, Index: index, Owner: owner, Metadata: metadata, Properties: properties, CoverURL: coverURL}
	m.instances[tokenID] = inst
	c.NextIndex++
	c.CurrentSupply++
	return inst, nil
}

// Transfer implements NFT_TRANSFER: only the current owner may transfer,
// and only if the collection allows it.
func (m *Marketplace) Transfer(tokenID, from, to string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	inst, ok := m.instances[tokenID]
	if !ok {
		return fmt.Errorf("transfer: unknown token %s", tokenID)
	}
	if inst.Owner != from {
		return fmt.Errorf("transfer: %s is not owned by %s", tokenID, from)
	}
	c := m.collections[inst.CollectionID]
	if c == nil || !c.Transferable {
		return fmt.Errorf("transfer: collection %s is not transferable", inst.CollectionID)
	}
	inst.Owner = to
	return nil
}

// ListItem implements NFT_LIST_ITEM: the seller must currently own the
// token and the collection must be transferable.
func (m *Marketplace) ListItem(tokenID, seller string, price *amount.Amount, paymentToken string, listingType ListingType, auctionEndTime int64, reservePrice *amount.Amount) (*Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inst, ok := m.instances[tokenID]
	if !ok {
		return nil, fmt.Errorf("listItem: unknown token %s", tokenID)
	}
	if inst.Owner != seller {
		return nil, fmt.Errorf("listItem: %s does not own %s", seller, tokenID)
	}
	c := m.collections[inst.CollectionID]
	if c == nil || !c.Transferable {
		return nil, fmt.Errorf("listItem: collection %s is not transferable", inst.CollectionID)
	}
	if existing, ok := m.listingByToken[tokenID]; ok {
		if l := m.listings[existing]; l != nil && l.Status == ListingActive {
			return nil, fmt.Errorf("listItem: %s already has an active listing", tokenID)
		}
	}
	l := &Listing{
		ID: m.nextID("listing"), CollectionID: inst.CollectionID, TokenID: tokenID, Seller: seller,
		Price: price, PaymentToken: paymentToken, ListingType: listingType,
		AuctionEndTime: auctionEndTime, ReservePrice: reservePrice, Status: ListingActive,
	}
	m.listings[l.ID] = l
	m.listingByToken[tokenID] = l.ID
	return l, nil
}

// DelistItem implements NFT_DELIST_ITEM: only the seller, and only while
// active (auction listings with bids already placed must instead go
// through accept/cancel of each bid before delisting is allowed).
func (m *Marketplace) DelistItem(listingID, seller string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.listings[listingID]
	if !ok {
		return fmt.Errorf("delistItem: unknown listing %s", listingID)
	}
	if l.Seller != seller {
		return fmt.Errorf("delistItem: %s is not the seller of %s", seller, listingID)
	}
	if l.Status != ListingActive {
		return fmt.Errorf("delistItem: listing %s is not active", listingID)
	}
	if l.CurrentHighestBid != "" {
		return fmt.Errorf("delistItem: listing %s has an active highest bid, cancel it first", listingID)
	}
	l.Status = ListingCancelled
	delete(m.listingByToken, l.TokenID)
	return nil
}

// BuyItem implements NFT_BUY_ITEM. A fixed-price listing paid at or above
// its price settles immediately; otherwise (an explicit bidAmount below
// the listing price, or any auction) the payment becomes a bid instead
// (spec §4.7 "buy path").
func (m *Marketplace) BuyItem(listingID, buyer string, bidAmount *amount.Amount) (*Listing, *Bid, error) {
	m.mu.Lock()
	l, ok := m.listings[listingID]
	m.mu.Unlock()
	if !ok {
		return nil, nil, fmt.Errorf("buyItem: unknown listing %s", listingID)
	}
	if l.Status != ListingActive {
		return nil, nil, fmt.Errorf("buyItem: listing %s is not active", listingID)
	}

	isFixedPriceSettlement := l.ListingType == FixedPrice && bidAmount.GTE(l.Price)
	if isFixedPriceSettlement {
		if err := m.settleImmediate(l, buyer, l.Price); err != nil {
			return nil, nil, err
		}
		return l, nil, nil
	}

	bid, err := m.placeBid(l, buyer, bidAmount)
	return l, bid, err
}

// settleImmediate is the fixed-price happy path (spec §4.7 "Immediate
// settlement"): debit the buyer, split payment between seller and
// creator by royaltyBps, transfer ownership under an owner-match guard,
// and unwind in reverse on any failure after the first debit.
func (m *Marketplace) settleImmediate(l *Listing, buyer string, price *amount.Amount) error {
	m.mu.Lock()
	inst, ok := m.instances[l.TokenID]
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("settleImmediate: token %s vanished", l.TokenID)
	}
	c := m.collections[l.CollectionID]
	royaltyBps := int64(0)
	creator := ""
	if c != nil {
		royaltyBps = c.RoyaltyBps
		creator = c.Creator
	}

	ledger := accounts.NewLedger(m.accts)
	if err := ledger.Move(buyer, l.PaymentToken, price.Neg()); err != nil {
		return fmt.Errorf("settleImmediate: %w", err)
	}

	royaltyAmount := price.PercentOf(royaltyBps)
	sellerAmount := price.Sub(royaltyAmount)
	if err := ledger.Move(l.Seller, l.PaymentToken, sellerAmount); err != nil {
		ledger.Unwind()
		return fmt.Errorf("settleImmediate: %w", err)
	}
	if royaltyAmount.IsPositive() && creator != "" && creator != l.Seller {
		if err := ledger.Move(creator, l.PaymentToken, royaltyAmount); err != nil {
			ledger.Unwind()
			return fmt.Errorf("settleImmediate: %w", err)
		}
	} else if royaltyAmount.IsPositive() && creator == l.Seller {
		if err := ledger.Move(l.Seller, l.PaymentToken, royaltyAmount); err != nil {
			ledger.Unwind()
			return fmt.Errorf("settleImmediate: %w", err)
		}
	}

	m.mu.Lock()
	if inst.Owner != l.Seller {
		m.mu.Unlock()
		ledger.Unwind()
		return fmt.Errorf("settleImmediate: owner changed during settlement, expected %s", l.Seller)
	}
	inst.Owner = buyer
	l.Status = ListingSold
	delete(m.listingByToken, l.TokenID)
	m.mu.Unlock()

	m.emit("nft", "sale", buyer, map[string]any{
		"listingId": l.ID, "tokenId": l.TokenID, "seller": l.Seller, "buyer": buyer,
		"price": price.String(), "royalty": royaltyAmount.String(),
	})
	return nil
}

// placeBid implements NFT_BUY_ITEM's bid path and shares its escrow/
// highest-bid bookkeeping with MakeOffer's bid-style semantics (spec
// §4.7 "Bid path").
func (m *Marketplace) placeBid(l *Listing, bidder string, bidAmount *amount.Amount) (*Bid, error) {
	ledger := accounts.NewLedger(m.accts)
	if err := ledger.Move(bidder, l.PaymentToken, bidAmount.Neg()); err != nil {
		return nil, fmt.Errorf("placeBid: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// A prior ACTIVE bid from the same bidder on the same listing is
	// released and cancelled first.
	for _, id := range m.bidsByListing[l.ID] {
		prior := m.bids[id]
		if prior.Bidder == bidder && prior.Status == BidActive {
			_ = ledger.Move(bidder, l.PaymentToken, prior.EscrowedAmount)
			prior.Status = BidCancelled
		}
	}

	bid := &Bid{
		ID: m.nextID("bid"), ListingID: l.ID, Bidder: bidder,
		BidAmount: bidAmount, EscrowedAmount: bidAmount, Status: BidActive,
	}

	var currentHighest *Bid
	if l.CurrentHighestBid != "" {
		currentHighest = m.bids[l.CurrentHighestBid]
	}
	if currentHighest == nil || bidAmount.GT(currentHighest.BidAmount) {
		if currentHighest != nil {
			currentHighest.Status = BidOutbid
			currentHighest.IsHighestBid = false
			bid.PreviousHighBidID = currentHighest.ID
		}
		bid.Status = BidWinning
		bid.IsHighestBid = true
		l.CurrentHighestBid = bid.ID
	} else {
		bid.Status = BidActive
	}

	m.bids[bid.ID] = bid
	m.bidsByListing[l.ID] = append(m.bidsByListing[l.ID], bid.ID)
	return bid, nil
}

// AcceptBid implements "Accept bid" (spec §4.7): only the seller, only
// after any auction end time has passed, and only if the reserve (if
// any) is met. Settles the winning bid's escrow, transfers the NFT, and
// releases every other bid on the listing as LOST.
func (m *Marketplace) AcceptBid(listingID, seller string, now int64) error {
	m.mu.Lock()
	l, ok := m.listings[listingID]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("acceptBid: unknown listing %s", listingID)
	}
	if l.Seller != seller {
		m.mu.Unlock()
		return fmt.Errorf("acceptBid: %s is not the seller of %s", seller, listingID)
	}
	if l.Status != ListingActive {
		m.mu.Unlock()
		return fmt.Errorf("acceptBid: listing %s is not active", listingID)
	}
	if l.AuctionEndTime > 0 && now < l.AuctionEndTime {
		m.mu.Unlock()
		return fmt.Errorf("acceptBid: auction for listing %s has not ended", listingID)
	}
	winningID := l.CurrentHighestBid
	if winningID == "" {
		m.mu.Unlock()
		return fmt.Errorf("acceptBid: listing %s has no bids", listingID)
	}
	winner := m.bids[winningID]
	if l.ReservePrice != nil && l.ReservePrice.IsPositive() && winner.BidAmount.LT(l.ReservePrice) {
		m.mu.Unlock()
		return fmt.Errorf("acceptBid: listing %s reserve price not met", listingID)
	}
	inst, ok := m.instances[l.TokenID]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("acceptBid: token %s vanished", l.TokenID)
	}
	c := m.collections[l.CollectionID]
	royaltyBps := int64(0)
	creator := ""
	if c != nil {
		royaltyBps = c.RoyaltyBps
		creator = c.Creator
	}
	allBidIDs := append([]string(nil), m.bidsByListing[l.ID]...)
	m.mu.Unlock()

	ledger := accounts.NewLedger(m.accts)
	escrow := winner.EscrowedAmount
	royaltyAmount := escrow.PercentOf(royaltyBps)
	sellerAmount := escrow.Sub(royaltyAmount)
	if err := ledger.Move(l.Seller, l.PaymentToken, sellerAmount); err != nil {
		return fmt.Errorf("acceptBid: %w", err)
	}
	if royaltyAmount.IsPositive() && creator != "" && creator != l.Seller {
		if err := ledger.Move(creator, l.PaymentToken, royaltyAmount); err != nil {
			ledger.Unwind()
			return fmt.Errorf("acceptBid: %w", err)
		}
	} else if royaltyAmount.IsPositive() {
		if err := ledger.Move(l.Seller, l.PaymentToken, royaltyAmount); err != nil {
			ledger.Unwind()
			return fmt.Errorf("acceptBid: %w", err)
		}
	}

	m.mu.Lock()
	inst.Owner = winner.Bidder
	winner.Status = BidWon
	l.Status = ListingSold
	delete(m.listingByToken, l.TokenID)
	for _, id := range allBidIDs {
		if id == winningID {
			continue
		}
		other := m.bids[id]
		if other.Status == BidActive || other.Status == BidWinning || other.Status == BidOutbid {
			other.Status = BidLost
		}
	}
	m.mu.Unlock()

	for _, id := range allBidIDs {
		if id == winningID {
			continue
		}
		other := m.bids[id]
		if other.EscrowedAmount != nil && other.EscrowedAmount.IsPositive() && other.Status == BidLost {
			_ = m.accts.AdjustBalance(other.Bidder, l.PaymentToken, other.EscrowedAmount)
		}
	}

	m.emit("nft", "auction_settled", winner.Bidder, map[string]any{
		"listingId": l.ID, "tokenId": l.TokenID, "seller": l.Seller, "winner": winner.Bidder,
		"amount": escrow.String(), "royalty": royaltyAmount.String(),
	})
	return nil
}

// CancelBid implements "Cancel bid" (spec §4.7): only by the bidder,
// status must be ACTIVE/WINNING/OUTBID. Releases escrow, and if this was
// the highest bid, promotes the next-highest remaining bid to WINNING.
func (m *Marketplace) CancelBid(bidID, bidder string) error {
	m.mu.Lock()
	bid, ok := m.bids[bidID]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("cancelBid: unknown bid %s", bidID)
	}
	if bid.Bidder != bidder {
		m.mu.Unlock()
		return fmt.Errorf("cancelBid: %s is not the bidder", bidder)
	}
	switch bid.Status {
	case BidActive, BidWinning, BidOutbid:
	default:
		m.mu.Unlock()
		return fmt.Errorf("cancelBid: bid %s is not cancellable from status %s", bidID, bid.Status)
	}
	l := m.listings[bid.ListingID]
	wasHighest := bid.IsHighestBid
	bid.Status = BidCancelled
	bid.IsHighestBid = false

	var promoted *Bid
	if wasHighest && l != nil {
		for _, id := range m.bidsByListing[l.ID] {
			if id == bidID {
				continue
			}
			cand := m.bids[id]
			if cand.Status != BidOutbid {
				continue
			}
			if promoted == nil || cand.BidAmount.GT(promoted.BidAmount) {
				promoted = cand
			}
		}
		if promoted != nil {
			promoted.Status = BidWinning
			promoted.IsHighestBid = true
			l.CurrentHighestBid = promoted.ID
		} else {
			l.CurrentHighestBid = ""
		}
	}
	paymentToken := ""
	if l != nil {
		paymentToken = l.PaymentToken
	}
	m.mu.Unlock()

	if bid.EscrowedAmount != nil && bid.EscrowedAmount.IsPositive() {
		return m.accts.AdjustBalance(bidder, paymentToken, bid.EscrowedAmount)
	}
	return nil
}

func (m *Marketplace) emit(category, action, actor string, data map[string]any) {
	if m.jrnl == nil {
		return
	}
	_, _ = m.jrnl.Append(category, action, actor, data, "", 0)
}

// MakeOffer implements NFT_MAKE_OFFER: escrows offerAmount and records a
// standing offer against an NFT, a whole collection, or a trait (spec §3
// NFTOffer). One ACTIVE offer per (bidder, target): a prior active offer
// from the same account against the same target is released first.
func (m *Marketplace) MakeOffer(targetType OfferTargetType, targetID, offerBy string, offerAmount *amount.Amount, paymentToken string, expiresAt int64, traits map[string]any) (*Offer, error) {
	ledger := accounts.NewLedger(m.accts)
	if err := ledger.Move(offerBy, paymentToken, offerAmount.Neg()); err != nil {
		return nil, fmt.Errorf("makeOffer: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.offers {
		if o.TargetType == targetType && o.TargetID == targetID && o.OfferBy == offerBy && o.Status == OfferActive {
			_ = m.accts.AdjustBalance(offerBy, paymentToken, o.EscrowedAmount)
			o.Status = OfferCancelled
		}
	}

	offer := &Offer{
		ID: m.nextID("offer"), TargetType: targetType, TargetID: targetID, OfferBy: offerBy,
		OfferAmount: offerAmount, PaymentToken: paymentToken, EscrowedAmount: offerAmount,
		Status: OfferActive, ExpiresAt: expiresAt, Traits: traits,
	}
	m.offers[offer.ID] = offer
	return offer, nil
}

// CancelOffer implements NFT_CANCEL_OFFER: only by the offering account,
// only while ACTIVE, releasing the full escrow.
func (m *Marketplace) CancelOffer(offerID, offerBy string) error {
	m.mu.Lock()
	o, ok := m.offers[offerID]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("cancelOffer: unknown offer %s", offerID)
	}
	if o.OfferBy != offerBy {
		m.mu.Unlock()
		return fmt.Errorf("cancelOffer: %s did not make offer %s", offerBy, offerID)
	}
	if o.Status != OfferActive {
		m.mu.Unlock()
		return fmt.Errorf("cancelOffer: offer %s is not active", offerID)
	}
	o.Status = OfferCancelled
	escrow, paymentToken := o.EscrowedAmount, o.PaymentToken
	m.mu.Unlock()

	if escrow != nil && escrow.IsPositive() {
		return m.accts.AdjustBalance(offerBy, paymentToken, escrow)
	}
	return nil
}

// AcceptOffer implements NFT_ACCEPT_OFFER for an NFT-targeted offer: the
// current owner accepts, payment splits seller/creator by royaltyBps the
// same way settleImmediate does, and ownership transfers.
func (m *Marketplace) AcceptOffer(offerID, owner string) error {
	m.mu.Lock()
	o, ok := m.offers[offerID]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("acceptOffer: unknown offer %s", offerID)
	}
	if o.Status != OfferActive {
		m.mu.Unlock()
		return fmt.Errorf("acceptOffer: offer %s is not active", offerID)
	}
	if o.TargetType != TargetNFT {
		m.mu.Unlock()
		return fmt.Errorf("acceptOffer: only NFT-targeted offers settle directly; %s targets %s", offerID, o.TargetType)
	}
	inst, ok := m.instances[o.TargetID]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("acceptOffer: token %s vanished", o.TargetID)
	}
	if inst.Owner != owner {
		m.mu.Unlock()
		return fmt.Errorf("acceptOffer: %s does not own %s", owner, o.TargetID)
	}
	c := m.collections[inst.CollectionID]
	royaltyBps := int64(0)
	creator := ""
	if c != nil {
		royaltyBps = c.RoyaltyBps
		creator = c.Creator
	}
	escrow := o.EscrowedAmount
	paymentToken := o.PaymentToken
	m.mu.Unlock()

	ledger := accounts.NewLedger(m.accts)
	royaltyAmount := escrow.PercentOf(royaltyBps)
	sellerAmount := escrow.Sub(royaltyAmount)
	if err := ledger.Move(owner, paymentToken, sellerAmount); err != nil {
		return fmt.Errorf("acceptOffer: %w", err)
	}
	if royaltyAmount.IsPositive() && creator != "" && creator != owner {
		if err := ledger.Move(creator, paymentToken, royaltyAmount); err != nil {
			ledger.Unwind()
			return fmt.Errorf("acceptOffer: %w", err)
		}
	} else if royaltyAmount.IsPositive() {
		if err := ledger.Move(owner, paymentToken, royaltyAmount); err != nil {
			ledger.Unwind()
			return fmt.Errorf("acceptOffer: %w", err)
		}
	}

	m.mu.Lock()
	inst.Owner = o.OfferBy
	o.Status = OfferAccepted
	if existing, ok := m.listingByToken[o.TargetID]; ok {
		if l := m.listings[existing]; l != nil && l.Status == ListingActive {
			l.Status = ListingCancelled
			delete(m.listingByToken, o.TargetID)
		}
	}
	m.mu.Unlock()

	m.emit("nft", "offer_accepted", o.OfferBy, map[string]any{
		"offerId": o.ID, "tokenId": o.TargetID, "seller": owner, "buyer": o.OfferBy, "amount": escrow.String(),
	})
	return nil
}
