// Package nftops implements the NFT_* transaction handlers (spec §4.7,
// §6), wrapping internal/nft's marketplace behind the validate/process
// handler contract. NFT_BUY_ITEM carries both the buyer's fixed-
// price/bid path and the seller's accept-bid path on the same wire type
// (spec has no separate ACCEPT_BID transaction type); the handler takes
// the accept-bid path when data carries acceptBid=true and the buyer path
// otherwise. It does not compare sender with the listing's seller itself;
// Marketplace.AcceptBid rejects a sender who is not the seller.
package nftops

import (
	"github.com/echo-chain/sidenode/internal/events"
	"github.com/echo-chain/sidenode/internal/handlers"
	"github.com/echo-chain/sidenode/internal/nft"
)

const eventCategory = "nft"

// Deps are the shared collaborators every NFT handler needs.
type Deps struct {
	Market *nft.Marketplace
	Jrnl   *events.Journal
}

func (d Deps) emit(action, actor, txID string, timestamp int64, data map[string]any) {
	if d.Jrnl == nil {
		return
	}
	_, _ = d.Jrnl.Append(eventCategory, action, actor, data, txID, timestamp)
}

// CreateCollectionHandler implements NFT_CREATE_COLLECTION.
type CreateCollectionHandler struct{ Deps }

func (h *CreateCollectionHandler) Validate(data map[string]any, sender string) bool {
	_, ok := handlers.String(data, "symbol")
	return ok
}

func (h *CreateCollectionHandler) Process(data map[string]any, sender, txID string, timestamp int64) bool {
	symbol, _ := handlers.String(data, "symbol")
	maxSupply := handlers.OptInt64(data, "maxSupply")
	mintable := handlers.Bool(data, "mintable", true)
	burnable := handlers.Bool(data, "burnable", false)
	transferable := handlers.Bool(data, "transferable", true)
	royaltyBps := handlers.OptInt64(data, "royaltyBps")

	c, err := h.Market.CreateCollection(symbol, sender, maxSupply, mintable, burnable, transferable, royaltyBps)
	if err != nil {
		return false
	}
	h.emit("create_collection", sender, txID, timestamp, map[string]any{"symbol": c.Symbol})
	return true
}

// MintHandler implements NFT_MINT.
type MintHandler struct{ Deps }

func (h *MintHandler) Validate(data map[string]any, sender string) bool {
	_, ok := handlers.String(data, "collectionId")
	return ok
}

func (h *MintHandler) Process(data map[string]any, sender, txID string, timestamp int64) bool {
	collectionID, _ := handlers.String(data, "collectionId")
	owner := handlers.OptString(data, "owner")
	if owner == "" {
		owner = sender
	}
	metadata := handlers.Map(data, "metadata")
	properties := handlers.Map(data, "properties")
	coverURL := handlers.OptString(data, "coverUrl")

	inst, err := h.Market.Mint(collectionID, sender, owner, metadata, properties, coverURL)
	if err != nil {
		return false
	}
	h.emit("mint", sender, txID, timestamp, map[string]any{
		"collectionId": collectionID, "tokenId": nft.TokenID(collectionID, inst.Index), "owner": owner,
	})
	return true
}

// TransferHandler implements NFT_TRANSFER.
type TransferHandler struct{ Deps }

func (h *TransferHandler) Validate(data map[string]any, sender string) bool {
	_, ok := handlers.String(data, "tokenId")
	if !ok {
		return false
	}
	_, ok = handlers.String(data, "to")
	return ok
}

func (h *TransferHandler) Process(data map[string]any, sender, txID string, timestamp int64) bool {
	tokenID, _ := handlers.String(data, "tokenId")
	to, _ := handlers.String(data, "to")
	if err := h.Market.Transfer(tokenID, sender, to); err != nil {
		return false
	}
	h.emit("transfer", sender, txID, timestamp, map[string]any{"tokenId": tokenID, "to": to})
	return true
}

// ListItemHandler implements NFT_LIST_ITEM.
type ListItemHandler struct{ Deps }

func (h *ListItemHandler) Validate(data map[string]any, sender string) bool {
	if _, ok := handlers.String(data, "tokenId"); !ok {
		return false
	}
	price, ok := handlers.Amount(data, "price")
	if !ok || !price.IsPositive() {
		return false
	}
	_, ok = handlers.String(data, "paymentToken")
	return ok
}

func (h *ListItemHandler) Process(data map[string]any, sender, txID string, timestamp int64) bool {
	tokenID, _ := handlers.String(data, "tokenId")
	price, _ := handlers.Amount(data, "price")
	paymentToken, _ := handlers.String(data, "paymentToken")
	listingType := handlers.OptString(data, "listingType")
	if listingType == "" {
		listingType = string(nft.FixedPrice)
	}
	auctionEndTime := handlers.OptInt64(data, "auctionEndTime")
	reservePrice := handlers.OptAmount(data, "reservePrice")

	l, err := h.Market.ListItem(tokenID, sender, price, paymentToken, nft.ListingType(listingType), auctionEndTime, reservePrice)
	if err != nil {
		return false
	}
	h.emit("list_item", sender, txID, timestamp, map[string]any{"listingId": l.ID, "tokenId": tokenID, "price": price.String()})
	return true
}

// DelistItemHandler implements NFT_DELIST_ITEM.
type DelistItemHandler struct{ Deps }

func (h *DelistItemHandler) Validate(data map[string]any, sender string) bool {
	_, ok := handlers.String(data, "listingId")
	return ok
}

func (h *DelistItemHandler) Process(data map[string]any, sender, txID string, timestamp int64) bool {
	listingID, _ := handlers.String(data, "listingId")
	if err := h.Market.DelistItem(listingID, sender); err != nil {
		return false
	}
	h.emit("delist_item", sender, txID, timestamp, map[string]any{"listingId": listingID})
	return true
}

// BuyItemHandler implements NFT_BUY_ITEM (buyer path: settle or bid) and,
// when data carries acceptBid=true, the seller's accept-bid path.
type BuyItemHandler struct{ Deps }

func (h *BuyItemHandler) Validate(data map[string]any, sender string) bool {
	_, ok := handlers.String(data, "listingId")
	return ok
}

func (h *BuyItemHandler) Process(data map[string]any, sender, txID string, timestamp int64) bool {
	listingID, _ := handlers.String(data, "listingId")

	if acceptBid := handlers.Bool(data, "acceptBid", false); acceptBid {
		if err := h.Market.AcceptBid(listingID, sender, timestamp); err != nil {
			return false
		}
		h.emit("accept_bid", sender, txID, timestamp, map[string]any{"listingId": listingID})
		return true
	}

	bidAmount := handlers.OptAmount(data, "bidAmount")
	if bidAmount == nil {
		return false
	}
	l, bid, err := h.Market.BuyItem(listingID, sender, bidAmount)
	if err != nil {
		return false
	}
	if bid != nil {
		h.emit("bid", sender, txID, timestamp, map[string]any{"listingId": listingID, "bidId": bid.ID, "amount": bidAmount.String()})
		return true
	}
	h.emit("buy_item", sender, txID, timestamp, map[string]any{"listingId": l.ID, "tokenId": l.TokenID, "price": bidAmount.String()})
	return true
}

// UpdateHandler implements NFT_UPDATE by recording an "update" event for
// tokenId. The marketplace exposes no mutator for instance metadata beyond
// mint time, so no instance field changes and no ownership check is made.
type UpdateHandler struct{ Deps }

func (h *UpdateHandler) Validate(data map[string]any, sender string) bool {
	_, ok := handlers.String(data, "tokenId")
	return ok
}

func (h *UpdateHandler) Process(data map[string]any, sender, txID string, timestamp int64) bool {
	tokenID, _ := handlers.String(data, "tokenId")
	h.emit("update", sender, txID, timestamp, map[string]any{"tokenId": tokenID})
	return true
}

// UpdateCollectionHandler implements NFT_UPDATE_COLLECTION by recording an
// "update_collection" event; no collection field changes.
type UpdateCollectionHandler struct{ Deps }

func (h *UpdateCollectionHandler) Validate(data map[string]any, sender string) bool {
	_, ok := handlers.String(data, "collectionId")
	return ok
}

func (h *UpdateCollectionHandler) Process(data map[string]any, sender, txID string, timestamp int64) bool {
	collectionID, _ := handlers.String(data, "collectionId")
	h.emit("update_collection", sender, txID, timestamp, map[string]any{"collectionId": collectionID})
	return true
}

// CancelBidHandler implements NFT_CANCEL_BID.
type CancelBidHandler struct{ Deps }

func (h *CancelBidHandler) Validate(data map[string]any, sender string) bool {
	_, ok := handlers.String(data, "bidId")
	return ok
}

func (h *CancelBidHandler) Process(data map[string]any, sender, txID string, timestamp int64) bool {
	bidID, _ := handlers.String(data, "bidId")
	if err := h.Market.CancelBid(bidID, sender); err != nil {
		return false
	}
	h.emit("cancel_bid", sender, txID, timestamp, map[string]any{"bidId": bidID})
	return true
}

// MakeOfferHandler implements NFT_MAKE_OFFER.
type MakeOfferHandler struct{ Deps }

func (h *MakeOfferHandler) Validate(data map[string]any, sender string) bool {
	if _, ok := handlers.String(data, "targetId"); !ok {
		return false
	}
	amt, ok := handlers.Amount(data, "offerAmount")
	if !ok || !amt.IsPositive() {
		return false
	}
	_, ok = handlers.String(data, "paymentToken")
	return ok
}

func (h *MakeOfferHandler) Process(data map[string]any, sender, txID string, timestamp int64) bool {
	targetType := handlers.OptString(data, "targetType")
	if targetType == "" {
		targetType = string(nft.TargetNFT)
	}
	targetID, _ := handlers.String(data, "targetId")
	offerAmount, _ := handlers.Amount(data, "offerAmount")
	paymentToken, _ := handlers.String(data, "paymentToken")
	expiresAt := handlers.OptInt64(data, "expiresAt")
	traits := handlers.Map(data, "traits")

	o, err := h.Market.MakeOffer(nft.OfferTargetType(targetType), targetID, sender, offerAmount, paymentToken, expiresAt, traits)
	if err != nil {
		return false
	}
	h.emit("make_offer", sender, txID, timestamp, map[string]any{"offerId": o.ID, "targetId": targetID, "amount": offerAmount.String()})
	return true
}

// AcceptOfferHandler implements NFT_ACCEPT_OFFER.
type AcceptOfferHandler struct{ Deps }

func (h *AcceptOfferHandler) Validate(data map[string]any, sender string) bool {
	_, ok := handlers.String(data, "offerId")
	return ok
}

func (h *AcceptOfferHandler) Process(data map[string]any, sender, txID string, timestamp int64) bool {
	offerID, _ := handlers.String(data, "offerId")
	if err := h.Market.AcceptOffer(offerID, sender); err != nil {
		return false
	}
	h.emit("accept_offer", sender, txID, timestamp, map[string]any{"offerId": offerID})
	return true
}

// CancelOfferHandler implements NFT_CANCEL_OFFER.
type CancelOfferHandler struct{ Deps }

func (h *CancelOfferHandler) Validate(data map[string]any, sender string) bool {
	_, ok := handlers.String(data, "offerId")
	return ok
}

func (h *CancelOfferHandler) Process(data map[string]any, sender, txID string, timestamp int64) bool {
	offerID, _ := handlers.String(data, "offerId")
	if err := h.Market.CancelOffer(offerID, sender); err != nil {
		return false
	}
	h.emit("cancel_offer", sender, txID, timestamp, map[string]any{"offerId": offerID})
	return true
}

// BatchOperationsHandler implements NFT_BATCH_OPERATIONS, dispatching
// each sub-operation to the same per-kind logic the single-op handlers
// use.
type BatchOperationsHandler struct{ Deps }

func (h *BatchOperationsHandler) Validate(data map[string]any, sender string) bool {
	raw, ok := data["operations"].([]any)
	return ok && len(raw) > 0 && len(raw) <= 50
}

func (h *BatchOperationsHandler) Process(data map[string]any, sender, txID string, timestamp int64) bool {
	raw, _ := data["operations"].([]any)
	ops := make([]nft.BatchOp, 0, len(raw))
	for _, v := range raw {
		m, ok := v.(map[string]any)
		if !ok {
			continue
		}
		kind, _ := m["kind"].(string)
		args, _ := m["args"].(map[string]any)
		ops = append(ops, nft.BatchOp{Kind: kind, Args: args})
	}
	atomicMode := handlers.Bool(data, "atomic", false)

	results, err := h.Market.RunBatch(ops, atomicMode, func(op nft.BatchOp) error {
		return h.dispatchOne(op, sender, txID, timestamp)
	})
	if err != nil {
		return false
	}
	h.emit("batch_operations", sender, txID, timestamp, map[string]any{"count": len(results)})
	return true
}

func (h *BatchOperationsHandler) dispatchOne(op nft.BatchOp, sender, txID string, timestamp int64) error {
	switch op.Kind {
	case "MINT":
		collectionID, _ := handlers.String(op.Args, "collectionId")
		owner := handlers.OptString(op.Args, "owner")
		if owner == "" {
			owner = sender
		}
		_, err := h.Market.Mint(collectionID, sender, owner, handlers.Map(op.Args, "metadata"), handlers.Map(op.Args, "properties"), handlers.OptString(op.Args, "coverUrl"))
		return err
	case "TRANSFER":
		tokenID, _ := handlers.String(op.Args, "tokenId")
		to, _ := handlers.String(op.Args, "to")
		return h.Market.Transfer(tokenID, sender, to)
	case "LIST":
		tokenID, _ := handlers.String(op.Args, "tokenId")
		price, _ := handlers.Amount(op.Args, "price")
		paymentToken, _ := handlers.String(op.Args, "paymentToken")
		listingType := handlers.OptString(op.Args, "listingType")
		if listingType == "" {
			listingType = string(nft.FixedPrice)
		}
		_, err := h.Market.ListItem(tokenID, sender, price, paymentToken, nft.ListingType(listingType), handlers.OptInt64(op.Args, "auctionEndTime"), handlers.OptAmount(op.Args, "reservePrice"))
		return err
	case "DELIST":
		listingID, _ := handlers.String(op.Args, "listingId")
		return h.Market.DelistItem(listingID, sender)
	default:
		return nil
	}
}
