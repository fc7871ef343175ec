// Package nft implements the NFT marketplace: collections, minted
// instances, fixed-price/auction listings, bids, and offers (spec §4.7,
// §3). Grounded on the teacher's escrow-then-settle pattern in its order
// matching engine (internal/orderbook), generalized from trade settlement
// to marketplace settlement with a creator royalty split.
package nft

import (
	"strconv"

	"github.com/echo-chain/sidenode/internal/amount"
)

type ListingType string

const (
	FixedPrice     ListingType = "FIXED_PRICE"
	Auction        ListingType = "AUCTION"
	ReserveAuction ListingType = "RESERVE_AUCTION"
)

type ListingStatus string

const (
	ListingActive    ListingStatus = "ACTIVE"
	ListingSold      ListingStatus = "SOLD"
	ListingCancelled ListingStatus = "CANCELLED"
	ListingExpired   ListingStatus = "EXPIRED"
)

type BidStatus string

const (
	BidActive    BidStatus = "ACTIVE"
	BidWinning   BidStatus = "WINNING"
	BidOutbid    BidStatus = "OUTBID"
	BidCancelled BidStatus = "CANCELLED"
	BidWon       BidStatus = "WON"
	BidLost      BidStatus = "LOST"
)

type OfferTargetType string

const (
	TargetNFT        OfferTargetType = "NFT"
	TargetCollection OfferTargetType = "COLLECTION"
	TargetTrait      OfferTargetType = "TRAIT"
)

type OfferStatus string

const (
	OfferActive    OfferStatus = "ACTIVE"
	OfferCancelled OfferStatus = "CANCELLED"
	OfferAccepted  OfferStatus = "ACCEPTED"
	OfferExpired   OfferStatus = "EXPIRED"
)

// Collection is the NFT_CREATE_COLLECTION entity (spec §3 NFTCollection).
type Collection struct {
	Symbol        string
	Creator       string
	CurrentSupply int64
	NextIndex     int64
	MaxSupply     int64
	Mintable      bool
	Burnable      bool
	Transferable  bool
	RoyaltyBps    int64
}

// Instance is one minted token within a collection (spec §3 NFTInstance).
type Instance struct {
	CollectionID string
	Index        int64
	Owner        string
	Metadata     map[string]any
	CoverURL     string
	Properties   map[string]any
}

// TokenID builds the collectionId_index identity used throughout the
// marketplace (spec's `COL_1`-style example ids).
func TokenID(collectionID string, index int64) string {
	return collectionID + "_" + strconv.FormatInt(index, 10)
}

// Listing is a seller's offer to sell one NFT (spec §3 NFTListing).
type Listing struct {
	ID                string
	CollectionID      string
	TokenID           string
	Seller            string
	Price             *amount.Amount
	PaymentToken      string
	ListingType       ListingType
	AuctionEndTime    int64
	ReservePrice      *amount.Amount
	Status            ListingStatus
	CurrentHighestBid string
}

// Bid is an offer made against a live listing (spec §3 NFTBid).
type Bid struct {
	ID               string
	ListingID        string
	Bidder           string
	BidAmount        *amount.Amount
	EscrowedAmount   *amount.Amount
	Status           BidStatus
	IsHighestBid     bool
	PreviousHighBidID string
}

// Offer is a standing collection/trait/NFT-targeted offer made outside of
// any listing (spec §3 NFTOffer).
type Offer struct {
	ID             string
	TargetType     OfferTargetType
	TargetID       string
	OfferBy        string
	OfferAmount    *amount.Amount
	PaymentToken   string
	EscrowedAmount *amount.Amount
	Status         OfferStatus
	ExpiresAt      int64
	Traits         map[string]any
}
