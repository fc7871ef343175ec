// Package engine wires every domain registry, the transaction dispatcher,
// the event journal, and the read-only API server into one process-level
// object, the way the teacher's cmd/node/main.go wires perp.NewApp() and
// its consensus/API collaborators by hand. Block ingestion and consensus
// are out of scope (spec §1); Engine starts where a decoded envelope
// already exists and ends where the API server renders state back out.
package engine

import (
	"github.com/echo-chain/sidenode/internal/accounts"
	"github.com/echo-chain/sidenode/internal/amm"
	"github.com/echo-chain/sidenode/internal/amount"
	"github.com/echo-chain/sidenode/internal/api"
	"github.com/echo-chain/sidenode/internal/config"
	"github.com/echo-chain/sidenode/internal/events"
	"github.com/echo-chain/sidenode/internal/farms"
	"github.com/echo-chain/sidenode/internal/handlers/farmops"
	"github.com/echo-chain/sidenode/internal/handlers/launchpadops"
	"github.com/echo-chain/sidenode/internal/handlers/marketops"
	"github.com/echo-chain/sidenode/internal/handlers/nftops"
	"github.com/echo-chain/sidenode/internal/handlers/pool"
	"github.com/echo-chain/sidenode/internal/handlers/token"
	"github.com/echo-chain/sidenode/internal/handlers/witnessops"
	"github.com/echo-chain/sidenode/internal/launchpad"
	"github.com/echo-chain/sidenode/internal/market"
	"github.com/echo-chain/sidenode/internal/nft"
	"github.com/echo-chain/sidenode/internal/orderbook"
	"github.com/echo-chain/sidenode/internal/router"
	"github.com/echo-chain/sidenode/internal/store"
	"github.com/echo-chain/sidenode/internal/txdispatch"
	"github.com/echo-chain/sidenode/internal/witness"
	"go.uber.org/zap"
)

// Engine owns every domain registry plus the dispatcher and API server
// built on top of them.
type Engine struct {
	Accts      *accounts.Manager
	Tokens     *market.TokenRegistry
	Decimals   *amount.DecimalRegistry
	Pairs      *market.Registry
	Book       *orderbook.Engine
	Pools      *amm.Registry
	Positions  *amm.PositionBook
	Router     *router.Router
	Farms      *farms.Registry
	Pads       *launchpad.Registry
	NFTs       *nft.Marketplace
	Witnesses  *witness.Maintainer
	Jrnl       *events.Journal
	Dispatcher *txdispatch.Dispatcher
	API        *api.Server

	cfg config.Config
	log *zap.SugaredLogger
}

// New constructs every registry, registers every handler against its
// TransactionType (spec §6), and wires the event journal's live feed into
// the API server's websocket hub.
func New(cfg config.Config, st store.Store, log *zap.SugaredLogger) *Engine {
	e := &Engine{cfg: cfg, log: log}

	e.Accts = accounts.NewManager(st, log)
	e.Tokens = market.NewTokenRegistry()
	e.Decimals = amount.NewDecimalRegistry()
	e.Pairs = market.NewRegistry()
	e.Pools = amm.NewRegistry()
	e.Positions = amm.NewPositionBook()
	e.Farms = farms.NewRegistry(e.Accts)
	e.Pads = launchpad.NewRegistry(e.Accts)
	e.Witnesses = witness.NewMaintainer(e.Accts)

	apiServer := api.NewServer(api.Deps{
		Accts:      e.Accts,
		Tokens:     e.Tokens,
		Pairs:      e.Pairs,
		Pools:      e.Pools,
		Positions:  e.Positions,
		Pads:       e.Pads,
		MasterName: cfg.MasterName,
		Log:        log,
	})
	e.API = apiServer

	e.Jrnl = events.NewJournal(st, log, apiServer.Sink())
	e.API.Jrnl = e.Jrnl

	e.Book = orderbook.NewEngine(e.Pairs, e.Accts, e.Jrnl)
	e.API.Book = e.Book
	e.Router = router.NewRouter(e.Pools, e.Book, e.Pairs)
	e.NFTs = nft.NewMarketplace(e.Accts, e.Jrnl)

	e.seedGenesisMarket(cfg)
	e.Dispatcher = e.buildDispatcher()

	return e
}

// genesisQuoteSymbol is the chain's reference quote asset for the one
// trading pair seeded at startup, the way the teacher's NewApp hardcodes
// a single BTC-USDT market rather than exposing pair creation over the
// wire. Spec §3 names "MARKET pair creation" as a pair's origin but §6's
// transaction table carries no dedicated wire type for it, so pairs are
// seeded here at genesis; market.Registry.SetStatus still lets an operator
// halt or re-open a pair afterward.
const genesisQuoteSymbol = "USD"
const genesisQuoteDecimals = 2

// seedGenesisMarket registers the native token, a reference quote token,
// and the native/quote trading pair every node starts with.
func (e *Engine) seedGenesisMarket(cfg config.Config) {
	e.Decimals.Register(cfg.NativeSymbol, cfg.NativeDecimals)
	_ = e.Tokens.Register(&market.Token{
		Symbol:      cfg.NativeSymbol,
		Decimals:    cfg.NativeDecimals,
		TotalSupply: amount.Zero(),
		Mintable:    true,
	})

	e.Decimals.Register(genesisQuoteSymbol, genesisQuoteDecimals)
	_ = e.Tokens.Register(&market.Token{
		Symbol:      genesisQuoteSymbol,
		Decimals:    genesisQuoteDecimals,
		TotalSupply: amount.Zero(),
		Mintable:    true,
	})

	maxTrade, err := amount.Parse(cfg.DefaultMaxTradeAmount)
	if err != nil {
		maxTrade = nil
	}
	pairID := market.PairID(cfg.NativeSymbol, "", genesisQuoteSymbol, "")
	_ = e.Pairs.Register(&market.TradingPair{
		ID:             pairID,
		Base:           cfg.NativeSymbol,
		Quote:          genesisQuoteSymbol,
		TickSize:       amount.FromInt64(1),
		LotSize:        amount.FromInt64(1),
		MinNotional:    amount.FromInt64(1),
		MinTradeAmount: amount.FromInt64(1),
		MaxTradeAmount: maxTrade,
		Status:         market.Trading,
	})
}

// buildDispatcher registers every handler package's operations against
// their wire TransactionType (spec §6). Registering the same type twice
// is a programmer error and panics at this call site, not at runtime.
func (e *Engine) buildDispatcher() *txdispatch.Dispatcher {
	reg := txdispatch.NewRegistry()

	tokenDeps := token.Deps{Tokens: e.Tokens, Decimals: e.Decimals, Accts: e.Accts, Jrnl: e.Jrnl}
	reg.Register(txdispatch.TokenCreate, &token.CreateHandler{Deps: tokenDeps})
	reg.Register(txdispatch.TokenMint, &token.MintHandler{Deps: tokenDeps})
	reg.Register(txdispatch.TokenTransfer, &token.TransferHandler{Deps: tokenDeps})
	reg.Register(txdispatch.TokenUpdate, &token.UpdateHandler{Deps: tokenDeps})
	reg.Register(txdispatch.TokenWithdraw, &token.WithdrawHandler{Deps: tokenDeps})

	poolDeps := pool.Deps{Pools: e.Pools, Positions: e.Positions, Tokens: e.Tokens, Accts: e.Accts, Jrnl: e.Jrnl}
	reg.Register(txdispatch.PoolCreate, &pool.CreateHandler{Deps: poolDeps})
	reg.Register(txdispatch.PoolAddLiquidity, &pool.AddLiquidityHandler{Deps: poolDeps})
	reg.Register(txdispatch.PoolRemoveLiquidity, &pool.RemoveLiquidityHandler{Deps: poolDeps})
	reg.Register(txdispatch.PoolSwap, &pool.SwapHandler{Deps: poolDeps})

	marketDeps := marketops.Deps{Book: e.Book, Router: e.Router, Jrnl: e.Jrnl}
	reg.Register(txdispatch.MarketPlaceOrder, &marketops.PlaceOrderHandler{Deps: marketDeps})
	reg.Register(txdispatch.MarketCancelOrder, &marketops.CancelOrderHandler{Deps: marketDeps})
	reg.Register(txdispatch.MarketTrade, &marketops.TradeHandler{Deps: marketDeps})

	farmDeps := farmops.Deps{Farms: e.Farms, MasterName: e.cfg.MasterName, Jrnl: e.Jrnl}
	reg.Register(txdispatch.FarmCreate, &farmops.CreateHandler{Deps: farmDeps})
	reg.Register(txdispatch.FarmStake, &farmops.StakeHandler{Deps: farmDeps})
	reg.Register(txdispatch.FarmUnstake, &farmops.UnstakeHandler{Deps: farmDeps})
	reg.Register(txdispatch.FarmClaimRewards, &farmops.ClaimRewardsHandler{Deps: farmDeps})
	reg.Register(txdispatch.FarmUpdateWeight, &farmops.UpdateWeightHandler{Deps: farmDeps})

	witnessDeps := witnessops.Deps{Accts: e.Accts, Maintainer: e.Witnesses, NativeSymbol: e.cfg.NativeSymbol, Jrnl: e.Jrnl}
	reg.Register(txdispatch.WitnessRegister, &witnessops.RegisterHandler{Deps: witnessDeps})
	reg.Register(txdispatch.WitnessVote, &witnessops.VoteHandler{Deps: witnessDeps})
	reg.Register(txdispatch.WitnessUnvote, &witnessops.UnvoteHandler{Deps: witnessDeps})

	padDeps := launchpadops.Deps{Pads: e.Pads, Jrnl: e.Jrnl}
	reg.Register(txdispatch.LaunchpadLaunchToken, &launchpadops.LaunchTokenHandler{Deps: padDeps})
	reg.Register(txdispatch.LaunchpadParticipatePresale, &launchpadops.ParticipatePresaleHandler{Deps: padDeps})
	reg.Register(txdispatch.LaunchpadClaimTokens, &launchpadops.ClaimTokensHandler{Deps: padDeps})
	reg.Register(txdispatch.LaunchpadUpdateStatus, &launchpadops.UpdateStatusHandler{Deps: padDeps})
	reg.Register(txdispatch.LaunchpadFinalizePresale, &launchpadops.FinalizePresaleHandler{Deps: padDeps})
	reg.Register(txdispatch.LaunchpadSetMainToken, &launchpadops.SetMainTokenHandler{Deps: padDeps})
	reg.Register(txdispatch.LaunchpadRefundPresale, &launchpadops.RefundPresaleHandler{Deps: padDeps})
	reg.Register(txdispatch.LaunchpadUpdateWhitelist, &launchpadops.UpdateWhitelistHandler{Deps: padDeps})

	nftDeps := nftops.Deps{Market: e.NFTs, Jrnl: e.Jrnl}
	reg.Register(txdispatch.NFTCreateCollection, &nftops.CreateCollectionHandler{Deps: nftDeps})
	reg.Register(txdispatch.NFTMint, &nftops.MintHandler{Deps: nftDeps})
	reg.Register(txdispatch.NFTTransfer, &nftops.TransferHandler{Deps: nftDeps})
	reg.Register(txdispatch.NFTListItem, &nftops.ListItemHandler{Deps: nftDeps})
	reg.Register(txdispatch.NFTDelistItem, &nftops.DelistItemHandler{Deps: nftDeps})
	reg.Register(txdispatch.NFTBuyItem, &nftops.BuyItemHandler{Deps: nftDeps})
	reg.Register(txdispatch.NFTUpdate, &nftops.UpdateHandler{Deps: nftDeps})
	reg.Register(txdispatch.NFTUpdateCollection, &nftops.UpdateCollectionHandler{Deps: nftDeps})
	reg.Register(txdispatch.NFTCancelBid, &nftops.CancelBidHandler{Deps: nftDeps})
	reg.Register(txdispatch.NFTMakeOffer, &nftops.MakeOfferHandler{Deps: nftDeps})
	reg.Register(txdispatch.NFTAcceptOffer, &nftops.AcceptOfferHandler{Deps: nftDeps})
	reg.Register(txdispatch.NFTCancelOffer, &nftops.CancelOfferHandler{Deps: nftDeps})
	reg.Register(txdispatch.NFTBatchOperations, &nftops.BatchOperationsHandler{Deps: nftDeps})

	return txdispatch.NewDispatcher(reg, e.Accts, e.log)
}

// Submit decodes nothing further; it hands an already-typed envelope to
// the dispatcher (spec §4.1). Block ingestion owns turning wire bytes
// into an Envelope.
func (e *Engine) Submit(env txdispatch.Envelope) txdispatch.Result {
	return e.Dispatcher.Dispatch(env)
}

// DistributeBlockReward splits the configured per-block native reward
// across active native farms by weight (spec §2.11), the way the
// teacher's consensus engine drives a per-block hook off OnBlockCommit.
func (e *Engine) DistributeBlockReward(height int64) error {
	reward, err := amount.Parse(e.cfg.PerBlockFarmReward)
	if err != nil {
		return err
	}
	_, err = e.Farms.DistributeBlockReward(reward)
	return err
}
