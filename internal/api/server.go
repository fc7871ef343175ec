// Package api implements the read-only HTTP and WebSocket surface (spec
// §6): account/market/pool/launchpad/witness/event projections over the
// engine's live state, plus a live event feed. Grounded on the teacher's
// pkg/api package (gorilla/mux router + rs/cors + a broadcast Hub); every
// handler here is a read projection, since the write path is the
// transaction dispatcher, not this package.
package api

import (
	"net/http"

	"github.com/echo-chain/sidenode/internal/accounts"
	"github.com/echo-chain/sidenode/internal/amm"
	"github.com/echo-chain/sidenode/internal/events"
	"github.com/echo-chain/sidenode/internal/launchpad"
	"github.com/echo-chain/sidenode/internal/market"
	"github.com/echo-chain/sidenode/internal/orderbook"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

// Deps are the engine collaborators the HTTP surface reads from. Nothing
// here is mutated by this package.
type Deps struct {
	Accts      *accounts.Manager
	Tokens     *market.TokenRegistry
	Pairs      *market.Registry
	Book       *orderbook.Engine
	Pools      *amm.Registry
	Positions  *amm.PositionBook
	Pads       *launchpad.Registry
	Jrnl       *events.Journal
	MasterName string
	Log        *zap.SugaredLogger
}

// Server owns the route table and the WebSocket hub.
type Server struct {
	Deps
	router *mux.Router
	hub    *Hub
}

func NewServer(d Deps) *Server {
	s := &Server{Deps: d, router: mux.NewRouter(), hub: NewHub()}
	s.setupRoutes()
	return s
}

// Sink exposes the server's broadcast hub as an events.Sink so the journal
// can be wired to fan live records out to subscribed WebSocket clients.
func (s *Server) Sink() events.Sink { return s.hub }

func (s *Server) setupRoutes() {
	v1 := s.router.PathPrefix("/api/v1").Subrouter()

	v1.HandleFunc("/accounts", s.handleListAccounts).Methods(http.MethodGet)
	v1.HandleFunc("/accounts/count", s.handleAccountsCount).Methods(http.MethodGet)
	v1.HandleFunc("/accounts/{name}", s.handleGetAccount).Methods(http.MethodGet)
	v1.HandleFunc("/accounts/{name}/transactions", s.handleAccountTransactions).Methods(http.MethodGet)
	v1.HandleFunc("/accounts/{name}/tokens", s.handleAccountTokens).Methods(http.MethodGet)

	v1.HandleFunc("/markets/pairs", s.handleListPairs).Methods(http.MethodGet)
	v1.HandleFunc("/markets/pairs/{id}", s.handleGetPair).Methods(http.MethodGet)
	v1.HandleFunc("/markets/orders/pair/{id}", s.handleOrdersForPair).Methods(http.MethodGet)
	v1.HandleFunc("/markets/orders/user/{id}", s.handleOrdersForUser).Methods(http.MethodGet)
	v1.HandleFunc("/markets/orders/{id}", s.handleGetOrder).Methods(http.MethodGet)
	v1.HandleFunc("/markets/trades/pair/{id}", s.handleTradesForPair).Methods(http.MethodGet)
	v1.HandleFunc("/markets/trades/order/{id}", s.handleTradesForOrder).Methods(http.MethodGet)
	v1.HandleFunc("/markets/trades/{id}", s.handleGetTrade).Methods(http.MethodGet)

	v1.HandleFunc("/pools", s.handleListPools).Methods(http.MethodGet)
	v1.HandleFunc("/pools/route-swap", s.handleRouteSwapQuote).Methods(http.MethodGet)
	v1.HandleFunc("/pools/token/{symbol}", s.handlePoolsForToken).Methods(http.MethodGet)
	v1.HandleFunc("/pools/positions/user/{id}/pool/{poolId}", s.handlePositionForUserAndPool).Methods(http.MethodGet)
	v1.HandleFunc("/pools/positions/user/{id}", s.handlePositionsForUser).Methods(http.MethodGet)
	v1.HandleFunc("/pools/positions/pool/{id}", s.handlePositionsForPool).Methods(http.MethodGet)
	v1.HandleFunc("/pools/positions/{id}", s.handleGetPosition).Methods(http.MethodGet)
	v1.HandleFunc("/pools/{id}", s.handleGetPool).Methods(http.MethodGet)

	v1.HandleFunc("/launchpad", s.handleListLaunchpads).Methods(http.MethodGet)
	v1.HandleFunc("/launchpad/{id}/user/{user}/claimable", s.handleLaunchpadClaimable).Methods(http.MethodGet)
	v1.HandleFunc("/launchpad/{id}/user/{user}", s.handleLaunchpadParticipant).Methods(http.MethodGet)
	v1.HandleFunc("/launchpad/{id}", s.handleGetLaunchpad).Methods(http.MethodGet)

	v1.HandleFunc("/witnesses", s.handleListWitnesses).Methods(http.MethodGet)
	v1.HandleFunc("/witnesses/{name}/details", s.handleWitnessDetails).Methods(http.MethodGet)
	v1.HandleFunc("/witnesses/votescastby/{name}", s.handleVotesCastBy).Methods(http.MethodGet)
	v1.HandleFunc("/witnesses/votersfor/{name}", s.handleVotersFor).Methods(http.MethodGet)

	v1.HandleFunc("/events/types", s.handleEventTypes).Methods(http.MethodGet)
	v1.HandleFunc("/events/categories", s.handleEventCategories).Methods(http.MethodGet)
	v1.HandleFunc("/events/stats", s.handleEventStats).Methods(http.MethodGet)
	v1.HandleFunc("/events/{id}", s.handleGetEvent).Methods(http.MethodGet)
	v1.HandleFunc("/events", s.handleListEvents).Methods(http.MethodGet)

	v1.HandleFunc("/peers", s.handlePeers).Methods(http.MethodGet)

	s.router.HandleFunc("/ws", s.handleWebSocket)
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
}

// Start runs the hub's broadcast loop and serves the route table behind
// permissive CORS, matching the teacher's Start (minus the hardcoded
// localhost origin allowlist, which doesn't fit a chain explorer meant to
// be embedded from arbitrary frontends).
func (s *Server) Start(addr string) error {
	go s.hub.Run()

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	})

	if s.Log != nil {
		s.Log.Infow("api server starting", "addr", addr)
	}
	return http.ListenAndServe(addr, c.Handler(s.router))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondData(w, map[string]string{"status": "ok"})
}

// Peer is the single-validator sidechain's trivial peer set: just itself,
// identified by its master account.
type Peer struct {
	Name string `json:"name"`
	Self bool   `json:"self"`
}

func (s *Server) handlePeers(w http.ResponseWriter, r *http.Request) {
	respondData(w, []Peer{{Name: s.MasterName, Self: true}})
}
