package api

import (
	"net/http"

	"github.com/echo-chain/sidenode/internal/amm"
	"github.com/echo-chain/sidenode/internal/amount"
	"github.com/gorilla/mux"
)

type poolView struct {
	ID            string `json:"id"`
	TokenA        string `json:"tokenA"`
	TokenB        string `json:"tokenB"`
	ReserveA      string `json:"reserveA"`
	ReserveB      string `json:"reserveB"`
	TotalLPTokens string `json:"totalLpTokens"`
	FeeBps        int    `json:"feeBps"`
}

func renderPool(p *amm.Pool) poolView {
	return poolView{
		ID: p.ID, TokenA: p.TokenA, TokenB: p.TokenB,
		ReserveA: p.ReserveA.String(), ReserveB: p.ReserveB.String(),
		TotalLPTokens: p.TotalLPTokens.String(), FeeBps: p.FeeBps,
	}
}

func (s *Server) handleListPools(w http.ResponseWriter, r *http.Request) {
	all := s.Pools.All()
	views := make([]poolView, 0, len(all))
	for _, p := range all {
		views = append(views, renderPool(p))
	}
	respondData(w, views)
}

func (s *Server) handleGetPool(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	p, ok := s.Pools.Get(id)
	if !ok {
		respondNotFound(w, "pool")
		return
	}
	respondData(w, renderPool(p))
}

func (s *Server) handlePoolsForToken(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]
	all := s.Pools.PoolsForTokenSymbol(symbol)
	views := make([]poolView, 0, len(all))
	for _, p := range all {
		views = append(views, renderPool(p))
	}
	respondData(w, views)
}

type positionView struct {
	Provider string `json:"provider"`
	PoolID   string `json:"poolId"`
	LPTokens string `json:"lpTokens"`
}

func renderPosition(p *amm.Position) positionView {
	return positionView{Provider: p.Provider, PoolID: p.PoolID, LPTokens: p.LPTokens.String()}
}

func (s *Server) handlePositionsForUser(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	all := s.Positions.ForProvider(id)
	views := make([]positionView, 0, len(all))
	for _, p := range all {
		views = append(views, renderPosition(p))
	}
	respondData(w, views)
}

func (s *Server) handlePositionsForPool(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	all := s.Positions.ForPool(id)
	views := make([]positionView, 0, len(all))
	for _, p := range all {
		views = append(views, renderPosition(p))
	}
	respondData(w, views)
}

func (s *Server) handlePositionForUserAndPool(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	p := s.Positions.Get(vars["id"], vars["poolId"])
	if p == nil {
		respondNotFound(w, "position")
		return
	}
	respondData(w, renderPosition(p))
}

// handleGetPosition looks up a position by its "provider|poolId" identity,
// the same composite key PositionBook indexes by internally.
func (s *Server) handleGetPosition(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	provider, poolID, ok := splitPositionKey(id)
	if !ok {
		respondBadRequest(w, "position id must be \"provider|poolId\"")
		return
	}
	p := s.Positions.Get(provider, poolID)
	if p == nil {
		respondNotFound(w, "position")
		return
	}
	respondData(w, renderPosition(p))
}

func splitPositionKey(id string) (provider, poolID string, ok bool) {
	for i := 0; i < len(id); i++ {
		if id[i] == '|' {
			return id[:i], id[i+1:], true
		}
	}
	return "", "", false
}

func (s *Server) handleRouteSwapQuote(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from := q.Get("fromTokenSymbol")
	to := q.Get("toTokenSymbol")
	amountInStr := q.Get("amountIn")
	if from == "" || to == "" || amountInStr == "" {
		respondBadRequest(w, "fromTokenSymbol, toTokenSymbol, and amountIn are required")
		return
	}
	amountIn, err := amount.Parse(amountInStr)
	if err != nil || !amountIn.IsPositive() {
		respondBadRequest(w, "amountIn must be a positive integer string")
		return
	}
	route, ok := amm.FindBestTradeRoute(s.Pools, from, to, amountIn, 3)
	if !ok {
		respondNotFound(w, "route")
		return
	}
	hops := make([]map[string]any, 0, len(route.Hops))
	for _, h := range route.Hops {
		hops = append(hops, map[string]any{
			"poolId": h.PoolID, "tokenIn": h.TokenIn, "tokenOut": h.TokenOut,
			"amountIn": h.AmountIn.String(), "amountOut": h.AmountOut.String(), "priceImpact": h.PriceImpact,
		})
	}
	respondData(w, map[string]any{"hops": hops, "finalAmountOut": route.FinalAmountOut.String()})
}
