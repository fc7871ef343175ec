package api

import (
	"net/http"
	"strconv"

	"github.com/echo-chain/sidenode/internal/market"
	"github.com/echo-chain/sidenode/internal/orderbook"
	"github.com/gorilla/mux"
)

type pairView struct {
	ID             string `json:"id"`
	Base           string `json:"base"`
	BaseIssuer     string `json:"baseIssuer,omitempty"`
	Quote          string `json:"quote"`
	QuoteIssuer    string `json:"quoteIssuer,omitempty"`
	TickSize       string `json:"tickSize"`
	LotSize        string `json:"lotSize"`
	MinNotional    string `json:"minNotional"`
	MinTradeAmount string `json:"minTradeAmount"`
	MaxTradeAmount string `json:"maxTradeAmount,omitempty"`
	Status         string `json:"status"`
}

func renderPair(p *market.TradingPair) pairView {
	v := pairView{
		ID: p.ID, Base: p.Base, BaseIssuer: p.BaseIssuer, Quote: p.Quote, QuoteIssuer: p.QuoteIssuer,
		TickSize: p.TickSize.String(), LotSize: p.LotSize.String(),
		MinNotional: p.MinNotional.String(), MinTradeAmount: p.MinTradeAmount.String(),
		Status: string(p.Status),
	}
	if p.MaxTradeAmount != nil {
		v.MaxTradeAmount = p.MaxTradeAmount.String()
	}
	return v
}

func (s *Server) handleListPairs(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	all := s.Pairs.All()
	views := make([]pairView, 0, len(all))
	for _, p := range all {
		if status != "" && string(p.Status) != status {
			continue
		}
		views = append(views, renderPair(p))
	}
	respondData(w, views)
}

func (s *Server) handleGetPair(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	p, ok := s.Pairs.Get(id)
	if !ok {
		respondNotFound(w, "pair")
		return
	}
	respondData(w, renderPair(p))
}

type orderView struct {
	ID             string `json:"id"`
	UserID         string `json:"userId"`
	PairID         string `json:"pairId"`
	Type           string `json:"type"`
	Side           string `json:"side"`
	Price          string `json:"price,omitempty"`
	Quantity       string `json:"quantity"`
	FilledQuantity string `json:"filledQuantity"`
	Status         string `json:"status"`
	TimeInForce    string `json:"timeInForce"`
	CreatedAt      int64  `json:"createdAt"`
}

func renderOrder(o *orderbook.Order) orderView {
	v := orderView{
		ID: o.ID, UserID: o.UserID, PairID: o.PairID, Type: string(o.Type), Side: string(o.Side),
		Quantity: o.Quantity.String(), FilledQuantity: o.FilledQuantity.String(),
		Status: string(o.Status), TimeInForce: string(o.TimeInForce), CreatedAt: o.CreatedAt,
	}
	if o.Price != nil {
		v.Price = o.Price.String()
	}
	return v
}

func (s *Server) handleOrdersForPair(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	orders := s.Book.OrdersForPair(id)
	views := make([]orderView, 0, len(orders))
	for _, o := range orders {
		views = append(views, renderOrder(o))
	}
	respondData(w, views)
}

func (s *Server) handleOrdersForUser(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	orders := s.Book.OrdersForUser(id)
	views := make([]orderView, 0, len(orders))
	for _, o := range orders {
		views = append(views, renderOrder(o))
	}
	respondData(w, views)
}

func (s *Server) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	o, ok := s.Book.FindOrder(id)
	if !ok {
		respondNotFound(w, "order")
		return
	}
	respondData(w, renderOrder(o))
}

type tradeView struct {
	ID           string `json:"id"`
	PairID       string `json:"pairId"`
	MakerOrderID string `json:"makerOrderId"`
	TakerOrderID string `json:"takerOrderId"`
	Buyer        string `json:"buyer"`
	Seller       string `json:"seller"`
	Price        string `json:"price"`
	Quantity     string `json:"quantity"`
	Total        string `json:"total"`
	Timestamp    int64  `json:"timestamp"`
}

func renderTrade(t orderbook.Trade) tradeView {
	return tradeView{
		ID: t.ID, PairID: t.PairID, MakerOrderID: t.MakerOrderID, TakerOrderID: t.TakerOrderID,
		Buyer: t.Buyer, Seller: t.Seller, Price: t.Price.String(), Quantity: t.Quantity.String(),
		Total: t.Total().String(), Timestamp: t.Timestamp,
	}
}

func (s *Server) handleTradesForPair(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	q := r.URL.Query()
	from, _ := strconv.ParseInt(q.Get("fromTimestamp"), 10, 64)
	to, _ := strconv.ParseInt(q.Get("toTimestamp"), 10, 64)
	trades := s.Book.TradesForPair(id, from, to)
	views := make([]tradeView, 0, len(trades))
	for _, t := range trades {
		views = append(views, renderTrade(t))
	}
	respondData(w, views)
}

func (s *Server) handleTradesForOrder(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	trades := s.Book.TradesForOrder(id)
	views := make([]tradeView, 0, len(trades))
	for _, t := range trades {
		views = append(views, renderTrade(t))
	}
	respondData(w, views)
}

func (s *Server) handleGetTrade(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	t, ok := s.Book.GetTrade(id)
	if !ok {
		respondNotFound(w, "trade")
		return
	}
	respondData(w, renderTrade(t))
}
