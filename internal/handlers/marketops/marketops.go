// Package marketops implements the MARKET_* transaction handlers (spec
// §4.4, §4.5, §6 MARKET_PLACE_ORDER/MARKET_CANCEL_ORDER/MARKET_TRADE),
// wrapping internal/orderbook's matching engine and internal/router's
// hybrid trade router behind the validate/process handler contract.
package marketops

import (
	"github.com/echo-chain/sidenode/internal/events"
	"github.com/echo-chain/sidenode/internal/handlers"
	"github.com/echo-chain/sidenode/internal/orderbook"
	"github.com/echo-chain/sidenode/internal/router"
)

const eventCategory = "market"

// Deps are the shared collaborators every market handler needs.
type Deps struct {
	Book   *orderbook.Engine
	Router *router.Router
	Jrnl   *events.Journal
}

func (d Deps) emit(action, actor, txID string, timestamp int64, data map[string]any) {
	if d.Jrnl == nil {
		return
	}
	_, _ = d.Jrnl.Append(eventCategory, action, actor, data, txID, timestamp)
}

// PlaceOrderHandler implements MARKET_PLACE_ORDER: a single-pair LIMIT or
// MARKET order against the price/time-priority book.
type PlaceOrderHandler struct{ Deps }

func (h *PlaceOrderHandler) Validate(data map[string]any, sender string) bool {
	pairID, ok := handlers.String(data, "pairId")
	if !ok {
		return false
	}
	side, ok := handlers.String(data, "side")
	if !ok || (orderbook.Side(side) != orderbook.Buy && orderbook.Side(side) != orderbook.Sell) {
		return false
	}
	orderType, ok := handlers.String(data, "type")
	if !ok || (orderbook.OrderType(orderType) != orderbook.Limit && orderbook.OrderType(orderType) != orderbook.Market) {
		return false
	}
	if orderbook.OrderType(orderType) == orderbook.Limit {
		if _, ok := handlers.Amount(data, "price"); !ok {
			return false
		}
	}
	qty := handlers.OptAmount(data, "quantity")
	quoteQty := handlers.OptAmount(data, "quoteOrderQty")
	if qty == nil && quoteQty == nil {
		return false
	}
	if qty != nil && !qty.IsPositive() {
		return false
	}
	if quoteQty != nil && !quoteQty.IsPositive() {
		return false
	}
	// quoteOrderQty sizes a BUY by how much quote currency to spend; it only
	// makes sense for MARKET (a LIMIT order is already sized by price*qty),
	// and a MARKET BUY needs either quoteOrderQty or a plain quantity.
	if orderbook.Side(side) == orderbook.Sell && quoteQty != nil {
		return false
	}
	if orderbook.OrderType(orderType) == orderbook.Limit && quoteQty != nil {
		return false
	}
	if orderbook.Side(side) == orderbook.Sell && qty == nil {
		return false
	}
	_ = pairID
	return true
}

func (h *PlaceOrderHandler) Process(data map[string]any, sender, txID string, timestamp int64) bool {
	pairID, _ := handlers.String(data, "pairId")
	side, _ := handlers.String(data, "side")
	orderType, _ := handlers.String(data, "type")
	tif := handlers.OptString(data, "timeInForce")
	if tif == "" {
		tif = string(orderbook.GTC)
	}

	req := orderbook.PlaceOrderRequest{
		OrderID:       txID,
		UserID:        sender,
		PairID:        pairID,
		Type:          orderbook.OrderType(orderType),
		Side:          orderbook.Side(side),
		Price:         handlers.OptAmount(data, "price"),
		Quantity:      handlers.OptAmount(data, "quantity"),
		QuoteOrderQty: handlers.OptAmount(data, "quoteOrderQty"),
		TimeInForce:   orderbook.TimeInForce(tif),
		Timestamp:     timestamp,
	}
	result, err := h.Book.PlaceOrder(req)
	if err != nil {
		return false
	}
	h.emit("place_order", sender, txID, timestamp, map[string]any{
		"pairId": pairID, "orderId": result.Order.ID, "status": string(result.Order.Status), "trades": len(result.Trades),
	})
	return true
}

// CancelOrderHandler implements MARKET_CANCEL_ORDER.
type CancelOrderHandler struct{ Deps }

func (h *CancelOrderHandler) Validate(data map[string]any, sender string) bool {
	pairID, ok := handlers.String(data, "pairId")
	if !ok {
		return false
	}
	orderID, ok := handlers.String(data, "orderId")
	if !ok {
		return false
	}
	order, ok := h.Book.GetOrder(pairID, orderID)
	return ok && order.UserID == sender
}

func (h *CancelOrderHandler) Process(data map[string]any, sender, txID string, timestamp int64) bool {
	pairID, _ := handlers.String(data, "pairId")
	orderID, _ := handlers.String(data, "orderId")
	if _, err := h.Book.Cancel(pairID, orderID); err != nil {
		return false
	}
	h.emit("cancel_order", sender, txID, timestamp, map[string]any{"pairId": pairID, "orderId": orderID})
	return true
}

// TradeHandler implements MARKET_TRADE: the hybrid AMM+orderbook route
// (spec §4.5). "sender" is the trader.
type TradeHandler struct{ Deps }

func (h *TradeHandler) Validate(data map[string]any, sender string) bool {
	if _, ok := handlers.String(data, "pairId"); !ok {
		return false
	}
	if _, ok := handlers.String(data, "tokenIn"); !ok {
		return false
	}
	if _, ok := handlers.String(data, "tokenOut"); !ok {
		return false
	}
	amountIn, ok := handlers.Amount(data, "amountIn")
	if !ok || !amountIn.IsPositive() {
		return false
	}
	price := handlers.OptAmount(data, "price")
	minAmountOut := handlers.OptAmount(data, "minAmountOut")
	maxSlippagePercent := handlers.OptInt64(data, "maxSlippagePercent")
	hasPrice := price != nil
	hasSlippageBound := minAmountOut != nil || maxSlippagePercent > 0
	return hasPrice != hasSlippageBound
}

func (h *TradeHandler) Process(data map[string]any, sender, txID string, timestamp int64) bool {
	pairID, _ := handlers.String(data, "pairId")
	tokenIn, _ := handlers.String(data, "tokenIn")
	tokenOut, _ := handlers.String(data, "tokenOut")
	amountIn, _ := handlers.Amount(data, "amountIn")

	req := router.HybridTradeRequest{
		Trader:             sender,
		PairID:             pairID,
		TokenIn:            tokenIn,
		TokenOut:           tokenOut,
		AmountIn:           amountIn,
		Price:              handlers.OptAmount(data, "price"),
		MinAmountOut:       handlers.OptAmount(data, "minAmountOut"),
		MaxSlippagePercent: handlers.OptInt64(data, "maxSlippagePercent"),
		Timestamp:          timestamp,
	}
	if _, ok := data["routes"].([]any); ok {
		req.Routes = decodeRoutes(data)
	}

	result, err := h.Router.Route(req)
	if err != nil || result.Failed {
		return false
	}
	h.emit("trade", sender, txID, timestamp, map[string]any{
		"pairId": pairID, "tokenIn": tokenIn, "tokenOut": tokenOut,
		"amountIn": amountIn.String(), "totalAmountOut": result.TotalAmountOut.String(),
	})
	return true
}

func decodeRoutes(data map[string]any) []router.RouteAllocation {
	raw, ok := data["routes"].([]any)
	if !ok {
		return nil
	}
	out := make([]router.RouteAllocation, 0, len(raw))
	for _, v := range raw {
		m, ok := v.(map[string]any)
		if !ok {
			continue
		}
		venue, _ := m["venue"].(string)
		pct := handlers.OptInt64(m, "percentage")
		out = append(out, router.RouteAllocation{Venue: router.Venue(venue), Percentage: pct})
	}
	return out
}
