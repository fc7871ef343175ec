package api

import (
	"strings"

	"github.com/echo-chain/sidenode/internal/amount"
	"github.com/echo-chain/sidenode/internal/market"
)

// moneyView is the wire shape for every monetary field the read-only
// surface emits (spec §6): a human-scaled decimal alongside the raw
// wire-padded integer string, so clients can pick whichever precision
// they need without re-deriving decimals client-side.
type moneyView struct {
	Amount    string `json:"amount"`
	RawAmount string `json:"rawAmount"`
}

func formatMoney(a *amount.Amount, decimals int) moneyView {
	if a == nil {
		a = amount.Zero()
	}
	return moneyView{Amount: a.Human(decimals), RawAmount: a.MustEncode()}
}

// decimalsFor looks up the registered decimal count for a balance-map
// token identifier ("SYMBOL" or "SYMBOL@ISSUER"), defaulting to 0 (raw
// integer display) for a symbol the token registry has never seen.
func decimalsFor(tokens *market.TokenRegistry, tokenID string) int {
	symbol := tokenID
	if i := strings.IndexByte(tokenID, '@'); i >= 0 {
		symbol = tokenID[:i]
	}
	if t, ok := tokens.Get(symbol); ok {
		return t.Decimals
	}
	return 0
}

func formatBalance(tokens *market.TokenRegistry, tokenID string, a *amount.Amount) moneyView {
	return formatMoney(a, decimalsFor(tokens, tokenID))
}
