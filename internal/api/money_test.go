package api

import (
	"testing"

	"github.com/echo-chain/sidenode/internal/amount"
	"github.com/echo-chain/sidenode/internal/market"
)

func TestFormatMoneyHumanizesAndPadsRaw(t *testing.T) {
	a := amount.FromInt64(150000000) // 1.5 @ 8 decimals
	v := formatMoney(a, 8)
	if v.Amount != "1.5" {
		t.Fatalf("amount = %q, want 1.5", v.Amount)
	}
	if len(v.RawAmount) != 32 {
		t.Fatalf("rawAmount length = %d, want 32", len(v.RawAmount))
	}
}

func TestDecimalsForStripsIssuerSuffix(t *testing.T) {
	tokens := market.NewTokenRegistry()
	if err := tokens.Register(&market.Token{Symbol: "ECH", Decimals: 8, TotalSupply: amount.Zero()}); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if got := decimalsFor(tokens, "ECH@issuer-1"); got != 8 {
		t.Fatalf("decimalsFor = %d, want 8", got)
	}
	if got := decimalsFor(tokens, "UNKNOWN"); got != 0 {
		t.Fatalf("decimalsFor unknown = %d, want 0", got)
	}
}
