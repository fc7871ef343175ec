package amount

import "testing"

func TestParseEncodeRoundTrip(t *testing.T) {
	cases := []string{
		"00000000000000000000000000000000"[:32],
		"00000000000000000000000000000100",
		"-0000000000000000000000000000100",
	}
	for _, c := range cases {
		a, err := Parse(c)
		if err != nil {
			t.Fatalf("parse %q: %v", c, err)
		}
		got, err := a.Encode()
		if err != nil {
			t.Fatalf("encode %q: %v", c, err)
		}
		if got != c {
			t.Errorf("round trip mismatch: got %q want %q", got, c)
		}
	}
}

func TestEncodeRejectsOverflow(t *testing.T) {
	big, _ := Parse("99999999999999999999999999999999999999")
	if _, err := big.Encode(); err == nil {
		t.Fatalf("expected overflow error for oversized amount")
	}
}

func TestMulDivTruncates(t *testing.T) {
	a := FromInt64(100_000_000)
	got := a.MulDiv(9700, 10000)
	if got.String() != "97000000" {
		t.Errorf("got %s want 97000000", got.String())
	}
}

func TestPercentOf(t *testing.T) {
	a := FromInt64(1000)
	if got := a.PercentOf(500); got.String() != "50" {
		t.Errorf("5%% of 1000 = %s, want 50", got.String())
	}
}

func TestSqrt(t *testing.T) {
	a := FromInt64(10_000)
	if got := a.Sqrt(); got.String() != "100" {
		t.Errorf("sqrt(10000) = %s, want 100", got.String())
	}
}

func TestHuman(t *testing.T) {
	a := FromInt64(100_000_00000000)
	if got := a.Human(8); got != "100000" {
		t.Errorf("human = %s, want 100000", got)
	}
	a2 := FromInt64(1_50000000)
	if got := a2.Human(8); got != "1.5" {
		t.Errorf("human = %s, want 1.5", got)
	}
}

func TestMinAndComparisons(t *testing.T) {
	a, b := FromInt64(5), FromInt64(10)
	if Min(a, b) != a {
		t.Errorf("Min should return a")
	}
	if !a.LT(b) || !b.GT(a) {
		t.Errorf("comparison ops broken")
	}
}
