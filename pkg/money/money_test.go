package money

import (
	"testing"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestRoundHalfAwayFromZero(t *testing.T) {
	cases := map[string]string{
		"1.005":  "1.01",
		"1.004":  "1",
		"-1.005": "-1.01",
		"2.5":    "2.5",
	}
	for in, want := range cases {
		if got := Round(d(in)); !got.Equal(d(want)) {
			t.Fatalf("Round(%s): expected %s got %s", in, want, got)
		}
	}
}

func TestPercent(t *testing.T) {
	if got := Percent(d("333.33"), d("10")); !got.Equal(d("33.33")) {
		t.Fatalf("expected 33.33 got %s", got)
	}
	if got := Percent(d("19.99"), d("12.5")); !got.Equal(d("2.50")) {
		t.Fatalf("expected 2.50 got %s", got)
	}
}

func TestFormat(t *testing.T) {
	if got := Format(d("7")); got != "7.00" {
		t.Fatalf("expected 7.00 got %s", got)
	}
}

func TestParse(t *testing.T) {
	if _, err := Parse("10.005"); err == nil {
		t.Fatal("expected three decimals to be rejected")
	}
	value, err := Parse(" 10.50 ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !value.Equal(d("10.5")) {
		t.Fatalf("expected 10.5 got %s", value)
	}
	if _, err := Parse("abc"); err == nil {
		t.Fatal("expected non numeric input to fail")
	}
}

func TestMinAndSum(t *testing.T) {
	if got := Min(d("5"), d("3")); !got.Equal(d("3")) {
		t.Fatalf("expected 3 got %s", got)
	}
	if got := Sum(d("1.10"), d("2.20"), d("3.30")); !got.Equal(d("6.6")) {
		t.Fatalf("expected 6.6 got %s", got)
	}
}
