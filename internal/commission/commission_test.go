package commission

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestCalculate(t *testing.T) {
	tests := []struct {
		total      string
		rate       string
		commission string
		payout     string
	}{
		{total: "100.00", rate: "10", commission: "10.00", payout: "90.00"},
		{total: "19.99", rate: "15", commission: "3.00", payout: "16.99"},
		{total: "0.05", rate: "10", commission: "0.01", payout: "0.04"},
		{total: "33.33", rate: "12.5", commission: "4.17", payout: "29.16"},
		{total: "50.00", rate: "0", commission: "0.00", payout: "50.00"},
		{total: "50.00", rate: "100", commission: "50.00", payout: "0.00"},
	}
	for _, tt := range tests {
		total := decimal.RequireFromString(tt.total)
		split := Calculate(total, decimal.RequireFromString(tt.rate))
		if split.Commission.StringFixed(2) != tt.commission {
			t.Fatalf("%s @ %s%%: expected commission %s, got %s", tt.total, tt.rate, tt.commission, split.Commission.StringFixed(2))
		}
		if split.VendorPayout.StringFixed(2) != tt.payout {
			t.Fatalf("%s @ %s%%: expected payout %s, got %s", tt.total, tt.rate, tt.payout, split.VendorPayout.StringFixed(2))
		}
		if !split.Commission.Add(split.VendorPayout).Equal(total) {
			t.Fatalf("split does not sum to line total for %s", tt.total)
		}
	}
}

func TestResolveRate(t *testing.T) {
	def := decimal.NewFromInt(10)
	if got := ResolveRate(nil, def); !got.Equal(def) {
		t.Fatalf("expected default rate, got %s", got)
	}
	custom := decimal.RequireFromString("7.5")
	if got := ResolveRate(&custom, def); !got.Equal(custom) {
		t.Fatalf("expected vendor rate, got %s", got)
	}
}
