package payments

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestComputeFee(t *testing.T) {
	cases := []struct {
		amount string
		fee    string
	}{
		{"50", "1.75"},    // 1.45 + 0.30
		{"5", "0.45"},     // 0.145 + 0.30 rounded to 0.45
		{"100", "3.20"},   // 2.90 + 0.30
		{"1", "0.33"},     // 0.029 + 0.30 rounded to 0.33
		{"12.50", "0.66"}, // 0.3625 + 0.30 rounded to 0.66
	}
	for _, tc := range cases {
		amount := decimal.RequireFromString(tc.amount)
		want := decimal.RequireFromString(tc.fee)
		if got := ComputeFee(amount); !got.Equal(want) {
			t.Errorf("ComputeFee(%s): expected %s, got %s", tc.amount, want, got)
		}
	}
}

func TestTotalWithFee(t *testing.T) {
	amount := decimal.NewFromInt(50)
	want := decimal.RequireFromString("51.75")
	if got := TotalWithFee(amount); !got.Equal(want) {
		t.Fatalf("expected total %s, got %s", want, got)
	}
}
